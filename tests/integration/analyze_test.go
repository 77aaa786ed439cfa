//go:build integration
// +build integration

// Package integration provides end-to-end tests for the storelens analysis
// service.
//
// These tests verify the COMPLETE analysis pipeline against a running server:
//
//	Report → Metrics → Risk codes (R1-R10) → Persona match → Mitigations
//
// Run with: go test -tags=integration -v ./tests/integration/...
//
// The server must be started with the built-in rules and personas; no
// seeding is required. STORELENS_TEST_URL overrides the default
// http://localhost:8080.
package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"
)

// TestConfig holds test environment configuration
type TestConfig struct {
	BaseURL  string
	TenantID string
}

func getTestConfig() TestConfig {
	baseURL := os.Getenv("STORELENS_TEST_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	return TestConfig{
		BaseURL:  baseURL,
		TenantID: "default",
	}
}

// ============================================================================
// API Request/Response Types (matching the storelens API contract)
// ============================================================================

// AnalyzeRequest is the report sent to POST /analyze
type AnalyzeRequest struct {
	ReportID   string         `json:"reportId,omitempty"`
	MerchantID string         `json:"merchantId"`
	StoreName  string         `json:"storeName,omitempty"`
	Sections   map[string]any `json:"sections"`
}

type DetectedRisk struct {
	Code  string  `json:"code"`
	Level string  `json:"level"`
	Score float64 `json:"score"`
}

type Analysis struct {
	ID         string `json:"id"`
	ReportID   string `json:"reportId"`
	MerchantID string `json:"merchantId"`
	Risk       struct {
		OverallLevel string         `json:"overallLevel"`
		AverageScore float64        `json:"averageScore"`
		Detected     []DetectedRisk `json:"detected"`
		Unavailable  []string       `json:"unavailable"`
	} `json:"risk"`
	Persona struct {
		TemplateName string  `json:"templateName"`
		Score        float64 `json:"score"`
		Fallback     bool    `json:"fallback"`
	} `json:"persona"`
	Mitigations []struct {
		Code    string   `json:"code"`
		Tactics []string `json:"tactics"`
	} `json:"mitigations"`
}

func (a Analysis) has(code string) bool {
	for _, d := range a.Risk.Detected {
		if d.Code == code {
			return true
		}
	}
	return false
}

// AnalyzeResponse is what POST /analyze returns
type AnalyzeResponse struct {
	Analysis Analysis `json:"analysis"`
	Metadata struct {
		TraceID string `json:"traceId"`
		TotalMs int64  `json:"totalMs"`
		Version string `json:"version"`
	} `json:"metadata"`
}

// ============================================================================
// Test Helper Functions
// ============================================================================

func call(t *testing.T, config TestConfig, method, path string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	httpReq, err := http.NewRequest(method, config.BaseURL+path, reader)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Tenant-ID", config.TenantID)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(httpReq)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response: %v", err)
	}
	return resp.StatusCode, respBody
}

func analyze(t *testing.T, config TestConfig, req AnalyzeRequest) AnalyzeResponse {
	t.Helper()

	status, body := call(t, config, http.MethodPost, "/analyze", req)
	if status != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", status, string(body))
	}

	var result AnalyzeResponse
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("Failed to unmarshal response: %v (body: %s)", err, string(body))
	}
	return result
}

func merchantID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

// ============================================================================
// SCENARIO 1: Struggling SNS cafe (multiple retention risks)
// ============================================================================

func TestStrugglingCafe_RetentionRisks(t *testing.T) {
	/*
	   SCENARIO: A cafe in a central district, 20s women dominant, whose
	   new-customer inflow is shrinking and whose regulars do not return.

	   EXPECTED BEHAVIOR:
	   - R1: new_customer_change -5 <= -3
	   - R2: revisit 20 <= cafe average 38 - 3
	   - R10: revisit 20 <= 30
	   - Persona: SNS-sensitive female-dominant cafe
	   - One mitigation per detected risk, in priority order
	*/
	config := getTestConfig()

	req := AnalyzeRequest{
		MerchantID: merchantID("cafe"),
		StoreName:  "Cafe Blue",
		Sections: map[string]any{
			"store_overview": map[string]any{
				"industry":            "카페",
				"commercial_zone":     "중심상권",
				"months_in_operation": 30,
			},
			"customer_analysis": map[string]any{
				"revisit_rate":        20,
				"new_customer_ratio":  25,
				"new_customer_change": -5,
				"female_ratio":        70,
				"age_distribution":    map[string]any{"20대": 48, "30대": 22},
			},
			"sales_analysis": map[string]any{
				"sales_amount_trend": "decreasing",
				"slump_days":         3,
				"short_term_drop":    5,
			},
			"delivery_analysis": map[string]any{
				"delivery_ratio":        10,
				"delivery_sales_change": 0,
				"cancellation_rate":     0.2,
			},
		},
	}

	result := analyze(t, config, req)
	a := result.Analysis

	for _, code := range []string{"R1", "R2", "R10"} {
		if !a.has(code) {
			t.Errorf("Expected %s detected, got %+v", code, a.Risk.Detected)
		}
	}
	if a.Persona.TemplateName != "SNS-sensitive female-dominant cafe" {
		t.Errorf("Expected SNS cafe persona, got %s", a.Persona.TemplateName)
	}
	if len(a.Mitigations) == 0 {
		t.Error("Expected mitigations for detected risks")
	}
	if result.Metadata.TraceID == "" {
		t.Error("Expected trace ID in metadata")
	}

	t.Logf("✓ Struggling cafe: level=%s, codes=%d, persona=%s",
		a.Risk.OverallLevel, len(a.Risk.Detected), a.Persona.TemplateName)
}

// ============================================================================
// SCENARIO 2: Delivery chicken franchise with cancellation spike
// ============================================================================

func TestChickenDelivery_CancellationSpike(t *testing.T) {
	/*
	   SCENARIO: A franchise chicken outlet in a residential area whose
	   delivery sales are falling while cancellations climb.

	   EXPECTED BEHAVIOR:
	   - R5: delivery_sales_change -15 <= -10
	   - R6: cancellation 1.2 >= 0.7
	   - Persona: Franchise chicken delivery
	*/
	config := getTestConfig()

	req := AnalyzeRequest{
		MerchantID: merchantID("chicken"),
		Sections: map[string]any{
			"store_overview": map[string]any{
				"industry":            "치킨",
				"commercial_zone":     "주거",
				"is_franchise":        "Y",
				"months_in_operation": 40,
			},
			"customer_analysis": map[string]any{
				"revisit_rate":        35,
				"new_customer_change": 0,
				"customer_type_ratio": map[string]any{"resident": 60, "floating": 25},
			},
			"delivery_analysis": map[string]any{
				"delivery_ratio":        75,
				"delivery_sales_change": -15,
				"cancellation_rate":     1.2,
			},
		},
	}

	a := analyze(t, config, req).Analysis

	if !a.has("R5") || !a.has("R6") {
		t.Errorf("Expected R5 and R6 detected, got %+v", a.Risk.Detected)
	}
	if a.Persona.TemplateName != "Franchise chicken delivery" {
		t.Logf("Note: persona was %s (score %.2f)", a.Persona.TemplateName, a.Persona.Score)
	}

	t.Logf("✓ Chicken delivery: level=%s, persona=%s", a.Risk.OverallLevel, a.Persona.TemplateName)
}

// ============================================================================
// SCENARIO 3: Empty report (every step falls back to defaults)
// ============================================================================

func TestEmptyReport_Defaults(t *testing.T) {
	/*
	   SCENARIO: The upstream pipeline produced no sections at all.

	   EXPECTED BEHAVIOR:
	   - Analysis still succeeds with status 200
	   - Rules whose inputs are missing are reported as unavailable, not detected
	   - Overall level is LOW
	*/
	config := getTestConfig()

	a := analyze(t, config, AnalyzeRequest{
		MerchantID: merchantID("empty"),
		Sections:   map[string]any{},
	}).Analysis

	if a.Risk.OverallLevel != "LOW" {
		t.Errorf("Expected LOW for an empty report, got %s", a.Risk.OverallLevel)
	}
	if len(a.Risk.Unavailable) == 0 {
		t.Error("Expected unavailable rules for an empty report")
	}

	t.Logf("✓ Empty report: unavailable=%v", a.Risk.Unavailable)
}

// ============================================================================
// SCENARIO 4: Persisted analyses are retrievable
// ============================================================================

func TestAnalysisRetrieval(t *testing.T) {
	config := getTestConfig()
	merchant := merchantID("history")

	first := analyze(t, config, AnalyzeRequest{MerchantID: merchant, Sections: map[string]any{}}).Analysis
	analyze(t, config, AnalyzeRequest{MerchantID: merchant, Sections: map[string]any{}})

	status, body := call(t, config, http.MethodGet, "/analyses/"+first.ID, nil)
	if status != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", status, string(body))
	}

	status, body = call(t, config, http.MethodGet, "/merchants/"+merchant+"/analyses", nil)
	if status != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", status, string(body))
	}
	var list struct {
		Count int `json:"count"`
	}
	json.Unmarshal(body, &list)
	if list.Count != 2 {
		t.Errorf("Expected 2 analyses for %s, got %d", merchant, list.Count)
	}

	status, _ = call(t, config, http.MethodGet, "/reports/"+first.ReportID, nil)
	if status != http.StatusOK {
		t.Errorf("Expected stored report, got status %d", status)
	}
}

// ============================================================================
// SCENARIO 5: Async submission is picked up by the worker
// ============================================================================

func TestAsyncAnalysis(t *testing.T) {
	config := getTestConfig()
	merchant := merchantID("async")

	status, body := call(t, config, http.MethodPost, "/analyze?async=true", AnalyzeRequest{
		MerchantID: merchant,
		Sections:   map[string]any{},
	})
	if status != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d: %s", status, string(body))
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		_, body = call(t, config, http.MethodGet, "/merchants/"+merchant+"/analyses", nil)
		var list struct {
			Count int `json:"count"`
		}
		json.Unmarshal(body, &list)
		if list.Count == 1 {
			t.Logf("✓ Worker analyzed queued report for %s", merchant)
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatal("Timed out waiting for the worker to store the analysis")
}

// ============================================================================
// SCENARIO 6: Reference endpoints
// ============================================================================

func TestReferenceEndpoints(t *testing.T) {
	config := getTestConfig()

	t.Run("RiskCodes", func(t *testing.T) {
		status, body := call(t, config, http.MethodGet, "/risk-codes", nil)
		if status != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", status)
		}
		var resp struct {
			Count int `json:"count"`
		}
		json.Unmarshal(body, &resp)
		if resp.Count != 10 {
			t.Errorf("Expected 10 risk codes, got %d", resp.Count)
		}
	})

	t.Run("Personas", func(t *testing.T) {
		status, _ := call(t, config, http.MethodGet, "/personas", nil)
		if status != http.StatusOK {
			t.Errorf("Expected status 200, got %d", status)
		}
	})

	t.Run("Health", func(t *testing.T) {
		status, body := call(t, config, http.MethodGet, "/health", nil)
		if status != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", status)
		}
		var resp struct {
			Status string `json:"status"`
		}
		json.Unmarshal(body, &resp)
		if resp.Status != "healthy" {
			t.Errorf("Expected healthy, got %s", resp.Status)
		}
	})
}
