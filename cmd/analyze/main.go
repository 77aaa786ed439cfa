// analyze runs merchant reports through the storelens pipeline from the
// command line.
//
// Usage:
//
//	go run ./cmd/analyze report.json [more.json ...]
//	go run ./cmd/analyze -url http://localhost:8080 report.json
//	go run ./cmd/analyze -nats nats://localhost:4222 report.json
//
// Without -url or -nats the reports are analyzed in process. With -url they
// are posted to a running server; with -nats they are sent to the analysis
// worker as a request and the worker's reply is printed.
//
// A report file holds either {"merchantId", "storeName", "sections"} or the
// bare section object as the upstream pipeline writes it.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/urbanking/DA4U-bigcontest-sub000/internal/analysis"
	"github.com/urbanking/DA4U-bigcontest-sub000/internal/bus"
	"github.com/urbanking/DA4U-bigcontest-sub000/internal/domain"
	"github.com/urbanking/DA4U-bigcontest-sub000/internal/worker"
)

type options struct {
	baseURL  string
	natsURL  string
	tenantID string
	timeout  time.Duration
	asJSON   bool
}

// result is one analyzed file.
type result struct {
	path     string
	analysis *domain.Analysis
	err      error
}

func main() {
	var opts options
	flag.StringVar(&opts.baseURL, "url", "", "storelens base URL; analyze over HTTP")
	flag.StringVar(&opts.natsURL, "nats", "", "NATS URL; send reports to the analysis worker")
	flag.StringVar(&opts.tenantID, "tenant", "default", "Tenant ID for requests")
	flag.DurationVar(&opts.timeout, "timeout", 30*time.Second, "Per-report timeout")
	flag.BoolVar(&opts.asJSON, "json", false, "Print full analyses as JSON")
	workers := flag.Int("workers", 4, "Number of concurrent analyses")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Println("Usage: analyze [-url http://localhost:8080 | -nats nats://localhost:4222] report.json ...")
		fmt.Println("\nFlags:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	run, closeFn, err := newRunner(opts)
	if err != nil {
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(1)
	}
	defer closeFn()

	results := analyzeAll(flag.Args(), *workers, opts.timeout, run)

	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			fmt.Printf("✗ %s: %v\n", r.path, r.err)
			continue
		}
		if opts.asJSON {
			out, _ := json.MarshalIndent(r.analysis, "", "  ")
			fmt.Println(string(out))
			continue
		}
		printSummary(r.path, r.analysis)
	}

	if failed > 0 {
		os.Exit(1)
	}
}

type runFunc func(ctx context.Context, report *domain.Report) (*domain.Analysis, error)

// newRunner picks the in-process, HTTP or NATS backend.
func newRunner(opts options) (runFunc, func(), error) {
	switch {
	case opts.baseURL != "":
		client := &http.Client{Timeout: opts.timeout}
		return func(ctx context.Context, report *domain.Report) (*domain.Analysis, error) {
			return analyzeHTTP(ctx, client, opts.baseURL, opts.tenantID, report)
		}, func() {}, nil

	case opts.natsURL != "":
		b, err := bus.New(domain.EventBusConfig{
			Type:              "nats",
			NATSUrl:           opts.natsURL,
			NATSMaxReconnects: 3,
			NATSReconnectWait: 1,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		return func(ctx context.Context, report *domain.Report) (*domain.Analysis, error) {
			return analyzeRemote(ctx, b, opts.tenantID, report)
		}, func() { b.Close() }, nil

	default:
		analyzer := analysis.NewDefault()
		return func(ctx context.Context, report *domain.Report) (*domain.Analysis, error) {
			return analyzer.Run(ctx, &analysis.Input{
				TenantID:  opts.tenantID,
				Report:    report,
				StartTime: time.Now(),
			}), nil
		}, func() {}, nil
	}
}

func analyzeAll(paths []string, workers int, timeout time.Duration, run runFunc) []result {
	if workers < 1 {
		workers = 1
	}

	results := make([]result, len(paths))
	jobs := make(chan int)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = analyzeFile(paths[idx], timeout, run)
			}
		}()
	}

	for i := range paths {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

func analyzeFile(path string, timeout time.Duration, run runFunc) result {
	report, err := readReport(path)
	if err != nil {
		return result{path: path, err: err}
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	a, err := run(ctx, report)
	return result{path: path, analysis: a, err: err}
}

// readReport loads a report file. A file without a "sections" key is taken
// to be the sections object itself, and the merchant ID defaults to the
// file name.
func readReport(path string) (*domain.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	report := &domain.Report{CreatedAt: time.Now().UTC()}
	if sections, ok := raw["sections"].(map[string]any); ok {
		report.Sections = sections
		report.ID, _ = domain.AsString(raw["id"])
		report.MerchantID, _ = domain.AsString(raw["merchantId"])
		report.StoreName, _ = domain.AsString(raw["storeName"])
	} else {
		report.Sections = raw
	}

	if report.ID == "" {
		report.ID = uuid.New().String()
	}
	if report.MerchantID == "" {
		report.MerchantID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return report, nil
}

func analyzeHTTP(ctx context.Context, client *http.Client, baseURL, tenantID string, report *domain.Report) (*domain.Analysis, error) {
	body, err := json.Marshal(map[string]any{
		"reportId":   report.ID,
		"merchantId": report.MerchantID,
		"storeName":  report.StoreName,
		"sections":   report.Sections,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(baseURL, "/")+"/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-ID", tenantID)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var out struct {
		Analysis *domain.Analysis `json:"analysis"`
	}
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return out.Analysis, nil
}

func analyzeRemote(ctx context.Context, b domain.EventBus, tenantID string, report *domain.Report) (*domain.Analysis, error) {
	report.TenantID = tenantID
	payload, err := json.Marshal(worker.ReportMessage{
		ReportID: report.ID,
		TenantID: tenantID,
		Report:   report,
	})
	if err != nil {
		return nil, err
	}

	reply, err := b.Request(ctx, tenantID, domain.TopicReportIngested, payload)
	if err != nil {
		return nil, err
	}

	var a domain.Analysis
	if err := json.Unmarshal(reply, &a); err != nil {
		return nil, fmt.Errorf("failed to parse worker reply: %w", err)
	}
	return &a, nil
}

func printSummary(path string, a *domain.Analysis) {
	fmt.Printf("✓ %s (merchant %s)\n", path, a.MerchantID)
	fmt.Printf("  Risk:     %s (avg %.1f) %v\n", a.Risk.OverallLevel, a.Risk.AverageScore, a.Risk.Codes())
	fmt.Printf("  Persona:  %s (score %.2f)\n", a.Persona.TemplateName, a.Persona.Score)
	for _, m := range a.Mitigations {
		fmt.Printf("  %-4s %s\n", m.Code, m.Name)
	}
	if len(a.Degraded) > 0 {
		fmt.Printf("  Degraded: %s\n", strings.Join(a.Degraded, ", "))
	}
	fmt.Println()
}
