package cache

import (
	"encoding/json"
	"fmt"

	"github.com/urbanking/DA4U-bigcontest-sub000/internal/domain"
)

// analysisKey namespaces cached analyses inside a tenant.
func analysisKey(analysisID string) string {
	return "analysis:" + analysisID
}

func encodeAnalysis(a *domain.Analysis) ([]byte, error) {
	if a == nil || a.ID == "" {
		return nil, fmt.Errorf("analysis with an ID is required")
	}
	return json.Marshal(a)
}

func decodeAnalysis(data []byte) (*domain.Analysis, error) {
	var a domain.Analysis
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to decode cached analysis: %w", err)
	}
	return &a, nil
}
