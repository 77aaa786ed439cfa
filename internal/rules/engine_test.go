package rules

import (
	"errors"
	"testing"

	"github.com/urbanking/DA4U-bigcontest-sub000/internal/domain"
)

func TestDefaultRuleSet(t *testing.T) {
	rs, err := NewRuleSet(DefaultRules())
	if err != nil {
		t.Fatalf("failed to compile default rules: %v", err)
	}

	if rs.Len() != 10 {
		t.Errorf("expected 10 rules, got %d", rs.Len())
	}

	codes := []string{"R1", "R2", "R3", "R4", "R5", "R6", "R7", "R8", "R9", "R10"}
	for i, r := range rs.Rules() {
		if r.Code != codes[i] {
			t.Errorf("expected rule %d to be %s, got %s", i, codes[i], r.Code)
		}
	}

	multipliers := map[string]float64{
		"R1": 10, "R2": 5, "R3": 8, "R4": 6, "R5": 8,
		"R6": 15, "R7": 8, "R8": 3, "R9": 5, "R10": 6,
	}
	for code, want := range multipliers {
		r, ok := rs.Get(code)
		if !ok {
			t.Fatalf("expected rule %s", code)
		}
		if r.Multiplier != want {
			t.Errorf("%s: expected multiplier %.0f, got %.0f", code, want, r.Multiplier)
		}
	}
}

func TestRuleSetInputs(t *testing.T) {
	rs := MustDefault()

	tests := map[string][]string{
		"R1":  {domain.FieldNewCustomerChange},
		"R2":  {domain.FieldRevisitRate},
		"R9":  {domain.FieldBusinessChurnRisk},
		"R10": {domain.FieldRevisitRate},
	}
	for code, want := range tests {
		c := rs.byCode[code]
		if len(c.Inputs) != len(want) || c.Inputs[0] != want[0] {
			t.Errorf("%s: expected inputs %v, got %v", code, want, c.Inputs)
		}
	}
}

func TestNewRuleSetRejects(t *testing.T) {
	valid := domain.RiskRule{
		Code:       "X1",
		Name:       "Test",
		Value:      "revisit_rate",
		Threshold:  "10.0",
		Comparison: domain.AtOrBelow,
		Multiplier: 1,
	}

	t.Run("DuplicateCode", func(t *testing.T) {
		_, err := NewRuleSet([]domain.RiskRule{valid, valid})
		if !errors.Is(err, ErrDuplicateCode) {
			t.Errorf("expected ErrDuplicateCode, got %v", err)
		}
	})

	t.Run("MissingCode", func(t *testing.T) {
		r := valid
		r.Code = ""
		_, err := NewRuleSet([]domain.RiskRule{r})
		if !errors.Is(err, ErrInvalidRule) {
			t.Errorf("expected ErrInvalidRule, got %v", err)
		}
	})

	t.Run("InvalidCEL", func(t *testing.T) {
		r := valid
		r.Value = "this is not valid CEL !!!"
		_, err := NewRuleSet([]domain.RiskRule{r})
		if !errors.Is(err, ErrInvalidRule) {
			t.Errorf("expected ErrInvalidRule, got %v", err)
		}
	})

	t.Run("NonDoubleExpression", func(t *testing.T) {
		r := valid
		r.Value = "revisit_rate > 10.0"
		_, err := NewRuleSet([]domain.RiskRule{r})
		if !errors.Is(err, ErrInvalidRule) {
			t.Errorf("expected ErrInvalidRule, got %v", err)
		}
	})

	t.Run("UnknownVariable", func(t *testing.T) {
		r := valid
		r.Threshold = "tx_amount"
		_, err := NewRuleSet([]domain.RiskRule{r})
		if err == nil {
			t.Error("expected error for unknown variable")
		}
	})

	t.Run("BadComparison", func(t *testing.T) {
		r := valid
		r.Comparison = "<"
		_, err := NewRuleSet([]domain.RiskRule{r})
		if !errors.Is(err, ErrInvalidRule) {
			t.Errorf("expected ErrInvalidRule, got %v", err)
		}
	})

	t.Run("ZeroMultiplier", func(t *testing.T) {
		r := valid
		r.Multiplier = 0
		_, err := NewRuleSet([]domain.RiskRule{r})
		if !errors.Is(err, ErrInvalidRule) {
			t.Errorf("expected ErrInvalidRule, got %v", err)
		}
	})
}

func TestRulesReturnsCopy(t *testing.T) {
	rs := MustDefault()

	rules := rs.Rules()
	rules[0].Threshold = "0.0"

	r, _ := rs.Get("R1")
	if r.Threshold != "-3.0" {
		t.Errorf("expected registry to be unaffected, got threshold %s", r.Threshold)
	}
}
