// Package rules provides the CEL based merchant risk rule set and evaluator.
package rules

import (
	"errors"
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/urbanking/DA4U-bigcontest-sub000/internal/domain"
)

var (
	// ErrDuplicateCode is returned when two rules share a code.
	ErrDuplicateCode = errors.New("duplicate risk code")

	// ErrInvalidRule is returned for a rule that cannot be compiled.
	ErrInvalidRule = errors.New("invalid risk rule")
)

// Expression variables available to rule Value and Threshold expressions.
// Metric variables use the domain field names; industry_* come from the
// industry averages table; extra carries caller supplied values.
const (
	VarIndustryRevisitRate      = "industry_revisit_rate"
	VarIndustryDeliveryRatio    = "industry_delivery_ratio"
	VarIndustryCancellationRate = "industry_cancellation_rate"
	VarIndustryMarketFit        = "industry_market_fit"
	VarExtra                    = "extra"
)

var metricVars = []string{
	domain.FieldRevisitRate,
	domain.FieldNewCustomerRatio,
	domain.FieldNewCustomerChange,
	domain.FieldDeliveryRatio,
	domain.FieldDeliverySalesChange,
	domain.FieldCancellationRate,
	domain.FieldSlumpDays,
	domain.FieldShortTermDrop,
	domain.FieldCoreAgeGap,
	domain.FieldAreaTerminationRatio,
	domain.FieldIndustryTerminationRatio,
	domain.FieldMarketFitScore,
	domain.FieldBusinessChurnRisk,
}

var industryVars = []string{
	VarIndustryRevisitRate,
	VarIndustryDeliveryRatio,
	VarIndustryCancellationRate,
	VarIndustryMarketFit,
}

// CompiledRule holds a rule with its pre-compiled CEL programs.
type CompiledRule struct {
	Rule      domain.RiskRule
	Value     cel.Program
	Threshold cel.Program

	// Inputs are the metric fields referenced by the rule. The evaluator
	// skips a rule whose inputs were defaulted rather than reported.
	Inputs []string
}

// RuleSet is an immutable, ordered registry of compiled risk rules.
// It has no mutating methods, so concurrent readers need no locking.
type RuleSet struct {
	rules  []*CompiledRule
	byCode map[string]*CompiledRule
}

// NewEnv returns the CEL environment rule expressions are compiled against.
func NewEnv() (*cel.Env, error) {
	opts := make([]cel.EnvOption, 0, len(metricVars)+len(industryVars)+1)
	for _, name := range metricVars {
		opts = append(opts, cel.Variable(name, cel.DoubleType))
	}
	for _, name := range industryVars {
		opts = append(opts, cel.Variable(name, cel.DoubleType))
	}
	opts = append(opts, cel.Variable(VarExtra, cel.MapType(cel.StringType, cel.DoubleType)))

	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return env, nil
}

// NewRuleSet compiles defs in order. Codes must be unique and both
// expressions must produce a double.
func NewRuleSet(defs []domain.RiskRule) (*RuleSet, error) {
	env, err := NewEnv()
	if err != nil {
		return nil, err
	}

	rs := &RuleSet{
		rules:  make([]*CompiledRule, 0, len(defs)),
		byCode: make(map[string]*CompiledRule, len(defs)),
	}

	for _, def := range defs {
		if def.Code == "" {
			return nil, fmt.Errorf("%w: rule code is required", ErrInvalidRule)
		}
		if _, exists := rs.byCode[def.Code]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCode, def.Code)
		}

		compiled, err := compileRule(env, def)
		if err != nil {
			return nil, err
		}

		rs.rules = append(rs.rules, compiled)
		rs.byCode[def.Code] = compiled
	}

	return rs, nil
}

// MustDefault returns the built-in rule set and panics if it fails to compile.
func MustDefault() *RuleSet {
	rs, err := NewRuleSet(DefaultRules())
	if err != nil {
		panic(err)
	}
	return rs
}

// Len returns the number of rules.
func (rs *RuleSet) Len() int {
	return len(rs.rules)
}

// Rules returns copies of the rule definitions in registry order.
func (rs *RuleSet) Rules() []domain.RiskRule {
	out := make([]domain.RiskRule, len(rs.rules))
	for i, c := range rs.rules {
		out[i] = c.Rule
	}
	return out
}

// Get returns the rule with code.
func (rs *RuleSet) Get(code string) (domain.RiskRule, bool) {
	c, ok := rs.byCode[code]
	if !ok {
		return domain.RiskRule{}, false
	}
	return c.Rule, true
}

func compileRule(env *cel.Env, def domain.RiskRule) (*CompiledRule, error) {
	if def.Comparison != domain.AtOrBelow && def.Comparison != domain.AtOrAbove {
		return nil, fmt.Errorf("%w: rule %s: unknown comparison %q", ErrInvalidRule, def.Code, def.Comparison)
	}
	if def.Multiplier <= 0 {
		return nil, fmt.Errorf("%w: rule %s: multiplier must be positive", ErrInvalidRule, def.Code)
	}

	value, valueAST, err := compileExpr(env, def.Code, "value", def.Value)
	if err != nil {
		return nil, err
	}
	threshold, thresholdAST, err := compileExpr(env, def.Code, "threshold", def.Threshold)
	if err != nil {
		return nil, err
	}

	return &CompiledRule{
		Rule:      def,
		Value:     value,
		Threshold: threshold,
		Inputs:    referencedMetrics(valueAST, thresholdAST),
	}, nil
}

func compileExpr(env *cel.Env, code, part, expr string) (cel.Program, *cel.Ast, error) {
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, nil, fmt.Errorf("%w: rule %s %s: %v", ErrInvalidRule, code, part, issues.Err())
	}

	if ast.OutputType() != cel.DoubleType {
		return nil, nil, fmt.Errorf("%w: rule %s %s must return double, got %s", ErrInvalidRule, code, part, ast.OutputType())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create program for rule %s %s: %w", code, part, err)
	}
	return program, ast, nil
}

// referencedMetrics lists the metric variables that appear in the checked ASTs.
func referencedMetrics(asts ...*cel.Ast) []string {
	seen := make(map[string]bool)
	for _, ast := range asts {
		for _, ref := range ast.NativeRep().ReferenceMap() {
			if ref.Name != "" {
				seen[ref.Name] = true
			}
		}
	}

	var inputs []string
	for _, name := range metricVars {
		if seen[name] {
			inputs = append(inputs, name)
		}
	}
	return inputs
}
