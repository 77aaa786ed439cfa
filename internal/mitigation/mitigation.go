// Package mitigation maps detected risk codes to canned remediation tactics.
package mitigation

import "github.com/urbanking/DA4U-bigcontest-sub000/internal/domain"

// MaxSuggestions caps how many detected risks receive mitigations.
const MaxSuggestions = 5

// Advisor looks up tactics by risk code. It is immutable after construction.
type Advisor struct {
	table map[string]domain.Mitigation
}

// NewAdvisor copies table into a new advisor.
func NewAdvisor(table map[string]domain.Mitigation) *Advisor {
	a := &Advisor{table: make(map[string]domain.Mitigation, len(table))}
	for code, m := range table {
		m.Code = code
		m.Tactics = append([]string(nil), m.Tactics...)
		a.table[code] = m
	}
	return a
}

// Suggest returns mitigations for the first MaxSuggestions detected risks.
// detected must already be in priority order; codes without an entry are
// skipped.
func (a *Advisor) Suggest(detected []domain.DetectedRisk) []domain.Mitigation {
	if len(detected) > MaxSuggestions {
		detected = detected[:MaxSuggestions]
	}
	out := make([]domain.Mitigation, 0, len(detected))
	for _, d := range detected {
		m, ok := a.table[d.Code]
		if !ok {
			continue
		}
		m.Tactics = append([]string(nil), m.Tactics...)
		out = append(out, m)
	}
	return out
}

// Lookup returns the mitigation for code.
func (a *Advisor) Lookup(code string) (domain.Mitigation, bool) {
	m, ok := a.table[code]
	if ok {
		m.Tactics = append([]string(nil), m.Tactics...)
	}
	return m, ok
}

// DefaultTable returns the built-in tactics for R1-R10.
func DefaultTable() map[string]domain.Mitigation {
	return map[string]domain.Mitigation{
		"R1": {Name: "Recover new-customer inflow", Tactics: []string{
			"Refresh map listing photos and menu information",
			"Run a first-visit discount on local platforms",
			"Add signage visible from the main foot-traffic route",
		}},
		"R2": {Name: "Close the revisit gap with the industry", Tactics: []string{
			"Introduce a stamp or point card",
			"Send a revisit coupon within a week of the first purchase",
			"Ask for feedback and respond to negative reviews",
		}},
		"R3": {Name: "Break a long sales slump", Tactics: []string{
			"Review the menu for underperforming items",
			"Launch a limited-time signature offer",
			"Check opening hours against local demand peaks",
		}},
		"R4": {Name: "Respond to a short-term sales drop", Tactics: []string{
			"Compare recent weeks for one-off causes such as weather or construction",
			"Run a short flash promotion to restore traffic",
			"Check competitor openings nearby",
		}},
		"R5": {Name: "Restore delivery sales", Tactics: []string{
			"Audit delivery app ranking, photos and minimum order",
			"Adjust delivery radius and fees for peak hours",
			"Add delivery-only set menus",
		}},
		"R6": {Name: "Reduce order cancellations", Tactics: []string{
			"Set realistic prep times in delivery apps",
			"Sync stock-outs to the menu in real time",
			"Review peak-hour staffing",
		}},
		"R7": {Name: "Reach the core age group", Tactics: []string{
			"Shift channel mix towards the target age group",
			"Add menu items and price points aimed at the core demographic",
			"Use visuals and tone that match the target group",
		}},
		"R8": {Name: "Re-check market fit", Tactics: []string{
			"Compare the offer against the top stores in the area",
			"Survey regulars about what keeps them coming",
			"Test a positioning change on one channel before rolling out",
		}},
		"R9": {Name: "Lower churn risk", Tactics: []string{
			"Review fixed costs and lease terms",
			"Diversify revenue with takeout or catering",
			"Consult the local small business support center",
		}},
		"R10": {Name: "Lift an absolutely low revisit rate", Tactics: []string{
			"Launch a membership with a clear second-visit reward",
			"Collect contact consent for follow-up messages",
			"Improve service consistency across shifts",
		}},
	}
}
