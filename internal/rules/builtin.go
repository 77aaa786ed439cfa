package rules

import "github.com/urbanking/DA4U-bigcontest-sub000/internal/domain"

// DefaultRules returns the built-in risk codes R1-R10 in registry order.
// Literals are written as doubles since every variable is a double.
func DefaultRules() []domain.RiskRule {
	return []domain.RiskRule{
		{
			Code:        "R1",
			Name:        "New-customer sink",
			Description: "New customer inflow is falling by 3% or more.",
			Value:       "new_customer_change",
			Threshold:   "-3.0",
			Comparison:  domain.AtOrBelow,
			Multiplier:  10,
			Priority:    1,
			Impact:      0.9,
		},
		{
			Code:        "R2",
			Name:        "Revisit drop vs industry",
			Description: "Revisit rate is at least 3 points below the industry average.",
			Value:       "revisit_rate",
			Threshold:   "industry_revisit_rate - 3.0",
			Comparison:  domain.AtOrBelow,
			Multiplier:  5,
			Priority:    1,
			Impact:      0.85,
		},
		{
			Code:        "R3",
			Name:        "Long sales slump",
			Description: "Sales have been below trend for 10 days or more.",
			Value:       "slump_days",
			Threshold:   "10.0",
			Comparison:  domain.AtOrAbove,
			Multiplier:  8,
			Priority:    2,
			Impact:      0.8,
		},
		{
			Code:        "R4",
			Name:        "Short-term sales drop",
			Description: "Recent sales dropped by 15% or more.",
			Value:       "short_term_drop",
			Threshold:   "15.0",
			Comparison:  domain.AtOrAbove,
			Multiplier:  6,
			Priority:    2,
			Impact:      0.75,
		},
		{
			Code:        "R5",
			Name:        "Delivery sales drop",
			Description: "Delivery sales fell by 10% or more.",
			Value:       "delivery_sales_change",
			Threshold:   "-10.0",
			Comparison:  domain.AtOrBelow,
			Multiplier:  8,
			Priority:    3,
			Impact:      0.6,
		},
		{
			Code:        "R6",
			Name:        "Cancellation spike",
			Description: "Order cancellation rate is 0.7% or higher.",
			Value:       "cancellation_rate",
			Threshold:   "0.7",
			Comparison:  domain.AtOrAbove,
			Multiplier:  15,
			Priority:    2,
			Impact:      0.7,
		},
		{
			Code:        "R7",
			Name:        "Core age gap",
			Description: "The core age group share trails the target demographic by 8 points or more.",
			Value:       "core_age_gap",
			Threshold:   "-8.0",
			Comparison:  domain.AtOrBelow,
			Multiplier:  8,
			Priority:    3,
			Impact:      0.55,
		},
		{
			Code:        "R8",
			Name:        "Market misfit",
			Description: "Market fit score is at or above 70.",
			Value:       "market_fit_score",
			Threshold:   "70.0",
			Comparison:  domain.AtOrAbove,
			Multiplier:  3,
			Priority:    3,
			Impact:      0.5,
		},
		{
			// 1.5 standard deviations approximated as a flat 15 points.
			Code:        "R9",
			Name:        "Churn risk vs industry",
			Description: "Business churn risk exceeds the industry market fit average plus 1.5 sigma (approximated as +15).",
			Value:       "business_churn_risk",
			Threshold:   "industry_market_fit + 15.0",
			Comparison:  domain.AtOrAbove,
			Multiplier:  5,
			Priority:    1,
			Impact:      0.95,
		},
		{
			Code:        "R10",
			Name:        "Absolute low revisit",
			Description: "Revisit rate is 30% or lower regardless of industry.",
			Value:       "revisit_rate",
			Threshold:   "30.0",
			Comparison:  domain.AtOrBelow,
			Multiplier:  6,
			Priority:    2,
			Impact:      0.8,
		},
	}
}
