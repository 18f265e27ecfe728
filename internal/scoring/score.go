// Package scoring computes the composite lead score shown next to a
// personalization session: a 0-100 rating of how sales-ready the visitor
// looks, with a per-axis breakdown.
package scoring

import "github.com/iluma/offer-engine/internal/personalization"

// Breakdown itemizes the lead score. Axis maxima: budget 25, experience 15,
// engagement 30, loyalty 15, risk appetite 15.
type Breakdown struct {
	Budget       int `json:"budget"`
	Experience   int `json:"experience"`
	Engagement   int `json:"engagement"`
	Loyalty      int `json:"loyalty"`
	RiskAppetite int `json:"risk_appetite"`
}

// LeadScore is the composite rating for one session.
type LeadScore struct {
	Total     int       `json:"total"` // 0-100
	Grade     string    `json:"grade"` // A, B, C or D
	Breakdown Breakdown `json:"breakdown"`
}

var budgetPoints = map[personalization.BudgetTier]int{
	personalization.BudgetLow:     5,
	personalization.BudgetMedium:  10,
	personalization.BudgetHigh:    20,
	personalization.BudgetPremium: 25,
}

var experiencePoints = map[personalization.ExperienceLevel]int{
	personalization.ExperienceBeginner:     5,
	personalization.ExperienceIntermediate: 10,
	personalization.ExperienceExpert:       15,
}

var riskPoints = map[personalization.RiskTolerance]int{
	personalization.RiskConservative: 5,
	personalization.RiskModerate:     10,
	personalization.RiskAggressive:   15,
}

// Compute derives the lead score from a classified profile and the last
// measured engagement score (0 when no interaction has been reported yet).
func Compute(profile personalization.UserProfile, lastEngagement int) LeadScore {
	if lastEngagement < 0 {
		lastEngagement = 0
	}
	if lastEngagement > 100 {
		lastEngagement = 100
	}

	breakdown := Breakdown{
		Budget:       budgetPoints[profile.Demographic.Budget],
		Experience:   experiencePoints[profile.Demographic.Experience],
		Engagement:   lastEngagement * 30 / 100,
		Loyalty:      loyaltyPoints(profile.Contextual.PreviousVisits),
		RiskAppetite: riskPoints[profile.Behavioral.RiskTolerance],
	}

	total := breakdown.Budget + breakdown.Experience + breakdown.Engagement +
		breakdown.Loyalty + breakdown.RiskAppetite

	return LeadScore{Total: total, Grade: grade(total), Breakdown: breakdown}
}

func loyaltyPoints(previousVisits int) int {
	switch {
	case previousVisits >= 3:
		return 15
	case previousVisits >= 1:
		return 10
	default:
		return 0
	}
}

func grade(total int) string {
	switch {
	case total >= 80:
		return "A"
	case total >= 60:
		return "B"
	case total >= 40:
		return "C"
	default:
		return "D"
	}
}
