package finance

// Pillar names as they appear in reports and explanations.
const (
	PillarIncomeStability     = "income_stability"
	PillarSpendingDiscipline  = "spending_discipline"
	PillarDebtTrajectory      = "debt_trajectory"
	PillarFinancialResilience = "financial_resilience"
	PillarGrowthMomentum      = "growth_momentum"
)

// Pillars lists the five pillar names in report order.
var Pillars = []string{
	PillarIncomeStability,
	PillarSpendingDiscipline,
	PillarDebtTrajectory,
	PillarFinancialResilience,
	PillarGrowthMomentum,
}

// PillarScores holds the five pillar scores and their weighted overall.
// All values are in [0,100]; Overall is rounded to two decimals.
type PillarScores struct {
	IncomeStability     float64 `json:"income_stability"`
	SpendingDiscipline  float64 `json:"spending_discipline"`
	DebtTrajectory      float64 `json:"debt_trajectory"`
	FinancialResilience float64 `json:"financial_resilience"`
	GrowthMomentum      float64 `json:"growth_momentum"`
	Overall             float64 `json:"overall"`
}

// Pillar returns the score for a named pillar, or 0 for an unknown name.
func (s PillarScores) Pillar(name string) float64 {
	switch name {
	case PillarIncomeStability:
		return s.IncomeStability
	case PillarSpendingDiscipline:
		return s.SpendingDiscipline
	case PillarDebtTrajectory:
		return s.DebtTrajectory
	case PillarFinancialResilience:
		return s.FinancialResilience
	case PillarGrowthMomentum:
		return s.GrowthMomentum
	default:
		return 0
	}
}
