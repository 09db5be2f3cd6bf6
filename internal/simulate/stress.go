package simulate

import (
	"github.com/castlebay/finpulse/internal/config"
	"github.com/castlebay/finpulse/internal/finance"
	"github.com/castlebay/finpulse/internal/score"
)

const (
	defaultStressMonths = 6
	runwayCap           = 36
)

// Stress severity bands by months of runway.
const (
	SeverityComfortable = "comfortable"
	SeverityManageable  = "manageable"
	SeverityStrained    = "strained"
	SeverityCritical    = "critical"
)

// StressResult compares the scored history against the same person living
// through the scenario.
type StressResult struct {
	Scenario             Scenario              `json:"scenario"`
	Baseline             finance.PillarScores  `json:"baseline"`
	Stressed             finance.PillarScores  `json:"stressed"`
	Deltas               finance.PillarScores  `json:"deltas"`
	ProjectedMonths      []ProjectedMonth      `json:"projected_months"`
	RunwayMonths         int                   `json:"runway_months"`
	RunwayCapped         bool                  `json:"runway_capped"`
	SurvivesIndefinitely bool                  `json:"survives_indefinitely"`
	Severity             string                `json:"severity"`
}

// Stress projects the scenario over a flat monthly pair derived from the
// historical averages. Trend is deliberately ignored: the question is how
// the current lifestyle absorbs the shock, not where the trend was heading.
func Stress(cfg *config.Config, months []finance.MonthlyAggregate, txns []finance.Transaction, scenario Scenario) (StressResult, error) {
	if len(months) == 0 {
		return StressResult{}, ErrNoHistory
	}

	b := buildBaseline(months, txns)
	duration := scenario.DurationMonths
	if duration <= 0 {
		duration = defaultStressMonths
	}

	income := b.avgIncome * (1 - scenario.IncomeReductionPct/100)
	if income < 0 {
		income = 0
	}
	expenses := b.avgExpenses * (1 + scenario.ExpenseIncreasePct/100)
	if expenses < 0 {
		expenses = 0
	}

	keys, err := monthKeysAfter(b.lastMonth, duration)
	if err != nil {
		return StressResult{}, err
	}
	projected := make([]ProjectedMonth, duration)
	balance := b.lastBalance
	for i := range projected {
		monthExpenses := expenses
		if i == 0 {
			monthExpenses += scenario.OneTimeExpense
		}
		balance += income - monthExpenses
		projected[i] = ProjectedMonth{
			Month:            keys[i],
			Income:           income,
			Expenses:         monthExpenses,
			DebtPayments:     b.avgDebt,
			SavingsTransfers: b.avgSavings,
			NetCashFlow:      income - monthExpenses,
			EndBalance:       balance,
		}
	}

	runway, capped := stressRunway(b.lastBalance, income, expenses, scenario.OneTimeExpense)

	baselineScores := score.Compute(cfg, months, txns)
	stressedScores := score.Compute(cfg, toAggregates(projected, b, b.defaultOptions()), txns)

	return StressResult{
		Scenario:             scenario,
		Baseline:             baselineScores,
		Stressed:             stressedScores,
		Deltas:               scoreDeltas(baselineScores, stressedScores),
		ProjectedMonths:      projected,
		RunwayMonths:         runway,
		RunwayCapped:         capped,
		SurvivesIndefinitely: capped,
		Severity:             stressSeverity(runway),
	}, nil
}

// stressRunway counts the full months survived before the balance crosses
// zero, up to the display cap. A non-negative monthly net with a surviving
// first month never exhausts.
func stressRunway(balance, income, expenses, oneTime float64) (months int, capped bool) {
	for i := 1; i <= runwayCap; i++ {
		monthExpenses := expenses
		if i == 1 {
			monthExpenses += oneTime
		}
		balance += income - monthExpenses
		if balance < 0 {
			return i - 1, false
		}
	}
	return runwayCap, true
}

func stressSeverity(runway int) string {
	switch {
	case runway >= runwayCap:
		return SeverityComfortable
	case runway >= 6:
		return SeverityManageable
	case runway >= 3:
		return SeverityStrained
	default:
		return SeverityCritical
	}
}
