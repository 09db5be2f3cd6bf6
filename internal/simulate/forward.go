package simulate

import (
	"math"

	"github.com/castlebay/finpulse/internal/config"
	"github.com/castlebay/finpulse/internal/finance"
	"github.com/castlebay/finpulse/internal/score"
	"github.com/castlebay/finpulse/internal/stats"
)

const (
	defaultForwardMonths = 12
	maxForwardMonths     = 60
)

// ScenarioModifier is one what-if lever. A simulation takes any number of
// them: numeric fields sum, boolean fields OR.
type ScenarioModifier struct {
	IncomeChangePct         float64 `json:"income_change_pct"`
	ExpenseChangePct        float64 `json:"expense_change_pct"`
	ExtraMonthlySavings     float64 `json:"extra_monthly_savings"`
	ExtraMonthlyDebtPayment float64 `json:"extra_monthly_debt_payment"`
	CancelSubscriptions     int     `json:"cancel_subscriptions"`
	OneTimeExpense          float64 `json:"one_time_expense"`
	LoseIncomeStream        bool    `json:"lose_income_stream"`
	SwitchToSalaried        bool    `json:"switch_to_salaried"`
}

func mergeModifiers(mods []ScenarioModifier) ScenarioModifier {
	var merged ScenarioModifier
	for _, m := range mods {
		merged.IncomeChangePct += m.IncomeChangePct
		merged.ExpenseChangePct += m.ExpenseChangePct
		merged.ExtraMonthlySavings += m.ExtraMonthlySavings
		merged.ExtraMonthlyDebtPayment += m.ExtraMonthlyDebtPayment
		merged.CancelSubscriptions += m.CancelSubscriptions
		merged.OneTimeExpense += m.OneTimeExpense
		merged.LoseIncomeStream = merged.LoseIncomeStream || m.LoseIncomeStream
		merged.SwitchToSalaried = merged.SwitchToSalaried || m.SwitchToSalaried
	}
	return merged
}

// LoanApproval is the lender-outcome estimate for the projected score.
type LoanApproval struct {
	Tier        string  `json:"tier"`
	Probability float64 `json:"probability"`
}

func approvalFor(overall float64) LoanApproval {
	switch {
	case overall >= 80:
		return LoanApproval{Tier: "very likely", Probability: 0.90}
	case overall >= 65:
		return LoanApproval{Tier: "likely", Probability: 0.75}
	case overall >= 50:
		return LoanApproval{Tier: "possible", Probability: 0.50}
	case overall >= 35:
		return LoanApproval{Tier: "unlikely", Probability: 0.30}
	default:
		return LoanApproval{Tier: "very unlikely", Probability: 0.10}
	}
}

// ForwardResult is the full what-if projection.
type ForwardResult struct {
	ProjectedMonths       []ProjectedMonth     `json:"projected_months"`
	Baseline              finance.PillarScores `json:"baseline"`
	Projected             finance.PillarScores `json:"projected"`
	Deltas                finance.PillarScores `json:"deltas"`
	ProjectedNetWorth     float64              `json:"projected_net_worth"`
	ProjectedRunwayMonths float64              `json:"projected_runway_months"`
	OverdraftProbability  float64              `json:"overdraft_probability"`
	LoanApproval          LoanApproval         `json:"loan_approval"`
}

// Forward projects n months ahead under the combined modifiers, extending
// the historical income trend, and rescores the synthetic months.
func Forward(cfg *config.Config, months []finance.MonthlyAggregate, txns []finance.Transaction, mods []ScenarioModifier, n int) (ForwardResult, error) {
	if len(months) == 0 {
		return ForwardResult{}, ErrNoHistory
	}
	if n <= 0 {
		n = defaultForwardMonths
	}
	if n > maxForwardMonths {
		n = maxForwardMonths
	}

	b := buildBaseline(months, txns)
	mod := mergeModifiers(mods)

	subSavings := float64(mod.CancelSubscriptions) * b.avgSubCost
	if subSavings > b.monthlySubCost {
		subSavings = b.monthlySubCost
	}

	incomeFactor := 1 + mod.IncomeChangePct/100
	expenseFactor := 1 + mod.ExpenseChangePct/100
	streamFactor := 1.0
	if mod.LoseIncomeStream {
		streamFactor = 1 - 1/math.Max(b.avgSources, 1)
	}

	keys, err := monthKeysAfter(b.lastMonth, n)
	if err != nil {
		return ForwardResult{}, err
	}
	projected := make([]ProjectedMonth, n)
	balance := b.lastBalance
	overdraftMonths := 0
	for i := 1; i <= n; i++ {
		income := (b.avgIncome + b.incomeSlope*float64(i)) * incomeFactor
		if mod.SwitchToSalaried {
			income = b.avgIncome * incomeFactor
		}
		income = math.Max(0, income*streamFactor)

		expenses := math.Max(0, b.avgExpenses*expenseFactor-subSavings)
		expenses += mod.ExtraMonthlySavings + mod.ExtraMonthlyDebtPayment
		if i == 1 {
			expenses += mod.OneTimeExpense
		}

		balance += income - expenses
		if balance < 0 {
			overdraftMonths++
		}
		projected[i-1] = ProjectedMonth{
			Month:            keys[i-1],
			Income:           income,
			Expenses:         expenses,
			DebtPayments:     b.avgDebt + mod.ExtraMonthlyDebtPayment,
			SavingsTransfers: b.avgSavings + mod.ExtraMonthlySavings,
			NetCashFlow:      income - expenses,
			EndBalance:       balance,
		}
	}

	opts := b.defaultOptions()
	opts.subscriptionCount = max(0, b.latestSubCount-mod.CancelSubscriptions)
	if mod.SwitchToSalaried {
		opts.payrollPresent = true
		opts.incomeSources = 1
	} else if mod.LoseIncomeStream && opts.incomeSources > 0 {
		opts.incomeSources--
	}

	baselineScores := score.Compute(cfg, months, txns)
	projectedScores := score.Compute(cfg, toAggregates(projected, b, opts), txns)

	final := projected[n-1]
	var runway float64
	switch {
	case final.EndBalance <= 0:
		runway = 0
	case final.Expenses <= 0:
		runway = runwayCap
	default:
		runway = math.Min(final.EndBalance/final.Expenses, runwayCap)
	}

	return ForwardResult{
		ProjectedMonths:       projected,
		Baseline:              baselineScores,
		Projected:             projectedScores,
		Deltas:                scoreDeltas(baselineScores, projectedScores),
		ProjectedNetWorth:     final.EndBalance,
		ProjectedRunwayMonths: stats.Round2(runway),
		OverdraftProbability:  stats.Round2(float64(overdraftMonths) / float64(n)),
		LoanApproval:          approvalFor(projectedScores.Overall),
	}, nil
}
