package simulate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castlebay/finpulse/internal/config"
	"github.com/castlebay/finpulse/internal/finance"
	"github.com/castlebay/finpulse/internal/score"
)

func TestForwardNoHistory(t *testing.T) {
	_, err := Forward(config.Default(), nil, nil, nil, 12)
	assert.True(t, errors.Is(err, ErrNoHistory))
}

func TestForwardDefaultsToTwelveMonths(t *testing.T) {
	cfg := config.Default()
	months := flatHistory()

	res, err := Forward(cfg, months, nil, nil, 0)
	require.NoError(t, err)

	require.Len(t, res.ProjectedMonths, 12)
	assert.Equal(t, "2025-04", res.ProjectedMonths[0].Month)
	assert.Equal(t, "2026-03", res.ProjectedMonths[11].Month, "keys roll over the year boundary")

	// Flat history, no modifiers: the projection repeats the averages and
	// banks the +1000 net every month.
	for _, m := range res.ProjectedMonths {
		assert.InDelta(t, 4000, m.Income, 1e-9)
		assert.InDelta(t, 3000, m.Expenses, 1e-9)
	}
	assert.InDelta(t, 15000, res.ProjectedNetWorth, 1e-9)
	assert.InDelta(t, 5, res.ProjectedRunwayMonths, 1e-9)
	assert.Zero(t, res.OverdraftProbability)
}

// The projection's scores must be exactly what the scoring engine says about
// the synthetic months, independently reconstructed here.
func TestForwardScoresMatchHandBuiltAggregates(t *testing.T) {
	cfg := config.Default()
	months := flatHistory()

	res, err := Forward(cfg, months, nil, nil, 12)
	require.NoError(t, err)

	keys := []string{
		"2025-04", "2025-05", "2025-06", "2025-07", "2025-08", "2025-09",
		"2025-10", "2025-11", "2025-12", "2026-01", "2026-02", "2026-03",
	}
	ratio := 6300.0 / 9000.0
	want := make([]finance.MonthlyAggregate, len(keys))
	balance := 3000.0
	for i, key := range keys {
		balance += 4000 - 3000
		want[i] = finance.MonthlyAggregate{
			Month:             key,
			Deposits:          4000,
			Spending:          3000,
			Essential:         3000 * ratio,
			Discretionary:     3000 - 3000*ratio,
			DebtPayments:      400,
			SavingsTransfers:  300,
			EndBalance:        balance,
			IncomeSources:     1,
			PayrollPresent:    true,
			SubscriptionCount: 3,
		}
	}

	assert.Equal(t, score.Compute(cfg, want, nil), res.Projected)
	assert.Equal(t, score.Compute(cfg, months, nil), res.Baseline)
	assert.GreaterOrEqual(t, res.Projected.Overall, 0.0)
	assert.LessOrEqual(t, res.Projected.Overall, 100.0)
}

func TestMergeModifiers(t *testing.T) {
	merged := mergeModifiers([]ScenarioModifier{
		{IncomeChangePct: 10, ExtraMonthlySavings: 200, LoseIncomeStream: true},
		{IncomeChangePct: -5, ExpenseChangePct: 10, CancelSubscriptions: 2},
		{OneTimeExpense: 1500, SwitchToSalaried: true},
	})
	assert.InDelta(t, 5, merged.IncomeChangePct, 1e-9)
	assert.InDelta(t, 10, merged.ExpenseChangePct, 1e-9)
	assert.InDelta(t, 200, merged.ExtraMonthlySavings, 1e-9)
	assert.Equal(t, 2, merged.CancelSubscriptions)
	assert.InDelta(t, 1500, merged.OneTimeExpense, 1e-9)
	assert.True(t, merged.LoseIncomeStream)
	assert.True(t, merged.SwitchToSalaried)
}

func TestForwardAppliesPercentChanges(t *testing.T) {
	res, err := Forward(config.Default(), flatHistory(), nil, []ScenarioModifier{
		{IncomeChangePct: 10},
		{IncomeChangePct: -5, ExpenseChangePct: 10},
	}, 6)
	require.NoError(t, err)

	assert.InDelta(t, 4200, res.ProjectedMonths[0].Income, 1e-9)
	assert.InDelta(t, 3300, res.ProjectedMonths[0].Expenses, 1e-9)
}

func TestForwardExtraContributions(t *testing.T) {
	res, err := Forward(config.Default(), flatHistory(), nil, []ScenarioModifier{
		{ExtraMonthlySavings: 200, ExtraMonthlyDebtPayment: 100},
	}, 6)
	require.NoError(t, err)

	m := res.ProjectedMonths[0]
	assert.InDelta(t, 3300, m.Expenses, 1e-9, "extra contributions are money out the door")
	assert.InDelta(t, 500, m.DebtPayments, 1e-9)
	assert.InDelta(t, 500, m.SavingsTransfers, 1e-9)
}

func TestForwardOneTimeExpenseHitsFirstMonth(t *testing.T) {
	res, err := Forward(config.Default(), flatHistory(), nil, []ScenarioModifier{
		{OneTimeExpense: 5000},
	}, 6)
	require.NoError(t, err)

	assert.InDelta(t, 8000, res.ProjectedMonths[0].Expenses, 1e-9)
	assert.InDelta(t, 3000, res.ProjectedMonths[1].Expenses, 1e-9)
}

func TestForwardCancelSubscriptions(t *testing.T) {
	txns := []finance.Transaction{
		{Date: "2025-01-04", Amount: 20, Merchant: "StreamCo", Name: "StreamCo", Category: finance.CategorySubscriptions, Recurring: true},
		{Date: "2025-02-04", Amount: 20, Merchant: "StreamCo", Name: "StreamCo", Category: finance.CategorySubscriptions, Recurring: true},
		{Date: "2025-03-04", Amount: 20, Merchant: "StreamCo", Name: "StreamCo", Category: finance.CategorySubscriptions, Recurring: true},
	}
	cfg := config.Default()

	t.Run("cancellation trims expenses by the average cost", func(t *testing.T) {
		res, err := Forward(cfg, flatHistory(), txns, []ScenarioModifier{{CancelSubscriptions: 1}}, 6)
		require.NoError(t, err)
		assert.InDelta(t, 2980, res.ProjectedMonths[0].Expenses, 1e-9)
	})

	t.Run("savings cannot exceed what was actually spent", func(t *testing.T) {
		res, err := Forward(cfg, flatHistory(), txns, []ScenarioModifier{{CancelSubscriptions: 10}}, 6)
		require.NoError(t, err)
		assert.InDelta(t, 2980, res.ProjectedMonths[0].Expenses, 1e-9)
	})

	t.Run("nothing to cancel saves nothing", func(t *testing.T) {
		res, err := Forward(cfg, flatHistory(), nil, []ScenarioModifier{{CancelSubscriptions: 2}}, 6)
		require.NoError(t, err)
		assert.InDelta(t, 3000, res.ProjectedMonths[0].Expenses, 1e-9)
	})
}

func TestForwardLoseIncomeStream(t *testing.T) {
	t.Run("single source loses everything", func(t *testing.T) {
		res, err := Forward(config.Default(), flatHistory(), nil, []ScenarioModifier{{LoseIncomeStream: true}}, 12)
		require.NoError(t, err)

		assert.Zero(t, res.ProjectedMonths[0].Income)
		// Month one lands exactly at zero; every later month is negative.
		assert.InDelta(t, 11.0/12.0, res.OverdraftProbability, 0.01)
		assert.Zero(t, res.ProjectedRunwayMonths)
		assert.InDelta(t, 3000-3000*12, res.ProjectedNetWorth, 1e-9)
	})

	t.Run("one of two sources halves income", func(t *testing.T) {
		months := flatHistory()
		for i := range months {
			months[i].IncomeSources = 2
		}
		res, err := Forward(config.Default(), months, nil, []ScenarioModifier{{LoseIncomeStream: true}}, 6)
		require.NoError(t, err)
		assert.InDelta(t, 2000, res.ProjectedMonths[0].Income, 1e-9)
	})
}

func TestForwardSwitchToSalaried(t *testing.T) {
	months := flatHistory()
	months[0].Deposits = 3000
	months[2].Deposits = 5000
	// Rising income: slope 1000/month around a 4000 average.

	cfg := config.Default()
	base, err := Forward(cfg, months, nil, nil, 6)
	require.NoError(t, err)
	assert.InDelta(t, 5000, base.ProjectedMonths[0].Income, 1e-9, "trend carries forward without the modifier")

	res, err := Forward(cfg, months, nil, []ScenarioModifier{{SwitchToSalaried: true}}, 6)
	require.NoError(t, err)
	for _, m := range res.ProjectedMonths {
		assert.InDelta(t, 4000, m.Income, 1e-9, "salaried income flattens to the average")
	}
}

func TestForwardCapsHorizon(t *testing.T) {
	res, err := Forward(config.Default(), flatHistory(), nil, nil, 100)
	require.NoError(t, err)
	assert.Len(t, res.ProjectedMonths, maxForwardMonths)
}

func TestLoanApprovalTiers(t *testing.T) {
	tests := []struct {
		overall     float64
		tier        string
		probability float64
	}{
		{85, "very likely", 0.90},
		{80, "very likely", 0.90},
		{70, "likely", 0.75},
		{55, "possible", 0.50},
		{40, "unlikely", 0.30},
		{20, "very unlikely", 0.10},
	}
	for _, tt := range tests {
		got := approvalFor(tt.overall)
		assert.Equal(t, tt.tier, got.Tier, "overall %.0f", tt.overall)
		assert.InDelta(t, tt.probability, got.Probability, 1e-9)
	}
}
