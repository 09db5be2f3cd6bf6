package redflag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castlebay/finpulse/internal/config"
	"github.com/castlebay/finpulse/internal/finance"
)

func evaluate(t *testing.T, months []finance.MonthlyAggregate, txns []finance.Transaction) Report {
	t.Helper()
	return Evaluate(config.Default(), months, txns)
}

func findFlag(r Report, typ string) *Flag {
	for i := range r.Flags {
		if r.Flags[i].Type == typ {
			return &r.Flags[i]
		}
	}
	return nil
}

func monthKey(i int) string {
	keys := []string{"2025-01", "2025-02", "2025-03", "2025-04", "2025-05", "2025-06"}
	return keys[i]
}

func debtMonths(deposits float64, payments ...float64) []finance.MonthlyAggregate {
	months := make([]finance.MonthlyAggregate, len(payments))
	for i, p := range payments {
		months[i] = finance.MonthlyAggregate{Month: monthKey(i), Deposits: deposits, DebtPayments: p, IncomeSources: 1}
	}
	return months
}

func TestEvaluateEmptyHistory(t *testing.T) {
	r := evaluate(t, nil, nil)
	assert.Empty(t, r.Flags)
	assert.Equal(t, "no transaction history to assess", r.Verdict)
}

func TestIncomeVolatilityTiers(t *testing.T) {
	mk := func(deposits ...float64) []finance.MonthlyAggregate {
		months := make([]finance.MonthlyAggregate, len(deposits))
		for i, d := range deposits {
			months[i] = finance.MonthlyAggregate{Month: monthKey(i), Deposits: d}
		}
		return months
	}
	tests := []struct {
		name     string
		deposits []float64
		severity Severity
		fires    bool
	}{
		{"steady income stays silent", []float64{3000, 3000, 3000}, "", false},
		{"moderate swings go yellow", []float64{2000, 4000, 3000}, SeverityYellow, true},
		{"wild swings go red", []float64{1000, 5000, 3000}, SeverityRed, true},
		{"two zero-income months go red", []float64{3000, 0, 0}, SeverityRed, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := findFlag(evaluate(t, mk(tt.deposits...), nil), "income_volatility")
			if !tt.fires {
				assert.Nil(t, f)
				return
			}
			require.NotNil(t, f)
			assert.Equal(t, tt.severity, f.Severity)
			assert.NotEmpty(t, f.Remediation)
		})
	}
}

func TestSubscriptionBurdenTiers(t *testing.T) {
	months := []finance.MonthlyAggregate{
		{Month: "2025-01", Deposits: 3000},
		{Month: "2025-02", Deposits: 3000},
		{Month: "2025-03", Deposits: 3000},
	}
	mkTxns := func(perMonth float64) []finance.Transaction {
		var txns []finance.Transaction
		for i := 0; i < 3; i++ {
			txns = append(txns, finance.Transaction{
				Date: monthKey(i) + "-05", Amount: perMonth, Merchant: "StackTV", Name: "StackTV",
				Category: finance.CategorySubscriptions, Recurring: true,
			})
		}
		return txns
	}

	t.Run("light load stays silent", func(t *testing.T) {
		assert.Nil(t, findFlag(evaluate(t, months, mkTxns(100)), "subscription_burden"))
	})
	t.Run("over five percent goes yellow", func(t *testing.T) {
		f := findFlag(evaluate(t, months, mkTxns(160)), "subscription_burden")
		require.NotNil(t, f)
		assert.Equal(t, SeverityYellow, f.Severity)
	})
	t.Run("over ten percent goes red", func(t *testing.T) {
		f := findFlag(evaluate(t, months, mkTxns(400)), "subscription_burden")
		require.NotNil(t, f)
		assert.Equal(t, SeverityRed, f.Severity)
		assert.InDelta(t, 400.0/3000.0, f.Metric, 1e-9)
	})
	t.Run("non-recurring purchases do not count", func(t *testing.T) {
		txns := mkTxns(400)
		for i := range txns {
			txns[i].Recurring = false
		}
		assert.Nil(t, findFlag(evaluate(t, months, txns), "subscription_burden"))
	})
}

func TestMinimumDebtPayments(t *testing.T) {
	t.Run("flat payments at low DTI go yellow", func(t *testing.T) {
		f := findFlag(evaluate(t, debtMonths(3000, 200, 200, 200), nil), "minimum_debt_payments")
		require.NotNil(t, f)
		assert.Equal(t, SeverityYellow, f.Severity)
	})
	t.Run("flat payments at high DTI go red", func(t *testing.T) {
		f := findFlag(evaluate(t, debtMonths(1000, 350, 350, 350), nil), "minimum_debt_payments")
		require.NotNil(t, f)
		assert.Equal(t, SeverityRed, f.Severity)
	})
	t.Run("varying payments stay silent", func(t *testing.T) {
		assert.Nil(t, findFlag(evaluate(t, debtMonths(3000, 200, 220, 240), nil), "minimum_debt_payments"))
	})
	t.Run("needs three paying months", func(t *testing.T) {
		assert.Nil(t, findFlag(evaluate(t, debtMonths(3000, 200, 200), nil), "minimum_debt_payments"))
	})
}

func TestEmergencyFundTiers(t *testing.T) {
	mk := func(lastBalance float64) []finance.MonthlyAggregate {
		return []finance.MonthlyAggregate{
			{Month: "2025-01", Deposits: 3000, Spending: 2000, PayrollPresent: true, IncomeSources: 2},
			{Month: "2025-02", Deposits: 3000, Spending: 2000, PayrollPresent: true, IncomeSources: 2},
			{Month: "2025-03", Deposits: 3000, Spending: 2000, PayrollPresent: true, IncomeSources: 2, EndBalance: lastBalance},
		}
	}
	tests := []struct {
		name     string
		balance  float64
		severity Severity
		fires    bool
	}{
		{"under one month goes red", 1500, SeverityRed, true},
		{"under three months goes yellow", 5000, SeverityYellow, true},
		{"between three and six is unremarkable", 8000, "", false},
		{"six or more months is a strength", 12000, SeverityGreen, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := findFlag(evaluate(t, mk(tt.balance), nil), "emergency_fund")
			if !tt.fires {
				assert.Nil(t, f)
				return
			}
			require.NotNil(t, f)
			assert.Equal(t, tt.severity, f.Severity)
			assert.InDelta(t, tt.balance/2000, f.Metric, 1e-9)
		})
	}
}

func TestDebtToIncomeCriticalThreshold(t *testing.T) {
	t.Run("average DTI above the ceiling goes red", func(t *testing.T) {
		f := findFlag(evaluate(t, debtMonths(1000, 440, 440, 440), nil), "debt_to_income")
		require.NotNil(t, f)
		assert.Equal(t, SeverityRed, f.Severity)
		assert.Contains(t, f.Detail, "0.43")
		assert.InDelta(t, 0.44, f.Metric, 1e-9)
	})
	t.Run("flat DTI just under the ceiling stays silent", func(t *testing.T) {
		assert.Nil(t, findFlag(evaluate(t, debtMonths(1000, 420, 420, 420), nil), "debt_to_income"))
	})
	t.Run("rising DTI below the ceiling goes yellow", func(t *testing.T) {
		f := findFlag(evaluate(t, debtMonths(1000, 100, 150, 200), nil), "debt_to_income")
		require.NotNil(t, f)
		assert.Equal(t, SeverityYellow, f.Severity)
	})
}

func TestOverdraftHistory(t *testing.T) {
	mk := func(flags ...int) []finance.MonthlyAggregate {
		months := make([]finance.MonthlyAggregate, len(flags))
		for i, o := range flags {
			months[i] = finance.MonthlyAggregate{Month: monthKey(i), Deposits: 2000, Overdrafts: o}
		}
		return months
	}
	t.Run("no overdrafts stays silent", func(t *testing.T) {
		assert.Nil(t, findFlag(evaluate(t, mk(0, 0, 0), nil), "overdraft_history"))
	})
	t.Run("one overdraft month goes yellow", func(t *testing.T) {
		f := findFlag(evaluate(t, mk(0, 1, 0), nil), "overdraft_history")
		require.NotNil(t, f)
		assert.Equal(t, SeverityYellow, f.Severity)
	})
	t.Run("repeat overdrafts go red", func(t *testing.T) {
		f := findFlag(evaluate(t, mk(0, 1, 1), nil), "overdraft_history")
		require.NotNil(t, f)
		assert.Equal(t, SeverityRed, f.Severity)
		assert.InDelta(t, 2, f.Metric, 1e-9)
	})
}

func TestSavingsHabit(t *testing.T) {
	mk := func(deposits, spending, savings float64) []finance.MonthlyAggregate {
		months := make([]finance.MonthlyAggregate, 3)
		for i := range months {
			months[i] = finance.MonthlyAggregate{
				Month: monthKey(i), Deposits: deposits, Spending: spending, SavingsTransfers: savings,
			}
		}
		return months
	}
	t.Run("no savings with positive cash flow goes yellow", func(t *testing.T) {
		f := findFlag(evaluate(t, mk(3000, 2000, 0), nil), "savings_habit")
		require.NotNil(t, f)
		assert.Equal(t, SeverityYellow, f.Severity)
	})
	t.Run("no savings while underwater goes red", func(t *testing.T) {
		f := findFlag(evaluate(t, mk(2000, 2200, 0), nil), "savings_habit")
		require.NotNil(t, f)
		assert.Equal(t, SeverityRed, f.Severity)
	})
	t.Run("consistent saver is a strength", func(t *testing.T) {
		f := findFlag(evaluate(t, mk(3000, 2600, 400), nil), "savings_habit")
		require.NotNil(t, f)
		assert.Equal(t, SeverityGreen, f.Severity)
		assert.InDelta(t, 400.0/3000.0, f.Metric, 1e-9)
	})
	t.Run("sporadic low-rate saving is unremarkable", func(t *testing.T) {
		months := mk(3000, 2900, 0)
		months[0].SavingsTransfers = 100
		assert.Nil(t, findFlag(evaluate(t, months, nil), "savings_habit"))
	})
}

func TestIncomeConcentration(t *testing.T) {
	mk := func(sources ...int) []finance.MonthlyAggregate {
		months := make([]finance.MonthlyAggregate, len(sources))
		for i, s := range sources {
			months[i] = finance.MonthlyAggregate{Month: monthKey(i), Deposits: 3000, IncomeSources: s}
		}
		return months
	}
	t.Run("single source goes yellow", func(t *testing.T) {
		f := findFlag(evaluate(t, mk(1, 1, 1), nil), "income_concentration")
		require.NotNil(t, f)
		assert.Equal(t, SeverityYellow, f.Severity)
	})
	t.Run("diversified income stays silent", func(t *testing.T) {
		assert.Nil(t, findFlag(evaluate(t, mk(1, 2, 2), nil), "income_concentration"))
	})
}

func TestDiscretionaryRatio(t *testing.T) {
	mk := func(disc float64) []finance.MonthlyAggregate {
		months := make([]finance.MonthlyAggregate, 3)
		for i := range months {
			months[i] = finance.MonthlyAggregate{
				Month: monthKey(i), Deposits: 3000, Spending: 1000, Essential: 1000 - disc, Discretionary: disc,
			}
		}
		return months
	}
	tests := []struct {
		name     string
		disc     float64
		severity Severity
		fires    bool
	}{
		{"lean spending stays silent", 300, "", false},
		{"forty percent goes yellow", 450, SeverityYellow, true},
		{"sixty percent goes red", 650, SeverityRed, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := findFlag(evaluate(t, mk(tt.disc), nil), "discretionary_ratio")
			if !tt.fires {
				assert.Nil(t, f)
				return
			}
			require.NotNil(t, f)
			assert.Equal(t, tt.severity, f.Severity)
		})
	}
}

func TestPayrollAbsence(t *testing.T) {
	mk := func(payroll bool) []finance.MonthlyAggregate {
		months := make([]finance.MonthlyAggregate, 3)
		for i := range months {
			months[i] = finance.MonthlyAggregate{Month: monthKey(i), Deposits: 2500, IncomeSources: 1}
		}
		months[1].PayrollPresent = payroll
		return months
	}
	t.Run("no payroll anywhere goes yellow", func(t *testing.T) {
		f := findFlag(evaluate(t, mk(false), nil), "payroll_absence")
		require.NotNil(t, f)
		assert.Equal(t, SeverityYellow, f.Severity)
	})
	t.Run("any payroll month clears it", func(t *testing.T) {
		assert.Nil(t, findFlag(evaluate(t, mk(true), nil), "payroll_absence"))
	})
	t.Run("no income at all is not a payroll problem", func(t *testing.T) {
		months := mk(false)
		for i := range months {
			months[i].Deposits = 0
		}
		assert.Nil(t, findFlag(evaluate(t, months, nil), "payroll_absence"))
	})
}

func TestSpendingGrowth(t *testing.T) {
	mk := func(spending ...float64) []finance.MonthlyAggregate {
		months := make([]finance.MonthlyAggregate, len(spending))
		for i, s := range spending {
			months[i] = finance.MonthlyAggregate{Month: monthKey(i), Deposits: 5000, Spending: s}
		}
		return months
	}
	tests := []struct {
		name     string
		spending []float64
		severity Severity
		fires    bool
	}{
		{"gentle drift stays silent", []float64{2000, 2100, 2200}, "", false},
		{"five percent monthly growth goes yellow", []float64{2000, 2200, 2400}, SeverityYellow, true},
		{"ten percent monthly growth goes red", []float64{2000, 2300, 2600}, SeverityRed, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := findFlag(evaluate(t, mk(tt.spending...), nil), "spending_growth")
			if !tt.fires {
				assert.Nil(t, f)
				return
			}
			require.NotNil(t, f)
			assert.Equal(t, tt.severity, f.Severity)
		})
	}
	t.Run("needs three months", func(t *testing.T) {
		assert.Nil(t, findFlag(evaluate(t, mk(2000, 2600), nil), "spending_growth"))
	})
}

func cleanMonths() []finance.MonthlyAggregate {
	months := make([]finance.MonthlyAggregate, 3)
	for i := range months {
		months[i] = finance.MonthlyAggregate{
			Month: monthKey(i), Deposits: 3000, Spending: 2000,
			Essential: 1400, Discretionary: 200, SavingsTransfers: 400,
			EndBalance: 10000 + float64(i)*1000, IncomeSources: 2, PayrollPresent: true,
		}
	}
	return months
}

func TestVerdictTiers(t *testing.T) {
	t.Run("strengths only reads strong", func(t *testing.T) {
		r := evaluate(t, cleanMonths(), nil)
		assert.Zero(t, r.Reds)
		assert.Zero(t, r.Yellows)
		assert.Equal(t, 2, r.Greens)
		assert.Equal(t, "strong position — lenders will view this profile favorably", r.Verdict)
	})
	t.Run("yellows only reads generally stable", func(t *testing.T) {
		months := cleanMonths()
		for i := range months {
			months[i].PayrollPresent = false
			months[i].IncomeSources = 1
		}
		r := evaluate(t, months, nil)
		assert.Zero(t, r.Reds)
		assert.Equal(t, 2, r.Yellows)
		assert.Equal(t, "generally stable — a few areas need tightening before applying", r.Verdict)
	})
	t.Run("one red reads borderline", func(t *testing.T) {
		months := debtMonths(1000, 440, 460, 480)
		for i := range months {
			months[i].Spending = 800
			months[i].Discretionary = 100
			months[i].Essential = 700
			months[i].EndBalance = 4000 + float64(i)*200
			months[i].IncomeSources = 2
			months[i].PayrollPresent = true
		}
		r := evaluate(t, months, nil)
		assert.Equal(t, 1, r.Reds)
		assert.Equal(t, "borderline — resolve the critical item before seeking new credit", r.Verdict)
	})
	t.Run("multiple reds read significant work", func(t *testing.T) {
		r := evaluate(t, debtMonths(1000, 440, 440, 440), nil)
		assert.GreaterOrEqual(t, r.Reds, 2)
		assert.Equal(t, "significant work needed before loan applications are realistic", r.Verdict)
	})
}

func TestFlagsSortedRedFirst(t *testing.T) {
	r := evaluate(t, debtMonths(1000, 440, 440, 440), nil)
	require.GreaterOrEqual(t, len(r.Flags), 3)
	for i := 1; i < len(r.Flags); i++ {
		assert.GreaterOrEqual(t, r.Flags[i-1].Severity.rank(), r.Flags[i].Severity.rank(),
			"flag %d outranks flag %d", i, i-1)
	}
	assert.Equal(t, SeverityRed, r.Flags[0].Severity)
}

func TestRemediationHorizonsAscend(t *testing.T) {
	order := map[string]int{
		Horizon30Days: 0, Horizon3Months: 1, Horizon6Months: 2, Horizon9Months: 3, Horizon1Year: 4,
	}
	r := evaluate(t, debtMonths(1000, 440, 440, 440), nil)
	require.NotEmpty(t, r.Flags)
	for _, f := range r.Flags {
		require.NotEmpty(t, f.Remediation, "flag %s has no remediation", f.Type)
		for i := 1; i < len(f.Remediation); i++ {
			prev, ok := order[f.Remediation[i-1].Horizon]
			require.True(t, ok)
			cur, ok := order[f.Remediation[i].Horizon]
			require.True(t, ok)
			assert.Less(t, prev, cur, "flag %s steps out of order", f.Type)
		}
	}
}

func TestEvaluateIsDeterministic(t *testing.T) {
	months := debtMonths(1000, 440, 460, 480)
	first := evaluate(t, months, nil)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, evaluate(t, months, nil))
	}
}
