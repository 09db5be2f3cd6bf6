// Package simulate projects the month sequence forward under hypothetical
// conditions. Both simulators build synthetic months and hand them back to
// the scoring engine, so a simulated score means exactly what a historical
// one does.
package simulate

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/castlebay/finpulse/internal/finance"
	"github.com/castlebay/finpulse/internal/stats"
)

// ErrNoHistory is returned when there are no historical months to project
// from.
var ErrNoHistory = errors.New("no transaction history to simulate from")

// ProjectedMonth is one synthetic month of the projection.
type ProjectedMonth struct {
	Month            string  `json:"month"`
	Income           float64 `json:"income"`
	Expenses         float64 `json:"expenses"`
	DebtPayments     float64 `json:"debt_payments"`
	SavingsTransfers float64 `json:"savings_transfers"`
	NetCashFlow      float64 `json:"net_cash_flow"`
	EndBalance       float64 `json:"end_balance"`
}

// baseline captures everything the projections need from history.
type baseline struct {
	avgIncome      float64
	incomeSlope    float64
	avgExpenses    float64
	avgDebt        float64
	avgSavings     float64
	essentialRatio float64
	avgSubCost     float64
	monthlySubCost float64
	latestSubCount int
	avgSources     float64
	payrollShare   float64
	lastBalance    float64
	lastMonth      string
}

const fallbackSubCost = 15.0

func buildBaseline(months []finance.MonthlyAggregate, txns []finance.Transaction) baseline {
	deposits := make([]float64, len(months))
	var spending, debt, savings, essential, sourceSum float64
	payrollMonths := 0
	for i, m := range months {
		deposits[i] = m.Deposits
		spending += m.Spending
		debt += m.DebtPayments
		savings += m.SavingsTransfers
		essential += m.Essential
		sourceSum += float64(m.IncomeSources)
		if m.PayrollPresent {
			payrollMonths++
		}
	}
	n := float64(len(months))

	ratio := 0.0
	if spending > 0 {
		ratio = essential / spending
	}

	var subSpend float64
	subCharges := 0
	for _, t := range txns {
		if !t.IsIncome && t.Recurring && strings.EqualFold(t.Category, finance.CategorySubscriptions) {
			subSpend += t.Amount
			subCharges++
		}
	}
	subCost := fallbackSubCost
	if subCharges > 0 {
		subCost = subSpend / float64(subCharges)
	}

	last := months[len(months)-1]
	return baseline{
		avgIncome:      stats.Mean(deposits),
		incomeSlope:    stats.Slope(deposits),
		avgExpenses:    spending / n,
		avgDebt:        debt / n,
		avgSavings:     savings / n,
		essentialRatio: ratio,
		avgSubCost:     subCost,
		monthlySubCost: subSpend / n,
		latestSubCount: last.SubscriptionCount,
		avgSources:     sourceSum / n,
		payrollShare:   float64(payrollMonths) / n,
		lastBalance:    last.EndBalance,
		lastMonth:      last.Month,
	}
}

// monthKeysAfter returns n consecutive month keys continuing the calendar
// after last.
func monthKeysAfter(last string, n int) ([]string, error) {
	t, err := time.Parse("2006-01", last)
	if err != nil {
		return nil, fmt.Errorf("parse month %q: %w", last, err)
	}
	keys := make([]string, n)
	for i := range keys {
		t = t.AddDate(0, 1, 0)
		keys[i] = t.Format("2006-01")
	}
	return keys, nil
}

// aggregateOptions control the aggregate fields the pair projection cannot
// derive on its own.
type aggregateOptions struct {
	subscriptionCount int
	incomeSources     int
	payrollPresent    bool
}

func (b baseline) defaultOptions() aggregateOptions {
	return aggregateOptions{
		subscriptionCount: b.latestSubCount,
		incomeSources:     int(math.Round(b.avgSources)),
		payrollPresent:    b.payrollShare >= 0.5,
	}
}

// toAggregates converts projected months into the aggregate shape the
// scoring engine consumes: the historical essential ratio splits spending,
// and the overdraft flag follows the month-end balance.
func toAggregates(projected []ProjectedMonth, b baseline, opts aggregateOptions) []finance.MonthlyAggregate {
	months := make([]finance.MonthlyAggregate, len(projected))
	for i, p := range projected {
		essential := p.Expenses * b.essentialRatio
		m := finance.MonthlyAggregate{
			Month:             p.Month,
			Deposits:          p.Income,
			Spending:          p.Expenses,
			Essential:         essential,
			Discretionary:     p.Expenses - essential,
			DebtPayments:      p.DebtPayments,
			SavingsTransfers:  p.SavingsTransfers,
			EndBalance:        p.EndBalance,
			SubscriptionCount: opts.subscriptionCount,
			PayrollPresent:    opts.payrollPresent,
		}
		if p.Income > 0 {
			m.IncomeSources = opts.incomeSources
		}
		if p.EndBalance < 0 {
			m.Overdrafts = 1
		}
		months[i] = m
	}
	return months
}

// scoreDeltas reports projected minus baseline, per pillar, rounded to two
// decimals.
func scoreDeltas(base, projected finance.PillarScores) finance.PillarScores {
	return finance.PillarScores{
		IncomeStability:     stats.Round2(projected.IncomeStability - base.IncomeStability),
		SpendingDiscipline:  stats.Round2(projected.SpendingDiscipline - base.SpendingDiscipline),
		DebtTrajectory:      stats.Round2(projected.DebtTrajectory - base.DebtTrajectory),
		FinancialResilience: stats.Round2(projected.FinancialResilience - base.FinancialResilience),
		GrowthMomentum:      stats.Round2(projected.GrowthMomentum - base.GrowthMomentum),
		Overall:             stats.Round2(projected.Overall - base.Overall),
	}
}
