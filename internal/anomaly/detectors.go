package anomaly

import (
	"fmt"
	"sort"

	"github.com/castlebay/finpulse/internal/finance"
	"github.com/castlebay/finpulse/internal/stats"
)

// Detector cutoffs. Each detector owns its thresholds; warning fires at the
// mild cutoff and alert at the larger one.
const (
	creepWarnRatio  = 0.03
	creepAlertRatio = 0.06

	subWarnCount  = 8
	subAlertCount = 12

	spikeWarnMult  = 1.5
	spikeAlertMult = 2.0

	savingsWarnRatio  = -0.05
	savingsAlertRatio = -0.15

	erosionAlertMonths = 3.0
	erosionWarnMonths  = 6.0

	volatilityWarnCV  = 0.25
	volatilityAlertCV = 0.50

	surgeWarnShare  = 0.15
	surgeAlertShare = 0.30

	priceWarnPct  = 0.10
	priceAlertPct = 0.25
)

var registry = []detector{
	{name: "lifestyle_creep", run: detectLifestyleCreep},
	{name: "subscription_bloat", run: detectSubscriptionBloat},
	{name: "spending_spike", run: detectSpendingSpike},
	{name: "savings_decline", run: detectSavingsDecline},
	{name: "balance_erosion", run: detectBalanceErosion},
	{name: "income_volatility", run: detectIncomeVolatility},
	{name: "discretionary_surge", run: detectDiscretionarySurge},
	{name: "price_increase", run: detectPriceIncreases},
}

func series(months []finance.MonthlyAggregate, pick func(finance.MonthlyAggregate) float64) []float64 {
	out := make([]float64, len(months))
	for i, m := range months {
		out[i] = pick(m)
	}
	return out
}

func lastMonth(months []finance.MonthlyAggregate) string {
	if len(months) == 0 {
		return ""
	}
	return months[len(months)-1].Month
}

// detectLifestyleCreep fires when discretionary spending trends upward:
// the regression slope divided by the mean gives a per-month growth rate.
func detectLifestyleCreep(ctx detectContext) *Finding {
	if len(ctx.months) < 4 {
		return nil
	}
	disc := series(ctx.months, func(m finance.MonthlyAggregate) float64 { return m.Discretionary })
	mean := stats.Mean(disc)
	if mean <= 0 {
		return nil
	}
	ratio := stats.Slope(disc) / mean
	if ratio < creepWarnRatio {
		return nil
	}
	severity := SeverityWarning
	if ratio > creepAlertRatio {
		severity = SeverityAlert
	}
	return &Finding{
		Type:     "lifestyle_creep",
		Severity: severity,
		Title:    "Lifestyle creep",
		Description: fmt.Sprintf(
			"Discretionary spending has grown about %.1f%% of its average each month across the last %d months.",
			ratio*100, len(ctx.months)),
		MetricValue: ratio,
		Month:       lastMonth(ctx.months),
	}
}

func detectSubscriptionBloat(ctx detectContext) *Finding {
	if len(ctx.months) == 0 {
		return nil
	}
	latest := ctx.months[len(ctx.months)-1]
	count := latest.SubscriptionCount
	if count <= subWarnCount {
		return nil
	}
	severity := SeverityWarning
	if count > subAlertCount {
		severity = SeverityAlert
	}
	return &Finding{
		Type:     "subscription_bloat",
		Severity: severity,
		Title:    "Subscription bloat",
		Description: fmt.Sprintf(
			"%d active recurring subscriptions in %s. Cancelling unused ones is usually the quickest spending win.",
			count, latest.Month),
		MetricValue: float64(count),
		Month:       latest.Month,
	}
}

func detectSpendingSpike(ctx detectContext) *Finding {
	if len(ctx.months) < 3 {
		return nil
	}
	n := len(ctx.months)
	prior := stats.Mean(series(ctx.months[:n-1], func(m finance.MonthlyAggregate) float64 { return m.Spending }))
	if prior <= 0 {
		return nil
	}
	latest := ctx.months[n-1]
	mult := latest.Spending / prior
	if mult < spikeWarnMult {
		return nil
	}
	severity := SeverityWarning
	if mult >= spikeAlertMult {
		severity = SeverityAlert
	}
	return &Finding{
		Type:     "spending_spike",
		Severity: severity,
		Title:    "Spending spike",
		Description: fmt.Sprintf(
			"Spending in %s ran %.1fx the average of the preceding months.",
			latest.Month, mult),
		MetricValue: mult,
		Month:       latest.Month,
	}
}

func detectSavingsDecline(ctx detectContext) *Finding {
	if len(ctx.months) < 3 {
		return nil
	}
	savings := series(ctx.months, func(m finance.MonthlyAggregate) float64 { return m.SavingsTransfers })
	mean := stats.Mean(savings)
	if mean <= 0 {
		return nil
	}
	ratio := stats.Slope(savings) / mean
	if ratio >= savingsWarnRatio {
		return nil
	}
	severity := SeverityWarning
	if ratio < savingsAlertRatio {
		severity = SeverityAlert
	}
	return &Finding{
		Type:     "savings_decline",
		Severity: severity,
		Title:    "Savings decline",
		Description: fmt.Sprintf(
			"Monthly savings transfers are shrinking about %.1f%% of their average per month.",
			-ratio*100),
		MetricValue: ratio,
		Month:       lastMonth(ctx.months),
	}
}

func detectBalanceErosion(ctx detectContext) *Finding {
	if len(ctx.months) < 3 {
		return nil
	}
	balances := series(ctx.months, func(m finance.MonthlyAggregate) float64 { return m.EndBalance })
	slope := stats.Slope(balances)
	if slope >= 0 {
		return nil
	}
	last := balances[len(balances)-1]

	var severity Severity
	var monthsToZero float64
	switch {
	case last <= 0:
		severity, monthsToZero = SeverityAlert, 0
	default:
		monthsToZero = last / -slope
		switch {
		case monthsToZero <= erosionAlertMonths:
			severity = SeverityAlert
		case monthsToZero <= erosionWarnMonths:
			severity = SeverityWarning
		default:
			severity = SeverityInfo
		}
	}

	desc := "Balance is already negative and still trending down."
	if last > 0 {
		desc = fmt.Sprintf("At the current trend the balance reaches zero in about %.1f months.", monthsToZero)
	}
	return &Finding{
		Type:        "balance_erosion",
		Severity:    severity,
		Title:       "Balance erosion",
		Description: desc,
		MetricValue: monthsToZero,
		Month:       lastMonth(ctx.months),
	}
}

func detectIncomeVolatility(ctx detectContext) *Finding {
	if len(ctx.months) < 3 {
		return nil
	}
	deposits := series(ctx.months, func(m finance.MonthlyAggregate) float64 { return m.Deposits })
	cv := 1.0
	if mean := stats.Mean(deposits); mean > 0 {
		cv = stats.StdDev(deposits) / mean
	}
	if cv <= volatilityWarnCV {
		return nil
	}
	severity := SeverityWarning
	if cv > volatilityAlertCV {
		severity = SeverityAlert
	}
	return &Finding{
		Type:     "income_volatility",
		Severity: severity,
		Title:    "Income volatility",
		Description: fmt.Sprintf(
			"Monthly income varies ±%.0f%% around its average, which makes budgeting unreliable.",
			cv*100),
		MetricValue: cv,
		Month:       lastMonth(ctx.months),
	}
}

func detectDiscretionarySurge(ctx detectContext) *Finding {
	if len(ctx.months) < 3 {
		return nil
	}
	share := func(m finance.MonthlyAggregate) float64 {
		if m.Spending <= 0 {
			return 0
		}
		return m.Discretionary / m.Spending
	}
	n := len(ctx.months)
	latest := share(ctx.months[n-1])
	prior := stats.Mean(series(ctx.months[:n-1], share))
	delta := latest - prior
	if delta < surgeWarnShare {
		return nil
	}
	severity := SeverityWarning
	if delta >= surgeAlertShare {
		severity = SeverityAlert
	}
	return &Finding{
		Type:     "discretionary_surge",
		Severity: severity,
		Title:    "Discretionary surge",
		Description: fmt.Sprintf(
			"Discretionary spending took %.0f%% of %s's budget, %.0f points above your usual share.",
			latest*100, ctx.months[n-1].Month, delta*100),
		MetricValue: delta,
		Month:       ctx.months[n-1].Month,
	}
}

// detectPriceIncreases compares the first and most recent charge of every
// recurring merchant and reports the steepest increase.
func detectPriceIncreases(ctx detectContext) *Finding {
	groups := make(map[string][]finance.Transaction)
	for _, t := range ctx.txns {
		if !t.Recurring || t.IsIncome {
			continue
		}
		key := t.MerchantKey()
		if key == "" {
			continue
		}
		groups[key] = append(groups[key], t)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var worst *Finding
	var worstPct float64
	for _, key := range keys {
		charges := groups[key]
		if len(charges) < 2 {
			continue
		}
		sort.SliceStable(charges, func(i, j int) bool { return charges[i].Date < charges[j].Date })
		first, last := charges[0], charges[len(charges)-1]
		if first.Amount <= 0 {
			continue
		}
		pct := (last.Amount - first.Amount) / first.Amount
		if pct < priceWarnPct || pct <= worstPct {
			continue
		}
		severity := SeverityWarning
		if pct >= priceAlertPct {
			severity = SeverityAlert
		}
		worstPct = pct
		worst = &Finding{
			Type:     "price_increase",
			Severity: severity,
			Title:    "Recurring charge increase",
			Description: fmt.Sprintf(
				"%s now charges %.2f, up %.0f%% from %.2f when it first appeared.",
				finance.DisplayMerchant(displayName(last)), last.Amount, pct*100, first.Amount),
			MetricValue: pct,
			Month:       last.MonthKey(),
		}
	}
	return worst
}

func displayName(t finance.Transaction) string {
	if t.Merchant != "" {
		return t.Merchant
	}
	return t.Name
}
