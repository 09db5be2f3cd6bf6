package redflag

import (
	"fmt"
	"strings"

	"github.com/castlebay/finpulse/internal/finance"
	"github.com/castlebay/finpulse/internal/score"
	"github.com/castlebay/finpulse/internal/stats"
)

// Check cutoffs, lender-perspective.
const (
	volatilityYellowCV = 0.25
	volatilityRedCV    = 0.50

	subBurdenYellowRatio = 0.05
	subBurdenRedRatio    = 0.10

	minimumPaymentSpread = 0.02
	minimumPaymentRedDTI = 0.30

	runwayRedMonths    = 1.0
	runwayYellowMonths = 3.0
	runwayGreenMonths  = 6.0

	criticalDTI    = 0.43
	worseningSlope = 0.001

	discretionaryYellowShare = 0.40
	discretionaryRedShare    = 0.60

	savingsGreenCoverage = 0.75
	savingsGreenRate     = 0.10

	spendingGrowthYellow = 0.05
	spendingGrowthRed    = 0.10
)

var checks = []check{
	{name: "income_volatility", run: checkIncomeVolatility},
	{name: "subscription_burden", run: checkSubscriptionBurden},
	{name: "minimum_debt_payments", run: checkMinimumDebtPayments},
	{name: "emergency_fund", run: checkEmergencyFund},
	{name: "debt_to_income", run: checkDebtToIncome},
	{name: "overdraft_history", run: checkOverdraftHistory},
	{name: "savings_habit", run: checkSavingsHabit},
	{name: "income_concentration", run: checkIncomeConcentration},
	{name: "discretionary_ratio", run: checkDiscretionaryRatio},
	{name: "payroll_absence", run: checkPayrollAbsence},
	{name: "spending_growth", run: checkSpendingGrowth},
}

func depositSeries(months []finance.MonthlyAggregate) []float64 {
	out := make([]float64, len(months))
	for i, m := range months {
		out[i] = m.Deposits
	}
	return out
}

func checkIncomeVolatility(ctx evalContext) *Flag {
	deposits := depositSeries(ctx.months)
	cv := 1.0
	if mean := stats.Mean(deposits); mean > 0 {
		cv = stats.StdDev(deposits) / mean
	}
	zeroMonths := 0
	for _, d := range deposits {
		if d == 0 {
			zeroMonths++
		}
	}

	var severity Severity
	switch {
	case cv > volatilityRedCV || zeroMonths >= 2:
		severity = SeverityRed
	case cv > volatilityYellowCV || zeroMonths == 1:
		severity = SeverityYellow
	default:
		return nil
	}

	detail := fmt.Sprintf("Monthly income varies ±%.0f%% around its average", cv*100)
	if zeroMonths > 0 {
		detail += fmt.Sprintf(", including %d month%s with no income at all", zeroMonths, pluralS(zeroMonths))
	}
	detail += ". Underwriters discount unstable income when sizing a loan."

	steps := []Step{
		{Horizon30Days, "Map every income source with its expected payment date", "Shows exactly where the gaps come from"},
		{Horizon3Months, "Hold one month of expenses in a buffer account to absorb timing swings", "Keeps bills paid through lean months"},
	}
	if severity == SeverityRed {
		steps = append(steps, Step{Horizon6Months, "Anchor income with a retainer, part-time role, or salaried component", "Directly reduces the variance lenders price against"})
	}
	return &Flag{
		Type: "income_volatility", Severity: severity,
		Title: "Unstable income", Detail: detail, Metric: cv, Remediation: steps,
	}
}

func checkSubscriptionBurden(ctx evalContext) *Flag {
	var subSpend float64
	for _, t := range ctx.txns {
		if !t.IsIncome && t.Recurring && strings.EqualFold(t.Category, finance.CategorySubscriptions) {
			subSpend += t.Amount
		}
	}
	if subSpend == 0 {
		return nil
	}
	monthlySub := subSpend / float64(len(ctx.months))
	avgDeposits := stats.Mean(depositSeries(ctx.months))

	var ratio float64
	var severity Severity
	switch {
	case avgDeposits <= 0:
		ratio, severity = 1, SeverityRed
	default:
		ratio = monthlySub / avgDeposits
		switch {
		case ratio > subBurdenRedRatio:
			severity = SeverityRed
		case ratio > subBurdenYellowRatio:
			severity = SeverityYellow
		default:
			return nil
		}
	}

	return &Flag{
		Type: "subscription_burden", Severity: severity,
		Title: "Heavy subscription load",
		Detail: fmt.Sprintf("Recurring subscriptions consume %.1f%% of monthly income (%.2f per month).",
			ratio*100, monthlySub),
		Metric: ratio,
		Remediation: []Step{
			{Horizon30Days, "Cancel every subscription you have not used in the last month", "Immediate drop in fixed outflow"},
			{Horizon3Months, "Move keepers to annual plans and renegotiate the rest", "Typically trims 10-20% off the remaining cost"},
		},
	}
}

func checkMinimumDebtPayments(ctx evalContext) *Flag {
	var paying []float64
	for _, m := range ctx.months {
		if m.DebtPayments > 0 {
			paying = append(paying, m.DebtPayments)
		}
	}
	if len(paying) < 3 {
		return nil
	}
	minP, maxP := paying[0], paying[0]
	for _, p := range paying[1:] {
		if p < minP {
			minP = p
		}
		if p > maxP {
			maxP = p
		}
	}
	mean := stats.Mean(paying)
	if mean <= 0 || (maxP-minP)/mean >= minimumPaymentSpread {
		return nil
	}

	avgDTI := stats.Mean(score.DTISeries(ctx.months))
	severity := SeverityYellow
	if avgDTI >= minimumPaymentRedDTI {
		severity = SeverityRed
	}
	return &Flag{
		Type: "minimum_debt_payments", Severity: severity,
		Title: "Debt payments look like minimums",
		Detail: fmt.Sprintf("Debt payments have been a near-identical %.2f for %d months, the signature of minimum-only payments that barely touch principal.",
			mean, len(paying)),
		Metric: avgDTI,
		Remediation: []Step{
			{Horizon30Days, "List every balance with its APR and minimum", "Makes the payoff order obvious"},
			{Horizon3Months, "Direct every spare dollar at the highest-APR balance", "Cuts total interest fastest"},
			{Horizon1Year, "Clear at least one full balance", "Lowers DTI and frees its minimum for the next balance"},
		},
	}
}

func checkEmergencyFund(ctx evalContext) *Flag {
	var spending []float64
	for _, m := range ctx.months {
		spending = append(spending, m.Spending)
	}
	avgSpending := stats.Mean(spending)
	if avgSpending <= 0 {
		return nil
	}
	last := ctx.months[len(ctx.months)-1].EndBalance
	runway := 0.0
	if last > 0 {
		runway = last / avgSpending
	}

	switch {
	case runway < runwayRedMonths:
		return &Flag{
			Type: "emergency_fund", Severity: SeverityRed,
			Title:  "No emergency fund",
			Detail: fmt.Sprintf("Current balance covers %.1f months of spending. One missed paycheck becomes a crisis.", runway),
			Metric: runway,
			Remediation: []Step{
				{Horizon30Days, "Open a separate savings account and automate a transfer on payday", "Builds the habit before the amount"},
				{Horizon3Months, "Reach one month of expenses", "Converts a missed paycheck from crisis to inconvenience"},
				{Horizon9Months, "Reach three months of expenses", "The minimum buffer most lenders like to see"},
			},
		}
	case runway < runwayYellowMonths:
		return &Flag{
			Type: "emergency_fund", Severity: SeverityYellow,
			Title:  "Thin emergency fund",
			Detail: fmt.Sprintf("Current balance covers %.1f months of spending; three months is the usual floor.", runway),
			Metric: runway,
			Remediation: []Step{
				{Horizon3Months, "Raise the automatic savings transfer until the fund grows monthly", "Steady progress toward the three-month floor"},
				{Horizon9Months, "Reach three months of expenses", "Meets the buffer underwriters expect"},
			},
		}
	case runway >= runwayGreenMonths:
		return &Flag{
			Type: "emergency_fund", Severity: SeverityGreen,
			Title:  "Strong emergency fund",
			Detail: fmt.Sprintf("Current balance covers %.1f months of spending, a genuine strength on any application.", runway),
			Metric: runway,
			Remediation: []Step{
				{Horizon1Year, "Keep the fund growing in line with expenses", "Preserves the buffer as costs rise"},
			},
		}
	default:
		return nil
	}
}

func checkDebtToIncome(ctx evalContext) *Flag {
	dti := score.DTISeries(ctx.months)
	avg := stats.Mean(dti)

	if avg > criticalDTI {
		return &Flag{
			Type: "debt_to_income", Severity: SeverityRed,
			Title: "Debt-to-income above the critical threshold",
			Detail: fmt.Sprintf("Average DTI is %.2f, above the %.2f ceiling most lenders apply to new credit.",
				avg, criticalDTI),
			Metric: avg,
			Remediation: []Step{
				{Horizon30Days, "Stop taking on new credit of any kind", "Prevents the ratio from getting worse"},
				{Horizon3Months, "Put every windfall against the highest-rate balance", "Moves the ratio fastest per dollar"},
				{Horizon6Months, "Consolidate high-rate debt if a lower blended rate is available", "Cuts the monthly payment that feeds the ratio"},
				{Horizon1Year, "Bring average DTI under 0.36", "Re-opens mainstream lending terms"},
			},
		}
	}
	if stats.Slope(dti) > worseningSlope {
		return &Flag{
			Type: "debt_to_income", Severity: SeverityYellow,
			Title:  "Debt-to-income trending up",
			Detail: fmt.Sprintf("Average DTI is %.2f and rising month over month.", avg),
			Metric: avg,
			Remediation: []Step{
				{Horizon30Days, "Freeze new balances while the trend reverses", "Stops the climb at its source"},
				{Horizon6Months, "Hold debt payments flat while income grows", "Lets the ratio fall without lifestyle cuts"},
			},
		}
	}
	return nil
}

func checkOverdraftHistory(ctx evalContext) *Flag {
	overdrafts := 0
	for _, m := range ctx.months {
		overdrafts += m.Overdrafts
	}
	if overdrafts == 0 {
		return nil
	}
	severity := SeverityYellow
	if overdrafts >= 2 {
		severity = SeverityRed
	}
	return &Flag{
		Type: "overdraft_history", Severity: severity,
		Title: "Overdraft history",
		Detail: fmt.Sprintf("%d month%s ended with a negative balance. Overdrafts on statements are an immediate underwriting question.",
			overdrafts, pluralS(overdrafts)),
		Metric: float64(overdrafts),
		Remediation: []Step{
			{Horizon30Days, "Turn on low-balance alerts and keep a small float in checking", "Catches the dip before the fee"},
			{Horizon3Months, "Move bill due dates to just after payday", "Aligns outflow with inflow so the balance never crosses zero"},
		},
	}
}

func checkSavingsHabit(ctx evalContext) *Flag {
	n := len(ctx.months)
	withSavings := 0
	var net, deposits []float64
	for _, m := range ctx.months {
		if m.SavingsTransfers > 0 {
			withSavings++
		}
		net = append(net, m.NetSavings())
		deposits = append(deposits, m.Deposits)
	}

	if withSavings == 0 {
		severity := SeverityYellow
		if stats.Mean(net) <= 0 {
			severity = SeverityRed
		}
		return &Flag{
			Type: "savings_habit", Severity: severity,
			Title:  "No savings activity",
			Detail: "No savings transfers appear anywhere in the history. Lenders read that as living at the edge of income.",
			Metric: 0,
			Remediation: []Step{
				{Horizon30Days, "Automate a small transfer to savings on payday", "Existence of the habit matters more than the amount"},
				{Horizon6Months, "Raise the transfer to 10% of income", "Builds the cushion underwriters want to see"},
			},
		}
	}

	coverage := float64(withSavings) / float64(n)
	rate := 0.0
	if meanDeposits := stats.Mean(deposits); meanDeposits > 0 {
		rate = stats.Mean(net) / meanDeposits
	}
	if coverage >= savingsGreenCoverage && rate >= savingsGreenRate {
		return &Flag{
			Type: "savings_habit", Severity: SeverityGreen,
			Title: "Consistent saver",
			Detail: fmt.Sprintf("Savings transfers in %d of %d months at a %.0f%% average savings rate — exactly the pattern lenders reward.",
				withSavings, n, rate*100),
			Metric: rate,
			Remediation: []Step{
				{Horizon1Year, "Keep the automatic transfers and escalate with raises", "Compounds the strongest signal in this profile"},
			},
		}
	}
	return nil
}

func checkIncomeConcentration(ctx evalContext) *Flag {
	var sourceSum, depositSum float64
	for _, m := range ctx.months {
		sourceSum += float64(m.IncomeSources)
		depositSum += m.Deposits
	}
	if depositSum == 0 {
		return nil
	}
	avgSources := sourceSum / float64(len(ctx.months))
	if avgSources > 1 {
		return nil
	}
	return &Flag{
		Type: "income_concentration", Severity: SeverityYellow,
		Title:  "Single income source",
		Detail: "All income arrives from one source. Losing it means losing 100% of income overnight.",
		Metric: avgSources,
		Remediation: []Step{
			{Horizon3Months, "Start a second income channel, however small", "Any diversification softens the concentration risk"},
			{Horizon1Year, "Grow secondary income to 10-20% of the total", "Meaningful fallback if the primary source ends"},
		},
	}
}

func checkDiscretionaryRatio(ctx evalContext) *Flag {
	var disc, spending float64
	for _, m := range ctx.months {
		disc += m.Discretionary
		spending += m.Spending
	}
	if spending <= 0 {
		return nil
	}
	share := disc / spending
	var severity Severity
	switch {
	case share >= discretionaryRedShare:
		severity = SeverityRed
	case share >= discretionaryYellowShare:
		severity = SeverityYellow
	default:
		return nil
	}
	return &Flag{
		Type: "discretionary_ratio", Severity: severity,
		Title:  "High discretionary spending",
		Detail: fmt.Sprintf("%.0f%% of spending is discretionary. Lenders see room that should be going to savings or debt.", share*100),
		Metric: share,
		Remediation: []Step{
			{Horizon30Days, "Set caps on the three largest discretionary categories", "Fast, visible reduction without touching essentials"},
			{Horizon3Months, "Redirect ten points of spending into savings or debt payments", "Converts the weakness into the two signals lenders reward"},
		},
	}
}

func checkPayrollAbsence(ctx evalContext) *Flag {
	var depositSum float64
	for _, m := range ctx.months {
		depositSum += m.Deposits
		if m.PayrollPresent {
			return nil
		}
	}
	if depositSum == 0 {
		return nil
	}
	return &Flag{
		Type: "payroll_absence", Severity: SeverityYellow,
		Title:  "No payroll deposits",
		Detail: "Income never arrives as payroll, which makes it harder to verify and slower to underwrite.",
		Metric: 0,
		Remediation: []Step{
			{Horizon30Days, "Assemble invoices, contracts, and tax statements as income proof", "Substitutes for the payroll stub lenders ask for first"},
			{Horizon6Months, "Route recurring client income through an invoicing or payroll platform", "Creates the verifiable deposit trail"},
		},
	}
}

func checkSpendingGrowth(ctx evalContext) *Flag {
	if len(ctx.months) < 3 {
		return nil
	}
	var spending []float64
	for _, m := range ctx.months {
		spending = append(spending, m.Spending)
	}
	mean := stats.Mean(spending)
	if mean <= 0 {
		return nil
	}
	ratio := stats.Slope(spending) / mean
	var severity Severity
	switch {
	case ratio > spendingGrowthRed:
		severity = SeverityRed
	case ratio > spendingGrowthYellow:
		severity = SeverityYellow
	default:
		return nil
	}
	return &Flag{
		Type: "spending_growth", Severity: severity,
		Title:  "Spending climbing month over month",
		Detail: fmt.Sprintf("Total spending is growing about %.1f%% of its average every month.", ratio*100),
		Metric: ratio,
		Remediation: []Step{
			{Horizon30Days, "Audit the categories driving the growth", "Names the problem before fixing it"},
			{Horizon3Months, "Return total spending to its level from two months ago", "Resets the baseline lenders will extrapolate from"},
			{Horizon6Months, "Keep spending growth below income growth", "Restores a widening, not narrowing, margin"},
		},
	}
}

func pluralS(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
