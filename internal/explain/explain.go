// Package explain turns pillar scores back into language: short reason
// strings restating each pillar's drivers with the actual numbers, plus the
// handful of transactions that moved the needle most.
package explain

import (
	"fmt"
	"math"
	"strings"

	"github.com/castlebay/finpulse/internal/config"
	"github.com/castlebay/finpulse/internal/finance"
	"github.com/castlebay/finpulse/internal/score"
	"github.com/castlebay/finpulse/internal/stats"
)

const (
	ImpactPositive = "positive"
	ImpactNegative = "negative"
)

// InfluentialTransaction is a single transaction tagged with the direction it
// pushed a pillar.
type InfluentialTransaction struct {
	Date     string  `json:"date"`
	Merchant string  `json:"merchant"`
	Amount   float64 `json:"amount"`
	Impact   string  `json:"impact"`
	Note     string  `json:"note"`
}

// PillarExplanation pairs a pillar score with its reasons and the
// transactions behind them.
type PillarExplanation struct {
	Pillar      string                   `json:"pillar"`
	Score       float64                  `json:"score"`
	Reasons     []string                 `json:"reasons"`
	Influential []InfluentialTransaction `json:"influential_transactions"`
}

// Report holds one explanation per pillar, in report order.
type Report struct {
	Pillars []PillarExplanation `json:"pillars"`
}

// Explain builds the per-pillar narrative for an already-computed score set.
// Output depends only on the inputs; reason order and transaction choice are
// deterministic.
func Explain(cfg *config.Config, months []finance.MonthlyAggregate, txns []finance.Transaction, scores finance.PillarScores) Report {
	if len(months) == 0 {
		return Report{Pillars: []PillarExplanation{}}
	}

	e := explainer{cfg: cfg, months: months, txns: txns}
	return Report{Pillars: []PillarExplanation{
		{
			Pillar:      finance.PillarIncomeStability,
			Score:       scores.IncomeStability,
			Reasons:     e.incomeReasons(),
			Influential: e.incomePicks(),
		},
		{
			Pillar:      finance.PillarSpendingDiscipline,
			Score:       scores.SpendingDiscipline,
			Reasons:     e.spendingReasons(),
			Influential: e.spendingPicks(),
		},
		{
			Pillar:      finance.PillarDebtTrajectory,
			Score:       scores.DebtTrajectory,
			Reasons:     e.debtReasons(),
			Influential: e.debtPicks(),
		},
		{
			Pillar:      finance.PillarFinancialResilience,
			Score:       scores.FinancialResilience,
			Reasons:     e.resilienceReasons(),
			Influential: e.resiliencePicks(),
		},
		{
			Pillar:      finance.PillarGrowthMomentum,
			Score:       scores.GrowthMomentum,
			Reasons:     e.growthReasons(),
			Influential: e.growthPicks(),
		},
	}}
}

type explainer struct {
	cfg    *config.Config
	months []finance.MonthlyAggregate
	txns   []finance.Transaction
}

func (e explainer) incomeReasons() []string {
	deposits := make([]float64, len(e.months))
	var sourceSum float64
	payrollMonths, zeroMonths := 0, 0
	for i, m := range e.months {
		deposits[i] = m.Deposits
		sourceSum += float64(m.IncomeSources)
		if m.Deposits == 0 {
			zeroMonths++
		}
		if m.PayrollPresent {
			payrollMonths++
		}
	}
	cv := 1.0
	if mean := stats.Mean(deposits); mean > 0 {
		cv = stats.StdDev(deposits) / mean
	}
	avgSources := sourceSum / float64(len(e.months))

	reasons := make([]string, 0, 5)
	if cv <= 0.25 {
		reasons = append(reasons, fmt.Sprintf("income varies ±%.1f%% month to month — steady income supports the score", cv*100))
	} else {
		reasons = append(reasons, fmt.Sprintf("income varies ±%.1f%% month to month — volatility drags the score down", cv*100))
	}
	if avgSources > 1 {
		reasons = append(reasons, fmt.Sprintf("an average of %.1f income sources spreads the risk", avgSources))
	} else {
		reasons = append(reasons, "income depends on a single source")
	}
	if float64(payrollMonths)/float64(len(e.months)) >= 0.75 {
		reasons = append(reasons, "payroll deposits arrive in most months — the steadiest income pattern")
	} else {
		reasons = append(reasons, "no consistent payroll pattern in the deposits")
	}
	if zeroMonths > 0 {
		reasons = append(reasons, fmt.Sprintf("%d month%s had no income at all", zeroMonths, plural(zeroMonths)))
	}
	return reasons
}

func (e explainer) incomePicks() []InfluentialTransaction {
	zeroIncome := make(map[string]bool)
	for _, m := range e.months {
		if m.Deposits == 0 {
			zeroIncome[m.Month] = true
		}
	}
	p := newPicker(e.txns)
	return p.collect(
		pick{"largest income deposit", ImpactPositive, func(t finance.Transaction) bool {
			return t.IsIncome
		}},
		pick{"recurring income stream", ImpactPositive, func(t finance.Transaction) bool {
			return t.IsIncome && t.Recurring
		}},
		pick{"largest expense during a month with no income", ImpactNegative, func(t finance.Transaction) bool {
			return !t.IsIncome && zeroIncome[t.MonthKey()]
		}},
	)
}

func (e explainer) spendingReasons() []string {
	essential := essentialShare(e.months)
	var subSum float64
	overdrafts := 0
	hasSavings := false
	for _, m := range e.months {
		subSum += float64(m.SubscriptionCount)
		overdrafts += m.Overdrafts
		if m.SavingsTransfers > 0 {
			hasSavings = true
		}
	}
	avgSubs := subSum / float64(len(e.months))

	reasons := make([]string, 0, 5)
	if essential >= 0.5 {
		reasons = append(reasons, fmt.Sprintf("%.0f%% of spending goes to essentials — disciplined allocation", essential*100))
	} else {
		reasons = append(reasons, fmt.Sprintf("only %.0f%% of spending is essential — discretionary weight pulls the score down", essential*100))
	}
	if hasSavings {
		reasons = append(reasons, "regular transfers to savings strengthen the picture")
	} else {
		reasons = append(reasons, "no savings transfers appear in the window")
	}
	if overdrafts > 0 {
		reasons = append(reasons, fmt.Sprintf("%d month%s ended overdrawn", overdrafts, plural(overdrafts)))
	}
	if avgSubs > 8 {
		reasons = append(reasons, fmt.Sprintf("an average of %.1f active subscriptions is above the comfortable band", avgSubs))
	}
	if len(e.months) >= 4 {
		half := len(e.months) / 2
		if essentialShare(e.months[half:]) > essentialShare(e.months[:half]) {
			reasons = append(reasons, "the essential share of spending improved across the window")
		}
	}
	return capReasons(reasons)
}

func (e explainer) spendingPicks() []InfluentialTransaction {
	essentials := e.cfg.EssentialSet()
	p := newPicker(e.txns)
	return p.collect(
		pick{"largest essential expense", ImpactPositive, func(t finance.Transaction) bool {
			_, ok := essentials[strings.ToLower(t.Category)]
			return !t.IsIncome && ok
		}},
		pick{"largest discretionary expense", ImpactNegative, func(t finance.Transaction) bool {
			if t.IsIncome {
				return false
			}
			category := strings.ToLower(t.Category)
			if category == finance.CategorySavingsTransfer || category == finance.CategoryDebtPayment {
				return false
			}
			_, ok := essentials[category]
			return !ok
		}},
		pick{"largest transfer into savings", ImpactPositive, func(t finance.Transaction) bool {
			return !t.IsIncome && strings.ToLower(t.Category) == finance.CategorySavingsTransfer
		}},
	)
}

func (e explainer) debtReasons() []string {
	dti := score.DTISeries(e.months)
	avg := stats.Mean(dti)
	slope := stats.Slope(dti)

	reasons := make([]string, 0, 5)
	switch {
	case avg <= 0.20:
		reasons = append(reasons, fmt.Sprintf("debt payments absorb %.0f%% of income — a light load", avg*100))
	case avg <= 0.43:
		reasons = append(reasons, fmt.Sprintf("debt payments absorb %.0f%% of income — manageable but worth watching", avg*100))
	default:
		reasons = append(reasons, fmt.Sprintf("debt payments absorb %.0f%% of income — past the 0.43 underwriting ceiling", avg*100))
	}
	switch {
	case slope < -0.001:
		reasons = append(reasons, "the debt-to-income trend is falling — each month owes a little less")
	case slope > 0.001:
		reasons = append(reasons, "the debt-to-income trend is rising — the load grows month over month")
	default:
		reasons = append(reasons, "the debt load is holding steady")
	}
	return reasons
}

func (e explainer) debtPicks() []InfluentialTransaction {
	avg := stats.Mean(score.DTISeries(e.months))
	largestImpact := ImpactPositive
	largestNote := "largest debt payment — repayment is keeping pace"
	if avg > 0.43 {
		largestImpact = ImpactNegative
		largestNote = "largest debt payment — the biggest single drag on the ratio"
	}
	p := newPicker(e.txns)
	return p.collect(
		pick{largestNote, largestImpact, func(t finance.Transaction) bool {
			return !t.IsIncome && strings.ToLower(t.Category) == finance.CategoryDebtPayment
		}},
		pick{"recurring debt payment — consistent repayment history", ImpactPositive, func(t finance.Transaction) bool {
			return !t.IsIncome && t.Recurring && strings.ToLower(t.Category) == finance.CategoryDebtPayment
		}},
	)
}

func (e explainer) resilienceReasons() []string {
	balances := make([]float64, len(e.months))
	spending := make([]float64, len(e.months))
	minBalance := math.Inf(1)
	allNonNegative := true
	for i, m := range e.months {
		balances[i] = m.EndBalance
		spending[i] = m.Spending
		if m.EndBalance < minBalance {
			minBalance = m.EndBalance
		}
		if m.EndBalance < 0 {
			allNonNegative = false
		}
	}
	avgSpending := stats.Mean(spending)
	coverage := 0.0
	if avgSpending > 0 {
		coverage = math.Max(minBalance, 0) / avgSpending
	}

	reasons := make([]string, 0, 5)
	if coverage >= 1 {
		reasons = append(reasons, fmt.Sprintf("even the lowest balance covers %.1f months of typical spending", coverage))
	} else {
		reasons = append(reasons, fmt.Sprintf("the lowest balance covers only %.1f months of typical spending", coverage))
	}
	if allNonNegative {
		reasons = append(reasons, "no month ended with a negative balance")
	} else {
		reasons = append(reasons, "at least one month ended in the red")
	}
	for i := 0; i+1 < len(spending); i++ {
		if spending[i] > 1.2*avgSpending && spending[i+1] < avgSpending {
			reasons = append(reasons, fmt.Sprintf("a spending spike in %s was absorbed the following month", e.months[i].Month))
			break
		}
	}
	if meanBal := stats.Mean(balances); meanBal != 0 {
		consistency := stats.Clamp(1-stats.StdDev(balances)/math.Abs(meanBal), 0, 1)
		if consistency >= 0.5 {
			reasons = append(reasons, "balances hold steady from month to month")
		} else {
			reasons = append(reasons, "balances swing widely from month to month")
		}
	}
	return capReasons(reasons)
}

func (e explainer) resiliencePicks() []InfluentialTransaction {
	p := newPicker(e.txns)
	return p.collect(
		pick{"largest single hit to the balance", ImpactNegative, func(t finance.Transaction) bool {
			return !t.IsIncome
		}},
		pick{"largest contribution to the buffer", ImpactPositive, func(t finance.Transaction) bool {
			return t.IsIncome
		}},
	)
}

func (e explainer) growthReasons() []string {
	deposits := make([]float64, len(e.months))
	net := make([]float64, len(e.months))
	for i, m := range e.months {
		deposits[i] = m.Deposits
		net[i] = m.NetSavings()
	}
	var savingsRate, incomeGrowth float64
	if mean := stats.Mean(deposits); mean > 0 {
		savingsRate = stats.Mean(net) / mean
		incomeGrowth = stats.Slope(deposits) / mean
	}

	reasons := make([]string, 0, 5)
	switch {
	case savingsRate >= 0.10:
		reasons = append(reasons, fmt.Sprintf("an average savings rate of %.0f%% fuels growth", savingsRate*100))
	case savingsRate > 0:
		reasons = append(reasons, fmt.Sprintf("a thin savings rate of %.0f%% leaves little to build on", savingsRate*100))
	default:
		reasons = append(reasons, "spending meets or exceeds income on average — nothing left to grow")
	}
	if incomeGrowth > 0 {
		reasons = append(reasons, fmt.Sprintf("income is growing about %.1f%% of its average each month", incomeGrowth*100))
	} else {
		reasons = append(reasons, "income is flat or declining across the window")
	}
	if hasInvestment(e.txns, e.cfg.InvestmentKeywords) {
		reasons = append(reasons, "investment activity shows wealth moving beyond the checking account")
	} else {
		reasons = append(reasons, "no investment activity found")
	}
	return reasons
}

func (e explainer) growthPicks() []InfluentialTransaction {
	best, worst := 0, 0
	for i, m := range e.months {
		if m.NetSavings() > e.months[best].NetSavings() {
			best = i
		}
		if m.NetSavings() < e.months[worst].NetSavings() {
			worst = i
		}
	}
	bestMonth := e.months[best].Month
	worstMonth := e.months[worst].Month
	keywords := e.cfg.InvestmentKeywords

	p := newPicker(e.txns)
	picks := []pick{
		{"investment activity", ImpactPositive, func(t finance.Transaction) bool {
			return hasInvestment([]finance.Transaction{t}, keywords)
		}},
		{fmt.Sprintf("largest transaction in %s, the strongest savings month", bestMonth), ImpactPositive, func(t finance.Transaction) bool {
			return t.MonthKey() == bestMonth
		}},
	}
	if worstMonth != bestMonth {
		picks = append(picks, pick{
			fmt.Sprintf("largest transaction in %s, the weakest savings month", worstMonth), ImpactNegative,
			func(t finance.Transaction) bool { return t.MonthKey() == worstMonth },
		})
	}
	return p.collect(picks...)
}

func essentialShare(months []finance.MonthlyAggregate) float64 {
	var essential, spending float64
	for _, m := range months {
		essential += m.Essential
		spending += m.Spending
	}
	if spending == 0 {
		return 0
	}
	return essential / spending
}

func hasInvestment(txns []finance.Transaction, keywords []string) bool {
	for _, t := range txns {
		category := strings.ToLower(t.Category)
		for _, kw := range keywords {
			if strings.Contains(category, strings.ToLower(kw)) {
				return true
			}
		}
	}
	return false
}

// pick describes one influential-transaction slot: the note and impact it
// carries, and the predicate a transaction must satisfy to fill it.
type pick struct {
	note   string
	impact string
	match  func(finance.Transaction) bool
}

type picker struct {
	txns   []finance.Transaction
	chosen map[int]bool
}

func newPicker(txns []finance.Transaction) *picker {
	return &picker{txns: txns, chosen: make(map[int]bool)}
}

// collect fills each slot with the best unchosen match. Ties go to the
// larger amount, then the earlier date, then the lexicographically smaller
// merchant.
func (p *picker) collect(picks ...pick) []InfluentialTransaction {
	out := make([]InfluentialTransaction, 0, len(picks))
	for _, pk := range picks {
		idx := -1
		for i, t := range p.txns {
			if p.chosen[i] || !pk.match(t) {
				continue
			}
			if idx == -1 || beats(t, p.txns[idx]) {
				idx = i
			}
		}
		if idx == -1 {
			continue
		}
		p.chosen[idx] = true
		t := p.txns[idx]
		out = append(out, InfluentialTransaction{
			Date:     t.Date,
			Merchant: finance.DisplayMerchant(t.Merchant),
			Amount:   t.Amount,
			Impact:   pk.impact,
			Note:     pk.note,
		})
	}
	return out
}

func beats(a, b finance.Transaction) bool {
	if a.Amount != b.Amount {
		return a.Amount > b.Amount
	}
	if a.Date != b.Date {
		return a.Date < b.Date
	}
	return a.Merchant < b.Merchant
}

func capReasons(reasons []string) []string {
	if len(reasons) > 5 {
		return reasons[:5]
	}
	return reasons
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
