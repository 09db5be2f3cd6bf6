// Package score implements the five-pillar financial health scoring engine.
// Every scorer is a pure function over the ordered month sequence, returns 0
// for an empty sequence, and clamps to [0,100].
package score

import (
	"math"
	"strings"

	"github.com/castlebay/finpulse/internal/config"
	"github.com/castlebay/finpulse/internal/finance"
	"github.com/castlebay/finpulse/internal/stats"
)

// Compute scores all five pillars and combines them into the weighted
// overall score.
func Compute(cfg *config.Config, months []finance.MonthlyAggregate, txns []finance.Transaction) finance.PillarScores {
	if len(months) == 0 {
		return finance.PillarScores{}
	}
	s := finance.PillarScores{
		IncomeStability:     IncomeStability(months),
		SpendingDiscipline:  SpendingDiscipline(months),
		DebtTrajectory:      DebtTrajectory(months),
		FinancialResilience: FinancialResilience(months),
		GrowthMomentum:      GrowthMomentum(months, txns, cfg.InvestmentKeywords),
	}
	s.Overall = Combine(cfg.Weights, s)
	return s
}

// Combine applies the pillar weights and rounds to two decimals.
func Combine(w config.PillarWeights, s finance.PillarScores) float64 {
	overall := s.IncomeStability*w.Income +
		s.SpendingDiscipline*w.Spending +
		s.DebtTrajectory*w.Debt +
		s.FinancialResilience*w.Resilience +
		s.GrowthMomentum*w.Growth
	return stats.Clamp(stats.Round2(overall), 0, 100)
}

// IncomeStability rewards steady deposits. Starts from 100 minus the
// coefficient of variation of monthly deposits (as a percentage), adds up to
// 20 for multiple income sources (5 per average source), adds 15 when
// payroll-tagged income appears in at least three quarters of months, and
// subtracts 8 per month with zero income.
func IncomeStability(months []finance.MonthlyAggregate) float64 {
	if len(months) == 0 {
		return 0
	}
	deposits := make([]float64, len(months))
	var sourceSum float64
	payrollMonths, zeroMonths := 0, 0
	for i, m := range months {
		deposits[i] = m.Deposits
		sourceSum += float64(m.IncomeSources)
		if m.Deposits == 0 {
			zeroMonths++
		}
		if m.PayrollPresent {
			payrollMonths++
		}
	}

	mean := stats.Mean(deposits)
	cv := 1.0
	if mean > 0 {
		cv = stats.StdDev(deposits) / mean
	}

	score := 100 - cv*100
	score += math.Min(sourceSum/float64(len(months))*5, 20)
	if float64(payrollMonths)/float64(len(months)) >= 0.75 {
		score += 15
	}
	score -= 8 * float64(zeroMonths)
	return stats.Clamp(score, 0, 100)
}

// SpendingDiscipline rewards essential-weighted spending: the overall
// essential ratio carries up to 60 points, any savings-transfer activity
// adds 20, each overdraft-flagged month costs 5, subscriptions beyond an
// average of 8 cost 2 apiece, and an improving essential ratio between the
// first and second half of the window (4+ months) adds 10.
func SpendingDiscipline(months []finance.MonthlyAggregate) float64 {
	if len(months) == 0 {
		return 0
	}
	var subSum float64
	overdrafts := 0
	hasSavings := false
	for _, m := range months {
		subSum += float64(m.SubscriptionCount)
		overdrafts += m.Overdrafts
		if m.SavingsTransfers > 0 {
			hasSavings = true
		}
	}

	score := essentialRatio(months) * 60
	if hasSavings {
		score += 20
	}
	score -= 5 * float64(overdrafts)
	score -= 2 * math.Max(0, subSum/float64(len(months))-8)
	if len(months) >= 4 {
		half := len(months) / 2
		if essentialRatio(months[half:]) > essentialRatio(months[:half]) {
			score += 10
		}
	}
	return stats.Clamp(score, 0, 100)
}

func essentialRatio(months []finance.MonthlyAggregate) float64 {
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

// DebtTrajectory starts from 100 minus the average debt-to-income ratio (as
// a percentage), moves 20 points for a clearly falling or rising DTI trend,
// and subtracts 15 more when the average sits above the 0.43 underwriting
// threshold. A month with zero deposits counts as DTI 1.
func DebtTrajectory(months []finance.MonthlyAggregate) float64 {
	if len(months) == 0 {
		return 0
	}
	dti := DTISeries(months)
	avg := stats.Mean(dti)

	score := 100 - avg*100
	switch slope := stats.Slope(dti); {
	case slope < -0.001:
		score += 20
	case slope > 0.001:
		score -= 20
	}
	if avg > 0.43 {
		score -= 15
	}
	return stats.Clamp(score, 0, 100)
}

// DTISeries returns the per-month debt-to-income ratios, with zero-deposit
// months pinned to 1.
func DTISeries(months []finance.MonthlyAggregate) []float64 {
	dti := make([]float64, len(months))
	for i, m := range months {
		if m.Deposits == 0 {
			dti[i] = 1.0
		} else {
			dti[i] = m.DebtPayments / m.Deposits
		}
	}
	return dti
}

// FinancialResilience measures the buffer: months of coverage from the
// lowest balance (20 points per month, capped at 60), 20 for never ending a
// month negative, 10 for recovering from a high-spend month (above 1.2x the
// average, with the following month below average), and up to 10 for a
// steady balance.
func FinancialResilience(months []finance.MonthlyAggregate) float64 {
	if len(months) == 0 {
		return 0
	}
	balances := make([]float64, len(months))
	spending := make([]float64, len(months))
	minBalance := math.Inf(1)
	allNonNegative := true
	for i, m := range months {
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

	score := math.Min(coverage*20, 60)
	if allNonNegative {
		score += 20
	}
	for i := 0; i+1 < len(spending); i++ {
		if spending[i] > 1.2*avgSpending && spending[i+1] < avgSpending {
			score += 10
			break
		}
	}
	if meanBal := stats.Mean(balances); meanBal != 0 {
		consistency := stats.Clamp(1-stats.StdDev(balances)/math.Abs(meanBal), 0, 1)
		score += consistency * 10
	}
	return stats.Clamp(score, 0, 100)
}

// GrowthMomentum rewards building wealth: the average savings rate carries
// up to 60 points, normalized income growth up to 20, and any
// investment-category activity adds 15.
func GrowthMomentum(months []finance.MonthlyAggregate, txns []finance.Transaction, investmentKeywords []string) float64 {
	if len(months) == 0 {
		return 0
	}
	deposits := make([]float64, len(months))
	net := make([]float64, len(months))
	for i, m := range months {
		deposits[i] = m.Deposits
		net[i] = m.NetSavings()
	}

	var savingsRate, incomeGrowth float64
	if mean := stats.Mean(deposits); mean > 0 {
		savingsRate = stats.Mean(net) / mean
		incomeGrowth = stats.Slope(deposits) / mean
	}

	score := math.Max(savingsRate, 0) * 60
	score += math.Min(math.Max(incomeGrowth*100, 0), 20)
	if hasInvestmentActivity(txns, investmentKeywords) {
		score += 15
	}
	return stats.Clamp(score, 0, 100)
}

func hasInvestmentActivity(txns []finance.Transaction, keywords []string) bool {
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
