// Package aggregate rolls categorizer-enriched transactions up into the
// per-month sequence the scoring and detection engines consume.
package aggregate

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/castlebay/finpulse/internal/config"
	"github.com/castlebay/finpulse/internal/finance"
)

// ErrUnorderedMonths reports a month sequence that is not strictly
// ascending with unique keys.
var ErrUnorderedMonths = errors.New("month sequence not strictly ascending")

var monthKeyPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

type monthAccumulator struct {
	agg       finance.MonthlyAggregate
	sources   map[string]struct{}
	merchants map[string]struct{}
}

// Build groups transactions by calendar month (the YYYY-MM prefix of their
// date) and returns the aggregates in ascending month order. The running
// balance accumulates (deposits - spending) across the whole sequence,
// seeded from zero; a month whose cumulative balance ends negative gets its
// overdraft flag set. Empty input yields an empty sequence.
func Build(cfg *config.Config, txns []finance.Transaction) ([]finance.MonthlyAggregate, error) {
	if len(txns) == 0 {
		return []finance.MonthlyAggregate{}, nil
	}

	essential := cfg.EssentialSet()
	payrollKeywords := make([]string, 0, len(cfg.PayrollKeywords))
	for _, kw := range cfg.PayrollKeywords {
		payrollKeywords = append(payrollKeywords, strings.ToLower(kw))
	}

	byMonth := make(map[string]*monthAccumulator)
	for i, t := range txns {
		key := t.MonthKey()
		if !monthKeyPattern.MatchString(key) {
			return nil, fmt.Errorf("transaction %d: malformed date %q", i, t.Date)
		}
		acc, ok := byMonth[key]
		if !ok {
			acc = &monthAccumulator{
				agg:       finance.MonthlyAggregate{Month: key},
				sources:   make(map[string]struct{}),
				merchants: make(map[string]struct{}),
			}
			byMonth[key] = acc
		}
		accumulate(acc, t, essential, payrollKeywords)
	}

	keys := make([]string, 0, len(byMonth))
	for k := range byMonth {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	months := make([]finance.MonthlyAggregate, 0, len(keys))
	balance := 0.0
	for _, k := range keys {
		acc := byMonth[k]
		acc.agg.IncomeSources = len(acc.sources)
		acc.agg.SubscriptionCount = len(acc.merchants)

		balance += acc.agg.Deposits - acc.agg.Spending
		acc.agg.EndBalance = balance
		if balance < 0 {
			acc.agg.Overdrafts = 1
		}
		months = append(months, acc.agg)
	}

	if err := Validate(months); err != nil {
		return nil, err
	}
	return months, nil
}

func accumulate(acc *monthAccumulator, t finance.Transaction, essential map[string]struct{}, payrollKeywords []string) {
	category := strings.ToLower(strings.TrimSpace(t.Category))

	if t.IsIncome {
		acc.agg.Deposits += t.Amount
		if src := t.SourceKey(); src != "" {
			acc.sources[src] = struct{}{}
		}
		if matchesAny(t, payrollKeywords) {
			acc.agg.PayrollPresent = true
		}
		return
	}

	acc.agg.Spending += t.Amount
	if _, ok := essential[category]; ok {
		acc.agg.Essential += t.Amount
	} else {
		acc.agg.Discretionary += t.Amount
	}
	switch category {
	case finance.CategoryDebtPayment:
		acc.agg.DebtPayments += t.Amount
	case finance.CategorySavingsTransfer:
		acc.agg.SavingsTransfers += t.Amount
	case finance.CategorySubscriptions:
		if t.Recurring {
			acc.merchants[t.MerchantKey()] = struct{}{}
		}
	}
}

func matchesAny(t finance.Transaction, keywords []string) bool {
	name := strings.ToLower(t.Name)
	merchant := strings.ToLower(t.Merchant)
	for _, kw := range keywords {
		if strings.Contains(name, kw) || (merchant != "" && strings.Contains(merchant, kw)) {
			return true
		}
	}
	return false
}

// Validate enforces the ordering invariant the trend detectors rely on:
// month keys strictly ascending, no duplicates. Callers that construct
// aggregate sequences directly (the simulators do) run their output through
// this same check.
func Validate(months []finance.MonthlyAggregate) error {
	for i, m := range months {
		if !monthKeyPattern.MatchString(m.Month) {
			return fmt.Errorf("month %d: malformed key %q", i, m.Month)
		}
		if i > 0 && months[i-1].Month >= m.Month {
			return fmt.Errorf("%w: %q then %q", ErrUnorderedMonths, months[i-1].Month, m.Month)
		}
	}
	return nil
}
