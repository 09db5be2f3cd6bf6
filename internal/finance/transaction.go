// Package finance defines the shared data model for the scoring and
// simulation engines: categorizer-enriched transactions, per-month
// aggregates, and pillar scores.
package finance

import "strings"

// Transaction is a single categorizer-enriched bank transaction. Amounts
// are positive magnitudes; direction comes from IsIncome.
type Transaction struct {
	ID        string  `json:"id,omitempty"`
	Date      string  `json:"date"` // YYYY-MM-DD
	Amount    float64 `json:"amount"`
	Merchant  string  `json:"merchant,omitempty"`
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	Recurring bool    `json:"recurring"`
	IsIncome  bool    `json:"is_income"`
}

// MonthKey returns the YYYY-MM prefix of the transaction date.
func (t Transaction) MonthKey() string {
	if len(t.Date) < 7 {
		return t.Date
	}
	return t.Date[:7]
}

// SourceKey identifies the income source behind a deposit: the merchant
// when present, otherwise the raw statement name, normalized so that
// "ACME Corp" and "acme corp " collapse to one source.
func (t Transaction) SourceKey() string {
	s := t.Merchant
	if s == "" {
		s = t.Name
	}
	return strings.ToLower(strings.TrimSpace(s))
}

// MerchantKey groups transactions that belong to the same recurring
// charge. Same normalization as SourceKey.
func (t Transaction) MerchantKey() string {
	return t.SourceKey()
}
