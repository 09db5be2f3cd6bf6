package finance

// MonthlyAggregate is one calendar month of rolled-up transaction activity.
// Months are keyed YYYY-MM and the aggregator guarantees the slice it
// returns is strictly ascending with unique keys.
type MonthlyAggregate struct {
	Month             string  `json:"month"`
	Deposits          float64 `json:"deposits"`
	Spending          float64 `json:"spending"`
	Essential         float64 `json:"essential"`
	Discretionary     float64 `json:"discretionary"`
	DebtPayments      float64 `json:"debt_payments"`
	SavingsTransfers  float64 `json:"savings_transfers"`
	EndBalance        float64 `json:"end_balance"`
	IncomeSources     int     `json:"income_sources"`
	Overdrafts        int     `json:"overdrafts"` // 0 or 1: balance negative at month end, not an event count
	SubscriptionCount int     `json:"subscription_count"`
	PayrollPresent    bool    `json:"payroll_present"`
}

// NetSavings is the month's net cash flow: deposits minus all outflow.
func (m MonthlyAggregate) NetSavings() float64 {
	return m.Deposits - m.Spending
}
