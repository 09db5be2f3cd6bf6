// Package redflag evaluates the month sequence the way a loan underwriter
// would: eleven independent checks, each returning at most one flag with
// remediation steps, rolled into a readiness verdict.
package redflag

import (
	"sort"

	"github.com/castlebay/finpulse/internal/config"
	"github.com/castlebay/finpulse/internal/finance"
)

// Severity is the underwriting traffic light. Green is only emitted as an
// explicit strength signal.
type Severity string

const (
	SeverityRed    Severity = "red"
	SeverityYellow Severity = "yellow"
	SeverityGreen  Severity = "green"
)

func (s Severity) rank() int {
	switch s {
	case SeverityRed:
		return 3
	case SeverityYellow:
		return 2
	case SeverityGreen:
		return 1
	default:
		return 0
	}
}

// Step is one remediation action with a time horizon and the outcome a
// lender would care about.
type Step struct {
	Horizon string `json:"horizon"`
	Action  string `json:"action"`
	Impact  string `json:"impact"`
}

// Remediation horizons, ascending.
const (
	Horizon30Days  = "30 days"
	Horizon3Months = "3 months"
	Horizon6Months = "6 months"
	Horizon9Months = "9 months"
	Horizon1Year   = "1 year"
)

// Flag is one underwriting observation.
type Flag struct {
	Type        string   `json:"type"`
	Severity    Severity `json:"severity"`
	Title       string   `json:"title"`
	Detail      string   `json:"detail"`
	Metric      float64  `json:"metric"`
	Remediation []Step   `json:"remediation"`
}

// Report is the full red-flag evaluation.
type Report struct {
	Flags   []Flag `json:"flags"`
	Reds    int    `json:"reds"`
	Yellows int    `json:"yellows"`
	Greens  int    `json:"greens"`
	Verdict string `json:"verdict"`
}

type evalContext struct {
	cfg    *config.Config
	months []finance.MonthlyAggregate
	txns   []finance.Transaction
}

type check struct {
	name string
	run  func(evalContext) *Flag
}

// Evaluate runs every check in registry order and sorts the flags
// red-first (ties keep registry order).
func Evaluate(cfg *config.Config, months []finance.MonthlyAggregate, txns []finance.Transaction) Report {
	if len(months) == 0 {
		return Report{Flags: []Flag{}, Verdict: "no transaction history to assess"}
	}
	ctx := evalContext{cfg: cfg, months: months, txns: txns}

	flags := make([]Flag, 0, len(checks))
	for _, c := range checks {
		if f := c.run(ctx); f != nil {
			flags = append(flags, *f)
		}
	}
	sort.SliceStable(flags, func(i, j int) bool {
		return flags[i].Severity.rank() > flags[j].Severity.rank()
	})

	r := Report{Flags: flags}
	for _, f := range flags {
		switch f.Severity {
		case SeverityRed:
			r.Reds++
		case SeverityYellow:
			r.Yellows++
		case SeverityGreen:
			r.Greens++
		}
	}
	r.Verdict = verdict(r.Reds, r.Yellows)
	return r
}

func verdict(reds, yellows int) string {
	switch {
	case reds == 0 && yellows <= 1:
		return "strong position — lenders will view this profile favorably"
	case reds == 0:
		return "generally stable — a few areas need tightening before applying"
	case reds == 1:
		return "borderline — resolve the critical item before seeking new credit"
	default:
		return "significant work needed before loan applications are realistic"
	}
}
