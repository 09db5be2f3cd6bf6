// Package anomaly detects unusual spending and income patterns over the
// monthly aggregate sequence. Detectors are pure and run in a fixed
// registry order, so identical input always produces identical output.
package anomaly

import (
	"fmt"
	"sort"
	"strings"

	"github.com/castlebay/finpulse/internal/config"
	"github.com/castlebay/finpulse/internal/finance"
	"github.com/castlebay/finpulse/internal/stats"
)

// Severity ranks a finding: alert > warning > info.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityAlert   Severity = "alert"
)

func (s Severity) rank() int {
	switch s {
	case SeverityAlert:
		return 3
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// Finding is one detected anomaly.
type Finding struct {
	Type        string   `json:"type"`
	Severity    Severity `json:"severity"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	MetricValue float64  `json:"metric_value"`
	Month       string   `json:"month,omitempty"` // most relevant month key
}

// Report is the full anomaly scan result.
type Report struct {
	Findings    []Finding `json:"findings"`
	Alerts      int       `json:"alerts"`
	Warnings    int       `json:"warnings"`
	Infos       int       `json:"infos"`
	HealthScore float64   `json:"health_score"`
	Summary     string    `json:"summary"`
}

type detectContext struct {
	cfg    *config.Config
	months []finance.MonthlyAggregate
	txns   []finance.Transaction
}

type detector struct {
	name string
	run  func(detectContext) *Finding
}

// Detect runs every registered detector and assembles the report. Findings
// are ordered by descending severity; ties keep registry order.
func Detect(cfg *config.Config, months []finance.MonthlyAggregate, txns []finance.Transaction) Report {
	ctx := detectContext{cfg: cfg, months: months, txns: txns}

	findings := make([]Finding, 0, len(registry))
	for _, d := range registry {
		if f := d.run(ctx); f != nil {
			findings = append(findings, *f)
		}
	}
	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].Severity.rank() > findings[j].Severity.rank()
	})

	r := Report{Findings: findings}
	for _, f := range findings {
		switch f.Severity {
		case SeverityAlert:
			r.Alerts++
		case SeverityWarning:
			r.Warnings++
		case SeverityInfo:
			r.Infos++
		}
	}
	r.HealthScore = stats.Clamp(100-15*float64(r.Alerts)-8*float64(r.Warnings)-3*float64(r.Infos), 0, 100)
	r.Summary = summarize(r.Alerts, r.Warnings, r.Infos)
	return r
}

func summarize(alerts, warnings, infos int) string {
	if alerts+warnings+infos == 0 {
		return "No spending anomalies detected."
	}
	var parts []string
	if alerts > 0 {
		parts = append(parts, fmt.Sprintf("%d alert%s", alerts, plural(alerts)))
	}
	if warnings > 0 {
		parts = append(parts, fmt.Sprintf("%d warning%s", warnings, plural(warnings)))
	}
	if infos > 0 {
		parts = append(parts, fmt.Sprintf("%d informational signal%s", infos, plural(infos)))
	}
	return strings.Join(parts, ", ") + " detected."
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
