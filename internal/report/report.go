// Package report assembles the full health report: aggregation, scoring,
// anomaly scan, red-flag review and explanations, wrapped in one envelope.
// This is the only layer that touches the clock or random IDs; everything
// below it is deterministic.
package report

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/castlebay/finpulse/internal/aggregate"
	"github.com/castlebay/finpulse/internal/anomaly"
	"github.com/castlebay/finpulse/internal/config"
	"github.com/castlebay/finpulse/internal/explain"
	"github.com/castlebay/finpulse/internal/finance"
	"github.com/castlebay/finpulse/internal/redflag"
	"github.com/castlebay/finpulse/internal/score"
)

// Generator runs the analysis pipeline.
type Generator struct {
	cfg *config.Config
	log *logrus.Logger
}

// NewGenerator initializes a generator with its configuration and logger.
func NewGenerator(cfg *config.Config, log *logrus.Logger) *Generator {
	return &Generator{cfg: cfg, log: log}
}

// HealthReport is the complete analysis of one transaction history.
type HealthReport struct {
	ID           string                     `json:"id"`
	GeneratedAt  time.Time                  `json:"generated_at"`
	Months       []finance.MonthlyAggregate `json:"months"`
	Scores       finance.PillarScores       `json:"scores"`
	Anomalies    anomaly.Report             `json:"anomalies"`
	RedFlags     redflag.Report             `json:"red_flags"`
	Explanations explain.Report             `json:"explanations"`
	Summary      string                     `json:"summary"`
}

// Generate runs the full pipeline over raw transactions.
func (g *Generator) Generate(txns []finance.Transaction) (*HealthReport, error) {
	start := time.Now()

	months, err := aggregate.Build(g.cfg, txns)
	if err != nil {
		return nil, fmt.Errorf("aggregate transactions: %w", err)
	}
	g.log.Infof("Aggregated %d transactions into %d months", len(txns), len(months))

	scores := score.Compute(g.cfg, months, txns)
	g.log.Infof("Overall health score: %.2f", scores.Overall)

	anomalies := anomaly.Detect(g.cfg, months, txns)
	g.log.Infof("Anomaly scan: %d alerts, %d warnings, %d notices",
		anomalies.Alerts, anomalies.Warnings, anomalies.Infos)

	flags := redflag.Evaluate(g.cfg, months, txns)
	g.log.Infof("Red-flag review: %d red, %d yellow, %d green",
		flags.Reds, flags.Yellows, flags.Greens)

	r := &HealthReport{
		ID:           uuid.NewString(),
		GeneratedAt:  time.Now().UTC(),
		Months:       months,
		Scores:       scores,
		Anomalies:    anomalies,
		RedFlags:     flags,
		Explanations: explain.Explain(g.cfg, months, txns, scores),
		Summary:      summarize(months, scores, anomalies, flags),
	}
	g.log.Debugf("Report %s generated in %s", r.ID, time.Since(start))
	return r, nil
}

// ScoreBand names the overall-score band used in summaries.
func ScoreBand(overall float64) string {
	switch {
	case overall >= 80:
		return "excellent"
	case overall >= 65:
		return "good"
	case overall >= 50:
		return "fair"
	default:
		return "poor"
	}
}

func summarize(months []finance.MonthlyAggregate, scores finance.PillarScores, anomalies anomaly.Report, flags redflag.Report) string {
	if len(months) == 0 {
		return "No transaction history to analyze."
	}
	return fmt.Sprintf("Overall financial health is %s (%.2f/100) across %d month%s of history. %s Lender view: %s.",
		ScoreBand(scores.Overall), scores.Overall, len(months), pluralS(len(months)),
		anomalies.Summary, flags.Verdict)
}

func pluralS(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
