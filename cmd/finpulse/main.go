// Command finpulse scores categorized bank transaction history, flags
// lending risks, and simulates what-if scenarios.
//
// Commands:
//
//	analyze     Produce a full health report from a transaction file
//	stress      Replay a named shock scenario against the history
//	simulate    Project scores forward under what-if modifiers
//	demo        Generate a synthetic transaction file
//	watch       Re-run the analysis on a cron schedule
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/castlebay/finpulse/internal/aggregate"
	"github.com/castlebay/finpulse/internal/config"
	"github.com/castlebay/finpulse/internal/demo"
	"github.com/castlebay/finpulse/internal/finance"
	"github.com/castlebay/finpulse/internal/ingest"
	"github.com/castlebay/finpulse/internal/report"
	"github.com/castlebay/finpulse/internal/simulate"
)

var log = newLogger()

func newLogger() *logrus.Logger {
	logger := logrus.New()
	level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "analyze":
		runAnalyze(os.Args[2:])
	case "stress":
		runStress(os.Args[2:])
	case "simulate":
		runSimulate(os.Args[2:])
	case "demo":
		runDemo(os.Args[2:])
	case "watch":
		runWatch(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(2)
	}
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  finpulse <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  analyze    Produce a full health report from a transaction file")
	fmt.Println("  stress     Replay a named shock scenario against the history")
	fmt.Println("  simulate   Project scores forward under what-if modifiers")
	fmt.Println("  demo       Generate a synthetic transaction file")
	fmt.Println("  watch      Re-run the analysis on a cron schedule")
	fmt.Println("  help       Show this help")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  # Score a year of transactions and save the report")
	fmt.Println("  finpulse analyze -input tx.json -out report.json -pretty")
	fmt.Println()
	fmt.Println("  # How long would the balance survive a job loss?")
	fmt.Println("  finpulse stress -input tx.json -scenario job_loss")
	fmt.Println()
	fmt.Println("  # Cancel two subscriptions and save 200/month for a year")
	fmt.Println("  finpulse simulate -input tx.json -modifiers mods.json")
	fmt.Println()
	fmt.Println("  # Try the analyzer without real bank data")
	fmt.Println("  finpulse demo -persona freelancer -out tx.json")
	fmt.Println()
	fmt.Println("Known scenarios: " + strings.Join(simulate.ScenarioSlugs(), ", "))
	fmt.Println("Personas: " + strings.Join(demo.Personas(), ", "))
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  LOG_LEVEL                      Log verbosity (default info)")
	fmt.Println("  FINPULSE_ESSENTIAL_CATEGORIES  Comma-separated essential category slugs")
	fmt.Println("  FINPULSE_PAYROLL_KEYWORDS      Comma-separated payroll keywords")
	fmt.Println("  FINPULSE_INVESTMENT_KEYWORDS   Comma-separated investment keywords")
	fmt.Println("  FINPULSE_FORWARD_MONTHS        Default simulation horizon")
}

func runAnalyze(args []string) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	input := fs.String("input", "", "transaction file (.json or .csv)")
	cfgPath := fs.String("config", "", "YAML config file")
	out := fs.String("out", "", "write the report here instead of stdout")
	pretty := fs.Bool("pretty", false, "indent the JSON output")
	fs.Parse(args)
	requireFlag(*input, "-input")

	cfg := mustConfig(*cfgPath)
	txns := mustTransactions(*input)

	rep, err := report.NewGenerator(cfg, log).Generate(txns)
	if err != nil {
		log.Fatalf("Failed to generate report: %v", err)
	}
	writeJSON(rep, *out, *pretty)
}

func runStress(args []string) {
	fs := flag.NewFlagSet("stress", flag.ExitOnError)
	input := fs.String("input", "", "transaction file (.json or .csv)")
	cfgPath := fs.String("config", "", "YAML config file")
	slug := fs.String("scenario", "", "scenario slug ("+strings.Join(simulate.ScenarioSlugs(), ", ")+")")
	months := fs.Int("months", 0, "override the scenario duration")
	out := fs.String("out", "", "write the result here instead of stdout")
	fs.Parse(args)
	requireFlag(*input, "-input")
	requireFlag(*slug, "-scenario")

	scenario, err := simulate.Resolve(*slug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if *months > 0 {
		scenario.DurationMonths = *months
	}

	cfg := mustConfig(*cfgPath)
	txns := mustTransactions(*input)
	monthSeq := mustMonths(cfg, txns)

	res, err := simulate.Stress(cfg, monthSeq, txns, scenario)
	if err != nil {
		log.Fatalf("Stress test failed: %v", err)
	}
	log.Infof("Scenario %q: runway %d months (%s)", scenario.Slug, res.RunwayMonths, res.Severity)
	writeJSON(res, *out, true)
}

func runSimulate(args []string) {
	fs := flag.NewFlagSet("simulate", flag.ExitOnError)
	input := fs.String("input", "", "transaction file (.json or .csv)")
	cfgPath := fs.String("config", "", "YAML config file")
	months := fs.Int("months", 0, "projection horizon (default from config)")
	modsPath := fs.String("modifiers", "", "JSON file with an array of modifiers")
	out := fs.String("out", "", "write the result here instead of stdout")
	fs.Parse(args)
	requireFlag(*input, "-input")

	cfg := mustConfig(*cfgPath)
	horizon := *months
	if horizon <= 0 {
		horizon = cfg.ForwardMonths
	}

	var mods []simulate.ScenarioModifier
	if *modsPath != "" {
		data, err := os.ReadFile(*modsPath)
		if err != nil {
			log.Fatalf("Failed to read modifiers: %v", err)
		}
		if err := json.Unmarshal(data, &mods); err != nil {
			log.Fatalf("Failed to parse modifiers %s: %v", *modsPath, err)
		}
	}

	txns := mustTransactions(*input)
	monthSeq := mustMonths(cfg, txns)

	res, err := simulate.Forward(cfg, monthSeq, txns, mods, horizon)
	if err != nil {
		log.Fatalf("Simulation failed: %v", err)
	}
	log.Infof("Projected %d months: overall %.2f -> %.2f, loan approval %s",
		len(res.ProjectedMonths), res.Baseline.Overall, res.Projected.Overall, res.LoanApproval.Tier)
	writeJSON(res, *out, true)
}

func runDemo(args []string) {
	fs := flag.NewFlagSet("demo", flag.ExitOnError)
	persona := fs.String("persona", demo.PersonaSteady, "persona ("+strings.Join(demo.Personas(), ", ")+")")
	months := fs.Int("months", 12, "months of history to generate")
	seed := fs.Int64("seed", 42, "random seed")
	out := fs.String("out", "", "write transactions here instead of stdout")
	fs.Parse(args)

	txns, err := demo.Generate(*persona, *months, *seed)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	log.Infof("Generated %d transactions for persona %q", len(txns), *persona)
	writeJSON(txns, *out, true)
}

func runWatch(args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	input := fs.String("input", "", "transaction file (.json or .csv)")
	cfgPath := fs.String("config", "", "YAML config file")
	schedule := fs.String("schedule", "@hourly", "cron schedule expression")
	fs.Parse(args)
	requireFlag(*input, "-input")

	cfg := mustConfig(*cfgPath)
	gen := report.NewGenerator(cfg, log)

	var (
		prevOverall float64
		prevVerdict string
		hasPrev     bool
	)
	runOnce := func() {
		txns, err := ingest.Load(*input)
		if err != nil {
			log.Errorf("Watch run failed: %v", err)
			return
		}
		rep, err := gen.Generate(txns)
		if err != nil {
			log.Errorf("Watch run failed: %v", err)
			return
		}
		if hasPrev {
			log.Infof("Overall %.2f (%+.2f since last run), verdict: %s",
				rep.Scores.Overall, rep.Scores.Overall-prevOverall, rep.RedFlags.Verdict)
			if rep.RedFlags.Verdict != prevVerdict {
				log.Warnf("Verdict changed: %q -> %q", prevVerdict, rep.RedFlags.Verdict)
			}
		} else {
			log.Infof("Overall %.2f, verdict: %s", rep.Scores.Overall, rep.RedFlags.Verdict)
		}
		prevOverall, prevVerdict, hasPrev = rep.Scores.Overall, rep.RedFlags.Verdict, true
	}

	runOnce()

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(*schedule, runOnce); err != nil {
		fmt.Fprintf(os.Stderr, "Error: bad schedule %q: %v\n", *schedule, err)
		os.Exit(2)
	}
	log.Infof("Watching %s on schedule %q", *input, *schedule)
	c.Start()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	<-c.Stop().Done()
	log.Info("Watcher stopped")
}

func requireFlag(value, name string) {
	if value == "" {
		fmt.Fprintf(os.Stderr, "Error: %s is required\n", name)
		os.Exit(2)
	}
}

func mustConfig(path string) *config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func mustTransactions(path string) []finance.Transaction {
	txns, err := ingest.Load(path)
	if err != nil {
		log.Fatalf("Failed to load transactions: %v", err)
	}
	return txns
}

func mustMonths(cfg *config.Config, txns []finance.Transaction) []finance.MonthlyAggregate {
	months, err := aggregate.Build(cfg, txns)
	if err != nil {
		log.Fatalf("Failed to aggregate transactions: %v", err)
	}
	return months
}

// writeJSON emits v to stdout, or to path when set. Stress and simulation
// results are always indented; analyze honors -pretty so reports can be
// piped compactly.
func writeJSON(v any, path string, pretty bool) {
	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		log.Fatalf("Failed to encode output: %v", err)
	}
	data = append(data, '\n')

	if path == "" {
		os.Stdout.Write(data)
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Fatalf("Failed to write %s: %v", path, err)
	}
	log.Infof("Wrote %s", path)
}
