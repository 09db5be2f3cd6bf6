// Package config holds the tunable inputs of the scoring engines: category
// sets, keyword lists, pillar weights and simulation defaults. Values are
// resolved defaults-first, then an optional YAML file, then FINPULSE_*
// environment variables (a .env file is honored when present).
package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/castlebay/finpulse/internal/finance"
)

// PillarWeights are the overall-score weights. They must sum to 1.0.
type PillarWeights struct {
	Income     float64 `yaml:"income"`
	Spending   float64 `yaml:"spending"`
	Debt       float64 `yaml:"debt"`
	Resilience float64 `yaml:"resilience"`
	Growth     float64 `yaml:"growth"`
}

// Config is the full engine configuration.
type Config struct {
	EssentialCategories []string      `yaml:"essential_categories"`
	PayrollKeywords     []string      `yaml:"payroll_keywords"`
	InvestmentKeywords  []string      `yaml:"investment_keywords"`
	Weights             PillarWeights `yaml:"weights"`
	ForwardMonths       int           `yaml:"forward_months"`
}

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		EssentialCategories: []string{
			finance.CategoryRent,
			finance.CategoryGroceries,
			finance.CategoryUtilities,
			finance.CategoryInsurance,
			finance.CategoryMedical,
			finance.CategoryTransportation,
			finance.CategoryDebtPayment,
		},
		PayrollKeywords: []string{
			"payroll", "direct deposit", "direct-dep", "directdep", "salary",
		},
		InvestmentKeywords: []string{"investment", "brokerage", "etf"},
		Weights: PillarWeights{
			Income:     0.25,
			Spending:   0.20,
			Debt:       0.20,
			Resilience: 0.20,
			Growth:     0.15,
		},
		ForwardMonths: 12,
	}
}

// Load resolves the configuration: defaults, then the YAML file at path
// (skipped when path is empty), then environment overrides. A .env file in
// the working directory is loaded into the environment first when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := getEnvList("FINPULSE_ESSENTIAL_CATEGORIES"); v != nil {
		cfg.EssentialCategories = v
	}
	if v := getEnvList("FINPULSE_PAYROLL_KEYWORDS"); v != nil {
		cfg.PayrollKeywords = v
	}
	if v := getEnvList("FINPULSE_INVESTMENT_KEYWORDS"); v != nil {
		cfg.InvestmentKeywords = v
	}
	cfg.ForwardMonths = getEnvAsInt("FINPULSE_FORWARD_MONTHS", cfg.ForwardMonths)
}

// Validate checks the invariants other packages rely on.
func (c *Config) Validate() error {
	if len(c.EssentialCategories) == 0 {
		return fmt.Errorf("config: essential_categories must not be empty")
	}
	if len(c.PayrollKeywords) == 0 {
		return fmt.Errorf("config: payroll_keywords must not be empty")
	}
	if len(c.InvestmentKeywords) == 0 {
		return fmt.Errorf("config: investment_keywords must not be empty")
	}
	w := c.Weights
	for name, v := range map[string]float64{
		"income": w.Income, "spending": w.Spending, "debt": w.Debt,
		"resilience": w.Resilience, "growth": w.Growth,
	} {
		if v < 0 {
			return fmt.Errorf("config: weight %s is negative", name)
		}
	}
	sum := w.Income + w.Spending + w.Debt + w.Resilience + w.Growth
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("config: pillar weights sum to %.6f, want 1.0", sum)
	}
	if c.ForwardMonths < 1 || c.ForwardMonths > 60 {
		return fmt.Errorf("config: forward_months %d out of range [1,60]", c.ForwardMonths)
	}
	return nil
}

// EssentialSet returns the essential categories as a lookup set,
// lowercased.
func (c *Config) EssentialSet() map[string]struct{} {
	return toSet(c.EssentialCategories)
}

// InvestmentSet returns the investment keywords as a lookup set,
// lowercased.
func (c *Config) InvestmentSet() map[string]struct{} {
	return toSet(c.InvestmentKeywords)
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, s := range items {
		set[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}
	return set
}

func getEnvList(key string) []string {
	raw, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func getEnvAsInt(key string, fallback int) int {
	raw, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
