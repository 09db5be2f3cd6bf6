package simulate

import (
	"errors"
	"fmt"
	"strings"
)

// Scenario is a stress condition: income cut, expense jump, one-time hit,
// or any mix.
type Scenario struct {
	Slug               string  `json:"slug"`
	Name               string  `json:"name"`
	IncomeReductionPct float64 `json:"income_reduction_pct"`
	ExpenseIncreasePct float64 `json:"expense_increase_pct"`
	OneTimeExpense     float64 `json:"one_time_expense"`
	DurationMonths     int     `json:"duration_months"`
}

// ErrUnknownScenario is wrapped by Resolve for unrecognized slugs.
var ErrUnknownScenario = errors.New("unknown scenario")

var builtinScenarios = []Scenario{
	{Slug: "job_loss", Name: "Job Loss", IncomeReductionPct: 100},
	{Slug: "income_drop_25", Name: "25% Income Drop", IncomeReductionPct: 25},
	{Slug: "income_drop_50", Name: "50% Income Drop", IncomeReductionPct: 50},
	{Slug: "rent_increase", Name: "Rent Increase", ExpenseIncreasePct: 20},
	{Slug: "medical_emergency", Name: "Medical Emergency", OneTimeExpense: 5000},
	{Slug: "car_repair", Name: "Major Car Repair", OneTimeExpense: 2500},
	{Slug: "new_child", Name: "New Child", ExpenseIncreasePct: 15},
	{Slug: "recession", Name: "Recession", IncomeReductionPct: 20, ExpenseIncreasePct: 10},
}

// Scenarios lists the built-in scenarios in a fixed order.
func Scenarios() []Scenario {
	out := make([]Scenario, len(builtinScenarios))
	copy(out, builtinScenarios)
	return out
}

// ScenarioSlugs lists the built-in slugs in the same order.
func ScenarioSlugs() []string {
	slugs := make([]string, len(builtinScenarios))
	for i, s := range builtinScenarios {
		slugs[i] = s.Slug
	}
	return slugs
}

// Resolve looks up a built-in scenario by slug.
func Resolve(slug string) (Scenario, error) {
	for _, s := range builtinScenarios {
		if s.Slug == slug {
			return s, nil
		}
	}
	return Scenario{}, fmt.Errorf("%w %q, known scenarios: %s",
		ErrUnknownScenario, slug, strings.Join(ScenarioSlugs(), ", "))
}

// Custom builds a one-off scenario from raw parameters.
func Custom(incomeReductionPct, expenseIncreasePct, oneTimeExpense float64, durationMonths int) Scenario {
	return Scenario{
		Slug:               "custom",
		Name:               "Custom Scenario",
		IncomeReductionPct: incomeReductionPct,
		ExpenseIncreasePct: expenseIncreasePct,
		OneTimeExpense:     oneTimeExpense,
		DurationMonths:     durationMonths,
	}
}
