// Package demo generates synthetic transaction histories for trying the
// analyzer without real bank data. Output is deterministic for a given
// persona, month count, and seed.
package demo

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/castlebay/finpulse/internal/finance"
)

// Personas shape the generated history: a salaried saver, a freelancer
// with lumpy income, and a household sliding toward trouble.
const (
	PersonaSteady     = "steady"
	PersonaFreelancer = "freelancer"
	PersonaStressed   = "stressed"
)

// Personas lists the supported persona slugs in display order.
func Personas() []string {
	return []string{PersonaSteady, PersonaFreelancer, PersonaStressed}
}

const (
	defaultMonths = 12
	maxMonths     = 60
)

// anchorMonth is the last month of every generated history. Fixing it
// keeps output byte-identical for a given seed no matter when the
// generator runs.
var anchorMonth = time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC)

// charge is one entry in a persona's spending pool.
type charge struct {
	merchant  string
	name      string
	minAmount float64
	maxAmount float64
	category  string
	recurring bool
}

// Generate produces a transaction history for the named persona. months
// defaults to 12 and is capped at 60. The same (persona, months, seed)
// triple always yields the same transactions.
func Generate(persona string, months int, seed int64) ([]finance.Transaction, error) {
	if months <= 0 {
		months = defaultMonths
	}
	if months > maxMonths {
		months = maxMonths
	}
	rng := rand.New(rand.NewSource(seed))

	var txns []finance.Transaction
	switch persona {
	case PersonaSteady:
		txns = steadyHistory(rng, months)
	case PersonaFreelancer:
		txns = freelancerHistory(rng, months)
	case PersonaStressed:
		txns = stressedHistory(rng, months)
	default:
		return nil, fmt.Errorf("unknown persona %q, want one of: %s", persona, strings.Join(Personas(), ", "))
	}

	sort.SliceStable(txns, func(i, j int) bool {
		if txns[i].Date != txns[j].Date {
			return txns[i].Date < txns[j].Date
		}
		return txns[i].Merchant < txns[j].Merchant
	})
	for i := range txns {
		txns[i].ID = fmt.Sprintf("demo-%04d", i+1)
	}
	return txns, nil
}

// steadyHistory models a salaried household: one payroll deposit, rent
// and utilities on schedule, a standing savings transfer, a small
// subscription stack, and an index-fund contribution.
func steadyHistory(rng *rand.Rand, months int) []finance.Transaction {
	bills := []charge{
		{"Oakridge Property", "OAKRIDGE PROPERTY MGMT RENT", 1850, 1850, finance.CategoryRent, true},
		{"City Power & Light", "CITY POWER LIGHT UTIL", 110, 190, finance.CategoryUtilities, true},
		{"Metro Water", "METRO WATER SEWER", 45, 70, finance.CategoryUtilities, true},
		{"Northwind Insurance", "NORTHWIND AUTO INS", 145, 145, finance.CategoryInsurance, true},
	}
	subs := []charge{
		{"StreamBox", "STREAMBOX MONTHLY", 15.99, 15.99, finance.CategorySubscriptions, true},
		{"Tune Cloud", "TUNECLOUD FAMILY", 12.99, 12.99, finance.CategorySubscriptions, true},
		{"Iron Works Gym", "IRON WORKS GYM", 49, 49, finance.CategorySubscriptions, true},
	}
	extras := []charge{
		{"Corner Bistro", "CORNER BISTRO", 35, 95, finance.CategoryDining, false},
		{"Cinema Plaza", "CINEMA PLAZA", 22, 48, finance.CategoryEntertainment, false},
		{"Thread & Co", "THREAD AND CO", 40, 120, finance.CategoryShopping, false},
		{"Trail Outfitters", "TRAIL OUTFITTERS", 30, 110, finance.CategoryShopping, false},
	}

	var txns []finance.Transaction
	for m := 0; m < months; m++ {
		first := monthStart(m, months)

		txns = append(txns, finance.Transaction{
			Date:      day(first, 1+rng.Intn(2)),
			Amount:    5400,
			Merchant:  "Lakeside Systems",
			Name:      "LAKESIDE SYSTEMS PAYROLL",
			Category:  finance.CategoryIncome,
			Recurring: true,
			IsIncome:  true,
		})
		txns = append(txns, billTxns(rng, first, bills)...)
		txns = append(txns, billTxns(rng, first, subs)...)
		txns = append(txns, weeklyGroceries(rng, first, "Fresh Mart", "FRESH MART GROCERY", 95, 160)...)

		txns = append(txns, finance.Transaction{
			Date:      day(first, 2),
			Amount:    600,
			Merchant:  "High Yield Savings",
			Name:      "TRANSFER TO SAVINGS",
			Category:  finance.CategorySavingsTransfer,
			Recurring: true,
		})
		txns = append(txns, finance.Transaction{
			Date:      day(first, 3),
			Amount:    400,
			Merchant:  "Vanguard Brokerage",
			Name:      "VANGUARD INDEX FUND BUY",
			Category:  finance.CategoryInvestment,
			Recurring: true,
		})
		txns = append(txns, finance.Transaction{
			Date:      day(first, 10),
			Amount:    350,
			Merchant:  "AutoLoan Servicing",
			Name:      "AUTOLOAN SERVICING PMT",
			Category:  finance.CategoryDebtPayment,
			Recurring: true,
		})
		txns = append(txns, randomSpending(rng, first, extras, 2+rng.Intn(3))...)
	}
	return txns
}

// freelancerHistory models contract income: one to three client payments
// of swinging size, no payroll, and roughly one dry month per year.
func freelancerHistory(rng *rand.Rand, months int) []finance.Transaction {
	clients := []charge{
		{"Bright Labs", "BRIGHT LABS INVOICE", 1400, 4200, finance.CategoryIncome, false},
		{"Harbor Media", "HARBOR MEDIA INVOICE", 900, 3100, finance.CategoryIncome, false},
		{"Quill Press", "QUILL PRESS ROYALTY", 300, 1200, finance.CategoryIncome, false},
	}
	bills := []charge{
		{"Elm Street Lofts", "ELM STREET LOFTS RENT", 1450, 1450, finance.CategoryRent, true},
		{"City Power & Light", "CITY POWER LIGHT UTIL", 90, 170, finance.CategoryUtilities, true},
	}
	subs := []charge{
		{"StreamBox", "STREAMBOX MONTHLY", 15.99, 15.99, finance.CategorySubscriptions, true},
		{"Cloud Render", "CLOUD RENDER PRO", 39, 39, finance.CategorySubscriptions, true},
		{"Stock Photo Hub", "STOCK PHOTO HUB", 29, 29, finance.CategorySubscriptions, true},
		{"Tune Cloud", "TUNECLOUD SOLO", 10.99, 10.99, finance.CategorySubscriptions, true},
	}
	extras := []charge{
		{"Corner Bistro", "CORNER BISTRO", 30, 85, finance.CategoryDining, false},
		{"Bean Counter Cafe", "BEAN COUNTER CAFE", 6, 14, finance.CategoryDining, false},
		{"Transit Authority", "TRANSIT AUTHORITY", 20, 60, finance.CategoryTransportation, false},
		{"Thread & Co", "THREAD AND CO", 35, 100, finance.CategoryShopping, false},
	}

	// One invoice drought somewhere in the middle of each year of
	// history, never the first or last month.
	dry := map[int]bool{}
	for y := 0; y*12+6 < months; y++ {
		if idx := y*12 + 3 + rng.Intn(6); idx < months-1 {
			dry[idx] = true
		}
	}

	var txns []finance.Transaction
	for m := 0; m < months; m++ {
		first := monthStart(m, months)

		if !dry[m] {
			payments := 1 + rng.Intn(3)
			for p := 0; p < payments; p++ {
				c := clients[rng.Intn(len(clients))]
				txns = append(txns, finance.Transaction{
					Date:     day(first, 3+rng.Intn(22)),
					Amount:   amount(rng, c.minAmount, c.maxAmount),
					Merchant: c.merchant,
					Name:     c.name,
					Category: c.category,
					IsIncome: true,
				})
			}
		}
		txns = append(txns, billTxns(rng, first, bills)...)
		txns = append(txns, billTxns(rng, first, subs)...)
		txns = append(txns, weeklyGroceries(rng, first, "Fresh Mart", "FRESH MART GROCERY", 70, 130)...)

		// Savings only follow strong months.
		if !dry[m] && rng.Float64() < 0.45 {
			txns = append(txns, finance.Transaction{
				Date:     day(first, 24),
				Amount:   amount(rng, 150, 500),
				Merchant: "High Yield Savings",
				Name:     "TRANSFER TO SAVINGS",
				Category: finance.CategorySavingsTransfer,
			})
		}
		txns = append(txns, randomSpending(rng, first, extras, 3+rng.Intn(4))...)
	}
	return txns
}

// stressedHistory models a household in decline: overtime drying up,
// discretionary spending and the subscription stack growing month over
// month, and card payments stuck at the minimum.
func stressedHistory(rng *rand.Rand, months int) []finance.Transaction {
	bills := []charge{
		{"Oakridge Property", "OAKRIDGE PROPERTY MGMT RENT", 2100, 2100, finance.CategoryRent, true},
		{"City Power & Light", "CITY POWER LIGHT UTIL", 130, 230, finance.CategoryUtilities, true},
		{"Northwind Insurance", "NORTHWIND AUTO INS", 160, 160, finance.CategoryInsurance, true},
	}
	subPool := []charge{
		{"StreamBox", "STREAMBOX MONTHLY", 15.99, 15.99, finance.CategorySubscriptions, true},
		{"Tune Cloud", "TUNECLOUD FAMILY", 12.99, 12.99, finance.CategorySubscriptions, true},
		{"Iron Works Gym", "IRON WORKS GYM", 49, 49, finance.CategorySubscriptions, true},
		{"Game Vault", "GAME VAULT PLUS", 17.99, 17.99, finance.CategorySubscriptions, true},
		{"Binge Network", "BINGE NETWORK 4K", 21.99, 21.99, finance.CategorySubscriptions, true},
		{"Podcast Premium", "PODCAST PREMIUM", 8.99, 8.99, finance.CategorySubscriptions, true},
		{"Meal Kit Club", "MEAL KIT CLUB", 79, 79, finance.CategorySubscriptions, true},
		{"News Global", "NEWS GLOBAL DIGITAL", 14.99, 14.99, finance.CategorySubscriptions, true},
		{"Fit Ring", "FIT RING MEMBERSHIP", 11.99, 11.99, finance.CategorySubscriptions, true},
		{"Cloud Locker", "CLOUD LOCKER 2TB", 9.99, 9.99, finance.CategorySubscriptions, true},
	}
	extras := []charge{
		{"Corner Bistro", "CORNER BISTRO", 45, 140, finance.CategoryDining, false},
		{"Night Owl Bar", "NIGHT OWL BAR", 30, 90, finance.CategoryEntertainment, false},
		{"Swift Delivery", "SWIFT DELIVERY EATS", 25, 70, finance.CategoryDining, false},
		{"Thread & Co", "THREAD AND CO", 60, 220, finance.CategoryShopping, false},
		{"Gadget Barn", "GADGET BARN", 80, 400, finance.CategoryShopping, false},
	}

	var txns []finance.Transaction
	for m := 0; m < months; m++ {
		first := monthStart(m, months)
		fade := 1 - 0.02*float64(m)  // overtime tapering off
		creep := 1 + 0.06*float64(m) // lifestyle creep

		txns = append(txns, finance.Transaction{
			Date:      day(first, 1+rng.Intn(2)),
			Amount:    round2(4300 * math.Max(fade, 0.7)),
			Merchant:  "Lakeside Systems",
			Name:      "LAKESIDE SYSTEMS PAYROLL",
			Category:  finance.CategoryIncome,
			Recurring: true,
			IsIncome:  true,
		})
		txns = append(txns, billTxns(rng, first, bills)...)

		// The stack starts at six services and adds one every other
		// month until the pool runs out.
		active := 6 + m/2
		if active > len(subPool) {
			active = len(subPool)
		}
		txns = append(txns, billTxns(rng, first, subPool[:active])...)
		txns = append(txns, weeklyGroceries(rng, first, "Fresh Mart", "FRESH MART GROCERY", 110, 180)...)

		// Flat card payment against a balance this spending implies is
		// not shrinking.
		txns = append(txns, finance.Transaction{
			Date:      day(first, 12),
			Amount:    620,
			Merchant:  "CardCo",
			Name:      "CARDCO MIN PAYMENT",
			Category:  finance.CategoryDebtPayment,
			Recurring: true,
		})
		txns = append(txns, finance.Transaction{
			Date:      day(first, 15),
			Amount:    380,
			Merchant:  "AutoLoan Servicing",
			Name:      "AUTOLOAN SERVICING PMT",
			Category:  finance.CategoryDebtPayment,
			Recurring: true,
		})

		spends := randomSpending(rng, first, extras, 4+rng.Intn(4))
		for i := range spends {
			spends[i].Amount = round2(spends[i].Amount * creep)
		}
		txns = append(txns, spends...)

		if rng.Float64() < 0.25 {
			txns = append(txns, finance.Transaction{
				Date:     day(first, 20+rng.Intn(8)),
				Amount:   35,
				Merchant: "First National Bank",
				Name:     "OVERDRAFT FEE",
				Category: finance.CategoryOther,
			})
		}
	}
	return txns
}

// billTxns emits one transaction per charge, landing in the first third
// of the month with a little day jitter.
func billTxns(rng *rand.Rand, first time.Time, bills []charge) []finance.Transaction {
	out := make([]finance.Transaction, 0, len(bills))
	for _, b := range bills {
		out = append(out, finance.Transaction{
			Date:      day(first, 1+rng.Intn(9)),
			Amount:    amount(rng, b.minAmount, b.maxAmount),
			Merchant:  b.merchant,
			Name:      b.name,
			Category:  b.category,
			Recurring: b.recurring,
		})
	}
	return out
}

// weeklyGroceries emits four grocery runs roughly a week apart.
func weeklyGroceries(rng *rand.Rand, first time.Time, merchant, name string, min, max float64) []finance.Transaction {
	out := make([]finance.Transaction, 0, 4)
	for w := 0; w < 4; w++ {
		out = append(out, finance.Transaction{
			Date:     day(first, 2+w*7+rng.Intn(3)),
			Amount:   amount(rng, min, max),
			Merchant: merchant,
			Name:     name,
			Category: finance.CategoryGroceries,
		})
	}
	return out
}

// randomSpending draws n charges from the pool at random days and
// amounts.
func randomSpending(rng *rand.Rand, first time.Time, pool []charge, n int) []finance.Transaction {
	out := make([]finance.Transaction, 0, n)
	for i := 0; i < n; i++ {
		c := pool[rng.Intn(len(pool))]
		out = append(out, finance.Transaction{
			Date:     day(first, 1+rng.Intn(27)),
			Amount:   amount(rng, c.minAmount, c.maxAmount),
			Merchant: c.merchant,
			Name:     c.name,
			Category: c.category,
		})
	}
	return out
}

// monthStart returns the first day of month m in an n-month window
// ending at anchorMonth.
func monthStart(m, n int) time.Time {
	return anchorMonth.AddDate(0, m-(n-1), 0)
}

// day formats the d-th day of first's month, clamped to 28 so February
// never overflows.
func day(first time.Time, d int) string {
	if d > 28 {
		d = 28
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
}

func amount(rng *rand.Rand, min, max float64) float64 {
	if max <= min {
		return round2(min)
	}
	return round2(min + rng.Float64()*(max-min))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
