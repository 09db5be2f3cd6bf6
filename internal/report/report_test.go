package report

import (
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castlebay/finpulse/internal/config"
	"github.com/castlebay/finpulse/internal/finance"
)

func testGenerator() *Generator {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewGenerator(config.Default(), log)
}

func sampleTxns() []finance.Transaction {
	return []finance.Transaction{
		{Date: "2025-01-01", Amount: 4000, Merchant: "Acme Payroll", Name: "ACME PAYROLL SALARY", Category: finance.CategoryIncome, Recurring: true, IsIncome: true},
		{Date: "2025-01-03", Amount: 1500, Merchant: "Oakwood Flats", Name: "Oakwood Flats", Category: finance.CategoryRent, Recurring: true},
		{Date: "2025-01-10", Amount: 420, Merchant: "Fresh Mart", Name: "Fresh Mart", Category: finance.CategoryGroceries},
		{Date: "2025-01-15", Amount: 300, Merchant: "CardCo", Name: "CardCo", Category: finance.CategoryDebtPayment, Recurring: true},
		{Date: "2025-01-20", Amount: 250, Merchant: "High Yield Savings", Name: "High Yield Savings", Category: finance.CategorySavingsTransfer, Recurring: true},
		{Date: "2025-02-01", Amount: 4000, Merchant: "Acme Payroll", Name: "ACME PAYROLL SALARY", Category: finance.CategoryIncome, Recurring: true, IsIncome: true},
		{Date: "2025-02-03", Amount: 1500, Merchant: "Oakwood Flats", Name: "Oakwood Flats", Category: finance.CategoryRent, Recurring: true},
		{Date: "2025-02-11", Amount: 410, Merchant: "Fresh Mart", Name: "Fresh Mart", Category: finance.CategoryGroceries},
		{Date: "2025-02-15", Amount: 300, Merchant: "CardCo", Name: "CardCo", Category: finance.CategoryDebtPayment, Recurring: true},
		{Date: "2025-02-18", Amount: 180, Merchant: "Weekend Bistro", Name: "Weekend Bistro", Category: finance.CategoryDining},
		{Date: "2025-03-01", Amount: 4000, Merchant: "Acme Payroll", Name: "ACME PAYROLL SALARY", Category: finance.CategoryIncome, Recurring: true, IsIncome: true},
		{Date: "2025-03-03", Amount: 1500, Merchant: "Oakwood Flats", Name: "Oakwood Flats", Category: finance.CategoryRent, Recurring: true},
		{Date: "2025-03-09", Amount: 430, Merchant: "Fresh Mart", Name: "Fresh Mart", Category: finance.CategoryGroceries},
		{Date: "2025-03-15", Amount: 300, Merchant: "CardCo", Name: "CardCo", Category: finance.CategoryDebtPayment, Recurring: true},
		{Date: "2025-03-21", Amount: 250, Merchant: "High Yield Savings", Name: "High Yield Savings", Category: finance.CategorySavingsTransfer, Recurring: true},
	}
}

func TestGenerateFullPipeline(t *testing.T) {
	r, err := testGenerator().Generate(sampleTxns())
	require.NoError(t, err)

	_, err = uuid.Parse(r.ID)
	assert.NoError(t, err, "report ID is a UUID")
	assert.False(t, r.GeneratedAt.IsZero())
	assert.WithinDuration(t, time.Now().UTC(), r.GeneratedAt, time.Minute)

	require.Len(t, r.Months, 3)
	assert.GreaterOrEqual(t, r.Scores.Overall, 0.0)
	assert.LessOrEqual(t, r.Scores.Overall, 100.0)
	assert.Len(t, r.Explanations.Pillars, len(finance.Pillars))
	assert.NotEmpty(t, r.RedFlags.Verdict)
	assert.Contains(t, r.Summary, ScoreBand(r.Scores.Overall))
	assert.Contains(t, r.Summary, "3 months of history")
}

func TestGenerateIsDeterministicModuloEnvelope(t *testing.T) {
	g := testGenerator()
	first, err := g.Generate(sampleTxns())
	require.NoError(t, err)
	second, err := g.Generate(sampleTxns())
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)

	second.ID = first.ID
	second.GeneratedAt = first.GeneratedAt
	assert.Equal(t, first, second, "everything but the envelope fields is a pure function of the input")
}

func TestGenerateEmptyInput(t *testing.T) {
	r, err := testGenerator().Generate(nil)
	require.NoError(t, err)
	assert.Empty(t, r.Months)
	assert.Zero(t, r.Scores.Overall)
	assert.Equal(t, "No transaction history to analyze.", r.Summary)
}

func TestGenerateRejectsMalformedDates(t *testing.T) {
	txns := sampleTxns()
	txns[3].Date = "garbage"
	_, err := testGenerator().Generate(txns)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "aggregate transactions")
}

func TestHealthReportMarshalsStably(t *testing.T) {
	r, err := testGenerator().Generate(sampleTxns())
	require.NoError(t, err)

	first, err := json.Marshal(r)
	require.NoError(t, err)
	second, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	var decoded HealthReport
	require.NoError(t, json.Unmarshal(first, &decoded))
	assert.Equal(t, r.ID, decoded.ID)
	assert.InDelta(t, r.Scores.Overall, decoded.Scores.Overall, 1e-9)
}

func TestScoreBands(t *testing.T) {
	tests := []struct {
		overall float64
		band    string
	}{
		{92, "excellent"},
		{80, "excellent"},
		{70, "good"},
		{55, "fair"},
		{10, "poor"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.band, ScoreBand(tt.overall), "overall %.0f", tt.overall)
	}
}
