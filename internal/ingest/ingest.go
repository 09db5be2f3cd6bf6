// Package ingest loads transaction histories from JSON and CSV files.
package ingest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/castlebay/finpulse/internal/finance"
)

const dateLayout = "2006-01-02"

// Load reads transactions from path, dispatching on the file extension.
func Load(path string) ([]finance.Transaction, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ReadJSON(path)
	case ".csv":
		return ReadCSV(path)
	default:
		return nil, fmt.Errorf("unsupported transaction file %q, want .json or .csv", path)
	}
}

// ReadJSON reads a JSON array of transaction objects.
func ReadJSON(path string) ([]finance.Transaction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transactions: %w", err)
	}
	var txns []finance.Transaction
	if err := json.Unmarshal(data, &txns); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for i := range txns {
		if err := normalize(&txns[i], i+1); err != nil {
			return nil, err
		}
	}
	return txns, nil
}

// csvColumns are the recognized header names. Extra columns are ignored.
var csvColumns = []string{"date", "amount", "merchant", "name", "category", "recurring", "is_income"}

// ReadCSV reads transactions from a CSV file with a header row of
// date,amount,merchant,name,category,recurring,is_income.
func ReadCSV(path string) ([]finance.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read transactions: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("parse %s: missing header row", path)
	}

	cols := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range csvColumns {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("parse %s: missing column %q", path, required)
		}
	}

	field := func(record []string, name string) string {
		i := cols[name]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	txns := make([]finance.Transaction, 0, len(records)-1)
	for row, record := range records[1:] {
		rowNum := row + 2 // 1-based, counting the header

		amount, err := strconv.ParseFloat(field(record, "amount"), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad amount: %w", rowNum, err)
		}
		recurring, err := parseOptionalBool(field(record, "recurring"))
		if err != nil {
			return nil, fmt.Errorf("row %d: bad recurring flag: %w", rowNum, err)
		}
		isIncome, err := parseOptionalBool(field(record, "is_income"))
		if err != nil {
			return nil, fmt.Errorf("row %d: bad is_income flag: %w", rowNum, err)
		}

		t := finance.Transaction{
			Date:      field(record, "date"),
			Amount:    amount,
			Merchant:  field(record, "merchant"),
			Name:      field(record, "name"),
			Category:  field(record, "category"),
			Recurring: recurring,
			IsIncome:  isIncome,
		}
		if err := normalize(&t, rowNum); err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	return txns, nil
}

func parseOptionalBool(s string) (bool, error) {
	if s == "" {
		return false, nil
	}
	return strconv.ParseBool(s)
}

// normalize validates one transaction and lowercases its category. n is the
// 1-based record (or CSV row) number for error messages.
func normalize(t *finance.Transaction, n int) error {
	if _, err := time.Parse(dateLayout, t.Date); err != nil {
		return fmt.Errorf("record %d: bad date %q: %w", n, t.Date, err)
	}
	if math.IsNaN(t.Amount) || math.IsInf(t.Amount, 0) {
		return fmt.Errorf("record %d: amount is not a finite number", n)
	}
	if t.Amount < 0 {
		return fmt.Errorf("record %d: negative amount %.2f, amounts are magnitudes", n, t.Amount)
	}
	category := strings.ToLower(strings.TrimSpace(t.Category))
	if category == "" {
		return fmt.Errorf("record %d: missing category", n)
	}
	t.Category = category
	return nil
}
