package finance

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Category slugs the engines treat specially. Transactions may carry any
// lowercase slug; unknown ones are treated as discretionary spending.
const (
	CategoryRent            = "rent"
	CategoryGroceries       = "groceries"
	CategoryUtilities       = "utilities"
	CategoryInsurance       = "insurance"
	CategoryMedical         = "medical"
	CategoryTransportation  = "transportation"
	CategoryDebtPayment     = "debt_payment"
	CategorySavingsTransfer = "savings_transfer"
	CategorySubscriptions   = "subscriptions"
	CategoryDining          = "dining"
	CategoryEntertainment   = "entertainment"
	CategoryShopping        = "shopping"
	CategoryTravel          = "travel"
	CategoryPersonalCare    = "personal_care"
	CategoryEducation       = "education"
	CategoryInvestment      = "investment"
	CategoryIncome          = "income"
	CategoryOther           = "other"
)

var (
	cardPrefixPattern = regexp.MustCompile(`(?i)^(pos |eftpos |visa |mastercard |amex |paypal \*)`)
	corpSuffixPattern = regexp.MustCompile(`(?i)\s+(pty|ltd|inc|corp|llc|au|us|uk|nz|sg)\.?$`)
	longDigitRuns     = regexp.MustCompile(`\d{6,}`)
	statementNoise    = regexp.MustCompile(`[*#]+`)

	titleCaser = cases.Title(language.English)
)

// DisplayCategory turns a category slug into a human-readable label:
// "debt_payment" becomes "Debt Payment".
func DisplayCategory(slug string) string {
	s := strings.ReplaceAll(strings.TrimSpace(slug), "_", " ")
	if s == "" {
		return "Other"
	}
	return titleCaser.String(strings.ToLower(s))
}

// DisplayMerchant cleans a raw statement merchant for finding and
// explanation text: card-terminal prefixes, corporate suffixes, long
// reference numbers and separator noise are stripped, then each word is
// title-cased (short words upper-cased, so "jb hi-fi" reads "JB Hi-Fi").
func DisplayMerchant(raw string) string {
	cleaned := cardPrefixPattern.ReplaceAllString(raw, "")
	cleaned = corpSuffixPattern.ReplaceAllString(cleaned, "")
	cleaned = longDigitRuns.ReplaceAllString(cleaned, "")
	cleaned = statementNoise.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(cleaned)

	words := strings.Fields(cleaned)
	for i, word := range words {
		if len(word) > 2 {
			words[i] = titleCaser.String(strings.ToLower(word))
		} else {
			words[i] = strings.ToUpper(word)
		}
	}

	result := strings.Join(words, " ")
	if len(result) > 50 {
		result = result[:50]
	}
	if result == "" {
		return "Unknown Merchant"
	}
	return result
}
