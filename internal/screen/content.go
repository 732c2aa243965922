package screen

import (
	"regexp"
	"strings"
)

// CurrencyPatterns holds the amount patterns for one currency.
// Group 1 of every pattern captures the number.
type CurrencyPatterns struct {
	Code     string
	Patterns []*regexp.Regexp
}

// number accepts Western (1,234,567) and Indian (12,34,567) grouping, where
// the last group always has three digits, a decimal comma (15,00) and plain
// numbers.
const number = `(\d{1,3}(?:(?:,\d{3})+|(?:,\d{2})*,\d{3})(?:\.\d+)?\b|\d+,\d{1,2}\b|\d+(?:\.\d+)?)`

// Currencies is the ordered amount table. Order matters: the first currency
// with a matching pattern wins, and within a currency the first pattern wins.
var Currencies = []CurrencyPatterns{
	{
		Code: "INR",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:\brs\.?|\binr|₹)\s*` + number),
			regexp.MustCompile(`(?i)` + number + `\s*(?:\binr\b|rs\b)`),
			regexp.MustCompile(`(?i)\b(?:debited|credited|spent|paid|withdrawn)\s+(?:by|with|for|of)\s+` + number),
		},
	},
	{
		Code: "USD",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:\$|\busd)\s*` + number),
			regexp.MustCompile(`(?i)` + number + `\s*usd\b`),
		},
	},
	{
		Code: "EUR",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:€|\beur)\s*` + number),
			regexp.MustCompile(`(?i)` + number + `\s*(?:€|eur\b)`),
		},
	},
	{
		Code: "GBP",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:£|\bgbp)\s*` + number),
			regexp.MustCompile(`(?i)` + number + `\s*(?:£|gbp\b)`),
		},
	},
}

var debitKeywords = []string{
	"debited",
	"spent",
	"paid",
	"withdrawn",
	"purchase",
	"payment",
	"transferred",
	"transaction",
	"sent",
	"dr",
}

// HasAmount reports whether text contains an amount in a supported currency.
func HasAmount(text string) bool {
	for _, c := range Currencies {
		for _, re := range c.Patterns {
			if re.MatchString(text) {
				return true
			}
		}
	}

	return false
}

// IsDebitTransaction reports whether text carries debit vocabulary.
func IsDebitTransaction(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range debitKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}

	return false
}
