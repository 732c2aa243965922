package extraction

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/smsledger/internal/screen"
)

const dateToken = `(\d{1,2}[-\s]?[A-Za-z]{3}[-\s]?(?:\d{4}|\d{2})|\d{1,2}[-/]\d{1,2}[-/](?:\d{4}|\d{2})|\d{4}-\d{1,2}-\d{1,2})\b`

var (
	markedDateRe = regexp.MustCompile(`(?i)\b(?:on|dated)\s*:?\s*(?:date\s+)?` + dateToken)
	anyDateRe    = regexp.MustCompile(`\b` + dateToken)

	dateLayouts = []string{
		"2Jan06", "2Jan2006",
		"2-Jan-06", "2-Jan-2006",
		"2 Jan 06", "2 Jan 2006",
		"2-1-2006", "2-1-06",
		"2/1/2006", "2/1/06",
		"2006-1-2",
	}

	referenceRe   = regexp.MustCompile(`(?i)\b(?:ref(?:erence)?(?:\s*no)?|refno)[\s.:#-]*(\d+)`)
	descriptionRe = regexp.MustCompile(`(?i)\bdesc:\s*([^\n]+)`)
	apayRe        = regexp.MustCompile(`(?i)\bapay\b`)
	separatorRe   = regexp.MustCompile(`[\s@]+`)

	decimalCommaRe = regexp.MustCompile(`^\d+,\d{1,2}$`)

	// accountRe matches captures that name an account rather than a payee.
	accountRe = regexp.MustCompile(`(?i)^(?:(?:your|ur|my)\s+)?(?:a/c|acct|account)\b|^(?:[x*]+\d+|\d{6,})$`)
)

const merchantEnd = `(?:\s+(?:on|via|using|ref|refno|for|from|avl|avbl|info|upi|dated|with|is|and)\b|[.,;:]\s|[.,;]?$|\s*\()`

var merchantPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bsuccessful(?:ly)?\s+at\s+(.+?)` + merchantEnd),
	regexp.MustCompile(`(?i)\btrf\s+to\s+(.+?)` + merchantEnd),
	regexp.MustCompile(`(?i)\bpaid\s+to\s+(.+?)` + merchantEnd),
	regexp.MustCompile(`(?i)\b(?:at|to)\s+(.+?)` + merchantEnd),
	regexp.MustCompile(`(?i)\b(?:merchant|payee)\s*:\s*(.+?)` + merchantEnd),
}

// RegexExtractor parses messages with fixed pattern lists. It never performs
// I/O and never blocks.
type RegexExtractor struct {
	now func() time.Time
}

func NewRegexExtractor() *RegexExtractor {
	return &RegexExtractor{now: time.Now}
}

func (e *RegexExtractor) Name() string { return "regex" }

func (e *RegexExtractor) Extract(_ context.Context, text string) (Details, error) {
	amount, currency, ok := findAmount(text)
	if !ok {
		return Details{}, ErrNoAmount
	}

	d := Details{
		Amount:          amount,
		Currency:        currency,
		Merchant:        UnknownMerchant,
		Category:        Uncategorized,
		ReferenceNumber: firstGroup(referenceRe, text),
		Description:     strings.TrimSpace(firstGroup(descriptionRe, text)),
	}

	if m := MerchantFromText(text); m != "" {
		d.Merchant = m
	}

	if date, ok := findDate(text); ok {
		d.Date = date
		d.DateOnly = true
	} else {
		d.Date = e.now()
	}

	return d, nil
}

// MerchantFromText returns the best-effort counterparty named in text, or an
// empty string when none is recognizable.
func MerchantFromText(text string) string {
	for _, re := range merchantPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if name := cleanMerchant(m[1]); name != "" && !accountRe.MatchString(name) {
				return name
			}
		}
	}

	if apayRe.MatchString(text) {
		return "Amazon Pay"
	}

	return ""
}

func findAmount(text string) (decimal.Decimal, string, bool) {
	for _, c := range screen.Currencies {
		for _, re := range c.Patterns {
			m := re.FindStringSubmatch(text)
			if m == nil {
				continue
			}

			amount, err := parseAmount(m[1])
			if err != nil || !amount.IsPositive() {
				continue
			}

			return amount, c.Code, true
		}
	}

	return decimal.Decimal{}, "", false
}

// parseAmount turns a matched number into a decimal. A single comma followed
// by one or two digits is a decimal comma, any other comma groups digits.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if decimalCommaRe.MatchString(s) {
		return decimal.NewFromString(strings.Replace(s, ",", ".", 1))
	}

	return decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
}

func findDate(text string) (time.Time, bool) {
	for _, re := range []*regexp.Regexp{markedDateRe, anyDateRe} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if t, ok := parseDate(m[1]); ok {
				return t, true
			}
		}
	}

	return time.Time{}, false
}

func parseDate(token string) (time.Time, bool) {
	token = strings.TrimSpace(token)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, token); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

func cleanMerchant(s string) string {
	s = separatorRe.ReplaceAllString(strings.TrimSpace(s), " ")
	return strings.Trim(s, " .,;:-")
}

func firstGroup(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}

	return m[1]
}
