package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/smsledger/internal/llm"
)

const DefaultLLMTimeout = 12 * time.Second

var llmDateLayouts = []string{"2006-01-02", "02/01/2006", "02-01-2006"}

var currencyAliases = map[string]string{
	"₹":      "INR",
	"RS":     "INR",
	"RS.":    "INR",
	"RUPEE":  "INR",
	"RUPEES": "INR",
	"$":      "USD",
	"€":      "EUR",
	"£":      "GBP",
}

type llmResponse struct {
	Amount          json.RawMessage `json:"amount"`
	Merchant        *string         `json:"merchant"`
	Date            *string         `json:"date"`
	Currency        *string         `json:"currency"`
	ReferenceNumber *string         `json:"referenceNumber"`
	Description     *string         `json:"description"`
}

// LLMExtractor asks a language model for the details. Every call is bounded
// by its timeout; expiry is reported as ErrUnavailable.
type LLMExtractor struct {
	client       llm.Client
	timeout      time.Duration
	homeCurrency string
	now          func() time.Time
}

func NewLLMExtractor(client llm.Client, timeout time.Duration, homeCurrency string) *LLMExtractor {
	if timeout <= 0 {
		timeout = DefaultLLMTimeout
	}

	if homeCurrency == "" {
		homeCurrency = DefaultCurrency
	}

	return &LLMExtractor{
		client:       client,
		timeout:      timeout,
		homeCurrency: homeCurrency,
		now:          time.Now,
	}
}

func (e *LLMExtractor) Name() string { return "llm" }

func (e *LLMExtractor) Extract(ctx context.Context, text string) (Details, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	raw, err := e.client.Generate(ctx, buildPrompt(text))
	if err != nil {
		return Details{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	return e.parse(raw)
}

func (e *LLMExtractor) parse(raw string) (Details, error) {
	body := extractJSON(raw)
	if body == "" {
		return Details{}, fmt.Errorf("%w: no JSON object in response", ErrMalformed)
	}

	var resp llmResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		return Details{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	amount, ok := parseLLMAmount(resp.Amount)
	if !ok {
		return Details{}, ErrNoAmount
	}

	d := Details{
		Amount:          amount,
		Merchant:        UnknownMerchant,
		Category:        Uncategorized,
		Currency:        e.homeCurrency,
		ReferenceNumber: str(resp.ReferenceNumber),
		Description:     str(resp.Description),
		Date:            e.now(),
	}

	if m := cleanMerchant(str(resp.Merchant)); m != "" && !strings.EqualFold(m, "unknown") {
		d.Merchant = m
	}

	if c := normalizeCurrency(str(resp.Currency)); c != "" {
		d.Currency = c
	}

	if date, ok := parseLLMDate(str(resp.Date)); ok {
		d.Date = date
		d.DateOnly = true
	}

	return d, nil
}

func extractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return ""
	}

	return text[start : end+1]
}

// parseLLMAmount accepts a JSON number (including exponent forms) or a string
// such as "1,500.00", "15,00" or "Rs. 250". Zero and null amounts are
// rejected and a sign is dropped.
func parseLLMAmount(raw json.RawMessage) (decimal.Decimal, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return decimal.Decimal{}, false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		s = string(raw)
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		s = strings.Map(func(r rune) rune {
			if (r >= '0' && r <= '9') || r == '.' || r == ',' || r == '-' {
				return r
			}

			return -1
		}, s)

		if amount, err = parseAmount(strings.Trim(s, ".,")); err != nil {
			return decimal.Decimal{}, false
		}
	}

	amount = amount.Abs()
	if amount.IsZero() {
		return decimal.Decimal{}, false
	}

	return amount, true
}

func parseLLMDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range llmDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

func normalizeCurrency(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if alias, ok := currencyAliases[s]; ok {
		return alias
	}

	if len(s) != 3 {
		return ""
	}

	return s
}

func str(p *string) string {
	if p == nil {
		return ""
	}

	return strings.TrimSpace(*p)
}
