// Package extraction turns the text of a bank SMS into structured
// transaction details.
package extraction

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

const (
	UnknownMerchant = "Unknown Merchant"
	Uncategorized   = "Uncategorized"
	DefaultCurrency = "INR"
)

var (
	ErrNoAmount         = errors.New("no amount found")
	ErrUnavailable      = errors.New("extractor unavailable")
	ErrMalformed        = errors.New("malformed extractor response")
	ErrExtractionFailed = errors.New("extraction failed")
)

// Details is the result of extracting one message. Amount is always set.
type Details struct {
	Amount          decimal.Decimal
	Merchant        string
	Date            time.Time
	Category        string
	Currency        string
	ReferenceNumber string
	Description     string

	// DateOnly is true when Date came from the text and carries no time of day.
	DateOnly bool
}

// AmountMinor returns the amount in minor units (cents, paise).
func (d Details) AmountMinor() int64 {
	return d.Amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func (d Details) HasMerchant() bool {
	return d.Merchant != "" && d.Merchant != UnknownMerchant
}

func (d Details) HasCategory() bool {
	return d.Category != "" && d.Category != Uncategorized
}

type Extractor interface {
	Name() string
	Extract(ctx context.Context, text string) (Details, error)
}
