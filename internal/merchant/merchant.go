package merchant

import (
	"errors"
	"strings"
	"time"
)

// GlobalScope holds mappings that apply to every user.
const GlobalScope = ""

var (
	ErrNotFound       = errors.New("merchant mapping not found")
	ErrInvalidMapping = errors.New("invalid merchant mapping")
)

// Mapping is a remembered merchant to category association.
type Mapping struct {
	UserID    string
	Merchant  string
	Category  string
	UpdatedAt time.Time
}

// Normalize trims, collapses whitespace and lower-cases a merchant name so
// that "SWIGGY " and "swiggy" share one entry.
func Normalize(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
