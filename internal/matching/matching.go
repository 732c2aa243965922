package matching

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// MinPatternLength keeps very short templates from matching most messages.
const MinPatternLength = 8

var (
	ErrPatternTooShort = errors.New("pattern too short")
	ErrInvalidPattern  = errors.New("invalid pattern")
)

var digitsRe = regexp.MustCompile(`\d+`)

// Pattern associates a message template with a merchant and category.
type Pattern struct {
	ID         int64
	UserID     string
	RawPattern string
	Merchant   string
	Category   string
	CreatedAt  time.Time
}

type Match struct {
	Merchant string
	Category string
}

// Template reduces a message to the text that stays stable between two
// notifications of the same kind: lower case, every digit run replaced by
// "#", whitespace collapsed.
func Template(message string) string {
	t := digitsRe.ReplaceAllString(strings.ToLower(message), "#")
	return strings.Join(strings.Fields(t), " ")
}
