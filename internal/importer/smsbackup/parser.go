package smsbackup

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	enc "github.com/MrJamesThe3rd/smsledger/internal/encoding"
	"github.com/MrJamesThe3rd/smsledger/internal/ingest"
)

var ErrUnknownFormat = errors.New("no matching SMS export format found: expected address,body,date or sender,message,date")

// Parser reads CSV exports of a phone inbox. The layout is detected from the
// header row.
type Parser struct {
	loc *time.Location
}

// NewParser returns a parser reading formatted dates in loc.
func NewParser(loc *time.Location) *Parser {
	if loc == nil {
		loc = time.UTC
	}

	return &Parser{loc: loc}
}

func (p *Parser) Parse(r io.Reader) ([]ingest.Message, error) {
	utf8r, _, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	reader := csv.NewReader(utf8r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	profile, cols, headerIdx := detectProfile(rows)
	if profile == nil {
		return nil, ErrUnknownFormat
	}

	return p.parseRows(profile, cols, rows[headerIdx+1:]), nil
}

type colIndex map[string]int

func detectProfile(rows [][]string) (*Profile, colIndex, int) {
	for rowIdx, row := range rows {
		cols := make(colIndex)

		for i, cell := range row {
			name := strings.ToLower(strings.TrimSpace(cell))
			if name != "" {
				cols[name] = i
			}
		}

		for i := range profiles {
			if matchesProfile(&profiles[i], cols) {
				return &profiles[i], cols, rowIdx
			}
		}
	}

	return nil, nil, 0
}

func matchesProfile(p *Profile, cols colIndex) bool {
	for _, name := range p.requiredCols() {
		if _, ok := cols[name]; !ok {
			return false
		}
	}

	return true
}

// parseRows skips rows that are not received text messages: sent items,
// MMS rows without a body and rows whose date cannot be read.
func (p *Parser) parseRows(profile *Profile, cols colIndex, rows [][]string) []ingest.Message {
	var msgs []ingest.Message

	for _, row := range rows {
		if profile.KindCol != "" {
			if idx, ok := cols[profile.KindCol]; ok {
				if kind := cellValue(row, idx); kind != "" && kind != InboxKind {
					continue
				}
			}
		}

		body := cellValue(row, cols[profile.BodyCol])
		if body == "" {
			continue
		}

		receivedAt, ok := p.parseDate(profile, cellValue(row, cols[profile.DateCol]))
		if !ok {
			continue
		}

		msgs = append(msgs, ingest.Message{
			Sender:     cellValue(row, cols[profile.SenderCol]),
			Body:       body,
			ReceivedAt: receivedAt,
		})
	}

	return msgs
}

func (p *Parser) parseDate(profile *Profile, s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}

	switch profile.DateMode {
	case dateEpochMillis:
		ms, err := strconv.ParseInt(s, 10, 64)
		if err != nil || ms <= 0 {
			return time.Time{}, false
		}

		return time.UnixMilli(ms).In(p.loc), true
	case dateLayout:
		for _, layout := range dateLayouts {
			if t, err := time.ParseInLocation(layout, s, p.loc); err == nil {
				return t, true
			}
		}
	}

	return time.Time{}, false
}

func cellValue(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
