package encoding

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	xencoding "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Charset names reported by NewUTF8Reader.
const (
	UTF8        = "UTF-8"
	UTF16LE     = "UTF-16LE"
	UTF16BE     = "UTF-16BE"
	Windows1252 = "windows-1252"
)

const sampleSize = 4096

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// decoders maps chardet charset names to the decoder used for them.
// Phone exports are mostly UTF-8 or UTF-16; the single-byte sets come from
// spreadsheets re-saving the file.
var decoders = map[string]xencoding.Encoding{
	UTF16LE:      unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM),
	UTF16BE:      unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM),
	Windows1252:  charmap.Windows1252,
	"ISO-8859-1": charmap.Windows1252,
	"ISO-8859-9": charmap.ISO8859_9,
}

// NewUTF8Reader returns r decoded to UTF-8 together with the charset it was
// read as. A BOM wins over detection; unrecognised input is read as
// Windows-1252.
func NewUTF8Reader(r io.Reader) (io.Reader, string, error) {
	br := bufio.NewReaderSize(r, sampleSize)

	sample, err := br.Peek(sampleSize)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, "", fmt.Errorf("peek: %w", err)
	}

	switch {
	case bytes.HasPrefix(sample, bomUTF8):
		_, _ = br.Discard(len(bomUTF8))
		return br, UTF8, nil
	case bytes.HasPrefix(sample, bomUTF16LE):
		_, _ = br.Discard(len(bomUTF16LE))
		return decode(br, UTF16LE), UTF16LE, nil
	case bytes.HasPrefix(sample, bomUTF16BE):
		_, _ = br.Discard(len(bomUTF16BE))
		return decode(br, UTF16BE), UTF16BE, nil
	}

	if validUTF8(sample, len(sample) == sampleSize) {
		return br, UTF8, nil
	}

	if result, err := chardet.NewTextDetector().DetectBest(sample); err == nil {
		if result.Charset == UTF8 {
			return br, UTF8, nil
		}

		if _, ok := decoders[result.Charset]; ok {
			return decode(br, result.Charset), result.Charset, nil
		}
	}

	return decode(br, Windows1252), Windows1252, nil
}

func decode(r io.Reader, charset string) io.Reader {
	return transform.NewReader(r, decoders[charset].NewDecoder())
}

// validUTF8 reports whether sample is UTF-8. When the sample was cut at the
// peek limit, a trailing partial rune is ignored.
func validUTF8(sample []byte, truncated bool) bool {
	if truncated {
		for range utf8.UTFMax - 1 {
			if len(sample) == 0 || utf8.FullRune(sample[lastRuneStart(sample):]) {
				break
			}

			sample = sample[:lastRuneStart(sample)]
		}
	}

	return utf8.Valid(sample)
}

func lastRuneStart(b []byte) int {
	i := len(b) - 1
	for i > 0 && !utf8.RuneStart(b[i]) {
		i--
	}

	return i
}
