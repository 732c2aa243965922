package encoding_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"

	"github.com/MrJamesThe3rd/smsledger/internal/encoding"
)

func readAll(t *testing.T, input []byte) (string, string) {
	t.Helper()

	r, charset, err := encoding.NewUTF8Reader(bytes.NewReader(input))
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)

	return string(got), charset
}

func utf16(t *testing.T, endian unicode.Endianness, bom unicode.BOMPolicy, s string) []byte {
	t.Helper()

	b, err := unicode.UTF16(endian, bom).NewEncoder().Bytes([]byte(s))
	require.NoError(t, err)

	return b
}

func TestNewUTF8Reader(t *testing.T) {
	const csv = "address,body,date\nVM-HDFCBK,₹499 debited at Café Coffee Day,1711611910000\n"

	type testCase struct {
		name        string
		input       []byte
		want        string
		wantCharset string
	}

	tests := []testCase{
		{
			name:        "utf-8 passes through",
			input:       []byte(csv),
			want:        csv,
			wantCharset: encoding.UTF8,
		},
		{
			name:        "utf-8 bom is stripped",
			input:       append([]byte{0xEF, 0xBB, 0xBF}, csv...),
			want:        csv,
			wantCharset: encoding.UTF8,
		},
		{
			name:        "utf-16le with bom",
			input:       utf16(t, unicode.LittleEndian, unicode.UseBOM, csv),
			want:        csv,
			wantCharset: encoding.UTF16LE,
		},
		{
			name:        "utf-16be with bom",
			input:       utf16(t, unicode.BigEndian, unicode.UseBOM, csv),
			want:        csv,
			wantCharset: encoding.UTF16BE,
		},
		{
			name: "single-byte latin",
			// "Café;Rs 20" with é = 0xE9
			input: []byte{'C', 'a', 'f', 0xE9, ';', 'R', 's', ' ', '2', '0', '\n'},
			want: "Café;Rs 20\n",
		},
		{
			name:        "empty input",
			input:       nil,
			want:        "",
			wantCharset: encoding.UTF8,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, charset := readAll(t, tc.input)
			assert.Equal(t, tc.want, got)

			if tc.wantCharset != "" {
				assert.Equal(t, tc.wantCharset, charset)
			} else {
				assert.NotEqual(t, encoding.UTF8, charset)
			}
		})
	}
}

func TestNewUTF8Reader_RuneAcrossSampleBoundary(t *testing.T) {
	// Place a three-byte ₹ so that it straddles the detection sample.
	input := strings.Repeat("a", 4095) + "₹ debited\n"

	got, charset := readAll(t, []byte(input))
	assert.Equal(t, input, got)
	assert.Equal(t, encoding.UTF8, charset)
}
