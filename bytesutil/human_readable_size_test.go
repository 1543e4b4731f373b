package bytesutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormats(t *testing.T) {
	tests := map[int64][2]string{
		-1:                  {"", ""},
		0:                   {"0 B", "0 B"},
		1023:                {"1023 B", "1.02 KB"},
		2140:                {"2.09 KiB", "2.14 KB"},
		2828382:             {"2.70 MiB", "2.83 MB"},
		2341234123412341234: {"2.03 EiB", "2.34 EB"},
	}
	for value, expectedValues := range tests {
		assert.Equal(t, expectedValues[0], BinaryFormat(value), value)
		assert.Equal(t, expectedValues[1], DecimalFormat(value), value)
	}
}

func TestParseSize(t *testing.T) {
	tests := map[string]int64{
		"0":       0,
		"512":     512,
		"512 B":   512,
		"16KiB":   16 * KIBI,
		"16k":     16 * KIBI,
		"1.5 MB":  1500000,
		"2g":      2 * GIBI,
		" 3 TiB ": 3 * TEBI,
	}
	for s, expected := range tests {
		actual, err := ParseSize(s)
		require.NoError(t, err, s)
		assert.Equal(t, expected, actual, s)
	}
	for _, s := range []string{"", "KiB", "12 parsecs", "-1", "1..2", "99999 EiB"} {
		_, err := ParseSize(s)
		assert.Error(t, err, s)
	}
}
