package bytesutil

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	KILO int64 = 1000        // 1000 power 1 (10 power 3)
	KIBI int64 = 1024        // 1024 power 1 (2 power 10)
	MEGA       = KILO * KILO // 1000 power 2 (10 power 6)
	MEBI       = KIBI * KIBI // 1024 power 2 (2 power 20)
	GIGA       = MEGA * KILO // 1000 power 3 (10 power 9)
	GIBI       = MEBI * KIBI // 1024 power 3 (2 power 30)
	TERA       = GIGA * KILO // 1000 power 4 (10 power 12)
	TEBI       = GIBI * KIBI // 1024 power 4 (2 power 40)
	PETA       = TERA * KILO // 1000 power 5 (10 power 15)
	PEBI       = TEBI * KIBI // 1024 power 5 (2 power 50)
	EXA        = PETA * KILO // 1000 power 6 (10 power 18)
	EXBI       = PEBI * KIBI // 1024 power 6 (2 power 60)
)

type unit struct {
	size   int64
	symbol string
}

// ascending, so formatting picks the last unit not larger than the value
var (
	binaryUnits  = []unit{{KIBI, "KiB"}, {MEBI, "MiB"}, {GIBI, "GiB"}, {TEBI, "TiB"}, {PEBI, "PiB"}, {EXBI, "EiB"}}
	decimalUnits = []unit{{KILO, "KB"}, {MEGA, "MB"}, {GIGA, "GB"}, {TERA, "TB"}, {PETA, "PB"}, {EXA, "EB"}}
)

func format(size int64, units []unit) string {
	if size < 0 {
		return ""
	}
	if size < units[0].size {
		return fmt.Sprintf("%d B", size)
	}
	u := units[0]
	for _, candidate := range units[1:] {
		if size < candidate.size {
			break
		}
		u = candidate
	}
	return fmt.Sprintf("%.2f %s", float64(size)/float64(u.size), u.symbol)
}

// BinaryFormat renders size with 1024-based units, e.g. "2.09 KiB". Negative sizes render as "".
func BinaryFormat(size int64) string {
	return format(size, binaryUnits)
}

// DecimalFormat renders size with 1000-based units, e.g. "2.14 KB". Negative sizes render as "".
func DecimalFormat(size int64) string {
	return format(size, decimalUnits)
}

// ParseSize reads sizes such as "512", "16KiB", "1.5 MB" or "2g" (single letters are binary units)
func ParseSize(s string) (int64, error) {
	trimmed := strings.TrimSpace(s)
	i := 0
	for i < len(trimmed) && (trimmed[i] >= '0' && trimmed[i] <= '9' || trimmed[i] == '.') {
		i++
	}
	number, symbol := trimmed[:i], strings.TrimSpace(trimmed[i:])
	value, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	multiplier, ok := multiplierOf(symbol)
	if !ok {
		return 0, fmt.Errorf("invalid size unit %q in %q", symbol, s)
	}
	bytes := value * float64(multiplier)
	if bytes >= math.MaxInt64 {
		return 0, fmt.Errorf("size %q is too large", s)
	}
	return int64(bytes), nil
}

func multiplierOf(symbol string) (int64, bool) {
	switch strings.ToLower(symbol) {
	case "", "b":
		return 1, true
	case "k":
		return KIBI, true
	case "m":
		return MEBI, true
	case "g":
		return GIBI, true
	case "t":
		return TEBI, true
	}
	for _, units := range [][]unit{binaryUnits, decimalUnits} {
		for _, u := range units {
			if strings.EqualFold(symbol, u.symbol) {
				return u.size, true
			}
		}
	}
	return 0, false
}
