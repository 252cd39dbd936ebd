package utils

import (
	"math"
	"strconv"
	"strings"
)

// currencyGlyphs are stripped from monetary cells before parsing.
var currencyGlyphs = []string{"$", "€", "£", "¥", "₺", "USD", "EUR", "TL"}

// ParseAmount normalizes a raw report cell into a float64 amount. Cells come
// in as strings or numbers depending on how the spreadsheet was authored, and
// the strings mix locales ("1.234,56", "1234.56", "1234,56"). Malformed or
// empty cells yield 0 rather than an error so one bad cell never aborts a
// report.
func ParseAmount(raw interface{}) float64 {
	switch v := raw.(type) {
	case nil:
		return 0
	case float64:
		return finiteOrZero(v)
	case float32:
		return finiteOrZero(float64(v))
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		return parseAmountString(v)
	default:
		return 0
	}
}

func parseAmountString(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	for _, glyph := range currencyGlyphs {
		s = strings.ReplaceAll(s, glyph, "")
	}
	s = strings.TrimSpace(s)

	hasDot := strings.Contains(s, ".")
	hasComma := strings.Contains(s, ",")

	switch {
	case hasDot && hasComma:
		// European format: "." is the thousands separator, "," the decimal.
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case hasComma:
		s = strings.ReplaceAll(s, ",", ".")
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return finiteOrZero(value)
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// ParseCell returns the string form of a raw cell, trimmed. Covers every
// numeric shape ParseAmount accepts so a numeric marker is never read as an
// empty cell. Used by presence-mode milestone detection.
func ParseCell(raw interface{}) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return ""
	}
}

// RoundCents rounds an amount to cent precision. Internal math stays in full
// precision; rounding is applied only when amounts are persisted or shown.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
