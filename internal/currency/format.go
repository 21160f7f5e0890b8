package currency

import (
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Placeholder is rendered for missing or non-finite values.
const Placeholder = "—"

// FormatCurrency renders an amount that is already in currency code.
//
// JPY and amounts of 1000 or more get no fraction digits, amounts of 1 or
// more get two, and smaller amounts get four to six with trailing zeros
// trimmed back to four.
func FormatCurrency(value float64, code string) string {
	if !finite(value) {
		return Placeholder
	}

	abs := math.Abs(value)
	var body string
	switch {
	case code == JPY || abs >= 1000:
		body = group(abs, 0, 0)
	case abs >= 1:
		body = group(abs, 2, 2)
	default:
		body = group(abs, 4, 6)
	}

	return sign(value, body) + Symbol(code) + body
}

// FormatUSD renders a USD amount with two fraction digits, e.g. "$1,234.56".
func FormatUSD(value *float64) string {
	if value == nil || !finite(*value) {
		return Placeholder
	}
	body := group(math.Abs(*value), 2, 2)
	return sign(*value, body) + "$" + body
}

// FormatPercent renders a percentage with two fraction digits, e.g. "5.25%".
func FormatPercent(value *float64) string {
	if value == nil || !finite(*value) {
		return Placeholder
	}
	body := group(math.Abs(*value), 2, 2)
	return sign(*value, body) + body + "%"
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// sign returns "-" for negative values that do not round to zero.
func sign(value float64, body string) string {
	if value >= 0 || strings.Trim(body, "0.,") == "" {
		return ""
	}
	return "-"
}

// group rounds a non-negative value to maxDigits, trims trailing zeros down
// to minDigits and inserts thousands separators.
func group(abs float64, minDigits, maxDigits int) string {
	fixed := decimal.NewFromFloat(abs).StringFixed(int32(maxDigits))

	intPart, frac, _ := strings.Cut(fixed, ".")
	for len(frac) > minDigits && strings.HasSuffix(frac, "0") {
		frac = frac[:len(frac)-1]
	}

	whole, err := decimal.NewFromString(intPart)
	if err != nil {
		return fixed
	}
	out := humanize.BigComma(whole.BigInt())

	if frac != "" {
		out += "." + frac
	}
	return out
}
