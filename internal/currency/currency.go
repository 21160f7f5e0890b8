// Package currency converts USD amounts into display currencies and formats
// them. Rates come from a public exchange-rate API, cached on disk for 12h,
// with hardcoded fallback rates when the API is unreachable.
package currency

import (
	"fmt"
	"strings"
)

// Supported currency codes.
const (
	USD = "USD"
	EUR = "EUR"
	GBP = "GBP"
	JPY = "JPY"
	CAD = "CAD"
	AUD = "AUD"
	CHF = "CHF"
	CNY = "CNY"
	INR = "INR"
)

// Supported lists the display currencies in menu order.
var Supported = []string{USD, EUR, GBP, JPY, CAD, AUD, CHF, CNY, INR}

var symbols = map[string]string{
	USD: "$",
	EUR: "€",
	GBP: "£",
	JPY: "¥",
	CAD: "CA$",
	AUD: "A$",
	CHF: "CHF ",
	CNY: "CN¥",
	INR: "₹",
}

// Approximate USD-based rates, used when the rates API cannot be reached.
var fallbackRates = map[string]float64{
	USD: 1,
	EUR: 0.92,
	GBP: 0.79,
	JPY: 149.5,
	CAD: 1.36,
	AUD: 1.52,
	CHF: 0.88,
	CNY: 7.24,
	INR: 83.2,
}

// FallbackRates returns a copy of the hardcoded rates.
func FallbackRates() map[string]float64 {
	out := make(map[string]float64, len(fallbackRates))
	for code, rate := range fallbackRates {
		out[code] = rate
	}
	return out
}

// IsSupported reports whether code is a supported currency.
func IsSupported(code string) bool {
	_, ok := symbols[code]
	return ok
}

// ParseCode normalizes and validates a currency code. Empty means USD.
func ParseCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return USD, nil
	}
	if !IsSupported(code) {
		return "", fmt.Errorf("unsupported currency %q", code)
	}
	return code, nil
}

// Symbol returns the display prefix of a currency. Unknown codes use the code
// followed by a space.
func Symbol(code string) string {
	if s, ok := symbols[code]; ok {
		return s
	}
	return code + " "
}
