package currency

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr(v float64) *float64 { return &v }

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		code  string
		want  string
	}{
		{name: "usd-two-digits", value: 12.5, code: USD, want: "$12.50"},
		{name: "thousands-no-fraction", value: 1234.56, code: USD, want: "$1,235"},
		{name: "millions", value: 2500000, code: EUR, want: "€2,500,000"},
		{name: "jpy-no-fraction", value: 149.5, code: JPY, want: "¥150"},
		{name: "jpy-small", value: 0.37, code: JPY, want: "¥0"},
		{name: "sub-one-min-four", value: 0.5, code: USD, want: "$0.5000"},
		{name: "sub-one-max-six", value: 0.00012345, code: USD, want: "$0.000123"},
		{name: "sub-one-trims-to-five", value: 0.12345, code: GBP, want: "£0.12345"},
		{name: "negative", value: -42.1, code: USD, want: "-$42.10"},
		{name: "negative-rounds-to-zero", value: -0.0000001, code: USD, want: "$0.0000"},
		{name: "prefix-with-space", value: 10, code: CHF, want: "CHF 10.00"},
		{name: "inr", value: 8320, code: INR, want: "₹8,320"},
		{name: "beyond-int64", value: 1e20, code: USD, want: "$100,000,000,000,000,000,000"},
		{name: "nan", value: math.NaN(), code: USD, want: Placeholder},
		{name: "inf", value: math.Inf(1), code: USD, want: Placeholder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCurrency(tt.value, tt.code))
		})
	}
}

func TestFormatUSD(t *testing.T) {
	assert.Equal(t, "$1,234.56", FormatUSD(ptr(1234.56)))
	assert.Equal(t, "$0.00", FormatUSD(ptr(0)))
	assert.Equal(t, "-$7.25", FormatUSD(ptr(-7.25)))
	assert.Equal(t, "$1,000,000.00", FormatUSD(ptr(1e6)))
	assert.Equal(t, "$100,000,000,000,000,000,000.00", FormatUSD(ptr(1e20)))
	assert.Equal(t, Placeholder, FormatUSD(nil))
	assert.Equal(t, Placeholder, FormatUSD(ptr(math.NaN())))
	assert.Equal(t, Placeholder, FormatUSD(ptr(math.Inf(-1))))
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "5.25%", FormatPercent(ptr(5.25)))
	assert.Equal(t, "0.10%", FormatPercent(ptr(0.1)))
	assert.Equal(t, "-3.00%", FormatPercent(ptr(-3)))
	assert.Equal(t, "1,250.00%", FormatPercent(ptr(1250)))
	assert.Equal(t, Placeholder, FormatPercent(nil))
	assert.Equal(t, Placeholder, FormatPercent(ptr(math.NaN())))
}

func TestParseCode(t *testing.T) {
	code, err := ParseCode(" eur ")
	assert.NoError(t, err)
	assert.Equal(t, EUR, code)

	code, err = ParseCode("")
	assert.NoError(t, err)
	assert.Equal(t, USD, code)

	_, err = ParseCode("BTC")
	assert.Error(t, err)
}
