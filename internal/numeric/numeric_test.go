package numeric

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseString(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		// Turkish convention
		{"1.234,56", 1234.56},
		{"1.234.567,89", 1234567.89},
		{"1.234", 1234},
		{"1,23", 1.23},
		// Anglo convention
		{"1,234.56", 1234.56},
		{"1,234", 1234},
		{"12.5", 12.5},
		// Currency and sign
		{"₺ 2.500,00", 2500},
		{"2500 TL", 2500},
		{"(100,50)", -100.5},
		{"-1.000", -1000},
		{"- 250", -250},
		// Degenerate input
		{"", 0},
		{"   ", 0},
		{"abc", 0},
		{"NaN", 0},
		{"N/A", 0},
		{"-", 0},
		{"(abc)", 0},
		// Magnitude cap
		{"9999999999999999999", 0},
		// Mixed grouping noise: fraction longer than two digits
		{"1.2345,6789", 123456789},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.InDelta(t, tt.want, ParseString(tt.in), 1e-9)
		})
	}
}

func TestParseScalars(t *testing.T) {
	assert.Equal(t, 42.0, Parse(42))
	assert.Equal(t, 42.5, Parse(42.5))
	assert.Equal(t, 42.0, Parse(int64(42)))
	assert.Equal(t, 1.0, Parse(true))
	assert.Equal(t, 0.0, Parse(false))
	assert.Equal(t, 0.0, Parse(nil))
	assert.Equal(t, 0.0, Parse(struct{}{}))
	assert.Equal(t, 0.0, Parse(1e16))
}

func TestFormat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{5, "5"},
		{999, "999"},
		{1000, "1.000"},
		{1234567, "1.234.567"},
		{-1234567, "-1.234.567"},
		{1234.56, "1.235"},
		{1234.49, "1.234"},
		{-0.4, "0"},
		{-1.5, "-2"}, // half away from zero
		{2.5, "3"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Format(tt.in), "Format(%v)", tt.in)
	}
}

// Formatting then reparsing an integer must give the integer back.
func TestFormatParseRoundTrip(t *testing.T) {
	values := []float64{0, 1, 42, 999, 1000, 54321, 1234567, 999999999999, -7, -1000, -987654321}
	for _, v := range values {
		assert.Equal(t, v, ParseString(Format(v)), "round trip of %v", v)
	}
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "2.500", FormatValue("₺ 2.500,00"))
	assert.Equal(t, "0", FormatValue("garbage"))
	assert.Equal(t, "1.025", FormatValue(1025.4))
}
