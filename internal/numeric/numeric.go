// Package numeric converts locale-formatted cell values to canonical numbers
// and back. Turkish exports mix "." and "," conventions freely, sometimes
// inside the same sheet, so parsing is total: any value that cannot be
// understood yields 0 rather than an error. Millions of cells flow through
// Parse on every run and a noisy cell must never abort an analysis.
package numeric

import (
	"math"
	"strconv"
	"strings"
)

// maxMagnitude caps accepted values; anything larger is treated as noise.
const maxMagnitude = 1e15

var currencyTokens = []string{"₺", "TL", "$", "€", "£", "¥", "₽"}

var nanTokens = map[string]struct{}{
	"nan":  {},
	"none": {},
	"null": {},
	"nil":  {},
	"-":    {},
	"n/a":  {},
	"#n/a": {},
}

// Parse converts an arbitrary scalar to a float64. It never fails; blank,
// malformed or absurd values come back as 0.
func Parse(value interface{}) float64 {
	switch v := value.(type) {
	case nil:
		return 0
	case float64:
		return capped(v)
	case float32:
		return capped(float64(v))
	case int:
		return capped(float64(v))
	case int32:
		return capped(float64(v))
	case int64:
		return capped(float64(v))
	case bool:
		if v {
			return 1
		}
		return 0
	case string:
		return ParseString(v)
	default:
		return 0
	}
}

// ParseString converts a locale-formatted string to a float64.
func ParseString(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if _, ok := nanTokens[strings.ToLower(s)]; ok {
		return 0
	}

	// Currency symbols carry no numeric information.
	for _, tok := range currencyTokens {
		s = strings.ReplaceAll(s, tok, "")
		s = strings.ReplaceAll(s, strings.ToLower(tok), "")
	}
	s = strings.TrimSpace(s)

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if strings.HasPrefix(s, "-") {
		negative = true
		s = strings.TrimSpace(strings.TrimPrefix(s, "-"))
	}
	s = strings.ReplaceAll(s, " ", "")

	s = normalizeSeparators(s)

	// Anything left besides digits and the decimal point is noise.
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" || cleaned == "." {
		return 0
	}

	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	if math.Abs(parsed) > maxMagnitude {
		return 0
	}
	if negative {
		parsed = -parsed
	}
	return parsed
}

// normalizeSeparators resolves the "." / "," ambiguity. When both appear the
// rightmost one is the decimal mark unless its fractional part looks like a
// grouping triplet, in which case both are grouping noise.
func normalizeSeparators(s string) string {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		decIdx := lastDot
		if lastComma > lastDot {
			decIdx = lastComma
		}
		frac := s[decIdx+1:]
		if len(frac) > 2 || !allDigits(frac) {
			// Grouping noise on both sides.
			s = strings.ReplaceAll(s, ".", "")
			return strings.ReplaceAll(s, ",", "")
		}
		intPart := strings.ReplaceAll(s[:decIdx], ".", "")
		intPart = strings.ReplaceAll(intPart, ",", "")
		return intPart + "." + frac

	case lastComma >= 0:
		frac := s[lastComma+1:]
		if strings.Count(s, ",") == 1 && len(frac) <= 2 && allDigits(frac) {
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")

	case lastDot >= 0:
		frac := s[lastDot+1:]
		if strings.Count(s, ".") == 1 && len(frac) <= 2 && allDigits(frac) {
			return s
		}
		return strings.ReplaceAll(s, ".", "")
	}
	return s
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func capped(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > maxMagnitude {
		return 0
	}
	return v
}

// Format renders a number as a Turkish display integer: rounded half away
// from zero, "." as the thousands separator, no decimal part.
func Format(v float64) string {
	rounded := int64(math.Round(math.Abs(v)))
	digits := strconv.FormatInt(rounded, 10)

	var groups []string
	for len(digits) > 3 {
		groups = append([]string{digits[len(digits)-3:]}, groups...)
		digits = digits[:len(digits)-3]
	}
	groups = append([]string{digits}, groups...)

	out := strings.Join(groups, ".")
	if v < 0 && rounded != 0 {
		return "-" + out
	}
	return out
}

// FormatValue parses value with Parse and renders it with Format.
func FormatValue(value interface{}) string {
	return Format(Parse(value))
}
