package normalizer

import (
	"math"
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var (
	currencyCodePattern = regexp.MustCompile(`(?i)^(EUR|USD|GBP|CHF|BRL)\s*|\s*(EUR|USD|GBP|CHF|BRL)$`)
	amountShapePattern  = regexp.MustCompile(`^\d*(?:[.,]\d+)*$`)
	descSpacePattern    = regexp.MustCompile(`\s+`)
)

// ParseAmount converts a cell into a decimal amount.
// Typed numbers pass through. Text is accepted in both European (1.234,56)
// and American (1,234.56) notation, with currency symbols, spaces and
// apostrophes ignored. "(12.50)" and "12.50-" are negative.
func ParseAmount(v any) (decimal.Decimal, bool) {
	switch val := v.(type) {
	case nil:
		return decimal.Zero, false
	case decimal.Decimal:
		return val, true
	case *decimal.Decimal:
		if val == nil {
			return decimal.Zero, false
		}
		return *val, true
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(val), true
	case float32:
		return ParseAmount(float64(val))
	case int:
		return decimal.NewFromInt(int64(val)), true
	case int64:
		return decimal.NewFromInt(val), true
	case int32:
		return decimal.NewFromInt(int64(val)), true
	case string:
		return parseAmountText(val)
	case []byte:
		return parseAmountText(string(val))
	default:
		return decimal.Zero, false
	}
}

// IsNumericText reports whether s reads as an amount.
func IsNumericText(s string) bool {
	_, ok := parseAmountText(s)
	return ok
}

func parseAmountText(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, false
	}

	s = currencyCodePattern.ReplaceAllString(s, "")
	s = strings.Map(func(r rune) rune {
		switch {
		case unicode.Is(unicode.Sc, r):
			return -1
		case unicode.IsSpace(r), r == '\'', r == '’':
			return -1
		}
		return r
	}, s)
	if s == "" {
		return decimal.Zero, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	switch {
	case strings.HasPrefix(s, "-"):
		negative = !negative
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	case strings.HasSuffix(s, "-"):
		negative = !negative
		s = s[:len(s)-1]
	}

	if s == "" || !amountShapePattern.MatchString(s) {
		return decimal.Zero, false
	}

	normalized, ok := normalizeSeparators(s)
	if !ok {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}

// normalizeSeparators rewrites s so that '.' is the only, decimal, separator.
func normalizeSeparators(s string) (string, bool) {
	commas := strings.Count(s, ",")
	dots := strings.Count(s, ".")

	switch {
	case commas == 0 && dots == 0:
		return s, true

	case commas > 0 && dots > 0:
		// The separator that comes last is the decimal one.
		decimalSep, thousandSep := ",", "."
		if strings.LastIndex(s, ".") > strings.LastIndex(s, ",") {
			decimalSep, thousandSep = ".", ","
		}
		if strings.Count(s, decimalSep) > 1 {
			return "", false
		}
		intPart := s[:strings.LastIndex(s, decimalSep)]
		if !validThousandsGroups(intPart, thousandSep) {
			return "", false
		}
		s = strings.ReplaceAll(s, thousandSep, "")
		return strings.Replace(s, decimalSep, ".", 1), true
	}

	sep := ","
	if dots > 0 {
		sep = "."
	}

	if strings.Count(s, sep) > 1 {
		if !validThousandsGroups(s, sep) {
			return "", false
		}
		return strings.ReplaceAll(s, sep, ""), true
	}

	idx := strings.Index(s, sep)
	intPart, frac := s[:idx], s[idx+1:]
	if len(frac) == 3 && len(intPart) > 0 && len(intPart) <= 3 && strings.TrimLeft(intPart, "0") != "" {
		return intPart + frac, true
	}
	if intPart == "" {
		intPart = "0"
	}
	return intPart + "." + frac, true
}

// validThousandsGroups checks "1.234.567": a leading group of 1-3 digits then
// groups of exactly three.
func validThousandsGroups(s, sep string) bool {
	groups := strings.Split(s, sep)
	if len(groups[0]) == 0 || len(groups[0]) > 3 {
		return false
	}
	for _, g := range groups[1:] {
		if len(g) != 3 {
			return false
		}
	}
	return true
}

// CleanDescription normalizes merchant/description text
func CleanDescription(raw string) string {
	return strings.TrimSpace(descSpacePattern.ReplaceAllString(raw, " "))
}
