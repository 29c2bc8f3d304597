// Package normalizer handles regional money and date parsing.
// Converts the cells of arbitrary bank statement exports into calendar dates,
// decimal amounts and cleaned descriptions.
package normalizer

import (
	"math"
	"strings"
	"time"
)

// Spreadsheet serial dates: day 25569 is 1970-01-01.
const (
	serialUnixOffset = 25569
	serialMin        = 1
	serialMax        = 100000
)

// dateLayouts is the fixed catalogue, tried in order. Day-first layouts come
// before month-first ones, so an ambiguous 01/02/2024 reads as 1 February
// unless a parser declares a preferred layout.
var dateLayouts = []string{
	// ISO
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",

	// Day first, 4-digit year
	"2/1/2006",
	"2-1-2006",
	"2.1.2006",

	// Month first, 4-digit year
	"1/2/2006",
	"1-2-2006",
	"1.2.2006",

	// Day first, 2-digit year
	"2/1/06",
	"2-1-06",
	"2.1.06",

	// Month first, 2-digit year
	"1/2/06",
	"1-2-06",
	"1.2.06",

	// Year first, 2-digit year
	"06/01/02",
	"06-01-02",
	"06.01.02",

	// Without separators
	"02012006",
	"20060102",
	"01022006",
	"020106",
	"060102",
	"010206",
}

// fallbackLayouts are the last-resort shapes: timestamps and month names.
var fallbackLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2 Jan 2006",
	"02 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2-Jan-2006",
	"2-Jan-06",
	"Mon, 2 Jan 2006",
}

// Layouts returns a copy of the date layout catalogue in priority order.
func Layouts() []string {
	out := make([]string, len(dateLayouts))
	copy(out, dateLayouts)
	return out
}

// DateParser parses cell values into dates. The zero value uses the catalogue
// only; Preferred, when set, is tried before the catalogue.
type DateParser struct {
	Preferred string
}

// ParseDate parses v with the default catalogue.
func ParseDate(v any) (time.Time, bool) {
	return DateParser{}.Parse(v)
}

// Parse converts a typed date, a spreadsheet serial number or text into a
// calendar date at midnight UTC. Text is never read as a serial number.
func (p DateParser) Parse(v any) (time.Time, bool) {
	switch val := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if val.IsZero() {
			return time.Time{}, false
		}
		return truncateToDay(val), true
	case *time.Time:
		if val == nil {
			return time.Time{}, false
		}
		return p.Parse(*val)
	case float64:
		return FromSerial(val)
	case float32:
		return FromSerial(float64(val))
	case int:
		return FromSerial(float64(val))
	case int64:
		return FromSerial(float64(val))
	case int32:
		return FromSerial(float64(val))
	case string:
		return p.ParseString(val)
	case []byte:
		return p.ParseString(string(val))
	default:
		return time.Time{}, false
	}
}

// ParseString parses text against the preferred layout, the catalogue, and
// finally the fallback layouts.
func (p DateParser) ParseString(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}

	if p.Preferred != "" {
		if t, err := time.Parse(p.Preferred, s); err == nil {
			return truncateToDay(t), true
		}
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return truncateToDay(t), true
		}
	}

	return time.Time{}, false
}

// FromSerial converts a legacy spreadsheet day count into a date. Only
// values in [1, 100000] are considered; any time-of-day fraction is dropped.
func FromSerial(serial float64) (time.Time, bool) {
	if math.IsNaN(serial) || serial < serialMin || serial > serialMax {
		return time.Time{}, false
	}
	days := int64(math.Floor(serial)) - serialUnixOffset
	return time.Unix(days*86400, 0).UTC(), true
}

// ToSerial is the inverse of FromSerial.
func ToSerial(t time.Time) float64 {
	d := truncateToDay(t)
	return float64(d.Unix()/86400 + serialUnixOffset)
}

// CompactDate renders a date as YYYYMMDD.
func CompactDate(t time.Time) string {
	return t.Format("20060102")
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
