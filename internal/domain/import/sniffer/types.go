// Package sniffer detects the structure of tabular bank statement exports.
// It locates the first genuine data row, names the columns and profiles each
// one (date, number or text, sign distribution, monotonicity) so the role
// mapper can decide what every column means.
package sniffer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RawTable is the content of one sheet or delimited file: rows of opaque cell
// values (string, float64, time.Time or nil). Rows may have different lengths.
type RawTable [][]any

// Cell returns the value at row/col, or nil when the row is too short.
func (t RawTable) Cell(row, col int) any {
	if row < 0 || row >= len(t) || col < 0 || col >= len(t[row]) {
		return nil
	}
	return t[row][col]
}

// ColumnType is the inferred kind of a column.
type ColumnType int

const (
	TypeUnknown ColumnType = iota
	TypeDate
	TypeNumber
	TypeText
)

func (c ColumnType) String() string {
	switch c {
	case TypeDate:
		return "date"
	case TypeNumber:
		return "number"
	case TypeText:
		return "text"
	default:
		return "unknown"
	}
}

// MarshalText renders the type by name in JSON output.
func (c ColumnType) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// ColumnProfile describes one column of the data region.
type ColumnProfile struct {
	Index        int        `json:"index"`
	DisplayName  string     `json:"display_name"`
	InferredType ColumnType `json:"inferred_type"`
	SampleValues []string   `json:"sample_values"`
	HasNegative  bool       `json:"has_negative"`
	HasPositive  bool       `json:"has_positive"`
	IsMonotonic  bool       `json:"is_monotonic"`
}

// AverageSampleLength is the mean rune length of the kept samples.
func (p ColumnProfile) AverageSampleLength() float64 {
	if len(p.SampleValues) == 0 {
		return 0
	}
	total := 0
	for _, s := range p.SampleValues {
		total += len([]rune(s))
	}
	return float64(total) / float64(len(p.SampleValues))
}

// FileStructure is the structural description of a RawTable.
type FileStructure struct {
	HeaderRowIndex    int             `json:"header_row_index"` // -1 if none
	DataStartRowIndex int             `json:"data_start_row_index"`
	Columns           []ColumnProfile `json:"columns"`
	TotalDataRows     int             `json:"total_data_rows"`
	Fingerprint       string          `json:"fingerprint"` // SHA256 of normalized headers
}

// ColumnsOfType returns the profiles of the given type in column order.
func (s *FileStructure) ColumnsOfType(t ColumnType) []ColumnProfile {
	var out []ColumnProfile
	for _, c := range s.Columns {
		if c.InferredType == t {
			out = append(out, c)
		}
	}
	return out
}

// Column returns the profile at index, if any.
func (s *FileStructure) Column(index int) (ColumnProfile, bool) {
	for _, c := range s.Columns {
		if c.Index == index {
			return c, true
		}
	}
	return ColumnProfile{}, false
}

// CellString renders a cell for display and for text heuristics.
func CellString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case time.Time:
		return val.Format("2006-01-02")
	case decimal.Decimal:
		return val.String()
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}

func isEmptyCell(v any) bool {
	return CellString(v) == ""
}
