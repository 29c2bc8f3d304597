package sniffer

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/FACorreiaa/echo-ledger/internal/domain/import/normalizer"
)

const (
	maxScanRows  = 50
	maxScanCells = 50
	// MaxColumns bounds the number of profiled columns.
	MaxColumns = 50

	minDescriptionTextLength = 3
)

var (
	ErrEmptyTable = errors.New("table is empty")
	ErrNoDataRow  = errors.New("could not find a data row")
)

// Analyze locates the data region of table and profiles its columns.
func Analyze(table RawTable) (*FileStructure, error) {
	if len(table) == 0 {
		return nil, ErrEmptyTable
	}

	dataStart, err := findDataStart(table)
	if err != nil {
		return nil, err
	}

	headerRow := -1
	if dataStart > 0 && !isEmptyRow(table[dataStart-1]) {
		headerRow = dataStart - 1
	}

	width := 0
	dataRows := 0
	for _, row := range table[dataStart:] {
		if isEmptyRow(row) {
			continue
		}
		dataRows++
		if len(row) > width {
			width = len(row)
		}
	}
	if width > MaxColumns {
		width = MaxColumns
	}

	structure := &FileStructure{
		HeaderRowIndex:    headerRow,
		DataStartRowIndex: dataStart,
		Columns:           make([]ColumnProfile, 0, width),
		TotalDataRows:     dataRows,
	}

	headers := make([]string, width)
	for col := 0; col < width; col++ {
		name := ""
		if headerRow >= 0 {
			name = CellString(table.Cell(headerRow, col))
		}
		if name == "" {
			name = fmt.Sprintf("Column %d", col+1)
		}
		headers[col] = name

		values := make([]any, 0, len(table)-dataStart)
		for row := dataStart; row < len(table); row++ {
			values = append(values, table.Cell(row, col))
		}

		inf := InferType(values)
		structure.Columns = append(structure.Columns, ColumnProfile{
			Index:        col,
			DisplayName:  name,
			InferredType: inf.Type,
			SampleValues: inf.Samples,
			HasNegative:  inf.HasNegative,
			HasPositive:  inf.HasPositive,
			IsMonotonic:  inf.IsMonotonic,
		})
	}

	structure.Fingerprint = generateFingerprint(headers, structure.Columns)
	return structure, nil
}

// findDataStart returns the first row, among the first 50, holding a date, a
// number and a piece of free text. Falls back to the first non-empty row.
func findDataStart(table RawTable) (int, error) {
	for i, row := range table {
		if i >= maxScanRows {
			break
		}
		if isTransactionRow(row) {
			return i, nil
		}
	}

	for i, row := range table {
		if !isEmptyRow(row) {
			return i, nil
		}
	}
	return 0, ErrNoDataRow
}

// isTransactionRow classifies each cell as exactly one of date, number or
// text, in that order.
func isTransactionRow(row []any) bool {
	var hasDate, hasNumber, hasText bool
	for i, cell := range row {
		if i >= maxScanCells {
			break
		}
		if isEmptyCell(cell) {
			continue
		}
		if _, ok := normalizer.ParseDate(cell); ok {
			hasDate = true
			continue
		}
		if _, ok := normalizer.ParseAmount(cell); ok {
			hasNumber = true
			continue
		}
		if s, ok := cell.(string); ok {
			s = strings.TrimSpace(s)
			if len([]rune(s)) > minDescriptionTextLength && !normalizer.IsNumericText(s) {
				hasText = true
			}
		}
		if hasDate && hasNumber && hasText {
			return true
		}
	}
	return hasDate && hasNumber && hasText
}

func isEmptyRow(row []any) bool {
	for _, cell := range row {
		if !isEmptyCell(cell) {
			return false
		}
	}
	return true
}

// generateFingerprint creates a stable hash identifying a file layout: the
// normalized header names plus the inferred column types.
func generateFingerprint(headers []string, columns []ColumnProfile) string {
	parts := make([]string, 0, len(headers))
	for i, h := range headers {
		clean := strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return unicode.ToLower(r)
			}
			return -1
		}, h)
		if i < len(columns) {
			clean += ":" + columns[i].InferredType.String()
		}
		parts = append(parts, clean)
	}

	hash := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(hash[:])
}
