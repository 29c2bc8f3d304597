package parser

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/FACorreiaa/echo-ledger/internal/domain/import/normalizer"
	"github.com/FACorreiaa/echo-ledger/internal/domain/import/sniffer"
	"github.com/xuri/excelize/v2"
)

// Workbook is an opened XLSX file.
type Workbook struct {
	f *excelize.File
}

// OpenWorkbook opens an XLSX file held in memory.
func OpenWorkbook(data []byte) (*Workbook, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	return &Workbook{f: f}, nil
}

// Sheets lists sheet names in workbook order.
func (w *Workbook) Sheets() []string {
	return w.f.GetSheetList()
}

// ReadSheet returns the cells of a sheet. Cells are the displayed text,
// except cells whose display is not a number but whose stored value is
// (dates), which come back as float64 serials.
func (w *Workbook) ReadSheet(name string) (sniffer.RawTable, error) {
	if idx, err := w.f.GetSheetIndex(name); err != nil || idx < 0 {
		return nil, fmt.Errorf("%q: %w", name, ErrSheetNotFound)
	}

	formatted, err := w.f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", name, err)
	}
	raw, err := w.f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", name, err)
	}

	table := make(sniffer.RawTable, len(formatted))
	for r, cells := range formatted {
		row := make([]any, len(cells))
		for c, text := range cells {
			row[c] = cellValue(text, rawCell(raw, r, c))
		}
		table[r] = row
	}
	return table, nil
}

// Close releases the workbook.
func (w *Workbook) Close() error {
	return w.f.Close()
}

func cellValue(text, raw string) any {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	raw = strings.TrimSpace(raw)
	if raw == text || normalizer.IsNumericText(text) {
		return text
	}
	if serial, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(serial) && !math.IsInf(serial, 0) {
		return serial
	}
	return text
}

func rawCell(rows [][]string, r, c int) string {
	if r >= len(rows) || c >= len(rows[r]) {
		return ""
	}
	return rows[r][c]
}
