// Package parser reads bank exports (CSV and XLSX) into raw tables.
//
// Readers do no interpretation beyond decoding: cells stay strings, except
// spreadsheet cells holding a date-formatted number, which are returned as
// float64 serials.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/FACorreiaa/echo-ledger/internal/domain/import/sniffer"
)

var (
	ErrEmptyFile         = errors.New("file is empty")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrSheetNotFound     = errors.New("sheet not found")
)

// Format is a supported file format.
type Format string

const (
	FormatUnknown Format = ""
	FormatCSV     Format = "csv"
	FormatXLSX    Format = "xlsx"
)

var zipMagic = []byte("PK\x03\x04")

// Table is one raw table of a file; workbooks yield one per sheet.
type Table struct {
	Name string
	Rows sniffer.RawTable
}

// DetectFormat picks the format from the file extension, falling back to the
// content.
func DetectFormat(name string, data []byte) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX
	case ".csv", ".tsv", ".txt":
		return FormatCSV
	}

	if bytes.HasPrefix(data, zipMagic) {
		return FormatXLSX
	}
	if len(data) > 0 && (utf8.Valid(data) || bytes.IndexByte(data, 0) < 0) {
		return FormatCSV
	}
	return FormatUnknown
}

// Read parses a file. For a workbook, an empty sheet selects every sheet in
// workbook order; otherwise only the named sheet is read.
func Read(name string, data []byte, sheet string) ([]Table, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}

	switch DetectFormat(name, data) {
	case FormatCSV:
		rows, _, err := ReadCSV(data)
		if err != nil {
			return nil, err
		}
		return []Table{{Name: name, Rows: rows}}, nil

	case FormatXLSX:
		wb, err := OpenWorkbook(data)
		if err != nil {
			return nil, err
		}
		defer wb.Close()

		sheets := wb.Sheets()
		if sheet != "" {
			sheets = []string{sheet}
		}

		tables := make([]Table, 0, len(sheets))
		for _, s := range sheets {
			rows, err := wb.ReadSheet(s)
			if err != nil {
				return nil, err
			}
			tables = append(tables, Table{Name: s, Rows: rows})
		}
		return tables, nil
	}

	return nil, fmt.Errorf("%s: %w", name, ErrUnsupportedFormat)
}
