package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/FACorreiaa/echo-ledger/internal/domain/import/sniffer"
	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte("\xEF\xBB\xBF")

// ReadCSV decodes a delimited text export. The byte order mark is dropped,
// non UTF-8 input is read as Windows-1252 and the delimiter is detected.
// Rows may have different lengths.
func ReadCSV(data []byte) (sniffer.RawTable, rune, error) {
	text, err := decodeText(data)
	if err != nil {
		return nil, 0, err
	}

	delimiter, err := sniffer.DetectDelimiter(text)
	if err != nil {
		return nil, 0, err
	}

	reader := csv.NewReader(bytes.NewReader([]byte(text)))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	var table sniffer.RawTable
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("failed to read csv: %w", err)
		}

		row := make([]any, len(record))
		for i, field := range record {
			row[i] = field
		}
		table = append(table, row)
	}

	if len(table) == 0 {
		return nil, 0, ErrEmptyFile
	}
	return table, delimiter, nil
}

func decodeText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), nil
	}

	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("failed to decode windows-1252 text: %w", err)
	}
	return string(decoded), nil
}
