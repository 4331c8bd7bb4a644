// Package excel reads form records from uploaded workbooks.
//
// Only one record is ever extracted: row 1 of the first worksheet holds the
// column headers and the first non-blank row below it is the record. Any
// later rows are ignored on purpose, batch generation is not supported.
package excel

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/formfill-api/internal/domain/formfill"
)

// Parser extracts the first data record from a workbook
type Parser struct {
	file *excelize.File
}

// NewParserFromReader creates a parser from an io.Reader
func NewParserFromReader(r io.Reader) (*Parser, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	return &Parser{file: f}, nil
}

// NewParserFromFile creates a parser from a file path
func NewParserFromFile(path string) (*Parser, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	return &Parser{file: f}, nil
}

// Close closes the Excel file
func (p *Parser) Close() error {
	if p.file != nil {
		return p.file.Close()
	}
	return nil
}

// SheetName returns the worksheet records are read from
func (p *Parser) SheetName() string {
	sheets := p.file.GetSheetList()
	if len(sheets) == 0 {
		return ""
	}
	return sheets[0]
}

// FirstRecord returns the first data row keyed by header.
// A workbook without a data row yields formfill.ErrEmptyInput.
func (p *Parser) FirstRecord() (formfill.Record, error) {
	sheetName := p.SheetName()
	if sheetName == "" {
		return nil, formfill.ErrEmptyInput
	}

	// Row iterator so large workbooks are not loaded past the first record
	rows, err := p.file.Rows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheetName, err)
	}
	defer rows.Close()

	var headers []string
	headerRead := false

	for rows.Next() {
		row, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}

		if !headerRead {
			headers = row
			headerRead = true
			continue
		}

		if isBlank(row) {
			continue
		}

		return toRecord(headers, row), nil
	}

	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("failed to iterate sheet %s: %w", sheetName, err)
	}

	return nil, formfill.ErrEmptyInput
}

// ReadFirstRecord opens the workbook at path and returns its first record.
func ReadFirstRecord(path string) (formfill.Record, error) {
	parser, err := NewParserFromFile(path)
	if err != nil {
		return nil, err
	}
	defer parser.Close()

	return parser.FirstRecord()
}

// toRecord pairs header cells with row cells. Blank headers are dropped and
// the first occurrence of a duplicated header wins.
func toRecord(headers, row []string) formfill.Record {
	record := make(formfill.Record, len(headers))
	for i, header := range headers {
		key := strings.TrimSpace(header)
		if key == "" {
			continue
		}
		if _, seen := record[key]; seen {
			continue
		}

		value := ""
		if i < len(row) {
			value = row[i]
		}
		record[key] = value
	}
	return record
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
