package fixtures

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/formfill-api/internal/domain/formfill"
)

// Workbook builds an .xlsx with headers in row 1 and rows below it.
func Workbook(headers []string, rows ...[]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return nil, fmt.Errorf("failed to write headers: %w", err)
	}

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// RecordWorkbook builds a workbook whose only data row is record, with one
// column per key of record in formfill.FieldNames order followed by any
// extra keys.
func RecordWorkbook(record formfill.Record) ([]byte, error) {
	headers := make([]string, 0, len(record))
	row := make([]string, 0, len(record))

	known := make(map[string]bool, len(formfill.FieldNames))
	for _, name := range formfill.FieldNames {
		known[name] = true
		if v, ok := record[name]; ok {
			headers = append(headers, name)
			row = append(row, v)
		}
	}
	for k, v := range record {
		if known[k] {
			continue
		}
		headers = append(headers, k)
		row = append(row, v)
	}

	return Workbook(headers, row)
}

// WriteWorkbook writes data to dir/name and returns the path.
func WriteWorkbook(dir, name string, data []byte) (string, error) {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write workbook: %w", err)
	}
	return path, nil
}
