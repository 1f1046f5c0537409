package loader

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"aquatrend/internal/dataprocessing"
	apperrors "aquatrend/internal/errors"
)

// DefaultSheetNames are tried in order before falling back to a header
// scan. Lab exports rename the main sheet freely, so the list covers
// the variants seen in the field.
var DefaultSheetNames = []string{"Results", "Final", "Monthly", "Trends", "Data", "Sheet1"}

// LoadExcel reads a workbook from disk and extracts the first sheet
// that looks like a results or targets table.
func LoadExcel(path string, sheetNames []string) (*dataprocessing.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()
	return tableFromWorkbook(f, sheetNames)
}

// LoadExcelBytes parses workbook contents already in memory, typically
// fetched over HTTP.
func LoadExcelBytes(data []byte, sheetNames []string) (*dataprocessing.Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()
	return tableFromWorkbook(f, sheetNames)
}

func tableFromWorkbook(f *excelize.File, sheetNames []string) (*dataprocessing.Table, error) {
	if len(sheetNames) == 0 {
		sheetNames = DefaultSheetNames
	}

	// Preferred names first. GetRows errors when the sheet is absent.
	for _, name := range sheetNames {
		if rows, err := f.GetRows(name); err == nil && len(rows) > 1 {
			return tableFromRows(rows), nil
		}
	}

	// Fall back to scanning every sheet for a header row that looks
	// like tabular data.
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil || len(rows) < 2 {
			continue
		}
		if sheetLooksTabular(rows) {
			return tableFromRows(rows), nil
		}
	}

	return nil, apperrors.NewParsingError("workbook has no readable sheet", nil)
}

// sheetLooksTabular checks the first few rows for a recognizable
// header. Anything with a Parameter column plus a result or target
// column qualifies.
func sheetLooksTabular(rows [][]string) bool {
	limit := len(rows)
	if limit > 4 {
		limit = 4
	}
	for _, row := range rows[:limit] {
		text := strings.ToLower(strings.Join(row, " "))
		if strings.Contains(text, "parameter") &&
			(strings.Contains(text, "result") || strings.Contains(text, "value") ||
				strings.Contains(text, "max") || strings.Contains(text, "target")) {
			return true
		}
	}
	return false
}

// tableFromRows treats the first non-blank row as the header. Excel
// exports often carry a title row above the real header.
func tableFromRows(rows [][]string) *dataprocessing.Table {
	start := 0
	for start < len(rows) && rowBlank(rows[start]) {
		start++
	}
	if start >= len(rows) {
		return &dataprocessing.Table{}
	}
	return &dataprocessing.Table{
		Header: rows[start],
		Rows:   rows[start+1:],
	}
}

func rowBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
