package loader

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"aquatrend/internal/dataprocessing"
)

// LoadCSV reads a comma-separated file into a table. Ragged rows are
// accepted; the schema resolver pads missing cells.
func LoadCSV(path string) (*dataprocessing.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv %s: %w", path, err)
	}
	defer f.Close()

	table, err := readCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv %s: %w", path, err)
	}
	return table, nil
}

// LoadCSVBytes parses CSV contents already in memory.
func LoadCSVBytes(data []byte) (*dataprocessing.Table, error) {
	return readCSV(bytes.NewReader(data))
}

func readCSV(r io.Reader) (*dataprocessing.Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	// Strip a UTF-8 BOM left by spreadsheet exports.
	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], "\uFEFF")
	}

	return tableFromRows(records), nil
}
