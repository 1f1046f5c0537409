package dataprocessing

import (
	"strings"
)

// Table is an in-memory tabular dataset as produced by the loaders:
// a header row plus string cells. Cells are accessed bounds-safely because
// source exports routinely contain ragged rows.
type Table struct {
	Header []string
	Rows   [][]string
}

// Cell returns the cell at (row, col), or "" when the row is too short.
func (t *Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) {
		return ""
	}
	r := t.Rows[row]
	if col < 0 || col >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[col])
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Column locates a canonical field inside a Table. Present is resolved once
// at schema-resolution time so downstream code never probes for columns.
type Column struct {
	Index   int
	Present bool
}

// Schema maps the canonical result-table fields to column positions.
// DateColumns holds every resolvable date candidate in priority order.
type Schema struct {
	Site        Column
	Parameter   Column
	Unit        Column
	Result      Column
	Type        Column
	DateColumns []Column
}

// Column name variants seen across source exports, matched
// case-insensitively. First match wins.
var (
	siteColumns      = []string{"Site ID", "SiteID", "Site", "Borehole"}
	parameterColumns = []string{"Parameter"}
	unitColumns      = []string{"Unit", "Units"}
	resultColumns    = []string{"Result", "Value"}
	typeColumns      = []string{"Type"}
)

// DefaultDateColumns is the default priority order for date candidates.
var DefaultDateColumns = []string{"Date", "Sample Date", "DateSampled", "DateClean", "Date2"}

// ResolveSchema resolves the canonical fields of a results table.
// Duplicate-named columns keep their first occurrence; dateColumns are
// matched in the given priority order. Absent fields are flagged, not errors.
func ResolveSchema(t *Table, dateColumns []string) Schema {
	if len(dateColumns) == 0 {
		dateColumns = DefaultDateColumns
	}

	index := headerIndex(t.Header)

	s := Schema{
		Site:      coalesce(index, siteColumns),
		Parameter: coalesce(index, parameterColumns),
		Unit:      coalesce(index, unitColumns),
		Result:    coalesce(index, resultColumns),
		Type:      coalesce(index, typeColumns),
	}
	for _, name := range dateColumns {
		if col := coalesce(index, []string{name}); col.Present {
			s.DateColumns = append(s.DateColumns, col)
		}
	}
	return s
}

// headerIndex builds a name -> column index map, first occurrence winning.
func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, name := range header {
		key := normalizeHeader(name)
		if key == "" {
			continue
		}
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}
	return index
}

// coalesce returns the first candidate column present in the header.
func coalesce(index map[string]int, candidates []string) Column {
	for _, name := range candidates {
		if i, ok := index[normalizeHeader(name)]; ok {
			return Column{Index: i, Present: true}
		}
	}
	return Column{Index: -1}
}

func normalizeHeader(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
