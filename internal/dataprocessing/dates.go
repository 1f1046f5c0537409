package dataprocessing

import (
	"strconv"
	"strings"
	"time"
)

// excelEpoch is the zero day of Excel's 1900 date system. Day 60 is the
// fictitious 1900-02-29, which this epoch absorbs for all modern dates.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// dateLayouts are tried in order. Source exports are day-first.
var dateLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2-Jan-2006",
	"2-Jan-06",
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02/01/2006 15:04",
	time.RFC3339,
}

// ParseDate parses a single raw date cell. It tolerates Excel serial
// numbers, day-first date strings, ISO dates, and datetimes.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}

	// Excel serials come through as bare numbers when a sheet loses its
	// date formatting. 61 is 1900-03-01; anything below is noise.
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if serial < 61 || serial > 200000 {
			return time.Time{}, false
		}
		days := int(serial)
		frac := serial - float64(days)
		t := excelEpoch.AddDate(0, 0, days)
		if frac > 0 {
			t = t.Add(time.Duration(frac * 24 * float64(time.Hour)))
		}
		return t, true
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ResolveRowDate produces the canonical date for one row by walking the
// schema's date candidates in priority order and taking the first cell that
// parses. Rows with no resolvable date in any candidate are reported as
// missing and later discarded.
func ResolveRowDate(t *Table, s Schema, row int) (time.Time, bool) {
	for _, col := range s.DateColumns {
		cell := t.Cell(row, col.Index)
		if cell == "" {
			continue
		}
		if date, ok := ParseDate(cell); ok {
			return date, true
		}
	}
	return time.Time{}, false
}
