package dataprocessing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Time
		ok   bool
	}{
		{name: "day first slashes", raw: "20/01/2024", want: day(2024, time.January, 20), ok: true},
		{name: "single digit day first", raw: "5/1/2024", want: day(2024, time.January, 5), ok: true},
		{name: "iso", raw: "2024-01-20", want: day(2024, time.January, 20), ok: true},
		{name: "iso datetime", raw: "2024-01-20 14:30:00", want: time.Date(2024, time.January, 20, 14, 30, 0, 0, time.UTC), ok: true},
		{name: "excel serial", raw: "45311", want: day(2024, time.January, 20), ok: true},
		{name: "excel serial with time fraction", raw: "45311.5", want: time.Date(2024, time.January, 20, 12, 0, 0, 0, time.UTC), ok: true},
		{name: "month name", raw: "20-Jan-2024", want: day(2024, time.January, 20), ok: true},
		{name: "empty", raw: ""},
		{name: "small number is not a serial", raw: "42"},
		{name: "free text", raw: "pending"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.raw)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, got.Equal(tt.want), "got %v want %v", got, tt.want)
			}
		})
	}
}

func TestResolveRowDate_PriorityOrder(t *testing.T) {
	table := &Table{
		Header: []string{"Site", "Date", "Sample Date", "Result"},
		Rows: [][]string{
			{"BH-01", "20/01/2024", "05/01/2024", "1"}, // both present, first wins
			{"BH-01", "", "05/01/2024", "1"},           // first missing, fall through
			{"BH-01", "not a date", "05/01/2024", "1"}, // first unparseable, fall through
			{"BH-01", "", "", "1"},                     // no resolvable date
		},
	}
	schema := ResolveSchema(table, nil)
	require.Len(t, schema.DateColumns, 2)

	got, ok := ResolveRowDate(table, schema, 0)
	require.True(t, ok)
	assert.Equal(t, day(2024, time.January, 20), got)

	got, ok = ResolveRowDate(table, schema, 1)
	require.True(t, ok)
	assert.Equal(t, day(2024, time.January, 5), got)

	got, ok = ResolveRowDate(table, schema, 2)
	require.True(t, ok)
	assert.Equal(t, day(2024, time.January, 5), got)

	_, ok = ResolveRowDate(table, schema, 3)
	assert.False(t, ok)
}
