package domain

import (
	"fmt"
	"math"
	"time"
)

// Reading represents one lab measurement taken at a monitoring site.
// RowIndex preserves the position of the reading in the source export and is
// used as the tie-breaker when two readings share the same sample date.
type Reading struct {
	Site      string    `json:"site" validate:"required"`
	Parameter string    `json:"parameter" validate:"required"`
	Type      string    `json:"type,omitempty"`
	Unit      string    `json:"unit,omitempty"`
	SampledAt time.Time `json:"sampled_at"`
	RawResult string    `json:"raw_result"`
	Value     float64   `json:"value"`
	RowIndex  int       `json:"-"`
}

// Month identifies a calendar month. Zero value is invalid.
type Month struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// MonthOf returns the Month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// Time returns midnight on the first day of the month (UTC).
func (m Month) Time() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// IsZero reports whether m is the zero Month.
func (m Month) IsZero() bool {
	return m == Month{}
}

// Before reports whether m is earlier than other.
func (m Month) Before(other Month) bool {
	if m.Year != other.Year {
		return m.Year < other.Year
	}
	return m.Month < other.Month
}

// String formats the month as YYYY-MM.
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// MarshalText makes Month usable as a JSON value and map key.
func (m Month) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText parses a YYYY-MM string.
func (m *Month) UnmarshalText(text []byte) error {
	t, err := time.Parse("2006-01", string(text))
	if err != nil {
		return fmt.Errorf("invalid month %q: %w", string(text), err)
	}
	m.Year = t.Year()
	m.Month = t.Month()
	return nil
}

// MonthlyPoint is the single representative reading chosen per
// (site, parameter, month): the most recent test within that month.
type MonthlyPoint struct {
	Site      string    `json:"site"`
	Parameter string    `json:"parameter"`
	Type      string    `json:"type,omitempty"`
	Unit      string    `json:"unit,omitempty"`
	Month     Month     `json:"month"`
	SampledAt time.Time `json:"sampled_at"`
	Value     float64   `json:"value"`
}

// Valid reports whether the point satisfies the output invariant:
// a finite value and a non-zero month.
func (p MonthlyPoint) Valid() bool {
	if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
		return false
	}
	return p.Month != Month{}
}
