package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveTargets(t *testing.T) {
	table := &Table{
		Header: []string{"Parameter", "MaxTarget"},
		Rows: [][]string{
			{"Chlorine", "0.1", "0.5"}, // candidates spilled into an extra cell
			{"Iron", "0.3,0.2"},
			{"pH", "9"},
			{"Turbidity", "n/a"}, // no numeric candidate
			{"", "1.0"},          // no parameter
		},
	}

	targets := ResolveTargets(table)

	assert.Equal(t, 0.5, targets.Lookup("Chlorine"))
	assert.Equal(t, 0.3, targets.Lookup("Iron"))
	assert.Equal(t, 9.0, targets.Lookup("pH"))

	// Absent or unresolvable parameters default to 0: the reference line
	// is always drawn.
	assert.Equal(t, 0.0, targets.Lookup("Turbidity"))
	assert.Equal(t, 0.0, targets.Lookup("Nitrate"))
}

func TestResolveTargets_DuplicateParameterKeepsLarger(t *testing.T) {
	table := &Table{
		Header: []string{"Parameter", "MaxTarget"},
		Rows: [][]string{
			{"Chlorine", "0.5"},
			{"Chlorine", "0.2"},
		},
	}

	targets := ResolveTargets(table)
	assert.Equal(t, 0.5, targets.Lookup("Chlorine"))
}

func TestResolveTargets_HeaderVariants(t *testing.T) {
	table := &Table{
		Header: []string{"parameter", "Max"},
		Rows:   [][]string{{"Iron", "0.3"}},
	}

	targets := ResolveTargets(table)
	require.Len(t, targets, 1)
	assert.Equal(t, 0.3, targets.Lookup("Iron"))
}

func TestResolveTargets_MissingColumnsOrTable(t *testing.T) {
	assert.Empty(t, ResolveTargets(nil))
	assert.Empty(t, ResolveTargets(&Table{}))
	assert.Empty(t, ResolveTargets(&Table{
		Header: []string{"Parameter", "Notes"},
		Rows:   [][]string{{"Chlorine", "0.5"}},
	}))
}
