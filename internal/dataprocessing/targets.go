package dataprocessing

import (
	"strconv"
	"strings"

	"aquatrend/pkg/contracts/domain"
)

// Target table column variants, matched case-insensitively.
var (
	targetParameterColumns = []string{"Parameter"}
	targetMaxColumns       = []string{"MaxTarget", "Max Target", "Max"}
)

// ResolveTargets builds a parameter -> max target mapping from a targets
// table with columns (Parameter, MaxTarget). A MaxTarget cell may carry
// several comma-separated numeric candidates, and exports sometimes spill
// candidates into extra unnamed columns; the largest parsed candidate wins.
// Duplicate parameter rows also keep the larger value. Rows with no numeric
// candidate are ignored: a missing target resolves to 0 at lookup time.
func ResolveTargets(t *Table) domain.TargetTable {
	targets := make(domain.TargetTable)
	if t == nil || len(t.Header) == 0 {
		return targets
	}

	index := headerIndex(t.Header)
	paramCol := coalesce(index, targetParameterColumns)
	maxCol := coalesce(index, targetMaxColumns)
	if !paramCol.Present || !maxCol.Present {
		return targets
	}

	for row := range t.Rows {
		parameter := t.Cell(row, paramCol.Index)
		if parameter == "" {
			continue
		}

		value, found := 0.0, false
		// Scan the MaxTarget cell and any trailing spill-over cells.
		for col := maxCol.Index; col < len(t.Rows[row]); col++ {
			for _, candidate := range strings.Split(t.Cell(row, col), ",") {
				v, err := strconv.ParseFloat(strings.TrimSpace(candidate), 64)
				if err != nil {
					continue
				}
				if !found || v > value {
					value, found = v, true
				}
			}
		}
		if !found {
			continue
		}

		if existing, ok := targets[parameter]; !ok || value > existing {
			targets[parameter] = value
		}
	}

	return targets
}
