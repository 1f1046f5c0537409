package exporter

import "strconv"

// formatFloat formats a measurement for CSV output. Shortest exact
// representation, so 0.003 stays 0.003 and 7 stays 7.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
