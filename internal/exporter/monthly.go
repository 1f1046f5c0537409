package exporter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"aquatrend/internal/config"
	"aquatrend/internal/dataprocessing"
	"aquatrend/pkg/contracts/domain"
)

// MonthlyExporter writes monthly trend reports to the reports
// directory.
type MonthlyExporter struct {
	csvWriter *CSVWriter
	paths     *config.Paths
}

// NewMonthlyExporter creates a new monthly report exporter
func NewMonthlyExporter(paths *config.Paths) *MonthlyExporter {
	return &MonthlyExporter{
		csvWriter: NewCSVWriter(paths),
		paths:     paths,
	}
}

var monthlyHeaders = []string{"Site", "Parameter", "Type", "Unit", "Month", "Sampled At", "Value"}

// ExportMonthlyCSV writes every monthly point into a single CSV file.
func (e *MonthlyExporter) ExportMonthlyCSV(points []domain.MonthlyPoint, filename string) error {
	records := make([][]string, 0, len(points))
	for _, p := range points {
		records = append(records, pointToCSVRow(p))
	}
	return e.csvWriter.WriteSimpleCSV(filename, monthlyHeaders, records)
}

// ExportParameterReports generates one CSV per parameter so each trend
// can be opened directly in a spreadsheet. Rows are streamed so a large
// history never sits in memory twice.
func (e *MonthlyExporter) ExportParameterReports(points []domain.MonthlyPoint, outputDir string) error {
	byParameter := make(map[string][]domain.MonthlyPoint)
	for _, p := range points {
		byParameter[p.Parameter] = append(byParameter[p.Parameter], p)
	}

	var parameters []string
	for parameter := range byParameter {
		parameters = append(parameters, parameter)
	}
	sort.Strings(parameters)

	for _, parameter := range parameters {
		filename := fmt.Sprintf("aqua_monthly_%s.csv", slugify(parameter))
		filePath := filepath.Join(outputDir, filename)

		sw, err := e.csvWriter.CreateStreamWriter(filePath, monthlyHeaders)
		if err != nil {
			return fmt.Errorf("failed to export parameter %s: %w", parameter, err)
		}
		for _, p := range byParameter[parameter] {
			if err := sw.WriteRecord(pointToCSVRow(p)); err != nil {
				sw.Close()
				return fmt.Errorf("failed to export parameter %s: %w", parameter, err)
			}
		}
		if err := sw.Close(); err != nil {
			return fmt.Errorf("failed to export parameter %s: %w", parameter, err)
		}
	}
	return nil
}

// ExportTargetsCSV writes the resolved targets table.
func (e *MonthlyExporter) ExportTargetsCSV(targets domain.TargetTable, filename string) error {
	parameters := targets.Parameters()
	sort.Strings(parameters)
	records := make([][]string, 0, len(parameters))
	for _, parameter := range parameters {
		records = append(records, []string{parameter, formatFloat(targets.Lookup(parameter))})
	}
	return e.csvWriter.WriteSimpleCSV(filename, []string{"Parameter", "MaxTarget"}, records)
}

// ExportJSON writes the complete pipeline result, points and targets
// and run statistics, as a single JSON document.
func (e *MonthlyExporter) ExportJSON(result *dataprocessing.Result, filename string) error {
	fullPath := filename
	if !filepath.IsAbs(fullPath) {
		fullPath = e.paths.ReportPath(filename)
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", fullPath, err)
	}
	return nil
}

func pointToCSVRow(p domain.MonthlyPoint) []string {
	return []string{
		p.Site,
		p.Parameter,
		p.Type,
		p.Unit,
		p.Month.String(),
		p.SampledAt.Format("2006-01-02"),
		formatFloat(p.Value),
	}
}

// slugify produces a filesystem-safe fragment from a parameter name.
func slugify(name string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteRune('_')
			}
			lastUnderscore = true
		}
	}
	return strings.Trim(b.String(), "_")
}
