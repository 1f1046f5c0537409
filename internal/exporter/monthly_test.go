package exporter

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aquatrend/internal/config"
	"aquatrend/internal/dataprocessing"
	"aquatrend/pkg/contracts/domain"
)

func testPaths(t *testing.T) *config.Paths {
	t.Helper()
	return config.NewPathsFrom(t.TempDir(), config.PathsConfig{
		DataDir:    "data",
		ReportsDir: "reports",
		LogsDir:    "logs",
	})
}

func readCSVFile(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := strings.TrimPrefix(string(data), "\xef\xbb\xbf")
	records, err := csv.NewReader(strings.NewReader(content)).ReadAll()
	require.NoError(t, err)
	return records
}

func samplePoints() []domain.MonthlyPoint {
	return []domain.MonthlyPoint{
		{
			Site:      "BH-1",
			Parameter: "Iron",
			Type:      "Borehole",
			Unit:      "mg/l",
			Month:     domain.Month{Year: 2024, Month: 1},
			SampledAt: time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC),
			Value:     0.25,
		},
		{
			Site:      "BH-1",
			Parameter: "pH",
			Type:      "Borehole",
			Unit:      "ph units",
			Month:     domain.Month{Year: 2024, Month: 1},
			SampledAt: time.Date(2024, 1, 18, 0, 0, 0, 0, time.UTC),
			Value:     7,
		},
	}
}

func TestExportMonthlyCSV(t *testing.T) {
	paths := testPaths(t)
	exp := NewMonthlyExporter(paths)

	require.NoError(t, exp.ExportMonthlyCSV(samplePoints(), "monthly.csv"))

	records := readCSVFile(t, paths.ReportPath("monthly.csv"))
	require.Len(t, records, 3)
	assert.Equal(t, monthlyHeaders, records[0])
	assert.Equal(t, []string{"BH-1", "Iron", "Borehole", "mg/l", "2024-01", "2024-01-20", "0.25"}, records[1])
	assert.Equal(t, "7", records[2][6])
}

func TestExportParameterReports(t *testing.T) {
	paths := testPaths(t)
	exp := NewMonthlyExporter(paths)

	require.NoError(t, exp.ExportParameterReports(samplePoints(), ""))

	iron := readCSVFile(t, paths.ReportPath("aqua_monthly_iron.csv"))
	require.Len(t, iron, 2)
	assert.Equal(t, "Iron", iron[1][1])

	ph := readCSVFile(t, paths.ReportPath("aqua_monthly_ph.csv"))
	require.Len(t, ph, 2)
}

func TestExportTargetsCSV(t *testing.T) {
	paths := testPaths(t)
	exp := NewMonthlyExporter(paths)

	targets := domain.TargetTable{"Iron": 0.3, "Chlorine": 0.5}
	require.NoError(t, exp.ExportTargetsCSV(targets, "targets.csv"))

	records := readCSVFile(t, paths.ReportPath("targets.csv"))
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Chlorine", "0.5"}, records[1])
	assert.Equal(t, []string{"Iron", "0.3"}, records[2])
}

func TestExportJSON(t *testing.T) {
	paths := testPaths(t)
	exp := NewMonthlyExporter(paths)

	result := &dataprocessing.Result{
		Points:  samplePoints(),
		Targets: domain.TargetTable{"Iron": 0.3},
		Stats:   dataprocessing.Stats{RowsIn: 2, Readings: 2, Points: 2},
	}
	require.NoError(t, exp.ExportJSON(result, "result.json"))

	data, err := os.ReadFile(paths.ReportPath("result.json"))
	require.NoError(t, err)

	var decoded dataprocessing.Result
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Len(t, decoded.Points, 2)
	assert.Equal(t, 0.3, decoded.Targets["Iron"])
	assert.Equal(t, 2, decoded.Stats.RowsIn)
}

func TestCSVWriter_ReplacesExistingFile(t *testing.T) {
	paths := testPaths(t)
	w := NewCSVWriter(paths)

	require.NoError(t, w.WriteSimpleCSV("log.csv", []string{"a", "b"}, [][]string{{"1", "2"}, {"3", "4"}}))
	require.NoError(t, w.WriteSimpleCSV("log.csv", []string{"a", "b"}, [][]string{{"5", "6"}}))

	records := readCSVFile(t, paths.ReportPath("log.csv"))
	require.Len(t, records, 2)
	assert.Equal(t, []string{"5", "6"}, records[1])
}

func TestStreamWriter(t *testing.T) {
	paths := testPaths(t)
	w := NewCSVWriter(paths)

	sw, err := w.CreateStreamWriter("stream.csv", []string{"Site", "Value"})
	require.NoError(t, err)
	require.NoError(t, sw.WriteRecord([]string{"BH-1", "0.3"}))
	require.NoError(t, sw.Close())

	records := readCSVFile(t, paths.ReportPath("stream.csv"))
	require.Len(t, records, 2)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "e_coli", slugify("E. Coli"))
	assert.Equal(t, "ph", slugify("pH"))
	assert.Equal(t, "nitrate_as_no3", slugify("Nitrate (as NO3)"))
}
