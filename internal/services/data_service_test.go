package services

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aquatrend/internal/config"
	"aquatrend/pkg/contracts/domain"
)

const testResultsCSV = `Site,Parameter,Type,Unit,Result,Date
BH-1,Iron,Borehole,mg/l,0.3,05/01/2024
BH-1,Iron,Borehole,mg/l,<0.1,20/01/2024
BH-2,pH,Borehole,ph units,7.2,10/02/2024
TAP-1,Iron,Tap,mg/l,ND,15/02/2024
`

const testTargetsCSV = `Parameter,MaxTarget
Iron,0.3
`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t *testing.T) *DataService {
	t.Helper()
	base := t.TempDir()

	cfg := config.Default()
	cfg.Sources.ResultsFile = "results.csv"
	cfg.Sources.TargetsFile = "targets.csv"
	paths := config.NewPathsFrom(base, cfg.Paths)
	require.NoError(t, paths.EnsureDirectories())

	require.NoError(t, os.WriteFile(paths.DataPath("results.csv"), []byte(testResultsCSV), 0644))
	require.NoError(t, os.WriteFile(paths.DataPath("targets.csv"), []byte(testTargetsCSV), 0644))

	return NewDataService(cfg, paths, nil, testLogger())
}

func TestDataService_LoadAndQuery(t *testing.T) {
	ds := newTestService(t)
	ctx := context.Background()

	require.NoError(t, ds.Load(ctx, "startup"))

	dataset, err := ds.Dataset()
	require.NoError(t, err)
	assert.Equal(t, 4, dataset.Stats.RowsIn)
	assert.Equal(t, 3, dataset.Stats.Points)
	assert.False(t, dataset.LoadedAt.IsZero())

	// The later January sample wins the month for BH-1 Iron.
	points, err := ds.MonthlyPoints(ctx, Query{Parameter: "iron", Site: "bh-1"})
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, domain.Month{Year: 2024, Month: time.January}, points[0].Month)
	assert.InDelta(t, 0.1, points[0].Value, 1e-9)
}

func TestDataService_MonthRange(t *testing.T) {
	ds := newTestService(t)
	ctx := context.Background()
	require.NoError(t, ds.Load(ctx, "startup"))

	points, err := ds.MonthlyPoints(ctx, Query{From: domain.Month{Year: 2024, Month: time.February}})
	require.NoError(t, err)
	assert.Len(t, points, 2)

	_, err = ds.MonthlyPoints(ctx, Query{
		From: domain.Month{Year: 2024, Month: time.March},
		To:   domain.Month{Year: 2024, Month: time.January},
	})
	assert.ErrorIs(t, err, ErrInvalidMonthRange)
}

func TestDataService_DistinctLists(t *testing.T) {
	ds := newTestService(t)
	ctx := context.Background()
	require.NoError(t, ds.Load(ctx, "startup"))

	types, err := ds.Types(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Borehole", "Tap"}, types)

	parameters, err := ds.Parameters(ctx, "Borehole")
	require.NoError(t, err)
	assert.Equal(t, []string{"Iron", "pH"}, parameters)

	sites, err := ds.Sites(ctx, "", "Iron")
	require.NoError(t, err)
	assert.Equal(t, []string{"BH-1", "TAP-1"}, sites)
}

func TestDataService_Targets(t *testing.T) {
	ds := newTestService(t)
	ctx := context.Background()
	require.NoError(t, ds.Load(ctx, "startup"))

	target, err := ds.Target(ctx, "Iron")
	require.NoError(t, err)
	assert.Equal(t, 0.3, target)

	// No explicit target resolves to 0, not an error.
	target, err = ds.Target(ctx, "pH")
	require.NoError(t, err)
	assert.Zero(t, target)
}

func TestDataService_NotLoaded(t *testing.T) {
	ds := newTestService(t)

	_, err := ds.Dataset()
	assert.ErrorIs(t, err, ErrNoDataLoaded)

	_, err = ds.MonthlyPoints(context.Background(), Query{})
	assert.ErrorIs(t, err, ErrNoDataLoaded)
}

func TestDataService_DiscoveryFallback(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	paths := config.NewPathsFrom(base, cfg.Paths)
	require.NoError(t, paths.EnsureDirectories())

	// No configured sources; the newest export in the data dir wins,
	// and the targets workbook is picked up by name.
	require.NoError(t, os.WriteFile(paths.DataPath("Water Results 2024.csv"), []byte(testResultsCSV), 0644))
	require.NoError(t, os.WriteFile(paths.DataPath("Targets.csv"), []byte(testTargetsCSV), 0644))
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(paths.DataPath("Targets.csv"), old, old))

	ds := NewDataService(cfg, paths, nil, testLogger())
	ctx := context.Background()
	require.NoError(t, ds.Load(ctx, "startup"))

	target, err := ds.Target(ctx, "Iron")
	require.NoError(t, err)
	assert.Equal(t, 0.3, target)

	dataset, err := ds.Dataset()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(paths.DataDir, "Water Results 2024.csv"), dataset.Source)
}

func TestDataService_MissingTargetsIsFine(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Sources.ResultsFile = "results.csv"
	paths := config.NewPathsFrom(base, cfg.Paths)
	require.NoError(t, paths.EnsureDirectories())
	require.NoError(t, os.WriteFile(paths.DataPath("results.csv"), []byte(testResultsCSV), 0644))

	ds := NewDataService(cfg, paths, nil, testLogger())
	ctx := context.Background()
	require.NoError(t, ds.Load(ctx, "startup"))

	target, err := ds.Target(ctx, "Iron")
	require.NoError(t, err)
	assert.Zero(t, target)
}
