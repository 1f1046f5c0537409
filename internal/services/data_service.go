package services

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"aquatrend/internal/config"
	"aquatrend/internal/dataprocessing"
	"aquatrend/internal/files"
	"aquatrend/internal/infrastructure"
	"aquatrend/internal/loader"
	"aquatrend/pkg/contracts/domain"
)

// Dataset is one fully processed snapshot of the source tables. The
// service swaps the whole snapshot on reload, so readers never see a
// half-updated view.
type Dataset struct {
	Points   []domain.MonthlyPoint `json:"points"`
	Targets  domain.TargetTable    `json:"targets"`
	Stats    dataprocessing.Stats  `json:"stats"`
	LoadedAt time.Time             `json:"loaded_at"`
	Source   string                `json:"source"`
}

// Query filters monthly points. Zero fields match everything; From and
// To bound the month range inclusively when non-zero.
type Query struct {
	Type      string
	Parameter string
	Site      string
	From      domain.Month
	To        domain.Month
}

// DataService loads the source tables, runs the processing pipeline
// and serves the cached dataset to the HTTP layer.
type DataService struct {
	cfg       *config.Config
	paths     *config.Paths
	fetcher   *loader.Fetcher
	discovery *files.Discovery
	pipeline  *dataprocessing.Pipeline
	metrics   *infrastructure.Metrics
	logger    *slog.Logger

	mu      sync.RWMutex
	dataset *Dataset

	watcher *fsnotify.Watcher
}

// NewDataService creates a data service. metrics may be nil when
// telemetry is disabled.
func NewDataService(cfg *config.Config, paths *config.Paths, metrics *infrastructure.Metrics, logger *slog.Logger) *DataService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "data_service"))

	pipelineCfg := dataprocessing.DefaultConfig()
	pipelineCfg.UnitSuffixes = coalesce(cfg.Pipeline.UnitSuffixes, pipelineCfg.UnitSuffixes)
	pipelineCfg.NonDetectTokens = coalesce(cfg.Pipeline.NonDetectTokens, pipelineCfg.NonDetectTokens)
	pipelineCfg.DateColumnPriority = coalesce(cfg.Pipeline.DateColumnPriority, pipelineCfg.DateColumnPriority)
	pipelineCfg.StrictComparisons = cfg.Pipeline.StrictComparisons

	return &DataService{
		cfg:       cfg,
		paths:     paths,
		fetcher:   loader.NewFetcher(cfg.Sources.FetchTimeout, logger),
		discovery: files.NewDiscovery(paths.DataDir),
		pipeline:  dataprocessing.NewPipeline(logger, pipelineCfg),
		metrics:   metrics,
		logger:    logger,
	}
}

// Load resolves both sources, runs the pipeline and swaps in the new
// dataset. trigger labels the reload cause in logs and metrics.
func (ds *DataService) Load(ctx context.Context, trigger string) error {
	start := time.Now()

	resultsSrc, err := ds.resultsSource()
	if err != nil {
		return err
	}
	results, err := ds.fetcher.Load(ctx, resultsSrc, ds.cfg.Sources.SheetNames)
	if err != nil {
		return fmt.Errorf("failed to load results: %w", err)
	}

	// Targets are optional; a missing table means every parameter
	// resolves to 0.
	var targets *dataprocessing.Table
	if targetsSrc, ok := ds.targetsSource(); ok {
		targets, err = ds.fetcher.Load(ctx, targetsSrc, ds.cfg.Sources.SheetNames)
		if err != nil {
			return fmt.Errorf("failed to load targets: %w", err)
		}
	}

	result, err := ds.pipeline.Run(ctx, results, targets)
	if err != nil {
		return fmt.Errorf("pipeline failed: %w", err)
	}

	dataset := &Dataset{
		Points:   result.Points,
		Targets:  result.Targets,
		Stats:    result.Stats,
		LoadedAt: time.Now(),
		Source:   sourceLabel(resultsSrc),
	}

	ds.mu.Lock()
	ds.dataset = dataset
	ds.mu.Unlock()

	ds.recordLoad(ctx, trigger, dataset, time.Since(start))

	ds.logger.InfoContext(ctx, "dataset loaded",
		slog.String("trigger", trigger),
		slog.String("source", dataset.Source),
		slog.Int("rows_in", dataset.Stats.RowsIn),
		slog.Int("points", dataset.Stats.Points),
		slog.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// Dataset returns the current snapshot.
func (ds *DataService) Dataset() (*Dataset, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	if ds.dataset == nil {
		return nil, ErrNoDataLoaded
	}
	return ds.dataset, nil
}

// MonthlyPoints returns the points matching the query, in the
// pipeline's site/parameter/month order.
func (ds *DataService) MonthlyPoints(ctx context.Context, q Query) ([]domain.MonthlyPoint, error) {
	dataset, err := ds.Dataset()
	if err != nil {
		return nil, err
	}
	if !q.From.IsZero() && !q.To.IsZero() && q.To.Before(q.From) {
		return nil, ErrInvalidMonthRange
	}

	matched := make([]domain.MonthlyPoint, 0)
	for _, p := range dataset.Points {
		if !q.matches(p) {
			continue
		}
		matched = append(matched, p)
	}
	return matched, nil
}

func (q Query) matches(p domain.MonthlyPoint) bool {
	if q.Type != "" && !strings.EqualFold(p.Type, q.Type) {
		return false
	}
	if q.Parameter != "" && !strings.EqualFold(p.Parameter, q.Parameter) {
		return false
	}
	if q.Site != "" && !strings.EqualFold(p.Site, q.Site) {
		return false
	}
	if !q.From.IsZero() && p.Month.Before(q.From) {
		return false
	}
	if !q.To.IsZero() && q.To.Before(p.Month) {
		return false
	}
	return true
}

// Types returns the distinct sample types, sorted.
func (ds *DataService) Types(ctx context.Context) ([]string, error) {
	return ds.distinct(func(p domain.MonthlyPoint) (string, bool) {
		return p.Type, true
	})
}

// Parameters returns the distinct parameters, optionally narrowed to a
// sample type, sorted.
func (ds *DataService) Parameters(ctx context.Context, sampleType string) ([]string, error) {
	return ds.distinct(func(p domain.MonthlyPoint) (string, bool) {
		return p.Parameter, sampleType == "" || strings.EqualFold(p.Type, sampleType)
	})
}

// Sites returns the distinct sites matching the type and parameter
// filters, sorted.
func (ds *DataService) Sites(ctx context.Context, sampleType, parameter string) ([]string, error) {
	return ds.distinct(func(p domain.MonthlyPoint) (string, bool) {
		ok := (sampleType == "" || strings.EqualFold(p.Type, sampleType)) &&
			(parameter == "" || strings.EqualFold(p.Parameter, parameter))
		return p.Site, ok
	})
}

func (ds *DataService) distinct(extract func(domain.MonthlyPoint) (string, bool)) ([]string, error) {
	dataset, err := ds.Dataset()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var values []string
	for _, p := range dataset.Points {
		value, ok := extract(p)
		if !ok || value == "" {
			continue
		}
		if _, dup := seen[value]; dup {
			continue
		}
		seen[value] = struct{}{}
		values = append(values, value)
	}
	sort.Strings(values)
	return values, nil
}

// Target returns the maximum target for a parameter. Parameters
// without an explicit target resolve to 0.
func (ds *DataService) Target(ctx context.Context, parameter string) (float64, error) {
	dataset, err := ds.Dataset()
	if err != nil {
		return 0, err
	}
	return dataset.Targets.Lookup(parameter), nil
}

// Stats returns the statistics of the last pipeline run.
func (ds *DataService) Stats(ctx context.Context) (dataprocessing.Stats, time.Time, error) {
	dataset, err := ds.Dataset()
	if err != nil {
		return dataprocessing.Stats{}, time.Time{}, err
	}
	return dataset.Stats, dataset.LoadedAt, nil
}

// Watch reloads the dataset when export files in the data directory
// change. Blocks until ctx is cancelled.
func (ds *DataService) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	ds.watcher = watcher
	defer watcher.Close()

	if err := watcher.Add(ds.paths.DataDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", ds.paths.DataDir, err)
	}
	ds.logger.Info("watching data directory", slog.String("dir", ds.paths.DataDir))

	// Exports arrive as a burst of write events; the timer coalesces
	// them into one reload.
	const debounce = 500 * time.Millisecond
	var timer *time.Timer
	reload := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Rename) {
				continue
			}
			if !isExport(event.Name) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			ds.logger.Warn("watcher error", slog.String("error", err.Error()))

		case <-reload:
			if err := ds.Load(ctx, "watch"); err != nil {
				ds.logger.Error("reload failed", slog.String("error", err.Error()))
			}
		}
	}
}

func isExport(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, "~$") {
		return false
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".xlsx", ".xls", ".csv":
		return true
	}
	return false
}

// resultsSource resolves where the results table comes from: the
// configured URL, then the configured file, then the newest export in
// the data directory.
func (ds *DataService) resultsSource() (loader.Source, error) {
	if ds.cfg.Sources.ResultsURL != "" {
		return loader.Source{URL: ds.cfg.Sources.ResultsURL}, nil
	}
	if ds.cfg.Sources.ResultsFile != "" {
		return loader.Source{File: ds.resolveDataFile(ds.cfg.Sources.ResultsFile)}, nil
	}
	latest, err := ds.discovery.Latest("")
	if err != nil {
		return loader.Source{}, fmt.Errorf("no results source configured and %w", err)
	}
	return loader.Source{File: latest.Path}, nil
}

// targetsSource resolves the optional targets table.
func (ds *DataService) targetsSource() (loader.Source, bool) {
	if ds.cfg.Sources.TargetsURL != "" {
		return loader.Source{URL: ds.cfg.Sources.TargetsURL}, true
	}
	if ds.cfg.Sources.TargetsFile != "" {
		return loader.Source{File: ds.resolveDataFile(ds.cfg.Sources.TargetsFile)}, true
	}
	if named, err := ds.discovery.LatestNamed("", "target"); err == nil {
		return loader.Source{File: named.Path}, true
	}
	return loader.Source{}, false
}

func (ds *DataService) resolveDataFile(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return ds.paths.DataPath(name)
}

func (ds *DataService) recordLoad(ctx context.Context, trigger string, dataset *Dataset, elapsed time.Duration) {
	if ds.metrics == nil {
		return
	}
	ds.metrics.PipelineRunsTotal.Add(ctx, 1)
	ds.metrics.PipelineRunDuration.Record(ctx, elapsed.Seconds())
	ds.metrics.RowsProcessedTotal.Add(ctx, int64(dataset.Stats.RowsIn))
	ds.metrics.RecordRowsSkipped(ctx, "blank", int64(dataset.Stats.BlankRows))
	ds.metrics.RecordRowsSkipped(ctx, "unparseable", int64(dataset.Stats.UnparseableResults))
	ds.metrics.RecordRowsSkipped(ctx, "undated", int64(dataset.Stats.UndatedRows))
	ds.metrics.MonthlyPointsCurrent.Record(ctx, int64(dataset.Stats.Points))
	ds.metrics.RecordDatasetReload(ctx, trigger)
}

func sourceLabel(src loader.Source) string {
	if src.URL != "" {
		return src.URL
	}
	return src.File
}

func coalesce(configured, fallback []string) []string {
	if len(configured) > 0 {
		return configured
	}
	return fallback
}
