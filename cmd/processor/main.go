package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"aquatrend/internal/config"
	"aquatrend/internal/dataprocessing"
	"aquatrend/internal/exporter"
	"aquatrend/internal/infrastructure"
	"aquatrend/internal/services"
)

func main() {
	if err := run(); err != nil {
		slog.Error("processing failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	resultsFile := flag.String("results", "", "results export file or URL (defaults to the newest export in the data dir)")
	targetsFile := flag.String("targets", "", "targets export file or URL")
	outCSV := flag.String("out", "monthly.csv", "output CSV file, relative paths land in the reports dir")
	outJSON := flag.String("json", "", "optional JSON output file with points, targets and run statistics")
	perParameter := flag.Bool("per-parameter", false, "additionally write one CSV per parameter")
	flag.Parse()

	// A .env next to the binary is the operator's way of setting AQUA_*
	// variables without touching the shell.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applySourceFlags(cfg, *resultsFile, *targetsFile)

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer infrastructure.CloseLogger()

	paths, err := config.NewPaths(cfg.Paths)
	if err != nil {
		return fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	// Batch runs get a trace ID too, so pipeline log lines correlate
	// the same way server requests do.
	ctx := infrastructure.EnsureTraceID(context.Background())
	data := services.NewDataService(cfg, paths, nil, logger)
	if err := data.Load(ctx, "cli"); err != nil {
		return err
	}

	dataset, err := data.Dataset()
	if err != nil {
		return err
	}

	monthly := exporter.NewMonthlyExporter(paths)
	if err := monthly.ExportMonthlyCSV(dataset.Points, *outCSV); err != nil {
		return err
	}
	if err := monthly.ExportTargetsCSV(dataset.Targets, "targets.csv"); err != nil {
		return err
	}
	if *perParameter {
		if err := monthly.ExportParameterReports(dataset.Points, ""); err != nil {
			return err
		}
	}
	if *outJSON != "" {
		result := &dataprocessing.Result{
			Points:  dataset.Points,
			Targets: dataset.Targets,
			Stats:   dataset.Stats,
		}
		if err := monthly.ExportJSON(result, *outJSON); err != nil {
			return err
		}
	}

	logger.Info("processing complete",
		slog.String("source", dataset.Source),
		slog.Int("rows_in", dataset.Stats.RowsIn),
		slog.Int("readings", dataset.Stats.Readings),
		slog.Int("points", dataset.Stats.Points),
		slog.Int("blank_rows", dataset.Stats.BlankRows),
		slog.Int("unparseable_results", dataset.Stats.UnparseableResults),
		slog.Int("undated_rows", dataset.Stats.UndatedRows),
	)
	return nil
}

// applySourceFlags lets the command line override the configured
// sources. A value that parses as a URL goes in as one.
func applySourceFlags(cfg *config.Config, results, targets string) {
	if results != "" {
		if isURL(results) {
			cfg.Sources.ResultsURL = results
		} else {
			cfg.Sources.ResultsFile = results
		}
	}
	if targets != "" {
		if isURL(targets) {
			cfg.Sources.TargetsURL = targets
		} else {
			cfg.Sources.TargetsFile = targets
		}
	}
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
