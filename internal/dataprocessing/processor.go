package dataprocessing

import (
	"context"
	"log/slog"

	"aquatrend/pkg/contracts/domain"
)

// Config holds the explicit pipeline configuration. There is no ambient
// state: every knob the pipeline consults is set here at construction.
type Config struct {
	// UnitSuffixes are stripped from raw results before numeric parsing.
	UnitSuffixes []string
	// NonDetectTokens map to a zero reading.
	NonDetectTokens []string
	// DateColumnPriority orders the candidate date columns.
	DateColumnPriority []string
	// StrictComparisons keeps the `<`/`>` operator as an annotation on the
	// reading. The emitted value is the bare magnitude either way.
	StrictComparisons bool
}

// DefaultConfig returns the pipeline configuration used by the CLIs.
func DefaultConfig() Config {
	return Config{
		UnitSuffixes:       DefaultUnitSuffixes,
		NonDetectTokens:    DefaultNonDetectTokens,
		DateColumnPriority: DefaultDateColumns,
	}
}

// Stats counts what happened to the input rows during one run.
// Skips are data-quality findings, never errors.
type Stats struct {
	RowsIn             int `json:"rows_in"`
	BlankRows          int `json:"blank_rows"`
	UnparseableResults int `json:"unparseable_results"`
	UndatedRows        int `json:"undated_rows"`
	Readings           int `json:"readings"`
	Points             int `json:"points"`
}

// Result is the output of one pipeline run.
type Result struct {
	Points  []domain.MonthlyPoint `json:"points"`
	Targets domain.TargetTable    `json:"targets"`
	Stats   Stats                 `json:"stats"`
}

// Pipeline normalizes a raw results table into monthly points. A run is a
// pure, synchronous transformation over tables owned by the caller; the
// pipeline itself performs no I/O.
type Pipeline struct {
	logger *slog.Logger
	parser *ResultParser
	cfg    Config
}

// NewPipeline creates a pipeline from an explicit configuration.
func NewPipeline(logger *slog.Logger, cfg Config) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		logger: logger.With(slog.String("component", "pipeline")),
		parser: NewResultParser(cfg.UnitSuffixes, cfg.NonDetectTokens, cfg.StrictComparisons),
		cfg:    cfg,
	}
}

// Run cleans the results table, aggregates monthly points, and resolves the
// target table. A nil or empty targets table yields an empty mapping, and an
// input with zero valid rows yields an empty result; neither is an error.
func (p *Pipeline) Run(ctx context.Context, results *Table, targets *Table) (*Result, error) {
	res := &Result{Targets: ResolveTargets(targets)}
	if results == nil {
		res.Points = []domain.MonthlyPoint{}
		return res, nil
	}

	schema := ResolveSchema(results, p.cfg.DateColumnPriority)
	if !schema.Result.Present {
		p.logger.WarnContext(ctx, "results table has no result column, emitting empty result",
			slog.Any("header", results.Header))
	}
	if len(schema.DateColumns) == 0 {
		p.logger.WarnContext(ctx, "results table has no date column, emitting empty result",
			slog.Any("header", results.Header))
	}

	readings := p.collectReadings(ctx, results, schema, &res.Stats)
	res.Stats.Readings = len(readings)

	res.Points = AggregateMonthly(readings)
	res.Stats.Points = len(res.Points)

	p.logger.InfoContext(ctx, "pipeline run complete",
		slog.Int("rows_in", res.Stats.RowsIn),
		slog.Int("blank_rows", res.Stats.BlankRows),
		slog.Int("unparseable_results", res.Stats.UnparseableResults),
		slog.Int("undated_rows", res.Stats.UndatedRows),
		slog.Int("readings", res.Stats.Readings),
		slog.Int("points", res.Stats.Points),
		slog.Int("targets", len(res.Targets)))

	return res, nil
}

// collectReadings converts table rows into valid readings, counting skips.
func (p *Pipeline) collectReadings(ctx context.Context, t *Table, schema Schema, stats *Stats) []domain.Reading {
	stats.RowsIn = t.Len()
	readings := make([]domain.Reading, 0, t.Len())

	for row := 0; row < t.Len(); row++ {
		raw := ""
		if schema.Result.Present {
			raw = t.Cell(row, schema.Result.Index)
		}
		if raw == "" && rowIsBlank(t, schema, row) {
			stats.BlankRows++
			continue
		}

		value, cmp, err := p.parser.Parse(raw)
		if err != nil {
			stats.UnparseableResults++
			p.logger.DebugContext(ctx, "skipping unparseable result",
				slog.Int("row", row),
				slog.String("raw_result", raw))
			continue
		}

		sampledAt, ok := ResolveRowDate(t, schema, row)
		if !ok {
			stats.UndatedRows++
			p.logger.DebugContext(ctx, "skipping row without resolvable date",
				slog.Int("row", row))
			continue
		}

		reading := domain.Reading{
			Site:      cellIfPresent(t, schema.Site, row),
			Parameter: cellIfPresent(t, schema.Parameter, row),
			Type:      cellIfPresent(t, schema.Type, row),
			Unit:      cellIfPresent(t, schema.Unit, row),
			SampledAt: sampledAt,
			RawResult: raw,
			Value:     value,
			RowIndex:  row,
		}
		if p.cfg.StrictComparisons && cmp != CompareNone {
			reading.RawResult = cmp.String() + " " + reading.RawResult
		}
		readings = append(readings, reading)
	}

	return readings
}

// cellIfPresent reads an optional column, defaulting to "".
func cellIfPresent(t *Table, col Column, row int) string {
	if !col.Present {
		return ""
	}
	return t.Cell(row, col.Index)
}

// rowIsBlank reports whether every canonical field of the row is empty.
func rowIsBlank(t *Table, schema Schema, row int) bool {
	cols := []Column{schema.Site, schema.Parameter, schema.Result, schema.Type}
	cols = append(cols, schema.DateColumns...)
	for _, col := range cols {
		if col.Present && t.Cell(row, col.Index) != "" {
			return false
		}
	}
	return true
}
