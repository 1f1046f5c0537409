// Package dataprocessing implements the result normalization and monthly
// aggregation pipeline for water-quality lab exports.
//
// # Architecture
//
// The package is organized around four components:
//
//  1. ResultParser: turns messy free-text lab results ("<1", "ND",
//     "1,234.5 mg/l") into numeric values
//  2. Date resolution: robust date parsing plus per-row coalescing across
//     duplicate date columns
//  3. AggregateMonthly: picks the last test per site, parameter and month
//  4. ResolveTargets: resolves one max-target value per parameter
//
// Pipeline ties the components together behind an explicit Config. A run is
// a pure function over caller-owned tables:
//
//	pipeline := dataprocessing.NewPipeline(logger, dataprocessing.DefaultConfig())
//	result, err := pipeline.Run(ctx, resultsTable, targetsTable)
//
// # Error Handling
//
// Data-quality problems are never fatal. Rows with unparseable results or no
// resolvable date are skipped and counted in Result.Stats; an entirely empty
// input produces an empty result. Only programming errors surface as errors.
package dataprocessing
