package dataprocessing

import (
	"sort"

	"aquatrend/pkg/contracts/domain"
)

type monthKey struct {
	site      string
	parameter string
	month     domain.Month
}

// AggregateMonthly selects one representative reading per
// (site, parameter, month): the reading with the latest sample date in that
// month. Identical dates break the tie by input order, last row winning.
// Output is sorted by site, then parameter, then month ascending so report
// files and chart series come out deterministic.
func AggregateMonthly(readings []domain.Reading) []domain.MonthlyPoint {
	best := make(map[monthKey]domain.Reading)

	for _, r := range readings {
		key := monthKey{site: r.Site, parameter: r.Parameter, month: domain.MonthOf(r.SampledAt)}
		cur, ok := best[key]
		if !ok {
			best[key] = r
			continue
		}
		if r.SampledAt.After(cur.SampledAt) {
			best[key] = r
			continue
		}
		if r.SampledAt.Equal(cur.SampledAt) && r.RowIndex > cur.RowIndex {
			best[key] = r
		}
	}

	points := make([]domain.MonthlyPoint, 0, len(best))
	for key, r := range best {
		points = append(points, domain.MonthlyPoint{
			Site:      r.Site,
			Parameter: r.Parameter,
			Type:      r.Type,
			Unit:      r.Unit,
			Month:     key.month,
			SampledAt: r.SampledAt,
			Value:     r.Value,
		})
	}

	sort.Slice(points, func(i, j int) bool {
		if points[i].Site != points[j].Site {
			return points[i].Site < points[j].Site
		}
		if points[i].Parameter != points[j].Parameter {
			return points[i].Parameter < points[j].Parameter
		}
		return points[i].Month.Before(points[j].Month)
	})

	return points
}
