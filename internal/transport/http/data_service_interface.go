package http

import (
	"context"
	"time"

	"aquatrend/internal/dataprocessing"
	"aquatrend/internal/services"
	"aquatrend/pkg/contracts/domain"
)

// DataServiceInterface is the surface the data handler needs. Defined
// on the consumer side so handlers can be tested against fakes.
type DataServiceInterface interface {
	MonthlyPoints(ctx context.Context, q services.Query) ([]domain.MonthlyPoint, error)
	Types(ctx context.Context) ([]string, error)
	Parameters(ctx context.Context, sampleType string) ([]string, error)
	Sites(ctx context.Context, sampleType, parameter string) ([]string, error)
	Target(ctx context.Context, parameter string) (float64, error)
	Stats(ctx context.Context) (dataprocessing.Stats, time.Time, error)
	Load(ctx context.Context, trigger string) error
}
