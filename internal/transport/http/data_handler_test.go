package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aquatrend/internal/dataprocessing"
	apierrors "aquatrend/internal/errors"
	"aquatrend/internal/services"
	"aquatrend/pkg/contracts/domain"
)

type fakeDataService struct {
	points   []domain.MonthlyPoint
	targets  domain.TargetTable
	stats    dataprocessing.Stats
	loadedAt time.Time
	loaded   bool

	lastQuery services.Query
	reloads   int
}

func (f *fakeDataService) MonthlyPoints(ctx context.Context, q services.Query) ([]domain.MonthlyPoint, error) {
	if !f.loaded {
		return nil, services.ErrNoDataLoaded
	}
	if !q.From.IsZero() && !q.To.IsZero() && q.To.Before(q.From) {
		return nil, services.ErrInvalidMonthRange
	}
	f.lastQuery = q
	return f.points, nil
}

func (f *fakeDataService) Types(ctx context.Context) ([]string, error) {
	if !f.loaded {
		return nil, services.ErrNoDataLoaded
	}
	return []string{"Borehole", "Tap"}, nil
}

func (f *fakeDataService) Parameters(ctx context.Context, sampleType string) ([]string, error) {
	if !f.loaded {
		return nil, services.ErrNoDataLoaded
	}
	return []string{"Iron", "pH"}, nil
}

func (f *fakeDataService) Sites(ctx context.Context, sampleType, parameter string) ([]string, error) {
	if !f.loaded {
		return nil, services.ErrNoDataLoaded
	}
	return []string{"BH-1"}, nil
}

func (f *fakeDataService) Target(ctx context.Context, parameter string) (float64, error) {
	if !f.loaded {
		return 0, services.ErrNoDataLoaded
	}
	return f.targets.Lookup(parameter), nil
}

func (f *fakeDataService) Stats(ctx context.Context) (dataprocessing.Stats, time.Time, error) {
	if !f.loaded {
		return dataprocessing.Stats{}, time.Time{}, services.ErrNoDataLoaded
	}
	return f.stats, f.loadedAt, nil
}

func (f *fakeDataService) Load(ctx context.Context, trigger string) error {
	f.reloads++
	f.loaded = true
	return nil
}

func newTestHandler(svc DataServiceInterface) *DataHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewDataHandler(svc, logger, apierrors.NewErrorHandler(logger, false))
}

func loadedFake() *fakeDataService {
	return &fakeDataService{
		loaded: true,
		points: []domain.MonthlyPoint{
			{
				Site:      "BH-1",
				Parameter: "Iron",
				Unit:      "mg/l",
				Month:     domain.Month{Year: 2024, Month: time.January},
				SampledAt: time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC),
				Value:     0.25,
			},
		},
		targets:  domain.TargetTable{"Iron": 0.3},
		stats:    dataprocessing.Stats{RowsIn: 10, Readings: 8, Points: 5},
		loadedAt: time.Now(),
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestGetMonthly(t *testing.T) {
	fake := loadedFake()
	handler := newTestHandler(fake)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/monthly?parameter=Iron&site=BH-1&from=2024-01&to=2024-06", nil)
	handler.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(1), body["count"])
	assert.Equal(t, "Iron", fake.lastQuery.Parameter)
	assert.Equal(t, domain.Month{Year: 2024, Month: time.January}, fake.lastQuery.From)
	assert.Equal(t, domain.Month{Year: 2024, Month: time.June}, fake.lastQuery.To)
}

func TestGetMonthly_InvalidMonth(t *testing.T) {
	handler := newTestHandler(loadedFake())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/monthly?from=January", nil)
	handler.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "YYYY-MM")
}

func TestGetMonthly_InvertedRange(t *testing.T) {
	handler := newTestHandler(loadedFake())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/monthly?from=2024-06&to=2024-01", nil)
	handler.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetMonthly_NotLoaded(t *testing.T) {
	handler := newTestHandler(&fakeDataService{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/monthly", nil)
	handler.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "json")
}

func TestGetTarget(t *testing.T) {
	handler := newTestHandler(loadedFake())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/targets/Iron", nil)
	handler.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Iron", body["parameter"])
	assert.Equal(t, 0.3, body["max_target"])
}

func TestGetTarget_NoExplicitTarget(t *testing.T) {
	handler := newTestHandler(loadedFake())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/targets/pH", nil)
	handler.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(0), body["max_target"])
}

func TestGetListEndpoints(t *testing.T) {
	handler := newTestHandler(loadedFake())

	for path, key := range map[string]string{
		"/types":      "types",
		"/parameters": "parameters",
		"/sites":      "sites",
	} {
		rec := httptest.NewRecorder()
		handler.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code, path)
		body := decodeBody(t, rec)
		assert.Contains(t, body, key)
	}
}

func TestGetStats(t *testing.T) {
	handler := newTestHandler(loadedFake())

	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	stats, ok := body["stats"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(10), stats["rows_in"])
}

func TestReload(t *testing.T) {
	fake := loadedFake()
	handler := newTestHandler(fake)

	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/reload", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, fake.reloads)
	body := decodeBody(t, rec)
	assert.Equal(t, "reloaded", body["status"])
}
