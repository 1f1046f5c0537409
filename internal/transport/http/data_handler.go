package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "aquatrend/internal/errors"
	"aquatrend/internal/services"
	"aquatrend/pkg/contracts/domain"
)

// DataHandler serves the processed dataset with RFC 7807 error
// responses.
type DataHandler struct {
	service      DataServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDataHandler creates a new data handler
func NewDataHandler(service DataServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DataHandler {
	return &DataHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "data_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the data routes
func (h *DataHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/monthly", h.GetMonthly)
	r.Get("/types", h.GetTypes)
	r.Get("/parameters", h.GetParameters)
	r.Get("/sites", h.GetSites)
	r.Get("/targets/{parameter}", h.GetTarget)
	r.Get("/stats", h.GetStats)
	r.Post("/reload", h.Reload)

	return r
}

// GetMonthly returns monthly points filtered by the query parameters
// type, parameter, site, from and to (YYYY-MM, inclusive).
func (h *DataHandler) GetMonthly(w http.ResponseWriter, r *http.Request) {
	query := services.Query{
		Type:      r.URL.Query().Get("type"),
		Parameter: r.URL.Query().Get("parameter"),
		Site:      r.URL.Query().Get("site"),
	}

	var ok bool
	if query.From, ok = h.parseMonth(w, r, "from"); !ok {
		return
	}
	if query.To, ok = h.parseMonth(w, r, "to"); !ok {
		return
	}

	points, err := h.service.MonthlyPoints(r.Context(), query)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"points": points,
		"count":  len(points),
	})
}

// GetTypes returns the distinct sample types.
func (h *DataHandler) GetTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.service.Types(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{"types": types})
}

// GetParameters returns the distinct parameters, optionally narrowed by
// the type query parameter.
func (h *DataHandler) GetParameters(w http.ResponseWriter, r *http.Request) {
	parameters, err := h.service.Parameters(r.Context(), r.URL.Query().Get("type"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{"parameters": parameters})
}

// GetSites returns the distinct sites matching the type and parameter
// query parameters.
func (h *DataHandler) GetSites(w http.ResponseWriter, r *http.Request) {
	sites, err := h.service.Sites(r.Context(), r.URL.Query().Get("type"), r.URL.Query().Get("parameter"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{"sites": sites})
}

// GetTarget returns the maximum target for one parameter. Parameters
// without an explicit target report 0.
func (h *DataHandler) GetTarget(w http.ResponseWriter, r *http.Request) {
	parameter := chi.URLParam(r, "parameter")
	if parameter == "" {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("parameter", "parameter name is required"))
		return
	}

	target, err := h.service.Target(r.Context(), parameter)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"parameter":  parameter,
		"max_target": target,
	})
}

// GetStats returns the statistics of the last pipeline run.
func (h *DataHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, loadedAt, err := h.service.Stats(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"stats":     stats,
		"loaded_at": loadedAt,
	})
}

// Reload forces a dataset reload from the configured sources.
func (h *DataHandler) Reload(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Load(r.Context(), "api"); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	stats, loadedAt, err := h.service.Stats(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status":    "reloaded",
		"stats":     stats,
		"loaded_at": loadedAt,
	})
}

// parseMonth reads an optional YYYY-MM query parameter. The second
// return value reports whether handling should continue.
func (h *DataHandler) parseMonth(w http.ResponseWriter, r *http.Request, name string) (domain.Month, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return domain.Month{}, true
	}
	var month domain.Month
	if err := month.UnmarshalText([]byte(raw)); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation(name, "must be a YYYY-MM month"))
		return domain.Month{}, false
	}
	return month, true
}

func (h *DataHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch err {
	case services.ErrNoDataLoaded:
		h.errorHandler.HandleError(w, r, apierrors.ErrDatasetMissing)
	case services.ErrInvalidMonthRange:
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("from", "from month must not be after to month"))
	default:
		h.errorHandler.HandleError(w, r, err)
	}
}
