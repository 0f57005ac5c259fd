package api

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gyaneshwarpardhi/plantboard/internal/dashboard"
	"github.com/gyaneshwarpardhi/plantboard/internal/dataset"
	"github.com/gyaneshwarpardhi/plantboard/internal/drilldown"
	"github.com/gyaneshwarpardhi/plantboard/internal/errs"
	"github.com/gyaneshwarpardhi/plantboard/internal/hub"
	"github.com/gyaneshwarpardhi/plantboard/internal/render"
)

// Handler holds all HTTP handler dependencies.
type Handler struct {
	svc   *dashboard.Service
	store *dataset.Store
	hub   *hub.Hub
	mux   *http.ServeMux
}

// New creates an HTTP handler and registers all routes.
func New(svc *dashboard.Service, notices *hub.Hub) http.Handler {
	h := &Handler{svc: svc, store: svc.Store(), hub: notices, mux: http.NewServeMux()}

	h.mux.HandleFunc("GET /v1/controls", h.view(dashboard.ViewControls))
	h.mux.HandleFunc("GET /v1/summary", h.view(dashboard.ViewSummary))
	h.mux.HandleFunc("GET /v1/drilldown", h.view(dashboard.ViewDrilldown))
	h.mux.HandleFunc("GET /v1/production", h.view(dashboard.ViewProduction))
	h.mux.HandleFunc("GET /v1/maintenance", h.view(dashboard.ViewMaintenance))
	h.mux.HandleFunc("GET /v1/incidents", h.view(dashboard.ViewIncidents))
	h.mux.HandleFunc("GET /v1/incidents/timeline", h.view(dashboard.ViewTimeline))
	h.mux.HandleFunc("GET /v1/observations", h.view(dashboard.ViewObservations))
	h.mux.HandleFunc("GET /v1/machines/{machine}/days/{day}", h.daySummary)
	h.mux.HandleFunc("GET /v1/charts/categories.png", h.categoriesChart)
	h.mux.HandleFunc("GET /v1/charts/production.png", h.productionChart)
	h.mux.HandleFunc("GET /v1/dataset", h.datasetStatus)
	h.mux.HandleFunc("POST /v1/dataset/reload", h.reloadDataset)
	h.mux.HandleFunc("GET /v1/ws", h.notices)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(h.mux)
}

// view serves a cached JSON view for the request query.
func (h *Handler) view(v dashboard.View) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.serveView(w, r, v, r.URL.Query())
	}
}

func (h *Handler) serveView(w http.ResponseWriter, r *http.Request, v dashboard.View, params url.Values) {
	q, err := dashboard.ParseQuery(params)
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	body, err := h.svc.JSON(r.Context(), v, q)
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	writeRaw(w, http.StatusOK, body)
}

// GET /v1/machines/{machine}/days/{day}: one machine's day.
func (h *Handler) daySummary(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	params.Set("machine", r.PathValue("machine"))
	params.Set("day", r.PathValue("day"))
	h.serveView(w, r, dashboard.ViewDay, params)
}

// GET /v1/charts/categories.png: category bars for the summary selection.
func (h *Handler) categoriesChart(w http.ResponseWriter, r *http.Request) {
	q, err := dashboard.ParseQuery(r.URL.Query())
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	sum, err := h.svc.Summary(r.Context(), q)
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	var buf bytes.Buffer
	if err := render.Categories(&buf, sum.Series, chartSize(r)); err != nil {
		h.writeFailure(w, err)
		return
	}
	writePNG(w, buf.Bytes())
}

// GET /v1/charts/production.png: production rollup for one product.
func (h *Handler) productionChart(w http.ResponseWriter, r *http.Request) {
	q, err := dashboard.ParseQuery(r.URL.Query())
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	v, err := h.svc.Production(r.Context(), q)
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	var buf bytes.Buffer
	if err := render.Production(&buf, v.Rollup, h.store.Config().Abbreviations, chartSize(r)); err != nil {
		h.writeFailure(w, err)
		return
	}
	writePNG(w, buf.Bytes())
}

func chartSize(r *http.Request) render.Size {
	width, _ := strconv.Atoi(r.URL.Query().Get("width"))
	height, _ := strconv.Atoi(r.URL.Query().Get("height"))
	return render.Size{Width: min(width, 4096), Height: min(height, 4096)}
}

// GET /v1/dataset: snapshot status.
func (h *Handler) datasetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Status())
}

// POST /v1/dataset/reload: re-read the source file now.
func (h *Handler) reloadDataset(w http.ResponseWriter, r *http.Request) {
	snap, changed, err := h.store.Reload(r.Context())
	if err != nil {
		slog.Warn("manual reload failed", "err", errs.Loggable(err))
		h.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reloaded": changed,
		"id":       snap.ID,
		"rows":     snap.Len(),
	})
}

// GET /healthz: always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz: 503 until a snapshot is loaded.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	st := h.store.Status()
	if st.State != dataset.StateReady {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "not_ready",
			"state":  st.State,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ready",
		"snapshot": st.ID,
		"rows":     st.Rows,
	})
}

// writeFailure maps service errors onto status codes. Store errors carry
// the store state so clients can tell a missing file from a bad one.
func (h *Handler) writeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, dashboard.ErrInvalidQuery), errors.Is(err, drilldown.ErrUnknownCategory):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, dataset.ErrSourceNotFound), errors.Is(err, dataset.ErrNoSnapshot):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error(), State: h.store.Status().State})
	default:
		if st := h.store.Status(); st.State != dataset.StateReady {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error(), State: st.State})
			return
		}
		slog.Error("request failed", "err", errs.Loggable(err))
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("internal error: %s", err))
	}
}
