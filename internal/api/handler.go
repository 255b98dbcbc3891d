package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/Jrdheeraj/tirupati-geoai/internal/core"
	"github.com/Jrdheeraj/tirupati-geoai/internal/domain/model"
	"github.com/Jrdheeraj/tirupati-geoai/internal/export"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
)

type Handler struct {
	service *core.InsightService
	place   string
	logger  *zap.Logger
}

func NewHandler(service *core.InsightService, place string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, place: place, logger: logger}
}

// InsightResponse is a computed run together with its dashboard sentences.
type InsightResponse struct {
	Run       *model.InsightRun `json:"run"`
	Narrative core.Narrative    `json:"narrative"`
}

type statusResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Routes registers every endpoint on a new mux.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.Health)
	mux.HandleFunc("GET /api/insights/{start}/{end}", h.Insights)
	mux.HandleFunc("POST /api/selection/{start}/{end}", h.Select)
	mux.HandleFunc("GET /api/selection", h.Selected)
	mux.HandleFunc("GET /api/report/{start}/{end}", h.Report)
	mux.HandleFunc("GET /api/export/{start}/{end}", h.ExportAnalysis)
	mux.HandleFunc("GET /api/export/{start}/{end}/matrix", h.ExportMatrix)
	mux.HandleFunc("GET /api/export/lulc/{year}", h.ExportLULC)
	mux.HandleFunc("GET /api/confidence/lulc/{year}", h.ConfidenceByClass)
	mux.HandleFunc("GET /api/bounds", h.Bounds)
	mux.HandleFunc("GET /api/history", h.History)
	return mux
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func (h *Handler) Insights(w http.ResponseWriter, r *http.Request) {
	period, ok := h.period(w, r)
	if !ok {
		return
	}

	run, err := h.service.Insights(r.Context(), period)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, InsightResponse{Run: run, Narrative: core.Render(&run.Result, h.place)})
}

// Select makes period the current selection. A request overtaken by a newer one gets 204.
func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	period, ok := h.period(w, r)
	if !ok {
		return
	}

	run, err := h.service.Select(r.Context(), period)
	if errors.Is(err, model.ErrStaleResult) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, InsightResponse{Run: run, Narrative: core.Render(&run.Result, h.place)})
}

func (h *Handler) Selected(w http.ResponseWriter, r *http.Request) {
	run, ok := h.service.Selected()
	if !ok {
		h.writeJSON(w, http.StatusNotFound, statusResponse{Status: "unavailable", Error: "no selection yet"})
		return
	}
	h.writeJSON(w, http.StatusOK, InsightResponse{Run: run, Narrative: core.Render(&run.Result, h.place)})
}

func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	period, ok := h.period(w, r)
	if !ok {
		return
	}

	report, err := h.service.Report(r.Context(), period)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, report)
}

func (h *Handler) ExportAnalysis(w http.ResponseWriter, r *http.Request) {
	period, ok := h.period(w, r)
	if !ok {
		return
	}
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, statusResponse{Status: "error", Error: err.Error()})
		return
	}

	run, change, err := h.service.Analyze(r.Context(), period)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	analysis := &export.Analysis{
		Period:    period,
		Labels:    h.service.Taxonomy().Labels,
		Change:    change,
		Insights:  run.Result,
		Narrative: core.Render(&run.Result, h.place),
	}
	var buf bytes.Buffer
	if err := export.Write(&buf, format, analysis); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeAttachment(w, format.ContentType(), export.AnalysisFilename(h.place, period, format), buf.Bytes())
}

func (h *Handler) ExportMatrix(w http.ResponseWriter, r *http.Request) {
	period, ok := h.period(w, r)
	if !ok {
		return
	}

	change, err := h.service.ChangeData(r.Context(), period)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteMatrixCSV(&buf, h.service.Taxonomy().Labels, change.MatrixArea); err != nil {
		h.writeError(w, r, err)
		return
	}
	filename := fmt.Sprintf("transition_matrix_%d_%d.csv", period.Start, period.End)
	h.writeAttachment(w, export.FormatCSV.ContentType(), filename, buf.Bytes())
}

func (h *Handler) ExportLULC(w http.ResponseWriter, r *http.Request) {
	year, ok := h.year(w, r)
	if !ok {
		return
	}

	resp, err := h.service.LULC(r.Context(), year)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteLULCCSV(&buf, resp); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeAttachment(w, export.FormatCSV.ContentType(), export.LULCFilename(h.place, year), buf.Bytes())
}

func (h *Handler) ConfidenceByClass(w http.ResponseWriter, r *http.Request) {
	year, ok := h.year(w, r)
	if !ok {
		return
	}

	resp, err := h.service.ConfidenceByClass(r.Context(), year)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Bounds(w http.ResponseWriter, r *http.Request) {
	bounds, err := h.service.MapBounds(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"bounds": bounds})
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.writeJSON(w, http.StatusBadRequest, statusResponse{Status: "error", Error: "limit must be a positive integer"})
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	runs, err := h.service.History(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if runs == nil {
		runs = []model.InsightRun{}
	}
	h.writeJSON(w, http.StatusOK, runs)
}

func (h *Handler) period(w http.ResponseWriter, r *http.Request) (model.Period, bool) {
	start, err := strconv.Atoi(r.PathValue("start"))
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, statusResponse{Status: "error", Error: "start year must be an integer"})
		return model.Period{}, false
	}
	end, err := strconv.Atoi(r.PathValue("end"))
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, statusResponse{Status: "error", Error: "end year must be an integer"})
		return model.Period{}, false
	}
	return model.Period{Start: start, End: end}, true
}

func (h *Handler) year(w http.ResponseWriter, r *http.Request) (int, bool) {
	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, statusResponse{Status: "error", Error: "year must be an integer"})
		return 0, false
	}
	return year, true
}

// writeError maps service errors to status codes. Missing data never yields partial numbers.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, model.ErrMissingData):
		h.writeJSON(w, http.StatusNotFound, statusResponse{Status: "unavailable"})
	case errors.Is(err, model.ErrInvalidPeriod):
		h.writeJSON(w, http.StatusBadRequest, statusResponse{Status: "error", Error: err.Error()})
	case errors.Is(err, context.Canceled) && r.Context().Err() != nil:
		// Client went away.
		h.logger.Debug("request cancelled", zap.String("path", r.URL.Path))
	default:
		h.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		h.writeJSON(w, http.StatusInternalServerError, statusResponse{Status: "error", Error: "internal error"})
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("failed to write response", zap.Error(err))
	}
}

func (h *Handler) writeAttachment(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		h.logger.Warn("failed to write attachment", zap.String("filename", filename), zap.Error(err))
	}
}
