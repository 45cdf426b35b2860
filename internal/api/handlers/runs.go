package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wonny/spotcast/internal/contracts"
	"github.com/wonny/spotcast/internal/forecast"
	"github.com/wonny/spotcast/internal/pipeline"
	"github.com/wonny/spotcast/pkg/logger"
)

// DefaultSummaryDays 성과 요약 기본 기간
const DefaultSummaryDays = 7

// Runner 수동 실행 트리거 (pipeline.Runner)
type Runner interface {
	TryRun(ctx context.Context, horizon int) (*contracts.PipelineOutput, error)
}

// RunsHandler handles run-history endpoints and the manual trigger
// ⭐ SSOT: Run API 핸들러는 이 구조체에서만
type RunsHandler struct {
	reader  contracts.RunReader
	runner  Runner
	horizon int
	logger  *logger.Logger
}

// NewRunsHandler creates a new runs handler.
// runner may be nil: POST /api/runs then answers 503.
func NewRunsHandler(reader contracts.RunReader, runner Runner, horizon int, log *logger.Logger) *RunsHandler {
	return &RunsHandler{
		reader:  reader,
		runner:  runner,
		horizon: horizon,
		logger:  log,
	}
}

// ListRuns returns the most recent runs, newest first
// GET /api/runs?limit=50
func (h *RunsHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit", 0)
	if !ok {
		respondError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}

	runs, err := h.reader.RecentRuns(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get recent runs")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve runs")
		return
	}
	if runs == nil {
		runs = []contracts.RunRecord{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// GetValues returns actual vs forecast values of one run
// GET /api/runs/{id}/values
func (h *RunsHandler) GetValues(w http.ResponseWriter, r *http.Request) {
	runID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || runID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid run id")
		return
	}

	values, err := h.reader.ForecastValues(r.Context(), runID)
	if err != nil {
		h.logger.WithError(err).WithField("run_id", runID).Error("Failed to get forecast values")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve forecast values")
		return
	}
	if len(values) == 0 {
		respondError(w, http.StatusNotFound, "run not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"run_id": runID,
		"values": values,
	})
}

// GetSummary returns aggregate error metrics over the last N days
// GET /api/summary?days=7
func (h *RunsHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	days, ok := queryInt(r, "days", DefaultSummaryDays)
	if !ok {
		respondError(w, http.StatusBadRequest, "days must be a positive integer")
		return
	}

	summary, err := h.reader.PerformanceSummary(r.Context(), days)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get performance summary")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve summary")
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// TriggerRequest 수동 실행 요청 (body optional)
type TriggerRequest struct {
	Horizon int `json:"horizon"`
}

// TriggerRun runs the pipeline once, rejecting concurrent triggers
// POST /api/runs
func (h *RunsHandler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	if h.runner == nil {
		respondError(w, http.StatusServiceUnavailable, "manual trigger disabled")
		return
	}

	var req TriggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Horizon == 0 {
		req.Horizon = h.horizon
	}

	out, err := h.runner.TryRun(r.Context(), req.Horizon)
	switch {
	case errors.Is(err, pipeline.ErrRunInProgress):
		respondError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, forecast.ErrInvalidParameter):
		respondError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, forecast.ErrInsufficientData):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		h.logger.WithError(err).Error("Manual forecast run failed")
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, out)
}
