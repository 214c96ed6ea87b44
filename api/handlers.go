/*
handlers.go - HTTP API handlers for the cash-flow forecasting service

PURPOSE:
  Exposes the forecast engine and store via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Forecast:
    GET    /api/forecast                Projected ledger over the horizon
    GET    /api/forecast/summary        Monthly inflow/outflow rollup
    POST   /api/forecast/scenario       What-if overlay (optionally compared)

  Sources (same shape for incomes, bills, expenses):
    GET    /api/incomes                 List sources of one kind
    POST   /api/incomes                 Create or update a source
    GET    /api/incomes/{id}            Get one source
    DELETE /api/incomes/{id}            Delete a source
    POST   /api/bills/{id}/paid         Mark a bill paid/unpaid

  Balance:
    GET    /api/balance                 Current balance
    PUT    /api/balance                 Overwrite the balance

  Adjustments:
    GET    /api/adjustments             List adjustments
    POST   /api/adjustments             Create or update an adjustment
    DELETE /api/adjustments/{id}        Delete an adjustment

  Datasets:
    GET    /api/datasets                List demo datasets
    GET    /api/datasets/current        Currently loaded dataset
    POST   /api/datasets/load           Load a demo dataset
    POST   /api/datasets/reset          Clear the database

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store:  Database access
  - Engine: The pure forecast engine
  - Log:    Structured logger

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call domain logic (store, engine)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo dataset loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/warp/cashflow-engine/forecast"
	"github.com/warp/cashflow-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  *sqlite.Store
	Engine *forecast.Forecaster
	Log    *logrus.Logger

	// Track currently loaded demo dataset
	currentDataset string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{
		Store:  store,
		Engine: forecast.NewForecaster(),
		Log:    logrus.StandardLogger(),
	}
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// FORECAST ENDPOINTS
// =============================================================================

// GetForecast returns the projected ledger over the requested horizon.
func (h *Handler) GetForecast(w http.ResponseWriter, r *http.Request) {
	days := parseDays(r)

	input, err := h.Store.LoadForecastInput(r.Context(), days)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load forecast inputs", err)
		return
	}

	items, diag := h.Engine.ForecastWithDiagnostics(input)

	writeJSON(w, http.StatusOK, ForecastResponse{
		HorizonDays: forecast.NormalizeHorizon(days),
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Items:       toItemDTOs(items),
		Diagnostics: toDiagnosticsDTO(diag),
	})
}

// GetForecastSummary returns the forecast bucketed by calendar month.
func (h *Handler) GetForecastSummary(w http.ResponseWriter, r *http.Request) {
	days := parseDays(r)

	input, err := h.Store.LoadForecastInput(r.Context(), days)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load forecast inputs", err)
		return
	}

	items := h.Engine.Forecast(input)

	writeJSON(w, http.StatusOK, SummaryResponse{
		HorizonDays: forecast.NormalizeHorizon(days),
		Months:      toSummaryDTOs(forecast.MonthlySummaries(items)),
	})
}

// RunScenario applies a what-if overlay to the stored data.
func (h *Handler) RunScenario(w http.ResponseWriter, r *http.Request) {
	var req ScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	spec := forecast.ScenarioSpec{
		Name:           req.Name,
		IncomePct:      req.IncomePct,
		ExpensePct:     req.ExpensePct,
		MonthlyExpense: req.MonthlyExpense,
	}
	if req.OneTime != nil {
		ot := forecast.OneTimeExpense{
			Amount: req.OneTime.Amount,
			Name:   req.OneTime.Name,
		}
		if req.OneTime.Date != "" {
			date, err := forecast.ParseDate(req.OneTime.Date)
			if err != nil {
				writeError(w, http.StatusBadRequest, "Invalid one_time date (use YYYY-MM-DD)", err)
				return
			}
			ot.Date = date
		}
		spec.OneTime = &ot
	}

	input, err := h.Store.LoadForecastInput(r.Context(), req.Days)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load forecast inputs", err)
		return
	}

	resp := ScenarioCompareResponse{
		Name:        req.Name,
		HorizonDays: forecast.NormalizeHorizon(req.Days),
	}
	if req.Compare {
		baseline, scenario := h.Engine.CompareScenario(input, spec)
		resp.Baseline = toItemDTOs(baseline)
		resp.Scenario = toItemDTOs(scenario)
	} else {
		resp.Scenario = toItemDTOs(h.Engine.ApplyScenario(input, spec))
	}

	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// SOURCE ENDPOINTS
// =============================================================================

// ListSourcesOf returns a list handler bound to one source kind.
func (h *Handler) ListSourcesOf(kind forecast.SourceKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sources, err := h.Store.ListSources(r.Context(), kind)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to list sources", err)
			return
		}
		writeJSON(w, http.StatusOK, toSourceDTOs(sources))
	}
}

// SaveSourceOf returns a create/update handler bound to one source kind.
func (h *Handler) SaveSourceOf(kind forecast.SourceKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SaveSourceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
		if req.ID == "" {
			writeError(w, http.StatusBadRequest, "Source id is required", nil)
			return
		}
		if req.Name == "" {
			writeError(w, http.StatusBadRequest, "Source name is required", nil)
			return
		}

		anchor, err := forecast.ParseDate(req.AnchorDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid anchor_date format (use YYYY-MM-DD)", err)
			return
		}

		if req.Frequency != "" {
			if _, known := forecast.NormalizeFrequency(req.Frequency); !known {
				writeError(w, http.StatusBadRequest, "Unknown frequency "+strconv.Quote(req.Frequency), nil)
				return
			}
		}

		src := forecast.Source{
			ID:         req.ID,
			Kind:       kind,
			Name:       req.Name,
			Amount:     req.Amount,
			AnchorDate: anchor,
			Frequency:  req.Frequency,
			Recurring:  req.Recurring,
			Category:   req.Category,
		}
		if req.EndDate != "" {
			end, err := forecast.ParseDate(req.EndDate)
			if err != nil {
				writeError(w, http.StatusBadRequest, "Invalid end_date format (use YYYY-MM-DD)", err)
				return
			}
			src.EndDate = &end
		}

		if err := h.Store.SaveSource(r.Context(), src); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save source", err)
			return
		}

		writeJSON(w, http.StatusCreated, toSourceDTO(src))
	}
}

// GetSource returns one source by ID.
func (h *Handler) GetSource(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	src, err := h.Store.GetSource(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get source", err)
		return
	}
	if src == nil {
		writeError(w, http.StatusNotFound, "Source not found", nil)
		return
	}

	writeJSON(w, http.StatusOK, toSourceDTO(*src))
}

// DeleteSource removes a source.
func (h *Handler) DeleteSource(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.Store.DeleteSource(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete source", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

// MarkBillPaid toggles the paid flag on a bill. Paid bills are excluded
// from forecasts until unmarked.
func (h *Handler) MarkBillPaid(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	paid := true
	var req MarkPaidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Paid != nil {
		paid = *req.Paid
	}

	err := h.Store.MarkBillPaid(r.Context(), id, paid)
	if errors.Is(err, forecast.ErrSourceNotFound) {
		writeError(w, http.StatusNotFound, "Bill not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update bill", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"id": id, "is_paid": paid})
}

// =============================================================================
// BALANCE ENDPOINTS
// =============================================================================

// GetBalance returns the current balance.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	balance, updatedAt, err := h.Store.GetBalance(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read balance", err)
		return
	}

	writeJSON(w, http.StatusOK, BalanceDTO{
		Balance:   balance,
		UpdatedAt: updatedAt.Format(time.RFC3339),
	})
}

// SetBalance overwrites the current balance.
func (h *Handler) SetBalance(w http.ResponseWriter, r *http.Request) {
	var req SetBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.Store.SetBalance(r.Context(), req.Balance); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update balance", err)
		return
	}

	writeJSON(w, http.StatusOK, BalanceDTO{
		Balance:   req.Balance,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	})
}

// =============================================================================
// ADJUSTMENT ENDPOINTS
// =============================================================================

// ListAdjustments returns all balance adjustments.
func (h *Handler) ListAdjustments(w http.ResponseWriter, r *http.Request) {
	adjustments, err := h.Store.ListAdjustments(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list adjustments", err)
		return
	}
	writeJSON(w, http.StatusOK, toAdjustmentDTOs(adjustments))
}

// SaveAdjustment creates or updates an adjustment.
func (h *Handler) SaveAdjustment(w http.ResponseWriter, r *http.Request) {
	var req SaveAdjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "Adjustment id is required", nil)
		return
	}

	date, err := forecast.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	adj := forecast.BalanceAdjustment{
		ID:     req.ID,
		Date:   date,
		Amount: req.Amount,
		Reason: req.Reason,
	}
	if err := h.Store.SaveAdjustment(r.Context(), adj); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save adjustment", err)
		return
	}

	writeJSON(w, http.StatusCreated, AdjustmentDTO{
		ID:     adj.ID,
		Date:   adj.Date.String(),
		Amount: adj.Amount,
		Reason: adj.Reason,
	})
}

// DeleteAdjustment removes an adjustment.
func (h *Handler) DeleteAdjustment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.Store.DeleteAdjustment(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete adjustment", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

// =============================================================================
// HELPERS
// =============================================================================

// parseDays reads the ?days query parameter. Zero means "engine default";
// out-of-range values are clamped by the engine, not rejected here.
func parseDays(r *http.Request) int {
	raw := strings.TrimSpace(r.URL.Query().Get("days"))
	if raw == "" {
		return 0
	}
	days, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return days
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
