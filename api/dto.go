/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Sources:
    SourceDTO, SaveSourceRequest, MarkPaidRequest

  Balance:
    BalanceDTO, SetBalanceRequest

  Adjustments:
    AdjustmentDTO, SaveAdjustmentRequest

  Forecast:
    ForecastResponse, ItemDTO, DiagnosticsDTO, SummaryResponse

  Scenarios:
    ScenarioRequest, ScenarioCompareResponse, DatasetDTO, LoadDatasetRequest

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - forecast/types.go: Domain model these map from
*/
package api

import (
	"github.com/warp/cashflow-engine/forecast"
)

// =============================================================================
// SOURCE TYPES
// =============================================================================

// SourceDTO represents a cash-flow source in API responses.
type SourceDTO struct {
	ID         string  `json:"id"`
	Kind       string  `json:"kind"`
	Name       string  `json:"name"`
	Amount     float64 `json:"amount"`
	AnchorDate string  `json:"anchor_date"`
	Frequency  string  `json:"frequency,omitempty"`
	Recurring  bool    `json:"recurring"`
	Category   string  `json:"category,omitempty"`
	EndDate    *string `json:"end_date,omitempty"`
	IsPaid     bool    `json:"is_paid,omitempty"`
}

// SaveSourceRequest is the request to create or update a source. The kind
// comes from the URL, not the body.
type SaveSourceRequest struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Amount     float64 `json:"amount"`
	AnchorDate string  `json:"anchor_date"`
	Frequency  string  `json:"frequency,omitempty"`
	Recurring  bool    `json:"recurring"`
	Category   string  `json:"category,omitempty"`
	EndDate    string  `json:"end_date,omitempty"`
}

// MarkPaidRequest toggles a bill's paid flag. Missing body means paid=true.
type MarkPaidRequest struct {
	Paid *bool `json:"paid,omitempty"`
}

// =============================================================================
// BALANCE TYPES
// =============================================================================

// BalanceDTO represents the current account balance.
type BalanceDTO struct {
	Balance   float64 `json:"balance"`
	UpdatedAt string  `json:"updated_at"`
}

// SetBalanceRequest overwrites the current balance.
type SetBalanceRequest struct {
	Balance float64 `json:"balance"`
}

// =============================================================================
// ADJUSTMENT TYPES
// =============================================================================

// AdjustmentDTO represents a balance adjustment.
type AdjustmentDTO struct {
	ID     string  `json:"id"`
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
	Reason string  `json:"reason,omitempty"`
}

// SaveAdjustmentRequest creates or updates an adjustment.
type SaveAdjustmentRequest struct {
	ID     string  `json:"id"`
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
	Reason string  `json:"reason,omitempty"`
}

// =============================================================================
// FORECAST TYPES
// =============================================================================

// ItemDTO is one ledger entry in a forecast response.
type ItemDTO struct {
	ID             string  `json:"id"`
	Date           string  `json:"date"`
	Amount         float64 `json:"amount"`
	Category       string  `json:"category,omitempty"`
	Name           string  `json:"name"`
	Kind           string  `json:"kind"`
	RunningBalance float64 `json:"running_balance"`
	Description    string  `json:"description,omitempty"`
}

// SkipDTO reports one dropped record.
type SkipDTO struct {
	SourceID   string `json:"source_id"`
	SourceName string `json:"source_name,omitempty"`
	Reason     string `json:"reason"`
}

// WarningDTO reports one degraded record.
type WarningDTO struct {
	SourceID string `json:"source_id"`
	Code     string `json:"code"`
	Detail   string `json:"detail,omitempty"`
}

// DiagnosticsDTO surfaces what the engine dropped or degraded.
type DiagnosticsDTO struct {
	Skipped   []SkipDTO    `json:"skipped,omitempty"`
	Warnings  []WarningDTO `json:"warnings,omitempty"`
	Recovered bool         `json:"recovered,omitempty"`
}

// ForecastResponse is the full forecast payload.
type ForecastResponse struct {
	HorizonDays int            `json:"horizon_days"`
	GeneratedAt string         `json:"generated_at"`
	Items       []ItemDTO      `json:"items"`
	Diagnostics DiagnosticsDTO `json:"diagnostics"`
}

// MonthlySummaryDTO is one calendar-month bucket.
type MonthlySummaryDTO struct {
	Year       int     `json:"year"`
	Month      int     `json:"month"`
	Inflow     float64 `json:"inflow"`
	Outflow    float64 `json:"outflow"`
	Net        float64 `json:"net"`
	EndBalance float64 `json:"end_balance"`
	Items      int     `json:"items"`
}

// SummaryResponse is the monthly rollup payload.
type SummaryResponse struct {
	HorizonDays int                 `json:"horizon_days"`
	Months      []MonthlySummaryDTO `json:"months"`
}

// =============================================================================
// SCENARIO TYPES
// =============================================================================

// OneTimeExpenseJSON is an injected one-time outflow in a scenario request.
type OneTimeExpenseJSON struct {
	Amount float64 `json:"amount"`
	Date   string  `json:"date,omitempty"` // empty = two weeks out
	Name   string  `json:"name,omitempty"`
}

// ScenarioRequest describes a what-if overlay.
type ScenarioRequest struct {
	Name           string              `json:"name,omitempty"`
	Days           int                 `json:"days,omitempty"`
	IncomePct      float64             `json:"income_pct,omitempty"`
	ExpensePct     float64             `json:"expense_pct,omitempty"`
	MonthlyExpense float64             `json:"monthly_expense,omitempty"`
	OneTime        *OneTimeExpenseJSON `json:"one_time,omitempty"`
	Compare        bool                `json:"compare,omitempty"`
}

// ScenarioCompareResponse carries baseline and scenario ledgers side by side.
type ScenarioCompareResponse struct {
	Name        string    `json:"name,omitempty"`
	HorizonDays int       `json:"horizon_days"`
	Baseline    []ItemDTO `json:"baseline,omitempty"`
	Scenario    []ItemDTO `json:"scenario"`
}

// DatasetDTO describes one loadable demo dataset.
type DatasetDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadDatasetRequest picks a demo dataset to load.
type LoadDatasetRequest struct {
	DatasetID string `json:"dataset_id"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toSourceDTO(src forecast.Source) SourceDTO {
	dto := SourceDTO{
		ID:         src.ID,
		Kind:       string(src.Kind),
		Name:       src.Name,
		Amount:     src.Amount,
		AnchorDate: src.AnchorDate.String(),
		Frequency:  src.Frequency,
		Recurring:  src.Recurring,
		Category:   src.Category,
		IsPaid:     src.IsPaid,
	}
	if src.EndDate != nil {
		s := src.EndDate.String()
		dto.EndDate = &s
	}
	return dto
}

func toSourceDTOs(sources []forecast.Source) []SourceDTO {
	dtos := make([]SourceDTO, len(sources))
	for i, src := range sources {
		dtos[i] = toSourceDTO(src)
	}
	return dtos
}

func toAdjustmentDTOs(adjustments []forecast.BalanceAdjustment) []AdjustmentDTO {
	dtos := make([]AdjustmentDTO, len(adjustments))
	for i, adj := range adjustments {
		dtos[i] = AdjustmentDTO{
			ID:     adj.ID,
			Date:   adj.Date.String(),
			Amount: adj.Amount,
			Reason: adj.Reason,
		}
	}
	return dtos
}

func toItemDTOs(items []forecast.Item) []ItemDTO {
	dtos := make([]ItemDTO, len(items))
	for i, it := range items {
		dtos[i] = ItemDTO{
			ID:             it.ID,
			Date:           it.Date.String(),
			Amount:         it.Amount.Float64(),
			Category:       it.Category,
			Name:           it.Name,
			Kind:           string(it.Kind),
			RunningBalance: it.RunningBalance.Float64(),
			Description:    it.Description,
		}
	}
	return dtos
}

func toDiagnosticsDTO(diag forecast.Diagnostics) DiagnosticsDTO {
	dto := DiagnosticsDTO{Recovered: diag.Recovered}
	for _, s := range diag.Skipped {
		dto.Skipped = append(dto.Skipped, SkipDTO{
			SourceID:   s.SourceID,
			SourceName: s.SourceName,
			Reason:     string(s.Reason),
		})
	}
	for _, w := range diag.Warnings {
		dto.Warnings = append(dto.Warnings, WarningDTO{
			SourceID: w.SourceID,
			Code:     string(w.Code),
			Detail:   w.Detail,
		})
	}
	return dto
}

func toSummaryDTOs(summaries []forecast.MonthlySummary) []MonthlySummaryDTO {
	dtos := make([]MonthlySummaryDTO, len(summaries))
	for i, s := range summaries {
		dtos[i] = MonthlySummaryDTO{
			Year:       s.Year,
			Month:      int(s.Month),
			Inflow:     s.Inflow.Float64(),
			Outflow:    s.Outflow.Float64(),
			Net:        s.Net.Float64(),
			EndBalance: s.EndBalance.Float64(),
			Items:      s.Items,
		}
	}
	return dtos
}
