/*
Package factory provides JSON to Go dataset conversion.

PURPOSE:
  Converts JSON dataset definitions into forecast sources and adjustments.
  This enables demo and seed data without code changes - a dataset can be
  defined in JSON, stored anywhere, and loaded into the store on demand.

WHY JSON?
  - Non-developers can author demo datasets
  - Easy integration with the scenario loader endpoints
  - Version control for seed data

JSON SCHEMA:
  {
    "name": "household",
    "balance": 3200,
    "incomes": [
      {"id": "salary", "name": "Salary", "amount": 4200,
       "anchor_in_days": 5, "frequency": "monthly", "recurring": true,
       "category": "salary"}
    ],
    "bills": [
      {"id": "rent", "name": "Rent", "amount": 1400,
       "anchor_date": "2025-07-01", "frequency": "monthly",
       "recurring": true, "category": "housing"}
    ],
    "expenses": [...],
    "adjustments": [
      {"id": "refund", "in_days": 3, "amount": 80, "reason": "store refund"}
    ]
  }

DATES:
  Records may use either an absolute "anchor_date" (YYYY-MM-DD) or a
  relative "anchor_in_days" offset from today. Relative offsets keep demo
  datasets fresh no matter when they are loaded. When both are present,
  the absolute date wins.

USAGE:
  factory := NewDatasetFactory()
  dataset, err := factory.ParseDataset(jsonStr)

  // Push into the store
  for _, src := range dataset.Sources() {
      store.SaveSource(ctx, src)
  }

SEE ALSO:
  - forecast/types.go: Source and BalanceAdjustment definitions
  - api/scenarios.go: Demo dataset loaders built on this package
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/warp/cashflow-engine/forecast"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// DatasetJSON is the JSON representation of a seed dataset.
type DatasetJSON struct {
	Name        string           `json:"name"`
	Balance     float64          `json:"balance"`
	Incomes     []SourceJSON     `json:"incomes,omitempty"`
	Bills       []SourceJSON     `json:"bills,omitempty"`
	Expenses    []SourceJSON     `json:"expenses,omitempty"`
	Adjustments []AdjustmentJSON `json:"adjustments,omitempty"`
}

// SourceJSON represents one cash-flow source.
type SourceJSON struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Amount       float64 `json:"amount"`
	AnchorDate   string  `json:"anchor_date,omitempty"`
	AnchorInDays *int    `json:"anchor_in_days,omitempty"`
	Frequency    string  `json:"frequency,omitempty"`
	Recurring    bool    `json:"recurring,omitempty"`
	Category     string  `json:"category,omitempty"`
	EndDate      string  `json:"end_date,omitempty"`
	EndInDays    *int    `json:"end_in_days,omitempty"`
	IsPaid       bool    `json:"is_paid,omitempty"`
}

// AdjustmentJSON represents one balance adjustment.
type AdjustmentJSON struct {
	ID     string  `json:"id"`
	Date   string  `json:"date,omitempty"`
	InDays *int    `json:"in_days,omitempty"`
	Amount float64 `json:"amount"`
	Reason string  `json:"reason,omitempty"`
}

// =============================================================================
// DATASET FACTORY
// =============================================================================

// Dataset is a parsed seed dataset ready to push into a store.
type Dataset struct {
	Name        string
	Balance     float64
	Incomes     []forecast.Source
	Bills       []forecast.Source
	Expenses    []forecast.Source
	Adjustments []forecast.BalanceAdjustment
}

// Sources returns all sources across the three collections.
func (d *Dataset) Sources() []forecast.Source {
	out := make([]forecast.Source, 0, len(d.Incomes)+len(d.Bills)+len(d.Expenses))
	out = append(out, d.Incomes...)
	out = append(out, d.Bills...)
	out = append(out, d.Expenses...)
	return out
}

// DatasetFactory converts JSON datasets to forecast types.
type DatasetFactory struct {
	// now anchors relative offsets; zero means today.
	now forecast.TimePoint
}

// NewDatasetFactory creates a new dataset factory.
func NewDatasetFactory() *DatasetFactory {
	return &DatasetFactory{}
}

// NewDatasetFactoryAt creates a factory with a pinned reference date, for
// deterministic tests.
func NewDatasetFactoryAt(now forecast.TimePoint) *DatasetFactory {
	return &DatasetFactory{now: now}
}

// ParseDataset parses a JSON string into a Dataset.
func (f *DatasetFactory) ParseDataset(jsonStr string) (*Dataset, error) {
	var dj DatasetJSON
	if err := json.Unmarshal([]byte(jsonStr), &dj); err != nil {
		return nil, fmt.Errorf("failed to parse dataset JSON: %w", err)
	}
	return f.FromJSON(dj)
}

// FromJSON converts DatasetJSON to a Dataset.
func (f *DatasetFactory) FromJSON(dj DatasetJSON) (*Dataset, error) {
	now := f.now
	if now.IsZero() {
		now = forecast.Today()
	}

	ds := &Dataset{Name: dj.Name, Balance: dj.Balance}

	var err error
	if ds.Incomes, err = f.parseSources(dj.Incomes, forecast.SourceIncome, now); err != nil {
		return nil, err
	}
	if ds.Bills, err = f.parseSources(dj.Bills, forecast.SourceBill, now); err != nil {
		return nil, err
	}
	if ds.Expenses, err = f.parseSources(dj.Expenses, forecast.SourceExpense, now); err != nil {
		return nil, err
	}
	if ds.Adjustments, err = f.parseAdjustments(dj.Adjustments, now); err != nil {
		return nil, err
	}

	return ds, nil
}

func (f *DatasetFactory) parseSources(records []SourceJSON, kind forecast.SourceKind, now forecast.TimePoint) ([]forecast.Source, error) {
	if len(records) == 0 {
		return nil, nil
	}

	sources := make([]forecast.Source, 0, len(records))
	for _, sj := range records {
		if sj.ID == "" {
			return nil, fmt.Errorf("%s record missing id", kind)
		}

		anchor, err := resolveDate(sj.AnchorDate, sj.AnchorInDays, now)
		if err != nil {
			return nil, fmt.Errorf("source %q: %w", sj.ID, err)
		}
		if anchor.IsZero() {
			return nil, fmt.Errorf("source %q: anchor_date or anchor_in_days required", sj.ID)
		}

		src := forecast.Source{
			ID:         sj.ID,
			Kind:       kind,
			Name:       sj.Name,
			Amount:     sj.Amount,
			AnchorDate: anchor,
			Frequency:  sj.Frequency,
			Recurring:  sj.Recurring,
			Category:   sj.Category,
			IsPaid:     sj.IsPaid,
		}

		end, err := resolveDate(sj.EndDate, sj.EndInDays, now)
		if err != nil {
			return nil, fmt.Errorf("source %q: %w", sj.ID, err)
		}
		if !end.IsZero() {
			src.EndDate = &end
		}

		sources = append(sources, src)
	}
	return sources, nil
}

func (f *DatasetFactory) parseAdjustments(records []AdjustmentJSON, now forecast.TimePoint) ([]forecast.BalanceAdjustment, error) {
	if len(records) == 0 {
		return nil, nil
	}

	adjustments := make([]forecast.BalanceAdjustment, 0, len(records))
	for _, aj := range records {
		if aj.ID == "" {
			return nil, fmt.Errorf("adjustment record missing id")
		}

		date, err := resolveDate(aj.Date, aj.InDays, now)
		if err != nil {
			return nil, fmt.Errorf("adjustment %q: %w", aj.ID, err)
		}
		if date.IsZero() {
			return nil, fmt.Errorf("adjustment %q: date or in_days required", aj.ID)
		}

		adjustments = append(adjustments, forecast.BalanceAdjustment{
			ID:     aj.ID,
			Date:   date,
			Amount: aj.Amount,
			Reason: aj.Reason,
		})
	}
	return adjustments, nil
}

// resolveDate picks the absolute date when given, otherwise the relative
// offset. A zero result means neither was supplied.
func resolveDate(absolute string, inDays *int, now forecast.TimePoint) (forecast.TimePoint, error) {
	if absolute != "" {
		tp, err := forecast.ParseDate(absolute)
		if err != nil {
			return forecast.TimePoint{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD)", absolute)
		}
		return tp, nil
	}
	if inDays != nil {
		return now.AddDays(*inDays), nil
	}
	return forecast.TimePoint{}, nil
}
