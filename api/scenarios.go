/*
scenarios.go - Demo dataset loaders for testing and demonstrations

PURPOSE:

	Provides pre-built datasets that populate the database with realistic
	data for testing and demos. Each dataset creates a starting balance plus
	incomes, bills, expenses, and adjustments that exercise specific engine
	behavior.

AVAILABLE DATASETS:

	household:    Salary household with rent, utilities, groceries
	freelancer:   Irregular invoice income against steady outflows
	debt-payoff:  Tight balance with stacked bills and a payoff adjustment

HOW LOADING WORKS:
 1. Reset database (clear all data)
 2. Parse the dataset JSON via the factory
 3. Set the starting balance
 4. Save sources and adjustments

DATASET DATES:

	Datasets use relative offsets (anchor_in_days) so they stay fresh no
	matter when they are loaded.

USAGE VIA API:

	POST /api/datasets/load
	{"dataset_id": "freelancer"}

ADDING NEW DATASETS:
 1. Add to 'datasets' slice with ID, name, description
 2. Add the JSON definition to datasetJSON

NOTE:

	Loading a dataset resets the database. Only use in development/demo
	environments.

SEE ALSO:
  - handlers.go: Shares the Handler and JSON helpers
  - factory/dataset.go: JSON parsing
*/
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/warp/cashflow-engine/factory"
)

// =============================================================================
// DATASET DEFINITIONS
// =============================================================================

var datasets = []DatasetDTO{
	{
		ID:          "household",
		Name:        "Household",
		Description: "Monthly salary with rent, utilities, and weekly groceries",
	},
	{
		ID:          "freelancer",
		Name:        "Freelancer",
		Description: "Irregular invoice income against steady recurring outflows",
	},
	{
		ID:          "debt-payoff",
		Name:        "Debt Payoff",
		Description: "Tight balance, stacked bills, and a one-time payoff adjustment",
	},
}

var datasetJSON = map[string]string{
	"household": `{
		"name": "household",
		"balance": 3200,
		"incomes": [
			{"id": "salary", "name": "Salary", "amount": 4200,
			 "anchor_in_days": 5, "frequency": "monthly", "recurring": true,
			 "category": "salary"}
		],
		"bills": [
			{"id": "rent", "name": "Rent", "amount": 1450,
			 "anchor_in_days": 3, "frequency": "monthly", "recurring": true,
			 "category": "housing"},
			{"id": "electric", "name": "Electric", "amount": 120,
			 "anchor_in_days": 9, "frequency": "monthly", "recurring": true,
			 "category": "utilities"},
			{"id": "internet", "name": "Internet", "amount": 65,
			 "anchor_in_days": 12, "frequency": "monthly", "recurring": true,
			 "category": "utilities"}
		],
		"expenses": [
			{"id": "groceries", "name": "Groceries", "amount": 140,
			 "anchor_in_days": 2, "frequency": "weekly", "recurring": true,
			 "category": "food"},
			{"id": "streaming", "name": "Streaming", "amount": 18,
			 "anchor_in_days": 7, "frequency": "monthly", "recurring": true,
			 "category": "entertainment"}
		]
	}`,

	"freelancer": `{
		"name": "freelancer",
		"balance": 5400,
		"incomes": [
			{"id": "invoice-acme", "name": "Acme Invoice", "amount": 3800,
			 "anchor_in_days": 11},
			{"id": "invoice-globex", "name": "Globex Invoice", "amount": 2200,
			 "anchor_in_days": 34},
			{"id": "retainer", "name": "Retainer", "amount": 900,
			 "anchor_in_days": 1, "frequency": "monthly", "recurring": true,
			 "category": "retainer"}
		],
		"bills": [
			{"id": "rent", "name": "Studio Rent", "amount": 1100,
			 "anchor_in_days": 4, "frequency": "monthly", "recurring": true,
			 "category": "housing"},
			{"id": "insurance", "name": "Health Insurance", "amount": 420,
			 "anchor_in_days": 8, "frequency": "monthly", "recurring": true,
			 "category": "insurance"},
			{"id": "tax-estimate", "name": "Estimated Tax", "amount": 1600,
			 "anchor_in_days": 20, "frequency": "quarterly", "recurring": true,
			 "category": "taxes"}
		],
		"expenses": [
			{"id": "software", "name": "Software Subscriptions", "amount": 85,
			 "anchor_in_days": 6, "frequency": "monthly", "recurring": true,
			 "category": "tools"},
			{"id": "coworking", "name": "Coworking Pass", "amount": 250,
			 "anchor_in_days": 15, "frequency": "monthly", "recurring": true,
			 "category": "workspace"}
		]
	}`,

	"debt-payoff": `{
		"name": "debt-payoff",
		"balance": 650,
		"incomes": [
			{"id": "paycheck", "name": "Paycheck", "amount": 1750,
			 "anchor_in_days": 4, "frequency": "biweekly", "recurring": true,
			 "category": "salary"}
		],
		"bills": [
			{"id": "rent", "name": "Rent", "amount": 950,
			 "anchor_in_days": 2, "frequency": "monthly", "recurring": true,
			 "category": "housing"},
			{"id": "card-min", "name": "Card Minimum", "amount": 180,
			 "anchor_in_days": 10, "frequency": "monthly", "recurring": true,
			 "category": "debt"},
			{"id": "car-loan", "name": "Car Loan", "amount": 310,
			 "anchor_in_days": 14, "frequency": "monthly", "recurring": true,
			 "category": "debt"},
			{"id": "old-gym", "name": "Old Gym Contract", "amount": 45,
			 "anchor_in_days": 6, "frequency": "monthly", "recurring": true,
			 "category": "subscriptions", "end_in_days": 60}
		],
		"expenses": [
			{"id": "groceries", "name": "Groceries", "amount": 95,
			 "anchor_in_days": 3, "frequency": "weekly", "recurring": true,
			 "category": "food"}
		],
		"adjustments": [
			{"id": "card-payoff", "in_days": 25, "amount": -500,
			 "reason": "extra principal payment"}
		]
	}`,
}

// =============================================================================
// DATASET HANDLERS
// =============================================================================

// ListDatasets returns available demo datasets.
func (h *Handler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, datasets)
}

// GetCurrentDataset returns the currently loaded dataset, if any.
func (h *Handler) GetCurrentDataset(w http.ResponseWriter, r *http.Request) {
	if h.currentDataset == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	for _, d := range datasets {
		if d.ID == h.currentDataset {
			writeJSON(w, http.StatusOK, d)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadDataset resets the database and loads the requested demo dataset.
func (h *Handler) LoadDataset(w http.ResponseWriter, r *http.Request) {
	var req LoadDatasetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	jsonStr, ok := datasetJSON[req.DatasetID]
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown dataset "+req.DatasetID, nil)
		return
	}

	if err := h.loadDataset(r.Context(), jsonStr); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load dataset", err)
		return
	}

	h.currentDataset = req.DatasetID
	h.Log.WithField("dataset", req.DatasetID).Info("demo dataset loaded")

	writeJSON(w, http.StatusOK, map[string]any{"loaded": req.DatasetID})
}

// ResetDatabase clears all stored data and reports how many source records
// the reset removed.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	counts, err := h.Store.CountSources(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count sources", err)
		return
	}
	removed := 0
	for _, n := range counts {
		removed += n
	}

	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}

	h.currentDataset = ""
	h.Log.WithField("removed_sources", removed).Info("database reset")
	writeJSON(w, http.StatusOK, map[string]any{"reset": true, "removed_sources": removed})
}

func (h *Handler) loadDataset(ctx context.Context, jsonStr string) error {
	ds, err := factory.NewDatasetFactory().ParseDataset(jsonStr)
	if err != nil {
		return err
	}

	if err := h.Store.Reset(ctx); err != nil {
		return err
	}
	if err := h.Store.SetBalance(ctx, ds.Balance); err != nil {
		return err
	}
	for _, src := range ds.Sources() {
		if err := h.Store.SaveSource(ctx, src); err != nil {
			return err
		}
	}
	for _, adj := range ds.Adjustments {
		if err := h.Store.SaveAdjustment(ctx, adj); err != nil {
			return err
		}
	}
	return nil
}
