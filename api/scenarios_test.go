/*
scenarios_test.go - Unit tests for demo dataset loading

PURPOSE:
	Tests that each dataset correctly sets up the expected state:
	- Balance is set
	- Sources land in the right collections
	- The loaded data forecasts cleanly with no skips

These tests ensure datasets work correctly and can be used as integration tests.
*/
package api

import (
	"context"
	"net/http"
	"testing"
)

func TestLoadDataset_EachDatasetForecastsCleanly(t *testing.T) {
	h, srv := newTestServer(t)
	ctx := context.Background()

	for id := range datasetJSON {
		resp := doJSON(t, http.MethodPost, srv.URL+"/api/datasets/load", LoadDatasetRequest{DatasetID: id})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", id, resp.StatusCode)
		}
		resp.Body.Close()

		input, err := h.Store.LoadForecastInput(ctx, 90)
		if err != nil {
			t.Fatalf("%s: failed to load input: %v", id, err)
		}
		if input.CurrentBalance == 0 {
			t.Errorf("%s: balance not set", id)
		}
		if len(input.Incomes) == 0 || len(input.Bills) == 0 {
			t.Errorf("%s: expected incomes and bills", id)
		}

		items, diag := h.Engine.ForecastWithDiagnostics(input)
		if len(items) < 3 {
			t.Errorf("%s: forecast suspiciously small (%d items)", id, len(items))
		}
		if len(diag.Skipped) != 0 {
			t.Errorf("%s: dataset records were skipped: %v", id, diag.Skipped)
		}
		if diag.Recovered {
			t.Errorf("%s: forecast hit the recovery path", id)
		}
	}
}

func TestLoadDataset_TracksCurrentDataset(t *testing.T) {
	_, srv := newTestServer(t)

	// Nothing loaded yet
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/datasets/current", nil)
	var current *DatasetDTO
	decodeInto(t, resp, &current)
	if current != nil {
		t.Errorf("Expected no current dataset, got %+v", current)
	}

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/datasets/load", LoadDatasetRequest{DatasetID: "household"})
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/datasets/current", nil)
	decodeInto(t, resp, &current)
	if current == nil || current.ID != "household" {
		t.Errorf("Expected household as current, got %+v", current)
	}
}

func TestLoadDataset_UnknownID(t *testing.T) {
	_, srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/datasets/load", LoadDatasetRequest{DatasetID: "nope"})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestResetDatabase_ClearsEverything(t *testing.T) {
	h, srv := newTestServer(t)
	ctx := context.Background()

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/datasets/load", LoadDatasetRequest{DatasetID: "debt-payoff"})
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/datasets/reset", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	var result struct {
		Reset          bool `json:"reset"`
		RemovedSources int  `json:"removed_sources"`
	}
	decodeInto(t, resp, &result)
	if !result.Reset {
		t.Error("Expected reset confirmation")
	}
	if result.RemovedSources == 0 {
		t.Error("Expected the reset to report removed sources")
	}

	sources, err := h.Store.ListAllSources(ctx)
	if err != nil {
		t.Fatalf("Failed to list sources: %v", err)
	}
	if len(sources) != 0 {
		t.Errorf("Expected empty store after reset, got %d sources", len(sources))
	}

	balance, _, err := h.Store.GetBalance(ctx)
	if err != nil {
		t.Fatalf("Failed to read balance: %v", err)
	}
	if balance != 0 {
		t.Errorf("Expected zero balance after reset, got %v", balance)
	}
}
