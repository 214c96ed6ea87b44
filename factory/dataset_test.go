package factory

import (
	"testing"
	"time"

	"github.com/warp/cashflow-engine/forecast"
)

func TestParseDataset_AbsoluteAndRelativeDates(t *testing.T) {
	now := forecast.NewTimePoint(2025, time.July, 1)
	f := NewDatasetFactoryAt(now)

	ds, err := f.ParseDataset(`{
		"name": "mixed",
		"balance": 1500,
		"incomes": [
			{"id": "salary", "name": "Salary", "amount": 4000,
			 "anchor_in_days": 5, "frequency": "monthly", "recurring": true}
		],
		"bills": [
			{"id": "rent", "name": "Rent", "amount": 1200,
			 "anchor_date": "2025-07-01", "frequency": "monthly", "recurring": true,
			 "end_in_days": 180}
		],
		"adjustments": [
			{"id": "refund", "in_days": 3, "amount": 80, "reason": "store refund"}
		]
	}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ds.Name != "mixed" || ds.Balance != 1500 {
		t.Errorf("header fields not carried: %q %v", ds.Name, ds.Balance)
	}

	if len(ds.Incomes) != 1 || !ds.Incomes[0].AnchorDate.Equal(now.AddDays(5)) {
		t.Errorf("relative anchor not resolved against the pinned date")
	}
	if ds.Incomes[0].Kind != forecast.SourceIncome {
		t.Errorf("collection must assign the kind, got %s", ds.Incomes[0].Kind)
	}

	if len(ds.Bills) != 1 {
		t.Fatal("expected one bill")
	}
	if !ds.Bills[0].AnchorDate.Equal(forecast.NewTimePoint(2025, time.July, 1)) {
		t.Errorf("absolute anchor not parsed, got %s", ds.Bills[0].AnchorDate)
	}
	if ds.Bills[0].EndDate == nil || !ds.Bills[0].EndDate.Equal(now.AddDays(180)) {
		t.Error("relative end date not resolved")
	}

	if len(ds.Adjustments) != 1 || !ds.Adjustments[0].Date.Equal(now.AddDays(3)) {
		t.Error("adjustment date not resolved")
	}

	if got := len(ds.Sources()); got != 2 {
		t.Errorf("Sources() should flatten all collections, got %d", got)
	}
}

func TestParseDataset_MissingFieldsRejected(t *testing.T) {
	f := NewDatasetFactoryAt(forecast.NewTimePoint(2025, time.July, 1))

	cases := []struct {
		name string
		json string
	}{
		{"missing id", `{"bills": [{"name": "Rent", "amount": 10, "anchor_in_days": 1}]}`},
		{"missing anchor", `{"bills": [{"id": "rent", "amount": 10}]}`},
		{"bad date format", `{"bills": [{"id": "rent", "amount": 10, "anchor_date": "07/01/2025"}]}`},
		{"adjustment missing date", `{"adjustments": [{"id": "a", "amount": 5}]}`},
		{"malformed json", `{"bills": [`},
	}

	for _, c := range cases {
		if _, err := f.ParseDataset(c.json); err == nil {
			t.Errorf("%s: expected an error", c.name)
		}
	}
}

func TestParseDataset_AbsoluteDateWinsOverRelative(t *testing.T) {
	now := forecast.NewTimePoint(2025, time.July, 1)
	f := NewDatasetFactoryAt(now)

	offset := 30
	ds, err := f.FromJSON(DatasetJSON{
		Expenses: []SourceJSON{{
			ID: "sub", Amount: 15, AnchorDate: "2025-08-15", AnchorInDays: &offset,
		}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ds.Expenses[0].AnchorDate.Equal(forecast.NewTimePoint(2025, time.August, 15)) {
		t.Errorf("absolute date should win, got %s", ds.Expenses[0].AnchorDate)
	}
}
