package forecast_test

import (
	"testing"
	"time"

	"github.com/warp/cashflow-engine/forecast"
)

func TestMonthlySummaries_BucketsFlowsByCalendarMonth(t *testing.T) {
	// GIVEN: a 90-day ledger spanning three calendar months
	// THEN: each month's inflow/outflow/net is bucketed separately and the
	//       end balance tracks the last item in the month
	now := date(2025, time.January, 10)
	f := newTestForecaster()

	items := f.Forecast(forecast.ForecastInput{
		CurrentBalance: 1000,
		HorizonDays:    90,
		Now:            now,
		Incomes: []forecast.Source{{
			ID: "salary", Amount: 2000, AnchorDate: now.AddDays(5), Frequency: "monthly", Recurring: true,
		}},
		Bills: []forecast.Source{{
			ID: "rent", Amount: 800, AnchorDate: now.AddDays(3), Frequency: "monthly", Recurring: true,
		}},
	})

	summaries := forecast.MonthlySummaries(items)
	if len(summaries) < 3 {
		t.Fatalf("expected at least 3 month buckets, got %d", len(summaries))
	}

	first := summaries[0]
	if first.Year != 2025 || first.Month != time.January {
		t.Fatalf("expected January 2025 first, got %d-%s", first.Year, first.Month)
	}
	if !first.Inflow.Equal(money(2000)) {
		t.Errorf("January inflow should be 2000, got %s", first.Inflow)
	}
	if !first.Outflow.Equal(money(800)) {
		t.Errorf("January outflow should be 800 (positive magnitude), got %s", first.Outflow)
	}
	if !first.Net.Equal(money(1200)) {
		t.Errorf("January net should be 1200, got %s", first.Net)
	}
	if !first.EndBalance.Equal(money(2200)) {
		t.Errorf("January end balance should be 2200, got %s", first.EndBalance)
	}

	for i := 1; i < len(summaries); i++ {
		prev, cur := summaries[i-1], summaries[i]
		if cur.Year < prev.Year || (cur.Year == prev.Year && cur.Month <= prev.Month) {
			t.Errorf("summaries out of order at %d", i)
		}
	}
}

func TestMonthlySummaries_BalanceAndMarkerAreFlowNeutral(t *testing.T) {
	now := date(2025, time.March, 1)
	f := newTestForecaster()

	// No sources at all: the ledger is just the balance item and the marker.
	items := f.Forecast(forecast.ForecastInput{CurrentBalance: 300, HorizonDays: 30, Now: now})

	summaries := forecast.MonthlySummaries(items)
	for _, s := range summaries {
		if !s.Inflow.IsZero() || !s.Outflow.IsZero() || s.Items != 0 {
			t.Errorf("%d-%s: structural items must not count as flows", s.Year, s.Month)
		}
		if !s.EndBalance.Equal(money(300)) {
			t.Errorf("%d-%s: end balance should carry through as 300, got %s", s.Year, s.Month, s.EndBalance)
		}
	}
}

func TestMonthlySummaries_EmptyLedger(t *testing.T) {
	if got := forecast.MonthlySummaries(nil); len(got) != 0 {
		t.Errorf("expected no buckets for an empty ledger, got %d", len(got))
	}
}
