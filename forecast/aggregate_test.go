package forecast_test

import (
	"math"
	"testing"
	"time"

	"github.com/warp/cashflow-engine/forecast"
)

func newTestForecaster() *forecast.Forecaster {
	return forecast.NewForecaster()
}

// assertLedgerInvariants checks the properties every generated ledger must
// hold: non-decreasing dates and a consistent running balance.
func assertLedgerInvariants(t *testing.T, items []forecast.Item) {
	t.Helper()

	for i := 1; i < len(items); i++ {
		if items[i].Date.Before(items[i-1].Date) {
			t.Errorf("dates not monotonic at %d: %s after %s", i, items[i].Date, items[i-1].Date)
		}

		switch items[i].Kind {
		case forecast.KindBalance:
			if !items[i].RunningBalance.Equal(items[i].Amount) {
				t.Errorf("balance item at %d must reset running balance absolutely", i)
			}
		case forecast.KindMarker:
			if !items[i].RunningBalance.Equal(items[i-1].RunningBalance) {
				t.Errorf("marker at %d perturbed the running balance", i)
			}
			if !items[i].Amount.IsZero() {
				t.Errorf("marker at %d carries non-zero amount", i)
			}
		default:
			want := items[i-1].RunningBalance.Add(items[i].Amount)
			if !items[i].RunningBalance.Equal(want) {
				t.Errorf("running balance inconsistent at %d: got %s, want %s", i, items[i].RunningBalance, want)
			}
		}
	}
}

// =============================================================================
// LEDGER ASSEMBLY
// =============================================================================

func TestForecast_MonthlyBillOverNinetyDays(t *testing.T) {
	// GIVEN: balance 1000 and one monthly 500 bill due in 10 days, horizon 90
	// THEN: the ledger opens at 1000, contains ~3 bill occurrences ~30 days
	//       apart, and the balance decreases at each one
	now := date(2025, time.January, 15)
	f := newTestForecaster()

	items := f.Forecast(forecast.ForecastInput{
		CurrentBalance: 1000,
		HorizonDays:    90,
		Now:            now,
		Bills: []forecast.Source{{
			ID:         "rent",
			Name:       "Rent",
			Amount:     500,
			AnchorDate: now.AddDays(10),
			Frequency:  "monthly",
			Recurring:  true,
			Category:   "housing",
		}},
	})

	assertLedgerInvariants(t, items)

	if items[0].Kind != forecast.KindBalance {
		t.Fatalf("ledger must begin with the balance item, got %s", items[0].Kind)
	}
	if !items[0].RunningBalance.Equal(money(1000)) {
		t.Errorf("opening balance should be 1000, got %s", items[0].RunningBalance)
	}

	var bills []forecast.Item
	for _, it := range items {
		if it.Kind == forecast.KindBill {
			bills = append(bills, it)
		}
	}
	if len(bills) != 3 {
		t.Fatalf("expected 3 bill occurrences in 90 days, got %d", len(bills))
	}

	prev := money(1000)
	for _, b := range bills {
		if !b.RunningBalance.LessThan(prev) {
			t.Errorf("balance must decrease at each bill event")
		}
		prev = b.RunningBalance
	}
	final := items[len(items)-1].RunningBalance
	if final.GreaterThan(money(1000)) {
		t.Errorf("final balance %s should not exceed the opening balance", final)
	}
	if !final.Equal(money(-500)) {
		t.Errorf("expected final balance -500.00, got %s", final)
	}
}

func TestForecast_EndsWithHorizonMarker(t *testing.T) {
	now := date(2025, time.April, 1)
	f := newTestForecaster()

	items := f.Forecast(forecast.ForecastInput{CurrentBalance: 250, HorizonDays: 30, Now: now})

	last := items[len(items)-1]
	if last.Kind != forecast.KindMarker {
		t.Fatalf("expected trailing marker, got %s", last.Kind)
	}
	if !last.Date.Equal(now.AddDays(30)) {
		t.Errorf("marker should anchor the horizon end, got %s", last.Date)
	}
	assertLedgerInvariants(t, items)
}

func TestForecast_InvalidHorizonDefaultsToNinety(t *testing.T) {
	// GIVEN: horizon 0 and horizon -5
	// THEN: the aggregator clamps to the 90-day default instead of producing
	//       an empty or invalid forecast
	now := date(2025, time.April, 1)
	f := newTestForecaster()

	for _, horizon := range []int{0, -5} {
		items := f.Forecast(forecast.ForecastInput{CurrentBalance: 100, HorizonDays: horizon, Now: now})
		marker := items[len(items)-1]
		if !marker.Date.Equal(now.AddDays(forecast.DefaultHorizonDays)) {
			t.Errorf("horizon %d: expected default 90-day marker, got %s", horizon, marker.Date)
		}
	}
}

func TestForecast_OversizedHorizonClamped(t *testing.T) {
	now := date(2025, time.April, 1)
	f := newTestForecaster()

	items := f.Forecast(forecast.ForecastInput{CurrentBalance: 100, HorizonDays: 1000, Now: now})
	marker := items[len(items)-1]
	if !marker.Date.Equal(now.AddDays(forecast.MaxHorizonDays)) {
		t.Errorf("expected clamp to 365 days, got marker at %s", marker.Date)
	}
}

func TestForecast_NonFiniteBalanceNormalizedToZero(t *testing.T) {
	now := date(2025, time.April, 1)
	f := newTestForecaster()

	items := f.Forecast(forecast.ForecastInput{CurrentBalance: math.NaN(), HorizonDays: 30, Now: now})
	if !items[0].RunningBalance.IsZero() {
		t.Errorf("NaN balance should normalize to zero, got %s", items[0].RunningBalance)
	}
}

// =============================================================================
// RESILIENCE
// =============================================================================

func TestForecast_BadRecordDoesNotAffectSiblings(t *testing.T) {
	// GIVEN: a bill with no due date alongside a valid income and bill
	// THEN: the bad record is dropped with a reason; the rest of the forecast
	//       is unaffected and still returned
	now := date(2025, time.June, 1)
	f := newTestForecaster()

	items, diag := f.ForecastWithDiagnostics(forecast.ForecastInput{
		CurrentBalance: 500,
		HorizonDays:    60,
		Now:            now,
		Incomes: []forecast.Source{{
			ID: "salary", Amount: 3000, AnchorDate: now.AddDays(5), Frequency: "monthly", Recurring: true,
		}},
		Bills: []forecast.Source{
			{ID: "broken", Amount: 100}, // no due date
			{ID: "power", Amount: 60, AnchorDate: now.AddDays(9), Frequency: "monthly", Recurring: true},
		},
	})

	if !hasSkip(diag, "broken", forecast.SkipInvalidDate) {
		t.Error("expected the broken bill to be skipped with invalid_date")
	}

	var sawSalary, sawPower, sawBroken bool
	for _, it := range items {
		switch it.ID {
		case "broken":
			sawBroken = true
		}
		if it.Kind == forecast.KindIncome {
			sawSalary = true
		}
		if it.Kind == forecast.KindBill {
			sawPower = true
		}
	}
	if sawBroken {
		t.Error("broken record must not appear in the ledger")
	}
	if !sawSalary || !sawPower {
		t.Error("valid siblings must survive a bad record")
	}
	assertLedgerInvariants(t, items)
}

func TestForecast_PaidBillsExcludedEntirely(t *testing.T) {
	now := date(2025, time.June, 1)
	f := newTestForecaster()

	items, diag := f.ForecastWithDiagnostics(forecast.ForecastInput{
		CurrentBalance: 500,
		HorizonDays:    60,
		Now:            now,
		Bills: []forecast.Source{{
			ID:         "paid-off",
			Name:       "Paid Card",
			Amount:     250,
			AnchorDate: now.AddDays(3),
			Frequency:  "monthly",
			Recurring:  true,
			IsPaid:     true,
		}},
	})

	for _, it := range items {
		if it.Kind == forecast.KindBill {
			t.Errorf("paid bill appeared in the ledger at %s", it.Date)
		}
	}
	if !hasSkip(diag, "paid-off", forecast.SkipPaidBill) {
		t.Error("expected a paid-bill skip entry")
	}
}

func TestForecast_PastDatedItemsClampToStart(t *testing.T) {
	// GIVEN: an unpaid one-shot bill anchored 5 days ago and an adjustment
	//        dated 10 days ago
	// THEN: both land on the forecast start, after the opening balance item,
	//       and dates stay monotonic
	now := date(2025, time.June, 15)
	f := newTestForecaster()

	items := f.Forecast(forecast.ForecastInput{
		CurrentBalance: 300,
		HorizonDays:    30,
		Now:            now,
		Bills: []forecast.Source{{
			ID: "overdue", Name: "Overdue Repair", Amount: 120, AnchorDate: now.AddDays(-5),
		}},
		Adjustments: []forecast.BalanceAdjustment{{
			ID: "late-fee", Date: now.AddDays(-10), Amount: -35, Reason: "late fee",
		}},
	})

	assertLedgerInvariants(t, items)

	if items[0].Kind != forecast.KindBalance || !items[0].Date.Equal(now) {
		t.Fatalf("ledger must open with the balance item at %s", now)
	}
	for _, it := range items {
		if it.Date.Before(now) {
			t.Errorf("item %s dated %s precedes the forecast start", it.ID, it.Date)
		}
	}

	bill := firstOfKind(items, forecast.KindBill)
	adj := firstOfKind(items, forecast.KindAdjustment)
	if bill == nil || adj == nil {
		t.Fatal("past-dated records must still contribute items")
	}
	if !bill.Date.Equal(now) || !adj.Date.Equal(now) {
		t.Errorf("past dates should clamp to %s, got bill %s and adjustment %s", now, bill.Date, adj.Date)
	}
}

func TestForecast_EmptyInputsYieldMinimalRenderableLedger(t *testing.T) {
	f := newTestForecaster()
	now := date(2025, time.June, 1)

	items := f.Forecast(forecast.ForecastInput{CurrentBalance: 42, Now: now})
	if len(items) < 1 || items[0].Kind != forecast.KindBalance {
		t.Fatal("caller must always receive a renderable ledger")
	}
	assertLedgerInvariants(t, items)
}

// =============================================================================
// BOUNDS
// =============================================================================

func TestForecast_OutputCappedAt365Items(t *testing.T) {
	// GIVEN: three daily sources over the maximum horizon
	// THEN: the merged ledger never exceeds the documented cap
	now := date(2025, time.January, 1)
	f := newTestForecaster()

	daily := func(id string, kind forecast.SourceKind) forecast.Source {
		return forecast.Source{ID: id, Kind: kind, Amount: 10, AnchorDate: now, Frequency: "daily", Recurring: true}
	}

	items := f.Forecast(forecast.ForecastInput{
		CurrentBalance: 0,
		HorizonDays:    365,
		Now:            now,
		Incomes:        []forecast.Source{daily("a", forecast.SourceIncome)},
		Bills:          []forecast.Source{daily("b", forecast.SourceBill)},
		Expenses:       []forecast.Source{daily("c", forecast.SourceExpense)},
	})

	if len(items) > forecast.MaxForecastItems {
		t.Errorf("ledger exceeds cap: %d items", len(items))
	}
	assertLedgerInvariants(t, items)
}

// =============================================================================
// ORDERING
// =============================================================================

func TestForecast_SameDayTieBreakIsDeterministic(t *testing.T) {
	// GIVEN: an income, a bill, and an adjustment all on the same day
	// THEN: ordering follows kind rank (income, bill, adjustment), not
	//       insertion order
	now := date(2025, time.June, 1)
	day := now.AddDays(10)
	f := newTestForecaster()

	input := forecast.ForecastInput{
		CurrentBalance: 100,
		HorizonDays:    30,
		Now:            now,
		Bills:          []forecast.Source{{ID: "b", Amount: 50, AnchorDate: day}},
		Incomes:        []forecast.Source{{ID: "i", Amount: 200, AnchorDate: day}},
		Adjustments:    []forecast.BalanceAdjustment{{ID: "adj", Date: day, Amount: -10, Reason: "correction"}},
	}

	items := f.Forecast(input)

	var kindsOnDay []forecast.ItemKind
	for _, it := range items {
		if it.Date.Equal(day) {
			kindsOnDay = append(kindsOnDay, it.Kind)
		}
	}

	want := []forecast.ItemKind{forecast.KindIncome, forecast.KindBill, forecast.KindAdjustment}
	if len(kindsOnDay) != len(want) {
		t.Fatalf("expected %d same-day items, got %d", len(want), len(kindsOnDay))
	}
	for i := range want {
		if kindsOnDay[i] != want[i] {
			t.Errorf("position %d: got %s, want %s", i, kindsOnDay[i], want[i])
		}
	}

	// Identical inputs must produce an identical ordering.
	again := f.Forecast(input)
	if len(again) != len(items) {
		t.Fatal("repeated forecast changed item count")
	}
	for i := range items {
		if items[i].ID != again[i].ID {
			t.Errorf("ordering not reproducible at %d: %s vs %s", i, items[i].ID, again[i].ID)
		}
	}
}

func TestForecast_AdjustmentsCarrySignedAmounts(t *testing.T) {
	now := date(2025, time.June, 1)
	f := newTestForecaster()

	items := f.Forecast(forecast.ForecastInput{
		CurrentBalance: 100,
		HorizonDays:    30,
		Now:            now,
		Adjustments: []forecast.BalanceAdjustment{
			{ID: "refund", Date: now.AddDays(2), Amount: 75, Reason: "store refund"},
			{ID: "fee", Date: now.AddDays(4), Amount: -25, Reason: "bank fee"},
		},
	})

	var got []forecast.Money
	for _, it := range items {
		if it.Kind == forecast.KindAdjustment {
			got = append(got, it.Amount)
		}
	}
	if len(got) != 2 || !got[0].Equal(money(75)) || !got[1].Equal(money(-25)) {
		t.Errorf("adjustments must keep their signed amounts, got %v", got)
	}
	assertLedgerInvariants(t, items)
}
