/*
aggregate.go - Forecast assembly: merge, sort, running balance

PURPOSE:
  The top-level entry point of the engine. Expands every source collection,
  folds in one-off balance adjustments, sorts the merged set
  chronologically, and stamps a running balance in a single linear pass.
  The result always starts from a synthetic balance item at "now" and ends
  with a zero-amount marker anchoring the horizon end.

BOUNDING:
  Cost is bounded up front, not cancelled cooperatively: the horizon is
  clamped to (0, 365] days (default 90), each input collection is truncated
  to a horizon-proportional record cap, and the merged ledger is truncated
  to an overall item cap. These are deliberate precision/performance
  trade-offs, not correctness guarantees.

FAILURE POLICY:
  Per-record problems are skipped with a recorded reason (see errors.go).
  A panic anywhere in the assembly is trapped at this boundary and converted
  into the minimal single-item balance ledger: the forecast feeds a
  user-facing chart that must never hard-crash.

ORDERING:
  Same-day ties are broken deterministically by kind rank, then category,
  then id. Sort stability of the platform is never relied upon.

SEE ALSO:
  - expand.go:   per-source expansion
  - scenario.go: re-runs this path against transformed copies
  - reduce.go:   calendar-month bucketing for display
*/
package forecast

import (
	"sort"

	"github.com/sirupsen/logrus"
)

// =============================================================================
// BOUNDS
// =============================================================================

const (
	// DefaultHorizonDays is used when the caller's horizon is absent or invalid.
	DefaultHorizonDays = 90

	// MaxHorizonDays clamps the forward-looking window.
	MaxHorizonDays = 365

	// MaxForecastItems caps the merged ledger, synthetic items included.
	MaxForecastItems = 365

	// maxRecordsPerCollection bounds the per-collection record cap however
	// long the horizon is.
	maxRecordsPerCollection = 250
)

// =============================================================================
// INPUT
// =============================================================================

// ForecastInput carries everything one forecast run needs. All collections
// are read-only to the engine; fresh output structures are allocated per
// call, so concurrent forecasts over different inputs are safe.
type ForecastInput struct {
	CurrentBalance float64
	HorizonDays    int

	// Now anchors the forecast. Zero means "today", but tests and callers
	// that need determinism inject it explicitly.
	Now TimePoint

	Incomes     []Source
	Bills       []Source
	Expenses    []Source
	Adjustments []BalanceAdjustment
}

// =============================================================================
// FORECASTER
// =============================================================================

// Forecaster assembles ledgers. It is stateless apart from its logger and is
// safe for concurrent use.
type Forecaster struct {
	Log *logrus.Logger
}

func NewForecaster() *Forecaster {
	return &Forecaster{Log: logrus.StandardLogger()}
}

// Forecast produces the projected ledger for the input. It never returns an
// error and never panics: on any internal failure the caller receives the
// minimal single-item balance ledger.
func (f *Forecaster) Forecast(input ForecastInput) []Item {
	items, _ := f.ForecastWithDiagnostics(input)
	return items
}

// ForecastWithDiagnostics is Forecast plus the skip/warning collection
// accumulated while assembling the ledger.
func (f *Forecaster) ForecastWithDiagnostics(input ForecastInput) (items []Item, diag Diagnostics) {
	now := input.Now
	if now.IsZero() {
		now = Today()
	}
	balance := normalizeBalance(input.CurrentBalance)
	horizon := NormalizeHorizon(input.HorizonDays)

	defer func() {
		if r := recover(); r != nil {
			f.logger().WithField("panic", r).Error("forecast assembly failed; returning minimal ledger")
			diag.Recovered = true
			items = []Item{balanceItem(now, balance)}
		}
	}()

	working := f.assemble(input, now, balance, horizon, &diag)
	f.report(diag)
	return working, diag
}

func (f *Forecaster) assemble(input ForecastInput, now TimePoint, balance Money, horizon int, diag *Diagnostics) []Item {
	horizonEnd := now.AddDays(horizon)
	recordCap := recordCapFor(horizon)

	var working []Item
	working = f.expandCollection(working, input.Incomes, SourceIncome, now, horizon, recordCap, diag)
	working = f.expandCollection(working, input.Bills, SourceBill, now, horizon, recordCap, diag)
	working = f.expandCollection(working, input.Expenses, SourceExpense, now, horizon, recordCap, diag)
	working = appendAdjustments(working, input.Adjustments, now, diag)

	// Occurrences past the horizon end would break date ordering against the
	// trailing marker; the horizon is the contract, so they are cut here.
	working = withinHorizon(working, horizonEnd)

	sortItems(working)

	// Overall cap, leaving room for the leading balance item and the marker.
	if len(working) > MaxForecastItems-2 {
		working = working[:MaxForecastItems-2]
	}

	ledger := make([]Item, 0, len(working)+2)
	ledger = append(ledger, balanceItem(now, balance))
	ledger = append(ledger, working...)
	ledger = append(ledger, markerItem(horizonEnd))

	stampRunningBalance(ledger, balance)
	return ledger
}

// expandCollection expands one source collection, enforcing the record cap
// and the paid-bill exclusion.
func (f *Forecaster) expandCollection(working []Item, sources []Source, kind SourceKind, now TimePoint, horizon, recordCap int, diag *Diagnostics) []Item {
	for i, src := range sources {
		if i >= recordCap {
			diag.skip(src.ID, src.Name, SkipOverRecordCap)
			continue
		}
		src.Kind = kind
		if kind == SourceBill && src.IsPaid {
			diag.skip(src.ID, src.Name, SkipPaidBill)
			continue
		}

		items, d := ExpandSource(src, now, horizon)
		diag.merge(d)
		working = append(working, items...)
	}
	return working
}

func appendAdjustments(working []Item, adjustments []BalanceAdjustment, now TimePoint, diag *Diagnostics) []Item {
	for _, adj := range adjustments {
		if adj.ID == "" {
			diag.skip(adj.ID, adj.Reason, SkipMissingID)
			continue
		}
		if adj.Date.IsZero() {
			diag.skip(adj.ID, adj.Reason, SkipInvalidDate)
			continue
		}
		amount, finite := NewMoney(adj.Amount)
		if !finite {
			diag.skip(adj.ID, adj.Reason, SkipBadAmount)
			continue
		}

		// Past-dated adjustments still affect the balance, so they are
		// clamped to "now" rather than dropped.
		date := adj.Date
		if date.Before(now) {
			date = now
		}

		working = append(working, Item{
			ID:          "adj-" + adj.ID,
			Date:        date,
			Amount:      amount,
			Category:    "adjustment",
			Name:        adj.Reason,
			Kind:        KindAdjustment,
			Description: adj.Reason,
		})
	}
	return working
}

// =============================================================================
// NORMALIZATION
// =============================================================================

func normalizeBalance(balance float64) Money {
	m, finite := NewMoney(balance)
	if !finite {
		return ZeroMoney()
	}
	return m
}

// NormalizeHorizon clamps a requested horizon to (0, MaxHorizonDays],
// substituting the default for absent or invalid values. Exported so the
// API layer reports the horizon the engine actually used.
func NormalizeHorizon(days int) int {
	if days <= 0 {
		return DefaultHorizonDays
	}
	if days > MaxHorizonDays {
		return MaxHorizonDays
	}
	return days
}

func recordCapFor(horizon int) int {
	limit := 2 * horizon
	if limit < 30 {
		limit = 30
	}
	if limit > maxRecordsPerCollection {
		limit = maxRecordsPerCollection
	}
	return limit
}

// =============================================================================
// SORT + RUNNING BALANCE
// =============================================================================

func withinHorizon(items []Item, horizonEnd TimePoint) []Item {
	kept := items[:0]
	for _, it := range items {
		if !it.Date.After(horizonEnd) {
			kept = append(kept, it)
		}
	}
	return kept
}

// sortItems orders ascending by date with a deterministic tie-break:
// kind rank, then category, then id. Insertion order never matters.
func sortItems(items []Item) {
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Kind.kindRank() != b.Kind.kindRank() {
			return a.Kind.kindRank() < b.Kind.kindRank()
		}
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		return a.ID < b.ID
	})
}

// stampRunningBalance performs the single linear scan over the sorted
// ledger. Balance items reset the accumulator absolutely, markers leave it
// untouched, everything else accumulates. Each item is stamped with the
// value after its own effect, so the pass is idempotent for fixed inputs.
func stampRunningBalance(items []Item, opening Money) {
	acc := opening
	for i := range items {
		switch items[i].Kind {
		case KindBalance:
			acc = items[i].Amount
		case KindMarker:
			// no effect
		default:
			acc = acc.Add(items[i].Amount)
		}
		items[i].RunningBalance = acc
	}
}

// =============================================================================
// SYNTHETIC ITEMS
// =============================================================================

func balanceItem(now TimePoint, balance Money) Item {
	return Item{
		ID:             "balance-current",
		Date:           now,
		Amount:         balance,
		Category:       "balance",
		Name:           "Current Balance",
		Kind:           KindBalance,
		RunningBalance: balance,
	}
}

func markerItem(horizonEnd TimePoint) Item {
	return Item{
		ID:       "horizon-end",
		Date:     horizonEnd,
		Amount:   ZeroMoney(),
		Category: "marker",
		Name:     "Forecast Horizon",
		Kind:     KindMarker,
	}
}

// =============================================================================
// DIAGNOSTIC LOGGING
// =============================================================================

func (f *Forecaster) logger() *logrus.Logger {
	if f.Log != nil {
		return f.Log
	}
	return logrus.StandardLogger()
}

func (f *Forecaster) report(diag Diagnostics) {
	log := f.logger()
	for _, w := range diag.Warnings {
		log.WithFields(logrus.Fields{
			"source_id": w.SourceID,
			"code":      w.Code,
		}).Warn(w.Detail)
	}
	for _, s := range diag.Skipped {
		if s.Reason == SkipPaidBill {
			continue // routine exclusion, not worth a log line
		}
		log.WithFields(logrus.Fields{
			"source_id": s.SourceID,
			"reason":    s.Reason,
		}).Warn("record skipped")
	}
}
