/*
Package forecast provides the cash-flow forecasting engine.

PURPOSE:
  This package contains the types and algorithms for projecting an account
  balance over a bounded future horizon. Given a starting balance and
  collections of income, bill, and expense records (each possibly recurring)
  plus one-off balance adjustments, it produces a chronologically sorted
  ledger of projected events with a running balance, and supports additive
  "what-if" scenario overlays that never mutate the baseline inputs.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: A currency amount backed by decimal.Decimal
  - Source: An income, bill, or expense record as read from storage
  - BalanceAdjustment: A one-off correction to the running balance
  - Item: One projected ledger event (the engine's output unit)

DESIGN PRINCIPLES:
  1. Purity: The engine holds no state between calls; "now" is an explicit
     input so forecasts are testable and safe to run concurrently.
  2. Precision: Uses decimal.Decimal to avoid floating-point drift in the
     running balance.
  3. Resilience: Malformed records are skipped with a recorded reason, never
     aborting the batch. See errors.go.

USAGE:
  f := forecast.NewForecaster()
  items := f.Forecast(forecast.ForecastInput{
      CurrentBalance: 1000,
      HorizonDays:    90,
      Bills:          bills,
  })

SEE ALSO:
  - recurrence.go: Frequency normalization and next-occurrence calculation
  - expand.go:     Per-source occurrence expansion
  - aggregate.go:  Merge, sort, and running-balance pass
  - scenario.go:   Non-mutating scenario overlays
*/
package forecast

import (
	"math"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Signed currency amount (single currency by design)
// =============================================================================

type Money struct {
	Value decimal.Decimal
}

// NewMoney converts a float amount to Money.
// Returns ok=false for NaN or infinite inputs, which callers must skip.
func NewMoney(value float64) (Money, bool) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return Money{}, false
	}
	return Money{Value: decimal.NewFromFloat(value)}, true
}

func ZeroMoney() Money { return Money{Value: decimal.Zero} }

func (m Money) Add(o Money) Money              { return Money{Value: m.Value.Add(o.Value)} }
func (m Money) Sub(o Money) Money              { return Money{Value: m.Value.Sub(o.Value)} }
func (m Money) Neg() Money                     { return Money{Value: m.Value.Neg()} }
func (m Money) Abs() Money                     { return Money{Value: m.Value.Abs()} }
func (m Money) Mul(s decimal.Decimal) Money    { return Money{Value: m.Value.Mul(s)} }
func (m Money) IsZero() bool                   { return m.Value.IsZero() }
func (m Money) IsNegative() bool               { return m.Value.IsNegative() }
func (m Money) IsPositive() bool               { return m.Value.IsPositive() }
func (m Money) Equal(o Money) bool             { return m.Value.Equal(o.Value) }
func (m Money) GreaterThan(o Money) bool       { return m.Value.GreaterThan(o.Value) }
func (m Money) LessThan(o Money) bool          { return m.Value.LessThan(o.Value) }
func (m Money) Float64() float64               { f, _ := m.Value.Float64(); return f }
func (m Money) String() string                 { return m.Value.StringFixed(2) }

// Scale applies a percentage delta: Scale(10) adds 10%, Scale(-25) removes 25%.
func (m Money) Scale(pct float64) Money {
	factor := decimal.NewFromInt(100).Add(decimal.NewFromFloat(pct)).Div(decimal.NewFromInt(100))
	return Money{Value: m.Value.Mul(factor)}
}

// =============================================================================
// SOURCE - Income, bill, or expense record (tagged union over a shared shape)
// =============================================================================

// SourceKind discriminates the record type. The shapes overlap heavily, so a
// single struct with a kind tag keeps expansion exhaustive and checkable.
type SourceKind string

const (
	SourceIncome  SourceKind = "income"
	SourceBill    SourceKind = "bill"
	SourceExpense SourceKind = "expense"
)

// Source is one financial record as supplied by the storage layer.
// Amount is the raw stored value; sign is derived from Kind during
// expansion (income inflow, bill/expense outflow).
type Source struct {
	ID         string
	Kind       SourceKind
	Name       string
	Amount     float64
	AnchorDate TimePoint
	Frequency  string // raw cadence tag; normalized by the recurrence calculator
	Recurring  bool
	Category   string
	EndDate    *TimePoint

	// Bills only: paid bills are excluded from expansion entirely.
	IsPaid bool
}

// =============================================================================
// BALANCE ADJUSTMENT - One-off signed correction, never expanded
// =============================================================================

type BalanceAdjustment struct {
	ID     string
	Date   TimePoint
	Amount float64
	Reason string
}

// =============================================================================
// ITEM - One projected ledger event
// =============================================================================

type ItemKind string

const (
	KindBalance    ItemKind = "balance"    // resets the running balance absolutely
	KindIncome     ItemKind = "income"     // inflow
	KindBill       ItemKind = "bill"       // outflow
	KindExpense    ItemKind = "expense"    // outflow
	KindAdjustment ItemKind = "adjustment" // signed one-off correction
	KindMarker     ItemKind = "marker"     // zero-amount display anchor
)

// kindRank orders same-day items deterministically: the balance anchor first,
// inflows before outflows, markers last.
func (k ItemKind) kindRank() int {
	switch k {
	case KindBalance:
		return 0
	case KindIncome:
		return 1
	case KindBill:
		return 2
	case KindExpense:
		return 3
	case KindAdjustment:
		return 4
	case KindMarker:
		return 5
	default:
		return 6
	}
}

// Item is the engine's output unit. Items are constructed per forecast call,
// consumed by the caller, and discarded; they are never persisted.
//
// Invariant: within one ledger, RunningBalance at index i equals
// RunningBalance[i-1] + Amount[i], except balance items (absolute reset)
// and markers (no effect).
type Item struct {
	ID             string
	Date           TimePoint
	Amount         Money // signed: positive inflow, negative outflow
	Category       string
	Name           string
	Kind           ItemKind
	RunningBalance Money
	Description    string
}
