/*
scenario.go - Non-mutating "what-if" overlays

PURPOSE:
  Re-runs the aggregator against a transformed deep copy of the baseline
  inputs: percentage deltas on incomes and expenses, an optional fixed
  recurring monthly outflow, and an optional one-time injected expense.
  The scenario ledger is generated independently rather than diffed or
  patched onto the baseline, so it stays internally consistent even when
  the transform changes item counts or ordering.

GUARANTEES:
  - The caller's baseline collections are never written to; every source is
    copied before transformation (EndDate pointers included).
  - Baseline and scenario share the same starting balance, "now", and
    horizon, so a date-bucket comparison downstream is meaningful.
*/
package forecast

// =============================================================================
// SCENARIO SPEC
// =============================================================================

// defaultOneTimeOffsetDays places an injected expense two weeks out when the
// caller doesn't choose a date.
const defaultOneTimeOffsetDays = 14

// OneTimeExpense is a single injected outflow at a caller-chosen date.
type OneTimeExpense struct {
	Amount float64
	Date   TimePoint // zero = now + 14 days
	Name   string
}

// ScenarioSpec enumerates the supported what-if adjustments. Percentage
// deltas are expressed in points: +10 means "10% more".
type ScenarioSpec struct {
	Name string

	IncomePct  float64
	ExpensePct float64

	// MonthlyExpense adds a synthesized recurring bill-like source.
	MonthlyExpense float64

	OneTime *OneTimeExpense
}

// IsZero reports whether the spec changes anything at all.
func (s ScenarioSpec) IsZero() bool {
	return s.IncomePct == 0 && s.ExpensePct == 0 && s.MonthlyExpense == 0 && s.OneTime == nil
}

// =============================================================================
// OVERLAY
// =============================================================================

// ApplyScenario produces the scenario ledger for the transformed inputs.
// The baseline input collections are left byte-for-byte unchanged.
func (f *Forecaster) ApplyScenario(input ForecastInput, spec ScenarioSpec) []Item {
	return f.Forecast(f.transformed(input, spec))
}

// CompareScenario runs baseline and scenario over the same balance, "now",
// and horizon and hands both ledgers back as separate sequences. Pairing
// them by date bucket for display is the caller's concern.
func (f *Forecaster) CompareScenario(input ForecastInput, spec ScenarioSpec) (baseline, scenario []Item) {
	if input.Now.IsZero() {
		input.Now = Today() // pin so both runs share the same anchor
	}
	baseline = f.Forecast(input)
	scenario = f.Forecast(f.transformed(input, spec))
	return baseline, scenario
}

func (f *Forecaster) transformed(input ForecastInput, spec ScenarioSpec) ForecastInput {
	now := input.Now
	if now.IsZero() {
		now = Today()
	}

	out := input
	out.Now = now
	out.Incomes = copySources(input.Incomes)
	out.Bills = copySources(input.Bills)
	out.Expenses = copySources(input.Expenses)
	out.Adjustments = append([]BalanceAdjustment(nil), input.Adjustments...)

	if spec.IncomePct != 0 {
		scaleAmounts(out.Incomes, spec.IncomePct)
	}
	if spec.ExpensePct != 0 {
		scaleAmounts(out.Expenses, spec.ExpensePct)
	}

	if spec.MonthlyExpense != 0 {
		out.Bills = append(out.Bills, Source{
			ID:         "scenario-monthly",
			Kind:       SourceBill,
			Name:       scenarioName(spec, "Scenario Monthly Expense"),
			Amount:     spec.MonthlyExpense,
			AnchorDate: now,
			Frequency:  string(FreqMonthly),
			Recurring:  true,
			Category:   "scenario",
		})
	}

	if spec.OneTime != nil {
		date := spec.OneTime.Date
		if date.IsZero() {
			date = now.AddDays(defaultOneTimeOffsetDays)
		}
		out.Expenses = append(out.Expenses, Source{
			ID:         "scenario-one-time",
			Kind:       SourceExpense,
			Name:       oneTimeName(spec.OneTime),
			Amount:     spec.OneTime.Amount,
			AnchorDate: date,
			Frequency:  string(FreqOnce),
			Category:   "scenario",
		})
	}

	return out
}

func copySources(sources []Source) []Source {
	if sources == nil {
		return nil
	}
	copied := make([]Source, len(sources))
	for i, src := range sources {
		copied[i] = src
		if src.EndDate != nil {
			end := *src.EndDate
			copied[i].EndDate = &end
		}
	}
	return copied
}

// scaleAmounts applies the percentage delta in decimal space. Non-finite
// amounts pass through untouched; expansion skips them with a typed reason.
func scaleAmounts(sources []Source, pct float64) {
	for i := range sources {
		m, finite := NewMoney(sources[i].Amount)
		if !finite {
			continue
		}
		sources[i].Amount = m.Scale(pct).Float64()
	}
}

func scenarioName(spec ScenarioSpec, fallback string) string {
	if spec.Name != "" {
		return spec.Name
	}
	return fallback
}

func oneTimeName(ot *OneTimeExpense) string {
	if ot.Name != "" {
		return ot.Name
	}
	return "Scenario One-Time Expense"
}
