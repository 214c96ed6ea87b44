/*
recurrence.go - Frequency normalization and next-occurrence calculation

PURPOSE:
  Computes when a recurring record happens next. Two jobs:
  1. Normalize the cadence tags found in stored records ("Bi-Weekly",
     "bi weekly", "YEARLY") onto the closed Frequency set.
  2. Advance a possibly stale anchor date forward to the first occurrence
     strictly after "now", without stack growth proportional to elapsed
     time: a bounded loop with an explicit iteration ceiling, never
     recursion.

FAILURE BEHAVIOR:
  - Unrecognized cadence: fail soft. NormalizeFrequency reports ok=false and
    callers treat the record as a one-shot at its anchor date.
  - Ceiling hit (anchor absurdly far in the past, or a cadence that cannot
    make progress): fall back to tomorrow. Degraded but safe; the caller
    records a warning.

SEE ALSO:
  - expand.go: drives this calculator once per emitted occurrence
*/
package forecast

import "strings"

// =============================================================================
// FREQUENCY - Closed cadence set
// =============================================================================

type Frequency string

const (
	FreqOnce         Frequency = "once"
	FreqDaily        Frequency = "daily"
	FreqWeekly       Frequency = "weekly"
	FreqBiweekly     Frequency = "biweekly"
	FreqMonthly      Frequency = "monthly"
	FreqQuarterly    Frequency = "quarterly"
	FreqSemiannually Frequency = "semiannually"
	FreqAnnually     Frequency = "annually"
)

// maxAdvanceIterations bounds the stale-date fast-forward loop. A daily
// cadence covers 100 days per call; anything older falls back to tomorrow.
const maxAdvanceIterations = 100

// NormalizeFrequency folds a raw cadence tag onto the closed set.
// Hyphenated, spaced, and underscored spellings collapse ("bi-weekly",
// "bi weekly" -> biweekly). Unrecognized tags return (FreqOnce, false):
// the caller must treat the record as a one-shot.
func NormalizeFrequency(raw string) (Frequency, bool) {
	folded := strings.ToLower(strings.TrimSpace(raw))
	folded = strings.NewReplacer("-", "", " ", "", "_", "").Replace(folded)

	switch folded {
	case "", "once", "onetime", "single":
		// Absent means one-shot, which is a recognized state.
		return FreqOnce, true
	case "daily":
		return FreqDaily, true
	case "weekly":
		return FreqWeekly, true
	case "biweekly", "fortnightly":
		return FreqBiweekly, true
	case "monthly":
		return FreqMonthly, true
	case "quarterly":
		return FreqQuarterly, true
	case "semiannually", "semiannual", "biannually":
		return FreqSemiannually, true
	case "annually", "annual", "yearly":
		return FreqAnnually, true
	default:
		return FreqOnce, false
	}
}

// IsRecurring reports whether the frequency repeats at all.
func (f Frequency) IsRecurring() bool { return f != FreqOnce }

// step applies one fixed calendar increment. Month-based increments preserve
// the day of month, clamped to the target month's length.
func (f Frequency) step(tp TimePoint) TimePoint {
	switch f {
	case FreqDaily:
		return tp.AddDays(1)
	case FreqWeekly:
		return tp.AddDays(7)
	case FreqBiweekly:
		return tp.AddDays(14)
	case FreqMonthly:
		return tp.AddMonths(1)
	case FreqQuarterly:
		return tp.AddMonths(3)
	case FreqSemiannually:
		return tp.AddMonths(6)
	case FreqAnnually:
		return tp.AddYears(1)
	default:
		return tp
	}
}

// =============================================================================
// NEXT OCCURRENCE
// =============================================================================

// NextOccurrence returns the first occurrence of the cadence strictly after
// now, starting from date.
//
//   - A date already strictly in the future is returned unchanged; the
//     calculator only advances stale dates.
//   - A stale date is advanced by repeated fixed increments, capped at
//     maxAdvanceIterations. If the cap is hit without reaching the future,
//     the result is now+1 day and ok=false so the caller can flag the
//     record's cadence as unresolvable.
//   - If an increment fails to move the date at all (a misconfigured
//     cadence), a one-day minimum step guarantees forward progress.
func NextOccurrence(now, date TimePoint, freq Frequency) (next TimePoint, ok bool) {
	if date.After(now) {
		return date, true
	}

	current := date
	for i := 0; i < maxAdvanceIterations; i++ {
		stepped := freq.step(current)
		if !stepped.After(current) {
			// Minimum forward step: prevents infinite walks on cadences
			// that cannot advance (e.g. "once" passed in by mistake).
			stepped = current.AddDays(1)
		}
		current = stepped
		if current.After(now) {
			return current, true
		}
	}

	return now.AddDays(1), false
}
