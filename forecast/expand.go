/*
expand.go - Per-source occurrence expansion

PURPOSE:
  Turns one income/bill/expense record into the concrete dated occurrences
  that fall inside the forecast horizon. One-shots emit a single item at
  their anchor date; recurring records walk forward from max(anchor, now)
  using the recurrence calculator.

BOUNDING:
  Every walk terminates: the occurrence count is capped at
  min(horizonDays, 365) and each step is strictly forward-moving. Short
  horizons (<= 14 days) use a single-occurrence lookahead instead of full
  enumeration, since the caller would truncate the series anyway.

GUARANTEES:
  A valid recurring source with a non-empty horizon always yields at least
  one occurrence; if the date walk produced none, one is synthesized at the
  horizon start and a warning is recorded.

SEE ALSO:
  - recurrence.go: the date walk
  - aggregate.go:  merges expansions from all collections
*/
package forecast

import "fmt"

// shortHorizonDays is the cutoff below which expansion computes only the
// next occurrence instead of enumerating the full series.
const shortHorizonDays = 14

// maxOccurrencesPerSource ceilings the walk for any single record.
const maxOccurrencesPerSource = 365

// ExpandSource produces the ordered occurrences of one record within
// [now, now+horizonDays]. Invalid records are reported in the diagnostics
// and produce no items; they never abort expansion of sibling records.
func ExpandSource(src Source, now TimePoint, horizonDays int) ([]Item, Diagnostics) {
	var diag Diagnostics

	if src.ID == "" {
		diag.skip(src.ID, src.Name, SkipMissingID)
		return nil, diag
	}
	if src.AnchorDate.IsZero() {
		diag.skip(src.ID, src.Name, SkipInvalidDate)
		return nil, diag
	}
	amount, finite := NewMoney(src.Amount)
	if !finite {
		diag.skip(src.ID, src.Name, SkipBadAmount)
		return nil, diag
	}

	signed, kind, known := signedAmount(src.Kind, amount)
	if !known {
		diag.skip(src.ID, src.Name, SkipUnknownKind)
		return nil, diag
	}

	freq, recognized := NormalizeFrequency(src.Frequency)
	if !recognized {
		diag.warn(src.ID, WarnUnknownFrequency, fmt.Sprintf("cadence %q treated as one-shot", src.Frequency))
	}

	// One-shot: exactly one item at the anchor date. Past anchors are
	// clamped to "now", the same forward-only rule recurring anchors get,
	// so the ledger can never start before its opening balance item.
	if !src.Recurring || !freq.IsRecurring() || !recognized {
		at := src.AnchorDate
		if at.Before(now) {
			at = now
		}
		return []Item{occurrence(src, kind, signed, at, 0)}, diag
	}

	items := expandRecurring(src, kind, signed, freq, now, horizonDays, &diag)

	// At-least-one guarantee: a valid recurring source over a non-empty
	// horizon must contribute something the caller can render. EndDate in
	// the past is the one legitimate way to produce nothing.
	if len(items) == 0 && horizonDays > 0 && (src.EndDate == nil || src.EndDate.AfterOrEqual(now)) {
		diag.warn(src.ID, WarnFallbackOccurrence, "walk produced no occurrences; synthesized one at horizon start")
		items = []Item{occurrence(src, kind, signed, now, 0)}
	}

	return items, diag
}

func expandRecurring(src Source, kind ItemKind, signed Money, freq Frequency, now TimePoint, horizonDays int, diag *Diagnostics) []Item {
	horizonEnd := now.AddDays(horizonDays)

	// Past anchors are advanced to "now" before expansion begins, so stale
	// historical recurrences never flood the forecast.
	start := src.AnchorDate
	if start.Before(now) {
		start = now
	}

	first, ok := NextOccurrence(now, start, freq)
	if !ok {
		diag.warn(src.ID, WarnRecurrenceExhausted, "cadence could not reach a future date; falling back to tomorrow")
	}

	// Short horizon: single-occurrence lookahead, no enumerated series.
	if horizonDays <= shortHorizonDays {
		if first.After(horizonEnd) || pastEndDate(src, first) {
			return nil
		}
		return []Item{occurrence(src, kind, signed, first, 0)}
	}

	ceiling := horizonDays
	if ceiling > maxOccurrencesPerSource {
		ceiling = maxOccurrencesPerSource
	}

	var items []Item
	current := first
	for len(items) < ceiling && !current.After(horizonEnd) {
		if pastEndDate(src, current) {
			break
		}
		items = append(items, occurrence(src, kind, signed, current, len(items)))

		stepped := freq.step(current)
		if !stepped.After(current) {
			stepped = current.AddDays(1)
		}
		current = stepped
	}
	return items
}

func pastEndDate(src Source, at TimePoint) bool {
	return src.EndDate != nil && at.After(*src.EndDate)
}

// signedAmount maps a source kind to its ledger sign: income inflows are
// positive, bill and expense outflows are negative regardless of how the
// stored amount was signed.
func signedAmount(kind SourceKind, amount Money) (Money, ItemKind, bool) {
	switch kind {
	case SourceIncome:
		return amount.Abs(), KindIncome, true
	case SourceBill:
		return amount.Abs().Neg(), KindBill, true
	case SourceExpense:
		return amount.Abs().Neg(), KindExpense, true
	default:
		return Money{}, "", false
	}
}

func occurrence(src Source, kind ItemKind, signed Money, at TimePoint, seq int) Item {
	return Item{
		ID:       fmt.Sprintf("%s-%s-%d", src.ID, at, seq),
		Date:     at,
		Amount:   signed,
		Category: src.Category,
		Name:     src.Name,
		Kind:     kind,
	}
}
