/*
errors.go - Error types and per-item diagnostics for the forecast engine

PURPOSE:
  The engine must stay resilient to partially malformed data feeds: a single
  bad record never aborts a forecast. Instead of bare catch-and-log, every
  dropped record is recorded as a Skip with a typed reason, and every
  degraded-but-safe decision (unknown cadence, recurrence exhaustion) is
  recorded as a Warning. Tests assert on WHY an item was skipped, not just
  that it disappeared.

ERROR CATEGORIES:
  1. Skips    - records dropped at the item level (missing id, bad date, NaN)
  2. Warnings - records kept with degraded behavior (one-shot fallback, etc.)
  3. Sentinel errors - used by the storage and API layers with errors.Is()

SEE ALSO:
  - expand.go:    produces Skips and Warnings per source
  - aggregate.go: merges per-source diagnostics into one collection
*/
package forecast

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

// ErrSourceNotFound is returned by stores when a referenced record doesn't exist.
var ErrSourceNotFound = errors.New("source not found")

// =============================================================================
// SKIPS - Records dropped at the item level
// =============================================================================

type SkipReason string

const (
	SkipMissingID     SkipReason = "missing_id"
	SkipInvalidDate   SkipReason = "invalid_date"
	SkipBadAmount     SkipReason = "non_finite_amount"
	SkipPaidBill      SkipReason = "paid_bill"
	SkipUnknownKind   SkipReason = "unknown_kind"
	SkipOverRecordCap SkipReason = "over_record_cap"
)

// Skip records one dropped record and why.
type Skip struct {
	SourceID   string
	SourceName string
	Reason     SkipReason
}

func (s Skip) String() string {
	return fmt.Sprintf("skipped %q (%s): %s", s.SourceName, s.SourceID, s.Reason)
}

// =============================================================================
// WARNINGS - Degraded-but-safe decisions
// =============================================================================

type WarningCode string

const (
	// WarnUnknownFrequency: cadence tag not recognized; source treated as one-shot.
	WarnUnknownFrequency WarningCode = "unknown_frequency"

	// WarnRecurrenceExhausted: iteration ceiling hit while fast-forwarding a
	// stale anchor; occurrence fell back to tomorrow.
	WarnRecurrenceExhausted WarningCode = "recurrence_exhausted"

	// WarnFallbackOccurrence: expansion produced zero occurrences for a valid
	// recurring source; one was synthesized at the horizon start.
	WarnFallbackOccurrence WarningCode = "fallback_occurrence"
)

type Warning struct {
	SourceID string
	Code     WarningCode
	Detail   string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s (%s): %s", w.Code, w.SourceID, w.Detail)
}

// =============================================================================
// DIAGNOSTICS - Aggregated per-forecast collection
// =============================================================================

// Diagnostics collects everything the engine decided to skip or degrade
// during one forecast. The ledger itself stays clean; callers that care
// (tests, admin endpoints) inspect this instead.
type Diagnostics struct {
	Skipped  []Skip
	Warnings []Warning

	// Recovered is set when the aggregator trapped a panic and returned the
	// minimal single-item balance ledger.
	Recovered bool
}

func (d *Diagnostics) skip(id, name string, reason SkipReason) {
	d.Skipped = append(d.Skipped, Skip{SourceID: id, SourceName: name, Reason: reason})
}

func (d *Diagnostics) warn(id string, code WarningCode, detail string) {
	d.Warnings = append(d.Warnings, Warning{SourceID: id, Code: code, Detail: detail})
}

func (d *Diagnostics) merge(other Diagnostics) {
	d.Skipped = append(d.Skipped, other.Skipped...)
	d.Warnings = append(d.Warnings, other.Warnings...)
}

// SkippedFor returns the skip reasons recorded for one source id.
func (d Diagnostics) SkippedFor(sourceID string) []SkipReason {
	var reasons []SkipReason
	for _, s := range d.Skipped {
		if s.SourceID == sourceID {
			reasons = append(reasons, s.Reason)
		}
	}
	return reasons
}
