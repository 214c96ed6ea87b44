/*
scheduler.go - Automated anchor-refresh scheduler

PURPOSE:
  Periodically sweeps stored recurring sources whose anchor date has fallen
  into the past and advances each anchor to its next occurrence. The engine
  tolerates stale anchors (it clamps them at expansion time), but refreshed
  rows keep list endpoints honest and stop the calculator from re-walking
  the same gap on every forecast.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Only touches recurring sources with a recognized frequency
  - Uses the raw stored anchor, so a source abandoned for years can hit the
    calculator's iteration ceiling; the sweep then parks the anchor at the
    tomorrow fallback and logs it
  - Sources past their end date are left alone

CONFIGURATION:
  - CheckInterval: How often to sweep (default: 6 hours)
  - Enabled: Whether the scheduler is active (default: true)

USAGE:
  scheduler := NewAnchorScheduler(store)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - forecast/recurrence.go: NextOccurrence
  - store/sqlite/sqlite.go: UpdateAnchor
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/warp/cashflow-engine/forecast"
	"github.com/warp/cashflow-engine/store/sqlite"
)

// AnchorScheduler advances stale recurring anchors in the background.
type AnchorScheduler struct {
	Store         *sqlite.Store
	Log           *logrus.Logger
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewAnchorScheduler creates a new scheduler.
func NewAnchorScheduler(store *sqlite.Store) *AnchorScheduler {
	return &AnchorScheduler{
		Store:         store,
		Log:           logrus.StandardLogger(),
		CheckInterval: 6 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (as *AnchorScheduler) Start() {
	as.mu.Lock()
	defer as.mu.Unlock()

	if !as.Enabled {
		as.Log.Info("anchor scheduler disabled, not starting")
		return
	}

	as.ticker = time.NewTicker(as.CheckInterval)
	as.wg.Add(1)

	go as.run()

	as.Log.WithField("interval", as.CheckInterval).Info("anchor scheduler started")
}

// Stop stops the scheduler.
func (as *AnchorScheduler) Stop() {
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.ticker != nil {
		as.ticker.Stop()
		close(as.stop)
		as.wg.Wait()
		as.Log.Info("anchor scheduler stopped")
	}
}

func (as *AnchorScheduler) run() {
	defer as.wg.Done()

	// Run immediately on start
	as.Sweep(context.Background())

	for {
		select {
		case <-as.ticker.C:
			as.Sweep(context.Background())
		case <-as.stop:
			return
		}
	}
}

// Sweep advances every stale recurring anchor once. It returns the number
// of sources updated; RunNow-style manual triggers and tests call it
// directly.
func (as *AnchorScheduler) Sweep(ctx context.Context) int {
	now := forecast.Today()

	sources, err := as.Store.ListAllSources(ctx)
	if err != nil {
		as.Log.WithError(err).Error("anchor sweep: listing sources failed")
		return 0
	}

	updated := 0
	for _, src := range sources {
		next, ok := as.nextAnchor(src, now)
		if next.IsZero() {
			continue
		}
		if !ok {
			as.Log.WithFields(logrus.Fields{
				"source_id": src.ID,
				"anchor":    src.AnchorDate.String(),
			}).Warn("anchor too far in the past to advance cleanly, parking at tomorrow")
		}

		if err := as.Store.UpdateAnchor(ctx, src.ID, next); err != nil {
			as.Log.WithError(err).WithField("source_id", src.ID).Error("anchor sweep: update failed")
			continue
		}
		updated++
	}

	if updated > 0 {
		as.Log.WithField("updated", updated).Info("anchor sweep completed")
	}
	return updated
}

// nextAnchor decides the refreshed anchor for one source. A zero result
// means "leave the row alone".
func (as *AnchorScheduler) nextAnchor(src forecast.Source, now forecast.TimePoint) (forecast.TimePoint, bool) {
	if !src.Recurring {
		return forecast.TimePoint{}, true
	}
	if src.AnchorDate.IsZero() || src.AnchorDate.After(now) {
		return forecast.TimePoint{}, true
	}
	if src.EndDate != nil && src.EndDate.Before(now) {
		return forecast.TimePoint{}, true
	}

	freq, known := forecast.NormalizeFrequency(src.Frequency)
	if !known || !freq.IsRecurring() {
		return forecast.TimePoint{}, true
	}

	next, ok := forecast.NextOccurrence(now, src.AnchorDate, freq)
	if next.Equal(src.AnchorDate) {
		return forecast.TimePoint{}, true
	}
	return next, ok
}

// GetNextRunTime returns when the next scheduled sweep will occur.
func (as *AnchorScheduler) GetNextRunTime() time.Time {
	return time.Now().Add(as.CheckInterval)
}
