/*
scheduler.go - Automated daily status sweep.

PURPOSE:
  Periodically calls UpdateDailyStatus on every registered facility, the
  HTTP demo surface's equivalent of an operations team running the
  daily batch sweep that realizes all time-dependent effects up to now.
  The facility engine itself has no background goroutine — accrual
  happens only when a caller invokes an operation — so this scheduler
  is that external caller, living entirely in the demo surface.

DESIGN:
  - Runs a background goroutine with a configurable check interval.
  - Each tick, copies the current facility id list and sweeps each one
    independently so one failing facility doesn't block the rest.
  - Drains and archives events after every sweep, same as a handler.

SEE ALSO:
  - handlers.go: UpdateDailyStatus (the manual, single-facility trigger).
  - facility/lifecycle.go: updateDailyStatus, the operation driven here.
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"
)

// DailySweepScheduler runs UpdateDailyStatus across every known facility
// on a fixed interval.
type DailySweepScheduler struct {
	Handler       *Handler
	CheckInterval time.Duration

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewDailySweepScheduler creates a scheduler bound to h with a default
// one-hour check interval (the demo doesn't run for days at a time, so
// an hourly tick is frequent enough to show the sweep working without
// spamming logs).
func NewDailySweepScheduler(h *Handler) *DailySweepScheduler {
	return &DailySweepScheduler{Handler: h, CheckInterval: time.Hour}
}

// Start launches the background goroutine. Safe to call once; a second
// call while already running is a no-op.
func (s *DailySweepScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ticker != nil {
		return
	}
	s.ticker = time.NewTicker(s.CheckInterval)
	s.stop = make(chan struct{})
	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-s.ticker.C:
				s.sweepAll()
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop halts the background goroutine and waits for the in-flight tick,
// if any, to finish.
func (s *DailySweepScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	close(s.stop)
	s.wg.Wait()
	s.ticker = nil
}

func (s *DailySweepScheduler) sweepAll() {
	s.Handler.mu.RLock()
	ids := make([]string, 0, len(s.Handler.facilities))
	for id := range s.Handler.facilities {
		ids = append(ids, id)
	}
	s.Handler.mu.RUnlock()

	ctx := context.Background()
	for _, id := range ids {
		f, ok := s.Handler.facility(id)
		if !ok {
			continue
		}
		if _, err := f.UpdateDailyStatus(); err != nil {
			log.Printf("scheduler: daily sweep failed for %s: %v", id, err)
			continue
		}
		events := f.TakeEvents()
		if len(events) == 0 {
			continue
		}
		if err := s.Handler.store.AppendEvents(ctx, id, events); err != nil {
			log.Printf("scheduler: archive events failed for %s: %v", id, err)
		}
	}
}
