/*
scheduler.go - Automated no-show sweeper

PURPOSE:
  Periodically scans for confirmed reservations whose arrival date has
  passed without a check-in and marks them as no-shows, releasing the
  room for the swept dates.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Sweeps reservations where check-in date is at least one day in the past,
    so the guest keeps the whole arrival day to show up
  - Skips reservations that raced into another state between the listing
    and the transition (the desk's state guard rejects them)

CONFIGURATION:
  - CheckInterval: How often to sweep (default: 1 hour)
  - Enabled: Whether the sweeper is active (default: true)

USAGE:
  sweeper := NewNoShowScheduler(store, handler)
  sweeper.Start()
  // ... later
  sweeper.Stop()

SEE ALSO:
  - handlers.go: MarkNoShow endpoint (manual flagging)
  - booking/lifecycle.go: Desk.MarkNoShow
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/sysora/booking-engine/booking"
)

// NoShowScheduler handles automated no-show detection.
type NoShowScheduler struct {
	Store         booking.TxStore
	Handler       *Handler
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewNoShowScheduler creates a new scheduler.
func NewNoShowScheduler(store booking.TxStore, handler *Handler) *NoShowScheduler {
	return &NoShowScheduler{
		Store:         store,
		Handler:       handler,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (ns *NoShowScheduler) Start() {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	if !ns.Enabled {
		log.Println("[NoShowScheduler] Disabled, not starting")
		return
	}

	ns.ticker = time.NewTicker(ns.CheckInterval)
	ns.wg.Add(1)

	go ns.run()

	log.Printf("[NoShowScheduler] Started with check interval: %v", ns.CheckInterval)
}

// Stop stops the scheduler.
func (ns *NoShowScheduler) Stop() {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	if ns.ticker != nil {
		ns.ticker.Stop()
		close(ns.stop)
		ns.wg.Wait()
		log.Println("[NoShowScheduler] Stopped")
	}
}

func (ns *NoShowScheduler) run() {
	defer ns.wg.Done()

	// Run immediately on start
	ns.sweep()

	for {
		select {
		case <-ns.ticker.C:
			ns.sweep()
		case <-ns.stop:
			return
		}
	}
}

// sweep marks overdue confirmed reservations as no-shows. The cutoff is
// yesterday: a guest keeps the whole arrival day to show up.
func (ns *NoShowScheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := booking.DateOf(time.Now().UTC()).AddDays(-1)

	overdue, err := ns.Store.ListOverdueConfirmed(ctx, cutoff)
	if err != nil {
		log.Printf("[NoShowScheduler] Failed to list overdue reservations: %v", err)
		return
	}
	if len(overdue) == 0 {
		return
	}

	var marked int
	for _, r := range overdue {
		if _, err := ns.Handler.Desk.MarkNoShow(ctx, r.ID); err != nil {
			// Already transitioned by the desk in the meantime; skip.
			if booking.IsStateError(err) {
				continue
			}
			log.Printf("[NoShowScheduler] Failed to mark %s as no-show: %v", r.Number, err)
			continue
		}
		marked++
	}

	if marked > 0 {
		log.Printf("[NoShowScheduler] Marked %d reservation(s) as no-show", marked)
	}
}
