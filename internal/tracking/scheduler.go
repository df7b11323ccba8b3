package tracking

import (
	"context"
	"sync"
	"time"
)

// Scheduler keeps an order snapshot fresh with a fixed-interval re-poll.
// Focus and reconnect signals from the host trigger an immediate refresh.
// No backoff and no jitter: a failed poll keeps the last-good snapshot and
// the next tick runs normally. While no order id is set, polling is
// suspended entirely, not just skipped.
type Scheduler struct {
	interval time.Duration
	hasID    func() bool
	refresh  func(context.Context)

	signals chan struct{}
	resume  chan struct{}
	stop    chan struct{}

	stopOnce sync.Once
}

func NewScheduler(interval time.Duration, hasID func() bool, refresh func(context.Context)) *Scheduler {
	return &Scheduler{
		interval: interval,
		hasID:    hasID,
		refresh:  refresh,
		signals:  make(chan struct{}, 1),
		resume:   make(chan struct{}, 1),
		stop:     make(chan struct{}),
	}
}

// Start launches the polling loop. The loop ends when Stop is called or
// ctx is cancelled, releasing the timer either way.
func (s *Scheduler) Start(ctx context.Context) {
	go s.loop(ctx)
}

// Stop tears the scheduler down. Idempotent.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Focus is the "view regained focus" passthrough signal.
func (s *Scheduler) Focus() { s.notify() }

// Reconnect is the "network came back" passthrough signal.
func (s *Scheduler) Reconnect() { s.notify() }

// Wake re-checks the suspend condition after a parameter change.
func (s *Scheduler) Wake() { s.notify() }

func (s *Scheduler) notify() {
	select {
	case s.signals <- struct{}{}:
	default:
	}
	select {
	case s.resume <- struct{}{}:
	default:
	}
}

func (s *Scheduler) loop(ctx context.Context) {
	for {
		if !s.hasID() {
			// Suspended: no ticker exists until an order id shows up.
			select {
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			case <-s.resume:
				continue
			}
		}

		s.refresh(ctx)
		ticker := time.NewTicker(s.interval)
	active:
		for {
			select {
			case <-ctx.Done():
				ticker.Stop()
				return
			case <-s.stop:
				ticker.Stop()
				return
			case <-ticker.C:
			case <-s.signals:
			}
			if !s.hasID() {
				ticker.Stop()
				break active
			}
			s.refresh(ctx)
		}
	}
}
