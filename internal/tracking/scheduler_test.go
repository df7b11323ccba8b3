package tracking

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestSchedulerPollsAtInterval(t *testing.T) {
	var count atomic.Int64
	s := NewScheduler(20*time.Millisecond,
		func() bool { return true },
		func(context.Context) { count.Add(1) })
	s.Start(context.Background())
	time.Sleep(90 * time.Millisecond)
	s.Stop()

	got := count.Load()
	if got < 3 {
		t.Fatalf("expected at least 3 refreshes, got %d", got)
	}

	time.Sleep(60 * time.Millisecond)
	if after := count.Load(); after != got {
		t.Fatalf("refreshes continued after Stop: %d -> %d", got, after)
	}
}

func TestSchedulerSuspendedWithoutOrderID(t *testing.T) {
	var count atomic.Int64
	s := NewScheduler(10*time.Millisecond,
		func() bool { return false },
		func(context.Context) { count.Add(1) })
	s.Start(context.Background())
	time.Sleep(60 * time.Millisecond)
	s.Stop()

	if got := count.Load(); got != 0 {
		t.Fatalf("expected zero refreshes while suspended, got %d", got)
	}
}

func TestSchedulerWakesOnParamChange(t *testing.T) {
	var has atomic.Bool
	var count atomic.Int64
	s := NewScheduler(10*time.Millisecond,
		has.Load,
		func(context.Context) { count.Add(1) })
	s.Start(context.Background())
	defer s.Stop()

	time.Sleep(30 * time.Millisecond)
	if count.Load() != 0 {
		t.Fatal("refreshed before order id appeared")
	}

	has.Store(true)
	s.Wake()
	deadline := time.Now().Add(200 * time.Millisecond)
	for count.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("scheduler did not resume after Wake")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestFocusTriggersImmediateRefresh(t *testing.T) {
	var count atomic.Int64
	s := NewScheduler(time.Hour,
		func() bool { return true },
		func(context.Context) { count.Add(1) })
	s.Start(context.Background())
	defer s.Stop()

	// first refresh happens on activation
	deadline := time.Now().Add(200 * time.Millisecond)
	for count.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("no activation refresh")
		}
		time.Sleep(5 * time.Millisecond)
	}

	s.Focus()
	deadline = time.Now().Add(200 * time.Millisecond)
	for count.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatal("focus signal did not trigger a refresh")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSchedulerStopIsIdempotent(t *testing.T) {
	s := NewScheduler(time.Hour, func() bool { return true }, func(context.Context) {})
	s.Start(context.Background())
	s.Stop()
	s.Stop()
}

func TestSchedulerHonorsContextCancel(t *testing.T) {
	var count atomic.Int64
	ctx, cancel := context.WithCancel(context.Background())
	s := NewScheduler(10*time.Millisecond,
		func() bool { return true },
		func(context.Context) { count.Add(1) })
	s.Start(ctx)
	time.Sleep(35 * time.Millisecond)
	cancel()
	time.Sleep(20 * time.Millisecond)
	got := count.Load()
	time.Sleep(40 * time.Millisecond)
	if after := count.Load(); after != got {
		t.Fatalf("refreshes continued after ctx cancel: %d -> %d", got, after)
	}
}
