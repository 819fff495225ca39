package navigator

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncerCancelsPending(t *testing.T) {
	sched := &fakeScheduler{}
	d := newDebouncer(200*time.Millisecond, sched.after)

	var runs int
	for i := 0; i < 3; i++ {
		d.Trigger(func() { runs++ })
	}
	if got := sched.pending(); got != 1 {
		t.Fatalf("expected 1 pending run, got %d", got)
	}
	sched.run()
	if runs != 1 {
		t.Errorf("expected 1 run, got %d", runs)
	}
}

func TestDebouncerCancel(t *testing.T) {
	sched := &fakeScheduler{}
	d := newDebouncer(200*time.Millisecond, sched.after)

	var runs int
	d.Trigger(func() { runs++ })
	d.Cancel()
	sched.run()
	if runs != 0 {
		t.Errorf("expected no runs after cancel, got %d", runs)
	}
}

func TestDebouncerRealTimer(t *testing.T) {
	d := newDebouncer(20*time.Millisecond, nil)

	var runs atomic.Int32
	done := make(chan struct{}, 4)
	for i := 0; i < 4; i++ {
		d.Trigger(func() {
			runs.Add(1)
			done <- struct{}{}
		})
		time.Sleep(2 * time.Millisecond)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("debounced function never ran")
	}
	time.Sleep(60 * time.Millisecond)
	if got := runs.Load(); got != 1 {
		t.Errorf("expected 1 run, got %d", got)
	}
}
