package navigator

import (
	"sync"
	"time"
)

// Timer is the handle returned by a Scheduler
type Timer interface {
	Stop() bool
}

// Scheduler runs fn once after d
type Scheduler func(d time.Duration, fn func()) Timer

func realScheduler(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// debouncer coalesces bursts. Each Trigger cancels the pending run and
// schedules a new one.
type debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	after   Scheduler
	pending Timer
}

func newDebouncer(delay time.Duration, after Scheduler) *debouncer {
	if after == nil {
		after = realScheduler
	}
	return &debouncer{delay: delay, after: after}
}

func (d *debouncer) Trigger(fn func()) {
	d.TriggerAfter(d.delay, fn)
}

func (d *debouncer) TriggerAfter(delay time.Duration, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending != nil {
		d.pending.Stop()
	}
	var t Timer
	t = d.after(delay, func() {
		d.mu.Lock()
		if d.pending == t {
			d.pending = nil
		}
		d.mu.Unlock()
		fn()
	})
	d.pending = t
}

func (d *debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending != nil {
		d.pending.Stop()
		d.pending = nil
	}
}
