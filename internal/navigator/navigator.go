// Package navigator keeps a keyboard cursor over the result links of a search
// results page. The candidate list is rebuilt from the live document on every
// change, and the cursor follows the selected element across rebuilds.
package navigator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/v0xg/resultnav/internal/selectors"
)

// State is the lifecycle state of a Navigator
type State int

const (
	StateDetached State = iota
	StateAttaching
	StateActive
	StateInert
)

func (s State) String() string {
	switch s {
	case StateDetached:
		return "detached"
	case StateAttaching:
		return "attaching"
	case StateActive:
		return "active"
	case StateInert:
		return "inert"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Defaults used when Options leaves a field zero
const (
	DefaultMargin       = 100.0
	DefaultDebounce     = 200 * time.Millisecond
	DefaultInitialDelay = 300 * time.Millisecond
)

// Options configures a Navigator
type Options struct {
	Selectors    *selectors.Set
	Margin       float64       // visibility margin in px
	Debounce     time.Duration // mutation coalescing window
	InitialDelay time.Duration // wait before the first scan after activation
	Logger       *slog.Logger

	// After schedules deferred work. Defaults to time.AfterFunc.
	After Scheduler

	// OnSelect is called with the lock held after every placement. It must
	// not call back into the Navigator.
	OnSelect func(index int, c Candidate)
}

// Navigator owns the candidate list and cursor for one document
type Navigator struct {
	doc      Document
	events   Events
	settings Settings
	opts     Options
	log      *slog.Logger

	mu      sync.Mutex
	ctx     context.Context
	state   State
	enabled bool
	list    []Candidate
	cursor  int
	marked  string // id of the node carrying the indicator

	stopLifecycle func()
	stopSettings  func()
	stopInput     func()

	pending *debouncer
}

// New creates a detached Navigator
func New(doc Document, events Events, settings Settings, opts Options) *Navigator {
	if opts.Selectors == nil {
		opts.Selectors = selectors.Default()
	}
	if opts.Margin <= 0 {
		opts.Margin = DefaultMargin
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = DefaultInitialDelay
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Navigator{
		doc:      doc,
		events:   events,
		settings: settings,
		opts:     opts,
		log:      logger.With("component", "navigator"),
		ctx:      context.Background(),
		cursor:   Unset,
		pending:  newDebouncer(opts.Debounce, opts.After),
	}
}

// Attach registers lifecycle and settings listeners and evaluates the
// enabled flag. Attaching an attached navigator is a no-op.
func (n *Navigator) Attach(ctx context.Context) error {
	n.mu.Lock()
	if n.state != StateDetached {
		n.mu.Unlock()
		return nil
	}
	n.ctx = ctx
	n.state = StateAttaching
	n.mu.Unlock()

	stopLifecycle, err := n.events.WatchLifecycle(ctx, func(reason string) {
		n.log.Debug("lifecycle event", "reason", reason)
		if reason == LifecycleReady {
			n.forgetDocument()
		}
		n.Refresh()
	})
	if err != nil {
		n.mu.Lock()
		n.state = StateDetached
		n.mu.Unlock()
		return fmt.Errorf("watching lifecycle: %w", err)
	}

	stopSettings, err := n.settings.WatchEnabled(ctx, n.setEnabled)
	if err != nil {
		n.log.Warn("cannot watch enabled flag", "error", err)
		stopSettings = func() {}
	}

	n.mu.Lock()
	n.stopLifecycle = stopLifecycle
	n.stopSettings = stopSettings
	n.mu.Unlock()

	n.Refresh()
	return nil
}

// Refresh re-reads the enabled flag and moves to Active or Inert
func (n *Navigator) Refresh() {
	n.mu.Lock()
	if n.state == StateDetached {
		n.mu.Unlock()
		return
	}
	ctx := n.ctx
	n.mu.Unlock()

	enabled, err := n.settings.Enabled(ctx)
	if err != nil {
		n.log.Warn("reading enabled flag failed, assuming enabled", "error", err)
		enabled = true
	}
	n.setEnabled(enabled)
}

func (n *Navigator) setEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.state == StateDetached {
		return
	}
	n.enabled = enabled
	if enabled {
		n.activateLocked()
	} else {
		n.deactivateLocked()
	}
}

func (n *Navigator) activateLocked() {
	if n.stopInput == nil {
		stop, err := n.events.WatchInput(n.ctx, Handlers{
			Key:      func(ev KeyEvent) { n.HandleKey(n.context(), ev) },
			Mutation: n.mutated,
		})
		if err != nil {
			n.log.Error("installing input listeners failed", "error", err)
		} else {
			n.stopInput = stop
		}
	}
	n.state = StateActive
	n.pending.TriggerAfter(n.opts.InitialDelay, n.scheduledReconcile)
}

func (n *Navigator) deactivateLocked() {
	n.pending.Cancel()
	if n.stopInput != nil {
		n.stopInput()
		n.stopInput = nil
	}
	n.clearLocked(n.ctx)
	n.state = StateInert
}

// Detach tears down every listener and removes the indicator
func (n *Navigator) Detach() {
	n.mu.Lock()
	if n.state == StateDetached {
		n.mu.Unlock()
		return
	}
	n.pending.Cancel()
	stops := []func(){n.stopInput, n.stopSettings, n.stopLifecycle}
	n.stopInput, n.stopSettings, n.stopLifecycle = nil, nil, nil
	// callers usually detach after their context is done
	n.clearLocked(context.WithoutCancel(n.ctx))
	n.enabled = false
	n.state = StateDetached
	n.mu.Unlock()

	// listeners may be blocked on the lock; stop them after releasing it
	for _, stop := range stops {
		if stop != nil {
			stop()
		}
	}
}

// forgetDocument drops the list, cursor and marker of a document the tab
// has navigated away from. The old nodes are gone, so nothing is unmarked.
func (n *Navigator) forgetDocument() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.state == StateDetached {
		return
	}
	n.pending.Cancel()
	n.list = nil
	n.cursor = Unset
	n.marked = ""
}

func (n *Navigator) context() context.Context {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ctx
}

func (n *Navigator) mutated() {
	n.pending.Trigger(n.scheduledReconcile)
}

func (n *Navigator) scheduledReconcile() {
	n.Reconcile(n.context())
}

// clearLocked empties the list, unsets the cursor and removes the indicator
func (n *Navigator) clearLocked(ctx context.Context) {
	n.unmarkLocked(ctx)
	n.list = nil
	n.cursor = Unset
	n.publishLocked(ctx)
}

func (n *Navigator) unmarkLocked(ctx context.Context) {
	if n.marked == "" {
		return
	}
	if err := n.doc.Unmark(ctx, n.marked); err != nil {
		n.log.Debug("removing indicator failed", "id", n.marked, "error", err)
	}
	n.marked = ""
}

func (n *Navigator) publishLocked(ctx context.Context) {
	st := PageState{
		Active:   n.state == StateActive && n.enabled && len(n.list) > 0,
		Selected: n.cursor != Unset,
	}
	if err := n.doc.Publish(ctx, st); err != nil {
		n.log.Debug("publishing page state failed", "error", err)
	}
}

// State returns the lifecycle state
func (n *Navigator) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Candidates returns a copy of the current list
func (n *Navigator) Candidates() []Candidate {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Candidate(nil), n.list...)
}

// Cursor returns the selected index, or Unset
func (n *Navigator) Cursor() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.cursor
}

// Selection returns the selected candidate
func (n *Navigator) Selection() (Candidate, int, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.cursor == Unset || n.cursor >= len(n.list) {
		return Candidate{}, Unset, false
	}
	return n.list[n.cursor], n.cursor, true
}
