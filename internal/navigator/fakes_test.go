package navigator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/v0xg/resultnav/internal/selectors"
)

const resultsURL = "https://www.google.com/search?q=golang"

func node(id, href string, top, left float64) Node {
	return Node{
		ID:      id,
		Href:    href,
		LaidOut: true,
		Width:   200,
		Height:  20,
		Top:     top,
		Left:    left,
		HasText: true,
	}
}

type fakeDoc struct {
	mu        sync.Mutex
	url       string
	nodes     []Node
	detached  map[string]bool
	marks     map[string]bool
	vp        Viewport
	scanErr   error
	rectErr   error
	scanCalls int

	scrolls    []float64
	markCalls  []string
	unmarks    []string
	activated  []string
	background []string
	published  []PageState
}

func newFakeDoc(nodes ...Node) *fakeDoc {
	return &fakeDoc{
		url:      resultsURL,
		nodes:    nodes,
		detached: map[string]bool{},
		marks:    map[string]bool{},
		vp:       Viewport{Width: 1280, Height: 800, DocumentHeight: 4000},
	}
}

func (d *fakeDoc) setNodes(nodes ...Node) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nodes = nodes
}

func (d *fakeDoc) URL(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.url, nil
}

func (d *fakeDoc) Scan(ctx context.Context, _ *selectors.Set) ([]Node, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scanCalls++
	if d.scanErr != nil {
		return nil, d.scanErr
	}
	return append([]Node(nil), d.nodes...), nil
}

func (d *fakeDoc) Rect(ctx context.Context, id string) (Rect, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.rectErr != nil {
		return Rect{}, false, d.rectErr
	}
	if d.detached[id] {
		return Rect{}, false, nil
	}
	for _, n := range d.nodes {
		if n.ID == id {
			return Rect{Top: n.Top, Left: n.Left, Bottom: n.Top + n.Height, Right: n.Left + n.Width}, true, nil
		}
	}
	return Rect{}, false, nil
}

func (d *fakeDoc) Viewport(ctx context.Context) (Viewport, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.vp, nil
}

func (d *fakeDoc) ScrollTo(ctx context.Context, y float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scrolls = append(d.scrolls, y)
	d.vp.ScrollY = y
	return nil
}

func (d *fakeDoc) Mark(ctx context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.marks[id] = true
	d.markCalls = append(d.markCalls, id)
	return nil
}

func (d *fakeDoc) Unmark(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.marks, id)
	d.unmarks = append(d.unmarks, id)
	return nil
}

func (d *fakeDoc) Marked(ctx context.Context, id string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.marks[id], nil
}

func (d *fakeDoc) Activate(ctx context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.activated = append(d.activated, id)
	return nil
}

func (d *fakeDoc) OpenBackground(ctx context.Context, href string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.background = append(d.background, href)
	return nil
}

func (d *fakeDoc) Publish(ctx context.Context, st PageState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.published = append(d.published, st)
	return nil
}

// load replaces the document as a navigation would: new nodes, no markers
func (d *fakeDoc) load(url string, nodes ...Node) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.url = url
	d.nodes = nodes
	d.marks = map[string]bool{}
	d.vp.ScrollY = 0
}

func (d *fakeDoc) markedIDs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var ids []string
	for id := range d.marks {
		ids = append(ids, id)
	}
	return ids
}

func (d *fakeDoc) lastPublished() PageState {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.published) == 0 {
		return PageState{}
	}
	return d.published[len(d.published)-1]
}

type fakeEvents struct {
	mu             sync.Mutex
	lifecycle      func(string)
	handlers       *Handlers
	lifecycleCalls int
	inputCalls     int
	inputStops     int
	lifecycleStops int
}

func (e *fakeEvents) WatchLifecycle(ctx context.Context, fn func(string)) (func(), error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lifecycleCalls++
	e.lifecycle = fn
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.lifecycleStops++
		e.lifecycle = nil
	}, nil
}

func (e *fakeEvents) WatchInput(ctx context.Context, h Handlers) (func(), error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.inputCalls++
	e.handlers = &h
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.inputStops++
		e.handlers = nil
	}, nil
}

func (e *fakeEvents) input() *Handlers {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.handlers
}

func (e *fakeEvents) emitLifecycle(reason string) {
	e.mu.Lock()
	fn := e.lifecycle
	e.mu.Unlock()
	if fn != nil {
		fn(reason)
	}
}

type fakeSettings struct {
	mu      sync.Mutex
	enabled bool
	err     error
	watch   func(bool)
	stops   int
}

func (s *fakeSettings) Enabled(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled, s.err
}

func (s *fakeSettings) WatchEnabled(ctx context.Context, fn func(bool)) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watch = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.stops++
	}, nil
}

// push simulates a change notification from the store
func (s *fakeSettings) push(enabled bool) {
	s.mu.Lock()
	s.enabled = enabled
	fn := s.watch
	s.mu.Unlock()
	if fn != nil {
		fn(enabled)
	}
}

type fakeTimer struct {
	fn      func()
	delay   time.Duration
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped && !t.fired
	t.stopped = true
	return was
}

// fakeScheduler queues deferred work until run is called
type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (s *fakeScheduler) after(d time.Duration, fn func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{fn: fn, delay: d}
	s.timers = append(s.timers, t)
	return t
}

// pending counts timers that would still fire
func (s *fakeScheduler) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// run fires every live timer, including ones scheduled while running
func (s *fakeScheduler) run() {
	for i := 0; i < 10; i++ {
		s.mu.Lock()
		timers := s.timers
		s.timers = nil
		s.mu.Unlock()
		if len(timers) == 0 {
			return
		}
		for _, t := range timers {
			if t.stopped || t.fired {
				continue
			}
			t.fired = true
			t.fn()
		}
	}
}

type harness struct {
	doc      *fakeDoc
	events   *fakeEvents
	settings *fakeSettings
	sched    *fakeScheduler
	nav      *Navigator
	selected []int
}

func newHarness(t *testing.T, enabled bool, nodes ...Node) *harness {
	t.Helper()
	h := &harness{
		doc:      newFakeDoc(nodes...),
		events:   &fakeEvents{},
		settings: &fakeSettings{enabled: enabled},
		sched:    &fakeScheduler{},
	}
	h.nav = New(h.doc, h.events, h.settings, Options{
		After:    h.sched.after,
		OnSelect: func(i int, _ Candidate) { h.selected = append(h.selected, i) },
	})
	return h
}

// attach attaches and runs the initial scan
func (h *harness) attach(t *testing.T) {
	t.Helper()
	if err := h.nav.Attach(context.Background()); err != nil {
		t.Fatalf("attach: %v", err)
	}
	h.sched.run()
}

var errStorage = errors.New("storage unavailable")
