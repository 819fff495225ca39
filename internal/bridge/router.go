package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/v0xg/resultnav/internal/navigator"
)

// Event types sent by the page
const (
	EventKey      = "key"
	EventMutation = "mutation"
	EventReady    = navigator.LifecycleReady
	EventVisible  = "visible"
	EventPageShow = "pageshow"
)

// Event is one binding payload
type Event struct {
	Type string             `json:"type"`
	Key  navigator.KeyEvent `json:"key"`
}

// Decode parses a binding payload
func Decode(payload string) (Event, error) {
	var ev Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return Event{}, fmt.Errorf("decoding page event: %w", err)
	}
	if ev.Type == "" {
		return Event{}, fmt.Errorf("page event without type: %s", payload)
	}
	return ev, nil
}

// Router fans page events out to the registered listeners
type Router struct {
	mu        sync.Mutex
	next      int
	lifecycle map[int]func(string)
	input     map[int]navigator.Handlers
}

func NewRouter() *Router {
	return &Router{
		lifecycle: make(map[int]func(string)),
		input:     make(map[int]navigator.Handlers),
	}
}

// AddLifecycle registers fn for ready, visible and pageshow events
func (r *Router) AddLifecycle(fn func(reason string)) (stop func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.next
	r.next++
	r.lifecycle[id] = fn
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.lifecycle, id)
	}
}

// AddInput registers key and mutation handlers. onEmpty runs when the last
// input registration is removed.
func (r *Router) AddInput(h navigator.Handlers, onEmpty func()) (stop func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.next
	r.next++
	r.input[id] = h
	return func() {
		r.mu.Lock()
		_, ok := r.input[id]
		delete(r.input, id)
		empty := ok && len(r.input) == 0
		r.mu.Unlock()
		if empty && onEmpty != nil {
			onEmpty()
		}
	}
}

// Dispatch delivers ev. Listeners run outside the router lock.
func (r *Router) Dispatch(ev Event) {
	r.mu.Lock()
	var lifecycle []func(string)
	var input []navigator.Handlers
	switch ev.Type {
	case EventReady, EventVisible, EventPageShow:
		for _, fn := range r.lifecycle {
			lifecycle = append(lifecycle, fn)
		}
	case EventKey, EventMutation:
		for _, h := range r.input {
			input = append(input, h)
		}
	}
	r.mu.Unlock()

	for _, fn := range lifecycle {
		fn(ev.Type)
	}
	for _, h := range input {
		switch {
		case ev.Type == EventKey && h.Key != nil:
			h.Key(ev.Key)
		case ev.Type == EventMutation && h.Mutation != nil:
			h.Mutation()
		}
	}
}

// DispatchPayload decodes and delivers a raw binding payload
func (r *Router) DispatchPayload(payload string) error {
	ev, err := Decode(payload)
	if err != nil {
		return err
	}
	r.Dispatch(ev)
	return nil
}

// InputOn reports whether any input registration is live. Backends use it to
// re-enable forwarding when a new document loads.
func (r *Router) InputOn() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.input) > 0
}

// Pump returns a non-blocking push function whose payloads are decoded and
// dispatched in order on a dedicated goroutine, so listeners may call back
// into the driver. before runs ahead of each dispatch. Payloads arriving
// while the buffer is full are dropped.
func (r *Router) Pump(ctx context.Context, log *slog.Logger, before func(Event)) func(payload string) {
	ch := make(chan string, 64)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case p := <-ch:
				ev, err := Decode(p)
				if err != nil {
					log.Warn("dropping page event", "error", err)
					continue
				}
				if before != nil {
					before(ev)
				}
				r.Dispatch(ev)
			}
		}
	}()
	return func(payload string) {
		select {
		case ch <- payload:
		default:
			log.Warn("page event queue full, dropping event")
		}
	}
}
