package navigator

import (
	"context"
	"errors"
	"testing"
)

func TestReconcileKeepsIdentity(t *testing.T) {
	h := newHarness(t, true,
		node("A", "https://a.example/", 200, 0),
		node("B", "https://b.example/", 300, 0),
		node("C", "https://c.example/", 400, 0),
	)
	h.attach(t)
	ctx := context.Background()
	h.nav.Select(ctx, 1)

	h.doc.setNodes(
		node("X", "https://x.example/", 200, 0),
		node("B", "https://b.example/", 300, 0),
		node("C", "https://c.example/", 400, 0),
	)
	h.nav.Reconcile(ctx)

	c, i, ok := h.nav.Selection()
	if !ok || i != 1 || c.ID != "B" {
		t.Errorf("expected B at 1, got %+v at %d", c, i)
	}
}

func TestReconcileFallsBackToURL(t *testing.T) {
	h := newHarness(t, true,
		node("A", "https://a.example/", 200, 0),
		node("B", "https://u.example/", 300, 0),
	)
	h.attach(t)
	ctx := context.Background()
	h.nav.Select(ctx, 1)

	h.doc.setNodes(
		node("B2", "https://u.example/", 100, 0),
		node("A2", "https://a.example/", 200, 0),
	)
	h.nav.Reconcile(ctx)

	c, i, ok := h.nav.Selection()
	if !ok || i != 0 || c.ID != "B2" {
		t.Errorf("expected B2 at 0, got %+v at %d", c, i)
	}
	if ids := h.doc.markedIDs(); len(ids) != 1 || ids[0] != "B2" {
		t.Errorf("expected only B2 marked, got %v", ids)
	}
}

func TestReconcileDefaultsToFirst(t *testing.T) {
	h := newHarness(t, true, node("A", "https://a.example/", 200, 0))
	h.attach(t)

	h.doc.setNodes(node("Z", "https://z.example/", 200, 0), node("Y", "https://y.example/", 300, 0))
	h.nav.Reconcile(context.Background())

	if got := h.nav.Cursor(); got != 0 {
		t.Errorf("expected cursor 0, got %d", got)
	}
}

func TestReconcileRestoresMissingIndicator(t *testing.T) {
	h := newHarness(t, true,
		node("A", "https://a.example/", 200, 0),
		node("B", "https://b.example/", 300, 0),
	)
	h.attach(t)
	ctx := context.Background()
	h.nav.Select(ctx, 1)
	marks := len(h.doc.markCalls)

	// host re-rendered B's contents and dropped the marker
	delete(h.doc.marks, "B")
	h.nav.Reconcile(ctx)

	if len(h.doc.markCalls) != marks+1 {
		t.Fatalf("expected the indicator to be placed again, got %d new marks", len(h.doc.markCalls)-marks)
	}
	if got := h.doc.markCalls[len(h.doc.markCalls)-1]; got != "B" {
		t.Errorf("expected B re-marked, got %s", got)
	}
	if got := h.nav.Cursor(); got != 1 {
		t.Errorf("expected cursor to stay at 1, got %d", got)
	}
}

func TestReconcileUnchangedIsQuiet(t *testing.T) {
	h := newHarness(t, true,
		node("A", "https://a.example/", 200, 0),
		node("B", "https://b.example/", 300, 0),
	)
	h.attach(t)
	marks := len(h.doc.markCalls)

	h.nav.Reconcile(context.Background())
	if len(h.doc.markCalls) != marks {
		t.Errorf("expected no new marks, got %d", len(h.doc.markCalls)-marks)
	}
}

func TestReconcileEmptyListGoesInert(t *testing.T) {
	h := newHarness(t, true, node("A", "https://a.example/", 200, 0))
	h.attach(t)

	h.doc.setNodes()
	h.nav.Reconcile(context.Background())

	if got := h.nav.Cursor(); got != Unset {
		t.Errorf("expected Unset, got %d", got)
	}
	if ids := h.doc.markedIDs(); len(ids) != 0 {
		t.Errorf("expected no indicator, got %v", ids)
	}
	if st := h.doc.lastPublished(); st.Active || st.Selected {
		t.Errorf("expected inactive page state, got %+v", st)
	}
	if h.nav.HandleKey(context.Background(), KeyEvent{Key: KeyArrowDown}) {
		t.Error("expected keys to pass through with an empty list")
	}
}

func TestReconcileKeepsListOnScanError(t *testing.T) {
	h := newHarness(t, true,
		node("A", "https://a.example/", 200, 0),
		node("B", "https://b.example/", 300, 0),
	)
	h.attach(t)

	h.doc.scanErr = errors.New("target closed")
	h.nav.Reconcile(context.Background())

	if got := len(h.nav.Candidates()); got != 2 {
		t.Errorf("expected previous list to survive, got %d candidates", got)
	}
	if got := h.nav.Cursor(); got != 0 {
		t.Errorf("expected cursor 0, got %d", got)
	}
}

func TestDisabledShortCircuit(t *testing.T) {
	h := newHarness(t, false,
		node("A", "https://a.example/", 200, 0),
		node("B", "https://b.example/", 300, 0),
	)
	h.attach(t)
	ctx := context.Background()

	h.nav.Reconcile(ctx)
	if h.nav.HandleKey(ctx, KeyEvent{Key: KeyArrowDown}) {
		t.Error("expected keydown to pass through while disabled")
	}

	if got := len(h.nav.Candidates()); got != 0 {
		t.Errorf("expected empty list, got %d", got)
	}
	if got := h.nav.Cursor(); got != Unset {
		t.Errorf("expected Unset, got %d", got)
	}
	if len(h.doc.markCalls) != 0 {
		t.Errorf("expected no indicator, got %v", h.doc.markCalls)
	}
	if h.events.input() != nil {
		t.Error("expected no input listeners while disabled")
	}
}
