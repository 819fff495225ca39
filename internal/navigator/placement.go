package navigator

import (
	"context"
	"fmt"
	"math"
)

// Step moves the cursor by delta and places the indicator
func (n *Navigator) Step(ctx context.Context, delta int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.liveLocked() {
		return
	}
	n.selectLocked(ctx, Move(n.cursor, delta, len(n.list)))
}

// Select places the cursor at index
func (n *Navigator) Select(ctx context.Context, index int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.state == StateDetached {
		return ErrDetached
	}
	if !n.liveLocked() || index < 0 || index >= len(n.list) {
		return fmt.Errorf("%w: %d of %d", ErrOutOfRange, index, len(n.list))
	}
	n.selectLocked(ctx, index)
	return nil
}

func (n *Navigator) liveLocked() bool {
	return n.state == StateActive && n.enabled && len(n.list) > 0
}

// selectLocked moves the indicator to list[index] and scrolls it into view.
// A candidate that vanished since the scan triggers a fresh discovery.
func (n *Navigator) selectLocked(ctx context.Context, index int) {
	if index < 0 || index >= len(n.list) {
		return
	}
	c := n.list[index]

	// on a host error the cursor stays with the indicator
	rect, ok, err := n.doc.Rect(ctx, c.ID)
	if err != nil {
		n.log.Warn("measuring candidate failed", "id", c.ID, "error", err)
		return
	}
	n.cursor = index
	if !ok {
		n.log.Debug("candidate detached, rescanning", "id", c.ID)
		n.pending.TriggerAfter(0, n.scheduledReconcile)
		return
	}

	if n.marked != c.ID {
		n.unmarkLocked(ctx)
	}
	if err := n.doc.Mark(ctx, c.ID); err != nil {
		n.log.Warn("placing indicator failed", "id", c.ID, "error", err)
	} else {
		n.marked = c.ID
	}

	vp, err := n.doc.Viewport(ctx)
	if err != nil {
		n.log.Warn("reading viewport failed", "error", err)
	} else if y, scroll := scrollTarget(index, rect, vp, n.opts.Margin); scroll {
		if err := n.doc.ScrollTo(ctx, y); err != nil {
			n.log.Warn("scrolling failed", "y", y, "error", err)
		}
	}

	n.publishLocked(ctx)
	if n.opts.OnSelect != nil {
		n.opts.OnSelect(index, c)
	}
}

// fullyVisible reports whether r sits inside the viewport with margin px of
// clearance at the top and bottom
func fullyVisible(r Rect, vp Viewport, margin float64) bool {
	return r.Top >= margin &&
		r.Left >= 0 &&
		r.Bottom <= vp.Height-margin &&
		r.Right <= vp.Width
}

// scrollTarget returns the scroll offset that brings the candidate at index
// into view, and whether a scroll is needed at all. The first candidate
// always scrolls to the top of the document so a sticky header never crops it.
func scrollTarget(index int, r Rect, vp Viewport, margin float64) (float64, bool) {
	if index == 0 {
		return 0, vp.ScrollY > 0
	}
	if fullyVisible(r, vp, margin) {
		return 0, false
	}

	var y float64
	switch {
	case r.Top < margin:
		y = vp.ScrollY + r.Top - vp.Height*0.25
	case r.Bottom > vp.Height-margin:
		y = vp.ScrollY + r.Bottom - vp.Height*0.75
	default:
		return 0, false
	}

	maxY := math.Max(0, vp.DocumentHeight-vp.Height)
	y = math.Min(math.Max(y, 0), maxY)

	if math.Abs(y-vp.ScrollY) <= 1 {
		return 0, false
	}
	return y, true
}
