package navigator

import "context"

// Keys owned by the navigator
const (
	KeyArrowUp   = "ArrowUp"
	KeyArrowDown = "ArrowDown"
	KeyEnter     = "Enter"
	KeySpace     = " "
)

// KeyEvent is a keydown observed in the page
type KeyEvent struct {
	Key   string `json:"key"`
	Ctrl  bool   `json:"ctrl"`
	Alt   bool   `json:"alt"`
	Shift bool   `json:"shift"`
	Meta  bool   `json:"meta"`

	// TextTarget is set when the event target is an input, textarea or
	// content-editable element
	TextTarget bool `json:"textTarget"`
}

type keyOp int

const (
	opNone keyOp = iota
	opUp
	opDown
	opActivate
	opBackground
)

// keyAction is what a keydown translates to
type keyAction struct {
	op      keyOp
	prevent bool
}

func ownedKey(key string) bool {
	switch key {
	case KeyArrowUp, KeyArrowDown, KeyEnter, KeySpace, "Spacebar":
		return true
	}
	return false
}

// decideKey maps a keydown to an action. The caller has already checked
// that the navigator is active with a non-empty list.
func decideKey(ev KeyEvent, selected bool) keyAction {
	if !ownedKey(ev.Key) {
		return keyAction{}
	}
	if ev.TextTarget && !ev.Ctrl && !ev.Alt {
		return keyAction{}
	}

	switch ev.Key {
	case KeyArrowUp:
		return keyAction{op: opUp, prevent: true}
	case KeyArrowDown:
		return keyAction{op: opDown, prevent: true}
	case KeyEnter:
		if selected {
			return keyAction{op: opActivate, prevent: true}
		}
	case KeySpace, "Spacebar":
		if !selected {
			return keyAction{}
		}
		if ev.Ctrl {
			return keyAction{op: opBackground, prevent: true}
		}
		return keyAction{op: opActivate, prevent: true}
	}
	return keyAction{}
}

// HandleKey applies a keydown and reports whether the default action
// should be prevented
func (n *Navigator) HandleKey(ctx context.Context, ev KeyEvent) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.liveLocked() {
		return false
	}

	act := decideKey(ev, n.cursor != Unset && n.cursor < len(n.list))
	switch act.op {
	case opUp:
		n.selectLocked(ctx, Move(n.cursor, -1, len(n.list)))
	case opDown:
		n.selectLocked(ctx, Move(n.cursor, 1, len(n.list)))
	case opActivate:
		c := n.list[n.cursor]
		if err := n.doc.Activate(ctx, c.ID); err != nil {
			n.log.Warn("activating candidate failed", "url", c.URL, "error", err)
		}
	case opBackground:
		c := n.list[n.cursor]
		if err := n.doc.OpenBackground(ctx, c.URL); err != nil {
			n.log.Warn("opening background tab failed", "url", c.URL, "error", err)
		}
	}
	return act.prevent
}
