package navigator

import "context"

// Reconcile rebuilds the candidate list from the document and carries the
// cursor over to the new list
func (n *Navigator) Reconcile(ctx context.Context) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.state == StateDetached {
		return
	}
	if !n.enabled {
		n.clearLocked(ctx)
		return
	}

	old, oldCursor := n.list, n.cursor
	next, err := Discover(ctx, n.doc, n.opts.Selectors)
	if err != nil {
		n.log.Warn("discovery failed, keeping previous list", "error", err)
		return
	}

	if !sameList(old, next) {
		n.log.Debug("candidate list changed", "old", len(old), "new", len(next))
		n.list = next
		if len(next) == 0 {
			n.clearLocked(ctx)
			return
		}
		n.selectLocked(ctx, resolveCursor(old, oldCursor, next))
		return
	}

	// same identities in the same order; take the fresh coordinates
	n.list = next
	if len(next) == 0 {
		n.cursor = Unset
		n.publishLocked(ctx)
		return
	}

	index := n.cursor
	if index == Unset || index >= len(next) {
		index = 0
	}
	marked, err := n.doc.Marked(ctx, next[index].ID)
	if err != nil {
		n.log.Warn("checking indicator failed", "error", err)
		return
	}
	if !marked {
		n.selectLocked(ctx, index)
	}
}
