package navigator

// Unset is the cursor value when nothing is selected
const Unset = -1

// Move shifts cursor by delta over a list of length n, wrapping at both
// ends. An empty list always yields Unset.
func Move(cursor, delta, n int) int {
	if n <= 0 {
		return Unset
	}
	next := cursor + delta
	switch {
	case next < 0:
		return n - 1
	case next >= n:
		return 0
	}
	return next
}

// resolveCursor finds where the old selection went in the new list: first
// by identity, then by URL. Falls back to 0.
func resolveCursor(old []Candidate, cursor int, next []Candidate) int {
	if len(next) == 0 {
		return Unset
	}
	if cursor < 0 || cursor >= len(old) {
		return 0
	}
	prev := old[cursor]

	byID := make(map[string]int, len(next))
	byURL := make(map[string]int, len(next))
	for i, c := range next {
		byID[c.ID] = i
		if _, ok := byURL[c.URL]; !ok {
			byURL[c.URL] = i
		}
	}

	if i, ok := byID[prev.ID]; ok {
		return i
	}
	if i, ok := byURL[prev.URL]; ok && prev.URL != "" {
		return i
	}
	return 0
}
