package navigator

import "testing"

func TestMoveWrapsBothWays(t *testing.T) {
	for n := 1; n <= 6; n++ {
		for c := 0; c < n; c++ {
			if got := Move(Move(c, -1, n), 1, n); got != c {
				t.Errorf("n=%d: move(move(%d,-1),+1) = %d", n, c, got)
			}
		}
		if got := Move(n-1, 1, n); got != 0 {
			t.Errorf("n=%d: move(last,+1) = %d, want 0", n, got)
		}
		if got := Move(0, -1, n); got != n-1 {
			t.Errorf("n=%d: move(0,-1) = %d, want %d", n, got, n-1)
		}
	}
}

func TestMoveEmptyAndUnset(t *testing.T) {
	if got := Move(0, 1, 0); got != Unset {
		t.Errorf("expected Unset on empty list, got %d", got)
	}
	if got := Move(Unset, 1, 3); got != 0 {
		t.Errorf("expected 0 moving down from Unset, got %d", got)
	}
	if got := Move(Unset, -1, 3); got != 2 {
		t.Errorf("expected last index moving up from Unset, got %d", got)
	}
}

func TestResolveCursor(t *testing.T) {
	a := Candidate{ID: "a", URL: "https://a.example/"}
	b := Candidate{ID: "b", URL: "https://b.example/"}
	c := Candidate{ID: "c", URL: "https://c.example/"}
	x := Candidate{ID: "x", URL: "https://x.example/"}

	tests := []struct {
		name   string
		old    []Candidate
		cursor int
		next   []Candidate
		want   int
	}{
		{"identity kept", []Candidate{a, b, c}, 1, []Candidate{x, b, c}, 1},
		{"identity moved", []Candidate{a, b, c}, 1, []Candidate{b, c}, 0},
		{"url fallback", []Candidate{a, b}, 1,
			[]Candidate{{ID: "b2", URL: b.URL}, {ID: "a2", URL: a.URL}}, 0},
		{"url fallback same index", []Candidate{a, b}, 1,
			[]Candidate{{ID: "a2", URL: a.URL}, {ID: "b2", URL: b.URL}}, 1},
		{"no match", []Candidate{a, b}, 1, []Candidate{c, x}, 0},
		{"unset cursor", []Candidate{a, b}, Unset, []Candidate{a, b, c}, 0},
		{"stale cursor", []Candidate{a}, 4, []Candidate{a, b}, 0},
		{"empty next", []Candidate{a, b}, 1, nil, Unset},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveCursor(tt.old, tt.cursor, tt.next); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}
