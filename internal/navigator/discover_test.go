package navigator

import (
	"context"
	"testing"

	"github.com/v0xg/resultnav/internal/selectors"
)

func TestFilterSortsByTopThenLeft(t *testing.T) {
	got := Filter([]Node{
		node("p", "https://p.example/", 50, 10),
		node("q", "https://q.example/", 10, 5),
		node("r", "https://r.example/", 10, 1),
	})
	want := []string{"r", "q", "p"}
	if len(got) != len(want) {
		t.Fatalf("expected %d candidates, got %d", len(want), len(got))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, got[i].ID)
		}
	}
	if got[0].Top != 10 || got[0].Left != 1 {
		t.Errorf("expected (10,1) first, got (%v,%v)", got[0].Top, got[0].Left)
	}
}

func TestFilterEligibility(t *testing.T) {
	image := node("img", "https://img.example/", 0, 0)
	image.HasText = false
	image.HasImage = true

	tests := []struct {
		name string
		mod  func(n *Node)
		keep bool
	}{
		{"plain link", func(n *Node) {}, true},
		{"http link", func(n *Node) { n.Href = "http://plain.example/x" }, true},
		{"excluded", func(n *Node) { n.Excluded = true }, false},
		{"display none", func(n *Node) { n.LaidOut = false }, false},
		{"zero width", func(n *Node) { n.Width = 0 }, false},
		{"zero height", func(n *Node) { n.Height = 0 }, false},
		{"no content", func(n *Node) { n.HasText = false }, false},
		{"image only", func(n *Node) { *n = image }, true},
		{"javascript href", func(n *Node) { n.Href = "javascript:void(0)" }, false},
		{"relative href", func(n *Node) { n.Href = "/url?q=x" }, false},
		{"mailto", func(n *Node) { n.Href = "mailto:someone@example.com" }, false},
		{"empty href", func(n *Node) { n.Href = "" }, false},
		{"no identity", func(n *Node) { n.ID = "" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := node("a", "https://a.example/", 0, 0)
			tt.mod(&n)
			got := Filter([]Node{n})
			if (len(got) == 1) != tt.keep {
				t.Errorf("expected keep=%v, got %d candidates", tt.keep, len(got))
			}
		})
	}
}

func TestFilterDeduplicatesByIdentity(t *testing.T) {
	got := Filter([]Node{
		node("a", "https://a.example/", 10, 0),
		node("a", "https://a.example/", 10, 0),
		node("b", "https://a.example/", 20, 0),
	})
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
}

func TestDiscoverOutsideResultsHost(t *testing.T) {
	doc := newFakeDoc(node("a", "https://a.example/", 0, 0))
	doc.url = "https://example.com/search?q=go"

	got, err := Discover(context.Background(), doc, selectors.Default())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("expected no candidates, got %d", len(got))
	}
	if doc.scanCalls != 0 {
		t.Errorf("expected no scan, got %d", doc.scanCalls)
	}
}

func TestSameList(t *testing.T) {
	a := []Candidate{{ID: "a", Top: 1}, {ID: "b", Top: 2}}
	moved := []Candidate{{ID: "a", Top: 40}, {ID: "b", Top: 80}}
	if !sameList(a, moved) {
		t.Error("expected repositioned list with same identities to compare equal")
	}
	if sameList(a, a[:1]) {
		t.Error("expected different lengths to differ")
	}
	if sameList(a, []Candidate{{ID: "b"}, {ID: "a"}}) {
		t.Error("expected reordered identities to differ")
	}
}
