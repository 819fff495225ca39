package navigator

import (
	"context"
	"fmt"
	"net/url"
	"sort"

	"github.com/v0xg/resultnav/internal/selectors"
)

// Candidate is an element eligible for keyboard selection
type Candidate struct {
	ID   string
	URL  string
	Top  float64
	Left float64
}

// Discover scans doc and returns the ordered candidate list. Pages outside
// the results host produce an empty list.
func Discover(ctx context.Context, doc Document, set *selectors.Set) ([]Candidate, error) {
	pageURL, err := doc.URL(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading page url: %w", err)
	}
	if !set.MatchesPage(pageURL) {
		return nil, nil
	}

	nodes, err := doc.Scan(ctx, set)
	if err != nil {
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	return Filter(nodes), nil
}

// Filter keeps the navigable nodes, deduplicates by identity and sorts by
// top then left
func Filter(nodes []Node) []Candidate {
	seen := make(map[string]struct{}, len(nodes))
	var out []Candidate

	for _, n := range nodes {
		if !eligible(n) {
			continue
		}
		if _, dup := seen[n.ID]; dup {
			continue
		}
		seen[n.ID] = struct{}{}
		out = append(out, Candidate{ID: n.ID, URL: n.Href, Top: n.Top, Left: n.Left})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Top != out[j].Top {
			return out[i].Top < out[j].Top
		}
		return out[i].Left < out[j].Left
	})
	return out
}

func eligible(n Node) bool {
	if n.ID == "" || n.Excluded || !n.LaidOut {
		return false
	}
	if n.Width <= 0 || n.Height <= 0 {
		return false
	}
	if !n.HasText && !n.HasImage {
		return false
	}
	return isWebURL(n.Href)
}

func isWebURL(href string) bool {
	u, err := url.Parse(href)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// sameList reports whether two lists hold the same identities in the same
// order. Positions are not compared.
func sameList(a, b []Candidate) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}
