// Package selectors holds the structural patterns used to find result links
// on a search results page.
package selectors

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/andybalholm/cascadia"
)

// DefaultHostPattern matches the hosts that serve results pages
const DefaultHostPattern = `^(www\.)?google\.[a-z]{2,3}(\.[a-z]{2})?$`

// Primary patterns are unioned. No single one covers every layout variant
// of the results page.
var Primary = []string{
	`#rso a[href]:has(h3)`,
	`#search a[jsname][href]:has(h3)`,
	`#rso div[data-snc] a[href]`,
	`#rso [data-hveid] a[href]:has(img)`,
	`#botstuff a[href]:has(h3)`,
}

// Exclude identifies controls that must never be selected. Checked against
// the element and every ancestor.
var Exclude = []string{
	// buttons and inputs
	`button`,
	`[role="button"]`,
	`input`,
	`textarea`,
	`select`,
	// tracking
	`a[href*="/aclk?"]`,
	`a[href*="googleadservices.com"]`,
	`[data-text-ad]`,
	// pagination and footer
	`#foot`,
	`[role="navigation"]`,
	`#pnnext`,
	`#pnprev`,
	`footer`,
	// search suggestions
	`a[href^="/search?"]`,
	`[data-ved] a[href*="/search?q="]`,
	`#brs`,
	// accordions
	`[aria-expanded]`,
	`[jscontroller][aria-controls]`,
}

// Set is a compiled selector configuration
type Set struct {
	Primary []string
	Exclude []string
	Host    *regexp.Regexp
}

// Default returns the built-in selector set
func Default() *Set {
	s, err := New(Primary, Exclude, DefaultHostPattern)
	if err != nil {
		panic(err)
	}
	return s
}

// New validates every selector and the host pattern
func New(primary, exclude []string, hostPattern string) (*Set, error) {
	for _, group := range [][]string{primary, exclude} {
		for _, sel := range group {
			if _, err := cascadia.Compile(sel); err != nil {
				return nil, fmt.Errorf("invalid selector %q: %w", sel, err)
			}
		}
	}
	if hostPattern == "" {
		hostPattern = DefaultHostPattern
	}
	host, err := regexp.Compile(hostPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid host pattern %q: %w", hostPattern, err)
	}
	return &Set{
		Primary: append([]string(nil), primary...),
		Exclude: append([]string(nil), exclude...),
		Host:    host,
	}, nil
}

// MatchesPage reports whether pageURL is served by a results-page host
func (s *Set) MatchesPage(pageURL string) bool {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return false
	}
	return s.Host.MatchString(strings.ToLower(u.Hostname()))
}

// PrimaryGroup joins the primary patterns into one selector list
func (s *Set) PrimaryGroup() string {
	return strings.Join(s.Primary, ", ")
}

// ExcludeGroup joins the exclusion patterns into one selector list
func (s *Set) ExcludeGroup() string {
	return strings.Join(s.Exclude, ", ")
}
