// Package static implements a navigator document over saved HTML. There is
// no layout engine, so geometry is synthetic: matched elements stack
// vertically in document order.
package static

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/v0xg/resultnav/internal/navigator"
	"github.com/v0xg/resultnav/internal/selectors"
)

// Options configures synthetic layout
type Options struct {
	RowHeight float64
	Width     float64 // element and viewport width
	Viewport  float64 // viewport height
}

func (o *Options) defaults() {
	if o.RowHeight <= 0 {
		o.RowHeight = 48
	}
	if o.Width <= 0 {
		o.Width = 1280
	}
	if o.Viewport <= 0 {
		o.Viewport = 900
	}
}

// Document is an in-memory page. It satisfies navigator.Document.
type Document struct {
	mu      sync.Mutex
	doc     *goquery.Document
	base    *url.URL
	opts    Options
	ids     map[*html.Node]string
	nodes   map[string]*html.Node
	tops    map[string]float64
	rows    int
	scrollY float64
	marked  map[string]string // id -> previous inline z-index
	state   navigator.PageState

	Activated  []string
	Background []string
}

// Load parses HTML served from pageURL
func Load(r io.Reader, pageURL string, opts Options) (*Document, error) {
	opts.defaults()
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parsing page url: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}
	return &Document{
		doc:    doc,
		base:   base,
		opts:   opts,
		ids:    make(map[*html.Node]string),
		nodes:  make(map[string]*html.Node),
		tops:   make(map[string]float64),
		marked: make(map[string]string),
	}, nil
}

// identity assigns a stable token per node
func (d *Document) identity(n *html.Node) string {
	if id, ok := d.ids[n]; ok {
		return id
	}
	id := "n" + strconv.Itoa(len(d.ids)+1)
	d.ids[n] = id
	d.nodes[id] = n
	return id
}

// URL returns the page address
func (d *Document) URL(ctx context.Context) (string, error) {
	return d.base.String(), nil
}

// Scan matches the primary patterns and lays matches out one per row
func (d *Document) Scan(ctx context.Context, set *selectors.Set) ([]navigator.Node, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	primary, err := cascadia.Compile(set.PrimaryGroup())
	if err != nil {
		return nil, fmt.Errorf("primary selectors: %w", err)
	}
	var exclude cascadia.Selector
	if len(set.Exclude) > 0 {
		if exclude, err = cascadia.Compile(set.ExcludeGroup()); err != nil {
			return nil, fmt.Errorf("exclusion selectors: %w", err)
		}
	}

	var out []navigator.Node
	row := 0
	d.doc.FindMatcher(primary).Each(func(_ int, sel *goquery.Selection) {
		n := sel.Get(0)
		id := d.identity(n)
		laidOut := !hidden(sel)

		rec := navigator.Node{
			ID:       id,
			Href:     d.resolve(sel),
			LaidOut:  laidOut,
			HasText:  strings.TrimSpace(sel.Text()) != "",
			HasImage: sel.Find("img").Length() > 0,
			Excluded: exclude != nil && excluded(n, exclude),
		}
		if laidOut {
			rec.Top = float64(row) * d.opts.RowHeight
			rec.Height = d.opts.RowHeight - 8
			rec.Width = d.opts.Width / 2
			row++
		}
		d.tops[id] = rec.Top
		out = append(out, rec)
	})
	d.rows = row
	return out, nil
}

// excluded checks n and every ancestor against the exclusion patterns
func excluded(n *html.Node, exclude cascadia.Selector) bool {
	for ; n != nil; n = n.Parent {
		if n.Type == html.ElementNode && exclude.Match(n) {
			return true
		}
	}
	return false
}

// hidden reports display:none or the hidden attribute on the node or an
// ancestor
func hidden(sel *goquery.Selection) bool {
	for n := sel.Get(0); n != nil; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		for _, a := range n.Attr {
			switch a.Key {
			case "hidden":
				return true
			case "style":
				style := strings.ReplaceAll(strings.ToLower(a.Val), " ", "")
				if strings.Contains(style, "display:none") {
					return true
				}
			}
		}
	}
	return false
}

func (d *Document) resolve(sel *goquery.Selection) string {
	href, ok := sel.Attr("href")
	if !ok {
		return ""
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return d.base.ResolveReference(ref).String()
}

// Rect places the node at its synthetic row, shifted by the scroll offset
func (d *Document) Rect(ctx context.Context, id string) (navigator.Rect, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	top, ok := d.tops[id]
	if !ok {
		return navigator.Rect{}, false, nil
	}
	y := top - d.scrollY
	return navigator.Rect{
		Top:    y,
		Left:   0,
		Bottom: y + d.opts.RowHeight - 8,
		Right:  d.opts.Width / 2,
	}, true, nil
}

// Viewport reports the synthetic viewport
func (d *Document) Viewport(ctx context.Context) (navigator.Viewport, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return navigator.Viewport{
		Width:          d.opts.Width,
		Height:         d.opts.Viewport,
		ScrollY:        d.scrollY,
		DocumentHeight: float64(d.rows) * d.opts.RowHeight,
	}, nil
}

func (d *Document) ScrollTo(ctx context.Context, y float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scrollY = y
	return nil
}

// ScrollY returns the current scroll offset
func (d *Document) ScrollY() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.scrollY
}

func (d *Document) Mark(ctx context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, ok := d.nodes[id]
	if !ok {
		return fmt.Errorf("unknown node %s", id)
	}
	sel := goquery.NewDocumentFromNode(n).Selection
	sel.Find(".resultnav-indicator").Remove()
	sel.PrependHtml(`<span class="resultnav-indicator"></span>`)
	if _, already := d.marked[id]; !already {
		d.marked[id] = styleValue(sel, "z-index")
	}
	setStyle(sel, "z-index", "2147483000")
	return nil
}

func (d *Document) Unmark(ctx context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, ok := d.nodes[id]
	if !ok {
		return nil
	}
	sel := goquery.NewDocumentFromNode(n).Selection
	sel.Find(".resultnav-indicator").Remove()
	if prev, ok := d.marked[id]; ok {
		setStyle(sel, "z-index", prev)
		delete(d.marked, id)
	}
	return nil
}

func (d *Document) Marked(ctx context.Context, id string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, ok := d.nodes[id]
	if !ok {
		return false, nil
	}
	return goquery.NewDocumentFromNode(n).Find(".resultnav-indicator").Length() > 0, nil
}

func (d *Document) Activate(ctx context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Activated = append(d.Activated, id)
	return nil
}

func (d *Document) OpenBackground(ctx context.Context, href string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Background = append(d.Background, href)
	return nil
}

func (d *Document) Publish(ctx context.Context, st navigator.PageState) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state = st
	return nil
}

// HTML renders the current document, markers included
func (d *Document) HTML() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.Html()
}

// styleValue reads one property from the inline style attribute
func styleValue(sel *goquery.Selection, prop string) string {
	style, _ := sel.Attr("style")
	for _, decl := range strings.Split(style, ";") {
		k, v, ok := strings.Cut(decl, ":")
		if ok && strings.TrimSpace(k) == prop {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// setStyle replaces one inline style property. An empty value removes it.
func setStyle(sel *goquery.Selection, prop, value string) {
	style, _ := sel.Attr("style")
	var decls []string
	for _, decl := range strings.Split(style, ";") {
		k, _, ok := strings.Cut(decl, ":")
		if !ok || strings.TrimSpace(k) == prop {
			continue
		}
		decls = append(decls, strings.TrimSpace(decl))
	}
	if value != "" {
		decls = append(decls, prop+": "+value)
	}
	if len(decls) == 0 {
		sel.RemoveAttr("style")
		return
	}
	sel.SetAttr("style", strings.Join(decls, "; "))
}

// State returns the last page state published by the navigator
func (d *Document) State() navigator.PageState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// WatchLifecycle installs nothing; a saved page never changes visibility
func (d *Document) WatchLifecycle(ctx context.Context, fn func(reason string)) (func(), error) {
	return func() {}, nil
}

// WatchInput installs nothing; keys are fed through Navigator.HandleKey
func (d *Document) WatchInput(ctx context.Context, h navigator.Handlers) (func(), error) {
	return func() {}, nil
}
