package cdp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	cdpproto "github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"

	"github.com/v0xg/resultnav/internal/bridge"
	"github.com/v0xg/resultnav/internal/navigator"
	"github.com/v0xg/resultnav/internal/selectors"
)

var errGone = errors.New("node is no longer attached")

// Page is one chromedp tab. It satisfies navigator.Document and
// navigator.Events.
type Page struct {
	ctx    context.Context
	cancel context.CancelFunc
	router *bridge.Router
	log    *slog.Logger
}

// Close closes the tab
func (p *Page) Close() {
	p.cancel()
}

func (p *Page) beforeDispatch(ev bridge.Event) {
	if ev.Type == bridge.EventReady && p.router.InputOn() {
		if err := p.setInput(p.ctx, true); err != nil {
			p.log.Debug("re-enabling input failed", "error", err)
		}
	}
}

// call evaluates fn(args...) in the tab and decodes the result into out.
// Calls run on the tab context; ctx only gates whether to start.
func (p *Page) call(ctx context.Context, out interface{}, fn string, args ...interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	expr, err := bridge.Call(fn, args...)
	if err != nil {
		return err
	}
	return chromedp.Run(p.ctx, chromedp.Evaluate(expr, out))
}

func (p *Page) URL(ctx context.Context) (string, error) {
	var u string
	if err := p.call(ctx, &u, bridge.Location); err != nil {
		return "", fmt.Errorf("reading location: %w", err)
	}
	return u, nil
}

func (p *Page) Scan(ctx context.Context, set *selectors.Set) ([]navigator.Node, error) {
	var nodes []navigator.Node
	if err := p.call(ctx, &nodes, bridge.Scan, set.PrimaryGroup(), set.ExcludeGroup()); err != nil {
		return nil, fmt.Errorf("scanning page: %w", err)
	}
	return nodes, nil
}

func (p *Page) Rect(ctx context.Context, id string) (navigator.Rect, bool, error) {
	var res struct {
		OK     bool    `json:"ok"`
		Top    float64 `json:"top"`
		Left   float64 `json:"left"`
		Bottom float64 `json:"bottom"`
		Right  float64 `json:"right"`
	}
	if err := p.call(ctx, &res, bridge.Rect, id); err != nil {
		return navigator.Rect{}, false, fmt.Errorf("measuring %s: %w", id, err)
	}
	return navigator.Rect{Top: res.Top, Left: res.Left, Bottom: res.Bottom, Right: res.Right}, res.OK, nil
}

func (p *Page) Viewport(ctx context.Context) (navigator.Viewport, error) {
	var vp navigator.Viewport
	if err := p.call(ctx, &vp, bridge.Viewport); err != nil {
		return navigator.Viewport{}, fmt.Errorf("reading viewport: %w", err)
	}
	return vp, nil
}

func (p *Page) ScrollTo(ctx context.Context, y float64) error {
	var ok bool
	if err := p.call(ctx, &ok, bridge.ScrollTo, y); err != nil {
		return fmt.Errorf("scrolling: %w", err)
	}
	return nil
}

func (p *Page) Mark(ctx context.Context, id string) error {
	var ok bool
	if err := p.call(ctx, &ok, bridge.Mark, id); err != nil {
		return fmt.Errorf("marking %s: %w", id, err)
	}
	if !ok {
		return fmt.Errorf("marking %s: %w", id, errGone)
	}
	return nil
}

func (p *Page) Unmark(ctx context.Context, id string) error {
	var ok bool
	if err := p.call(ctx, &ok, bridge.Unmark, id); err != nil {
		return fmt.Errorf("unmarking %s: %w", id, err)
	}
	return nil
}

func (p *Page) Marked(ctx context.Context, id string) (bool, error) {
	var ok bool
	if err := p.call(ctx, &ok, bridge.Marked, id); err != nil {
		return false, fmt.Errorf("checking marker on %s: %w", id, err)
	}
	return ok, nil
}

func (p *Page) Activate(ctx context.Context, id string) error {
	var ok bool
	if err := p.call(ctx, &ok, bridge.Activate, id); err != nil {
		return fmt.Errorf("activating %s: %w", id, err)
	}
	if !ok {
		return fmt.Errorf("activating %s: %w", id, errGone)
	}
	return nil
}

// OpenBackground creates an unfocused tab through the browser session
func (p *Page) OpenBackground(ctx context.Context, href string) error {
	c := chromedp.FromContext(p.ctx)
	if c == nil || c.Browser == nil {
		return fmt.Errorf("opening background tab: no browser for this tab")
	}
	id, err := target.CreateTarget(href).WithBackground(true).Do(cdpproto.WithExecutor(p.ctx, c.Browser))
	if err != nil {
		return fmt.Errorf("opening background tab: %w", err)
	}
	p.log.Debug("opened background tab", "url", href, "target", id)
	return nil
}

func (p *Page) Publish(ctx context.Context, st navigator.PageState) error {
	var ok bool
	if err := p.call(ctx, &ok, bridge.Publish, st); err != nil {
		return fmt.Errorf("publishing state: %w", err)
	}
	return nil
}

func (p *Page) setInput(ctx context.Context, on bool) error {
	var ok bool
	return p.call(ctx, &ok, bridge.SetInput, on)
}

func (p *Page) install(ctx context.Context) error {
	var installed bool
	if err := p.call(ctx, &installed, bridge.InstallFunc); err != nil {
		return fmt.Errorf("installing page listeners: %w", err)
	}
	return nil
}

func (p *Page) WatchLifecycle(ctx context.Context, fn func(reason string)) (func(), error) {
	if err := p.install(ctx); err != nil {
		return nil, err
	}
	return p.router.AddLifecycle(fn), nil
}

func (p *Page) WatchInput(ctx context.Context, h navigator.Handlers) (func(), error) {
	if err := p.install(ctx); err != nil {
		return nil, err
	}
	stop := p.router.AddInput(h, func() {
		if err := p.setInput(p.ctx, false); err != nil {
			p.log.Debug("disabling input failed", "error", err)
		}
	})
	if err := p.setInput(ctx, true); err != nil {
		stop()
		return nil, fmt.Errorf("enabling input: %w", err)
	}
	return stop, nil
}

// Screenshot captures the visible viewport as PNG
func (p *Page) Screenshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var buf []byte
	if err := chromedp.Run(p.ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("capturing screenshot: %w", err)
	}
	return buf, nil
}
