package crawler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"

	"github.com/v0xg/resultnav/internal/bridge"
	"github.com/v0xg/resultnav/internal/navigator"
	"github.com/v0xg/resultnav/internal/selectors"
)

// Page is one browser tab. It satisfies navigator.Document and
// navigator.Events.
type Page struct {
	page    *rod.Page
	browser *rod.Browser
	router  *bridge.Router
	log     *slog.Logger

	cancel        context.CancelFunc
	stopExpose    func() error
	removeInstall func() error
}

func newPage(ctx context.Context, browser *rod.Browser, page *rod.Page, log *slog.Logger) (*Page, error) {
	ctx, cancel := context.WithCancel(ctx)
	p := &Page{
		page:    page,
		browser: browser,
		router:  bridge.NewRouter(),
		log:     log,
		cancel:  cancel,
	}
	push := p.router.Pump(ctx, log, p.beforeDispatch)

	stop, err := page.Expose(bridge.Binding, func(payload gson.JSON) (interface{}, error) {
		push(payload.Str())
		return nil, nil
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("exposing %s: %w", bridge.Binding, err)
	}
	p.stopExpose = stop

	remove, err := page.EvalOnNewDocument(bridge.Install)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("installing page listeners: %w", err)
	}
	p.removeInstall = remove
	return p, nil
}

// beforeDispatch re-enables forwarding on a fresh document, which starts
// with input off
func (p *Page) beforeDispatch(ev bridge.Event) {
	if ev.Type == bridge.EventReady && p.router.InputOn() {
		if err := p.setInput(context.Background(), true); err != nil {
			p.log.Debug("re-enabling input failed", "error", err)
		}
	}
}

// Close removes the bridge and closes the tab
func (p *Page) Close() {
	p.cancel()
	if p.removeInstall != nil {
		_ = p.removeInstall()
	}
	if p.stopExpose != nil {
		_ = p.stopExpose()
	}
	_ = p.page.Close()
}

// Rod returns the underlying rod page
func (p *Page) Rod() *rod.Page {
	return p.page
}

func (p *Page) eval(ctx context.Context, js string, args ...interface{}) (gson.JSON, error) {
	res, err := p.page.Context(ctx).Eval(js, args...)
	if err != nil {
		return gson.JSON{}, err
	}
	return res.Value, nil
}

func (p *Page) URL(ctx context.Context) (string, error) {
	v, err := p.eval(ctx, bridge.Location)
	if err != nil {
		return "", fmt.Errorf("reading location: %w", err)
	}
	return v.Str(), nil
}

func (p *Page) Scan(ctx context.Context, set *selectors.Set) ([]navigator.Node, error) {
	v, err := p.eval(ctx, bridge.Scan, set.PrimaryGroup(), set.ExcludeGroup())
	if err != nil {
		return nil, fmt.Errorf("scanning page: %w", err)
	}
	return decodeNodes(v)
}

func (p *Page) Rect(ctx context.Context, id string) (navigator.Rect, bool, error) {
	v, err := p.eval(ctx, bridge.Rect, id)
	if err != nil {
		return navigator.Rect{}, false, fmt.Errorf("measuring %s: %w", id, err)
	}
	return decodeRect(v)
}

func (p *Page) Viewport(ctx context.Context) (navigator.Viewport, error) {
	v, err := p.eval(ctx, bridge.Viewport)
	if err != nil {
		return navigator.Viewport{}, fmt.Errorf("reading viewport: %w", err)
	}
	return decodeViewport(v)
}

func (p *Page) ScrollTo(ctx context.Context, y float64) error {
	if _, err := p.eval(ctx, bridge.ScrollTo, y); err != nil {
		return fmt.Errorf("scrolling: %w", err)
	}
	return nil
}

func (p *Page) Mark(ctx context.Context, id string) error {
	v, err := p.eval(ctx, bridge.Mark, id)
	if err != nil {
		return fmt.Errorf("marking %s: %w", id, err)
	}
	if !v.Bool() {
		return fmt.Errorf("marking %s: %w", id, errGone)
	}
	return nil
}

func (p *Page) Unmark(ctx context.Context, id string) error {
	if _, err := p.eval(ctx, bridge.Unmark, id); err != nil {
		return fmt.Errorf("unmarking %s: %w", id, err)
	}
	return nil
}

func (p *Page) Marked(ctx context.Context, id string) (bool, error) {
	v, err := p.eval(ctx, bridge.Marked, id)
	if err != nil {
		return false, fmt.Errorf("checking marker on %s: %w", id, err)
	}
	return v.Bool(), nil
}

func (p *Page) Activate(ctx context.Context, id string) error {
	v, err := p.eval(ctx, bridge.Activate, id)
	if err != nil {
		return fmt.Errorf("activating %s: %w", id, err)
	}
	if !v.Bool() {
		return fmt.Errorf("activating %s: %w", id, errGone)
	}
	return nil
}

// OpenBackground opens href in a new tab without focusing it
func (p *Page) OpenBackground(ctx context.Context, href string) error {
	tab, err := p.browser.Context(ctx).Page(proto.TargetCreateTarget{URL: href, Background: true})
	if err != nil {
		return fmt.Errorf("opening background tab: %w", err)
	}
	p.log.Debug("opened background tab", "url", href, "target", tab.TargetID)
	return nil
}

func (p *Page) Publish(ctx context.Context, st navigator.PageState) error {
	if _, err := p.eval(ctx, bridge.Publish, st); err != nil {
		return fmt.Errorf("publishing state: %w", err)
	}
	return nil
}

func (p *Page) setInput(ctx context.Context, on bool) error {
	_, err := p.eval(ctx, bridge.SetInput, on)
	return err
}

// WatchLifecycle forwards ready, visible and pageshow events
func (p *Page) WatchLifecycle(ctx context.Context, fn func(reason string)) (func(), error) {
	if _, err := p.eval(ctx, bridge.InstallFunc); err != nil {
		return nil, fmt.Errorf("installing page listeners: %w", err)
	}
	return p.router.AddLifecycle(fn), nil
}

// WatchInput turns on key and mutation forwarding. Forwarding switches off
// again when the last registration stops.
func (p *Page) WatchInput(ctx context.Context, h navigator.Handlers) (func(), error) {
	if _, err := p.eval(ctx, bridge.InstallFunc); err != nil {
		return nil, fmt.Errorf("installing page listeners: %w", err)
	}
	stop := p.router.AddInput(h, func() {
		if err := p.setInput(context.Background(), false); err != nil {
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
	img, err := p.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("capturing screenshot: %w", err)
	}
	return img, nil
}
