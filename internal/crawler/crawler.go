// Package crawler drives a Chromium browser through rod and exposes each
// loaded tab as a navigator document.
package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/v0xg/resultnav/internal/selectors"
)

// Options configures the browser
type Options struct {
	Width      int
	Height     int
	Timeout    time.Duration
	Headless   bool
	ChromePath string // empty means look up a local install
	ProfileDir string // Chrome/Chromium profile directory for signed-in sessions
	Logger     *slog.Logger
}

// Browser wraps the rod browser
type Browser struct {
	browser *rod.Browser
	opts    Options
	log     *slog.Logger
}

// Launch starts a browser and connects to it
func Launch(opts Options) (*Browser, error) {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Width == 0 {
		opts.Width = 1280
	}
	if opts.Height == 0 {
		opts.Height = 900
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	path := opts.ChromePath
	if path == "" {
		path, _ = launcher.LookPath()
	}
	l := launcher.New().Bin(path).Headless(opts.Headless)
	if opts.ProfileDir != "" {
		l = l.UserDataDir(opts.ProfileDir)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}
	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}
	return &Browser{browser: browser, opts: opts, log: logger.With("component", "crawler")}, nil
}

// Close cleans up browser resources
func (b *Browser) Close() {
	if b.browser != nil {
		b.browser.Close()
	}
}

// Open loads url in a new tab and installs the page bridge. The bridge is
// registered before navigation so it also covers the first document.
func (b *Browser) Open(ctx context.Context, url string) (*Page, error) {
	page, err := b.browser.Context(ctx).Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		return nil, fmt.Errorf("opening tab: %w", err)
	}
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             b.opts.Width,
		Height:            b.opts.Height,
		DeviceScaleFactor: 1,
	}); err != nil {
		page.Close()
		return nil, fmt.Errorf("setting viewport: %w", err)
	}

	p, err := newPage(ctx, b.browser, page, b.log)
	if err != nil {
		page.Close()
		return nil, err
	}

	b.log.Debug("navigating", "url", url)
	if err := page.Timeout(b.opts.Timeout).Navigate(url); err != nil {
		p.Close()
		return nil, fmt.Errorf("navigating to %s: %w", url, err)
	}
	if err := page.Timeout(b.opts.Timeout).WaitLoad(); err != nil {
		p.Close()
		return nil, fmt.Errorf("waiting for load: %w", err)
	}

	// don't hang on persistent connections
	page.Timeout(5*time.Second).WaitRequestIdle(500*time.Millisecond, nil, nil, nil)()
	waitForResults(page, selectors.Default(), 5*time.Second)
	return p, nil
}

// waitForResults polls until a primary result link is visible or timeout.
// Result pages often stream their blocks in after load.
func waitForResults(page *rod.Page, set *selectors.Set, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	checkInterval := 200 * time.Millisecond

	for time.Now().Before(deadline) {
		res, err := page.Eval(`(primary) => {
			let visible = 0;
			try {
				document.querySelectorAll(primary).forEach(el => { if (el.offsetParent) visible++; });
			} catch (e) {}
			return visible;
		}`, set.PrimaryGroup())
		if err != nil {
			return
		}
		if res.Value.Int() > 0 {
			return
		}
		time.Sleep(checkInterval)
	}
}
