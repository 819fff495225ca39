// Package cdp is the chromedp browser backend. It serves the same page
// bridge as the rod backend for setups that already run chromedp or attach
// to a remote debugging endpoint.
package cdp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/v0xg/resultnav/internal/bridge"
)

// Options configures the browser
type Options struct {
	Width      int
	Height     int
	Timeout    time.Duration
	Headless   bool
	ChromePath string
	ProfileDir string
	RemoteURL  string // attach to a running browser instead of launching one
	Logger     *slog.Logger
}

// Browser owns the allocator and the first tab context
type Browser struct {
	ctx    context.Context
	cancel context.CancelFunc
	opts   Options
	log    *slog.Logger
}

func allocatorOptions(opts Options) []chromedp.ExecAllocatorOption {
	o := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	o = append(o,
		chromedp.Flag("headless", opts.Headless),
		chromedp.WindowSize(opts.Width, opts.Height),
	)
	if opts.ChromePath != "" {
		o = append(o, chromedp.ExecPath(opts.ChromePath))
	}
	if opts.ProfileDir != "" {
		o = append(o, chromedp.UserDataDir(opts.ProfileDir))
	}
	return o
}

// New starts or attaches to a browser. Cancelling ctx shuts it down.
func New(ctx context.Context, opts Options) (*Browser, error) {
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
	log := logger.With("component", "cdp")

	var allocCtx context.Context
	var allocCancel context.CancelFunc
	if opts.RemoteURL != "" {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(ctx, opts.RemoteURL)
	} else {
		allocCtx, allocCancel = chromedp.NewExecAllocator(ctx, allocatorOptions(opts)...)
	}
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			log.Debug(fmt.Sprintf(format, args...))
		}),
	)
	// first Run starts the browser
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("starting browser: %w", err)
	}

	return &Browser{
		ctx: browserCtx,
		cancel: func() {
			browserCancel()
			allocCancel()
		},
		opts: opts,
		log:  log,
	}, nil
}

// Close shuts the browser down
func (b *Browser) Close() {
	b.cancel()
}

// Open loads url in a new tab with the page bridge installed
func (b *Browser) Open(ctx context.Context, url string) (*Page, error) {
	tabCtx, tabCancel := chromedp.NewContext(b.ctx)
	p := &Page{
		ctx:    tabCtx,
		cancel: tabCancel,
		router: bridge.NewRouter(),
		log:    b.log,
	}
	push := p.router.Pump(tabCtx, b.log, p.beforeDispatch)
	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		if payload, ok := bindingPayload(ev); ok {
			push(payload)
		}
	})

	err := chromedp.Run(tabCtx,
		chromedp.EmulateViewport(int64(b.opts.Width), int64(b.opts.Height)),
		runtime.AddBinding(bridge.Binding),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(bridge.Install).Do(ctx)
			return err
		}),
	)
	if err != nil {
		tabCancel()
		return nil, fmt.Errorf("installing page bridge: %w", err)
	}

	b.log.Debug("navigating", "url", url)
	navCtx, navCancel := context.WithTimeout(tabCtx, b.opts.Timeout)
	defer navCancel()
	if err := chromedp.Run(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		tabCancel()
		return nil, fmt.Errorf("navigating to %s: %w", url, err)
	}
	return p, nil
}

// bindingPayload extracts our binding's payload from a target event
func bindingPayload(ev interface{}) (string, bool) {
	called, ok := ev.(*runtime.EventBindingCalled)
	if !ok || called.Name != bridge.Binding {
		return "", false
	}
	return called.Payload, true
}
