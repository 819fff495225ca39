package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/v0xg/resultnav/internal/cdp"
	"github.com/v0xg/resultnav/internal/config"
	"github.com/v0xg/resultnav/internal/crawler"
	"github.com/v0xg/resultnav/internal/navigator"
	"github.com/v0xg/resultnav/internal/settings"
)

var (
	dbPath      string
	engine      string
	hostPattern string
	verbose     bool

	headless bool
	chrome   string
	profile  string
	width    int
	height   int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "resultnav",
		Short: "Keyboard navigation for search result pages",
		Long: `resultnav attaches a keyboard cursor to the result links of a search
results page. Arrow keys move the selection, Enter follows the link and
Ctrl+Space opens it in a background tab.

Example:
  resultnav run "https://www.google.com/search?q=golang"`,
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dbPath, "db", "", "Settings database path (default: user config dir)")
	pf.StringVar(&engine, "engine", config.EngineRod, "Browser engine: rod, chromedp")
	pf.StringVar(&hostPattern, "host-pattern", "", "Regular expression for results-page hosts")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Show detailed progress")

	rootCmd.AddCommand(newRunCmd(), newScanCmd(), newCaptureCmd(), newConfigCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// browserFlags registers the flags shared by commands that launch a browser
func browserFlags(cmd *cobra.Command, defaultHeadless bool) {
	cmd.Flags().BoolVar(&headless, "headless", defaultHeadless, "Run the browser without a window")
	cmd.Flags().StringVar(&chrome, "chrome", "", "Chrome/Chromium binary (default: auto-detect)")
	cmd.Flags().StringVar(&profile, "profile", "", "Chrome/Chromium profile directory for signed-in sessions (close browser first)")
	cmd.Flags().IntVar(&width, "width", 1280, "Viewport width")
	cmd.Flags().IntVar(&height, "height", 900, "Viewport height")
}

// loadOptions resolves defaults, .env, environment and finally flags
func loadOptions(cmd *cobra.Command) (config.Options, error) {
	opts, err := config.Load()
	if err != nil {
		return opts, err
	}
	flags := cmd.Flags()
	if flags.Changed("db") {
		opts.DBPath = dbPath
	}
	if flags.Changed("engine") {
		opts.Engine = engine
	}
	if flags.Changed("host-pattern") {
		opts.HostPattern = hostPattern
	}
	// commands share the headless variable but not its default
	if f := flags.Lookup("headless"); f != nil {
		switch {
		case f.Changed:
			opts.Headless = headless
		case os.Getenv(config.EnvHeadless) == "":
			opts.Headless = f.DefValue == "true"
		}
	}
	if flags.Changed("chrome") {
		opts.ChromePath = chrome
	}
	if flags.Changed("profile") {
		opts.ProfileDir = profile
	}
	if flags.Changed("width") {
		opts.Width = width
	}
	if flags.Changed("height") {
		opts.Height = height
	}
	if err := opts.Validate(); err != nil {
		return opts, err
	}
	return opts, nil
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func openStore(opts config.Options, log *slog.Logger) (*settings.Store, error) {
	path, err := opts.DB()
	if err != nil {
		return nil, fmt.Errorf("locating settings database: %w", err)
	}
	return settings.Open(path, settings.Options{WatchInterval: opts.WatchInterval, Logger: log})
}

// livePage is a browser tab from either engine
type livePage interface {
	navigator.Document
	navigator.Events
	Screenshot(ctx context.Context) ([]byte, error)
}

// openPage launches the configured engine and loads url. The returned func
// closes the tab and the browser.
func openPage(ctx context.Context, opts config.Options, url string, log *slog.Logger) (livePage, func(), error) {
	switch opts.Engine {
	case config.EngineChromedp:
		b, err := cdp.New(ctx, cdp.Options{
			Width:      opts.Width,
			Height:     opts.Height,
			Headless:   opts.Headless,
			ChromePath: opts.ChromePath,
			ProfileDir: opts.ProfileDir,
			Logger:     log,
		})
		if err != nil {
			return nil, nil, err
		}
		p, err := b.Open(ctx, url)
		if err != nil {
			b.Close()
			return nil, nil, err
		}
		return p, func() { p.Close(); b.Close() }, nil
	default:
		b, err := crawler.Launch(crawler.Options{
			Width:      opts.Width,
			Height:     opts.Height,
			Headless:   opts.Headless,
			ChromePath: opts.ChromePath,
			ProfileDir: opts.ProfileDir,
			Logger:     log,
		})
		if err != nil {
			return nil, nil, err
		}
		p, err := b.Open(ctx, url)
		if err != nil {
			b.Close()
			return nil, nil, err
		}
		return p, func() { p.Close(); b.Close() }, nil
	}
}
