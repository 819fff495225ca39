// Package config resolves runtime options from defaults, the environment
// and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/v0xg/resultnav/internal/navigator"
	"github.com/v0xg/resultnav/internal/selectors"
	"github.com/v0xg/resultnav/internal/settings"
)

// ErrInvalid is wrapped by every validation failure
var ErrInvalid = errors.New("invalid configuration")

// Browser engines
const (
	EngineRod      = "rod"
	EngineChromedp = "chromedp"
)

// Environment variables read by Load
const (
	EnvEngine      = "RESULTNAV_ENGINE"
	EnvDB          = "RESULTNAV_DB"
	EnvChrome      = "RESULTNAV_CHROME"
	EnvHostPattern = "RESULTNAV_HOST_PATTERN"
	EnvHeadless    = "RESULTNAV_HEADLESS"
)

// Options holds everything the commands need to build a session
type Options struct {
	Engine     string
	Headless   bool
	Width      int
	Height     int
	ChromePath string
	ProfileDir string

	DBPath        string
	HostPattern   string
	Margin        float64
	Debounce      time.Duration
	InitialDelay  time.Duration
	WatchInterval time.Duration
}

// Default returns options with built-in values
func Default() Options {
	return Options{
		Engine:        EngineRod,
		Width:         1280,
		Height:        900,
		HostPattern:   selectors.DefaultHostPattern,
		Margin:        navigator.DefaultMargin,
		Debounce:      navigator.DefaultDebounce,
		InitialDelay:  navigator.DefaultInitialDelay,
		WatchInterval: settings.DefaultWatchInterval,
	}
}

// Load applies the environment over defaults. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() (Options, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Options{}, fmt.Errorf("loading .env: %w", err)
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv applies variables from lookup over defaults
func FromEnv(lookup func(string) (string, bool)) (Options, error) {
	o := Default()
	if v, ok := lookup(EnvEngine); ok && v != "" {
		o.Engine = v
	}
	if v, ok := lookup(EnvDB); ok && v != "" {
		o.DBPath = v
	}
	if v, ok := lookup(EnvChrome); ok && v != "" {
		o.ChromePath = v
	}
	if v, ok := lookup(EnvHostPattern); ok && v != "" {
		o.HostPattern = v
	}
	if v, ok := lookup(EnvHeadless); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Options{}, fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalid, EnvHeadless, v)
		}
		o.Headless = b
	}
	return o, nil
}

// Validate checks engine, viewport and host pattern
func (o Options) Validate() error {
	switch o.Engine {
	case EngineRod, EngineChromedp:
	default:
		return fmt.Errorf("%w: unknown engine %q (want %s or %s)", ErrInvalid, o.Engine, EngineRod, EngineChromedp)
	}
	if o.Width <= 0 || o.Height <= 0 {
		return fmt.Errorf("%w: viewport %dx%d", ErrInvalid, o.Width, o.Height)
	}
	if _, err := o.Selectors(); err != nil {
		return err
	}
	return nil
}

// Selectors builds the pattern set with the configured host pattern
func (o Options) Selectors() (*selectors.Set, error) {
	set, err := selectors.New(selectors.Primary, selectors.Exclude, o.HostPattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return set, nil
}

// DB returns the settings path, falling back to the per-user default
func (o Options) DB() (string, error) {
	if o.DBPath != "" {
		return o.DBPath, nil
	}
	return settings.DefaultPath()
}

// Navigator returns navigator options for these settings
func (o Options) Navigator() (navigator.Options, error) {
	set, err := o.Selectors()
	if err != nil {
		return navigator.Options{}, err
	}
	return navigator.Options{
		Selectors:    set,
		Margin:       o.Margin,
		Debounce:     o.Debounce,
		InitialDelay: o.InitialDelay,
	}, nil
}
