package navigator

import (
	"context"
	"errors"

	"github.com/v0xg/resultnav/internal/selectors"
)

// ErrDetached is returned by operations on a navigator that is not attached
var ErrDetached = errors.New("navigator is detached")

// ErrOutOfRange is returned by Select for an index outside the list
var ErrOutOfRange = errors.New("candidate index out of range")

// Node is a raw element record produced by a document scan
type Node struct {
	ID       string  `json:"id"`
	Href     string  `json:"href"`
	LaidOut  bool    `json:"laidOut"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Top      float64 `json:"top"`
	Left     float64 `json:"left"`
	HasText  bool    `json:"hasText"`
	HasImage bool    `json:"hasImage"`
	Excluded bool    `json:"excluded"` // element or an ancestor matches an exclusion pattern
}

// Rect is a bounding box in viewport coordinates
type Rect struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Bottom float64 `json:"bottom"`
	Right  float64 `json:"right"`
}

// Viewport describes the visible window and the scrollable document
type Viewport struct {
	Width          float64 `json:"width"`
	Height         float64 `json:"height"`
	ScrollY        float64 `json:"scrollY"`
	DocumentHeight float64 `json:"documentHeight"`
}

// PageState is mirrored into the page so the page-side key listener can
// decide on preventDefault without a round trip
type PageState struct {
	Active   bool `json:"active"`
	Selected bool `json:"selected"`
}

// Document is the rendering environment the navigator works against
type Document interface {
	// URL returns the address of the loaded page
	URL(ctx context.Context) (string, error)

	// Scan returns a record for every element matching any primary pattern
	Scan(ctx context.Context, set *selectors.Set) ([]Node, error)

	// Rect measures a node. ok is false when the node is no longer attached.
	Rect(ctx context.Context, id string) (r Rect, ok bool, err error)

	Viewport(ctx context.Context) (Viewport, error)
	ScrollTo(ctx context.Context, y float64) error

	// Mark injects the indicator and raises the node's stacking order.
	// Unmark removes it and restores the previous z-index.
	Mark(ctx context.Context, id string) error
	Unmark(ctx context.Context, id string) error
	Marked(ctx context.Context, id string) (bool, error)

	// Activate follows the link in place
	Activate(ctx context.Context, id string) error

	// OpenBackground opens href in a new background tab
	OpenBackground(ctx context.Context, href string) error

	Publish(ctx context.Context, state PageState) error
}

// LifecycleReady is the lifecycle reason for a freshly loaded document.
// Node ids from the previous document mean nothing after it.
const LifecycleReady = "ready"

// Handlers receive page events
type Handlers struct {
	Key      func(KeyEvent)
	Mutation func()
}

// Events delivers page events to the navigator
type Events interface {
	// WatchLifecycle reports document-ready, visibility and cache-restore
	// events. reason is LifecycleReady, "visible" or "pageshow".
	WatchLifecycle(ctx context.Context, fn func(reason string)) (stop func(), err error)

	// WatchInput installs the key listener and the mutation observer
	WatchInput(ctx context.Context, h Handlers) (stop func(), err error)
}

// Settings is the persistence service holding the enabled flag
type Settings interface {
	Enabled(ctx context.Context) (bool, error)
	WatchEnabled(ctx context.Context, fn func(enabled bool)) (stop func(), err error)
}
