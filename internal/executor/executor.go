// Package executor replays a key script against a navigator and records a
// frame per selection for GIF output.
package executor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/png"
	"log/slog"
	"time"

	"github.com/v0xg/resultnav/internal/navigator"
	"github.com/v0xg/resultnav/internal/overlay"
)

// Shooter captures the visible viewport as an encoded image
type Shooter interface {
	Screenshot(ctx context.Context) ([]byte, error)
}

// Measurer reports where a node currently sits
type Measurer interface {
	Rect(ctx context.Context, id string) (navigator.Rect, bool, error)
}

// Options configures recording
type Options struct {
	FPS       int
	BaseDelay time.Duration // settle time after each key
	Hold      int           // frames to hold each selection, tween included
	Scale     float64       // screenshot device pixel ratio
	Logger    *slog.Logger
}

// Recording holds frames with the highlight box for each
type Recording struct {
	Frames []image.Image
	Boxes  []overlay.Box
}

// Execute records the initial selection, then each key press in order
func Execute(ctx context.Context, nav *navigator.Navigator, doc Measurer, shot Shooter, actions []Action, opts Options) (*Recording, error) {
	if opts.Hold <= 0 {
		opts.Hold = max(opts.FPS/2, 1)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	rec := &Recording{}
	var last overlay.Box

	capture := func(label string) error {
		frame, err := captureFrame(ctx, shot)
		if err != nil {
			return fmt.Errorf("capturing %s: %w", label, err)
		}
		box := selectionBox(ctx, nav, doc, opts.Scale)
		for _, b := range overlay.Tween(last, box, opts.Hold) {
			rec.Frames = append(rec.Frames, frame)
			rec.Boxes = append(rec.Boxes, b)
		}
		last = box
		return nil
	}

	if err := capture("initial selection"); err != nil {
		return nil, err
	}

	for i, action := range actions {
		for r := 0; r < max(action.Repeat, 1); r++ {
			if err := ctx.Err(); err != nil {
				return rec, err
			}
			handled := nav.HandleKey(ctx, action.Key)
			_, cursor, _ := nav.Selection()
			logger.Debug("key", "step", i+1, "action", action.String(), "handled", handled, "cursor", cursor)
			if opts.BaseDelay > 0 {
				time.Sleep(opts.BaseDelay)
			}
			if err := capture(action.String()); err != nil {
				return rec, err
			}
		}
	}
	return rec, nil
}

// selectionBox measures the selected candidate, or the zero box
func selectionBox(ctx context.Context, nav *navigator.Navigator, doc Measurer, scale float64) overlay.Box {
	c, _, ok := nav.Selection()
	if !ok {
		return overlay.Box{}
	}
	r, ok, err := doc.Rect(ctx, c.ID)
	if err != nil || !ok {
		return overlay.Box{}
	}
	return overlay.FromRect(r, scale)
}

func captureFrame(ctx context.Context, shot Shooter) (image.Image, error) {
	data, err := shot.Screenshot(ctx)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding screenshot: %w", err)
	}
	return img, nil
}
