// Package overlay draws the selection highlight onto captured frames.
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/v0xg/resultnav/internal/navigator"
)

// Box is a highlight rectangle in frame pixels. The zero Box draws nothing.
type Box struct {
	X0, Y0, X1, Y1 int
}

// Empty reports whether the box has no area
func (b Box) Empty() bool {
	return b.X1 <= b.X0 || b.Y1 <= b.Y0
}

// Style controls how a box is drawn
type Style struct {
	Color     color.RGBA
	Thickness int
	Pad       int // gap between the element edge and the outline
	Badge     int // width of the leading marker, 0 disables it
}

// DefaultStyle matches the in-page indicator colour
func DefaultStyle() Style {
	return Style{
		Color:     color.RGBA{26, 115, 232, 255},
		Thickness: 3,
		Pad:       4,
		Badge:     10,
	}
}

// FromRect converts a viewport rect to a frame box. scale is the device
// pixel ratio of the screenshot.
func FromRect(r navigator.Rect, scale float64) Box {
	if scale <= 0 {
		scale = 1
	}
	return Box{
		X0: int(math.Floor(r.Left * scale)),
		Y0: int(math.Floor(r.Top * scale)),
		X1: int(math.Ceil(r.Right * scale)),
		Y1: int(math.Ceil(r.Bottom * scale)),
	}
}

// Apply draws boxes[i] on frames[i]
func Apply(frames []image.Image, boxes []Box, style Style) ([]image.Image, error) {
	if len(frames) != len(boxes) {
		return nil, fmt.Errorf("overlay: %d frames but %d boxes", len(frames), len(boxes))
	}
	result := make([]image.Image, len(frames))
	for i, frame := range frames {
		result[i] = drawOnFrame(frame, boxes[i], style)
	}
	return result, nil
}

// Tween returns n boxes moving from one selection to the next. An empty
// endpoint makes the tween jump instead of sliding.
func Tween(from, to Box, n int) []Box {
	if n <= 0 {
		return nil
	}
	out := make([]Box, n)
	for i := range out {
		if from.Empty() || to.Empty() || n == 1 {
			out[i] = to
			continue
		}
		t := easeInOut(float64(i+1) / float64(n))
		out[i] = Box{
			X0: lerp(from.X0, to.X0, t),
			Y0: lerp(from.Y0, to.Y0, t),
			X1: lerp(from.X1, to.X1, t),
			Y1: lerp(from.Y1, to.Y1, t),
		}
	}
	return out
}

func lerp(a, b int, t float64) int {
	return int(math.Round(float64(a) + t*float64(b-a)))
}

// easeInOut provides smooth acceleration and deceleration
func easeInOut(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	return 1 - math.Pow(-2*t+2, 2)/2
}

func drawOnFrame(frame image.Image, box Box, style Style) image.Image {
	bounds := frame.Bounds()
	result := image.NewRGBA(bounds)
	draw.Draw(result, bounds, frame, bounds.Min, draw.Src)

	if box.Empty() {
		return result
	}
	drawBox(result, box, style)
	if style.Badge > 0 {
		drawBadge(result, box, style)
	}
	return result
}

// drawBox strokes the padded outline, growing outward per thickness step
func drawBox(img *image.RGBA, b Box, style Style) {
	for i := 0; i < max(style.Thickness, 1); i++ {
		x0, y0 := b.X0-style.Pad-i, b.Y0-style.Pad-i
		x1, y1 := b.X1+style.Pad+i, b.Y1+style.Pad+i
		drawLine(img, x0, y0, x1, y0, style.Color)
		drawLine(img, x1, y0, x1, y1, style.Color)
		drawLine(img, x1, y1, x0, y1, style.Color)
		drawLine(img, x0, y1, x0, y0, style.Color)
	}
}

// drawBadge fills a right-pointing triangle left of the box, vertically
// centred, like the in-page marker
func drawBadge(img *image.RGBA, b Box, style Style) {
	size := style.Badge
	tipX := b.X0 - style.Pad - style.Thickness - 4
	midY := (b.Y0 + b.Y1) / 2
	for dx := 0; dx < size; dx++ {
		half := (size - dx) / 2
		x := tipX - dx
		drawLine(img, x, midY-half, x, midY+half, style.Color)
	}
}

// drawLine draws a line between two points using Bresenham's algorithm
func drawLine(img *image.RGBA, x1, y1, x2, y2 int, c color.RGBA) {
	dx := abs(x2 - x1)
	dy := abs(y2 - y1)
	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy

	for {
		setPixelSafe(img, x1, y1, c)
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

func setPixelSafe(img *image.RGBA, x, y int, c color.RGBA) {
	if (image.Point{x, y}).In(img.Bounds()) {
		img.SetRGBA(x, y, c)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
