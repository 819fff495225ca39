// Package gifgen encodes captured navigation frames as an animated GIF.
package gifgen

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"io"
	"os"
	"sort"

	"github.com/nfnt/resize"
)

// ErrNoFrames is returned when there is nothing to encode
var ErrNoFrames = errors.New("gifgen: no frames")

// Options configures GIF generation
type Options struct {
	FPS      int
	MaxWidth uint // 0 keeps the captured width
	HoldLast int  // extra frames to hold the final selection
}

func (o *Options) delay() int {
	fps := o.FPS
	if fps <= 0 {
		fps = 10
	}
	// in 100ths of a second
	return max(100/fps, 2)
}

// Encode writes frames as a looping GIF
func Encode(w io.Writer, frames []image.Image, opts Options) error {
	if len(frames) == 0 {
		return ErrNoFrames
	}

	bounds := frames[0].Bounds()
	width := uint(bounds.Dx())
	if opts.MaxWidth > 0 && opts.MaxWidth < width {
		width = opts.MaxWidth
	}
	height := uint(float64(width) * float64(bounds.Dy()) / float64(bounds.Dx()))

	g := &gif.GIF{LoopCount: 0}
	palette := generatePalette(frames[0])
	delay := opts.delay()

	for i, frame := range frames {
		if uint(frame.Bounds().Dx()) != width {
			frame = resize.Resize(width, height, frame, resize.Lanczos3)
		}
		paletted := image.NewPaletted(frame.Bounds(), palette)
		draw.FloydSteinberg.Draw(paletted, frame.Bounds(), frame, frame.Bounds().Min)

		d := delay
		if i == len(frames)-1 {
			d += opts.HoldLast * delay
		}
		g.Image = append(g.Image, paletted)
		g.Delay = append(g.Delay, d)
	}

	if err := gif.EncodeAll(w, g); err != nil {
		return fmt.Errorf("encoding gif: %w", err)
	}
	return nil
}

// Write encodes frames to path and returns the file size
func Write(path string, frames []image.Image, opts Options) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if err := Encode(f, frames, opts); err != nil {
		return 0, err
	}
	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// generatePalette picks the 255 most frequent sampled colours plus
// transparency, padding with greys
func generatePalette(img image.Image) color.Palette {
	bounds := img.Bounds()
	counts := make(map[color.RGBA]int)

	// sample every 4th pixel
	const step = 4
	for y := bounds.Min.Y; y < bounds.Max.Y; y += step {
		for x := bounds.Min.X; x < bounds.Max.X; x += step {
			r, g, b, a := img.At(x, y).RGBA()
			counts[color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)}]++
		}
	}

	type colorCount struct {
		c     color.RGBA
		count int
	}
	colors := make([]colorCount, 0, len(counts))
	for c, n := range counts {
		colors = append(colors, colorCount{c, n})
	}
	sort.Slice(colors, func(i, j int) bool {
		if colors[i].count != colors[j].count {
			return colors[i].count > colors[j].count
		}
		a, b := colors[i].c, colors[j].c
		return uint32(a.R)<<24|uint32(a.G)<<16|uint32(a.B)<<8|uint32(a.A) <
			uint32(b.R)<<24|uint32(b.G)<<16|uint32(b.B)<<8|uint32(b.A)
	})

	palette := make(color.Palette, 0, 256)
	palette = append(palette, color.RGBA{0, 0, 0, 0})
	for i := 0; i < len(colors) && len(palette) < 256; i++ {
		palette = append(palette, colors[i].c)
	}
	for len(palette) < 256 {
		gray := uint8(len(palette))
		palette = append(palette, color.RGBA{gray, gray, gray, 255})
	}
	return palette
}
