package gifgen

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"path/filepath"
	"testing"
)

func solid(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{c}, image.Point{}, draw.Src)
	return img
}

func TestEncode(t *testing.T) {
	frames := []image.Image{
		solid(64, 32, color.White),
		solid(64, 32, color.RGBA{26, 115, 232, 255}),
	}
	var buf bytes.Buffer
	if err := Encode(&buf, frames, Options{FPS: 10, MaxWidth: 32, HoldLast: 3}); err != nil {
		t.Fatal(err)
	}

	g, err := gif.DecodeAll(&buf)
	if err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	if len(g.Image) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(g.Image))
	}
	if b := g.Image[0].Bounds(); b.Dx() != 32 || b.Dy() != 16 {
		t.Errorf("expected 32x16 frames, got %v", b)
	}
	if g.Delay[0] != 10 || g.Delay[1] != 40 {
		t.Errorf("unexpected delays %v", g.Delay)
	}
}

func TestEncodeNoFrames(t *testing.T) {
	if err := Encode(&bytes.Buffer{}, nil, Options{}); !errors.Is(err, ErrNoFrames) {
		t.Errorf("expected ErrNoFrames, got %v", err)
	}
}

func TestWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.gif")
	size, err := Write(path, []image.Image{solid(8, 8, color.Black)}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if size == 0 {
		t.Error("expected non-empty file")
	}
}

func TestGeneratePaletteOrdersByFrequency(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})

	p := generatePalette(img)
	if len(p) != 256 {
		t.Fatalf("expected 256 colours, got %d", len(p))
	}
	if p[0] != (color.RGBA{0, 0, 0, 0}) {
		t.Errorf("expected transparent first, got %v", p[0])
	}
	if p[1] != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("expected white as most frequent, got %v", p[1])
	}
}
