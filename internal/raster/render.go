package raster

import (
	"fmt"
	"image"
	"io"
	"math"

	"github.com/starford/reviewink/internal/drawing"
)

// ResolveSize picks output dimensions: the requested size, else the
// drawing's recorded capture size, else the background's bounds.
func ResolveSize(want drawing.Size, d *drawing.Data, bg image.Image) drawing.Size {
	if !want.Empty() {
		return want
	}
	if d != nil && !d.Canvas().Empty() {
		return d.Canvas()
	}
	if bg != nil {
		b := bg.Bounds()
		return drawing.Size{Width: float64(b.Dx()), Height: float64(b.Dy())}
	}
	return drawing.Size{}
}

// RenderPNG paints d at size over an optional background and writes a PNG.
// The drawing is rescaled when its recorded capture size differs.
func RenderPNG(w io.Writer, d *drawing.Data, size drawing.Size, bg image.Image) error {
	size = ResolveSize(size, d, bg)
	if size.Empty() {
		return ErrNoSize
	}
	if size.Oversized() {
		return fmt.Errorf("raster: render %gx%g: %w", size.Width, size.Height, drawing.ErrTooLarge)
	}
	s, err := NewOver(bg, int(math.Round(size.Width)), int(math.Round(size.Height)))
	if err != nil {
		return err
	}
	defer s.Close()

	drawing.RenderData(s, d)
	return s.EncodePNG(w)
}
