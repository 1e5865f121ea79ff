// Package raster paints drawings onto gg pixel contexts and encodes them as
// PNG images, optionally on top of a captured video frame.
package raster

import (
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"

	"github.com/gogpu/gg"

	"github.com/starford/reviewink/internal/drawing"
)

// ErrNoSize is returned when neither the caller, the drawing nor the
// background provide output dimensions.
var ErrNoSize = errors.New("raster: output size unknown")

// Surface is a drawing.Surface backed by a gg context.
type Surface struct {
	dc         *gg.Context
	size       drawing.Size
	background *gg.ImageBuf
	logger     *slog.Logger
	err        error
}

var _ drawing.Surface = (*Surface)(nil)

// New creates a transparent surface of the given native size.
func New(width, height int) (*Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("raster: new %dx%d: %w", width, height, ErrNoSize)
	}
	if width > drawing.MaxSurface || height > drawing.MaxSurface {
		return nil, fmt.Errorf("raster: new %dx%d: %w", width, height, drawing.ErrTooLarge)
	}
	return &Surface{
		dc:     gg.NewContext(width, height),
		size:   drawing.Size{Width: float64(width), Height: float64(height)},
		logger: slog.Default(),
	}, nil
}

// NewOver creates a surface whose Clear repaints bg scaled to fill it.
func NewOver(bg image.Image, width, height int) (*Surface, error) {
	s, err := New(width, height)
	if err != nil {
		return nil, err
	}
	if bg != nil {
		s.background = gg.ImageBufFromImage(bg)
	}
	s.Clear()
	return s, nil
}

// WithLogger sets the logger used to report skipped strokes.
func (s *Surface) WithLogger(l *slog.Logger) *Surface {
	if l != nil {
		s.logger = l
	}
	return s
}

func (s *Surface) Size() drawing.Size { return s.size }

func (s *Surface) Clear() {
	s.dc.Clear()
	if s.background == nil {
		return
	}
	s.dc.DrawImageEx(s.background, gg.DrawImageOptions{
		DstWidth:  s.size.Width,
		DstHeight: s.size.Height,
	})
}

// Polyline strokes points with round caps and joins. Colours that do not
// parse fall back to the default pen colour.
func (s *Surface) Polyline(points []drawing.Point, width float64, color string) {
	if len(points) < 2 {
		return
	}
	c, err := drawing.ParseColor(color)
	if err != nil {
		s.logger.Warn("raster: bad stroke color", slog.String("color", color))
		c, _ = drawing.ParseColor(drawing.DefaultStrokeColor)
	}
	s.dc.SetColor(c)
	s.dc.SetLineWidth(width)
	s.dc.SetLineCap(gg.LineCapRound)
	s.dc.SetLineJoin(gg.LineJoinRound)
	s.dc.MoveTo(points[0].X, points[0].Y)
	for _, p := range points[1:] {
		s.dc.LineTo(p.X, p.Y)
	}
	if err := s.dc.Stroke(); err != nil && s.err == nil {
		s.err = fmt.Errorf("raster: stroke: %w", err)
	}
}

// Err returns the first stroke failure, if any.
func (s *Surface) Err() error { return s.err }

// Image returns the current pixels.
func (s *Surface) Image() image.Image { return s.dc.Image() }

// EncodePNG writes the current pixels as PNG.
func (s *Surface) EncodePNG(w io.Writer) error {
	if s.err != nil {
		return s.err
	}
	if err := s.dc.EncodePNG(w); err != nil {
		return fmt.Errorf("raster: encode png: %w", err)
	}
	return nil
}

// Close releases the context.
func (s *Surface) Close() error {
	return s.dc.Close()
}
