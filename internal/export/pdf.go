// Package export writes drawings as single-page vector PDF documents.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/jung-kurt/gofpdf"

	"github.com/starford/reviewink/internal/drawing"
)

// ErrNoSize is returned when the page size cannot be determined.
var ErrNoSize = errors.New("export: page size unknown")

const backgroundName = "frame"

// PDFOptions controls the exported page.
type PDFOptions struct {
	// Size is the page size in points. Zero means the drawing's capture size.
	Size drawing.Size
	// Background is drawn under the strokes, scaled to the page.
	Background image.Image
	Title      string
}

// WritePDF renders d as vector paths on one page sized to opts.Size.
func WritePDF(w io.Writer, d *drawing.Data, opts PDFOptions) error {
	size := opts.Size
	if size.Empty() && d != nil {
		size = d.Canvas()
	}
	if size.Empty() && opts.Background != nil {
		b := opts.Background.Bounds()
		size = drawing.Size{Width: float64(b.Dx()), Height: float64(b.Dy())}
	}
	if size.Empty() {
		return ErrNoSize
	}
	if size.Oversized() {
		return fmt.Errorf("export: page %gx%g: %w", size.Width, size.Height, drawing.ErrTooLarge)
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: size.Width, Ht: size.Height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	if opts.Title != "" {
		pdf.SetTitle(opts.Title, true)
	}
	pdf.AddPage()

	if opts.Background != nil {
		if err := placeBackground(pdf, opts.Background, size); err != nil {
			return err
		}
	}

	if d != nil {
		fit := d.Fit(size)
		for _, st := range fit.Lines {
			if !st.Drawable() {
				continue
			}
			strokePath(pdf, st)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("export: write pdf: %w", err)
	}
	return nil
}

func placeBackground(pdf *gofpdf.Fpdf, bg image.Image, size drawing.Size) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, bg); err != nil {
		return fmt.Errorf("export: encode background: %w", err)
	}
	opt := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(backgroundName, opt, &buf)
	pdf.ImageOptions(backgroundName, 0, 0, size.Width, size.Height, false, opt, 0, "")
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("export: place background: %w", err)
	}
	return nil
}

func strokePath(pdf *gofpdf.Fpdf, st drawing.Stroke) {
	c, err := drawing.ParseColor(st.StrokeColor)
	if err != nil {
		c, _ = drawing.ParseColor(drawing.DefaultStrokeColor)
	}
	pdf.SetAlpha(float64(c.A)/255, "Normal")
	pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
	pdf.SetLineWidth(st.StrokeWidth)
	pdf.SetLineCapStyle("round")
	pdf.SetLineJoinStyle("round")

	pdf.MoveTo(st.Points[0].X, st.Points[0].Y)
	for _, p := range st.Points[1:] {
		pdf.LineTo(p.X, p.Y)
	}
	pdf.DrawPath("D")
}
