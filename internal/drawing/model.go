package drawing

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// MaxSurface is the largest width or height, in pixels, a drawing may be
// captured at or rendered to.
const MaxSurface = 8192

var (
	// ErrMalformed is returned when persisted drawing data cannot be hydrated.
	ErrMalformed = errors.New("drawing: malformed data")
	// ErrTooLarge is returned when an output size exceeds MaxSurface.
	ErrTooLarge = errors.New("drawing: surface too large")
)

// Point is a position in the native pixel space of the surface.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Stroke is one continuous pointer-down to pointer-up line. Width and colour
// are captured when the stroke starts.
type Stroke struct {
	Points      []Point `json:"points"`
	StrokeWidth float64 `json:"strokeWidth"`
	StrokeColor string  `json:"strokeColor"`
}

// Drawable reports whether the stroke has enough points to be painted.
func (s Stroke) Drawable() bool {
	return len(s.Points) > 1
}

// Clone returns a deep copy of the stroke.
func (s Stroke) Clone() Stroke {
	pts := make([]Point, len(s.Points))
	copy(pts, s.Points)
	s.Points = pts
	return s
}

// Validate checks width and colour. Point counts are not checked: a persisted
// one-point line is legal data, it is simply never drawn.
func (s Stroke) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Points, validation.NotNil),
		validation.Field(&s.StrokeWidth, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&s.StrokeColor, validation.Required, validation.By(colorRule)),
	)
}

// Data is the persisted annotation: the ordered strokes plus the tool
// settings to resume editing with.
//
// CanvasWidth and CanvasHeight are optional. When set they record the native
// surface size the lines were captured at.
type Data struct {
	Lines        []Stroke `json:"lines"`
	StrokeWidth  float64  `json:"strokeWidth"`
	StrokeColor  string   `json:"strokeColor"`
	CanvasWidth  float64  `json:"canvasWidth,omitempty"`
	CanvasHeight float64  `json:"canvasHeight,omitempty"`
}

// Validate checks the tool settings and every line.
func (d *Data) Validate() error {
	return validation.ValidateStruct(d,
		validation.Field(&d.Lines, validation.NotNil),
		validation.Field(&d.StrokeWidth, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&d.StrokeColor, validation.Required, validation.By(colorRule)),
		validation.Field(&d.CanvasWidth, validation.Min(0.0), validation.Max(float64(MaxSurface))),
		validation.Field(&d.CanvasHeight, validation.Min(0.0), validation.Max(float64(MaxSurface))),
	)
}

// Clone returns a deep copy of d. A nil receiver yields nil.
func (d *Data) Clone() *Data {
	if d == nil {
		return nil
	}
	out := *d
	out.Lines = make([]Stroke, len(d.Lines))
	for i, l := range d.Lines {
		out.Lines[i] = l.Clone()
	}
	return &out
}

// Tool returns the tool settings stored with the drawing.
func (d *Data) Tool() Tool {
	return Tool{Width: d.StrokeWidth, Color: d.StrokeColor}
}

// Canvas returns the recorded capture size, or the zero Size when unknown.
func (d *Data) Canvas() Size {
	return Size{Width: d.CanvasWidth, Height: d.CanvasHeight}
}

// Fit returns a copy of d rescaled from its recorded capture size onto
// target. Stroke widths scale by the smaller axis factor. When the capture
// size is unknown or already equal to target the copy is unscaled.
func (d *Data) Fit(target Size) *Data {
	out := d.Clone()
	if out == nil {
		return nil
	}
	from := d.Canvas()
	if from.Empty() || target.Empty() || from == target {
		return out
	}
	sx, sy := target.Width/from.Width, target.Height/from.Height
	k := min(sx, sy)
	for i := range out.Lines {
		for j, p := range out.Lines[i].Points {
			out.Lines[i].Points[j] = Rescale(p, from, target)
		}
		out.Lines[i].StrokeWidth *= k
	}
	out.CanvasWidth, out.CanvasHeight = target.Width, target.Height
	return out
}
