package drawing

// Surface is a raster target the renderer paints on. Implementations draw
// polylines with round caps and joins.
type Surface interface {
	// Size returns the native pixel size; an empty size makes rendering a no-op.
	Size() Size
	// Clear erases everything drawn so far.
	Clear()
	// Polyline strokes the connected points.
	Polyline(points []Point, width float64, color string)
}

// Render redraws the whole state: clear, every committed stroke in insertion
// order with its own width and colour, then the open stroke. The open stroke
// is painted with the width and colour captured when it began, not the
// current tool.
func Render(surface Surface, s State) {
	if surface == nil || surface.Size().Empty() {
		return
	}
	surface.Clear()
	for _, st := range s.Strokes {
		paint(surface, st)
	}
	if s.Mode == Drawing && s.InProgress != nil {
		paint(surface, *s.InProgress)
	}
}

// RenderSegment paints only the newest segment of the open stroke.
func RenderSegment(surface Surface, s State) {
	if surface == nil || surface.Size().Empty() || s.InProgress == nil {
		return
	}
	pts := s.InProgress.Points
	if len(pts) < 2 {
		return
	}
	surface.Polyline(pts[len(pts)-2:], s.InProgress.StrokeWidth, s.InProgress.StrokeColor)
}

// RenderData paints persisted data onto surface, rescaled from its recorded
// capture size when one is present.
func RenderData(surface Surface, d *Data) {
	if surface == nil || surface.Size().Empty() {
		return
	}
	if d == nil {
		surface.Clear()
		return
	}
	fit := d.Fit(surface.Size())
	Render(surface, State{Strokes: fit.Lines, Tool: fit.Tool()})
}

func paint(surface Surface, st Stroke) {
	if !st.Drawable() {
		return
	}
	surface.Polyline(st.Points, st.StrokeWidth, st.StrokeColor)
}
