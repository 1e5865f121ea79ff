package drawing

import "testing"

type polyline struct {
	points []Point
	width  float64
	color  string
}

// recordingSurface captures draw calls instead of rasterising them.
type recordingSurface struct {
	size   Size
	clears int
	lines  []polyline
}

func newRecordingSurface(w, h float64) *recordingSurface {
	return &recordingSurface{size: Size{Width: w, Height: h}}
}

func (r *recordingSurface) Size() Size { return r.size }

func (r *recordingSurface) Clear() {
	r.clears++
	r.lines = nil
}

func (r *recordingSurface) Polyline(points []Point, width float64, color string) {
	cp := make([]Point, len(points))
	copy(cp, points)
	r.lines = append(r.lines, polyline{points: cp, width: width, color: color})
}

// changes records every OnChange invocation.
type changes struct {
	calls []*Data
}

func (c *changes) record(d *Data) { c.calls = append(c.calls, d) }

func newTestCanvas(t *testing.T, opts Options) (*Canvas, *changes) {
	t.Helper()
	ch := &changes{}
	if opts.Width == 0 {
		opts.Width, opts.Height = 100, 100
	}
	opts.Enabled, opts.DrawingMode = true, true
	opts.OnChange = ch.record
	return NewCanvas(opts), ch
}

func drawStroke(c *Canvas, pts ...Point) {
	if len(pts) == 0 {
		return
	}
	c.PointerDown(pts[0].X, pts[0].Y)
	for _, p := range pts[1:] {
		c.PointerMove(p.X, p.Y)
	}
	c.PointerUp()
}
