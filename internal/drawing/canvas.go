package drawing

import (
	"fmt"
	"log/slog"
	"sync"
)

// Touch is one active touch point in viewport coordinates.
type Touch struct {
	ID int64   `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// Options configure a Canvas.
type Options struct {
	// Width and Height are the native pixel size of the surface.
	Width  float64
	Height float64
	// Enabled and DrawingMode must both be true for input to be recorded.
	Enabled     bool
	DrawingMode bool
	// Tool is used when Initial is nil. Zero means DefaultTool.
	Tool       Tool
	WidthRange WidthRange
	Initial    *Data
	// OnChange receives the serialized drawing after each committed stroke
	// and after Clear. It is called without the canvas lock held.
	OnChange func(*Data)
	Surface  Surface
	Logger   *slog.Logger
}

// Canvas is one annotation session: it owns the state, maps viewport input
// into native coordinates, paints the surface and reports changes.
// It is safe for concurrent use.
type Canvas struct {
	mu sync.Mutex

	state  State
	native Size
	bounds Rect
	// autoBounds is set until the host reports a layout; bounds then
	// follow the native size.
	autoBounds bool

	palette    Rect
	hasPalette bool

	enabled     bool
	drawingMode bool
	widths      WidthRange

	touching bool
	touchID  int64

	onChange func(*Data)
	surface  Surface
	logger   *slog.Logger
}

// NewCanvas creates a session hydrated from opts.Initial and paints it.
func NewCanvas(opts Options) *Canvas {
	tool := opts.Tool
	if tool == (Tool{}) {
		tool = DefaultTool()
	}
	widths := opts.WidthRange
	if widths == (WidthRange{}) {
		widths = DefaultWidthRange()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	native := Size{Width: opts.Width, Height: opts.Height}
	c := &Canvas{
		state:       Hydrate(opts.Initial, tool),
		native:      native,
		bounds:      Rect{Width: native.Width, Height: native.Height},
		autoBounds:  true,
		enabled:     opts.Enabled,
		drawingMode: opts.DrawingMode,
		widths:      widths,
		onChange:    opts.OnChange,
		surface:     opts.Surface,
		logger:      logger,
	}
	c.fitLocked()
	Render(c.surface, c.state)
	return c
}

// State returns the current state. The returned value shares backing arrays
// with the canvas and must not be modified.
func (c *Canvas) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot returns the serialized drawing, nil when there are no strokes.
func (c *Canvas) Snapshot() *Data {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Snapshot()
}

// Tool returns the current pen.
func (c *Canvas) Tool() Tool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Tool
}

// Native returns the native surface size.
func (c *Canvas) Native() Size {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.native
}

// DrawingMode reports whether drawing mode is on.
func (c *Canvas) DrawingMode() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.drawingMode
}

// SetLayout records where the surface is displayed in the viewport.
func (c *Canvas) SetLayout(bounds Rect) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bounds = bounds
	c.autoBounds = false
}

// SetPalette records the viewport rectangle of the tool palette. Input
// that starts inside it never begins a stroke.
func (c *Canvas) SetPalette(r Rect) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.palette = r
	c.hasPalette = !r.Empty()
}

// ClearPalette forgets the palette rectangle.
func (c *Canvas) ClearPalette() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.palette = Rect{}
	c.hasPalette = false
}

// SetEnabled toggles input. Disabling while a stroke is open finishes it.
func (c *Canvas) SetEnabled(on bool) {
	c.mu.Lock()
	c.enabled = on
	c.mu.Unlock()
	if !on {
		c.end()
	}
}

// SetDrawingMode toggles drawing mode. Leaving it while a stroke is open
// finishes the stroke.
func (c *Canvas) SetDrawingMode(on bool) {
	c.mu.Lock()
	c.drawingMode = on
	c.mu.Unlock()
	if !on {
		c.end()
	}
}

// PointerDown starts a stroke at a viewport position. It reports whether a
// stroke was started.
func (c *Canvas) PointerDown(x, y float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Mode == Drawing || !c.acceptLocked(x, y) {
		return false
	}
	c.state = Begin(c.state, Normalize(x, y, c.bounds, c.native))
	return true
}

// PointerMove extends the open mouse stroke.
func (c *Canvas) PointerMove(x, y float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Mode != Drawing || c.touching {
		return
	}
	c.extendLocked(x, y)
}

// PointerUp finishes the open stroke.
func (c *Canvas) PointerUp() {
	c.end()
}

// PointerLeave finishes the open stroke the same way PointerUp does.
func (c *Canvas) PointerLeave() {
	c.end()
}

// TouchStart starts a stroke from the first touch point. Additional touches
// are ignored while a stroke is open.
func (c *Canvas) TouchStart(touches []Touch) bool {
	if len(touches) == 0 {
		return false
	}
	first := touches[0]
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Mode == Drawing || !c.acceptLocked(first.X, first.Y) {
		return false
	}
	c.state = Begin(c.state, Normalize(first.X, first.Y, c.bounds, c.native))
	c.touching = true
	c.touchID = first.ID
	return true
}

// TouchMove extends the open stroke with the tracked touch.
func (c *Canvas) TouchMove(touches []Touch) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Mode != Drawing || !c.touching {
		return
	}
	for _, t := range touches {
		if t.ID == c.touchID {
			c.extendLocked(t.X, t.Y)
			return
		}
	}
}

// TouchEnd finishes the stroke when the tracked touch is among changed.
func (c *Canvas) TouchEnd(changed []Touch) {
	c.mu.Lock()
	tracked := c.touching && containsTouch(changed, c.touchID)
	c.mu.Unlock()
	if tracked {
		c.end()
	}
}

// TouchCancel behaves like TouchEnd.
func (c *Canvas) TouchCancel(changed []Touch) {
	c.TouchEnd(changed)
}

// Clear removes every stroke and reports the empty drawing.
func (c *Canvas) Clear() {
	c.mu.Lock()
	c.state = Clear(c.state)
	c.touching = false
	Render(c.surface, c.state)
	snap := c.state.Snapshot()
	c.mu.Unlock()

	c.logger.Debug("canvas: cleared")
	c.notify(snap)
}

// SetWidth sets the pen width, clamped to the width range, and returns the
// width applied.
func (c *Canvas) SetWidth(w float64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.state.Tool
	t.Width = c.widths.Clamp(w)
	c.state = WithTool(c.state, t)
	return t.Width
}

// AdjustWidth moves the pen width by steps increments of the range step.
func (c *Canvas) AdjustWidth(steps int) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.state.Tool
	t.Width = c.widths.Clamp(t.Width + float64(steps)*c.widths.Step)
	c.state = WithTool(c.state, t)
	return t.Width
}

// SetColor sets the pen colour for subsequent strokes.
func (c *Canvas) SetColor(color string) error {
	if !ValidColor(color) {
		return fmt.Errorf("canvas: set color %q: %w", color, ErrInvalidColor)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.state.Tool
	t.Color = color
	c.state = WithTool(c.state, t)
	return nil
}

// Resize changes the native surface size and rescales the committed strokes
// onto it. An open stroke is discarded.
func (c *Canvas) Resize(width, height float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Mode == Drawing {
		c.logger.Debug("canvas: open stroke dropped on resize")
	}
	c.state = Abort(c.state)
	c.touching = false
	c.native = Size{Width: width, Height: height}
	if c.autoBounds {
		c.bounds = Rect{Width: width, Height: height}
	}
	c.fitLocked()
	Render(c.surface, c.state)
}

// Hydrate replaces the session contents with d, rescaled from its capture
// size onto the native size. No change is reported.
func (c *Canvas) Hydrate(d *Data) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Hydrate(d, c.state.Tool)
	c.touching = false
	c.fitLocked()
	Render(c.surface, c.state)
}

// Repaint redraws the surface from the current state.
func (c *Canvas) Repaint() {
	c.mu.Lock()
	defer c.mu.Unlock()
	Render(c.surface, c.state)
}

// fitLocked moves the committed strokes into the native coordinate space
// and records it as the capture size.
func (c *Canvas) fitLocked() {
	if c.native.Empty() {
		return
	}
	if snap := c.state.Snapshot(); snap != nil {
		c.state.Strokes = snap.Fit(c.native).Lines
	}
	c.state.Canvas = c.native
}

func (c *Canvas) acceptLocked(x, y float64) bool {
	if !c.enabled || !c.drawingMode {
		return false
	}
	if c.native.Empty() || c.bounds.Empty() {
		return false
	}
	if c.hasPalette && c.palette.Contains(x, y) {
		c.logger.Debug("canvas: input over palette ignored",
			slog.Float64("x", x), slog.Float64("y", y))
		return false
	}
	return true
}

func (c *Canvas) extendLocked(x, y float64) {
	c.state = Extend(c.state, Normalize(x, y, c.bounds, c.native))
	RenderSegment(c.surface, c.state)
}

// end finishes any open stroke and reports it when committed.
func (c *Canvas) end() {
	c.mu.Lock()
	if c.state.Mode != Drawing {
		c.mu.Unlock()
		return
	}
	next, committed := Finish(c.state)
	c.touching = false
	if !committed {
		c.state = next
		c.mu.Unlock()
		c.logger.Debug("canvas: single-point stroke discarded")
		return
	}
	next.Canvas = c.native
	c.state = next
	Render(c.surface, c.state)
	snap := c.state.Snapshot()
	n := c.state.Len()
	c.mu.Unlock()

	c.logger.Debug("canvas: stroke committed", slog.Int("strokes", n))
	c.notify(snap)
}

func (c *Canvas) notify(d *Data) {
	if c.onChange != nil {
		c.onChange(d)
	}
}

func containsTouch(ts []Touch, id int64) bool {
	for _, t := range ts {
		if t.ID == id {
			return true
		}
	}
	return false
}
