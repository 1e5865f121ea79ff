package drawing

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanvasEndToEnd(t *testing.T) {
	c, ch := newTestCanvas(t, Options{})

	drawStroke(c, Point{0, 0}, Point{10, 10}, Point{20, 5})
	c.Clear()
	c.SetWidth(8)
	require.NoError(t, c.SetColor("#0000FF"))
	drawStroke(c, Point{1, 1}, Point{2, 2})

	require.Len(t, ch.calls, 3)
	assert.Nil(t, ch.calls[1])

	snap := c.Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, []Stroke{{Points: []Point{{1, 1}, {2, 2}}, StrokeWidth: 8, StrokeColor: "#0000FF"}}, snap.Lines)

	out, err := json.MarshalIndent(snap, "", "  ")
	require.NoError(t, err)
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "end_to_end", append(out, '\n'))
}

func TestCanvasDegenerateStroke(t *testing.T) {
	c, ch := newTestCanvas(t, Options{})
	drawStroke(c, Point{0, 0}, Point{10, 10})
	require.Len(t, ch.calls, 1)

	c.PointerDown(50, 50)
	c.PointerUp()

	assert.Equal(t, 1, c.State().Len())
	assert.Len(t, ch.calls, 1)
	assert.Len(t, c.Snapshot().Lines, 1)
}

func TestCanvasClearIdempotent(t *testing.T) {
	c, ch := newTestCanvas(t, Options{})
	c.Clear()
	assert.Equal(t, 0, c.State().Len())
	require.Len(t, ch.calls, 1)
	assert.Nil(t, ch.calls[0])
}

func TestCanvasScaledLayout(t *testing.T) {
	for _, ratio := range []float64{0.5, 1, 2} {
		c, ch := newTestCanvas(t, Options{Width: 200, Height: 100})
		c.SetLayout(Rect{Left: 10, Top: 20, Width: 200 * ratio, Height: 100 * ratio})
		cx, cy := 10+100*ratio, 20+50*ratio
		drawStroke(c, Point{cx, cy}, Point{cx + ratio, cy})

		require.Len(t, ch.calls, 1)
		pts := ch.calls[0].Lines[0].Points
		assert.InDelta(t, 100, pts[0].X, 1e-9)
		assert.InDelta(t, 50, pts[0].Y, 1e-9)
		assert.InDelta(t, 101, pts[1].X, 1e-9)
	}
}

func TestCanvasTouchOverPalette(t *testing.T) {
	c, ch := newTestCanvas(t, Options{})
	c.SetPalette(Rect{Left: 80, Top: 0, Width: 20, Height: 40})

	started := c.TouchStart([]Touch{{ID: 1, X: 90, Y: 10}})
	assert.False(t, started)
	c.TouchMove([]Touch{{ID: 1, X: 50, Y: 50}})
	c.TouchEnd([]Touch{{ID: 1, X: 50, Y: 50}})

	assert.Equal(t, Idle, c.State().Mode)
	assert.Equal(t, 0, c.State().Len())
	assert.Empty(t, ch.calls)

	assert.False(t, c.PointerDown(85, 5))
}

func TestCanvasTouchTracksFirstPoint(t *testing.T) {
	c, ch := newTestCanvas(t, Options{})
	require.True(t, c.TouchStart([]Touch{{ID: 7, X: 1, Y: 1}, {ID: 8, X: 60, Y: 60}}))
	c.TouchMove([]Touch{{ID: 8, X: 70, Y: 70}})
	c.TouchMove([]Touch{{ID: 8, X: 71, Y: 71}, {ID: 7, X: 2, Y: 2}})
	c.PointerMove(99, 99)
	c.TouchEnd([]Touch{{ID: 8}})
	assert.Equal(t, Drawing, c.State().Mode)
	c.TouchEnd([]Touch{{ID: 7}})

	require.Len(t, ch.calls, 1)
	assert.Equal(t, []Point{{1, 1}, {2, 2}}, ch.calls[0].Lines[0].Points)
}

func TestCanvasInputGates(t *testing.T) {
	c, ch := newTestCanvas(t, Options{})
	c.SetDrawingMode(false)
	assert.False(t, c.PointerDown(1, 1))

	c.SetDrawingMode(true)
	c.SetEnabled(false)
	assert.False(t, c.PointerDown(1, 1))

	c.SetEnabled(true)
	c.SetLayout(Rect{})
	assert.False(t, c.PointerDown(1, 1))
	assert.Empty(t, ch.calls)
}

func TestCanvasLeaveAndModeOffFinish(t *testing.T) {
	c, ch := newTestCanvas(t, Options{})
	c.PointerDown(1, 1)
	c.PointerMove(2, 2)
	c.PointerLeave()
	require.Len(t, ch.calls, 1)

	c.PointerDown(3, 3)
	c.PointerMove(4, 4)
	c.SetDrawingMode(false)
	require.Len(t, ch.calls, 2)
	assert.Len(t, ch.calls[1].Lines, 2)
}

func TestCanvasToolChangeMidStroke(t *testing.T) {
	c, ch := newTestCanvas(t, Options{})
	c.PointerDown(1, 1)
	c.SetWidth(12)
	require.NoError(t, c.SetColor("blue"))
	c.PointerMove(2, 2)
	c.PointerUp()

	require.Len(t, ch.calls, 1)
	line := ch.calls[0].Lines[0]
	assert.Equal(t, float64(DefaultStrokeWidth), line.StrokeWidth)
	assert.Equal(t, DefaultStrokeColor, line.StrokeColor)
	assert.Equal(t, 12.0, ch.calls[0].StrokeWidth)
	assert.Equal(t, "blue", ch.calls[0].StrokeColor)
}

func TestCanvasWidthClamp(t *testing.T) {
	c, _ := newTestCanvas(t, Options{})
	assert.Equal(t, 6.0, c.AdjustWidth(1))
	assert.Equal(t, 20.0, c.AdjustWidth(50))
	assert.Equal(t, 1.0, c.AdjustWidth(-50))
	assert.Equal(t, 20.0, c.SetWidth(100))
	assert.ErrorIs(t, c.SetColor("nope"), ErrInvalidColor)
}

func TestCanvasResizeDropsOpenStroke(t *testing.T) {
	c, ch := newTestCanvas(t, Options{})
	c.PointerDown(1, 1)
	c.PointerMove(2, 2)
	c.Resize(300, 200)
	c.PointerUp()

	assert.Empty(t, ch.calls)
	assert.Equal(t, Size{Width: 300, Height: 200}, c.Native())
	assert.True(t, c.PointerDown(150, 100))
}

func TestCanvasHydrateDoesNotNotify(t *testing.T) {
	surface := newRecordingSurface(640, 360)
	c, ch := newTestCanvas(t, Options{Width: 640, Height: 360, Surface: surface, Initial: sampleData()})
	assert.Len(t, surface.lines, 1)

	c.Hydrate(nil)
	assert.Equal(t, 0, c.State().Len())
	assert.Empty(t, ch.calls)
	assert.Empty(t, surface.lines)
}

func TestCanvasStampsNativeSize(t *testing.T) {
	c, ch := newTestCanvas(t, Options{Width: 320, Height: 180})
	drawStroke(c, Point{1, 1}, Point{2, 2})
	require.Len(t, ch.calls, 1)
	assert.Equal(t, Size{Width: 320, Height: 180}, ch.calls[0].Canvas())

	hydrated, ch2 := newTestCanvas(t, Options{Width: 100, Height: 100, Initial: sampleData()})
	drawStroke(hydrated, Point{1, 1}, Point{2, 2})
	require.Len(t, ch2.calls, 1)
	got := ch2.calls[0]
	assert.Equal(t, Size{Width: 100, Height: 100}, got.Canvas())
	require.Len(t, got.Lines, 3)
	assert.InDelta(t, 3.125, got.Lines[0].Points[2].X, 1e-9)
	assert.InDelta(t, 5*100/360.0, got.Lines[0].Points[2].Y, 1e-9)
	assert.InDelta(t, 0.625, got.Lines[0].StrokeWidth, 1e-9)
	assert.Equal(t, []Point{{1, 1}, {2, 2}}, got.Lines[2].Points)
}

func TestCanvasHydratesIntoNativeSpace(t *testing.T) {
	initial := &Data{
		Lines:        []Stroke{{Points: []Point{{10, 10}, {90, 90}}, StrokeWidth: 2, StrokeColor: "red"}},
		StrokeWidth:  2,
		StrokeColor:  "red",
		CanvasWidth:  100,
		CanvasHeight: 100,
	}
	c, ch := newTestCanvas(t, Options{Width: 400, Height: 400, Initial: initial})
	drawStroke(c, Point{300, 300}, Point{390, 390})

	require.Len(t, ch.calls, 1)
	snap := ch.calls[0]
	assert.Equal(t, Size{Width: 400, Height: 400}, snap.Canvas())
	require.Len(t, snap.Lines, 2)
	assert.Equal(t, []Point{{40, 40}, {360, 360}}, snap.Lines[0].Points)
	assert.Equal(t, 8.0, snap.Lines[0].StrokeWidth)
	assert.Equal(t, []Point{{300, 300}, {390, 390}}, snap.Lines[1].Points)
	assert.Equal(t, 90.0, initial.Lines[0].Points[1].X)

	c.Hydrate(initial)
	assert.Equal(t, []Point{{40, 40}, {360, 360}}, c.Snapshot().Lines[0].Points)
}

func TestCanvasResizeRescalesStrokes(t *testing.T) {
	c, ch := newTestCanvas(t, Options{Width: 100, Height: 100})
	drawStroke(c, Point{10, 20}, Point{50, 50})
	require.Len(t, ch.calls, 1)

	c.Resize(200, 400)
	snap := c.Snapshot()
	assert.Equal(t, Size{Width: 200, Height: 400}, snap.Canvas())
	assert.Equal(t, []Point{{20, 80}, {100, 200}}, snap.Lines[0].Points)
}
