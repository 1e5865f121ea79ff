package drawing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleData() *Data {
	return &Data{
		Lines: []Stroke{
			{Points: []Point{{0, 0}, {10, 10}, {20, 5}}, StrokeWidth: 4, StrokeColor: "#FF3B30"},
			{Points: []Point{{3, 3}}, StrokeWidth: 6, StrokeColor: "blue"},
		},
		StrokeWidth:  6,
		StrokeColor:  "blue",
		CanvasWidth:  640,
		CanvasHeight: 360,
	}
}

func TestHydrateSnapshotRoundTrip(t *testing.T) {
	d := sampleData()
	got := Hydrate(d, DefaultTool()).Snapshot()
	assert.Equal(t, d, got)

	empty := &Data{Lines: []Stroke{}, StrokeWidth: 4, StrokeColor: "red"}
	assert.Nil(t, Hydrate(empty, DefaultTool()).Snapshot())
}

func TestHydrateIsDeepCopy(t *testing.T) {
	d := sampleData()
	s := Hydrate(d, DefaultTool())
	d.Lines[0].Points[0].X = 99
	assert.Equal(t, 0.0, s.Strokes[0].Points[0].X)
}

func TestHydrateNilUsesFallback(t *testing.T) {
	s := Hydrate(nil, Tool{Width: 8, Color: "black"})
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, Tool{Width: 8, Color: "black"}, s.Tool)
}

func TestDecode(t *testing.T) {
	d, err := Decode([]byte(`{"lines":[{"points":[{"x":1,"y":2},{"x":3,"y":4}],"strokeWidth":4,"strokeColor":"#FF3B30"}],"strokeWidth":4,"strokeColor":"#FF3B30"}`))
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, []Point{{1, 2}, {3, 4}}, d.Lines[0].Points)
	assert.True(t, d.Canvas().Empty())

	for _, raw := range []string{"", "null", "  null\n"} {
		d, err := Decode([]byte(raw))
		assert.NoError(t, err)
		assert.Nil(t, d)
	}
}

func TestDecodeMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":        `{"lines":`,
		"missing lines":   `{"strokeWidth":4,"strokeColor":"red"}`,
		"missing width":   `{"lines":[],"strokeColor":"red"}`,
		"missing color":   `{"lines":[],"strokeWidth":4}`,
		"bad color":       `{"lines":[],"strokeWidth":4,"strokeColor":"notacolor"}`,
		"negative width":  `{"lines":[],"strokeWidth":-1,"strokeColor":"red"}`,
		"line no points":  `{"lines":[{"strokeWidth":4,"strokeColor":"red"}],"strokeWidth":4,"strokeColor":"red"}`,
		"line bad color":  `{"lines":[{"points":[],"strokeWidth":4,"strokeColor":"#12"}],"strokeWidth":4,"strokeColor":"red"}`,
		"wrong json type": `[1,2,3]`,
		"huge canvas":     `{"lines":[],"strokeWidth":4,"strokeColor":"red","canvasWidth":1e9,"canvasHeight":1e9}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(raw))
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestValidateCanvasLimit(t *testing.T) {
	d := sampleData()
	d.CanvasWidth, d.CanvasHeight = MaxSurface, MaxSurface
	require.NoError(t, d.Validate())

	d.CanvasHeight = MaxSurface + 1
	assert.Error(t, d.Validate())
}

func TestHydrateJSONFallsBackOnMalformed(t *testing.T) {
	s, err := HydrateJSON([]byte(`{"lines":5}`), DefaultTool())
	assert.ErrorIs(t, err, ErrMalformed)
	assert.Equal(t, NewState(DefaultTool()), s)
}

func TestEncode(t *testing.T) {
	raw, err := Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, "null", string(raw))

	raw, err = Encode(&Data{StrokeWidth: 4, StrokeColor: "red"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"lines":[],"strokeWidth":4,"strokeColor":"red"}`, string(raw))

	raw, err = Encode(sampleData())
	require.NoError(t, err)
	back, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, sampleData(), back)
}

func TestFit(t *testing.T) {
	d := &Data{
		Lines:        []Stroke{{Points: []Point{{100, 50}, {200, 100}}, StrokeWidth: 4, StrokeColor: "red"}},
		StrokeWidth:  4,
		StrokeColor:  "red",
		CanvasWidth:  200,
		CanvasHeight: 100,
	}
	fit := d.Fit(Size{Width: 400, Height: 400})
	assert.Equal(t, []Point{{200, 200}, {400, 400}}, fit.Lines[0].Points)
	assert.Equal(t, 8.0, fit.Lines[0].StrokeWidth)
	assert.Equal(t, Size{Width: 400, Height: 400}, fit.Canvas())
	assert.Equal(t, 100.0, d.Lines[0].Points[0].X)

	unknown := &Data{Lines: d.Lines, StrokeWidth: 4, StrokeColor: "red"}
	assert.Equal(t, unknown.Lines, unknown.Fit(Size{Width: 10, Height: 10}).Lines)
}
