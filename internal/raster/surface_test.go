package raster

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/reviewink/internal/drawing"
)

func horizontal(color string) *drawing.Data {
	return &drawing.Data{
		Lines: []drawing.Stroke{
			{Points: []drawing.Point{{X: 10, Y: 50}, {X: 90, Y: 50}}, StrokeWidth: 10, StrokeColor: color},
		},
		StrokeWidth:  10,
		StrokeColor:  color,
		CanvasWidth:  100,
		CanvasHeight: 100,
	}
}

func decode(t *testing.T, buf *bytes.Buffer) image.Image {
	t.Helper()
	img, err := png.Decode(buf)
	require.NoError(t, err)
	return img
}

func TestRenderPNGDrawsStroke(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderPNG(&buf, horizontal("#0000FF"), drawing.Size{}, nil))

	img := decode(t, &buf)
	assert.Equal(t, image.Rect(0, 0, 100, 100), img.Bounds())

	r, g, b, a := img.At(50, 50).RGBA()
	assert.Greater(t, b, r)
	assert.Greater(t, b, g)
	assert.NotZero(t, a)

	_, _, _, a = img.At(50, 10).RGBA()
	assert.Zero(t, a)
}

func TestRenderPNGOverBackground(t *testing.T) {
	bg := image.NewNRGBA(image.Rect(0, 0, 50, 50))
	for y := range 50 {
		for x := range 50 {
			bg.Set(x, y, color.NRGBA{G: 255, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, RenderPNG(&buf, horizontal("red"), drawing.Size{Width: 200, Height: 200}, bg))

	img := decode(t, &buf)
	assert.Equal(t, image.Rect(0, 0, 200, 200), img.Bounds())

	_, g, _, a := img.At(100, 10).RGBA()
	assert.NotZero(t, a)
	assert.NotZero(t, g)

	r, g, _, _ := img.At(100, 100).RGBA()
	assert.Greater(t, r, g)
}

func TestRenderPNGNoSize(t *testing.T) {
	d := horizontal("red")
	d.CanvasWidth, d.CanvasHeight = 0, 0
	assert.ErrorIs(t, RenderPNG(&bytes.Buffer{}, d, drawing.Size{}, nil), ErrNoSize)
}

func TestResolveSize(t *testing.T) {
	bg := image.NewNRGBA(image.Rect(0, 0, 30, 20))
	assert.Equal(t, drawing.Size{Width: 1, Height: 2}, ResolveSize(drawing.Size{Width: 1, Height: 2}, horizontal("red"), bg))
	assert.Equal(t, drawing.Size{Width: 100, Height: 100}, ResolveSize(drawing.Size{}, horizontal("red"), bg))
	assert.Equal(t, drawing.Size{Width: 30, Height: 20}, ResolveSize(drawing.Size{}, nil, bg))
}

func TestSurfaceAsCanvasTarget(t *testing.T) {
	s, err := New(64, 64)
	require.NoError(t, err)
	defer s.Close()

	c := drawing.NewCanvas(drawing.Options{Width: 64, Height: 64, Enabled: true, DrawingMode: true, Surface: s})
	c.PointerDown(4, 32)
	c.PointerMove(60, 32)
	c.PointerUp()

	require.NoError(t, s.Err())
	_, _, _, a := s.Image().At(32, 32).RGBA()
	assert.NotZero(t, a)

	c.Clear()
	_, _, _, a = s.Image().At(32, 32).RGBA()
	assert.Zero(t, a)
}

func TestNewRejectsEmpty(t *testing.T) {
	_, err := New(0, 10)
	assert.ErrorIs(t, err, ErrNoSize)
}

func TestRenderPNGRejectsOversized(t *testing.T) {
	d := horizontal("red")
	d.CanvasWidth, d.CanvasHeight = 1e9, 1e9
	assert.ErrorIs(t, RenderPNG(&bytes.Buffer{}, d, drawing.Size{}, nil), drawing.ErrTooLarge)

	err := RenderPNG(&bytes.Buffer{}, horizontal("red"), drawing.Size{Width: 40000, Height: 40000}, nil)
	assert.ErrorIs(t, err, drawing.ErrTooLarge)

	_, err = New(drawing.MaxSurface+1, 10)
	assert.ErrorIs(t, err, drawing.ErrTooLarge)
}
