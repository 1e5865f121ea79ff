package drawing

// Size is a width/height pair in pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Empty reports whether either dimension is not positive.
func (s Size) Empty() bool {
	return s.Width <= 0 || s.Height <= 0
}

// Oversized reports whether either dimension exceeds MaxSurface.
func (s Size) Oversized() bool {
	return s.Width > MaxSurface || s.Height > MaxSurface
}

// Rect is a displayed bounding box in viewport coordinates.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Contains reports whether (x, y) lies inside r, edges included.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.Left && x <= r.Left+r.Width &&
		y >= r.Top && y <= r.Top+r.Height
}

// Normalize maps a viewport position onto the native pixel space of a
// surface displayed at bounds. A surface that is not laid out yet, or has
// zero size, yields the origin.
func Normalize(clientX, clientY float64, bounds Rect, native Size) Point {
	if bounds.Empty() || native.Empty() {
		return Point{}
	}
	scaleX := native.Width / bounds.Width
	scaleY := native.Height / bounds.Height
	return Point{
		X: (clientX - bounds.Left) * scaleX,
		Y: (clientY - bounds.Top) * scaleY,
	}
}

// ToViewport is the inverse of Normalize.
func ToViewport(p Point, bounds Rect, native Size) (x, y float64) {
	if bounds.Empty() || native.Empty() {
		return bounds.Left, bounds.Top
	}
	return bounds.Left + p.X*bounds.Width/native.Width,
		bounds.Top + p.Y*bounds.Height/native.Height
}

// Rescale maps p from one native size onto another.
func Rescale(p Point, from, to Size) Point {
	if from.Empty() || to.Empty() {
		return p
	}
	return Point{
		X: p.X * to.Width / from.Width,
		Y: p.Y * to.Height / from.Height,
	}
}
