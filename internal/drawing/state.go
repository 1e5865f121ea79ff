package drawing

import "slices"

// Mode is the recorder state.
type Mode int

const (
	// Idle means no stroke is being captured.
	Idle Mode = iota
	// Drawing means a pointer is engaged and points are being appended.
	Drawing
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Drawing:
		return "drawing"
	default:
		return "unknown"
	}
}

// State is the complete annotation session state. Values are treated as
// immutable: every transition returns a new State and leaves its argument
// untouched, so a State may be kept as a snapshot.
type State struct {
	Mode       Mode
	Strokes    []Stroke
	InProgress *Stroke
	Tool       Tool
	// Canvas is the native size recorded with the persisted drawing.
	Canvas Size

	// open tracks the claimed length of InProgress.Points' backing array.
	open *pointBuf
}

// pointBuf is shared by every State holding the same open stroke. An Extend
// may only write past the end of the points when no other State claimed
// that slot first.
type pointBuf struct {
	used int
}

// NewState returns an empty idle state using tool.
func NewState(tool Tool) State {
	return State{Tool: tool}
}

// Len returns the number of committed strokes.
func (s State) Len() int {
	return len(s.Strokes)
}

// Begin opens a new stroke at p with the current tool. It is a no-op while
// a stroke is already open.
func Begin(s State, p Point) State {
	if s.Mode == Drawing {
		return s
	}
	s.Mode = Drawing
	s.open = nil
	s.InProgress = &Stroke{
		Points:      []Point{p},
		StrokeWidth: s.Tool.Width,
		StrokeColor: s.Tool.Color,
	}
	return s
}

// Extend appends p to the open stroke. It is a no-op when idle.
func Extend(s State, p Point) State {
	if s.Mode != Drawing || s.InProgress == nil {
		return s
	}
	st := *s.InProgress
	n := len(st.Points)
	if s.open != nil && s.open.used == n && n < cap(st.Points) {
		st.Points = st.Points[:n+1]
		st.Points[n] = p
		s.open.used++
	} else {
		pts := make([]Point, n+1, max(2*n, 8))
		copy(pts, st.Points)
		pts[n] = p
		st.Points = pts
		s.open = &pointBuf{used: n + 1}
	}
	s.InProgress = &st
	return s
}

// Finish closes the open stroke. The stroke is appended to the store only
// when it has more than one point; committed reports whether that happened.
func Finish(s State) (next State, committed bool) {
	if s.Mode != Drawing {
		return s, false
	}
	st := s.InProgress
	s.Mode = Idle
	s.InProgress = nil
	s.open = nil
	if st == nil || !st.Drawable() {
		return s, false
	}
	done := *st
	done.Points = slices.Clip(done.Points)
	s.Strokes = append(slices.Clip(s.Strokes), done)
	return s, true
}

// Abort drops the open stroke without committing it.
func Abort(s State) State {
	s.Mode = Idle
	s.InProgress = nil
	s.open = nil
	return s
}

// Clear empties the store and drops the open stroke, whatever the mode.
func Clear(s State) State {
	s.Mode = Idle
	s.InProgress = nil
	s.open = nil
	s.Strokes = nil
	return s
}

// WithTool replaces the tool. Strokes already started keep their own width
// and colour.
func WithTool(s State, t Tool) State {
	s.Tool = t
	return s
}
