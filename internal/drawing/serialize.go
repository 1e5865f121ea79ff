package drawing

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Snapshot converts the store into its persisted form. An empty store
// yields nil, meaning "no annotation".
func (s State) Snapshot() *Data {
	if len(s.Strokes) == 0 {
		return nil
	}
	lines := make([]Stroke, len(s.Strokes))
	for i, st := range s.Strokes {
		lines[i] = st.Clone()
	}
	return &Data{
		Lines:        lines,
		StrokeWidth:  s.Tool.Width,
		StrokeColor:  s.Tool.Color,
		CanvasWidth:  s.Canvas.Width,
		CanvasHeight: s.Canvas.Height,
	}
}

// Hydrate builds an idle state from persisted data, replacing strokes and
// tool settings. A nil d yields an empty state using fallback.
func Hydrate(d *Data, fallback Tool) State {
	if d == nil {
		return NewState(fallback)
	}
	c := d.Clone()
	s := State{Tool: c.Tool(), Canvas: c.Canvas()}
	if len(c.Lines) > 0 {
		s.Strokes = c.Lines
	}
	return s
}

// Decode parses the persisted JSON shape. JSON null and empty input decode
// to nil without error. Missing or invalid fields wrap ErrMalformed.
func Decode(raw []byte) (*Data, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	var d Data
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &d, nil
}

// Encode renders d as JSON; nil encodes as null.
func Encode(d *Data) ([]byte, error) {
	if d == nil {
		return []byte("null"), nil
	}
	out := *d
	if out.Lines == nil {
		out.Lines = []Stroke{}
	}
	return json.Marshal(&out)
}

// HydrateJSON decodes raw and hydrates from it. Malformed input falls back
// to an empty state; the decode error is still returned so the caller can
// report it.
func HydrateJSON(raw []byte, fallback Tool) (State, error) {
	d, err := Decode(raw)
	if err != nil {
		return NewState(fallback), err
	}
	return Hydrate(d, fallback), nil
}
