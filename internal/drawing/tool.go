package drawing

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Tool defaults matching the review UI.
const (
	DefaultStrokeWidth = 4
	DefaultStrokeColor = "#FF3B30"
	DefaultMinWidth    = 1
	DefaultMaxWidth    = 20
	DefaultWidthStep   = 2
)

// Tool is the current pen: applied to strokes started after it is set.
type Tool struct {
	Width float64
	Color string
}

// DefaultTool returns the pen a fresh session starts with.
func DefaultTool() Tool {
	return Tool{Width: DefaultStrokeWidth, Color: DefaultStrokeColor}
}

// WidthRange bounds the pen width the user can select.
type WidthRange struct {
	Min  float64
	Max  float64
	Step float64
}

// DefaultWidthRange returns 1..20 with a step of 2.
func DefaultWidthRange() WidthRange {
	return WidthRange{Min: DefaultMinWidth, Max: DefaultMaxWidth, Step: DefaultWidthStep}
}

// Clamp limits w to the range.
func (r WidthRange) Clamp(w float64) float64 {
	return max(r.Min, min(w, r.Max))
}

// Validate checks that the range is usable.
func (r WidthRange) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Min, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&r.Max, validation.Required, validation.Min(r.Min)),
		validation.Field(&r.Step, validation.Min(0.0)),
	)
}
