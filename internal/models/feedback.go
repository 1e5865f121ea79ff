// Package models defines the domain types for reviewink.
package models

import (
	"time"

	"github.com/starford/reviewink/internal/drawing"
)

// Feedback is one review comment pinned to a moment of a video version,
// optionally carrying a drawing.
type Feedback struct {
	ID        string  `json:"id"`
	ProjectID string  `json:"project_id"`
	VersionID string  `json:"version_id,omitempty"`
	UserID    string  `json:"user_id,omitempty"`
	Timestamp float64 `json:"timestamp"`
	Comment   string  `json:"comment"`
	// Drawing is nil when the feedback has no annotation.
	Drawing         *drawing.Data `json:"drawing_data"`
	DrawingChecksum string        `json:"drawing_checksum,omitempty"`
	IsChecked       bool          `json:"is_checked"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// Filter selects which feedback a list returns.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterUnchecked Filter = "unchecked"
	FilterChecked   Filter = "checked"
	FilterMine      Filter = "mine"
)

// Valid reports whether f is a known filter. The empty filter means all.
func (f Filter) Valid() bool {
	switch f {
	case "", FilterAll, FilterUnchecked, FilterChecked, FilterMine:
		return true
	}
	return false
}

// SearchHit is one comment search result.
type SearchHit struct {
	ID        string  `json:"id"`
	ProjectID string  `json:"project_id"`
	Timestamp float64 `json:"timestamp"`
	Snippet   string  `json:"snippet"`
}

// FrameMeta describes a cached video frame.
type FrameMeta struct {
	Key       string    `json:"key"`
	VideoURL  string    `json:"video_url"`
	Timestamp float64   `json:"timestamp"`
	Size      int64     `json:"size"`
	Cached    bool      `json:"cached"`
	UpdatedAt time.Time `json:"updated_at"`
}
