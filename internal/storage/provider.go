// Package storage defines the blob store used for cached video frames.
package storage

import "time"

// Blob describes one stored object.
type Blob struct {
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Provider is the interface for blob operations. Paths are relative to the
// store root and use forward slashes.
type Provider interface {
	// Stat returns metadata for path; a missing object wraps os.ErrNotExist.
	Stat(path string) (Blob, error)
	// List returns every object under dir whose name ends with suffix.
	List(dir, suffix string) ([]Blob, error)
	// Read returns the bytes stored at path.
	Read(path string) ([]byte, error)
	// Write atomically replaces the object at path.
	Write(path string, content []byte) error
	// Delete removes the object at path.
	Delete(path string) error
}
