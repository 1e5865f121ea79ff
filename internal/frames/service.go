package frames

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"regexp"

	"golang.org/x/sync/singleflight"

	"github.com/starford/reviewink/internal/apperr"
	"github.com/starford/reviewink/internal/models"
	"github.com/starford/reviewink/internal/storage"
)

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_=-]+_[0-9.eE+-]+$`)

// captureTimeout bounds one shared capture, which outlives the request that
// started it.
const captureTimeout = 2 * DefaultTimeout

// Service resolves frames from the cache, capturing and caching on a miss.
type Service struct {
	store    storage.Provider
	capturer Capturer
	group    singleflight.Group
}

// NewService creates a frame service. capturer may be nil, in which case
// only cached frames are served.
func NewService(store storage.Provider, capturer Capturer) *Service {
	return &Service{store: store, capturer: capturer}
}

func cachePath(key string) string { return key + ".jpg" }

// Frame returns the encoded frame of videoURL at ts.
func (s *Service) Frame(ctx context.Context, videoURL string, ts float64) ([]byte, models.FrameMeta, error) {
	if videoURL == "" {
		return nil, models.FrameMeta{}, ErrVideoRequired
	}
	key := CacheKey(videoURL, ts)
	meta := models.FrameMeta{Key: key, VideoURL: videoURL, Timestamp: ts}

	if data, blob, err := s.cached(key); err == nil {
		meta.Cached = true
		meta.Size = blob.Size
		meta.UpdatedAt = blob.UpdatedAt
		return data, meta, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		slog.Warn("frames: cache check failed", slog.String("key", key), slog.String("error", err.Error()))
	}

	if s.capturer == nil {
		return nil, meta, fmt.Errorf("%w: %w", ErrCaptureFailed, ErrNotConfigured)
	}

	ch := s.group.DoChan(key, func() (any, error) {
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), captureTimeout)
		defer cancel()
		data, err := s.capturer.Capture(cctx, videoURL, ts)
		if err != nil {
			return nil, err
		}
		if err := s.store.Write(cachePath(key), data); err != nil {
			slog.Warn("frames: cache write failed", slog.String("key", key), slog.String("error", err.Error()))
		}
		return data, nil
	})
	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, meta, fmt.Errorf("frames: wait for capture: %w", ctx.Err())
	case res = <-ch:
	}
	v, err := res.Val, res.Err
	if err != nil {
		slog.Error("frame capture failed",
			slog.String("video", videoURL),
			slog.Float64("timestamp", ts),
			slog.String("error", err.Error()),
		)
		return nil, meta, fmt.Errorf("%w: %w", ErrCaptureFailed, err)
	}
	data := v.([]byte)
	meta.Size = int64(len(data))
	return data, meta, nil
}

// Image returns the decoded frame of videoURL at ts.
func (s *Service) Image(ctx context.Context, videoURL string, ts float64) (image.Image, error) {
	data, _, err := s.Frame(ctx, videoURL, ts)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode frame: %w", ErrCaptureFailed, err)
	}
	return img, nil
}

// Cached returns a frame previously stored under key.
func (s *Service) Cached(key string) ([]byte, error) {
	if !keyPattern.MatchString(key) {
		return nil, apperr.ErrInvalidInput
	}
	data, _, err := s.cached(key)
	if errors.Is(err, os.ErrNotExist) {
		return nil, apperr.ErrNotFound
	}
	return data, err
}

// List returns metadata for every cached frame.
func (s *Service) List() ([]models.FrameMeta, error) {
	blobs, err := s.store.List("", ".jpg")
	if err != nil {
		return nil, err
	}
	out := make([]models.FrameMeta, 0, len(blobs))
	for _, b := range blobs {
		key := b.Path[:len(b.Path)-len(".jpg")]
		out = append(out, models.FrameMeta{Key: key, Size: b.Size, Cached: true, UpdatedAt: b.UpdatedAt})
	}
	return out, nil
}

func (s *Service) cached(key string) ([]byte, storage.Blob, error) {
	blob, err := s.store.Stat(cachePath(key))
	if err != nil {
		return nil, storage.Blob{}, err
	}
	data, err := s.store.Read(cachePath(key))
	if err != nil {
		return nil, storage.Blob{}, err
	}
	return data, blob, nil
}
