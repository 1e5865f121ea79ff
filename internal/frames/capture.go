// Package frames captures still frames from review videos through the
// external capture API and caches them in blob storage.
package frames

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

var (
	// ErrCaptureFailed is the user-facing error for any capture failure.
	ErrCaptureFailed = errors.New("failed to capture frame from video, please try again")
	// ErrVideoRequired is returned when no video URL is given.
	ErrVideoRequired = errors.New("frames: video URL is required")
	// ErrNotConfigured is returned when no capture API is configured.
	ErrNotConfigured = errors.New("frames: capture API URL not configured")
)

const (
	// DefaultTimeout bounds one capture API round trip.
	DefaultTimeout = 10 * time.Second
	maxFrameSize   = 20 << 20
)

// CacheKey derives the storage key of a frame from the video URL and the
// timestamp in seconds.
func CacheKey(videoURL string, ts float64) string {
	return base64.URLEncoding.EncodeToString([]byte(videoURL)) + "_" + FormatTimestamp(ts)
}

// FormatTimestamp renders seconds in the shortest exact decimal form.
func FormatTimestamp(ts float64) string {
	return strconv.FormatFloat(ts, 'f', -1, 64)
}

// Capturer produces the encoded image of one video frame.
type Capturer interface {
	Capture(ctx context.Context, videoURL string, ts float64) ([]byte, error)
}

type captureResponse struct {
	URL   string `json:"url"`
	Error string `json:"error,omitempty"`
}

// HTTPCapturer calls GET {base}/capture-frame?path=..&timestamp=.. and then
// downloads the image URL it answers with.
type HTTPCapturer struct {
	base   *url.URL
	client *http.Client
}

var _ Capturer = (*HTTPCapturer)(nil)

// NewHTTPCapturer creates a capturer for the API at baseURL.
func NewHTTPCapturer(baseURL string, timeout time.Duration) (*HTTPCapturer, error) {
	if baseURL == "" {
		return nil, ErrNotConfigured
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("frames: parse api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("frames: unsupported scheme: %s (only http/https)", u.Scheme)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPCapturer{
		base: u,
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("too many redirects (max 5)")
				}
				return nil
			},
		},
	}, nil
}

func (c *HTTPCapturer) Capture(ctx context.Context, videoURL string, ts float64) ([]byte, error) {
	endpoint := c.base.JoinPath("capture-frame")
	q := endpoint.Query()
	q.Set("path", videoURL)
	q.Set("timestamp", FormatTimestamp(ts))
	endpoint.RawQuery = q.Encode()

	body, err := c.get(ctx, endpoint.String(), "application/json", 1<<20)
	if err != nil {
		return nil, fmt.Errorf("frames: capture api: %w", err)
	}
	var resp captureResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("frames: decode capture response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("frames: capture api: %s", resp.Error)
	}
	if resp.URL == "" {
		return nil, errors.New("frames: invalid api response: missing url")
	}

	imageURL, err := c.base.Parse(resp.URL)
	if err != nil {
		return nil, fmt.Errorf("frames: parse frame url: %w", err)
	}
	data, err := c.get(ctx, imageURL.String(), "image/*", maxFrameSize)
	if err != nil {
		return nil, fmt.Errorf("frames: download frame: %w", err)
	}
	return data, nil
}

func (c *HTTPCapturer) get(ctx context.Context, rawURL, accept string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", accept)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("response too large: exceeds %d bytes", limit)
	}
	return data, nil
}
