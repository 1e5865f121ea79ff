package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/reviewink/internal/drawing"
	"github.com/starford/reviewink/internal/frames"
	"github.com/starford/reviewink/internal/session"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	SQLite  SQLiteConfig      `yaml:"sqlite"`
	Frames  FramesConfig      `yaml:"frames"`
	Drawing DrawingConfig     `yaml:"drawing"`
	Auth    AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Frames.Validate(); err != nil {
		return err
	}
	if err := c.Drawing.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
	// TimelineThrottle bounds how often timeline.updated is sent per project.
	TimelineThrottle time.Duration `yaml:"timeline_throttle"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.TimelineThrottle, validation.Min(time.Duration(0))),
	); err != nil {
		return err
	}
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// FramesConfig holds the frame cache and capture API settings. An empty
// APIURL serves cached frames only.
type FramesConfig struct {
	CachePath string        `yaml:"cache_path"`
	APIURL    string        `yaml:"api_url"`
	Timeout   time.Duration `yaml:"timeout"`
}

// Validate validates the frames configuration.
func (c *FramesConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.CachePath, validation.Required),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
}

// DrawingConfig holds the pen defaults and the native surface size new
// sessions start with. It is re-read when the config file changes.
type DrawingConfig struct {
	DefaultWidth  float64 `yaml:"default_width"`
	DefaultColor  string  `yaml:"default_color"`
	MinWidth      float64 `yaml:"min_width"`
	MaxWidth      float64 `yaml:"max_width"`
	WidthStep     float64 `yaml:"width_step"`
	SurfaceWidth  float64 `yaml:"surface_width"`
	SurfaceHeight float64 `yaml:"surface_height"`
}

// Validate validates the drawing configuration.
func (c *DrawingConfig) Validate() error {
	if err := c.widths().Validate(); err != nil {
		return fmt.Errorf("drawing: %w", err)
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.DefaultWidth, validation.Required, validation.Min(c.MinWidth), validation.Max(c.MaxWidth)),
		validation.Field(&c.DefaultColor, validation.Required, validation.By(func(any) error {
			_, err := drawing.ParseColor(c.DefaultColor)
			return err
		})),
		validation.Field(&c.SurfaceWidth, validation.Min(0.0)),
		validation.Field(&c.SurfaceHeight, validation.Min(0.0)),
	)
}

func (c *DrawingConfig) widths() drawing.WidthRange {
	return drawing.WidthRange{Min: c.MinWidth, Max: c.MaxWidth, Step: c.WidthStep}
}

// SessionDefaults converts the section into live session settings.
func (c *DrawingConfig) SessionDefaults() session.Defaults {
	return session.Defaults{
		Tool:   drawing.Tool{Width: c.DefaultWidth, Color: c.DefaultColor},
		Widths: c.widths(),
		Size:   drawing.Size{Width: c.SurfaceWidth, Height: c.SurfaceHeight},
	}
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
			TimelineThrottle: 2 * time.Second,
		},
		SQLite: SQLiteConfig{
			Path: "./reviewink.db",
		},
		Frames: FramesConfig{
			CachePath: "./frames",
			Timeout:   frames.DefaultTimeout,
		},
		Drawing: DrawingConfig{
			DefaultWidth:  drawing.DefaultStrokeWidth,
			DefaultColor:  drawing.DefaultStrokeColor,
			MinWidth:      drawing.DefaultMinWidth,
			MaxWidth:      drawing.DefaultMaxWidth,
			WidthStep:     drawing.DefaultWidthStep,
			SurfaceWidth:  1280,
			SurfaceHeight: 720,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
