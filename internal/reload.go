package internal

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/reviewink/internal/session"
	pkgconfig "github.com/starford/reviewink/pkg/config"
)

const reloadDebounce = 200 * time.Millisecond

// liveDrawing holds the drawing section currently in effect.
type liveDrawing struct {
	p atomic.Pointer[DrawingConfig]
}

func newLiveDrawing(c DrawingConfig) *liveDrawing {
	l := &liveDrawing{}
	l.p.Store(&c)
	return l
}

func (l *liveDrawing) Get() DrawingConfig { return *l.p.Load() }

func (l *liveDrawing) Set(c DrawingConfig) { l.p.Store(&c) }

// SessionDefaults feeds session.NewHandler.
func (l *liveDrawing) SessionDefaults() session.Defaults {
	c := l.Get()
	return c.SessionDefaults()
}

// reloadConfig parses path and returns its drawing section. Only that
// section is applied at runtime; the rest needs a restart.
func reloadConfig(path string) (DrawingConfig, error) {
	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		return DrawingConfig{}, err
	}
	return cfg.Drawing, nil
}

// watchConfig watches the config file until ctx is cancelled and swaps the
// drawing section into live after each burst of changes. An invalid file is
// logged and the previous settings stay in effect.
//
// The parent directory is watched because editors often replace the file
// by renaming a temporary one over it.
func watchConfig(ctx context.Context, path string, live *liveDrawing, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	logger.Info("config watcher: started", slog.String("path", abs))

	var timer *time.Timer
	var fire <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(reloadDebounce)
			fire = timer.C
		} else {
			timer.Reset(reloadDebounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("config watcher: stopped")
			return nil

		case <-fire:
			d, err := reloadConfig(abs)
			if err != nil {
				logger.Warn("config watcher: reload failed, keeping previous settings", slog.String("error", err.Error()))
				continue
			}
			live.Set(d)
			logger.Info("config watcher: drawing settings reloaded",
				slog.Float64("default_width", d.DefaultWidth),
				slog.String("default_color", d.DefaultColor))

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				schedule()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("config watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
