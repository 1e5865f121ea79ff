package internal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const reloadYAML = `app:
  http:
    port: 8080
drawing:
  default_width: %s
  default_color: "%s"
  min_width: 1
  max_width: 20
  width_step: 2
`

func writeConfig(t *testing.T, path, width, color string) {
	t.Helper()
	data := []byte(fmt.Sprintf(reloadYAML, width, color))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func waitFor(t *testing.T, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return false
}

func TestWatchConfigReloadsDrawingSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "4", "#FF3B30")

	initial, err := reloadConfig(path)
	if err != nil {
		t.Fatalf("reloadConfig: %v", err)
	}
	live := newLiveDrawing(initial)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- watchConfig(ctx, path, live, slog.New(slog.NewTextHandler(io.Discard, nil)))
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	time.Sleep(100 * time.Millisecond)

	writeConfig(t, path, "8", "#00FF00")
	if !waitFor(t, func() bool { return live.Get().DefaultWidth == 8 }) {
		t.Fatalf("width not reloaded: %+v", live.Get())
	}
	def := live.SessionDefaults()
	if def.Tool.Width != 8 || def.Tool.Color != "#00FF00" {
		t.Errorf("session defaults = %+v", def)
	}

	// An invalid file keeps the last good settings.
	writeConfig(t, path, "50", "#00FF00")
	time.Sleep(3 * reloadDebounce)
	if got := live.Get().DefaultWidth; got != 8 {
		t.Errorf("width after invalid reload = %v, want 8", got)
	}
}

func TestReloadConfigMissingFile(t *testing.T) {
	if _, err := reloadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
