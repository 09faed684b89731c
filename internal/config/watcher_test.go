package config

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type watchedConfig struct {
	Name  string `toml:"name"`
	Value int    `toml:"value"`
}

func loadWatched(path string) (watchedConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return watchedConfig{}, err
	}
	var cfg watchedConfig
	err = toml.Unmarshal(data, &cfg)
	return cfg, err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startWatcher(t *testing.T, path string, loader func(string) (watchedConfig, error), opts ...WatcherOption[watchedConfig]) *Watcher[watchedConfig] {
	t.Helper()
	opts = append([]WatcherOption[watchedConfig]{WithDebounce[watchedConfig](50 * time.Millisecond)}, opts...)
	w := NewConfigWatcher(path, loader, quietLogger(), opts...)
	t.Cleanup(func() {
		if err := w.Stop(); err != nil {
			t.Errorf("Stop: %v", err)
		}
	})
	return w
}

func receive(t *testing.T, ch <-chan watchedConfig) watchedConfig {
	t.Helper()
	select {
	case cfg := <-ch:
		return cfg
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for config reload")
		return watchedConfig{}
	}
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	path := writeConfig(t, "name = \"initial\"\nvalue = 1\n")

	received := make(chan watchedConfig, 4)
	w := startWatcher(t, path, loadWatched)
	w.OnReload(func(cfg watchedConfig) { received <- cfg })
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte("name = \"updated\"\nvalue = 42\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := receive(t, received)
	if cfg.Name != "updated" || cfg.Value != 42 {
		t.Errorf("got %+v, want name=updated value=42", cfg)
	}
}

func TestWatcherReloadsOnReplace(t *testing.T) {
	path := writeConfig(t, "value = 1\n")

	received := make(chan watchedConfig, 4)
	w := startWatcher(t, path, loadWatched)
	w.OnReload(func(cfg watchedConfig) { received <- cfg })
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}

	// Editors often write a temp file and rename it over the original
	tmp := filepath.Join(filepath.Dir(path), "config.toml.swp")
	if err := os.WriteFile(tmp, []byte("value = 7\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}

	if cfg := receive(t, received); cfg.Value != 7 {
		t.Errorf("got value %d, want 7", cfg.Value)
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	path := writeConfig(t, "value = 1\n")

	var loads atomic.Int32
	w := startWatcher(t, path, func(p string) (watchedConfig, error) {
		loads.Add(1)
		return loadWatched(p)
	})
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}

	other := filepath.Join(filepath.Dir(path), "other.toml")
	if err := os.WriteFile(other, []byte("value = 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)

	if got := loads.Load(); got != 0 {
		t.Errorf("expected no reloads, got %d", got)
	}
}

func TestWatcherDebounce(t *testing.T) {
	path := writeConfig(t, "value = 0\n")

	var loads atomic.Int32
	received := make(chan watchedConfig, 10)
	w := startWatcher(t, path, func(p string) (watchedConfig, error) {
		loads.Add(1)
		return loadWatched(p)
	}, WithDebounce[watchedConfig](200*time.Millisecond))
	w.OnReload(func(cfg watchedConfig) { received <- cfg })
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}

	for i := 1; i <= 5; i++ {
		if err := os.WriteFile(path, []byte("value = "+string(rune('0'+i))+"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	if cfg := receive(t, received); cfg.Value != 5 {
		t.Errorf("got value %d, want 5", cfg.Value)
	}
	time.Sleep(300 * time.Millisecond)
	if got := loads.Load(); got != 1 {
		t.Errorf("expected 1 load for a burst of writes, got %d", got)
	}
}

func TestWatcherUnsubscribe(t *testing.T) {
	path := writeConfig(t, "value = 1\n")

	var first, second atomic.Int32
	done := make(chan watchedConfig, 4)
	w := startWatcher(t, path, loadWatched)
	unsubscribe := w.OnReload(func(watchedConfig) { first.Add(1) })
	w.OnReload(func(cfg watchedConfig) {
		second.Add(1)
		done <- cfg
	})
	unsubscribe()

	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("value = 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	receive(t, done)

	if first.Load() != 0 {
		t.Error("unsubscribed handler was called")
	}
	if second.Load() != 1 {
		t.Errorf("expected second handler once, got %d", second.Load())
	}
}

func TestWatcherErrorHandler(t *testing.T) {
	path := writeConfig(t, "value = 1\n")

	errs := make(chan error, 4)
	var calls atomic.Int32
	w := startWatcher(t, path, loadWatched, WithErrorHandler[watchedConfig](func(err error) { errs <- err }))
	w.OnReload(func(watchedConfig) { calls.Add(1) })
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte("value = [broken\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-errs:
		if err == nil {
			t.Error("expected a load error")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for error handler")
	}
	if calls.Load() != 0 {
		t.Error("handlers must not run when loading fails")
	}
}

func TestWatcherStartWithoutPath(t *testing.T) {
	w := NewConfigWatcher("", loadWatched, quietLogger())
	if err := w.Start(); err == nil {
		t.Fatal("expected error for empty path")
	}
	if err := w.Stop(); err != nil {
		t.Errorf("Stop after failed Start: %v", err)
	}
}

func TestWatcherStopTwice(t *testing.T) {
	path := writeConfig(t, "value = 1\n")
	w := NewConfigWatcher(path, loadWatched, quietLogger())
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}

	if err := w.Stop(); err != nil {
		t.Fatalf("first Stop: %v", err)
	}
	if err := w.Stop(); err != nil && !errors.Is(err, os.ErrClosed) {
		t.Errorf("second Stop: %v", err)
	}
}
