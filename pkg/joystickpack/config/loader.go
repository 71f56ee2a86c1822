package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/randalmurphal/joystickpack/pkg/joystickpack/event"
)

// Events published by a Loader.
const (
	KeyReloaded     event.Key[Settings] = "config:reloaded"
	KeyReloadFailed event.Key[error]    = "config:reload_failed"
)

// Loader reads a settings file and watches it for changes.
type Loader struct {
	path   string
	logger *slog.Logger
	events *event.Subject

	mu      sync.RWMutex
	current Settings
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLogger sets the logger for reload failures and listener errors.
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

// NewLoader creates a Loader and performs the initial load.
func NewLoader(path string, opts ...LoaderOption) (*Loader, error) {
	l := &Loader{path: filepath.Clean(path), logger: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}

	l.events = event.NewSubject("config", event.SubjectConfig{
		ErrorStrategy: event.ErrorLog,
		Logger:        l.logger,
	})

	s, err := FromFile(l.path)
	if err != nil {
		return nil, err
	}
	l.current = s
	return l, nil
}

// Settings returns the latest successfully loaded settings.
func (l *Loader) Settings() Settings {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// Events returns the subject reload events are published on.
func (l *Loader) Events() *event.Subject {
	return l.events
}

// OnChange subscribes fn to successful reloads.
func (l *Loader) OnChange(fn func(ctx context.Context, s Settings) error, opts ...event.ObserverOption) (event.ObserverID, error) {
	return event.On(l.events, KeyReloaded, func(ctx context.Context, evt event.TypedPayload[Settings]) error {
		return fn(ctx, evt.Data)
	}, opts...)
}

// Reload forces an immediate re-read of the file. On failure the previous
// settings stay current and KeyReloadFailed is published.
func (l *Loader) Reload(ctx context.Context) (Settings, error) {
	s, err := FromFile(l.path)
	if err != nil {
		l.logger.Warn("config reload failed",
			slog.String("path", l.path),
			slog.String("error", err.Error()))
		if perr := event.Publish(ctx, l.events, KeyReloadFailed, err, nil); perr != nil {
			return Settings{}, fmt.Errorf("%w (publish: %v)", err, perr)
		}
		return Settings{}, err
	}

	l.mu.Lock()
	l.current = s
	l.mu.Unlock()

	if err := event.Publish(ctx, l.events, KeyReloaded, s, map[string]any{"path": l.path}); err != nil {
		return s, err
	}
	return s, nil
}

// Watch starts a background goroutine that reloads the settings whenever the
// file is written or replaced. The watch ends when ctx is done or stop is
// called; stop waits for the goroutine to exit.
func (l *Loader) Watch(ctx context.Context) (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config watcher: %w", err)
	}
	// Watch the directory so editors that replace the file are still seen.
	dir := filepath.Dir(l.path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("config watcher add %s: %w", dir, err)
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != l.path {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					// Failures are logged and published by Reload.
					_, _ = l.Reload(ctx)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				l.logger.Warn("config watcher error", slog.String("error", err.Error()))
			case <-ctx.Done():
				return
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			wg.Wait()
		})
	}, nil
}
