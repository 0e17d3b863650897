package config

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the config when config.toml changes on disk and signals
// the UI through a buffered channel.
type Watcher struct {
	watcher   *fsnotify.Watcher
	reloadCh  chan *Config
	closeCh   chan struct{}
	closeOnce sync.Once

	// debounce: editors often emit several write events per save
	mu    sync.Mutex
	timer *time.Timer
}

const debounceDelay = 200 * time.Millisecond

// NewWatcher starts watching the config directory. The directory is watched
// rather than the file so that atomic rename-saves are still observed.
func NewWatcher() (*Watcher, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		watcher:  fsw,
		reloadCh: make(chan *Config, 1),
		closeCh:  make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// ReloadChannel delivers the freshly parsed config after each change.
func (w *Watcher) ReloadChannel() <-chan *Config {
	return w.reloadCh
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.closeCh:
			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
			}
			w.mu.Unlock()
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != FileName {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
			}
			w.timer = time.AfterFunc(debounceDelay, w.reload)
			w.mu.Unlock()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			configLog.Warn("config_watcher_error", slog.String("error", err.Error()))
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Reload()
	if err != nil {
		configLog.Warn("config_reload_failed", slog.String("error", err.Error()))
		return
	}
	configLog.Info("config_reloaded")

	// Non-blocking send; an unconsumed older config is superseded anyway.
	select {
	case w.reloadCh <- cfg:
	default:
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
	})
	return err
}
