package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dombom/mark/internal/paths"
	"github.com/fsnotify/fsnotify"
)

// ///////////////////////////////////////////////
// Watcher
// ///////////////////////////////////////////////

const (
	defaultPollInterval = 2 * time.Second
	// defaultSettle folds an editor's write, chmod and rename burst into one
	// reload.
	defaultSettle = 150 * time.Millisecond
)

// Watcher reports edits to config.toml in a data directory. The directory is
// watched rather than the file so saves that replace the file by rename are
// seen. Without fsnotify, or after it fails, the file is polled instead.
type Watcher struct {
	dir    string
	log    *slog.Logger
	events chan struct{}
	done   chan struct{}
	exited chan struct{}
	once   sync.Once

	polling      atomic.Bool
	pollInterval time.Duration
	settle       time.Duration
}

// NewWatcher starts watching dataDir/config.toml. It fails only when
// dataDir itself is missing.
func NewWatcher(dataDir string, log *slog.Logger) (*Watcher, error) {
	return newWatcher(dataDir, log, false)
}

func newWatcher(dataDir string, log *slog.Logger, forcePoll bool) (*Watcher, error) {
	if info, err := os.Stat(dataDir); err != nil {
		return nil, fmt.Errorf("watch config: %w", err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("watch config: %s is not a directory", dataDir)
	}
	if log == nil {
		log = slog.Default()
	}
	w := &Watcher{
		dir:          dataDir,
		log:          log,
		events:       make(chan struct{}, 1),
		done:         make(chan struct{}),
		exited:       make(chan struct{}),
		pollInterval: defaultPollInterval,
		settle:       defaultSettle,
	}

	var fsw *fsnotify.Watcher
	if !forcePoll {
		var err error
		if fsw, err = fsnotify.NewWatcher(); err == nil {
			if err = fsw.Add(dataDir); err != nil {
				fsw.Close()
				fsw = nil
			}
		}
		if err != nil {
			log.Info("polling config for changes", "path", dataDir, "error", err)
		}
	}
	w.polling.Store(fsw == nil)
	go w.run(fsw)
	return w, nil
}

// isConfigFile reports whether name is the watched config file.
func isConfigFile(name string) bool {
	return filepath.Base(name) == paths.ConfigFile
}

// run owns fsw. It forwards config.toml changes until Close, dropping to
// polling if fsnotify reports an error.
func (w *Watcher) run(fsw *fsnotify.Watcher) {
	defer close(w.exited)
	if fsw != nil {
		err := w.watch(fsw)
		fsw.Close()
		if err == nil {
			return
		}
		w.log.Info("config watch failed, polling instead", "error", err)
		w.polling.Store(true)
	}
	w.poll()
}

// watch returns nil on Close and the fsnotify error otherwise.
func (w *Watcher) watch(fsw *fsnotify.Watcher) error {
	settle := time.NewTimer(time.Hour)
	settle.Stop()
	defer settle.Stop()

	const relevant = fsnotify.Write | fsnotify.Create | fsnotify.Rename
	for {
		select {
		case <-w.done:
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return errors.New("event stream closed")
			}
			if event.Op&relevant != 0 && isConfigFile(event.Name) {
				settle.Reset(w.settle)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return errors.New("error stream closed")
			}
			return err
		case <-settle.C:
			w.notify()
		}
	}
}

// fingerprint identifies a config.toml revision for polling. Size is
// included because some filesystems store coarse modification times.
type fingerprint struct {
	mod  time.Time
	size int64
}

func (w *Watcher) stat() (fingerprint, bool) {
	info, err := os.Stat(paths.DataDir{Root: w.dir}.Config())
	if err != nil {
		return fingerprint{}, false
	}
	return fingerprint{mod: info.ModTime(), size: info.Size()}, true
}

// poll stats config.toml every pollInterval and notifies when it changes or
// appears.
func (w *Watcher) poll() {
	last, _ := w.stat()
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			cur, ok := w.stat()
			if ok && cur != last {
				last = cur
				w.notify()
			}
		}
	}
}

// notify leaves one pending signal; further changes before the daemon reads
// it coalesce.
func (w *Watcher) notify() {
	select {
	case w.events <- struct{}{}:
	default:
	}
}

// Polling reports whether changes are detected by polling.
func (w *Watcher) Polling() bool {
	return w.polling.Load()
}

// Events returns the channel signalled after config.toml changes.
func (w *Watcher) Events() <-chan struct{} {
	return w.events
}

// Reload loads the config again after an event. Invalid edits are logged
// and reported as ok == false so the caller keeps its current config.
func (w *Watcher) Reload() (cfg *Config, ok bool) {
	cfg, err := Load(w.dir)
	if err != nil {
		w.log.Warn("config reload rejected, keeping current settings", "error", err)
		return nil, false
	}
	return cfg, true
}

// Close stops the watcher and waits for its goroutine. It is safe to call
// more than once.
func (w *Watcher) Close() error {
	w.once.Do(func() { close(w.done) })
	<-w.exited
	return nil
}
