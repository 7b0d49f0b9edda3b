package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/chordwave/lobby/internal/logging"
)

// Live holds the subset of Config that may change without a restart:
// the announce text, maintenance flag, and autojoin list.
// Everything else (ports, workers, cache path) is read once at startup.
type Live struct {
	mu          sync.RWMutex
	Announce    string
	Maintenance bool
	Autojoin    []string
}

func newLive(cfg *Config) *Live {
	return &Live{
		Announce:    cfg.Announce,
		Maintenance: cfg.Maintenance,
		Autojoin:    append([]string(nil), cfg.AutojoinChannels...),
	}
}

func (l *Live) Snapshot() (announce string, maintenance bool, autojoin []string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.Announce, l.Maintenance, append([]string(nil), l.Autojoin...)
}

func (l *Live) apply(cfg *Config) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Announce = cfg.Announce
	l.Maintenance = cfg.Maintenance
	l.Autojoin = append([]string(nil), cfg.AutojoinChannels...)
}

// Watcher hot-reloads configPath on write, applying only the fields Live
// covers; other fields are neither compared nor applied, and each reload
// logs that port/domain/worker/cache changes require a restart.
type Watcher struct {
	path string
	live *Live

	fs   *fsnotify.Watcher
	done chan struct{}
}

// Watch seeds a Live from base (the non-nil *Config already returned by
// Load) and starts watching configPath for further edits. With an empty
// configPath it returns the Live and no Watcher.
func Watch(configPath string, base *Config) (*Watcher, *Live, error) {
	live := newLive(base)
	if configPath == "" {
		return nil, live, nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, live, err
	}
	dir := filepath.Dir(configPath)
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, live, err
	}

	w := &Watcher{path: configPath, live: live, fs: fsw, done: make(chan struct{})}
	go w.loop()
	logging.Infof("config: watching %s for hot-reloadable changes", configPath)
	return w, live, nil
}

func (w *Watcher) Stop() {
	select {
	case <-w.done:
	default:
		close(w.done)
	}
	w.fs.Close()
}

func (w *Watcher) loop() {
	var debounce *time.Timer
	const debounceDelay = 500 * time.Millisecond

	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, w.reload)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			logging.Errorf("config: watcher error: %v", err)

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) reload() {
	logging.Infof("config: change detected at %s, reloading", w.path)
	newCfg, err := Load(w.path)
	if err != nil {
		logging.Errorf("config: reload failed, keeping previous live values: %v", err)
		return
	}
	w.live.apply(newCfg)
	logging.Infof("config: applied maintenance=%v autojoin=%v; "+
		"ports/domain/workers/cache changes require a restart",
		newCfg.Maintenance, newCfg.AutojoinChannels)
}
