package config

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the config file when it changes. fsnotify watches the
// parent directory so editors that replace the file are seen; if it cannot
// be set up the file's mtime is polled instead.
type Watcher struct {
	path     string
	onChange func(Config)
	debounce time.Duration
	poll     time.Duration
}

func NewWatcher(path string, onChange func(Config)) *Watcher {
	return &Watcher{
		path:     filepath.Clean(path),
		onChange: onChange,
		debounce: 100 * time.Millisecond,
		poll:     60 * time.Second,
	}
}

// Start watches in the background until ctx is done
func (w *Watcher) Start(ctx context.Context) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("[Config] fsnotify unavailable (%v), polling every %v", err, w.poll)
		go w.pollLoop(ctx)
		return
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		log.Printf("[Config] Failed to watch %s (%v), polling every %v", w.path, err, w.poll)
		fw.Close()
		go w.pollLoop(ctx)
		return
	}

	go func() {
		defer fw.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-fw.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != w.path {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				// Editors often write in several steps
				time.Sleep(w.debounce)
				w.reload()
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				log.Printf("[Config] Watcher error: %v", err)
			}
		}
	}()
}

func (w *Watcher) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(w.poll)
	defer ticker.Stop()

	last := modTime(w.path)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			mt := modTime(w.path)
			if mt.Equal(last) {
				continue
			}
			last = mt
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		log.Printf("[ERROR] Config: reload of %s rejected: %v", w.path, err)
		return
	}
	log.Printf("[Config] Reloaded %s", w.path)
	w.onChange(cfg)
}

func modTime(path string) time.Time {
	fi, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return fi.ModTime()
}
