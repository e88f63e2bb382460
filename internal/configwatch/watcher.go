// Package configwatch hot-reloads the fepd configuration file, grounded on
// the teacher's license-file watcher (internal/license/watcher.go):
// fsnotify primary, a slow poll as a fallback safety net, and a short
// debounce so a config file written in several small writes only reloads
// once.
package configwatch

import (
	"log"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
)

var watchLogger = log.New(os.Stderr, "[configwatch] ", log.LstdFlags)

// Watcher reloads a config file on change by invoking reload.
type Watcher struct {
	path    string
	reload  func() error
	watcher *fsnotify.Watcher
	done    chan struct{}
	ticker  *time.Ticker
	stat    os.FileInfo
}

// New starts watching path, calling reload whenever it changes. Falls back
// to a 60s poll if the fsnotify watch can't be established (e.g. the file
// doesn't exist yet).
func New(path string, reload func() error) (*Watcher, error) {
	w := &Watcher{
		path:   path,
		reload: reload,
		done:   make(chan struct{}),
	}
	if fi, err := os.Stat(path); err == nil {
		w.stat = fi
	}

	fw, err := fsnotify.NewWatcher()
	usePolling := false
	if err != nil {
		watchLogger.Printf("fsnotify unavailable (%v), falling back to polling", err)
		usePolling = true
	} else if err := fw.Add(path); err != nil {
		watchLogger.Printf("failed to watch %s (%v), falling back to polling", path, err)
		fw.Close()
		usePolling = true
	}

	if !usePolling {
		w.watcher = fw
		go w.watchLoop()
	}

	w.ticker = time.NewTicker(60 * time.Second)
	go w.pollLoop()

	return w, nil
}

func (w *Watcher) watchLoop() {
	defer w.watcher.Close()
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				time.Sleep(100 * time.Millisecond)
				w.reloadIfChanged()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			watchLogger.Printf("watch error: %v", err)
		}
	}
}

func (w *Watcher) pollLoop() {
	defer w.ticker.Stop()
	for {
		select {
		case <-w.done:
			return
		case <-w.ticker.C:
			w.reloadIfChanged()
		}
	}
}

// reloadIfChanged avoids reload spam on the polling path: only fires when
// the file's mtime or size actually moved since the last successful check.
func (w *Watcher) reloadIfChanged() {
	fi, err := os.Stat(w.path)
	if err != nil {
		watchLogger.Printf("stat %s: %v", w.path, err)
		return
	}
	if w.stat != nil && fi.ModTime().Equal(w.stat.ModTime()) && fi.Size() == w.stat.Size() {
		return
	}
	w.stat = fi

	if err := w.reload(); err != nil {
		watchLogger.Printf("reload failed: %v", err)
	}
}

// Stop halts both the fsnotify and polling loops.
func (w *Watcher) Stop() {
	close(w.done)
}
