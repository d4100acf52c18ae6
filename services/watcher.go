package services

import (
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// Watcher observes the library directory and triggers a sync pass when
// files are added, removed or renamed externally. Events are debounced so a
// burst of writes (e.g. a multi-file download) results in one pass.
type Watcher struct {
	dir      string
	debounce time.Duration
	syncFn   func()
	watcher  *fsnotify.Watcher
	done     chan struct{}
}

// NewWatcher creates a watcher over dir that calls syncFn after activity
// settles.
func NewWatcher(dir string, debounce time.Duration, syncFn func()) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		dir:      dir,
		debounce: debounce,
		syncFn:   syncFn,
		watcher:  fsWatcher,
		done:     make(chan struct{}),
	}

	// fsnotify does not recurse, so register every subdirectory up front;
	// directories created later are added as their create events arrive.
	err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			return fsWatcher.Add(path)
		}
		return nil
	})
	if err != nil {
		fsWatcher.Close()
		return nil, err
	}

	go w.run()
	return w, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}

func (w *Watcher) run() {
	var timer *time.Timer
	fire := make(chan struct{}, 1)

	schedule := func() {
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(w.debounce, func() {
			select {
			case fire <- struct{}{}:
			default:
			}
		})
	}

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = w.watcher.Add(event.Name)
					schedule()
					continue
				}
			}
			if IsAudioFile(event.Name) {
				schedule()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warn("library watcher error", "err", err)

		case <-fire:
			log.Debug("library activity settled, running sync", "dir", w.dir)
			w.syncFn()

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}
