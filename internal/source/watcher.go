package source

import (
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher observes a directory tree and invokes a callback after changes
// settle for the debounce interval.
type Watcher struct {
	watcher  *fsnotify.Watcher
	logger   *log.Logger
	onChange func()
	debounce time.Duration

	timerMu sync.Mutex
	timer   *time.Timer

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

// Watch starts watching root and its subdirectories.
func Watch(root string, debounce time.Duration, logger *log.Logger, onChange func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}

	w := &Watcher{
		watcher:  fsw,
		logger:   logger,
		onChange: onChange,
		debounce: debounce,
		done:     make(chan struct{}),
	}
	w.addRecursive(root)

	w.wg.Add(1)
	go w.run()
	return w, nil
}

// Close stops the watcher and waits for the event loop to exit.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		close(w.done)

		w.timerMu.Lock()
		if w.timer != nil {
			w.timer.Stop()
			w.timer = nil
		}
		w.timerMu.Unlock()

		w.closeErr = w.watcher.Close()
		w.wg.Wait()
	})
	return w.closeErr
}

func (w *Watcher) run() {
	defer w.wg.Done()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Printf("watcher error: %v", err)
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&fsnotify.Create == fsnotify.Create {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.addRecursive(event.Name)
		}
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
		w.schedule()
	}
}

func (w *Watcher) schedule() {
	select {
	case <-w.done:
		return
	default:
	}

	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(w.debounce, func() {
		w.onChange()

		w.timerMu.Lock()
		if w.timer == timer {
			w.timer = nil
		}
		w.timerMu.Unlock()
	})
	w.timer = timer
}

func (w *Watcher) addRecursive(path string) {
	filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			w.logger.Printf("walk error for %s: %v", p, err)
			return nil
		}
		if d.IsDir() {
			if err := w.watcher.Add(p); err != nil {
				w.logger.Printf("watcher add failure for %s: %v", p, err)
			}
		}
		return nil
	})
}
