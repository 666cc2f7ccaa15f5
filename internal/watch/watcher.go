// Package watch monitors a descriptor-set file and triggers
// regeneration when the IDL compiler rewrites it.
package watch

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Run watches the given descriptor-set file and invokes onChange after
// every rewrite, debounced so a compiler writing in several chunks
// triggers a single regeneration. It blocks until the watcher fails.
func Run(path string, onChange func()) error {
	w, err := New(path, onChange)
	if err != nil {
		return err
	}
	defer w.Stop()
	return w.Wait()
}

// Watcher monitors one descriptor-set file.
type Watcher struct {
	watcher   *fsnotify.Watcher
	debouncer *debouncer
	target    string
	errs      chan error
	stopChan  chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

// New creates a watcher for the descriptor set at path. The containing
// directory is watched rather than the file itself: compilers replace
// the output atomically, which drops inode-level watches.
func New(path string, onChange func()) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	w := &Watcher{
		watcher:   watcher,
		debouncer: newDebouncer(100*time.Millisecond, onChange),
		target:    abs,
		errs:      make(chan error, 1),
		stopChan:  make(chan struct{}),
	}
	w.wg.Add(1)
	go w.watch()
	return w, nil
}

// Wait blocks until the watcher is stopped or fails.
func (w *Watcher) Wait() error {
	select {
	case err := <-w.errs:
		return err
	case <-w.stopChan:
		return nil
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	w.stopOnce.Do(func() { close(w.stopChan) })
	w.wg.Wait()
	w.debouncer.stop()
	return w.watcher.Close()
}

// watch is the main event loop.
func (w *Watcher) watch() {
	defer w.wg.Done()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.matches(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				log.Printf("[watch] descriptor set changed: %s", event.Name)
				w.debouncer.trigger()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errs <- err:
			default:
			}

		case <-w.stopChan:
			return
		}
	}
}

func (w *Watcher) matches(name string) bool {
	abs, err := filepath.Abs(name)
	return err == nil && abs == w.target
}

// debouncer collapses change bursts into one callback after a delay.
type debouncer struct {
	duration time.Duration
	callback func()
	timer    *time.Timer
	mutex    sync.Mutex
}

func newDebouncer(duration time.Duration, callback func()) *debouncer {
	return &debouncer{duration: duration, callback: callback}
}

func (d *debouncer) trigger() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.duration, d.callback)
}

func (d *debouncer) stop() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
}
