// Package watch observes the preference file for writes made by other
// processes, the cross-process synchronization channel of the coordinator.
package watch

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounceWindow = 50 * time.Millisecond

// FileWatcher reports change notifications for a single file. Events carry
// no payload; consumers re-read the file to pick up the new contents, which
// also coalesces naturally with the debounce window.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	events  chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewFileWatcher watches path for writes, renames, and removals. The parent
// directory is watched rather than the file itself so atomic rename-over
// writes and deletions are observed.
func NewFileWatcher(path string) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	w := &FileWatcher{
		watcher: watcher,
		path:    filepath.Clean(path),
		events:  make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Events delivers one (coalesced) notification per burst of file changes.
func (w *FileWatcher) Events() <-chan struct{} { return w.events }

// Close stops the watch loop and releases the underlying watcher. No events
// are delivered after Close returns.
func (w *FileWatcher) Close() error {
	close(w.stopCh)
	<-w.doneCh
	return w.watcher.Close()
}

func (w *FileWatcher) run() {
	defer close(w.doneCh)

	var pending *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-w.stopCh:
			if pending != nil {
				pending.Stop()
			}
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) &&
				!event.Op.Has(fsnotify.Rename) && !event.Op.Has(fsnotify.Remove) {
				continue
			}
			// Editors and atomic renames emit bursts; collapse them.
			if pending == nil {
				pending = time.NewTimer(debounceWindow)
				fire = pending.C
			} else {
				if !pending.Stop() {
					select {
					case <-pending.C:
					default:
					}
				}
				pending.Reset(debounceWindow)
			}
		case <-fire:
			pending = nil
			fire = nil
			select {
			case w.events <- struct{}{}:
			default:
			}
		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Watcher errors are not fatal to the owning coordinator; the
			// next successful event still triggers a re-read.
		}
	}
}
