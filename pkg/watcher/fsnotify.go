package watcher

import (
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
)

// TreeWatcher implements Watcher on top of fsnotify, which only watches
// single directories. Every directory Ignore lets through gets a watch,
// including the ones created while the watcher runs.
type TreeWatcher struct {
	fs     *fsnotify.Watcher
	ignore *Ignore

	events chan Event
	errors chan error

	mu      sync.Mutex // guards closed against sends on errors
	closed  bool
	stop    chan struct{}
	stopped chan struct{}
}

// NewTreeWatcher starts an fsnotify watcher. Nothing is watched until
// WatchRecursive is called.
func NewTreeWatcher(ignore *Ignore) (*TreeWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}

	w := &TreeWatcher{
		fs:      fsw,
		ignore:  ignore,
		events:  make(chan Event, 256),
		errors:  make(chan error, 16),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// WatchRecursive adds root and every directory below it that is not
// ignored. Directories that cannot be watched are reported on Errors and
// skipped.
func (w *TreeWatcher) WatchRecursive(root string) error {
	root, err := filepath.Abs(root)
	if err != nil {
		return errors.Wrap(err, "failed to resolve watch root")
	}
	info, err := os.Stat(root)
	if err != nil {
		return errors.Wrapf(err, "cannot watch %s", root)
	}
	if !info.IsDir() {
		return errors.Newf("cannot watch %s: not a directory", root)
	}
	return w.addTree(root)
}

func (w *TreeWatcher) addTree(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		switch {
		case err != nil:
			// Vanished or unreadable below the root.
			return nil
		case !d.IsDir():
			return nil
		case p != root && w.ignore.Match(p):
			return filepath.SkipDir
		}

		if err := w.fs.Add(p); err != nil {
			if errors.Is(err, fsnotify.ErrClosed) {
				return ErrWatcherClosed
			}
			w.report(errors.Wrapf(err, "failed to watch %s", p))
		}
		return nil
	})
}

// Events returns the event channel.
func (w *TreeWatcher) Events() <-chan Event {
	return w.events
}

// Errors returns the error channel.
func (w *TreeWatcher) Errors() <-chan error {
	return w.errors
}

// Close stops the watcher and closes both channels. It is safe to call
// more than once.
func (w *TreeWatcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.stop)
	w.mu.Unlock()

	err := w.fs.Close()
	<-w.stopped
	close(w.events)
	close(w.errors)
	return err
}

func (w *TreeWatcher) run() {
	defer close(w.stopped)
	for {
		select {
		case <-w.stop:
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.dispatch(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.report(err)
		}
	}
}

func (w *TreeWatcher) dispatch(ev fsnotify.Event) {
	op := opFromFSNotify(ev.Op)
	if op == 0 || w.ignore.Match(ev.Name) {
		return
	}

	select {
	case w.events <- Event{Path: ev.Name, Op: op, Timestamp: time.Now()}:
	case <-w.stop:
		return
	}

	// mkdir -p and checkouts create whole subtrees before the first event
	// is read. fsnotify drops the watches of removed directories itself.
	if op.Has(OpCreate) {
		if info, err := os.Lstat(ev.Name); err == nil && info.IsDir() {
			_ = w.addTree(ev.Name)
		}
	}
}

// report hands err to the consumer, dropping it when the buffer is full.
func (w *TreeWatcher) report(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	select {
	case w.errors <- err:
	default:
	}
}

var fsnotifyOps = []struct {
	from fsnotify.Op
	to   Op
}{
	{fsnotify.Create, OpCreate},
	{fsnotify.Write, OpWrite},
	{fsnotify.Remove, OpRemove},
	{fsnotify.Rename, OpRename},
	{fsnotify.Chmod, OpChmod},
}

func opFromFSNotify(in fsnotify.Op) Op {
	var op Op
	for _, m := range fsnotifyOps {
		if in.Has(m.from) {
			op |= m.to
		}
	}
	return op
}

var _ Watcher = (*TreeWatcher)(nil)
