// Package watcher reports filesystem changes under a workspace and groups
// bursts of them into batches.
package watcher

import (
	"sort"
	"time"

	"github.com/cockroachdb/errors"
)

// ErrWatcherClosed is returned when directories are added after Close.
var ErrWatcherClosed = errors.New("watcher is closed")

// Op represents the type of file system operation.
type Op uint32

const (
	// OpCreate indicates a file or directory was created.
	OpCreate Op = 1 << iota
	// OpWrite indicates a file was written to.
	OpWrite
	// OpRemove indicates a file or directory was removed.
	OpRemove
	// OpRename indicates a file or directory was renamed.
	OpRename
	// OpChmod indicates file permissions were changed.
	OpChmod
)

// String returns a human-readable representation of the operation.
func (op Op) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpWrite:
		return "WRITE"
	case OpRemove:
		return "REMOVE"
	case OpRename:
		return "RENAME"
	case OpChmod:
		return "CHMOD"
	default:
		return "UNKNOWN"
	}
}

// Has returns true if the operation includes the given op.
func (op Op) Has(o Op) bool {
	return op&o == o
}

// Event represents a file system change event.
type Event struct {
	Path      string // Absolute path of the affected file or directory
	Op        Op
	Timestamp time.Time
}

// Watcher monitors file system changes.
type Watcher interface {
	// WatchRecursive starts watching a directory and all subdirectories
	// that are not excluded.
	WatchRecursive(path string) error

	// Events returns the channel of file change events.
	// The channel is closed when the watcher is closed.
	Events() <-chan Event

	// Errors returns the channel of watcher errors.
	// The channel is closed when the watcher is closed.
	Errors() <-chan error

	// Close stops the watcher and releases resources.
	Close() error
}

// Batch is a coalesced group of changes.
type Batch struct {
	Changes map[string]Op // Merged operations per path
	First   time.Time     // When the first change arrived
	Last    time.Time     // When the latest change arrived
}

func newBatch(now time.Time) *Batch {
	return &Batch{Changes: make(map[string]Op), First: now, Last: now}
}

func (b *Batch) add(ev Event, now time.Time) {
	b.Changes[ev.Path] |= ev.Op
	b.Last = now
}

// Len returns the number of distinct paths in the batch.
func (b Batch) Len() int {
	return len(b.Changes)
}

// Paths returns the changed paths in lexical order.
func (b Batch) Paths() []string {
	paths := make([]string, 0, len(b.Changes))
	for p := range b.Changes {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
