// Package registry implements the process-wide synchronised file registry
// (spec component C8): a map from output-file path to a managed
// append-only stream, shared across worker goroutines, with per-file
// exclusive write sections.
package registry

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
)

// entry is one registered path: its stream, the mutex serialising writers,
// and a counter of how many goroutines currently hold or are waiting for
// this file. QueueDepth reports the counter, and Close closes the stream
// when its decrement brings the counter to zero.
type entry struct {
	mu       sync.Mutex
	file     *os.File
	queue    int64
	openedOnce bool
}

// Registry is a process-wide mapping from output-file path to a managed
// append-only stream.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

func (r *Registry) getEntry(path string) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[path]
	if !ok {
		e = &entry{}
		r.entries[path] = e
	}
	return e
}

// QueueDepth returns the number of goroutines currently holding or waiting
// for path's write lock, or 0 if path has never been opened.
func (r *Registry) QueueDepth(path string) int64 {
	r.mu.Lock()
	e, ok := r.entries[path]
	r.mu.Unlock()
	if !ok {
		return 0
	}
	return atomic.LoadInt64(&e.queue)
}

// Handle is a move-only, RAII-style acquisition of one file's write lock.
// A moved-from (already-closed) handle's Close is a no-op, matching the
// original LockedFile/SynchronisedFile design this ports.
type Handle struct {
	e      *entry
	path   string
	closed bool
}

// Open acquires path's write lock, blocking until it is available. The
// first-ever acquisition of a path truncates the underlying file; every
// later reopen (after the file was fully released and closed) appends.
// The returned Handle must be closed exactly once to release the lock and
// flush buffered writes.
func (r *Registry) Open(path string) (*Handle, error) {
	e := r.getEntry(path)

	atomic.AddInt64(&e.queue, 1)
	e.mu.Lock()

	if e.file == nil {
		flags := os.O_WRONLY | os.O_CREATE
		if e.openedOnce {
			flags |= os.O_APPEND
		} else {
			flags |= os.O_TRUNC
			e.openedOnce = true
		}
		f, err := os.OpenFile(path, flags, 0o644)
		if err != nil {
			e.mu.Unlock()
			atomic.AddInt64(&e.queue, -1)
			return nil, fmt.Errorf("registry: opening %s: %w", path, err)
		}
		e.file = f
	}

	return &Handle{e: e, path: path}, nil
}

// Write appends p to the locked file.
func (h *Handle) Write(p []byte) (int, error) {
	if h.closed {
		return 0, fmt.Errorf("registry: write on closed handle for %s", h.path)
	}
	return h.e.file.Write(p)
}

// Close flushes and releases the write lock. When this was the last
// outstanding acquisition of the file, the underlying stream is closed;
// the next Open of the same path will append to what was written so far.
func (h *Handle) Close() error {
	if h.e == nil {
		h.closed = true
		return nil
	}
	if h.closed {
		return nil
	}
	h.closed = true

	err := h.e.file.Sync()
	if remaining := atomic.AddInt64(&h.e.queue, -1); remaining == 0 {
		if closeErr := h.e.file.Close(); err == nil {
			err = closeErr
		}
		h.e.file = nil
	}
	h.e.mu.Unlock()
	return err
}
