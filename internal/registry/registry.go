// Package registry correlates enqueued commands with the handlers waiting on them.
package registry

import (
	"context"
	"errors"
	"sync"

	"github.com/mattjoyce/livebridge/internal/protocol"
)

// ErrDuplicate is returned by Create when the id already has a live entry.
var ErrDuplicate = errors.New("request id already registered")

// ID correlates a command with its result. IDs start at 1 and are never reused.
type ID uint64

// Slot is a single-use hand-off for one Result.
// The channel has capacity one, so Resolve never blocks on a slow or absent waiter.
type Slot struct {
	id ID
	ch chan protocol.Result
}

func newSlot(id ID) *Slot {
	return &Slot{id: id, ch: make(chan protocol.Result, 1)}
}

// ID returns the request id the slot is bound to.
func (s *Slot) ID() ID {
	return s.id
}

// Wait blocks until a Result is delivered or ctx is done.
func (s *Slot) Wait(ctx context.Context) (protocol.Result, error) {
	select {
	case res := <-s.ch:
		return res, nil
	case <-ctx.Done():
		return protocol.Result{}, ctx.Err()
	}
}

// Registry maps live request ids to their slots.
// An entry exists from Create until exactly one of Resolve or Abandon removes it.
type Registry struct {
	mu      sync.Mutex
	next    ID
	entries map[ID]*Slot
}

// New returns an empty Registry whose first allocated id is 1.
func New() *Registry {
	return &Registry{entries: make(map[ID]*Slot)}
}

// Allocate reserves the next id without creating an entry.
func (r *Registry) Allocate() ID {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	return r.next
}

// Create registers a slot for id.
func (r *Registry) Create(id ID) (*Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; ok {
		return nil, ErrDuplicate
	}
	s := newSlot(id)
	r.entries[id] = s
	return s, nil
}

// Open allocates an id and registers its slot in one step.
func (r *Registry) Open() (ID, *Slot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	s := newSlot(r.next)
	r.entries[r.next] = s
	return r.next, s
}

// Resolve delivers res to the waiter for id and removes the entry.
// It returns false when the entry is gone, i.e. already resolved or abandoned.
func (r *Registry) Resolve(id ID, res protocol.Result) bool {
	r.mu.Lock()
	s, ok := r.entries[id]
	if ok {
		delete(r.entries, id)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}
	s.ch <- res
	return true
}

// Abandon removes the entry for id without resolving it.
// It returns false when Resolve (or an earlier Abandon) got there first.
func (r *Registry) Abandon(id ID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; !ok {
		return false
	}
	delete(r.entries, id)
	return true
}

// Pending reports whether id still has a waiter.
func (r *Registry) Pending(id ID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[id]
	return ok
}

// Len returns the number of live entries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
