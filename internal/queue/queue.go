// Package queue is the FIFO between connection handlers and the dispatch tick.
// Any number of goroutines may Push; a single consumer pops.
package queue

import "sync"

// Queue is a mutex-guarded FIFO of Commands.
type Queue struct {
	mu       sync.Mutex
	items    []Command
	head     int
	capacity int
}

// New returns a Queue. capacity <= 0 means unbounded.
func New(capacity int) *Queue {
	if capacity < 0 {
		capacity = 0
	}
	return &Queue{capacity: capacity}
}

// Push appends cmd. It fails with ErrQueueFull only on a bounded queue.
func (q *Queue) Push(cmd Command) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.capacity > 0 && len(q.items)-q.head >= q.capacity {
		return ErrQueueFull
	}
	q.items = append(q.items, cmd)
	return nil
}

// TryPop removes and returns the oldest Command, or false when empty. It never blocks.
func (q *Queue) TryPop() (Command, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.head == len(q.items) {
		return Command{}, false
	}
	cmd := q.items[q.head]
	q.items[q.head] = Command{}
	q.head++

	// Reclaim the consumed prefix once it dominates the backing array.
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	} else if q.head > 64 && q.head*2 > len(q.items) {
		n := copy(q.items, q.items[q.head:])
		q.items = q.items[:n]
		q.head = 0
	}
	return cmd, true
}

// Len returns the number of queued Commands.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}
