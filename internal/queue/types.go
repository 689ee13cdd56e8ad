package queue

import (
	"errors"
	"time"

	"github.com/mattjoyce/livebridge/internal/protocol"
	"github.com/mattjoyce/livebridge/internal/registry"
)

// ErrQueueFull is returned by Push when a bounded queue is at capacity.
var ErrQueueFull = errors.New("command queue is full")

// Command is one parsed client request awaiting the dispatch tick.
// It is not modified after Push.
type Command struct {
	ID         registry.ID
	Action     string
	Params     protocol.Params
	EnqueuedAt time.Time
}
