// Package executor defines the host capability the dispatch tick invokes.
package executor

import (
	"context"
	"errors"

	"github.com/mattjoyce/livebridge/internal/protocol"
)

//go:generate mockgen -destination=mocks/mock_executor.go -package=mocks github.com/mattjoyce/livebridge/internal/executor Executor

// ErrUnknownAction is returned when no handler is registered for an action.
var ErrUnknownAction = errors.New("unknown action")

// Executor runs named host operations. It is only ever called from the
// dispatch tick, so implementations need no locking of their own state.
type Executor interface {
	// Execute runs action. A returned error becomes an error Result for
	// that command alone.
	Execute(ctx context.Context, action string, params protocol.Params) (protocol.Result, error)

	// Actions lists the action names Execute accepts.
	Actions() []string
}
