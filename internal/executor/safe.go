package executor

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/mattjoyce/livebridge/internal/protocol"
)

// PanicError carries a recovered executor panic.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	if err, ok := e.Value.(error); ok {
		return err.Error()
	}
	return fmt.Sprint(e.Value)
}

// Safe calls exec.Execute and turns a panic into a *PanicError.
func Safe(ctx context.Context, exec Executor, action string, params protocol.Params) (res protocol.Result, err error) {
	defer func() {
		if v := recover(); v != nil {
			res = protocol.Result{}
			err = &PanicError{Value: v, Stack: debug.Stack()}
		}
	}()
	return exec.Execute(ctx, action, params)
}
