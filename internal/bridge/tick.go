package bridge

import (
	"context"
	"errors"
	"time"

	"github.com/mattjoyce/livebridge/internal/events"
	"github.com/mattjoyce/livebridge/internal/executor"
	"github.com/mattjoyce/livebridge/internal/protocol"
	"github.com/mattjoyce/livebridge/internal/queue"
	"github.com/mattjoyce/livebridge/internal/registry"
)

// Outcome records what Tick did with one popped command.
type Outcome struct {
	ID     registry.ID
	Action string
	Result protocol.Result
	// Delivered is false when the waiter had already given up.
	Delivered bool
	// Skipped is set when the command was dropped without running.
	Skipped  bool
	Duration time.Duration
}

// Tick drains up to maxBatch commands and runs them on the caller's goroutine.
// maxBatch <= 0 uses the configured batch size. Tick must only be called from
// the host's dispatch context; a nested or concurrent call returns nil.
func (b *Bridge) Tick(ctx context.Context, maxBatch int) []Outcome {
	if !b.ticking.CompareAndSwap(false, true) {
		return nil
	}
	defer b.ticking.Store(false)

	if maxBatch <= 0 {
		maxBatch = b.maxBatch
	}

	start := b.now()
	var out []Outcome
	for len(out) < maxBatch {
		if b.tickBudget > 0 && len(out) > 0 && b.now().Sub(start) >= b.tickBudget {
			break
		}
		cmd, ok := b.queue.TryPop()
		if !ok {
			break
		}
		out = append(out, b.process(ctx, cmd))
	}

	if len(out) > 0 {
		b.stats.ticks.Add(1)
		elapsed := b.now().Sub(start)
		b.logger.Debug("tick processed commands", "count", len(out), "remaining", b.queue.Len(), "duration", elapsed.String())
		b.events.Publish(events.BridgeTick, map[string]any{
			"processed":   len(out),
			"queue_size":  b.queue.Len(),
			"duration_ms": elapsed.Milliseconds(),
		})
	}
	return out
}

func (b *Bridge) process(ctx context.Context, cmd queue.Command) Outcome {
	started := b.now()
	o := Outcome{ID: cmd.ID, Action: cmd.Action}

	if b.skipAbandoned && !b.registry.Pending(cmd.ID) {
		b.stats.skipped.Add(1)
		b.logger.Debug("skipping abandoned command", "request_id", uint64(cmd.ID), "action", cmd.Action)
		b.events.Publish(events.CommandSkipped, map[string]any{
			"request_id": uint64(cmd.ID),
			"action":     cmd.Action,
		})
		o.Skipped = true
		return o
	}

	o.Result = b.execute(ctx, cmd)
	o.Duration = b.now().Sub(started)
	b.stats.processed.Add(1)

	o.Delivered = b.registry.Resolve(cmd.ID, o.Result)
	if !o.Delivered {
		b.stats.discarded.Add(1)
		b.logger.Debug("discarding result, waiter gone", "request_id", uint64(cmd.ID), "action", cmd.Action)
		b.events.Publish(events.CommandDiscarded, map[string]any{
			"request_id": uint64(cmd.ID),
			"action":     cmd.Action,
			"ok":         o.Result.OK,
		})
		return o
	}

	b.events.Publish(events.CommandCompleted, map[string]any{
		"request_id":  uint64(cmd.ID),
		"action":      cmd.Action,
		"ok":          o.Result.OK,
		"duration_ms": o.Duration.Milliseconds(),
		"waited_ms":   started.Sub(cmd.EnqueuedAt).Milliseconds(),
	})
	return o
}

func (b *Bridge) execute(ctx context.Context, cmd queue.Command) protocol.Result {
	switch cmd.Action {
	case protocol.ActionPing:
		return protocol.OK("message", MsgPong)
	case protocol.ActionHealthCheck:
		return b.health()
	}

	if _, ok := b.known[cmd.Action]; !ok {
		return b.unknown(cmd.Action)
	}

	res, err := executor.Safe(ctx, b.exec, cmd.Action, cmd.Params)
	if err == nil {
		return res
	}

	var pe *executor.PanicError
	switch {
	case errors.As(err, &pe):
		b.logger.Error("executor panic", "request_id", uint64(cmd.ID), "action", cmd.Action, "error", pe.Error(), "stack", string(pe.Stack))
	case errors.Is(err, executor.ErrUnknownAction):
		return b.unknown(cmd.Action)
	default:
		b.logger.Warn("executor error", "request_id", uint64(cmd.ID), "action", cmd.Action, "error", err)
	}
	return protocol.Fail(err.Error())
}

func (b *Bridge) unknown(action string) protocol.Result {
	return protocol.Fail("Unknown action: "+action).With("available_actions", b.Actions())
}

func (b *Bridge) health() protocol.Result {
	return protocol.OK(
		"message", MsgHealthy,
		"tool_count", b.toolCount,
		"queue_size", b.queue.Len(),
		"pending_requests", b.registry.Len(),
		"uptime_seconds", int64(b.now().Sub(b.started).Seconds()),
	)
}
