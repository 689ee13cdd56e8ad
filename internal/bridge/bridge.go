package bridge

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"github.com/mattjoyce/livebridge/internal/events"
	"github.com/mattjoyce/livebridge/internal/executor"
	"github.com/mattjoyce/livebridge/internal/log"
	"github.com/mattjoyce/livebridge/internal/protocol"
	"github.com/mattjoyce/livebridge/internal/queue"
	"github.com/mattjoyce/livebridge/internal/registry"
)

// Messages returned to clients for bridge-generated failures.
const (
	MsgTimeout   = "Command processing timeout - main thread may be busy"
	MsgCancelled = "Command cancelled before completion"
	MsgQueueFull = "Bridge busy: command queue is full"
	MsgPong      = "pong"
	MsgHealthy   = "livebridge running"
)

// Bridge owns the command queue, the request registry and the counters
// shared by every connection and the host tick.
type Bridge struct {
	exec     executor.Executor
	queue    *queue.Queue
	registry *registry.Registry
	events   events.Publisher
	logger   *slog.Logger
	now      func() time.Time

	commandTimeout time.Duration
	maxBatch       int
	queueCapacity  int
	skipAbandoned  bool
	tickBudget     time.Duration

	known     map[string]struct{}
	available []string
	toolCount int
	started   time.Time

	ticking atomic.Bool
	stats   counters
}

type counters struct {
	submitted atomic.Uint64
	processed atomic.Uint64
	timedOut  atomic.Uint64
	cancelled atomic.Uint64
	discarded atomic.Uint64
	skipped   atomic.Uint64
	rejected  atomic.Uint64
	ticks     atomic.Uint64
}

// New builds a Bridge around exec. The executor's action set is read once here.
func New(exec executor.Executor, opts ...Option) *Bridge {
	b := &Bridge{
		exec:           exec,
		registry:       registry.New(),
		events:         (*events.Hub)(nil),
		logger:         log.WithComponent("bridge"),
		now:            time.Now,
		commandTimeout: DefaultCommandTimeout,
		maxBatch:       DefaultMaxBatch,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.queue = queue.New(b.queueCapacity)
	b.started = b.now()

	actions := exec.Actions()
	b.toolCount = len(actions)
	b.known = make(map[string]struct{}, len(actions))
	for _, a := range actions {
		b.known[a] = struct{}{}
	}
	b.available = append([]string{protocol.ActionPing, protocol.ActionHealthCheck}, actions...)
	sort.Strings(b.available)
	return b
}

// Submit enqueues req and blocks until the host tick answers it or the
// command timeout expires. It always returns a Result.
func (b *Bridge) Submit(ctx context.Context, req *protocol.Request) protocol.Result {
	id, slot := b.registry.Open()
	reqLog := log.WithRequest(b.logger, uint64(id)).With("action", req.Action)

	cmd := queue.Command{
		ID:         id,
		Action:     req.Action,
		Params:     req.Params,
		EnqueuedAt: b.now(),
	}
	if err := b.queue.Push(cmd); err != nil {
		b.registry.Abandon(id)
		b.stats.rejected.Add(1)
		reqLog.Warn("command rejected", "error", err)
		b.events.Publish(events.CommandRejected, map[string]any{
			"request_id": uint64(id),
			"action":     req.Action,
			"reason":     err.Error(),
		})
		if errors.Is(err, queue.ErrQueueFull) {
			return protocol.Fail(MsgQueueFull)
		}
		return protocol.Fail(err.Error())
	}
	b.stats.submitted.Add(1)
	reqLog.Debug("command enqueued", "queue_size", b.queue.Len())
	b.events.Publish(events.CommandEnqueued, map[string]any{
		"request_id": uint64(id),
		"action":     req.Action,
		"queue_size": b.queue.Len(),
	})

	waitCtx, cancel := context.WithTimeout(ctx, b.commandTimeout)
	defer cancel()

	res, err := slot.Wait(waitCtx)
	if err == nil {
		return res
	}

	if !b.registry.Abandon(id) {
		// Resolve removed the entry first, so its Result is in (or entering) the slot.
		res, _ := slot.Wait(context.Background())
		return res
	}

	if ctx.Err() != nil {
		// The caller went away (server shutdown or client disconnect), not the host.
		b.stats.cancelled.Add(1)
		reqLog.Debug("command cancelled", "error", ctx.Err())
		b.events.Publish(events.CommandCancelled, map[string]any{
			"request_id": uint64(id),
			"action":     req.Action,
		})
		return protocol.Fail(MsgCancelled)
	}

	b.stats.timedOut.Add(1)
	reqLog.Warn("command timed out", "timeout", b.commandTimeout.String(), "queue_size", b.queue.Len())
	b.events.Publish(events.CommandTimeout, map[string]any{
		"request_id": uint64(id),
		"action":     req.Action,
		"timeout_ms": b.commandTimeout.Milliseconds(),
	})
	return protocol.Fail(MsgTimeout)
}

// Actions returns every action a client may send, reserved ones included, sorted.
func (b *Bridge) Actions() []string {
	out := make([]string, len(b.available))
	copy(out, b.available)
	return out
}

// ToolCount is the number of actions the executor provides.
func (b *Bridge) ToolCount() int {
	return b.toolCount
}

// CommandTimeout reports the configured wait bound.
func (b *Bridge) CommandTimeout() time.Duration {
	return b.commandTimeout
}

// Stats is a point-in-time view of the bridge.
type Stats struct {
	QueueDepth      int           `json:"queue_depth"`
	PendingRequests int           `json:"pending_requests"`
	Submitted       uint64        `json:"submitted"`
	Processed       uint64        `json:"processed"`
	TimedOut        uint64        `json:"timed_out"`
	Cancelled       uint64        `json:"cancelled"`
	Discarded       uint64        `json:"discarded"`
	Skipped         uint64        `json:"skipped"`
	Rejected        uint64        `json:"rejected"`
	Ticks           uint64        `json:"ticks"`
	ToolCount       int           `json:"tool_count"`
	Uptime          time.Duration `json:"uptime"`
}

// Stats returns current counters.
func (b *Bridge) Stats() Stats {
	return Stats{
		QueueDepth:      b.queue.Len(),
		PendingRequests: b.registry.Len(),
		Submitted:       b.stats.submitted.Load(),
		Processed:       b.stats.processed.Load(),
		TimedOut:        b.stats.timedOut.Load(),
		Cancelled:       b.stats.cancelled.Load(),
		Discarded:       b.stats.discarded.Load(),
		Skipped:         b.stats.skipped.Load(),
		Rejected:        b.stats.rejected.Load(),
		Ticks:           b.stats.ticks.Load(),
		ToolCount:       b.toolCount,
		Uptime:          b.now().Sub(b.started),
	}
}
