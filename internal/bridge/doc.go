// Package bridge hands client commands to a host that may only be touched
// from its own thread.
//
// Connection handlers call Submit from any goroutine. Submit registers a
// result slot, enqueues the command and waits. The host calls Tick from its
// single dispatch context; Tick drains a bounded batch, runs each command
// against the Executor and resolves the waiting handler.
//
// Key features:
//   - FIFO dispatch, at most max_commands_per_tick per Tick
//   - The bridge never runs a consumer goroutine of its own
//   - Reserved actions ping and health_check answered without the executor
//   - Executor errors and panics isolated to the one command
//   - Optional bounded queue (busy reply when full)
//   - Optional skipping of commands whose waiter has already timed out
//
// Timeout handling:
//   - Submit waits at most command_timeout, then abandons its registry entry
//   - If Tick resolved the entry first, the delivered Result wins
//   - An abandoned command still runs unless skip_abandoned is set; its
//     Result is discarded
package bridge
