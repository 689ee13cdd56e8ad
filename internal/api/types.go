package api

// ErrorResponse is returned on errors
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthzResponse is returned by GET /healthz.
type HealthzResponse struct {
	Status          string `json:"status"`
	UptimeSeconds   int64  `json:"uptime_seconds"`
	QueueDepth      int    `json:"queue_depth"`
	PendingRequests int    `json:"pending_requests"`
	ToolCount       int    `json:"tool_count"`

	ActiveConnections int64  `json:"active_connections"`
	TotalConnections  uint64 `json:"total_connections"`
	ProtocolErrors    uint64 `json:"protocol_errors"`

	Submitted uint64 `json:"submitted"`
	Processed uint64 `json:"processed"`
	TimedOut  uint64 `json:"timed_out"`
	Cancelled uint64 `json:"cancelled"`
	Discarded uint64 `json:"discarded"`
	Skipped   uint64 `json:"skipped"`
	Rejected  uint64 `json:"rejected"`
	Ticks     uint64 `json:"ticks"`
}

// ActionsResponse is returned by GET /actions.
type ActionsResponse struct {
	Actions []string `json:"actions"`
	Count   int      `json:"count"`
}
