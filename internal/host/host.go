// Package host stands in for the application that owns the dispatch thread.
// It calls Tick on one OS thread at a fixed interval, the way a UI host
// calls its display-refresh hook.
package host

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/mattjoyce/livebridge/internal/bridge"
	"github.com/mattjoyce/livebridge/internal/log"
)

//go:generate mockgen -destination=mocks/mock_ticker.go -package=mocks github.com/mattjoyce/livebridge/internal/host Ticker

// DefaultInterval matches a typical display refresh callback.
const DefaultInterval = 100 * time.Millisecond

// Ticker is the part of the bridge the host drives.
type Ticker interface {
	Tick(ctx context.Context, maxBatch int) []bridge.Outcome
}

// Loop invokes a Ticker periodically from a single locked OS thread.
type Loop struct {
	Interval time.Duration
	// MaxBatch is passed through to Tick; 0 lets the bridge use its own setting.
	MaxBatch int
	Logger   *slog.Logger
}

// Run blocks until ctx is done. The first tick happens immediately.
func (l Loop) Run(ctx context.Context, t Ticker) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	interval := l.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	logger := l.Logger
	if logger == nil {
		logger = log.WithComponent("host")
	}

	logger.Info("host loop started", "interval", interval.String(), "max_batch", l.MaxBatch)
	defer logger.Info("host loop stopped")

	l.tick(ctx, t, logger)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.tick(ctx, t, logger)
		}
	}
}

func (l Loop) tick(ctx context.Context, t Ticker, logger *slog.Logger) {
	out := t.Tick(ctx, l.MaxBatch)
	if len(out) == 0 {
		return
	}
	failed := 0
	for _, o := range out {
		if !o.Skipped && !o.Result.OK {
			failed++
		}
	}
	logger.Debug("host tick", "commands", len(out), "failed", failed)
}
