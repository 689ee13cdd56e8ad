package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/livebridge/internal/bridge"
	"github.com/mattjoyce/livebridge/internal/config"
	"github.com/mattjoyce/livebridge/internal/host"
	"github.com/mattjoyce/livebridge/internal/protocol"
	"github.com/mattjoyce/livebridge/internal/server"
	"github.com/mattjoyce/livebridge/internal/session"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startBridge runs the full stack against a fresh session and returns its address.
func startBridge(t *testing.T, tick bool) string {
	t.Helper()
	cfg := config.Defaults().Bridge
	cfg.Listen = "127.0.0.1:0"
	cfg.CommandTimeout = 200 * time.Millisecond

	b := bridge.New(session.New().Catalog(), append(bridge.FromConfig(cfg), bridge.WithLogger(quietLogger()))...)
	srv := server.New(b, cfg, server.WithLogger(quietLogger()))
	require.NoError(t, srv.Start(context.Background()))
	t.Cleanup(srv.Stop)

	if tick {
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		loop := host.Loop{Interval: 2 * time.Millisecond, Logger: quietLogger()}
		go func() {
			defer close(done)
			_ = loop.Run(ctx, b)
		}()
		t.Cleanup(func() {
			cancel()
			<-done
		})
	}
	return srv.Addr().String()
}

func dial(t *testing.T, addr string) *Client {
	t.Helper()
	c, err := Dial(context.Background(), addr, 2*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCallRoundTrip(t *testing.T) {
	addr := startBridge(t, true)
	c := dial(t, addr)

	res, err := c.Call(context.Background(), "ping", nil)
	require.NoError(t, err)
	assert.True(t, res.OK)

	res, err = c.Call(context.Background(), "set_tempo", protocol.Params{"bpm": 140})
	require.NoError(t, err)
	require.True(t, res.OK)

	res, err = c.Call(context.Background(), "get_session_info", nil)
	require.NoError(t, err)
	tempo, _ := res.Get("tempo")
	assert.Equal(t, "140", fmt.Sprint(tempo))
}

func TestRawReturnsServerLine(t *testing.T) {
	addr := startBridge(t, true)
	c := dial(t, addr)

	line, err := c.Raw(context.Background(), []byte("{not json"))
	require.NoError(t, err)
	assert.Contains(t, string(line), `"ok":false`)
	assert.Contains(t, string(line), "Invalid JSON")
}

func TestServerTimeoutIsAResult(t *testing.T) {
	addr := startBridge(t, false)
	c := dial(t, addr)

	res, err := c.Call(context.Background(), "ping", nil)
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, bridge.MsgTimeout, res.Error)
}

func TestContextCancelUnblocks(t *testing.T) {
	addr := startBridge(t, false)
	c := dial(t, addr)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.Call(ctx, "ping", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDialError(t *testing.T) {
	_, err := Dial(context.Background(), "127.0.0.1:1", time.Second)
	require.Error(t, err)
}
