package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/mattjoyce/livebridge/internal/events"
	"github.com/mattjoyce/livebridge/internal/log"
	"github.com/mattjoyce/livebridge/internal/netutil"
	"github.com/mattjoyce/livebridge/internal/protocol"
)

// serveConn runs the read, dispatch, write cycle for one client until the
// peer goes away, a write fails or the server stops.
func (s *Server) serveConn(ctx context.Context, c net.Conn, id string) {
	opened := time.Now()
	logger := log.WithConn(s.logger, id)
	logger.Debug("connection accepted", "remote_addr", c.RemoteAddr().String())
	s.events.Publish(events.ConnectionOpened, map[string]any{
		"conn_id":     id,
		"remote_addr": c.RemoteAddr().String(),
	})

	defer func() {
		_ = c.Close()
		logger.Debug("connection closed")
		s.events.Publish(events.ConnectionClosed, map[string]any{
			"conn_id":     id,
			"duration_ms": time.Since(opened).Milliseconds(),
		})
	}()

	fr := protocol.NewFrameReader(c, s.cfg.MaxFrameBytes)
	for {
		if ctx.Err() != nil {
			return
		}
		if err := c.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout)); err != nil {
			return
		}

		frame, err := fr.ReadFrame()
		if err != nil {
			switch {
			case netutil.IsTimeout(err):
				// Idle clients are allowed to stay connected.
				continue
			case errors.Is(err, protocol.ErrFrameTooLarge):
				s.protocolErrors.Add(1)
				logger.Warn("frame too large; closing connection", "limit", s.cfg.MaxFrameBytes, "buffered", fr.Buffered())
				_ = s.write(c, protocol.Failf("Frame too large: limit is %d bytes", s.cfg.MaxFrameBytes))
			case netutil.IsExpectedCloseError(err):
			default:
				logger.Debug("read failed", "error", err)
			}
			return
		}

		line := bytes.TrimSpace(frame)
		if len(line) == 0 {
			continue
		}

		res, encErr := protocol.Encodable(s.dispatch(ctx, line))
		if encErr != nil {
			logger.Warn("result not encodable; replying with failure", "error", encErr)
		}
		if err := s.write(c, res); err != nil {
			if !netutil.IsExpectedCloseError(err) {
				logger.Debug("write failed", "error", err)
			}
			return
		}
	}
}

// dispatch decodes one frame and submits it. Frames that fail to decode are
// answered here without reaching the bridge, so they never consume a request id.
func (s *Server) dispatch(ctx context.Context, line []byte) protocol.Result {
	req, err := protocol.DecodeRequest(line)
	if err != nil {
		s.protocolErrors.Add(1)
		return protocol.Fail("Invalid JSON: " + err.Error())
	}
	return s.sub.Submit(ctx, req)
}

func (s *Server) write(c net.Conn, res protocol.Result) error {
	if err := c.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	return protocol.EncodeResult(c, res)
}
