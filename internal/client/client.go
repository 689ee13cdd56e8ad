// Package client speaks the newline-framed JSON protocol to a running bridge.
package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/mattjoyce/livebridge/internal/protocol"
)

// DefaultTimeout bounds a single round trip. It sits above the bridge's
// default command timeout so the server's own timeout response arrives first.
const DefaultTimeout = 30 * time.Second

const maxResponseBytes = 16 << 20

// Client is one connection. Calls are serialized: the protocol answers
// frames in order, so a request and its response are never interleaved.
type Client struct {
	mu      sync.Mutex
	conn    net.Conn
	frames  *protocol.FrameReader
	timeout time.Duration
}

// Dial connects to addr. timeout <= 0 uses DefaultTimeout.
func Dial(ctx context.Context, addr string, timeout time.Duration) (*Client, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	return &Client{
		conn:    conn,
		frames:  protocol.NewFrameReader(conn, maxResponseBytes),
		timeout: timeout,
	}, nil
}

// Do sends one request and decodes its response.
func (c *Client) Do(ctx context.Context, req protocol.Request) (protocol.Result, error) {
	data, err := req.MarshalJSON()
	if err != nil {
		return protocol.Result{}, fmt.Errorf("failed to encode request: %w", err)
	}
	line, err := c.Raw(ctx, data)
	if err != nil {
		return protocol.Result{}, err
	}
	res, err := protocol.DecodeResult(line)
	if err != nil {
		return protocol.Result{}, fmt.Errorf("failed to decode response: %w", err)
	}
	return res, nil
}

// Call is Do for an action with params.
func (c *Client) Call(ctx context.Context, action string, params protocol.Params) (protocol.Result, error) {
	return c.Do(ctx, protocol.Request{Action: action, Params: params})
}

// Raw sends frame verbatim (a newline is appended) and returns the response
// line without its newline. It does not validate frame. After an error the
// stream may be out of step with the server and the Client should be closed.
func (c *Client) Raw(ctx context.Context, frame []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return nil, fmt.Errorf("failed to set deadline: %w", err)
	}

	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	out := make([]byte, 0, len(frame)+1)
	out = append(out, frame...)
	out = append(out, '\n')
	if _, err := c.conn.Write(out); err != nil {
		return nil, c.wrap(ctx, "write", err)
	}

	line, err := c.frames.ReadFrame()
	if err != nil {
		return nil, c.wrap(ctx, "read", err)
	}
	return line, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) wrap(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", op, ctxErr)
	}
	if d, ok := ctx.Deadline(); ok && !time.Now().Before(d) {
		return fmt.Errorf("%s: %w", op, context.DeadlineExceeded)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%s: no response within %s: %w", op, c.timeout, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
