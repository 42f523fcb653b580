package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/swapspot/swapspot/internal/infrastructure/apperr"
	"github.com/swapspot/swapspot/internal/infrastructure/logger"
	"go.uber.org/zap"
)

const (
	defaultDialTimeout = 5 * time.Second
	defaultCallTimeout = 15 * time.Second
)

// Caller is the calling side of the RPC channel. The gateway and sibling
// services depend on this interface so tests can substitute fakes.
type Caller interface {
	Call(ctx context.Context, cmd string, payload any, out any) error
	Notify(cmd string, payload any)
}

// Client is a persistent connection to one service. Calls are serialized on
// the connection; the connection is dialed lazily and redialed after errors.
type Client struct {
	service string
	addr    string
	logger  *logger.Logger

	mu   sync.Mutex
	conn net.Conn
}

func NewClient(service, addr string, logger *logger.Logger) *Client {
	return &Client{
		service: service,
		addr:    addr,
		logger:  logger,
	}
}

func (c *Client) Service() string {
	return c.service
}

// Call sends one request and decodes the reply into out (out may be nil for
// callers that discard the result).
func (c *Client) Call(ctx context.Context, cmd string, payload any, out any) error {
	raw, err := marshalPayload(payload)
	if err != nil {
		return apperr.BadRequest("invalid payload for %s.%s: %v", c.service, cmd, err)
	}

	req, err := json.Marshal(&Request{Cmd: cmd, Payload: raw})
	if err != nil {
		return fmt.Errorf("rpc: marshal request: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// One redial attempt covers a connection gone stale between calls, but
	// only while the request frame was never fully written: the server needs
	// the complete frame to dispatch, so resending cannot execute the command
	// twice. Once the frame is out the error surfaces to the caller.
	reused := c.conn != nil
	data, wrote, err := c.roundTrip(ctx, req)
	if err != nil && reused && !wrote {
		c.closeConn()
		data, _, err = c.roundTrip(ctx, req)
	}
	if err != nil {
		c.closeConn()
		return fmt.Errorf("rpc: call %s.%s: %w", c.service, cmd, err)
	}

	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return fmt.Errorf("rpc: malformed response from %s: %w", c.service, err)
	}

	if resp.Error != nil {
		return apperr.New(resp.Error.Code, resp.Error.Message)
	}

	if out != nil && len(resp.Result) > 0 {
		if err := json.Unmarshal(resp.Result, out); err != nil {
			return fmt.Errorf("rpc: decode result from %s.%s: %w", c.service, cmd, err)
		}
	}

	return nil
}

// Notify fires a call in the background and only logs failures. Used for
// sibling-service side effects where the caller does not wait on the result.
func (c *Client) Notify(cmd string, payload any) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), defaultCallTimeout)
		defer cancel()

		if err := c.Call(ctx, cmd, payload, nil); err != nil {
			c.logger.Error("notify failed",
				zap.String("service", c.service),
				zap.String("cmd", cmd),
				zap.Error(err),
			)
		}
	}()
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// roundTrip reports alongside its result whether the request frame was fully
// written, so Call knows when a resend is safe.
func (c *Client) roundTrip(ctx context.Context, req []byte) ([]byte, bool, error) {
	if err := c.ensureConn(ctx); err != nil {
		return nil, false, err
	}

	deadline := time.Now().Add(defaultCallTimeout)
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return nil, false, err
	}

	if err := writeFrame(c.conn, req); err != nil {
		return nil, false, err
	}
	data, err := readFrame(c.conn)
	return data, true, err
}

func (c *Client) ensureConn(ctx context.Context) error {
	if c.conn != nil {
		return nil
	}

	dialer := net.Dialer{Timeout: defaultDialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return fmt.Errorf("dial %s (%s): %w", c.service, c.addr, err)
	}
	c.conn = conn
	return nil
}

func (c *Client) closeConn() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func marshalPayload(payload any) (json.RawMessage, error) {
	if payload == nil {
		return nil, nil
	}
	if raw, ok := payload.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(payload)
}
