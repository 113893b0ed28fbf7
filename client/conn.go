package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/luma/respd/protocol"
)

var ErrNotConnected = errors.New("client is not connected")

// Conn is a client connection to a respd (or any RESP) server. Requests are
// sent one at a time; each waits for a single reply frame.
type Conn struct {
	mu   sync.Mutex
	conn net.Conn

	// pending holds reply bytes read past the end of the last decoded frame
	pending []byte

	maxReplySize int

	log *zap.Logger
}

func New(log *zap.Logger) *Conn {
	if log == nil {
		log = zap.NewNop()
	}

	return &Conn{
		log:          log,
		maxReplySize: 512 * 1024,
	}
}

func (c *Conn) Connect(ctx context.Context, addr string) error {
	var d net.Dialer

	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.pending = c.pending[:0]
	c.mu.Unlock()

	c.log.Debug("Connected", zap.String("addr", addr))

	return nil
}

func (c *Conn) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}

	err := c.conn.Close()
	c.conn = nil

	return err
}

// Ping sends "+PING" and returns the server's reply.
func (c *Conn) Ping(ctx context.Context) (protocol.Value, error) {
	return c.Do(ctx, protocol.SimpleString("PING"))
}

// Do sends v and waits for one reply frame. The context deadline, if any,
// bounds both the write and the read.
func (c *Conn) Do(ctx context.Context, v protocol.Value) (protocol.Value, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil, ErrNotConnected
	}

	deadline, _ := ctx.Deadline()
	if err := c.conn.SetDeadline(deadline); err != nil {
		return nil, err
	}

	// Unblock the socket if ctx is cancelled without a deadline. The callback
	// can still run after Do returns, so it must not touch c.conn.
	conn := c.conn
	stop := context.AfterFunc(ctx, func() {
		conn.SetDeadline(time.Now())
	})
	defer stop()

	if err := protocol.WriteValue(c.conn, v); err != nil {
		return nil, c.ctxErr(ctx, fmt.Errorf("failed to send %s: %w", v.Type(), err))
	}

	reply, err := c.readReply()
	if err != nil {
		return nil, c.ctxErr(ctx, err)
	}

	return reply, nil
}

func (c *Conn) readReply() (protocol.Value, error) {
	chunk := make([]byte, 512)

	for {
		if len(c.pending) > 0 {
			pos := 0
			v, err := protocol.Decode(c.pending, &pos)

			switch {
			case err == nil:
				c.pending = append(c.pending[:0], c.pending[pos:]...)
				return v, nil

			case !protocol.IsIncomplete(err):
				c.pending = c.pending[:0]
				return nil, fmt.Errorf("failed to decode reply: %w", err)

			case len(c.pending) > c.maxReplySize:
				c.pending = c.pending[:0]
				return nil, fmt.Errorf("reply exceeds %d bytes: %w", c.maxReplySize, err)
			}
		}

		n, err := c.conn.Read(chunk)
		c.pending = append(c.pending, chunk[:n]...)

		if err != nil {
			return nil, fmt.Errorf("failed to read reply: %w", err)
		}
	}
}

// ctxErr prefers the context's error once it is done, since that is why the
// socket operation failed.
func (c *Conn) ctxErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		c.log.Debug("Request aborted", zap.Error(err))
		return ctxErr
	}

	return err
}
