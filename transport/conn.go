package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"

	"go.uber.org/zap"

	"github.com/luma/respd/protocol"
)

var ErrConnClosed = errors.New("connection is closed")

// TCPConn owns one client connection. Its read loop decodes frames out of a
// pending buffer that belongs to this connection alone and queues a reply
// for each of them; its write loop drains that queue into the socket.
type TCPConn struct {
	ctx        context.Context
	cancel     context.CancelFunc
	loopWaiter sync.WaitGroup

	conn net.Conn

	// pending holds bytes read from the socket that have not been decoded yet
	pending []byte

	queueMu     sync.Mutex
	queueClosed bool
	writeQueue  chan []byte

	opts connOptions
	log  *zap.Logger
}

func newTCPConn(
	parentCtx context.Context,
	conn net.Conn,
	opts connOptions,
	log *zap.Logger,
) *TCPConn {
	ctx, cancel := context.WithCancel(parentCtx)

	return &TCPConn{
		ctx:        ctx,
		cancel:     cancel,
		conn:       conn,
		writeQueue: make(chan []byte, writeQueueSize),
		opts:       opts,
		log:        log,
	}
}

// Close stops the connection. It does not wait for the read/write loops,
// Start returns once they have exited.
func (t *TCPConn) Close() error {
	t.cancel()

	err := t.conn.Close()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}

	return err
}

// Start runs the read and write loops and blocks until both have exited.
func (t *TCPConn) Start() {
	t.opts.metrics.ConnOpened()
	defer t.opts.metrics.ConnClosed()

	t.log.Info("Client connected")

	t.loopWaiter.Add(2)

	go func() {
		defer t.loopWaiter.Done()
		t.ReadLoop()
	}()

	go func() {
		defer t.loopWaiter.Done()
		t.WriteLoop()
	}()

	t.loopWaiter.Wait()

	if err := t.Close(); err != nil {
		t.log.Warn("Failed to close connection cleanly", zap.Error(err))
	}

	t.log.Info("Client disconnected")
}

func (t *TCPConn) ReadLoop() {
	log := t.log.Named("readLoop")

	// The read loop is the only writer to the queue, closing it here lets
	// the write loop flush what is left and exit.
	defer t.closeQueue()

	chunk := make([]byte, readChunkSize)

	for {
		n, err := t.conn.Read(chunk)
		if n > 0 {
			t.pending = append(t.pending, chunk[:n]...)

			if !t.handleFrames(log) {
				return
			}
		}

		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				log.Info("Client closed the connection")
			case errors.Is(err, net.ErrClosed), t.ctx.Err() != nil:
				log.Info("Connection closed, exiting...")
			default:
				log.Warn("Failed to read from client", zap.Error(err))
			}

			return
		}
	}
}

// handleFrames decodes every complete frame in the pending buffer and queues
// a reply for each one. Bytes of a trailing incomplete frame stay pending.
// It returns false when the connection should be closed.
func (t *TCPConn) handleFrames(log *zap.Logger) bool {
	offset := 0
	defer func() {
		t.pending = append(t.pending[:0], t.pending[offset:]...)
	}()

	for offset < len(t.pending) {
		pos := offset

		v, err := protocol.Decode(t.pending, &pos)
		switch {
		case err == nil:
			t.opts.metrics.RecordFrame(v.Type())
			if t.opts.trace {
				log.Debug("Decoded frame",
					zap.String("type", v.Type()),
					zap.Stringer("value", v))
			}
			offset = pos

		case protocol.IsIncomplete(err):
			if len(t.pending)-offset > t.opts.maxFrameSize {
				t.opts.metrics.RecordDecodeError(protocol.ErrorKind(err))
				log.Warn("Frame exceeds the maximum frame size, closing connection",
					zap.Int("buffered", len(t.pending)-offset),
					zap.Int("maxFrameSize", t.opts.maxFrameSize))
				return false
			}

			// Wait for the rest of the frame
			return true

		default:
			t.opts.metrics.RecordDecodeError(protocol.ErrorKind(err))
			log.Warn("Failed to decode client frame, discarding buffered input",
				zap.String("kind", protocol.ErrorKind(err)),
				zap.Int("offset", pos),
				zap.Int("discarded", len(t.pending)-offset),
				zap.Error(err))

			// There is no way to find the next frame boundary
			offset = len(t.pending)
		}

		if _, err := t.Write(t.opts.reply); err != nil {
			log.Warn("Failed to queue reply", zap.Error(err))
			return false
		}
	}

	return true
}

func (t *TCPConn) WriteLoop() {
	log := t.log.Named("writeLoop")

	for data := range t.writeQueue {
		if _, err := t.conn.Write(data); err != nil {
			log.Warn("Failed to write to client",
				zap.Int("size", len(data)),
				zap.Error(err))
		}
	}

	log.Debug("Write queue closed, write loop exited")
}

// Write queues data for the write loop to write into the connection.
func (t *TCPConn) Write(data []byte) (int, error) {
	t.queueMu.Lock()
	defer t.queueMu.Unlock()

	if t.queueClosed {
		return 0, ErrConnClosed
	}

	select {
	case t.writeQueue <- data:
		return len(data), nil

	case <-t.ctx.Done():
		return 0, ErrConnClosed
	}
}

func (t *TCPConn) closeQueue() {
	t.queueMu.Lock()
	defer t.queueMu.Unlock()

	if !t.queueClosed {
		t.queueClosed = true
		close(t.writeQueue)
	}
}
