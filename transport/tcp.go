package transport

import (
	"context"
	"errors"
	"net"
	"runtime"
	"strconv"
	"sync"

	reuseport "github.com/kavu/go_reuseport"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/luma/respd/protocol"
)

type TCP struct {
	cancel     context.CancelFunc
	stopWaiter sync.WaitGroup

	addr      string
	reuseport bool

	numListeners int
	listeners    []*TCPListener

	conn connOptions

	log *zap.Logger
}

// connOptions is the per-connection behaviour shared by every listener
type connOptions struct {
	reply        []byte
	maxFrameSize int
	trace        bool
	metrics      metricsRecorder
}

// metricsRecorder is the subset of *metrics.Metrics a connection uses
type metricsRecorder interface {
	RecordFrame(valueType string)
	RecordDecodeError(kind string)
	ConnOpened()
	ConnClosed()
}

func NewTCP(options Options) *TCP {
	options = options.withDefaults()

	numListeners := options.NumListeners
	if numListeners < 1 {
		numListeners = runtime.NumCPU()
	}

	return &TCP{
		addr:         net.JoinHostPort(options.Host, strconv.Itoa(options.Port)),
		reuseport:    options.Reuseport,
		numListeners: numListeners,
		listeners:    make([]*TCPListener, 0, numListeners),
		conn: connOptions{
			reply:        protocol.Encode(protocol.SimpleString(options.Reply)),
			maxFrameSize: options.MaxFrameSize,
			trace:        options.Trace,
			metrics:      options.Metrics,
		},
		log: options.Log,
	}
}

// Start binds every listener and then serves them in the background. When
// Start returns without error the server is accepting connections.
func (w *TCP) Start(parentCtx context.Context) error {
	ctx, cancel := context.WithCancel(parentCtx)
	w.cancel = cancel

	w.log.Info("Starting tcp listeners",
		zap.Int("count", w.numListeners),
		zap.String("addr", w.addr))

	for i := 0; i < w.numListeners; i++ {
		if err := w.startListener(ctx); err != nil {
			return multierr.Append(err, w.Close())
		}
	}

	return nil
}

// Addrs returns the address of every listener, in start order.
func (w *TCP) Addrs() []net.Addr {
	addrs := make([]net.Addr, 0, len(w.listeners))
	for _, listener := range w.listeners {
		addrs = append(addrs, listener.Addr())
	}

	return addrs
}

func (w *TCP) listen() (net.Listener, error) {
	if w.reuseport {
		return reuseport.Listen("tcp", w.addr)
	}

	return net.Listen("tcp", w.addr)
}

func (w *TCP) startListener(ctx context.Context) error {
	ln, err := w.listen()
	if err != nil {
		return err
	}

	listener := newTCPListener(
		ctx,
		ln,
		w.conn,
		w.log.Named("listener").With(zap.Int("listener", len(w.listeners))),
	)

	w.listeners = append(w.listeners, listener)

	w.stopWaiter.Add(1)
	go func() {
		defer w.stopWaiter.Done()

		if err := listener.Serve(); err != nil {
			// The other listeners keep going, so this is not fatal
			w.log.Error("Listener stopped serving", zap.Error(err))
		}
	}()

	return nil
}

// Close immediately closes all listeners and their connections, then waits
// for every connection's loops to exit.
func (w *TCP) Close() (err error) {
	w.log.Info("Stopping TCP server")
	if w.cancel != nil {
		w.cancel()
	}

	for _, listener := range w.listeners {
		err = multierr.Append(err, listener.Close())
	}

	w.stopWaiter.Wait()
	w.log.Info("TCP server stopped")

	return err
}

type TCPListener struct {
	ctx context.Context

	listener net.Listener
	log      *zap.Logger

	mu          sync.Mutex
	activeConns map[*TCPConn]struct{}
	closed      bool

	connWaiter sync.WaitGroup

	conn connOptions
}

func newTCPListener(
	ctx context.Context,
	listener net.Listener,
	conn connOptions,
	log *zap.Logger,
) *TCPListener {
	return &TCPListener{
		ctx:         ctx,
		listener:    listener,
		activeConns: make(map[*TCPConn]struct{}),
		conn:        conn,
		log:         log,
	}
}

func (t *TCPListener) Addr() net.Addr {
	return t.listener.Addr()
}

// Close stops accepting and closes every active connection.
func (t *TCPListener) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true

	err := t.listener.Close()
	if errors.Is(err, net.ErrClosed) {
		err = nil
	}

	for conn := range t.activeConns {
		err = multierr.Append(err, conn.Close())
	}

	return err
}

// Serve accepts connections until the listener is closed or its context is
// cancelled, then waits for the open connections to finish.
func (t *TCPListener) Serve() error {
	stop := context.AfterFunc(t.ctx, func() {
		if err := t.Close(); err != nil {
			t.log.Warn("TCP Listener did not close cleanly", zap.Error(err))
		}
	})
	defer stop()

	defer func() {
		t.log.Info("Waiting for connections to stop")
		t.connWaiter.Wait()
		t.log.Info("Listener stopped")
	}()

	for {
		conn, err := t.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				// Closed while we were waiting for new connections, that's fine.
				return nil
			}

			return err
		}

		tcpConn := newTCPConn(t.ctx, conn, t.conn, t.log.Named("conn").With(
			zap.Stringer("remote", conn.RemoteAddr())))

		if !t.addConn(tcpConn) {
			conn.Close()
			return nil
		}

		go func() {
			defer t.connWaiter.Done()
			defer t.removeConn(tcpConn)

			tcpConn.Start()
		}()
	}
}

func (t *TCPListener) addConn(conn *TCPConn) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return false
	}

	t.activeConns[conn] = struct{}{}
	t.connWaiter.Add(1)

	return true
}

func (t *TCPListener) removeConn(conn *TCPConn) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.activeConns, conn)
}
