package transport

import (
	"go.uber.org/zap"

	"github.com/luma/respd/internal/metrics"
	"github.com/luma/respd/protocol"
)

const (
	// DefaultMaxFrameSize is used when Options.MaxFrameSize is not set
	DefaultMaxFrameSize = 512 * 1024

	// DefaultReply is used when Options.Reply is empty
	DefaultReply = string(protocol.PongReply)

	// readChunkSize is how many bytes a connection reads from the socket at a time
	readChunkSize = 512

	writeQueueSize = 127
)

type Options struct {
	// Host to listen on
	Host string

	// Port to listen on. Port 0 picks a free port, which only makes sense
	// with a single listener.
	Port int

	// Reuseport controls setting SO_REUSEPORT, which lets several listeners
	// share Port
	Reuseport bool

	// NumListeners defaults to the number of CPUs
	NumListeners int

	// Reply is sent back, as a simple string, for every frame a client sends
	Reply string

	// MaxFrameSize bounds the bytes a connection buffers while waiting for the
	// rest of a frame. Connections that exceed it are closed.
	MaxFrameSize int

	// Trace logs every decoded value at debug level. This is only useful in
	// local debugging
	Trace bool

	Metrics *metrics.Metrics

	Log *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Reply == "" {
		o.Reply = DefaultReply
	}

	if o.MaxFrameSize <= 0 {
		o.MaxFrameSize = DefaultMaxFrameSize
	}

	if o.Log == nil {
		o.Log = zap.NewNop()
	}

	return o
}
