package client_test

import (
	"context"
	"errors"
	"net"
	"os"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/luma/respd/client"
	"github.com/luma/respd/protocol"
	"github.com/luma/respd/transport"
)

// fakeServer accepts one connection and writes reply once it has read
// something. An empty reply means it never answers.
func fakeServer(reply string) (string, func()) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	Expect(err).To(Succeed())

	go func() {
		defer GinkgoRecover()

		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		buf := make([]byte, 512)
		if _, err := conn.Read(buf); err != nil {
			return
		}

		if reply == "" {
			// Hold the connection open until the client hangs up
			conn.Read(buf)
			return
		}

		// Split the reply to exercise reassembly on the client side
		half := len(reply) / 2
		conn.Write([]byte(reply[:half]))
		time.Sleep(20 * time.Millisecond)
		conn.Write([]byte(reply[half:]))
	}()

	return ln.Addr().String(), func() { ln.Close() }
}

var _ = Describe("client", func() {
	var (
		log *zap.Logger
		ctx context.Context
	)

	BeforeEach(func() {
		log = zap.NewNop()
		ctx = context.Background()
	})

	Describe("against a respd server", func() {
		var tcp *transport.TCP

		BeforeEach(func() {
			tcp = transport.NewTCP(transport.Options{
				Host:         "127.0.0.1",
				NumListeners: 1,
				Log:          log,
			})
			Expect(tcp.Start(ctx)).To(Succeed())
		})

		AfterEach(func() {
			Expect(tcp.Close()).To(Succeed())
		})

		It("pings", func() {
			c := client.New(log)
			Expect(c.Connect(ctx, tcp.Addrs()[0].String())).To(Succeed())
			defer c.Disconnect()

			reply, err := c.Ping(ctx)
			Expect(err).To(Succeed())
			Expect(reply).To(Equal(protocol.PongReply))
		})

		It("sends several values over one connection", func() {
			c := client.New(log)
			Expect(c.Connect(ctx, tcp.Addrs()[0].String())).To(Succeed())
			defer c.Disconnect()

			for _, v := range []protocol.Value{
				protocol.BulkString("hello"),
				protocol.Null{},
				protocol.SimpleString("bye"),
			} {
				reply, err := c.Do(ctx, v)
				Expect(err).To(Succeed())
				Expect(reply).To(Equal(protocol.SimpleString("PONG")))
			}
		})
	})

	It("returns an error before Connect", func() {
		c := client.New(log)
		_, err := c.Ping(ctx)
		Expect(err).To(MatchError(client.ErrNotConnected))
	})

	It("decodes a reply that arrives in pieces", func() {
		addr, stop := fakeServer("$5\r\nhello\r\n")
		defer stop()

		c := client.New(log)
		Expect(c.Connect(ctx, addr)).To(Succeed())
		defer c.Disconnect()

		reply, err := c.Ping(ctx)
		Expect(err).To(Succeed())
		Expect(reply).To(Equal(protocol.BulkString("hello")))
	})

	It("returns decode errors for malformed replies", func() {
		addr, stop := fakeServer("?what\r\n")
		defer stop()

		c := client.New(log)
		Expect(c.Connect(ctx, addr)).To(Succeed())
		defer c.Disconnect()

		_, err := c.Ping(ctx)
		Expect(errors.Is(err, protocol.ErrUnknown)).To(BeTrue())
	})

	It("gives up when the context expires", func() {
		addr, stop := fakeServer("")
		defer stop()

		c := client.New(log)
		Expect(c.Connect(ctx, addr)).To(Succeed())
		defer c.Disconnect()

		timeoutCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()

		_, err := c.Ping(timeoutCtx)
		Expect(errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded)).To(BeTrue())
	})

	It("disconnects right after a request times out", func() {
		for i := 0; i < 20; i++ {
			addr, stop := fakeServer("")

			c := client.New(log)
			Expect(c.Connect(ctx, addr)).To(Succeed())

			timeoutCtx, cancel := context.WithTimeout(ctx, 5*time.Millisecond)
			_, err := c.Ping(timeoutCtx)
			Expect(err).To(HaveOccurred())

			Expect(c.Disconnect()).To(Succeed())
			cancel()
			stop()
		}
	})

	It("works without a logger", func() {
		addr, stop := fakeServer("+OK\r\n")
		defer stop()

		c := client.New(nil)
		Expect(c.Connect(ctx, addr)).To(Succeed())
		defer c.Disconnect()

		reply, err := c.Ping(ctx)
		Expect(err).To(Succeed())
		Expect(reply).To(Equal(protocol.SimpleString("OK")))
	})
})
