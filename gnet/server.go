package gnet

import (
	"time"

	"github.com/panjf2000/gnet/v2"

	"github.com/hdt3213/solodis/lib/iobuf"
	"github.com/hdt3213/solodis/lib/logger"
	"github.com/hdt3213/solodis/redis/parser"
	"github.com/hdt3213/solodis/tcp"
)

// GnetServer is the alternative transport built on the gnet event engine.
// It is pinned to a single event loop so the engine state stays
// single-threaded, and drives the same per-connection framing buffer and
// parser as the epoll transport.
type GnetServer struct {
	gnet.BuiltinEventEngine
	eng          gnet.Engine
	handler      tcp.Handler
	tickInterval time.Duration
}

// NewGnetServer creates a gnet-backed server around the engine
func NewGnetServer(handler tcp.Handler, tickInterval time.Duration) *GnetServer {
	if tickInterval <= 0 {
		tickInterval = 100 * time.Millisecond
	}
	return &GnetServer{
		handler:      handler,
		tickInterval: tickInterval,
	}
}

// Run serves the given address (e.g. "tcp://0.0.0.0:6379") until stopped
func (s *GnetServer) Run(addr string) error {
	defer s.handler.Close()
	return gnet.Run(s, addr,
		gnet.WithMulticore(false),
		gnet.WithNumEventLoop(1),
		gnet.WithTicker(true))
}

func (s *GnetServer) OnBoot(eng gnet.Engine) (action gnet.Action) {
	s.eng = eng
	logger.Info("gnet transport started")
	return
}

func (s *GnetServer) OnOpen(c gnet.Conn) (out []byte, action gnet.Action) {
	c.SetContext(&iobuf.Buffer{})
	return
}

func (s *GnetServer) OnClose(c gnet.Conn, err error) (action gnet.Action) {
	if err != nil {
		logger.Infof("connection %s closed: %v", c.RemoteAddr(), err)
	}
	return
}

func (s *GnetServer) OnTraffic(c gnet.Conn) (action gnet.Action) {
	buf := c.Context().(*iobuf.Buffer)
	data, err := c.Next(-1)
	if err != nil {
		return gnet.Close
	}
	buf.Append(data)
	for {
		args, err := parser.Parse(buf)
		if err == parser.ErrIncomplete {
			return gnet.None
		}
		if err != nil {
			logger.Warnf("protocol error on %s, closing", c.RemoteAddr())
			return gnet.Close
		}
		reply := s.handler.Exec(args)
		if reply != nil {
			if _, err := c.Write(reply.ToBytes()); err != nil {
				return gnet.Close
			}
		}
	}
}

func (s *GnetServer) OnTick() (delay time.Duration, action gnet.Action) {
	s.handler.Tick()
	return s.tickInterval, gnet.None
}
