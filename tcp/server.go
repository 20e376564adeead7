package tcp

import (
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/hdt3213/solodis/config"
	"github.com/hdt3213/solodis/interface/redis"
	"github.com/hdt3213/solodis/lib/logger"
	"github.com/hdt3213/solodis/lib/sync/atomic"
	"github.com/hdt3213/solodis/redis/parser"
)

// Config stores tcp server properties
type Config struct {
	Address string
}

// Handler is the engine driven by the server: command execution plus the
// periodic tick. All calls happen on the reactor goroutine.
type Handler interface {
	Exec(cmdLine [][]byte) redis.Reply
	Tick()
	Close()
}

const fdLimit = 65536

// Server multiplexes every client connection on one reactor goroutine
type Server struct {
	reactor  *Reactor
	listenFd int
	conns    map[int]*Connection
	handler  Handler
}

// ListenAndServeWithSignal binds the address and serves until SIGINT or
// SIGTERM. SIGPIPE is suppressed so a write to a peer-closed socket
// surfaces as EPIPE instead of killing the process.
func ListenAndServeWithSignal(cfg *Config, handler Handler) error {
	signal.Ignore(syscall.SIGPIPE)
	var closing atomic.Boolean
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Infof("signal %v received, shutting down", sig)
		closing.Set(true)
	}()

	raiseFdLimit()

	listener, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		return err
	}
	defer listener.Close()
	file, err := listener.(*net.TCPListener).File()
	if err != nil {
		return err
	}
	defer file.Close()
	listenFd := int(file.Fd())
	if err := unix.SetNonblock(listenFd, true); err != nil {
		return err
	}

	reactor, err := NewReactor()
	if err != nil {
		return err
	}
	defer reactor.Close()

	server := &Server{
		reactor:  reactor,
		listenFd: listenFd,
		conns:    make(map[int]*Connection),
		handler:  handler,
	}
	tickInterval := time.Duration(config.Properties.TickInterval) * time.Millisecond
	if tickInterval <= 0 {
		tickInterval = 100 * time.Millisecond
	}
	reactor.SetTimer(handler.Tick, tickInterval)
	if err := reactor.AddFd(listenFd, unix.EPOLLIN); err != nil {
		return err
	}
	logger.Infof("bind: %s, start listening...", cfg.Address)

	serveErr := server.serve(&closing)

	for _, conn := range server.conns {
		server.closeConn(conn)
	}
	handler.Close()
	if serveErr != nil {
		return serveErr
	}
	logger.Info("server shut down cleanly")
	return nil
}

// serve is the reactor loop: wait, dispatch ready fds, repeat. It exits on
// the shutdown flag or a hard reactor error.
func (server *Server) serve(closing *atomic.Boolean) error {
	for !closing.Get() {
		n, err := server.reactor.Poll(time.Second)
		if err != nil {
			logger.Errorf("reactor poll failed: %v", err)
			return err
		}
		for i := 0; i < n; i++ {
			ev := server.reactor.Event(i)
			fd := int(ev.Fd)
			if fd == server.listenFd {
				server.acceptLoop()
				continue
			}
			conn, ok := server.conns[fd]
			if !ok {
				continue
			}
			server.handleConnEvent(conn, ev.Events)
		}
	}
	return nil
}

// acceptLoop drains the listen backlog; the listener fd is non-blocking
func (server *Server) acceptLoop() {
	for {
		nfd, _, err := unix.Accept(server.listenFd)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			if err != unix.EAGAIN {
				logger.Warnf("accept failed: %v", err)
			}
			return
		}
		if config.Properties.MaxClients > 0 && len(server.conns) >= config.Properties.MaxClients {
			_ = unix.Close(nfd)
			continue
		}
		if err := unix.SetNonblock(nfd, true); err != nil {
			_ = unix.Close(nfd)
			continue
		}
		conn := NewConnection(nfd)
		conn.registered = unix.EPOLLIN
		if err := server.reactor.AddFd(nfd, unix.EPOLLIN); err != nil {
			_ = unix.Close(nfd)
			continue
		}
		server.conns[nfd] = conn
	}
}

func (server *Server) handleConnEvent(conn *Connection, events uint32) {
	if events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
		conn.wantClose = true
	}
	if events&unix.EPOLLIN != 0 && conn.wantRead && !conn.wantClose {
		if !conn.HandleRead() {
			// peer closed its write side; finish draining our replies
			conn.wantRead = false
		}
		server.dispatch(conn)
	}
	if events&unix.EPOLLOUT != 0 && !conn.wantClose {
		if !conn.HandleWrite() {
			conn.wantClose = true
		}
	}
	server.updateInterest(conn)
}

// dispatch executes every complete frame already buffered, in order, before
// any reply is flushed (pipelining)
func (server *Server) dispatch(conn *Connection) {
	for {
		args, err := parser.Parse(&conn.in)
		if err == parser.ErrIncomplete {
			break
		}
		if err != nil {
			logger.Warnf("protocol error on fd %d, closing", conn.fd)
			conn.wantClose = true
			break
		}
		reply := server.handler.Exec(args)
		if reply != nil {
			conn.out.Append(reply.ToBytes())
		}
	}
	// opportunistic flush; leftovers arm EPOLLOUT in updateInterest
	if conn.out.Readable() > 0 && !conn.wantClose {
		if !conn.HandleWrite() {
			conn.wantClose = true
		}
	}
}

// updateInterest reconciles the epoll mask with the connection state and
// applies the auto-close rule
func (server *Server) updateInterest(conn *Connection) {
	if conn.wantClose || (!conn.wantRead && conn.out.Readable() == 0) {
		server.closeConn(conn)
		return
	}
	var mask uint32
	if conn.wantRead {
		mask |= unix.EPOLLIN
	}
	if conn.out.Readable() > 0 {
		conn.wantWrite = true
		mask |= unix.EPOLLOUT
	}
	if mask != conn.registered {
		if err := server.reactor.ModFd(conn.fd, mask); err != nil {
			server.closeConn(conn)
			return
		}
		conn.registered = mask
	}
}

func (server *Server) closeConn(conn *Connection) {
	server.reactor.RemoveFd(conn.fd)
	conn.Close()
	delete(server.conns, conn.fd)
}

// raiseFdLimit lifts the soft fd limit to 65536, falling back to the hard
// limit when the OS refuses
func raiseFdLimit() {
	var rl unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rl); err != nil {
		return
	}
	want := rl
	want.Cur = fdLimit
	if want.Max < fdLimit {
		want.Max = fdLimit
	}
	if err := unix.Setrlimit(unix.RLIMIT_NOFILE, &want); err != nil {
		rl.Cur = rl.Max
		if err := unix.Setrlimit(unix.RLIMIT_NOFILE, &rl); err != nil {
			logger.Warnf("raise fd limit failed: %v", err)
		}
	}
}
