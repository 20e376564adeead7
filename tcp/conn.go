package tcp

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/hdt3213/solodis/lib/iobuf"
)

const readChunkSize = 4096

// Connection owns one non-blocking client fd with its incoming and
// outgoing buffers. It is torn down once the read side is gone and the
// outgoing buffer has drained, or when wantClose is set.
type Connection struct {
	fd  int
	in  iobuf.Buffer
	out iobuf.Buffer

	wantRead  bool
	wantWrite bool
	wantClose bool

	// event mask currently registered with the reactor
	registered uint32

	lastActivity time.Time
}

// NewConnection wraps an accepted non-blocking fd. The buffers stay empty
// until traffic arrives, so idle connections cost almost nothing.
func NewConnection(fd int) *Connection {
	return &Connection{
		fd:           fd,
		wantRead:     true,
		lastActivity: time.Now(),
	}
}

// Fd returns the underlying file descriptor
func (conn *Connection) Fd() int {
	return conn.fd
}

// HandleRead pulls available bytes into the incoming buffer. It returns
// false when the peer closed or a non-retryable error occurred; would-block
// and interruption are silent retries.
func (conn *Connection) HandleRead() bool {
	conn.in.EnsureWritable(readChunkSize)
	n, err := unix.Read(conn.fd, conn.in.WritableSlice())
	if err != nil {
		if err == unix.EAGAIN || err == unix.EINTR {
			return true
		}
		return false
	}
	if n == 0 {
		// orderly shutdown by the peer
		return false
	}
	conn.in.CommitWrite(n)
	conn.lastActivity = time.Now()
	return true
}

// HandleWrite pushes outgoing bytes to the fd. Same retry policy as
// HandleRead; clears wantWrite once the buffer drains.
func (conn *Connection) HandleWrite() bool {
	if conn.out.Readable() == 0 {
		conn.wantWrite = false
		return true
	}
	n, err := unix.Write(conn.fd, conn.out.ReadableSlice())
	if err != nil {
		if err == unix.EAGAIN || err == unix.EINTR {
			return true
		}
		return false
	}
	conn.out.Consume(n)
	if conn.out.Readable() == 0 {
		conn.wantWrite = false
	}
	conn.lastActivity = time.Now()
	return true
}

// Close releases the fd
func (conn *Connection) Close() {
	_ = unix.Close(conn.fd)
}
