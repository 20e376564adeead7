package tcp

import (
	"time"

	"golang.org/x/sys/unix"
)

const maxEventsPerIter = 128

// Reactor owns the epoll instance and the single periodic timer. One call
// to Poll performs one epoll_wait, dispatches nothing itself, and fires
// the timer callback at most once when its interval has elapsed. The wait
// timeout is clamped so the timer never oversleeps.
type Reactor struct {
	epfd   int
	events [maxEventsPerIter]unix.EpollEvent

	onTick       func()
	tickInterval time.Duration
	lastTick     time.Time
}

// NewReactor creates an epoll instance
func NewReactor() (*Reactor, error) {
	epfd, err := unix.EpollCreate1(0)
	if err != nil {
		return nil, err
	}
	return &Reactor{
		epfd:     epfd,
		lastTick: time.Now(),
	}, nil
}

// SetTimer registers the periodic callback; interval must be positive
func (reactor *Reactor) SetTimer(cb func(), interval time.Duration) {
	reactor.onTick = cb
	reactor.tickInterval = interval
	reactor.lastTick = time.Now()
}

// AddFd starts watching fd for the given event mask
func (reactor *Reactor) AddFd(fd int, events uint32) error {
	return unix.EpollCtl(reactor.epfd, unix.EPOLL_CTL_ADD, fd, &unix.EpollEvent{
		Events: events,
		Fd:     int32(fd),
	})
}

// ModFd changes the event mask of a watched fd
func (reactor *Reactor) ModFd(fd int, events uint32) error {
	return unix.EpollCtl(reactor.epfd, unix.EPOLL_CTL_MOD, fd, &unix.EpollEvent{
		Events: events,
		Fd:     int32(fd),
	})
}

// RemoveFd stops watching fd
func (reactor *Reactor) RemoveFd(fd int) {
	_ = unix.EpollCtl(reactor.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

// Poll runs one epoll_wait bounded by timeout, returning the number of
// ready events. A signal interruption counts as zero events. After the
// wait the timer callback fires if its interval has elapsed.
func (reactor *Reactor) Poll(timeout time.Duration) (int, error) {
	waitMs := int(timeout.Milliseconds())
	if reactor.onTick != nil && reactor.tickInterval > 0 {
		remaining := reactor.tickInterval - time.Since(reactor.lastTick)
		if remaining <= 0 {
			waitMs = 0
		} else if int(remaining.Milliseconds()) < waitMs {
			waitMs = int(remaining.Milliseconds())
		}
	}

	n, err := unix.EpollWait(reactor.epfd, reactor.events[:], waitMs)
	if err != nil {
		if err == unix.EINTR {
			n = 0
		} else {
			return 0, err
		}
	}

	if reactor.onTick != nil && reactor.tickInterval > 0 &&
		time.Since(reactor.lastTick) >= reactor.tickInterval {
		reactor.onTick()
		reactor.lastTick = time.Now()
	}
	return n, nil
}

// Event returns the i-th ready event of the latest Poll
func (reactor *Reactor) Event(i int) unix.EpollEvent {
	return reactor.events[i]
}

// Close releases the epoll instance
func (reactor *Reactor) Close() {
	_ = unix.Close(reactor.epfd)
}
