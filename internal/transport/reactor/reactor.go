//go:build linux || darwin

package reactor

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/unix"

	"github.com/taoreta-ed/redes2-25-2/internal/apperror"
)

const (
	EventRead  int16 = unix.POLLIN
	EventWrite int16 = unix.POLLOUT

	eventHangup int16 = unix.POLLHUP
	eventError  int16 = unix.POLLERR | unix.POLLNVAL
)

var (
	ErrAlreadyRegistered = errors.New("descriptor already registered")
	ErrNotRegistered     = errors.New("descriptor not registered")
)

// Callback receives the descriptor and the events reported ready for it.
type Callback func(fd int, revents int16)

type registration struct {
	events   int16
	callback Callback
}

// Reactor is a single-threaded readiness multiplexer on poll(2). None of
// its methods are safe for concurrent use.
type Reactor struct {
	handlers map[int]*registration
	order    []int
	fds      []unix.PollFd
	dirty    bool
}

func NewReactor() *Reactor {
	return &Reactor{handlers: make(map[int]*registration)}
}

func (that *Reactor) Register(fd int, events int16, callback Callback) error {
	if _, ok := that.handlers[fd]; ok {
		return fmt.Errorf("%w: %d", ErrAlreadyRegistered, fd)
	}

	that.handlers[fd] = &registration{events: events, callback: callback}
	that.order = append(that.order, fd)
	that.dirty = true

	return nil
}

func (that *Reactor) Modify(fd int, events int16) error {
	reg, ok := that.handlers[fd]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotRegistered, fd)
	}

	if reg.events != events {
		reg.events = events
		that.dirty = true
	}

	return nil
}

// Unregister - must be called before the descriptor is closed.
func (that *Reactor) Unregister(fd int) error {
	if _, ok := that.handlers[fd]; !ok {
		return fmt.Errorf("%w: %d", ErrNotRegistered, fd)
	}

	delete(that.handlers, fd)

	for i, registered := range that.order {
		if registered == fd {
			that.order = append(that.order[:i], that.order[i+1:]...)
			break
		}
	}

	that.dirty = true

	return nil
}

func (that *Reactor) Len() int {
	return len(that.handlers)
}

// Tick - polls once and dispatches ready descriptors in registration order.
// A zero timeout never blocks, a negative one waits until something is ready.
func (that *Reactor) Tick(timeout time.Duration) (int, error) {
	that.rebuild()

	millis := -1
	if timeout >= 0 {
		millis = int(timeout / time.Millisecond)
	}

	n, err := unix.Poll(that.fds, millis)
	if errors.Is(err, unix.EINTR) {
		return 0, nil
	}

	if err != nil {
		return 0, fmt.Errorf("%w: poll: %w", apperror.ErrSocket, err)
	}

	if n == 0 {
		return 0, nil
	}

	dispatched := 0

	// Callbacks may unregister descriptors, so work on the snapshot taken by rebuild.
	for _, pfd := range that.fds {
		if pfd.Revents == 0 {
			continue
		}

		reg, ok := that.handlers[int(pfd.Fd)]
		if !ok {
			continue
		}

		reg.callback(int(pfd.Fd), pfd.Revents)
		dispatched++
	}

	return dispatched, nil
}

func (that *Reactor) rebuild() {
	if !that.dirty {
		return
	}

	fds := make([]unix.PollFd, 0, len(that.order))
	for _, fd := range that.order {
		fds = append(fds, unix.PollFd{Fd: int32(fd), Events: that.handlers[fd].events}) //nolint: gosec
	}

	that.fds = fds
	that.dirty = false
}
