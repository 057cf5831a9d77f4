//go:build linux || darwin

package reactor

import (
	"errors"
	"fmt"
	"io"
	"net"

	"golang.org/x/sys/unix"

	"github.com/taoreta-ed/redes2-25-2/internal/apperror"
)

const listenBacklog = 16

// ErrWouldBlock - the non-blocking call has nothing to do right now.
var ErrWouldBlock = errors.New("operation would block")

// Listener is a non-blocking listening TCP socket.
type Listener struct {
	fd   int
	addr net.Addr
}

// Listen - opens a non-blocking socket bound to addr ("host:port").
func Listen(addr string) (*Listener, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve %s: %w", apperror.ErrSocket, addr, err)
	}

	domain, sa := toSockaddr(tcpAddr)

	fd, err := unix.Socket(domain, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: socket: %w", apperror.ErrSocket, err)
	}

	if err = setup(fd, sa); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("%w: listen on %s: %w", apperror.ErrSocket, addr, err)
	}

	bound, err := unix.Getsockname(fd)
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("%w: getsockname: %w", apperror.ErrSocket, err)
	}

	return &Listener{fd: fd, addr: fromSockaddr(bound)}, nil
}

func setup(fd int, sa unix.Sockaddr) error {
	unix.CloseOnExec(fd)

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		return err
	}

	if err := unix.Bind(fd, sa); err != nil {
		return err
	}

	if err := unix.Listen(fd, listenBacklog); err != nil {
		return err
	}

	return unix.SetNonblock(fd, true)
}

func (that *Listener) FD() int {
	return that.fd
}

func (that *Listener) Addr() net.Addr {
	return that.addr
}

// Accept - returns ErrWouldBlock when no connection is pending.
func (that *Listener) Accept() (*Conn, error) {
	for {
		fd, sa, err := unix.Accept(that.fd)

		switch {
		case err == nil:
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.ECONNABORTED):
			return nil, ErrWouldBlock
		default:
			return nil, fmt.Errorf("%w: accept: %w", apperror.ErrSocket, err)
		}

		unix.CloseOnExec(fd)

		if err = unix.SetNonblock(fd, true); err != nil {
			_ = unix.Close(fd)
			return nil, fmt.Errorf("%w: set non-blocking: %w", apperror.ErrSocket, err)
		}

		return newConn(fd, fromSockaddr(sa)), nil
	}
}

func (that *Listener) Close() error {
	if err := unix.Close(that.fd); err != nil {
		return fmt.Errorf("%w: close listener: %w", apperror.ErrSocket, err)
	}

	return nil
}

// Conn is a non-blocking connected socket with an outbox for bytes the
// kernel did not take yet.
type Conn struct {
	fd     int
	remote net.Addr
	outbox []byte
	closed bool
}

func newConn(fd int, remote net.Addr) *Conn {
	return &Conn{fd: fd, remote: remote}
}

func (that *Conn) FD() int {
	return that.fd
}

func (that *Conn) RemoteAddr() net.Addr {
	return that.remote
}

// Read - io.EOF when the peer closed, ErrWouldBlock when nothing is buffered.
func (that *Conn) Read(buf []byte) (int, error) {
	for {
		n, err := unix.Read(that.fd, buf)

		switch {
		case err == nil && n == 0:
			return 0, io.EOF
		case err == nil:
			return n, nil
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN):
			return 0, ErrWouldBlock
		default:
			return 0, fmt.Errorf("%w: read: %w", apperror.ErrSocket, err)
		}
	}
}

// Write - queues data and flushes what the socket accepts now. Every byte
// is accepted unless the socket is broken.
func (that *Conn) Write(data []byte) (int, error) {
	if that.closed {
		return 0, fmt.Errorf("%w: write on closed connection", apperror.ErrSocket)
	}

	that.outbox = append(that.outbox, data...)

	if err := that.Flush(); err != nil {
		return 0, err
	}

	return len(data), nil
}

// Flush - writes queued bytes until the socket would block.
func (that *Conn) Flush() error {
	for len(that.outbox) > 0 {
		n, err := unix.Write(that.fd, that.outbox)

		switch {
		case err == nil:
			that.outbox = that.outbox[n:]
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN):
			return nil
		default:
			return fmt.Errorf("%w: write: %w", apperror.ErrSocket, err)
		}
	}

	that.outbox = nil

	return nil
}

// Pending - bytes still waiting for write readiness.
func (that *Conn) Pending() int {
	return len(that.outbox)
}

func (that *Conn) Close() error {
	if that.closed {
		return nil
	}

	that.closed = true

	if err := unix.Close(that.fd); err != nil {
		return fmt.Errorf("%w: close: %w", apperror.ErrSocket, err)
	}

	return nil
}

func toSockaddr(addr *net.TCPAddr) (int, unix.Sockaddr) {
	if ip4 := addr.IP.To4(); ip4 != nil || addr.IP == nil {
		sa := &unix.SockaddrInet4{Port: addr.Port}
		copy(sa.Addr[:], ip4)

		return unix.AF_INET, sa
	}

	sa := &unix.SockaddrInet6{Port: addr.Port}
	copy(sa.Addr[:], addr.IP.To16())

	return unix.AF_INET6, sa
}

func fromSockaddr(sa unix.Sockaddr) net.Addr {
	switch addr := sa.(type) {
	case *unix.SockaddrInet4:
		return &net.TCPAddr{IP: net.IPv4(addr.Addr[0], addr.Addr[1], addr.Addr[2], addr.Addr[3]), Port: addr.Port}
	case *unix.SockaddrInet6:
		ip := make(net.IP, net.IPv6len)
		copy(ip, addr.Addr[:])

		return &net.TCPAddr{IP: ip, Port: addr.Port}
	default:
		return &net.UnixAddr{Name: "unknown", Net: "unix"}
	}
}
