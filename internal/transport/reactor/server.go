//go:build linux || darwin

package reactor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/taoreta-ed/redes2-25-2/internal/session"
)

const (
	DefaultTickInterval = 10 * time.Millisecond

	readBufferSize = 4096
)

type accepter interface {
	Accept(ctx context.Context, writer io.Writer, remote string) (*session.Connection, error)
}

type rejectCounter interface {
	ConnectionRejected()
}

type peer struct {
	conn    *Conn
	session *session.Connection
	closing bool
}

// Server hosts one session at a time from a single goroutine driven by the reactor.
type Server struct {
	logger   *slog.Logger
	sessions accepter
	rejected rejectCounter

	reactor  *Reactor
	listener *Listener
	buf      []byte

	// ctx of the running loop, handed to callbacks.
	ctx context.Context //nolint: containedctx

	mu     sync.Mutex
	active *peer
}

// NewServer - rejected may be nil.
func NewServer(logger *slog.Logger, sessions accepter, rejected rejectCounter) *Server {
	return &Server{
		logger:   logger.With("component", "reactor"),
		sessions: sessions,
		rejected: rejected,
		reactor:  NewReactor(),
		buf:      make([]byte, readBufferSize),
		ctx:      context.Background(),
	}
}

// Listen - binds the listening socket and registers it for accept readiness.
func (that *Server) Listen(addr string) error {
	listener, err := Listen(addr)
	if err != nil {
		return err
	}

	if err = that.reactor.Register(listener.FD(), EventRead, that.onAccept); err != nil {
		_ = listener.Close()
		return err
	}

	that.listener = listener

	return nil
}

func (that *Server) Addr() net.Addr {
	return that.listener.Addr()
}

// Run - alternates a non-blocking reactor tick with onTick, once per
// interval, until ctx is done. onTick may be nil.
func (that *Server) Run(ctx context.Context, interval time.Duration, onTick func()) error {
	log := that.logger.With("method", "Run")

	if interval <= 0 {
		interval = DefaultTickInterval
	}

	that.ctx = ctx
	defer that.shutdown()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info("listening", "addr", that.listener.Addr().String(), "interval", interval)

	for {
		if _, err := that.reactor.Tick(0); err != nil {
			log.Error("reactor tick failed", "error", err)
			return err
		}

		if onTick != nil {
			onTick()
		}

		select {
		case <-ctx.Done():
			log.Info("server stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Start - listens on addr and runs the loop with the default interval.
func (that *Server) Start(ctx context.Context, addr string) error {
	if err := that.Listen(addr); err != nil {
		return err
	}

	return that.Run(ctx, DefaultTickInterval, nil)
}

func (that *Server) onAccept(_ int, _ int16) {
	log := that.logger.With("method", "onAccept")

	for {
		conn, err := that.listener.Accept()
		if errors.Is(err, ErrWouldBlock) {
			return
		}

		if err != nil {
			log.Error("accept failed", "error", err)
			return
		}

		remote := conn.RemoteAddr().String()

		if that.current() != nil {
			log.Warn("rejecting connection, a session is already active", "remote", remote)

			if that.rejected != nil {
				that.rejected.ConnectionRejected()
			}

			_ = conn.Close()

			continue
		}

		that.open(conn, remote)
	}
}

func (that *Server) open(conn *Conn, remote string) {
	log := that.logger.With("method", "open", "remote", remote)

	sessConn, err := that.sessions.Accept(that.ctx, conn, remote)
	if err != nil {
		log.Error("failed to start session", "error", err)
		_ = conn.Close()

		return
	}

	if err = that.reactor.Register(conn.FD(), that.interest(conn, false), that.onReady); err != nil {
		log.Error("failed to register connection", "error", err)
		sessConn.Close(that.ctx, "register failed")
		_ = conn.Close()

		return
	}

	that.setActive(&peer{conn: conn, session: sessConn})

	log.Info("client connected", "session_id", sessConn.SessionID())
}

// onReady - readiness callback of the active connection.
func (that *Server) onReady(_ int, revents int16) {
	current := that.current()
	if current == nil {
		return
	}

	log := that.logger.With("method", "onReady", "session_id", current.session.SessionID())

	if revents&eventError != 0 {
		log.Warn("socket error reported")
		current.session.Close(that.ctx, "socket error")
		that.teardown(current)

		return
	}

	if revents&EventWrite != 0 {
		if err := current.conn.Flush(); err != nil {
			log.Warn("flush failed", "error", err)
			current.session.Close(that.ctx, "write failed")
			that.teardown(current)

			return
		}
	}

	if !current.closing && revents&(EventRead|eventHangup) != 0 {
		that.read(current, log)
	}

	if current.closing && current.conn.Pending() == 0 {
		that.teardown(current)
		return
	}

	if err := that.reactor.Modify(current.conn.FD(), that.interest(current.conn, current.closing)); err != nil {
		log.Error("failed to update interest", "error", err)
	}
}

func (that *Server) read(current *peer, log *slog.Logger) {
	n, err := current.conn.Read(that.buf)

	switch {
	case errors.Is(err, ErrWouldBlock):
		return
	case errors.Is(err, io.EOF):
		n = 0
	case err != nil:
		log.Warn("read failed", "error", err)
		current.session.Close(that.ctx, "read failed")
		current.closing = true

		return
	}

	if err = current.session.Receive(that.ctx, that.buf[:n]); err != nil {
		if session.IsCleanClose(err) {
			log.Info("session closed", "reason", err)
		} else {
			log.Error("session terminated", "error", err)
		}

		current.closing = true
	}
}

func (that *Server) interest(conn *Conn, closing bool) int16 {
	var events int16
	if !closing {
		events |= EventRead
	}

	if conn.Pending() > 0 {
		events |= EventWrite
	}

	return events
}

// teardown - unregisters before closing so the descriptor number can be reused.
func (that *Server) teardown(current *peer) {
	if err := that.reactor.Unregister(current.conn.FD()); err != nil {
		that.logger.Warn("unregister failed", "error", err)
	}

	if err := current.conn.Close(); err != nil {
		that.logger.Warn("close failed", "error", err)
	}

	that.setActive(nil)
}

func (that *Server) shutdown() {
	if current := that.current(); current != nil {
		current.session.Close(that.ctx, "server shutting down")
		_ = current.conn.Flush()
		that.teardown(current)
	}

	if that.listener != nil {
		_ = that.reactor.Unregister(that.listener.FD())
		_ = that.listener.Close()
	}
}

func (that *Server) current() *peer {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.active
}

func (that *Server) setActive(current *peer) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.active = current
}

// Status - line for the status collaborator. Safe from any goroutine.
func (that *Server) Status() string {
	current := that.current()
	if current == nil {
		return session.WaitingStatus
	}

	return current.session.Snapshot().String()
}
