package socket

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"

	"github.com/taoreta-ed/redes2-25-2/internal/apperror"
	"github.com/taoreta-ed/redes2-25-2/internal/session"
)

const readBufferSize = 4096

type accepter interface {
	Accept(ctx context.Context, writer io.Writer, remote string) (*session.Connection, error)
}

type rejectCounter interface {
	ConnectionRejected()
}

// Server hosts one session at a time with an accept-loop goroutine and a
// read-loop goroutine per connection.
type Server struct {
	logger   *slog.Logger
	sessions accepter
	rejected rejectCounter

	listener net.Listener
	wg       sync.WaitGroup

	mu     sync.Mutex
	busy   bool
	active *session.Connection
}

// New - rejected may be nil.
func New(logger *slog.Logger, sessions accepter, rejected rejectCounter) *Server {
	return &Server{
		logger:   logger.With("component", "socket"),
		sessions: sessions,
		rejected: rejected,
	}
}

// Listen - binds the listening socket.
func (that *Server) Listen(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("%w: failed to listen on %s: %w", apperror.ErrSocket, addr, err)
	}

	that.listener = listener

	return nil
}

func (that *Server) Addr() net.Addr {
	return that.listener.Addr()
}

// Start - listens on addr and serves until ctx is done.
func (that *Server) Start(ctx context.Context, addr string) error {
	if err := that.Listen(addr); err != nil {
		return err
	}

	return that.Serve(ctx)
}

// Serve - runs the accept loop. It returns once ctx is done and every
// connection goroutine has exited.
func (that *Server) Serve(ctx context.Context) error {
	log := that.logger.With("method", "Serve")

	stop := context.AfterFunc(ctx, func() {
		_ = that.listener.Close()
	})
	defer stop()

	log.Info("listening", "addr", that.listener.Addr().String())

	for {
		conn, err := that.listener.Accept()
		if err != nil {
			that.wg.Wait()

			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				log.Info("server stopped")
				return nil
			}

			return fmt.Errorf("%w: accept failed: %w", apperror.ErrSocket, err)
		}

		if !that.claim() {
			log.Warn("rejecting connection, a session is already active", "remote", conn.RemoteAddr().String())

			if that.rejected != nil {
				that.rejected.ConnectionRejected()
			}

			_ = conn.Close()

			continue
		}

		that.wg.Add(1)

		go func() {
			defer that.wg.Done()
			defer that.release()

			that.handleConn(ctx, conn)
		}()
	}
}

// handleConn - read loop of one connection. Closing the socket ends it.
func (that *Server) handleConn(ctx context.Context, conn net.Conn) {
	remote := conn.RemoteAddr().String()
	log := that.logger.With("method", "handleConn", "remote", remote)

	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	sessConn, err := that.sessions.Accept(ctx, conn, remote)
	if err != nil {
		log.Error("failed to start session", "error", err)
		return
	}

	that.setActive(sessConn)

	log.Info("client connected", "session_id", sessConn.SessionID())

	buf := make([]byte, readBufferSize)

	for {
		n, err := conn.Read(buf)
		if err != nil && !errors.Is(err, io.EOF) {
			log.Warn("read failed", "error", err)
			sessConn.Close(ctx, "read failed")

			return
		}

		if err = sessConn.Receive(ctx, buf[:n]); err != nil {
			if session.IsCleanClose(err) {
				log.Info("session closed", "reason", err)
			} else {
				log.Error("session terminated", "error", err)
			}

			return
		}
	}
}

func (that *Server) claim() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.busy {
		return false
	}

	that.busy = true

	return true
}

func (that *Server) setActive(conn *session.Connection) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.active = conn
}

func (that *Server) release() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.busy = false
	that.active = nil
}

// Status - line for the status collaborator.
func (that *Server) Status() string {
	that.mu.Lock()
	active := that.active
	that.mu.Unlock()

	if active == nil {
		return session.WaitingStatus
	}

	return active.Snapshot().String()
}
