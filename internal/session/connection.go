package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/taoreta-ed/redes2-25-2/internal/apperror"
	"github.com/taoreta-ed/redes2-25-2/internal/transport/protocol"
)

// Connection binds one session to a byte stream. Hosts feed it whatever
// they read and close the socket once Receive returns an error.
type Connection struct {
	mu sync.Mutex

	controller *Controller
	session    *Session
	decoder    *protocol.Decoder
	encoder    *protocol.Encoder
	logger     *slog.Logger
}

// Accept - starts a session for a freshly accepted peer and writes the
// configuration frame to it.
func (that *Controller) Accept(ctx context.Context, writer io.Writer, remote string) (*Connection, error) {
	sess, greeting, err := that.Start(remote)
	if err != nil {
		return nil, err
	}

	return that.attach(ctx, sess, greeting, writer)
}

func (that *Controller) attach(ctx context.Context, sess *Session, greeting []protocol.Message, writer io.Writer) (*Connection, error) {
	conn := &Connection{
		controller: that,
		session:    sess,
		decoder:    protocol.NewDecoder(),
		encoder:    protocol.NewEncoder(writer),
		logger:     that.logger.With("session_id", sess.ID, "remote", sess.Remote),
	}

	if err := conn.send(greeting); err != nil {
		that.Abort(ctx, sess, "handshake failed")
		return nil, fmt.Errorf("failed to send configuration: %w", err)
	}

	return conn, nil
}

// Receive - feeds bytes read from the peer and answers every complete frame.
// A nil error keeps the connection open. Any other result means the socket
// must be closed; see IsCleanClose.
func (that *Connection) Receive(ctx context.Context, data []byte) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	log := that.logger.With("method", "Receive")

	if err := that.decoder.Feed(data); err != nil {
		that.controller.Abort(ctx, that.session, "peer closed the connection")
		return err
	}

	for {
		msg, ok, err := that.decoder.Next()
		if err != nil {
			log.Warn("malformed frame", "error", err)
			that.controller.observer.FrameRejected()
			that.controller.Abort(ctx, that.session, "malformed frame")

			return err
		}

		if !ok {
			return nil
		}

		responses, err := that.controller.Handle(ctx, that.session, msg)
		if err != nil {
			that.controller.Abort(ctx, that.session, err.Error())
			return err
		}

		if err = that.send(responses); err != nil {
			log.Error("failed to answer peer", "error", err)
			that.controller.Abort(ctx, that.session, "write failed")

			return err
		}

		if that.session.State.IsTerminal() {
			return fmt.Errorf("%w: %s", apperror.ErrSessionFinished, that.session.State)
		}
	}
}

func (that *Connection) send(messages []protocol.Message) error {
	for _, msg := range messages {
		if err := that.encoder.Encode(msg); err != nil {
			return err
		}
	}

	return nil
}

// Close - ends the session if the host tears the socket down first.
func (that *Connection) Close(ctx context.Context, reason string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.controller.Abort(ctx, that.session, reason)
}

func (that *Connection) SessionID() string {
	return that.session.ID
}

func (that *Connection) Snapshot() Status {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.controller.Snapshot(that.session)
}

// IsCleanClose - true for endings that are part of a normal game.
func IsCleanClose(err error) bool {
	return errors.Is(err, apperror.ErrSessionFinished) || errors.Is(err, apperror.ErrPeerClosed)
}
