package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/taoreta-ed/redes2-25-2/internal/apperror"
	"github.com/taoreta-ed/redes2-25-2/internal/entity"
	"github.com/taoreta-ed/redes2-25-2/internal/transport/protocol"
)

const (
	DefaultHandshakeTimeout = 5 * time.Second

	readBufferSize = 4096
	eventsBuffer   = 256
)

var ErrHandshake = errors.New("handshake failed")

// Client speaks the game protocol to a server and mirrors the board from
// the control frames it receives.
type Client struct {
	logger *slog.Logger
	conn   net.Conn

	buf     []byte
	decoder *protocol.Decoder
	config  protocol.Configuration
	events  chan protocol.Message

	// done is closed by Close and Disconnect; stopped once readLoop returned.
	done     chan struct{}
	doneOnce sync.Once
	stopped  chan struct{}

	writeMu sync.Mutex
	encoder *protocol.Encoder

	mu     sync.Mutex
	mirror *Mirror
	err    error
}

// Dial - connects and waits up to handshakeTimeout for the configuration frame.
func Dial(ctx context.Context, logger *slog.Logger, addr string, handshakeTimeout time.Duration) (*Client, error) {
	if handshakeTimeout <= 0 {
		handshakeTimeout = DefaultHandshakeTimeout
	}

	var dialer net.Dialer

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to %s: %w", apperror.ErrSocket, addr, err)
	}

	client := &Client{
		logger:  logger.With("component", "client", "server", addr),
		conn:    conn,
		buf:     make([]byte, readBufferSize),
		decoder: protocol.NewDecoder(),
		encoder: protocol.NewEncoder(conn),
		events:  make(chan protocol.Message, eventsBuffer),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}

	if err = client.handshake(handshakeTimeout); err != nil {
		_ = conn.Close()
		return nil, err
	}

	go client.readLoop()

	return client, nil
}

func (that *Client) handshake(timeout time.Duration) error {
	if err := that.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return fmt.Errorf("%w: %w", ErrHandshake, err)
	}

	msg, err := that.next()
	if err != nil {
		return fmt.Errorf("%w: no configuration received: %w", ErrHandshake, err)
	}

	config, ok := msg.(protocol.Configuration)
	if !ok {
		return fmt.Errorf("%w: %w: expected %s, got %s",
			ErrHandshake, apperror.ErrFrame, protocol.TypeConfiguration, msg.Type())
	}

	if err = that.conn.SetReadDeadline(time.Time{}); err != nil {
		return fmt.Errorf("%w: %w", ErrHandshake, err)
	}

	that.config = config
	that.mirror = NewMirror(config.Rows, config.Cols, config.Mines)

	that.logger.Info("connected", "difficulty", config.Difficulty,
		"rows", config.Rows, "cols", config.Cols, "mines", config.Mines)

	return nil
}

// next - blocks until one whole frame is decoded.
func (that *Client) next() (protocol.Message, error) {
	for {
		msg, ok, err := that.decoder.Next()
		if err != nil {
			return nil, err
		}

		if ok {
			return msg, nil
		}

		n, err := that.conn.Read(that.buf)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %w", apperror.ErrSocket, err)
		}

		if err = that.decoder.Feed(that.buf[:n]); err != nil {
			return nil, err
		}
	}
}

func (that *Client) readLoop() {
	defer close(that.stopped)
	defer close(that.events)

	for {
		msg, err := that.next()
		if err != nil {
			that.finish(err)
			return
		}

		that.mu.Lock()
		that.mirror.Apply(msg)
		that.mu.Unlock()

		select {
		case that.events <- msg:
		case <-that.done:
			that.finish(nil)
			return
		}

		if _, ok := msg.(protocol.End); ok {
			that.finish(nil)
			return
		}
	}
}

func (that *Client) finish(err error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err != nil && !errors.Is(err, apperror.ErrPeerClosed) && !errors.Is(err, net.ErrClosed) {
		that.logger.Warn("connection lost", "error", err)
		that.err = err
	}

	_ = that.conn.Close()
}

func (that *Client) Config() protocol.Configuration {
	return that.config
}

// Events - every frame from the server after the configuration. The channel
// is closed when the game ends or the connection drops.
func (that *Client) Events() <-chan protocol.Message {
	return that.events
}

// Err - why the event stream stopped; nil for a finished game or a clean close.
func (that *Client) Err() error {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.err
}

// Board - copy of the mirrored board.
func (that *Client) Board() *Mirror {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.mirror.Clone()
}

// Reveal - checks the move against the mirror, then sends it.
func (that *Client) Reveal(row, col int) error {
	that.mu.Lock()
	err := that.mirror.CanReveal(row, col)
	that.mu.Unlock()

	if err != nil {
		return err
	}

	return that.Send(protocol.Coordinate{Row: row, Col: col})
}

func (that *Client) Flag(row, col int, action entity.FlagAction) error {
	if !action.IsValid() {
		return fmt.Errorf("unknown flag action %q", action)
	}

	that.mu.Lock()
	err := that.mirror.CanFlag(row, col)
	that.mu.Unlock()

	if err != nil {
		return err
	}

	return that.Send(protocol.Flag{Row: row, Col: col, Action: action})
}

// Disconnect - asks the server to end the session and closes the socket.
func (that *Client) Disconnect() error {
	err := that.Send(protocol.Disconnect{})
	that.stop()

	if closeErr := that.conn.Close(); closeErr != nil && !errors.Is(closeErr, net.ErrClosed) && err == nil {
		err = fmt.Errorf("%w: %w", apperror.ErrSocket, closeErr)
	}

	return err
}

// Close - closes the socket and waits for the read goroutine to exit.
func (that *Client) Close() error {
	that.stop()

	err := that.conn.Close()
	<-that.stopped

	if err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("%w: %w", apperror.ErrSocket, err)
	}

	return nil
}

func (that *Client) stop() {
	that.doneOnce.Do(func() {
		close(that.done)
	})
}

// Send - writes any frame as is, without the mirror checks.
func (that *Client) Send(msg protocol.Message) error {
	that.writeMu.Lock()
	defer that.writeMu.Unlock()

	return that.encoder.Encode(msg)
}
