package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/taoreta-ed/redes2-25-2/internal/apperror"
)

const (
	// Delimiter terminates every frame. JSON text never contains a raw newline.
	Delimiter = '\n'

	// MaxFrameSize bounds a frame that has not been terminated yet.
	MaxFrameSize = 64 * 1024
)

// Encode - marshals a message into one newline-terminated frame.
func Encode(msg Message) ([]byte, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", msg.Type(), err)
	}

	return append(payload, Delimiter), nil
}

// Encoder writes whole frames to a stream.
type Encoder struct {
	writer io.Writer
}

func NewEncoder(writer io.Writer) *Encoder {
	return &Encoder{writer: writer}
}

// Encode - writes msg as a single frame.
func (that *Encoder) Encode(msg Message) error {
	frame, err := Encode(msg)
	if err != nil {
		return err
	}

	if _, err = that.writer.Write(frame); err != nil {
		return fmt.Errorf("%w: failed to write %s: %w", apperror.ErrSocket, msg.Type(), err)
	}

	return nil
}

// Decoder turns a byte stream into messages. It keeps the bytes of an
// unfinished frame until the rest arrives.
type Decoder struct {
	buffer []byte
	max    int
}

func NewDecoder() *Decoder {
	return &Decoder{max: MaxFrameSize}
}

// Feed - appends freshly read bytes. An empty read means the peer closed.
func (that *Decoder) Feed(data []byte) error {
	if len(data) == 0 {
		return apperror.ErrPeerClosed
	}

	that.buffer = append(that.buffer, data...)

	return nil
}

// Next - returns the next complete message. ok is false when the buffer
// holds no complete frame yet.
func (that *Decoder) Next() (msg Message, ok bool, err error) {
	for {
		idx := bytes.IndexByte(that.buffer, Delimiter)
		if idx < 0 {
			if len(that.buffer) > that.max {
				return nil, false, fmt.Errorf("%w: frame exceeds %d bytes", apperror.ErrFrame, that.max)
			}

			return nil, false, nil
		}

		line := bytes.TrimSpace(that.buffer[:idx])
		if len(line) == 0 {
			that.consume(idx + 1)
			continue
		}

		msg, err = Decode(line)
		that.consume(idx + 1)

		if err != nil {
			return nil, false, err
		}

		return msg, true, nil
	}
}

// Buffered - bytes of a frame still waiting for its delimiter.
func (that *Decoder) Buffered() int {
	return len(that.buffer)
}

func (that *Decoder) consume(n int) {
	that.buffer = append(that.buffer[:0], that.buffer[n:]...)
}

// DecodeAll - feeds data and drains every complete message.
func (that *Decoder) DecodeAll(data []byte) ([]Message, error) {
	if err := that.Feed(data); err != nil {
		return nil, err
	}

	var messages []Message

	for {
		msg, ok, err := that.Next()
		if err != nil {
			return messages, err
		}

		if !ok {
			return messages, nil
		}

		messages = append(messages, msg)
	}
}
