package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/taoreta-ed/redes2-25-2/internal/entity"
)

const (
	DefaultRecordQueueSize = 64
	DefaultRecordTimeout   = 2 * time.Second
)

var ErrRecordQueueFull = errors.New("record queue is full")

// RecordQueue hands finished games to a recorder from its own goroutine,
// so a slow store never holds up the connection host.
type RecordQueue struct {
	logger  *slog.Logger
	target  recorder
	queue   chan *entity.GameRecord
	timeout time.Duration
}

// NewRecordQueue - zero size or timeout take the defaults.
func NewRecordQueue(logger *slog.Logger, target recorder, size int, timeout time.Duration) *RecordQueue {
	if size <= 0 {
		size = DefaultRecordQueueSize
	}

	if timeout <= 0 {
		timeout = DefaultRecordTimeout
	}

	return &RecordQueue{
		logger:  logger.With("component", "record_queue"),
		target:  target,
		queue:   make(chan *entity.GameRecord, size),
		timeout: timeout,
	}
}

// Save - enqueues the record without blocking.
func (that *RecordQueue) Save(_ context.Context, record *entity.GameRecord) error {
	select {
	case that.queue <- record:
		return nil
	default:
		return ErrRecordQueueFull
	}
}

// Run - writes queued records until ctx is done, then flushes what is left.
// Each write gets its own timeout and is not cut short by ctx.
func (that *RecordQueue) Run(ctx context.Context) {
	writeCtx := context.WithoutCancel(ctx)

	for {
		select {
		case <-ctx.Done():
			that.flush(writeCtx)
			return
		case record := <-that.queue:
			that.write(writeCtx, record)
		}
	}
}

func (that *RecordQueue) flush(ctx context.Context) {
	for {
		select {
		case record := <-that.queue:
			that.write(ctx, record)
		default:
			return
		}
	}
}

func (that *RecordQueue) write(ctx context.Context, record *entity.GameRecord) {
	saveCtx, cancel := context.WithTimeout(ctx, that.timeout)
	defer cancel()

	if err := that.target.Save(saveCtx, record); err != nil {
		that.logger.Error("failed to record game", "session_id", record.SessionID, "error", err)
	}
}
