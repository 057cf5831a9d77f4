package session

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/taoreta-ed/redes2-25-2/internal/entity"
	"github.com/taoreta-ed/redes2-25-2/internal/transport/protocol"
	mockedSession "github.com/taoreta-ed/redes2-25-2/mocks/session"
)

func newTestQueue(rec recorder, size int) *RecordQueue {
	return NewRecordQueue(slog.New(slog.NewTextHandler(io.Discard, nil)), rec, size, time.Second)
}

func TestRecordQueue(t *testing.T) {
	t.Run("A blocked store does not hold up the game", func(t *testing.T) {
		// Given: A controller recording through a queue whose store hangs
		release := make(chan struct{})
		var releaseOnce sync.Once
		unblock := func() {
			releaseOnce.Do(func() { close(release) })
		}
		saved := make(chan *entity.GameRecord, 1)

		rec := mockedSession.NewMockrecorder(t)
		rec.EXPECT().
			Save(mock.Anything, mock.AnythingOfType("*entity.GameRecord")).
			Run(func(_ context.Context, record *entity.GameRecord) {
				<-release
				saved <- record
			}).
			Return(nil).
			Once()

		queue := newTestQueue(rec, 0)

		ctx, cancel := context.WithCancel(context.Background())
		stopped := make(chan struct{})
		go func() {
			defer close(stopped)
			queue.Run(ctx)
		}()
		t.Cleanup(func() {
			unblock()
			cancel()
			<-stopped
		})

		controller, _ := newTestController(t, queue)
		sess, _ := startWith(t, controller, "*..", "...", "...")

		// When: The player steps on the mine
		done := make(chan []protocol.Message, 1)
		go func() {
			responses, err := controller.Handle(ctx, sess, protocol.Coordinate{Row: 0, Col: 0})
			assert.NoError(t, err)
			done <- responses
		}()

		// Then: The answer arrives while the store is still blocked
		select {
		case responses := <-done:
			require.Len(t, responses, 2)
			assert.Equal(t, protocol.End{Result: entity.OutcomeLoss, Duration: 0}, responses[1])
		case <-time.After(2 * time.Second):
			t.Fatal("Handle waited for the store")
		}

		// Then: The record is written once the store recovers
		unblock()

		select {
		case record := <-saved:
			assert.Equal(t, testSessionID, record.SessionID)
			assert.Equal(t, entity.OutcomeLoss, record.Outcome)
		case <-time.After(2 * time.Second):
			t.Fatal("record was never written")
		}
	})

	t.Run("A full queue refuses instead of blocking", func(t *testing.T) {
		// Given: A queue with room for one record and nobody draining it
		queue := newTestQueue(mockedSession.NewMockrecorder(t), 1)

		// When: Two records are saved
		first := queue.Save(context.Background(), &entity.GameRecord{SessionID: "a"})
		second := queue.Save(context.Background(), &entity.GameRecord{SessionID: "b"})

		// Then: The second one is refused
		require.NoError(t, first)
		require.ErrorIs(t, second, ErrRecordQueueFull)
	})

	t.Run("Pending records are flushed on shutdown with a deadline", func(t *testing.T) {
		// Given: Two queued records
		rec := mockedSession.NewMockrecorder(t)
		rec.EXPECT().
			Save(mock.MatchedBy(func(ctx context.Context) bool {
				_, ok := ctx.Deadline()
				return ok && ctx.Err() == nil
			}), mock.AnythingOfType("*entity.GameRecord")).
			Return(errRedisDown).
			Twice()

		queue := newTestQueue(rec, 4)
		require.NoError(t, queue.Save(context.Background(), &entity.GameRecord{SessionID: "a"}))
		require.NoError(t, queue.Save(context.Background(), &entity.GameRecord{SessionID: "b"}))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		// When: The queue runs with a context that is already done
		queue.Run(ctx)

		// Then: Both records were handed to the store before Run returned
		rec.AssertNumberOfCalls(t, "Save", 2)
	})
}
