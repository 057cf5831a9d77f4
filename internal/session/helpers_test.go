package session

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taoreta-ed/redes2-25-2/internal/entity"
	"github.com/taoreta-ed/redes2-25-2/internal/minesweeper"
	"github.com/taoreta-ed/redes2-25-2/internal/transport/protocol"
)

const (
	testSessionID = "test-session"
	testRemote    = "127.0.0.1:50123"
)

type fakeClock struct {
	now time.Time
}

func (that *fakeClock) Now() time.Time {
	return that.now
}

func (that *fakeClock) Advance(d time.Duration) {
	that.now = that.now.Add(d)
}

func newTestController(t *testing.T, rec recorder) (*Controller, *fakeClock) {
	t.Helper()

	clock := &fakeClock{now: time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	controller, err := NewController(logger, Config{
		Difficulty: entity.Beginner,
		Rand:       minesweeper.NewRand(7),
		Now:        clock.Now,
	}, rec, nil)
	require.NoError(t, err)

	return controller, clock
}

// startWith - begins a session on a known board. '*' marks a mine.
func startWith(t *testing.T, controller *Controller, layout ...string) (*Session, []protocol.Message) {
	t.Helper()

	sess, greeting, err := controller.begin(newSession(testSessionID, entity.Beginner, layoutBoard(t, layout...), testRemote))
	require.NoError(t, err)

	return sess, greeting
}

func layoutBoard(t *testing.T, layout ...string) *entity.Board {
	t.Helper()
	require.NotEmpty(t, layout)

	board := entity.NewBoard(len(layout), len(layout[0]), 0)

	for row, line := range layout {
		require.Len(t, line, board.Cols)

		for col, ch := range line {
			if ch == '*' {
				board.Set(row, col, entity.Mine)
				board.Mines++
			}
		}
	}

	for row := 0; row < board.Rows; row++ {
		for col := 0; col < board.Cols; col++ {
			if board.At(row, col).IsMine() {
				continue
			}

			count := 0
			for _, next := range board.Neighbors(row, col) {
				if board.At(next.Row, next.Col).IsMine() {
					count++
				}
			}

			board.Set(row, col, entity.Cell(count))
		}
	}

	return board
}
