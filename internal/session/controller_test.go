package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/taoreta-ed/redes2-25-2/internal/apperror"
	"github.com/taoreta-ed/redes2-25-2/internal/entity"
	"github.com/taoreta-ed/redes2-25-2/internal/transport/protocol"
	mockedSession "github.com/taoreta-ed/redes2-25-2/mocks/session"
)

var errRedisDown = errors.New("redis down")

func TestNewController(t *testing.T) {
	t.Run("Rejects an unknown difficulty", func(t *testing.T) {
		// When: Creating a controller for a difficulty without a profile
		_, err := NewController(nil, Config{Difficulty: "experto"}, nil, nil)

		// Then: The difficulty error is returned
		require.ErrorIs(t, err, entity.ErrUnknownDifficulty)
	})
}

func TestController_Start(t *testing.T) {
	t.Run("Generates a board and greets with the configuration", func(t *testing.T) {
		// Given: A beginner controller
		controller, _ := newTestController(t, nil)

		// When: A peer connects
		sess, greeting, err := controller.Start(testRemote)

		// Then: The session is in play on a 9x9 board with 10 mines
		require.NoError(t, err)

		_, err = uuid.Parse(sess.ID)
		require.NoError(t, err)

		assert.Equal(t, entity.StateInPlay, sess.State)
		assert.Equal(t, 9, sess.Board.Rows)
		assert.Equal(t, 10, sess.Board.Mines)
		assert.Equal(t, 71, sess.Board.SafeCells())

		expected := protocol.NewConfiguration(entity.Beginner, entity.Profile{Rows: 9, Cols: 9, Mines: 10})
		assert.Equal(t, []protocol.Message{expected}, greeting)
	})
}

func TestController_HandleCoordinate(t *testing.T) {
	ctx := context.Background()
	layout := []string{
		"...",
		"...",
		"..*",
	}

	t.Run("Flood fill from a zero corner wins the game", func(t *testing.T) {
		// Given: A session whose only mine sits in the opposite corner
		rec := mockedSession.NewMockrecorder(t)
		controller, clock := newTestController(t, rec)
		sess, _ := startWith(t, controller, layout...)

		rec.EXPECT().
			Save(mock.Anything, mock.MatchedBy(func(record *entity.GameRecord) bool {
				return record.SessionID == testSessionID &&
					record.Outcome == entity.OutcomeWin &&
					record.Duration == 12 &&
					record.Revealed == 8
			})).
			Return(nil).
			Once()

		clock.Advance(12400 * time.Millisecond)

		// When: Revealing the zero corner
		responses, err := controller.Handle(ctx, sess, protocol.Coordinate{Row: 0, Col: 0})

		// Then: Every safe cell is announced once, followed by the victory
		require.NoError(t, err)
		require.Len(t, responses, 9)

		assert.Equal(t, protocol.FreeCell(0, 0, 0), responses[0])
		assert.Equal(t, protocol.End{Result: entity.OutcomeWin, Duration: 12}, responses[8])

		seen := map[entity.Position]bool{}
		for _, msg := range responses[:8] {
			control, ok := msg.(protocol.Control)
			require.True(t, ok)
			assert.Equal(t, protocol.StatusFree, control.Status)

			pos := entity.Position{Row: control.Row, Col: control.Col}
			assert.False(t, seen[pos], "cell %v announced twice", pos)
			seen[pos] = true
		}

		assert.Equal(t, entity.StateWon, sess.State)
		assert.Equal(t, 8, sess.Revealed)
	})

	t.Run("Mine hit loses once and later input is ignored", func(t *testing.T) {
		// Given: A session where one numbered cell is already revealed
		rec := mockedSession.NewMockrecorder(t)
		controller, clock := newTestController(t, rec)
		sess, _ := startWith(t, controller, layout...)

		rec.EXPECT().
			Save(mock.Anything, mock.MatchedBy(func(record *entity.GameRecord) bool {
				return record.Outcome == entity.OutcomeLoss && record.Duration == 3
			})).
			Return(errRedisDown).
			Once()

		responses, err := controller.Handle(ctx, sess, protocol.Coordinate{Row: 1, Col: 1})
		require.NoError(t, err)
		require.Equal(t, []protocol.Message{protocol.FreeCell(1, 1, 1)}, responses)

		clock.Advance(3 * time.Second)

		// When: Stepping on the mine
		responses, err = controller.Handle(ctx, sess, protocol.Coordinate{Row: 2, Col: 2})

		// Then: The board with every mine is sent before the defeat
		require.NoError(t, err)

		h := protocol.HiddenCell
		board := [][]protocol.BoardCell{
			{h, h, h},
			{h, 1, h},
			{h, h, protocol.MineCell},
		}
		assert.Equal(t, []protocol.Message{
			protocol.MineStepped(board),
			protocol.End{Result: entity.OutcomeLoss, Duration: 3},
		}, responses)
		assert.Equal(t, entity.StateLost, sess.State)

		// When: Revealing again after the defeat
		responses, err = controller.Handle(ctx, sess, protocol.Coordinate{Row: 0, Col: 0})

		// Then: Nothing is sent and the recorder is not called again
		require.ErrorIs(t, err, apperror.ErrSessionFinished)
		assert.Empty(t, responses)
		assert.Equal(t, entity.StateLost, sess.State)
	})

	t.Run("Out of bounds coordinates keep the session in play", func(t *testing.T) {
		// Given: A fresh session
		controller, _ := newTestController(t, nil)
		sess, _ := startWith(t, controller, layout...)

		for _, pos := range []entity.Position{{Row: 3, Col: 0}, {Row: 0, Col: -1}, {Row: 99, Col: 99}} {
			// When: Revealing outside the board
			responses, err := controller.Handle(ctx, sess, protocol.Coordinate{Row: pos.Row, Col: pos.Col})

			// Then: The peer is told the coordinate is invalid
			require.NoError(t, err)
			assert.Equal(t, []protocol.Message{protocol.InvalidCoordinate(pos.Row, pos.Col)}, responses)
		}

		assert.Equal(t, entity.StateInPlay, sess.State)
		assert.Zero(t, sess.Revealed)
	})

	t.Run("Revealing twice answers occupied", func(t *testing.T) {
		// Given: A session with one revealed cell
		controller, _ := newTestController(t, nil)
		sess, _ := startWith(t, controller, layout...)

		_, err := controller.Handle(ctx, sess, protocol.Coordinate{Row: 1, Col: 2})
		require.NoError(t, err)

		// When: Revealing it again
		responses, err := controller.Handle(ctx, sess, protocol.Coordinate{Row: 1, Col: 2})

		// Then: The peer is told the cell is occupied and progress is unchanged
		require.NoError(t, err)
		assert.Equal(t, []protocol.Message{protocol.CellOccupied()}, responses)
		assert.Equal(t, 1, sess.Revealed)
	})
}

func TestController_HandleFlag(t *testing.T) {
	ctx := context.Background()

	t.Run("Placed and removed flags are answered, rejected toggles are not", func(t *testing.T) {
		// Given: A fresh session
		controller, _ := newTestController(t, nil)
		sess, _ := startWith(t, controller,
			"*..",
			"...",
			"...",
		)

		place := protocol.Flag{Row: 0, Col: 0, Action: entity.FlagPlace}
		remove := protocol.Flag{Row: 0, Col: 0, Action: entity.FlagRemove}

		// When/Then: Placing a flag on a hidden cell
		responses, err := controller.Handle(ctx, sess, place)
		require.NoError(t, err)
		assert.Equal(t, []protocol.Message{protocol.FlagPlaced(0, 0)}, responses)

		// When/Then: Placing it again is silently rejected
		responses, err = controller.Handle(ctx, sess, place)
		require.NoError(t, err)
		assert.Empty(t, responses)

		// When/Then: Revealing the flagged cell is refused without losing
		responses, err = controller.Handle(ctx, sess, protocol.Coordinate{Row: 0, Col: 0})
		require.NoError(t, err)
		assert.Equal(t, []protocol.Message{protocol.CellFlagged(0, 0)}, responses)
		assert.Equal(t, entity.StateInPlay, sess.State)

		// When/Then: Removing the flag
		responses, err = controller.Handle(ctx, sess, remove)
		require.NoError(t, err)
		assert.Equal(t, []protocol.Message{protocol.FlagRemoved(0, 0)}, responses)

		// When/Then: Removing a missing flag is silently rejected
		responses, err = controller.Handle(ctx, sess, remove)
		require.NoError(t, err)
		assert.Empty(t, responses)
	})

	t.Run("Flags on revealed or outside cells are rejected", func(t *testing.T) {
		// Given: A session with a revealed cell
		controller, _ := newTestController(t, nil)
		sess, _ := startWith(t, controller,
			"*..",
			"...",
			"...",
		)

		_, err := controller.Handle(ctx, sess, protocol.Coordinate{Row: 1, Col: 1})
		require.NoError(t, err)

		for _, msg := range []protocol.Flag{
			{Row: 1, Col: 1, Action: entity.FlagPlace},
			{Row: 5, Col: 5, Action: entity.FlagPlace},
		} {
			// When: Toggling the flag
			responses, err := controller.Handle(ctx, sess, msg)

			// Then: No reply is produced
			require.NoError(t, err)
			assert.Empty(t, responses)
		}

		assert.Zero(t, sess.Visible.FlagCount())
	})
}

func TestController_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("Disconnect ends the session without a record", func(t *testing.T) {
		// Given: A session with a recorder that expects no calls
		rec := mockedSession.NewMockrecorder(t)
		controller, _ := newTestController(t, rec)
		sess, _ := startWith(t, controller, "*.", "..")

		// When: The peer asks to disconnect
		responses, err := controller.Handle(ctx, sess, protocol.Disconnect{})

		// Then: The session is over and nothing is sent
		require.NoError(t, err)
		assert.Empty(t, responses)
		assert.Equal(t, entity.StateDisconnected, sess.State)
	})

	t.Run("Server messages from the peer are frame errors", func(t *testing.T) {
		controller, _ := newTestController(t, nil)
		sess, _ := startWith(t, controller, "*.", "..")

		for _, msg := range []protocol.Message{
			protocol.End{Result: entity.OutcomeWin, Duration: 1},
			protocol.CellOccupied(),
			protocol.NewConfiguration(entity.Beginner, entity.Profile{Rows: 9, Cols: 9, Mines: 10}),
		} {
			_, err := controller.Handle(ctx, sess, msg)
			require.ErrorIs(t, err, apperror.ErrFrame)
		}
	})
}

func TestController_Snapshot(t *testing.T) {
	t.Run("Reports progress and a detached view", func(t *testing.T) {
		// Given: A session with one revealed cell, five seconds in
		controller, clock := newTestController(t, nil)
		sess, _ := startWith(t, controller, "*..", "...", "...")

		_, err := controller.Handle(context.Background(), sess, protocol.Coordinate{Row: 1, Col: 1})
		require.NoError(t, err)

		clock.Advance(5 * time.Second)

		// When: Taking a snapshot and scribbling on its view
		status := controller.Snapshot(sess)
		status.Visible.SetFlag(0, 0, true)

		// Then: The snapshot reflects the session, and the session is untouched
		assert.Equal(t, testSessionID, status.SessionID)
		assert.Equal(t, entity.StateInPlay, status.State)
		assert.Equal(t, 8, status.SafeCells)
		assert.Equal(t, 1, status.Revealed)
		assert.Equal(t, 5*time.Second, status.Elapsed)
		assert.Zero(t, sess.Visible.FlagCount())
	})
}
