package minesweeper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taoreta-ed/redes2-25-2/internal/apperror"
	"github.com/taoreta-ed/redes2-25-2/internal/entity"
)

func TestReveal(t *testing.T) {
	t.Run("Out of range is an invalid coordinate", func(t *testing.T) {
		// Given: a fresh 3x3 board
		board := boardFromLayout(t, "...", "...", "..*")
		visible := entity.NewVisibleState(3, 3)

		// When: revealing outside the board
		_, err := Reveal(board, visible, -1, 0)

		// Then: the request is rejected and nothing changes
		require.ErrorIs(t, err, apperror.ErrInvalidCoordinate)
		assert.Equal(t, entity.NewVisibleState(3, 3), visible)

		_, err = Reveal(board, visible, 0, 3)
		require.ErrorIs(t, err, apperror.ErrInvalidCoordinate)
	})

	t.Run("Non zero cell reveals only itself", func(t *testing.T) {
		board := boardFromLayout(t, "...", "...", "..*")
		visible := entity.NewVisibleState(3, 3)

		outcome, err := Reveal(board, visible, 1, 1)

		require.NoError(t, err)
		assert.Equal(t, CellsRevealed, outcome.Kind)
		assert.Equal(t, []RevealedCell{{Row: 1, Col: 1, Value: 1}}, outcome.Cells)
		assert.Equal(t, entity.Hidden, visible.At(0, 0).State)
	})

	t.Run("Zero cell cascades to every safe cell it reaches", func(t *testing.T) {
		// Given: a board with a single mine in the corner
		board := boardFromLayout(t, "...", "...", "..*")
		visible := entity.NewVisibleState(3, 3)

		// When: revealing the opposite corner
		outcome, err := Reveal(board, visible, 0, 0)

		// Then: all eight safe cells are revealed, origin first
		require.NoError(t, err)
		require.Len(t, outcome.Cells, 8)
		assert.Equal(t, RevealedCell{Row: 0, Col: 0, Value: 0}, outcome.Cells[0])
		assert.ElementsMatch(t, []RevealedCell{
			{0, 0, 0}, {0, 1, 0}, {0, 2, 0},
			{1, 0, 0}, {1, 1, 1}, {1, 2, 1},
			{2, 0, 0}, {2, 1, 1},
		}, outcome.Cells)

		// Then: the mine stays hidden
		assert.Equal(t, entity.Hidden, visible.At(2, 2).State)
	})

	t.Run("Revealed cell reports already revealed", func(t *testing.T) {
		board := boardFromLayout(t, "..", ".*")
		visible := entity.NewVisibleState(2, 2)

		_, err := Reveal(board, visible, 0, 0)
		require.NoError(t, err)

		before := visible.Clone()
		outcome, err := Reveal(board, visible, 0, 0)

		require.NoError(t, err)
		assert.Equal(t, AlreadyRevealed, outcome.Kind)
		assert.Empty(t, outcome.Cells)
		assert.Equal(t, before, visible)
	})

	t.Run("Flagged cell is refused", func(t *testing.T) {
		board := boardFromLayout(t, "*.", "..")
		visible := entity.NewVisibleState(2, 2)
		visible.SetFlag(0, 0, true)

		outcome, err := Reveal(board, visible, 0, 0)

		require.NoError(t, err)
		assert.Equal(t, FlaggedCell, outcome.Kind)
		assert.Equal(t, entity.Flagged, visible.At(0, 0).State)
	})

	t.Run("Mine reveals every mine", func(t *testing.T) {
		// Given: a board with three mines, one of them flagged
		board := boardFromLayout(t, "*..", "...", ".**")
		visible := entity.NewVisibleState(3, 3)
		visible.SetFlag(2, 2, true)

		// When: stepping on a mine
		outcome, err := Reveal(board, visible, 0, 0)

		// Then: every mine is revealed and safe cells stay hidden
		require.NoError(t, err)
		assert.Equal(t, MineHit, outcome.Kind)

		for _, pos := range []entity.Position{{Row: 0, Col: 0}, {Row: 2, Col: 1}, {Row: 2, Col: 2}} {
			assert.Equal(t, entity.VisibleCell{State: entity.Revealed, Value: entity.Mine}, visible.At(pos.Row, pos.Col))
		}

		assert.Equal(t, entity.Hidden, visible.At(1, 1).State)
		assert.Equal(t, 0, visible.FlagCount())
	})

	t.Run("Cascade respects flags", func(t *testing.T) {
		board := boardFromLayout(t, "....", "....", "....")
		visible := entity.NewVisibleState(3, 4)
		visible.SetFlag(0, 3, true)

		outcome, err := Reveal(board, visible, 2, 0)

		require.NoError(t, err)
		assert.Len(t, outcome.Cells, 11)
		assert.Equal(t, entity.Flagged, visible.At(0, 3).State)
	})

	t.Run("Corner of an empty board reveals the whole board", func(t *testing.T) {
		board, err := Generate(16, 16, 0, NewRand(1))
		require.NoError(t, err)

		visible := entity.NewVisibleState(16, 16)

		outcome, err := Reveal(board, visible, 15, 15)

		require.NoError(t, err)
		assert.Len(t, outcome.Cells, board.SafeCells())
	})
}

func TestReveal_CascadeProperties(t *testing.T) {
	for seed := int64(1); seed <= 30; seed++ {
		board, err := Generate(16, 16, 40, NewRand(seed))
		require.NoError(t, err)

		origin, found := firstZero(board)
		if !found {
			continue
		}

		visible := entity.NewVisibleState(board.Rows, board.Cols)

		outcome, err := Reveal(board, visible, origin.Row, origin.Col)
		require.NoError(t, err)

		seen := make(map[entity.Position]bool, len(outcome.Cells))

		for _, cell := range outcome.Cells {
			pos := entity.Position{Row: cell.Row, Col: cell.Col}

			// Then: no cell is reported twice and no mine is revealed
			assert.False(t, seen[pos], "seed %d: cell %v revealed twice", seed, pos)
			assert.False(t, cell.Value.IsMine(), "seed %d: mine revealed", seed)
			seen[pos] = true

			// Then: every revealed zero has all of its neighbours revealed
			if cell.Value == 0 {
				for _, next := range board.Neighbors(cell.Row, cell.Col) {
					assert.Equal(t, entity.Revealed, visible.At(next.Row, next.Col).State)
				}
			}
		}

		// Then: every revealed cell besides the origin touches a revealed zero
		for pos := range seen {
			if pos == origin {
				continue
			}

			touchesZero := false
			for _, next := range board.Neighbors(pos.Row, pos.Col) {
				if seen[next] && board.At(next.Row, next.Col) == 0 {
					touchesZero = true
				}
			}

			assert.True(t, touchesZero, "seed %d: %v is not connected to a zero", seed, pos)
		}

		assert.LessOrEqual(t, len(outcome.Cells), board.SafeCells())
	}
}

func firstZero(board *entity.Board) (entity.Position, bool) {
	for row := 0; row < board.Rows; row++ {
		for col := 0; col < board.Cols; col++ {
			if board.At(row, col) == 0 {
				return entity.Position{Row: row, Col: col}, true
			}
		}
	}

	return entity.Position{}, false
}
