package minesweeper

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/taoreta-ed/redes2-25-2/internal/apperror"
	"github.com/taoreta-ed/redes2-25-2/internal/entity"
)

// NewRand - seeded source for board generation. A zero seed uses the clock.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return rand.New(rand.NewSource(seed)) //nolint: gosec // game boards need no crypto randomness
}

// Generate - builds a rows x cols board holding exactly mineCount mines.
func Generate(rows, cols, mineCount int, rng *rand.Rand) (*entity.Board, error) {
	if rows <= 0 || cols <= 0 || mineCount < 0 || mineCount >= rows*cols {
		return nil, fmt.Errorf("%w: %dx%d with %d mines", apperror.ErrInvalidBoardSize, rows, cols, mineCount)
	}

	board := entity.NewBoard(rows, cols, mineCount)

	placeMines(board, mineCount, rng)
	countAdjacentMines(board)

	return board, nil
}

// GenerateFor - builds a board sized by the difficulty profile.
func GenerateFor(difficulty entity.Difficulty, rng *rand.Rand) (*entity.Board, error) {
	profile, err := difficulty.Profile()
	if err != nil {
		return nil, err
	}

	return Generate(profile.Rows, profile.Cols, profile.Mines, rng)
}

// placeMines samples coordinates and resamples on collision.
func placeMines(board *entity.Board, count int, rng *rand.Rand) {
	placed := 0

	for placed < count {
		row := rng.Intn(board.Rows)
		col := rng.Intn(board.Cols)

		if board.At(row, col).IsMine() {
			continue
		}

		board.Set(row, col, entity.Mine)
		placed++
	}
}

func countAdjacentMines(board *entity.Board) {
	for row := 0; row < board.Rows; row++ {
		for col := 0; col < board.Cols; col++ {
			if board.At(row, col).IsMine() {
				continue
			}

			var count entity.Cell
			for _, pos := range board.Neighbors(row, col) {
				if board.At(pos.Row, pos.Col).IsMine() {
					count++
				}
			}

			board.Set(row, col, count)
		}
	}
}
