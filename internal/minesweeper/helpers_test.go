package minesweeper

import (
	"testing"

	"github.com/taoreta-ed/redes2-25-2/internal/entity"
)

// boardFromLayout builds a board from rows of '*' (mine) and '.' (safe).
func boardFromLayout(t *testing.T, layout ...string) *entity.Board {
	t.Helper()

	mines := 0
	board := entity.NewBoard(len(layout), len(layout[0]), 0)

	for row, line := range layout {
		for col, ch := range line {
			if ch == '*' {
				board.Set(row, col, entity.Mine)
				mines++
			}
		}
	}

	board.Mines = mines
	countAdjacentMines(board)

	return board
}

func mineCount(board *entity.Board) int {
	count := 0

	for row := 0; row < board.Rows; row++ {
		for col := 0; col < board.Cols; col++ {
			if board.At(row, col).IsMine() {
				count++
			}
		}
	}

	return count
}
