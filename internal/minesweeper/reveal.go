package minesweeper

import (
	"fmt"

	"github.com/taoreta-ed/redes2-25-2/internal/apperror"
	"github.com/taoreta-ed/redes2-25-2/internal/entity"
)

// RevealKind tells how a reveal request ended.
type RevealKind int

const (
	CellsRevealed RevealKind = iota
	AlreadyRevealed
	FlaggedCell
	MineHit
)

func (that RevealKind) String() string {
	switch that {
	case CellsRevealed:
		return "cells_revealed"
	case AlreadyRevealed:
		return "already_revealed"
	case FlaggedCell:
		return "flagged"
	case MineHit:
		return "mine_hit"
	default:
		return "unknown"
	}
}

// RevealedCell is one cell uncovered by a request.
type RevealedCell struct {
	Row   int
	Col   int
	Value entity.Cell
}

// RevealOutcome - Cells is filled for CellsRevealed only, origin first.
type RevealOutcome struct {
	Kind  RevealKind
	Cells []RevealedCell
}

// Reveal - uncovers (row, col) and cascades through zero cells.
func Reveal(board *entity.Board, visible *entity.VisibleState, row, col int) (RevealOutcome, error) {
	if !board.InBounds(row, col) {
		return RevealOutcome{}, fmt.Errorf("%w: (%d, %d)", apperror.ErrInvalidCoordinate, row, col)
	}

	switch visible.At(row, col).State {
	case entity.Revealed:
		return RevealOutcome{Kind: AlreadyRevealed}, nil
	case entity.Flagged:
		return RevealOutcome{Kind: FlaggedCell}, nil
	case entity.Hidden:
	}

	if board.At(row, col).IsMine() {
		revealMines(board, visible)

		return RevealOutcome{Kind: MineHit}, nil
	}

	return RevealOutcome{Kind: CellsRevealed, Cells: cascade(board, visible, row, col)}, nil
}

// cascade reveals the origin and flood-fills from zero cells with a work queue.
// A cell is revealed when queued, so the visible state doubles as the visited set.
func cascade(board *entity.Board, visible *entity.VisibleState, row, col int) []RevealedCell {
	value := board.At(row, col)
	visible.Reveal(row, col, value)

	revealed := []RevealedCell{{Row: row, Col: col, Value: value}}
	queue := []entity.Position{{Row: row, Col: col}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if board.At(current.Row, current.Col) != 0 {
			continue
		}

		for _, next := range board.Neighbors(current.Row, current.Col) {
			if visible.At(next.Row, next.Col).State != entity.Hidden {
				continue
			}

			nextValue := board.At(next.Row, next.Col)
			if nextValue.IsMine() {
				continue
			}

			visible.Reveal(next.Row, next.Col, nextValue)
			revealed = append(revealed, RevealedCell{Row: next.Row, Col: next.Col, Value: nextValue})
			queue = append(queue, next)
		}
	}

	return revealed
}

func revealMines(board *entity.Board, visible *entity.VisibleState) {
	for row := 0; row < board.Rows; row++ {
		for col := 0; col < board.Cols; col++ {
			if board.At(row, col).IsMine() {
				visible.Reveal(row, col, entity.Mine)
			}
		}
	}
}
