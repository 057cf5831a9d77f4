package client

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/taoreta-ed/redes2-25-2/internal/apperror"
	"github.com/taoreta-ed/redes2-25-2/internal/entity"
	"github.com/taoreta-ed/redes2-25-2/internal/transport/protocol"
)

const (
	hiddenSymbol = "□"
	flagSymbol   = "F"
	mineSymbol   = "*"
)

// Mirror is the client's copy of the board, built only from server frames.
type Mirror struct {
	Mines int

	visible *entity.VisibleState
	result  *protocol.End
}

func NewMirror(rows, cols, mines int) *Mirror {
	return &Mirror{
		Mines:   mines,
		visible: entity.NewVisibleState(rows, cols),
	}
}

func (that *Mirror) Rows() int { return that.visible.Rows }
func (that *Mirror) Cols() int { return that.visible.Cols }

// At - cell as the client last saw it. Out of range cells read as hidden.
func (that *Mirror) At(row, col int) entity.VisibleCell {
	if !that.visible.InBounds(row, col) {
		return entity.VisibleCell{}
	}

	return that.visible.At(row, col)
}

func (that *Mirror) Flags() int {
	return that.visible.FlagCount()
}

// MinesLeft - mines minus flags. Negative when the player over-flags.
func (that *Mirror) MinesLeft() int {
	return that.Mines - that.visible.FlagCount()
}

func (that *Mirror) Result() (protocol.End, bool) {
	if that.result == nil {
		return protocol.End{}, false
	}

	return *that.result, true
}

// Apply - folds one server frame into the mirror.
func (that *Mirror) Apply(msg protocol.Message) {
	switch m := msg.(type) {
	case protocol.Control:
		that.applyControl(m)
	case protocol.End:
		that.result = &m
	}
}

func (that *Mirror) applyControl(control protocol.Control) {
	if control.Status != protocol.StatusMineHit && !that.visible.InBounds(control.Row, control.Col) {
		return
	}

	switch control.Status {
	case protocol.StatusFree:
		that.visible.Reveal(control.Row, control.Col, entity.Cell(control.Value))
	case protocol.StatusFlagPlaced:
		that.visible.SetFlag(control.Row, control.Col, true)
	case protocol.StatusFlagRemoved:
		that.visible.SetFlag(control.Row, control.Col, false)
	case protocol.StatusMineHit:
		that.applyBoard(control.Board)
	case protocol.StatusOccupied, protocol.StatusInvalidCell, protocol.StatusFlaggedCell:
	}
}

func (that *Mirror) applyBoard(board [][]protocol.BoardCell) {
	for row := range board {
		for col, cell := range board[row] {
			if cell == protocol.HiddenCell || !that.visible.InBounds(row, col) {
				continue
			}

			if that.visible.At(row, col).State != entity.Revealed {
				that.visible.Reveal(row, col, entity.Cell(cell))
			}
		}
	}
}

// CanReveal - local check so obviously bad moves never reach the wire.
func (that *Mirror) CanReveal(row, col int) error {
	if !that.visible.InBounds(row, col) {
		return fmt.Errorf("%w: (%d, %d)", apperror.ErrInvalidCoordinate, row, col)
	}

	switch that.visible.At(row, col).State {
	case entity.Revealed:
		return fmt.Errorf("%w: (%d, %d)", apperror.ErrCellAlreadyRevealed, row, col)
	case entity.Flagged:
		return fmt.Errorf("%w: (%d, %d)", apperror.ErrCellFlagged, row, col)
	case entity.Hidden:
	}

	return nil
}

func (that *Mirror) CanFlag(row, col int) error {
	if !that.visible.InBounds(row, col) {
		return fmt.Errorf("%w: (%d, %d)", apperror.ErrInvalidCoordinate, row, col)
	}

	if that.visible.At(row, col).State == entity.Revealed {
		return fmt.Errorf("%w: (%d, %d)", apperror.ErrCellAlreadyRevealed, row, col)
	}

	return nil
}

func (that *Mirror) Clone() *Mirror {
	clone := &Mirror{Mines: that.Mines, visible: that.visible.Clone()}

	if that.result != nil {
		result := *that.result
		clone.result = &result
	}

	return clone
}

// Render - text board with row and column indexes.
func (that *Mirror) Render() string {
	var sb strings.Builder

	sb.WriteString("   ")
	for col := 0; col < that.Cols(); col++ {
		fmt.Fprintf(&sb, "%3d", col)
	}
	sb.WriteByte('\n')

	for row := 0; row < that.Rows(); row++ {
		fmt.Fprintf(&sb, "%3d", row)

		for col := 0; col < that.Cols(); col++ {
			fmt.Fprintf(&sb, "%3s", symbol(that.visible.At(row, col)))
		}

		sb.WriteByte('\n')
	}

	fmt.Fprintf(&sb, "Minas: %d  Banderas: %d\n", that.Mines, that.Flags())

	return sb.String()
}

func symbol(cell entity.VisibleCell) string {
	switch cell.State {
	case entity.Flagged:
		return flagSymbol
	case entity.Revealed:
		if cell.Value.IsMine() {
			return mineSymbol
		}

		return strconv.Itoa(int(cell.Value))
	case entity.Hidden:
	}

	return hiddenSymbol
}
