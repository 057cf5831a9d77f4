package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/taoreta-ed/redes2-25-2/internal/entity"
)

// Status is the "estado" of a control frame.
type Status string

const (
	StatusOccupied    Status = "casilla_ocupada"
	StatusFree        Status = "casilla_libre"
	StatusMineHit     Status = "mina_pisada"
	StatusFlagPlaced  Status = "bandera_colocada"
	StatusFlagRemoved Status = "bandera_retirada"
	StatusInvalidCell Status = "coordenada_invalida"
	StatusFlaggedCell Status = "casilla_marcada"
)

func (that Status) IsValid() bool {
	switch that {
	case StatusOccupied, StatusFree, StatusMineHit, StatusFlagPlaced,
		StatusFlagRemoved, StatusInvalidCell, StatusFlaggedCell:
		return true
	default:
		return false
	}
}

const (
	textOccupied    = "Esta casilla ya está destapada"
	textMineHit     = "¡BOOM! Has perdido."
	textInvalidCell = "Coordenadas fuera del tablero."
	textFlaggedCell = "No puedes destapar una casilla con bandera."
)

// Control is per-move feedback. Which fields travel depends on Status.
type Control struct {
	Status  Status
	Message string
	Row     int
	Col     int
	Value   int
	Board   [][]BoardCell
}

func FreeCell(row, col, value int) Control {
	return Control{Status: StatusFree, Row: row, Col: col, Value: value}
}

func CellOccupied() Control {
	return Control{Status: StatusOccupied, Message: textOccupied}
}

func MineStepped(board [][]BoardCell) Control {
	return Control{Status: StatusMineHit, Message: textMineHit, Board: board}
}

func FlagPlaced(row, col int) Control {
	return Control{Status: StatusFlagPlaced, Row: row, Col: col}
}

func FlagRemoved(row, col int) Control {
	return Control{Status: StatusFlagRemoved, Row: row, Col: col}
}

func InvalidCoordinate(row, col int) Control {
	return Control{Status: StatusInvalidCell, Message: textInvalidCell, Row: row, Col: col}
}

func CellFlagged(row, col int) Control {
	return Control{Status: StatusFlaggedCell, Message: textFlaggedCell, Row: row, Col: col}
}

type controlWire struct {
	Type    Type          `json:"tipo"`
	Status  Status        `json:"estado"`
	Message string        `json:"mensaje,omitempty"`
	Value   *int          `json:"valor,omitempty"`
	Row     *int          `json:"fila,omitempty"`
	Col     *int          `json:"columna,omitempty"`
	Board   [][]BoardCell `json:"tablero,omitempty"`
}

// requiredFields - fields each status cannot travel without.
func (that *controlWire) requiredFields() error {
	switch that.Status {
	case StatusFree:
		return required(field{"valor", that.Value != nil}, field{"fila", that.Row != nil}, field{"columna", that.Col != nil})
	case StatusFlagPlaced, StatusFlagRemoved, StatusInvalidCell, StatusFlaggedCell:
		return required(field{"fila", that.Row != nil}, field{"columna", that.Col != nil})
	case StatusMineHit:
		return required(field{"tablero", that.Board != nil})
	default:
		return nil
	}
}

func (that Control) MarshalJSON() ([]byte, error) {
	wire := controlWire{Type: TypeControl, Status: that.Status, Message: that.Message}

	switch that.Status {
	case StatusFree:
		wire.Value, wire.Row, wire.Col = &that.Value, &that.Row, &that.Col
	case StatusFlagPlaced, StatusFlagRemoved, StatusInvalidCell, StatusFlaggedCell:
		wire.Row, wire.Col = &that.Row, &that.Col
	case StatusMineHit:
		wire.Board = that.Board
	case StatusOccupied:
	}

	return json.Marshal(wire)
}

func (that *Control) UnmarshalJSON(data []byte) error {
	var wire controlWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	if err := wire.requiredFields(); err != nil {
		return err
	}

	*that = Control{Status: wire.Status, Message: wire.Message, Board: wire.Board}

	if wire.Value != nil {
		that.Value = *wire.Value
	}

	if wire.Row != nil {
		that.Row = *wire.Row
	}

	if wire.Col != nil {
		that.Col = *wire.Col
	}

	return nil
}

// BoardCell is one cell of the board sent on a mine hit:
// "□" hidden, "*" mine, or the adjacent count.
type BoardCell int8

const (
	HiddenCell BoardCell = -2
	MineCell   BoardCell = BoardCell(entity.Mine)
)

const (
	hiddenSymbol = "□"
	mineSymbol   = "*"
)

func (that BoardCell) MarshalJSON() ([]byte, error) {
	switch that {
	case HiddenCell:
		return json.Marshal(hiddenSymbol)
	case MineCell:
		return json.Marshal(mineSymbol)
	default:
		return json.Marshal(int(that))
	}
}

func (that *BoardCell) UnmarshalJSON(data []byte) error {
	var symbol string
	if err := json.Unmarshal(data, &symbol); err == nil {
		switch symbol {
		case hiddenSymbol:
			*that = HiddenCell
		case mineSymbol:
			*that = MineCell
		default:
			return fmt.Errorf("unknown board symbol %q", symbol)
		}

		return nil
	}

	var count int
	if err := json.Unmarshal(data, &count); err != nil {
		return err
	}

	if count < 0 || count > 8 {
		return fmt.Errorf("adjacent count %d out of range", count)
	}

	*that = BoardCell(count)

	return nil
}

// BoardFromVisible - wire rendering of the player's view. Flags travel as hidden.
func BoardFromVisible(visible *entity.VisibleState) [][]BoardCell {
	board := make([][]BoardCell, visible.Rows)

	for row := range board {
		board[row] = make([]BoardCell, visible.Cols)

		for col := range board[row] {
			cell := visible.At(row, col)
			if cell.State == entity.Revealed {
				board[row][col] = BoardCell(cell.Value)
			} else {
				board[row][col] = HiddenCell
			}
		}
	}

	return board
}
