package entity

// CellState is what the player currently sees on a cell.
type CellState uint8

const (
	Hidden CellState = iota
	Revealed
	Flagged
)

func (that CellState) String() string {
	switch that {
	case Hidden:
		return "hidden"
	case Revealed:
		return "revealed"
	case Flagged:
		return "flagged"
	default:
		return "unknown"
	}
}

// VisibleCell holds the state and, once revealed, the board value.
type VisibleCell struct {
	State CellState
	Value Cell
}

// VisibleState is the player's view of the board. It starts all hidden.
type VisibleState struct {
	Rows    int
	Cols    int
	cells   []VisibleCell
	flagged int
}

func NewVisibleState(rows, cols int) *VisibleState {
	return &VisibleState{
		Rows:  rows,
		Cols:  cols,
		cells: make([]VisibleCell, rows*cols),
	}
}

func (that *VisibleState) InBounds(row, col int) bool {
	return row >= 0 && row < that.Rows && col >= 0 && col < that.Cols
}

func (that *VisibleState) At(row, col int) VisibleCell {
	return that.cells[row*that.Cols+col]
}

// Reveal - uncovers a cell. A flag on it is dropped from the flag count.
func (that *VisibleState) Reveal(row, col int, value Cell) {
	idx := row*that.Cols + col
	if that.cells[idx].State == Flagged {
		that.flagged--
	}

	that.cells[idx] = VisibleCell{State: Revealed, Value: value}
}

// SetFlag - switches a hidden cell to flagged and back. Revealed cells are left alone.
func (that *VisibleState) SetFlag(row, col int, flagged bool) {
	idx := row*that.Cols + col

	switch {
	case flagged && that.cells[idx].State == Hidden:
		that.cells[idx].State = Flagged
		that.flagged++
	case !flagged && that.cells[idx].State == Flagged:
		that.cells[idx].State = Hidden
		that.flagged--
	}
}

// FlagCount - running number of flagged cells, for display only.
func (that *VisibleState) FlagCount() int {
	return that.flagged
}

// Clone - deep copy, used for snapshots handed to the rendering side.
func (that *VisibleState) Clone() *VisibleState {
	cells := make([]VisibleCell, len(that.cells))
	copy(cells, that.cells)

	return &VisibleState{
		Rows:    that.Rows,
		Cols:    that.Cols,
		cells:   cells,
		flagged: that.flagged,
	}
}

// FlagAction is the requested flag change. The value is the wire name.
type FlagAction string

const (
	FlagPlace  FlagAction = "colocar"
	FlagRemove FlagAction = "retirar"
)

func (that FlagAction) IsValid() bool {
	return that == FlagPlace || that == FlagRemove
}
