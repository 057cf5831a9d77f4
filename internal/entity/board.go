package entity

// Cell - ground truth of one board cell: Mine or the adjacent mine count (0..8).
type Cell int8

const Mine Cell = -1

func (that Cell) IsMine() bool {
	return that == Mine
}

// Position addresses a cell by row and column.
type Position struct {
	Row int
	Col int
}

// Board is the read-only minefield of a session.
type Board struct {
	Rows  int
	Cols  int
	Mines int
	cells []Cell
}

// NewBoard - allocates an all-zero board. Cells are filled by the generator.
func NewBoard(rows, cols, mines int) *Board {
	return &Board{
		Rows:  rows,
		Cols:  cols,
		Mines: mines,
		cells: make([]Cell, rows*cols),
	}
}

func (that *Board) InBounds(row, col int) bool {
	return row >= 0 && row < that.Rows && col >= 0 && col < that.Cols
}

func (that *Board) At(row, col int) Cell {
	return that.cells[row*that.Cols+col]
}

func (that *Board) Set(row, col int, cell Cell) {
	that.cells[row*that.Cols+col] = cell
}

// SafeCells - number of cells that must be revealed to win.
func (that *Board) SafeCells() int {
	return that.Rows*that.Cols - that.Mines
}

// Neighbors - in-bounds positions around (row, col), at most 8.
func (that *Board) Neighbors(row, col int) []Position {
	return neighbors(that.Rows, that.Cols, row, col)
}

func neighbors(rows, cols, row, col int) []Position {
	result := make([]Position, 0, 8)

	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}

			r, c := row+dr, col+dc
			if r >= 0 && r < rows && c >= 0 && c < cols {
				result = append(result, Position{Row: r, Col: c})
			}
		}
	}

	return result
}
