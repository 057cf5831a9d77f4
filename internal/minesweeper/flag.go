package minesweeper

import "github.com/taoreta-ed/redes2-25-2/internal/entity"

// FlagOutcome - result of a flag toggle.
type FlagOutcome int

const (
	FlagRejected FlagOutcome = iota
	FlagPlaced
	FlagRemoved
)

func (that FlagOutcome) String() string {
	switch that {
	case FlagPlaced:
		return "placed"
	case FlagRemoved:
		return "removed"
	default:
		return "rejected"
	}
}

// ToggleFlag - places or removes a flag on a hidden cell.
// Out of range, revealed cells and no-op actions are rejected without mutation.
func ToggleFlag(visible *entity.VisibleState, row, col int, action entity.FlagAction) FlagOutcome {
	if !visible.InBounds(row, col) {
		return FlagRejected
	}

	state := visible.At(row, col).State

	switch {
	case action == entity.FlagPlace && state == entity.Hidden:
		visible.SetFlag(row, col, true)
		return FlagPlaced
	case action == entity.FlagRemove && state == entity.Flagged:
		visible.SetFlag(row, col, false)
		return FlagRemoved
	default:
		return FlagRejected
	}
}
