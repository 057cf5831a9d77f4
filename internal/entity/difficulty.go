package entity

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownDifficulty = errors.New("unknown difficulty")

// Difficulty - board profile chosen once per session. The value is the wire name.
type Difficulty string

const (
	Beginner Difficulty = "principiante"
	Advanced Difficulty = "avanzado"
)

// Profile describes the board dimensions of a difficulty.
type Profile struct {
	Rows  int
	Cols  int
	Mines int
}

var profiles = map[Difficulty]Profile{
	Beginner: {Rows: 9, Cols: 9, Mines: 10},
	Advanced: {Rows: 16, Cols: 16, Mines: 40},
}

// ParseDifficulty - accepts the wire names and their english aliases.
func ParseDifficulty(value string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(Beginner), "beginner":
		return Beginner, nil
	case string(Advanced), "advanced":
		return Advanced, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDifficulty, value)
	}
}

// Profile - returns rows, cols and mine count for the difficulty.
func (that Difficulty) Profile() (Profile, error) {
	profile, ok := profiles[that]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownDifficulty, string(that))
	}

	return profile, nil
}

func (that Difficulty) String() string {
	return string(that)
}
