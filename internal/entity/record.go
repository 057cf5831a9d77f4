package entity

import "time"

// Outcome of a finished game. The value is the wire name.
type Outcome string

const (
	OutcomeWin  Outcome = "victoria"
	OutcomeLoss Outcome = "derrota"
)

// GameRecord - summary of a session that reached Won or Lost.
type GameRecord struct {
	SessionID  string     `json:"session_id"`
	Difficulty Difficulty `json:"difficulty"`
	Outcome    Outcome    `json:"outcome"`
	Duration   int64      `json:"duration_seconds"`
	Revealed   int        `json:"revealed"`
	Flags      int        `json:"flags"`
	Remote     string     `json:"remote,omitempty"`
	FinishedAt time.Time  `json:"finished_at"`
}

func (that *GameRecord) IsWin() bool {
	return that.Outcome == OutcomeWin
}
