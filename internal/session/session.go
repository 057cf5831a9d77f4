package session

import (
	"fmt"
	"time"

	"github.com/taoreta-ed/redes2-25-2/internal/entity"
)

// Session is the aggregate owned by one connection: ground truth, the
// player's view and the progress counters.
type Session struct {
	ID         string
	Difficulty entity.Difficulty
	Remote     string

	Board    *entity.Board
	Visible  *entity.VisibleState
	Revealed int
	State    entity.SessionState

	StartedAt  time.Time
	FinishedAt time.Time
}

func newSession(id string, difficulty entity.Difficulty, board *entity.Board, remote string) *Session {
	return &Session{
		ID:         id,
		Difficulty: difficulty,
		Remote:     remote,
		Board:      board,
		Visible:    entity.NewVisibleState(board.Rows, board.Cols),
		State:      entity.StateAwaitingConfig,
	}
}

// Elapsed - play time so far, frozen once the session is over.
func (that *Session) Elapsed(now time.Time) time.Duration {
	if that.StartedAt.IsZero() {
		return 0
	}

	if !that.FinishedAt.IsZero() {
		return that.FinishedAt.Sub(that.StartedAt)
	}

	return now.Sub(that.StartedAt)
}

func (that *Session) isWon() bool {
	return that.Revealed == that.Board.SafeCells()
}

// Status is a copy of the session state for a rendering or status collaborator.
type Status struct {
	SessionID  string
	Remote     string
	Difficulty entity.Difficulty
	State      entity.SessionState
	Revealed   int
	SafeCells  int
	Flags      int
	Elapsed    time.Duration
	Visible    *entity.VisibleState
}

// WaitingStatus is shown while no peer is connected.
const WaitingStatus = "Esperando conexión..."

func (that Status) String() string {
	return fmt.Sprintf("Cliente conectado desde %s | Tiempo: %d s | Destapadas: %d/%d | Banderas: %d | Estado: %s",
		that.Remote, int64(that.Elapsed/time.Second), that.Revealed, that.SafeCells, that.Flags, that.State)
}
