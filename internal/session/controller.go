package session

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/taoreta-ed/redes2-25-2/internal/apperror"
	"github.com/taoreta-ed/redes2-25-2/internal/entity"
	"github.com/taoreta-ed/redes2-25-2/internal/minesweeper"
	"github.com/taoreta-ed/redes2-25-2/internal/transport/protocol"
)

type recorder interface {
	Save(ctx context.Context, record *entity.GameRecord) error
}

type observer interface {
	SessionStarted(difficulty entity.Difficulty)
	SessionEnded(state entity.SessionState, elapsed time.Duration)
	MessageHandled(msgType protocol.Type)
	CellsRevealed(count int)
	FrameRejected()
}

type Config struct {
	Difficulty entity.Difficulty
	Rand       *rand.Rand
	Now        func() time.Time
}

// Controller runs the game rules for sessions. It holds no per-session state.
type Controller struct {
	logger     *slog.Logger
	difficulty entity.Difficulty
	rng        *rand.Rand
	now        func() time.Time

	recorder recorder
	observer observer
}

// NewController - recorder and observer may be nil.
func NewController(logger *slog.Logger, conf Config, recorder recorder, observer observer) (*Controller, error) {
	if _, err := conf.Difficulty.Profile(); err != nil {
		return nil, fmt.Errorf("failed to create controller: %w", err)
	}

	if conf.Rand == nil {
		conf.Rand = minesweeper.NewRand(0)
	}

	if conf.Now == nil {
		conf.Now = time.Now
	}

	if observer == nil {
		observer = nopObserver{}
	}

	return &Controller{
		logger:     logger.With("component", "session"),
		difficulty: conf.Difficulty,
		rng:        conf.Rand,
		now:        conf.Now,
		recorder:   recorder,
		observer:   observer,
	}, nil
}

func (that *Controller) Difficulty() entity.Difficulty {
	return that.difficulty
}

// Start - generates the board for a new connection and returns the
// configuration frame. The session is InPlay and its clock is running.
func (that *Controller) Start(remote string) (*Session, []protocol.Message, error) {
	board, err := minesweeper.GenerateFor(that.difficulty, that.rng)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate board: %w", err)
	}

	return that.begin(newSession(uuid.NewString(), that.difficulty, board, remote))
}

func (that *Controller) begin(sess *Session) (*Session, []protocol.Message, error) {
	profile := entity.Profile{Rows: sess.Board.Rows, Cols: sess.Board.Cols, Mines: sess.Board.Mines}

	sess.State = entity.StateInPlay
	sess.StartedAt = that.now()

	that.observer.SessionStarted(sess.Difficulty)
	that.logger.Info("session started",
		"session_id", sess.ID, "remote", sess.Remote, "difficulty", sess.Difficulty,
		"rows", profile.Rows, "cols", profile.Cols, "mines", profile.Mines)

	return sess, []protocol.Message{protocol.NewConfiguration(sess.Difficulty, profile)}, nil
}

// Handle - applies one client message and returns the frames to send back.
// Messages that only the server may send are frame errors.
func (that *Controller) Handle(ctx context.Context, sess *Session, msg protocol.Message) ([]protocol.Message, error) {
	log := that.logger.With("method", "Handle", "session_id", sess.ID, "type", msg.Type())

	that.observer.MessageHandled(msg.Type())

	if _, ok := msg.(protocol.Disconnect); ok {
		that.Abort(ctx, sess, "client requested disconnect")
		return nil, nil
	}

	if !sess.State.IsInPlay() {
		log.Debug("ignoring message outside of play", "state", sess.State)
		return nil, fmt.Errorf("%w: state %s", apperror.ErrSessionFinished, sess.State)
	}

	switch m := msg.(type) {
	case protocol.Coordinate:
		return that.handleCoordinate(ctx, sess, m), nil
	case protocol.Flag:
		return that.handleFlag(sess, m), nil
	default:
		that.observer.FrameRejected()
		return nil, fmt.Errorf("%w: %s is not a client message", apperror.ErrFrame, msg.Type())
	}
}

func (that *Controller) handleCoordinate(ctx context.Context, sess *Session, msg protocol.Coordinate) []protocol.Message {
	log := that.logger.With("method", "handleCoordinate", "session_id", sess.ID, "row", msg.Row, "col", msg.Col)

	outcome, err := minesweeper.Reveal(sess.Board, sess.Visible, msg.Row, msg.Col)
	if err != nil {
		log.Warn("rejected coordinate", "error", err)
		return []protocol.Message{protocol.InvalidCoordinate(msg.Row, msg.Col)}
	}

	switch outcome.Kind {
	case minesweeper.AlreadyRevealed:
		return []protocol.Message{protocol.CellOccupied()}
	case minesweeper.FlaggedCell:
		return []protocol.Message{protocol.CellFlagged(msg.Row, msg.Col)}
	case minesweeper.MineHit:
		log.Info("mine hit")

		board := protocol.BoardFromVisible(sess.Visible)
		end := that.finish(ctx, sess, entity.StateLost)

		return []protocol.Message{protocol.MineStepped(board), end}
	case minesweeper.CellsRevealed:
	}

	responses := make([]protocol.Message, 0, len(outcome.Cells)+1)
	for _, cell := range outcome.Cells {
		responses = append(responses, protocol.FreeCell(cell.Row, cell.Col, int(cell.Value)))
	}

	sess.Revealed += len(outcome.Cells)
	that.observer.CellsRevealed(len(outcome.Cells))

	log.Debug("cells revealed", "count", len(outcome.Cells), "total", sess.Revealed)

	if sess.isWon() {
		responses = append(responses, that.finish(ctx, sess, entity.StateWon))
	}

	return responses
}

// handleFlag answers placed and removed flags. A rejected toggle gets no reply.
func (that *Controller) handleFlag(sess *Session, msg protocol.Flag) []protocol.Message {
	switch minesweeper.ToggleFlag(sess.Visible, msg.Row, msg.Col, msg.Action) {
	case minesweeper.FlagPlaced:
		return []protocol.Message{protocol.FlagPlaced(msg.Row, msg.Col)}
	case minesweeper.FlagRemoved:
		return []protocol.Message{protocol.FlagRemoved(msg.Row, msg.Col)}
	case minesweeper.FlagRejected:
	}

	that.logger.Debug("flag toggle rejected",
		"session_id", sess.ID, "row", msg.Row, "col", msg.Col, "action", msg.Action)

	return nil
}

// finish moves the session to Won or Lost and builds the closing frame.
func (that *Controller) finish(ctx context.Context, sess *Session, state entity.SessionState) protocol.End {
	sess.State = state
	sess.FinishedAt = that.now()

	elapsed := sess.Elapsed(sess.FinishedAt)
	seconds := int64(elapsed.Round(time.Second) / time.Second)

	outcome := entity.OutcomeLoss
	if state == entity.StateWon {
		outcome = entity.OutcomeWin
	}

	that.observer.SessionEnded(state, elapsed)
	that.logger.Info("session finished", "session_id", sess.ID, "result", outcome, "duration", seconds)

	that.record(ctx, &entity.GameRecord{
		SessionID:  sess.ID,
		Difficulty: sess.Difficulty,
		Outcome:    outcome,
		Duration:   seconds,
		Revealed:   sess.Revealed,
		Flags:      sess.Visible.FlagCount(),
		Remote:     sess.Remote,
		FinishedAt: sess.FinishedAt,
	})

	return protocol.End{Result: outcome, Duration: seconds}
}

func (that *Controller) record(ctx context.Context, record *entity.GameRecord) {
	if that.recorder == nil {
		return
	}

	if err := that.recorder.Save(ctx, record); err != nil {
		that.logger.Error("failed to record game", "session_id", record.SessionID, "error", err)
	}
}

// Abort - ends a session that has not reached Won or Lost.
func (that *Controller) Abort(_ context.Context, sess *Session, reason string) {
	if sess.State.IsTerminal() {
		return
	}

	sess.State = entity.StateDisconnected
	sess.FinishedAt = that.now()

	that.observer.SessionEnded(entity.StateDisconnected, sess.Elapsed(sess.FinishedAt))
	that.logger.Info("session disconnected", "session_id", sess.ID, "reason", reason)
}

// Snapshot - copy of the session for display. Safe to hand to another goroutine.
func (that *Controller) Snapshot(sess *Session) Status {
	status := Status{
		SessionID:  sess.ID,
		Remote:     sess.Remote,
		Difficulty: sess.Difficulty,
		State:      sess.State,
		Revealed:   sess.Revealed,
		Elapsed:    sess.Elapsed(that.now()),
	}

	if sess.Board != nil {
		status.SafeCells = sess.Board.SafeCells()
	}

	if sess.Visible != nil {
		status.Flags = sess.Visible.FlagCount()
		status.Visible = sess.Visible.Clone()
	}

	return status
}

type nopObserver struct{}

func (nopObserver) SessionStarted(entity.Difficulty)                {}
func (nopObserver) SessionEnded(entity.SessionState, time.Duration) {}
func (nopObserver) MessageHandled(protocol.Type)                    {}
func (nopObserver) CellsRevealed(int)                               {}
func (nopObserver) FrameRejected()                                  {}
