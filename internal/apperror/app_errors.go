package apperror

import "errors"

var (
	ErrInvalidCoordinate   = errors.New("coordinate is out of the board")
	ErrCellAlreadyRevealed = errors.New("cell is already revealed")
	ErrCellFlagged         = errors.New("cell is flagged")
	ErrInvalidBoardSize    = errors.New("invalid board size")
	ErrSessionFinished     = errors.New("session is already finished")

	ErrFrame      = errors.New("malformed frame")
	ErrPeerClosed = errors.New("peer closed the connection")
	ErrSocket     = errors.New("socket error")
)
