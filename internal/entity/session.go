package entity

// SessionState decides which input is legal.
type SessionState string

const (
	StateAwaitingConfig SessionState = "awaiting_config"
	StateInPlay         SessionState = "in_play"
	StateWon            SessionState = "won"
	StateLost           SessionState = "lost"
	StateDisconnected   SessionState = "disconnected"
)

func (that SessionState) IsTerminal() bool {
	return that == StateWon || that == StateLost || that == StateDisconnected
}

func (that SessionState) IsInPlay() bool {
	return that == StateInPlay
}
