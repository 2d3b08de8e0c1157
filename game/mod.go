package game

// State is one full game position. Implementations must be immutable -
// Play always returns a new copy and never mutates the receiver, so tree
// nodes can hold onto states indefinitely.
type State interface {
	// FEN returns the canonical string serialization of the state, used as
	// the evaluation cache key and as the protocol payload.
	FEN() string
	// LegalMoves enumerates the legal moves in a deterministic order.
	LegalMoves() []Move
	Play(Move) State
	GameOver() bool
	// Result reports the outcome from the perspective of the side to move
	// at this state: +1 win, -1 loss, 0 draw. Only meaningful once
	// GameOver reports true; returns 0 otherwise.
	Result() float64
}
