// Package game defines the capability set the search core depends on: a
// board representation, legal-action enumeration, play, terminal detection
// and reward reporting. Concrete games (Chess, TicTacToe) live alongside
// this interface; the search core itself never imports a specific game.
package game

// Action identifies one legal move, as reported by AvailableActions; each
// Game defines how it maps back to its own move representation (Chess: an
// index into the position's legal-move list; TicTacToe: a board cell).
type Action int32

// BoardKey is the tree store's map key: a canonical, hashable, comparable
// encoding of a board that two different game.Game values reaching the same
// position must agree on.
type BoardKey [16]byte

// Game is the external game abstraction the search core depends on. It is
// the only contract the core has with "the game of X" — board copying,
// move legality and terminal detection are entirely the implementation's
// responsibility.
type Game interface {
	// Copy returns an independent copy; mutating the copy must never affect
	// the receiver.
	Copy() Game

	// WhiteReward reports the game's outcome from white's perspective. The
	// second return value is false for a non-terminal position, in which
	// case the reward is meaningless.
	WhiteReward() (reward float64, terminal bool)

	// WhiteToMove reports whether white is the side to move.
	WhiteToMove() bool

	// CanonicalBoard returns a stable, hashable encoding of the current
	// position, used as the tree store's key. Two Game values holding the
	// same logical position must return equal keys.
	CanonicalBoard() BoardKey

	// AvailableActions returns the legal actions from the current position,
	// in an order that is stable for a given canonical board.
	AvailableActions() []Action

	// Play applies action in place.
	Play(a Action)

	// NumActions returns the maximum legal action count for this game type,
	// i.e. the width of the oracle's policy vector.
	NumActions() int

	// BoardMemSize estimates the in-memory footprint of one board
	// representation, for the engine's diagnostics.
	BoardMemSize() uintptr
}
