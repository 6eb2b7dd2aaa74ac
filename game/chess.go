package game

import (
	"sync"
	"unsafe"

	"github.com/notnil/chess"
)

// NumChessActions bounds a single position's branching factor generously;
// AvailableActions never actually returns more than the legal moves at hand.
const NumChessActions = 218

// Chess adapts github.com/notnil/chess to the Game capability the search
// core depends on. An Action is an index into the position's legal-move
// list, in the order AvailableActions reports it. That list is cached
// between AvailableActions and the matching Play call; Play on a receiver
// with no cached list (e.g. a fresh Copy) enumerates the legal moves itself.
type Chess struct {
	mu    sync.Mutex
	g     *chess.Game
	legal []*chess.Move
}

// NewChess returns a fresh standard game with white to move.
func NewChess() *Chess {
	return &Chess{g: chess.NewGame()}
}

// Copy returns an independent copy of the position.
func (c *Chess) Copy() Game {
	c.mu.Lock()
	defer c.mu.Unlock()
	return &Chess{g: c.g.Clone()}
}

// WhiteReward reports the game outcome from white's perspective.
func (c *Chess) WhiteReward() (float64, bool) {
	switch c.g.Outcome() {
	case chess.NoOutcome:
		return 0, false
	case chess.WhiteWon:
		return 1, true
	case chess.BlackWon:
		return -1, true
	default: // Draw
		return 0, true
	}
}

// WhiteToMove reports whether white is to move.
func (c *Chess) WhiteToMove() bool {
	return c.g.Position().Turn() == chess.White
}

// CanonicalBoard returns the position's zobrist-style hash as tree key.
func (c *Chess) CanonicalBoard() BoardKey {
	return BoardKey(c.g.Position().Hash())
}

// AvailableActions enumerates legal moves, caching them for the next Play.
func (c *Chess) AvailableActions() []Action {
	c.legal = c.g.ValidMoves()
	actions := make([]Action, len(c.legal))
	for i := range actions {
		actions[i] = Action(i)
	}
	return actions
}

// Play applies the action, an index into the position's legal-move list.
func (c *Chess) Play(a Action) {
	if c.legal == nil {
		c.legal = c.g.ValidMoves()
	}
	idx := int(a)
	if idx < 0 || idx >= len(c.legal) {
		panic("game: chess action index out of range")
	}
	if err := c.g.Move(c.legal[idx]); err != nil {
		panic(err)
	}
	c.legal = nil
}

// NumActions returns an upper bound on the branching factor, used only for
// diagnostics sizing — the oracle's prior vector always matches the actual
// legal-action count, per game.Game's contract.
func (c *Chess) NumActions() int { return NumChessActions }

// BoardMemSize estimates the footprint of one position.
func (c *Chess) BoardMemSize() uintptr {
	return unsafe.Sizeof(chess.Game{})
}

// Board exposes the underlying chess board, e.g. for encoders or printing.
func (c *Chess) Board() *chess.Board {
	return c.g.Position().Board()
}
