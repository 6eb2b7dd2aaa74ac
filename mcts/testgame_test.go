package mcts

import "github.com/puctmcts/game"

// leafGame is a one-ply test game: a single non-terminal root with a fixed
// set of actions, each leading directly to a terminal white-perspective
// reward. It exists purely to pin down PUCT/backup behavior without
// chess's or tic-tac-toe's branching.
type leafGame struct {
	rewards  []float64
	terminal bool
	reward   float64
	taken    int
}

func newLeafGame(rewards []float64) *leafGame {
	return &leafGame{rewards: rewards, taken: -1}
}

func (g *leafGame) Copy() game.Game {
	cp := *g
	return &cp
}

func (g *leafGame) WhiteReward() (float64, bool) {
	if g.terminal {
		return g.reward, true
	}
	return 0, false
}

func (g *leafGame) WhiteToMove() bool { return true }

func (g *leafGame) CanonicalBoard() game.BoardKey {
	var k game.BoardKey
	k[0] = byte(g.taken + 1)
	return k
}

func (g *leafGame) AvailableActions() []game.Action {
	actions := make([]game.Action, len(g.rewards))
	for i := range actions {
		actions[i] = game.Action(i)
	}
	return actions
}

func (g *leafGame) Play(a game.Action) {
	g.taken = int(a)
	g.terminal = true
	g.reward = g.rewards[a]
}

func (g *leafGame) NumActions() int { return len(g.rewards) }

func (g *leafGame) BoardMemSize() uintptr { return 0 }
