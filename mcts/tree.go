// Package mcts implements the asynchronous PUCT search core: a tree store
// keyed by canonical board, the PUCT selection rule with virtual loss, the
// worker/inference-server coordination protocol, and policy extraction.
package mcts

import (
	"sync"

	"github.com/puctmcts/game"
	"github.com/puctmcts/oracle"
)

// ActionStats holds the statistics for one edge out of a node: the oracle's
// prior, accumulated reward from the side to move at the parent, visit
// count, and the virtual-loss counter of workers currently descending
// through it.
type ActionStats struct {
	P        float32
	W        float64
	N        int
	nworkers uint32
}

// BoardInfo is a tree node: one ActionStats per legal action, in the order
// the game reported them at first visit, plus the oracle's value estimate
// recorded at creation time from that node's own side-to-move perspective.
type BoardInfo struct {
	stats       []ActionStats
	actions     []game.Action
	vest        float64
	whiteToMove bool
}

// NumActions reports how many legal actions were recorded for this node.
func (b *BoardInfo) NumActions() int { return len(b.stats) }

// Visits returns the edge visit count for action index i.
func (b *BoardInfo) Visits(i int) int { return b.stats[i].N }

// Prior returns the edge's oracle prior for action index i.
func (b *BoardInfo) Prior(i int) float32 { return b.stats[i].P }

func newBoardInfo(actions []game.Action, eval oracle.Evaluation, whiteToMove bool) *BoardInfo {
	if len(eval.P) != len(actions) {
		panic("mcts: oracle returned |P| != len(actions)")
	}
	stats := make([]ActionStats, len(actions))
	for i := range actions {
		stats[i].P = eval.P[i]
	}
	// The oracle's V is white-perspective (spec.md §6); Vest is recorded from
	// the node's own side-to-move perspective instead, so flip here once and
	// undo it symmetrically in bootstrapReward.
	vest := eval.V
	if !whiteToMove {
		vest = -vest
	}
	return &BoardInfo{
		stats:       stats,
		actions:     append([]game.Action(nil), actions...),
		vest:        vest,
		whiteToMove: whiteToMove,
	}
}

// bootstrapReward converts the node's stored Vest into a white-perspective
// return, undoing the side-to-move flip applied when it was recorded.
func (b *BoardInfo) bootstrapReward() float64 {
	if b.whiteToMove {
		return b.vest
	}
	return -b.vest
}

// tree is the canonical-board-keyed node store. It is the single
// serialization point for the engine: every mutation, and every lookup that
// may create a node, happens under mu. mu also protects remaining, the
// shared simulation countdown.
type tree struct {
	mu        sync.Mutex
	nodes     map[game.BoardKey]*BoardInfo
	remaining int
}

func newTree() *tree {
	return &tree{nodes: make(map[game.BoardKey]*BoardInfo)}
}

// applyVisit increments N and nworkers on the given edge. Caller must hold mu.
func (t *tree) applyVisit(info *BoardInfo, idx int) {
	info.stats[idx].N++
	info.stats[idx].nworkers++
}

// applyBackup adds reward to W and releases one unit of virtual loss on the
// given edge. Caller must hold mu. A worker count underflow is an invariant
// violation per SPEC_FULL.md §1/spec.md §7 and is therefore an assertion,
// not a recoverable error.
func (t *tree) applyBackup(info *BoardInfo, idx int, reward float64) {
	s := &info.stats[idx]
	if s.nworkers == 0 {
		panic("mcts: nworkers underflow on backup")
	}
	s.W += reward
	s.nworkers--
}
