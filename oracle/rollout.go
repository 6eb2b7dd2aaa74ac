package oracle

import (
	"math/rand"

	"github.com/puctmcts/game"
)

// Rollout is the spec's second reference oracle: uniform prior, with V
// obtained by playing uniformly random actions from the evaluated position
// until the game ends.
type Rollout struct {
	// Rand supplies randomness for move selection. Nil falls back to the
	// package-level math/rand source.
	Rand *rand.Rand
}

func (r Rollout) intn(n int) int {
	if r.Rand != nil {
		return r.Rand.Intn(n)
	}
	return rand.Intn(n)
}

// Evaluate returns a uniform prior over the requested actions and plays the
// position forward with uniformly random moves to obtain V.
func (r Rollout) Evaluate(req Request) (Evaluation, error) {
	n := len(req.Actions)
	p := make([]float32, n)
	if n > 0 {
		u := float32(1) / float32(n)
		for i := range p {
			p[i] = u
		}
	}

	g := req.Board.Copy()
	for {
		reward, terminal := g.WhiteReward()
		if terminal {
			return Evaluation{P: p, V: reward}, nil
		}
		actions := g.AvailableActions()
		g.Play(actions[r.intn(len(actions))])
	}
}

// EvaluateBatch scores every request independently; each rollout plays its
// own position forward, so there is no shared batched computation.
func (r Rollout) EvaluateBatch(reqs []Request) ([]Evaluation, error) {
	return SequentialBatch{Eval: r.Evaluate}.EvaluateBatch(reqs)
}
