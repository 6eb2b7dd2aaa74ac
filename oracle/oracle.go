// Package oracle defines the evaluator capability the search core consults
// at every freshly-visited node: a prior over legal actions plus a scalar
// value estimate, from white's perspective. Reference implementations
// (Random, Rollout) live alongside the capability; a trained implementation
// lives in oracle/dualnet.
package oracle

import "github.com/puctmcts/game"

// Evaluation is an oracle's answer for one position: a prior aligned
// one-to-one with the actions it was asked about, and a white-perspective
// value scalar.
type Evaluation struct {
	P []float32
	V float64
}

// Request bundles a position with the actions the oracle must score. Boards
// travel as full game snapshots (see SPEC_FULL.md §5) rather than bare
// canonical keys, since a Rollout oracle needs to play forward from them.
type Request struct {
	Board   game.Game
	Actions []game.Action
}

// Oracle maps (board, legal actions) to a prior and a value, singly or in
// batch. EvaluateBatch's default behavior, when an implementation embeds
// SequentialBatch, is a sequential fallback over Evaluate.
type Oracle interface {
	Evaluate(req Request) (Evaluation, error)
	EvaluateBatch(reqs []Request) ([]Evaluation, error)
}

// SequentialBatch implements EvaluateBatch as repeated single-position
// Evaluate calls. Embed it in an Oracle that has no cheaper batched path.
type SequentialBatch struct {
	Eval func(Request) (Evaluation, error)
}

// EvaluateBatch scores each request in turn, stopping at the first error.
func (s SequentialBatch) EvaluateBatch(reqs []Request) ([]Evaluation, error) {
	out := make([]Evaluation, len(reqs))
	for i, r := range reqs {
		e, err := s.Eval(r)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}
