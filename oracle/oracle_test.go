package oracle_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/puctmcts/game"
	"github.com/puctmcts/oracle"
)

func TestRandomEvaluateUniform(t *testing.T) {
	g := game.NewTicTacToe()
	actions := g.AvailableActions()

	eval, err := (oracle.Random{}).Evaluate(oracle.Request{Board: g, Actions: actions})
	require.NoError(t, err)
	require.Len(t, eval.P, len(actions))
	require.Equal(t, float64(0), eval.V)

	var sum float32
	for _, p := range eval.P {
		sum += p
	}
	require.InDelta(t, 1.0, sum, 1e-6)
}

func TestRandomEvaluateBatch(t *testing.T) {
	g := game.NewTicTacToe()
	actions := g.AvailableActions()
	reqs := []oracle.Request{
		{Board: g, Actions: actions},
		{Board: g, Actions: actions},
	}
	evals, err := (oracle.Random{}).EvaluateBatch(reqs)
	require.NoError(t, err)
	require.Len(t, evals, 2)
}

func TestRolloutTerminatesWithValueInRange(t *testing.T) {
	g := game.NewTicTacToe()
	actions := g.AvailableActions()

	eval, err := (oracle.Rollout{}).Evaluate(oracle.Request{Board: g, Actions: actions})
	require.NoError(t, err)
	require.Len(t, eval.P, len(actions))
	require.GreaterOrEqual(t, eval.V, -1.0)
	require.LessOrEqual(t, eval.V, 1.0)
}

func TestRolloutDoesNotMutateCaller(t *testing.T) {
	g := game.NewTicTacToe()
	actions := g.AvailableActions()
	before := g.CanonicalBoard()

	_, err := (oracle.Rollout{}).Evaluate(oracle.Request{Board: g, Actions: actions})
	require.NoError(t, err)

	require.Equal(t, before, g.CanonicalBoard())
}
