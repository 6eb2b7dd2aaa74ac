package dualnet

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"

	"github.com/puctmcts/game"
	"github.com/puctmcts/oracle"
)

func testConfig() Config {
	cfg := DefaultConfig(8, 8, 2, 218)
	cfg.BatchSize = 4
	return cfg
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func chessRequest() oracle.Request {
	c := game.NewChess()
	return oracle.Request{Board: c, Actions: c.AvailableActions()}
}

func TestEvaluateReturnsNormalizedPolicyAndBoundedValue(t *testing.T) {
	n, err := New(testConfig())
	require.NoError(t, err)

	req := chessRequest()
	eval, err := n.Evaluate(req)
	require.NoError(t, err)
	require.Len(t, eval.P, len(req.Actions))

	var sum float32
	for _, p := range eval.P {
		require.GreaterOrEqual(t, p, float32(0))
		sum += p
	}
	require.InDelta(t, 1.0, sum, 1e-3)
	require.GreaterOrEqual(t, eval.V, -1.0)
	require.LessOrEqual(t, eval.V, 1.0)
}

func TestEvaluateBatchMatchesConfiguredBatchSize(t *testing.T) {
	cfg := testConfig()
	n, err := New(cfg)
	require.NoError(t, err)

	reqs := make([]oracle.Request, cfg.BatchSize)
	for i := range reqs {
		reqs[i] = chessRequest()
	}

	evals, err := n.EvaluateBatch(reqs)
	require.NoError(t, err)
	require.Len(t, evals, cfg.BatchSize)
	for i, eval := range evals {
		require.Len(t, eval.P, len(reqs[i].Actions))
	}
}

func TestEvaluateBatchFallsBackForMismatchedSize(t *testing.T) {
	cfg := testConfig()
	n, err := New(cfg)
	require.NoError(t, err)

	reqs := []oracle.Request{chessRequest(), chessRequest()}
	evals, err := n.EvaluateBatch(reqs)
	require.NoError(t, err)
	require.Len(t, evals, 2)
	for i, eval := range evals {
		require.Len(t, eval.P, len(reqs[i].Actions))
	}
}

func TestProjectPolicyRenormalizesOntoRequestedActions(t *testing.T) {
	row := []float32{0.4, 0.3, 0.2, 0.1}
	p, err := projectPolicy(row, 2)
	require.NoError(t, err)
	require.Len(t, p, 2)
	require.InDelta(t, 1.0, float64(p[0]+p[1]), 1e-6)
	require.InDelta(t, 4.0/7.0, float64(p[0]), 1e-6)
}

func TestProjectPolicyRejectsTooManyActions(t *testing.T) {
	_, err := projectPolicy([]float32{0.5, 0.5}, 3)
	require.Error(t, err)
}

// TestTrainUpdatesInferenceWeights guards the solver/learnables wiring: a
// step taken against the wrong node set would run without error yet leave
// Evaluate's output completely unchanged.
func TestTrainUpdatesInferenceWeights(t *testing.T) {
	cfg := testConfig()
	n, err := New(cfg)
	require.NoError(t, err)

	req := chessRequest()
	before, err := n.Evaluate(req)
	require.NoError(t, err)

	inputWidth := cfg.InputWidth()
	batches := 2
	examples := batches * cfg.BatchSize

	xs := make([]float32, examples*inputWidth)
	for i := range xs {
		xs[i] = float32(i%7) * 0.01
	}
	policies := make([]float32, examples*cfg.ActionSpace)
	for i := 0; i < examples; i++ {
		policies[i*cfg.ActionSpace] = 1
	}
	values := make([]float32, examples)
	for i := range values {
		values[i] = 0.5
	}

	xsT := tensor.New(tensor.WithShape(examples, inputWidth), tensor.WithBacking(xs))
	pT := tensor.New(tensor.WithShape(examples, cfg.ActionSpace), tensor.WithBacking(policies))
	vT := tensor.New(tensor.WithShape(examples), tensor.WithBacking(values))

	require.NoError(t, n.Train(xsT, pT, vT, batches, 1))

	after, err := n.Evaluate(req)
	require.NoError(t, err)
	require.Len(t, after.P, len(req.Actions))

	changed := after.V != before.V
	for i := range after.P {
		if after.P[i] != before.P[i] {
			changed = true
		}
	}
	require.True(t, changed, "Train should change the network's learned weights")
}
