package mcts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/puctmcts/oracle"
)

type recordingOracle struct {
	batchSizes []int
}

func (r *recordingOracle) Evaluate(oracle.Request) (oracle.Evaluation, error) {
	return oracle.Evaluation{}, nil
}

func (r *recordingOracle) EvaluateBatch(reqs []oracle.Request) ([]oracle.Evaluation, error) {
	r.batchSizes = append(r.batchSizes, len(reqs))
	return make([]oracle.Evaluation, len(reqs)), nil
}

// driveWorkers feeds each worker's mailbox one message per round: true sends
// a real request and waits for its result, false sends the termination
// sentinel.
func driveWorkers(workers []*worker, rounds [][]bool) {
	for i, w := range workers {
		w, i := w, i
		go func() {
			for _, round := range rounds {
				if round[i] {
					w.send <- &inferenceRequest{board: newLeafGame([]float64{0}), actions: nil}
					<-w.recv
				} else {
					w.send <- nil
				}
			}
		}()
	}
}

func TestServerPadsShrinkingBatchesToWorkerCount(t *testing.T) {
	workers := []*worker{newWorker(0), newWorker(1), newWorker(2), newWorker(3)}
	rounds := [][]bool{
		{true, true, true, true},
		{true, true, false, false},
		{false, false, false, false},
	}
	driveWorkers(workers, rounds)

	rec := &recordingOracle{}
	srv := &inferenceServer{oracle: rec, fillBatches: true}
	require.NoError(t, srv.run(context.Background(), workers))
	require.Equal(t, []int{4, 4}, rec.batchSizes)
}

func TestServerWithoutPaddingSubmitsShrinkingBatches(t *testing.T) {
	workers := []*worker{newWorker(0), newWorker(1), newWorker(2), newWorker(3)}
	rounds := [][]bool{
		{true, true, true, true},
		{true, true, false, false},
		{false, false, false, false},
	}
	driveWorkers(workers, rounds)

	rec := &recordingOracle{}
	srv := &inferenceServer{oracle: rec, fillBatches: false}
	require.NoError(t, srv.run(context.Background(), workers))
	require.Equal(t, []int{4, 2}, rec.batchSizes)
}
