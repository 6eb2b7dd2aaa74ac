package mcts

import (
	"context"
	"log"
	"time"

	"github.com/puctmcts/oracle"
)

// inferenceServer is the single actor serving every live worker's
// inference requests, batching them into one oracle call per round
// (spec.md §4.6).
type inferenceServer struct {
	oracle      oracle.Oracle
	fillBatches bool
	logger      *log.Logger

	inferenceTime time.Duration
}

// run collects one message from each live worker every round, submits the
// batch to the oracle, and routes results back — until every worker has
// signalled termination or the oracle fails.
func (s *inferenceServer) run(ctx context.Context, workers []*worker) error {
	live := append([]*worker(nil), workers...)
	original := len(workers)

	for len(live) > 0 {
		type pending struct {
			w   *worker
			req *inferenceRequest
		}
		reqs := make([]pending, 0, len(live))
		nextLive := live[:0]

		for _, w := range live {
			select {
			case msg := <-w.send:
				if msg == nil {
					continue // terminating worker, drop from live set
				}
				reqs = append(reqs, pending{w: w, req: msg})
				nextLive = append(nextLive, w)
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		live = nextLive
		if len(live) == 0 {
			return nil
		}

		batch := make([]oracle.Request, len(reqs))
		for i, p := range reqs {
			batch[i] = oracle.Request{Board: p.req.board, Actions: p.req.actions}
		}
		realCount := len(batch)
		if s.fillBatches && realCount > 0 && realCount < original {
			for len(batch) < original {
				batch = append(batch, batch[0])
			}
		}

		if s.logger != nil {
			s.logger.Printf("mcts: dispatching batch of %d (real %d)", len(batch), realCount)
		}

		start := time.Now()
		evals, err := s.oracle.EvaluateBatch(batch)
		s.inferenceTime += time.Since(start)
		if err != nil {
			for _, p := range reqs {
				select {
				case p.w.recv <- inferenceResult{err: err}:
				case <-ctx.Done():
				}
			}
			return err
		}

		for i, p := range reqs {
			select {
			case p.w.recv <- inferenceResult{eval: evals[i]}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return nil
}
