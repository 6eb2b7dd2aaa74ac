package mcts

import (
	"context"

	"github.com/puctmcts/game"
	"github.com/puctmcts/oracle"
)

// pathEntry is one stack frame recorded during descent: the node visited,
// the edge selected out of it, and the side to move at that node — backup
// flips reward by the literal side recorded here, not the current state
// (spec.md §4.4's zero-sum perspective rule).
type pathEntry struct {
	info        *BoardInfo
	idx         int
	whiteToMove bool
}

// inferenceRequest is what a worker enqueues on its send mailbox when it
// reaches an unseen node. A nil request signals the worker has exhausted
// its simulations and the server may drop it from the live set.
type inferenceRequest struct {
	board   game.Game
	actions []game.Action
}

// inferenceResult is what the server returns on a worker's recv mailbox.
type inferenceResult struct {
	eval oracle.Evaluation
	err  error
}

// worker is one actor running descend+backup in a loop. Its mailboxes are
// single-slot, per spec.md §4.5 and §9's "single-capacity blocking queues".
type worker struct {
	id    int
	stack []pathEntry
	send  chan *inferenceRequest
	recv  chan inferenceResult
}

func newWorker(id int) *worker {
	return &worker{
		id:   id,
		send: make(chan *inferenceRequest, 1),
		recv: make(chan inferenceResult, 1),
	}
}

// run pulls from the shared remaining-simulations counter under the tree
// lock, descending and backing up once per simulation, until remaining
// reaches zero or ctx is cancelled by a sibling's failure.
func (w *worker) run(ctx context.Context, e *Engine) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		e.tree.mu.Lock()
		if e.tree.remaining <= 0 {
			e.tree.mu.Unlock()
			select {
			case w.send <- nil:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		}
		e.tree.remaining--
		e.tree.mu.Unlock()

		r, err := e.descend(ctx, w)
		if err != nil {
			return err
		}
		e.backup(w, r)
	}
}
