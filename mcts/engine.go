package mcts

import (
	"context"
	"log"
	"math"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/puctmcts/game"
	"github.com/puctmcts/oracle"
)

// Engine is the search core: a tree store, an oracle, and the
// worker/inference-server coordination described in spec.md §4-§5.
type Engine struct {
	root   game.Game
	oracle oracle.Oracle
	cfg    Config
	logger *log.Logger

	tree *tree

	rootNoise []float64

	totalIterations     int64
	totalNodesTraversed int64
	inferenceTime       time.Duration
	totalTime           time.Duration
}

// New builds an engine rooted at root. root is never mutated by the engine;
// every simulation descends a fresh copy of it.
func New(root game.Game, o oracle.Oracle, cfg Config, logger *log.Logger) (*Engine, error) {
	if err := cfg.IsValid(); err != nil {
		return nil, errors.WithMessage(err, "mcts: invalid config")
	}
	return &Engine{
		root:   root,
		oracle: o,
		cfg:    cfg,
		logger: logger,
		tree:   newTree(),
	}, nil
}

// Explore runs nsims simulations, spreading them over cfg.NWorkers
// concurrent workers coordinated by one inference server (spec.md §2, §5).
func (e *Engine) Explore(ctx context.Context, nsims int) error {
	if nsims <= 0 {
		return nil
	}
	start := time.Now()

	if e.cfg.NoiseEps > 0 {
		e.rootNoise = drawDirichlet(len(e.root.AvailableActions()), e.cfg.NoiseAlpha)
	} else {
		e.rootNoise = nil
	}

	e.tree.mu.Lock()
	e.tree.remaining = nsims
	e.tree.mu.Unlock()

	workers := make([]*worker, e.cfg.NWorkers)
	for i := range workers {
		workers[i] = newWorker(i)
	}
	server := &inferenceServer{oracle: e.oracle, fillBatches: e.cfg.FillBatches, logger: e.logger}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.run(gctx, workers) })
	for _, w := range workers {
		w := w
		g.Go(func() error { return w.run(gctx, e) })
	}

	err := g.Wait()
	e.inferenceTime += server.inferenceTime
	e.totalTime += time.Since(start)
	if e.logger != nil {
		e.logger.Printf("mcts: explore done, nsims=%d err=%v", nsims, err)
	}
	if err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// descend plays one simulation from the root, suspending on the inference
// mailboxes at most once — exactly when it first reaches an unseen node
// (spec.md §4.3, §5).
func (e *Engine) descend(ctx context.Context, w *worker) (float64, error) {
	atomic.AddInt64(&e.totalIterations, 1)

	state := e.root.Copy()
	isRoot := true
	w.stack = w.stack[:0]

	for {
		if reward, terminal := state.WhiteReward(); terminal {
			return reward, nil
		}

		board := state.CanonicalBoard()
		actions := state.AvailableActions()

		e.tree.mu.Lock()
		info, isNew, err := e.resolveNode(ctx, w, state, board, actions)
		if err != nil {
			e.tree.mu.Unlock()
			return 0, err
		}
		if isNew {
			e.tree.mu.Unlock()
			return info.bootstrapReward(), nil
		}

		atomic.AddInt64(&e.totalNodesTraversed, 1)

		scores := puctScores(info, e.cfg.CPUCT, isRoot, e.cfg.NoiseEps, e.rootNoise)
		idx := argmax(scores)
		e.tree.applyVisit(info, idx)
		action := info.actions[idx]
		whiteToMove := state.WhiteToMove()
		e.tree.mu.Unlock()

		w.stack = append(w.stack, pathEntry{info: info, idx: idx, whiteToMove: whiteToMove})
		state.Play(action)
		isRoot = false
	}
}

// resolveNode looks up board, requesting an oracle evaluation through w's
// mailboxes when it is unseen. Caller must hold e.tree.mu; it is held again
// on every return path, including after the oracle-wait suspension.
func (e *Engine) resolveNode(ctx context.Context, w *worker, state game.Game, board game.BoardKey, actions []game.Action) (*BoardInfo, bool, error) {
	if info, ok := e.tree.nodes[board]; ok {
		return info, false, nil
	}

	e.tree.mu.Unlock()
	req := &inferenceRequest{board: state.Copy(), actions: actions}
	select {
	case w.send <- req:
	case <-ctx.Done():
		e.tree.mu.Lock()
		return nil, false, ctx.Err()
	}

	var res inferenceResult
	select {
	case res = <-w.recv:
	case <-ctx.Done():
		e.tree.mu.Lock()
		return nil, false, ctx.Err()
	}

	e.tree.mu.Lock()
	if res.err != nil {
		return nil, false, res.err
	}
	if info, ok := e.tree.nodes[board]; ok {
		// Another worker created this node while we were suspended on the
		// oracle; discard our own result per spec.md §4.1.
		return info, false, nil
	}
	info := newBoardInfo(actions, res.eval, state.WhiteToMove())
	e.tree.nodes[board] = info
	return info, true, nil
}

// backup pops w's stack, crediting each edge with reward flipped by the
// literal side to move recorded at visit time (spec.md §4.4).
func (e *Engine) backup(w *worker, r float64) {
	e.tree.mu.Lock()
	for i := len(w.stack) - 1; i >= 0; i-- {
		entry := w.stack[i]
		reward := r
		if !entry.whiteToMove {
			reward = -reward
		}
		e.tree.applyBackup(entry.info, entry.idx, reward)
	}
	e.tree.mu.Unlock()
	w.stack = w.stack[:0]
}

// Policy returns the root's legal actions and a distribution over them
// derived from visit counts at temperature tau (spec.md §4.7).
func (e *Engine) Policy(tau float64) ([]game.Action, []float64, error) {
	e.tree.mu.Lock()
	defer e.tree.mu.Unlock()

	info, ok := e.tree.nodes[e.root.CanonicalBoard()]
	if !ok {
		return nil, nil, ErrExploreFirst
	}

	actions := append([]game.Action(nil), info.actions...)
	n := len(info.stats)
	pi := make([]float64, n)

	if tau == 0 {
		visits := make([]float32, n)
		for i := range info.stats {
			visits[i] = float32(info.stats[i].N)
		}
		pi[argmax(visits)] = 1
		return actions, pi, nil
	}

	invTau := 1 / tau
	var sum float64
	for i := range info.stats {
		v := math.Pow(float64(info.stats[i].N), invTau)
		pi[i] = v
		sum += v
	}
	if sum > 0 {
		for i := range pi {
			pi[i] /= sum
		}
	}
	return actions, pi, nil
}

// Reset empties the tree, per spec.md §4.8's reset diagnostic.
func (e *Engine) Reset() {
	e.tree.mu.Lock()
	e.tree.nodes = make(map[game.BoardKey]*BoardInfo)
	e.tree.remaining = 0
	e.tree.mu.Unlock()

	atomic.StoreInt64(&e.totalIterations, 0)
	atomic.StoreInt64(&e.totalNodesTraversed, 0)
	e.inferenceTime = 0
	e.totalTime = 0
}

// MemoryFootprintPerNode is the analytical estimate spec.md §4.8 asks for:
// board key size, the game's own board representation size, pointer
// overhead, and the stats vector sized to the root game's maximum action
// count.
func (e *Engine) MemoryFootprintPerNode() uintptr {
	var key game.BoardKey
	var stat ActionStats
	return unsafe.Sizeof(key) + e.root.BoardMemSize() + unsafe.Sizeof(uintptr(0)) + uintptr(e.root.NumActions())*unsafe.Sizeof(stat)
}

// InferenceTimeRatio is inference_time / total_time, defined to 0 when
// total_time is 0 (spec.md §4.8).
func (e *Engine) InferenceTimeRatio() float64 {
	if e.totalTime == 0 {
		return 0
	}
	return float64(e.inferenceTime) / float64(e.totalTime)
}

// AverageExplorationDepth is total_nodes_traversed / total_iterations
// (spec.md §4.8).
func (e *Engine) AverageExplorationDepth() float64 {
	it := atomic.LoadInt64(&e.totalIterations)
	if it == 0 {
		return 0
	}
	return float64(atomic.LoadInt64(&e.totalNodesTraversed)) / float64(it)
}
