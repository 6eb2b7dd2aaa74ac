// Package dualnet is a small Gorgonia-backed dual-head network: a shared
// feedforward trunk feeding a policy head (softmax over the action space)
// and a value head (tanh, white's-perspective scalar), exposed through
// oracle.Oracle. It stands in for "typically a neural network" as the one
// evaluator in this repo actually capable of learning.
package dualnet

import (
	"fmt"

	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/puctmcts/game"
	"github.com/puctmcts/oracle"
)

// graph holds one instantiation of the dual network's computation graph at
// a fixed batch size. The batch-1 graph used for single Evaluate calls and
// the batch-N graphs used for EvaluateBatch and Train are each built by
// buildGraph from clones of the same seed weight nodes.
type graph struct {
	g         *G.ExprGraph
	input     *G.Node
	policyOut *G.Node
	valueOut  *G.Node
	vm        G.VM
	batch     int
}

// Network is a trainable dual-head oracle.Oracle backed by Gorgonia.
type Network struct {
	cfg Config

	w1, b1 *G.Node
	w2, b2 *G.Node
	wp, bp *G.Node
	wv, bv *G.Node

	single *graph
	batch  *graph
}

// New builds an untrained network. Weights are Glorot-initialized, matching
// the teacher's convention of letting Gorgonia's node initializers size the
// fan-in/fan-out rather than hand-picking a variance.
func New(cfg Config) (*Network, error) {
	if !cfg.IsValid() {
		return nil, errors.New("dualnet: invalid config")
	}

	n := &Network{cfg: cfg}
	seed := G.NewGraph()
	in := cfg.InputWidth()

	n.w1 = G.NewMatrix(seed, tensor.Float32, G.WithShape(in, cfg.K), G.WithName("w1"), G.WithInit(G.GlorotN(1.0)))
	n.b1 = G.NewVector(seed, tensor.Float32, G.WithShape(cfg.K), G.WithName("b1"), G.WithInit(G.Zeroes()))
	n.w2 = G.NewMatrix(seed, tensor.Float32, G.WithShape(cfg.K, cfg.FC), G.WithName("w2"), G.WithInit(G.GlorotN(1.0)))
	n.b2 = G.NewVector(seed, tensor.Float32, G.WithShape(cfg.FC), G.WithName("b2"), G.WithInit(G.Zeroes()))
	n.wp = G.NewMatrix(seed, tensor.Float32, G.WithShape(cfg.FC, cfg.ActionSpace), G.WithName("wp"), G.WithInit(G.GlorotN(1.0)))
	n.bp = G.NewVector(seed, tensor.Float32, G.WithShape(cfg.ActionSpace), G.WithName("bp"), G.WithInit(G.Zeroes()))
	n.wv = G.NewMatrix(seed, tensor.Float32, G.WithShape(cfg.FC, 1), G.WithName("wv"), G.WithInit(G.GlorotN(1.0)))
	n.bv = G.NewVector(seed, tensor.Float32, G.WithShape(1), G.WithName("bv"), G.WithInit(G.Zeroes()))

	var err error
	if n.single, err = n.buildGraph(1); err != nil {
		return nil, errors.WithMessage(err, "dualnet: building batch-1 graph")
	}
	if n.batch, err = n.buildGraph(cfg.BatchSize); err != nil {
		return nil, errors.WithMessage(err, "dualnet: building batched graph")
	}
	return n, nil
}

// Learnables returns the network's seed weight tensors, the ones Evaluate's
// inference graphs are cloned from and Train's syncLearnables writes back
// into, e.g. for gob round-tripping a checkpoint.
func (n *Network) Learnables() G.Nodes {
	return G.Nodes{n.w1, n.b1, n.w2, n.b2, n.wp, n.bp, n.wv, n.bv}
}

// buildGraph wires a fresh forward pass at the given batch size, cloning
// this network's weight nodes into a new graph the way the teacher's
// CloneWithBatch pattern separates a batch-1 behaviour graph from a larger
// training graph while sharing the same underlying parameters.
func (n *Network) buildGraph(batch int) (*graph, error) {
	g := G.NewGraph()
	cloned := make(map[*G.Node]*G.Node, 8)
	clone := func(orig *G.Node) *G.Node {
		c := G.NewTensor(g, orig.Dtype(), orig.Shape().Dims(), G.WithShape(orig.Shape()...), G.WithName(orig.Name()), G.WithValue(orig.Value()))
		cloned[orig] = c
		return c
	}
	w1, b1 := clone(n.w1), clone(n.b1)
	w2, b2 := clone(n.w2), clone(n.b2)
	wp, bp := clone(n.wp), clone(n.bp)
	wv, bv := clone(n.wv), clone(n.bv)

	input := G.NewMatrix(g, tensor.Float32, G.WithShape(batch, n.cfg.InputWidth()), G.WithName("input"))

	h1 := G.Must(G.Rectify(G.Must(G.BroadcastAdd(G.Must(G.Mul(input, w1)), b1, nil, []byte{0}))))
	h2 := G.Must(G.Rectify(G.Must(G.BroadcastAdd(G.Must(G.Mul(h1, w2)), b2, nil, []byte{0}))))

	policyLogits := G.Must(G.BroadcastAdd(G.Must(G.Mul(h2, wp)), bp, nil, []byte{0}))
	policyOut := G.Must(G.SoftMax(policyLogits))

	valuePre := G.Must(G.BroadcastAdd(G.Must(G.Mul(h2, wv)), bv, nil, []byte{0}))
	valueOut := G.Must(G.Tanh(valuePre))

	vm := G.NewTapeMachine(g)
	return &graph{g: g, input: input, policyOut: policyOut, valueOut: valueOut, vm: vm, batch: batch}, nil
}

// Evaluate implements oracle.Oracle for a single position.
func (n *Network) Evaluate(req oracle.Request) (oracle.Evaluation, error) {
	evals, err := n.forward(n.single, []oracle.Request{req})
	if err != nil {
		return oracle.Evaluation{}, err
	}
	return evals[0], nil
}

// EvaluateBatch implements oracle.Oracle. When the batch matches the
// network's configured batch size it runs in one forward pass; otherwise it
// falls back to sequential single-position passes, same degradation the
// inference server already tolerates for a short final batch.
func (n *Network) EvaluateBatch(reqs []oracle.Request) ([]oracle.Evaluation, error) {
	if len(reqs) == n.cfg.BatchSize {
		return n.forward(n.batch, reqs)
	}
	return oracle.SequentialBatch{Eval: n.Evaluate}.EvaluateBatch(reqs)
}

func (n *Network) forward(gr *graph, reqs []oracle.Request) ([]oracle.Evaluation, error) {
	features, err := encodeBatch(reqs, gr.batch, n.cfg.InputWidth())
	if err != nil {
		return nil, err
	}

	input := tensor.New(tensor.WithShape(gr.batch, n.cfg.InputWidth()), tensor.WithBacking(features))
	if err := G.Let(gr.input, input); err != nil {
		return nil, errors.WithStack(err)
	}
	if err := gr.vm.RunAll(); err != nil {
		return nil, errors.WithMessage(err, "dualnet: forward pass")
	}
	defer gr.vm.Reset()

	policy := gr.policyOut.Value().Data().([]float32)
	value := gr.valueOut.Value().Data().([]float32)

	out := make([]oracle.Evaluation, len(reqs))
	for i, req := range reqs {
		row := policy[i*n.cfg.ActionSpace : (i+1)*n.cfg.ActionSpace]
		p, err := projectPolicy(row, len(req.Actions))
		if err != nil {
			return nil, err
		}
		out[i] = oracle.Evaluation{P: p, V: float64(value[i])}
	}
	return out, nil
}

// projectPolicy narrows the network's fixed-width policy head down to
// exactly nActions entries — the oracle contract requires |P| == |actions|
// (spec.md §6) — and renormalizes the result to sum to one. Action indices
// are position-relative (game.Action), not stable move identities, so the
// head's first nActions outputs are simply reinterpreted as that position's
// per-action priors.
func projectPolicy(row []float32, nActions int) ([]float32, error) {
	if nActions > len(row) {
		return nil, fmt.Errorf("dualnet: %d legal actions exceeds configured action space %d", nActions, len(row))
	}
	p := make([]float32, nActions)
	var sum float32
	for i := 0; i < nActions; i++ {
		p[i] = row[i]
		sum += p[i]
	}
	if sum <= 0 {
		if nActions > 0 {
			u := float32(1) / float32(nActions)
			for i := range p {
				p[i] = u
			}
		}
		return p, nil
	}
	for i := range p {
		p[i] /= sum
	}
	return p, nil
}

// encodeBatch lays out each request's board features, zero-padding any
// unused rows up to width rows wide.
func encodeBatch(reqs []oracle.Request, width, inputWidth int) ([]float32, error) {
	backing := make([]float32, width*inputWidth)
	for i, req := range reqs {
		c, ok := req.Board.(*game.Chess)
		if !ok {
			return nil, fmt.Errorf("dualnet: unsupported board type %T", req.Board)
		}
		feats := game.EncodeChess(c)
		if len(feats) != inputWidth {
			return nil, fmt.Errorf("dualnet: feature width %d does not match configured input width %d", len(feats), inputWidth)
		}
		copy(backing[i*inputWidth:(i+1)*inputWidth], feats)
	}
	return backing, nil
}
