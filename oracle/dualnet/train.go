package dualnet

import (
	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// trainGraph is buildGraph's batch-size-shaped forward pass plus the policy
// cross-entropy / value MSE loss and its gradient, mirroring how the
// reference VPG agent adds an MSE loss and a bound gradient VM on top of an
// otherwise plain forward graph (addMSELoss).
type trainGraph struct {
	*graph
	targetPolicy *G.Node
	targetValue  *G.Node
	loss         *G.Node
	learnables   G.Nodes
	solver       G.Solver
}

func (n *Network) buildTrainGraph() (*trainGraph, error) {
	fwd, err := n.buildGraph(n.cfg.BatchSize)
	if err != nil {
		return nil, err
	}

	targetPolicy := G.NewMatrix(fwd.g, tensor.Float32, G.WithShape(n.cfg.BatchSize, n.cfg.ActionSpace), G.WithName("targetPolicy"))
	targetValue := G.NewVector(fwd.g, tensor.Float32, G.WithShape(n.cfg.BatchSize), G.WithName("targetValue"))

	// Policy cross-entropy: -mean(sum(target * log(pred))).
	logPolicy := G.Must(G.Log(fwd.policyOut))
	ce := G.Must(G.HadamardProd(targetPolicy, logPolicy))
	ce = G.Must(G.Sum(ce, 1))
	policyLoss := G.Must(G.Neg(G.Must(G.Mean(ce))))

	// Value MSE.
	valueFlat := G.Must(G.Reshape(fwd.valueOut, tensor.Shape{n.cfg.BatchSize}))
	diff := G.Must(G.Sub(valueFlat, targetValue))
	valueLoss := G.Must(G.Mean(G.Must(G.Square(diff))))

	loss := G.Must(G.Add(policyLoss, valueLoss))

	learnables := findNodes(fwd.g, []string{"w1", "b1", "w2", "b2", "wp", "bp", "wv", "bv"})
	if _, err := G.Grad(loss, learnables...); err != nil {
		return nil, errors.WithMessage(err, "dualnet: computing gradient")
	}

	vm := G.NewTapeMachine(fwd.g, G.BindDualValues(learnables...))
	fwd.vm = vm

	return &trainGraph{
		graph:        fwd,
		targetPolicy: targetPolicy,
		targetValue:  targetValue,
		loss:         loss,
		learnables:   learnables,
		solver:       G.NewAdamSolver(G.WithLearnRate(n.cfg.LearnRate)),
	}, nil
}

// syncLearnables copies tg's post-training weight values back onto n's seed
// nodes, then rebuilds the batch-1 and batch-N inference graphs from them —
// those were cloned from the seed values at New time, so without this step
// Evaluate/EvaluateBatch would keep scoring with the pre-training weights
// (network.Set(behaviour, trainPolicy) plays the same role in the reference
// VPG agent's Step()).
func (n *Network) syncLearnables(tg *trainGraph) error {
	seeds := []*G.Node{n.w1, n.b1, n.w2, n.b2, n.wp, n.bp, n.wv, n.bv}
	for i, seed := range seeds {
		if err := G.Let(seed, tg.learnables[i].Value()); err != nil {
			return errors.WithStack(err)
		}
	}

	single, err := n.buildGraph(1)
	if err != nil {
		return errors.WithMessage(err, "dualnet: rebuilding batch-1 graph after training")
	}
	batch, err := n.buildGraph(n.cfg.BatchSize)
	if err != nil {
		return errors.WithMessage(err, "dualnet: rebuilding batched graph after training")
	}
	n.single = single
	n.batch = batch
	return nil
}

func findNodes(g *G.ExprGraph, names []string) G.Nodes {
	byName := make(map[string]*G.Node, len(names))
	for _, nd := range g.AllNodes() {
		byName[nd.Name()] = nd
	}
	out := make(G.Nodes, 0, len(names))
	for _, name := range names {
		if nd, ok := byName[name]; ok {
			out = append(out, nd)
		}
	}
	return out
}

// Train runs epochs full passes of batches mini-batches of cfg.BatchSize
// examples each through one gradient step apiece, then syncs the trained
// weights back into n's inference graphs. xs, policies and values hold
// batches*BatchSize examples laid out contiguously; exercised only by this
// package's own tests, never by the search core.
func (n *Network) Train(xs, policies, values *tensor.Dense, batches, epochs int) error {
	tg, err := n.buildTrainGraph()
	if err != nil {
		return err
	}

	inputWidth := n.cfg.InputWidth()
	actionSpace := n.cfg.ActionSpace
	bs := n.cfg.BatchSize

	for epoch := 0; epoch < epochs; epoch++ {
		for b := 0; b < batches; b++ {
			xSlice, err := xs.Slice(sliceRange{b * bs, (b + 1) * bs})
			if err != nil {
				return errors.WithStack(err)
			}
			pSlice, err := policies.Slice(sliceRange{b * bs, (b + 1) * bs})
			if err != nil {
				return errors.WithStack(err)
			}
			vSlice, err := values.Slice(sliceRange{b * bs, (b + 1) * bs})
			if err != nil {
				return errors.WithStack(err)
			}

			if err := G.Let(tg.input, tensor.New(tensor.WithShape(bs, inputWidth), tensor.WithBacking(xSlice.Data()))); err != nil {
				return errors.WithStack(err)
			}
			if err := G.Let(tg.targetPolicy, tensor.New(tensor.WithShape(bs, actionSpace), tensor.WithBacking(pSlice.Data()))); err != nil {
				return errors.WithStack(err)
			}
			if err := G.Let(tg.targetValue, tensor.New(tensor.WithShape(bs), tensor.WithBacking(vSlice.Data()))); err != nil {
				return errors.WithStack(err)
			}

			if err := tg.vm.RunAll(); err != nil {
				return errors.WithMessage(err, "dualnet: training forward/backward pass")
			}
			if err := tg.solver.Step(G.NodesToValueGrads(tg.learnables)); err != nil {
				return errors.WithMessage(err, "dualnet: solver step")
			}
			tg.vm.Reset()
		}
	}

	return n.syncLearnables(tg)
}

type sliceRange struct{ start, end int }

func (s sliceRange) Start() int { return s.start }
func (s sliceRange) End() int   { return s.end }
func (s sliceRange) Step() int  { return 1 }
