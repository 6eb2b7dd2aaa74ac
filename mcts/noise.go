package mcts

import (
	"time"

	distrand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distmv"
)

// drawDirichlet samples one Dirichlet(alpha, n) vector, the same call
// pattern the teacher used for root exploration noise. Per spec.md §9, this
// is drawn fresh on every Explore invocation and reused for every simulation
// within that call.
func drawDirichlet(n int, alpha float64) []float64 {
	alphas := make([]float64, n)
	for i := range alphas {
		alphas[i] = alpha
	}
	dist := distmv.NewDirichlet(alphas, distrand.NewSource(uint64(time.Now().UnixNano())))
	return dist.Rand(nil)
}
