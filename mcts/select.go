package mcts

import "github.com/chewxy/math32"

// puctScores computes U(i) for every legal action at info, mixing Dirichlet
// noise into the prior only when isRoot is true (spec.md §4.2). Caller must
// hold the tree's lock — Ntot and every edge's N/W/nworkers are read live.
func puctScores(info *BoardInfo, cpuct float32, isRoot bool, noiseEps float32, noise []float64) []float32 {
	var ntot int
	for i := range info.stats {
		ntot += info.stats[i].N
	}
	sqrtNtot := math32.Sqrt(float32(ntot))

	scores := make([]float32, len(info.stats))
	for i := range info.stats {
		s := &info.stats[i]
		p := s.P
		if isRoot && noiseEps > 0 {
			p = (1-noiseEps)*p + noiseEps*float32(noise[i])
		}
		q := float32((s.W - float64(s.nworkers)) / float64(maxInt(s.N, 1)))
		scores[i] = q + cpuct*p*sqrtNtot/float32(s.N+1)
	}
	return scores
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
