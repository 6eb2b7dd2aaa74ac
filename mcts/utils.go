package mcts

import (
	"github.com/chewxy/math32"
)

// argmax returns the index of the largest value in a, the lowest index
// winning ties (strict greater-than never replaces an earlier equal best).
func argmax(a []float32) int {
	var retVal int
	max := math32.Inf(-1)
	for i := range a {
		if a[i] > max {
			max = a[i]
			retVal = i
		}
	}
	return retVal
}
