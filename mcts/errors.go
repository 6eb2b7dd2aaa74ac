package mcts

import "errors"

// ErrExploreFirst is returned by Policy when the root has not yet been
// inserted into the tree — either Explore was never called, or the root
// itself is terminal and so never produces a node (spec.md §7, §8 scenario 1).
var ErrExploreFirst = errors.New("mcts: policy requested before any explore reached the root")
