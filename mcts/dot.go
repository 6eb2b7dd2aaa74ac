package mcts

import (
	"fmt"

	"github.com/awalterschulze/gographviz"

	"github.com/puctmcts/game"
)

// DumpDOT renders the tree rooted at root, bounded to depth levels, as
// Graphviz DOT — a read-only diagnostic (spec.md §4.8; SPEC_FULL.md §3/§4
// grounds this on gographviz, present in the teacher's dependency list with
// no call site in the retrieved files). It walks forward from a copy of
// root by replaying recorded actions, since the tree store holds no
// parent-child links of its own — only canonical-board lookups.
func (e *Engine) DumpDOT(depth int) (string, error) {
	e.tree.mu.Lock()
	defer e.tree.mu.Unlock()

	g := gographviz.NewGraph()
	if err := g.SetName("tree"); err != nil {
		return "", err
	}
	if err := g.SetDir(true); err != nil {
		return "", err
	}

	rootKey := e.root.CanonicalBoard()
	if _, ok := e.tree.nodes[rootKey]; !ok {
		return g.String(), nil
	}

	visited := make(map[game.BoardKey]bool)
	e.dumpNode(g, e.root.Copy(), depth, visited)
	return g.String(), nil
}

func (e *Engine) dumpNode(g *gographviz.Graph, state game.Game, depth int, visited map[game.BoardKey]bool) {
	key := state.CanonicalBoard()
	if visited[key] {
		return
	}
	visited[key] = true

	info, ok := e.tree.nodes[key]
	if !ok {
		return
	}

	name := dotNodeName(key)
	label := fmt.Sprintf(`"N=%d vest=%.3f"`, nodeTotalVisits(info), info.vest)
	_ = g.AddNode("tree", name, map[string]string{"label": label})

	if depth <= 0 {
		return
	}
	for i, action := range info.actions {
		child := state.Copy()
		child.Play(action)

		childKey := child.CanonicalBoard()
		if _, ok := e.tree.nodes[childKey]; !ok {
			continue // never visited, nothing to draw
		}

		edgeLabel := fmt.Sprintf(`"a%d P=%.2f N=%d"`, i, info.stats[i].P, info.stats[i].N)
		_ = g.AddEdge(name, dotNodeName(childKey), true, map[string]string{"label": edgeLabel})
		e.dumpNode(g, child, depth-1, visited)
	}
}

func dotNodeName(key game.BoardKey) string {
	return fmt.Sprintf(`"n%x"`, key[:4])
}

func nodeTotalVisits(info *BoardInfo) int {
	var n int
	for i := range info.stats {
		n += info.stats[i].N
	}
	return n
}
