// Command selfplay wires an mcts.Engine, a game.Chess board and an oracle
// together and plays one game to completion, reporting the engine's own
// diagnostics move by move. It plays the role the teacher's cmd/infer and
// cmd/train binaries play for mcts/dualnet, minus persistence and training.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/puctmcts/game"
	"github.com/puctmcts/mcts"
	"github.com/puctmcts/oracle"
	"github.com/puctmcts/oracle/dualnet"
)

var (
	nsims    = flag.Int("nsims", 100, "simulations per move")
	nworkers = flag.Int("nworkers", 4, "concurrent search workers")
	cpuct    = flag.Float64("cpuct", 1.5, "PUCT exploration constant")
	useNet   = flag.Bool("dualnet", false, "evaluate with oracle/dualnet instead of the random oracle")
	maxMoves = flag.Int("max_moves", 200, "stop the game without a result after this many plies")
	dot      = flag.String("dot", "", "if set, dump the final search tree as Graphviz DOT to this path")
)

func main() {
	flag.Parse()
	log.SetFlags(log.Ltime)

	var o oracle.Oracle
	if *useNet {
		cfg := dualnet.DefaultConfig(8, 8, 2, game.NumChessActions)
		cfg.BatchSize = *nworkers
		net, err := dualnet.New(cfg)
		if err != nil {
			log.Fatalf("selfplay: building dualnet: %v", err)
		}
		o = net
	} else {
		o = oracle.Random{}
	}

	board := game.NewChess()
	cfg := mcts.DefaultConfig()
	cfg.NWorkers = *nworkers
	cfg.CPUCT = float32(*cpuct)

	var g game.Game = board
	var engine *mcts.Engine
	ply := 0
	for ; ply < *maxMoves; ply++ {
		if _, terminal := g.WhiteReward(); terminal {
			break
		}

		var err error
		engine, err = mcts.New(g, o, cfg, nil)
		if err != nil {
			log.Fatalf("selfplay: building engine: %v", err)
		}
		if err := engine.Explore(context.Background(), *nsims); err != nil {
			log.Fatalf("selfplay: explore failed at ply %d: %v", ply, err)
		}

		actions, pi, err := engine.Policy(0)
		if err != nil {
			log.Fatalf("selfplay: policy failed at ply %d: %v", ply, err)
		}
		best := 0
		for i, p := range pi {
			if p > pi[best] {
				best = i
			}
		}

		log.Printf("ply=%d depth=%.2f inference_ratio=%.3f", ply, engine.AverageExplorationDepth(), engine.InferenceTimeRatio())
		g.Play(actions[best])
	}

	reward, terminal := g.WhiteReward()
	if !terminal {
		fmt.Printf("no result after %d plies (move cap reached)\n", ply)
	} else {
		fmt.Printf("result after %d plies: white_reward=%.0f\n", ply, reward)
	}

	if *dot != "" && engine != nil {
		s, err := engine.DumpDOT(3)
		if err != nil {
			log.Fatalf("selfplay: dumping DOT: %v", err)
		}
		if err := os.WriteFile(*dot, []byte(s), 0o644); err != nil {
			log.Fatalf("selfplay: writing DOT file: %v", err)
		}
	}
}
