// Command solver is the CLI entrypoint: it wires config, rangeparser,
// treebuild, cfr and strategydump together into one run (spec §6/§7's
// end-to-end input-to-dump pipeline), the same "load env, build, run,
// dump" shape the teacher's own main used for its DeepCFR training loop.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"postflopsolver/bestresponse"
	"postflopsolver/cards"
	"postflopsolver/cfr"
	"postflopsolver/common/random"
	"postflopsolver/compairer"
	"postflopsolver/config"
	"postflopsolver/isomorphism"
	"postflopsolver/ranges"
	"postflopsolver/rangeparser"
	"postflopsolver/strategydump"
	"postflopsolver/trainable"
	"postflopsolver/treebuild"
)

func main() {
	simulate := flag.Bool("simulate", false, "after training, sample one playthrough of the converged average strategy instead of dumping the full tree")
	envFile := flag.String("env", ".env", "optional dotenv file loaded before reading the environment")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && *envFile != ".env" {
		log.Fatalf("solver: loading %s: %v", *envFile, err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	board, err := parseBoard(cfg.Boards)
	if err != nil {
		log.Fatal(err)
	}
	round, err := config.ParseRound(cfg.CurrentRound)
	if err != nil {
		log.Fatal(err)
	}

	rangeIdx, err := buildRanges(cfg, board)
	if err != nil {
		log.Fatal(err)
	}

	rank := compairer.NewPaulHankinCompairer()

	builder := treebuild.New(treebuild.Config{
		SmallBlind:     cfg.SmallBlind,
		BigBlind:       cfg.BigBlind,
		Stack:          cfg.Stack,
		OopCommit:      cfg.OopCommit,
		IpCommit:       cfg.IpCommit,
		CurrentRound:   round,
		RaiseLimit:     cfg.RaiseLimit,
		AllinThreshold: cfg.AllinThreshold,
		InitialBoard:   board,
	})
	root := builder.Build()

	coef := trainable.DefaultCoefficients
	cfr.Setup(root, rangeIdx, coef)

	solver := cfr.New(rangeIdx, rank, coef,
		cfr.WithEquity(cfg.EnableEquity),
		cfr.WithIsomorphism(cfg.UseIsomorphism),
		cfr.WithWarmup(cfg.Warmup),
		cfr.WithPrintInterval(cfg.PrintInterval),
		cfr.WithThreads(cfg.Threads),
		cfr.WithInitialBoard(board),
	)
	br := bestresponse.New(rangeIdx, rank)
	driver := cfr.NewDriver(solver, br, cfr.DriverConfig{
		IterationNumber: cfg.IterationNumber,
		PrintInterval:   cfg.PrintInterval,
		Warmup:          cfg.Warmup,
		Accuracy:        cfg.Accuracy,
		LogFile:         cfg.LogFile,
	})

	pot := float64(int(cfg.OopCommit*float64(cfg.Stack)) + int(cfg.IpCommit*float64(cfg.Stack)))
	ran, err := driver.Run(root, rangeIdx, board, pot)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("solver: ran %d iterations", ran)

	if *simulate {
		if err := runSimulation(root, rangeIdx, board); err != nil {
			log.Fatal(err)
		}
		return
	}

	if cfg.DumpFile == "" {
		return
	}
	dumper := strategydump.New(rangeIdx, isomorphism.New(), cfg.EnableEquity, cfg.EnableRange, 0)
	tree := dumper.Dump(root, board, 0)
	out, err := strategydump.Marshal(tree)
	if err != nil {
		log.Fatal(err)
	}
	if err := os.WriteFile(cfg.DumpFile, out, 0o644); err != nil {
		log.Fatal(err)
	}
}

func parseBoard(s string) (cards.Board, error) {
	var board cards.Board
	for _, tok := range strings.Fields(s) {
		c, err := cards.ParseCard(tok)
		if err != nil {
			return 0, fmt.Errorf("solver: malformed board %q: %w", s, err)
		}
		board = board.Add(c)
	}
	return board, nil
}

func buildRanges(cfg *config.Config, board cards.Board) ([2]*ranges.Index, error) {
	var out [2]*ranges.Index
	for i, raw := range []string{cfg.P1Range, cfg.P2Range} {
		hands, err := rangeparser.Parse(raw)
		if err != nil {
			return out, fmt.Errorf("solver: player %d range: %w", i+1, err)
		}
		idx, err := ranges.New(hands, board)
		if err != nil {
			return out, fmt.Errorf("solver: player %d range: %w", i+1, err)
		}
		out[i] = idx
	}
	return out, nil
}

// runSimulation walks one random playthrough of the converged average
// strategy, sampling each decision with common/random.Sample the way the
// teacher's own random_actor.go samples a strategy map. Concrete hole cards
// are dealt from a shuffled cards.Deck (redealing on a miss) and mapped back
// to each player's range index, so the demo path reports real hands rather
// than always walking hand index 0.
func runSimulation(root *treebuild.Node, rangeIdx [2]*ranges.Index, board cards.Board) error {
	rng := rand.New(rand.NewSource(1))
	hand, dealt, err := dealHoleCards(rng, rangeIdx, board)
	if err != nil {
		return err
	}
	log.Printf("solver: dealt OOP %s%s, IP %s%s", dealt[0].Lo, dealt[0].Hi, dealt[1].Lo, dealt[1].Hi)

	n := root
	var path []string
	deal := 0
	for n.Kind != treebuild.NodeTerminal && n.Kind != treebuild.NodeShowdown {
		switch n.Kind {
		case treebuild.NodeAction:
			tr := n.Trainables.Get(deal)
			avg := tr.AverageStrategy()
			numHands := rangeIdx[n.Player].Len()
			h := hand[n.Player]
			probs := make(map[int32]float32, len(n.Actions))
			for a := range n.Actions {
				probs[int32(a)] = avg[a*numHands+h]
			}
			a, err := random.Sample(rng, probs)
			if err != nil {
				return fmt.Errorf("solver: sampling action node: %w", err)
			}
			path = append(path, n.Actions[a].Label(n.BetAmounts[a], n.FacingBet))
			n = n.Children[a]
		case treebuild.NodeChance:
			c := n.ChanceCards[rng.Intn(len(n.ChanceCards))]
			path = append(path, c.String())
			deal = nextDeal(deal, c)
			n = n.ChanceChild
		}
	}
	log.Printf("solver: simulated path: %s", strings.Join(path, " -> "))
	return nil
}

// dealHoleCards deals two non-overlapping hands off a fresh cards.Deck and
// maps each back to its owner's range index, redealing up to a generous
// bound whenever the dealt cards fall outside that player's range (the
// range is an abstraction over starting hands; not every concrete deal is
// covered by a non-trivial range).
func dealHoleCards(rng *rand.Rand, rangeIdx [2]*ranges.Index, board cards.Board) ([2]int, [2]cards.Hand, error) {
	deck := cards.NewDeck(rng)
	for attempt := 0; attempt < 1000; attempt++ {
		deck.Reset()
		var drawn []cards.Card
		for deck.Remaining() > 0 && len(drawn) < 4 {
			c := deck.Deal()
			if board.Has(c) {
				continue
			}
			drawn = append(drawn, c)
		}
		if len(drawn) < 4 {
			continue
		}
		h0 := cards.NewHand(drawn[0], drawn[1])
		h1 := cards.NewHand(drawn[2], drawn[3])
		if h0.Overlaps(h1) {
			continue
		}
		i0 := rangeIdx[0].IndexOf(h0)
		i1 := rangeIdx[1].IndexOf(h1)
		if i0 == ranges.None || i1 == ranges.None {
			continue
		}
		return [2]int{i0, i1}, [2]cards.Hand{h0, h1}, nil
	}
	return [2]int{}, [2]cards.Hand{}, fmt.Errorf("solver: could not deal hole cards inside both ranges after 1000 attempts")
}

func nextDeal(deal int, c cards.Card) int {
	if deal == 0 {
		return int(c) + 1
	}
	return deal*(cards.NumCards+1) + int(c) + 1
}
