// Package strategydump emits the trained strategy tree as JSON (spec §6
// "Strategy dump"), recursing the same treebuild.Node structure the CFR
// engine trained on and reading each action node's Trainable for its
// average strategy, EVs and equities. Isomorphism-equivalent chance
// branches are not re-walked: the canonical suit's subtree is dumped once
// and the non-canonical suits synthesize their own card label pointing at
// the same (suit-permuted) child, matching spec §6's "honors isomorphism
// by emitting the canonical branch once and synthesizing permuted labels".
package strategydump

import (
	"encoding/json"
	"math"

	"postflopsolver/cards"
	"postflopsolver/common/linq"
	"postflopsolver/isomorphism"
	"postflopsolver/ranges"
	"postflopsolver/treebuild"

	"github.com/schollz/progressbar/v3"
)

// Dumper holds the per-player Range Indexes and isomorphism table needed to
// label hands and collapse equivalent chance branches while walking the
// tree; it carries no Trainable state of its own.
type Dumper struct {
	rangeIdx     [2]*ranges.Index
	iso          *isomorphism.Table
	enableEquity bool
	enableRange  bool
	progress     *progressbar.ProgressBar
}

func New(rangeIdx [2]*ranges.Index, iso *isomorphism.Table, enableEquity, enableRange bool, nodeCount int) *Dumper {
	return &Dumper{
		rangeIdx:     rangeIdx,
		iso:          iso,
		enableEquity: enableEquity,
		enableRange:  enableRange,
		progress:     progressbar.Default(int64(nodeCount), "dumping strategy"),
	}
}

// Dump walks root and returns its JSON strategy tree (spec §6's action-node
// and chance-node shapes), with deal threaded the same way the CFR engine
// threads it so each Trainable.Table lookup lands on the right abstract
// deal.
func (d *Dumper) Dump(root *treebuild.Node, board cards.Board, deal int) map[string]any {
	return d.dumpNode(root, board, deal)
}

func (d *Dumper) dumpNode(n *treebuild.Node, board cards.Board, deal int) map[string]any {
	_ = d.progress.Add(1)
	switch n.Kind {
	case treebuild.NodeAction:
		return d.dumpAction(n, board, deal)
	case treebuild.NodeChance:
		return d.dumpChance(n, board, deal)
	case treebuild.NodeTerminal, treebuild.NodeShowdown:
		return map[string]any{"node_type": "terminal_node"}
	default:
		panic("strategydump: unknown node kind")
	}
}

func (d *Dumper) dumpAction(n *treebuild.Node, board cards.Board, deal int) map[string]any {
	idx := d.rangeIdx[n.Player]
	numActions := len(n.Actions)
	numHands := idx.Len()

	tr := n.Trainables.Get(deal)
	avg := tr.AverageStrategy()
	evs := tr.EVs()

	labels := make([]string, numActions)
	for a, act := range n.Actions {
		labels[a] = act.Label(n.BetAmounts[a], n.FacingBet)
	}

	strategy := make(map[string][]float64, numHands)
	evsByHand := make(map[string][]float64, numHands)
	var equityByHand map[string][]float64
	if d.enableEquity {
		equityByHand = make(map[string][]float64, numHands)
		eqs := tr.Equities()
		for h := 0; h < numHands; h++ {
			row := make([]float64, numActions)
			for a := 0; a < numActions; a++ {
				row[a] = round3(eqs[a*numHands+h])
			}
			equityByHand[idx.Hand(h).String()] = row
		}
	}
	for h := 0; h < numHands; h++ {
		label := idx.Hand(h).String()
		stratRow := make([]float64, numActions)
		evRow := make([]float64, numActions)
		for a := 0; a < numActions; a++ {
			stratRow[a] = round3(avg[a*numHands+h])
			evRow[a] = round2(evs[a*numHands+h])
		}
		strategy[label] = stratRow
		evsByHand[label] = evRow
	}

	childrens := make(map[string]any, numActions)
	for a, act := range n.Children {
		childrens[labels[a]] = d.dumpNode(act, board, deal)
	}

	out := map[string]any{
		"node_type": "action_node",
		"actions":   labels,
		"player":    n.Player,
		"strategy":  map[string]any{"actions": labels, "strategy": strategy},
		"evs":       map[string]any{"actions": labels, "evs": evsByHand},
		"childrens": childrens,
	}
	if d.enableEquity {
		out["equities"] = map[string]any{"actions": labels, "equities": equityByHand}
	}
	if d.enableRange {
		out["ranges"] = d.rangesBlock(n.Player)
	}
	return out
}

func (d *Dumper) rangesBlock(player int) map[string]any {
	oopRange := make(map[string]float64, d.rangeIdx[0].Len())
	for i := 0; i < d.rangeIdx[0].Len(); i++ {
		oopRange[d.rangeIdx[0].Hand(i).String()] = round3(d.rangeIdx[0].Weight(i))
	}
	ipRange := make(map[string]float64, d.rangeIdx[1].Len())
	for i := 0; i < d.rangeIdx[1].Len(); i++ {
		ipRange[d.rangeIdx[1].Hand(i).String()] = round3(d.rangeIdx[1].Weight(i))
	}
	return map[string]any{
		"player":    player,
		"oop_range": oopRange,
		"ip_range":  ipRange,
	}
}

// dumpChance emits one sub-tree per dealt card, collapsing isomorphism
// classes: a non-canonical suit's card label still appears in dealcards,
// but its value is the canonical suit's already-dumped sub-tree with every
// hand label suit-swapped, rather than an independent walk.
func (d *Dumper) dumpChance(n *treebuild.Node, board cards.Board, deal int) map[string]any {
	offsets := d.iso.Offsets(board)
	dealcards := make(map[string]any, len(n.ChanceCards))
	canonical := make(map[int]map[string]any, 4)

	for _, c := range n.ChanceCards {
		suit := c.Suit()
		newBoard := board.Add(c)
		newDeal := nextDeal(deal, c)
		if offset := offsets[suit]; offset < 0 {
			canonicalSuit := suit + offset
			canonicalCard := cards.NewCard(c.Rank(), canonicalSuit)
			sub, ok := canonical[int(canonicalCard)]
			if !ok {
				sub = d.dumpNode(n.ChanceChild, newBoard, newDeal)
				canonical[int(canonicalCard)] = sub
			}
			dealcards[c.String()] = permuteSuits(sub, suit, canonicalSuit)
			continue
		}
		sub := d.dumpNode(n.ChanceChild, newBoard, newDeal)
		canonical[int(c)] = sub
		dealcards[c.String()] = sub
	}

	return map[string]any{
		"node_type":   "chance_node",
		"deal_number": len(n.ChanceCards),
		"dealcards":   dealcards,
	}
}

// permuteSuits relabels every hand key appearing in a dumped sub-tree's
// strategy/evs/equities/ranges maps by swapping suits r1 and r2, so a
// non-canonical branch's dump reads as if it had been walked independently
// (spec §6's "synthesizing permuted labels for equivalent branches").
// Nested chance nodes get their dealt-card labels suit-swapped too.
// Terminal/showdown leaves carry no hand-keyed maps and pass through
// unchanged.
func permuteSuits(node map[string]any, r1, r2 int) map[string]any {
	if node["node_type"] == "chance_node" {
		out := linq.CopyMap(node)
		if dc, ok := node["dealcards"].(map[string]any); ok {
			permuted := make(map[string]any, len(dc))
			for label, child := range dc {
				b := []byte(label)
				if len(b) == 2 {
					swapSuitByte(&b[1], r1, r2)
				}
				if cn, ok := child.(map[string]any); ok {
					child = permuteSuits(cn, r1, r2)
				}
				permuted[string(b)] = child
			}
			out["dealcards"] = permuted
		}
		return out
	}
	if node["node_type"] != "action_node" {
		return node
	}
	out := linq.CopyMap(node)
	if s, ok := node["strategy"].(map[string]any); ok {
		out["strategy"] = permuteActionsBlock(s, r1, r2)
	}
	if e, ok := node["evs"].(map[string]any); ok {
		out["evs"] = permuteActionsBlock(e, r1, r2)
	}
	if eq, ok := node["equities"].(map[string]any); ok {
		out["equities"] = permuteActionsBlock(eq, r1, r2)
	}
	if ranges, ok := node["ranges"].(map[string]any); ok {
		out["ranges"] = permuteRangesBlock(ranges, r1, r2)
	}
	if ch, ok := node["childrens"].(map[string]any); ok {
		permuted := make(map[string]any, len(ch))
		for label, child := range ch {
			if cn, ok := child.(map[string]any); ok {
				permuted[label] = permuteSuits(cn, r1, r2)
			} else {
				permuted[label] = child
			}
		}
		out["childrens"] = permuted
	}
	return out
}

// permuteActionsBlock rewrites a {"actions": [...], "<key>": {hand->row}}
// block by swapping suits in every hand label.
func permuteActionsBlock(block map[string]any, r1, r2 int) map[string]any {
	out := make(map[string]any, len(block))
	for k, v := range block {
		if byHand, ok := v.(map[string][]float64); ok {
			out[k] = permuteHandLabels(byHand, r1, r2)
			continue
		}
		out[k] = v
	}
	return out
}

func permuteRangesBlock(block map[string]any, r1, r2 int) map[string]any {
	out := make(map[string]any, len(block))
	for k, v := range block {
		if byHand, ok := v.(map[string]float64); ok {
			permuted := make(map[string]float64, len(byHand))
			for label, weight := range byHand {
				permuted[permuteHandLabel(label, r1, r2)] = weight
			}
			out[k] = permuted
			continue
		}
		out[k] = v
	}
	return out
}

func permuteHandLabels(byHand map[string][]float64, r1, r2 int) map[string][]float64 {
	out := make(map[string][]float64, len(byHand))
	for label, row := range byHand {
		out[permuteHandLabel(label, r1, r2)] = row
	}
	return out
}

// permuteHandLabel swaps suits r1/r2 within a 4-character hand label
// ("AhKs") by rewriting each card's suit letter.
func permuteHandLabel(label string, r1, r2 int) string {
	if len(label) != 4 {
		return label
	}
	b := []byte(label)
	swapSuitByte(&b[1], r1, r2)
	swapSuitByte(&b[3], r1, r2)
	return string(b)
}

func swapSuitByte(c *byte, r1, r2 int) {
	switch *c {
	case cards.SuitChar(r1):
		*c = cards.SuitChar(r2)
	case cards.SuitChar(r2):
		*c = cards.SuitChar(r1)
	}
}

func nextDeal(deal int, c cards.Card) int {
	if deal == 0 {
		return int(c) + 1
	}
	return deal*(cards.NumCards+1) + int(c) + 1
}

func round3(v float32) float64 {
	return math.Round(float64(v)*1000) / 1000
}

func round2(v float32) float64 {
	return math.Round(float64(v)*100) / 100
}

// Marshal is a thin wrapper around encoding/json for callers that just want
// bytes (the CLI entrypoint writes these straight to dump_file).
func Marshal(tree map[string]any) ([]byte, error) {
	return json.MarshalIndent(tree, "", "  ")
}
