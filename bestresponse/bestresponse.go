// Package bestresponse computes a best-response exploitability figure
// against the Trainables' current average strategy (spec §6 "Best-response
// exploitability"). It is explicitly not a hardened, abstraction-aware
// best-response solver (spec §8's boundary scenario 3 only exercises the
// trivial symmetric case): it recomputes an exact local best response by
// walking the same tree the CFR engine trained on, taking the per-hand max
// at the traversing player's own nodes instead of mixing by strategy. No
// original_source/ file for this component survived the retrieval, so its
// shape follows the CFR engine's own dispatch structure and spec §4.6's
// "BestResponse.exploitability(root, iter, pot, initial_board)" call
// signature.
package bestresponse

import (
	"postflopsolver/cards"
	"postflopsolver/compairer"
	"postflopsolver/ranges"
	"postflopsolver/rivercache"
	"postflopsolver/treebuild"
)

// Exploitability holds the two Range Indexes and hand evaluator needed to
// recompute terminal/showdown values while walking the tree; it has no
// dependency on trainable.Coefficients because it never updates regrets.
type Exploitability struct {
	rangeIdx  [2]*ranges.Index
	compairer compairer.Compairer
}

func New(rangeIdx [2]*ranges.Index, c compairer.Compairer) *Exploitability {
	return &Exploitability{rangeIdx: rangeIdx, compairer: c}
}

// Compute returns Σ_h reach₀[h]·BR₀[h] + Σ_h reach₁[h]·BR₁[h], the total
// chip amount a perfectly adaptive opponent could gain over both players'
// currently trained strategies (spec §4.6's "e = BestResponse.exploitability
// (...)"). iter and pot are accepted to match the driver's call signature;
// this implementation does not need them (no Monte-Carlo seeding, no
// pot-relative normalization), since the DAG already carries every payoff
// in absolute chips.
func (e *Exploitability) Compute(root *treebuild.Node, iter int, pot float64, board cards.Board) float64 {
	reach0 := e.rangeIdx[0].Weights()
	reach1 := e.rangeIdx[1].Weights()

	br0 := e.brValue(0, root, reach1, board, 0)
	br1 := e.brValue(1, root, reach0, board, 0)

	var total float64
	for h, v := range br0 {
		total += float64(reach0[h]) * float64(v)
	}
	for h, v := range br1 {
		total += float64(reach1[h]) * float64(v)
	}
	return total
}

func (e *Exploitability) brValue(player int, node *treebuild.Node, reachProbs []float32, board cards.Board, deal int) []float32 {
	switch node.Kind {
	case treebuild.NodeAction:
		return e.actionBR(player, node, reachProbs, board, deal)
	case treebuild.NodeChance:
		return e.chanceBR(player, node, reachProbs, board, deal)
	case treebuild.NodeTerminal:
		return e.terminalBR(player, node, reachProbs, board)
	case treebuild.NodeShowdown:
		return e.showdownBR(player, node, reachProbs, board)
	default:
		panic("bestresponse: unknown node kind")
	}
}

// actionBR takes the per-hand best action when the node belongs to the
// player being valued (no mixing is needed: every hand independently picks
// whichever action maximizes its own value), and reweights the passed reach
// vector by the node owner's trained average strategy otherwise.
func (e *Exploitability) actionBR(player int, node *treebuild.Node, reachProbs []float32, board cards.Board, deal int) []float32 {
	oppo := 1 - player
	numActions := len(node.Actions)

	if node.Player != player {
		oppoLen := e.rangeIdx[oppo].Len()
		playerLen := e.rangeIdx[player].Len()
		avg := node.Trainables.Get(deal).AverageStrategy()
		total := make([]float32, playerLen)
		for a := 0; a < numActions; a++ {
			newReach := make([]float32, oppoLen)
			for h := 0; h < oppoLen; h++ {
				newReach[h] = reachProbs[h] * avg[a*oppoLen+h]
			}
			child := e.brValue(player, node.Children[a], newReach, board, deal)
			for h := 0; h < playerLen; h++ {
				total[h] += child[h]
			}
		}
		return total
	}

	playerLen := e.rangeIdx[player].Len()
	best := make([]float32, playerLen)
	for h := range best {
		best[h] = negInf
	}
	for a := 0; a < numActions; a++ {
		child := e.brValue(player, node.Children[a], reachProbs, board, deal)
		for h := 0; h < playerLen; h++ {
			if child[h] > best[h] {
				best[h] = child[h]
			}
		}
	}
	return best
}

const negInf = float32(-1e30)

func (e *Exploitability) chanceBR(player int, node *treebuild.Node, reachProbs []float32, board cards.Board, deal int) []float32 {
	oppo := 1 - player
	playerLen := e.rangeIdx[player].Len()
	oppoIdx := e.rangeIdx[oppo]
	possibleDeals := float32(len(node.ChanceCards))

	total := make([]float32, playerLen)
	for _, c := range node.ChanceCards {
		newBoard := board.Add(c)
		newReach := make([]float32, len(reachProbs))
		for h := 0; h < oppoIdx.Len(); h++ {
			if oppoIdx.Hand(h).OverlapsBoard(cards.NewBoard(c)) {
				continue
			}
			newReach[h] = reachProbs[h] / possibleDeals
		}
		child := e.brValue(player, node.ChanceChild, newReach, newBoard, nextDeal(deal, c))
		for i, v := range child {
			total[i] += v
		}
	}
	return total
}

func nextDeal(deal int, c cards.Card) int {
	if deal == 0 {
		return int(c) + 1
	}
	return deal*(cards.NumCards+1) + int(c) + 1
}

func (e *Exploitability) terminalBR(player int, node *treebuild.Node, reachProbs []float32, board cards.Board) []float32 {
	oppo := 1 - player
	playerIdx := e.rangeIdx[player]
	oppoIdx := e.rangeIdx[oppo]

	var oppoSum float32
	var oppoCardSum [cards.NumCards]float32
	for i := 0; i < oppoIdx.Len(); i++ {
		h := oppoIdx.Hand(i)
		oppoCardSum[h.Lo] += reachProbs[i]
		oppoCardSum[h.Hi] += reachProbs[i]
		oppoSum += reachProbs[i]
	}

	playerPayoff := node.TerminalPayoffs[player]
	out := make([]float32, playerIdx.Len())
	for i := 0; i < playerIdx.Len(); i++ {
		hand := playerIdx.Hand(i)
		if hand.OverlapsBoard(board) {
			continue
		}
		var plusReach float32
		if plusIdx := ranges.IndPlayerToPlayer(playerIdx, oppoIdx, i); plusIdx != ranges.None {
			plusReach = reachProbs[plusIdx]
		}
		effReach := oppoSum - oppoCardSum[hand.Lo] - oppoCardSum[hand.Hi] + plusReach
		out[i] = playerPayoff * effReach
	}
	return out
}

func (e *Exploitability) showdownBR(player int, node *treebuild.Node, reachProbs []float32, board cards.Board) []float32 {
	oppo := 1 - player
	playerIdx := e.rangeIdx[player]
	oppoIdx := e.rangeIdx[oppo]

	playerEntries := rivercache.Build(playerIdx, board, e.compairer).Entries()
	oppoEntries := rivercache.Build(oppoIdx, board, e.compairer).Entries()

	winPayoff := node.ShowdownWin[player]
	losePayoff := node.ShowdownLose[player]
	out := make([]float32, playerIdx.Len())

	var winsum float32
	var cardWinSum [cards.NumCards]float32
	j := len(oppoEntries) - 1
	for i := len(playerEntries) - 1; i >= 0; i-- {
		pe := playerEntries[i]
		for j >= 0 && pe.Rank < oppoEntries[j].Rank {
			oe := oppoEntries[j]
			winsum += reachProbs[oe.RangeIdx]
			cardWinSum[oe.Hand.Lo] += reachProbs[oe.RangeIdx]
			cardWinSum[oe.Hand.Hi] += reachProbs[oe.RangeIdx]
			j--
		}
		win := winsum - cardWinSum[pe.Hand.Lo] - cardWinSum[pe.Hand.Hi]
		out[pe.RangeIdx] = win * winPayoff
	}

	var losssum float32
	var cardLossSum [cards.NumCards]float32
	j = 0
	for i := range playerEntries {
		pe := playerEntries[i]
		for j < len(oppoEntries) && pe.Rank > oppoEntries[j].Rank {
			oe := oppoEntries[j]
			losssum += reachProbs[oe.RangeIdx]
			cardLossSum[oe.Hand.Lo] += reachProbs[oe.RangeIdx]
			cardLossSum[oe.Hand.Hi] += reachProbs[oe.RangeIdx]
			j++
		}
		loss := losssum - cardLossSum[pe.Hand.Lo] - cardLossSum[pe.Hand.Hi]
		out[pe.RangeIdx] += loss * losePayoff
	}
	return out
}
