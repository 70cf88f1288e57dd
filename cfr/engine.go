package cfr

import (
	"golang.org/x/sync/errgroup"

	"postflopsolver/cards"
	"postflopsolver/isomorphism"
	"postflopsolver/ranges"
	"postflopsolver/trainable"
	"postflopsolver/treebuild"
)

// Run computes player's counterfactual value vector (and, if equity is
// enabled, the matching counterfactual equity vector) at node, given the
// opponent's reach vector at this point in the tree (spec §4.5's "cfr"
// dispatch: exactly one of the four per-kind utility functions below runs,
// selected by node.Kind). iter is the 0-based iteration currently being
// trained (regret updates receive iter+1); deal is the abstract deal id
// accumulated along this path.
func (s *Solver) Run(player int, node *treebuild.Node, reachProbs []float32, iter int, board cards.Board, deal int) (payoffs, equity []float32) {
	return s.cfr(player, node, reachProbs, iter, board, deal)
}

func (s *Solver) cfr(player int, node *treebuild.Node, reachProbs []float32, iter int, board cards.Board, deal int) ([]float32, []float32) {
	switch node.Kind {
	case treebuild.NodeAction:
		return s.actionUtility(player, node, reachProbs, iter, board, deal)
	case treebuild.NodeChance:
		return s.chanceUtility(player, node, reachProbs, iter, board, deal)
	case treebuild.NodeTerminal:
		return s.terminalUtility(player, node, reachProbs, board)
	case treebuild.NodeShowdown:
		return s.showdownUtility(player, node, reachProbs, board)
	default:
		panic("cfr: unknown node kind")
	}
}

// actionUtility implements spec §4.5.1. When the node belongs to the player
// whose value we are computing, every action's subtree is evaluated against
// the *same* opponent reach vector and combined afterward, weighted by the
// player's own current strategy — this is what lets the per-action,
// per-hand utility double as the regret signal. When the node belongs to
// the opponent, their current strategy instead reweights the reach vector
// passed down each branch, and the branches' results are simply summed.
func (s *Solver) actionUtility(player int, node *treebuild.Node, reachProbs []float32, iter int, board cards.Board, deal int) ([]float32, []float32) {
	oppo := 1 - player
	numActions := len(node.Actions)
	tr := node.Trainables.Get(deal)
	currentStrategy := tr.CurrentStrategy()

	if node.Player != player {
		oppoIdx := s.rangeIdx[oppo]
		oppoLen := oppoIdx.Len()
		playerLen := s.rangeIdx[player].Len()
		payoffs := make([]float32, playerLen)
		var equity []float32
		if s.enableEquity {
			equity = make([]float32, playerLen)
		}
		for a := 0; a < numActions; a++ {
			newReach := make([]float32, oppoLen)
			for h := 0; h < oppoLen; h++ {
				newReach[h] = reachProbs[h] * currentStrategy[a*oppoLen+h]
			}
			childPayoffs, childEquity := s.cfr(player, node.Children[a], newReach, iter, board, deal)
			for h := 0; h < playerLen; h++ {
				payoffs[h] += childPayoffs[h]
				if s.enableEquity {
					equity[h] += childEquity[h]
				}
			}
		}
		return payoffs, equity
	}

	playerLen := s.rangeIdx[player].Len()
	allUtility := make([][]float32, numActions)
	var allEquity [][]float32
	if s.enableEquity {
		allEquity = make([][]float32, numActions)
	}
	for a := 0; a < numActions; a++ {
		childPayoffs, childEquity := s.cfr(player, node.Children[a], reachProbs, iter, board, deal)
		allUtility[a] = childPayoffs
		if s.enableEquity {
			allEquity[a] = childEquity
		}
	}

	payoffs := make([]float32, playerLen)
	var equity []float32
	if s.enableEquity {
		equity = make([]float32, playerLen)
	}
	for h := 0; h < playerLen; h++ {
		for a := 0; a < numActions; a++ {
			strat := currentStrategy[a*playerLen+h]
			payoffs[h] += strat * allUtility[a][h]
			if s.enableEquity {
				equity[h] += strat * allEquity[a][h]
			}
		}
	}

	if iter >= s.warmup {
		regrets := make([]float32, numActions*playerLen)
		for a := 0; a < numActions; a++ {
			for h := 0; h < playerLen; h++ {
				regrets[a*playerLen+h] = allUtility[a][h] - payoffs[h]
			}
		}
		tr.UpdateRegrets(regrets, iter+1)

		if iter == s.warmup {
			// Warmup only ever trained one representative suit per rank
			// group (the sampling above in chanceUtility), so deal is that
			// representative's own abstract deal id. Hand its just-updated
			// strategy to every isomorphism-sibling deal warmup skipped, so
			// full training picks up from a shared starting point instead of
			// zero for them.
			for _, sibling := range allAbstractionDeals(deal, s.initialBoard) {
				if sibling == deal {
					continue
				}
				node.Trainables.Get(sibling).CopyStrategy(tr)
			}
		}
	}

	if s.printInterval > 0 && iter%s.printInterval == 0 {
		s.recordEVs(player, oppo, tr, reachProbs, allUtility, allEquity, playerLen, numActions)
	}

	return payoffs, equity
}

// recordEVs normalizes the raw counterfactual utility each action branch
// returned by the opponent's effective reach for that hand, producing the
// dump-ready per-hand EV/equity spec §4.4 stores on the Trainable (spec
// §4.5.1's "only store at print_interval" gate).
func (s *Solver) recordEVs(player, oppo int, tr *trainable.Trainable, reachProbs []float32, allUtility, allEquity [][]float32, playerLen, numActions int) {
	oppoSum, oppoCardSum := blockerSums(s.rangeIdx[oppo], reachProbs)
	playerIdx := s.rangeIdx[player]
	oppoIdx := s.rangeIdx[oppo]

	evs := make([]float32, numActions*playerLen)
	var eqs []float32
	if s.enableEquity {
		eqs = make([]float32, numActions*playerLen)
	}
	for h := 0; h < playerLen; h++ {
		hand := playerIdx.Hand(h)
		var plusReach float32
		if plusIdx := ranges.IndPlayerToPlayer(playerIdx, oppoIdx, h); plusIdx != ranges.None {
			plusReach = reachProbs[plusIdx]
		}
		rpSum := oppoSum - oppoCardSum[hand.Lo] - oppoCardSum[hand.Hi] + plusReach
		for a := 0; a < numActions; a++ {
			idx := a*playerLen + h
			if rpSum > 0 {
				evs[idx] = allUtility[a][h] / rpSum
				if s.enableEquity {
					eqs[idx] = allEquity[a][h] / rpSum
				}
			}
		}
	}
	tr.SetEVs(evs)
	if s.enableEquity {
		tr.SetEquities(eqs)
	}
}

// allAbstractionDeals decodes deal back into the one or two concrete cards
// it was built from (via the inverse of nextDeal) and re-encodes every
// same-rank suit permutation of those cards as a deal id, mirroring the
// reference solver's getAllAbstractionDeal: cards are grouped in runs of 4
// sharing a rank (cards.NewCard(rank, suit) = rank*4+suit), and siblings
// blocked by the board the tree was built from are skipped, the same way
// the reference solver tests each candidate against its initial_board_long.
func allAbstractionDeals(deal int, initialBoard cards.Board) []int {
	if deal == 0 {
		return []int{0}
	}

	const base = cards.NumCards + 1

	if deal <= cards.NumCards {
		group := ((deal - 1) / 4) * 4
		deals := make([]int, 0, 4)
		for i := 0; i < 4; i++ {
			c := cards.Card(group + i)
			if initialBoard.Has(c) {
				continue
			}
			deals = append(deals, int(c)+1)
		}
		return deals
	}

	rest := deal - 1
	firstDeal := rest / base
	secondCard := cards.Card(rest % base)
	firstCard := cards.Card(firstDeal - 1)
	firstGroup := (int(firstCard) / 4) * 4
	secondGroup := (int(secondCard) / 4) * 4

	deals := make([]int, 0, 16)
	for i := 0; i < 4; i++ {
		fc := cards.Card(firstGroup + i)
		if initialBoard.Has(fc) {
			continue
		}
		fcDeal := int(fc) + 1
		for j := 0; j < 4; j++ {
			sc := cards.Card(secondGroup + j)
			if firstGroup == secondGroup && i == j {
				continue
			}
			if initialBoard.Has(sc) {
				continue
			}
			deals = append(deals, fcDeal*base+int(sc)+1)
		}
	}
	return deals
}

// chanceUtility implements spec §4.5.2: fan out across every card the
// isomorphism table has not pruned, recurse in parallel (fork-join, spec
// §5), then fold the results back together — reusing a canonical sibling's
// permuted result for any suit the table marked non-canonical, and, during
// warmup, exploring only one representative suit per rank group scaled up
// by how many suits it stands in for.
func (s *Solver) chanceUtility(player int, node *treebuild.Node, reachProbs []float32, iter int, board cards.Board, deal int) ([]float32, []float32) {
	oppo := 1 - player
	playerLen := s.rangeIdx[player].Len()
	possibleDeals := float32(len(node.ChanceCards))

	var offsets [4]int
	if s.enableIso {
		offsets = s.iso.Offsets(board)
	}

	var multiplier [cards.NumCards]float32
	if iter <= s.warmup {
		for rank := 0; rank < 13; rank++ {
			var candidates []cards.Card
			for suit := 0; suit < 4; suit++ {
				c := cards.NewCard(rank, suit)
				if !board.Has(c) {
					candidates = append(candidates, c)
				}
			}
			if len(candidates) == 0 {
				continue
			}
			pick := candidates[s.rng.Intn(len(candidates))]
			multiplier[pick] = float32(len(candidates))
		}
	}

	type chanceResult struct {
		payoffs, equity []float32
	}
	results := make([]chanceResult, cards.NumCards)

	g := new(errgroup.Group)
	g.SetLimit(s.poolSize())
	oppoIdx := s.rangeIdx[oppo]

	for _, c := range node.ChanceCards {
		if iter <= s.warmup && multiplier[c] == 0 {
			continue
		}
		if s.enableIso && offsets[c.Suit()] < 0 {
			continue
		}
		c := c
		g.Go(func() error {
			newBoard := board.Add(c)
			newReach := make([]float32, len(reachProbs))
			for h := 0; h < oppoIdx.Len(); h++ {
				hand := oppoIdx.Hand(h)
				if hand.OverlapsBoard(cards.NewBoard(c)) {
					continue
				}
				newReach[h] = reachProbs[h] / possibleDeals
			}
			childPayoffs, childEquity := s.cfr(player, node.ChanceChild, newReach, iter, newBoard, nextDeal(deal, c))
			results[c] = chanceResult{childPayoffs, childEquity}
			return nil
		})
	}
	_ = g.Wait()

	payoffs := make([]float32, playerLen)
	var equity []float32
	if s.enableEquity {
		equity = make([]float32, playerLen)
	}

	for _, c := range node.ChanceCards {
		weight := float32(1)
		if iter <= s.warmup {
			weight = multiplier[c]
			if weight == 0 {
				continue
			}
		}

		res := results[c]
		if s.enableIso {
			if offset := offsets[c.Suit()]; offset < 0 {
				canonicalSuit := c.Suit() + offset
				canonicalCard := cards.NewCard(c.Rank(), canonicalSuit)
				res = results[canonicalCard]
				if res.payoffs == nil {
					continue
				}
				res.payoffs = isomorphism.ExchangeColor(res.payoffs, s.rangeIdx[player], c.Suit(), canonicalSuit)
				if s.enableEquity && res.equity != nil {
					res.equity = isomorphism.ExchangeColor(res.equity, s.rangeIdx[player], c.Suit(), canonicalSuit)
				}
			}
		}
		if res.payoffs == nil {
			continue
		}

		for i, v := range res.payoffs {
			payoffs[i] += v * weight
		}
		if s.enableEquity && res.equity != nil {
			for i, v := range res.equity {
				equity[i] += v * weight
			}
		}
	}

	return payoffs, equity
}

// terminalUtility implements spec §4.5.3: a fold's payoff is the folder's
// lost contribution (or the other player's gain), scaled by the opponent's
// effective reach — every opponent hand that does not collide with this
// player's own two cards.
func (s *Solver) terminalUtility(player int, node *treebuild.Node, reachProbs []float32, board cards.Board) ([]float32, []float32) {
	oppo := 1 - player
	playerIdx := s.rangeIdx[player]
	oppoIdx := s.rangeIdx[oppo]

	oppoSum, oppoCardSum := blockerSums(oppoIdx, reachProbs)
	playerPayoff := node.TerminalPayoffs[player]

	payoffs := make([]float32, playerIdx.Len())
	var equity []float32
	if s.enableEquity {
		equity = make([]float32, playerIdx.Len())
	}

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
		payoffs[i] = playerPayoff * effReach
		if s.enableEquity {
			if playerPayoff > 0 {
				equity[i] = effReach
			}
		}
	}
	return payoffs, equity
}

// showdownUtility implements spec §4.5.4's blocker-aware two-pointer sweep
// over the River Rank Cache (sorted strongest first): a pass from the
// weakest hand up accumulates how much of the opponent's reach this
// player's hand beats, a pass from the strongest hand down accumulates how
// much it loses to, and both passes correct for the two cards a hand blocks
// out of the opponent's range as they go. Equal ranks land in neither sum.
func (s *Solver) showdownUtility(player int, node *treebuild.Node, reachProbs []float32, board cards.Board) ([]float32, []float32) {
	oppo := 1 - player
	playerIdx := s.rangeIdx[player]
	oppoIdx := s.rangeIdx[oppo]

	playerCache := s.riverCache(player, board)
	oppoCache := s.riverCache(oppo, board)
	playerEntries := playerCache.Entries()
	oppoEntries := oppoCache.Entries()

	winPayoff := node.ShowdownWin[player]
	losePayoff := node.ShowdownLose[player]

	payoffs := make([]float32, playerIdx.Len())
	var equity []float32
	var effWin, effTotal []float32
	var oppoSum float32
	var oppoCardSum [cards.NumCards]float32
	if s.enableEquity {
		equity = make([]float32, playerIdx.Len())
		effWin = make([]float32, playerIdx.Len())
		effTotal = make([]float32, playerIdx.Len())
		oppoSum, oppoCardSum = blockerSums(oppoIdx, reachProbs)
	}

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
		payoffs[pe.RangeIdx] = win * winPayoff
		if s.enableEquity {
			effWin[pe.RangeIdx] = win
			total := oppoSum - oppoCardSum[pe.Hand.Lo] - oppoCardSum[pe.Hand.Hi]
			if plusIdx := ranges.IndPlayerToPlayer(playerIdx, oppoIdx, pe.RangeIdx); plusIdx != ranges.None {
				total += reachProbs[plusIdx]
			}
			effTotal[pe.RangeIdx] = total
		}
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
		payoffs[pe.RangeIdx] += loss * losePayoff
		if s.enableEquity {
			idx := pe.RangeIdx
			tie := effTotal[idx] - effWin[idx] - loss
			if tie < 0 {
				tie = 0
			}
			equity[idx] = effWin[idx] + 0.5*tie
		}
	}

	return payoffs, equity
}
