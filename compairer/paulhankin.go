package compairer

import (
	"postflopsolver/cards"

	poker "github.com/paulhankin/poker"
)

// PaulHankinCompairer is the production Compairer, backed by the
// github.com/paulhankin/poker lookup-table evaluator. It is the default
// Compairer wired by cmd/solver; Eval5/Eval7 already return lower-is-better
// scores, matching the Compairer contract directly with no sign flip.
type PaulHankinCompairer struct{}

func NewPaulHankinCompairer() *PaulHankinCompairer { return &PaulHankinCompairer{} }

func toLibCard(c cards.Card) poker.Card {
	var s poker.Suit
	switch c.Suit() {
	case 0:
		s = poker.Club
	case 1:
		s = poker.Diamond
	case 2:
		s = poker.Heart
	default:
		s = poker.Spade
	}
	// Our ranks: 0..12 (Ace=12). Library ranks: 1..13 (Ace=1, King=13).
	var r poker.Rank
	if c.Rank() == 12 {
		r = poker.Rank(1)
	} else {
		r = poker.Rank(c.Rank() + 2)
	}
	card, err := poker.MakeCard(s, r)
	if err != nil {
		panic("compairer: invalid card for paulhankin/poker: " + err.Error())
	}
	return card
}

func (p *PaulHankinCompairer) Rank(hand cards.Hand, board cards.Board) int {
	all := make([]poker.Card, 0, 7)
	all = append(all, toLibCard(hand.Lo), toLibCard(hand.Hi))
	for _, c := range board.Cards() {
		all = append(all, toLibCard(c))
	}
	switch len(all) {
	case 7:
		var a [7]poker.Card
		copy(a[:], all)
		return int(poker.Eval7(&a))
	case 5:
		var a [5]poker.Card
		copy(a[:], all)
		return int(poker.Eval5(&a))
	case 3:
		var a [3]poker.Card
		copy(a[:], all)
		return int(poker.Eval3(&a))
	default:
		return bestOfFiveSubsets(all)
	}
}

// bestOfFiveSubsets handles the 4- and 6-card cases (turn boards, and hole
// cards plus a partial board during incremental isomorphism construction)
// by scoring every 5-card subset and keeping the strongest (lowest) score.
func bestOfFiveSubsets(all []poker.Card) int {
	n := len(all)
	best := -1
	var idx [5]int
	var combo func(start, chosen int)
	combo = func(start, chosen int) {
		if chosen == 5 {
			var a [5]poker.Card
			for i, ix := range idx {
				a[i] = all[ix]
			}
			score := int(poker.Eval5(&a))
			if best == -1 || score < best {
				best = score
			}
			return
		}
		for i := start; i < n; i++ {
			idx[chosen] = i
			combo(i+1, chosen+1)
		}
	}
	combo(0, 0)
	return best
}
