// Package isomorphism implements the suit-isomorphism table of spec §4.3:
// detecting which suits are interchangeable on the current board so the CFR
// engine can skip redundant chance branches and reuse an already-computed
// sibling's result instead.
package isomorphism

import (
	"postflopsolver/cards"
	"postflopsolver/common/safemap"
	"postflopsolver/ranges"
)

// suitHash builds one 13-bit rank mask per suit, used to test suit
// equivalence: two suits are interchangeable on a board iff the multiset of
// ranks of board cards carrying that suit is identical.
func suitHash(board cards.Board) [4]uint16 {
	var hash [4]uint16
	for _, c := range board.Cards() {
		hash[c.Suit()] |= 1 << uint(c.Rank())
	}
	return hash
}

// Offsets reports, for each suit in [0,4), how to resolve it against the
// given board: 0 means the suit is canonical; a negative value -k means the
// suit is equivalent to suit-k. Ties among more than two equal-hash suits
// resolve to the *lowest* matching index, so every non-canonical suit points
// straight at its canonical suit (offset 0) in a single hop.
func Offsets(board cards.Board) [4]int {
	hash := suitHash(board)
	var offsets [4]int
	for i := 0; i < 4; i++ {
		offsets[i] = 0
		for j := 0; j < i; j++ {
			if hash[i] == hash[j] {
				offsets[i] = j - i
				break
			}
		}
	}
	return offsets
}

// Canonical follows an offset down to its canonical (offset-0) suit. Offsets
// always points at the lowest equivalent suit, which is itself canonical, so
// the loop takes at most one step.
func Canonical(offsets [4]int, suit int) int {
	for offsets[suit] != 0 {
		suit += offsets[suit]
	}
	return suit
}

// Table memoizes Offsets per board, since the same board is revisited from
// many tree branches during a single solve.
type Table struct {
	cache safemap.Safemap[cards.Board, [4]int]
}

func New() *Table {
	return &Table{cache: safemap.New[cards.Board, [4]int]()}
}

func (t *Table) Offsets(board cards.Board) [4]int {
	if v, ok := t.cache.Get(board); ok {
		return v
	}
	v := Offsets(board)
	t.cache.Set(board, v)
	return v
}

// swapSuits returns c with suits r1 and r2 exchanged; c is untouched if it
// carries neither suit.
func swapSuits(c cards.Card, r1, r2 int) cards.Card {
	switch c.Suit() {
	case r1:
		return cards.NewCard(c.Rank(), r2)
	case r2:
		return cards.NewCard(c.Rank(), r1)
	default:
		return c
	}
}

// SwapHand applies swapSuits to both cards of a hand and re-canonicalizes.
func SwapHand(h cards.Hand, r1, r2 int) cards.Hand {
	return cards.NewHand(swapSuits(h.Lo, r1, r2), swapSuits(h.Hi, r1, r2))
}

// ExchangeColor permutes a per-hand vector (regrets, payoffs, equities) by
// the suit swap (r1, r2), per spec §4.3's exchange_color: hands whose cards
// carry neither suit are fixed points, and the swap is its own inverse, so
// looking up each output slot's pre-image under the same swap is correct in
// both directions. Hands that fall out of idx under the swap (impossible for
// a closed suit permutation, but defensive) contribute zero.
func ExchangeColor(vec []float32, idx *ranges.Index, r1, r2 int) []float32 {
	out := make([]float32, len(vec))
	for i := 0; i < idx.Len(); i++ {
		swapped := SwapHand(idx.Hand(i), r1, r2)
		if j := idx.IndexOf(swapped); j != ranges.None {
			out[i] = vec[j]
		}
	}
	return out
}
