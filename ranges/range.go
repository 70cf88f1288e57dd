// Package ranges implements the per-player Range Index (spec §4.1): an
// ordered, deduplicated list of weighted hands with fast hand<->index lookup
// and cross-player index translation for blocker reasoning.
package ranges

import (
	"fmt"

	"postflopsolver/cards"
)

// WeightedHand is one entry of an input range before board filtering.
type WeightedHand struct {
	Hand   cards.Hand
	Weight float32
}

// Index is the per-player Range Index described in spec §4.1. Hands that
// overlap the initial board are filtered out at construction; the surviving
// insertion order defines the hand index used everywhere else in the solver.
type Index struct {
	hands    []cards.Hand
	weights  []float32
	byKey    map[int32]int
}

// New builds a Range Index from weighted hands and an initial board,
// dropping hands that overlap the board and failing on duplicate hands in
// the input (spec §4.1, §7 "Input shape").
func New(input []WeightedHand, board cards.Board) (*Index, error) {
	idx := &Index{
		hands:   make([]cards.Hand, 0, len(input)),
		weights: make([]float32, 0, len(input)),
		byKey:   make(map[int32]int, len(input)),
	}
	seen := make(map[int32]bool, len(input))
	for _, wh := range input {
		key := wh.Hand.Key()
		if seen[key] {
			return nil, fmt.Errorf("ranges: duplicate hand %s in range", wh.Hand)
		}
		seen[key] = true
		if wh.Hand.OverlapsBoard(board) {
			continue
		}
		idx.byKey[key] = len(idx.hands)
		idx.hands = append(idx.hands, wh.Hand)
		idx.weights = append(idx.weights, wh.Weight)
	}
	return idx, nil
}

// Len returns the number of surviving hands — |range|.
func (idx *Index) Len() int { return len(idx.hands) }

// Hands returns the ordered hand list (read-only; do not mutate).
func (idx *Index) Hands() []cards.Hand { return idx.hands }

// Hand returns the hand at a given index.
func (idx *Index) Hand(i int) cards.Hand { return idx.hands[i] }

// Weight returns the prior weight of the hand at a given index.
func (idx *Index) Weight(i int) float32 { return idx.weights[i] }

// Weights returns a fresh copy of the prior weight vector, suitable for use
// as an initial reach vector (spec §3 "Reach vector").
func (idx *Index) Weights() []float32 {
	out := make([]float32, len(idx.weights))
	copy(out, idx.weights)
	return out
}

// IndexOf returns the index of a hand, or -1 if absent.
func (idx *Index) IndexOf(h cards.Hand) int {
	if i, ok := idx.byKey[h.Key()]; ok {
		return i
	}
	return -1
}

// None is returned by IndPlayerToPlayer when the identical hand is absent
// from the target player's range.
const None = -1

// IndPlayerToPlayer translates a hand index in one player's range to the
// index of the identical hand in another player's range, or None if the
// target range does not hold that hand (spec §4.1). from/to name which
// Index owns handIdxFrom and which Index is searched.
func IndPlayerToPlayer(from, to *Index, handIdxFrom int) int {
	h := from.Hand(handIdxFrom)
	i := to.IndexOf(h)
	if i < 0 {
		return None
	}
	return i
}
