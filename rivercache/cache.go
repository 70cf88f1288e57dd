// Package rivercache implements the River Rank Cache (spec §4.2): for a
// fixed board and a player's range, the sorted-by-rank list that every
// showdown node consults instead of re-evaluating hands on every visit.
package rivercache

import (
	"sort"

	"postflopsolver/cards"
	"postflopsolver/compairer"
	"postflopsolver/ranges"
)

// Entry is one row of the cache: a range hand, its evaluator rank on the
// cache's board, and the hand's index back into the owning Range Index
// (the "reach_prob_index" of spec §4.2).
type Entry struct {
	Hand     cards.Hand
	Rank     int
	RangeIdx int
}

// Cache is the sorted-by-rank entry list for one (board, player range) pair.
type Cache struct {
	entries []Entry
}

// Build evaluates every hand in idx against board, drops hands overlapping
// the board, and sorts the survivors by rank ascending (stronger first,
// since the Compairer contract is lower-is-better).
func Build(idx *ranges.Index, board cards.Board, c compairer.Compairer) *Cache {
	entries := make([]Entry, 0, idx.Len())
	for i := 0; i < idx.Len(); i++ {
		h := idx.Hand(i)
		if h.OverlapsBoard(board) {
			continue
		}
		entries = append(entries, Entry{
			Hand:     h,
			Rank:     c.Rank(h, board),
			RangeIdx: i,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Rank < entries[j].Rank })
	return &Cache{entries: entries}
}

// Len returns the number of surviving entries.
func (c *Cache) Len() int { return len(c.entries) }

// At returns the i-th entry in rank-ascending order.
func (c *Cache) At(i int) Entry { return c.entries[i] }

// Entries returns the full sorted slice (read-only; do not mutate).
func (c *Cache) Entries() []Entry { return c.entries }
