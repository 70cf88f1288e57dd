package trainable

import "postflopsolver/common/defaultmap"

// Table is the per-action-node collection of Trainables keyed by abstract
// deal id (spec §3 "abstract deal id", §4.4 "one instance per action node,
// abstract deal"). Entries are created lazily on first touch since most
// action nodes near the root are visited under very few of the deals that
// are structurally possible for them.
type Table struct {
	numActions int
	numHands   int
	coef       Coefficients
	byDeal     defaultmap.DefaultSafemap[int, *Trainable]
}

// NewTable allocates a lazy Trainable table for one action node.
func NewTable(numActions, numHands int, coef Coefficients) *Table {
	t := &Table{numActions: numActions, numHands: numHands, coef: coef}
	t.byDeal = defaultmap.New[int](func() *Trainable {
		return New(t.numActions, t.numHands, t.coef)
	})
	return t
}

// Get returns the Trainable for a given abstract deal, creating it on first
// access.
func (t *Table) Get(deal int) *Trainable { return t.byDeal.Get(deal) }

// Count returns the number of deals materialized so far (for diagnostics).
func (t *Table) Count() int { return t.byDeal.Count() }
