// Package compairer defines the hand-rank evaluator external interface
// (spec §6) and ships one concrete adapter, PaulHankinCompairer. The evaluator itself is
// explicitly out of scope for this module ("Built from a file-backed lookup
// table"); the CFR engine only ever depends on the Compairer contract below.
package compairer

import "postflopsolver/cards"

// Compairer ranks a two-card hand against a public board. Lower is
// stronger; ranks are totally ordered and ties are exact equality — the
// engine never inspects how a rank was produced.
type Compairer interface {
	Rank(hand cards.Hand, board cards.Board) int
}
