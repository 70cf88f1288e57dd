// Package treebuild constructs the public game tree (spec §3 "Game tree
// nodes", §6 "Game tree") once, from a betting-abstraction configuration,
// and exposes the four node variants the CFR engine dispatches on.
package treebuild

import (
	"postflopsolver/cards"
	"postflopsolver/trainable"
)

// Round mirrors the spec's PREFLOP/FLOP/TURN/RIVER tag.
type Round int

const (
	Preflop Round = iota
	Flop
	Turn
	River
)

func (r Round) String() string {
	switch r {
	case Preflop:
		return "PREFLOP"
	case Flop:
		return "FLOP"
	case Turn:
		return "TURN"
	case River:
		return "RIVER"
	default:
		return "UNKNOWN"
	}
}

// Action is one betting choice. The five variants below are the full
// action surface the builder can emit (spec §4.5.1's "fold/check-call/
// half-pot/pot/all-in sizing and legal-action rules").
type Action int32

const (
	Fold Action = iota
	CheckCall
	RaiseHalfPot
	RaisePot
	AllIn
)

func (a Action) String() string {
	switch a {
	case Fold:
		return "FOLD"
	case CheckCall:
		return "CHECK_CALL"
	case RaiseHalfPot:
		return "RAISE_HALFPOT"
	case RaisePot:
		return "RAISE_POT"
	case AllIn:
		return "ALL_IN"
	default:
		return "UNKNOWN_ACTION"
	}
}

// Label matches the strategy-dump action label convention of spec §6
// ("CHECK", "BET 50", ...): check/call is labeled by context, and sized
// raises carry their chip amount.
func (a Action) Label(betAmount int, facingBet bool) string {
	switch a {
	case Fold:
		return "FOLD"
	case CheckCall:
		if facingBet {
			return "CALL"
		}
		return "CHECK"
	case RaiseHalfPot, RaisePot:
		if facingBet {
			return "RAISE " + itoa(betAmount)
		}
		return "BET " + itoa(betAmount)
	case AllIn:
		return "ALLIN " + itoa(betAmount)
	default:
		return "UNKNOWN"
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// NodeKind tags the four node variants (spec §9 "tagged variant").
type NodeKind int

const (
	NodeAction NodeKind = iota
	NodeChance
	NodeTerminal
	NodeShowdown
)

// Node is the tagged-variant game tree node. Exactly one of the
// kind-specific fields is meaningful for a given Kind.
type Node struct {
	Kind  NodeKind
	Round Round

	// NodeAction fields.
	Player     int
	Actions    []Action
	BetAmounts []int // parallel to Actions; chip size for labeling/terminal payoff math
	FacingBet  bool
	Children   []*Node // parallel to Actions
	Trainables *trainable.Table

	// NodeChance fields.
	ChanceCards []cards.Card
	ChanceChild *Node

	// NodeTerminal fields: signed pot-share payoff per player, spec §3.
	TerminalPayoffs [2]float32

	// NodeShowdown fields: win/lose payoff at NOTTIE; tie is implicitly 0
	// net (pot/2 returned against pot/2 contributed), spec §3/§4.5.4.
	ShowdownWin  [2]float32
	ShowdownLose [2]float32
}

// EstimateTreeMemory implements spec §6's estimate_tree_memory: a byte
// budget for child-result slots at the widest chance node, sized by deck
// cardinality and both range sizes (spec §5 "Memory").
func EstimateTreeMemory(deckSize, rangeSize0, rangeSize1 int, equityEnabled bool) int64 {
	mult := int64(1)
	if equityEnabled {
		mult = 2
	}
	maxRange := int64(rangeSize0)
	if rangeSize1 > rangeSize0 {
		maxRange = int64(rangeSize1)
	}
	return int64(deckSize) * maxRange * mult * 4
}
