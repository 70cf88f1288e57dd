package treebuild

import "postflopsolver/cards"

// Config is the betting-abstraction configuration the builder consumes
// (spec §6 "Driver configuration"'s tree-shape fields: oop_commit, ip_commit,
// current_round, raise_limit, small_blind, big_blind, stack,
// allin_threshold). The original reference solver's own GameTree
// construction code is outside this pack's retrieved sources, so this
// builder's sizing rules are derived directly from the config fields the
// spec names and from the teacher's Round betting logic (fold/check-call/
// half-pot/pot/all-in), not transcribed from a GameTree.cpp.
type Config struct {
	SmallBlind, BigBlind, Stack int
	OopCommit, IpCommit         float64
	CurrentRound                Round
	RaiseLimit                  int
	AllinThreshold              float64
	InitialBoard                cards.Board
}

// Builder constructs the public tree once from a Config. OOP is player 0,
// IP is player 1 (heads-up convention, matching the teacher's two-player
// nolimitholdem engine).
type Builder struct {
	cfg  Config
	deck []cards.Card
}

func New(cfg Config) *Builder {
	deck := make([]cards.Card, 0, cards.NumCards)
	for c := cards.Card(0); c < cards.NumCards; c++ {
		if !cfg.InitialBoard.Has(c) {
			deck = append(deck, c)
		}
	}
	return &Builder{cfg: cfg, deck: deck}
}

// street carries the mutable betting state threaded through recursion.
type street struct {
	round       Round
	board       cards.Board
	contributed [2]int
	raises      int
	acted       [2]bool
	toAct       int
}

func (b *Builder) stacks(s *street) [2]int {
	return [2]int{
		b.cfg.Stack - s.contributed[0],
		b.cfg.Stack - s.contributed[1],
	}
}

// Build returns the root node of the public tree.
func (b *Builder) Build() *Node {
	rootCommit := [2]int{
		int(b.cfg.OopCommit * float64(b.cfg.Stack)),
		int(b.cfg.IpCommit * float64(b.cfg.Stack)),
	}
	s := &street{
		round:       b.cfg.CurrentRound,
		board:       b.cfg.InitialBoard,
		contributed: rootCommit,
		toAct:       0,
	}
	return b.buildRound(s)
}

// buildRound dispatches either into a betting sequence or, once neither
// player can act further (both all-in), straight into a chance-only runout
// to showdown (spec §5's scheduling model never reintroduces betting once
// stacks are exhausted).
func (b *Builder) buildRound(s *street) *Node {
	stacks := b.stacks(s)
	if stacks[0] == 0 && stacks[1] == 0 {
		return b.runout(s)
	}
	return b.buildBetting(s)
}

// runout deals every remaining street with no action nodes in between,
// ending in a showdown (both players are committed with nothing left to
// decide).
func (b *Builder) runout(s *street) *Node {
	if s.round == River {
		return b.showdown(s)
	}
	return b.buildChance(s, false)
}

func (b *Builder) totalPot(s *street) int {
	return s.contributed[0] + s.contributed[1]
}

// legalActions mirrors the teacher's Round.LegalActions/ProceedRound sizing
// rules, generalized with a raise cap (RaiseLimit) and a shove-only floor
// (AllinThreshold): a sized raise is offered only while it would leave the
// raiser with at least AllinThreshold of the resulting pot behind, and no
// more than RaiseLimit raises are offered per street.
func (b *Builder) legalActions(s *street) ([]Action, []int) {
	stacks := b.stacks(s)
	p := s.toAct
	callAmount := s.contributed[1-p] - s.contributed[p]
	if callAmount < 0 {
		callAmount = 0
	}

	var actions []Action
	var amounts []int
	if callAmount > 0 {
		actions = append(actions, Fold)
		amounts = append(amounts, 0)
	}
	callSize := callAmount
	if callSize > stacks[p] {
		callSize = stacks[p]
	}
	actions = append(actions, CheckCall)
	amounts = append(amounts, callSize)

	if callAmount >= stacks[p] {
		return actions, amounts // call (or check) is already all the player has
	}

	potAfterCall := callAmount + b.totalPot(s)
	potRaise := callAmount + potAfterCall
	halfPotRaise := callAmount + potAfterCall/2

	if s.raises < b.cfg.RaiseLimit {
		if halfPotRaise > callAmount && halfPotRaise <= stacks[p] &&
			float64(stacks[p]-halfPotRaise) >= b.cfg.AllinThreshold*float64(potAfterCall+halfPotRaise-callAmount) {
			actions = append(actions, RaiseHalfPot)
			amounts = append(amounts, halfPotRaise)
		}
		if potRaise > callAmount && potRaise <= stacks[p] &&
			float64(stacks[p]-potRaise) >= b.cfg.AllinThreshold*float64(potAfterCall+potRaise-callAmount) {
			actions = append(actions, RaisePot)
			amounts = append(amounts, potRaise)
		}
	}

	actions = append(actions, AllIn)
	amounts = append(amounts, stacks[p])

	return actions, amounts
}

func (b *Builder) buildBetting(s *street) *Node {
	p := s.toAct
	actions, amounts := b.legalActions(s)
	callAmount := s.contributed[1-p] - s.contributed[p]

	node := &Node{
		Kind:       NodeAction,
		Round:      s.round,
		Player:     p,
		Actions:    actions,
		BetAmounts: amounts,
		FacingBet:  callAmount > 0,
		Children:   make([]*Node, len(actions)),
		// Trainables is left nil here: its shape depends on the acting
		// player's range size, which the builder never sees. cfr.Setup
		// walks the finished tree once ranges are known and attaches one
		// trainable.Table per action node (mirrors the reference solver's
		// own two-phase build-then-setTrainable structure).
	}

	for i, a := range actions {
		switch a {
		case Fold:
			node.Children[i] = b.foldTerminal(s, p)
		default:
			ns := *s
			ns.contributed[p] = s.contributed[p] + amounts[i]
			ns.acted[p] = true
			if a == RaiseHalfPot || a == RaisePot || a == AllIn {
				if amounts[i] > callAmount {
					ns.raises = s.raises + 1
					ns.acted[1-p] = false
				}
			}
			ns.toAct = 1 - p
			node.Children[i] = b.advance(&ns)
		}
	}
	return node
}

// advance decides whether the street is over (both players matched and both
// have acted since the last raise) and either continues betting, deals the
// next street, or goes to showdown.
func (b *Builder) advance(s *street) *Node {
	streetOver := s.contributed[0] == s.contributed[1] && s.acted[0] && s.acted[1]
	stacks := b.stacks(s)
	bothAllIn := stacks[0] == 0 && stacks[1] == 0
	if !streetOver && !bothAllIn {
		return b.buildBetting(s)
	}
	if s.round == River {
		return b.showdown(s)
	}
	return b.buildChance(s, !bothAllIn)
}

// buildChance lists every card not on the initial board (spec §3 "Chance
// node"). The child subtree is shared by all dealt cards, so a chance node
// on a later street still lists the cards dealt on earlier streets of the
// path. nextHasBetting controls whether the dealt card leads back into a
// betting round or straight into a further runout (both players already
// all-in).
func (b *Builder) buildChance(s *street, nextHasBetting bool) *Node {
	remaining := make([]cards.Card, 0, len(b.deck))
	for _, c := range b.deck {
		if !s.board.Has(c) {
			remaining = append(remaining, c)
		}
	}

	ns := *s
	ns.round = s.round + 1
	ns.raises = 0
	ns.acted = [2]bool{}
	ns.toAct = 0 // OOP acts first on every new street

	var child *Node
	if nextHasBetting {
		child = b.buildRound(&ns)
	} else {
		child = b.runout(&ns)
	}

	return &Node{
		Kind:        NodeChance,
		Round:       s.round,
		ChanceCards: remaining,
		ChanceChild: child,
	}
}

// foldTerminal builds the fold payoff vector: the folder loses exactly what
// they put in, the other player wins it (spec §3 "signed pot-share per
// player").
func (b *Builder) foldTerminal(s *street, folder int) *Node {
	winner := 1 - folder
	var payoffs [2]float32
	payoffs[folder] = -float32(s.contributed[folder])
	payoffs[winner] = float32(s.contributed[folder])
	return &Node{Kind: NodeTerminal, Round: s.round, TerminalPayoffs: payoffs}
}

// showdown builds the showdown node: at NOTTIE the winner nets the loser's
// contribution and the loser nets the negative of their own (heads-up, so
// both players have contributed equally by the time a hand reaches
// showdown); a tie implicitly returns each player's own contribution.
func (b *Builder) showdown(s *street) *Node {
	half := float32(s.contributed[0])
	return &Node{
		Kind:         NodeShowdown,
		Round:        s.round,
		ShowdownWin:  [2]float32{half, half},
		ShowdownLose: [2]float32{-half, -half},
	}
}
