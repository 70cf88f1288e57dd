package cfr

import (
	"math"
	"runtime"
	"testing"

	"postflopsolver/cards"
	"postflopsolver/ranges"
	"postflopsolver/trainable"
	"postflopsolver/treebuild"
)

func card(t *testing.T, s string) cards.Card {
	t.Helper()
	c, err := cards.ParseCard(s)
	if err != nil {
		t.Fatalf("ParseCard(%q): %v", s, err)
	}
	return c
}

func hand(t *testing.T, a, b string) cards.Hand {
	return cards.NewHand(card(t, a), card(t, b))
}

func mustIndex(t *testing.T, hands []ranges.WeightedHand, board cards.Board) *ranges.Index {
	t.Helper()
	idx, err := ranges.New(hands, board)
	if err != nil {
		t.Fatalf("ranges.New: %v", err)
	}
	return idx
}

// topCardCompairer ranks by the higher hole card's rank (bigger rank wins,
// so the returned rank is its negative to keep the lower-is-stronger
// contract). Good enough for exercising the blocker-sum math without
// depending on an external evaluator.
type topCardCompairer struct{}

func (topCardCompairer) Rank(h cards.Hand, _ cards.Board) int {
	top := h.Lo.Rank()
	if h.Hi.Rank() > top {
		top = h.Hi.Rank()
	}
	return -top
}

func newTestSolver(t *testing.T, rangeIdx [2]*ranges.Index) *Solver {
	t.Helper()
	return New(rangeIdx, topCardCompairer{}, trainable.DefaultCoefficients, WithIsomorphism(false))
}

func TestTerminalUtilityScalesByOpponentEffectiveReach(t *testing.T) {
	oopHands := []ranges.WeightedHand{{Hand: hand(t, "Qc", "2h"), Weight: 1}}
	ipHands := []ranges.WeightedHand{
		{Hand: hand(t, "Ac", "2d"), Weight: 1},
		{Hand: hand(t, "Kc", "2s"), Weight: 1},
	}
	var board cards.Board
	oop := mustIndex(t, oopHands, board)
	ip := mustIndex(t, ipHands, board)
	s := newTestSolver(t, [2]*ranges.Index{oop, ip})

	node := &treebuild.Node{Kind: treebuild.NodeTerminal, TerminalPayoffs: [2]float32{5, -5}}
	payoffs, _ := s.terminalUtility(0, node, ip.Weights(), board)

	if len(payoffs) != 1 {
		t.Fatalf("len(payoffs) = %d, want 1", len(payoffs))
	}
	want := float32(5 * 2) // neither IP hand blocks the OOP hand's cards
	if math.Abs(float64(payoffs[0]-want)) > 1e-6 {
		t.Errorf("payoffs[0] = %v, want %v", payoffs[0], want)
	}
}

func TestTerminalUtilityBlockerRemovesOverlappingReach(t *testing.T) {
	oopHands := []ranges.WeightedHand{{Hand: hand(t, "Ac", "2d"), Weight: 1}}
	ipHands := []ranges.WeightedHand{
		{Hand: hand(t, "Ac", "3h"), Weight: 1}, // shares Ac with the OOP hand
		{Hand: hand(t, "Kc", "2s"), Weight: 1},
	}
	var board cards.Board
	oop := mustIndex(t, oopHands, board)
	ip := mustIndex(t, ipHands, board)
	s := newTestSolver(t, [2]*ranges.Index{oop, ip})

	node := &treebuild.Node{Kind: treebuild.NodeTerminal, TerminalPayoffs: [2]float32{1, -1}}
	payoffs, _ := s.terminalUtility(0, node, ip.Weights(), board)

	want := float32(1) // only the Kc2s combo survives the Ac blocker
	if math.Abs(float64(payoffs[0]-want)) > 1e-6 {
		t.Errorf("payoffs[0] = %v, want %v (blocked combo must be excluded)", payoffs[0], want)
	}
}

func TestShowdownUtilityBlockerAndEquity(t *testing.T) {
	oopHands := []ranges.WeightedHand{{Hand: hand(t, "Qc", "Ad"), Weight: 1}}
	ipHands := []ranges.WeightedHand{
		{Hand: hand(t, "Qc", "Jd"), Weight: 1}, // shares Qc with OOP's hand
		{Hand: hand(t, "2c", "3d"), Weight: 1},
	}
	var board cards.Board
	oop := mustIndex(t, oopHands, board)
	ip := mustIndex(t, ipHands, board)
	s := newTestSolver(t, [2]*ranges.Index{oop, ip})
	s.enableEquity = true

	node := &treebuild.Node{
		Kind:         treebuild.NodeShowdown,
		ShowdownWin:  [2]float32{10, 10},
		ShowdownLose: [2]float32{-10, -10},
	}
	payoffs, equity := s.showdownUtility(0, node, ip.Weights(), board)

	// OOP's AceQueen beats both IP hands outright, but the QcJd combo is
	// physically impossible alongside OOP's Qc: only the 2c3d reach (1)
	// counts toward the win.
	wantPayoff := float32(1 * 10)
	if math.Abs(float64(payoffs[0]-wantPayoff)) > 1e-6 {
		t.Errorf("payoffs[0] = %v, want %v", payoffs[0], wantPayoff)
	}
	wantEquity := float32(1)
	if math.Abs(float64(equity[0]-wantEquity)) > 1e-6 {
		t.Errorf("equity[0] = %v, want %v", equity[0], wantEquity)
	}
}

func TestActionUtilitySingleActionIsTransparent(t *testing.T) {
	oopHands := []ranges.WeightedHand{{Hand: hand(t, "Qc", "2h"), Weight: 1}}
	ipHands := []ranges.WeightedHand{{Hand: hand(t, "Ac", "2d"), Weight: 1}}
	var board cards.Board
	oop := mustIndex(t, oopHands, board)
	ip := mustIndex(t, ipHands, board)
	s := newTestSolver(t, [2]*ranges.Index{oop, ip})

	terminal := &treebuild.Node{Kind: treebuild.NodeTerminal, TerminalPayoffs: [2]float32{3, -3}}
	node := &treebuild.Node{
		Kind:       treebuild.NodeAction,
		Player:     0,
		Actions:    []treebuild.Action{treebuild.CheckCall},
		BetAmounts: []int{0},
		Children:   []*treebuild.Node{terminal},
		Trainables: trainable.NewTable(1, oop.Len(), trainable.DefaultCoefficients),
	}

	payoffs, _ := s.actionUtility(0, node, ip.Weights(), 100, board, 0)
	want, _ := s.terminalUtility(0, terminal, ip.Weights(), board)
	if math.Abs(float64(payoffs[0]-want[0])) > 1e-6 {
		t.Errorf("single-action node payoffs = %v, want pass-through %v", payoffs, want)
	}

	tr := node.Trainables.Get(0)
	if tr.CurrentStrategy()[0] != 1 {
		t.Errorf("single-action strategy = %v, want 1 (only legal action)", tr.CurrentStrategy())
	}
}

func TestActionUtilityOpponentNodeReweightsReach(t *testing.T) {
	oopHands := []ranges.WeightedHand{{Hand: hand(t, "Qc", "2h"), Weight: 1}}
	ipHands := []ranges.WeightedHand{{Hand: hand(t, "Ac", "2d"), Weight: 1}}
	var board cards.Board
	oop := mustIndex(t, oopHands, board)
	ip := mustIndex(t, ipHands, board)
	s := newTestSolver(t, [2]*ranges.Index{oop, ip})

	// Both branches lead to the identical terminal, so splitting the reach
	// two ways by the opponent's (uniform) strategy and summing back must
	// reproduce a single unsplit terminalUtility call exactly.
	terminal := &treebuild.Node{Kind: treebuild.NodeTerminal, TerminalPayoffs: [2]float32{3, -3}}
	node := &treebuild.Node{
		Kind:       treebuild.NodeAction,
		Player:     1, // IP's node; we are computing OOP's (player 0) value
		Actions:    []treebuild.Action{treebuild.CheckCall, treebuild.RaisePot},
		BetAmounts: []int{0, 10},
		Children:   []*treebuild.Node{terminal, terminal},
		Trainables: trainable.NewTable(2, ip.Len(), trainable.DefaultCoefficients),
	}

	payoffs, _ := s.actionUtility(0, node, ip.Weights(), 100, board, 0)
	want, _ := s.terminalUtility(0, terminal, ip.Weights(), board)
	if math.Abs(float64(payoffs[0]-want[0])) > 1e-6 {
		t.Errorf("opponent-node payoffs = %v, want %v", payoffs, want)
	}
}

func TestChanceUtilityWithDisjointCardsIsTransparent(t *testing.T) {
	oopHands := []ranges.WeightedHand{{Hand: hand(t, "Qc", "2h"), Weight: 1}}
	ipHands := []ranges.WeightedHand{{Hand: hand(t, "Ac", "2d"), Weight: 1}}
	var board cards.Board
	oop := mustIndex(t, oopHands, board)
	ip := mustIndex(t, ipHands, board)
	s := newTestSolver(t, [2]*ranges.Index{oop, ip})

	terminal := &treebuild.Node{Kind: treebuild.NodeTerminal, TerminalPayoffs: [2]float32{3, -3}}
	chance := &treebuild.Node{
		Kind:        treebuild.NodeChance,
		ChanceCards: []cards.Card{card(t, "7s"), card(t, "8s")},
		ChanceChild: terminal,
	}

	payoffs, _ := s.chanceUtility(0, chance, ip.Weights(), 100, board, 0)
	want, _ := s.terminalUtility(0, terminal, ip.Weights(), board)
	if math.Abs(float64(payoffs[0]-want[0])) > 1e-4 {
		t.Errorf("chanceUtility payoffs = %v, want %v", payoffs, want)
	}
}

func TestSetupAttachesTrainablesToEveryActionNode(t *testing.T) {
	oopHands := []ranges.WeightedHand{{Hand: hand(t, "Qc", "2h"), Weight: 1}}
	ipHands := []ranges.WeightedHand{{Hand: hand(t, "Ac", "2d"), Weight: 1}, {Hand: hand(t, "Kc", "2s"), Weight: 1}}
	var board cards.Board
	oop := mustIndex(t, oopHands, board)
	ip := mustIndex(t, ipHands, board)

	terminal := &treebuild.Node{Kind: treebuild.NodeTerminal}
	inner := &treebuild.Node{
		Kind:     treebuild.NodeAction,
		Player:   1,
		Actions:  []treebuild.Action{treebuild.Fold, treebuild.CheckCall},
		Children: []*treebuild.Node{terminal, terminal},
	}
	root := &treebuild.Node{
		Kind:     treebuild.NodeAction,
		Player:   0,
		Actions:  []treebuild.Action{treebuild.CheckCall},
		Children: []*treebuild.Node{inner},
	}

	Setup(root, [2]*ranges.Index{oop, ip}, trainable.DefaultCoefficients)

	if root.Trainables == nil {
		t.Fatal("root.Trainables is nil after Setup")
	}
	if root.Trainables.Get(0).NumHands() != oop.Len() {
		t.Errorf("root trainable sized for %d hands, want %d", root.Trainables.Get(0).NumHands(), oop.Len())
	}
	if inner.Trainables == nil {
		t.Fatal("inner.Trainables is nil after Setup")
	}
	if inner.Trainables.Get(0).NumHands() != ip.Len() {
		t.Errorf("inner trainable sized for %d hands, want %d", inner.Trainables.Get(0).NumHands(), ip.Len())
	}
}

func TestAllAbstractionDealsSingleCardSiblingsShareRankGroup(t *testing.T) {
	acDeal := int(card(t, "Ac")) + 1
	var board cards.Board
	deals := allAbstractionDeals(acDeal, board)

	want := map[int]bool{
		int(card(t, "Ac")) + 1: true,
		int(card(t, "Ad")) + 1: true,
		int(card(t, "Ah")) + 1: true,
		int(card(t, "As")) + 1: true,
	}
	if len(deals) != len(want) {
		t.Fatalf("allAbstractionDeals(%d) = %v, want 4 same-rank siblings", acDeal, deals)
	}
	for _, d := range deals {
		if !want[d] {
			t.Errorf("allAbstractionDeals(%d) included unexpected deal %d", acDeal, d)
		}
	}
}

func TestAllAbstractionDealsSingleCardExcludesBoardBlockedSibling(t *testing.T) {
	acDeal := int(card(t, "Ac")) + 1
	board := cards.NewBoard(card(t, "Ad"))
	deals := allAbstractionDeals(acDeal, board)

	blocked := int(card(t, "Ad")) + 1
	for _, d := range deals {
		if d == blocked {
			t.Errorf("allAbstractionDeals(%d) included board-blocked sibling %d", acDeal, blocked)
		}
	}
	if len(deals) != 3 {
		t.Errorf("allAbstractionDeals(%d) = %v, want 3 deals with Ad blocked", acDeal, deals)
	}
}

func TestAllAbstractionDealsTwoCardEnumeratesBothRankGroups(t *testing.T) {
	const base = cards.NumCards + 1
	acDeal := int(card(t, "Ac")) + 1
	deal := acDeal*base + int(card(t, "2d")) + 1

	var board cards.Board
	deals := allAbstractionDeals(deal, board)

	// Ac (rank group: c,d,h,s) paired with 2d (rank group: c,d,h,s), no
	// self-pairs since the two ranks differ, so all 16 combos are valid.
	if len(deals) != 16 {
		t.Fatalf("allAbstractionDeals(%d) = %v, want 16 combos", deal, deals)
	}
	if !containsInt(deals, deal) {
		t.Errorf("allAbstractionDeals(%d) = %v, want it to include the deal itself", deal, deals)
	}
}

func TestAllAbstractionDealsTwoCardSkipsLiteralSelfPairAndBlocked(t *testing.T) {
	const base = cards.NumCards + 1
	acDeal := int(card(t, "Ac")) + 1
	// Pair Ac with Ad: same rank group on both sides, so (Ac,Ac) and
	// (Ad,Ad) must be excluded as literal self-pairs.
	deal := acDeal*base + int(card(t, "Ad")) + 1

	board := cards.NewBoard(card(t, "Ah"))
	deals := allAbstractionDeals(deal, board)

	selfPairAc := acDeal*base + int(card(t, "Ac")) + 1
	selfPairAd := (int(card(t, "Ad"))+1)*base + int(card(t, "Ad")) + 1
	for _, d := range deals {
		if d == selfPairAc || d == selfPairAd {
			t.Errorf("allAbstractionDeals(%d) included a literal self-pair: %d", deal, d)
		}
	}
	for _, d := range deals {
		firstCard := d/base - 1
		secondCard := d%base - 1
		if cards.Card(firstCard) == card(t, "Ah") || cards.Card(secondCard) == card(t, "Ah") {
			t.Errorf("allAbstractionDeals(%d) included board-blocked Ah in deal %d", deal, d)
		}
	}
	// 4x4 grid (16) minus the 4 literal self-pairs (i==j within the shared
	// group) minus the 6 remaining combos touching the blocked Ah.
	if len(deals) != 6 {
		t.Errorf("allAbstractionDeals(%d) = %v (len %d), want 6", deal, deals, len(deals))
	}
}

func containsInt(xs []int, want int) bool {
	for _, x := range xs {
		if x == want {
			return true
		}
	}
	return false
}

func TestActionUtilityWarmupSyncsSiblingDealsAverageStrategy(t *testing.T) {
	oopHands := []ranges.WeightedHand{{Hand: hand(t, "Qc", "2h"), Weight: 1}}
	ipHands := []ranges.WeightedHand{{Hand: hand(t, "Kc", "2d"), Weight: 1}}
	var board cards.Board
	oop := mustIndex(t, oopHands, board)
	ip := mustIndex(t, ipHands, board)
	s := newTestSolver(t, [2]*ranges.Index{oop, ip})
	s.warmup = 0

	low := &treebuild.Node{Kind: treebuild.NodeTerminal, TerminalPayoffs: [2]float32{1, -1}}
	high := &treebuild.Node{Kind: treebuild.NodeTerminal, TerminalPayoffs: [2]float32{9, -9}}
	node := &treebuild.Node{
		Kind:       treebuild.NodeAction,
		Player:     0,
		Actions:    []treebuild.Action{treebuild.CheckCall, treebuild.AllIn},
		BetAmounts: []int{0, 10},
		Children:   []*treebuild.Node{low, high},
		Trainables: trainable.NewTable(2, oop.Len(), trainable.DefaultCoefficients),
	}

	acDeal := int(card(t, "Ac")) + 1
	s.actionUtility(0, node, ip.Weights(), 0, board, acDeal)

	canonical := node.Trainables.Get(acDeal)
	siblingDeal := int(card(t, "Ad")) + 1
	sibling := node.Trainables.Get(siblingDeal)

	wantAvg := canonical.AverageStrategy()
	gotAvg := sibling.AverageStrategy()
	if len(gotAvg) != len(wantAvg) {
		t.Fatalf("sibling average strategy len = %d, want %d", len(gotAvg), len(wantAvg))
	}
	for i := range wantAvg {
		if math.Abs(float64(gotAvg[i]-wantAvg[i])) > 1e-6 {
			t.Errorf("sibling average strategy[%d] = %v, want synced %v", i, gotAvg[i], wantAvg[i])
		}
	}
}

func TestActionUtilityBelowWarmupSkipsUpdateAndSync(t *testing.T) {
	oopHands := []ranges.WeightedHand{{Hand: hand(t, "Qc", "2h"), Weight: 1}}
	ipHands := []ranges.WeightedHand{{Hand: hand(t, "Kc", "2d"), Weight: 1}}
	var board cards.Board
	oop := mustIndex(t, oopHands, board)
	ip := mustIndex(t, ipHands, board)
	s := newTestSolver(t, [2]*ranges.Index{oop, ip})
	s.warmup = 5

	low := &treebuild.Node{Kind: treebuild.NodeTerminal, TerminalPayoffs: [2]float32{1, -1}}
	high := &treebuild.Node{Kind: treebuild.NodeTerminal, TerminalPayoffs: [2]float32{9, -9}}
	node := &treebuild.Node{
		Kind:       treebuild.NodeAction,
		Player:     0,
		Actions:    []treebuild.Action{treebuild.CheckCall, treebuild.AllIn},
		BetAmounts: []int{0, 10},
		Children:   []*treebuild.Node{low, high},
		Trainables: trainable.NewTable(2, oop.Len(), trainable.DefaultCoefficients),
	}

	acDeal := int(card(t, "Ac")) + 1
	s.actionUtility(0, node, ip.Weights(), 0, board, acDeal)

	canonical := node.Trainables.Get(acDeal)
	want := canonical.CurrentStrategy()
	for _, p := range want {
		if math.Abs(float64(p-0.5)) > 1e-6 {
			t.Errorf("below-warmup strategy = %v, want untouched uniform 0.5", want)
			break
		}
	}
}

func TestPoolSizeDefaultsToGOMAXPROCS(t *testing.T) {
	oop := mustIndex(t, []ranges.WeightedHand{{Hand: hand(t, "Qc", "2h"), Weight: 1}}, 0)
	ip := mustIndex(t, []ranges.WeightedHand{{Hand: hand(t, "Ac", "2d"), Weight: 1}}, 0)
	s := newTestSolver(t, [2]*ranges.Index{oop, ip})

	if got, want := s.poolSize(), runtime.GOMAXPROCS(0); got != want {
		t.Errorf("poolSize() = %d, want %d (unset defaults to GOMAXPROCS)", got, want)
	}
}

func TestPoolSizeHonorsWithThreads(t *testing.T) {
	oop := mustIndex(t, []ranges.WeightedHand{{Hand: hand(t, "Qc", "2h"), Weight: 1}}, 0)
	ip := mustIndex(t, []ranges.WeightedHand{{Hand: hand(t, "Ac", "2d"), Weight: 1}}, 0)
	s := New([2]*ranges.Index{oop, ip}, topCardCompairer{}, trainable.DefaultCoefficients, WithThreads(3))

	if got := s.poolSize(); got != 3 {
		t.Errorf("poolSize() = %d, want 3", got)
	}
}

func TestPoolSizeTreatsNonPositiveThreadsAsDefault(t *testing.T) {
	oop := mustIndex(t, []ranges.WeightedHand{{Hand: hand(t, "Qc", "2h"), Weight: 1}}, 0)
	ip := mustIndex(t, []ranges.WeightedHand{{Hand: hand(t, "Ac", "2d"), Weight: 1}}, 0)
	s := New([2]*ranges.Index{oop, ip}, topCardCompairer{}, trainable.DefaultCoefficients, WithThreads(-1))

	if got, want := s.poolSize(), runtime.GOMAXPROCS(0); got != want {
		t.Errorf("poolSize() with WithThreads(-1) = %d, want %d", got, want)
	}
}
