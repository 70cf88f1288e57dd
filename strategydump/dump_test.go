package strategydump

import (
	"testing"

	"postflopsolver/cards"
	"postflopsolver/isomorphism"
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

func TestDumpTerminalNodeShape(t *testing.T) {
	var board cards.Board
	oop := mustIndex(t, []ranges.WeightedHand{{Hand: hand(t, "Ac", "Kd"), Weight: 1}}, board)
	ip := mustIndex(t, []ranges.WeightedHand{{Hand: hand(t, "Qc", "Jd"), Weight: 1}}, board)

	d := New([2]*ranges.Index{oop, ip}, isomorphism.New(), false, false, 0)
	out := d.Dump(&treebuild.Node{Kind: treebuild.NodeTerminal}, board, 0)

	if out["node_type"] != "terminal_node" {
		t.Errorf("node_type = %v, want terminal_node", out["node_type"])
	}
}

func TestDumpActionNodeShape(t *testing.T) {
	var board cards.Board
	oop := mustIndex(t, []ranges.WeightedHand{{Hand: hand(t, "Ac", "Kd"), Weight: 1}}, board)
	ip := mustIndex(t, []ranges.WeightedHand{{Hand: hand(t, "Qc", "Jd"), Weight: 1}}, board)

	terminal := &treebuild.Node{Kind: treebuild.NodeTerminal}
	node := &treebuild.Node{
		Kind:       treebuild.NodeAction,
		Player:     0,
		Actions:    []treebuild.Action{treebuild.CheckCall},
		BetAmounts: []int{0},
		Children:   []*treebuild.Node{terminal},
		Trainables: trainable.NewTable(1, oop.Len(), trainable.DefaultCoefficients),
	}

	d := New([2]*ranges.Index{oop, ip}, isomorphism.New(), false, false, 0)
	out := d.Dump(node, board, 0)

	if out["node_type"] != "action_node" {
		t.Fatalf("node_type = %v, want action_node", out["node_type"])
	}
	strat, ok := out["strategy"].(map[string]any)
	if !ok {
		t.Fatal("strategy block missing or wrong type")
	}
	byHand, ok := strat["strategy"].(map[string][]float64)
	if !ok {
		t.Fatal("strategy.strategy block missing or wrong type")
	}
	row, ok := byHand[oop.Hand(0).String()]
	if !ok {
		t.Fatalf("no strategy row for %s", oop.Hand(0).String())
	}
	if len(row) != 1 || row[0] != 1 {
		t.Errorf("single-action strategy row = %v, want [1]", row)
	}
	if _, ok := out["equities"]; ok {
		t.Error("equities block present despite enableEquity=false")
	}
}

func TestPermuteHandLabelSwapsSuits(t *testing.T) {
	// c=0, d=1, h=2, s=3 (cards.SuitChar ordering).
	got := permuteHandLabel("AhKs", 2, 3)
	want := "AsKh"
	if got != want {
		t.Errorf("permuteHandLabel(%q, h, s) = %q, want %q", "AhKs", got, want)
	}
}

func TestPermuteHandLabelLeavesNonMatchingSuitsAlone(t *testing.T) {
	// Swapping two suits that don't appear in the label at all must be a no-op.
	label := "AhKh"
	swapped := permuteHandLabel(label, 0, 1) // clubs and diamonds
	if swapped != label {
		t.Errorf("permuteHandLabel with unrelated suits = %q, want unchanged %q", swapped, label)
	}
}

func TestPermuteHandLabelRejectsWrongLength(t *testing.T) {
	if got := permuteHandLabel("AhK", 0, 1); got != "AhK" {
		t.Errorf("permuteHandLabel on malformed label = %q, want passthrough", got)
	}
}

func TestRound3AndRound2(t *testing.T) {
	if got := round3(0.1236); got != 0.124 {
		t.Errorf("round3(0.1236) = %v, want 0.124", got)
	}
	if got := round2(1.24); got != 1.24 {
		t.Errorf("round2(1.24) = %v, want 1.24", got)
	}
}
