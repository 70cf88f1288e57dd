// Package rangeparser turns a range string (spec §6 "Range parser") into
// the sequence<(hand, weight)> that ranges.New consumes. The format follows
// common poker-tool convention: comma-separated tokens, each either an
// explicit two-card hand ("AhKh"), a pocket pair ("AA"), or a two-rank
// shorthand with an optional suitedness suffix ("AKs", "AKo", "AK" for
// both), any of which may carry a "+" (extend toward the top rank) and/or
// a ":weight" suffix (default weight 1).
package rangeparser

import (
	"fmt"
	"strconv"
	"strings"

	"postflopsolver/cards"
	"postflopsolver/ranges"
)

var rankOrder = "23456789TJQKA"

func rankValue(r byte) (int, error) {
	i := strings.IndexByte(rankOrder, r)
	if i < 0 {
		return 0, fmt.Errorf("rangeparser: unknown rank %q", r)
	}
	return i, nil
}

// Parse parses a full range string into weighted hands. Duplicate hands
// across tokens accumulate by overwriting with the later token's weight,
// matching how range-builder tools let later, more specific tokens refine
// earlier broad ones.
func Parse(s string) ([]ranges.WeightedHand, error) {
	byKey := make(map[int32]ranges.WeightedHand)
	for _, raw := range strings.Split(s, ",") {
		tok := strings.TrimSpace(raw)
		if tok == "" {
			continue
		}
		hands, weight, err := parseToken(tok)
		if err != nil {
			return nil, err
		}
		for _, h := range hands {
			byKey[h.Key()] = ranges.WeightedHand{Hand: h, Weight: weight}
		}
	}
	out := make([]ranges.WeightedHand, 0, len(byKey))
	for _, wh := range byKey {
		out = append(out, wh)
	}
	return out, nil
}

func parseToken(tok string) ([]cards.Hand, float32, error) {
	weight := float32(1)
	if i := strings.IndexByte(tok, ':'); i >= 0 {
		w, err := strconv.ParseFloat(tok[i+1:], 32)
		if err != nil {
			return nil, 0, fmt.Errorf("rangeparser: bad weight in %q: %w", tok, err)
		}
		weight = float32(w)
		tok = tok[:i]
	}

	plus := strings.HasSuffix(tok, "+")
	if plus {
		tok = strings.TrimSuffix(tok, "+")
	}

	// Explicit two-card hand: "AhKh" (rank+suit, rank+suit).
	if len(tok) == 4 && !plus {
		if h, ok := tryExplicitHand(tok); ok {
			return []cards.Hand{h}, weight, nil
		}
	}

	if len(tok) < 2 || len(tok) > 3 {
		return nil, 0, fmt.Errorf("rangeparser: malformed token %q", tok)
	}

	r1, err := rankValue(tok[0])
	if err != nil {
		return nil, 0, err
	}
	r2, err := rankValue(tok[1])
	if err != nil {
		return nil, 0, err
	}

	suitedness := byte(0) // 0 = both, 's' = suited only, 'o' = offsuit only
	if len(tok) == 3 {
		suitedness = tok[2]
		if suitedness != 's' && suitedness != 'o' {
			return nil, 0, fmt.Errorf("rangeparser: unknown suitedness suffix in %q", tok)
		}
	}

	if r1 == r2 {
		if suitedness != 0 {
			return nil, 0, fmt.Errorf("rangeparser: pocket pair %q cannot take a suitedness suffix", tok)
		}
		var hands []cards.Hand
		top := r1
		if plus {
			top = len(rankOrder) - 1
		}
		for rank := r1; rank <= top; rank++ {
			hands = append(hands, pairCombos(rank)...)
		}
		return hands, weight, nil
	}

	// Two distinct ranks: keep the higher rank fixed, vary the kicker.
	// "+" extends the kicker upward, one rank short of the fixed card
	// ("AT+" means AT, AJ, AQ, AK but not AA, which is its own token).
	high, low := r1, r2
	if low > high {
		high, low = low, high
	}
	topKicker := low
	if plus {
		topKicker = high - 1
	}
	var hands []cards.Hand
	for rank := low; rank <= topKicker; rank++ {
		hands = append(hands, twoRankCombos(high, rank, suitedness)...)
	}
	return hands, weight, nil
}

func tryExplicitHand(tok string) (cards.Hand, bool) {
	c1, err1 := cards.ParseCard(tok[0:2])
	c2, err2 := cards.ParseCard(tok[2:4])
	if err1 != nil || err2 != nil || c1 == c2 {
		return cards.Hand{}, false
	}
	return cards.NewHand(c1, c2), true
}

func pairCombos(rank int) []cards.Hand {
	hands := make([]cards.Hand, 0, 6)
	for s1 := 0; s1 < 4; s1++ {
		for s2 := s1 + 1; s2 < 4; s2++ {
			hands = append(hands, cards.NewHand(cards.NewCard(rank, s1), cards.NewCard(rank, s2)))
		}
	}
	return hands
}

func twoRankCombos(highRank, lowRank int, suitedness byte) []cards.Hand {
	var hands []cards.Hand
	for s1 := 0; s1 < 4; s1++ {
		for s2 := 0; s2 < 4; s2++ {
			suited := s1 == s2
			if suitedness == 's' && !suited {
				continue
			}
			if suitedness == 'o' && suited {
				continue
			}
			hands = append(hands, cards.NewHand(cards.NewCard(highRank, s1), cards.NewCard(lowRank, s2)))
		}
	}
	return hands
}
