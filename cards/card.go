// Package cards defines the primitive Card, Hand and Board types shared by
// every other package in the solver.
package cards

import (
	"fmt"
	"sort"
)

// Card is an integer in [0, 52). Suit = card % 4, rank = card / 4.
type Card int32

const NumCards = 52

var rankChars = [13]byte{'2', '3', '4', '5', '6', '7', '8', '9', 'T', 'J', 'Q', 'K', 'A'}
var suitChars = [4]byte{'c', 'd', 'h', 's'}

// NewCard builds a Card from a rank in [0,13) and a suit in [0,4).
func NewCard(rank, suit int) Card {
	return Card(rank*4 + suit)
}

func (c Card) Suit() int { return int(c) % 4 }
func (c Card) Rank() int { return int(c) / 4 }

// SuitChar returns the one-letter suit code ('c','d','h','s') for a suit
// index in [0,4); used wherever a caller needs to relabel a suit without
// constructing a Card (strategydump's isomorphism permutation).
func SuitChar(suit int) byte { return suitChars[suit] }

// Bit returns the card's position in a Board bitmask.
func (c Card) Bit() uint64 { return uint64(1) << uint(c) }

func (c Card) String() string {
	return fmt.Sprintf("%c%c", rankChars[c.Rank()], suitChars[c.Suit()])
}

// ParseCard parses a two-character string like "Ah" or "Td".
func ParseCard(s string) (Card, error) {
	if len(s) != 2 {
		return 0, fmt.Errorf("cards: malformed card %q", s)
	}
	rank := -1
	for i, r := range rankChars {
		if s[0] == r {
			rank = i
			break
		}
	}
	if rank == -1 {
		return 0, fmt.Errorf("cards: unknown rank in %q", s)
	}
	suit := -1
	for i, suitCh := range suitChars {
		if s[1] == suitCh {
			suit = i
			break
		}
	}
	if suit == -1 {
		return 0, fmt.Errorf("cards: unknown suit in %q", s)
	}
	return NewCard(rank, suit), nil
}

// Board is a 52-bit mask of revealed public cards.
type Board uint64

func NewBoard(cs ...Card) Board {
	var b Board
	for _, c := range cs {
		b |= Board(c.Bit())
	}
	return b
}

func (b Board) Has(c Card) bool { return b&Board(c.Bit()) != 0 }

func (b Board) Add(c Card) Board { return b | Board(c.Bit()) }

func (b Board) Overlaps(other Board) bool { return b&other != 0 }

// Cards returns the board's cards in ascending order.
func (b Board) Cards() []Card {
	out := make([]Card, 0, 8)
	for c := Card(0); c < NumCards; c++ {
		if b.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

func (b Board) Count() int {
	n := 0
	for v := uint64(b); v != 0; v &= v - 1 {
		n++
	}
	return n
}

// Hand is an unordered pair of distinct cards, stored in canonical (low, high) form.
type Hand struct {
	Lo, Hi Card
}

func NewHand(a, b Card) Hand {
	if a == b {
		panic("cards: hand cards must be distinct")
	}
	if a > b {
		a, b = b, a
	}
	return Hand{Lo: a, Hi: b}
}

// Key is a canonical, comparable identity for use as a map key / dedup key.
func (h Hand) Key() int32 { return int32(h.Lo)*NumCards + int32(h.Hi) }

// OverlapsBoard reports whether either card of h is present on board.
func (h Hand) OverlapsBoard(b Board) bool {
	return b.Has(h.Lo) || b.Has(h.Hi)
}

// Overlaps reports whether h and o share a card.
func (h Hand) Overlaps(o Hand) bool {
	return h.Lo == o.Lo || h.Lo == o.Hi || h.Hi == o.Lo || h.Hi == o.Hi
}

func (h Hand) String() string {
	return h.Lo.String() + h.Hi.String()
}

// SortCards sorts a card slice ascending; used by evaluators needing canonical order.
func SortCards(cs []Card) {
	sort.Slice(cs, func(i, j int) bool { return cs[i] < cs[j] })
}
