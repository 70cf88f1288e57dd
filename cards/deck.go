package cards

import (
	"math/rand"

	"github.com/idsulik/go-collections/v3/queue"
)

// Deck is a shuffled queue of the 52 cards, used where a caller needs to
// deal concrete cards (the -simulate demo in cmd/solver). The CFR
// engine itself never draws from a Deck — it enumerates the chance node's
// card list directly.
type Deck struct {
	rand      *rand.Rand
	q         *queue.Queue[Card]
	remaining int
}

func NewDeck(r *rand.Rand) *Deck {
	d := &Deck{rand: r}
	d.Reset()
	return d
}

func (d *Deck) Reset() {
	d.q = queue.New[Card](NumCards)
	for _, v := range d.rand.Perm(NumCards) {
		d.q.Enqueue(Card(v))
	}
	d.remaining = NumCards
}

func (d *Deck) Deal() Card {
	c, ok := d.q.Dequeue()
	if !ok {
		panic("cards: deck is empty")
	}
	d.remaining--
	return c
}

func (d *Deck) Remaining() int { return d.remaining }

// All52 returns every card in ascending order, the full "deck size at root"
// (D in the abstract-deal-id encoding of §3). No package in this module
// calls it; treebuild builds its own deck list from the initial board.
func All52() []Card {
	out := make([]Card, NumCards)
	for i := range out {
		out[i] = Card(i)
	}
	return out
}
