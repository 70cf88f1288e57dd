package cfr

import (
	"math/rand"
	"runtime"

	"postflopsolver/cards"
	"postflopsolver/common/safemap"
	"postflopsolver/compairer"
	"postflopsolver/isomorphism"
	"postflopsolver/ranges"
	"postflopsolver/rivercache"
	"postflopsolver/trainable"
)

// Solver holds everything the recursive cfr dispatch needs but that does
// not belong on treebuild.Node itself: the two players' Range Indexes, the
// hand-rank evaluator, the isomorphism table, Discounted-CFR warmup state,
// and a per-board River Rank Cache built lazily (spec §4.2, §4.5).
type Solver struct {
	rangeIdx      [2]*ranges.Index
	compairer     compairer.Compairer
	iso           *isomorphism.Table
	coef          trainable.Coefficients
	warmup        int
	printInterval int
	enableEquity  bool
	enableIso     bool
	rng           *rand.Rand
	threads       int
	initialBoard  cards.Board

	riverCaches [2]safemap.Safemap[cards.Board, *rivercache.Cache]
}

// Option configures New.
type Option func(*Solver)

func WithEquity(enabled bool) Option { return func(s *Solver) { s.enableEquity = enabled } }
func WithIsomorphism(enabled bool) Option { return func(s *Solver) { s.enableIso = enabled } }
func WithWarmup(iterations int) Option { return func(s *Solver) { s.warmup = iterations } }
func WithPrintInterval(n int) Option { return func(s *Solver) { s.printInterval = n } }
func WithRand(rng *rand.Rand) Option { return func(s *Solver) { s.rng = rng } }

// WithThreads bounds the chance-node fork-join worker pool (spec §5
// "Scheduling model"). n <= 0 means "default to hardware concurrency",
// matching config.Config's THREADS=-1 default.
func WithThreads(n int) Option { return func(s *Solver) { s.threads = n } }

// WithInitialBoard records the board the tree was built from, which the
// warmup-phase regret sync needs to tell a real sibling card apart from one
// the initial board already accounts for.
func WithInitialBoard(board cards.Board) Option {
	return func(s *Solver) { s.initialBoard = board }
}

// New builds a Solver for a fixed pair of Range Indexes. rangeIdx[0] is OOP,
// rangeIdx[1] is IP, matching the builder's player convention.
func New(rangeIdx [2]*ranges.Index, c compairer.Compairer, coef trainable.Coefficients, opts ...Option) *Solver {
	s := &Solver{
		rangeIdx:  rangeIdx,
		compairer: c,
		iso:       isomorphism.New(),
		coef:      coef,
		enableIso: true,
		rng:       rand.New(rand.NewSource(1)),
	}
	s.riverCaches[0] = safemap.New[cards.Board, *rivercache.Cache]()
	s.riverCaches[1] = safemap.New[cards.Board, *rivercache.Cache]()
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// poolSize resolves the configured worker-pool bound (spec §5), defaulting
// to hardware concurrency whenever threads was left unset or set to a
// non-positive value (config.Config's THREADS=-1 default).
func (s *Solver) poolSize() int {
	if s.threads > 0 {
		return s.threads
	}
	return runtime.GOMAXPROCS(0)
}

func (s *Solver) riverCache(player int, board cards.Board) *rivercache.Cache {
	if c, ok := s.riverCaches[player].Get(board); ok {
		return c
	}
	c := rivercache.Build(s.rangeIdx[player], board, s.compairer)
	s.riverCaches[player].Set(board, c)
	return c
}

// blockerSums returns the total reach and the per-card blocker contribution
// (spec §4.5.1/§4.5.4's "oppo_sum"/"card_sum" running totals), shared by the
// terminal, showdown and EV-recording paths.
func blockerSums(idx *ranges.Index, reach []float32) (float32, [cards.NumCards]float32) {
	var sum float32
	var cardSum [cards.NumCards]float32
	for i := 0; i < idx.Len(); i++ {
		h := idx.Hand(i)
		cardSum[h.Lo] += reach[i]
		cardSum[h.Hi] += reach[i]
		sum += reach[i]
	}
	return sum, cardSum
}

// nextDeal extends an abstract deal id with one more concrete card (spec §3
// "abstract deal id"). The id is just a stable key into each node's
// trainable.Table — unlike the reference solver's pre-sized array, our
// trainable.Table allocates lazily, so the key only needs to be unique and
// reproducible along a given path, not densely packed.
func nextDeal(deal int, c cards.Card) int {
	if deal == 0 {
		return int(c) + 1
	}
	return deal*(cards.NumCards+1) + int(c) + 1
}
