// Package trainable implements the Discounted-CFR regret and average
// strategy accumulator of spec §4.4: one instance per (action node, abstract
// deal), storing action-major regret and cumulative-strategy arrays sized
// |actions|*|range|.
package trainable

import "math"

// Coefficients are the Discounted-CFR tuning constants (α, β, γ, θ).
// Defaults reproduce the classical DCFR schedule.
type Coefficients struct {
	Alpha float64
	Beta  float64
	Gamma float64
	Theta float64
}

// DefaultCoefficients is the classical DCFR tuning: α=1.5, β=0, γ=2, θ=1.
var DefaultCoefficients = Coefficients{Alpha: 1.5, Beta: 0, Gamma: 2, Theta: 1}

// Trainable is one action node's regret/strategy accumulator for a single
// abstract deal. Arrays are action-major: index = action*numHands + hand.
type Trainable struct {
	numActions int
	numHands   int
	coef       Coefficients

	rPlus    []float32
	rPlusSum []float32
	cumRPlus []float32
	evs      []float32
	equities []float32
}

// New allocates a zeroed Trainable for numActions legal actions over a
// range of numHands hands.
func New(numActions, numHands int, coef Coefficients) *Trainable {
	n := numActions * numHands
	return &Trainable{
		numActions: numActions,
		numHands:   numHands,
		coef:       coef,
		rPlus:      make([]float32, n),
		rPlusSum:   make([]float32, numHands),
		cumRPlus:   make([]float32, n),
		evs:        make([]float32, n),
		equities:   make([]float32, n),
	}
}

func (t *Trainable) NumActions() int { return t.numActions }
func (t *Trainable) NumHands() int   { return t.numHands }

func (t *Trainable) index(action, hand int) int { return action*t.numHands + hand }

// CurrentStrategy derives σ(a|h) from r_plus: max(0, r_plus[a,h]) normalized
// by the hand's r_plus_sum, falling back to uniform when the sum is zero
// (spec §4.4 "Current strategy").
func (t *Trainable) CurrentStrategy() []float32 {
	out := make([]float32, t.numActions*t.numHands)
	for h := 0; h < t.numHands; h++ {
		if t.rPlusSum[h] > 0 {
			for a := 0; a < t.numActions; a++ {
				idx := t.index(a, h)
				v := t.rPlus[idx]
				if v < 0 {
					v = 0
				}
				out[idx] = v / t.rPlusSum[h]
			}
		} else {
			uniform := float32(1) / float32(t.numActions)
			for a := 0; a < t.numActions; a++ {
				out[t.index(a, h)] = uniform
			}
		}
	}
	return out
}

// AverageStrategy derives σ̄(a|h) from cum_r_plus, the DCFR average-strategy
// numerator, falling back to uniform when its hand-sum is zero (spec §4.4
// "Average strategy").
func (t *Trainable) AverageStrategy() []float32 {
	out := make([]float32, t.numActions*t.numHands)
	for h := 0; h < t.numHands; h++ {
		var sum float32
		for a := 0; a < t.numActions; a++ {
			sum += t.cumRPlus[t.index(a, h)]
		}
		if sum > 0 {
			for a := 0; a < t.numActions; a++ {
				out[t.index(a, h)] = t.cumRPlus[t.index(a, h)] / sum
			}
		} else {
			uniform := float32(1) / float32(t.numActions)
			for a := 0; a < t.numActions; a++ {
				out[t.index(a, h)] = uniform
			}
		}
	}
	return out
}

// UpdateRegrets folds one iteration's regrets into r_plus under the DCFR
// schedule and rolls the resulting current strategy into cum_r_plus (spec
// §4.4 "updateRegrets"). t is the 1-indexed iteration number just completed
// (the caller passes the post-increment count, matching the reference
// solver's iteration_number+1 convention).
func (tr *Trainable) UpdateRegrets(regrets []float32, t int) {
	alphaCoef := math.Pow(float64(t), tr.coef.Alpha)
	alphaCoef = alphaCoef / (1 + alphaCoef)

	for h := 0; h < tr.numHands; h++ {
		tr.rPlusSum[h] = 0
	}
	for a := 0; a < tr.numActions; a++ {
		for h := 0; h < tr.numHands; h++ {
			idx := tr.index(a, h)
			tr.rPlus[idx] += regrets[idx]
			if tr.rPlus[idx] > 0 {
				tr.rPlus[idx] *= float32(alphaCoef)
			} else {
				tr.rPlus[idx] *= float32(tr.coef.Beta)
			}
			if v := tr.rPlus[idx]; v > 0 {
				tr.rPlusSum[h] += v
			}
		}
	}

	current := tr.CurrentStrategy()
	strategyCoef := math.Pow(float64(t)/float64(t+1), tr.coef.Gamma)
	for a := 0; a < tr.numActions; a++ {
		for h := 0; h < tr.numHands; h++ {
			idx := tr.index(a, h)
			tr.cumRPlus[idx] = tr.cumRPlus[idx]*float32(tr.coef.Theta) + current[idx]*float32(strategyCoef)
		}
	}
}

// SetEVs and SetEquities record the last-observed per-hand, per-action
// EV/equity (spec §4.4's optional evs/equities fields). NaN entries are
// skipped, matching the reference solver's "only overwrite finite values".
func (t *Trainable) SetEVs(evs []float32)      { copyFinite(t.evs, evs) }
func (t *Trainable) SetEquities(eqs []float32) { copyFinite(t.equities, eqs) }

func (t *Trainable) EVs() []float32      { return t.evs }
func (t *Trainable) Equities() []float32 { return t.equities }

func copyFinite(dst, src []float32) {
	for i, v := range src {
		if v == v { // false only for NaN
			dst[i] = v
		}
	}
}

// CopyStrategy overwrites this Trainable's r_plus and cum_r_plus with
// another's, used to synchronize isomorphism-equivalent trainables at the
// warmup boundary (spec §4.3/§4.4's copyStrategy).
func (t *Trainable) CopyStrategy(other *Trainable) {
	copy(t.rPlus, other.rPlus)
	copy(t.cumRPlus, other.cumRPlus)
}
