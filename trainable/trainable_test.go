package trainable

import (
	"math"
	"testing"
)

func TestCurrentStrategyUniformBeforeAnyUpdate(t *testing.T) {
	tr := New(3, 2, DefaultCoefficients)
	strat := tr.CurrentStrategy()
	for h := 0; h < 2; h++ {
		for a := 0; a < 3; a++ {
			got := strat[a*2+h]
			if math.Abs(float64(got)-1.0/3.0) > 1e-6 {
				t.Errorf("strategy[a=%d,h=%d] = %v, want uniform 1/3", a, h, got)
			}
		}
	}
}

func TestCurrentStrategyFollowsPositiveRegret(t *testing.T) {
	tr := New(2, 1, DefaultCoefficients)
	// action 0 gets all the positive regret, action 1 gets none.
	tr.UpdateRegrets([]float32{1.0, 0.0}, 1)
	strat := tr.CurrentStrategy()
	if strat[0] <= strat[1] {
		t.Errorf("strategy = %v, want action 0 to dominate after positive regret", strat)
	}
}

// TestDiscountedRegretClosedForm drives updateRegrets with a constant
// positive regret of 1.0 across 10 iterations with the classical DCFR
// tuning (alpha=1.5, beta=0, gamma=2, theta=1) and checks r_plus follows
// the closed form sum_{k=1}^{t} product_{j=k}^{t} (j^1.5/(1+j^1.5)),
// which collapses (since each step adds the new increment and then
// multiplies the running total by the new alpha_coef) to the recurrence
// r[t] = (r[t-1] + 1) * alpha_coef(t).
func TestDiscountedRegretClosedForm(t *testing.T) {
	tr := New(1, 1, DefaultCoefficients)
	var want float32
	for k := 1; k <= 10; k++ {
		tr.UpdateRegrets([]float32{1.0}, k)
		alphaCoef := math.Pow(float64(k), 1.5)
		alphaCoef = alphaCoef / (1 + alphaCoef)
		want = (want + 1.0) * float32(alphaCoef)

		got := tr.rPlus[0]
		if diff := math.Abs(float64(got - want)); diff > 1e-5 {
			t.Fatalf("iteration %d: r_plus = %v, want %v (diff %v)", k, got, want, diff)
		}
	}
}

func TestAverageStrategyUniformWhenEmpty(t *testing.T) {
	tr := New(4, 1, DefaultCoefficients)
	avg := tr.AverageStrategy()
	for a := 0; a < 4; a++ {
		if math.Abs(float64(avg[a])-0.25) > 1e-6 {
			t.Errorf("average strategy[%d] = %v, want 0.25", a, avg[a])
		}
	}
}

func TestCopyStrategy(t *testing.T) {
	src := New(2, 2, DefaultCoefficients)
	src.UpdateRegrets([]float32{1, 0, 0, 2}, 1)

	dst := New(2, 2, DefaultCoefficients)
	dst.CopyStrategy(src)

	for i := range dst.rPlus {
		if dst.rPlus[i] != src.rPlus[i] {
			t.Errorf("r_plus[%d] = %v, want %v", i, dst.rPlus[i], src.rPlus[i])
		}
	}
	for i := range dst.cumRPlus {
		if dst.cumRPlus[i] != src.cumRPlus[i] {
			t.Errorf("cum_r_plus[%d] = %v, want %v", i, dst.cumRPlus[i], src.cumRPlus[i])
		}
	}
}

func TestSetEVsSkipsNaN(t *testing.T) {
	tr := New(1, 2, DefaultCoefficients)
	tr.SetEVs([]float32{1.5, float32(math.NaN())})
	if tr.EVs()[0] != 1.5 {
		t.Errorf("EVs()[0] = %v, want 1.5", tr.EVs()[0])
	}
	if tr.EVs()[1] != 0 {
		t.Errorf("EVs()[1] = %v, want untouched 0 (NaN input skipped)", tr.EVs()[1])
	}
}

func TestTableLazyCreation(t *testing.T) {
	table := NewTable(2, 3, DefaultCoefficients)
	if table.Count() != 0 {
		t.Fatalf("Count() = %d, want 0 before any Get", table.Count())
	}
	tr := table.Get(5)
	if tr.NumActions() != 2 || tr.NumHands() != 3 {
		t.Fatalf("Get(5) shape = (%d,%d), want (2,3)", tr.NumActions(), tr.NumHands())
	}
	if table.Get(5) != tr {
		t.Errorf("Get(5) returned a different instance on second call")
	}
	if table.Count() != 1 {
		t.Errorf("Count() = %d, want 1", table.Count())
	}
}
