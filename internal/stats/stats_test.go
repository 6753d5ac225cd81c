package stats

import (
	"math"
	"testing"
)

func almost(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestMedian(t *testing.T) {
	if got := Median([]float64{3, 1, 2}); !almost(got, 2) {
		t.Errorf("odd median = %g, want 2", got)
	}
	if got := Median([]float64{4, 1, 3, 2}); !almost(got, 2.5) {
		t.Errorf("even median = %g, want 2.5", got)
	}
	if got := Median(nil); !math.IsNaN(got) {
		t.Errorf("empty median = %g, want NaN", got)
	}
}

func TestMAD(t *testing.T) {
	// deviations from median 3: 2,1,0,1,2 -> median 1
	if got := MAD([]float64{1, 2, 3, 4, 5}); !almost(got, 1) {
		t.Errorf("MAD = %g, want 1", got)
	}
	if got := MAD([]float64{7, 7, 7}); !almost(got, 0) {
		t.Errorf("constant MAD = %g, want 0", got)
	}
	if got := MAD(nil); !math.IsNaN(got) {
		t.Errorf("empty MAD = %g, want NaN", got)
	}
}

func TestRobustZDegenerate(t *testing.T) {
	z := RobustZ([]float64{5, 5, 5, 5})
	for i, v := range z {
		if v != 0 {
			t.Errorf("z[%d] = %g, want 0 when MAD is zero", i, v)
		}
	}
	if z := RobustZ([]float64{42}); len(z) != 1 || z[0] != 0 {
		t.Errorf("single-element z = %v, want [0]", z)
	}
}

func TestRobustZScale(t *testing.T) {
	vals := []float64{1, 2, 3, 4, 100}
	z := RobustZ(vals)
	// median 3, MAD 1: z = (x-3)/1.4826
	want := (100.0 - 3.0) / 1.4826
	if !almost(z[4], want) {
		t.Errorf("z[4] = %g, want %g", z[4], want)
	}
	if !almost(z[2], 0) {
		t.Errorf("z at median = %g, want 0", z[2])
	}
}

func TestQuantileInterpolation(t *testing.T) {
	vals := []float64{1, 2, 3, 4}
	if got := Quantile(vals, 0.5); !almost(got, 2.5) {
		t.Errorf("q50 = %g, want 2.5", got)
	}
	if got := Quantile(vals, 0); !almost(got, 1) {
		t.Errorf("q0 = %g, want 1", got)
	}
	if got := Quantile(vals, 1); !almost(got, 4) {
		t.Errorf("q100 = %g, want 4", got)
	}
	ten := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	// pos = 0.9*9 = 8.1 -> 9 + 0.1*(10-9)
	if got := Quantile(ten, 0.9); !almost(got, 9.1) {
		t.Errorf("q90 = %g, want 9.1", got)
	}
}
