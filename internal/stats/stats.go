package stats

import (
	"math"
	"sort"
)

// madScale is the consistency constant for a normal distribution.
const madScale = 1.4826

func Mean(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func Sum(vals []float64) float64 {
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum
}

func Median(vals []float64) float64 {
	n := len(vals)
	if n == 0 {
		return math.NaN()
	}
	s := make([]float64, n)
	copy(s, vals)
	sort.Float64s(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// MAD returns the median absolute deviation from the median (unscaled).
func MAD(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	med := Median(vals)
	dev := make([]float64, len(vals))
	for i, v := range vals {
		dev[i] = math.Abs(v - med)
	}
	return Median(dev)
}

// RobustZ returns the robust z-score of each value: deviation from the
// median scaled by 1.4826*MAD. When MAD is 0 or undefined the whole group
// is 0 (division-by-zero guard, not a statistical claim).
func RobustZ(vals []float64) []float64 {
	z := make([]float64, len(vals))
	if len(vals) == 0 {
		return z
	}
	med := Median(vals)
	mad := MAD(vals)
	if mad == 0 || math.IsNaN(mad) {
		return z
	}
	for i, v := range vals {
		z[i] = (v - med) / (madScale * mad)
	}
	return z
}

// Quantile returns the q-th quantile of vals with linear interpolation
// between closest ranks, matching pandas' default.
func Quantile(vals []float64, q float64) float64 {
	n := len(vals)
	if n == 0 {
		return math.NaN()
	}
	s := make([]float64, n)
	copy(s, vals)
	sort.Float64s(s)
	if q <= 0 {
		return s[0]
	}
	if q >= 1 {
		return s[n-1]
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return s[lo]
	}
	frac := pos - float64(lo)
	return s[lo] + frac*(s[hi]-s[lo])
}
