package mathutil

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Sum returns the sum of the vector
func Sum(v []float64) float64 {
	return floats.Sum(v)
}

// CumSum returns the running sum of the vector
func CumSum(v []float64) []float64 {
	cs := make([]float64, len(v))
	floats.CumSum(cs, v)
	return cs
}

// InverseCumSum returns the running sum taken from the tail, i.e.
// cs[i] = v[i] + v[i+1] + ... + v[len-1]
func InverseCumSum(v []float64) []float64 {
	cs := make([]float64, len(v))
	n := len(v)
	if n == 0 {
		return cs
	}
	cs[n-1] = v[n-1]
	for i := n - 2; i >= 0; i -= 1 {
		cs[i] = cs[i+1] + v[i]
	}
	return cs
}

// InverseCumSumInt32 is InverseCumSum over a count vector
func InverseCumSumInt32(v []int32) []float64 {
	cs := make([]float64, len(v))
	n := len(v)
	if n == 0 {
		return cs
	}
	cs[n-1] = float64(v[n-1])
	for i := n - 2; i >= 0; i -= 1 {
		cs[i] = cs[i+1] + float64(v[i])
	}
	return cs
}

// LogSum computes log(exp(a) + exp(b)) without leaving log space
func LogSum(a, b float64) float64 {
	if math.IsInf(a, -1) {
		return b
	}
	if math.IsInf(b, -1) {
		return a
	}
	if a < b {
		a, b = b, a
	}
	return a + math.Log1p(math.Exp(b-a))
}
