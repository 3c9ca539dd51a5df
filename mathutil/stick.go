package mathutil

import (
	"math"
	"math/rand"
)

const stickEps = 1e-10

// Stick-breaking constructions for the hierarchical region weights.
// Both return a vector on the simplex: the final stick is pinned to
// one so the remaining mass is always absorbed.

// GlobalStickWeights draws the shared top-level weights given the
// per-region global counts and the concentration alphaH
func GlobalStickWeights(rng *rand.Rand, alphaH float64, counts []int32) []float64 {
	n := len(counts)
	v := make([]float64, n)
	incs := InverseCumSumInt32(counts)

	for i := 0; i < n-1; i += 1 {
		a := 1 + float64(counts[i])
		b := alphaH + incs[i+1]
		if b <= 0 {
			b = stickEps
		}
		v[i] = Beta(rng, a, b)
	}
	v[n-1] = 1

	return foldSticks(v)
}

// RestaurantStickWeights draws one document's weights given its
// concentration alpha, the global weights and the document's region
// counts
func RestaurantStickWeights(rng *rand.Rand, alpha float64, wglob []float64, counts []int32) []float64 {
	n := len(wglob)
	v := make([]float64, n)
	wcs := CumSum(wglob)
	incs := InverseCumSumInt32(counts)

	for i := 0; i < n-1; i += 1 {
		a := alpha*wglob[i] + float64(counts[i])
		b := alpha*(1-wcs[i]) + incs[i+1]
		if a <= 0 {
			a = stickEps
		}
		if b <= 0 {
			b = stickEps
		}
		v[i] = Beta(rng, a, b)
	}
	v[n-1] = 1

	return foldSticks(v)
}

// foldSticks turns stick proportions into weights:
// w[i] = v[i] * prod_{j<i} (1 - v[j]), accumulated in log space
func foldSticks(v []float64) []float64 {
	weights := make([]float64, len(v))
	logRemain := 0.0
	for i, vi := range v {
		// the final stick has vi == 1 and takes all remaining mass
		weights[i] = math.Exp(math.Log(vi) + logRemain)
		logRemain += math.Log1p(-vi)
	}
	return weights
}
