package mathutil

import (
	"math"
	"math/rand"
)

// Random draws for the distributions the spherical sampler needs.
// Every function takes the generator it should draw from; nothing in
// this package touches process-wide random state.

// StandardExponential draws from Exp(1)
func StandardExponential(rng *rand.Rand) float64 {
	// -log(1-U) since U is [0, 1)
	return -math.Log(1.0 - rng.Float64())
}

// StandardGamma draws from Gamma(shape, 1) using the Marsaglia-Tsang
// squeeze for shape >= 1 and the boost-by-uniform-power trick below it
func StandardGamma(rng *rand.Rand, shape float64) float64 {
	if shape == 1.0 {
		return StandardExponential(rng)
	}
	if shape < 1.0 {
		for {
			u := rng.Float64()
			v := StandardExponential(rng)
			if u <= 1.0-shape {
				x := math.Pow(u, 1.0/shape)
				if x <= v {
					return x
				}
			} else {
				y := -math.Log((1 - u) / shape)
				x := math.Pow(1.0-shape+shape*y, 1.0/shape)
				if x <= v+y {
					return x
				}
			}
		}
	}
	b := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9*b)
	for {
		var x, v float64
		for {
			x = rng.NormFloat64()
			v = 1.0 + c*x
			if v > 0.0 {
				break
			}
		}
		v = v * v * v
		u := rng.Float64()
		if u < 1.0-0.0331*(x*x)*(x*x) {
			return b * v
		}
		if math.Log(u) < 0.5*x*x+b*(1.0-v+math.Log(v)) {
			return b * v
		}
	}
}

// Gamma draws from Gamma(shape, scale)
func Gamma(rng *rand.Rand, shape, scale float64) float64 {
	return scale * StandardGamma(rng, shape)
}

// Beta draws from Beta(a, b). Small parameters use Johnk's algorithm
// in log space to dodge underflow, midrange parameters the plain
// Johnk rejection, and everything else the gamma ratio.
func Beta(rng *rand.Rand, a, b float64) float64 {
	if a <= 0.1 || b <= 0.1 {
		for {
			u := rng.Float64()
			v := rng.Float64()
			x := math.Log(u) / a
			y := math.Log(v) / b
			z := LogSum(x, y)
			if z <= 0 {
				val := math.Exp(x - z)
				if 1-val < 1e-10 {
					// a draw of exactly one breaks the downstream
					// stick-breaking logs; nudge it inside
					return 1 - 1e-10
				}
				return val
			}
		}
	}
	if a <= 1.0 && b <= 1.0 {
		for {
			x := math.Pow(rng.Float64(), 1.0/a)
			y := math.Pow(rng.Float64(), 1.0/b)
			if x+y <= 1.0 {
				return x / (x + y)
			}
		}
	}
	ga := StandardGamma(rng, a)
	gb := StandardGamma(rng, b)
	return ga / (ga + gb)
}

// Dirichlet draws a probability vector from Dirichlet(hyper) via
// normalized gamma draws
func Dirichlet(rng *rand.Rand, hyper []float64) []float64 {
	vals := make([]float64, len(hyper))
	s := 0.0
	for i, h := range hyper {
		vals[i] = StandardGamma(rng, h)
		s += vals[i]
	}
	ls := math.Log(s)
	for i := range vals {
		vals[i] = math.Exp(math.Log(vals[i]) - ls)
	}
	return vals
}

// DirichletPosterior draws from Dirichlet(prior + counts)
func DirichletPosterior(rng *rand.Rand, prior float64, counts []int32) []float64 {
	hyper := make([]float64, len(counts))
	for i, n := range counts {
		hyper[i] = prior + float64(n)
	}
	return Dirichlet(rng, hyper)
}
