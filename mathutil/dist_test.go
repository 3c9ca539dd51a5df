package mathutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStandardGammaPositive(t *testing.T) {
	rng := NewRand(42)

	for _, shape := range []float64{0.1, 0.5, 1.0, 2.5, 30.0} {
		for i := 0; i < 200; i += 1 {
			assert.Greater(t, StandardGamma(rng, shape), 0.0, "shape %f", shape)
		}
	}
}

func TestGammaMean(t *testing.T) {
	rng := NewRand(7)

	// Gamma(k, theta) has mean k*theta
	sum := 0.0
	n := 20000
	for i := 0; i < n; i += 1 {
		sum += Gamma(rng, 3.0, 2.0)
	}
	assert.InDelta(t, 6.0, sum/float64(n), 0.15)
}

func TestBetaInUnitInterval(t *testing.T) {
	rng := NewRand(11)

	for _, ab := range [][2]float64{{0.05, 0.05}, {0.5, 0.7}, {1, 1}, {5, 2}, {80, 0.3}} {
		for i := 0; i < 200; i += 1 {
			v := Beta(rng, ab[0], ab[1])
			assert.Greater(t, v, 0.0)
			assert.Less(t, v, 1.0)
		}
	}
}

func TestBetaMean(t *testing.T) {
	rng := NewRand(13)

	// Beta(a, b) has mean a/(a+b)
	sum := 0.0
	n := 20000
	for i := 0; i < n; i += 1 {
		sum += Beta(rng, 2.0, 6.0)
	}
	assert.InDelta(t, 0.25, sum/float64(n), 0.01)
}

func TestDirichletSimplex(t *testing.T) {
	rng := NewRand(3)

	for i := 0; i < 100; i += 1 {
		v := Dirichlet(rng, []float64{0.3, 1.5, 7.0, 0.9})
		assert.InDelta(t, 1.0, Sum(v), 1e-9)
		for _, x := range v {
			assert.GreaterOrEqual(t, x, 0.0)
		}
	}
}

func TestDirichletPosteriorSimplex(t *testing.T) {
	rng := NewRand(5)

	v := DirichletPosterior(rng, 0.5, []int32{4, 0, 19, 2})
	assert.InDelta(t, 1.0, Sum(v), 1e-9)
}

func TestDeterministicSeeding(t *testing.T) {
	a := NewRand(99)
	b := NewRand(99)

	for i := 0; i < 50; i += 1 {
		assert.Equal(t, a.Float64(), b.Float64())
	}
}
