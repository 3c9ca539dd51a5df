package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/floats"

	"github.com/bobonovski/georegion/config"
	"github.com/bobonovski/georegion/stream"
)

func sphericalTestConfig() *config.Config {
	cfg := testConfig()
	cfg.Model = config.ModelSpherical
	cfg.Sampler.Regions = 3
	cfg.Sampler.CrpAlpha = 20.0
	cfg.Sampler.Kappa = 20.0
	cfg.Sampler.KappaProposalStddev = 2.0
	return cfg
}

// two documents sharing a two-candidate toponym plus plain words
func sphericalModel(t *testing.T) *SphericalModel {
	cfg := sphericalTestConfig()
	ta := &stream.TokenArray{
		Word:     []int32{0, 1, 2, 0, 3, 1},
		Doc:      []int32{0, 0, 0, 1, 1, 1},
		Toponym:  []uint8{1, 0, 0, 1, 0, 0},
		Stopword: []uint8{0, 0, 0, 0, 0, 1},
	}
	coords := [][]float64{
		0: {40.71, -74.0, 41.0, 29.0},
	}
	base, err := newRegionModel(cfg, ta, nil, cfg.Sampler.Regions)
	assert.NoError(t, err)
	m, err := newSphericalModel(cfg, base, coords)
	assert.NoError(t, err)
	return m
}

func TestSphericalInitialize(t *testing.T) {
	m := sphericalModel(t)
	m.RandomInitialize()

	assert.InDelta(t, 1.0, floats.Sum(m.globalWeights), 1e-9)
	for d := 0; d < m.docCount; d += 1 {
		row := m.localDishWeights[d*m.regions : (d+1)*m.regions]
		assert.InDelta(t, 1.0, floats.Sum(row), 1e-9)
	}
	for r := 0; r < m.regions; r += 1 {
		assert.InDelta(t, 1.0, floats.Norm(m.mu[r], 2), 1e-9)
		assert.Equal(t, 20.0, m.kappa[r])
	}
	for _, i := range []int{0, 3} {
		assert.Contains(t, []int32{0, 1}, m.coordVector[i])
	}
	m.assertCountsConsistent(t)
}

func TestSphericalTrain(t *testing.T) {
	m := sphericalModel(t)
	m.RandomInitialize()
	m.Train(flatSchedule(10))

	m.assertCountsConsistent(t)
	for r := 0; r < m.regions; r += 1 {
		assert.InDelta(t, 1.0, floats.Norm(m.mu[r], 2), 1e-9)
		assert.Greater(t, m.kappa[r], 0.0)
	}
	assert.InDelta(t, 1.0, floats.Sum(m.globalWeights), 1e-9)
	assert.NotNil(t, m.averagedRegionCounts)
}

func TestSphericalDecode(t *testing.T) {
	m := sphericalModel(t)
	m.RandomInitialize()
	m.Train(flatSchedule(5))

	assert.NoError(t, m.Decode())
	for i := 0; i < m.tokens.Len(); i += 1 {
		if m.tokens.Stopword[i] == 1 {
			continue
		}
		assert.GreaterOrEqual(t, m.regionVector[i], int32(0))
		assert.Less(t, m.regionVector[i], int32(m.regions))
	}
	for _, i := range []int{0, 3} {
		assert.Contains(t, []int32{0, 1}, m.coordVector[i])
	}
}

func TestSphericalDecodeBeforeTrainFails(t *testing.T) {
	m := sphericalModel(t)
	assert.Error(t, m.Decode())
}

func TestSphericalLikelihoodFinite(t *testing.T) {
	m := sphericalModel(t)
	m.RandomInitialize()
	lik := m.Likelihood()
	assert.Less(t, lik, 0.0)

	m.Train(flatSchedule(5))
	assert.False(t, m.Likelihood() > 0.0)
}

func TestSphericalCentroids(t *testing.T) {
	m := sphericalModel(t)
	m.RandomInitialize()

	cents := m.RegionCentroids()
	assert.Len(t, cents, m.regions)
	for _, c := range cents {
		assert.GreaterOrEqual(t, c[0], -90.0)
		assert.LessOrEqual(t, c[0], 90.0)
		assert.GreaterOrEqual(t, c[1], -180.0)
		assert.LessOrEqual(t, c[1], 180.0)
	}
}

func TestSphericalEmptyLexiconRejected(t *testing.T) {
	cfg := sphericalTestConfig()
	ta := &stream.TokenArray{
		Word:     []int32{0},
		Doc:      []int32{0},
		Toponym:  []uint8{0},
		Stopword: []uint8{0},
	}
	base, err := newRegionModel(cfg, ta, nil, cfg.Sampler.Regions)
	assert.NoError(t, err)
	_, err = newSphericalModel(cfg, base, nil)
	assert.Error(t, err)
}

func TestSphericalDeterministicSeeding(t *testing.T) {
	a := sphericalModel(t)
	a.RandomInitialize()
	a.Train(flatSchedule(5))

	b := sphericalModel(t)
	b.RandomInitialize()
	b.Train(flatSchedule(5))

	assert.Equal(t, a.regionVector, b.regionVector)
	assert.Equal(t, a.kappa, b.kappa)
	assert.Equal(t, a.mu, b.mu)
}
