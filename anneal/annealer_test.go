package anneal

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPicksVariant(t *testing.T) {
	a := New(Schedule{InitialTemperature: 1, TargetTemperature: 1, TemperatureDecrement: 0.1, Iterations: 5})
	assert.IsType(t, &Empty{}, a)

	a = New(Schedule{InitialTemperature: 10, TargetTemperature: 1, TemperatureDecrement: 0.1, Iterations: 5})
	assert.IsType(t, &Simulated{}, a)
}

func TestSweepBudget(t *testing.T) {
	s := Schedule{
		InitialTemperature:   2,
		TargetTemperature:    1,
		TemperatureDecrement: 0.5,
		Iterations:           4,
		Samples:              3,
		Lag:                  2,
	}
	a := New(s)

	sweeps := 0
	for a.NextIter() {
		sweeps += 1
	}

	// Steps() == 3 temperature plateaus of 4 sweeps, then 3*2
	// post-burn-in sampling sweeps
	assert.Equal(t, 3, s.Steps())
	assert.Equal(t, 3*4+3*2, sweeps)
}

func TestSweepBudgetNoSamples(t *testing.T) {
	a := New(Schedule{
		InitialTemperature:   1,
		TargetTemperature:    1,
		TemperatureDecrement: 0.1,
		Iterations:           7,
	})

	sweeps := 0
	for a.NextIter() {
		sweeps += 1
	}
	assert.Equal(t, 7, sweeps)
}

func TestAnnealProbsIdentityAtUnitTemperature(t *testing.T) {
	a := New(Schedule{InitialTemperature: 1, TargetTemperature: 1, TemperatureDecrement: 0.1, Iterations: 1})

	probs := []float64{0.2, 0.5, 0.3}
	sum := a.AnnealProbs(probs)

	assert.InDelta(t, 1.0, sum, 1e-12)
	assert.InDelta(t, 0.2, probs[0], 1e-12)
	assert.InDelta(t, 0.5, probs[1], 1e-12)
	assert.InDelta(t, 0.3, probs[2], 1e-12)
}

func TestAnnealProbsSharpensAtLowTemperature(t *testing.T) {
	a := &Simulated{base: newBase(Schedule{
		InitialTemperature:   0.05,
		TargetTemperature:    0.05,
		TemperatureDecrement: 0.1,
		Iterations:           1,
	})}

	probs := []float64{1, 4, 2, 3}
	sum := a.AnnealProbs(probs)

	// nearly all of the mass should sit on the arg-max entry
	assert.Greater(t, probs[1]/sum, 0.999)
}

func TestAnnealBlockProbsSkipsPadding(t *testing.T) {
	a := &Simulated{base: newBase(Schedule{
		InitialTemperature:   0.5,
		TargetTemperature:    0.5,
		TemperatureDecrement: 0.1,
		Iterations:           1,
	})}

	// two blocks of stride 4, only the first 2 entries populated
	probs := []float64{1, 2, -7, -7, 3, 4, -7, -7}
	sum := a.AnnealBlockProbs(probs, 2, 2, 4)

	assert.Greater(t, sum, 0.0)
	assert.Equal(t, -7.0, probs[2])
	assert.Equal(t, -7.0, probs[7])
}

func TestCollectSamplesAverages(t *testing.T) {
	s := Schedule{
		InitialTemperature:   1,
		TargetTemperature:    1,
		TemperatureDecrement: 0.1,
		Iterations:           1,
		Samples:              2,
		Lag:                  1,
	}
	a := New(s)

	region := []int32{2, 4}
	wbr := []int32{1, 1, 2, 0}
	rbd := []int32{3, 3}

	// one burn-in sweep, then two sampling sweeps; the region counts
	// double between sweeps so the two collected samples differ
	for a.NextIter() {
		a.CollectSamples(region, wbr, rbd)
		for i := range region {
			region[i] *= 2
		}
	}

	avg := a.AveragedRegionCounts()
	assert.NotNil(t, avg)
	assert.InDelta(t, (4.0+8.0)/2, avg[0], 1e-12)
	assert.InDelta(t, (8.0+16.0)/2, avg[1], 1e-12)
	assert.NotNil(t, a.AveragedWordByRegionCounts())
	assert.NotNil(t, a.AveragedRegionByDocumentCounts())
}

func TestMaximumPosteriorDecoderArgMax(t *testing.T) {
	d := &MaximumPosteriorDecoder{}

	probs := []float64{0.1, 0.2, 5, 0.3}
	sum := d.AnnealProbs(probs)

	assert.Equal(t, 1.0, sum)
	assert.Equal(t, []float64{0, 0, 1, 0}, probs)
	assert.False(t, d.NextIter())
}

func TestTemperatureStabilizes(t *testing.T) {
	s := Schedule{
		InitialTemperature:   1.2,
		TargetTemperature:    1.0,
		TemperatureDecrement: 0.1,
		Iterations:           1,
	}
	a := &Simulated{base: newBase(s)}

	for a.NextIter() {
	}
	// the final plateau should have snapped exactly to 1
	assert.True(t, math.Abs(a.reciprocal-1) == 0)
}
