package anneal

import (
	"math"

	log "github.com/golang/glog"
)

// epsilon for comparing equality in floating point temperatures
const Epsilon = 1e-6

// Schedule holds the annealing plan: start at InitialTemperature, run
// Iterations sweeps per step, drop by TemperatureDecrement until
// TargetTemperature, then hold the target temperature for Samples*Lag
// post-burn-in sweeps, collecting a running average every Lag sweeps.
type Schedule struct {
	InitialTemperature   float64
	TargetTemperature    float64
	TemperatureDecrement float64
	Iterations           int
	Samples              int
	Lag                  int
}

// Steps returns the number of temperature decrements the schedule
// will pass through, endpoints included
func (s Schedule) Steps() int {
	if s.TemperatureDecrement <= 0 ||
		s.InitialTemperature-s.TargetTemperature < Epsilon {
		return 1
	}
	return int(math.Round((s.InitialTemperature-s.TargetTemperature)/s.TemperatureDecrement)) + 1
}

// Annealer drives the sampler's iteration loop and reweights its
// categorical distributions by the current temperature
type Annealer interface {
	// advance to the next sweep; false once the budget is spent
	NextIter() bool
	// reweight an unnormalized probability vector in place and
	// return its new total mass
	AnnealProbs(probs []float64) float64
	// like AnnealProbs but only over the first blockLen entries of
	// each of blocks stride-sized blocks (the zero padding between
	// blockLen and stride is never read or written)
	AnnealBlockProbs(probs []float64, blocks, blockLen, stride int) float64
	// true when the current sweep is a sample-collection sweep
	SampleThisSweep() bool
	// accumulate the running average of the count tables
	CollectSamples(regionCounts, wordByRegion, regionByDoc []int32)
	// number of samples the schedule asks for
	Samples() int
	// averaged tables, nil until collection has finished
	AveragedRegionCounts() []float64
	AveragedWordByRegionCounts() []float64
	AveragedRegionByDocumentCounts() []float64
}

// New picks the annealer for a schedule: a plain Gibbs annealer when
// the schedule never moves the temperature, a simulated annealer
// otherwise.
func New(s Schedule) Annealer {
	if math.Abs(s.InitialTemperature-s.TargetTemperature) < Epsilon {
		return &Empty{base: newBase(s)}
	}
	return &Simulated{base: newBase(s)}
}

// base carries the schedule state shared by the annealer variants
type base struct {
	schedule Schedule

	temperature float64
	reciprocal  float64

	innerIter int
	outerIter int
	outerMax  int

	sampling bool
	sweep    int

	sampleCount int
	finished    bool

	regionAcc       []float64
	wordByRegionAcc []float64
	regionByDocAcc  []float64
}

func newBase(s Schedule) base {
	return base{
		schedule:    s,
		temperature: s.InitialTemperature,
		reciprocal:  1 / s.InitialTemperature,
		outerMax:    s.Steps(),
	}
}

// the temperature changes in floating point decrements; snap the
// reciprocal to one when it gets close enough so the identity branch
// of AnnealProbs is taken during ordinary Gibbs stretches
func (a *base) stabilizeTemperature() {
	if math.Abs(a.reciprocal-1) < Epsilon {
		a.reciprocal = 1
	}
}

func (a *base) NextIter() bool {
	if a.sampling {
		if a.sweep >= a.schedule.Samples*a.schedule.Lag {
			return false
		}
		a.sweep += 1
		return true
	}

	if a.innerIter == a.schedule.Iterations {
		a.innerIter = 0
		a.outerIter += 1
		if a.outerIter >= a.outerMax {
			log.Infof("burn-in complete after %d temperature steps", a.outerIter)
			if a.schedule.Samples == 0 {
				return false
			}
			log.Infof("collecting %d samples at lag %d", a.schedule.Samples, a.schedule.Lag)
			a.sampling = true
			a.temperature = a.schedule.TargetTemperature
			a.reciprocal = 1 / a.temperature
			a.stabilizeTemperature()
			a.sweep = 1
			return true
		}
		a.temperature -= a.schedule.TemperatureDecrement
		a.reciprocal = 1 / a.temperature
		a.stabilizeTemperature()
		log.Infof("outer iteration %d (temperature %.2f)", a.outerIter, a.temperature)
	}
	a.innerIter += 1
	return true
}

func (a *base) SampleThisSweep() bool {
	return a.sampling && !a.finished &&
		a.sampleCount < a.schedule.Samples &&
		a.sweep%a.schedule.Lag == 0
}

func (a *base) Samples() int {
	return a.schedule.Samples
}

func (a *base) CollectSamples(regionCounts, wordByRegion, regionByDoc []int32) {
	if !a.SampleThisSweep() {
		return
	}

	if a.regionAcc == nil {
		a.regionAcc = make([]float64, len(regionCounts))
		a.wordByRegionAcc = make([]float64, len(wordByRegion))
		a.regionByDocAcc = make([]float64, len(regionByDoc))
	}
	for i, v := range regionCounts {
		a.regionAcc[i] += float64(v)
	}
	for i, v := range wordByRegion {
		a.wordByRegionAcc[i] += float64(v)
	}
	for i, v := range regionByDoc {
		a.regionByDocAcc[i] += float64(v)
	}

	a.sampleCount += 1
	log.V(1).Infof("collected sample %d/%d", a.sampleCount, a.schedule.Samples)
	if a.sampleCount == a.schedule.Samples {
		a.finished = true
		averageSamples(a.regionAcc, a.sampleCount)
		averageSamples(a.wordByRegionAcc, a.sampleCount)
		averageSamples(a.regionByDocAcc, a.sampleCount)
	}
}

func averageSamples(v []float64, n int) {
	for i := range v {
		v[i] /= float64(n)
	}
}

func (a *base) AveragedRegionCounts() []float64 {
	if !a.finished {
		return nil
	}
	return a.regionAcc
}

func (a *base) AveragedWordByRegionCounts() []float64 {
	if !a.finished {
		return nil
	}
	return a.wordByRegionAcc
}

func (a *base) AveragedRegionByDocumentCounts() []float64 {
	if !a.finished {
		return nil
	}
	return a.regionByDocAcc
}

// Empty is the identity annealer used when the schedule holds the
// temperature at its target throughout: plain collapsed Gibbs.
type Empty struct {
	base
}

func (a *Empty) AnnealProbs(probs []float64) float64 {
	s := 0.0
	for _, p := range probs {
		s += p
	}
	return s
}

func (a *Empty) AnnealBlockProbs(probs []float64, blocks, blockLen, stride int) float64 {
	s := 0.0
	for b := 0; b < blocks; b += 1 {
		off := b * stride
		for i := 0; i < blockLen; i += 1 {
			s += probs[off+i]
		}
	}
	return s
}

// Simulated reweights distributions by the reciprocal temperature:
// each entry becomes (p/sum)^(1/T). At 1/T == 1 this is the identity;
// as T falls toward zero the distribution sharpens toward its mode.
type Simulated struct {
	base
}

func (a *Simulated) AnnealProbs(probs []float64) float64 {
	sum := 0.0
	for _, p := range probs {
		sum += p
	}
	if a.reciprocal == 1 || sum == 0 {
		return sum
	}
	annealed := 0.0
	for i, p := range probs {
		probs[i] = math.Pow(p/sum, a.reciprocal)
		annealed += probs[i]
	}
	return annealed
}

func (a *Simulated) AnnealBlockProbs(probs []float64, blocks, blockLen, stride int) float64 {
	sum := 0.0
	for b := 0; b < blocks; b += 1 {
		off := b * stride
		for i := 0; i < blockLen; i += 1 {
			sum += probs[off+i]
		}
	}
	if a.reciprocal == 1 || sum == 0 {
		return sum
	}
	annealed := 0.0
	for b := 0; b < blocks; b += 1 {
		off := b * stride
		for i := 0; i < blockLen; i += 1 {
			probs[off+i] = math.Pow(probs[off+i]/sum, a.reciprocal)
			annealed += probs[off+i]
		}
	}
	return annealed
}
