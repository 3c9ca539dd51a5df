package model

import (
	"fmt"
	"math"

	log "github.com/golang/glog"
	"gonum.org/v1/gonum/floats"

	"github.com/bobonovski/georegion/anneal"
	"github.com/bobonovski/georegion/config"
	"github.com/bobonovski/georegion/mathutil"
	"github.com/bobonovski/georegion/stream"
)

func init() {
	Register(config.ModelSpherical, NewSphericalModel)
}

// SphericalModel replaces the fixed region grid with continuous
// centroids on the sphere. Toponym tokens jointly sample a region and
// one of their gazetteer coordinates under a von Mises-Fisher emission;
// region weights come from a two-level stick-breaking hierarchy whose
// centroids and concentrations are refreshed by Metropolis updates
// every sweep.
type SphericalModel struct {
	*RegionModel

	crpAlpha            float64
	kappaProposalStddev float64

	// per word, gazetteer candidate coordinates as unit vectors
	coordinates [][][]float64
	maxCoords   int

	// per toponym token, index into its word's candidate list
	coordVector []int32

	mu    [][]float64
	kappa []float64

	globalWeights    []float64
	localDishWeights []float64 // d*regions+r

	// toponym tokens without gazetteer coordinates sample as
	// ordinary words
	plainToponyms int

	muAccepted    int
	kappaAccepted int
}

// NewSphericalModel creates the continuous-centroid sampler variant
func NewSphericalModel(cfg *config.Config) (Model, error) {
	inFmt, err := stream.ParseFormat(cfg.Paths.InputFormat)
	if err != nil {
		return nil, err
	}
	ta, err := stream.ReadTokenArray(cfg.Paths.TokenArrayInput, inFmt)
	if err != nil {
		return nil, fmt.Errorf("read token array: %w", err)
	}
	coords, err := stream.ReadToponymCoordinates(cfg.Paths.ToponymCoordinates, inFmt)
	if err != nil {
		return nil, fmt.Errorf("read toponym coordinates: %w", err)
	}
	base, err := newRegionModel(cfg, ta, nil, cfg.Sampler.Regions)
	if err != nil {
		return nil, err
	}
	return newSphericalModel(cfg, base, coords)
}

func newSphericalModel(cfg *config.Config, base *RegionModel,
	coords [][]float64) (*SphericalModel, error) {
	this := &SphericalModel{
		RegionModel:         base,
		crpAlpha:            cfg.Sampler.CrpAlpha,
		kappaProposalStddev: cfg.Sampler.KappaProposalStddev,
		coordVector:         make([]int32, base.tokens.Len()),
		coordinates:         make([][][]float64, base.vocabSize),
		mu:                  make([][]float64, base.regions),
		kappa:               make([]float64, base.regions),
	}

	for w := 0; w < len(coords) && w < base.vocabSize; w += 1 {
		pairs := coords[w]
		if pairs == nil {
			continue
		}
		nc := len(pairs) / 2
		list := make([][]float64, nc)
		for j := 0; j < nc; j += 1 {
			list[j] = mathutil.GeographicToCartesian(pairs[2*j], pairs[2*j+1])
		}
		this.coordinates[w] = list
		if nc > this.maxCoords {
			this.maxCoords = nc
		}
	}
	if this.maxCoords == 0 {
		return nil, fmt.Errorf("toponym coordinate lexicon is empty")
	}
	this.probs = make([]float64, base.regions*this.maxCoords)
	return this, nil
}

// RandomInitialize draws centroids, concentrations and dish weights
// from their priors, then assigns every eligible token a uniform
// random region and coordinate
func (this *SphericalModel) RandomInitialize() {
	zeros := make([]int32, this.regions)
	for r := 0; r < this.regions; r += 1 {
		this.mu[r] = mathutil.UniformSphere(this.rng)
		this.kappa[r] = this.cfg.Sampler.Kappa
	}
	this.globalWeights = mathutil.DirichletPosterior(
		this.rng, this.crpAlpha/float64(this.regions), zeros)
	this.localDishWeights = make([]float64, this.docCount*this.regions)
	for d := 0; d < this.docCount; d += 1 {
		row := mathutil.DirichletPosterior(this.rng, this.alpha, zeros)
		copy(this.localDishWeights[d*this.regions:], row)
	}

	this.plainToponyms = 0
	for i := 0; i < this.tokens.Len(); i += 1 {
		if this.tokens.Stopword[i] == 1 {
			continue
		}
		w := this.tokens.Word[i]
		d := this.tokens.Doc[i]
		r := int32(this.rng.Intn(this.regions))

		if this.tokens.Toponym[i] == 1 {
			if list := this.coordinates[w]; list != nil {
				this.coordVector[i] = int32(this.rng.Intn(len(list)))
			} else {
				this.plainToponyms += 1
			}
		}

		this.regionCounts[r] += 1
		this.wordByRegionCounts.Incr(int(w), int(r))
		this.regionByDocumentCounts.Incr(int(d), int(r))
		this.regionVector[i] = r
	}
	if this.plainToponyms > 0 {
		log.Warningf("%d toponym tokens have no gazetteer coordinates and sample as plain words",
			this.plainToponyms)
	}
}

// toponymConditional fills probs in stride-separated blocks, one block
// of candidate coordinates per region
func (this *SphericalModel) toponymConditional(d int32, list [][]float64, probs []float64) {
	dish := this.localDishWeights[int(d)*this.regions:]
	for r := 0; r < this.regions; r += 1 {
		off := r * this.maxCoords
		for j, x := range list {
			probs[off+j] = dish[r] * mathutil.VMFDensity(x, this.mu[r], this.kappa[r])
		}
	}
}

// wordConditional fills probs with the dish-weighted collapsed word
// emission over all regions
func (this *SphericalModel) wordConditional(w, d int32, probs []float64) {
	dish := this.localDishWeights[int(d)*this.regions:]
	wt := this.wordByRegionCounts.Data()[int(w)*this.regions:]
	for r := 0; r < this.regions; r += 1 {
		probs[r] = dish[r] * (float64(wt[r]) + this.beta) /
			(float64(this.regionCounts[r]) + this.betaW)
	}
}

// drawBlock picks a (region, coordinate) pair by inverse-cdf sampling
// over the occupied prefix of each block
func (this *SphericalModel) drawBlock(probs []float64, mass float64,
	blockLen, token int) (int32, int32) {
	if mass <= 0 || math.IsNaN(mass) {
		log.Exitf("degenerate probability mass %g at token %d", mass, token)
	}
	u := this.rng.Float64() * mass
	cumsum := 0.0
	for r := 0; r < this.regions; r += 1 {
		off := r * this.maxCoords
		for j := 0; j < blockLen; j += 1 {
			cumsum += probs[off+j]
			if u < cumsum {
				return int32(r), int32(j)
			}
		}
	}
	return int32(this.regions - 1), int32(blockLen - 1)
}

func (this *SphericalModel) Train(a anneal.Annealer) {
	sweep := 0
	for a.NextIter() {
		if sweep%10 == 0 {
			log.Infof("iter %5d, likelihood %f", sweep, this.Likelihood())
		}
		sweep += 1

		for i := 0; i < this.tokens.Len(); i += 1 {
			if this.tokens.Stopword[i] == 1 {
				continue
			}
			w := this.tokens.Word[i]
			d := this.tokens.Doc[i]
			r := this.regionVector[i]

			this.regionCounts[r] -= 1
			this.wordByRegionCounts.Decr(int(w), int(r))
			this.regionByDocumentCounts.Decr(int(d), int(r))

			if list := this.coordinates[w]; this.tokens.Toponym[i] == 1 && list != nil {
				probs := this.probs[:this.regions*this.maxCoords]
				this.toponymConditional(d, list, probs)
				mass := a.AnnealBlockProbs(probs, this.regions, len(list), this.maxCoords)
				var c int32
				r, c = this.drawBlock(probs, mass, len(list), i)
				this.coordVector[i] = c
			} else {
				probs := this.probs[:this.regions]
				this.wordConditional(w, d, probs)
				mass := a.AnnealProbs(probs)
				r = int32(this.draw(probs, mass, i))
			}

			this.regionCounts[r] += 1
			this.wordByRegionCounts.Incr(int(w), int(r))
			this.regionByDocumentCounts.Incr(int(d), int(r))
			this.regionVector[i] = r
		}

		this.updateParameters()
		a.CollectSamples(this.regionCounts,
			this.wordByRegionCounts.Data(),
			this.regionByDocumentCounts.Data())
	}
	log.Infof("metropolis acceptance: %d centroid moves, %d concentration moves",
		this.muAccepted, this.kappaAccepted)
	this.adoptAveragedCounts(a)
}

// updateParameters refreshes the continuous state after a sweep:
// Metropolis moves for every centroid and concentration against the
// resultants of their assigned coordinates, then fresh stick-breaking
// weights from the region occupancies
func (this *SphericalModel) updateParameters() {
	resultant := make([][]float64, this.regions)
	assigned := make([]int32, this.regions)
	for r := 0; r < this.regions; r += 1 {
		resultant[r] = make([]float64, 3)
	}
	for i := 0; i < this.tokens.Len(); i += 1 {
		if this.tokens.Stopword[i] == 1 || this.tokens.Toponym[i] != 1 {
			continue
		}
		list := this.coordinates[this.tokens.Word[i]]
		if list == nil {
			continue
		}
		r := this.regionVector[i]
		floats.Add(resultant[r], list[this.coordVector[i]])
		assigned[r] += 1
	}

	for r := 0; r < this.regions; r += 1 {
		this.sampleMean(r, resultant[r])
		this.sampleConcentration(r, resultant[r], assigned[r])
	}

	this.globalWeights = mathutil.GlobalStickWeights(
		this.rng, this.crpAlpha, this.regionCounts)
	for d := 0; d < this.docCount; d += 1 {
		row := mathutil.RestaurantStickWeights(this.rng, this.crpAlpha,
			this.globalWeights, this.regionByDocumentCounts.Row(d))
		copy(this.localDishWeights[d*this.regions:], row)
	}
}

// sampleMean proposes a centroid from the current emission and accepts
// on the likelihood of the region's coordinate resultant
func (this *SphericalModel) sampleMean(r int, resultant []float64) {
	proposal := mathutil.VMF(this.rng, this.mu[r], this.kappa[r])
	logAccept := this.kappa[r] *
		(floats.Dot(proposal, resultant) - floats.Dot(this.mu[r], resultant))
	if logAccept >= 0 || math.Log(this.rng.Float64()) < logAccept {
		this.mu[r] = proposal
		this.muAccepted += 1
	}
}

// sampleConcentration perturbs kappa with Gaussian noise and accepts
// on the normalized likelihood of the assigned coordinates
func (this *SphericalModel) sampleConcentration(r int, resultant []float64, n int32) {
	proposal := this.kappa[r] + this.rng.NormFloat64()*this.kappaProposalStddev
	if proposal <= 0 {
		return
	}
	logAccept := float64(n)*
		(mathutil.LogVMFConstant(proposal)-mathutil.LogVMFConstant(this.kappa[r])) +
		(proposal-this.kappa[r])*floats.Dot(this.mu[r], resultant)
	if logAccept >= 0 || math.Log(this.rng.Float64()) < logAccept {
		this.kappa[r] = proposal
		this.kappaAccepted += 1
	}
}

// Decode assigns every token its arg-max or one sampled (region,
// coordinate) under the final parameter state, with no count churn
func (this *SphericalModel) Decode() error {
	if this.averagedRegionCounts == nil {
		return fmt.Errorf("decode before train")
	}
	if this.localDishWeights == nil {
		return fmt.Errorf("spherical decode needs the trained centroid state of the same run")
	}

	var dec anneal.Annealer
	switch this.cfg.Decode.Mode {
	case config.DecodeMAP:
		dec = &anneal.MaximumPosteriorDecoder{}
	case config.DecodeSample:
		dec = &anneal.Empty{}
	default:
		return fmt.Errorf("decode mode %q not supported", this.cfg.Decode.Mode)
	}

	for i := 0; i < this.tokens.Len(); i += 1 {
		if this.tokens.Stopword[i] == 1 {
			continue
		}
		w := this.tokens.Word[i]
		d := this.tokens.Doc[i]

		if list := this.coordinates[w]; this.tokens.Toponym[i] == 1 && list != nil {
			probs := this.probs[:this.regions*this.maxCoords]
			this.toponymConditional(d, list, probs)
			mass := dec.AnnealBlockProbs(probs, this.regions, len(list), this.maxCoords)
			r, c := this.drawBlock(probs, mass, len(list), i)
			this.regionVector[i] = r
			this.coordVector[i] = c
		} else {
			probs := this.probs[:this.regions]
			this.wordConditional(w, d, probs)
			mass := dec.AnnealProbs(probs)
			this.regionVector[i] = int32(this.draw(probs, mass, i))
		}
	}
	return nil
}

// compute the joint log likelihood of the corpus under the current
// dish weights, centroids and concentrations
func (this *SphericalModel) Likelihood() float64 {
	sum := float64(0.0)
	for i := 0; i < this.tokens.Len(); i += 1 {
		if this.tokens.Stopword[i] == 1 {
			continue
		}
		w := this.tokens.Word[i]
		d := this.tokens.Doc[i]
		dish := this.localDishWeights[int(d)*this.regions:]

		tokenSum := 0.0
		if list := this.coordinates[w]; this.tokens.Toponym[i] == 1 && list != nil {
			for r := 0; r < this.regions; r += 1 {
				for _, x := range list {
					tokenSum += dish[r] * mathutil.VMFDensity(x, this.mu[r], this.kappa[r])
				}
			}
			tokenSum /= float64(len(list))
		} else {
			wt := this.wordByRegionCounts.Data()[int(w)*this.regions:]
			for r := 0; r < this.regions; r += 1 {
				tokenSum += dish[r] * (float64(wt[r]) + this.beta) /
					(float64(this.regionCounts[r]) + this.betaW)
			}
		}
		sum += math.Log(tokenSum)
	}
	return sum
}

// RegionCentroids returns the current centroids as latitude/longitude
// rows, one per region
func (this *SphericalModel) RegionCentroids() [][]float64 {
	out := make([][]float64, this.regions)
	for r := 0; r < this.regions; r += 1 {
		lat, lon := mathutil.CartesianToGeographic(this.mu[r])
		out[r] = []float64{lat, lon}
	}
	return out
}
