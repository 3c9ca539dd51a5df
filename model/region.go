package model

import (
	"fmt"
	"math"
	"math/rand"

	log "github.com/golang/glog"

	"github.com/bobonovski/georegion/anneal"
	"github.com/bobonovski/georegion/config"
	"github.com/bobonovski/georegion/mathutil"
	"github.com/bobonovski/georegion/stream"
	"github.com/bobonovski/georegion/table"
)

func init() {
	Register(config.ModelRegion, NewRegionModel)
}

type RegionModel struct {
	cfg *config.Config
	rng *rand.Rand

	tokens       *stream.TokenArray
	regionVector []int32

	regions   int
	vocabSize int
	docCount  int

	alpha float64 // region document mixture hyperparameter
	beta  float64 // word region mixture hyperparameter
	betaW float64

	regionCounts           []int32
	wordByRegionCounts     *table.Int32Matrix
	regionByDocumentCounts *table.Int32Matrix

	// per-word candidate region lists from the gazetteer filter;
	// a nil row admits every region
	candidateRegions [][]int32

	// per-document active region mask, nil in the unconstrained
	// variant; laid out d*regions+r
	activeRegionByDocumentFilter []uint8

	// tokens whose filters admitted no region and fell back to the
	// unfiltered distribution
	fallbackTokens int

	allRegions []int32
	probs      []float64
	cands      []int32

	averagedRegionCounts           []float64
	averagedWordByRegionCounts     []float64
	averagedRegionByDocumentCounts []float64
}

// NewRegionModel creates a collapsed gibbs region sampler whose toponym
// tokens are restricted to their gazetteer candidate regions
func NewRegionModel(cfg *config.Config) (Model, error) {
	ta, cands, regions, err := loadRegionInputs(cfg)
	if err != nil {
		return nil, err
	}
	return newRegionModel(cfg, ta, cands, regions)
}

func loadRegionInputs(cfg *config.Config) (*stream.TokenArray, [][]int32, int, error) {
	inFmt, err := stream.ParseFormat(cfg.Paths.InputFormat)
	if err != nil {
		return nil, nil, 0, err
	}
	ta, err := stream.ReadTokenArray(cfg.Paths.TokenArrayInput, inFmt)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("read token array: %w", err)
	}
	cands, maxRegion, err := stream.ReadToponymRegionFilter(cfg.Paths.ToponymRegionFilter, inFmt)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("read toponym region filter: %w", err)
	}
	regions := cfg.Sampler.Regions
	if regions == 0 {
		regions = int(maxRegion) + 1
	}
	return ta, cands, regions, nil
}

func newRegionModel(cfg *config.Config, ta *stream.TokenArray,
	cands [][]int32, regions int) (*RegionModel, error) {
	if ta.Len() == 0 {
		return nil, fmt.Errorf("empty token array")
	}
	if regions <= 0 {
		return nil, fmt.Errorf("region count must be positive, got %d", regions)
	}

	vocabSize := 0
	docCount := 0
	for i := 0; i < ta.Len(); i += 1 {
		if int(ta.Word[i])+1 > vocabSize {
			vocabSize = int(ta.Word[i]) + 1
		}
		if int(ta.Doc[i])+1 > docCount {
			docCount = int(ta.Doc[i]) + 1
		}
	}

	// the smoothing mass counts only words that can be sampled
	seen := make([]bool, vocabSize)
	sampledWords := 0
	for i := 0; i < ta.Len(); i += 1 {
		if ta.Stopword[i] == 1 {
			continue
		}
		if !seen[ta.Word[i]] {
			seen[ta.Word[i]] = true
			sampledWords += 1
		}
	}

	for w, list := range cands {
		for _, r := range list {
			if int(r) >= regions {
				return nil, fmt.Errorf(
					"toponym filter for word %d names region %d outside [0,%d)",
					w, r, regions)
			}
		}
	}
	if len(cands) < vocabSize {
		grown := make([][]int32, vocabSize)
		copy(grown, cands)
		cands = grown
	}

	all := make([]int32, regions)
	for r := range all {
		all[r] = int32(r)
	}

	this := &RegionModel{
		cfg:                    cfg,
		rng:                    mathutil.NewRand(cfg.Sampler.RandomSeed),
		tokens:                 ta,
		regionVector:           make([]int32, ta.Len()),
		regions:                regions,
		vocabSize:              vocabSize,
		docCount:               docCount,
		alpha:                  cfg.Sampler.Alpha,
		beta:                   cfg.Sampler.Beta,
		betaW:                  cfg.Sampler.Beta * float64(sampledWords),
		regionCounts:           make([]int32, regions),
		wordByRegionCounts:     table.NewInt32Matrix(vocabSize, regions),
		regionByDocumentCounts: table.NewInt32Matrix(docCount, regions),
		candidateRegions:       cands,
		allRegions:             all,
		probs:                  make([]float64, regions),
		cands:                  make([]int32, 0, regions),
	}
	return this, nil
}

// permittedRegions returns the sparse list of regions the filter masks
// admit for a token, falling back to every region when the masks admit
// none
func (this *RegionModel) permittedRegions(w, d int32, toponym bool) ([]int32, bool) {
	base := this.allRegions
	if toponym && this.candidateRegions[w] != nil {
		base = this.candidateRegions[w]
	}
	if this.activeRegionByDocumentFilter == nil {
		if len(base) == 0 {
			return this.allRegions, true
		}
		return base, false
	}

	row := this.activeRegionByDocumentFilter[int(d)*this.regions:]
	this.cands = this.cands[:0]
	for _, r := range base {
		if row[r] == 1 {
			this.cands = append(this.cands, r)
		}
	}
	if len(this.cands) == 0 {
		return this.allRegions, true
	}
	return this.cands, false
}

// RandomInitialize assigns every non-stopword token a region drawn
// uniformly from its permitted set and builds the count tables
func (this *RegionModel) RandomInitialize() {
	this.fallbackTokens = 0
	for i := 0; i < this.tokens.Len(); i += 1 {
		if this.tokens.Stopword[i] == 1 {
			continue
		}
		w := this.tokens.Word[i]
		d := this.tokens.Doc[i]

		cands, fellBack := this.permittedRegions(w, d, this.tokens.Toponym[i] == 1)
		if fellBack {
			this.fallbackTokens += 1
		}
		r := cands[this.rng.Intn(len(cands))]

		this.regionCounts[r] += 1
		this.wordByRegionCounts.Incr(int(w), int(r))
		this.regionByDocumentCounts.Incr(int(d), int(r))
		this.regionVector[i] = r
	}
	if this.fallbackTokens > 0 {
		log.Warningf("%d tokens had no permitted region and use the unfiltered distribution",
			this.fallbackTokens)
	}
}

// conditional fills probs with the unnormalized collapsed posterior
// over the candidate regions of one token
func (this *RegionModel) conditional(w, d int32, cands []int32, probs []float64) {
	wt := this.wordByRegionCounts.Data()[int(w)*this.regions:]
	dt := this.regionByDocumentCounts.Data()[int(d)*this.regions:]
	for j, r := range cands {
		probs[j] = (float64(wt[r]) + this.beta) /
			(float64(this.regionCounts[r]) + this.betaW) *
			(float64(dt[r]) + this.alpha)
	}
}

// draw picks a candidate index by inverse-cdf sampling against the
// annealed total mass
func (this *RegionModel) draw(probs []float64, mass float64, token int) int {
	if mass <= 0 || math.IsNaN(mass) {
		log.Exitf("degenerate probability mass %g at token %d", mass, token)
	}
	u := this.rng.Float64() * mass
	cumsum := 0.0
	for j, p := range probs {
		cumsum += p
		if u < cumsum {
			return j
		}
	}
	return len(probs) - 1
}

func (this *RegionModel) Train(a anneal.Annealer) {
	sweep := 0
	for a.NextIter() {
		if sweep%10 == 0 {
			log.Infof("iter %5d, likelihood %f", sweep, this.Likelihood())
		}
		sweep += 1

		// collapsed gibbs sampling
		for i := 0; i < this.tokens.Len(); i += 1 {
			if this.tokens.Stopword[i] == 1 {
				continue
			}
			w := this.tokens.Word[i]
			d := this.tokens.Doc[i]
			r := this.regionVector[i]

			// decrease corresponding sufficient statistics
			this.regionCounts[r] -= 1
			this.wordByRegionCounts.Decr(int(w), int(r))
			this.regionByDocumentCounts.Decr(int(d), int(r))

			// resample the region over the permitted sparse set
			cands, _ := this.permittedRegions(w, d, this.tokens.Toponym[i] == 1)
			probs := this.probs[:len(cands)]
			this.conditional(w, d, cands, probs)
			mass := a.AnnealProbs(probs)
			r = cands[this.draw(probs, mass, i)]

			// increase corresponding sufficient statistics
			this.regionCounts[r] += 1
			this.wordByRegionCounts.Incr(int(w), int(r))
			this.regionByDocumentCounts.Incr(int(d), int(r))
			this.regionVector[i] = r
		}

		a.CollectSamples(this.regionCounts,
			this.wordByRegionCounts.Data(),
			this.regionByDocumentCounts.Data())
	}
	this.adoptAveragedCounts(a)
}

// adoptAveragedCounts takes the annealer's sample averages, or the raw
// final counts when the schedule collected no samples
func (this *RegionModel) adoptAveragedCounts(a anneal.Annealer) {
	this.averagedRegionCounts = a.AveragedRegionCounts()
	this.averagedWordByRegionCounts = a.AveragedWordByRegionCounts()
	this.averagedRegionByDocumentCounts = a.AveragedRegionByDocumentCounts()
	if this.averagedRegionCounts == nil {
		this.averagedRegionCounts = int32ToFloat64(this.regionCounts)
		this.averagedWordByRegionCounts = int32ToFloat64(this.wordByRegionCounts.Data())
		this.averagedRegionByDocumentCounts = int32ToFloat64(this.regionByDocumentCounts.Data())
	}
}

func int32ToFloat64(v []int32) []float64 {
	out := make([]float64, len(v))
	for i := range v {
		out[i] = float64(v[i])
	}
	return out
}

// LoadAveragedCounts reads back count tables written by an earlier
// run so decoding can happen without retraining
func (this *RegionModel) LoadAveragedCounts() error {
	paths := this.cfg.Paths
	if paths.RegionCounts == "" || paths.WordByRegionCounts == "" ||
		paths.RegionByDocumentCounts == "" {
		return fmt.Errorf("all three averaged count paths are required to decode")
	}
	rc, err := table.Float64Deserialize(paths.RegionCounts)
	if err != nil {
		return fmt.Errorf("read region counts: %w", err)
	}
	wt, err := table.Float64Deserialize(paths.WordByRegionCounts)
	if err != nil {
		return fmt.Errorf("read word by region counts: %w", err)
	}
	dt, err := table.Float64Deserialize(paths.RegionByDocumentCounts)
	if err != nil {
		return fmt.Errorf("read region by document counts: %w", err)
	}
	if r, _ := rc.Shape(); r != this.regions {
		return fmt.Errorf("region counts name %d regions, corpus has %d", r, this.regions)
	}
	if r, c := wt.Shape(); r != this.vocabSize || c != this.regions {
		return fmt.Errorf("word by region counts shaped %dx%d, want %dx%d",
			r, c, this.vocabSize, this.regions)
	}
	if r, c := dt.Shape(); r != this.docCount || c != this.regions {
		return fmt.Errorf("region by document counts shaped %dx%d, want %dx%d",
			r, c, this.docCount, this.regions)
	}
	this.averagedRegionCounts = rc.Data()
	this.averagedWordByRegionCounts = wt.Data()
	this.averagedRegionByDocumentCounts = dt.Data()
	return nil
}

// Decode takes a single assignment pass over the averaged tables with
// no count churn, either arg-max or one final sample per token
func (this *RegionModel) Decode() error {
	if this.averagedRegionCounts == nil {
		return fmt.Errorf("decode before train")
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

		cands, _ := this.permittedRegions(w, d, this.tokens.Toponym[i] == 1)
		probs := this.probs[:len(cands)]
		wt := this.averagedWordByRegionCounts[int(w)*this.regions:]
		dt := this.averagedRegionByDocumentCounts[int(d)*this.regions:]
		for j, r := range cands {
			probs[j] = (wt[r] + this.beta) /
				(this.averagedRegionCounts[r] + this.betaW) *
				(dt[r] + this.alpha)
		}
		mass := dec.AnnealProbs(probs)
		this.regionVector[i] = cands[this.draw(probs, mass, i)]
	}
	return nil
}

// compute the joint log likelihood of the corpus
func (this *RegionModel) Likelihood() float64 {
	sum := float64(0.0)
	for i := 0; i < this.tokens.Len(); i += 1 {
		if this.tokens.Stopword[i] == 1 {
			continue
		}
		w := this.tokens.Word[i]
		d := this.tokens.Doc[i]
		docTotal := float64(this.regionByDocumentCounts.RowSum(int(d)))

		cands, _ := this.permittedRegions(w, d, this.tokens.Toponym[i] == 1)
		wt := this.wordByRegionCounts.Data()[int(w)*this.regions:]
		dt := this.regionByDocumentCounts.Data()[int(d)*this.regions:]
		tokenSum := 0.0
		for _, r := range cands {
			phi := (float64(wt[r]) + this.beta) /
				(float64(this.regionCounts[r]) + this.betaW)
			theta := (float64(dt[r]) + this.alpha) /
				(docTotal + this.alpha*float64(this.regions))
			tokenSum += phi * theta
		}
		sum += math.Log(tokenSum)
	}
	return sum
}

// Write persists the decoded token array and the averaged count tables
// to whichever output paths are configured
func (this *RegionModel) Write() error {
	if fn := this.cfg.Paths.TokenArrayOutput; fn != "" {
		outFmt, err := stream.ParseFormat(this.cfg.Paths.OutputFormat)
		if err != nil {
			return err
		}
		if err := stream.WriteTokenArray(fn, outFmt, this.tokens, this.regionVector); err != nil {
			return fmt.Errorf("write token array: %w", err)
		}
	}
	if this.averagedRegionCounts == nil {
		return nil
	}
	if fn := this.cfg.Paths.RegionCounts; fn != "" {
		m := table.Float64MatrixFrom(this.regions, 1, this.averagedRegionCounts)
		if err := m.Serialize(fn); err != nil {
			return fmt.Errorf("write region counts: %w", err)
		}
	}
	if fn := this.cfg.Paths.WordByRegionCounts; fn != "" {
		m := table.Float64MatrixFrom(this.vocabSize, this.regions, this.averagedWordByRegionCounts)
		if err := m.Serialize(fn); err != nil {
			return fmt.Errorf("write word by region counts: %w", err)
		}
	}
	if fn := this.cfg.Paths.RegionByDocumentCounts; fn != "" {
		m := table.Float64MatrixFrom(this.docCount, this.regions, this.averagedRegionByDocumentCounts)
		if err := m.Serialize(fn); err != nil {
			return fmt.Errorf("write region by document counts: %w", err)
		}
	}
	return nil
}
