package model

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bobonovski/georegion/anneal"
	"github.com/bobonovski/georegion/config"
	"github.com/bobonovski/georegion/stream"
)

func testConfig() *config.Config {
	return &config.Config{
		Model: config.ModelRegion,
		Sampler: config.SamplerConfig{
			Alpha:      1.0,
			Beta:       0.1,
			RandomSeed: 42,
		},
		Decode: config.DecodeConfig{Mode: config.DecodeMAP},
	}
}

func flatSchedule(iters int) anneal.Annealer {
	return anneal.New(anneal.Schedule{
		InitialTemperature: 1.0,
		TargetTemperature:  1.0,
		Iterations:         iters,
	})
}

// one document, a toponym restricted to regions 0 and 2, two free words
func filteredModel(t *testing.T) *RegionModel {
	ta := &stream.TokenArray{
		Word:     []int32{0, 1, 2, 0},
		Doc:      []int32{0, 0, 0, 0},
		Toponym:  []uint8{1, 0, 0, 1},
		Stopword: []uint8{0, 0, 0, 0},
	}
	m, err := newRegionModel(testConfig(), ta, [][]int32{{0, 2}}, 4)
	assert.NoError(t, err)
	return m
}

func (this *RegionModel) assertCountsConsistent(t *testing.T) {
	eligible := 0
	wordCount := make(map[int32]int32)
	docCount := make(map[int32]int32)
	for i := 0; i < this.tokens.Len(); i += 1 {
		if this.tokens.Stopword[i] == 1 {
			continue
		}
		eligible += 1
		wordCount[this.tokens.Word[i]] += 1
		docCount[this.tokens.Doc[i]] += 1
	}

	total := int32(0)
	for _, c := range this.regionCounts {
		assert.GreaterOrEqual(t, c, int32(0))
		total += c
	}
	assert.Equal(t, int32(eligible), total)

	for w := 0; w < this.vocabSize; w += 1 {
		assert.Equal(t, wordCount[int32(w)], this.wordByRegionCounts.RowSum(w))
	}
	for d := 0; d < this.docCount; d += 1 {
		assert.Equal(t, docCount[int32(d)], this.regionByDocumentCounts.RowSum(d))
	}
}

func TestToponymFilterRespected(t *testing.T) {
	m := filteredModel(t)
	m.RandomInitialize()

	for _, i := range []int{0, 3} {
		assert.Contains(t, []int32{0, 2}, m.regionVector[i])
	}

	m.Train(flatSchedule(5))
	for _, i := range []int{0, 3} {
		assert.Contains(t, []int32{0, 2}, m.regionVector[i])
	}
	m.assertCountsConsistent(t)
}

func TestCountConsistencyWithStopwords(t *testing.T) {
	ta := &stream.TokenArray{
		Word:     []int32{0, 1, 2, 3, 1, 2, 0},
		Doc:      []int32{0, 0, 0, 1, 1, 1, 1},
		Toponym:  []uint8{1, 0, 0, 0, 0, 0, 1},
		Stopword: []uint8{0, 0, 1, 0, 0, 1, 0},
	}
	m, err := newRegionModel(testConfig(), ta, [][]int32{{0, 1}}, 3)
	assert.NoError(t, err)

	m.RandomInitialize()
	m.assertCountsConsistent(t)

	m.Train(flatSchedule(10))
	m.assertCountsConsistent(t)

	// stopword tokens never enter the tables
	assert.Equal(t, int32(5), m.regionCounts[0]+m.regionCounts[1]+m.regionCounts[2])
}

func TestConstrainedDisjointDocuments(t *testing.T) {
	// document 0 carries a toponym pinned to region 0, document 1
	// one pinned to region 1; vocabularies are disjoint
	ta := &stream.TokenArray{
		Word:     []int32{0, 1, 2, 3, 4, 5},
		Doc:      []int32{0, 0, 0, 1, 1, 1},
		Toponym:  []uint8{1, 0, 0, 1, 0, 0},
		Stopword: []uint8{0, 0, 0, 0, 0, 0},
	}
	cands := [][]int32{0: {0}, 3: {1}}
	base, err := newRegionModel(testConfig(), ta, cands, 2)
	assert.NoError(t, err)
	m := &ConstrainedModel{RegionModel: base}
	m.buildActiveRegionByDocumentFilter()

	m.RandomInitialize()
	m.Train(flatSchedule(5))

	assert.Equal(t, int32(3), m.regionByDocumentCounts.Get(0, 0))
	assert.Equal(t, int32(0), m.regionByDocumentCounts.Get(0, 1))
	assert.Equal(t, int32(0), m.regionByDocumentCounts.Get(1, 0))
	assert.Equal(t, int32(3), m.regionByDocumentCounts.Get(1, 1))
	m.assertCountsConsistent(t)
}

func TestEmptyMaskFallsBack(t *testing.T) {
	m := filteredModel(t)
	// a document filter that admits nothing for document 0
	m.activeRegionByDocumentFilter = make([]uint8, m.docCount*m.regions)

	m.RandomInitialize()
	assert.Equal(t, 4, m.fallbackTokens)
	for i := 0; i < m.tokens.Len(); i += 1 {
		assert.GreaterOrEqual(t, m.regionVector[i], int32(0))
		assert.Less(t, m.regionVector[i], int32(m.regions))
	}
	m.assertCountsConsistent(t)
}

func TestDecodeMAPPicksArgMax(t *testing.T) {
	m := filteredModel(t)
	m.RandomInitialize()

	// averaged tables strongly favoring region 2 for every word
	m.averagedRegionCounts = []float64{10, 10, 10, 10}
	m.averagedWordByRegionCounts = make([]float64, m.vocabSize*m.regions)
	m.averagedRegionByDocumentCounts = make([]float64, m.docCount*m.regions)
	for w := 0; w < m.vocabSize; w += 1 {
		m.averagedWordByRegionCounts[w*m.regions+2] = 10
	}
	for r := 0; r < m.regions; r += 1 {
		m.averagedRegionByDocumentCounts[r] = 1
	}

	assert.NoError(t, m.Decode())
	for i := 0; i < m.tokens.Len(); i += 1 {
		assert.Equal(t, int32(2), m.regionVector[i])
	}
}

func TestDecodeSampleStaysPermitted(t *testing.T) {
	m := filteredModel(t)
	m.cfg.Decode.Mode = config.DecodeSample
	m.RandomInitialize()
	m.Train(flatSchedule(3))

	assert.NoError(t, m.Decode())
	for _, i := range []int{0, 3} {
		assert.Contains(t, []int32{0, 2}, m.regionVector[i])
	}
}

func TestDecodeBeforeTrainFails(t *testing.T) {
	m := filteredModel(t)
	assert.Error(t, m.Decode())
}

func TestTrainCollectsAverages(t *testing.T) {
	m := filteredModel(t)
	m.RandomInitialize()
	m.Train(anneal.New(anneal.Schedule{
		InitialTemperature: 1.0,
		TargetTemperature:  1.0,
		Iterations:         2,
		Samples:            2,
		Lag:                1,
	}))

	assert.NotNil(t, m.averagedRegionCounts)
	sum := 0.0
	for _, v := range m.averagedRegionCounts {
		sum += v
	}
	// averages of consistent tables keep the eligible-token total
	assert.InDelta(t, 4.0, sum, 1e-9)
}

func TestWriteLoadAveragedCountsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig()
	cfg.Paths.RegionCounts = filepath.Join(dir, "rc.dat.gz")
	cfg.Paths.WordByRegionCounts = filepath.Join(dir, "wbr.dat.gz")
	cfg.Paths.RegionByDocumentCounts = filepath.Join(dir, "rbd.dat.gz")

	ta := &stream.TokenArray{
		Word:     []int32{0, 1, 2, 0},
		Doc:      []int32{0, 0, 0, 0},
		Toponym:  []uint8{1, 0, 0, 1},
		Stopword: []uint8{0, 0, 0, 0},
	}
	m, err := newRegionModel(cfg, ta, [][]int32{{0, 2}}, 4)
	assert.NoError(t, err)
	m.RandomInitialize()
	m.Train(flatSchedule(3))
	assert.NoError(t, m.Write())

	other, err := newRegionModel(cfg, ta, [][]int32{{0, 2}}, 4)
	assert.NoError(t, err)
	assert.NoError(t, other.LoadAveragedCounts())
	assert.Equal(t, m.averagedRegionCounts, other.averagedRegionCounts)
	assert.Equal(t, m.averagedWordByRegionCounts, other.averagedWordByRegionCounts)
	assert.Equal(t, m.averagedRegionByDocumentCounts, other.averagedRegionByDocumentCounts)
	assert.NoError(t, other.Decode())
}

func TestRegistry(t *testing.T) {
	for _, name := range []string{config.ModelRegion, config.ModelConstrained, config.ModelSpherical} {
		ctor, err := GetModel(name)
		assert.NoError(t, err)
		assert.NotNil(t, ctor)
	}
	_, err := GetModel("flat")
	assert.Error(t, err)
}

func TestRejectsBadFilter(t *testing.T) {
	ta := &stream.TokenArray{
		Word:     []int32{0},
		Doc:      []int32{0},
		Toponym:  []uint8{1},
		Stopword: []uint8{0},
	}
	_, err := newRegionModel(testConfig(), ta, [][]int32{{7}}, 4)
	assert.Error(t, err)

	_, err = newRegionModel(testConfig(), &stream.TokenArray{}, nil, 4)
	assert.Error(t, err)
}
