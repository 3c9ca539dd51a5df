package anneal

// MaximumPosteriorDecoder replaces a distribution with a point mass
// on its arg-max entry, the zero-temperature limit of the annealed
// reweighting. It drives no iterations of its own: decoding is a
// single pass over the tokens.
type MaximumPosteriorDecoder struct{}

func (d *MaximumPosteriorDecoder) NextIter() bool {
	return false
}

func (d *MaximumPosteriorDecoder) AnnealProbs(probs []float64) float64 {
	maxi := 0
	for i, p := range probs {
		if p > probs[maxi] {
			maxi = i
		}
	}
	for i := range probs {
		probs[i] = 0
	}
	probs[maxi] = 1
	return 1
}

func (d *MaximumPosteriorDecoder) AnnealBlockProbs(probs []float64, blocks, blockLen, stride int) float64 {
	maxb, maxi := 0, 0
	for b := 0; b < blocks; b += 1 {
		off := b * stride
		for i := 0; i < blockLen; i += 1 {
			if probs[off+i] > probs[maxb*stride+maxi] {
				maxb, maxi = b, i
			}
		}
	}
	for b := 0; b < blocks; b += 1 {
		off := b * stride
		for i := 0; i < blockLen; i += 1 {
			probs[off+i] = 0
		}
	}
	probs[maxb*stride+maxi] = 1
	return 1
}

func (d *MaximumPosteriorDecoder) SampleThisSweep() bool { return false }

func (d *MaximumPosteriorDecoder) CollectSamples(regionCounts, wordByRegion, regionByDoc []int32) {
}

func (d *MaximumPosteriorDecoder) Samples() int { return 0 }

func (d *MaximumPosteriorDecoder) AveragedRegionCounts() []float64 { return nil }

func (d *MaximumPosteriorDecoder) AveragedWordByRegionCounts() []float64 { return nil }

func (d *MaximumPosteriorDecoder) AveragedRegionByDocumentCounts() []float64 { return nil }
