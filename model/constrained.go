package model

import (
	log "github.com/golang/glog"

	"github.com/bobonovski/georegion/config"
)

func init() {
	Register(config.ModelConstrained, NewConstrainedModel)
}

// ConstrainedModel restricts every token, toponym or not, to the
// regions some toponym of its document can fall into
type ConstrainedModel struct {
	*RegionModel
}

// NewConstrainedModel creates the fully constrained sampler variant
func NewConstrainedModel(cfg *config.Config) (Model, error) {
	ta, cands, regions, err := loadRegionInputs(cfg)
	if err != nil {
		return nil, err
	}
	base, err := newRegionModel(cfg, ta, cands, regions)
	if err != nil {
		return nil, err
	}
	this := &ConstrainedModel{RegionModel: base}
	this.buildActiveRegionByDocumentFilter()
	return this, nil
}

// buildActiveRegionByDocumentFilter marks region r active for document
// d when any toponym token of d has r among its candidates; documents
// without filtered toponyms stay active everywhere
func (this *ConstrainedModel) buildActiveRegionByDocumentFilter() {
	filter := make([]uint8, this.docCount*this.regions)
	constrained := make([]bool, this.docCount)

	for i := 0; i < this.tokens.Len(); i += 1 {
		if this.tokens.Stopword[i] == 1 || this.tokens.Toponym[i] != 1 {
			continue
		}
		list := this.candidateRegions[this.tokens.Word[i]]
		if list == nil {
			continue
		}
		d := int(this.tokens.Doc[i])
		constrained[d] = true
		for _, r := range list {
			filter[d*this.regions+int(r)] = 1
		}
	}

	open := 0
	for d := 0; d < this.docCount; d += 1 {
		if constrained[d] {
			continue
		}
		open += 1
		row := filter[d*this.regions : (d+1)*this.regions]
		for r := range row {
			row[r] = 1
		}
	}
	if open > 0 {
		log.Infof("%d of %d documents carry no toponym and stay unconstrained",
			open, this.docCount)
	}

	this.activeRegionByDocumentFilter = filter
}
