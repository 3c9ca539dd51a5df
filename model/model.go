package model

import (
	"fmt"

	"github.com/bobonovski/georegion/anneal"
	"github.com/bobonovski/georegion/config"
)

var constructors = make(map[string]ModelCtor)

// the common interface region samplers should follow
type Model interface {
	// randomly assign every eligible token a permitted region
	RandomInitialize()
	// run annealed gibbs sweeps until the schedule is exhausted
	Train(a anneal.Annealer)
	// take the final assignment pass over the averaged tables
	Decode() error
	// persist decoded assignments and averaged count tables
	Write() error
	// joint log likelihood of the corpus under the current state
	Likelihood() float64
}

// AveragedCountLoader is satisfied by models that can decode from
// count tables persisted by an earlier training run
type AveragedCountLoader interface {
	LoadAveragedCounts() error
}

// new region samplers should register themselves using this function
func Register(modelType string, ctor ModelCtor) {
	constructors[modelType] = ctor
}

type ModelCtor func(cfg *config.Config) (Model, error)

func GetModel(modelType string) (ModelCtor, error) {
	if _, ok := constructors[modelType]; !ok {
		return nil, fmt.Errorf("model %s not registered", modelType)
	}
	return constructors[modelType], nil
}
