package config

import (
	"fmt"
	"math"
)

// Config is the full experiment parameter set for one training run.
// Every field is explicit and validated before any sampling starts;
// a malformed schedule or a missing path kills the run up front.
type Config struct {
	// model variant: region, constrained or spherical
	Model string `yaml:"model" env:"GEOREGION_MODEL" env-default:"region"`

	Sampler SamplerConfig `yaml:"sampler"`
	Anneal  AnnealConfig  `yaml:"anneal"`
	Decode  DecodeConfig  `yaml:"decode"`
	Paths   PathsConfig   `yaml:"paths"`
}

// SamplerConfig holds the model hyperparameters.
type SamplerConfig struct {
	// number of regions; zero lets the grid variants derive it from
	// the toponym filter, the spherical variant requires it
	Regions int `yaml:"regions" env:"GEOREGION_REGIONS" env-default:"0"`
	// region-by-document smoothing
	Alpha float64 `yaml:"alpha" env:"GEOREGION_ALPHA" env-default:"1"`
	// word-by-region smoothing
	Beta float64 `yaml:"beta" env:"GEOREGION_BETA" env-default:"0.1"`
	// concentration of the global stick-breaking weights (spherical)
	CrpAlpha float64 `yaml:"crp_alpha" env:"GEOREGION_CRP_ALPHA" env-default:"20"`
	// initial von Mises-Fisher concentration (spherical)
	Kappa float64 `yaml:"kappa" env:"GEOREGION_KAPPA" env-default:"20"`
	// standard deviation of the Gaussian kappa proposal (spherical)
	KappaProposalStddev float64 `yaml:"kappa_proposal_stddev" env:"GEOREGION_KAPPA_PROPOSAL_STDDEV" env-default:"2"`
	// random seed; zero draws a fresh seed per run
	RandomSeed int64 `yaml:"random_seed" env:"GEOREGION_RANDOM_SEED" env-default:"1"`
}

// AnnealConfig holds the temperature schedule.
type AnnealConfig struct {
	// sweeps per temperature step
	Iterations int `yaml:"iterations" env:"GEOREGION_ITERATIONS" env-default:"100"`
	// post-burn-in samples to average; zero disables collection
	Samples int `yaml:"samples" env:"GEOREGION_SAMPLES" env-default:"100"`
	// sweeps between samples
	Lag                  int     `yaml:"lag" env:"GEOREGION_LAG" env-default:"10"`
	InitialTemperature   float64 `yaml:"initial_temperature" env:"GEOREGION_INITIAL_TEMPERATURE" env-default:"1"`
	TemperatureDecrement float64 `yaml:"temperature_decrement" env:"GEOREGION_TEMPERATURE_DECREMENT" env-default:"0.1"`
	TargetTemperature    float64 `yaml:"target_temperature" env:"GEOREGION_TARGET_TEMPERATURE" env-default:"1"`
}

// DecodeConfig selects how the final assignment pass is taken.
type DecodeConfig struct {
	// map takes the arg-max region, sample draws one final sample
	Mode string `yaml:"mode" env:"GEOREGION_DECODE_MODE" env-default:"map"`
}

// PathsConfig holds every stream path of a run. Files ending in .gz
// are gzip compressed transparently.
type PathsConfig struct {
	// input token records; text or binary per the format fields
	TokenArrayInput string `yaml:"token_array_input" env:"GEOREGION_TOKEN_ARRAY_INPUT"`
	// decoded token records with region assignments
	TokenArrayOutput string `yaml:"token_array_output" env:"GEOREGION_TOKEN_ARRAY_OUTPUT"`
	// per-toponym candidate region lists (grid variants)
	ToponymRegionFilter string `yaml:"toponym_region_filter" env:"GEOREGION_TOPONYM_REGION_FILTER"`
	// per-toponym coordinate lists (spherical variant)
	ToponymCoordinates string `yaml:"toponym_coordinates" env:"GEOREGION_TOPONYM_COORDINATES"`
	// averaged count tables written after training
	RegionCounts           string `yaml:"region_counts" env:"GEOREGION_REGION_COUNTS"`
	WordByRegionCounts     string `yaml:"word_by_region_counts" env:"GEOREGION_WORD_BY_REGION_COUNTS"`
	RegionByDocumentCounts string `yaml:"region_by_document_counts" env:"GEOREGION_REGION_BY_DOCUMENT_COUNTS"`

	InputFormat  string `yaml:"input_format" env:"GEOREGION_INPUT_FORMAT" env-default:"text"`
	OutputFormat string `yaml:"output_format" env:"GEOREGION_OUTPUT_FORMAT" env-default:"binary"`
}

const (
	ModelRegion      = "region"
	ModelConstrained = "constrained"
	ModelSpherical   = "spherical"

	DecodeMAP    = "map"
	DecodeSample = "sample"
)

// Validate rejects any parameter set that cannot produce a correct
// run: inconsistent schedules, non-positive priors, missing paths.
func (c *Config) Validate() error {
	switch c.Model {
	case ModelRegion, ModelConstrained, ModelSpherical:
	default:
		return fmt.Errorf("model: unknown variant %q", c.Model)
	}

	if c.Sampler.Alpha <= 0 {
		return fmt.Errorf("sampler.alpha: must be positive, got %g", c.Sampler.Alpha)
	}
	if c.Sampler.Beta <= 0 {
		return fmt.Errorf("sampler.beta: must be positive, got %g", c.Sampler.Beta)
	}
	if c.Sampler.Regions < 0 {
		return fmt.Errorf("sampler.regions: must not be negative, got %d", c.Sampler.Regions)
	}
	if c.Model == ModelSpherical {
		if c.Sampler.Regions == 0 {
			return fmt.Errorf("sampler.regions: required for the spherical model")
		}
		if c.Sampler.Kappa <= 0 {
			return fmt.Errorf("sampler.kappa: must be positive, got %g", c.Sampler.Kappa)
		}
		if c.Sampler.KappaProposalStddev <= 0 {
			return fmt.Errorf("sampler.kappa_proposal_stddev: must be positive, got %g", c.Sampler.KappaProposalStddev)
		}
		if c.Sampler.CrpAlpha <= 0 {
			return fmt.Errorf("sampler.crp_alpha: must be positive, got %g", c.Sampler.CrpAlpha)
		}
	}

	a := c.Anneal
	if a.Iterations <= 0 {
		return fmt.Errorf("anneal.iterations: must be positive, got %d", a.Iterations)
	}
	if a.Samples < 0 {
		return fmt.Errorf("anneal.samples: must not be negative, got %d", a.Samples)
	}
	if a.Samples > 0 && a.Lag <= 0 {
		return fmt.Errorf("anneal.lag: must be positive when samples are collected, got %d", a.Lag)
	}
	if a.InitialTemperature <= 0 || a.TargetTemperature <= 0 {
		return fmt.Errorf("anneal: temperatures must be positive (initial %g, target %g)",
			a.InitialTemperature, a.TargetTemperature)
	}
	if a.InitialTemperature < a.TargetTemperature {
		return fmt.Errorf("anneal: initial temperature %g below target %g",
			a.InitialTemperature, a.TargetTemperature)
	}
	if a.InitialTemperature-a.TargetTemperature > 1e-6 && a.TemperatureDecrement <= 0 {
		return fmt.Errorf("anneal.temperature_decrement: must be positive to reach target %g from %g",
			a.TargetTemperature, a.InitialTemperature)
	}
	if math.IsNaN(a.InitialTemperature) || math.IsNaN(a.TargetTemperature) || math.IsNaN(a.TemperatureDecrement) {
		return fmt.Errorf("anneal: temperature schedule contains NaN")
	}

	switch c.Decode.Mode {
	case DecodeMAP, DecodeSample:
	default:
		return fmt.Errorf("decode.mode: want map or sample, got %q", c.Decode.Mode)
	}

	if c.Paths.TokenArrayInput == "" {
		return fmt.Errorf("paths.token_array_input: required")
	}
	switch c.Model {
	case ModelRegion, ModelConstrained:
		if c.Paths.ToponymRegionFilter == "" {
			return fmt.Errorf("paths.toponym_region_filter: required for the %s model", c.Model)
		}
	case ModelSpherical:
		if c.Paths.ToponymCoordinates == "" {
			return fmt.Errorf("paths.toponym_coordinates: required for the spherical model")
		}
	}

	for _, f := range []string{c.Paths.InputFormat, c.Paths.OutputFormat} {
		if f != "text" && f != "binary" {
			return fmt.Errorf("paths: format must be text or binary, got %q", f)
		}
	}

	return nil
}
