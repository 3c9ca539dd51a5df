package main

import (
	goflag "flag"
	"fmt"
	"os"

	log "github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/bobonovski/georegion/anneal"
	"github.com/bobonovski/georegion/config"
	"github.com/bobonovski/georegion/model"
)

var configPath string

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "georegion",
		Short: "Annealed Gibbs sampler assigning geographic regions to corpus tokens",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml",
		"path to the YAML run configuration")
	root.AddCommand(newTrainCommand())
	root.AddCommand(newDecodeCommand())
	return root
}

func newTrainCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "train",
		Short: "Train a region model and write decoded assignments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			m, err := buildModel(cfg)
			if err != nil {
				return err
			}

			m.RandomInitialize()
			m.Train(anneal.New(anneal.Schedule{
				InitialTemperature:   cfg.Anneal.InitialTemperature,
				TargetTemperature:    cfg.Anneal.TargetTemperature,
				TemperatureDecrement: cfg.Anneal.TemperatureDecrement,
				Iterations:           cfg.Anneal.Iterations,
				Samples:              cfg.Anneal.Samples,
				Lag:                  cfg.Anneal.Lag,
			}))
			if err := m.Decode(); err != nil {
				return err
			}
			return m.Write()
		},
	}
}

func newDecodeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "decode",
		Short: "Decode assignments from previously written averaged counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			m, err := buildModel(cfg)
			if err != nil {
				return err
			}

			loader, ok := m.(model.AveragedCountLoader)
			if !ok {
				return fmt.Errorf("model %s cannot decode from persisted counts", cfg.Model)
			}
			if err := loader.LoadAveragedCounts(); err != nil {
				return err
			}
			if err := m.Decode(); err != nil {
				return err
			}
			return m.Write()
		},
	}
}

func buildModel(cfg *config.Config) (model.Model, error) {
	ctor, err := model.GetModel(cfg.Model)
	if err != nil {
		return nil, err
	}
	log.Infof("building %s model from %s", cfg.Model, cfg.Paths.TokenArrayInput)
	return ctor(cfg)
}

func main() {
	// glog flag initialization; cobra owns the argument list
	_ = goflag.CommandLine.Parse([]string{})
	defer log.Flush()

	if err := newRootCommand().Execute(); err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}
