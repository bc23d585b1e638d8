package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"heredity/internal/evo"
	"heredity/internal/model"
	api "heredity/pkg/heredity"
)

// genomeConfig describes a genome and the settings used to evolve it.
// Zero-valued variation and breeder settings fall back to defaults.
type genomeConfig struct {
	Parameters  []float64                `json:"parameters" toml:"parameters" yaml:"parameters"`
	Length      int                      `json:"length" toml:"length" yaml:"length"`
	Seed        int64                    `json:"seed" toml:"seed" yaml:"seed"`
	Random      bool                     `json:"random" toml:"random" yaml:"random"`
	Parallelism int                      `json:"parallelism" toml:"parallelism" yaml:"parallelism"`
	Store       string                   `json:"store" toml:"store" yaml:"store"`
	DBPath      string                   `json:"db_path" toml:"db_path" yaml:"db_path"`
	Chromosomes []model.ChromosomeLayout `json:"chromosomes" toml:"chromosomes" yaml:"chromosomes"`
	Variation   variationConfig          `json:"variation" toml:"variation" yaml:"variation"`
	Breeder     breederConfig            `json:"breeder" toml:"breeder" yaml:"breeder"`
}

type variationConfig struct {
	Min       float64 `json:"min" toml:"min" yaml:"min"`
	Max       float64 `json:"max" toml:"max" yaml:"max"`
	Rate      float64 `json:"rate" toml:"rate" yaml:"rate"`
	Intensity float64 `json:"intensity" toml:"intensity" yaml:"intensity"`
}

type breederConfig struct {
	Magnitude float64 `json:"magnitude" toml:"magnitude" yaml:"magnitude"`
}

// loadConfig decodes path as JSON, TOML or YAML by extension.
func loadConfig(path string) (genomeConfig, error) {
	var cfg genomeConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return genomeConfig{}, err
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return genomeConfig{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".toml":
		f, err := os.Open(path)
		if err != nil {
			return genomeConfig{}, err
		}
		defer f.Close()
		if _, err := toml.NewDecoder(f).Decode(&cfg); err != nil {
			return genomeConfig{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return genomeConfig{}, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return genomeConfig{}, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return genomeConfig{}, fmt.Errorf("unsupported config format %q", ext)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *genomeConfig) applyDefaults() {
	if c.Variation.Min == 0 && c.Variation.Max == 0 {
		c.Variation.Max = 1
	}
	if c.Variation.Rate == 0 {
		c.Variation.Rate = evo.DefaultVariationRate
	}
	if c.Variation.Intensity == 0 {
		c.Variation.Intensity = evo.DefaultVariationIntensity
	}
	if c.Breeder.Magnitude == 0 {
		c.Breeder.Magnitude = evo.DefaultBreederMagnitude
	}
}

func (c genomeConfig) layout() model.Layout {
	return model.Layout{Chromosomes: c.Chromosomes}
}

func (c genomeConfig) createRequest() api.CreateRequest {
	return api.CreateRequest{
		Parameters: c.Parameters,
		Length:     c.Length,
		Random:     c.Random,
		Seed:       c.Seed,
		Layout:     c.layout(),
	}
}

func (c genomeConfig) variation() api.VariationSettings {
	return api.VariationSettings{
		Min:       c.Variation.Min,
		Max:       c.Variation.Max,
		Rate:      c.Variation.Rate,
		Intensity: c.Variation.Intensity,
	}
}

func defaultConfig() genomeConfig {
	var cfg genomeConfig
	cfg.applyDefaults()
	return cfg
}
