package evo

import (
	"context"
	"math/rand"

	"heredity/internal/heredity"
)

const (
	DefaultVariationRate      = 0.1
	DefaultVariationIntensity = 0.01
	DefaultBreederMagnitude   = 0.1
)

// Operator derives a new genome from an existing one. The input is never
// modified; the result carries the input's topology.
type Operator interface {
	Name() string
	Apply(ctx context.Context, genome *heredity.ProjectedGenome) (*heredity.ProjectedGenome, error)
}

// GaussianVariation replaces each parameter, with probability Rate, by
// clamp(p + Intensity*N(0,1), Min, Max).
type GaussianVariation struct {
	Rand      *rand.Rand
	Min       float64
	Max       float64
	Rate      float64
	Intensity float64
}

func NewGaussianVariation(rng *rand.Rand) *GaussianVariation {
	return &GaussianVariation{
		Rand:      rng,
		Min:       0,
		Max:       1,
		Rate:      DefaultVariationRate,
		Intensity: DefaultVariationIntensity,
	}
}

func (o *GaussianVariation) Name() string {
	return "gaussian_variation"
}

func (o *GaussianVariation) Apply(ctx context.Context, genome *heredity.ProjectedGenome) (*heredity.ProjectedGenome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if o.Rand == nil {
		return nil, ErrNoRandomSource
	}
	child := genome.Variation(o.Min, o.Max, o.Rate, func() float64 {
		return o.Intensity * o.Rand.NormFloat64()
	}, o.Rand)
	if err := child.Attach(genome.Layout()); err != nil {
		return nil, err
	}
	return child, nil
}

// RandomRestart discards the genotype and draws a fresh uniform one.
type RandomRestart struct {
	Rand *rand.Rand
}

func (o *RandomRestart) Name() string {
	return "random_restart"
}

func (o *RandomRestart) Apply(ctx context.Context, genome *heredity.ProjectedGenome) (*heredity.ProjectedGenome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if o.Rand == nil {
		return nil, ErrNoRandomSource
	}
	child := genome.Random(o.Rand)
	if err := child.Attach(genome.Layout()); err != nil {
		return nil, err
	}
	return child, nil
}
