package evo

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"heredity/internal/heredity"
)

func newAttachedGenome(t *testing.T, values []float64) *heredity.ProjectedGenome {
	t.Helper()
	g, err := heredity.NewProjectedGenomeFrom(values)
	if err != nil {
		t.Fatalf("new genome: %v", err)
	}
	if _, err := g.AddChromosome().AddGene(3); err != nil {
		t.Fatalf("add gene: %v", err)
	}
	g.InitWeights()
	g.RefreshValues()
	return g
}

func TestGaussianVariationKeepsTopologyAndBounds(t *testing.T) {
	g := newAttachedGenome(t, []float64{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5})
	op := NewGaussianVariation(rand.New(rand.NewSource(4)))
	op.Rate = 1
	op.Intensity = 5

	child, err := op.Apply(context.Background(), g)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if child.Count() != 1 || child.Chromosomes()[0].Length() != 1 {
		t.Fatal("expected topology carried over")
	}
	for i, v := range child.Parameters() {
		if v < 0 || v > 1 {
			t.Fatalf("parameter %d out of bounds: %v", i, v)
		}
	}
	if _, err := heredity.Value(child.Engine(), heredity.FactorAt(child, 0, 0, 0)); err != nil {
		t.Fatalf("expected refreshed child: %v", err)
	}
	if g.Parameters()[0] != 0.5 {
		t.Fatal("expected parent untouched")
	}
}

func TestGaussianVariationZeroRateIsIdentity(t *testing.T) {
	g := newAttachedGenome(t, []float64{0.1, 0.9, 0.4})
	op := NewGaussianVariation(rand.New(rand.NewSource(4)))
	op.Rate = 0
	child, err := op.Apply(context.Background(), g)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if child.Signature() != g.Signature() {
		t.Fatal("expected unchanged parameters")
	}
}

func TestRandomRestart(t *testing.T) {
	g := newAttachedGenome(t, []float64{0, 0, 0, 0})
	child, err := (&RandomRestart{Rand: rand.New(rand.NewSource(8))}).Apply(context.Background(), g)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if child.ParameterCount() != 4 || child.Count() != 1 {
		t.Fatal("expected same shape and topology")
	}
	if child.Signature() == g.Signature() {
		t.Fatal("expected new parameters")
	}
}

func TestOperatorsRespectCancellationAndSeeding(t *testing.T) {
	g := newAttachedGenome(t, []float64{0.3})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewGaussianVariation(rand.New(rand.NewSource(1))).Apply(ctx, g); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got=%v", err)
	}
	if _, err := (&RandomRestart{}).Apply(context.Background(), g); !errors.Is(err, ErrNoRandomSource) {
		t.Fatalf("expected ErrNoRandomSource, got=%v", err)
	}
}
