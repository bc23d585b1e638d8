package evo

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"heredity/internal/heredity"
	"heredity/internal/numeric"
)

var (
	ErrUnsupportedGenome = errors.New("unsupported genome type")
	ErrNoRandomSource    = errors.New("breeder requires a seeded random source")
	ErrNoMagnitude       = errors.New("breeder requires a magnitude source")
)

// Perturbation moves s1 toward s2 by |magnitude| without passing s2. Equal
// endpoints return s1.
func Perturbation(s1, s2, magnitude float64) float64 {
	if s1 == s2 {
		return s1
	}
	step := math.Abs(magnitude)
	if s2 > s1 {
		return math.Min(s1+step, s2)
	}
	return math.Max(s1-step, s2)
}

// ChromosomeBreeder combines two parent chromosomes into one offspring.
// Implementations must not read shared mutable state; any randomness is
// injected.
type ChromosomeBreeder interface {
	Combine(a, b heredity.Chromosome) (heredity.Chromosome, error)
}

// GenomeBreeder combines two parent genomes into one offspring.
type GenomeBreeder interface {
	Combine(a, b heredity.Genome) (heredity.Genome, error)
}

type ChromosomeBreederFunc func(a, b heredity.Chromosome) (heredity.Chromosome, error)

func (f ChromosomeBreederFunc) Combine(a, b heredity.Chromosome) (heredity.Chromosome, error) {
	return f(a, b)
}

type GenomeBreederFunc func(a, b heredity.Genome) (heredity.Genome, error)

func (f GenomeBreederFunc) Combine(a, b heredity.Genome) (heredity.Genome, error) {
	return f(a, b)
}

// PerturbationBreeder moves every parameter of the first parent toward the
// second. One step size, (1+u)*Magnitude/2 with u uniform in [0,1), is drawn
// per offspring.
type PerturbationBreeder struct {
	Magnitude float64
	Rand      *rand.Rand
}

func (b *PerturbationBreeder) Combine(x, y heredity.Genome) (heredity.Genome, error) {
	px, ok := x.(*heredity.ProjectedGenome)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedGenome, x)
	}
	py, ok := y.(*heredity.ProjectedGenome)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedGenome, y)
	}
	child, err := b.Breed(px, py)
	if err != nil {
		return nil, err
	}
	return child, nil
}

// Breed returns a chromosome-free offspring sharing a's options.
func (b *PerturbationBreeder) Breed(a, c *heredity.ProjectedGenome) (*heredity.ProjectedGenome, error) {
	if b.Rand == nil {
		return nil, ErrNoRandomSource
	}
	pa, pc := a.Parameters(), c.Parameters()
	if len(pa) != len(pc) {
		return nil, fmt.Errorf("%w: parents hold %d and %d parameters", heredity.ErrShapeMismatch, len(pa), len(pc))
	}
	scale := (1 + b.Rand.Float64()) * b.Magnitude / 2
	for i := range pa {
		pa[i] = Perturbation(pa[i], pc[i], scale)
	}
	return a.WithParameters(pa)
}

// PerturbationChromosomeBreeder evaluates both parents factor by factor and
// builds a chromosome of ScaleFactor genes, each factor perturbed from the
// first parent toward the second by a magnitude drawn from Magnitude.
type PerturbationChromosomeBreeder struct {
	Magnitude func() float64
	Engine    numeric.Engine
}

func (b *PerturbationChromosomeBreeder) Combine(x, y heredity.Chromosome) (heredity.Chromosome, error) {
	if b.Magnitude == nil {
		return nil, ErrNoMagnitude
	}
	if x.Length() != y.Length() {
		return nil, fmt.Errorf("%w: parents hold %d and %d genes", heredity.ErrShapeMismatch, x.Length(), y.Length())
	}
	e := b.Engine
	if e == nil {
		e = numeric.Default()
	}

	genes := make([]heredity.Gene, 0, x.Length())
	for gi := 0; gi < x.Length(); gi++ {
		gx, gy := x.ValueAt(gi), y.ValueAt(gi)
		if gx.Length() != gy.Length() {
			return nil, fmt.Errorf("%w: gene %d holds %d and %d factors", heredity.ErrShapeMismatch, gi, gx.Length(), gy.Length())
		}
		factors := make([]heredity.Factor, 0, gx.Length())
		for fi := 0; fi < gx.Length(); fi++ {
			vx, err := heredity.Value(e, gx.ValueAt(fi))
			if err != nil {
				return nil, fmt.Errorf("gene %d factor %d: %w", gi, fi, err)
			}
			vy, err := heredity.Value(e, gy.ValueAt(fi))
			if err != nil {
				return nil, fmt.Errorf("gene %d factor %d: %w", gi, fi, err)
			}
			factors = append(factors, &heredity.ScaleFactor{Scale: Perturbation(vx, vy, b.Magnitude()), Engine: e})
		}
		genes = append(genes, heredity.NewGene(factors...))
	}
	return heredity.NewChromosome(genes...), nil
}
