package heredity

import (
	"math"

	"heredity/internal/numeric"
)

// ChoiceGene selects one of a fixed set of discrete alternatives per factor,
// driven by the continuous value of a wrapped gene.
type ChoiceGene struct {
	engine  numeric.Engine
	gene    Gene
	choices []float64
}

// NewChoiceGene wraps gene. Values of a wrapped ProjectedGene are normalised
// by that factor's range; any other gene is assumed to produce values in [0,1].
func NewChoiceGene(gene Gene, choices []float64, engine numeric.Engine) (*ChoiceGene, error) {
	if len(choices) == 0 {
		return nil, ErrNoChoices
	}
	return &ChoiceGene{
		engine:  engineOrDefault(engine),
		gene:    gene,
		choices: append([]float64(nil), choices...),
	}, nil
}

// ChoiceIndex maps v in [0,1] to floor(v*n) clamped to [0,n-1], so v == 1
// still selects the last choice.
func ChoiceIndex(v float64, n int) int {
	if n <= 0 || math.IsNaN(v) {
		return 0
	}
	idx := math.Floor(v * float64(n))
	if idx < 0 {
		return 0
	}
	if idx > float64(n-1) {
		return n - 1
	}
	return int(idx)
}

func (g *ChoiceGene) Length() int {
	return g.gene.Length()
}

func (g *ChoiceGene) ValueAt(pos int) Factor {
	checkIndex("factor", pos, g.gene.Length())
	return choiceFactor{gene: g, pos: pos}
}

// Choose returns the alternative currently selected at pos.
func (g *ChoiceGene) Choose(pos int) (float64, error) {
	v, err := g.continuous(pos)
	if err != nil {
		return 0, err
	}
	return g.choices[ChoiceIndex(v, len(g.choices))], nil
}

func (g *ChoiceGene) continuous(pos int) (float64, error) {
	if pg, ok := g.gene.(*ProjectedGene); ok {
		v, err := pg.cached(pos)
		if err != nil {
			return 0, err
		}
		r := pg.Range(pos)
		if r.Max == r.Min {
			return 0, nil
		}
		return (v - r.Min) / (r.Max - r.Min), nil
	}
	return Value(g.engine, g.gene.ValueAt(pos))
}

func (g *ChoiceGene) Choices() []float64 {
	return append([]float64(nil), g.choices...)
}

// Wrapped returns the gene driving the selection.
func (g *ChoiceGene) Wrapped() Gene {
	return g.gene
}

func (g *ChoiceGene) Parameters() []float64 {
	if p, ok := g.gene.(Parameterized); ok {
		return p.Parameters()
	}
	return nil
}

func (g *ChoiceGene) ParameterRanges() []Range {
	if p, ok := g.gene.(Parameterized); ok {
		return p.ParameterRanges()
	}
	return nil
}

func (g *ChoiceGene) Signature() string {
	return GeneSignature(g)
}

type choiceFactor struct {
	gene *ChoiceGene
	pos  int
}

func (f choiceFactor) Apply(in numeric.Handle) numeric.Handle {
	e := f.gene.engine
	value := e.Defer(func() ([]float64, error) {
		v, err := f.gene.Choose(f.pos)
		if err != nil {
			return nil, err
		}
		return []float64{v}, nil
	})
	if in == nil {
		return value
	}
	return e.Multiply(value, in)
}

func (f choiceFactor) Signature() string {
	return f.gene.gene.ValueAt(f.pos).Signature()
}
