package heredity

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"heredity/internal/model"
	"heredity/internal/numeric"
)

type Range = model.Range

// DefaultRange is the output range every projected factor starts with.
var DefaultRange = Range{Min: 0, Max: 1}

// Parameterized exposes the genotype and the output ranges behind a gene, so
// breeding code can treat projected and choice genes alike.
type Parameterized interface {
	Parameters() []float64
	ParameterRanges() []Range
}

// ProjectedGene computes its factor values by projecting the shared parameter
// vector through one weight row per factor and folding the result into that
// factor's range.
type ProjectedGene struct {
	engine     numeric.Engine
	source     *Parameters
	weights    *mat.Dense
	ranges     []Range
	transforms []Transform
	values     []float64

	refreshed bool
	version   uint64
}

// NewProjectedGene binds weights of shape [factors, source.Len()] to source.
// The gene keeps weights; source is shared, never copied.
func NewProjectedGene(source *Parameters, weights *mat.Dense, engine numeric.Engine) (*ProjectedGene, error) {
	if source == nil || source.Len() == 0 {
		return nil, fmt.Errorf("%w: parameter source is empty", ErrShapeMismatch)
	}
	if weights == nil || weights.IsEmpty() {
		return nil, fmt.Errorf("%w: weight matrix is empty", ErrShapeMismatch)
	}
	factors, cols := weights.Dims()
	if cols != source.Len() {
		return nil, fmt.Errorf("%w: weights have %d columns, parameters have %d", ErrShapeMismatch, cols, source.Len())
	}

	ranges := make([]Range, factors)
	for i := range ranges {
		ranges[i] = DefaultRange
	}
	return &ProjectedGene{
		engine:     engineOrDefault(engine),
		source:     source,
		weights:    weights,
		ranges:     ranges,
		transforms: make([]Transform, factors),
		values:     make([]float64, factors),
	}, nil
}

// InitWeights fills the weights with standard normal draws from a generator
// seeded by seed, then scales every row to unit Euclidean norm.
func (g *ProjectedGene) InitWeights(seed int64) {
	rng := rand.New(rand.NewSource(seed))
	factors, _ := g.weights.Dims()
	for i := 0; i < factors; i++ {
		row := g.weights.RawRowView(i)
		for j := range row {
			row[j] = rng.NormFloat64()
		}
		if norm := floats.Norm(row, 2); norm > 0 {
			floats.Scale(1/norm, row)
		}
	}
}

// RefreshValues recomputes every cached factor value from the current
// parameters. It writes only this gene's cache.
func (g *ProjectedGene) RefreshValues() {
	params := g.source.vector()
	for pos := range g.values {
		raw := mat.Dot(g.weights.RowView(pos), params)
		g.values[pos] = scaleToRange(TriangleWave(raw), g.ranges[pos])
	}
	g.refreshed = true
	g.version = g.source.Version()
}

func (g *ProjectedGene) Length() int {
	return len(g.values)
}

// ValueAt returns a factor that reads the cached value at evaluation time.
func (g *ProjectedGene) ValueAt(pos int) Factor {
	checkIndex("factor", pos, len(g.values))
	return projectedFactor{gene: g, pos: pos}
}

// Value returns the cached value at pos with its transform applied.
func (g *ProjectedGene) Value(pos int) (float64, error) {
	v, err := g.cached(pos)
	if err != nil {
		return 0, err
	}
	if t := g.transforms[pos]; t != nil {
		v = t(v)
	}
	return v, nil
}

func (g *ProjectedGene) cached(pos int) (float64, error) {
	checkIndex("factor", pos, len(g.values))
	if !g.refreshed {
		return 0, fmt.Errorf("%w: factor %d", ErrNotRefreshed, pos)
	}
	if g.version != g.source.Version() {
		return 0, fmt.Errorf("%w: factor %d", ErrStale, pos)
	}
	return g.values[pos], nil
}

// SetRange changes the output bounds of one factor. Cached values keep their
// old range until the next RefreshValues. max >= min is not enforced.
func (g *ProjectedGene) SetRange(pos int, min, max float64) {
	checkIndex("factor", pos, len(g.ranges))
	g.ranges[pos] = Range{Min: min, Max: max}
}

func (g *ProjectedGene) Range(pos int) Range {
	checkIndex("factor", pos, len(g.ranges))
	return g.ranges[pos]
}

func (g *ProjectedGene) SetTransform(pos int, t Transform) {
	checkIndex("factor", pos, len(g.transforms))
	g.transforms[pos] = t
}

func (g *ProjectedGene) SetTransformAll(t Transform) {
	for i := range g.transforms {
		g.transforms[i] = t
	}
}

// Weights returns a copy of the weight matrix.
func (g *ProjectedGene) Weights() *mat.Dense {
	return mat.DenseCopyOf(g.weights)
}

func (g *ProjectedGene) Parameters() []float64 {
	return g.source.Values()
}

func (g *ProjectedGene) ParameterRanges() []Range {
	return append([]Range(nil), g.ranges...)
}

func (g *ProjectedGene) Signature() string {
	return GeneSignature(g)
}

type projectedFactor struct {
	gene *ProjectedGene
	pos  int
}

func (f projectedFactor) Apply(in numeric.Handle) numeric.Handle {
	e := f.gene.engine
	value := e.Defer(func() ([]float64, error) {
		v, err := f.gene.Value(f.pos)
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

// Signature encodes the raw cached value, which is zero before any refresh.
func (f projectedFactor) Signature() string {
	return hexBits(f.gene.values[f.pos])
}
