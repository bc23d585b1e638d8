package heredity

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"

	"heredity/internal/model"
	"heredity/internal/numeric"
)

// DefaultSeed roots the deterministic weight initialisation. The same
// topology initialised from it always yields bit-identical weights.
const DefaultSeed int64 = 0x5eed

type Option func(*options)

type options struct {
	engine      numeric.Engine
	parallelism int
}

// WithEngine sets the engine used by every factor under the genome.
func WithEngine(e numeric.Engine) Option {
	return func(o *options) {
		o.engine = e
	}
}

// WithParallelism refreshes genes on up to n goroutines. n <= 1 refreshes
// sequentially.
func WithParallelism(n int) Option {
	return func(o *options) {
		o.parallelism = n
	}
}

// ProjectedGenome owns a single parameter vector (the genotype) and the
// chromosomes projecting it. It is not safe for concurrent use: mutating
// parameters while a refresh is in flight is a data race.
type ProjectedGenome struct {
	opts        options
	params      *Parameters
	chromosomes []*ProjectedChromosome
}

// NewProjectedGenome allocates a zero-filled genotype of the given length.
func NewProjectedGenome(length int, opts ...Option) (*ProjectedGenome, error) {
	if length <= 0 {
		return nil, fmt.Errorf("%w: parameter length must be > 0, got %d", ErrShapeMismatch, length)
	}
	return newProjectedGenome(make([]float64, length), buildOptions(opts)), nil
}

// NewProjectedGenomeFrom copies values into a new genotype.
func NewProjectedGenomeFrom(values []float64, opts ...Option) (*ProjectedGenome, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: parameter length must be > 0", ErrShapeMismatch)
	}
	return newProjectedGenome(append([]float64(nil), values...), buildOptions(opts)), nil
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	o.engine = engineOrDefault(o.engine)
	return o
}

func newProjectedGenome(values []float64, opts options) *ProjectedGenome {
	return &ProjectedGenome{opts: opts, params: newParameters(values)}
}

// Engine returns the engine factors under this genome evaluate with.
func (g *ProjectedGenome) Engine() numeric.Engine {
	return g.opts.engine
}

// Source returns the shared parameter buffer.
func (g *ProjectedGenome) Source() *Parameters {
	return g.params
}

func (g *ProjectedGenome) ParameterCount() int {
	return g.params.Len()
}

// Parameters returns a copy of the genotype.
func (g *ProjectedGenome) Parameters() []float64 {
	return g.params.Values()
}

// SetParameter writes one genotype entry. Every gene reports ErrStale until
// the next RefreshValues.
func (g *ProjectedGenome) SetParameter(i int, v float64) {
	checkIndex("parameter", i, g.params.Len())
	g.params.set(i, v)
}

func (g *ProjectedGenome) AddChromosome() *ProjectedChromosome {
	c := newProjectedChromosome(g.params, g.opts.engine)
	g.chromosomes = append(g.chromosomes, c)
	return c
}

func (g *ProjectedGenome) Chromosomes() []*ProjectedChromosome {
	return append([]*ProjectedChromosome(nil), g.chromosomes...)
}

func (g *ProjectedGenome) Count() int {
	return len(g.chromosomes)
}

func (g *ProjectedGenome) ValueAt(pos int) Chromosome {
	checkIndex("chromosome", pos, len(g.chromosomes))
	return g.chromosomes[pos]
}

// InitWeights initialises every gene deterministically from DefaultSeed.
func (g *ProjectedGenome) InitWeights() {
	g.InitWeightsFrom(rand.New(rand.NewSource(DefaultSeed)))
}

// InitWeightsFrom seeds chromosome i with the i-th value of seeds; each
// chromosome then draws its gene seeds from its own stream, so adding a gene
// to one chromosome leaves every other chromosome's weights unchanged.
func (g *ProjectedGenome) InitWeightsFrom(seeds SeedSource) {
	for _, c := range g.chromosomes {
		c.InitWeights(rand.New(rand.NewSource(seeds.Int63())))
	}
}

// RefreshValues recomputes every gene's cached values. Genes only read the
// parameter vector and write their own cache, so they refresh in parallel
// when the genome was built WithParallelism.
func (g *ProjectedGenome) RefreshValues() {
	if g.opts.parallelism <= 1 {
		for _, c := range g.chromosomes {
			c.RefreshValues()
		}
		return
	}

	p := pool.New().WithMaxGoroutines(g.opts.parallelism)
	for _, c := range g.chromosomes {
		for _, gene := range c.projected {
			p.Go(gene.RefreshValues)
		}
	}
	p.Wait()
}

// AssignTo copies values into the existing parameter buffer, then
// reinitialises all weights from DefaultSeed and refreshes.
//
// Weights carry no history across assignments: the phenotype is a function
// of topology and parameter values alone, and stored genomes depend on that
// to rebuild identical phenotypes. Weights never co-evolve with parameters.
func (g *ProjectedGenome) AssignTo(values []float64) error {
	if err := g.params.assign(values); err != nil {
		return err
	}
	g.InitWeights()
	g.RefreshValues()
	return nil
}

// Variation returns a new genome whose parameters are copied from g, except
// that each entry is, with probability rate, replaced by
// clamp(original+delta(), min, max). g is untouched and the result has no
// chromosomes; reattach topology with Attach. A nil rng draws from a
// time-seeded generator and is not reproducible.
func (g *ProjectedGenome) Variation(min, max, rate float64, delta func() float64, rng *rand.Rand) *ProjectedGenome {
	rng = ensureRNG(rng)
	values := g.params.Values()
	for i, v := range values {
		if rng.Float64() < rate {
			values[i] = clamp(v+delta(), min, max)
		}
	}
	return newProjectedGenome(values, g.opts)
}

// Random returns a chromosome-free genome of the same length with parameters
// drawn uniformly from [0,1). It is the exploratory path; a nil rng is
// time-seeded.
func (g *ProjectedGenome) Random(rng *rand.Rand) *ProjectedGenome {
	rng = ensureRNG(rng)
	values := make([]float64, g.params.Len())
	for i := range values {
		values[i] = rng.Float64()
	}
	return newProjectedGenome(values, g.opts)
}

// WithParameters returns a chromosome-free genome sharing g's options over a
// copy of values.
func (g *ProjectedGenome) WithParameters(values []float64) (*ProjectedGenome, error) {
	if len(values) != g.params.Len() {
		return nil, fmt.Errorf("%w: got %d parameters, genome holds %d", ErrShapeMismatch, len(values), g.params.Len())
	}
	return newProjectedGenome(append([]float64(nil), values...), g.opts), nil
}

// Signature is the hex bit pattern of every parameter in order. It identifies
// the genotype exactly and ignores topology.
func (g *ProjectedGenome) Signature() string {
	var b strings.Builder
	b.Grow(16 * g.params.Len())
	for _, v := range g.params.values {
		b.WriteString(hexBits(v))
	}
	return b.String()
}

// Layout captures the attached topology.
func (g *ProjectedGenome) Layout() model.Layout {
	layout := model.Layout{Chromosomes: make([]model.ChromosomeLayout, 0, len(g.chromosomes))}
	for _, c := range g.chromosomes {
		cl := model.ChromosomeLayout{Genes: make([]model.GeneLayout, 0, len(c.genes))}
		for _, gene := range c.genes {
			switch typed := gene.(type) {
			case *ProjectedGene:
				cl.Genes = append(cl.Genes, model.GeneLayout{
					Factors: typed.Length(),
					Ranges:  typed.ParameterRanges(),
				})
			case *ChoiceGene:
				cl.Genes = append(cl.Genes, model.GeneLayout{
					Factors: typed.Length(),
					Ranges:  typed.ParameterRanges(),
					Choices: typed.Choices(),
				})
			}
		}
		layout.Chromosomes = append(layout.Chromosomes, cl)
	}
	return layout
}

// Attach builds the chromosomes and genes described by layout onto a genome
// that has none, then initialises weights from DefaultSeed and refreshes.
func (g *ProjectedGenome) Attach(layout model.Layout) error {
	if len(g.chromosomes) > 0 {
		return ErrTopologyAttached
	}
	if err := g.attach(layout); err != nil {
		g.chromosomes = nil
		return err
	}
	g.InitWeights()
	g.RefreshValues()
	return nil
}

func (g *ProjectedGenome) attach(layout model.Layout) error {
	for ci, cl := range layout.Chromosomes {
		c := g.AddChromosome()
		for gi, gl := range cl.Genes {
			if len(gl.Ranges) != 0 && len(gl.Ranges) != gl.Factors {
				return fmt.Errorf("%w: chromosome %d gene %d has %d ranges for %d factors",
					ErrShapeMismatch, ci, gi, len(gl.Ranges), gl.Factors)
			}

			var gene *ProjectedGene
			if len(gl.Choices) > 0 {
				choice, err := c.AddChoiceGene(gl.Factors, gl.Choices)
				if err != nil {
					return fmt.Errorf("chromosome %d gene %d: %w", ci, gi, err)
				}
				gene = choice.Wrapped().(*ProjectedGene)
			} else {
				added, err := c.AddGene(gl.Factors)
				if err != nil {
					return fmt.Errorf("chromosome %d gene %d: %w", ci, gi, err)
				}
				gene = added
			}
			for pos, r := range gl.Ranges {
				gene.SetRange(pos, r.Min, r.Max)
			}
		}
	}
	return nil
}

func clamp(v, min, max float64) float64 {
	return math.Max(min, math.Min(max, v))
}

func ensureRNG(rng *rand.Rand) *rand.Rand {
	if rng != nil {
		return rng
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
