package heredity

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"heredity/internal/numeric"
)

// SeedSource yields successive seeds; *rand.Rand satisfies it.
type SeedSource interface {
	Int63() int64
}

// ProjectedChromosome is a view over its genome's parameter vector holding
// the projected genes added to it. Choice genes occupy a gene position of
// their own while the projected gene they wrap is still owned for weight
// initialisation and refresh.
type ProjectedChromosome struct {
	engine    numeric.Engine
	source    *Parameters
	genes     []Gene
	projected []*ProjectedGene
}

func newProjectedChromosome(source *Parameters, engine numeric.Engine) *ProjectedChromosome {
	return &ProjectedChromosome{engine: engine, source: source}
}

// AddGene allocates a [factors, parameters] weight matrix and a gene over it.
// Weights are zero until InitWeights runs.
func (c *ProjectedChromosome) AddGene(factors int) (*ProjectedGene, error) {
	gene, err := c.newGene(factors)
	if err != nil {
		return nil, err
	}
	c.genes = append(c.genes, gene)
	c.projected = append(c.projected, gene)
	return gene, nil
}

// AddChoiceGene adds a projected gene wrapped in a choice gene over choices.
func (c *ProjectedChromosome) AddChoiceGene(factors int, choices []float64) (*ChoiceGene, error) {
	gene, err := c.newGene(factors)
	if err != nil {
		return nil, err
	}
	choice, err := NewChoiceGene(gene, choices, c.engine)
	if err != nil {
		return nil, err
	}
	c.genes = append(c.genes, choice)
	c.projected = append(c.projected, gene)
	return choice, nil
}

func (c *ProjectedChromosome) newGene(factors int) (*ProjectedGene, error) {
	if factors <= 0 {
		return nil, fmt.Errorf("%w: gene needs at least one factor, got %d", ErrShapeMismatch, factors)
	}
	return NewProjectedGene(c.source, mat.NewDense(factors, c.source.Len(), nil), c.engine)
}

// InitWeights gives each owned gene, in insertion order, the next seed from seeds.
func (c *ProjectedChromosome) InitWeights(seeds SeedSource) {
	for _, g := range c.projected {
		g.InitWeights(seeds.Int63())
	}
}

func (c *ProjectedChromosome) RefreshValues() {
	for _, g := range c.projected {
		g.RefreshValues()
	}
}

func (c *ProjectedChromosome) Length() int {
	return len(c.genes)
}

func (c *ProjectedChromosome) ValueAt(pos int) Gene {
	checkIndex("gene", pos, len(c.genes))
	return c.genes[pos]
}

// ProjectedGenes returns the owned projected genes, including those wrapped
// by choice genes.
func (c *ProjectedChromosome) ProjectedGenes() []*ProjectedGene {
	return append([]*ProjectedGene(nil), c.projected...)
}

func (c *ProjectedChromosome) Signature() string {
	return ChromosomeSignature(c)
}
