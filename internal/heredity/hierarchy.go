package heredity

import (
	"errors"
	"fmt"
	"strings"

	"heredity/internal/numeric"
)

var (
	ErrShapeMismatch    = errors.New("shape mismatch")
	ErrNotRefreshed     = errors.New("gene values read before first refresh")
	ErrStale            = errors.New("gene values are stale; parameters changed since last refresh")
	ErrUnassigned       = errors.New("parameter slot is unassigned")
	ErrNoChoices        = errors.New("choice set is empty")
	ErrTopologyAttached = errors.New("genome already has chromosomes attached")
)

// Factor is the unit of genetic expression: a pure transform of a numeric
// handle. A nil input asks the factor for its intrinsic value.
type Factor interface {
	Apply(in numeric.Handle) numeric.Handle
	Signature() string
}

// Gene is an ordered, fixed-length sequence of factors.
type Gene interface {
	Length() int
	ValueAt(pos int) Factor
	Signature() string
}

// Chromosome is an ordered, fixed-length sequence of genes.
type Chromosome interface {
	Length() int
	ValueAt(pos int) Gene
	Signature() string
}

// Genome is the top-level genetic container.
type Genome interface {
	Count() int
	ValueAt(pos int) Chromosome
	Signature() string
}

func GeneAt(g Genome, chromosome, gene int) Gene {
	return g.ValueAt(chromosome).ValueAt(gene)
}

func FactorAt(g Genome, chromosome, gene, factor int) Factor {
	return g.ValueAt(chromosome).ValueAt(gene).ValueAt(factor)
}

func ChromosomeFactorAt(c Chromosome, gene, factor int) Factor {
	return c.ValueAt(gene).ValueAt(factor)
}

// Value evaluates the intrinsic value of f.
func Value(e numeric.Engine, f Factor) (float64, error) {
	return numeric.Scalar(e, f.Apply(nil))
}

// GeneSignature concatenates factor signatures in index order.
func GeneSignature(g Gene) string {
	var b strings.Builder
	for i := 0; i < g.Length(); i++ {
		b.WriteString(g.ValueAt(i).Signature())
	}
	return b.String()
}

func ChromosomeSignature(c Chromosome) string {
	var b strings.Builder
	for i := 0; i < c.Length(); i++ {
		b.WriteString(c.ValueAt(i).Signature())
	}
	return b.String()
}

func GenomeSignature(g Genome) string {
	var b strings.Builder
	for i := 0; i < g.Count(); i++ {
		b.WriteString(g.ValueAt(i).Signature())
	}
	return b.String()
}

// ListGene is a gene over a fixed slice of factors.
type ListGene struct {
	factors []Factor
}

func NewGene(factors ...Factor) *ListGene {
	return &ListGene{factors: append([]Factor(nil), factors...)}
}

func (g *ListGene) Length() int {
	return len(g.factors)
}

func (g *ListGene) ValueAt(pos int) Factor {
	checkIndex("factor", pos, len(g.factors))
	return g.factors[pos]
}

func (g *ListGene) Signature() string {
	return GeneSignature(g)
}

type ListChromosome struct {
	genes []Gene
}

func NewChromosome(genes ...Gene) *ListChromosome {
	return &ListChromosome{genes: append([]Gene(nil), genes...)}
}

func (c *ListChromosome) Length() int {
	return len(c.genes)
}

func (c *ListChromosome) ValueAt(pos int) Gene {
	checkIndex("gene", pos, len(c.genes))
	return c.genes[pos]
}

func (c *ListChromosome) Signature() string {
	return ChromosomeSignature(c)
}

type ListGenome struct {
	chromosomes []Chromosome
}

func NewGenome(chromosomes ...Chromosome) *ListGenome {
	return &ListGenome{chromosomes: append([]Chromosome(nil), chromosomes...)}
}

func (g *ListGenome) Count() int {
	return len(g.chromosomes)
}

func (g *ListGenome) ValueAt(pos int) Chromosome {
	checkIndex("chromosome", pos, len(g.chromosomes))
	return g.chromosomes[pos]
}

func (g *ListGenome) Signature() string {
	return GenomeSignature(g)
}

// checkIndex panics on out-of-range positions; these are caller bugs.
func checkIndex(kind string, pos, length int) {
	if pos < 0 || pos >= length {
		panic(fmt.Sprintf("heredity: %s index %d out of range [0,%d)", kind, pos, length))
	}
}
