package heredity

import (
	"fmt"
	"sort"

	"heredity/internal/model"
	"heredity/internal/numeric"
)

// Position addresses one factor slot of a parameter genome.
type Position struct {
	Chromosome int32
	Gene       int32
	Factor     int32
}

func (p Position) less(o Position) bool {
	if p.Chromosome != o.Chromosome {
		return p.Chromosome < o.Chromosome
	}
	if p.Gene != o.Gene {
		return p.Gene < o.Gene
	}
	return p.Factor < o.Factor
}

// ParameterGenome is a sparse (chromosome, gene, factor) -> value genome. It
// is the serialisable form of a phenotype. Slots that were never set read as
// ErrUnassigned.
type ParameterGenome struct {
	Engine numeric.Engine
	values map[Position]float64
}

func NewParameterGenome() *ParameterGenome {
	return &ParameterGenome{values: make(map[Position]float64)}
}

func ParameterGenomeFromRecords(records []model.ParameterRecord) *ParameterGenome {
	pg := NewParameterGenome()
	for _, r := range records {
		pg.values[Position{Chromosome: r.Chromosome, Gene: r.Gene, Factor: r.Factor}] = r.Value
	}
	return pg
}

func (pg *ParameterGenome) Set(chromosome, gene, factor int, v float64) {
	pg.values[Position{Chromosome: int32(chromosome), Gene: int32(gene), Factor: int32(factor)}] = v
}

func (pg *ParameterGenome) Lookup(chromosome, gene, factor int) (float64, error) {
	pos := Position{Chromosome: int32(chromosome), Gene: int32(gene), Factor: int32(factor)}
	v, ok := pg.values[pos]
	if !ok {
		return 0, fmt.Errorf("%w: chromosome=%d gene=%d factor=%d", ErrUnassigned, chromosome, gene, factor)
	}
	return v, nil
}

func (pg *ParameterGenome) Len() int {
	return len(pg.values)
}

// Positions returns every assigned slot in (chromosome, gene, factor) order.
func (pg *ParameterGenome) Positions() []Position {
	out := make([]Position, 0, len(pg.values))
	for pos := range pg.values {
		out = append(out, pos)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].less(out[j]) })
	return out
}

func (pg *ParameterGenome) Records() []model.ParameterRecord {
	positions := pg.Positions()
	out := make([]model.ParameterRecord, 0, len(positions))
	for _, pos := range positions {
		out = append(out, model.ParameterRecord{
			Chromosome: pos.Chromosome,
			Gene:       pos.Gene,
			Factor:     pos.Factor,
			Value:      pg.values[pos],
		})
	}
	return out
}

// Equal reports whether both genomes assign the same slots to bit-identical values.
func (pg *ParameterGenome) Equal(other *ParameterGenome) bool {
	if other == nil || len(pg.values) != len(other.values) {
		return false
	}
	for pos, v := range pg.values {
		ov, ok := other.values[pos]
		if !ok || hexBits(ov) != hexBits(v) {
			return false
		}
	}
	return true
}

func (pg *ParameterGenome) Count() int {
	count := 0
	for pos := range pg.values {
		if int(pos.Chromosome)+1 > count {
			count = int(pos.Chromosome) + 1
		}
	}
	return count
}

func (pg *ParameterGenome) ValueAt(pos int) Chromosome {
	checkIndex("chromosome", pos, pg.Count())
	return parameterChromosome{genome: pg, chromosome: int32(pos)}
}

func (pg *ParameterGenome) Signature() string {
	return GenomeSignature(pg)
}

type parameterChromosome struct {
	genome     *ParameterGenome
	chromosome int32
}

func (c parameterChromosome) Length() int {
	length := 0
	for pos := range c.genome.values {
		if pos.Chromosome == c.chromosome && int(pos.Gene)+1 > length {
			length = int(pos.Gene) + 1
		}
	}
	return length
}

func (c parameterChromosome) ValueAt(pos int) Gene {
	checkIndex("gene", pos, c.Length())
	return parameterGene{genome: c.genome, chromosome: c.chromosome, gene: int32(pos)}
}

func (c parameterChromosome) Signature() string {
	return ChromosomeSignature(c)
}

type parameterGene struct {
	genome     *ParameterGenome
	chromosome int32
	gene       int32
}

func (g parameterGene) Length() int {
	length := 0
	for pos := range g.genome.values {
		if pos.Chromosome == g.chromosome && pos.Gene == g.gene && int(pos.Factor)+1 > length {
			length = int(pos.Factor) + 1
		}
	}
	return length
}

func (g parameterGene) ValueAt(pos int) Factor {
	checkIndex("factor", pos, g.Length())
	slot := Position{Chromosome: g.chromosome, Gene: g.gene, Factor: int32(pos)}
	if v, ok := g.genome.values[slot]; ok {
		return &ScaleFactor{Scale: v, Engine: g.genome.Engine}
	}
	return unassignedFactor{slot: slot, engine: engineOrDefault(g.genome.Engine)}
}

func (g parameterGene) Signature() string {
	return GeneSignature(g)
}

// unassignedFactor stands in for a gap in a sparse genome; evaluating it
// fails with ErrUnassigned.
type unassignedFactor struct {
	slot   Position
	engine numeric.Engine
}

func (f unassignedFactor) Apply(in numeric.Handle) numeric.Handle {
	value := f.engine.Defer(func() ([]float64, error) {
		return nil, fmt.Errorf("%w: chromosome=%d gene=%d factor=%d",
			ErrUnassigned, f.slot.Chromosome, f.slot.Gene, f.slot.Factor)
	})
	if in == nil {
		return value
	}
	return f.engine.Multiply(value, in)
}

func (f unassignedFactor) Signature() string {
	return "-"
}

// Snapshot evaluates every factor of genome into a parameter genome.
func Snapshot(genome Genome, e numeric.Engine) (*ParameterGenome, error) {
	e = engineOrDefault(e)
	pg := NewParameterGenome()
	pg.Engine = e
	for c := 0; c < genome.Count(); c++ {
		chromosome := genome.ValueAt(c)
		for g := 0; g < chromosome.Length(); g++ {
			gene := chromosome.ValueAt(g)
			for f := 0; f < gene.Length(); f++ {
				v, err := Value(e, gene.ValueAt(f))
				if err != nil {
					return nil, fmt.Errorf("snapshot chromosome=%d gene=%d factor=%d: %w", c, g, f, err)
				}
				pg.Set(c, g, f, v)
			}
		}
	}
	return pg, nil
}
