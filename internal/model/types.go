package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Range bounds the phenotype output of one projected factor.
type Range struct {
	Min float64 `json:"min" toml:"min" yaml:"min"`
	Max float64 `json:"max" toml:"max" yaml:"max"`
}

// GeneLayout describes one projected gene. Ranges, when present, holds one
// entry per factor; Choices, when present, wraps the gene in a choice gene.
type GeneLayout struct {
	Factors int       `json:"factors" toml:"factors" yaml:"factors"`
	Ranges  []Range   `json:"ranges,omitempty" toml:"ranges,omitempty" yaml:"ranges,omitempty"`
	Choices []float64 `json:"choices,omitempty" toml:"choices,omitempty" yaml:"choices,omitempty"`
}

type ChromosomeLayout struct {
	Genes []GeneLayout `json:"genes" toml:"genes" yaml:"genes"`
}

// Layout is the topology of a projected genome: everything needed to
// reattach chromosomes and genes to a bare parameter vector.
type Layout struct {
	Chromosomes []ChromosomeLayout `json:"chromosomes" toml:"chromosomes" yaml:"chromosomes"`
}

// Factors returns the total factor count across the layout.
func (l Layout) Factors() int {
	total := 0
	for _, c := range l.Chromosomes {
		for _, g := range c.Genes {
			total += g.Factors
		}
	}
	return total
}

type GenomeRecord struct {
	VersionedRecord
	ID          string    `json:"id"`
	Generation  int       `json:"generation"`
	Layout      Layout    `json:"layout"`
	Parameters  []float64 `json:"parameters"`
	Fingerprint string    `json:"fingerprint"`
}

// ParameterRecord is one (chromosome, gene, factor) -> value entry of a
// serialized parameter genome.
type ParameterRecord struct {
	Chromosome int32   `json:"chromosome"`
	Gene       int32   `json:"gene"`
	Factor     int32   `json:"factor"`
	Value      float64 `json:"value"`
}

type LineageRecord struct {
	VersionedRecord
	GenomeID    string   `json:"genome_id"`
	ParentIDs   []string `json:"parent_ids,omitempty"`
	Generation  int      `json:"generation"`
	Operation   string   `json:"operation"`
	Fingerprint string   `json:"fingerprint"`
}
