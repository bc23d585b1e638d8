package heredity

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Parameters is the genotype buffer owned by one ProjectedGenome. Every
// chromosome and gene under that genome holds the same *Parameters. The
// version counter advances on every write so genes can tell when their cached
// values no longer reflect the buffer.
type Parameters struct {
	values  []float64
	vec     *mat.VecDense
	version uint64
}

// newParameters takes ownership of values, which must be non-empty.
func newParameters(values []float64) *Parameters {
	return &Parameters{
		values: values,
		vec:    mat.NewVecDense(len(values), values),
	}
}

func (p *Parameters) Len() int {
	return len(p.values)
}

func (p *Parameters) At(i int) float64 {
	return p.values[i]
}

// Values returns a copy of the buffer.
func (p *Parameters) Values() []float64 {
	out := make([]float64, len(p.values))
	copy(out, p.values)
	return out
}

func (p *Parameters) Version() uint64 {
	return p.version
}

func (p *Parameters) set(i int, v float64) {
	p.values[i] = v
	p.version++
}

// assign copies values into the existing buffer in place.
func (p *Parameters) assign(values []float64) error {
	if len(values) != len(p.values) {
		return fmt.Errorf("%w: got %d parameters, genome holds %d", ErrShapeMismatch, len(values), len(p.values))
	}
	copy(p.values, values)
	p.version++
	return nil
}

// vector aliases the buffer; it is never copied.
func (p *Parameters) vector() *mat.VecDense {
	return p.vec
}
