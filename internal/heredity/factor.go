package heredity

import (
	"fmt"
	"math"

	"heredity/internal/numeric"
)

// ScaleFactor multiplies its input by a stored scalar, or yields the scalar
// itself when applied to no input.
type ScaleFactor struct {
	Scale  float64
	Engine numeric.Engine
}

func NewScaleFactor(scale float64) *ScaleFactor {
	return &ScaleFactor{Scale: scale}
}

func (f *ScaleFactor) Apply(in numeric.Handle) numeric.Handle {
	e := engineOrDefault(f.Engine)
	value := e.Constant(f.Scale)
	if in == nil {
		return value
	}
	return e.Multiply(in, value)
}

// Signature is the IEEE-754 bit pattern of the scale in hex, so two factors
// share a signature only when their scales are bit-identical.
func (f *ScaleFactor) Signature() string {
	return hexBits(f.Scale)
}

// IdentityFactor passes its input through and yields 1 on its own.
type IdentityFactor struct {
	Engine numeric.Engine
}

func (f IdentityFactor) Apply(in numeric.Handle) numeric.Handle {
	if in != nil {
		return in
	}
	return engineOrDefault(f.Engine).Constant(1)
}

func (f IdentityFactor) Signature() string {
	return hexBits(1)
}

func hexBits(v float64) string {
	return fmt.Sprintf("%016x", math.Float64bits(v))
}

func engineOrDefault(e numeric.Engine) numeric.Engine {
	if e == nil {
		return numeric.Default()
	}
	return e
}
