package heredity

import "math"

// Transform reshapes a cached phenotype value when it is read.
type Transform func(float64) float64

// OneToInfinity maps [0,1) onto [0,+Inf); larger exp keeps more of the unit
// interval near zero.
func OneToInfinity(v, exp float64) float64 {
	return 1/(1-math.Pow(v, exp)) - 1
}

// OneToInfinityScaled returns a transform computing OneToInfinity(v, exp) * multiplier.
func OneToInfinityScaled(exp, multiplier float64) Transform {
	return func(v float64) float64 {
		return OneToInfinity(v, exp) * multiplier
	}
}

// TriangleWave folds any real projection into [0,1]. The projection is reduced
// with a true modulo into [0,2), then ramps 0->1 over [0,1) and 1->0 over
// [1,2), so the mapping is continuous across period boundaries. Non-finite
// input folds to 0.
func TriangleWave(raw float64) float64 {
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 0
	}
	folded := math.Mod(math.Mod(raw, 2)+2, 2)
	phase := folded / 2
	if phase < 0.5 {
		return 2 * phase
	}
	return 2 * (1 - phase)
}

// scaleToRange maps tri in [0,1] onto r. Ordered ranges are clamped so
// rounding never leaves [Min,Max]; inverted ranges are scaled as given.
func scaleToRange(tri float64, r Range) float64 {
	v := r.Min + tri*(r.Max-r.Min)
	if r.Min <= r.Max {
		v = math.Max(r.Min, math.Min(r.Max, v))
	}
	return v
}
