package evo

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"heredity/internal/heredity"
)

var (
	ErrOperatorExists       = errors.New("operator already registered")
	ErrOperatorNotFound     = errors.New("operator not found")
	ErrOperatorIncompatible = errors.New("operator incompatible with genome")
)

type CompatibilityFn func(genome *heredity.ProjectedGenome) error

type OperatorSpec struct {
	Name       string
	Operator   Operator
	Compatible CompatibilityFn
}

type registeredOperator struct {
	operator   Operator
	compatible CompatibilityFn
}

// Registry maps operator names to operators. It is safe for concurrent use.
type Registry struct {
	mu sync.RWMutex
	m  map[string]registeredOperator
}

func NewRegistry() *Registry {
	return &Registry{m: make(map[string]registeredOperator)}
}

// DefaultRegistry registers gaussian_variation and random_restart, both
// drawing from rng. A nil variation uses NewGaussianVariation defaults;
// otherwise a copy of it is registered with its Rand replaced by rng.
func DefaultRegistry(rng *rand.Rand, variation *GaussianVariation) *Registry {
	gv := NewGaussianVariation(rng)
	if variation != nil {
		v := *variation
		v.Rand = rng
		gv = &v
	}
	r := NewRegistry()
	_ = r.Register(gv)
	_ = r.Register(&RandomRestart{Rand: rng})
	return r
}

// Register adds op under its own name.
func (r *Registry) Register(op Operator) error {
	if op == nil {
		return errors.New("operator is required")
	}
	return r.RegisterWithSpec(OperatorSpec{Name: op.Name(), Operator: op})
}

func (r *Registry) RegisterWithSpec(spec OperatorSpec) error {
	if spec.Name == "" {
		return errors.New("operator name is required")
	}
	if spec.Operator == nil {
		return errors.New("operator is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.m[spec.Name]; exists {
		return fmt.Errorf("%w: %s", ErrOperatorExists, spec.Name)
	}
	r.m[spec.Name] = registeredOperator{operator: spec.Operator, compatible: spec.Compatible}
	return nil
}

// Resolve returns the named operator if its compatibility check accepts genome.
func (r *Registry) Resolve(name string, genome *heredity.ProjectedGenome) (Operator, error) {
	r.mu.RLock()
	entry, ok := r.m[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOperatorNotFound, name)
	}
	if entry.compatible != nil {
		if err := entry.compatible(genome); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrOperatorIncompatible, name, err)
		}
	}
	return entry.operator, nil
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.m))
	for name := range r.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
