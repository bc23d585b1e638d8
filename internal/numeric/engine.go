package numeric

import (
	"errors"
	"fmt"

	"gorgonia.org/tensor"
)

var (
	ErrShapeMismatch = errors.New("handle shape mismatch")
	ErrEmptyHandle   = errors.New("handle evaluated to no values")
	ErrForeignHandle = errors.New("handle was not produced by this engine")
)

// Handle is an opaque, deferred numeric computation. Only the Engine that
// built a handle can evaluate it.
type Handle any

// Engine is the evaluation boundary used by factors. Constant and Defer wrap
// values (eagerly captured or read at evaluation time), Multiply combines two
// handles elementwise with scalar broadcasting, and Evaluate forces a handle
// to concrete values.
type Engine interface {
	Constant(values ...float64) Handle
	Defer(fn func() ([]float64, error)) Handle
	Multiply(a, b Handle) Handle
	Evaluate(h Handle) ([]float64, error)
}

var defaultEngine Engine = NewTensorEngine()

// Default returns the process-wide tensor-backed engine.
func Default() Engine {
	return defaultEngine
}

// Scalar evaluates h and returns its first element.
func Scalar(e Engine, h Handle) (float64, error) {
	values, err := e.Evaluate(h)
	if err != nil {
		return 0, err
	}
	if len(values) == 0 {
		return 0, ErrEmptyHandle
	}
	return values[0], nil
}

type nodeKind int

const (
	nodeConstant nodeKind = iota
	nodeDeferred
	nodeMultiply
)

type node struct {
	kind  nodeKind
	data  []float64
	fn    func() ([]float64, error)
	left  *node
	right *node
}

// TensorEngine builds lazy expression graphs and evaluates them with
// gorgonia dense tensors.
type TensorEngine struct{}

func NewTensorEngine() *TensorEngine {
	return &TensorEngine{}
}

func (e *TensorEngine) Constant(values ...float64) Handle {
	data := make([]float64, len(values))
	copy(data, values)
	return &node{kind: nodeConstant, data: data}
}

func (e *TensorEngine) Defer(fn func() ([]float64, error)) Handle {
	return &node{kind: nodeDeferred, fn: fn}
}

func (e *TensorEngine) Multiply(a, b Handle) Handle {
	left, _ := a.(*node)
	right, _ := b.(*node)
	return &node{kind: nodeMultiply, left: left, right: right}
}

func (e *TensorEngine) Evaluate(h Handle) ([]float64, error) {
	n, ok := h.(*node)
	if !ok || n == nil {
		return nil, ErrForeignHandle
	}
	out, err := e.eval(n)
	if err != nil {
		return nil, err
	}
	result := make([]float64, len(out))
	copy(result, out)
	return result, nil
}

func (e *TensorEngine) eval(n *node) ([]float64, error) {
	if n == nil {
		return nil, ErrForeignHandle
	}
	switch n.kind {
	case nodeConstant:
		return n.data, nil
	case nodeDeferred:
		if n.fn == nil {
			return nil, ErrEmptyHandle
		}
		return n.fn()
	case nodeMultiply:
		a, err := e.eval(n.left)
		if err != nil {
			return nil, err
		}
		b, err := e.eval(n.right)
		if err != nil {
			return nil, err
		}
		return multiply(a, b)
	default:
		return nil, fmt.Errorf("unknown node kind %d", n.kind)
	}
}

func multiply(a, b []float64) ([]float64, error) {
	switch {
	case len(a) == 0 || len(b) == 0:
		return nil, ErrEmptyHandle
	case len(a) == 1:
		return scale(b, a[0])
	case len(b) == 1:
		return scale(a, b[0])
	case len(a) != len(b):
		return nil, fmt.Errorf("%w: %d vs %d", ErrShapeMismatch, len(a), len(b))
	}

	ta := tensor.New(tensor.WithBacking(a), tensor.WithShape(len(a)))
	tb := tensor.New(tensor.WithBacking(b), tensor.WithShape(len(b)))
	product, err := tensor.Mul(ta, tb)
	if err != nil {
		return nil, fmt.Errorf("tensor multiply: %w", err)
	}
	return float64s(product)
}

func scale(v []float64, s float64) ([]float64, error) {
	t := tensor.New(tensor.WithBacking(v), tensor.WithShape(len(v)))
	product, err := tensor.Mul(t, s)
	if err != nil {
		return nil, fmt.Errorf("tensor scale: %w", err)
	}
	return float64s(product)
}

func float64s(t tensor.Tensor) ([]float64, error) {
	switch data := t.Data().(type) {
	case []float64:
		return data, nil
	case float64:
		return []float64{data}, nil
	default:
		return nil, fmt.Errorf("unexpected tensor backing %T", data)
	}
}
