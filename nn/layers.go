package nn

import (
	"fmt"
	"math/big"

	"noirgen/field"
)

// Linear is a fully-connected layer over field elements:
// out[o] = B[o] + sum_k W[o][k] * in[k], all modular.
type Linear struct {
	W     [][]*big.Int // out_dim x in_dim, field representation
	B     []*big.Int   // out_dim
	Index int          // 1-based layer index, for error context
	dom   *field.Domain
}

// NewLinear builds a fully-connected layer in the given domain.
func NewLinear(w [][]*big.Int, b []*big.Int, index int, dom *field.Domain) *Linear {
	return &Linear{W: w, B: b, Index: index, dom: dom}
}

// Forward computes the multiply-accumulate for every output unit. The
// caller is responsible for having sized modulus and bit width so that no
// true intermediate magnitude reaches the modulus (see CheckBudget).
func (l *Linear) Forward(input []*big.Int) ([]*big.Int, error) {
	if len(l.W) == 0 {
		return nil, shapeErrorf(l.Index, "empty weight matrix")
	}
	inDim := len(l.W[0])
	if len(input) != inDim {
		return nil, shapeErrorf(l.Index, "input length %d, weights expect %d", len(input), inDim)
	}
	if len(l.B) != len(l.W) {
		return nil, shapeErrorf(l.Index, "bias length %d, weights produce %d", len(l.B), len(l.W))
	}

	out := make([]*big.Int, len(l.W))
	for o, row := range l.W {
		acc := new(big.Int).Set(l.B[o])
		for k, w := range row {
			acc = l.dom.Add(acc, l.dom.Mul(w, input[k]))
		}
		out[o] = acc
	}
	return out, nil
}

// ReLU applies max(0, x) elementwise. The sign of each element comes from
// the decomposition gadget; a RangeError here means the scale/depth budget
// was mis-sized and is fatal.
type ReLU struct {
	Index int
	dom   *field.Domain
}

// NewReLU builds an activation bound to the given domain.
func NewReLU(index int, dom *field.Domain) *ReLU {
	return &ReLU{Index: index, dom: dom}
}

// Forward rectifies every element.
func (r *ReLU) Forward(input []*big.Int) ([]*big.Int, error) {
	out := make([]*big.Int, len(input))
	for i, x := range input {
		dec, err := r.dom.Decompose(x)
		if err != nil {
			return nil, fmt.Errorf("layer %d relu element %d: %w", r.Index, i, err)
		}
		if dec.Negative {
			out[i] = big.NewInt(0)
		} else {
			out[i] = new(big.Int).Set(x)
		}
	}
	return out, nil
}

// ArgMax returns the index of the first maximal element: a left-to-right
// fold where a candidate replaces the running best only on a strictly
// positive signed difference, so ties keep the earlier index. This matches
// a standard left-to-right maximum scan over the float logits.
func ArgMax(dom *field.Domain, vec []*big.Int) (int, error) {
	if len(vec) == 0 {
		return 0, shapeErrorf(0, "arg_max over empty vector")
	}
	best := 0
	for i := 1; i < len(vec); i++ {
		diff := dom.Sub(vec[i], vec[best])
		sign, err := dom.Sign(diff)
		if err != nil {
			return 0, fmt.Errorf("arg_max at index %d: %w", i, err)
		}
		if sign > 0 {
			best = i
		}
	}
	return best, nil
}
