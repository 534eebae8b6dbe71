// Package nn implements the reference fixed-point inference semantics:
// fully-connected layers, rectified-linear activation and arg-max over
// field-encoded vectors. Every comparison is built from the bounded
// bit-decomposition gadget in package field - the target domain has no
// native ordering.
package nn

import (
	"fmt"
	"math/big"

	"noirgen/field"
	"noirgen/params"
	"noirgen/quant"
)

// Module is a single unit in the network.
type Module interface {
	Forward(input []*big.Int) ([]*big.Int, error)
}

// Sequential chains multiple Modules in order.
type Sequential struct {
	Layers []Module
}

// Forward applies each layer in sequence.
func (s *Sequential) Forward(x []*big.Int) ([]*big.Int, error) {
	var err error
	out := x
	for _, layer := range s.Layers {
		out, err = layer.Forward(out)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Network is a quantized classifier: a Sequential of Linear/ReLU modules
// with arg-max as the terminal step, mirroring the generated program.
type Network struct {
	seq      *Sequential
	dom      *field.Domain
	InputDim int
}

// FromQuantized builds the evaluator for a quantized network: relu after
// every layer except the last.
func FromQuantized(q *quant.Network) *Network {
	seq := &Sequential{}
	for i, l := range q.Layers {
		seq.Layers = append(seq.Layers, &Linear{W: l.W, B: l.B, Index: i + 1, dom: q.Domain})
		if i < len(q.Layers)-1 {
			seq.Layers = append(seq.Layers, &ReLU{Index: i + 1, dom: q.Domain})
		}
	}
	return &Network{seq: seq, dom: q.Domain, InputDim: q.Layers[0].InDim}
}

// Logits runs the forward pass and returns the final pre-argmax vector.
func (n *Network) Logits(input []*big.Int) ([]*big.Int, error) {
	return n.seq.Forward(input)
}

// Predict runs the forward pass and returns the predicted class index.
func (n *Network) Predict(input []*big.Int) (int, error) {
	logits, err := n.Logits(input)
	if err != nil {
		return 0, err
	}
	return ArgMax(n.dom, logits)
}

// Domain returns the field the network evaluates in.
func (n *Network) Domain() *field.Domain { return n.dom }

// EncodeInput maps a signed integer input vector into the field.
func (n *Network) EncodeInput(input []*big.Int) []*big.Int {
	out := make([]*big.Int, len(input))
	for i, v := range input {
		out[i] = n.dom.Encode(v)
	}
	return out
}

func shapeErrorf(layer int, format string, args ...interface{}) error {
	return &params.ShapeError{Layer: layer, Reason: fmt.Sprintf(format, args...)}
}
