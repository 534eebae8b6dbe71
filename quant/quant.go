// Package quant converts real-valued network parameters into field-encoded
// integers under a geometric per-layer scaling plan.
//
// The weight scale is a constant S for every layer; the bias scale at
// layer i is S^i. After a matrix multiply-accumulate the pre-activation
// carries scale S^i relative to the input, so the bias joins at the same
// scale and no runtime rescaling division is ever needed - the target
// domain cannot divide.
package quant

import (
	"fmt"
	"math/big"

	"gonum.org/v1/gonum/mat"

	"noirgen/field"
	"noirgen/params"
	"noirgen/utils"
)

// precisionTol is the relative rounding error above which quantization
// reports a PrecisionLoss warning.
const precisionTol = 1e-6

// Config fixes the quantization and domain parameters.
type Config struct {
	Base    int64    // scale base S
	Bits    uint     // decomposition width for sign tests
	Modulus *big.Int // domain prime
}

// DefaultConfig returns S = 10^6 with a 128-bit decomposition width over
// the BN254 scalar field. The width leaves room for the compounded scale
// growth of multi-layer networks: at S = 10^6 a two-layer worst case
// already exceeds 2^63.
func DefaultConfig() Config {
	return Config{Base: 1_000_000, Bits: 128, Modulus: field.BN254()}
}

// Validate checks the configuration, in the spirit of config validation in
// the training pipeline this replaces.
func (c Config) Validate() error {
	if c.Base < 2 {
		return fmt.Errorf("quant: scale base must be at least 2, got %d", c.Base)
	}
	if c.Modulus == nil {
		return fmt.Errorf("quant: modulus must be set")
	}
	if c.Bits < 2 || uint(c.Modulus.BitLen()) <= c.Bits {
		return fmt.Errorf("quant: decomposition width %d invalid for modulus of %d bits", c.Bits, c.Modulus.BitLen())
	}
	return nil
}

// Plan is the per-layer scale table. Derived once from the base and the
// layer count; never mutated afterwards.
type Plan struct {
	base      int64
	exponents []int // exponent of layer i at index i-1; always i
}

// NewPlan derives the scale table for a network of the given depth.
func NewPlan(base int64, layers int) Plan {
	exps := make([]int, layers)
	for i := range exps {
		exps[i] = i + 1
	}
	return Plan{base: base, exponents: exps}
}

// Base returns the scale base S.
func (p Plan) Base() int64 { return p.base }

// Layers returns the planned depth.
func (p Plan) Layers() int { return len(p.exponents) }

// WeightScale returns S, the weight scale of every layer.
func (p Plan) WeightScale() *big.Int { return big.NewInt(p.base) }

// BiasScale returns S^i for layer i (1-based).
func (p Plan) BiasScale(layer int) *big.Int {
	return p.pow(p.exponents[layer-1])
}

// ActivationScale returns S^i, the scale a layer-i pre-activation carries
// relative to the network input. Diagnostics only: it is never applied as
// a divisor at runtime.
func (p Plan) ActivationScale(layer int) *big.Int {
	return p.pow(p.exponents[layer-1])
}

func (p Plan) pow(e int) *big.Int {
	return new(big.Int).Exp(big.NewInt(p.base), big.NewInt(int64(e)), nil)
}

// Layer holds one layer's field-encoded integer parameters, plus the
// signed magnitude bounds used by the overflow budget check.
type Layer struct {
	W       [][]*big.Int // out_dim x in_dim, field representation
	B       []*big.Int   // out_dim, field representation
	OutDim  int
	InDim   int
	MaxAbsW *big.Int // largest |quantized weight| before encoding
	MaxAbsB *big.Int // largest |quantized bias| before encoding
}

// Network is the terminal output of quantization: integer layers, the
// scale plan, and the domain they live in. The float source is kept for
// the verifier's reference pass.
type Network struct {
	Layers []Layer
	Plan   Plan
	Domain *field.Domain
	Source *params.Network
}

// Quantize maps every layer of net into the configured domain.
// Quantized value = round-half-away-from-zero(real * scale), computed in
// big.Float so deep bias scales stay exact.
func Quantize(net *params.Network, cfg Config) (*Network, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dom, err := field.NewDomain(cfg.Modulus, cfg.Bits)
	if err != nil {
		return nil, err
	}

	plan := NewPlan(cfg.Base, len(net.Layers))
	out := &Network{
		Layers: make([]Layer, len(net.Layers)),
		Plan:   plan,
		Domain: dom,
		Source: net,
	}
	for i, src := range net.Layers {
		out.Layers[i] = quantizeLayer(src, i+1, plan, dom)
	}
	return out, nil
}

func quantizeLayer(src params.Layer, index int, plan Plan, dom *field.Domain) Layer {
	outDim, inDim := src.OutDim(), src.InDim()
	wScale := plan.WeightScale()
	bScale := plan.BiasScale(index)

	l := Layer{
		W:       make([][]*big.Int, outDim),
		B:       make([]*big.Int, outDim),
		OutDim:  outDim,
		InDim:   inDim,
		MaxAbsW: new(big.Int),
		MaxAbsB: new(big.Int),
	}
	for o := 0; o < outDim; o++ {
		row := make([]*big.Int, inDim)
		for k := 0; k < inDim; k++ {
			q := quantizeValue(src.W.At(o, k), wScale, index, fmt.Sprintf("w[%d][%d]", o, k))
			trackAbs(l.MaxAbsW, q)
			row[k] = dom.Encode(q)
		}
		l.W[o] = row

		q := quantizeValue(src.B.AtVec(o), bScale, index, fmt.Sprintf("b[%d]", o))
		trackAbs(l.MaxAbsB, q)
		l.B[o] = dom.Encode(q)
	}
	return l
}

// quantizeValue rounds v*scale half away from zero and reports precision
// loss. Loss is recoverable: the value is still used.
func quantizeValue(v float64, scale *big.Int, layer int, what string) *big.Int {
	prec := uint(scale.BitLen() + 64)
	f := new(big.Float).SetPrec(prec).SetFloat64(v)
	f.Mul(f, new(big.Float).SetPrec(prec).SetInt(scale))
	q := roundHalfAway(f)

	if v != 0 {
		if q.Sign() == 0 {
			utils.Warnf("precision loss at layer %d %s: %g quantized to zero at scale %s", layer, what, v, scale.String())
			return q
		}
		back := new(big.Float).SetPrec(prec).SetInt(q)
		back.Quo(back, new(big.Float).SetPrec(prec).SetInt(scale))
		diff, _ := new(big.Float).Sub(back, new(big.Float).SetPrec(prec).SetFloat64(v)).Float64()
		if rel := absFloat(diff) / absFloat(v); rel > precisionTol {
			utils.Warnf("precision loss at layer %d %s: %g off by relative %g", layer, what, v, rel)
		}
	}
	return q
}

// roundHalfAway rounds to the nearest integer, halves away from zero.
// Deterministic by construction, so repeated runs quantize identically.
func roundHalfAway(f *big.Float) *big.Int {
	i, _ := f.Int(nil) // truncates toward zero
	frac := new(big.Float).Sub(f, new(big.Float).SetInt(i))
	frac.Abs(frac)
	if frac.Cmp(big.NewFloat(0.5)) >= 0 {
		if f.Sign() >= 0 {
			i.Add(i, big.NewInt(1))
		} else {
			i.Sub(i, big.NewInt(1))
		}
	}
	return i
}

func trackAbs(maxAbs, q *big.Int) {
	a := new(big.Int).Abs(q)
	if a.Cmp(maxAbs) > 0 {
		maxAbs.Set(a)
	}
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// FloatLogits runs the float reference forward pass (relu on every layer
// except the last) and returns the final logits. Used by tests and the
// verifier to compare arg_max against the original network.
func FloatLogits(net *params.Network, input []float64) ([]float64, error) {
	if len(input) != net.InputDim {
		return nil, &params.ShapeError{Layer: 1, Reason: fmt.Sprintf("input length %d, network expects %d", len(input), net.InputDim)}
	}
	x := mat.NewVecDense(len(input), append([]float64(nil), input...))
	for i, l := range net.Layers {
		y := mat.NewVecDense(l.OutDim(), nil)
		y.MulVec(l.W, x)
		y.AddVec(y, l.B)
		if i < len(net.Layers)-1 {
			for j := 0; j < y.Len(); j++ {
				if y.AtVec(j) < 0 {
					y.SetVec(j, 0)
				}
			}
		}
		x = y
	}
	out := make([]float64, x.Len())
	for j := range out {
		out[j] = x.AtVec(j)
	}
	return out, nil
}
