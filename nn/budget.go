package nn

import (
	"fmt"
	"math/big"

	"noirgen/field"
	"noirgen/quant"
)

// CheckBudget verifies that no true (non-modular) intermediate magnitude
// can reach the signed range of the decomposition width or half the
// modulus, compounded across depth. inputBound is the largest input
// magnitude the generated program will be fed.
//
// The worst-case pre-activation magnitude at layer i is
//
//	in_dim * maxAbsW * act(i-1) + maxAbsB
//
// with act(0) = inputBound and act(i) = pre(i) (relu only shrinks).
// The final layer's bound is doubled before the comparison: arg_max
// decomposes the signed difference of two logits, which can reach twice
// the magnitude of either. Wraparound would silently corrupt the sign
// semantics relu and arg_max are built on, so a violated bound is a fatal
// RangeError raised before any code is generated.
func CheckBudget(q *quant.Network, inputBound *big.Int) error {
	if inputBound == nil || inputBound.Sign() <= 0 {
		inputBound = big.NewInt(1)
	}
	signedLimit := new(big.Int).Lsh(big.NewInt(1), q.Domain.Bits()-1)
	modulusLimit := new(big.Int).Rsh(q.Domain.Modulus(), 1)
	limit := signedLimit
	if modulusLimit.Cmp(limit) < 0 {
		limit = modulusLimit
	}

	act := new(big.Int).Set(inputBound)
	for i, l := range q.Layers {
		pre := new(big.Int).Mul(big.NewInt(int64(l.InDim)), l.MaxAbsW)
		pre.Mul(pre, act)
		pre.Add(pre, l.MaxAbsB)

		bound := pre
		if i == len(q.Layers)-1 {
			bound = new(big.Int).Lsh(pre, 1) // arg_max decomposes logit differences
		}
		if bound.Cmp(limit) >= 0 {
			return fmt.Errorf("layer %d: magnitude bound %s reaches domain limit %s (modulus %d bits): %w",
				i+1, bound.String(), limit.String(), q.Domain.Modulus().BitLen(),
				&field.RangeError{Value: bound, Bits: q.Domain.Bits()})
		}
		act = pre
	}
	return nil
}
