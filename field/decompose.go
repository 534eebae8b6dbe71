package field

import (
	"fmt"
	"math/big"
)

// RangeError reports a value whose magnitude exceeds the decomposition
// width. It is fatal wherever it surfaces: a value outside the signed
// windows has no sign, so letting it through would corrupt relu and
// arg_max semantics downstream.
type RangeError struct {
	Value *big.Int // field representation of the offending value
	Bits  uint     // configured decomposition width
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("field: value %s exceeds signed range of %d-bit decomposition", e.Value.String(), e.Bits)
}

// Decomposition is the result of the bit-decomposition gadget: the bits of
// the value's magnitude, little-endian, plus the sign. The bits always
// recompose exactly to the magnitude.
type Decomposition struct {
	Bits     []uint // little-endian, len = domain width
	Negative bool
}

// Magnitude recomposes sum(Bits[j] * 2^j).
func (dec Decomposition) Magnitude() *big.Int {
	m := new(big.Int)
	for j := len(dec.Bits) - 1; j >= 0; j-- {
		m.Lsh(m, 1)
		if dec.Bits[j] != 0 {
			m.SetBit(m, 0, 1)
		}
	}
	return m
}

// IsZero reports whether every bit is zero.
func (dec Decomposition) IsZero() bool {
	for _, b := range dec.Bits {
		if b != 0 {
			return false
		}
	}
	return true
}

// Decompose splits a field element into sign and magnitude bits. Elements
// in [0, 2^(bits-1)) are non-negative and decomposed directly; elements in
// (p - 2^(bits-1), p) are negative and the gadget decomposes p-x instead.
// Anything in between has no signed interpretation at this width and
// yields a RangeError.
func (d *Domain) Decompose(x *big.Int) (Decomposition, error) {
	v := new(big.Int).Mod(x, d.modulus)
	if v.Sign() < 0 {
		v.Add(v, d.modulus)
	}

	negative := false
	if v.Cmp(d.half) >= 0 {
		m := new(big.Int).Sub(d.modulus, v)
		if m.Cmp(d.half) >= 0 {
			return Decomposition{}, &RangeError{Value: v, Bits: d.bits}
		}
		v = m
		negative = true
	}

	bits := make([]uint, d.bits)
	for j := uint(0); j < d.bits; j++ {
		bits[j] = v.Bit(int(j))
	}
	return Decomposition{Bits: bits, Negative: negative}, nil
}

// Sign returns -1, 0 or +1 for a field element, or a RangeError when the
// element is outside both signed windows.
func (d *Domain) Sign(x *big.Int) (int, error) {
	dec, err := d.Decompose(x)
	if err != nil {
		return 0, err
	}
	switch {
	case dec.IsZero():
		return 0, nil
	case dec.Negative:
		return -1, nil
	default:
		return 1, nil
	}
}
