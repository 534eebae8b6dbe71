// Package field implements the constrained arithmetic domain targeted by
// the generated programs: integers modulo a single large prime, supporting
// only addition and multiplication. There is no native ordering or
// division; negative values are encoded as modulus minus magnitude and all
// sign tests go through the bit-decomposition gadget in decompose.go.
package field

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
)

// BN254 returns the scalar field modulus of BN254, the field Noir programs
// execute in. Used as the default domain modulus.
func BN254() *big.Int {
	return ecc.BN254.ScalarField()
}

// Domain is a prime field together with a fixed decomposition width.
// Values with magnitude in [0, 2^(bits-1)) are representable as signed
// quantities; everything else fails sign tests with a RangeError.
type Domain struct {
	modulus *big.Int
	bits    uint
	half    *big.Int // 2^(bits-1), first non-representable magnitude
}

// NewDomain builds a domain over the given prime modulus with the given
// decomposition width. The width must leave the non-negative and negative
// windows disjoint, i.e. 2^bits < modulus.
func NewDomain(modulus *big.Int, bits uint) (*Domain, error) {
	if modulus == nil || modulus.Sign() <= 0 {
		return nil, fmt.Errorf("field: modulus must be a positive prime")
	}
	if !modulus.ProbablyPrime(20) {
		return nil, fmt.Errorf("field: modulus %s is not prime", modulus.String())
	}
	if bits < 2 {
		return nil, fmt.Errorf("field: decomposition width %d too small", bits)
	}
	if uint(modulus.BitLen()) <= bits {
		return nil, fmt.Errorf("field: decomposition width %d does not fit modulus of %d bits", bits, modulus.BitLen())
	}
	half := new(big.Int).Lsh(big.NewInt(1), bits-1)
	return &Domain{
		modulus: new(big.Int).Set(modulus),
		bits:    bits,
		half:    half,
	}, nil
}

// Modulus returns a copy of the domain's prime modulus.
func (d *Domain) Modulus() *big.Int { return new(big.Int).Set(d.modulus) }

// Bits returns the decomposition width.
func (d *Domain) Bits() uint { return d.bits }

// Encode maps a signed integer into its field representation: v mod p,
// with negative v becoming p-|v|.
func (d *Domain) Encode(v *big.Int) *big.Int {
	out := new(big.Int).Mod(v, d.modulus)
	if out.Sign() < 0 {
		out.Add(out, d.modulus)
	}
	return out
}

// Add returns a+b in the field.
func (d *Domain) Add(a, b *big.Int) *big.Int {
	out := new(big.Int).Add(a, b)
	return out.Mod(out, d.modulus)
}

// Sub returns a-b in the field. Subtraction is addition of the additive
// inverse; the target domain itself only ever sees add and mul.
func (d *Domain) Sub(a, b *big.Int) *big.Int {
	out := new(big.Int).Sub(a, b)
	out.Mod(out, d.modulus)
	if out.Sign() < 0 {
		out.Add(out, d.modulus)
	}
	return out
}

// Mul returns a*b in the field.
func (d *Domain) Mul(a, b *big.Int) *big.Int {
	out := new(big.Int).Mul(a, b)
	return out.Mod(out, d.modulus)
}

// Signed decodes a field element back to a signed integer, provided its
// magnitude is representable at the domain's width.
func (d *Domain) Signed(x *big.Int) (*big.Int, error) {
	dec, err := d.Decompose(x)
	if err != nil {
		return nil, err
	}
	m := dec.Magnitude()
	if dec.Negative {
		m.Neg(m)
	}
	return m, nil
}
