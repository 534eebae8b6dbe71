package field

import (
	"errors"
	"math/big"
	"testing"
)

func testDomain(t *testing.T, bits uint) *Domain {
	t.Helper()
	d, err := NewDomain(BN254(), bits)
	if err != nil {
		t.Fatalf("NewDomain: %v", err)
	}
	return d
}

func TestEncodeSigned(t *testing.T) {
	d := testDomain(t, 64)
	for _, v := range []int64{0, 1, -1, 42, -42, 1 << 40, -(1 << 40)} {
		enc := d.Encode(big.NewInt(v))
		got, err := d.Signed(enc)
		if err != nil {
			t.Fatalf("Signed(%d): %v", v, err)
		}
		if got.Int64() != v {
			t.Errorf("round trip %d: got %d", v, got.Int64())
		}
	}
}

func TestArithmetic(t *testing.T) {
	d := testDomain(t, 64)
	a := d.Encode(big.NewInt(-7))
	b := d.Encode(big.NewInt(3))

	sum, err := d.Signed(d.Add(a, b))
	if err != nil {
		t.Fatalf("Signed(add): %v", err)
	}
	if sum.Int64() != -4 {
		t.Errorf("-7+3: got %d, want -4", sum.Int64())
	}

	prod, err := d.Signed(d.Mul(a, b))
	if err != nil {
		t.Fatalf("Signed(mul): %v", err)
	}
	if prod.Int64() != -21 {
		t.Errorf("-7*3: got %d, want -21", prod.Int64())
	}

	diff, err := d.Signed(d.Sub(b, a))
	if err != nil {
		t.Fatalf("Signed(sub): %v", err)
	}
	if diff.Int64() != 10 {
		t.Errorf("3-(-7): got %d, want 10", diff.Int64())
	}
}

func TestDecomposeRecompose(t *testing.T) {
	d := testDomain(t, 16)
	for _, v := range []int64{0, 1, 255, -255, 32767, -32767} {
		dec, err := d.Decompose(d.Encode(big.NewInt(v)))
		if err != nil {
			t.Fatalf("Decompose(%d): %v", v, err)
		}
		want := v
		if want < 0 {
			want = -want
		}
		if dec.Magnitude().Int64() != want {
			t.Errorf("magnitude of %d: got %d, want %d", v, dec.Magnitude().Int64(), want)
		}
		if dec.Negative != (v < 0) {
			t.Errorf("sign of %d: got negative=%v", v, dec.Negative)
		}
	}
}

func TestDecomposeRangeViolation(t *testing.T) {
	// 8-bit width represents magnitudes below 2^7; 1000 must be rejected.
	d := testDomain(t, 8)
	_, err := d.Decompose(big.NewInt(1000))
	var re *RangeError
	if !errors.As(err, &re) {
		t.Fatalf("Decompose(1000) at 8 bits: got %v, want RangeError", err)
	}
	if re.Bits != 8 {
		t.Errorf("RangeError width: got %d, want 8", re.Bits)
	}

	// Boundary: 2^7 is the first non-representable magnitude.
	if _, err := d.Decompose(big.NewInt(128)); err == nil {
		t.Error("Decompose(128) at 8 bits: expected RangeError")
	}
	if _, err := d.Decompose(big.NewInt(127)); err != nil {
		t.Errorf("Decompose(127) at 8 bits: %v", err)
	}
}

func TestSign(t *testing.T) {
	d := testDomain(t, 32)
	cases := []struct {
		v    int64
		want int
	}{{5, 1}, {-5, -1}, {0, 0}, {1, 1}, {-1, -1}}
	for _, c := range cases {
		got, err := d.Sign(d.Encode(big.NewInt(c.v)))
		if err != nil {
			t.Fatalf("Sign(%d): %v", c.v, err)
		}
		if got != c.want {
			t.Errorf("Sign(%d): got %d, want %d", c.v, got, c.want)
		}
	}
}

func TestNewDomainRejectsBadParams(t *testing.T) {
	if _, err := NewDomain(big.NewInt(100), 8); err == nil {
		t.Error("composite modulus accepted")
	}
	if _, err := NewDomain(big.NewInt(257), 16); err == nil {
		t.Error("width wider than modulus accepted")
	}
	if _, err := NewDomain(BN254(), 1); err == nil {
		t.Error("1-bit width accepted")
	}
}
