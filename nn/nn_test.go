package nn

import (
	"errors"
	"math/big"
	"testing"

	"noirgen/field"
	"noirgen/params"
	"noirgen/quant"
)

func fixtureNet(t *testing.T, data string, cfg quant.Config) *quant.Network {
	t.Helper()
	net, err := params.Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	q, err := quant.Quantize(net, cfg)
	if err != nil {
		t.Fatalf("Quantize: %v", err)
	}
	return q
}

func intVec(vs ...int64) []*big.Int {
	out := make([]*big.Int, len(vs))
	for i, v := range vs {
		out[i] = big.NewInt(v)
	}
	return out
}

func TestLinearOutputLength(t *testing.T) {
	dom, err := field.NewDomain(field.BN254(), 64)
	if err != nil {
		t.Fatal(err)
	}
	w := [][]*big.Int{
		{dom.Encode(big.NewInt(1)), dom.Encode(big.NewInt(2))},
		{dom.Encode(big.NewInt(3)), dom.Encode(big.NewInt(4))},
		{dom.Encode(big.NewInt(5)), dom.Encode(big.NewInt(6))},
	}
	b := []*big.Int{dom.Encode(big.NewInt(0)), dom.Encode(big.NewInt(0)), dom.Encode(big.NewInt(0))}
	lin := NewLinear(w, b, 1, dom)

	out, err := lin.Forward([]*big.Int{dom.Encode(big.NewInt(1)), dom.Encode(big.NewInt(1))})
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if len(out) != 3 {
		t.Errorf("output length: got %d, want out_dim 3", len(out))
	}

	if _, err := lin.Forward(intVec(1, 2, 3)); err == nil {
		t.Error("expected shape mismatch for wrong input length")
	}
}

func TestReLUIdempotent(t *testing.T) {
	dom, err := field.NewDomain(field.BN254(), 32)
	if err != nil {
		t.Fatal(err)
	}
	relu := NewReLU(1, dom)
	in := []*big.Int{
		dom.Encode(big.NewInt(5)),
		dom.Encode(big.NewInt(-5)),
		dom.Encode(big.NewInt(0)),
		dom.Encode(big.NewInt(1 << 30)),
	}
	once, err := relu.Forward(in)
	if err != nil {
		t.Fatalf("relu: %v", err)
	}
	twice, err := relu.Forward(once)
	if err != nil {
		t.Fatalf("relu twice: %v", err)
	}
	for i := range once {
		if once[i].Cmp(twice[i]) != 0 {
			t.Errorf("element %d: relu(relu(x))=%s, relu(x)=%s", i, twice[i], once[i])
		}
	}
	if once[1].Sign() != 0 {
		t.Errorf("relu(-5): got %s, want 0", once[1])
	}
	if once[0].Int64() != 5 {
		t.Errorf("relu(5): got %s, want 5", once[0])
	}
}

func TestReLURangeViolationFatal(t *testing.T) {
	dom, err := field.NewDomain(field.BN254(), 8)
	if err != nil {
		t.Fatal(err)
	}
	relu := NewReLU(2, dom)
	_, err = relu.Forward([]*big.Int{big.NewInt(1000)})
	var re *field.RangeError
	if !errors.As(err, &re) {
		t.Fatalf("got %v, want RangeError", err)
	}
}

func TestArgMax(t *testing.T) {
	dom, err := field.NewDomain(field.BN254(), 64)
	if err != nil {
		t.Fatal(err)
	}
	enc := func(vs ...int64) []*big.Int {
		out := make([]*big.Int, len(vs))
		for i, v := range vs {
			out[i] = dom.Encode(big.NewInt(v))
		}
		return out
	}

	cases := []struct {
		vec  []*big.Int
		want int
	}{
		{enc(84, 183), 1},
		{enc(183, 84), 0},
		{enc(-5, -2, -9), 1},
		{enc(7, 7, 7), 0}, // tie keeps the earliest index
		{enc(1, 5, 5), 1}, // later equal value does not replace
		{enc(0), 0},
		{enc(-1, 0, -1), 1},
	}
	for _, c := range cases {
		got, err := ArgMax(dom, c.vec)
		if err != nil {
			t.Fatalf("ArgMax: %v", err)
		}
		if got != c.want {
			t.Errorf("ArgMax: got %d, want %d", got, c.want)
		}
	}

	if _, err := ArgMax(dom, nil); err == nil {
		t.Error("expected error for empty vector")
	}
}

// Reference fixture: w1=[1..6], b1=[1,2], w2=[1..4], b2=[1,2], input
// [1,2,3] gives layer outputs [15,34] then [84,183] and class 1.
func TestEndToEndInteger(t *testing.T) {
	dom, err := field.NewDomain(field.BN254(), 64)
	if err != nil {
		t.Fatal(err)
	}
	enc := func(v int64) *big.Int { return dom.Encode(big.NewInt(v)) }

	l1 := NewLinear(
		[][]*big.Int{{enc(1), enc(2), enc(3)}, {enc(4), enc(5), enc(6)}},
		[]*big.Int{enc(1), enc(2)}, 1, dom)
	l2 := NewLinear(
		[][]*big.Int{{enc(1), enc(2)}, {enc(3), enc(4)}},
		[]*big.Int{enc(1), enc(2)}, 2, dom)
	seq := &Sequential{Layers: []Module{l1, NewReLU(1, dom), l2}}

	logits, err := seq.Forward([]*big.Int{enc(1), enc(2), enc(3)})
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if logits[0].Int64() != 84 || logits[1].Int64() != 183 {
		t.Fatalf("logits: got [%s %s], want [84 183]", logits[0], logits[1])
	}
	idx, err := ArgMax(dom, logits)
	if err != nil {
		t.Fatalf("ArgMax: %v", err)
	}
	if idx != 1 {
		t.Errorf("predicted class: got %d, want 1", idx)
	}
}

func TestQuantizedArgMaxMatchesFloat(t *testing.T) {
	data := `{
		"w1": [0.5, -1.25, 0.75, 2.0, 0.1, -0.3], "b1": [0.25, -0.5],
		"w2": [1.5, -0.5, 0.25, 1.0, -1.0, 0.5], "b2": [0.1, 0.2, -0.3]
	}`
	net, err := params.Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	q, err := quant.Quantize(net, quant.DefaultConfig())
	if err != nil {
		t.Fatalf("Quantize: %v", err)
	}
	ev := FromQuantized(q)

	inputs := [][]int64{{1, 2, 3}, {3, 1, 0}, {-2, 5, 1}, {0, 0, 0}, {-4, -4, -4}}
	for _, in := range inputs {
		got, err := ev.Predict(ev.EncodeInput(intVec(in...)))
		if err != nil {
			t.Fatalf("Predict(%v): %v", in, err)
		}

		fin := make([]float64, len(in))
		for i, v := range in {
			fin[i] = float64(v)
		}
		logits, err := quant.FloatLogits(net, fin)
		if err != nil {
			t.Fatalf("FloatLogits: %v", err)
		}
		want := 0
		for i := 1; i < len(logits); i++ {
			if logits[i] > logits[want] {
				want = i
			}
		}
		if got != want {
			t.Errorf("input %v: quantized arg_max %d, float arg_max %d", in, got, want)
		}
	}
}

func TestCheckBudget(t *testing.T) {
	cfg := quant.Config{Base: 1000, Bits: 64, Modulus: field.BN254()}
	q := fixtureNet(t, `{"w1": [1, 2, 3, 4, 5, 6], "b1": [1, 2], "w2": [1, 2, 3, 4], "b2": [1, 2]}`, cfg)
	if err := CheckBudget(q, big.NewInt(1000)); err != nil {
		t.Errorf("budget should fit 64 bits: %v", err)
	}

	tight := quant.Config{Base: 1000, Bits: 24, Modulus: field.BN254()}
	q = fixtureNet(t, `{"w1": [1, 2, 3, 4, 5, 6], "b1": [1, 2], "w2": [1, 2, 3, 4], "b2": [1, 2]}`, tight)
	err := CheckBudget(q, big.NewInt(1000))
	var re *field.RangeError
	if !errors.As(err, &re) {
		t.Fatalf("got %v, want RangeError for 24-bit budget", err)
	}
}

// Two opposite logits of magnitude B produce a difference of magnitude 2B
// inside arg_max, so the final layer must budget for double its
// pre-activation bound even when each logit alone fits the width.
func TestCheckBudgetFinalLayerDifference(t *testing.T) {
	data := `{"w1": [8000, -8000], "b1": [0, 0]}`

	// Logits at input 2 are [32000, -32000]; each fits 16 signed bits,
	// their difference 64000 does not.
	tight := quant.Config{Base: 2, Bits: 16, Modulus: field.BN254()}
	q := fixtureNet(t, data, tight)
	err := CheckBudget(q, big.NewInt(2))
	var re *field.RangeError
	if !errors.As(err, &re) {
		t.Fatalf("got %v, want RangeError: logit difference exceeds 16 bits", err)
	}

	// One more bit admits the difference, and evaluation then succeeds.
	wide := quant.Config{Base: 2, Bits: 17, Modulus: field.BN254()}
	q = fixtureNet(t, data, wide)
	if err := CheckBudget(q, big.NewInt(2)); err != nil {
		t.Fatalf("17-bit budget should fit: %v", err)
	}
	ev := FromQuantized(q)
	got, err := ev.Predict(ev.EncodeInput(intVec(2)))
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if got != 0 {
		t.Errorf("predicted class: got %d, want 0", got)
	}
}
