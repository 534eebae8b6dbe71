// Package verify runs the reference evaluator directly against labeled
// samples before emission. Disagreements are quantization-fidelity
// warnings, not fatal: the authoritative check is the generated program's
// own execution by the downstream toolchain.
package verify

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	"noirgen/nn"
	"noirgen/params"
	"noirgen/utils"
)

// Sample is a quantized input vector plus its expected output: a class
// index, or a full output vector for non-classification use. Samples are
// only ever used for self-checks, never for parameter fitting.
type Sample struct {
	Index  int
	Input  []*big.Int
	Class  int
	Vector []*big.Int // non-nil when the expectation is a vector
}

// Mismatch records one self-check disagreement.
type Mismatch struct {
	Sample int
	Got    string
	Want   string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("sample %d: got %s, want %s", m.Sample, m.Got, m.Want)
}

// ParseSamples decodes a sample file: keys "input<i>" (integer vector) and
// "output<i>" (class index or integer vector), i = 1..N contiguous.
func ParseSamples(data []byte) ([]Sample, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal samples: %w", err)
	}

	var samples []Sample
	for i := 1; ; i++ {
		inRaw, ok := raw[fmt.Sprintf("input%d", i)]
		if !ok {
			break
		}
		outRaw, ok := raw[fmt.Sprintf("output%d", i)]
		if !ok {
			return nil, fmt.Errorf("sample %d: input without output", i)
		}

		input, err := parseIntVector(inRaw)
		if err != nil {
			return nil, fmt.Errorf("sample %d input: %w", i, err)
		}
		s := Sample{Index: i, Input: input}

		var class int64
		if err := json.Unmarshal(outRaw, &class); err == nil {
			s.Class = int(class)
		} else {
			vec, err := parseIntVector(outRaw)
			if err != nil {
				return nil, fmt.Errorf("sample %d output: %w", i, err)
			}
			s.Vector = vec
		}
		samples = append(samples, s)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("no input<i>/output<i> keys found")
	}
	return samples, nil
}

func parseIntVector(raw json.RawMessage) ([]*big.Int, error) {
	var nums []json.Number
	if err := json.Unmarshal(raw, &nums); err != nil {
		return nil, fmt.Errorf("expected integer array: %w", err)
	}
	out := make([]*big.Int, len(nums))
	for i, n := range nums {
		v, ok := new(big.Int).SetString(n.String(), 10)
		if !ok {
			return nil, fmt.Errorf("element %d: %q is not an integer", i, n.String())
		}
		out[i] = v
	}
	return out, nil
}

// Load reads and parses a sample file.
func Load(path string) ([]Sample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sample file: %w", err)
	}
	return ParseSamples(data)
}

// Run evaluates every sample with the reference evaluator and compares
// against the expectation. Mismatches are returned (and warned about)
// without aborting; shape and range errors are fatal - a RangeError here
// means the scale/depth budget was mis-sized.
func Run(net *nn.Network, samples []Sample) ([]Mismatch, error) {
	var mismatches []Mismatch
	for _, s := range samples {
		if len(s.Input) != net.InputDim {
			return nil, &params.ShapeError{Layer: 1, Reason: fmt.Sprintf("sample %d input length %d, network expects %d", s.Index, len(s.Input), net.InputDim)}
		}
		encoded := net.EncodeInput(s.Input)

		if s.Vector != nil {
			logits, err := net.Logits(encoded)
			if err != nil {
				return nil, fmt.Errorf("sample %d: %w", s.Index, err)
			}
			if m, ok := compareVector(net, s, logits); !ok {
				mismatches = append(mismatches, m)
				utils.Warnf("sample mismatch: %s", m)
			}
			continue
		}

		got, err := net.Predict(encoded)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", s.Index, err)
		}
		if got != s.Class {
			m := Mismatch{Sample: s.Index, Got: fmt.Sprint(got), Want: fmt.Sprint(s.Class)}
			mismatches = append(mismatches, m)
			utils.Warnf("sample mismatch: %s", m)
		}
	}
	return mismatches, nil
}

func compareVector(net *nn.Network, s Sample, logits []*big.Int) (Mismatch, bool) {
	if len(logits) != len(s.Vector) {
		return Mismatch{Sample: s.Index, Got: fmt.Sprintf("%d outputs", len(logits)), Want: fmt.Sprintf("%d outputs", len(s.Vector))}, false
	}
	for j := range logits {
		want := net.Domain().Encode(s.Vector[j])
		if logits[j].Cmp(want) != 0 {
			return Mismatch{
				Sample: s.Index,
				Got:    fmt.Sprintf("output[%d]=%s", j, logits[j].String()),
				Want:   want.String(),
			}, false
		}
	}
	return Mismatch{}, true
}
