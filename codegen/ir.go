// Package codegen turns a quantized network into Noir source text. The
// translation is two-phase: Build produces an explicit statement list (the
// intermediate representation), Render folds that list into text. Both are
// pure functions of their input, so identical parameters always yield
// byte-identical artifacts.
package codegen

import (
	"fmt"
	"math/big"

	"noirgen/quant"
	"noirgen/verify"
)

// Global is one compile-time constant array declaration (a weight matrix
// flattened row-major, or a bias vector), values already in canonical
// field representation.
type Global struct {
	Name   string
	Values []string
}

// Call is one step of the forward pass in the main body. Activation is
// "relu" for hidden layers and "arg_max" for the output layer.
type Call struct {
	Activation string
	Weights    string
	Bias       string
}

// TestCase is one embedded self-check: an invocation of main on a sample
// input plus an equality assertion. The assertion runs when the emitted
// program runs, not here.
type TestCase struct {
	Index  int
	Input  []string
	Expect string
}

// Program is the ordered intermediate representation of one artifact.
// Immutable once built.
type Program struct {
	InputDim int
	Globals  []Global
	Body     []Call
	Tests    []TestCase
}

// Build maps a quantized network (and optional samples) to the program IR.
func Build(q *quant.Network, samples []verify.Sample) Program {
	prog := Program{InputDim: q.Layers[0].InDim}

	for i, l := range q.Layers {
		wName := fmt.Sprintf("w%d", i+1)
		bName := fmt.Sprintf("b%d", i+1)

		wVals := make([]string, 0, l.OutDim*l.InDim)
		for _, row := range l.W {
			for _, v := range row {
				wVals = append(wVals, v.String())
			}
		}
		bVals := make([]string, l.OutDim)
		for j, v := range l.B {
			bVals[j] = v.String()
		}
		prog.Globals = append(prog.Globals,
			Global{Name: wName, Values: wVals},
			Global{Name: bName, Values: bVals})

		activation := "relu"
		if i == len(q.Layers)-1 {
			activation = "arg_max"
		}
		prog.Body = append(prog.Body, Call{Activation: activation, Weights: wName, Bias: bName})
	}

	for _, s := range samples {
		tc := TestCase{Index: s.Index, Input: make([]string, len(s.Input))}
		for j, v := range s.Input {
			tc.Input[j] = q.Domain.Encode(v).String()
		}
		tc.Expect = expectedLiteral(q, s)
		prog.Tests = append(prog.Tests, tc)
	}
	return prog
}

// expectedLiteral renders the sample's expected class index. Vector
// expectations assert on the predicted index of their maximal element,
// since main returns the arg_max.
func expectedLiteral(q *quant.Network, s verify.Sample) string {
	if s.Vector == nil {
		return fmt.Sprint(s.Class)
	}
	best := 0
	for i := 1; i < len(s.Vector); i++ {
		if s.Vector[i].Cmp(s.Vector[best]) > 0 {
			best = i
		}
	}
	return fmt.Sprint(best)
}

// inputBound returns the largest sample input magnitude, or the scale base
// when no samples constrain the input, for the overflow budget check.
func inputBound(q *quant.Network, samples []verify.Sample) *big.Int {
	if len(samples) == 0 {
		return big.NewInt(q.Plan.Base())
	}
	bound := big.NewInt(1)
	for _, s := range samples {
		for _, v := range s.Input {
			a := new(big.Int).Abs(v)
			if a.Cmp(bound) > 0 {
				bound = a
			}
		}
	}
	return bound
}
