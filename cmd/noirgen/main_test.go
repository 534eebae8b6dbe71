package main

import (
	"fmt"
	"math/big"
	"testing"

	"noirgen/field"
	"noirgen/params"
)

func TestExitCodeTaxonomy(t *testing.T) {
	shape := &params.ShapeError{Layer: 2, Reason: "in_dim 3 disagrees with layer 1 out_dim 2"}
	if got := exitCode(shape); got != exitShapeMismatch {
		t.Errorf("shape mismatch: got exit %d, want %d", got, exitShapeMismatch)
	}
	if got := exitCode(fmt.Errorf("layer 2: %w", shape)); got != exitShapeMismatch {
		t.Errorf("wrapped shape mismatch: got exit %d, want %d", got, exitShapeMismatch)
	}

	rng := &field.RangeError{Value: big.NewInt(1000), Bits: 8}
	if got := exitCode(fmt.Errorf("layer 1 relu: %w", rng)); got != exitRangeViolation {
		t.Errorf("wrapped range violation: got exit %d, want %d", got, exitRangeViolation)
	}

	if got := exitCode(fmt.Errorf("failed to read parameter file")); got != 1 {
		t.Errorf("generic error: got exit %d, want 1", got)
	}
}
