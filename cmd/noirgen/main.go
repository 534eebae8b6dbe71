// noirgen: compile a trained feed-forward classifier into a Noir program.
//
// Loads w<i>/b<i> parameters from JSON, quantizes them into the target
// field, runs an optional sample self-check, and writes the generated
// program. Exits non-zero on shape or range errors; sample mismatches are
// warnings and do not block emission.
package main

import (
	"errors"
	"flag"
	"fmt"
	"math/big"
	"os"
	"time"

	"noirgen/codegen"
	"noirgen/field"
	"noirgen/params"
	"noirgen/quant"
	"noirgen/utils"
	"noirgen/verify"
)

// Exit codes. Anything fatal that is neither a shape nor a range problem
// (I/O, malformed JSON) exits 1.
const (
	exitUsage          = 2
	exitShapeMismatch  = 3
	exitRangeViolation = 4
)

var (
	outFile     = flag.String("out", "", "Path to write the generated Noir program (required)")
	paramsFile  = flag.String("params", "", "Model parameters JSON file (required)")
	samplesFile = flag.String("samples", "", "Optional test samples JSON file")
	scaleBase   = flag.Int64("scale", 1_000_000, "Quantization scale base S")
	bits        = flag.Uint("bits", 128, "Bit width for sign decomposition")
	modulus     = flag.String("modulus", "", "Field modulus (decimal); defaults to the BN254 scalar field")
	verbose     = flag.Bool("verbose", false, "Verbose output")
)

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	var se *params.ShapeError
	var re *field.RangeError
	switch {
	case errors.As(err, &se):
		return exitShapeMismatch
	case errors.As(err, &re):
		return exitRangeViolation
	default:
		return 1
	}
}

func fail(context string, err error) {
	fmt.Fprintf(os.Stderr, "Error%s: %v\n", context, err)
	os.Exit(exitCode(err))
}

func main() {
	flag.Parse()
	utils.Verbose = *verbose

	if *outFile == "" || *paramsFile == "" {
		fmt.Fprintln(os.Stderr, "usage: noirgen -out main.nr -params model.json [-samples samples.json]")
		flag.PrintDefaults()
		os.Exit(exitUsage)
	}

	cfg := quant.DefaultConfig()
	cfg.Base = *scaleBase
	cfg.Bits = *bits
	if *modulus != "" {
		m, ok := new(big.Int).SetString(*modulus, 10)
		if !ok {
			fmt.Fprintf(os.Stderr, "Error: invalid modulus %q\n", *modulus)
			os.Exit(exitUsage)
		}
		cfg.Modulus = m
	}

	stats := &utils.PipelineStats{}
	start := time.Now()

	stageStart := time.Now()
	net, err := params.Load(*paramsFile)
	if err != nil {
		fail(" loading parameters", err)
	}
	stats.LoadTime = time.Since(stageStart)
	utils.Logf("Loaded %d layers (input dim %d, output dim %d)", len(net.Layers), net.InputDim, net.OutputDim())

	var samples []verify.Sample
	if *samplesFile != "" {
		samples, err = verify.Load(*samplesFile)
		if err != nil {
			fail(" loading samples", err)
		}
		utils.Logf("Loaded %d samples", len(samples))
	}

	program, mismatches, err := codegen.Generate(net, cfg, samples, stats)
	if err != nil {
		fail("", err)
	}
	if len(mismatches) > 0 {
		utils.Logf("%d of %d samples disagreed with the reference evaluator", len(mismatches), len(samples))
	}

	if err := os.WriteFile(*outFile, []byte(program), 0644); err != nil {
		fail(fmt.Sprintf(" writing %s", *outFile), err)
	}
	stats.TotalTime = time.Since(start)

	fmt.Printf("Generated Noir program: %s\n", *outFile)
	utils.PrintPipelineStats(stats)
}
