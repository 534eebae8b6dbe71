package codegen

import (
	"time"

	"noirgen/nn"
	"noirgen/params"
	"noirgen/quant"
	"noirgen/utils"
	"noirgen/verify"
)

// Generate runs the full pipeline on validated parameters: quantize, check
// the overflow budget, self-check any samples, build the IR and render it.
// Shape and range errors abort before anything is rendered, so a caller
// that writes the result on success can never leave a partial artifact.
// Sample mismatches are returned alongside the artifact; they never block
// emission. When stats is non-nil the quantize/verify/emit stage timings
// are recorded.
func Generate(net *params.Network, cfg quant.Config, samples []verify.Sample, stats *utils.PipelineStats) (string, []verify.Mismatch, error) {
	stage := time.Now()
	q, err := quant.Quantize(net, cfg)
	if err != nil {
		return "", nil, err
	}
	if err := nn.CheckBudget(q, inputBound(q, samples)); err != nil {
		return "", nil, err
	}
	if stats != nil {
		stats.QuantizeTime = time.Since(stage)
	}

	stage = time.Now()
	var mismatches []verify.Mismatch
	if len(samples) > 0 {
		mismatches, err = verify.Run(nn.FromQuantized(q), samples)
		if err != nil {
			return "", nil, err
		}
	}
	if stats != nil {
		stats.VerifyTime = time.Since(stage)
	}

	stage = time.Now()
	text := Render(Build(q, samples))
	if stats != nil {
		stats.EmitTime = time.Since(stage)
	}
	return text, mismatches, nil
}
