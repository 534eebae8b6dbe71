package utils

import (
	"fmt"
	"time"
)

// PipelineStats holds timing information for the pipeline stages.
type PipelineStats struct {
	TotalTime    time.Duration
	LoadTime     time.Duration
	QuantizeTime time.Duration
	VerifyTime   time.Duration
	EmitTime     time.Duration
}

// PrintPipelineStats prints a timing breakdown for one pipeline run.
// Respects the Verbose flag - does nothing if Verbose is false.
func PrintPipelineStats(stats *PipelineStats) {
	if !Verbose {
		return
	}
	fmt.Fprintln(Output, "\n=== TIMING STATISTICS ===")
	fmt.Fprintf(Output, "Total: %v\n", stats.TotalTime)
	if stats.TotalTime <= 0 {
		return
	}
	pct := func(d time.Duration) float64 {
		return float64(d) / float64(stats.TotalTime) * 100
	}
	fmt.Fprintf(Output, "  Parameter loading: %v (%.1f%%)\n", stats.LoadTime, pct(stats.LoadTime))
	fmt.Fprintf(Output, "  Quantization:      %v (%.1f%%)\n", stats.QuantizeTime, pct(stats.QuantizeTime))
	fmt.Fprintf(Output, "  Sample verify:     %v (%.1f%%)\n", stats.VerifyTime, pct(stats.VerifyTime))
	fmt.Fprintf(Output, "  Code emission:     %v (%.1f%%)\n", stats.EmitTime, pct(stats.EmitTime))
}
