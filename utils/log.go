// Package utils holds the small shared surface of the pipeline: warning
// output and stage timing.
package utils

import (
	"fmt"
	"io"
	"os"
)

// Verbose controls whether progress and timing output is printed.
// Warnings are printed regardless.
var Verbose = true

// Output is the writer where progress and warnings are printed.
// Defaults to os.Stdout.
var Output io.Writer = os.Stdout

// Logf prints progress output. Respects the Verbose flag.
func Logf(format string, args ...interface{}) {
	if !Verbose {
		return
	}
	fmt.Fprintf(Output, format+"\n", args...)
}

// Warnf prints a warning. Warnings (precision loss, sample mismatches) are
// non-fatal and printed even when Verbose is off.
func Warnf(format string, args ...interface{}) {
	fmt.Fprintf(Output, "warning: "+format+"\n", args...)
}
