package codegen

import (
	"fmt"
	"strings"
)

const header = "use dep::noir_ml::{layers::fc, activations::relu, utils::arg_max};\n\n"

const testBanner = "\n////////////////////\n//     TESTS      //\n////////////////////\n"

// Render folds the program IR into Noir source text. A straight fold over
// the ordered statement list: no maps, no reflection, so output bytes are
// a pure function of the IR.
func Render(p Program) string {
	var b strings.Builder
	b.WriteString(header)

	for _, g := range p.Globals {
		fmt.Fprintf(&b, "global %s: [Field; %d] = [%s];\n", g.Name, len(g.Values), strings.Join(g.Values, ", "))
		if strings.HasPrefix(g.Name, "b") {
			b.WriteString("\n")
		}
	}

	fmt.Fprintf(&b, "fn main(input: [Field; %d]) -> pub Field {\n", p.InputDim)
	b.WriteString("  let output = input;\n")
	for _, c := range p.Body {
		fmt.Fprintf(&b, "  let output = %s(fc(output, %s, %s));\n", c.Activation, c.Weights, c.Bias)
	}
	b.WriteString("  output\n}\n")

	if len(p.Tests) > 0 {
		b.WriteString(testBanner)
		for _, tc := range p.Tests {
			fmt.Fprintf(&b, "#[test]\nfn test_main_%03d() {\n", tc.Index)
			fmt.Fprintf(&b, "  let sample = [%s];\n", strings.Join(tc.Input, ", "))
			fmt.Fprintf(&b, "  assert(main(sample) == %s);\n}\n\n", tc.Expect)
		}
	}
	return b.String()
}
