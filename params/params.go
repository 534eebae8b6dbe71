// Package params parses and validates feed-forward network parameters.
//
// The parameter file is a JSON object with keys "w<i>" (flat row-major
// weight matrix of layer i) and "b<i>" (bias vector of layer i), for
// i = 1..L. Layer i's weight matrix has out_dim = len(b<i>) rows and
// in_dim = len(w<i>)/out_dim columns; in_dim of layer i must equal
// out_dim of layer i-1.
package params

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"gonum.org/v1/gonum/mat"
)

// Layer holds the real-valued parameters of one fully-connected layer.
type Layer struct {
	W *mat.Dense    // out_dim x in_dim
	B *mat.VecDense // out_dim
}

// OutDim returns the layer's output dimension.
func (l Layer) OutDim() int {
	r, _ := l.W.Dims()
	return r
}

// InDim returns the layer's input dimension.
func (l Layer) InDim() int {
	_, c := l.W.Dims()
	return c
}

// Network is a validated stack of layers. Layer 1's in_dim is the
// network's input dimension.
type Network struct {
	Layers   []Layer
	InputDim int
}

// OutputDim returns the last layer's output dimension.
func (n *Network) OutputDim() int {
	return n.Layers[len(n.Layers)-1].OutDim()
}

// ShapeError reports inconsistent parameter geometry. It aborts the
// pipeline before quantization.
type ShapeError struct {
	Layer  int
	Reason string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("shape mismatch at layer %d: %s", e.Layer, e.Reason)
}

var keyPattern = regexp.MustCompile(`^([wb])([0-9]+)$`)

// Parse decodes and shape-checks a parameter file. Pure: no I/O.
func Parse(data []byte) (*Network, error) {
	var raw map[string][]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal parameters: %w", err)
	}

	weights := map[int][]float64{}
	biases := map[int][]float64{}
	maxIdx := 0
	for key, vals := range raw {
		m := keyPattern.FindStringSubmatch(key)
		if m == nil {
			continue
		}
		idx, err := strconv.Atoi(m[2])
		if err != nil || idx < 1 {
			continue
		}
		if m[1] == "w" {
			weights[idx] = vals
		} else {
			biases[idx] = vals
		}
		if idx > maxIdx {
			maxIdx = idx
		}
	}
	if maxIdx == 0 {
		return nil, &ShapeError{Layer: 1, Reason: "no w<i>/b<i> keys found"}
	}

	net := &Network{Layers: make([]Layer, 0, maxIdx)}
	prevOut := 0
	for i := 1; i <= maxIdx; i++ {
		w, okW := weights[i]
		b, okB := biases[i]
		if !okW || !okB {
			return nil, &ShapeError{Layer: i, Reason: fmt.Sprintf("have w%d=%v b%d=%v, need both", i, okW, i, okB)}
		}
		outDim := len(b)
		if outDim == 0 {
			return nil, &ShapeError{Layer: i, Reason: "empty bias vector"}
		}
		if len(w) == 0 || len(w)%outDim != 0 {
			return nil, &ShapeError{Layer: i, Reason: fmt.Sprintf("weight length %d not divisible by out_dim %d", len(w), outDim)}
		}
		inDim := len(w) / outDim
		if i > 1 && inDim != prevOut {
			return nil, &ShapeError{Layer: i, Reason: fmt.Sprintf("in_dim %d disagrees with layer %d out_dim %d", inDim, i-1, prevOut)}
		}
		net.Layers = append(net.Layers, Layer{
			W: mat.NewDense(outDim, inDim, append([]float64(nil), w...)),
			B: mat.NewVecDense(outDim, append([]float64(nil), b...)),
		})
		if i == 1 {
			net.InputDim = inDim
		}
		prevOut = outDim
	}
	return net, nil
}

// Load reads and parses a parameter file.
func Load(path string) (*Network, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parameter file: %w", err)
	}
	return Parse(data)
}
