// Package nnet implements a small fully-connected sigmoid network trained one
// example at a time.
package nnet

import (
	"math/rand/v2"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// InitEpsilon bounds the uniform range of freshly initialised weights.
const InitEpsilon = 0.12

var (
	ErrShapeMismatch = errors.New("shape mismatch")
	ErrUnknownRule   = errors.New("unknown training rule")
)

// Neuron owns one weight per input plus a leading bias weight.
type Neuron struct {
	W []float64
}

// Inputs returns the number of non-bias inputs.
func (nr *Neuron) Inputs() int {
	return len(nr.W) - 1
}

// Layer is an ordered set of neurons sharing the same input dimension.
type Layer struct {
	Neurons []*Neuron
}

// Size returns the number of neurons.
func (l Layer) Size() int {
	return len(l.Neurons)
}

// Network is an ordered sequence of layers plus the momentum state that
// belongs to it. It is not safe for concurrent use.
type Network struct {
	sizeIn int
	sizes  []int
	layers []Layer

	// Previous update, one matrix per layer, used by the momentum rules.
	prev []*mat.Dense
}

// New creates a network with sizeIn inputs and the given layer sizes.
// Weights are drawn uniformly from [-InitEpsilon, InitEpsilon].
func New(sizeIn int, sizes []int, seed uint64) (*Network, error) {
	rng := rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15))
	return build(sizeIn, sizes, func() float64 {
		return (rng.Float64()*2 - 1) * InitEpsilon
	})
}

// NewConstant creates a network with every weight, bias included, set to w.
func NewConstant(sizeIn int, sizes []int, w float64) (*Network, error) {
	return build(sizeIn, sizes, func() float64 { return w })
}

func build(sizeIn int, sizes []int, init func() float64) (*Network, error) {
	if sizeIn < 1 || len(sizes) == 0 {
		return nil, errors.Wrapf(ErrShapeMismatch, "input %d, layers %v", sizeIn, sizes)
	}
	n := &Network{
		sizeIn: sizeIn,
		sizes:  append([]int(nil), sizes...),
		layers: make([]Layer, len(sizes)),
		prev:   make([]*mat.Dense, len(sizes)),
	}
	inputs := sizeIn
	for i, size := range sizes {
		if size < 1 {
			return nil, errors.Wrapf(ErrShapeMismatch, "layer %d has %d neurons", i, size)
		}
		layer := Layer{Neurons: make([]*Neuron, size)}
		for j := range layer.Neurons {
			w := make([]float64, inputs+1)
			for k := range w {
				w[k] = init()
			}
			layer.Neurons[j] = &Neuron{W: w}
		}
		n.layers[i] = layer
		n.prev[i] = mat.NewDense(size, inputs+1, nil)
		inputs = size
	}
	return n, nil
}

// SizeIn returns the input dimension, bias excluded.
func (n *Network) SizeIn() int {
	return n.sizeIn
}

// Sizes returns a copy of the layer sizes.
func (n *Network) Sizes() []int {
	return append([]int(nil), n.sizes...)
}

// NumLayers returns the number of layers.
func (n *Network) NumLayers() int {
	return len(n.layers)
}

// NumOutputs returns the size of the last layer.
func (n *Network) NumOutputs() int {
	return n.sizes[len(n.sizes)-1]
}

// Layer returns layer i.
func (n *Network) Layer(i int) Layer {
	return n.layers[i]
}

// Shape returns the weight matrix dimensions of layer i.
func (n *Network) Shape(i int) (rows, cols int) {
	if i == 0 {
		return n.sizes[0], n.sizeIn + 1
	}
	return n.sizes[i], n.sizes[i-1] + 1
}

// Weights returns a copy of every layer's weights, one row per neuron with
// the bias in column 0.
func (n *Network) Weights() []*mat.Dense {
	ws := make([]*mat.Dense, len(n.layers))
	for i, layer := range n.layers {
		r, c := n.Shape(i)
		w := mat.NewDense(r, c, nil)
		for j, nr := range layer.Neurons {
			w.SetRow(j, nr.W)
		}
		ws[i] = w
	}
	return ws
}

// SetWeights overwrites every neuron's weights from ws. The matrices must
// match the topology exactly.
func (n *Network) SetWeights(ws []*mat.Dense) error {
	if err := n.checkShapes(ws); err != nil {
		return err
	}
	for i, layer := range n.layers {
		for j, nr := range layer.Neurons {
			mat.Row(nr.W, j, ws[i])
		}
	}
	return nil
}

func (n *Network) checkShapes(ws []*mat.Dense) error {
	if len(ws) != len(n.layers) {
		return errors.Wrapf(ErrShapeMismatch, "%d matrices for %d layers", len(ws), len(n.layers))
	}
	for i, w := range ws {
		if w == nil {
			return errors.Wrapf(ErrShapeMismatch, "layer %d: missing matrix", i)
		}
		wr, wc := n.Shape(i)
		r, c := w.Dims()
		if r != wr || c != wc {
			return errors.Wrapf(ErrShapeMismatch, "layer %d: got %dx%d, want %dx%d", i, r, c, wr, wc)
		}
	}
	return nil
}

// PrevUpdate returns a copy of the momentum state.
func (n *Network) PrevUpdate() []*mat.Dense {
	out := make([]*mat.Dense, len(n.prev))
	for i, p := range n.prev {
		out[i] = mat.DenseCopyOf(p)
	}
	return out
}

// ResetMomentum zeroes the momentum state.
func (n *Network) ResetMomentum() {
	for _, p := range n.prev {
		p.Zero()
	}
}

// Regularization returns lambda·W for every layer with the bias column zeroed.
// Training does not apply it.
func (n *Network) Regularization(lambda float64) []*mat.Dense {
	ws := n.Weights()
	for _, w := range ws {
		r, _ := w.Dims()
		w.Scale(lambda, w)
		for j := 0; j < r; j++ {
			w.Set(j, 0, 0)
		}
	}
	return ws
}
