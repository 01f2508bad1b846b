package nnet

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// DefaultGamma is the momentum coefficient used when none is given.
const DefaultGamma = 0.9

// Train takes one plain gradient-descent step towards y.
//
// The output delta is (out - y) without the sigmoid gradient, which is the
// derivative of the log cost. The momentum rules keep the sigmoid gradient.
func (n *Network) Train(alpha float64, x, y []float64) error {
	ws := n.Weights()
	grads, err := n.gradients(ws, ws, x, y, false)
	if err != nil {
		return err
	}
	for _, g := range grads {
		g.Scale(alpha, g)
	}
	n.apply(ws, grads)
	return nil
}

// TrainMomentum takes one step with classical momentum:
// update = gamma·prev + alpha·grad.
func (n *Network) TrainMomentum(alpha float64, x, y []float64, gamma float64) error {
	ws := n.Weights()
	grads, err := n.gradients(ws, ws, x, y, true)
	if err != nil {
		return err
	}
	n.step(ws, grads, alpha, gamma)
	return nil
}

// TrainNAG takes one Nesterov accelerated step. The forward pass runs on the
// lookahead weights W - gamma·prev; the error is carried back through the
// current weights.
func (n *Network) TrainNAG(alpha float64, x, y []float64, gamma float64) error {
	ws := n.Weights()
	grads, err := n.gradients(n.lookahead(ws, gamma), ws, x, y, true)
	if err != nil {
		return err
	}
	n.step(ws, grads, alpha, gamma)
	return nil
}

// lookahead returns ws - gamma·prev.
func (n *Network) lookahead(ws []*mat.Dense, gamma float64) []*mat.Dense {
	future := make([]*mat.Dense, len(ws))
	for i, w := range ws {
		var p mat.Dense
		p.Scale(gamma, n.prev[i])
		f := mat.DenseCopyOf(w)
		f.Sub(f, &p)
		future[i] = f
	}
	return future
}

// step turns gradients into a momentum update, applies it and stores it.
func (n *Network) step(ws, grads []*mat.Dense, alpha, gamma float64) {
	update := make([]*mat.Dense, len(grads))
	for i, g := range grads {
		var u mat.Dense
		u.Scale(gamma, n.prev[i])
		g.Scale(alpha, g)
		u.Add(&u, g)
		update[i] = &u
	}
	n.apply(ws, update)
	n.prev = update
}

// apply writes ws - update into every neuron.
func (n *Network) apply(ws, update []*mat.Dense) {
	for i, w := range ws {
		w.Sub(w, update[i])
		for j, nr := range n.layers[i].Neurons {
			mat.Row(nr.W, j, w)
		}
	}
}

// gradients back-propagates (out - y) through the network. The forward pass
// uses fwd, the backward pass uses the no-bias part of back. When scaleOut is
// set the output delta is multiplied by the sigmoid gradient.
func (n *Network) gradients(fwd, back []*mat.Dense, x, y []float64, scaleOut bool) ([]*mat.Dense, error) {
	if len(x) != n.sizeIn {
		return nil, errors.Wrapf(ErrShapeMismatch, "input has %d values, want %d", len(x), n.sizeIn)
	}
	if len(y) != n.NumOutputs() {
		return nil, errors.Wrapf(ErrShapeMismatch, "target has %d values, want %d", len(y), n.NumOutputs())
	}
	if err := n.checkShapes(fwd); err != nil {
		return nil, err
	}

	t := forward(fwd, x)
	last := len(n.layers) - 1

	delta := mat.NewVecDense(len(y), nil)
	delta.SubVec(mat.NewVecDense(len(y), t.Output()), mat.NewVecDense(len(y), append([]float64(nil), y...)))
	if scaleOut {
		delta.MulElemVec(delta, sigGradientVec(t.Z[last]))
	}

	// Collected from the output layer backwards.
	deltas := []*mat.VecDense{delta}
	for i := last - 1; i >= 0; i-- {
		next := deltas[len(deltas)-1]
		d := mat.NewVecDense(n.sizes[i], nil)
		d.MulVec(rmBias(back[i+1]).T(), next)
		d.MulElemVec(d, sigGradientVec(t.Z[i]))
		deltas = append(deltas, d)
	}

	grads := make([]*mat.Dense, len(deltas))
	for i := range grads {
		d := deltas[len(deltas)-1-i]
		r, c := n.Shape(i)
		g := mat.NewDense(r, c, nil)
		g.Outer(1, d, t.A[i])
		grads[i] = g
	}
	return grads, nil
}
