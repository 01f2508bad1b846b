package nnet

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Trace is the record of one forward pass.
// A[0] is the input with the bias unit prepended, A[i+1] is the biased
// activation of layer i and Z[i] its pre-activation.
type Trace struct {
	Z []*mat.VecDense
	A []*mat.VecDense
}

// Output returns the last activation without its bias unit.
func (t *Trace) Output() []float64 {
	last := t.A[len(t.A)-1]
	out := make([]float64, last.Len()-1)
	for i := range out {
		out[i] = last.AtVec(i + 1)
	}
	return out
}

// Forward runs x through the network and returns the full trace and the
// output vector. x must not include the bias unit.
func (n *Network) Forward(x []float64) (*Trace, []float64, error) {
	if len(x) != n.sizeIn {
		return nil, nil, errors.Wrapf(ErrShapeMismatch, "input has %d values, want %d", len(x), n.sizeIn)
	}
	t := forward(n.Weights(), x)
	return t, t.Output(), nil
}

// Predict returns only the network output for x.
func (n *Network) Predict(x []float64) ([]float64, error) {
	_, out, err := n.Forward(x)
	return out, err
}

// forward assumes ws and x have already been checked against each other.
func forward(ws []*mat.Dense, x []float64) *Trace {
	t := &Trace{
		Z: make([]*mat.VecDense, 0, len(ws)),
		A: make([]*mat.VecDense, 0, len(ws)+1),
	}
	t.A = append(t.A, addBias(mat.NewVecDense(len(x), append([]float64(nil), x...))))
	for i, w := range ws {
		r, _ := w.Dims()
		z := mat.NewVecDense(r, nil)
		z.MulVec(w, t.A[i])
		t.Z = append(t.Z, z)
		t.A = append(t.A, addBias(sigmoidVec(z)))
	}
	return t
}

// addBias returns a new vector with a leading 1.
func addBias(v mat.Vector) *mat.VecDense {
	out := mat.NewVecDense(v.Len()+1, nil)
	out.SetVec(0, 1)
	for i := 0; i < v.Len(); i++ {
		out.SetVec(i+1, v.AtVec(i))
	}
	return out
}

// rmBias returns w without its bias column.
func rmBias(w *mat.Dense) mat.Matrix {
	r, c := w.Dims()
	return w.Slice(0, r, 1, c)
}
