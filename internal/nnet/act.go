package nnet

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// sigmoidClamp keeps the sigmoid strictly inside (0,1) in float64.
const sigmoidClamp = 35.0

// Sigmoid returns 1/(1+e^-z). The input is clamped so the result never
// reaches 0 or 1 and never overflows.
func Sigmoid(z float64) float64 {
	switch {
	case math.IsNaN(z):
		return math.NaN()
	case z > sigmoidClamp:
		z = sigmoidClamp
	case z < -sigmoidClamp:
		z = -sigmoidClamp
	}
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// SigmoidGradient returns f(z)(1-f(z)).
func SigmoidGradient(z float64) float64 {
	s := Sigmoid(z)
	return s * (1 - s)
}

func sigmoidVec(z mat.Vector) *mat.VecDense {
	out := mat.NewVecDense(z.Len(), nil)
	for i := 0; i < z.Len(); i++ {
		out.SetVec(i, Sigmoid(z.AtVec(i)))
	}
	return out
}

func sigGradientVec(z mat.Vector) *mat.VecDense {
	out := mat.NewVecDense(z.Len(), nil)
	for i := 0; i < z.Len(); i++ {
		out.SetVec(i, SigmoidGradient(z.AtVec(i)))
	}
	return out
}
