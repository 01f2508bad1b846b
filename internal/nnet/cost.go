package nnet

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// CostMeanSquared returns sum((a-y)^2)/2.
func CostMeanSquared(y, a []float64) float64 {
	diff := make([]float64, len(a))
	floats.SubTo(diff, a, y)
	return floats.Dot(diff, diff) / 2
}

// CostLog returns the base-10 cross-entropy between y and a.
func CostLog(y, a []float64) float64 {
	var cost float64
	for i := range a {
		cost += -y[i]*math.Log10(a[i]) - (1-y[i])*math.Log10(1-a[i])
	}
	return cost
}
