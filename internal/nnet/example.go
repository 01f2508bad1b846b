package nnet

// Example is one training pair: a cleaned input and its target output.
type Example struct {
	Input  []float64 `json:"input"`
	Target []float64 `json:"target"`
}
