package nnet

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func squaredError(t *testing.T, n *Network, x, y []float64) float64 {
	t.Helper()
	out, err := n.Predict(x)
	if err != nil {
		t.Fatal(err)
	}
	return CostMeanSquared(y, out)
}

func TestPlainRuleSkipsSigmoidGradient(t *testing.T) {
	// The plain rule uses (out - y) at the output; the momentum rules scale it
	// by the sigmoid gradient. This asymmetry is intentional.
	n, _ := NewConstant(2, []int{1}, 0.5)
	x, y := []float64{1, 0}, []float64{0.2}
	ws := n.Weights()

	plain, err := n.gradients(ws, ws, x, y, false)
	if err != nil {
		t.Fatal(err)
	}
	scaled, err := n.gradients(ws, ws, x, y, true)
	if err != nil {
		t.Fatal(err)
	}

	z := 1.0 // 0.5*1 + 0.5*1 + 0.5*0
	out := Sigmoid(z)
	if got := plain[0].At(0, 0); math.Abs(got-(out-0.2)) > 1e-12 {
		t.Errorf("plain bias gradient = %v, want %v", got, out-0.2)
	}
	if got := scaled[0].At(0, 0); math.Abs(got-(out-0.2)*SigmoidGradient(z)) > 1e-12 {
		t.Errorf("momentum bias gradient = %v, want %v", got, (out-0.2)*SigmoidGradient(z))
	}
	if plain[0].At(0, 2) != 0 || scaled[0].At(0, 2) != 0 {
		t.Error("zero input should give zero gradient")
	}
}

func TestTrainPlainStep(t *testing.T) {
	n, _ := NewConstant(2, []int{1}, 0.5)
	x, y := []float64{1, 0}, []float64{0.2}
	out := Sigmoid(1)

	if err := n.Train(0.5, x, y); err != nil {
		t.Fatal(err)
	}
	w := n.Layer(0).Neurons[0].W
	want := []float64{0.5 - 0.5*(out-0.2), 0.5 - 0.5*(out-0.2), 0.5}
	for i := range w {
		if math.Abs(w[i]-want[i]) > 1e-12 {
			t.Errorf("w[%d] = %v, want %v", i, w[i], want[i])
		}
	}
	for _, p := range n.PrevUpdate() {
		if mat.Norm(p, 2) != 0 {
			t.Error("plain rule must not touch the momentum state")
		}
	}
}

func TestTrainPlainReducesError(t *testing.T) {
	n, _ := New(4, []int{5, 3}, 11)
	x, y := []float64{1, 0, 1, 1}, []float64{1, 0, 0}
	before := squaredError(t, n, x, y)
	for i := 0; i < 200; i++ {
		if err := n.Train(0.5, x, y); err != nil {
			t.Fatal(err)
		}
	}
	if after := squaredError(t, n, x, y); after >= before {
		t.Errorf("error did not decrease: %v -> %v", before, after)
	}
}

func TestMomentumStoresUpdate(t *testing.T) {
	n, _ := New(3, []int{4, 2}, 5)
	x, y := []float64{1, 0, 1}, []float64{0, 1}

	for step := 0; step < 3; step++ {
		before := n.Weights()
		prev := n.PrevUpdate()
		if err := n.TrainMomentum(0.3, x, y, DefaultGamma); err != nil {
			t.Fatal(err)
		}
		after := n.Weights()
		stored := n.PrevUpdate()
		for i := range before {
			var diff mat.Dense
			diff.Sub(before[i], after[i])
			if !mat.EqualApprox(&diff, stored[i], 1e-12) {
				t.Fatalf("step %d layer %d: stored update differs from applied update", step, i)
			}
			if step == 0 && mat.Norm(prev[i], 2) != 0 {
				t.Fatal("momentum state should start at zero")
			}
		}
	}

	n.ResetMomentum()
	for _, p := range n.PrevUpdate() {
		if mat.Norm(p, 2) != 0 {
			t.Error("ResetMomentum left a non-zero update")
		}
	}
}

func TestMomentumConvergence(t *testing.T) {
	n, _ := NewConstant(2, []int{3, 1}, 0.5)
	x, y := []float64{1, 0}, []float64{0.2}
	const (
		alpha     = 0.005
		steps     = 2000
		transient = 50
	)

	initial := squaredError(t, n, x, y)
	last := math.Inf(1)
	for i := 1; i <= steps; i++ {
		if err := n.TrainMomentum(alpha, x, y, 0.9); err != nil {
			t.Fatal(err)
		}
		if i < transient {
			continue
		}
		e := squaredError(t, n, x, y)
		if e > last+1e-15 {
			t.Fatalf("error rose at step %d: %v -> %v", i, last, e)
		}
		last = e
	}
	if last > initial/2 {
		t.Errorf("error only fell from %v to %v", initial, last)
	}
}

func TestNesterovUsesLookahead(t *testing.T) {
	n, _ := New(3, []int{4, 2}, 21)
	x, y := []float64{1, 1, 0}, []float64{1, 0}

	// Build up a non-zero previous update first.
	for i := 0; i < 3; i++ {
		if err := n.TrainMomentum(0.5, x, y, DefaultGamma); err != nil {
			t.Fatal(err)
		}
	}

	ws := n.Weights()
	momentum, err := n.gradients(ws, ws, x, y, true)
	if err != nil {
		t.Fatal(err)
	}
	future := n.lookahead(ws, DefaultGamma)
	nag, err := n.gradients(future, ws, x, y, true)
	if err != nil {
		t.Fatal(err)
	}

	differs := false
	for i := range momentum {
		if !mat.EqualApprox(momentum[i], nag[i], 1e-12) {
			differs = true
		}
	}
	if !differs {
		t.Fatal("lookahead gradients should differ from current-weight gradients")
	}

	// The lookahead weights are W - gamma·prev.
	prev := n.PrevUpdate()
	for i := range ws {
		var want mat.Dense
		want.Scale(-DefaultGamma, prev[i])
		want.Add(&want, ws[i])
		if !mat.EqualApprox(&want, future[i], 1e-15) {
			t.Errorf("layer %d: lookahead weights are wrong", i)
		}
	}

	// TrainNAG applies gamma·prev + alpha·grad(lookahead).
	const alpha = 0.25
	if err := n.TrainNAG(alpha, x, y, DefaultGamma); err != nil {
		t.Fatal(err)
	}
	got := n.Weights()
	for i := range ws {
		var want, step mat.Dense
		step.Scale(alpha, nag[i])
		want.Scale(DefaultGamma, prev[i])
		want.Add(&want, &step)
		want.Sub(ws[i], &want)
		if !mat.EqualApprox(&want, got[i], 1e-12) {
			t.Errorf("layer %d: NAG update is wrong", i)
		}
	}
}

func TestNesterovMatchesMomentumFromRest(t *testing.T) {
	a, _ := New(3, []int{3, 2}, 4)
	b, _ := New(3, []int{3, 2}, 4)
	x, y := []float64{0, 1, 1}, []float64{1, 0}

	if err := a.TrainMomentum(0.2, x, y, DefaultGamma); err != nil {
		t.Fatal(err)
	}
	if err := b.TrainNAG(0.2, x, y, DefaultGamma); err != nil {
		t.Fatal(err)
	}
	wa, wb := a.Weights(), b.Weights()
	for i := range wa {
		if !mat.Equal(wa[i], wb[i]) {
			t.Errorf("layer %d: first steps differ with zero momentum", i)
		}
	}
}

func TestTrainWith(t *testing.T) {
	for _, tc := range []struct {
		name string
		rule Rule
	}{
		{"plain", Plain},
		{"momentum", Momentum},
		{"nag", Nesterov},
		{"nesterov", Nesterov},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rule, err := ParseRule(tc.name)
			if err != nil || rule != tc.rule {
				t.Fatalf("ParseRule(%q) = %v, %v", tc.name, rule, err)
			}
			n, _ := New(2, []int{2, 1}, 8)
			before := n.Weights()
			if err := n.TrainWith(rule, 0.1, DefaultGamma, []float64{1, 0}, []float64{1}); err != nil {
				t.Fatal(err)
			}
			if mat.Equal(before[1], n.Weights()[1]) {
				t.Error("weights unchanged after a training step")
			}
		})
	}

	if _, err := ParseRule("adam"); err == nil {
		t.Error("expected an error for an unknown rule")
	}
	n, _ := New(2, []int{1}, 1)
	if err := n.TrainWith(Rule(42), 0.1, 0.9, []float64{1, 0}, []float64{1}); err == nil {
		t.Error("expected an error for an unknown rule value")
	}
}
