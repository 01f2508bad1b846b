package trainer

import (
	"bytes"
	"context"
	"log"
	"math"
	"strings"
	"testing"

	"github.com/hailam/shallowblue/internal/nnet"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

func examples() []nnet.Example {
	return []nnet.Example{
		{Input: []float64{1, 0, 0, 1}, Target: []float64{1, 0}},
		{Input: []float64{0, 1, 1, 0}, Target: []float64{0, 1}},
		{Input: []float64{1, 1, 0, 0}, Target: []float64{1, 0}},
	}
}

func TestRunReducesCost(t *testing.T) {
	for _, rule := range []nnet.Rule{nnet.Plain, nnet.Momentum, nnet.Nesterov} {
		t.Run(rule.String(), func(t *testing.T) {
			net, err := nnet.New(4, []int{6, 2}, 11)
			if err != nil {
				t.Fatal(err)
			}
			exs := examples()
			before, _, err := Evaluate(net, exs)
			if err != nil {
				t.Fatal(err)
			}

			var buf bytes.Buffer
			cfg := Config{
				Rule:   rule,
				Alpha:  0.05,
				Gamma:  nnet.DefaultGamma,
				Epochs: 100,
				Logger: log.New(&buf, "", 0),
			}
			res, err := Run(context.Background(), cfg, net, exs)
			if err != nil {
				t.Fatal(err)
			}
			if res.Epochs != 100 || res.Steps != 300 {
				t.Errorf("epochs %d steps %d", res.Epochs, res.Steps)
			}
			if res.MSE >= before {
				t.Errorf("mse did not improve: %.6f -> %.6f", before, res.MSE)
			}
			if !strings.Contains(buf.String(), "epoch 100/100 rule "+rule.String()) {
				t.Errorf("missing epoch log line in %q", buf.String()[:min(200, buf.Len())])
			}
		})
	}
}

func TestRunCancelled(t *testing.T) {
	net, _ := nnet.New(4, []int{2}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := Run(ctx, DefaultConfig(), net, examples())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if res.Steps != 0 {
		t.Errorf("trained %d steps after cancellation", res.Steps)
	}
}

func TestRunErrors(t *testing.T) {
	net, _ := nnet.New(4, []int{2}, 1)
	quiet := DefaultConfig()
	quiet.Logger = log.New(&bytes.Buffer{}, "", 0)

	if _, err := Run(context.Background(), quiet, net, nil); err == nil {
		t.Error("expected error for no examples")
	}

	bad := quiet
	bad.Alpha = 0
	if _, err := Run(context.Background(), bad, net, examples()); err == nil {
		t.Error("expected error for zero learning rate")
	}

	wrong := []nnet.Example{{Input: []float64{1, 0, 0, 1}, Target: []float64{1, 0, 0}}}
	if _, err := Run(context.Background(), quiet, net, wrong); !errors.Is(err, nnet.ErrShapeMismatch) {
		t.Errorf("expected ErrShapeMismatch, got %v", err)
	}
}

func TestShuffleIsDeterministic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 99
	cfg.Epochs = 3
	cfg.Logger = log.New(&bytes.Buffer{}, "", 0)

	a, _ := nnet.New(4, []int{3, 2}, 4)
	b, _ := nnet.New(4, []int{3, 2}, 4)
	if _, err := Run(context.Background(), cfg, a, examples()); err != nil {
		t.Fatal(err)
	}
	if _, err := Run(context.Background(), cfg, b, examples()); err != nil {
		t.Fatal(err)
	}
	wb := b.Weights()
	for i, w := range a.Weights() {
		if !mat.Equal(w, wb[i]) {
			t.Errorf("layer %d differs between identical seeded runs", i)
		}
	}
}

func TestPenalty(t *testing.T) {
	net, _ := nnet.New(4, []int{3, 2}, 5)
	before := net.Weights()

	var want float64
	for _, w := range before {
		r, c := w.Dims()
		for i := 0; i < r; i++ {
			for j := 1; j < c; j++ {
				v := 0.5 * w.At(i, j)
				want += v * v
			}
		}
	}
	got := Penalty(net, 0.5)
	if got <= 0 || math.Abs(got-want) > 1e-12 {
		t.Errorf("Penalty = %v, want %v", got, want)
	}
	for i, w := range net.Weights() {
		if !mat.Equal(before[i], w) {
			t.Errorf("layer %d changed by Penalty", i)
		}
	}
	if Penalty(net, 0) != 0 {
		t.Error("zero lambda gave a non-zero penalty")
	}

	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Epochs = 2
	cfg.Lambda = 0.5
	cfg.Logger = log.New(&buf, "", 0)
	res, err := Run(context.Background(), cfg, net, examples())
	if err != nil {
		t.Fatal(err)
	}
	if res.L2 != Penalty(net, 0.5) || res.L2 <= 0 {
		t.Errorf("result L2 %v, want %v", res.L2, Penalty(net, 0.5))
	}
	if !strings.Contains(buf.String(), " l2 ") {
		t.Errorf("epoch log lacks the penalty: %q", buf.String())
	}
}
