// Package trainer runs offline training epochs over recorded examples.
package trainer

import (
	"context"
	"log"
	"math/rand/v2"

	"github.com/hailam/shallowblue/internal/nnet"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Config controls a training run.
type Config struct {
	Rule   nnet.Rule
	Alpha  float64
	Gamma  float64
	Epochs int

	// Lambda scales the L2 penalty reported per epoch. The penalty is not
	// applied to the updates.
	Lambda float64

	// Seed shuffles the examples each epoch when non-zero.
	Seed uint64

	// ResetMomentum clears the previous update before the first epoch.
	ResetMomentum bool

	Logger *log.Logger
}

// DefaultConfig returns the settings the command-line trainer starts from.
func DefaultConfig() Config {
	return Config{
		Rule:   nnet.Momentum,
		Alpha:  0.1,
		Gamma:  nnet.DefaultGamma,
		Epochs: 10,
		Lambda: 0.001,
	}
}

// Result summarises a finished run.
type Result struct {
	Epochs  int     // epochs completed
	Steps   int     // training steps taken
	MSE     float64 // mean squared cost after the last epoch
	LogCost float64 // mean log cost after the last epoch
	L2      float64 // penalty after the last epoch, see Penalty
}

// Run trains net on examples. Cancelling ctx stops the run between examples;
// the result then reports what was completed, together with ctx.Err().
func Run(ctx context.Context, cfg Config, net *nnet.Network, examples []nnet.Example) (Result, error) {
	var res Result
	if len(examples) == 0 {
		return res, errors.New("no training examples")
	}
	if cfg.Alpha <= 0 {
		return res, errors.Errorf("learning rate must be positive, got %v", cfg.Alpha)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	if cfg.ResetMomentum {
		net.ResetMomentum()
	}

	order := make([]int, len(examples))
	for i := range order {
		order[i] = i
	}
	var rng *rand.Rand
	if cfg.Seed != 0 {
		rng = rand.New(rand.NewPCG(cfg.Seed, cfg.Seed>>1|1))
	}

	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		if rng != nil {
			rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		}
		for _, i := range order {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			ex := examples[i]
			if err := net.TrainWith(cfg.Rule, cfg.Alpha, cfg.Gamma, ex.Input, ex.Target); err != nil {
				return res, errors.Wrapf(err, "epoch %d example %d", epoch, i)
			}
			res.Steps++
		}

		mse, lc, err := Evaluate(net, examples)
		if err != nil {
			return res, err
		}
		res.Epochs = epoch
		res.MSE = mse
		res.LogCost = lc
		res.L2 = Penalty(net, cfg.Lambda)
		logger.Printf("epoch %d/%d rule %s mse %.6f log %.6f l2 %.6f", epoch, cfg.Epochs, cfg.Rule, mse, lc, res.L2)
	}
	return res, nil
}

// Penalty returns the summed squares of net.Regularization(lambda), the
// bias weights excluded.
func Penalty(net *nnet.Network, lambda float64) float64 {
	var sum float64
	for _, r := range net.Regularization(lambda) {
		f := mat.Norm(r, 2)
		sum += f * f
	}
	return sum
}

// Evaluate returns the mean squared and mean log cost of net over examples.
func Evaluate(net *nnet.Network, examples []nnet.Example) (float64, float64, error) {
	if len(examples) == 0 {
		return 0, 0, nil
	}
	var mse, lc float64
	for i, ex := range examples {
		out, err := net.Predict(ex.Input)
		if err != nil {
			return 0, 0, errors.Wrapf(err, "example %d", i)
		}
		if len(out) != len(ex.Target) {
			return 0, 0, errors.Wrapf(nnet.ErrShapeMismatch, "example %d target has %d values, want %d", i, len(ex.Target), len(out))
		}
		mse += nnet.CostMeanSquared(ex.Target, out)
		lc += nnet.CostLog(ex.Target, out)
	}
	n := float64(len(examples))
	return mse / n, lc / n, nil
}
