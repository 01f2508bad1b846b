package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/hailam/shallowblue/internal/nnet"
	"github.com/hailam/shallowblue/internal/policy"
	"github.com/hailam/shallowblue/internal/storage"
	"github.com/hailam/shallowblue/internal/trainer"
	"github.com/hailam/shallowblue/internal/weights"
	"github.com/pkg/errors"
)

var defaults = trainer.DefaultConfig()

var (
	size       = flag.Int("size", 3, "board size in boxes per side")
	weightsDir = flag.String("weights", "", "directory holding <size>weight<i>.txt files (default: data dir)")
	dbDir      = flag.String("db", "", "badger directory with recorded examples (default: data dir)")
	layerList  = flag.String("layers", "", "comma-separated layer sizes (default: weight_params.txt, else 48)")
	ruleName   = flag.String("rule", defaults.Rule.String(), "training rule: plain, momentum or nag")
	alpha      = flag.Float64("alpha", defaults.Alpha, "learning rate")
	gamma      = flag.Float64("gamma", defaults.Gamma, "momentum coefficient")
	lambda     = flag.Float64("lambda", defaults.Lambda, "scale of the reported L2 penalty")
	epochs     = flag.Int("epochs", defaults.Epochs, "passes over the examples")
	seed       = flag.Uint64("seed", 1, "seed for a fresh network and for shuffling")
	shuffle    = flag.Bool("shuffle", true, "shuffle examples each epoch")
	clearAfter = flag.Bool("clear", false, "delete the examples after a successful run")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	rule, err := nnet.ParseRule(*ruleName)
	if err != nil {
		return err
	}

	dir := *weightsDir
	if dir == "" {
		if dir, err = storage.GetWeightsDir(); err != nil {
			return errors.Wrap(err, "resolving weights directory")
		}
	}
	layers, err := resolveLayers(dir, *layerList)
	if err != nil {
		return err
	}

	var db *storage.Storage
	if *dbDir != "" {
		db, err = storage.Open(*dbDir)
	} else {
		db, err = storage.NewStorage()
	}
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer db.Close()

	tag := policy.SizeTag(*size)
	records, err := db.Examples(tag)
	if err != nil {
		return errors.Wrap(err, "reading examples")
	}
	examples := make([]nnet.Example, len(records))
	for i, r := range records {
		examples[i] = r.Example
	}
	log.Printf("loaded %d examples for size %s", len(examples), tag)
	if len(examples) == 0 {
		return nil
	}

	files := weights.NewFileStore(dir)
	net, loaded, err := policy.NewNetwork(files, *size, layers, *seed)
	if err != nil {
		return err
	}
	if !loaded {
		log.Printf("no stored weights for size %s, starting from a fresh network", tag)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := defaults
	cfg.Rule = rule
	cfg.Alpha = *alpha
	cfg.Gamma = *gamma
	cfg.Lambda = *lambda
	cfg.Epochs = *epochs
	if *shuffle {
		cfg.Seed = *seed
	}
	res, err := trainer.Run(ctx, cfg, net, examples)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if err != nil {
		log.Printf("interrupted after %d epochs, saving progress", res.Epochs)
	}

	if err := weights.Update(files, tag, net, net.Weights()); err != nil {
		return errors.Wrap(err, "saving weights")
	}
	if err := weights.Save(db.WeightStore(), tag, net); err != nil {
		return errors.Wrap(err, "mirroring weights")
	}
	if err := weights.SaveParams(filepath.Join(dir, weights.ParamsFile), net.Sizes()); err != nil {
		return err
	}
	log.Printf("saved %d layers to %s (mse %.6f, log %.6f, l2 %.6f)", net.NumLayers(), dir, res.MSE, res.LogCost, res.L2)

	if *clearAfter && res.Epochs == *epochs {
		return db.ClearExamples(tag)
	}
	return nil
}

// resolveLayers prefers the flag, then weight_params.txt next to the weights.
func resolveLayers(dir, flagValue string) ([]int, error) {
	if flagValue != "" {
		return weights.ParseLayers(flagValue)
	}
	if sizes, err := weights.LoadParams(filepath.Join(dir, weights.ParamsFile)); err == nil {
		return sizes, nil
	}
	return []int{48}, nil
}
