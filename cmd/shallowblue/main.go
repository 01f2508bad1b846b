package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"runtime/pprof"

	"github.com/hailam/shallowblue/internal/book"
	"github.com/hailam/shallowblue/internal/engine"
	"github.com/hailam/shallowblue/internal/protocol"
	"github.com/hailam/shallowblue/internal/storage"
	"github.com/hailam/shallowblue/internal/weights"
)

var (
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	weightsDir = flag.String("weights", "", "directory holding <size>weight<i>.txt files (default: data dir)")
	layerList  = flag.String("layers", "", "comma-separated layer sizes (default: weight_params.txt, else 48)")
	dbDir      = flag.String("db", "", "badger directory for the weight mirror and recorded examples")
	record     = flag.Bool("record", false, "record helper moves as training examples (needs -db)")
	bookFile   = flag.String("book", "", "opening book file")
	hashMB     = flag.Int("hash", 16, "transposition table size in MB")
	seed       = flag.Uint64("seed", 1, "seed for freshly initialised networks")
)

func main() {
	flag.Parse()

	// Start CPU profiling if requested (via flag or environment variable)
	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
		log.Printf("CPU profiling enabled, writing to %s", profilePath)
	}

	dir := *weightsDir
	if dir == "" {
		var err error
		if dir, err = storage.GetWeightsDir(); err != nil {
			log.Fatal("could not resolve weights directory: ", err)
		}
	}
	layers, err := resolveLayers(dir, *layerList)
	if err != nil {
		log.Fatal(err)
	}

	cfg := protocol.Config{
		Layers: layers,
		Seed:   *seed,
		Store:  weights.NewFileStore(dir),
	}

	if *dbDir != "" {
		db, err := storage.Open(*dbDir)
		if err != nil {
			log.Fatal("could not open database: ", err)
		}
		defer db.Close()
		cfg.Mirror = db.WeightStore()
		if *record {
			cfg.Recorder = db
		}
	} else if *record {
		log.Printf("Warning: -record ignored without -db")
	}

	eng := engine.NewEngine(*hashMB)
	if *bookFile != "" {
		bk, err := book.Load(*bookFile)
		if err != nil {
			log.Printf("Warning: book not loaded: %v", err)
		} else {
			eng.SetBook(bk)
			log.Printf("Book loaded from %s (%d positions)", *bookFile, bk.Size())
		}
	}

	p := protocol.New(eng, cfg)
	if err := p.Run(os.Stdin, os.Stdout); err != nil {
		log.Printf("reading commands: %v", err)
	}
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
