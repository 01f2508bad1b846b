// ShallowBlue - dots and boxes against a neural network, built with Ebitengine
package main

import (
	"flag"
	"log"

	"github.com/hailam/shallowblue/internal/ui"
	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	dbDir := flag.String("db", "", "badger directory (default: user data dir)")
	hashMB := flag.Int("hash", 64, "search hash size in MB")
	seed := flag.Uint64("seed", 1, "seed for fresh network weights")
	flag.Parse()

	game := ui.NewGame(ui.Options{DataDir: *dbDir, HashMB: *hashMB, Seed: *seed})
	defer game.Close()

	ebiten.SetWindowSize(ui.ScreenWidth, ui.ScreenHeight)
	ebiten.SetWindowTitle("ShallowBlue")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
