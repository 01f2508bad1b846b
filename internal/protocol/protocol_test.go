package protocol

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hailam/shallowblue/internal/board"
	"github.com/hailam/shallowblue/internal/engine"
	"github.com/hailam/shallowblue/internal/weights"
)

func run(t *testing.T, p *Protocol, script string) []string {
	t.Helper()
	var out bytes.Buffer
	if err := p.Run(strings.NewReader(script), &out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return strings.Split(strings.TrimSpace(out.String()), "\n")
}

func find(lines []string, prefix string) (string, bool) {
	for _, l := range lines {
		if strings.HasPrefix(l, prefix) {
			return l, true
		}
	}
	return "", false
}

func newProtocol(t *testing.T) (*Protocol, string) {
	dir := t.TempDir()
	return New(engine.NewEngine(1), Config{
		Layers: []int{6},
		Seed:   1,
		Store:  weights.NewFileStore(dir),
	}), dir
}

func TestGoInOpening(t *testing.T) {
	p, _ := newProtocol(t)
	lines := run(t, p, "newgame 2\ngo\nquit\ngo\n")

	if _, ok := find(lines, "info string no stored weights for size 2"); !ok {
		t.Errorf("missing fresh-network notice: %v", lines)
	}
	best, ok := find(lines, "bestmove ")
	if !ok {
		t.Fatalf("no bestmove in %v", lines)
	}
	c, err := board.ParseCommand(strings.TrimPrefix(best, "bestmove "))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := board.EdgeOf(2, c); err != nil {
		t.Errorf("bestmove %s is not an edge: %v", c, err)
	}
	if _, ok := find(lines, "phase opening"); !ok {
		t.Errorf("expected opening phase: %v", lines)
	}

	// Nothing after quit is processed
	count := 0
	for _, l := range lines {
		if strings.HasPrefix(l, "bestmove") {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected one bestmove, got %d", count)
	}
}

func TestMoveStateShow(t *testing.T) {
	p, _ := newProtocol(t)
	lines := run(t, p, "newgame 1\nmove 0,0\nmove 1,0\nshow\n")
	if l, ok := find(lines, "state "); !ok || l != "state 1100" {
		t.Errorf("state after two moves: %q", l)
	}

	lines = run(t, p, "state 1111\nshow\ngo\n")
	if l, _ := find(lines, "score "); l != "score 0 1 tomove second made 4" {
		t.Errorf("score line %q", l)
	}
	if _, ok := find(lines, "bestmove none"); !ok {
		t.Errorf("expected bestmove none on a full board: %v", lines)
	}
}

func TestErrors(t *testing.T) {
	p, _ := newProtocol(t)
	lines := run(t, p, "newgame 2\nmove 9,9\nmove 0,0\nmove 0,0\nstate 01\nnewgame 99\nfrobnicate\ntrain sideways 0.1 0,0\n")
	errs := 0
	for _, l := range lines {
		if strings.HasPrefix(l, "info string error:") {
			errs++
		}
	}
	if errs != 6 {
		t.Errorf("expected 6 errors, got %d: %v", errs, lines)
	}
}

func TestTrainSaveReload(t *testing.T) {
	p, dir := newProtocol(t)
	lines := run(t, p, "newgame 2\nmove 0,0\ntrain nag 0.5 1,1\nsave\n")
	if _, ok := find(lines, "info string trained nag alpha 0.5 on 1,1"); !ok {
		t.Errorf("train not acknowledged: %v", lines)
	}
	if _, ok := find(lines, "info string saved weights for size 2"); !ok {
		t.Fatalf("save not acknowledged: %v", lines)
	}
	for i := 0; i < 2; i++ {
		if _, err := os.Stat(filepath.Join(dir, weights.FileName("2", i))); err != nil {
			t.Errorf("layer %d not written: %v", i, err)
		}
	}

	// A fresh protocol picks the saved weights up
	other := New(engine.NewEngine(1), Config{Layers: []int{6}, Seed: 7, Store: weights.NewFileStore(dir)})
	lines = run(t, other, "newgame 2\nreload\n")
	if _, ok := find(lines, "info string no stored weights"); ok {
		t.Error("stored weights were not loaded")
	}
	if _, ok := find(lines, "info string reloaded weights for size 2"); !ok {
		t.Errorf("reload not acknowledged: %v", lines)
	}
}

func TestDamagedWeightsNotOverwritten(t *testing.T) {
	p, dir := newProtocol(t)
	run(t, p, "newgame 2\nsave\n")
	last := filepath.Join(dir, weights.FileName("2", 1))
	if err := os.WriteFile(last, []byte("0.1 abc\n"), 0644); err != nil {
		t.Fatal(err)
	}

	other := New(engine.NewEngine(1), Config{Layers: []int{6}, Seed: 7, Store: weights.NewFileStore(dir)})
	lines := run(t, other, "newgame 2\nsave\n")
	if _, ok := find(lines, "info string error:"); !ok {
		t.Errorf("damaged weights loaded without error: %v", lines)
	}
	if _, ok := find(lines, "info string saved weights for size 2"); ok {
		t.Errorf("damaged weights were overwritten: %v", lines)
	}
	data, err := os.ReadFile(last)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "0.1 abc\n" {
		t.Errorf("layer file rewritten: %q", data)
	}
}
