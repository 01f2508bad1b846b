package board

import (
	"errors"
	"testing"
)

func TestGeometry(t *testing.T) {
	for size := 1; size <= MaxSize; size++ {
		b, err := NewBoard(size)
		if err != nil {
			t.Fatalf("NewBoard(%d): %v", size, err)
		}
		if b.NumEdges() != 2*(size*size+size) {
			t.Errorf("size %d: got %d edges", size, b.NumEdges())
		}
		// Every edge borders one or two boxes.
		counts := make([]int, b.NumEdges())
		for box := 0; box < size*size; box++ {
			for _, e := range b.BoxEdges(box) {
				counts[e]++
			}
		}
		for e, c := range counts {
			if c < 1 || c > 2 {
				t.Errorf("size %d: edge %d touches %d boxes", size, e, c)
			}
		}
	}

	if _, err := NewBoard(0); !errors.Is(err, ErrBadSize) {
		t.Errorf("expected ErrBadSize, got %v", err)
	}
}

func TestMakeUnmake(t *testing.T) {
	b, _ := NewBoard(2)
	startHash := b.Hash

	// Box 0 of a 2x2 board: top 0, bottom 5, left 2, right 3.
	edges := b.BoxEdges(0)
	if edges != [4]int{0, 5, 2, 3} {
		t.Fatalf("unexpected box edges %v", edges)
	}

	var undos []Undo
	for i, e := range edges[:3] {
		u, err := b.MakeMove(e)
		if err != nil {
			t.Fatalf("MakeMove(%d): %v", e, err)
		}
		undos = append(undos, u)
		if b.SideToMove != Side((i+1)%2) {
			t.Errorf("after %d moves side is %v", i+1, b.SideToMove)
		}
	}

	if b.Completes(edges[3]) != 1 {
		t.Fatalf("closing edge should complete one box")
	}
	mover := b.SideToMove
	u, err := b.MakeMove(edges[3])
	if err != nil {
		t.Fatal(err)
	}
	undos = append(undos, u)
	if b.SideToMove != mover {
		t.Error("completing a box should keep the turn")
	}
	if b.Score(mover) != 1 || b.Owner(0) != int8(mover) {
		t.Errorf("box not credited: score=%d owner=%d", b.Score(mover), b.Owner(0))
	}
	if b.Hash != b.ComputeHash() {
		t.Error("incremental hash differs from recomputed hash")
	}

	if _, err := b.MakeMove(edges[0]); !errors.Is(err, ErrIllegalMove) {
		t.Errorf("expected ErrIllegalMove, got %v", err)
	}

	for i := len(undos) - 1; i >= 0; i-- {
		b.UnmakeMove(undos[i])
	}
	if b.Hash != startHash || b.MadeMoves() != 0 || b.Score(First)+b.Score(Second) != 0 {
		t.Error("unmake did not restore the empty board")
	}
	if b.Owner(0) != NoOwner {
		t.Error("box owner not cleared")
	}
}

func TestCleanStateAndMadeMoves(t *testing.T) {
	b, _ := NewBoard(3)
	for _, e := range []int{0, 7, 23} {
		if _, err := b.MakeMove(e); err != nil {
			t.Fatal(err)
		}
	}
	state := b.CleanState()
	if len(state) != 24 {
		t.Fatalf("state length %d, want 24", len(state))
	}
	sum := 0.0
	for _, v := range state {
		sum += v
	}
	if int(sum) != b.MadeMoves() || b.MadeMoves() != 3 {
		t.Errorf("made moves %d, state sum %v", b.MadeMoves(), sum)
	}
	if len(b.LegalEdges()) != 21 {
		t.Errorf("legal edges %d, want 21", len(b.LegalEdges()))
	}
}

func TestSafeEdges(t *testing.T) {
	b, _ := NewBoard(1)
	if len(b.SafeEdges()) != 4 {
		t.Fatalf("empty 1x1 board should have 4 safe edges")
	}
	b.MakeMove(0)
	if len(b.SafeEdges()) != 3 {
		t.Errorf("one side drawn: want 3 safe edges, got %d", len(b.SafeEdges()))
	}
	b.MakeMove(1)
	if len(b.SafeEdges()) != 0 {
		t.Errorf("two sides drawn: every move offers the box")
	}
	b.MakeMove(2)
	if got := b.CapturingEdges(); len(got) != 1 || got[0] != 3 {
		t.Errorf("capturing edges %v, want [3]", got)
	}
}

func TestStateString(t *testing.T) {
	b, _ := NewBoard(2)
	b.MakeMove(1)
	b.MakeMove(4)
	s := b.StateString()
	if s != "010010000000" {
		t.Fatalf("state string %q", s)
	}
	nb, err := ParseState(2, s)
	if err != nil {
		t.Fatal(err)
	}
	if nb.StateString() != s || nb.Hash != nb.ComputeHash() {
		t.Error("parsed state does not round trip")
	}
	if _, err := ParseState(2, "01"); err == nil {
		t.Error("expected length error")
	}
}
