package board

import "testing"

func TestCommandsRoundTrip(t *testing.T) {
	for size := 1; size <= 5; size++ {
		cmds := Commands(size)
		if len(cmds) != NumEdges(size) {
			t.Fatalf("size %d: %d commands, want %d", size, len(cmds), NumEdges(size))
		}
		for e, c := range cmds {
			got, err := EdgeOf(size, c)
			if err != nil {
				t.Fatalf("EdgeOf(%s): %v", c, err)
			}
			if got != e {
				t.Errorf("size %d: command %s maps to %d, want %d", size, c, got, e)
			}
			parsed, err := ParseCommand(c.String())
			if err != nil || parsed != c {
				t.Errorf("ParseCommand(%q) = %v, %v", c.String(), parsed, err)
			}
		}
	}
}

func TestParseCommandErrors(t *testing.T) {
	for _, s := range []string{"", "1", "a,b", "1,2,3"} {
		if _, err := ParseCommand(s); err == nil {
			t.Errorf("ParseCommand(%q) should fail", s)
		}
	}
	if _, err := EdgeOf(2, Command{0, 2}); err == nil {
		t.Error("horizontal column out of range should fail")
	}
	if _, err := EdgeOf(2, Command{5, 0}); err == nil {
		t.Error("row out of range should fail")
	}
}

func TestOrderFilterFormat(t *testing.T) {
	out := []float64{0.1, 0.9, 0.5, 0.9}
	ranked := OrderMoves(out)
	want := []int{1, 3, 2, 0}
	for i, r := range ranked {
		if r.Edge != want[i] {
			t.Fatalf("rank %d: edge %d, want %d", i, r.Edge, want[i])
		}
	}

	clean := []float64{0, 1, 0, 0}
	legal := OnlyLegal(ranked, clean)
	if len(legal) != 3 || legal[0].Edge != 3 {
		t.Fatalf("legal moves %v", legal)
	}

	cmds := FormatMoves(legal, Commands(1))
	// 1x1 board: edges 0 (0,0), 1 (1,0), 2 (1,1), 3 (2,0)
	if cmds[0] != (Command{2, 0}) || cmds[1] != (Command{1, 1}) {
		t.Errorf("commands %v", cmds)
	}

	if len(OnlyLegal(ranked, []float64{1, 1, 1, 1})) != 0 {
		t.Error("full board should have no legal moves")
	}
}
