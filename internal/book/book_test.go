package book

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/hailam/shallowblue/internal/board"
)

func TestKey(t *testing.T) {
	pos, _ := board.NewBoard(3)
	key1 := Key(pos)
	if key1 != Key(pos) {
		t.Error("Key not consistent")
	}

	undo, err := pos.MakeMove(4)
	if err != nil {
		t.Fatal(err)
	}
	if Key(pos) == key1 {
		t.Error("Key should change after move")
	}
	pos.UnmakeMove(undo)
	if Key(pos) != key1 {
		t.Errorf("Key not restored after unmake: %x != %x", Key(pos), key1)
	}

	other, _ := board.NewBoard(4)
	if Key(other) == key1 {
		t.Error("empty boards of different sizes share a key")
	}
}

func TestBookLoadAndProbe(t *testing.T) {
	pos, _ := board.NewBoard(3)

	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, Key(pos))
	binary.Write(&buf, binary.BigEndian, uint16(10)) // edge
	binary.Write(&buf, binary.BigEndian, uint16(100))
	binary.Write(&buf, binary.BigEndian, uint32(0))

	book, err := LoadReader(&buf)
	if err != nil {
		t.Fatalf("Failed to load book: %v", err)
	}
	if book.Size() != 1 {
		t.Errorf("Expected book size 1, got %d", book.Size())
	}

	edge, found := book.Probe(pos)
	if !found {
		t.Fatal("Expected to find move in book")
	}
	if edge != 10 {
		t.Errorf("Expected edge 10, got %d", edge)
	}
}

func TestBookMiss(t *testing.T) {
	book := New()
	pos, _ := board.NewBoard(3)

	edge, found := book.Probe(pos)
	if found {
		t.Error("Expected book miss on empty book")
	}
	if edge != -1 {
		t.Errorf("Expected -1 on miss, got %d", edge)
	}
}

func TestBookTruncated(t *testing.T) {
	if _, err := LoadReader(bytes.NewReader(make([]byte, EntrySize+3))); err == nil {
		t.Error("expected error for truncated book")
	}
}

func TestBookAddSaveRoundTrip(t *testing.T) {
	pos, _ := board.NewBoard(3)
	book := New()
	book.Add(pos, 5, 10)
	book.Add(pos, 7, 30)
	book.Add(pos, 5, 0xFFFF) // saturates

	if _, err := pos.MakeMove(5); err != nil {
		t.Fatal(err)
	}
	book.Add(pos, 6, 1)

	var buf bytes.Buffer
	if err := book.Save(&buf); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 3*EntrySize {
		t.Fatalf("expected %d bytes, got %d", 3*EntrySize, buf.Len())
	}

	loaded, err := LoadReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Size() != 2 {
		t.Errorf("expected 2 positions, got %d", loaded.Size())
	}

	// Edge 5 is drawn now, so only edge 6 is legal here
	entries := loaded.ProbeAll(pos)
	if len(entries) != 1 || entries[0].Edge != 6 {
		t.Errorf("after move: %+v", entries)
	}

	root, _ := board.NewBoard(3)
	entries = loaded.ProbeAll(root)
	if len(entries) != 2 || entries[0].Edge != 5 || entries[0].Weight != 0xFFFF {
		t.Errorf("root entries: %+v", entries)
	}
}

func TestProbeSkipsDrawnEdges(t *testing.T) {
	pos, _ := board.NewBoard(2)
	if _, err := pos.MakeMove(0); err != nil {
		t.Fatal(err)
	}
	book := New()
	// A colliding entry that points at a drawn edge
	book.entries[Key(pos)] = []BookEntry{{Edge: 0, Weight: 5}}

	if entries := book.ProbeAll(pos); len(entries) != 0 {
		t.Errorf("expected drawn edge to be filtered, got %+v", entries)
	}
	if _, found := book.Probe(pos); found {
		t.Error("Probe returned a drawn edge")
	}
}
