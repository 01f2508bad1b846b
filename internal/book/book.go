package book

import (
	"encoding/binary"
	"io"
	"math/rand"
	"os"
	"sort"

	"github.com/hailam/shallowblue/internal/board"
	"github.com/pkg/errors"
)

// EntrySize is the size of one book record on disk.
const EntrySize = 16

// BookEntry represents a single book entry.
type BookEntry struct {
	Edge   int
	Weight uint16
	Learn  uint32
}

// Book represents an opening book.
type Book struct {
	entries map[uint64][]BookEntry
}

// New creates an empty book.
func New() *Book {
	return &Book{
		entries: make(map[uint64][]BookEntry),
	}
}

// Key returns the book key of a position. The board size is mixed in so one
// book can hold several sizes.
func Key(b *board.Board) uint64 {
	return b.Hash ^ uint64(b.Size())*0x9E3779B97F4A7C15
}

// Load loads a book from a file.
func Load(filename string) (*Book, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return LoadReader(file)
}

// LoadReader loads a book from a reader.
func LoadReader(r io.Reader) (*Book, error) {
	book := New()

	// Entry format, big-endian:
	// 8 bytes: position key
	// 2 bytes: edge
	// 2 bytes: weight
	// 4 bytes: learn data
	var entry [EntrySize]byte

	for {
		_, err := io.ReadFull(r, entry[:])
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "reading book entry")
		}

		key := binary.BigEndian.Uint64(entry[0:8])
		book.entries[key] = append(book.entries[key], BookEntry{
			Edge:   int(binary.BigEndian.Uint16(entry[8:10])),
			Weight: binary.BigEndian.Uint16(entry[10:12]),
			Learn:  binary.BigEndian.Uint32(entry[12:16]),
		})
	}

	return book, nil
}

// Save writes the book in key order.
func (b *Book) Save(w io.Writer) error {
	keys := make([]uint64, 0, len(b.entries))
	for k := range b.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	var entry [EntrySize]byte
	for _, k := range keys {
		for _, e := range b.entries[k] {
			binary.BigEndian.PutUint64(entry[0:8], k)
			binary.BigEndian.PutUint16(entry[8:10], uint16(e.Edge))
			binary.BigEndian.PutUint16(entry[10:12], e.Weight)
			binary.BigEndian.PutUint32(entry[12:16], e.Learn)
			if _, err := w.Write(entry[:]); err != nil {
				return errors.Wrap(err, "writing book entry")
			}
		}
	}
	return nil
}

// SaveFile writes the book to filename.
func (b *Book) SaveFile(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := b.Save(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// Add adds weight to edge in the position. Repeated adds accumulate,
// saturating at the uint16 limit.
func (b *Book) Add(pos *board.Board, edge int, weight uint16) {
	key := Key(pos)
	entries := b.entries[key]
	for i := range entries {
		if entries[i].Edge == edge {
			w := uint32(entries[i].Weight) + uint32(weight)
			if w > 0xFFFF {
				w = 0xFFFF
			}
			entries[i].Weight = uint16(w)
			return
		}
	}
	b.entries[key] = append(entries, BookEntry{Edge: edge, Weight: weight})
}

// Probe looks up a position in the book and returns an edge using weighted random selection.
func (b *Book) Probe(pos *board.Board) (int, bool) {
	entries := b.ProbeAll(pos)
	if len(entries) == 0 {
		return -1, false
	}

	// Weighted random selection
	totalWeight := uint32(0)
	for _, e := range entries {
		totalWeight += uint32(e.Weight)
	}

	if totalWeight == 0 {
		// All weights are 0, just pick the first
		return entries[0].Edge, true
	}

	r := rand.Uint32() % totalWeight
	cumulative := uint32(0)
	for _, e := range entries {
		cumulative += uint32(e.Weight)
		if r < cumulative {
			return e.Edge, true
		}
	}

	// Fallback to first entry
	return entries[0].Edge, true
}

// ProbeAll returns the legal book moves for the position, sorted by weight.
func (b *Book) ProbeAll(pos *board.Board) []BookEntry {
	if b == nil {
		return nil
	}

	entries, ok := b.entries[Key(pos)]
	if !ok {
		return nil
	}

	// A key collision can point at a drawn edge
	result := make([]BookEntry, 0, len(entries))
	for _, e := range entries {
		if pos.IsLegal(e.Edge) {
			result = append(result, e)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Weight > result[j].Weight
	})

	return result
}

// Size returns the number of unique positions in the book.
func (b *Book) Size() int {
	if b == nil {
		return 0
	}
	return len(b.entries)
}
