// Package board implements the dots-and-boxes game state.
package board

import (
	"strings"

	"github.com/pkg/errors"
)

// MaxSize is the largest supported board (boxes per side).
const MaxSize = 8

// MaxEdges is the number of edges on a MaxSize board.
const MaxEdges = 2 * (MaxSize*MaxSize + MaxSize)

var (
	ErrIllegalMove  = errors.New("illegal move")
	ErrNoLegalMoves = errors.New("no legal moves")
	ErrBadSize      = errors.New("unsupported board size")
)

// Side identifies a player.
type Side int

const (
	First Side = iota
	Second
)

// Other returns the opponent.
func (s Side) Other() Side {
	return s ^ 1
}

func (s Side) String() string {
	if s == First {
		return "first"
	}
	return "second"
}

// NoOwner marks an unclaimed box.
const NoOwner int8 = -1

// geometry holds the edge/box adjacency for one board size.
type geometry struct {
	size     int
	boxEdges [][4]int // top, bottom, left, right
	edgeBox  [][]int  // boxes touching each edge (1 or 2)
}

var geometries [MaxSize + 1]*geometry

func init() {
	for n := 1; n <= MaxSize; n++ {
		geometries[n] = newGeometry(n)
	}
}

func newGeometry(n int) *geometry {
	g := &geometry{
		size:     n,
		boxEdges: make([][4]int, n*n),
		edgeBox:  make([][]int, NumEdges(n)),
	}
	stride := 2*n + 1
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			box := i*n + j
			left := i*stride + n + j
			g.boxEdges[box] = [4]int{i*stride + j, (i+1)*stride + j, left, left + 1}
			for _, e := range g.boxEdges[box] {
				g.edgeBox[e] = append(g.edgeBox[e], box)
			}
		}
	}
	return g
}

// NumEdges returns the number of edges on a board with size×size boxes.
func NumEdges(size int) int {
	return 2 * (size*size + size)
}

// Board is a dots-and-boxes position.
type Board struct {
	geo   *geometry
	edges []bool
	owner []int8

	// Game state
	SideToMove Side
	Scores     [2]int
	made       int

	// Zobrist hash over drawn edges and side to move
	Hash uint64
}

// Undo holds what UnmakeMove needs to restore a position.
type Undo struct {
	Edge     int
	Boxes    [2]int // completed boxes, -1 if none
	PrevSide Side
	PrevHash uint64
}

// NewBoard creates an empty board with size×size boxes.
func NewBoard(size int) (*Board, error) {
	if size < 1 || size > MaxSize {
		return nil, errors.Wrapf(ErrBadSize, "size %d", size)
	}
	geo := geometries[size]
	b := &Board{
		geo:   geo,
		edges: make([]bool, NumEdges(size)),
		owner: make([]int8, size*size),
	}
	for i := range b.owner {
		b.owner[i] = NoOwner
	}
	return b, nil
}

// Copy creates a deep copy of the board.
func (b *Board) Copy() *Board {
	nb := *b
	nb.edges = append([]bool(nil), b.edges...)
	nb.owner = append([]int8(nil), b.owner...)
	return &nb
}

// Size returns the number of boxes per side.
func (b *Board) Size() int {
	return b.geo.size
}

// NumEdges returns the number of edges on this board.
func (b *Board) NumEdges() int {
	return len(b.edges)
}

// HasEdge reports whether edge e is drawn.
func (b *Board) HasEdge(e int) bool {
	return b.edges[e]
}

// Owner returns the side owning box, or NoOwner.
func (b *Board) Owner(box int) int8 {
	return b.owner[box]
}

// BoxEdges returns the four edges of a box: top, bottom, left, right.
func (b *Board) BoxEdges(box int) [4]int {
	return b.geo.boxEdges[box]
}

// Sides returns how many edges of box are drawn.
func (b *Board) Sides(box int) int {
	n := 0
	for _, e := range b.geo.boxEdges[box] {
		if b.edges[e] {
			n++
		}
	}
	return n
}

// MadeMoves returns the number of drawn edges.
func (b *Board) MadeMoves() int {
	return b.made
}

// Score returns the number of boxes owned by side.
func (b *Board) Score(s Side) int {
	return b.Scores[s]
}

// GameOver returns true when every edge is drawn.
func (b *Board) GameOver() bool {
	return b.made == len(b.edges)
}

// CleanState returns the board as a 0/1 vector, one entry per edge.
func (b *Board) CleanState() []float64 {
	state := make([]float64, len(b.edges))
	for e, drawn := range b.edges {
		if drawn {
			state[e] = 1
		}
	}
	return state
}

// IsLegal reports whether edge e can be drawn.
func (b *Board) IsLegal(e int) bool {
	return e >= 0 && e < len(b.edges) && !b.edges[e]
}

// LegalEdges returns every undrawn edge in index order.
func (b *Board) LegalEdges() []int {
	moves := make([]int, 0, len(b.edges)-b.made)
	for e, drawn := range b.edges {
		if !drawn {
			moves = append(moves, e)
		}
	}
	return moves
}

// Completes returns how many boxes drawing e would complete.
func (b *Board) Completes(e int) int {
	n := 0
	for _, box := range b.geo.edgeBox[e] {
		if b.Sides(box) == 3 {
			n++
		}
	}
	return n
}

// Gives returns how many boxes drawing e would leave on three sides
// for the next player.
func (b *Board) Gives(e int) int {
	n := 0
	for _, box := range b.geo.edgeBox[e] {
		if b.Sides(box) == 2 {
			n++
		}
	}
	return n
}

// IsSafe reports whether drawing e neither completes nor offers a box.
func (b *Board) IsSafe(e int) bool {
	return b.IsLegal(e) && b.Completes(e) == 0 && b.Gives(e) == 0
}

// SafeEdges returns the legal edges that give nothing away.
func (b *Board) SafeEdges() []int {
	var moves []int
	for e := range b.edges {
		if b.IsSafe(e) {
			moves = append(moves, e)
		}
	}
	return moves
}

// CapturingEdges returns the legal edges that complete at least one box.
func (b *Board) CapturingEdges() []int {
	var moves []int
	for e, drawn := range b.edges {
		if !drawn && b.Completes(e) > 0 {
			moves = append(moves, e)
		}
	}
	return moves
}

// MakeMove draws edge e for the side to move. Completing a box keeps the turn.
func (b *Board) MakeMove(e int) (Undo, error) {
	if !b.IsLegal(e) {
		return Undo{}, errors.Wrapf(ErrIllegalMove, "edge %d", e)
	}
	undo := Undo{Edge: e, Boxes: [2]int{-1, -1}, PrevSide: b.SideToMove, PrevHash: b.Hash}

	b.edges[e] = true
	b.made++
	b.Hash ^= zobristEdge[e]

	completed := 0
	for _, box := range b.geo.edgeBox[e] {
		if b.Sides(box) == 4 {
			b.owner[box] = int8(b.SideToMove)
			b.Scores[b.SideToMove]++
			undo.Boxes[completed] = box
			completed++
		}
	}
	if completed == 0 {
		b.SideToMove = b.SideToMove.Other()
		b.Hash ^= zobristSideToMove
	}
	return undo, nil
}

// UnmakeMove reverts a move made with MakeMove.
func (b *Board) UnmakeMove(undo Undo) {
	for _, box := range undo.Boxes {
		if box >= 0 {
			b.Scores[b.owner[box]]--
			b.owner[box] = NoOwner
		}
	}
	b.edges[undo.Edge] = false
	b.made--
	b.SideToMove = undo.PrevSide
	b.Hash = undo.PrevHash
}

// String renders the board as ASCII art.
func (b *Board) String() string {
	n := b.geo.size
	stride := 2*n + 1
	var sb strings.Builder
	for r := 0; r <= 2*n; r++ {
		if r%2 == 0 {
			for c := 0; c < n; c++ {
				sb.WriteByte('+')
				if b.edges[(r/2)*stride+c] {
					sb.WriteString("---")
				} else {
					sb.WriteString("   ")
				}
			}
			sb.WriteString("+\n")
			continue
		}
		row := r / 2
		for c := 0; c <= n; c++ {
			if b.edges[row*stride+n+c] {
				sb.WriteByte('|')
			} else {
				sb.WriteByte(' ')
			}
			if c == n {
				break
			}
			switch b.owner[row*n+c] {
			case int8(First):
				sb.WriteString(" A ")
			case int8(Second):
				sb.WriteString(" B ")
			default:
				sb.WriteString("   ")
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
