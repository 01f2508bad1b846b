package board

// Zobrist hash keys for board hashing.
// Uses PRNG with fixed seed for reproducibility.
var (
	zobristEdge       [MaxEdges]uint64
	zobristSideToMove uint64
)

func init() {
	initZobrist()
}

type prng struct {
	state uint64
}

func newPRNG(seed uint64) *prng {
	return &prng{state: seed}
}

// xorshift64* algorithm
func (p *prng) next() uint64 {
	p.state ^= p.state >> 12
	p.state ^= p.state << 25
	p.state ^= p.state >> 27
	return p.state * 0x2545F4914F6CDD1D
}

func initZobrist() {
	rng := newPRNG(0x98F107A2BEEF1234)
	for e := range zobristEdge {
		zobristEdge[e] = rng.next()
	}
	zobristSideToMove = rng.next()
}

// ZobristEdge returns the Zobrist key for a drawn edge.
func ZobristEdge(e int) uint64 {
	return zobristEdge[e]
}

// ComputeHash recomputes the hash from scratch.
func (b *Board) ComputeHash() uint64 {
	var h uint64
	for e, drawn := range b.edges {
		if drawn {
			h ^= zobristEdge[e]
		}
	}
	if b.SideToMove == Second {
		h ^= zobristSideToMove
	}
	return h
}
