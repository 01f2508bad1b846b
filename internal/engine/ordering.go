package engine

import (
	"sort"

	"github.com/hailam/shallowblue/internal/board"
)

// Move ordering priorities
const (
	TTMoveScore  = 10000000 // TT move gets highest priority
	CaptureBase  = 1000000  // Base score for box-completing edges
	KillerScore1 = 900000   // First killer move
	KillerScore2 = 800000   // Second killer move
	SafeBase     = 100000   // Edges that give nothing away
	SacrificeMul = 1000     // Penalty per box handed over
)

// MoveOrderer handles move ordering for the search.
type MoveOrderer struct {
	// Killer moves (quiet edges that caused beta cutoffs)
	killers [MaxPly][2]int

	// History heuristic, indexed by edge
	history [board.MaxEdges]int
}

// NewMoveOrderer creates a new move orderer.
func NewMoveOrderer() *MoveOrderer {
	mo := &MoveOrderer{}
	mo.Clear()
	return mo
}

// Clear resets the move orderer for a new game.
func (mo *MoveOrderer) Clear() {
	for i := range mo.killers {
		mo.killers[i] = [2]int{-1, -1}
	}

	// Age history scores (divide by 2 to prevent overflow)
	for i := range mo.history {
		mo.history[i] /= 2
	}
}

type scoredEdge struct {
	edge  int
	score int
}

// Order returns the legal edges of pos, best first: the TT edge, captures,
// killers, safe edges, then sacrifices by how many boxes they hand over.
func (mo *MoveOrderer) Order(pos *board.Board, ply int, ttEdge int) []int {
	legal := pos.LegalEdges()
	scored := make([]scoredEdge, len(legal))
	for i, e := range legal {
		scored[i] = scoredEdge{e, mo.scoreEdge(pos, e, ply, ttEdge)}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
	for i, s := range scored {
		legal[i] = s.edge
	}
	return legal
}

func (mo *MoveOrderer) scoreEdge(pos *board.Board, e, ply, ttEdge int) int {
	if e == ttEdge {
		return TTMoveScore
	}
	if c := pos.Completes(e); c > 0 {
		return CaptureBase + c*1000
	}
	if e == mo.killers[ply][0] {
		return KillerScore1
	}
	if e == mo.killers[ply][1] {
		return KillerScore2
	}
	if pos.Gives(e) == 0 {
		return SafeBase + mo.history[e]
	}
	return -SacrificeMul*giveaway(pos, e) + mo.history[e]/64
}

// UpdateKillers records a quiet edge that caused a cutoff at ply.
func (mo *MoveOrderer) UpdateKillers(e, ply int) {
	if mo.killers[ply][0] != e {
		mo.killers[ply][1] = mo.killers[ply][0]
		mo.killers[ply][0] = e
	}
}

// UpdateHistory rewards an edge that caused a cutoff.
func (mo *MoveOrderer) UpdateHistory(e, depth int) {
	mo.history[e] += depth * depth
	if mo.history[e] > SafeBase/2 {
		for i := range mo.history {
			mo.history[i] /= 2
		}
	}
}

// giveaway returns how many boxes the opponent can take in a row after the
// quiet edge e is drawn. e must be legal and complete no box.
func giveaway(pos *board.Board, e int) int {
	undos := make([]board.Undo, 0, 8)
	undo, err := pos.MakeMove(e)
	if err != nil {
		return 0
	}
	undos = append(undos, undo)

	taken := 0
	for {
		caps := pos.CapturingEdges()
		if len(caps) == 0 {
			break
		}
		taken += pos.Completes(caps[0])
		u, _ := pos.MakeMove(caps[0])
		undos = append(undos, u)
	}

	for i := len(undos) - 1; i >= 0; i-- {
		pos.UnmakeMove(undos[i])
	}
	return taken
}
