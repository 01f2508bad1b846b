package engine

import (
	"sync/atomic"
	"time"

	"github.com/hailam/shallowblue/internal/board"
)

// Search constants
const (
	Infinity = 30000
	MaxPly   = board.MaxEdges + 1
)

// Searcher performs the alpha-beta search.
//
// Scores are future box differences: boxes the side to move will still take
// minus boxes the opponent will take. They depend only on the drawn edges and
// the side to move, which is what the transposition table keys on.
type Searcher struct {
	tt       *TranspositionTable
	orderer  *MoveOrderer
	pos      *board.Board
	nodes    uint64
	rootEdge int
	salt     uint64 // separates board sizes sharing edge keys

	limits   SearchLimits
	deadline time.Time
	limitHit bool
	stopFlag atomic.Bool // external request, survives Reset
}

// NewSearcher creates a new searcher.
func NewSearcher(tt *TranspositionTable) *Searcher {
	return &Searcher{
		tt:      tt,
		orderer: NewMoveOrderer(),
	}
}

// Stop signals the search to stop. A request made before the search starts
// stops it at its first check; ClearStop withdraws it.
func (s *Searcher) Stop() {
	s.stopFlag.Store(true)
}

// ClearStop withdraws a pending stop request.
func (s *Searcher) ClearStop() {
	s.stopFlag.Store(false)
}

// Reset resets the searcher for a new search under limits. A pending stop
// request is kept.
func (s *Searcher) Reset(limits SearchLimits) {
	s.limitHit = false
	s.nodes = 0
	s.limits = limits
	s.deadline = time.Time{}
	if limits.MoveTime > 0 {
		s.deadline = time.Now().Add(limits.MoveTime)
	}
}

// Nodes returns the number of nodes searched.
func (s *Searcher) Nodes() uint64 {
	return s.nodes
}

// IsStopped returns true if the search has been stopped or ran out of budget.
func (s *Searcher) IsStopped() bool {
	return s.limitHit || s.stopFlag.Load()
}

// ClearOrderer clears the move orderer state.
func (s *Searcher) ClearOrderer() {
	s.orderer.Clear()
}

// Search searches pos to depth and returns the best edge and its score.
// pos is used as scratch space and restored before returning.
func (s *Searcher) Search(pos *board.Board, depth int) (int, int) {
	s.pos = pos
	s.rootEdge = -1
	s.salt = uint64(pos.Size()) * 0x9E3779B97F4A7C15
	score := s.negamax(depth, 0, -Infinity, Infinity)
	return s.rootEdge, score
}

func (s *Searcher) checkLimits() {
	if s.limits.Nodes > 0 && s.nodes >= s.limits.Nodes {
		s.limitHit = true
	}
	if !s.deadline.IsZero() && time.Now().After(s.deadline) {
		s.limitHit = true
	}
}

// negamax searches with depth counted in turn changes. Completing a box keeps
// the turn and costs no depth.
func (s *Searcher) negamax(depth, ply, alpha, beta int) int {
	pos := s.pos
	if pos.GameOver() {
		return 0
	}
	if depth <= 0 {
		return s.quiesce(ply, alpha, beta)
	}

	s.nodes++
	if s.nodes&1023 == 0 {
		s.checkLimits()
	}
	if s.IsStopped() {
		return 0
	}

	alphaOrig := alpha
	key := pos.Hash ^ s.salt
	ttEdge := -1
	if entry, ok := s.tt.Probe(key); ok {
		ttEdge = int(entry.BestEdge)
		if ply > 0 && int(entry.Depth) >= depth {
			score := int(entry.Score)
			switch entry.Flag {
			case TTExact:
				return score
			case TTLowerBound:
				if score >= beta {
					return score
				}
			case TTUpperBound:
				if score <= alpha {
					return score
				}
			}
		}
	}

	best := -Infinity
	bestEdge := -1
	for _, e := range s.orderer.Order(pos, ply, ttEdge) {
		side := pos.SideToMove
		taken := pos.Completes(e)
		undo, _ := pos.MakeMove(e)

		var score int
		if pos.SideToMove == side {
			score = taken + s.negamax(depth, ply+1, alpha-taken, beta-taken)
		} else {
			score = -s.negamax(depth-1, ply+1, -beta, -alpha)
		}
		pos.UnmakeMove(undo)

		if s.IsStopped() {
			return 0
		}

		if score > best {
			best = score
			bestEdge = e
			if ply == 0 {
				s.rootEdge = e
			}
		}
		if score > alpha {
			alpha = score
		}
		if alpha >= beta {
			if taken == 0 {
				s.orderer.UpdateKillers(e, ply)
				s.orderer.UpdateHistory(e, depth)
			}
			break
		}
	}

	flag := TTExact
	switch {
	case best <= alphaOrig:
		flag = TTUpperBound
	case best >= beta:
		flag = TTLowerBound
	}
	s.tt.Store(key, depth, best, flag, bestEdge)

	return best
}

// quiesce resolves pending captures at the horizon. The side to move may also
// decline them and take the static estimate.
func (s *Searcher) quiesce(ply, alpha, beta int) int {
	pos := s.pos
	s.nodes++
	if pos.GameOver() {
		return 0
	}

	standPat := evaluate(pos)
	if standPat >= beta {
		return standPat
	}
	if standPat > alpha {
		alpha = standPat
	}

	for _, e := range pos.CapturingEdges() {
		taken := pos.Completes(e)
		undo, _ := pos.MakeMove(e)
		score := taken + s.quiesce(ply+1, alpha-taken, beta-taken)
		pos.UnmakeMove(undo)

		if score >= beta {
			return score
		}
		if score > alpha {
			alpha = score
		}
	}
	return alpha
}

// evaluate estimates the future box difference of a quiet position. With a
// safe edge available nothing has to be given away yet; otherwise the side to
// move loses at least the cheapest sacrifice.
func evaluate(pos *board.Board) int {
	cheapest := -1
	for _, e := range pos.LegalEdges() {
		if pos.Completes(e) > 0 {
			continue
		}
		if pos.Gives(e) == 0 {
			return 0
		}
		if g := giveaway(pos, e); cheapest < 0 || g < cheapest {
			cheapest = g
		}
	}
	if cheapest < 0 {
		return 0
	}
	return -cheapest
}
