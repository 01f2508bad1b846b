// Package engine is the alpha-beta search player consulted by the move policy
// in the opening and in the chain-giving endgame.
package engine

import (
	"time"

	"github.com/hailam/shallowblue/internal/board"
	"github.com/hailam/shallowblue/internal/book"
	"github.com/pkg/errors"
)

// SearchInfo contains information about the current search.
type SearchInfo struct {
	Depth    int
	Score    int // future box difference for the side to move
	Nodes    uint64
	Time     time.Duration
	Edge     int
	HashFull int // Permille of hash table used
}

// SearchLimits specifies constraints on the search.
type SearchLimits struct {
	Depth    int           // Maximum depth in turn changes (0 = to the end)
	Nodes    uint64        // Maximum nodes (0 = no limit)
	MoveTime time.Duration // Time for this move (0 = no limit)
}

// Tier selects how hard the engine searches.
type Tier int

const (
	TierShallow Tier = 1 // quick tactical look
	TierOpening Tier = 2 // book, then shallow search
	TierEnding  Tier = 3 // deepest search, for chain sequencing
)

func (t Tier) String() string {
	switch t {
	case TierShallow:
		return "shallow"
	case TierOpening:
		return "opening"
	case TierEnding:
		return "ending"
	}
	return "unknown"
}

// TierLimits maps each tier to search limits.
var TierLimits = map[Tier]SearchLimits{
	TierShallow: {Depth: 2, MoveTime: 200 * time.Millisecond},
	TierOpening: {Depth: 4, MoveTime: 500 * time.Millisecond},
	TierEnding:  {Nodes: 4_000_000, MoveTime: 5 * time.Second},
}

// Engine is the helper search player. It also tracks whether the current game
// has reached the ending sequence, where every remaining move hands boxes over.
type Engine struct {
	searcher *Searcher
	tt       *TranspositionTable
	book     *book.Book

	ending      bool
	endingScore int

	// Callbacks
	OnInfo func(SearchInfo)
}

// NewEngine creates a new engine with the given transposition table size in MB.
func NewEngine(ttSizeMB int) *Engine {
	tt := NewTranspositionTable(ttSizeMB)
	return &Engine{
		searcher: NewSearcher(tt),
		tt:       tt,
	}
}

// SetBook sets the opening book consulted at TierOpening. nil disables it.
func (e *Engine) SetBook(b *book.Book) {
	e.book = b
}

// GetMove returns the engine's move for b at the given tier.
func (e *Engine) GetMove(b *board.Board, tier Tier) (board.Command, error) {
	if b.GameOver() {
		return board.NoCommand, board.ErrNoLegalMoves
	}
	limits, ok := TierLimits[tier]
	if !ok {
		return board.NoCommand, errors.Errorf("unknown search tier %d", tier)
	}

	edge := -1
	if tier == TierOpening && e.book != nil {
		if be, found := e.book.Probe(b); found {
			edge = be
		}
	}
	if edge < 0 {
		edge, _ = e.SearchWithLimits(b, limits)
	}
	return board.Commands(b.Size())[edge], nil
}

// SearchWithLimits finds the best edge and its score. The board is not modified.
func (e *Engine) SearchWithLimits(b *board.Board, limits SearchLimits) (int, int) {
	pos := b.Copy()
	e.searcher.Reset(limits)
	defer e.searcher.ClearStop()
	e.tt.NewSearch()

	startTime := time.Now()
	remaining := pos.NumEdges() - pos.MadeMoves()

	// Any legal edge beats returning nothing if the first iteration is cut short
	bestEdge := pos.LegalEdges()[0]
	bestScore := 0

	maxDepth := remaining
	if limits.Depth > 0 && limits.Depth < maxDepth {
		maxDepth = limits.Depth
	}

	// Iterative deepening
	for depth := 1; depth <= maxDepth; depth++ {
		edge, score := e.searcher.Search(pos, depth)

		// Check if search was stopped
		if e.searcher.IsStopped() {
			break
		}

		if edge >= 0 {
			bestEdge = edge
			bestScore = score
		}

		// Report info
		if e.OnInfo != nil {
			e.OnInfo(SearchInfo{
				Depth:    depth,
				Score:    bestScore,
				Nodes:    e.searcher.Nodes(),
				Time:     time.Since(startTime),
				Edge:     bestEdge,
				HashFull: e.tt.HashFull(),
			})
		}

		// Check time after iteration
		if limits.MoveTime > 0 {
			elapsed := time.Since(startTime)

			// If we've used more than half the time, don't start another iteration
			if limits.MoveTime-elapsed < elapsed {
				break
			}
		}
	}

	return bestEdge, bestScore
}

// CheckEndingChain latches the ending sequence once b has no safe edge left.
// score is recorded at the moment the latch is set. The latch holds until
// NewGame.
func (e *Engine) CheckEndingChain(b *board.Board, score int) {
	if e.ending {
		return
	}
	for _, edge := range b.LegalEdges() {
		if b.IsSafe(edge) {
			return
		}
	}
	e.ending = true
	e.endingScore = score
}

// EndingSequence reports whether the ending sequence has been reached.
func (e *Engine) EndingSequence() bool {
	return e.ending
}

// EndingScore returns the score passed to CheckEndingChain when the latch was set.
func (e *Engine) EndingScore() int {
	return e.endingScore
}

// NewGame resets per-game state.
func (e *Engine) NewGame() {
	e.ending = false
	e.endingScore = 0
	e.searcher.ClearOrderer()
}

// Stop stops the current search. When no search is running yet, the next one
// returns at once; the request is consumed when that search returns.
func (e *Engine) Stop() {
	e.searcher.Stop()
}

// ClearStop withdraws a Stop that no search has consumed.
func (e *Engine) ClearStop() {
	e.searcher.ClearStop()
}

// Clear clears the transposition table and other caches.
func (e *Engine) Clear() {
	e.tt.Clear()
	e.searcher.ClearOrderer()
}
