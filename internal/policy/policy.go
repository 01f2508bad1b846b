// Package policy decides, move by move, whether the network or the search
// helper plays.
package policy

import (
	"log"
	"sync"

	"github.com/hailam/shallowblue/internal/board"
	"github.com/hailam/shallowblue/internal/engine"
	"github.com/hailam/shallowblue/internal/nnet"
	"github.com/hailam/shallowblue/internal/weights"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// OpeningMoves is the number of drawn edges below which the helper plays.
const OpeningMoves = 12

// Phase is the game phase the player is in.
type Phase int

const (
	Opening Phase = iota
	Midgame
	Endgame
)

func (p Phase) String() string {
	switch p {
	case Opening:
		return "opening"
	case Midgame:
		return "midgame"
	case Endgame:
		return "endgame"
	}
	return "unknown"
}

// Helper is the search player consulted in the opening and the endgame.
type Helper interface {
	GetMove(b *board.Board, tier engine.Tier) (board.Command, error)
	// CheckEndingChain may latch the ending sequence. It never unlatches.
	CheckEndingChain(b *board.Board, score int)
	EndingSequence() bool
	NewGame()
}

// MoveSource produces a move for a board.
type MoveSource interface {
	GetMove(b *board.Board) (board.Command, error)
}

// Recorder stores helper moves as training examples.
type Recorder interface {
	Record(tag string, ex nnet.Example, output []float64) error
}

// NetworkSource plays the network's highest-ranked legal edge.
type NetworkSource struct {
	Net *nnet.Network
}

// Rank returns the legal moves ranked by the network, plus its raw output.
// The output is returned even when no move is legal.
func (s NetworkSource) Rank(b *board.Board) ([]board.Command, []float64, error) {
	clean := b.CleanState()
	out, err := s.Net.Predict(clean)
	if err != nil {
		return nil, nil, err
	}
	legal := board.OnlyLegal(board.OrderMoves(out), clean)
	if len(legal) == 0 {
		return nil, out, board.ErrNoLegalMoves
	}
	return board.FormatMoves(legal, board.Commands(b.Size())), out, nil
}

func (s NetworkSource) GetMove(b *board.Board) (board.Command, error) {
	cmds, _, err := s.Rank(b)
	if err != nil {
		return board.NoCommand, err
	}
	return cmds[0], nil
}

// SearchSource asks the helper at a fixed tier.
type SearchSource struct {
	Helper Helper
	Tier   engine.Tier
}

func (s SearchSource) GetMove(b *board.Board) (board.Command, error) {
	return s.Helper.GetMove(b, s.Tier)
}

// Player blends the network and the helper by game phase. It owns its network
// and serialises every use of it.
type Player struct {
	mu sync.Mutex

	net    *nnet.Network
	helper Helper

	recorder Recorder
	tag      string

	phase      Phase
	lastOutput []float64
}

// NewPlayer creates a player around net and helper.
func NewPlayer(net *nnet.Network, helper Helper) *Player {
	return &Player{net: net, helper: helper}
}

// SetRecorder makes the player store every helper move under tag. nil stops
// recording.
func (p *Player) SetRecorder(r Recorder, tag string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.recorder = r
	p.tag = tag
}

// GetMove returns the move for the side to move on b. It returns
// board.ErrNoLegalMoves when the network ranking has no legal move.
func (p *Player) GetMove(b *board.Board) (board.Command, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	made := b.MadeMoves()

	// The prediction is computed in every phase
	cmds, out, err := NetworkSource{p.net}.Rank(b)
	p.lastOutput = out
	if err != nil {
		return board.NoCommand, err
	}

	if !p.helper.EndingSequence() {
		p.helper.CheckEndingChain(b, b.Score(b.SideToMove))
	}

	var src MoveSource
	switch {
	case p.helper.EndingSequence():
		p.phase = Endgame
		src = SearchSource{p.helper, engine.TierEnding}
	case made < OpeningMoves:
		p.phase = Opening
		src = SearchSource{p.helper, engine.TierOpening}
	default:
		p.phase = Midgame
		return cmds[0], nil
	}

	cmd, err := src.GetMove(b)
	if err != nil {
		return board.NoCommand, errors.Wrapf(err, "helper move in %s", p.phase)
	}
	if p.recorder != nil {
		p.record(b, cmd, out)
	}
	return cmd, nil
}

func (p *Player) record(b *board.Board, cmd board.Command, out []float64) {
	edge, err := board.EdgeOf(b.Size(), cmd)
	if err != nil {
		log.Printf("policy: cannot record helper move %s: %v", cmd, err)
		return
	}
	if edge >= len(out) {
		log.Printf("policy: cannot record helper move %s: edge %d outside %d outputs", cmd, edge, len(out))
		return
	}
	target := make([]float64, len(out))
	target[edge] = 1
	ex := nnet.Example{Input: b.CleanState(), Target: target}
	if err := p.recorder.Record(p.tag, ex, out); err != nil {
		log.Printf("policy: recording example: %v", err)
	}
}

// Phase returns the phase of the last GetMove call.
func (p *Player) Phase() Phase {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.phase
}

// LastOutput returns the raw network output from the last GetMove call.
func (p *Player) LastOutput() []float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]float64(nil), p.lastOutput...)
}

// NewGame resets the per-game state, including the helper's ending latch.
func (p *Player) NewGame() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.phase = Opening
	p.lastOutput = nil
	p.helper.NewGame()
}

// Train runs one training step on ex.
func (p *Player) Train(rule nnet.Rule, alpha, gamma float64, ex nnet.Example) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.net.TrainWith(rule, alpha, gamma, ex.Input, ex.Target)
}

// UpdateWeights persists ms and reloads the network from store.
func (p *Player) UpdateWeights(store weights.Store, tag string, ms []*mat.Dense) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return weights.Update(store, tag, p.net, ms)
}

// Save persists the current weights.
func (p *Player) Save(store weights.Store, tag string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return weights.Save(store, tag, p.net)
}

// Reload overwrites the network from store, picking up external edits.
func (p *Player) Reload(store weights.Store, tag string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return weights.Load(store, tag, p.net)
}

// Weights returns a copy of the current weights.
func (p *Player) Weights() []*mat.Dense {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.net.Weights()
}
