// Package protocol implements the line-based text protocol used to drive the
// player from another program.
package protocol

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hailam/shallowblue/internal/board"
	"github.com/hailam/shallowblue/internal/engine"
	"github.com/hailam/shallowblue/internal/nnet"
	"github.com/hailam/shallowblue/internal/policy"
	"github.com/hailam/shallowblue/internal/weights"
	"github.com/pkg/errors"
)

// Config holds what the protocol needs to build a player for a board size.
type Config struct {
	Layers []int // the per-edge output layer is appended when missing
	Seed   uint64
	Gamma  float64

	// Store holds the weights. Mirror, when set, receives a copy on save.
	Store  weights.Store
	Mirror weights.Store

	// Recorder, when set, stores helper moves as training examples.
	Recorder policy.Recorder
}

// Protocol implements the text protocol.
type Protocol struct {
	cfg    Config
	engine *engine.Engine

	size   int
	board  *board.Board
	player *policy.Player

	out io.Writer
}

// New creates a protocol handler around eng.
func New(eng *engine.Engine, cfg Config) *Protocol {
	if cfg.Gamma == 0 {
		cfg.Gamma = nnet.DefaultGamma
	}
	return &Protocol{
		cfg:    cfg,
		engine: eng,
	}
}

// Run reads commands from in until "quit" or EOF, writing replies to out.
func (p *Protocol) Run(in io.Reader, out io.Writer) error {
	p.out = out
	scanner := bufio.NewScanner(in)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]
		args := parts[1:]

		var err error
		switch cmd {
		case "isready":
			fmt.Fprintln(out, "readyok")
		case "newgame":
			err = p.handleNewGame(args)
		case "state":
			err = p.handleState(args)
		case "move":
			err = p.handleMove(args)
		case "go":
			err = p.handleGo()
		case "show", "d":
			err = p.handleShow()
		case "train":
			err = p.handleTrain(args)
		case "save":
			err = p.handleSave()
		case "reload":
			err = p.handleReload()
		case "quit":
			return nil
		default:
			err = errors.Errorf("unknown command %q", cmd)
		}
		if err != nil {
			fmt.Fprintf(out, "info string error: %v\n", err)
		}
	}
	return scanner.Err()
}

// handleNewGame starts a game, rebuilding the player when the size changes.
func (p *Protocol) handleNewGame(args []string) error {
	size := p.size
	if size == 0 {
		size = 3
	}
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return errors.Wrapf(board.ErrBadSize, "%q", args[0])
		}
		size = n
	}
	b, err := board.NewBoard(size)
	if err != nil {
		return err
	}

	if p.player == nil || size != p.size {
		net, loaded, err := policy.NewNetwork(p.cfg.Store, size, p.cfg.Layers, p.cfg.Seed)
		if err != nil {
			return err
		}
		if !loaded {
			fmt.Fprintf(p.out, "info string no stored weights for size %d, using fresh network\n", size)
		}
		p.player = policy.NewPlayer(net, p.engine)
		if p.cfg.Recorder != nil {
			p.player.SetRecorder(p.cfg.Recorder, policy.SizeTag(size))
		}
		p.engine.Clear()
	}

	p.size = size
	p.board = b
	p.player.NewGame()
	return nil
}

func (p *Protocol) ensureGame() error {
	if p.board == nil {
		return p.handleNewGame(nil)
	}
	return nil
}

// handleState replaces the board with "state <bits>".
func (p *Protocol) handleState(args []string) error {
	if err := p.ensureGame(); err != nil {
		return err
	}
	if len(args) != 1 {
		return errors.New("usage: state <bits>")
	}
	b, err := board.ParseState(p.size, args[0])
	if err != nil {
		return err
	}
	p.board = b
	return nil
}

// handleMove applies "move <r,c>".
func (p *Protocol) handleMove(args []string) error {
	if err := p.ensureGame(); err != nil {
		return err
	}
	if len(args) != 1 {
		return errors.New("usage: move <r,c>")
	}
	edge, err := p.parseEdge(args[0])
	if err != nil {
		return err
	}
	_, err = p.board.MakeMove(edge)
	return err
}

func (p *Protocol) parseEdge(s string) (int, error) {
	c, err := board.ParseCommand(s)
	if err != nil {
		return -1, err
	}
	return board.EdgeOf(p.size, c)
}

// handleGo asks the player for a move. The move is not applied.
func (p *Protocol) handleGo() error {
	if err := p.ensureGame(); err != nil {
		return err
	}
	p.engine.OnInfo = func(info engine.SearchInfo) {
		p.sendInfo(info)
	}
	defer func() { p.engine.OnInfo = nil }()

	cmd, err := p.player.GetMove(p.board)
	if errors.Is(err, board.ErrNoLegalMoves) {
		fmt.Fprintln(p.out, "bestmove none")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(p.out, "bestmove %s\n", cmd)
	fmt.Fprintf(p.out, "phase %s\n", p.player.Phase())
	return nil
}

// sendInfo outputs search information.
func (p *Protocol) sendInfo(info engine.SearchInfo) {
	edge := board.NoCommand
	if info.Edge >= 0 {
		edge = board.Commands(p.size)[info.Edge]
	}
	fmt.Fprintf(p.out, "info depth %d score %d nodes %d time %d hashfull %d pv %s\n",
		info.Depth, info.Score, info.Nodes, info.Time.Milliseconds(), info.HashFull, edge)
}

func (p *Protocol) handleShow() error {
	if err := p.ensureGame(); err != nil {
		return err
	}
	fmt.Fprint(p.out, p.board.String())
	fmt.Fprintf(p.out, "state %s\n", p.board.StateString())
	fmt.Fprintf(p.out, "score %d %d tomove %s made %d\n",
		p.board.Score(board.First), p.board.Score(board.Second), p.board.SideToMove, p.board.MadeMoves())
	return nil
}

// handleTrain runs "train <rule> <alpha> <r,c>" on the current state with a
// one-hot target on the given edge.
func (p *Protocol) handleTrain(args []string) error {
	if err := p.ensureGame(); err != nil {
		return err
	}
	if len(args) != 3 {
		return errors.New("usage: train <rule> <alpha> <r,c>")
	}
	rule, err := nnet.ParseRule(args[0])
	if err != nil {
		return err
	}
	alpha, err := strconv.ParseFloat(args[1], 64)
	if err != nil || alpha <= 0 {
		return errors.Errorf("bad learning rate %q", args[1])
	}
	edge, err := p.parseEdge(args[2])
	if err != nil {
		return err
	}

	target := make([]float64, p.board.NumEdges())
	target[edge] = 1
	ex := nnet.Example{Input: p.board.CleanState(), Target: target}
	if err := p.player.Train(rule, alpha, p.cfg.Gamma, ex); err != nil {
		return err
	}
	fmt.Fprintf(p.out, "info string trained %s alpha %g on %s\n", rule, alpha, args[2])
	return nil
}

func (p *Protocol) handleSave() error {
	if err := p.ensureGame(); err != nil {
		return err
	}
	if p.cfg.Store == nil {
		return errors.Wrap(weights.ErrStorageUnavailable, "no weight store configured")
	}
	tag := policy.SizeTag(p.size)
	if err := p.player.UpdateWeights(p.cfg.Store, tag, p.player.Weights()); err != nil {
		return err
	}
	if p.cfg.Mirror != nil {
		if err := p.player.Save(p.cfg.Mirror, tag); err != nil {
			return errors.Wrap(err, "mirroring weights")
		}
	}
	fmt.Fprintf(p.out, "info string saved weights for size %d\n", p.size)
	return nil
}

func (p *Protocol) handleReload() error {
	if err := p.ensureGame(); err != nil {
		return err
	}
	if p.cfg.Store == nil {
		return errors.Wrap(weights.ErrStorageUnavailable, "no weight store configured")
	}
	if err := p.player.Reload(p.cfg.Store, policy.SizeTag(p.size)); err != nil {
		return err
	}
	fmt.Fprintf(p.out, "info string reloaded weights for size %d\n", p.size)
	return nil
}
