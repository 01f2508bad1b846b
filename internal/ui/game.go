package ui

import (
	"fmt"
	"log"
	"time"

	"github.com/hailam/shallowblue/internal/board"
	"github.com/hailam/shallowblue/internal/engine"
	"github.com/hailam/shallowblue/internal/nnet"
	"github.com/hailam/shallowblue/internal/policy"
	"github.com/hailam/shallowblue/internal/storage"
	"github.com/hailam/shallowblue/internal/weights"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/pkg/errors"
)

// UI Constants
const (
	ScreenWidth  = 960
	ScreenHeight = 640
	BoardSize    = 640
	PanelWidth   = ScreenWidth - BoardSize
)

// UIScale is the global HiDPI scale factor for all UI drawing.
// Set by Game.Layout() and used by the panel and text helpers.
var UIScale float64 = 1.0

// GameMode represents the current game mode.
type GameMode int

const (
	ModeHumanVsHuman GameMode = iota
	ModeHumanVsComputer
)

// MoveRecord is one drawn line in the history list.
type MoveRecord struct {
	Side    board.Side
	Command board.Command
	Boxes   int    // boxes completed by the line
	Phase   string // computer phase, empty for human lines
}

// aiResult carries a computer move back to the game loop.
type aiResult struct {
	gen   int
	cmd   board.Command
	phase policy.Phase
	err   error
}

// trainResult reports a finished training run.
type trainResult struct {
	examples int
	err      error
}

// Options configures a Game.
type Options struct {
	// DataDir overrides the badger directory. Empty uses the default.
	DataDir string
	// HashMB is the engine's transposition table size.
	HashMB int
	Seed   uint64
}

// Game implements ebiten.Game interface.
type Game struct {
	// Core game state
	board     *board.Board
	history   []MoveRecord
	startTime time.Time
	gen       int // bumped by every new game, stale AI moves are dropped

	// UI state
	hoverEdge int
	lastEdge  int
	message   string

	// Game settings
	mode      GameMode
	gridSize  int
	humanSide board.Side
	username  string
	seed      uint64

	// Storage
	storage *storage.Storage
	prefs   *storage.UserPreferences
	stats   *storage.GameStats
	weights weights.Store

	// Components
	renderer *Renderer
	input    *InputHandler
	panel    *Panel
	audio    *AudioManager

	// Computer player
	engine     *engine.Engine
	player     *policy.Player
	aiThinking bool
	aiMove     chan aiResult
	phase      policy.Phase

	training bool
	trainCh  chan trainResult
	// Stored weights exist but could not be read; training must not
	// overwrite them.
	weightsDamaged bool

	// Game state
	gameOver   bool
	gameResult string

	// HiDPI scaling
	scale float64
}

// NewGame creates a new dots-and-boxes game.
func NewGame(opts Options) *Game {
	if opts.HashMB <= 0 {
		opts.HashMB = 64
	}
	g := &Game{
		hoverEdge: -1,
		lastEdge:  -1,
		mode:      ModeHumanVsComputer,
		gridSize:  3,
		humanSide: board.First,
		username:  "Player",
		seed:      opts.Seed,
		input:     NewInputHandler(),
		audio:     NewAudioManager(),
		engine:    engine.NewEngine(opts.HashMB),
		aiMove:    make(chan aiResult, 1),
		trainCh:   make(chan trainResult, 1),
		scale:     1.0,
	}

	var err error
	if opts.DataDir != "" {
		g.storage, err = storage.Open(opts.DataDir)
	} else {
		g.storage, err = storage.NewStorage()
	}
	if err != nil {
		log.Printf("Warning: Failed to initialize storage: %v", err)
		g.storage = nil
	}
	g.loadPreferences()

	g.renderer = NewRenderer(BoardSize, g.gridSize)
	g.panel = NewPanel(g)
	g.buildPlayer()
	g.NewGameAction()
	return g
}

// loadPreferences applies stored preferences, keeping defaults on failure.
func (g *Game) loadPreferences() {
	g.prefs = storage.DefaultPreferences()
	g.stats = storage.NewGameStats()
	if g.storage == nil {
		return
	}
	g.weights = g.storage.WeightStore()

	prefs, err := g.storage.LoadPreferences()
	if err != nil {
		log.Printf("Warning: Failed to load preferences: %v", err)
	} else {
		g.prefs = prefs
	}
	if stats, err := g.storage.LoadStats(); err == nil {
		g.stats = stats
	}

	if g.prefs.GridSize >= 1 && g.prefs.GridSize <= board.MaxSize {
		g.gridSize = g.prefs.GridSize
	}
	g.mode = GameMode(g.prefs.GameMode)
	g.humanSide = board.First
	if g.prefs.PlayerSide == storage.SideSecond {
		g.humanSide = board.Second
	}
	if g.prefs.Username != "" {
		g.username = g.prefs.Username
	}
	g.audio.SetEnabled(g.prefs.SoundEnabled)

	if first, err := g.storage.IsFirstLaunch(); err == nil && first {
		g.message = "Welcome! Click between two dots to draw a line."
		if err := g.storage.MarkFirstLaunchComplete(); err != nil {
			log.Printf("Warning: Failed to mark first launch complete: %v", err)
		}
	}
}

// savePreferences saves current preferences to storage.
func (g *Game) savePreferences() {
	if g.storage == nil {
		return
	}
	g.prefs.Username = g.username
	g.prefs.GridSize = g.gridSize
	g.prefs.GameMode = storage.GameMode(g.mode)
	g.prefs.PlayerSide = storage.SideFirst
	if g.humanSide == board.Second {
		g.prefs.PlayerSide = storage.SideSecond
	}
	g.prefs.LastPlayed = time.Now()
	if err := g.storage.SavePreferences(g.prefs); err != nil {
		log.Printf("Warning: Failed to save preferences: %v", err)
	}
}

// buildPlayer loads or creates the network for the current grid size.
func (g *Game) buildPlayer() {
	net, loaded, err := policy.NewNetwork(g.weights, g.gridSize, g.prefs.Layers, g.seed)
	if errors.Is(err, nnet.ErrShapeMismatch) {
		log.Printf("Warning: stored weights for %dx%d do not fit layers %v, starting fresh: %v",
			g.gridSize, g.gridSize, g.prefs.Layers, err)
		net, loaded, err = policy.NewNetwork(nil, g.gridSize, g.prefs.Layers, g.seed)
	}
	g.weightsDamaged = false
	if err != nil {
		log.Printf("Warning: stored weights for %dx%d are unreadable, playing a fresh network without saving: %v",
			g.gridSize, g.gridSize, err)
		g.weightsDamaged = true
		net, loaded, err = policy.NewNetwork(nil, g.gridSize, g.prefs.Layers, g.seed)
	}
	if err != nil {
		log.Fatalf("Failed to build network: %v", err)
	}
	if !loaded && !g.weightsDamaged {
		log.Printf("[AI] No stored weights for %dx%d, using a fresh network", g.gridSize, g.gridSize)
	}

	g.player = policy.NewPlayer(net, g.engine)
	if g.storage != nil && g.prefs.Record {
		g.player.SetRecorder(g.storage, policy.SizeTag(g.gridSize))
	}
	g.engine.Clear()
}

// Update handles game logic updates.
func (g *Game) Update() error {
	g.input.Update()

	if g.input.KeyJustPressed(ebiten.KeyN) {
		g.NewGameAction()
	}
	if g.input.KeyJustPressed(ebiten.KeyM) {
		g.audio.SetEnabled(!g.audio.IsEnabled())
		g.prefs.SoundEnabled = g.audio.IsEnabled()
		g.savePreferences()
	}

	if !g.panel.HandleInput(g.input) {
		g.handleBoardInput()
	}

	g.checkAIMove()
	g.checkTraining()
	g.updateCursor()
	return nil
}

// updateCursor sets the cursor shape based on what's being hovered.
func (g *Game) updateCursor() {
	if g.panel.AnyButtonHovered() || g.hoverEdge >= 0 {
		ebiten.SetCursorShape(ebiten.CursorShapePointer)
	} else {
		ebiten.SetCursorShape(ebiten.CursorShapeDefault)
	}
}

// Draw renders the game.
func (g *Game) Draw(screen *ebiten.Image) {
	g.renderer.SetScale(g.scale)

	screen.Fill(g.renderer.Theme().Background)

	g.renderer.DrawBoard(screen)
	g.renderer.DrawBoxes(screen, g.board)
	g.renderer.DrawEdges(screen, g.board, g.lastEdge, g.hoverEdge)
	g.renderer.DrawDots(screen)

	g.panel.Draw(screen)
}

// Layout returns the game's screen dimensions in device pixels.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.scale = ebiten.Monitor().DeviceScaleFactor()
	if g.scale < 1.0 {
		g.scale = 1.0
	}
	UIScale = g.scale
	return int(float64(ScreenWidth) * g.scale), int(float64(ScreenHeight) * g.scale)
}

// humanToMove reports whether a click on the board may draw a line.
func (g *Game) humanToMove() bool {
	if g.gameOver || g.aiThinking {
		return false
	}
	return g.mode == ModeHumanVsHuman || g.board.SideToMove == g.humanSide
}

// handleBoardInput processes mouse interactions with the grid.
func (g *Game) handleBoardInput() {
	g.hoverEdge = -1
	if !g.humanToMove() {
		return
	}

	mx, my := g.input.MousePosition()
	edge := g.renderer.ScreenToEdge(mx, my)
	if edge >= 0 && g.board.IsLegal(edge) {
		g.hoverEdge = edge
	}

	if !g.input.IsLeftJustPressed() || edge < 0 {
		return
	}
	if !g.board.IsLegal(edge) {
		g.audio.Play(SoundInvalid)
		return
	}
	g.message = ""
	g.makeMove(edge, "")
}

// makeMove draws edge for the side to move and hands over to the computer
// when it is its turn.
func (g *Game) makeMove(edge int, phase string) {
	side := g.board.SideToMove
	before := g.board.Score(side)
	if _, err := g.board.MakeMove(edge); err != nil {
		log.Printf("Illegal move %d: %v", edge, err)
		g.audio.Play(SoundInvalid)
		return
	}
	boxes := g.board.Score(side) - before

	g.history = append(g.history, MoveRecord{
		Side:    side,
		Command: board.Commands(g.gridSize)[edge],
		Boxes:   boxes,
		Phase:   phase,
	})
	g.lastEdge = edge
	g.panel.scrollY = g.panel.maxScrollY + 22

	if boxes > 0 {
		g.audio.Play(SoundBox)
	} else {
		g.audio.Play(SoundLine)
	}

	g.checkGameEnd()
	if !g.gameOver && g.mode == ModeHumanVsComputer && g.board.SideToMove != g.humanSide {
		g.startAIThinking()
	}
}

// checkGameEnd checks if every box is owned.
func (g *Game) checkGameEnd() {
	if !g.board.GameOver() {
		return
	}
	g.gameOver = true
	g.hoverEdge = -1
	first, second := g.board.Score(board.First), g.board.Score(board.Second)
	switch {
	case first > second:
		g.gameResult = fmt.Sprintf("%s wins %d-%d", g.SideLabel(board.First), first, second)
	case second > first:
		g.gameResult = fmt.Sprintf("%s wins %d-%d", g.SideLabel(board.Second), second, first)
	default:
		g.gameResult = fmt.Sprintf("Draw %d-%d", first, second)
	}
	g.audio.Play(SoundGameEnd)
	g.recordGame()
}

// recordGame stores the result of a finished game against the computer.
func (g *Game) recordGame() {
	if g.storage == nil || g.mode != ModeHumanVsComputer {
		return
	}
	result := storage.GameResult{
		GridSize:  g.gridSize,
		BoxesWon:  g.board.Score(g.humanSide),
		BoxesLost: g.board.Score(g.humanSide.Other()),
		Duration:  time.Since(g.startTime),
	}
	if err := g.storage.RecordGame(result); err != nil {
		log.Printf("Warning: Failed to record game: %v", err)
		return
	}
	if stats, err := g.storage.LoadStats(); err == nil {
		g.stats = stats
	}
}

// startAIThinking asks the player for a move on a goroutine.
func (g *Game) startAIThinking() {
	if g.board.SideToMove == g.humanSide {
		log.Printf("ERROR: startAIThinking called on the human's turn")
		return
	}
	g.aiThinking = true

	b := g.board.Copy()
	gen := g.gen
	player := g.player
	go func() {
		cmd, err := player.GetMove(b)
		g.aiMove <- aiResult{gen: gen, cmd: cmd, phase: player.Phase(), err: err}
	}()
}

// checkAIMove applies the computer's move once it arrives.
func (g *Game) checkAIMove() {
	select {
	case res := <-g.aiMove:
		if res.gen != g.gen {
			return
		}
		g.aiThinking = false
		if res.err != nil {
			log.Printf("[AI] No move: %v", res.err)
			g.checkGameEnd()
			return
		}
		edge, err := board.EdgeOf(g.gridSize, res.cmd)
		if err != nil {
			log.Printf("[AI] Bad move %s: %v", res.cmd, err)
			return
		}
		if res.phase == policy.Endgame && g.phase != policy.Endgame {
			g.audio.Play(SoundEnding)
		}
		g.phase = res.phase
		g.makeMove(edge, res.phase.String())
	default:
	}
}

// cancelAI stops any running search and waits for the player to be free.
func (g *Game) cancelAI() {
	g.gen++
	if g.aiThinking {
		g.engine.Stop()
		// The worker sends exactly once; a stop it never consumed is withdrawn
		<-g.aiMove
		g.engine.ClearStop()
	}
	g.aiThinking = false
	g.player.NewGame()
}

// NewGameAction starts a new game on the current grid size.
func (g *Game) NewGameAction() {
	g.cancelAI()

	b, err := board.NewBoard(g.gridSize)
	if err != nil {
		log.Printf("Failed to create board: %v", err)
		return
	}
	g.board = b
	g.history = nil
	g.lastEdge = -1
	g.hoverEdge = -1
	g.gameOver = false
	g.gameResult = ""
	g.phase = policy.Opening
	g.startTime = time.Now()
	g.panel.scrollY = 0

	if g.mode == ModeHumanVsComputer && g.humanSide != board.First {
		g.startAIThinking()
	}
}

// SetGridSize switches board size, loading the matching network.
func (g *Game) SetGridSize(n int) {
	if n == g.gridSize || g.training {
		return
	}
	g.cancelAI()
	g.gridSize = n
	g.renderer.SetGridSize(n)
	g.buildPlayer()
	g.savePreferences()
	g.NewGameAction()
}

// SetGameMode switches between two humans and human against computer.
func (g *Game) SetGameMode(mode GameMode) {
	if mode == g.mode {
		return
	}
	g.mode = mode
	g.savePreferences()
	g.NewGameAction()
}

// SetHumanSide picks which side the human plays against the computer.
func (g *Game) SetHumanSide(s board.Side) {
	if s == g.humanSide {
		return
	}
	g.humanSide = s
	g.savePreferences()
	g.NewGameAction()
}

// TrainAction trains the network for this size on its recorded examples and
// saves the result.
func (g *Game) TrainAction() {
	if g.training || g.storage == nil {
		if g.storage == nil {
			g.message = "No storage, nothing to train on"
		}
		return
	}
	if g.weightsDamaged {
		g.message = "Stored weights are damaged, training disabled"
		return
	}
	tag := policy.SizeTag(g.gridSize)
	n, err := g.storage.CountExamples(tag)
	if err != nil {
		g.message = "Loading examples failed"
		log.Printf("Warning: Failed to count examples: %v", err)
		return
	}
	if n == 0 {
		g.message = "No recorded examples yet"
		return
	}
	records, err := g.storage.Examples(tag)
	if err != nil {
		g.message = "Loading examples failed"
		log.Printf("Warning: Failed to load examples: %v", err)
		return
	}
	rule, err := nnet.ParseRule(g.prefs.Rule)
	if err != nil {
		log.Printf("Warning: %v, using momentum", err)
		rule = nnet.Momentum
	}
	alpha := g.prefs.LearningRate

	g.training = true
	g.message = fmt.Sprintf("Training on %d examples", n)
	player, store := g.player, g.weights
	go func() {
		for _, rec := range records {
			if err := player.Train(rule, alpha, nnet.DefaultGamma, rec.Example); err != nil {
				g.trainCh <- trainResult{err: err}
				return
			}
		}
		err := player.UpdateWeights(store, tag, player.Weights())
		g.trainCh <- trainResult{examples: len(records), err: err}
	}()
}

// checkTraining reports a finished training run.
func (g *Game) checkTraining() {
	select {
	case res := <-g.trainCh:
		g.training = false
		if res.err != nil {
			log.Printf("Warning: training failed: %v", res.err)
			g.message = "Training failed"
			return
		}
		g.message = fmt.Sprintf("Trained on %d examples, weights saved", res.examples)
	default:
	}
}

// SideLabel names a side from the human's point of view.
func (g *Game) SideLabel(s board.Side) string {
	if g.mode == ModeHumanVsHuman {
		if s == board.First {
			return "Blue"
		}
		return "Red"
	}
	if s == g.humanSide {
		return g.username
	}
	return "ShallowBlue"
}

// Board returns the current board.
func (g *Game) Board() *board.Board {
	return g.board
}

// History returns the lines drawn so far.
func (g *Game) History() []MoveRecord {
	return g.history
}

// GameMode returns the current game mode.
func (g *Game) GameMode() GameMode {
	return g.mode
}

// GridSize returns the number of boxes per side.
func (g *Game) GridSize() int {
	return g.gridSize
}

// HumanSide returns the side the human plays against the computer.
func (g *Game) HumanSide() board.Side {
	return g.humanSide
}

// GameOver returns whether the game has ended.
func (g *Game) GameOver() bool {
	return g.gameOver
}

// GameResult returns the result line of a finished game.
func (g *Game) GameResult() string {
	return g.gameResult
}

// IsAIThinking returns whether the computer is searching.
func (g *Game) IsAIThinking() bool {
	return g.aiThinking
}

// IsTraining returns whether a training run is in progress.
func (g *Game) IsTraining() bool {
	return g.training
}

// Username returns the player's name.
func (g *Game) Username() string {
	return g.username
}

// Stats returns the stored game statistics.
func (g *Game) Stats() *storage.GameStats {
	return g.stats
}

// Message returns the transient status line.
func (g *Game) Message() string {
	return g.message
}

// Close stops the computer and closes storage.
func (g *Game) Close() {
	g.cancelAI()
	if g.storage != nil {
		if err := g.storage.Close(); err != nil {
			log.Printf("Warning: Failed to close storage: %v", err)
		}
	}
}
