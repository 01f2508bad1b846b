package ui

import (
	"image/color"
	"math"

	"github.com/hailam/shallowblue/internal/board"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Theme defines the color scheme for the grid.
type Theme struct {
	Background color.RGBA
	Paper      color.RGBA
	Dot        color.RGBA
	Line       color.RGBA
	LastLine   color.RGBA
	HoverLine  color.RGBA
	FirstBox   color.RGBA
	SecondBox  color.RGBA
	TextColor  color.RGBA
}

// DefaultTheme returns the default color theme.
func DefaultTheme() *Theme {
	return &Theme{
		Background: color.RGBA{40, 44, 52, 255},
		Paper:      color.RGBA{244, 240, 228, 255}, // Off-white
		Dot:        color.RGBA{50, 50, 56, 255},
		Line:       color.RGBA{70, 72, 80, 255},
		LastLine:   color.RGBA{230, 160, 40, 255}, // Amber
		HoverLine:  color.RGBA{76, 175, 120, 160}, // Translucent green
		FirstBox:   color.RGBA{47, 111, 176, 50},
		SecondBox:  color.RGBA{192, 68, 58, 50},
		TextColor:  color.RGBA{220, 220, 220, 255},
	}
}

// Grid layout in logical pixels
const (
	gridMargin   = 60
	dotRadius    = 6
	lineWidth    = 6
	hitTolerance = 0.3 // fraction of the dot spacing
)

// Renderer handles all drawing of the grid.
type Renderer struct {
	sprites   *SpriteManager
	theme     *Theme
	boardSize int
	gridSize  int // boxes per side
	spacing   int // pixels between dots
	scale     float64
}

// NewRenderer creates a renderer for a gridSize×gridSize board drawn in a
// boardSize square.
func NewRenderer(boardSize, gridSize int) *Renderer {
	r := &Renderer{
		theme:     DefaultTheme(),
		boardSize: boardSize,
		scale:     1.0,
	}
	r.gridSize = gridSize
	r.spacing = (boardSize - 2*gridMargin) / gridSize
	r.sprites = NewSpriteManager(r.spacing)
	return r
}

// SetGridSize changes the number of boxes per side.
func (r *Renderer) SetGridSize(gridSize int) {
	r.gridSize = gridSize
	r.spacing = (r.boardSize - 2*gridMargin) / gridSize
	r.sprites.Resize(r.spacing)
}

// SetScale sets the HiDPI scale factor for rendering.
func (r *Renderer) SetScale(scale float64) {
	r.scale = scale
	r.sprites.SetScale(scale)
}

// s returns the scaled value for rendering.
func (r *Renderer) s(v int) float32 {
	return float32(float64(v) * r.scale)
}

// DrawBoard draws the paper the grid sits on.
func (r *Renderer) DrawBoard(screen *ebiten.Image) {
	vector.DrawFilledRect(screen, 0, 0, r.s(r.boardSize), r.s(r.boardSize), r.theme.Paper, false)
}

// DrawBoxes tints every owned box and stamps its owner's mark.
func (r *Renderer) DrawBoxes(screen *ebiten.Image, b *board.Board) {
	n := b.Size()
	for box := 0; box < n*n; box++ {
		owner := b.Owner(box)
		if owner == board.NoOwner {
			continue
		}
		side := board.Side(owner)
		tint := r.theme.FirstBox
		if side == board.Second {
			tint = r.theme.SecondBox
		}
		x, y := r.dot(box/n, box%n)
		vector.DrawFilledRect(screen, r.s(x), r.s(y), r.s(r.spacing), r.s(r.spacing), tint, false)
		r.sprites.DrawMarkAt(screen, side, r.s(x), r.s(y))
	}
}

// DrawEdges draws every drawn line, the last one highlighted, and a ghost of
// the hovered line.
func (r *Renderer) DrawEdges(screen *ebiten.Image, b *board.Board, lastEdge, hoverEdge int) {
	for e := 0; e < b.NumEdges(); e++ {
		switch {
		case e == lastEdge && b.HasEdge(e):
			r.drawEdge(screen, e, r.theme.LastLine)
		case b.HasEdge(e):
			r.drawEdge(screen, e, r.theme.Line)
		case e == hoverEdge:
			r.drawEdge(screen, e, r.theme.HoverLine)
		}
	}
}

func (r *Renderer) drawEdge(screen *ebiten.Image, e int, c color.RGBA) {
	x0, y0, x1, y1 := r.EdgeSegment(e)
	vector.StrokeLine(screen, r.s(x0), r.s(y0), r.s(x1), r.s(y1), r.s(lineWidth), c, true)
}

// DrawDots draws the (n+1)×(n+1) dots on top of the lines.
func (r *Renderer) DrawDots(screen *ebiten.Image) {
	for i := 0; i <= r.gridSize; i++ {
		for j := 0; j <= r.gridSize; j++ {
			x, y := r.dot(i, j)
			vector.DrawFilledCircle(screen, r.s(x), r.s(y), r.s(dotRadius), r.theme.Dot, true)
		}
	}
}

// dot returns the logical position of dot (row, col).
func (r *Renderer) dot(row, col int) (int, int) {
	return gridMargin + col*r.spacing, gridMargin + row*r.spacing
}

// EdgeSegment returns the logical end points of edge e.
func (r *Renderer) EdgeSegment(e int) (x0, y0, x1, y1 int) {
	c := board.Commands(r.gridSize)[e]
	if c.Row%2 == 0 {
		x0, y0 = r.dot(c.Row/2, c.Col)
		x1, y1 = r.dot(c.Row/2, c.Col+1)
	} else {
		x0, y0 = r.dot(c.Row/2, c.Col)
		x1, y1 = r.dot(c.Row/2+1, c.Col)
	}
	return x0, y0, x1, y1
}

// ScreenToEdge returns the edge nearest to logical (x, y), or -1 when no
// edge is close enough.
func (r *Renderer) ScreenToEdge(x, y int) int {
	if x < 0 || x >= r.boardSize || y < 0 || y >= r.boardSize {
		return -1
	}
	best, bestDist := -1, hitTolerance*float64(r.spacing)
	for e := 0; e < board.NumEdges(r.gridSize); e++ {
		x0, y0, x1, y1 := r.EdgeSegment(e)
		if d := segmentDistance(float64(x), float64(y), float64(x0), float64(y0), float64(x1), float64(y1)); d < bestDist {
			best, bestDist = e, d
		}
	}
	return best
}

// segmentDistance returns the distance from (px, py) to the segment.
func segmentDistance(px, py, x0, y0, x1, y1 float64) float64 {
	dx, dy := x1-x0, y1-y0
	t := ((px-x0)*dx + (py-y0)*dy) / (dx*dx + dy*dy)
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(px-(x0+t*dx), py-(y0+t*dy))
}

// BoardSize returns the board area size in logical pixels.
func (r *Renderer) BoardSize() int {
	return r.boardSize
}

// Theme returns the current theme.
func (r *Renderer) Theme() *Theme {
	return r.theme
}
