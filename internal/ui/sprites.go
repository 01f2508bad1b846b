package ui

import (
	"bytes"
	"embed"
	"image"
	"log"

	"github.com/hailam/shallowblue/internal/board"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

//go:embed assets/marks/*.svg
var markAssets embed.FS

// SpriteManager manages the box owner marks.
type SpriteManager struct {
	marks       map[board.Side]*ebiten.Image
	size        int     // Display size of one box
	scale       float64 // HiDPI scale factor
	renderScale float64 // Render at higher resolution for quality (e.g., 3.0)
}

// NewSpriteManager creates a sprite manager with marks of the given size.
func NewSpriteManager(size int) *SpriteManager {
	sm := &SpriteManager{
		marks:       make(map[board.Side]*ebiten.Image),
		size:        size,
		scale:       1.0,
		renderScale: 3.0,
	}
	sm.loadMarks()
	return sm
}

// markFiles maps each side to its asset file path.
var markFiles = map[board.Side]string{
	board.First:  "assets/marks/first.svg",
	board.Second: "assets/marks/second.svg",
}

// loadMarks rasterises all marks from the embedded SVG files.
func (sm *SpriteManager) loadMarks() {
	renderSize := int(float64(sm.size) * sm.scale * sm.renderScale)
	if renderSize <= 0 {
		return
	}

	for side, path := range markFiles {
		data, err := markAssets.ReadFile(path)
		if err != nil {
			log.Printf("Failed to read mark asset %s: %v", path, err)
			continue
		}

		icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
		if err != nil {
			log.Printf("Failed to parse SVG %s: %v", path, err)
			continue
		}
		icon.SetTarget(0, 0, float64(renderSize), float64(renderSize))

		rgba := image.NewRGBA(image.Rect(0, 0, renderSize, renderSize))
		scanner := rasterx.NewScannerGV(renderSize, renderSize, rgba, rgba.Bounds())
		raster := rasterx.NewDasher(renderSize, renderSize, scanner)
		icon.Draw(raster, 1.0)

		if old := sm.marks[side]; old != nil {
			old.Deallocate()
		}
		sm.marks[side] = ebiten.NewImageFromImage(rgba)
	}
}

// Resize re-rasterises the marks for a new box size.
func (sm *SpriteManager) Resize(size int) {
	if size == sm.size {
		return
	}
	sm.size = size
	sm.loadMarks()
}

// SetScale re-rasterises the marks when the device scale changes.
func (sm *SpriteManager) SetScale(scale float64) {
	if scale == sm.scale {
		return
	}
	sm.scale = scale
	sm.loadMarks()
}

// GetMark returns the sprite for a side.
func (sm *SpriteManager) GetMark(s board.Side) *ebiten.Image {
	return sm.marks[s]
}

// DrawMarkAt draws a side's mark with its top-left corner at the given
// device pixel coordinates.
func (sm *SpriteManager) DrawMarkAt(screen *ebiten.Image, s board.Side, x, y float32) {
	sprite := sm.GetMark(s)
	if sprite == nil {
		return
	}
	op := &ebiten.DrawImageOptions{}
	// Scale down from render resolution to display size
	scale := 1.0 / sm.renderScale
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(float64(x), float64(y))
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(sprite, op)
}

// Size returns the display size of the marks.
func (sm *SpriteManager) Size() int {
	return sm.size
}
