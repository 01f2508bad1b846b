// Package ui implements the dots-and-boxes desktop game using Ebitengine.
package ui

import (
	"bytes"
	"image/color"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

var (
	regularSource *text.GoTextFaceSource
	boldSource    *text.GoTextFaceSource
)

const (
	defaultFontSize = 14.0
	titleFontSize   = 16.0
	scoreFontSize   = 28.0
)

func init() {
	var err error
	regularSource, err = text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		log.Printf("Failed to load regular font: %v", err)
	}
	boldSource, err = text.NewGoTextFaceSource(bytes.NewReader(gobold.TTF))
	if err != nil {
		log.Printf("Failed to load bold font: %v", err)
	}
}

// face returns a face of the given logical size, scaled for HiDPI.
func face(src *text.GoTextFaceSource, size float64) *text.GoTextFace {
	if src == nil {
		return nil
	}
	return &text.GoTextFace{Source: src, Size: size * UIScale}
}

// RegularFace returns the body text face.
func RegularFace() *text.GoTextFace {
	return face(regularSource, defaultFontSize)
}

// BoldFace returns the heading face.
func BoldFace() *text.GoTextFace {
	return face(boldSource, titleFontSize)
}

// ScoreFace returns the large face used for the scoreboard.
func ScoreFace() *text.GoTextFace {
	return face(boldSource, scoreFontSize)
}

// MeasureText returns the width and height of s in device pixels.
func MeasureText(s string, f *text.GoTextFace) (width, height float64) {
	if f == nil {
		return 0, 0
	}
	return text.Measure(s, f, 0)
}

// drawText draws s with its top-left corner at logical (x, y).
func drawText(screen *ebiten.Image, s string, f *text.GoTextFace, x, y int, c color.Color) {
	if f == nil {
		return
	}
	op := &text.DrawOptions{}
	op.GeoM.Translate(float64(x)*UIScale, float64(y)*UIScale)
	op.ColorScale.ScaleWithColor(c)
	text.Draw(screen, s, f, op)
}

// drawTextCentered draws s centred on logical (cx, cy).
func drawTextCentered(screen *ebiten.Image, s string, f *text.GoTextFace, cx, cy int, c color.Color) {
	if f == nil {
		return
	}
	w, h := MeasureText(s, f)
	op := &text.DrawOptions{}
	op.GeoM.Translate(float64(cx)*UIScale-w/2, float64(cy)*UIScale-h/2)
	op.ColorScale.ScaleWithColor(c)
	text.Draw(screen, s, f, op)
}
