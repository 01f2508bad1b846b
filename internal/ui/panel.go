package ui

import (
	"fmt"
	"image/color"

	"github.com/hailam/shallowblue/internal/board"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Panel dimensions
const (
	PanelPadding   = 20
	SectionSpacing = 24
	ButtonHeight   = 40
	TabHeight      = 32
	SectionLabelH  = 20
	ScoreHeight    = 64
	StatusBarH     = 80
)

// Panel colors
var (
	panelBg         = color.RGBA{38, 40, 45, 255}    // Dark background
	sectionBg       = color.RGBA{48, 52, 58, 255}    // Slightly lighter section
	tabActiveBg     = color.RGBA{76, 132, 96, 255}   // Green for active tab
	tabInactiveBg   = color.RGBA{50, 54, 60, 255}    // Darker gray for inactive
	tabHoverBg      = color.RGBA{65, 70, 78, 255}    // Visible hover state
	buttonBg        = color.RGBA{50, 54, 60, 255}    // Button background (darker)
	buttonHoverBg   = color.RGBA{65, 70, 78, 255}    // Button hover (brighter)
	buttonPressedBg = color.RGBA{40, 44, 50, 255}    // Button pressed (darker)
	buttonBorder    = color.RGBA{70, 75, 82, 255}    // Subtle button border
	accentColor     = color.RGBA{76, 175, 120, 255}  // Green accent
	accentHover     = color.RGBA{96, 195, 140, 255}  // Lighter green on hover
	accentPressed   = color.RGBA{56, 155, 100, 255}  // Darker green on press
	textPrimary     = color.RGBA{240, 240, 245, 255} // Primary text
	textSecondary   = color.RGBA{160, 165, 175, 255} // Secondary text
	textMuted       = color.RGBA{120, 125, 135, 255} // Muted text
	dividerColor    = color.RGBA{60, 65, 72, 255}    // Divider line
	moveRowAlt      = color.RGBA{44, 48, 54, 255}    // Alternating row
	statusThinking  = color.RGBA{100, 180, 255, 255} // Blue for thinking
	statusGameOver  = color.RGBA{255, 200, 80, 255}  // Yellow for game over
	firstColor      = color.RGBA{90, 150, 220, 255}
	secondColor     = color.RGBA{225, 105, 95, 255}
)

// GridSizes are the board sizes offered in the panel.
var GridSizes = []int{2, 3, 4, 5}

// Button represents a clickable UI element.
type Button struct {
	X, Y, W, H int
	Label      string
	OnClick    func()
	hovered    bool
	pressed    bool
}

// Panel is the side panel with controls, the scoreboard and the line history.
type Panel struct {
	game *Game

	newGameBtn *Button
	trainBtn   *Button
	sizeTabs   []*Button // one per GridSizes entry
	modeTabs   []*Button // [0] = vs Human, [1] = vs Computer
	sideTabs   []*Button // [0] = First, [1] = Second

	// Line history scroll
	scrollY    int
	maxScrollY int
}

// NewPanel creates a new panel for the given game.
func NewPanel(g *Game) *Panel {
	p := &Panel{game: g}
	p.createButtons()
	return p
}

// scaleF converts a logical coordinate to device pixels.
func scaleF(v int) float32 {
	return float32(float64(v) * UIScale)
}

// createButtons lays out all panel buttons.
func (p *Panel) createButtons() {
	contentX := BoardSize + PanelPadding
	contentW := PanelWidth - PanelPadding*2

	y := PanelPadding
	half := (contentW - 8) / 2
	p.newGameBtn = &Button{
		X: contentX, Y: y, W: half, H: ButtonHeight,
		Label:   "New Game",
		OnClick: p.game.NewGameAction,
	}
	p.trainBtn = &Button{
		X: contentX + half + 8, Y: y, W: half, H: ButtonHeight,
		Label:   "Train",
		OnClick: p.game.TrainAction,
	}

	y += ButtonHeight + SectionSpacing + SectionLabelH
	tabW := contentW / len(GridSizes)
	p.sizeTabs = nil
	for i, n := range GridSizes {
		p.sizeTabs = append(p.sizeTabs, &Button{
			X: contentX + i*tabW, Y: y, W: tabW, H: TabHeight,
			Label:   fmt.Sprintf("%dx%d", n, n),
			OnClick: func() { p.game.SetGridSize(n) },
		})
	}

	y += TabHeight + SectionSpacing + SectionLabelH
	tabW = contentW / 2
	p.modeTabs = []*Button{
		{X: contentX, Y: y, W: tabW, H: TabHeight, Label: "vs Human",
			OnClick: func() { p.game.SetGameMode(ModeHumanVsHuman) }},
		{X: contentX + tabW, Y: y, W: tabW, H: TabHeight, Label: "vs Computer",
			OnClick: func() { p.game.SetGameMode(ModeHumanVsComputer) }},
	}

	y += TabHeight + SectionSpacing + SectionLabelH
	p.sideTabs = []*Button{
		{X: contentX, Y: y, W: tabW, H: TabHeight, Label: "First",
			OnClick: func() { p.game.SetHumanSide(board.First) }},
		{X: contentX + tabW, Y: y, W: tabW, H: TabHeight, Label: "Second",
			OnClick: func() { p.game.SetHumanSide(board.Second) }},
	}
}

// buttons returns every button that currently accepts input.
func (p *Panel) buttons() []*Button {
	btns := []*Button{p.newGameBtn, p.trainBtn}
	btns = append(btns, p.sizeTabs...)
	btns = append(btns, p.modeTabs...)
	if p.game.GameMode() == ModeHumanVsComputer {
		btns = append(btns, p.sideTabs...)
	}
	return btns
}

// HandleInput processes input for the panel. Returns true if input was handled.
func (p *Panel) HandleInput(input *InputHandler) bool {
	mx, my := input.MousePosition()

	if wheel := input.WheelY(); wheel != 0 && mx >= BoardSize && my >= p.historyStartY() {
		p.scrollY -= int(wheel * 30)
		p.scrollY = max(0, min(p.scrollY, p.maxScrollY))
	}

	for _, btn := range p.buttons() {
		btn.hovered = p.isInside(mx, my, btn)
		btn.pressed = btn.hovered && input.IsLeftPressed()
	}

	if !input.IsLeftJustPressed() {
		return false
	}
	for _, btn := range p.buttons() {
		if btn.hovered {
			btn.OnClick()
			return true
		}
	}
	return mx >= BoardSize
}

// AnyButtonHovered returns true if any button in the panel is hovered.
func (p *Panel) AnyButtonHovered() bool {
	for _, btn := range p.buttons() {
		if btn.hovered {
			return true
		}
	}
	return false
}

func (p *Panel) isInside(mx, my int, btn *Button) bool {
	return mx >= btn.X && mx < btn.X+btn.W && my >= btn.Y && my < btn.Y+btn.H
}

// Draw renders the panel.
func (p *Panel) Draw(screen *ebiten.Image) {
	vector.DrawFilledRect(screen, scaleF(BoardSize), 0, scaleF(PanelWidth), scaleF(ScreenHeight), panelBg, false)

	p.drawPrimaryButton(screen, p.newGameBtn)
	trainLabel := "Train"
	if p.game.IsTraining() {
		trainLabel = "Training..."
	}
	p.trainBtn.Label = trainLabel
	p.drawSecondaryButton(screen, p.trainBtn)

	x := BoardSize + PanelPadding
	p.drawSectionLabel(screen, "Grid", x, p.sizeTabs[0].Y-SectionLabelH)
	for i, btn := range p.sizeTabs {
		p.drawTab(screen, btn, GridSizes[i] == p.game.GridSize())
	}

	p.drawSectionLabel(screen, "Opponent", x, p.modeTabs[0].Y-SectionLabelH)
	p.drawTab(screen, p.modeTabs[0], p.game.GameMode() == ModeHumanVsHuman)
	p.drawTab(screen, p.modeTabs[1], p.game.GameMode() == ModeHumanVsComputer)

	if p.game.GameMode() == ModeHumanVsComputer {
		p.drawSectionLabel(screen, "You play", x, p.sideTabs[0].Y-SectionLabelH)
		p.drawTab(screen, p.sideTabs[0], p.game.HumanSide() == board.First)
		p.drawTab(screen, p.sideTabs[1], p.game.HumanSide() == board.Second)
	}

	p.drawScoreboard(screen, p.sideTabs[0].Y+TabHeight+SectionSpacing)

	historyY := p.historyStartY()
	p.drawSectionLabel(screen, "Lines", x, historyY)
	p.drawHistory(screen, historyY+SectionLabelH+4)

	p.drawStatusBar(screen)
}

func (p *Panel) historyStartY() int {
	return p.sideTabs[0].Y + TabHeight + SectionSpacing + ScoreHeight + SectionSpacing
}

func (p *Panel) drawPrimaryButton(screen *ebiten.Image, btn *Button) {
	bgColor := accentColor
	if btn.pressed {
		bgColor = accentPressed
	} else if btn.hovered {
		bgColor = accentHover
	}
	p.drawButton(screen, btn, bgColor, accentPressed, textPrimary)
}

func (p *Panel) drawSecondaryButton(screen *ebiten.Image, btn *Button) {
	bgColor := buttonBg
	if btn.pressed {
		bgColor = buttonPressedBg
	} else if btn.hovered {
		bgColor = buttonHoverBg
	}
	borderC := buttonBorder
	if btn.hovered {
		borderC = accentColor
	}
	p.drawButton(screen, btn, bgColor, borderC, textSecondary)
}

func (p *Panel) drawTab(screen *ebiten.Image, btn *Button, active bool) {
	bgColor := tabInactiveBg
	borderC := buttonBorder
	textC := textSecondary
	switch {
	case active:
		bgColor, borderC, textC = tabActiveBg, tabActiveBg, textPrimary
	case btn.pressed:
		bgColor = buttonPressedBg
	case btn.hovered:
		bgColor, borderC = tabHoverBg, accentColor
	}
	p.drawButton(screen, btn, bgColor, borderC, textC)
}

func (p *Panel) drawButton(screen *ebiten.Image, btn *Button, bg, border, fg color.RGBA) {
	vector.DrawFilledRect(screen, scaleF(btn.X), scaleF(btn.Y), scaleF(btn.W), scaleF(btn.H), bg, false)
	vector.StrokeRect(screen, scaleF(btn.X), scaleF(btn.Y), scaleF(btn.W), scaleF(btn.H), float32(UIScale), border, false)
	drawTextCentered(screen, btn.Label, RegularFace(), btn.X+btn.W/2, btn.Y+btn.H/2, fg)
}

func (p *Panel) drawSectionLabel(screen *ebiten.Image, label string, x, y int) {
	drawText(screen, label, RegularFace(), x, y, textMuted)
}

// drawScoreboard shows both sides' boxes, the side to move framed.
func (p *Panel) drawScoreboard(screen *ebiten.Image, y int) {
	x := BoardSize + PanelPadding
	w := (PanelWidth - PanelPadding*2 - 8) / 2
	b := p.game.Board()

	for i, side := range []board.Side{board.First, board.Second} {
		cx := x + i*(w+8)
		vector.DrawFilledRect(screen, scaleF(cx), scaleF(y), scaleF(w), scaleF(ScoreHeight), sectionBg, false)
		if !p.game.GameOver() && b.SideToMove == side {
			vector.StrokeRect(screen, scaleF(cx), scaleF(y), scaleF(w), scaleF(ScoreHeight), float32(UIScale*2), accentColor, false)
		}
		c := firstColor
		if side == board.Second {
			c = secondColor
		}
		drawTextCentered(screen, p.game.SideLabel(side), RegularFace(), cx+w/2, y+14, textSecondary)
		drawTextCentered(screen, fmt.Sprint(b.Score(side)), ScoreFace(), cx+w/2, y+40, c)
	}
}

// drawHistory lists the drawn lines, newest last, with a scroll indicator.
func (p *Panel) drawHistory(screen *ebiten.Image, startY int) {
	lines := p.game.History()
	x := BoardSize + PanelPadding
	if len(lines) == 0 {
		drawText(screen, "No lines yet", RegularFace(), x, startY+5, textMuted)
		return
	}

	rowHeight := 22
	maxY := ScreenHeight - StatusBarH
	visibleHeight := maxY - startY

	contentHeight := len(lines) * rowHeight
	p.maxScrollY = max(0, contentHeight-visibleHeight)
	p.scrollY = min(p.scrollY, p.maxScrollY)

	y := startY - p.scrollY
	for i, m := range lines {
		if y+rowHeight <= startY {
			y += rowHeight
			continue
		}
		if y > maxY-rowHeight {
			break
		}
		if i%2 == 1 {
			vector.DrawFilledRect(screen, scaleF(x-4), scaleF(y-2),
				scaleF(PanelWidth-PanelPadding*2+8), scaleF(rowHeight), moveRowAlt, false)
		}
		c := firstColor
		if m.Side == board.Second {
			c = secondColor
		}
		drawText(screen, fmt.Sprintf("%d.", i+1), RegularFace(), x, y, textMuted)
		drawText(screen, m.Command.String(), RegularFace(), x+40, y, c)
		if m.Boxes > 0 {
			drawText(screen, fmt.Sprintf("+%d", m.Boxes), RegularFace(), x+110, y, textPrimary)
		}
		if m.Phase != "" {
			drawText(screen, m.Phase, RegularFace(), x+160, y, textMuted)
		}
		y += rowHeight
	}

	if p.maxScrollY > 0 {
		pct := float32(p.scrollY) / float32(p.maxScrollY)
		indicatorH := max(float32(20), float32(visibleHeight)*float32(visibleHeight)/float32(contentHeight))
		indicatorY := float32(startY) + pct*(float32(visibleHeight)-indicatorH)
		vector.DrawFilledRect(screen, scaleF(BoardSize+PanelWidth-8), indicatorY*float32(UIScale),
			scaleF(4), indicatorH*float32(UIScale), textMuted, false)
	}
}

func (p *Panel) drawStatusBar(screen *ebiten.Image) {
	statusY := ScreenHeight - StatusBarH + 12
	x := BoardSize + PanelPadding

	vector.DrawFilledRect(screen, scaleF(x), scaleF(statusY-10),
		scaleF(PanelWidth-PanelPadding*2), scaleF(1), dividerColor, false)

	username := p.game.Username()
	if len(username) > 12 {
		username = username[:12] + "..."
	}
	drawText(screen, username, RegularFace(), x, statusY, textPrimary)
	if stats := p.game.Stats(); stats != nil {
		drawText(screen, fmt.Sprintf("W %d  L %d  D %d", stats.Wins, stats.Losses, stats.Draws),
			RegularFace(), x+130, statusY, textSecondary)
	}

	var statusText string
	var statusColor color.RGBA
	switch {
	case p.game.GameOver():
		statusText, statusColor = p.game.GameResult(), statusGameOver
	case p.game.IsAIThinking():
		statusText, statusColor = "Computer thinking...", statusThinking
	default:
		statusText = p.game.SideLabel(p.game.Board().SideToMove) + " to move"
		statusColor = textPrimary
	}
	drawText(screen, statusText, RegularFace(), x, statusY+22, statusColor)

	if msg := p.game.Message(); msg != "" {
		drawText(screen, msg, RegularFace(), x, statusY+44, textMuted)
	}
}
