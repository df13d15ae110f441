// Package term renders the board into a tcell terminal screen, mapping each
// board cell onto a block of character cells.
package term

import (
	"math"

	"github.com/gdamore/tcell/v2"

	"github.com/gridsync/gridsync/internal/render"
)

var (
	_ render.Surface = (*Surface)(nil)
	_ render.Flusher = (*Surface)(nil)
)

// Surface scales board units to character cells. Terminal cells are taller
// than wide, so the horizontal and vertical scales differ.
type Surface struct {
	screen tcell.Screen
	scaleX float64 // characters per board unit, horizontal
	scaleY float64 // characters per board unit, vertical
}

// New maps one board cell of cellSize units onto charsWide x charsHigh
// characters.
func New(screen tcell.Screen, cellSize float64, charsWide, charsHigh int) *Surface {
	return &Surface{
		screen: screen,
		scaleX: float64(charsWide) / cellSize,
		scaleY: float64(charsHigh) / cellSize,
	}
}

// BoardCoords translates a character position back into board units,
// targeting the center of the character so edge ambiguity stays off the
// shared cell boundaries.
func (s *Surface) BoardCoords(cx, cy int) (float64, float64) {
	return (float64(cx) + 0.5) / s.scaleX, (float64(cy) + 0.5) / s.scaleY
}

func (s *Surface) Clear(width, height float64) {
	s.screen.Clear()
}

func (s *Surface) FillRect(x, y, width, height float64, fill string) {
	style := tcell.StyleDefault
	if r, g, b, ok := render.ParseRGB(fill); ok {
		style = style.Background(tcell.NewRGBColor(int32(r), int32(g), int32(b)))
	}

	x0, y0, x1, y1 := s.charRect(x, y, width, height)
	for cy := y0; cy < y1; cy++ {
		for cx := x0; cx < x1; cx++ {
			s.screen.SetContent(cx, cy, ' ', nil, style)
		}
	}
}

func (s *Surface) StrokeRect(x, y, width, height float64, stroke string) {
	fg := tcell.ColorBlack
	if r, g, b, ok := render.ParseRGB(stroke); ok {
		fg = tcell.NewRGBColor(int32(r), int32(g), int32(b))
	}

	x0, y0, x1, y1 := s.charRect(x, y, width, height)
	if x1-x0 < 2 || y1-y0 < 2 {
		return
	}

	for cx := x0; cx < x1; cx++ {
		s.strokeAt(cx, y0, tcell.RuneHLine, fg)
		s.strokeAt(cx, y1-1, tcell.RuneHLine, fg)
	}
	for cy := y0; cy < y1; cy++ {
		s.strokeAt(x0, cy, tcell.RuneVLine, fg)
		s.strokeAt(x1-1, cy, tcell.RuneVLine, fg)
	}
	s.strokeAt(x0, y0, tcell.RuneULCorner, fg)
	s.strokeAt(x1-1, y0, tcell.RuneURCorner, fg)
	s.strokeAt(x0, y1-1, tcell.RuneLLCorner, fg)
	s.strokeAt(x1-1, y1-1, tcell.RuneLRCorner, fg)
}

// strokeAt keeps the fill's background under the border rune.
func (s *Surface) strokeAt(cx, cy int, r rune, fg tcell.Color) {
	_, _, style, _ := s.screen.GetContent(cx, cy)
	s.screen.SetContent(cx, cy, r, nil, style.Foreground(fg))
}

func (s *Surface) Flush() {
	s.screen.Show()
}

func (s *Surface) charRect(x, y, width, height float64) (x0, y0, x1, y1 int) {
	x0 = int(math.Round(x * s.scaleX))
	y0 = int(math.Round(y * s.scaleY))
	x1 = int(math.Round((x + width) * s.scaleX))
	y1 = int(math.Round((y + height) * s.scaleY))
	return x0, y0, x1, y1
}
