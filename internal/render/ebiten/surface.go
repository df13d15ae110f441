// Package ebiten renders the board onto an ebiten image.
package ebiten

import (
	"image/color"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/gridsync/gridsync/internal/render"
)

var _ render.Surface = (*Surface)(nil)

// Surface draws onto whichever image is currently targeted. Outside of a
// frame the target is nil and drawing commands are no-ops; the board state
// itself lives in the world and the next Draw repaints it in full.
type Surface struct {
	mu     sync.Mutex
	target *ebiten.Image
}

func New() *Surface {
	return &Surface{}
}

// SetTarget points the surface at the current frame's image. Call with nil
// once the frame is done.
func (s *Surface) SetTarget(img *ebiten.Image) {
	s.mu.Lock()
	s.target = img
	s.mu.Unlock()
}

func (s *Surface) Clear(width, height float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.target == nil {
		return
	}
	s.target.Clear()
}

func (s *Surface) FillRect(x, y, width, height float64, fill string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.target == nil {
		return
	}
	vector.DrawFilledRect(s.target,
		float32(x), float32(y), float32(width), float32(height),
		toColor(fill), false)
}

func (s *Surface) StrokeRect(x, y, width, height float64, stroke string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.target == nil {
		return
	}
	vector.StrokeRect(s.target,
		float32(x), float32(y), float32(width), float32(height),
		1, toColor(stroke), false)
}

func toColor(s string) color.Color {
	if r, g, b, ok := render.ParseRGB(s); ok {
		return color.RGBA{R: r, G: g, B: b, A: 255}
	}
	// Stroke color is always "black"; anything unparseable falls back to it.
	return color.RGBA{A: 255}
}
