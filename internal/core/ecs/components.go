package ecs

import "fmt"

// Position is the top-left corner of an entity's bounding box, in the same
// coordinate space as pointer input.
type Position struct {
	X float64
	Y float64
}

// Size spans the entity's axis-aligned rectangle. Width and Height are
// positive; together with Position the rectangle is boundary-inclusive for
// hit-testing.
type Size struct {
	Width  float64
	Height float64
}

// Color is the only component that mutates after initialization.
type Color struct {
	R uint8
	G uint8
	B uint8
}

// White is the default cell color.
var White = Color{R: 255, G: 255, B: 255}

// Invert flips every channel to its complement. It is its own inverse, so
// toggling twice restores the original color.
func (c Color) Invert() Color {
	return Color{R: 255 - c.R, G: 255 - c.G, B: 255 - c.B}
}

// String renders the CSS-style form consumed by drawing surfaces.
func (c Color) String() string {
	return fmt.Sprintf("rgb(%d,%d,%d)", c.R, c.G, c.B)
}
