// Package render declares the drawing-surface contract the board core draws
// through. Surfaces are pure output sinks; all state lives in the world.
package render

import "fmt"

// StrokeColor is the border color for every cell outline.
const StrokeColor = "black"

// Surface is a 2D raster target. Coordinates are board units; fill and
// stroke colors arrive in the literal form "rgb(r,g,b)" (or "black" for
// strokes).
type Surface interface {
	Clear(width, height float64)
	FillRect(x, y, width, height float64, fill string)
	StrokeRect(x, y, width, height float64, stroke string)
}

// Flusher is implemented by surfaces that buffer drawing commands and need
// an explicit commit at the end of a full redraw.
type Flusher interface {
	Flush()
}

// ParseRGB parses the "rgb(r,g,b)" literal form. It reports false for
// anything else, including "black".
func ParseRGB(s string) (r, g, b uint8, ok bool) {
	var ri, gi, bi int
	n, err := fmt.Sscanf(s, "rgb(%d,%d,%d)", &ri, &gi, &bi)
	if err != nil || n != 3 {
		return 0, 0, 0, false
	}
	if ri < 0 || ri > 255 || gi < 0 || gi > 255 || bi < 0 || bi > 255 {
		return 0, 0, 0, false
	}
	return uint8(ri), uint8(gi), uint8(bi), true
}
