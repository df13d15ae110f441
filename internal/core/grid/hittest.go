package grid

import "github.com/gridsync/gridsync/internal/core/ecs"

// HitTest maps a point in board coordinates to the entity whose rectangle
// contains it, scanning ids in ascending order and returning the first
// match. The bounds check is inclusive on all four edges, so a point exactly
// on a shared edge resolves to the lower-id cell; repeated calls with the
// same point always pick the same entity. Returns false when the point lies
// outside every rectangle.
func HitTest(w *ecs.World, x, y float64) (ecs.EntityID, bool) {
	for entity := ecs.EntityID(0); entity < w.Count(); entity++ {
		pos, ok := w.Position(entity)
		if !ok {
			continue
		}
		size, ok := w.Size(entity)
		if !ok {
			continue
		}
		if x >= pos.X && x <= pos.X+size.Width &&
			y >= pos.Y && y <= pos.Y+size.Height {
			return entity, true
		}
	}
	return 0, false
}
