// Package grid builds the N×N board lattice and maps pointer coordinates
// back to board entities.
package grid

import "github.com/gridsync/gridsync/internal/core/ecs"

const (
	DefaultDim      = 8
	DefaultCellSize = 50.0
)

// Config describes the board lattice. Every viewer initializes from the same
// configuration, so the sync protocol can exchange bare entity ids.
type Config struct {
	// Dim is the number of cells along each axis.
	Dim int `json:"dim" yaml:"dim"`
	// CellSize is the square cell edge length in board units.
	CellSize float64 `json:"cell_size" yaml:"cell_size"`
}

func DefaultConfig() Config {
	return Config{
		Dim:      DefaultDim,
		CellSize: DefaultCellSize,
	}
}

// PixelSize is the board's total edge length, used for surface clears.
func (c Config) PixelSize() float64 {
	return float64(c.Dim) * c.CellSize
}

// Populate creates the Dim×Dim lattice in w, row-major with y as the outer
// loop, so the cell at row y, column x receives entity id y·Dim + x.
// Position, Size and the default white Color are attached together; the
// world never holds a partial cell. Identical configurations always yield
// identical ids and positions.
func (c Config) Populate(w *ecs.World) {
	for y := 0; y < c.Dim; y++ {
		for x := 0; x < c.Dim; x++ {
			entity := w.CreateEntity()
			w.AddPosition(entity, ecs.Position{
				X: float64(x) * c.CellSize,
				Y: float64(y) * c.CellSize,
			})
			w.AddSize(entity, ecs.Size{
				Width:  c.CellSize,
				Height: c.CellSize,
			})
			w.AddColor(entity, ecs.White)
		}
	}
}

// NewWorld builds and populates a fresh world from the configuration.
func (c Config) NewWorld() *ecs.World {
	w := ecs.NewWorld()
	c.Populate(w)
	return w
}
