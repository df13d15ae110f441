package grid

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridsync/gridsync/internal/core/ecs"
)

func TestPopulate_LatticeLayout(t *testing.T) {
	for _, tc := range []struct {
		dim      int
		cellSize float64
	}{
		{1, 10},
		{3, 25},
		{8, 50},
	} {
		t.Run(fmt.Sprintf("%dx%d_cell%v", tc.dim, tc.dim, tc.cellSize), func(t *testing.T) {
			cfg := Config{Dim: tc.dim, CellSize: tc.cellSize}
			w := cfg.NewWorld()

			require.Equal(t, ecs.EntityID(tc.dim*tc.dim), w.Count(), "should create exactly dim² entities")

			for y := 0; y < tc.dim; y++ {
				for x := 0; x < tc.dim; x++ {
					entity := ecs.EntityID(y*tc.dim + x)

					pos, ok := w.Position(entity)
					require.True(t, ok, "entity %d should have a position", entity)
					assert.Equal(t, ecs.Position{X: float64(x) * tc.cellSize, Y: float64(y) * tc.cellSize}, pos)

					size, ok := w.Size(entity)
					require.True(t, ok, "entity %d should have a size", entity)
					assert.Equal(t, ecs.Size{Width: tc.cellSize, Height: tc.cellSize}, size)

					color, ok := w.Color(entity)
					require.True(t, ok, "entity %d should have a color", entity)
					assert.Equal(t, ecs.White, color)
				}
			}
		})
	}
}

func TestPopulate_Deterministic(t *testing.T) {
	cfg := DefaultConfig()
	a, b := cfg.NewWorld(), cfg.NewWorld()

	assert.Equal(t, a.Count(), b.Count())
	assert.Equal(t, a.ColorDigest(), b.ColorDigest(), "independent worlds from the same config must agree")
}

func TestHitTest_InsideCells(t *testing.T) {
	cfg := Config{Dim: 8, CellSize: 50}
	w := cfg.NewWorld()

	for _, tc := range []struct {
		x, y float64
		want ecs.EntityID
	}{
		{5, 5, 0},
		{49, 49, 0},
		{51, 5, 1},
		{5, 51, 8},
		{399, 399, 63},
	} {
		entity, ok := HitTest(w, tc.x, tc.y)
		require.True(t, ok, "point (%v,%v) should hit", tc.x, tc.y)
		assert.Equal(t, tc.want, entity, "point (%v,%v)", tc.x, tc.y)
	}
}

func TestHitTest_OutsideGrid(t *testing.T) {
	cfg := Config{Dim: 8, CellSize: 50}
	w := cfg.NewWorld()

	for _, p := range [][2]float64{{-1, 5}, {5, -1}, {400.5, 5}, {5, 400.5}, {1000, 1000}} {
		_, ok := HitTest(w, p[0], p[1])
		assert.False(t, ok, "point (%v,%v) should miss", p[0], p[1])
	}
}

func TestHitTest_SharedBoundaryPrefersLowerID(t *testing.T) {
	cfg := Config{Dim: 8, CellSize: 50}
	w := cfg.NewWorld()

	// x=50 lies on the shared edge between entities 0 and 1; the scan order
	// makes the tie-break deterministic.
	for i := 0; i < 5; i++ {
		entity, ok := HitTest(w, 50, 5)
		require.True(t, ok)
		assert.Equal(t, ecs.EntityID(0), entity, "vertical shared edge should resolve to the lower id")
	}

	// y=50 sits between entity 0 and entity 8.
	entity, ok := HitTest(w, 5, 50)
	require.True(t, ok)
	assert.Equal(t, ecs.EntityID(0), entity, "horizontal shared edge should resolve to the lower id")

	// A shared corner touches four cells; the lowest id still wins.
	entity, ok = HitTest(w, 50, 50)
	require.True(t, ok)
	assert.Equal(t, ecs.EntityID(0), entity)
}

func TestConfig_PixelSize(t *testing.T) {
	assert.Equal(t, 400.0, DefaultConfig().PixelSize())
	assert.Equal(t, 75.0, Config{Dim: 3, CellSize: 25}.PixelSize())
}
