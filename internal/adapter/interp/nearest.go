// Package interp implements resampling from regular lon/lat grids.
package interp

import (
	"fmt"
	"sort"

	"github.com/oceanmesh/sstprep/internal/domain"
)

// Grid2D represents a regular 2D grid for interpolation.
type Grid2D struct {
	X      []float64   // X coordinates (e.g., longitudes).
	Y      []float64   // Y coordinates (e.g., latitudes).
	Values [][]float64 // Values[i][j] corresponds to (X[j], Y[i]).
}

// Validate checks if the grid is valid.
func (g *Grid2D) Validate() error {
	if len(g.X) < 2 {
		return &domain.InterpError{Reason: "grid must have at least 2 X coordinates"}
	}
	if len(g.Y) < 2 {
		return &domain.InterpError{Reason: "grid must have at least 2 Y coordinates"}
	}
	if len(g.Values) != len(g.Y) {
		return &domain.InterpError{
			Reason: fmt.Sprintf("number of value rows (%d) must match Y coordinates (%d)", len(g.Values), len(g.Y)),
		}
	}
	for i, row := range g.Values {
		if len(row) != len(g.X) {
			return &domain.InterpError{
				Reason: fmt.Sprintf("row %d has %d values, expected %d", i, len(row), len(g.X)),
			}
		}
	}

	// Check that coordinates are sorted and unique.
	for i := 1; i < len(g.X); i++ {
		if g.X[i] <= g.X[i-1] {
			return &domain.InterpError{Reason: "X coordinates must be strictly increasing"}
		}
	}
	for i := 1; i < len(g.Y); i++ {
		if g.Y[i] <= g.Y[i-1] {
			return &domain.InterpError{Reason: "Y coordinates must be strictly increasing"}
		}
	}

	return nil
}

// Nearest returns the value of the grid cell closest to (x, y). Queries
// outside the grid clamp to the nearest edge cell, so there is no
// extrapolation failure mode. The grid must have passed Validate; NaN cell
// values are returned as-is.
func (g *Grid2D) Nearest(x, y float64) float64 {
	xi := nearestIndex(g.X, x)
	yi := nearestIndex(g.Y, y)
	return g.Values[yi][xi]
}

// nearestIndex finds the index of the closest coordinate in a strictly
// increasing axis.
func nearestIndex(axis []float64, v float64) int {
	i := sort.SearchFloat64s(axis, v)
	if i == 0 {
		return 0
	}
	if i == len(axis) {
		return len(axis) - 1
	}
	if v-axis[i-1] <= axis[i]-v {
		return i - 1
	}
	return i
}
