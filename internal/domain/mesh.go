// Package domain holds the core types for unstructured-mesh forcing preparation.
package domain

import "fmt"

// Mesh describes the unstructured model mesh: one longitude/latitude pair per
// node plus the element count. The forcing pipeline only reads from it.
type Mesh struct {
	Lon   []float64 // Nodal longitudes in degrees east.
	Lat   []float64 // Nodal latitudes in degrees north.
	NElem int
}

// NewMesh validates the coordinate arrays and returns a mesh descriptor.
func NewMesh(lon, lat []float64, nelem int) (*Mesh, error) {
	if len(lon) == 0 {
		return nil, fmt.Errorf("mesh must have at least one node")
	}
	if len(lon) != len(lat) {
		return nil, fmt.Errorf("mesh coordinate length mismatch: %d longitudes, %d latitudes", len(lon), len(lat))
	}
	if nelem <= 0 {
		return nil, fmt.Errorf("mesh element count must be positive, got %d", nelem)
	}
	return &Mesh{Lon: lon, Lat: lat, NElem: nelem}, nil
}

// NNode returns the number of mesh nodes.
func (m *Mesh) NNode() int {
	return len(m.Lon)
}
