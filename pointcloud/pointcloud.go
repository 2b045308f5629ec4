// Package pointcloud defines the ordered point list rendered by the viewer, the text format it is
// loaded from, and helpers computed over it.
//
// Unlike a sparse cloud keyed by position, a PointList keeps duplicate points and preserves file
// order, since consecutive entries are joined by line segments when rendered.
package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
)

// MetaData is data about what's stored in the point list.
type MetaData struct {
	MinX, MaxX float64
	MinY, MaxY float64
	MinZ, MaxZ float64
}

// NewMetaData returns bounds that any merged point will replace.
func NewMetaData() MetaData {
	return MetaData{
		MinX: math.MaxFloat64,
		MinY: math.MaxFloat64,
		MinZ: math.MaxFloat64,
		MaxX: -math.MaxFloat64,
		MaxY: -math.MaxFloat64,
		MaxZ: -math.MaxFloat64,
	}
}

// Merge expands the bounds to include v.
func (meta *MetaData) Merge(v r3.Vector) {
	if v.X > meta.MaxX {
		meta.MaxX = v.X
	}
	if v.Y > meta.MaxY {
		meta.MaxY = v.Y
	}
	if v.Z > meta.MaxZ {
		meta.MaxZ = v.Z
	}

	if v.X < meta.MinX {
		meta.MinX = v.X
	}
	if v.Y < meta.MinY {
		meta.MinY = v.Y
	}
	if v.Z < meta.MinZ {
		meta.MinZ = v.Z
	}
}

// Center returns the middle of the bounding box.
func (meta MetaData) Center() r3.Vector {
	return r3.Vector{
		X: (meta.MinX + meta.MaxX) / 2,
		Y: (meta.MinY + meta.MaxY) / 2,
		Z: (meta.MinZ + meta.MaxZ) / 2,
	}
}

// PointList is an ordered, fixed length list of points. The order is the order the points were
// read in and the order they are drawn in.
type PointList struct {
	points []r3.Vector
}

// NewPointList wraps the given points. The slice is owned by the list afterwards.
func NewPointList(points []r3.Vector) *PointList {
	return &PointList{points: points}
}

// Size returns the number of points in the list.
func (pl *PointList) Size() int {
	return len(pl.points)
}

// At returns the point at index i.
func (pl *PointList) At(i int) r3.Vector {
	return pl.points[i]
}

// Set replaces the point at index i.
func (pl *PointList) Set(i int, p r3.Vector) {
	pl.points[i] = p
}

// Points returns the backing slice. Writes through it are visible to the list.
func (pl *PointList) Points() []r3.Vector {
	return pl.points
}

// Iterate calls fn for every point in order until fn returns false.
func (pl *PointList) Iterate(fn func(i int, p r3.Vector) bool) {
	for i, p := range pl.points {
		if !fn(i, p) {
			return
		}
	}
}

// Clone returns a deep copy of the list.
func (pl *PointList) Clone() *PointList {
	points := make([]r3.Vector, len(pl.points))
	copy(points, pl.points)
	return &PointList{points: points}
}

// MetaData returns the current bounds of the list. It is recomputed on every call since the
// points are rotated in place.
func (pl *PointList) MetaData() MetaData {
	meta := NewMetaData()
	for _, p := range pl.points {
		meta.Merge(p)
	}
	return meta
}
