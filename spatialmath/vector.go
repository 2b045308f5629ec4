// Package spatialmath defines the vector algebra and rotation transform applied to point clouds.
package spatialmath

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// Add returns a + b.
func Add(a, b r3.Vector) r3.Vector {
	return a.Add(b)
}

// Subtract returns a - b.
func Subtract(a, b r3.Vector) r3.Vector {
	return a.Sub(b)
}

// Dot returns the scalar product of a and b.
func Dot(a, b r3.Vector) float64 {
	return a.Dot(b)
}

// Cross returns the right-handed vector product a x b.
func Cross(a, b r3.Vector) r3.Vector {
	return a.Cross(b)
}

// Normalize returns v scaled to unit length. The zero vector has no direction and is returned
// unchanged.
func Normalize(v r3.Vector) r3.Vector {
	if v.X == 0 && v.Y == 0 && v.Z == 0 {
		return r3.Vector{}
	}
	length := v.Norm()
	return r3.Vector{X: v.X / length, Y: v.Y / length, Z: v.Z / length}
}

// Distance returns the euclidean distance between a and b.
func Distance(a, b r3.Vector) float64 {
	return a.Distance(b)
}

// IsFinite reports whether every component of v is a finite number.
func IsFinite(v r3.Vector) bool {
	return finite(v.X) && finite(v.Y) && finite(v.Z)
}

// IsFinitePoint reports whether both coordinates of a projected point are finite. Points at the
// camera depth project to infinity.
func IsFinitePoint(p r2.Point) bool {
	return finite(p.X) && finite(p.Y)
}

func finite(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}
