package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/pointview/utils"
)

// RotationMatrix is a 3x3 matrix in row major order.
type RotationMatrix struct {
	mat [9]float64
}

// NewIdentityRotationMatrix returns the identity matrix.
func NewIdentityRotationMatrix() *RotationMatrix {
	return &RotationMatrix{mat: [9]float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}}
}

// NewRotationMatrixX returns the right-handed rotation about the X axis by `rad` radians.
func NewRotationMatrixX(rad float64) *RotationMatrix {
	sin, cos := math.Sincos(rad)
	return &RotationMatrix{mat: [9]float64{
		1, 0, 0,
		0, cos, -sin,
		0, sin, cos,
	}}
}

// NewRotationMatrixY returns the right-handed rotation about the Y axis by `rad` radians.
func NewRotationMatrixY(rad float64) *RotationMatrix {
	sin, cos := math.Sincos(rad)
	return &RotationMatrix{mat: [9]float64{
		cos, 0, sin,
		0, 1, 0,
		-sin, 0, cos,
	}}
}

// NewRotationMatrixZ returns the right-handed rotation about the Z axis by `rad` radians.
func NewRotationMatrixZ(rad float64) *RotationMatrix {
	sin, cos := math.Sincos(rad)
	return &RotationMatrix{mat: [9]float64{
		cos, -sin, 0,
		sin, cos, 0,
		0, 0, 1,
	}}
}

// At returns the value at the given row and column.
func (rm *RotationMatrix) At(row, col int) float64 {
	return rm.mat[row*3+col]
}

// Row returns the row at the given index as a vector.
func (rm *RotationMatrix) Row(row int) r3.Vector {
	return r3.Vector{X: rm.mat[row*3], Y: rm.mat[row*3+1], Z: rm.mat[row*3+2]}
}

// Mul returns the matrix product rm * other.
func (rm *RotationMatrix) Mul(other *RotationMatrix) *RotationMatrix {
	var out RotationMatrix
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += rm.At(row, k) * other.At(k, col)
			}
			out.mat[row*3+col] = sum
		}
	}
	return &out
}

// Apply returns rm * v.
func (rm *RotationMatrix) Apply(v r3.Vector) r3.Vector {
	return r3.Vector{X: Dot(rm.Row(0), v), Y: Dot(rm.Row(1), v), Z: Dot(rm.Row(2), v)}
}

// NewRotationMatrixXYZ returns the rotation that turns by xDeg degrees about X, then yDeg about Y,
// then zDeg about Z. An angle of exactly zero contributes no factor.
func NewRotationMatrixXYZ(xDeg, yDeg, zDeg float64) *RotationMatrix {
	rm := NewIdentityRotationMatrix()
	if xDeg != 0 {
		rm = NewRotationMatrixX(utils.DegToRad(xDeg)).Mul(rm)
	}
	if yDeg != 0 {
		rm = NewRotationMatrixY(utils.DegToRad(yDeg)).Mul(rm)
	}
	if zDeg != 0 {
		rm = NewRotationMatrixZ(utils.DegToRad(zDeg)).Mul(rm)
	}
	return rm
}

// Rotate rotates point about pivot by the given angles in degrees. The X rotation is applied
// first, then Y, then Z. When every angle is zero the point is returned as is and changed is
// false.
func Rotate(point, pivot r3.Vector, xDeg, yDeg, zDeg float64) (rotated r3.Vector, changed bool) {
	if xDeg == 0 && yDeg == 0 && zDeg == 0 {
		return point, false
	}
	return rotateAbout(NewRotationMatrixXYZ(xDeg, yDeg, zDeg), point, pivot), true
}

// RotateAll rotates every point in place about pivot. It reports whether anything was rotated.
func RotateAll(points []r3.Vector, pivot r3.Vector, xDeg, yDeg, zDeg float64) bool {
	if xDeg == 0 && yDeg == 0 && zDeg == 0 {
		return false
	}
	rm := NewRotationMatrixXYZ(xDeg, yDeg, zDeg)
	for i, p := range points {
		points[i] = rotateAbout(rm, p, pivot)
	}
	return true
}

func rotateAbout(rm *RotationMatrix, point, pivot r3.Vector) r3.Vector {
	return Add(rm.Apply(Subtract(point, pivot)), pivot)
}
