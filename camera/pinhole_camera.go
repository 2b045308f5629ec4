// Package camera projects 3D points onto a 2D viewport through a look-at pinhole camera.
package camera

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/pointview/spatialmath"
	"go.viam.com/pointview/utils"
)

// ErrInvalidCamera is wrapped by every CheckValid failure.
var ErrInvalidCamera = errors.New("invalid camera parameters")

func newInvalidCameraError(msg string) error {
	return errors.Wrap(ErrInvalidCamera, msg)
}

// PinholeCamera holds everything needed to do a perspective projection of the scene.
type PinholeCamera struct {
	Position r3.Vector `json:"position"`
	Target   r3.Vector `json:"target"`
	Up       r3.Vector `json:"up"`
	FovYDeg  float64   `json:"fov_y_deg"`
	Width    int       `json:"width_px"`
	Height   int       `json:"height_px"`
}

// NewDiagonalCamera returns a camera at (distance, distance, distance) looking at the world origin
// with +Y up. A negative distance places the camera in the negative octant.
func NewDiagonalCamera(distance, fovYDeg float64, width, height int) *PinholeCamera {
	return &PinholeCamera{
		Position: r3.Vector{X: distance, Y: distance, Z: distance},
		Up:       r3.Vector{Y: 1},
		FovYDeg:  fovYDeg,
		Width:    width,
		Height:   height,
	}
}

// CheckValid checks that the camera can produce a finite projection.
func (c *PinholeCamera) CheckValid() error {
	if c == nil {
		return newInvalidCameraError("camera is nil")
	}
	if c.Width <= 0 || c.Height <= 0 {
		return newInvalidCameraError(fmt.Sprintf("invalid size (%d, %d)", c.Width, c.Height))
	}
	if c.FovYDeg <= 0 || c.FovYDeg >= 90 {
		return newInvalidCameraError(fmt.Sprintf("vertical field of view must be in (0, 90) degrees, got %v", c.FovYDeg))
	}
	if c.Position == c.Target {
		return newInvalidCameraError("camera position and target coincide")
	}
	basis := NewBasis(c.Position, c.Target, c.Up)
	if basis.Right == (r3.Vector{}) {
		return newInvalidCameraError("up direction is parallel to the view direction")
	}
	return nil
}

// FocalLengths returns the horizontal and vertical focal lengths in pixels. The vertical one is
// the full viewport height over tan(fov); the field of view is not halved.
func (c *PinholeCamera) FocalLengths() (fx, fy float64) {
	fy = float64(c.Height) / math.Tan(utils.DegToRad(c.FovYDeg))
	fx = fy * float64(c.Width) / float64(c.Height)
	return fx, fy
}

// Basis is the camera's orthonormal frame in world coordinates.
type Basis struct {
	Forward r3.Vector
	Right   r3.Vector
	Up      r3.Vector
}

// NewBasis derives the view frame of a camera at pos looking at target.
func NewBasis(pos, target, up r3.Vector) Basis {
	forward := spatialmath.Normalize(spatialmath.Subtract(target, pos))
	right := spatialmath.Normalize(spatialmath.Cross(up, forward))
	return Basis{
		Forward: forward,
		Right:   right,
		Up:      spatialmath.Cross(forward, right),
	}
}

// Projector projects points for one fixed camera pose and screen origin. Build one per frame
// rather than per point.
type Projector struct {
	basis    Basis
	position r3.Vector
	fx, fy   float64
	origin   r2.Point
}

// Projector returns a Projector for the current pose, offset by the given screen origin.
func (c *PinholeCamera) Projector(origin r2.Point) *Projector {
	fx, fy := c.FocalLengths()
	return &Projector{
		basis:    NewBasis(c.Position, c.Target, c.Up),
		position: c.Position,
		fx:       fx,
		fy:       fy,
		origin:   origin,
	}
}

// Basis returns the view frame used by the projector.
func (p *Projector) Basis() Basis {
	return p.basis
}

// ToCamera expresses pt in camera coordinates: X right, Y up, Z depth along the view direction.
func (p *Projector) ToCamera(pt r3.Vector) r3.Vector {
	rel := spatialmath.Subtract(pt, p.position)
	return r3.Vector{
		X: spatialmath.Dot(p.basis.Right, rel),
		Y: spatialmath.Dot(p.basis.Up, rel),
		Z: spatialmath.Dot(p.basis.Forward, rel),
	}
}

// Project maps pt to screen coordinates. Screen Y grows downward, so the vertical term is negated
// along with the origin.
//
// A point at zero depth has no perspective image. Each coordinate then becomes an infinity with
// the sign the division would have had, or the origin value when its numerator is also zero.
func (p *Projector) Project(pt r3.Vector) r2.Point {
	cam := p.ToCamera(pt)
	nx := cam.X * p.fx
	ny := cam.Y * p.fy
	if cam.Z == 0 {
		return r2.Point{X: p.origin.X + signedInf(nx), Y: -(p.origin.Y + signedInf(ny))}
	}
	return r2.Point{
		X: nx/cam.Z + p.origin.X,
		Y: -(p.origin.Y + ny/cam.Z),
	}
}

// ProjectAll projects pts into out, growing it if needed, and returns it.
func (p *Projector) ProjectAll(pts []r3.Vector, out []r2.Point) []r2.Point {
	if cap(out) < len(pts) {
		out = make([]r2.Point, len(pts))
	}
	out = out[:len(pts)]
	for i, pt := range pts {
		out[i] = p.Project(pt)
	}
	return out
}

func signedInf(numerator float64) float64 {
	switch {
	case numerator > 0:
		return math.Inf(1)
	case numerator < 0:
		return math.Inf(-1)
	default:
		return 0
	}
}

// Project maps point to the screen for a camera at cameraPos looking at cameraTarget.
func Project(
	point, cameraPos, cameraTarget, cameraUp r3.Vector,
	fovYDeg, originX, originY float64,
	width, height int,
) r2.Point {
	c := PinholeCamera{
		Position: cameraPos,
		Target:   cameraTarget,
		Up:       cameraUp,
		FovYDeg:  fovYDeg,
		Width:    width,
		Height:   height,
	}
	return c.Projector(r2.Point{X: originX, Y: originY}).Project(point)
}
