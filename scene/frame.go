package scene

import (
	"fmt"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/samber/lo"

	"go.viam.com/pointview/camera"
	"go.viam.com/pointview/pointcloud"
	"go.viam.com/pointview/utils"
)

// Line is a projected segment.
type Line struct {
	From r2.Point `json:"from"`
	To   r2.Point `json:"to"`
}

// RenderFrame is everything a renderer needs to draw one frame. Its slices are not shared with
// the scene.
type RenderFrame struct {
	Seq uint64 `json:"seq"`

	Width  int `json:"width"`
	Height int `json:"height"`

	// Points are the projected points, joined in order by a poly-line.
	Points []r2.Point `json:"points"`
	// Points3D are the world coordinates Points were projected from.
	Points3D []r3.Vector `json:"points_3d"`
	// Axes are the X, Y and Z axes from the world origin.
	Axes [3]Line `json:"axes"`

	Pivot       r3.Vector `json:"pivot"`
	PivotScreen r2.Point  `json:"pivot_screen"`

	// Angles are the accumulated rotation in degrees.
	Angles   r3.Vector `json:"angles"`
	Distance float64   `json:"distance"`
	Debug    bool      `json:"debug"`
}

// DebugHint is shown in place of the debug overlay while it is off.
const DebugHint = "[TAB] TO TOGGLE DEBUG INFO"

// Header is the line of text drawn in the top left corner.
func (f RenderFrame) Header() string {
	if !f.Debug {
		return DebugHint
	}
	return f.RotationInfo()
}

// RotationInfo is the debug overlay header, with each angle wrapped to (-360, 360).
func (f RenderFrame) RotationInfo() string {
	return fmt.Sprintf("ROTATION INFO:   X: %.2f DEG,   Y: %.2f DEG", utils.FmodDeg(f.Angles.X), utils.FmodDeg(f.Angles.Y))
}

// PointLabel formats a world coordinate for the debug overlay.
func PointLabel(p r3.Vector) string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", p.X, p.Y, p.Z)
}

func newRenderFrame(
	seq uint64,
	cam *camera.PinholeCamera,
	view ViewState,
	points *pointcloud.PointList,
	axisLength float64,
) RenderFrame {
	proj := cam.Projector(view.Origin)
	points3D := points.Clone().Points()

	origin := proj.Project(r3.Vector{})
	ends := []r3.Vector{{X: axisLength}, {Y: axisLength}, {Z: axisLength}}
	axes := lo.Map(ends, func(end r3.Vector, _ int) Line {
		return Line{From: origin, To: proj.Project(end)}
	})

	return RenderFrame{
		Seq:         seq,
		Width:       cam.Width,
		Height:      cam.Height,
		Points:      proj.ProjectAll(points3D, nil),
		Points3D:    points3D,
		Axes:        [3]Line{axes[0], axes[1], axes[2]},
		Pivot:       view.Pivot,
		PivotScreen: proj.Project(view.Pivot),
		Angles:      view.Angles,
		Distance:    view.Distance,
		Debug:       view.Debug,
	}
}
