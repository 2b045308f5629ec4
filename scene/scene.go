// Package scene keeps a loaded point list, its projection and the user's view of it consistent
// from frame to frame.
//
// A Scene is driven from a single goroutine: input handlers mark it dirty and the frame tick
// rotates and reprojects the points. Nothing in this package is safe for concurrent use.
package scene

import (
	"fmt"
	"math"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/pointview/camera"
	"go.viam.com/pointview/logging"
	"go.viam.com/pointview/pointcloud"
	"go.viam.com/pointview/spatialmath"
)

// State says whether the current frame reflects the latest input.
type State int

const (
	// Idle means the last frame is up to date.
	Idle State = iota
	// Dirty means input arrived since the last frame and the next tick must recompute.
	Dirty
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dirty:
		return "dirty"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Axis is a rotation axis that can be driven from input.
type Axis int

// Only X and Y rotations are bound to input.
const (
	AxisX Axis = iota
	AxisY
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	default:
		return fmt.Sprintf("Axis(%d)", int(a))
	}
}

// ErrUnsupportedAxis is returned for rotation input about any axis other than X or Y.
var ErrUnsupportedAxis = errors.New("only the X and Y axes can be rotated")

// ViewState is what the user has done to the view since the last reset.
type ViewState struct {
	// Angles are the rotations in degrees accumulated since the last reset or reload.
	Angles r3.Vector
	// Origin is the screen origin offset, moved by panning.
	Origin r2.Point
	// Distance is the camera's coordinate along each axis.
	Distance float64
	// Pivot is the point rotations are applied about.
	Pivot r3.Vector
	// Debug enables the debug overlay.
	Debug bool
}

// Scene owns the points being viewed.
type Scene struct {
	opts   Options
	source pointcloud.Source
	clock  clock.Clock
	logger logging.Logger

	points  *pointcloud.PointList
	view    ViewState
	applied r3.Vector
	state   State

	gate     frameGate
	lastTick time.Time
	seq      uint64
	frame    RenderFrame
}

// New loads the points from source and computes the first frame. A source that cannot be read, or
// that holds no points, is an error.
func New(source pointcloud.Source, opts Options, clk clock.Clock, logger logging.Logger) (*Scene, error) {
	if err := opts.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid scene options")
	}
	if clk == nil {
		clk = clock.New()
	}

	s := &Scene{
		opts:   opts,
		source: source,
		clock:  clk,
		logger: logger,
		view: ViewState{
			Origin:   opts.DefaultOrigin,
			Distance: opts.DefaultDistance,
		},
		gate:     frameGate{budget: opts.FrameBudget},
		lastTick: clk.Now(),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	logger.Infow("scene loaded", "source", source.Name(), "points", s.points.Size(), "pivot", s.view.Pivot)

	s.step()
	return s, nil
}

// load replaces the points with a fresh read of the source and recomputes the pivot. On failure
// the scene is left untouched.
func (s *Scene) load() error {
	points, err := s.source.Load()
	if err != nil {
		return errors.Wrapf(err, "cannot load points from %s", s.source.Name())
	}
	pivot, err := pointcloud.CloudCentroid(points, s.opts.CentroidMode)
	if err != nil {
		return errors.Wrapf(err, "cannot load points from %s", s.source.Name())
	}

	s.points = points
	s.view.Pivot = pivot
	s.view.Angles = r3.Vector{}
	s.applied = r3.Vector{}
	s.state = Dirty
	return nil
}

// OnZoomDelta moves the camera along its diagonal by amount zoom steps. Moves that would put the
// camera at the target, on the other side of it or at no finite distance are rejected and
// reported as false.
func (s *Scene) OnZoomDelta(amount float64, fine bool) bool {
	step := s.opts.ZoomStep
	if fine {
		step = s.opts.FineZoomStep
	}
	next := s.view.Distance + amount*step
	if next == 0 || math.IsInf(next, 0) || math.IsNaN(next) || (next > 0) != (s.view.Distance > 0) {
		s.logger.Debugw("zoom rejected", "distance", s.view.Distance, "delta", amount*step)
		return false
	}
	if next == s.view.Distance {
		return true
	}
	s.view.Distance = next
	s.state = Dirty
	return true
}

// OnPanDelta moves the screen origin by a mouse drag of (dx, dy) pixels. Screen Y grows downward
// while the origin's Y is negated on projection, hence the opposite signs.
func (s *Scene) OnPanDelta(dx, dy float64) {
	if dx == 0 && dy == 0 {
		return
	}
	s.view.Origin.X += dx
	s.view.Origin.Y -= dy
	s.state = Dirty
}

// OnRotateKey adds one rotation step about axis in the given direction (+1 or -1). The points are
// rotated on the next tick.
func (s *Scene) OnRotateKey(axis Axis, direction float64, fine bool) error {
	step := s.opts.AngleStepDeg
	if fine {
		step = s.opts.FineAngleStepDeg
	}
	switch axis {
	case AxisX:
		s.view.Angles.X += direction * step
	case AxisY:
		s.view.Angles.Y += direction * step
	default:
		return errors.Wrapf(ErrUnsupportedAxis, "got %v", axis)
	}
	s.state = Dirty
	return nil
}

// OnToggleDebug flips the debug overlay.
func (s *Scene) OnToggleDebug() bool {
	s.view.Debug = !s.view.Debug
	s.state = Dirty
	return s.view.Debug
}

// OnReset restores the default camera distance and screen origin. If the points have been rotated
// they are re-read from the source instead of being rotated back. If that read fails nothing
// changes and the error is returned.
func (s *Scene) OnReset() error {
	if s.view.Angles != (r3.Vector{}) || s.applied != (r3.Vector{}) {
		if err := s.load(); err != nil {
			return err
		}
		s.logger.Debugw("points reloaded for reset", "source", s.source.Name())
	}
	s.view.Distance = s.opts.DefaultDistance
	s.view.Origin = s.opts.DefaultOrigin
	s.state = Dirty
	return nil
}

// Reload re-reads the source unconditionally, e.g. after the file changed on disk. Rotation starts
// over from the new points; the camera and pan are kept.
func (s *Scene) Reload() error {
	if err := s.load(); err != nil {
		return err
	}
	s.logger.Infow("points reloaded", "source", s.source.Name(), "points", s.points.Size())
	return nil
}

// OnTick advances the frame gate by elapsed. When a full frame budget has elapsed and the scene is
// dirty, the pending rotation is applied, everything is reprojected and the new frame is returned
// with true. Otherwise the previous frame is returned with false.
func (s *Scene) OnTick(elapsed time.Duration) (RenderFrame, bool) {
	if !s.gate.advance(elapsed) || s.state == Idle {
		return s.frame, false
	}
	s.step()
	return s.frame, true
}

// Tick is OnTick with the time elapsed on the scene's clock since the previous Tick.
func (s *Scene) Tick() (RenderFrame, bool) {
	now := s.clock.Now()
	elapsed := now.Sub(s.lastTick)
	s.lastTick = now
	return s.OnTick(elapsed)
}

func (s *Scene) step() {
	delta := spatialmath.Subtract(s.view.Angles, s.applied)
	if spatialmath.RotateAll(s.points.Points(), s.view.Pivot, delta.X, delta.Y, 0) {
		s.applied = s.view.Angles
	}

	s.seq++
	s.frame = newRenderFrame(s.seq, s.Camera(), s.view, s.points, s.opts.AxisLength)
	s.state = Idle
}

// Frame returns the most recent frame.
func (s *Scene) Frame() RenderFrame {
	return s.frame
}

// State returns whether input is waiting for the next tick.
func (s *Scene) State() State {
	return s.state
}

// View returns the current view state.
func (s *Scene) View() ViewState {
	return s.view
}

// Options returns the options the scene was created with.
func (s *Scene) Options() Options {
	return s.opts
}

// Source returns where the points are loaded from.
func (s *Scene) Source() pointcloud.Source {
	return s.source
}

// Camera returns the camera for the current zoom.
func (s *Scene) Camera() *camera.PinholeCamera {
	return camera.NewDiagonalCamera(s.view.Distance, s.opts.FovYDeg, s.opts.Width, s.opts.Height)
}

// Points returns a copy of the current, possibly rotated, points.
func (s *Scene) Points() []r3.Vector {
	return s.points.Clone().Points()
}

// frameGate lets one recompute through per budget of accumulated time.
type frameGate struct {
	budget time.Duration
	waited time.Duration
}

func (g *frameGate) advance(elapsed time.Duration) bool {
	if elapsed > 0 {
		g.waited += elapsed
	}
	if g.waited < g.budget {
		return false
	}
	g.waited = 0
	return true
}
