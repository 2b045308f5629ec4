package scene

import (
	"time"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/pointview/camera"
	"go.viam.com/pointview/pointcloud"
)

// Options are the fixed parameters of a scene. Everything the user can change at runtime lives in
// ViewState instead.
type Options struct {
	Width  int
	Height int

	FovYDeg float64
	// DefaultDistance places the camera at (d, d, d). It is restored on reset.
	DefaultDistance float64
	// DefaultOrigin is the screen origin offset restored on reset.
	DefaultOrigin r2.Point

	ZoomStep     float64
	FineZoomStep float64

	AngleStepDeg     float64
	FineAngleStepDeg float64

	AxisLength   float64
	CentroidMode pointcloud.CentroidMode

	// FrameBudget is the minimum time between two recompute passes.
	FrameBudget time.Duration
}

// DefaultOptions returns a 1000x600 viewport at 120 frames per second.
func DefaultOptions() Options {
	return Options{
		Width:            1000,
		Height:           600,
		FovYDeg:          10,
		DefaultDistance:  -600,
		DefaultOrigin:    r2.Point{X: 500, Y: -300},
		ZoomStep:         5,
		FineZoomStep:     0.5,
		AngleStepDeg:     1,
		FineAngleStepDeg: 0.5,
		AxisLength:       100,
		CentroidMode:     pointcloud.CentroidPairwise,
		FrameBudget:      FrameBudgetForFPS(120),
	}
}

// FrameBudgetForFPS returns the whole number of milliseconds per frame at the given rate. The
// division truncates, so 120 FPS gives 8ms.
func FrameBudgetForFPS(fps int) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(1000/fps) * time.Millisecond
}

// Validate returns every problem with the options.
func (o Options) Validate() error {
	var errs error
	cam := camera.NewDiagonalCamera(o.DefaultDistance, o.FovYDeg, o.Width, o.Height)
	if err := cam.CheckValid(); err != nil {
		errs = multierr.Append(errs, err)
	}
	if o.ZoomStep <= 0 || o.FineZoomStep <= 0 {
		errs = multierr.Append(errs, errors.Errorf("zoom steps must be positive, got %v and %v", o.ZoomStep, o.FineZoomStep))
	}
	if o.AngleStepDeg <= 0 || o.FineAngleStepDeg <= 0 {
		errs = multierr.Append(errs,
			errors.Errorf("angle steps must be positive, got %v and %v", o.AngleStepDeg, o.FineAngleStepDeg))
	}
	if o.AxisLength < 0 {
		errs = multierr.Append(errs, errors.Errorf("axis length cannot be negative, got %v", o.AxisLength))
	}
	if err := o.CentroidMode.Validate(); err != nil && o.CentroidMode != "" {
		errs = multierr.Append(errs, err)
	}
	if o.FrameBudget <= 0 {
		errs = multierr.Append(errs, errors.Errorf("frame budget must be positive, got %v", o.FrameBudget))
	}
	return errs
}
