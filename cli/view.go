package cli

import (
	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/pointview/logging"
	"go.viam.com/pointview/pointcloud"
	"go.viam.com/pointview/render"
	"go.viam.com/pointview/scene"
)

// viewScript is the input the view flags stand for, replayed onto a fresh scene.
type viewScript struct {
	rotateX int
	rotateY int
	zoom    float64
	panX    float64
	panY    float64
	fine    bool
	overlay bool
}

func viewScriptFromFlags(c *cli.Context) viewScript {
	return viewScript{
		rotateX: c.Int(flagRotateX),
		rotateY: c.Int(flagRotateY),
		zoom:    c.Float64(flagZoom),
		panX:    c.Float64(flagPanX),
		panY:    c.Float64(flagPanY),
		fine:    c.Bool(flagFine),
		overlay: c.Bool(flagOverlay),
	}
}

// apply presses the keys, turns the wheel and drags the mouse, in that order. With overlay set the
// debug overlay is turned on; otherwise it is left as configured.
func (vs viewScript) apply(s *scene.Scene) error {
	rotate := func(axis scene.Axis, steps int) error {
		direction := 1.
		if steps < 0 {
			direction, steps = -1, -steps
		}
		for i := 0; i < steps; i++ {
			if err := s.OnRotateKey(axis, direction, vs.fine); err != nil {
				return err
			}
		}
		return nil
	}
	if err := rotate(scene.AxisX, vs.rotateX); err != nil {
		return err
	}
	if err := rotate(scene.AxisY, vs.rotateY); err != nil {
		return err
	}
	if vs.zoom != 0 && !s.OnZoomDelta(vs.zoom, vs.fine) {
		return errors.Errorf("zooming by %v steps would move the camera past the points", vs.zoom)
	}
	s.OnPanDelta(vs.panX, vs.panY)
	if vs.overlay && !s.View().Debug {
		s.OnToggleDebug()
	}
	return nil
}

// buildFrame loads pointsFile into a new scene, replays vs and returns the resulting frame. A scene
// created this way never ticks on its own, so the clock is irrelevant.
func buildFrame(st *settings, pointsFile string, vs viewScript, logger logging.Logger) (*scene.Scene, scene.RenderFrame, error) {
	s, err := newScene(st, pointsFile, clock.New(), logger)
	if err != nil {
		return nil, scene.RenderFrame{}, err
	}
	if err := vs.apply(s); err != nil {
		return nil, scene.RenderFrame{}, err
	}
	frame, _ := s.OnTick(s.Options().FrameBudget)
	return s, frame, nil
}

// newScene loads pointsFile with the configured options, with the debug overlay on if configured.
func newScene(st *settings, pointsFile string, clk clock.Clock, logger logging.Logger) (*scene.Scene, error) {
	s, err := scene.New(pointcloud.NewFileSource(pointsFile, logger), st.conf.SceneOptions(), clk, logger)
	if err != nil {
		return nil, err
	}
	if st.conf.Debug {
		s.OnToggleDebug()
	}
	return s, nil
}

func renderOptions(st *settings, supersample int) (render.Options, error) {
	theme, err := st.conf.Theme.Parse()
	if err != nil {
		return render.Options{}, err
	}
	opts := render.DefaultOptions()
	opts.Theme = theme
	opts.Supersample = supersample
	return opts, nil
}
