package web

import (
	"github.com/go-viper/mapstructure/v2"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/pointview/render"
	"go.viam.com/pointview/scene"
	"go.viam.com/pointview/spatialmath"
)

// Event is the envelope of every message sent to and received from browser clients.
type Event struct {
	Name string      `json:"name"`
	Data interface{} `json:"data,omitempty"`
}

// Event names.
const (
	EventZoom        = "zoom"
	EventPan         = "pan"
	EventRotate      = "rotate"
	EventReset       = "reset"
	EventToggleDebug = "toggleDebug"
	EventReload      = "reload"

	EventFrame = "frame"
	EventTheme = "theme"
	EventError = "error"
)

// Input is a change requested of the scene. Inputs are applied by the session goroutine in the
// order they were submitted.
type Input interface {
	apply(s *scene.Scene) error
}

// ZoomInput is a mouse wheel movement of Amount notches.
type ZoomInput struct {
	Amount float64 `json:"amount"`
	Fine   bool    `json:"fine"`
}

func (in ZoomInput) apply(s *scene.Scene) error {
	s.OnZoomDelta(in.Amount, in.Fine)
	return nil
}

// PanInput is a mouse drag of (DX, DY) pixels.
type PanInput struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

func (in PanInput) apply(s *scene.Scene) error {
	s.OnPanDelta(in.DX, in.DY)
	return nil
}

// RotateInput is one rotation key press about Axis ("x" or "y"). Direction is +1 or -1.
type RotateInput struct {
	Axis      string  `json:"axis"`
	Direction float64 `json:"direction"`
	Fine      bool    `json:"fine"`
}

func (in RotateInput) apply(s *scene.Scene) error {
	var axis scene.Axis
	switch in.Axis {
	case "x", "X":
		axis = scene.AxisX
	case "y", "Y":
		axis = scene.AxisY
	default:
		return errors.Wrapf(scene.ErrUnsupportedAxis, "got %q", in.Axis)
	}
	if in.Direction != 1 && in.Direction != -1 {
		return errors.Errorf("rotation direction must be 1 or -1, got %v", in.Direction)
	}
	return s.OnRotateKey(axis, in.Direction, in.Fine)
}

// ResetInput restores the original points, zoom and pan.
type ResetInput struct{}

func (ResetInput) apply(s *scene.Scene) error {
	return s.OnReset()
}

// ToggleDebugInput flips the debug overlay.
type ToggleDebugInput struct{}

func (ToggleDebugInput) apply(s *scene.Scene) error {
	s.OnToggleDebug()
	return nil
}

// ReloadInput re-reads the points from their source.
type ReloadInput struct{}

func (ReloadInput) apply(s *scene.Scene) error {
	return s.Reload()
}

// DecodeInput converts an event received from a client into an Input.
func DecodeInput(event Event) (Input, error) {
	decode := func(out Input) (Input, error) {
		if event.Data == nil {
			return nil, errors.Errorf("%s event has no data", event.Name)
		}
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			TagName:     "json",
			Result:      out,
			ErrorUnused: true,
		})
		if err != nil {
			return nil, err
		}
		if err := decoder.Decode(event.Data); err != nil {
			return nil, errors.Wrapf(err, "invalid %s event", event.Name)
		}
		return out, nil
	}

	switch event.Name {
	case EventZoom:
		in, err := decode(&ZoomInput{})
		if err != nil {
			return nil, err
		}
		return *in.(*ZoomInput), nil
	case EventPan:
		in, err := decode(&PanInput{})
		if err != nil {
			return nil, err
		}
		return *in.(*PanInput), nil
	case EventRotate:
		in, err := decode(&RotateInput{})
		if err != nil {
			return nil, err
		}
		return *in.(*RotateInput), nil
	case EventReset:
		return ResetInput{}, nil
	case EventToggleDebug:
		return ToggleDebugInput{}, nil
	case EventReload:
		return ReloadInput{}, nil
	default:
		return nil, errors.Errorf("unknown event %q", event.Name)
	}
}

// wireFrame is a RenderFrame as sent to clients. JSON has no infinities, so coordinates that are
// not finite are sent as null.
type wireFrame struct {
	Seq    uint64 `json:"seq"`
	Width  int    `json:"width"`
	Height int    `json:"height"`

	Points [][]float64    `json:"points"`
	Axes   [3][][]float64 `json:"axes"`
	Pivot  []float64      `json:"pivot"`

	Debug  bool   `json:"debug"`
	Header string `json:"header"`
	// Labels are only filled in while the debug overlay is on.
	Labels     []string `json:"labels,omitempty"`
	PivotLabel string   `json:"pivot_label,omitempty"`

	Distance float64   `json:"distance"`
	Angles   []float64 `json:"angles"`
}

func newWireFrame(frame scene.RenderFrame) wireFrame {
	wf := wireFrame{
		Seq:      frame.Seq,
		Width:    frame.Width,
		Height:   frame.Height,
		Points:   lo.Map(frame.Points, func(p r2.Point, _ int) []float64 { return wirePoint(p) }),
		Pivot:    wirePoint(frame.PivotScreen),
		Debug:    frame.Debug,
		Header:   frame.Header(),
		Distance: frame.Distance,
		Angles:   wireVector(frame.Angles),
	}
	for i, axis := range frame.Axes {
		wf.Axes[i] = [][]float64{wirePoint(axis.From), wirePoint(axis.To)}
	}
	if frame.Debug {
		wf.Labels = lo.Map(frame.Points3D, func(p r3.Vector, _ int) string { return scene.PointLabel(p) })
		wf.PivotLabel = scene.PointLabel(frame.Pivot)
	}
	return wf
}

func wirePoint(p r2.Point) []float64 {
	if !spatialmath.IsFinitePoint(p) {
		return nil
	}
	return []float64{p.X, p.Y}
}

func wireVector(v r3.Vector) []float64 {
	if !spatialmath.IsFinite(v) {
		return nil
	}
	return []float64{v.X, v.Y, v.Z}
}

func frameEvent(frame scene.RenderFrame) Event {
	return Event{Name: EventFrame, Data: newWireFrame(frame)}
}

func themeEvent(theme render.Theme) Event {
	return Event{Name: EventTheme, Data: theme.Hex()}
}

func errorEvent(err error) Event {
	return Event{Name: EventError, Data: struct {
		Message string `json:"message"`
	}{err.Error()}}
}
