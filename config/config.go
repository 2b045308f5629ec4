// Package config defines the viewer configuration file and how it maps onto scene options.
package config

import (
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"go.viam.com/pointview/logging"
	"go.viam.com/pointview/pointcloud"
	"go.viam.com/pointview/render"
	"go.viam.com/pointview/scene"
)

// DefaultPointsFile is read when no points file is configured.
const DefaultPointsFile = "points.pts"

// Config is the top level viewer configuration.
type Config struct {
	// ConfigFilePath is where the config was read from, if anywhere.
	ConfigFilePath string `json:"-"`

	PointsFile string                  `json:"points_file" jsonschema:"description=path of the point list; relative paths are resolved against the config file"`
	Window     WindowConfig            `json:"window"`
	Camera     CameraConfig            `json:"camera"`
	Rotation   RotationConfig          `json:"rotation"`
	FPS        int                     `json:"fps" jsonschema:"minimum=1"`
	AxisLength float64                 `json:"axis_length" jsonschema:"minimum=0"`
	Centroid   pointcloud.CentroidMode `json:"centroid" jsonschema:"enum=pairwise,enum=mean"`
	Theme      render.ThemeConfig      `json:"theme"`

	// Watch reloads the points whenever the points file changes.
	Watch bool      `json:"watch"`
	Web   WebConfig `json:"web"`

	// Debug starts with the debug overlay shown.
	Debug    bool   `json:"debug"`
	LogLevel string `json:"log_level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
	LogFile  string `json:"log_file,omitempty"`
}

// WindowConfig is the viewport size and the screen origin offset.
type WindowConfig struct {
	Width   int     `json:"width" jsonschema:"minimum=1"`
	Height  int     `json:"height" jsonschema:"minimum=1"`
	OriginX float64 `json:"origin_x"`
	OriginY float64 `json:"origin_y"`
}

// CameraConfig places the camera at (distance, distance, distance) looking at the world origin.
type CameraConfig struct {
	Distance     float64 `json:"distance"`
	FovYDeg      float64 `json:"fov_y_deg" jsonschema:"minimum=0,exclusiveMinimum=true,maximum=90,exclusiveMaximum=true"`
	ZoomStep     float64 `json:"zoom_step" jsonschema:"minimum=0,exclusiveMinimum=true"`
	FineZoomStep float64 `json:"fine_zoom_step" jsonschema:"minimum=0,exclusiveMinimum=true"`
}

// RotationConfig is how far one rotation input turns the points.
type RotationConfig struct {
	StepDeg     float64 `json:"step_deg" jsonschema:"minimum=0,exclusiveMinimum=true"`
	FineStepDeg float64 `json:"fine_step_deg" jsonschema:"minimum=0,exclusiveMinimum=true"`
}

// WebConfig configures the browser viewer.
type WebConfig struct {
	Address        string   `json:"address"`
	AllowedOrigins []string `json:"allowed_origins,omitempty"`
	// InputRate is the number of input events per second accepted from one client.
	InputRate  float64 `json:"input_rate" jsonschema:"minimum=0,exclusiveMinimum=true"`
	InputBurst int     `json:"input_burst" jsonschema:"minimum=1"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	opts := scene.DefaultOptions()
	return &Config{
		PointsFile: DefaultPointsFile,
		Window: WindowConfig{
			Width:   opts.Width,
			Height:  opts.Height,
			OriginX: opts.DefaultOrigin.X,
			OriginY: opts.DefaultOrigin.Y,
		},
		Camera: CameraConfig{
			Distance:     opts.DefaultDistance,
			FovYDeg:      opts.FovYDeg,
			ZoomStep:     opts.ZoomStep,
			FineZoomStep: opts.FineZoomStep,
		},
		Rotation: RotationConfig{
			StepDeg:     opts.AngleStepDeg,
			FineStepDeg: opts.FineAngleStepDeg,
		},
		FPS:        120,
		AxisLength: opts.AxisLength,
		Centroid:   opts.CentroidMode,
		Theme:      render.DefaultThemeConfig(),
		Web: WebConfig{
			Address:    "localhost:8080",
			InputRate:  240,
			InputBurst: 60,
		},
		LogLevel: "info",
	}
}

// Validate returns every problem with the config, each naming the offending field under path.
func (c *Config) Validate(path string) error {
	var errs error
	field := func(name string) string {
		if path == "" {
			return name
		}
		return path + "." + name
	}
	invalid := func(name string, format string, args ...interface{}) {
		errs = multierr.Append(errs, goutils.NewConfigValidationError(field(name), errors.Errorf(format, args...)))
	}

	if c.PointsFile == "" {
		errs = multierr.Append(errs, goutils.NewConfigValidationFieldRequiredError(path, "points_file"))
	}
	if c.Window.Width <= 0 {
		invalid("window.width", "must be positive, got %d", c.Window.Width)
	}
	if c.Window.Height <= 0 {
		invalid("window.height", "must be positive, got %d", c.Window.Height)
	}
	if c.Camera.Distance == 0 {
		invalid("camera.distance", "cannot be zero")
	}
	if c.Camera.FovYDeg <= 0 || c.Camera.FovYDeg >= 90 {
		invalid("camera.fov_y_deg", "must be in (0, 90), got %v", c.Camera.FovYDeg)
	}
	if c.Camera.ZoomStep <= 0 {
		invalid("camera.zoom_step", "must be positive, got %v", c.Camera.ZoomStep)
	}
	if c.Camera.FineZoomStep <= 0 {
		invalid("camera.fine_zoom_step", "must be positive, got %v", c.Camera.FineZoomStep)
	}
	if c.Rotation.StepDeg <= 0 {
		invalid("rotation.step_deg", "must be positive, got %v", c.Rotation.StepDeg)
	}
	if c.Rotation.FineStepDeg <= 0 {
		invalid("rotation.fine_step_deg", "must be positive, got %v", c.Rotation.FineStepDeg)
	}
	if c.FPS <= 0 || c.FPS > 1000 {
		invalid("fps", "must be in [1, 1000], got %d", c.FPS)
	}
	if c.AxisLength < 0 {
		invalid("axis_length", "cannot be negative, got %v", c.AxisLength)
	}
	if err := c.Centroid.Validate(); err != nil {
		errs = multierr.Append(errs, goutils.NewConfigValidationError(field("centroid"), err))
	}
	if _, err := c.Theme.Parse(); err != nil {
		errs = multierr.Append(errs, goutils.NewConfigValidationError(field("theme"), err))
	}
	if c.Web.InputRate <= 0 {
		invalid("web.input_rate", "must be positive, got %v", c.Web.InputRate)
	}
	if c.Web.InputBurst <= 0 {
		invalid("web.input_burst", "must be positive, got %d", c.Web.InputBurst)
	}
	if _, err := logging.LevelFromString(c.LogLevel); err != nil {
		errs = multierr.Append(errs, goutils.NewConfigValidationError(field("log_level"), err))
	}
	return errs
}

// SceneOptions converts the config to the options a scene is created with.
func (c *Config) SceneOptions() scene.Options {
	return scene.Options{
		Width:            c.Window.Width,
		Height:           c.Window.Height,
		FovYDeg:          c.Camera.FovYDeg,
		DefaultDistance:  c.Camera.Distance,
		DefaultOrigin:    r2.Point{X: c.Window.OriginX, Y: c.Window.OriginY},
		ZoomStep:         c.Camera.ZoomStep,
		FineZoomStep:     c.Camera.FineZoomStep,
		AngleStepDeg:     c.Rotation.StepDeg,
		FineAngleStepDeg: c.Rotation.FineStepDeg,
		AxisLength:       c.AxisLength,
		CentroidMode:     c.Centroid,
		FrameBudget:      scene.FrameBudgetForFPS(c.FPS),
	}
}

// Level returns the configured log level. Validate must have passed.
func (c *Config) Level() logging.Level {
	level, err := logging.LevelFromString(c.LogLevel)
	if err != nil {
		return logging.INFO
	}
	return level
}
