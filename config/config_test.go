package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.viam.com/test"

	"go.viam.com/pointview/logging"
	"go.viam.com/pointview/pointcloud"
	"go.viam.com/pointview/scene"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	test.That(t, cfg.Validate(""), test.ShouldBeNil)
	test.That(t, cfg.PointsFile, test.ShouldEqual, "points.pts")
	test.That(t, cfg.FPS, test.ShouldEqual, 120)
	test.That(t, cfg.Level(), test.ShouldEqual, logging.INFO)

	opts := cfg.SceneOptions()
	test.That(t, opts, test.ShouldResemble, scene.DefaultOptions())
	test.That(t, opts.FrameBudget, test.ShouldEqual, 8*time.Millisecond)
	test.That(t, opts.DefaultDistance, test.ShouldEqual, -600.)
	test.That(t, opts.DefaultOrigin.X, test.ShouldEqual, 500.)
	test.That(t, opts.DefaultOrigin.Y, test.ShouldEqual, -300.)
}

func TestRead(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("POINTVIEW_TEST_FOV", "12.5")

	path := filepath.Join(dir, "viewer.json5")
	contents := `{
		// lenient JSON
		points_file: "cube.pts",
		window: {width: 800},
		camera: {fov_y_deg: ${POINTVIEW_TEST_FOV}, distance: -300},
		fps: 60,
		centroid: "mean",
		theme: {lines: "#ff00ff"},
		web: {allowed_origins: ["http://localhost:3000"]},
		log_level: "debug",
	}`
	test.That(t, os.WriteFile(path, []byte(contents), 0o600), test.ShouldBeNil)

	cfg, err := Read(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.ConfigFilePath, test.ShouldEqual, path)
	test.That(t, cfg.PointsFile, test.ShouldEqual, filepath.Join(dir, "cube.pts"))

	// set keys override, siblings keep their defaults
	test.That(t, cfg.Window.Width, test.ShouldEqual, 800)
	test.That(t, cfg.Window.Height, test.ShouldEqual, 600)
	test.That(t, cfg.Window.OriginX, test.ShouldEqual, 500.)
	test.That(t, cfg.Camera.FovYDeg, test.ShouldEqual, 12.5)
	test.That(t, cfg.Camera.Distance, test.ShouldEqual, -300.)
	test.That(t, cfg.Camera.ZoomStep, test.ShouldEqual, 5.)
	test.That(t, cfg.Centroid, test.ShouldEqual, pointcloud.CentroidMean)
	test.That(t, cfg.Theme.Lines, test.ShouldEqual, "#ff00ff")
	test.That(t, cfg.Theme.Background, test.ShouldEqual, "#101010")
	test.That(t, cfg.Web.AllowedOrigins, test.ShouldResemble, []string{"http://localhost:3000"})
	test.That(t, cfg.Web.Address, test.ShouldEqual, "localhost:8080")
	test.That(t, cfg.Level(), test.ShouldEqual, logging.DEBUG)

	opts := cfg.SceneOptions()
	test.That(t, opts.FrameBudget, test.ShouldEqual, 16*time.Millisecond)
	test.That(t, opts.Validate(), test.ShouldBeNil)
}

func TestReadAbsolutePointsFile(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "elsewhere.pts")
	cfg, err := FromReader("/etc/pointview/viewer.json", strings.NewReader(`{"points_file": "`+abs+`"}`))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.PointsFile, test.ShouldEqual, abs)
}

func TestReadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Read(filepath.Join(t.TempDir(), "nope.json"))
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "cannot read config")
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := FromReader("", strings.NewReader(`{window: `))
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "cannot parse config")
	})

	t.Run("unknown keys", func(t *testing.T) {
		_, err := FromReader("", strings.NewReader(`{bogus: 1, window: {depth: 3}}`))
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "unknown keys: bogus, window.depth")
	})

	t.Run("wrong type", func(t *testing.T) {
		_, err := FromReader("", strings.NewReader(`{window: {width: "wide"}}`))
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "cannot decode config")
	})

	t.Run("fractional size", func(t *testing.T) {
		_, err := FromReader("", strings.NewReader(`{window: {width: 1000.7}}`))
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "expected a whole number, got 1000.7")

		cfg, err := FromReader("", strings.NewReader(`{window: {width: 800.0}, fps: 60}`))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, cfg.Window.Width, test.ShouldEqual, 800)
		test.That(t, cfg.FPS, test.ShouldEqual, 60)
	})

	t.Run("invalid values", func(t *testing.T) {
		_, err := FromReader("", strings.NewReader(`{
			camera: {fov_y_deg: 90, distance: 0},
			fps: 0,
			centroid: "median",
			theme: {axis_x: "#nothex"},
		}`))
		test.That(t, err, test.ShouldNotBeNil)
		for _, field := range []string{"camera.fov_y_deg", "camera.distance", "fps", "centroid", "theme"} {
			test.That(t, err.Error(), test.ShouldContainSubstring, field)
		}
		test.That(t, err.Error(), test.ShouldNotContainSubstring, "window.width")
	})
}

func TestValidatePath(t *testing.T) {
	cfg := Default()
	cfg.PointsFile = ""
	cfg.Window.Height = -1
	cfg.LogLevel = "loud"

	err := cfg.Validate("viewer")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `"points_file" is required`)
	test.That(t, err.Error(), test.ShouldContainSubstring, "viewer.window.height")
	test.That(t, err.Error(), test.ShouldContainSubstring, "viewer.log_level")
}

func TestSchema(t *testing.T) {
	data, err := Schema()
	test.That(t, err, test.ShouldBeNil)

	var schema map[string]interface{}
	test.That(t, json.Unmarshal(data, &schema), test.ShouldBeNil)
	test.That(t, schema["title"], test.ShouldEqual, "pointview config")

	props, ok := schema["properties"].(map[string]interface{})
	test.That(t, ok, test.ShouldBeTrue)
	for _, key := range []string{"points_file", "window", "camera", "rotation", "fps", "centroid", "theme", "web"} {
		test.That(t, props, test.ShouldContainKey, key)
	}
	test.That(t, props, test.ShouldNotContainKey, "ConfigFilePath")
}
