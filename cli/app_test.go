package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/jpeg"
	"image/png"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"go.viam.com/utils/testutils"

	"go.viam.com/pointview/config"
	"go.viam.com/pointview/logging"
	"go.viam.com/pointview/scene"
)

const (
	squareFile = "testdata/square.pts"
	cubeFile   = "testdata/cube.pts"
)

// syncBuffer is a bytes.Buffer safe to write from a running command while the test reads it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (sb *syncBuffer) Write(p []byte) (int, error) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.buf.Write(p)
}

func (sb *syncBuffer) String() string {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.buf.String()
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut syncBuffer
	err := NewApp(&out, &errOut).Run(append([]string{"pointview"}, args...))
	if errOut.String() != "" {
		t.Log(errOut.String())
	}
	return out.String(), err
}

func decodeImage(t *testing.T, path string, decode func(f *os.File) (image.Image, error)) image.Image {
	t.Helper()
	//nolint:gosec
	f, err := os.Open(path)
	test.That(t, err, test.ShouldBeNil)
	defer func() {
		test.That(t, f.Close(), test.ShouldBeNil)
	}()
	img, err := decode(f)
	test.That(t, err, test.ShouldBeNil)
	return img
}

func TestSchema(t *testing.T) {
	out, err := run(t, "schema")
	test.That(t, err, test.ShouldBeNil)
	var schema map[string]interface{}
	test.That(t, json.Unmarshal([]byte(out), &schema), test.ShouldBeNil)
	test.That(t, schema["title"], test.ShouldEqual, "pointview config")
	test.That(t, out, test.ShouldContainSubstring, "points_file")
}

func TestGlobalFlagErrors(t *testing.T) {
	_, err := run(t, "--log-level", "loud", "schema")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "--log-level")

	_, err = run(t, "--config", filepath.Join(t.TempDir(), "missing.json"), "schema")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "cannot read config")
}

func TestLogFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "pointview.log")
	_, err := run(t, "--log-file", logFile, "--log-level", "debug", "inspect", squareFile)
	test.That(t, err, test.ShouldBeNil)

	contents, err := os.ReadFile(logFile)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(contents), test.ShouldContainSubstring, "scene loaded")
}

func TestInspect(t *testing.T) {
	out, err := run(t, "inspect", squareFile)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "testdata/square.pts: 4 points, 32B")
	test.That(t, out, test.ShouldContainSubstring, "ROTATION INFO:   X: 0.00 DEG,   Y: 0.00 DEG")
	test.That(t, out, test.ShouldContainSubstring, "100.000")
	test.That(t, out, test.ShouldContainSubstring, "PIVOT")
	// the pivot of the square is (37.5, 75, 0)
	test.That(t, out, test.ShouldContainSubstring, "37.500")
	test.That(t, out, test.ShouldContainSubstring, "distance to pivot: min 45.069, median 75.584, mean 73.466, max 97.628")
	test.That(t, out, test.ShouldContainSubstring,
		"bounds: x [0.000, 100.000], y [0.000, 100.000], z [0.000, 0.000], center (50.000, 50.000, 0.000)")

	out, err = run(t, "inspect", "--rotate-y", "-90", "--limit", "2", squareFile)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "Y: -90.00 DEG")
	test.That(t, out, test.ShouldContainSubstring, "...")
	// rotation about the pivot keeps every distance
	test.That(t, out, test.ShouldContainSubstring, "mean 73.466")
}

func TestInspectErrors(t *testing.T) {
	_, err := run(t, "inspect", squareFile, cubeFile)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "at most one points file")

	_, err = run(t, "inspect", filepath.Join(t.TempDir(), "missing.pts"))
	test.That(t, err, test.ShouldNotBeNil)

	// the default distance is 120 zoom steps from the target
	_, err = run(t, "inspect", "--zoom", "120", squareFile)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "past the points")
}

func TestSnapshot(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "snapshot", "--out-dir", dir, "--parallel", "2", squareFile, cubeFile)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "square.png")
	test.That(t, out, test.ShouldContainSubstring, "cube.png")

	for _, name := range []string{"square.png", "cube.png"} {
		img := decodeImage(t, filepath.Join(dir, name), func(f *os.File) (image.Image, error) { return png.Decode(f) })
		test.That(t, img.Bounds().Dx(), test.ShouldEqual, 1000)
		test.That(t, img.Bounds().Dy(), test.ShouldEqual, 600)
	}

	jpgFile := filepath.Join(dir, "turned.jpg")
	_, err = run(t, "snapshot", "--out", jpgFile, "--rotate-x", "30", "--rotate-y", "-15", "--zoom", "10",
		"--pan-x", "40", "--overlay", "--supersample", "1", cubeFile)
	test.That(t, err, test.ShouldBeNil)
	img := decodeImage(t, jpgFile, func(f *os.File) (image.Image, error) { return jpeg.Decode(f) })
	test.That(t, img.Bounds().Dx(), test.ShouldEqual, 1000)

	_, err = run(t, "snapshot", "--out-dir", dir, "--format", "qoi", squareFile)
	test.That(t, err, test.ShouldBeNil)
	_, err = os.Stat(filepath.Join(dir, "square.qoi"))
	test.That(t, err, test.ShouldBeNil)
}

func TestSnapshotErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, "snapshot", "--out", filepath.Join(dir, "both.png"), squareFile, cubeFile)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "exactly one points file")

	_, err = run(t, "snapshot", "--out-dir", dir, "--format", "gif", squareFile)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unsupported image format")

	_, err = run(t, "snapshot", "--out-dir", dir, squareFile, squareFile)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "would both be written")

	_, err = run(t, "snapshot", "--out-dir", dir, "--supersample", "9", squareFile)
	test.That(t, err, test.ShouldNotBeNil)

	// a failed render leaves no image behind
	missing := filepath.Join(dir, "missing.pts")
	_, err = run(t, "snapshot", "--out-dir", dir, missing)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = os.Stat(filepath.Join(dir, "missing.png"))
	test.That(t, os.IsNotExist(err), test.ShouldBeTrue)
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	points, err := os.ReadFile(squareFile)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, os.WriteFile(filepath.Join(dir, "mine.pts"), points, 0o600), test.ShouldBeNil)

	confFile := filepath.Join(dir, "viewer.json5")
	conf := `{
		// relative to this file
		points_file: "mine.pts",
		window: {width: 200, height: 100, origin_x: 100, origin_y: -50},
		theme: {background: "000000"},
	}`
	test.That(t, os.WriteFile(confFile, []byte(conf), 0o600), test.ShouldBeNil)

	out := filepath.Join(dir, "small.png")
	_, err = run(t, "--config", confFile, "snapshot", "--out", out)
	test.That(t, err, test.ShouldBeNil)
	img := decodeImage(t, out, func(f *os.File) (image.Image, error) { return png.Decode(f) })
	test.That(t, img.Bounds().Dx(), test.ShouldEqual, 200)
	test.That(t, img.Bounds().Dy(), test.ShouldEqual, 100)
	r, g, b, _ := img.At(199, 99).RGBA()
	test.That(t, []uint32{r, g, b}, test.ShouldResemble, []uint32{0, 0, 0})
}

func TestViewScript(t *testing.T) {
	logger := logging.NewTestLogger(t)
	st := &settings{conf: config.Default(), logger: logger}

	s, frame, err := buildFrame(st, squareFile, viewScript{rotateX: -3, rotateY: 2, fine: true, overlay: true}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, frame.Angles, test.ShouldResemble, r3.Vector{X: -1.5, Y: 1})
	test.That(t, frame.Debug, test.ShouldBeTrue)
	test.That(t, s.State(), test.ShouldEqual, scene.Idle)

	_, frame, err = buildFrame(st, squareFile, viewScript{zoom: 2, panX: 10, panY: 20}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, frame.Distance, test.ShouldEqual, -590.)
	test.That(t, frame.Debug, test.ShouldBeFalse)
	test.That(t, frame.Axes[0].From.X, test.ShouldAlmostEqual, 510, 1e-9)

	st.conf.Debug = true
	_, frame, err = buildFrame(st, squareFile, viewScript{}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, frame.Debug, test.ShouldBeTrue)
}

var viewingRE = regexp.MustCompile(`at (http://\S+)`)

func TestServe(t *testing.T) {
	var out, errOut syncBuffer
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		app := NewApp(&out, &errOut)
		errCh <- app.RunContext(ctx, []string{"pointview", "serve", "--address", "localhost:0", "--watch", squareFile})
	}()

	var url string
	testutils.WaitForAssertion(t, func(tb testing.TB) {
		match := viewingRE.FindStringSubmatch(out.String())
		test.That(tb, match, test.ShouldHaveLength, 2)
		url = match[1]
	})

	//nolint:noctx
	resp, err := http.Get(url + "/frame.json")
	test.That(t, err, test.ShouldBeNil)
	var frame map[string]interface{}
	test.That(t, json.NewDecoder(resp.Body).Decode(&frame), test.ShouldBeNil)
	test.That(t, resp.Body.Close(), test.ShouldBeNil)
	test.That(t, frame["points"], test.ShouldHaveLength, 4)

	cancel()
	test.That(t, <-errCh, test.ShouldBeNil)
	test.That(t, errOut.String(), test.ShouldContainSubstring, "watching for changes")
}
