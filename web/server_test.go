package web

import (
	"context"
	"encoding/json"
	"image/png"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"go.viam.com/test"
	goutils "go.viam.com/utils"
	"go.viam.com/utils/testutils"

	"go.viam.com/pointview/logging"
	"go.viam.com/pointview/scene"
	"go.viam.com/pointview/utils"
)

func newTestServer(t *testing.T, opts Options) (*Server, *httptest.Server) {
	t.Helper()
	logger := logging.NewTestLogger(t)
	clk := clock.New()
	sess := NewSession(newTestScene(t, clk), clk, logger)
	runSession(t, sess)

	srv, err := NewServer(sess, opts, logger)
	test.That(t, err, test.ShouldBeNil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
	})
	return srv, ts
}

func dial(t *testing.T, ts *httptest.Server, header http.Header) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", header)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, resp.Body.Close(), test.ShouldBeNil)
	t.Cleanup(func() {
		goutils.UncheckedError(conn.Close())
	})
	return conn
}

type received struct {
	Name string          `json:"name"`
	Data json.RawMessage `json:"data"`
}

// readUntil reads events until one named name satisfies match.
func readUntil(t *testing.T, conn *websocket.Conn, name string, match func(json.RawMessage) bool) json.RawMessage {
	t.Helper()
	test.That(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)), test.ShouldBeNil)
	for {
		var event received
		test.That(t, conn.ReadJSON(&event), test.ShouldBeNil)
		if event.Name == name && (match == nil || match(event.Data)) {
			return event.Data
		}
	}
}

func TestServerWebsocket(t *testing.T) {
	srv, ts := newTestServer(t, DefaultOptions())
	conn := dial(t, ts, nil)

	themeData := readUntil(t, conn, EventTheme, nil)
	var theme map[string]string
	test.That(t, json.Unmarshal(themeData, &theme), test.ShouldBeNil)
	test.That(t, theme["background"], test.ShouldEqual, "#101010")

	testutils.WaitForAssertion(t, func(tb testing.TB) {
		test.That(tb, srv.ClientCount(), test.ShouldEqual, int64(1))
	})

	test.That(t, conn.WriteJSON(Event{Name: EventZoom, Data: ZoomInput{Amount: 2}}), test.ShouldBeNil)
	readUntil(t, conn, EventFrame, func(data json.RawMessage) bool {
		var wf wireFrame
		test.That(t, json.Unmarshal(data, &wf), test.ShouldBeNil)
		return wf.Distance == -590
	})

	test.That(t, conn.WriteJSON(Event{Name: EventToggleDebug}), test.ShouldBeNil)
	data := readUntil(t, conn, EventFrame, func(data json.RawMessage) bool {
		var wf wireFrame
		test.That(t, json.Unmarshal(data, &wf), test.ShouldBeNil)
		return wf.Debug
	})
	var wf wireFrame
	test.That(t, json.Unmarshal(data, &wf), test.ShouldBeNil)
	test.That(t, wf.Labels, test.ShouldHaveLength, 4)
	test.That(t, wf.Labels[1], test.ShouldEqual, "(100.000, 0.000, 0.000)")
	test.That(t, wf.PivotLabel, test.ShouldNotBeEmpty)
	test.That(t, wf.Header, test.ShouldStartWith, "ROTATION INFO:")

	// bad input is answered on this connection only and does not drop it
	test.That(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"name": "spin"}`)), test.ShouldBeNil)
	errData := readUntil(t, conn, EventError, nil)
	test.That(t, string(errData), test.ShouldContainSubstring, "unknown event")

	test.That(t, conn.WriteJSON(Event{Name: EventRotate, Data: RotateInput{Axis: "y", Direction: 1}}), test.ShouldBeNil)
	readUntil(t, conn, EventFrame, func(data json.RawMessage) bool {
		var wf wireFrame
		test.That(t, json.Unmarshal(data, &wf), test.ShouldBeNil)
		return len(wf.Angles) == 3 && wf.Angles[1] == 1
	})

	test.That(t, conn.Close(), test.ShouldBeNil)
	testutils.WaitForAssertion(t, func(tb testing.TB) {
		test.That(tb, srv.ClientCount(), test.ShouldEqual, int64(0))
	})
}

func TestServerInputRateLimit(t *testing.T) {
	opts := DefaultOptions()
	opts.InputRate = 0.001
	opts.InputBurst = 1
	_, ts := newTestServer(t, opts)
	conn := dial(t, ts, nil)
	readUntil(t, conn, EventTheme, nil)

	// only the first event fits in the burst; the bad one after it is dropped unanswered
	test.That(t, conn.WriteJSON(Event{Name: EventZoom, Data: ZoomInput{Amount: 1}}), test.ShouldBeNil)
	test.That(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"name": "spin"}`)), test.ShouldBeNil)
	readUntil(t, conn, EventFrame, func(data json.RawMessage) bool {
		var wf wireFrame
		test.That(t, json.Unmarshal(data, &wf), test.ShouldBeNil)
		return wf.Distance == -595
	})

	test.That(t, conn.SetReadDeadline(time.Now().Add(200*time.Millisecond)), test.ShouldBeNil)
	for {
		var event received
		err := conn.ReadJSON(&event)
		if err != nil {
			var netErr net.Error
			test.That(t, errors.As(err, &netErr), test.ShouldBeTrue)
			test.That(t, netErr.Timeout(), test.ShouldBeTrue)
			break
		}
		test.That(t, event.Name, test.ShouldNotEqual, EventError)
	}
}

func TestServerOrigin(t *testing.T) {
	opts := DefaultOptions()
	opts.AllowedOrigins = []string{"http://viewer.example"}
	_, ts := newTestServer(t, opts)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{"http://evil.example"}})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, resp.StatusCode, test.ShouldEqual, http.StatusForbidden)
	test.That(t, resp.Body.Close(), test.ShouldBeNil)

	conn := dial(t, ts, http.Header{"Origin": []string{"http://viewer.example"}})
	readUntil(t, conn, EventTheme, nil)
}

func TestServerHTTP(t *testing.T) {
	_, ts := newTestServer(t, DefaultOptions())

	get := func(path string) *http.Response {
		t.Helper()
		//nolint:noctx
		resp, err := http.Get(ts.URL + path)
		test.That(t, err, test.ShouldBeNil)
		return resp
	}

	resp := get("/")
	body, err := io.ReadAll(resp.Body)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, resp.Body.Close(), test.ShouldBeNil)
	test.That(t, resp.StatusCode, test.ShouldEqual, http.StatusOK)
	test.That(t, string(body), test.ShouldContainSubstring, "<canvas")

	resp = get("/frame.json")
	var wf wireFrame
	test.That(t, json.NewDecoder(resp.Body).Decode(&wf), test.ShouldBeNil)
	test.That(t, resp.Body.Close(), test.ShouldBeNil)
	test.That(t, wf.Seq, test.ShouldBeGreaterThanOrEqualTo, uint64(1))
	test.That(t, wf.Header, test.ShouldEqual, scene.DebugHint)
	test.That(t, wf.Points, test.ShouldHaveLength, 4)

	resp = get("/snapshot.png")
	test.That(t, resp.Header.Get("Content-Type"), test.ShouldEqual, utils.MimeTypePNG)
	img, err := png.Decode(resp.Body)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, resp.Body.Close(), test.ShouldBeNil)
	test.That(t, img.Bounds().Dx(), test.ShouldEqual, 1000)
	test.That(t, img.Bounds().Dy(), test.ShouldEqual, 600)

	resp = get("/snapshot.gif")
	test.That(t, resp.Body.Close(), test.ShouldBeNil)
	test.That(t, resp.StatusCode, test.ShouldEqual, http.StatusNotFound)
}

func TestRunWeb(t *testing.T) {
	logger := logging.NewTestLogger(t)
	clk := clock.New()
	sess := NewSession(newTestScene(t, clk), clk, logger)

	opts := DefaultOptions()
	opts.Address = "localhost:0"
	ctx, cancel := context.WithCancel(context.Background())
	addrCh := make(chan net.Addr, 1)
	errCh := make(chan error, 1)
	go func() {
		errCh <- RunWeb(ctx, sess, opts, logger, func(addr net.Addr) { addrCh <- addr })
	}()

	addr := <-addrCh
	//nolint:noctx
	resp, err := http.Get("http://" + addr.String() + "/frame.json")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, resp.StatusCode, test.ShouldEqual, http.StatusOK)
	test.That(t, resp.Body.Close(), test.ShouldBeNil)

	cancel()
	select {
	case err := <-errCh:
		test.That(t, err, test.ShouldBeNil)
	case <-time.After(10 * time.Second):
		t.Fatal("RunWeb did not return")
	}
	<-sess.Done()
}
