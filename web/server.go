// Package web serves a browser viewer for a scene. Browsers send input events over a websocket and
// receive every new frame back; a single session goroutine owns the scene.
package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/rs/cors"
	"go.uber.org/atomic"
	goutils "go.viam.com/utils"
	"goji.io"
	"goji.io/pat"
	"golang.org/x/time/rate"

	"go.viam.com/pointview/logging"
	"go.viam.com/pointview/render"
	"go.viam.com/pointview/utils"
)

// Options configures a Server.
type Options struct {
	// Address is the host:port to listen on.
	Address string
	// AllowedOrigins lists the origins other than the server's own that may connect. "*" allows
	// any origin.
	AllowedOrigins []string

	// InputRate and InputBurst limit the input events accepted from each client.
	InputRate  float64
	InputBurst int

	Render render.Options
}

// DefaultOptions listens on localhost:8080.
func DefaultOptions() Options {
	return Options{
		Address:    "localhost:8080",
		InputRate:  240,
		InputBurst: 60,
		Render:     render.DefaultOptions(),
	}
}

// Server serves the viewer page, the websocket and rendered snapshots for one session.
type Server struct {
	session  *Session
	opts     Options
	renderer *render.Renderer
	upgrader websocket.Upgrader
	logger   logging.Logger

	clients *atomic.Int64
	workers utils.StoppableWorkers
}

// NewServer returns a server for session. Run the session separately, or use RunWeb.
func NewServer(session *Session, opts Options, logger logging.Logger) (*Server, error) {
	if opts.InputRate <= 0 || opts.InputBurst <= 0 {
		return nil, errors.Errorf("input rate and burst must be positive, got %v and %d", opts.InputRate, opts.InputBurst)
	}
	renderer, err := render.New(opts.Render)
	if err != nil {
		return nil, err
	}

	s := &Server{
		session:  session,
		opts:     opts,
		renderer: renderer,
		logger:   logger,
		clients:  atomic.NewInt64(0),
		workers:  utils.NewStoppableWorkers(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	return s, nil
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	mux := goji.NewMux()
	mux.HandleFunc(pat.Get("/"), s.serveIndex)
	mux.HandleFunc(pat.Get("/ws"), s.serveWS)
	mux.HandleFunc(pat.Get("/frame.json"), s.serveFrame)
	mux.HandleFunc(pat.Get("/snapshot.:ext"), s.serveSnapshot)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet},
	})
	return corsHandler.Handler(mux)
}

// ClientCount returns the number of connected websocket clients.
func (s *Server) ClientCount() int64 {
	return s.clients.Load()
}

// Close disconnects every client and waits for their goroutines to finish.
func (s *Server) Close() {
	s.workers.Stop()
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.opts.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return origin == "http://"+r.Host || origin == "https://"+r.Host
}

func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeContent(w, r, "index.html", time.Time{}, bytes.NewReader(indexHTML))
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	if s.workers.Context().Err() != nil {
		http.Error(w, "server is shutting down", http.StatusServiceUnavailable)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debugw("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	limiter := rate.NewLimiter(rate.Limit(s.opts.InputRate), s.opts.InputBurst)
	c := newClient(s.session, conn, limiter, s.logger)

	// The connection outlives the request, so it runs under the server's workers.
	s.workers.AddWorkers(func(ctx context.Context) {
		s.handleClient(ctx, c)
	})
}

func (s *Server) handleClient(ctx context.Context, c *client) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	count := s.clients.Inc()
	c.logger.Infow("client connected", "remote", c.conn.RemoteAddr().String(), "clients", count)
	defer func() {
		count := s.clients.Dec()
		c.logger.Infow("client disconnected", "clients", count)
	}()

	frames, unsub := s.session.Subscribe(ctx)
	defer unsub()

	c.reply(themeEvent(s.opts.Render.Theme))

	readDone := make(chan struct{})
	goutils.PanicCapturingGo(func() {
		defer close(readDone)
		c.readPump(ctx, cancel)
	})

	c.writePump(ctx, frames)
	cancel()
	goutils.UncheckedError(c.conn.Close())
	<-readDone
}

func (s *Server) serveFrame(w http.ResponseWriter, r *http.Request) {
	frame, err := s.session.Frame(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(newWireFrame(frame)); err != nil {
		s.logger.Debugw("cannot write frame", "error", err)
	}
}

func (s *Server) serveSnapshot(w http.ResponseWriter, r *http.Request) {
	mimeType, ok := utils.MimeTypeFromPath("snapshot." + pat.Param(r, "ext"))
	if !ok {
		http.Error(w, "unsupported image format", http.StatusNotFound)
		return
	}
	frame, err := s.session.Frame(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	img, err := s.renderer.Render(frame)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := render.EncodeImage(&buf, mimeType, img); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Debugw("cannot write snapshot", "error", err)
	}
}

// RunWeb runs session and serves it on opts.Address until ctx is done. ready, if not nil, receives
// the address actually listened on.
func RunWeb(ctx context.Context, session *Session, opts Options, logger logging.Logger, ready func(addr net.Addr)) (err error) {
	srv, err := NewServer(session, opts, logger)
	if err != nil {
		return err
	}

	listener, err := net.Listen("tcp", opts.Address)
	if err != nil {
		return errors.Wrapf(err, "cannot listen on %s", opts.Address)
	}

	sessionWorkers := utils.NewStoppableWorkersWithContext(ctx, session.Run)
	defer sessionWorkers.Stop()
	defer srv.Close()

	httpServer := &http.Server{
		Addr:              listener.Addr().String(),
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Handler:           srv.Handler(),
	}

	serveErr := make(chan error, 1)
	goutils.PanicCapturingGo(func() {
		serveErr <- httpServer.Serve(listener)
	})
	logger.Infow("serving", "address", "http://"+listener.Addr().String())
	if ready != nil {
		ready(listener.Addr())
	}

	select {
	case err := <-serveErr:
		return err
	case <-session.Done():
		err = ErrSessionClosed
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}
	if ctx.Err() != nil {
		return nil
	}
	return err
}
