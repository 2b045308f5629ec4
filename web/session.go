package web

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"go.viam.com/pointview/logging"
	"go.viam.com/pointview/scene"
)

// ErrSessionClosed is returned when talking to a session that is no longer running.
var ErrSessionClosed = errors.New("session closed")

type submitReq struct {
	input Input
	reply chan error
}

type frameReq struct {
	reply chan scene.RenderFrame
}

// Session owns a scene and serializes everything done to it. Inputs, frame requests and
// subscriptions are messages to the goroutine running Run, which also ticks the scene and publishes
// every new frame to subscribers.
type Session struct {
	scene  *scene.Scene
	clock  clock.Clock
	logger logging.Logger

	submitCh    chan submitReq
	frameReqCh  chan frameReq
	subscribeCh chan chan scene.RenderFrame
	unsubCh     chan chan scene.RenderFrame
	reloadCh    <-chan struct{}

	tickInterval time.Duration
	done         chan struct{}
}

// NewSession wraps s. The session ticks every frame budget on clk. Nothing touches s until Run is
// called, and nothing but the session may touch it after.
func NewSession(s *scene.Scene, clk clock.Clock, logger logging.Logger) *Session {
	if clk == nil {
		clk = clock.New()
	}
	interval := s.Options().FrameBudget
	if interval <= 0 {
		interval = time.Millisecond
	}
	return &Session{
		scene:        s,
		clock:        clk,
		logger:       logger,
		submitCh:     make(chan submitReq, 128),
		frameReqCh:   make(chan frameReq, 32),
		subscribeCh:  make(chan chan scene.RenderFrame, 32),
		unsubCh:      make(chan chan scene.RenderFrame, 32),
		tickInterval: interval,
		done:         make(chan struct{}),
	}
}

// ReloadOn makes the session reload the scene's points whenever changes fires. It must be called
// before Run.
func (sess *Session) ReloadOn(changes <-chan struct{}) {
	sess.reloadCh = changes
}

// Submit queues input and waits for it to be applied. The error is the scene's answer to the input.
func (sess *Session) Submit(ctx context.Context, input Input) error {
	req := submitReq{input: input, reply: make(chan error, 1)}
	select {
	case sess.submitCh <- req:
	case <-sess.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-req.reply:
		return err
	case <-sess.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Frame returns the most recent frame.
func (sess *Session) Frame(ctx context.Context) (scene.RenderFrame, error) {
	req := frameReq{reply: make(chan scene.RenderFrame, 1)}
	select {
	case sess.frameReqCh <- req:
	case <-sess.done:
		return scene.RenderFrame{}, ErrSessionClosed
	case <-ctx.Done():
		return scene.RenderFrame{}, ctx.Err()
	}

	select {
	case frame := <-req.reply:
		return frame, nil
	case <-sess.done:
		return scene.RenderFrame{}, ErrSessionClosed
	case <-ctx.Done():
		return scene.RenderFrame{}, ctx.Err()
	}
}

// Subscribe returns a channel that receives the current frame and then every new one. A subscriber
// that falls behind only sees the latest frame. The channel is closed by the returned function or
// when the session stops.
func (sess *Session) Subscribe(ctx context.Context) (<-chan scene.RenderFrame, func()) {
	ch := make(chan scene.RenderFrame, 1)

	select {
	case <-sess.done:
		close(ch)
		return ch, func() {}
	default:
	}
	select {
	case sess.subscribeCh <- ch:
	case <-sess.done:
		close(ch)
		return ch, func() {}
	case <-ctx.Done():
		close(ch)
		return ch, func() {}
	}

	unsub := func() {
		select {
		case sess.unsubCh <- ch:
		case <-sess.done:
		}
	}
	return ch, unsub
}

// Done is closed once Run has returned.
func (sess *Session) Done() <-chan struct{} {
	return sess.done
}

// Run drives the scene until ctx is done.
func (sess *Session) Run(ctx context.Context) {
	defer close(sess.done)

	subs := map[chan scene.RenderFrame]struct{}{}
	defer func() {
		for ch := range subs {
			close(ch)
		}
	}()

	publish := func(frame scene.RenderFrame) {
		for ch := range subs {
			offerLatest(ch, frame)
		}
	}

	ticker := sess.clock.Ticker(sess.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case ch := <-sess.subscribeCh:
			subs[ch] = struct{}{}
			offerLatest(ch, sess.scene.Frame())

		case ch := <-sess.unsubCh:
			if _, ok := subs[ch]; ok {
				delete(subs, ch)
				close(ch)
			}

		case req := <-sess.frameReqCh:
			req.reply <- sess.scene.Frame()

		case req := <-sess.submitCh:
			err := req.input.apply(sess.scene)
			if err != nil {
				sess.logger.Debugw("input rejected", "input", req.input, "error", err)
			}
			req.reply <- err

		case <-sess.reloadCh:
			if err := sess.scene.Reload(); err != nil {
				sess.logger.Warnw("cannot reload points, keeping the previous ones", "error", err)
			}

		case <-ticker.C:
			if frame, changed := sess.scene.Tick(); changed {
				publish(frame)
			}
		}
	}
}

// offerLatest puts frame in ch, replacing a frame the subscriber has not read yet.
func offerLatest(ch chan scene.RenderFrame, frame scene.RenderFrame) {
	for {
		select {
		case ch <- frame:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
