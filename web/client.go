package web

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"go.viam.com/pointview/logging"
	"go.viam.com/pointview/scene"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// client is a middleman between one websocket connection and the session.
type client struct {
	id      string
	session *Session
	conn    *websocket.Conn
	limiter *rate.Limiter
	logger  logging.Logger

	// Buffered channel of outbound messages other than frames.
	send chan []byte
}

func newClient(session *Session, conn *websocket.Conn, limiter *rate.Limiter, logger logging.Logger) *client {
	id := uuid.NewString()
	return &client{
		id:      id,
		session: session,
		conn:    conn,
		limiter: limiter,
		logger:  logger.Sublogger(id[:8]),
		send:    make(chan []byte, 16),
	}
}

// readPump turns messages from the websocket connection into session input. It returns when the
// connection fails or ctx is done, and cancels the write pump through cancel.
func (c *client) readPump(ctx context.Context, cancel func()) {
	defer cancel()

	c.conn.SetReadLimit(maxMessageSize)
	//nolint:errcheck
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { return c.conn.SetReadDeadline(time.Now().Add(pongWait)) })
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warnw("websocket read failed", "error", err)
			}
			return
		}
		if !c.limiter.Allow() {
			c.logger.Debug("input rate exceeded, dropping event")
			continue
		}

		var event Event
		if err := json.Unmarshal(data, &event); err != nil {
			c.reply(errorEvent(err))
			continue
		}
		input, err := DecodeInput(event)
		if err != nil {
			c.reply(errorEvent(err))
			continue
		}
		if err := c.session.Submit(ctx, input); err != nil {
			if ctx.Err() != nil {
				return
			}
			c.reply(errorEvent(err))
		}
	}
}

// reply queues a message for this client only, dropping it if the client is not keeping up.
func (c *client) reply(event Event) {
	msg, err := json.Marshal(event)
	if err != nil {
		c.logger.Errorw("cannot encode event", "event", event.Name, "error", err)
		return
	}
	select {
	case c.send <- msg:
	default:
		c.logger.Debugw("client is not keeping up, dropping event", "event", event.Name)
	}
}

// writePump sends frames and replies to the websocket connection. All writes to the connection
// happen on this goroutine.
func (c *client) writePump(ctx context.Context, frames <-chan scene.RenderFrame) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		//nolint:errcheck
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		//nolint:errcheck
		c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}()

	write := func(msg []byte) bool {
		//nolint:errcheck
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		return c.conn.WriteMessage(websocket.TextMessage, msg) == nil
	}

	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-frames:
			if !ok {
				// The session stopped.
				return
			}
			msg, err := json.Marshal(frameEvent(frame))
			if err != nil {
				c.logger.Errorw("cannot encode frame", "seq", frame.Seq, "error", err)
				continue
			}
			if !write(msg) {
				return
			}
		case msg := <-c.send:
			if !write(msg) {
				return
			}
		case <-ticker.C:
			//nolint:errcheck
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
