package gateway

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/renato0307/grove/internal/domain"
	"github.com/renato0307/grove/internal/logging"
)

const (
	pingInterval = 30 * time.Second
	pongWait     = 60 * time.Second
	writeWait    = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// wsConn serializes writes to a websocket and notices when the peer goes away
type wsConn struct {
	conn   *websocket.Conn
	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
}

func newWSConn(parent context.Context, conn *websocket.Conn) *wsConn {
	ctx, cancel := context.WithCancel(parent)
	c := &wsConn{conn: conn, ctx: ctx, cancel: cancel}

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Clients never send data frames; reading only drives control frames and close detection
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	return c
}

func (c *wsConn) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

func (c *wsConn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (c *wsConn) close(code int, reason string) {
	c.mu.Lock()
	_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
	c.mu.Unlock()
	c.cancel()
	_ = c.conn.Close()
}

// eventFilter builds a bus filter from the types and sessionId query parameters
func eventFilter(r *http.Request) func(domain.Event) bool {
	types := map[domain.EventType]bool{}
	for _, t := range strings.Split(r.URL.Query().Get("types"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			types[domain.EventType(t)] = true
		}
	}
	sessionID := r.URL.Query().Get("sessionId")

	return func(e domain.Event) bool {
		if len(types) > 0 && !types[e.Type] {
			return false
		}
		if sessionID != "" {
			return eventSessionID(e) == sessionID
		}
		return true
	}
}

func eventSessionID(e domain.Event) string {
	switch p := e.Payload.(type) {
	case domain.Session:
		return p.ID
	case domain.OutputMessage:
		return p.SessionID
	case domain.PermissionRequest:
		return p.SessionID
	case domain.PermissionResolvedPayload:
		return p.SessionID
	case domain.DeletedPayload:
		if e.Type == domain.EventSessionDeleted {
			return p.ID
		}
	}
	return ""
}

// handleEvents streams bus events as JSON frames until the client disconnects
func (s *HTTPServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	filter := eventFilter(r)
	raw, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Logger.Warn("Event stream upgrade failed", "error", err)
		return
	}
	conn := newWSConn(r.Context(), raw)

	sub := s.events.Subscribe(filter)
	defer s.events.Unsubscribe(sub)
	logging.Logger.Info("Event stream opened", "remote", r.RemoteAddr)

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-conn.ctx.Done():
			logging.Logger.Info("Event stream closed", "remote", r.RemoteAddr)
			conn.close(websocket.CloseGoingAway, "")
			return
		case <-ticker.C:
			if err := conn.ping(); err != nil {
				conn.close(websocket.CloseGoingAway, "")
				return
			}
		case <-sub.Done:
			logging.Logger.Warn("Event stream too slow, disconnecting", "remote", r.RemoteAddr)
			conn.close(websocket.CloseTryAgainLater, "event stream fell behind")
			return
		case e := <-sub.C:
			frame, err := encodeEvent(e)
			if err != nil {
				logging.Logger.Error("Failed to encode event", "type", e.Type, "error", err)
				continue
			}
			if err := conn.writeJSON(frame); err != nil {
				logging.Logger.Debug("Event stream write failed", "error", err)
				conn.close(websocket.CloseGoingAway, "")
				return
			}
		}
	}
}

// handleOutput replays a session's output after the afterSeq cursor and then
// follows it. The stream ends with a normal close when the session is deleted.
func (s *HTTPServer) handleOutput(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(chi.URLParam(r, "sessionID"))

	var afterSeq int64
	if v := r.URL.Query().Get("afterSeq"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil || parsed < 0 {
			respondError(w, &Error{Code: CodeValidation, Message: "afterSeq must be a non-negative integer"})
			return
		}
		afterSeq = parsed
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Resolve the session before upgrading so a missing one is a plain 404
	messages, err := s.outputs.Stream(ctx, sessionID, afterSeq)
	if err != nil {
		respondError(w, toError(err))
		return
	}

	raw, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Logger.Warn("Output stream upgrade failed", "session_id", sessionID, "error", err)
		return
	}
	conn := newWSConn(ctx, raw)
	logging.Logger.Info("Output stream opened", "session_id", sessionID, "after_seq", afterSeq)

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-conn.ctx.Done():
			conn.close(websocket.CloseGoingAway, "")
			return
		case <-ticker.C:
			if err := conn.ping(); err != nil {
				conn.close(websocket.CloseGoingAway, "")
				return
			}
		case msg, ok := <-messages:
			if !ok {
				logging.Logger.Info("Output stream ended", "session_id", sessionID)
				conn.close(websocket.CloseNormalClosure, "session closed")
				return
			}
			if err := conn.writeJSON(msg); err != nil {
				conn.close(websocket.CloseGoingAway, "")
				return
			}
		}
	}
}
