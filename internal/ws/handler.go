package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"

	"github.com/ashureev/dreamdiary/internal/identity"
	"github.com/ashureev/dreamdiary/internal/narrative"
	"github.com/ashureev/dreamdiary/internal/session"
)

// Handler serves the live journaling channel: the client sends
// interview events as JSON messages and receives engine replies; a
// narrative interpretation follows a recalled-entry completion.
type Handler struct {
	engine        *session.Engine
	gen           narrative.Generator
	cm            *ConnManager
	allowedOrigin string
	isDev         bool
}

// NewHandler creates a new WebSocket journal handler.
func NewHandler(engine *session.Engine, gen narrative.Generator, cm *ConnManager, allowedOrigin string, isDev bool) *Handler {
	return &Handler{
		engine:        engine,
		gen:           gen,
		cm:            cm,
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
	}
}

// wsEvent is the transport shape of one inbound interview event.
type wsEvent struct {
	Type     string `json:"type"`
	Category string `json:"category,omitempty"`
	Option   string `json:"option,omitempty"`
	Text     string `json:"text,omitempty"`
}

// wsNarrative is the follow-up message carrying generated coaching text.
type wsNarrative struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	slog.Info("Journal channel connection request", "user_id", userID, "ip", r.RemoteAddr)

	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "user_id", userID)
		return
	}
	defer func() {
		if closeErr := conn.Close(websocket.StatusNormalClosure, "channel ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "user_id", userID)
		}
	}()

	h.cm.Register(userID, conn)
	defer h.cm.Unregister(userID, conn)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	h.eventLoop(ctx, conn, userID)
	slog.Info("Journal channel ended", "user_id", userID)
}

func (h *Handler) eventLoop(ctx context.Context, conn *websocket.Conn, userID string) {
	for {
		_, message, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				slog.Debug("WebSocket closed by client", "user_id", userID)
			} else {
				slog.Warn("WebSocket read error", "error", err, "user_id", userID)
			}
			return
		}

		var msg wsEvent
		if err := json.Unmarshal(message, &msg); err != nil {
			if writeErr := h.writeJSON(ctx, conn, map[string]string{"error": "invalid_message"}); writeErr != nil {
				return
			}
			continue
		}

		ev, ok := toEvent(msg)
		if !ok {
			if writeErr := h.writeJSON(ctx, conn, map[string]string{"error": "unknown_event_type"}); writeErr != nil {
				return
			}
			continue
		}

		reply, err := h.engine.Handle(ctx, userID, ev)
		if err != nil {
			// Completion write failed; the session survives for retry.
			slog.Error("Failed to apply interview event", "error", err, "user_id", userID, "event", ev.Type)
			if writeErr := h.writeJSON(ctx, conn, map[string]string{"error": "save_failed_retry"}); writeErr != nil {
				return
			}
			continue
		}

		if err := h.writeJSON(ctx, conn, reply); err != nil {
			return
		}

		if reply.Kind == session.ReplyCompleted && !reply.NoRecall && reply.Entry != nil {
			text, genErr := h.gen.InterpretEntry(ctx, reply.Entry)
			if genErr != nil {
				slog.Warn("Interpretation failed, using fallback", "error", genErr, "user_id", userID)
				text = narrative.FallbackMessage
			}
			if err := h.writeJSON(ctx, conn, wsNarrative{Kind: "narrative", Text: text}); err != nil {
				return
			}
		}
	}
}

func toEvent(msg wsEvent) (session.Event, bool) {
	ev := session.Event{
		Type:     session.EventType(msg.Type),
		Category: session.Category(msg.Category),
		Option:   msg.Option,
		Text:     msg.Text,
	}
	switch ev.Type {
	case session.EventBeginEntry, session.EventToggle, session.EventNoRecall,
		session.EventDone, session.EventAnswer, session.EventCancel:
		return ev, true
	}
	return session.Event{}, false
}

func (h *Handler) writeJSON(ctx context.Context, conn *websocket.Conn, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("Failed to marshal WebSocket message", "error", err)
		return err
	}
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		slog.Debug("WebSocket write error", "error", err)
		return err
	}
	return nil
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigin == "*" {
		return true
	}
	if origin == h.allowedOrigin {
		return true
	}
	slog.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.allowedOrigin)
	return false
}
