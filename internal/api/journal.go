package api

import (
	"encoding/json"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ashureev/dreamdiary/internal/content"
	"github.com/ashureev/dreamdiary/internal/identity"
	"github.com/ashureev/dreamdiary/internal/narrative"
	"github.com/ashureev/dreamdiary/internal/session"
	"github.com/ashureev/dreamdiary/internal/stats"
)

// Window sizes are adapter policy, not aggregation-engine constants.
const (
	statsWindow     = 30
	narrativeWindow = 14
	indexLimit      = 12
	maxIndexLimit   = 50
	drillSize       = 3
)

// JournalHandler serves the journaling endpoints.
type JournalHandler struct {
	*Handler
	aiEnabled bool
}

// NewJournalHandler creates a journal handler.
func NewJournalHandler(base *Handler, aiEnabled bool) *JournalHandler {
	return &JournalHandler{Handler: base, aiEnabled: aiEnabled}
}

// RegisterRoutes registers journal routes.
func (h *JournalHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/me", h.GetMe)
		r.Get("/config", h.GetConfig)
		r.Post("/me/binding", h.BindChat)

		r.Route("/journal", func(r chi.Router) {
			r.Post("/event", h.HandleEvent)
			r.Get("/entries", h.GetEntries)
			r.Get("/stats", h.GetStats)
			r.Get("/interpretation", h.GetInterpretation)
			r.Get("/protocol", h.GetProtocol)
			r.Get("/exercise", h.GetExercise)
			r.Get("/drill", h.GetDrill)
			r.Get("/tips", h.GetTips)
			r.Get("/types", h.GetTypes)
		})
	})
}

// GetMe returns the current user's information.
func (h *JournalHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.repo.GetUser(r.Context(), userID)
	if err != nil || user == nil {
		Error(w, http.StatusUnauthorized, "user not found")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"user_id":        user.UserID,
		"username":       user.Username,
		"streak":         user.Streak,
		"active_session": h.engine.HasSession(userID),
	})
}

// GetConfig returns the server configuration for the frontend.
func (h *JournalHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{
		"ai_enabled": h.aiEnabled,
	})
}

// BindChat stores an opaque delivery-channel handle for the user.
func (h *JournalHandler) BindChat(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())

	var req struct {
		Binding string `json:"binding"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.repo.BindChat(r.Context(), userID, req.Binding); err != nil {
		slog.Error("Failed to bind chat", "error", err, "user_id", userID)
		Error(w, http.StatusInternalServerError, "failed to bind chat")
		return
	}

	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// eventRequest is the transport shape of one interview event.
type eventRequest struct {
	Type     string `json:"type"`
	Category string `json:"category,omitempty"`
	Option   string `json:"option,omitempty"`
	Text     string `json:"text,omitempty"`
}

func (req eventRequest) toEvent() (session.Event, bool) {
	ev := session.Event{
		Type:     session.EventType(req.Type),
		Category: session.Category(req.Category),
		Option:   req.Option,
		Text:     req.Text,
	}
	switch ev.Type {
	case session.EventBeginEntry, session.EventToggle, session.EventNoRecall,
		session.EventDone, session.EventAnswer, session.EventCancel:
		return ev, true
	}
	return session.Event{}, false
}

// HandleEvent applies one interview event and returns the engine reply.
func (h *JournalHandler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ev, ok := req.toEvent()
	if !ok {
		Error(w, http.StatusBadRequest, "unknown event type")
		return
	}

	reply, err := h.engine.Handle(r.Context(), userID, ev)
	if err != nil {
		// The session survives a failed completion; the client may retry.
		slog.Error("Failed to apply interview event", "error", err, "user_id", userID, "event", ev.Type)
		Error(w, http.StatusInternalServerError, "failed to save entry, please retry")
		return
	}

	JSON(w, http.StatusOK, reply)
}

// indexItem is one row of the dream index.
type indexItem struct {
	Date     string `json:"date"`
	Title    string `json:"title"`
	Kinds    string `json:"kinds"`
	NoRecall bool   `json:"no_recall"`
}

// GetEntries returns the dream index, newest first.
func (h *JournalHandler) GetEntries(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())

	limit := indexLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxIndexLimit {
			Error(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	entries, err := h.repo.GetRecentEntries(r.Context(), userID, limit)
	if err != nil {
		slog.Error("Failed to fetch entries", "error", err, "user_id", userID)
		Error(w, http.StatusInternalServerError, "failed to fetch entries")
		return
	}

	items := make([]indexItem, 0, len(entries))
	for _, e := range entries {
		item := indexItem{Date: e.EntryDate, NoRecall: e.NoDreamRecall}
		if e.NoDreamRecall {
			item.Title = "No recall"
			item.Kinds = "Sleep-only"
			if e.TotalSleepMinutes != nil {
				item.Kinds = "Sleep-only (" + strconv.Itoa(*e.TotalSleepMinutes) + " min)"
			}
		} else {
			item.Title = e.Title
			if item.Title == "" {
				item.Title = "Untitled"
			}
			item.Kinds = strings.Join(e.DreamTypes, ", ")
		}
		items = append(items, item)
	}

	JSON(w, http.StatusOK, map[string]interface{}{"entries": items})
}

// GetStats returns the aggregation snapshot.
func (h *JournalHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())

	snap, err := stats.BuildSnapshot(r.Context(), h.repo, userID, statsWindow)
	if err != nil {
		slog.Error("Failed to build stats snapshot", "error", err, "user_id", userID)
		Error(w, http.StatusInternalServerError, "failed to build stats")
		return
	}

	JSON(w, http.StatusOK, snap)
}

// GetInterpretation interprets the user's latest entry.
func (h *JournalHandler) GetInterpretation(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())

	last, err := h.repo.GetLastEntry(r.Context(), userID)
	if err != nil {
		slog.Error("Failed to fetch last entry", "error", err, "user_id", userID)
		Error(w, http.StatusInternalServerError, "failed to fetch last entry")
		return
	}
	if last == nil {
		Error(w, http.StatusNotFound, "no dream found, save one first")
		return
	}
	if last.NoDreamRecall {
		JSON(w, http.StatusOK, map[string]string{
			"text": "Latest entry is a no-recall sleep log, so there is no dream narrative to interpret.",
		})
		return
	}

	text, err := h.gen.InterpretEntry(r.Context(), last)
	if err != nil {
		slog.Warn("Interpretation failed, using fallback", "error", err, "user_id", userID)
		text = narrative.FallbackMessage
	}
	JSON(w, http.StatusOK, map[string]string{"text": text})
}

// GetProtocol returns the baseline protocol plus the AI plan.
func (h *JournalHandler) GetProtocol(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	ctx := r.Context()

	snap, err := stats.BuildSnapshot(ctx, h.repo, userID, statsWindow)
	if err != nil {
		slog.Error("Failed to build stats for protocol", "error", err, "user_id", userID)
		Error(w, http.StatusInternalServerError, "failed to build stats")
		return
	}

	recent, err := h.repo.GetRecentEntries(ctx, userID, narrativeWindow)
	if err != nil {
		slog.Error("Failed to fetch recent entries for protocol", "error", err, "user_id", userID)
		Error(w, http.StatusInternalServerError, "failed to fetch entries")
		return
	}

	plan, err := h.gen.ProtocolPlan(ctx, snap, recent)
	if err != nil {
		slog.Warn("Protocol plan failed, using fallback", "error", err, "user_id", userID)
		plan = narrative.FallbackMessage
	}

	JSON(w, http.StatusOK, map[string]string{
		"baseline": content.ProtocolBaseline,
		"plan":     plan,
	})
}

// GetExercise returns a random seeded exercise.
func (h *JournalHandler) GetExercise(w http.ResponseWriter, r *http.Request) {
	exercise, err := h.repo.GetRandomExercise(r.Context())
	if err != nil {
		slog.Error("Failed to fetch exercise", "error", err)
		Error(w, http.StatusInternalServerError, "failed to fetch exercise")
		return
	}
	if exercise == nil {
		Error(w, http.StatusNotFound, "no exercises are stored yet")
		return
	}
	JSON(w, http.StatusOK, exercise)
}

// GetDrill returns a reality-check drill of random probing questions.
func (h *JournalHandler) GetDrill(w http.ResponseWriter, r *http.Request) {
	questions := make([]string, len(content.ProbingQuestions))
	copy(questions, content.ProbingQuestions)
	rand.Shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})

	n := drillSize
	if n > len(questions) {
		n = len(questions)
	}
	JSON(w, http.StatusOK, map[string]interface{}{"questions": questions[:n]})
}

// GetTips returns the recall and lucidity tips text.
func (h *JournalHandler) GetTips(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]string{"text": content.RecallTips})
}

// GetTypes returns the dream-type guide text.
func (h *JournalHandler) GetTypes(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]string{"text": content.DreamTypesGuide})
}
