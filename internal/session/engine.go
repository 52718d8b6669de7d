package session

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ashureev/dreamdiary/internal/content"
	"github.com/ashureev/dreamdiary/internal/stats"
	"github.com/ashureev/dreamdiary/internal/store"
)

// Engine owns one interview session per user and applies events to it.
// Events for the same user are serialized through a per-user slot lock;
// events for different users proceed concurrently.
type Engine struct {
	repo store.Repository
	now  func() time.Time

	mu    sync.Mutex
	slots map[string]*slot
}

// slot serializes all events for one user. Holding the slot lock while
// the completion write runs guarantees the session is only destroyed
// after the entry is durably saved.
type slot struct {
	mu      sync.Mutex
	session *Session
}

// NewEngine creates an engine backed by the given repository.
func NewEngine(repo store.Repository) *Engine {
	return &Engine{
		repo:  repo,
		now:   time.Now,
		slots: make(map[string]*slot),
	}
}

func (e *Engine) slotFor(userID string) *slot {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.slots[userID]
	if !ok {
		s = &slot{}
		e.slots[userID] = s
	}
	return s
}

// lockSlot returns the user's slot with its lock held. The re-check
// loop covers the window where the idle sweeper reclaims a slot
// between lookup and lock acquisition.
func (e *Engine) lockSlot(userID string) *slot {
	for {
		s := e.slotFor(userID)
		s.mu.Lock()
		e.mu.Lock()
		current := e.slots[userID]
		e.mu.Unlock()
		if current == s {
			return s
		}
		s.mu.Unlock()
	}
}

// Handle applies one event for the user and returns the structured
// outcome. User input problems (wrong category, malformed number, no
// active session) come back as recoverable replies; an error is
// returned only when the completion write fails, in which case the
// session stays intact and completion may be retried.
func (e *Engine) Handle(ctx context.Context, userID string, ev Event) (*Reply, error) {
	s := e.lockSlot(userID)
	defer s.mu.Unlock()

	if s.session != nil {
		s.session.LastActivity = e.now()
	}

	switch ev.Type {
	case EventBeginEntry:
		return e.begin(s), nil
	case EventCancel:
		s.session = nil
		return infoReply(canceledText), nil
	case EventToggle:
		return e.toggle(s, ev), nil
	case EventNoRecall:
		return e.noRecall(s), nil
	case EventDone:
		return e.done(s, ev), nil
	case EventAnswer:
		return e.answer(ctx, s, userID, ev)
	default:
		return nil, fmt.Errorf("unknown event type %q", ev.Type)
	}
}

// begin starts a fresh session, replacing any abandoned one.
func (e *Engine) begin(s *slot) *Reply {
	s.session = newSession(e.now())
	return pickerReply(s.session, CategoryDreamTypes,
		"Step 1/4: Select dream types, then press Done.\n"+
			"If you do not remember any dream, choose 'I don't remember any dreams'.")
}

func (e *Engine) toggle(s *slot, ev Event) *Reply {
	sess := s.session
	if sess == nil || !ev.Category.Valid() {
		return infoReply(noActiveFlowText)
	}
	if sess.Phase != ev.Category.phase() {
		return infoReply(noActiveFlowText)
	}

	sess.toggle(ev.Category, ev.Option)
	return pickerReply(sess, ev.Category, "")
}

// noRecall is the dream-types shortcut: it empties the dream-type set,
// fixes the reduced plan, and jumps straight to sleep quality.
func (e *Engine) noRecall(s *slot) *Reply {
	sess := s.session
	if sess == nil || sess.Phase != PhaseSelectingDreamTypes {
		return infoReply(noActiveFlowText)
	}

	sess.NoRecall = true
	sess.Draft.NoDreamRecall = true
	sess.Draft.DreamTypes = []string{}
	sess.Phase = PhaseSelectingSleepQuality

	return pickerReply(sess, CategorySleepQuality,
		"No problem. We'll log sleep details for correlation.\n"+
			"Step 2/4: Select sleep quality.")
}

func (e *Engine) done(s *slot, ev Event) *Reply {
	sess := s.session
	if sess == nil || !ev.Category.Valid() {
		return infoReply(noActiveFlowText)
	}
	if sess.Phase != ev.Category.phase() {
		return infoReply(noActiveFlowText)
	}

	switch ev.Category {
	case CategoryDreamTypes:
		sess.NoRecall = false
		sess.Draft.NoDreamRecall = false
		sess.Phase = PhaseSelectingSleepQuality
		return pickerReply(sess, CategorySleepQuality, "Step 2/4: Select sleep quality.")

	case CategorySleepQuality:
		sess.Phase = PhaseSelectingWakeFeeling
		return pickerReply(sess, CategoryWakeFeeling, "Step 3/4: Select waking feelings.")

	case CategoryWakeFeeling:
		sess.Phase = PhaseAnsweringQuestions
		sess.QuestionIndex = 0
		if sess.NoRecall {
			sess.Plan = content.NoRecallEntryQuestions
			return promptReply(sess, "Step 4/4: sleep details for no-recall logging. Send 'cancel' anytime.")
		}
		sess.Plan = content.EntryQuestions
		return promptReply(sess, "Step 4/4: free-text details. Send 'cancel' anytime.")
	}

	return infoReply(noActiveFlowText)
}

func (e *Engine) answer(ctx context.Context, s *slot, userID string, ev Event) (*Reply, error) {
	sess := s.session
	if sess == nil || sess.Phase != PhaseAnsweringQuestions {
		return infoReply(menuHintText), nil
	}

	q, ok := sess.currentQuestion()
	if !ok {
		// Plan already exhausted; a retried completion lands here.
		return e.complete(ctx, s, userID)
	}

	value := strings.TrimSpace(ev.Text)
	if value == "" {
		return promptReply(sess, "Please enter an answer."), nil
	}

	number := 0
	if q.Kind == content.Number {
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			// Do not advance the cursor; re-issue the same prompt.
			return promptReply(sess, notANumberText), nil
		}
		number = n
	}

	sess.recordAnswer(q.Key, value, number, q.Kind)
	sess.QuestionIndex++

	if sess.QuestionIndex >= len(sess.Plan) {
		return e.complete(ctx, s, userID)
	}
	return promptReply(sess, ""), nil
}

// complete stamps and persists the draft, refreshes the streak, and
// destroys the session. On a save failure the session survives so the
// user's answers are not lost.
func (e *Engine) complete(ctx context.Context, s *slot, userID string) (*Reply, error) {
	sess := s.session
	now := e.now().UTC()

	sess.Draft.UserID = userID
	sess.Draft.EntryDate = now.Format("2006-01-02")
	sess.Draft.CreatedAt = now

	entry := sess.Draft
	entryID, err := e.repo.SaveEntry(ctx, &entry)
	if err != nil {
		return nil, fmt.Errorf("persist entry: %w", err)
	}

	// Streak is derived state; a failed refresh self-heals on the next
	// save, so it must not fail the completion.
	if _, err := stats.RefreshStreak(ctx, e.repo, userID, now); err != nil {
		slog.Warn("streak refresh failed", "user_id", userID, "error", err)
	}

	s.session = nil
	return &Reply{
		Kind:     ReplyCompleted,
		Text:     summaryText(entryID, &entry),
		EntryID:  entryID,
		NoRecall: entry.NoDreamRecall,
		Entry:    &entry,
	}, nil
}

// HasSession reports whether the user currently has an active session.
func (e *Engine) HasSession(userID string) bool {
	s := e.lockSlot(userID)
	defer s.mu.Unlock()
	return s.session != nil
}
