// Package session drives the per-user entry-capture interview: three
// multi-select pickers followed by an ordered question plan, with a
// reduced branch for nights without dream recall.
package session

import (
	"time"

	"github.com/ashureev/dreamdiary/internal/content"
	"github.com/ashureev/dreamdiary/internal/domain"
)

// Phase identifies the current interview step.
type Phase string

const (
	PhaseSelectingDreamTypes   Phase = "selecting_dream_types"
	PhaseSelectingSleepQuality Phase = "selecting_sleep_quality"
	PhaseSelectingWakeFeeling  Phase = "selecting_wake_feeling"
	PhaseAnsweringQuestions    Phase = "answering_questions"
)

// Category names one of the multi-select pickers. Inbound events carry
// the category explicitly; the engine rejects mismatches against the
// current phase instead of guessing.
type Category string

const (
	CategoryDreamTypes   Category = "dream_types"
	CategorySleepQuality Category = "sleep_quality"
	CategoryWakeFeeling  Category = "wake_feeling"
)

// Valid reports whether c names a known picker.
func (c Category) Valid() bool {
	switch c {
	case CategoryDreamTypes, CategorySleepQuality, CategoryWakeFeeling:
		return true
	}
	return false
}

// Options returns the selectable labels for the category.
func (c Category) Options() []string {
	switch c {
	case CategoryDreamTypes:
		return content.DreamTypeOptions
	case CategorySleepQuality:
		return content.SleepQualityOptions
	case CategoryWakeFeeling:
		return content.WakeFeelingOptions
	}
	return nil
}

func (c Category) phase() Phase {
	switch c {
	case CategoryDreamTypes:
		return PhaseSelectingDreamTypes
	case CategorySleepQuality:
		return PhaseSelectingSleepQuality
	case CategoryWakeFeeling:
		return PhaseSelectingWakeFeeling
	}
	return ""
}

// EventType tags an inbound interview event.
type EventType string

const (
	EventBeginEntry EventType = "begin_entry"
	EventToggle     EventType = "toggle"
	EventNoRecall   EventType = "no_recall"
	EventDone       EventType = "done"
	EventAnswer     EventType = "answer"
	EventCancel     EventType = "cancel"
)

// Event is a typed interview event, constructed once at the adapter
// boundary. The engine never parses transport encodings.
type Event struct {
	Type     EventType `json:"type"`
	Category Category  `json:"category,omitempty"`
	Option   string    `json:"option,omitempty"`
	Text     string    `json:"text,omitempty"`
}

// Session is the ephemeral per-user interview state. At most one
// session exists per user; it is destroyed on completion or cancel.
type Session struct {
	Phase         Phase
	QuestionIndex int
	Plan          []content.Question
	Draft         domain.Entry
	NoRecall      bool
	LastActivity  time.Time
}

func newSession(now time.Time) *Session {
	return &Session{
		Phase: PhaseSelectingDreamTypes,
		Draft: domain.Entry{
			DreamTypes:   []string{},
			SleepQuality: []string{},
			WakeFeeling:  []string{},
		},
		LastActivity: now,
	}
}

// selection returns the draft's multi-select set for the category.
func (s *Session) selection(c Category) []string {
	switch c {
	case CategoryDreamTypes:
		return s.Draft.DreamTypes
	case CategorySleepQuality:
		return s.Draft.SleepQuality
	case CategoryWakeFeeling:
		return s.Draft.WakeFeeling
	}
	return nil
}

func (s *Session) setSelection(c Category, labels []string) {
	switch c {
	case CategoryDreamTypes:
		s.Draft.DreamTypes = labels
	case CategorySleepQuality:
		s.Draft.SleepQuality = labels
	case CategoryWakeFeeling:
		s.Draft.WakeFeeling = labels
	}
}

// toggle flips membership of option in the category's set: present
// options are removed, absent ones appended. Double delivery of the
// same toggle is therefore self-inverse rather than corrupting.
func (s *Session) toggle(c Category, option string) {
	current := s.selection(c)
	for i, label := range current {
		if label == option {
			s.setSelection(c, append(current[:i], current[i+1:]...))
			return
		}
	}
	s.setSelection(c, append(current, option))
}

// currentQuestion returns the active question, or false past the plan end.
func (s *Session) currentQuestion() (content.Question, bool) {
	if s.QuestionIndex >= len(s.Plan) {
		return content.Question{}, false
	}
	return s.Plan[s.QuestionIndex], true
}

// recordAnswer writes a validated answer into the typed draft.
func (s *Session) recordAnswer(key, text string, number int, kind content.FieldKind) {
	if kind == content.Number {
		n := number
		switch key {
		case content.FieldLucidityScore:
			s.Draft.LucidityScore = &n
		case content.FieldRealityChecks:
			s.Draft.RealityChecks = &n
		case content.FieldRemMinutes:
			s.Draft.RemMinutes = &n
		case content.FieldDeepSleepMinutes:
			s.Draft.DeepSleepMinutes = &n
		case content.FieldTotalSleepMinutes:
			s.Draft.TotalSleepMinutes = &n
		}
		return
	}

	switch key {
	case content.FieldTitle:
		s.Draft.Title = text
	case content.FieldKeyEvent:
		s.Draft.KeyEvent = text
	case content.FieldLocationTime:
		s.Draft.LocationTime = text
	case content.FieldCharacters:
		s.Draft.Characters = text
	case content.FieldSymbols:
		s.Draft.Symbols = text
	case content.FieldAtmosphere:
		s.Draft.Atmosphere = text
	case content.FieldMood:
		s.Draft.Mood = text
	case content.FieldSenses:
		s.Draft.Senses = text
	case content.FieldNarrative:
		s.Draft.Narrative = text
	case content.FieldSelfInterpretation:
		s.Draft.SelfInterpretation = text
	case content.FieldFeelingsInDream:
		s.Draft.FeelingsInDream = text
	case content.FieldThoughtsAfter:
		s.Draft.ThoughtsAfter = text
	case content.FieldSleepNotes:
		s.Draft.SleepNotes = text
	}
}
