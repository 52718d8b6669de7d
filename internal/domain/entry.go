package domain

import (
	"time"
)

// Entry is a single persisted journal submission. Entries are
// immutable once saved; there are no edit operations.
type Entry struct {
	EntryID       string    `json:"entry_id"`
	UserID        string    `json:"user_id"`
	EntryDate     string    `json:"entry_date"` // YYYY-MM-DD, the day the entry was logged
	CreatedAt     time.Time `json:"created_at"`
	NoDreamRecall bool      `json:"no_dream_recall"`

	DreamTypes   []string `json:"dream_types"`
	SleepQuality []string `json:"sleep_quality"`
	WakeFeeling  []string `json:"wake_feeling"`

	Title              string `json:"title,omitempty"`
	KeyEvent           string `json:"key_event,omitempty"`
	LocationTime       string `json:"location_time,omitempty"`
	Characters         string `json:"characters,omitempty"`
	Symbols            string `json:"symbols,omitempty"`
	Atmosphere         string `json:"atmosphere,omitempty"`
	Mood               string `json:"mood,omitempty"`
	Senses             string `json:"senses,omitempty"`
	Narrative          string `json:"narrative,omitempty"`
	SelfInterpretation string `json:"self_interpretation,omitempty"`
	FeelingsInDream    string `json:"feelings_in_dream,omitempty"`
	ThoughtsAfter      string `json:"thoughts_after,omitempty"`
	SleepNotes         string `json:"sleep_notes,omitempty"`

	LucidityScore     *int `json:"lucidity_score,omitempty"`
	RealityChecks     *int `json:"reality_checks,omitempty"`
	RemMinutes        *int `json:"rem_minutes,omitempty"`
	DeepSleepMinutes  *int `json:"deep_sleep_minutes,omitempty"`
	TotalSleepMinutes *int `json:"total_sleep_minutes,omitempty"`
}

// Recalled returns true if the entry records a remembered dream.
func (e *Entry) Recalled() bool {
	return !e.NoDreamRecall
}

// HasDreamType reports whether the entry's dream-type set contains label.
func (e *Entry) HasDreamType(label string) bool {
	for _, t := range e.DreamTypes {
		if t == label {
			return true
		}
	}
	return false
}
