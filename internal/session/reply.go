package session

import (
	"fmt"
	"strings"

	"github.com/ashureev/dreamdiary/internal/domain"
)

// ReplyKind categorizes engine replies for adapter rendering.
type ReplyKind string

const (
	// ReplyPicker asks the adapter to render a multi-select picker.
	ReplyPicker ReplyKind = "picker"
	// ReplyPrompt asks the adapter to show a free-form question.
	ReplyPrompt ReplyKind = "prompt"
	// ReplyCompleted reports a saved entry with its summary.
	ReplyCompleted ReplyKind = "completed"
	// ReplyInfo is an informational or recoverable-error message.
	ReplyInfo ReplyKind = "info"
)

// OptionState is a picker label with its current membership, so the
// adapter can render selection marks.
type OptionState struct {
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

// Reply is the structured outcome of one interview event.
type Reply struct {
	Kind          ReplyKind     `json:"kind"`
	Notice        string        `json:"notice,omitempty"`
	Text          string        `json:"text,omitempty"`
	Category      Category      `json:"category,omitempty"`
	Options       []OptionState `json:"options,omitempty"`
	AllowNoRecall bool          `json:"allow_no_recall,omitempty"`
	EntryID       string        `json:"entry_id,omitempty"`
	NoRecall      bool          `json:"no_recall,omitempty"`

	// Entry carries the saved record on completion for downstream
	// narrative generation. Not serialized in the reply itself.
	Entry *domain.Entry `json:"-"`
}

const (
	noActiveFlowText = "No active entry. Start a new dream entry first."
	menuHintText     = "No active question. Start a new dream entry or open the menu."
	canceledText     = "Current flow canceled."
	notANumberText   = "Please enter a number."
)

func pickerReply(s *Session, c Category, notice string) *Reply {
	selected := make(map[string]bool)
	for _, label := range s.selection(c) {
		selected[label] = true
	}

	options := make([]OptionState, 0, len(c.Options()))
	for _, label := range c.Options() {
		options = append(options, OptionState{Label: label, Selected: selected[label]})
	}

	return &Reply{
		Kind:          ReplyPicker,
		Notice:        notice,
		Category:      c,
		Options:       options,
		AllowNoRecall: c == CategoryDreamTypes,
	}
}

func infoReply(text string) *Reply {
	return &Reply{Kind: ReplyInfo, Text: text}
}

func promptReply(s *Session, notice string) *Reply {
	q, ok := s.currentQuestion()
	if !ok {
		return infoReply(menuHintText)
	}
	return &Reply{
		Kind:   ReplyPrompt,
		Notice: notice,
		Text:   fmt.Sprintf("Q%d/%d: %s", s.QuestionIndex+1, len(s.Plan), q.Prompt),
	}
}

func summaryText(entryID string, e *domain.Entry) string {
	if e.NoDreamRecall {
		summary := fmt.Sprintf(
			"No-recall night saved. ID: %s\n"+
				"Sleep quality: %s\n"+
				"Wake feeling: %s\n"+
				"REM: %s min | Deep: %s min | Total sleep: %s min",
			entryID,
			joinOrNA(e.SleepQuality),
			joinOrNA(e.WakeFeeling),
			intOrNA(e.RemMinutes), intOrNA(e.DeepSleepMinutes), intOrNA(e.TotalSleepMinutes),
		)
		if e.SleepNotes != "" {
			summary += "\nComment: " + e.SleepNotes
		}
		return summary
	}

	title := e.Title
	if title == "" {
		title = "Untitled"
	}
	return fmt.Sprintf(
		"Dream saved. ID: %s\n"+
			"Title: %s\n"+
			"Types: %s\n"+
			"Lucidity score: %s\n"+
			"REM: %s min | Deep: %s min | Total: %s min",
		entryID,
		title,
		joinOrNA(e.DreamTypes),
		intOrNA(e.LucidityScore),
		intOrNA(e.RemMinutes), intOrNA(e.DeepSleepMinutes), intOrNA(e.TotalSleepMinutes),
	)
}

func joinOrNA(labels []string) string {
	if len(labels) == 0 {
		return "N/A"
	}
	return strings.Join(labels, ", ")
}

func intOrNA(n *int) string {
	if n == nil {
		return "N/A"
	}
	return fmt.Sprintf("%d", *n)
}
