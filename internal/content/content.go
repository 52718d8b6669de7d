// Package content defines the interview plans, picker options, and
// static coaching texts used by the journaling flow.
package content

import (
	"github.com/ashureev/dreamdiary/internal/domain"
)

// FieldKind declares how a free-form answer is validated.
type FieldKind int

const (
	// Text accepts any non-empty trimmed string.
	Text FieldKind = iota
	// Number accepts a non-negative integer.
	Number
)

// Question is one (field, prompt) pair of an interview plan.
type Question struct {
	Key    string
	Prompt string
	Kind   FieldKind
}

// Field keys shared by the interview plans and the entry record.
const (
	FieldTitle              = "title"
	FieldKeyEvent           = "key_event"
	FieldLocationTime       = "location_time"
	FieldCharacters         = "characters"
	FieldSymbols            = "symbols"
	FieldAtmosphere         = "atmosphere"
	FieldMood               = "mood"
	FieldSenses             = "senses"
	FieldNarrative          = "narrative"
	FieldSelfInterpretation = "self_interpretation"
	FieldFeelingsInDream    = "feelings_in_dream"
	FieldThoughtsAfter      = "thoughts_after"
	FieldLucidityScore      = "lucidity_score"
	FieldRealityChecks      = "reality_checks"
	FieldRemMinutes         = "rem_minutes"
	FieldDeepSleepMinutes   = "deep_sleep_minutes"
	FieldTotalSleepMinutes  = "total_sleep_minutes"
	FieldSleepNotes         = "sleep_notes"
)

// EntryQuestions is the full interview plan for a recalled dream.
var EntryQuestions = []Question{
	{FieldTitle, "Give this dream a short title (example: 'Mirror City Chase').", Text},
	{FieldKeyEvent, "Key event in one sentence.", Text},
	{FieldLocationTime, "Location and time cues (if known).", Text},
	{FieldCharacters, "People/characters present.", Text},
	{FieldSymbols, "Words, signs, symbols, or repeating motifs.", Text},
	{FieldAtmosphere, "Atmosphere/weather.", Text},
	{FieldMood, "Mood/emotions felt in the dream.", Text},
	{FieldSenses, "Colors/sounds/smells/tactile sensations.", Text},
	{FieldNarrative, "Write the dream narrative (as detailed as possible).", Text},
	{FieldSelfInterpretation, "Your own interpretation (what it might mean for you).", Text},
	{FieldFeelingsInDream, "Your feelings in the dream.", Text},
	{FieldThoughtsAfter, "Your thoughts after waking.", Text},
	{FieldLucidityScore, "Lucidity score from 0-10.", Number},
	{FieldRealityChecks, "How many reality checks did you do yesterday? (number)", Number},
	{FieldRemMinutes, "Estimated REM sleep time in minutes (number).", Number},
	{FieldDeepSleepMinutes, "Estimated deep sleep time in minutes (number).", Number},
	{FieldTotalSleepMinutes, "Total sleep time in minutes (number).", Number},
}

// NoRecallEntryQuestions is the reduced plan used when the user
// reports no dream memory; only sleep metrics are captured.
var NoRecallEntryQuestions = []Question{
	{FieldRemMinutes, "Estimated REM sleep time in minutes (number).", Number},
	{FieldDeepSleepMinutes, "Estimated deep sleep time in minutes (number).", Number},
	{FieldTotalSleepMinutes, "How many minutes did you sleep in total? (number)", Number},
	{FieldSleepNotes, "Any comments you'd like to add? (type '-' to skip)", Text},
}

// LucidLabel is the dream-type label that marks a lucid dream.
const LucidLabel = "Lucid"

// DreamTypeOptions are the selectable dream-type labels.
var DreamTypeOptions = []string{
	"Mundane",
	"Lucid",
	"Nightmare",
	"Daydream",
	"Vivid",
	"Recurring",
	"False Awakening",
	"Prophetic",
}

// SleepQualityOptions are the selectable sleep-quality labels.
var SleepQualityOptions = []string{"Great", "Good", "Fitful", "Restless", "Poor"}

// WakeFeelingOptions are the selectable waking-feeling labels.
var WakeFeelingOptions = []string{"Refreshed", "Tired", "Concerned", "Inspired", "Curious", "Anxious"}

// ProbingQuestions feed the reality-check drill.
var ProbingQuestions = []string{
	"What element grabbed your attention most vividly, and why?",
	"Was the setting realistic or fantastic? What memory does it resemble?",
	"What emotion dominated the dream from start to finish?",
	"Did any symbol or person appear that has shown up before?",
	"Where did your control increase or collapse in the dream?",
	"How did the dream ending affect your waking mood?",
}

// DreamTypesGuide is the static dream-type reference text.
const DreamTypesGuide = "Dream Types\n\n" +
	"1) Ordinary: everyday scenes and logic.\n" +
	"2) Lucid: you realize you are dreaming and can influence events.\n" +
	"3) Nightmare: fear-heavy dreams often linked to stress processing.\n" +
	"4) Daydream: drifting thought-style imagery.\n" +
	"5) Vivid: high detail, color, sensory intensity.\n" +
	"6) Recurring: repeating locations, themes, or conflicts.\n" +
	"7) False Awakening: dream of waking up while still asleep.\n" +
	"8) Prophetic-feeling: meaningful future-oriented symbolism."

// RecallTips is the static recall and lucidity advice text.
const RecallTips = "Recall and Lucidity Tips\n\n" +
	"1) Keep phone next to bed and log immediately on waking.\n" +
	"2) Use a short title plus 3 symbols before full writing.\n" +
	"3) Do 8-12 reality checks across the day.\n" +
	"4) Before sleep repeat: 'Next time I dream, I know I'm dreaming.'\n" +
	"5) Sleep 7.5-9h. Lucidity falls sharply with sleep debt.\n" +
	"6) If awake after 5-6h sleep, do 15-25 min calm wake-back-to-bed.\n" +
	"7) Re-read old entries weekly to detect recurring dream signs."

// ProtocolBaseline is the static part of the 7-day protocol view.
const ProtocolBaseline = "Lucid Dream Protocol (baseline):\n" +
	"- Morning: write within 3 minutes of waking.\n" +
	"- Daytime: 10 reality checks tied to cues (doorways, mirrors, phone).\n" +
	"- Evening: 10 minutes dream-sign review + intention script.\n" +
	"- Night: optional WBTB 1-2 times/week only if rested.\n" +
	"- Weekly: symbol review and trigger plan update."

// Exercises is the seed set for the exercise table.
var Exercises = []domain.Exercise{
	{
		ID:          "mild-intention",
		Title:       "MILD Intention Rehearsal",
		SourcePages: []int{77, 78},
		Lines: []string{
			"After waking from a dream, recall it once in full.",
			"Repeat: 'Next time I'm dreaming, I will remember I'm dreaming.'",
			"Visualize re-entering the dream and noticing a dream sign.",
			"Hold the intention as the last thought before sleep.",
		},
	},
	{
		ID:          "reality-check-anchor",
		Title:       "Anchored Reality Checks",
		SourcePages: []int{59},
		Lines: []string{
			"Pick three daily cues: doorways, mirrors, unlocking your phone.",
			"At each cue, ask 'Am I dreaming?' and re-read a line of text twice.",
			"Count at least ten checks per day for a week.",
		},
	},
	{
		ID:          "dream-sign-inventory",
		Title:       "Dream Sign Inventory",
		SourcePages: []int{64, 65},
		Lines: []string{
			"Re-read your last ten entries.",
			"List recurring places, people, and impossible events.",
			"Pick the two most frequent signs and rehearse noticing them.",
		},
	},
	{
		ID:          "wbtb-short",
		Title:       "Short Wake-Back-To-Bed",
		SourcePages: []int{91},
		Lines: []string{
			"Only when rested: wake after 5-6 hours of sleep.",
			"Stay calmly awake 15-25 minutes reviewing dream signs.",
			"Return to bed with the MILD intention phrase.",
		},
	},
	{
		ID:          "evening-visualization",
		Title:       "Evening Scene Visualization",
		Lines: []string{
			"Before sleep, pick one recent dream scene.",
			"Replay it for five minutes, inserting a reality check at the peak moment.",
			"End with your intention phrase spoken once aloud.",
		},
	},
	{
		ID:          "morning-stillness",
		Title:       "Morning Stillness Recall",
		Lines: []string{
			"On waking, keep your eyes closed and do not move.",
			"Let fragments surface for two minutes before reaching for the journal.",
			"Write the title and three symbols first, details after.",
		},
	},
}
