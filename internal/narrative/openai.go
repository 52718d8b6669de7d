package narrative

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/ashureev/dreamdiary/internal/domain"
	"github.com/ashureev/dreamdiary/internal/stats"
)

const interpretSystemPrompt = "You are a lucid dreaming coach inspired by evidence-based practices " +
	"(dream recall training, MILD, reality testing, sleep hygiene, WBTB). " +
	"You never claim medical certainty. Keep output practical and safe. " +
	"Respond in plain text (no markdown symbols) with sections:\n" +
	"Core Themes:\nDream Signs:\nTonight Action Plan:\nOne Reflection Question:\n" +
	"Use short bullets and keep total response compact."

const protocolSystemPrompt = "You are a world-class lucid dreaming protocol designer. " +
	"Make a 7-day progressive protocol for a journaling user. " +
	"Blend consistency and variety to reduce dropout. " +
	"Use sections: Day Routine, Pre-Sleep, Night Interrupt, Morning Capture, Weekly Review. " +
	"Add a difficulty score 1-10 and one anti-burnout adaptation."

// OpenAI generates coaching text through the OpenAI chat API.
type OpenAI struct {
	client openai.Client
	model  string
}

// NewOpenAI creates a generator using the given API key and model.
func NewOpenAI(apiKey, model string) *OpenAI {
	return &OpenAI{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (g *OpenAI) chat(ctx context.Context, system, user string) (string, error) {
	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(g.model),
		Temperature: openai.Float(0.7),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", errors.New("empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}

// InterpretEntry returns an interpretation of one recalled entry.
func (g *OpenAI) InterpretEntry(ctx context.Context, entry *domain.Entry) (string, error) {
	user := fmt.Sprintf(
		"Dream title: %s\n"+
			"Types: %s\n"+
			"Narrative: %s\n"+
			"Mood: %s\n"+
			"Symbols: %s\n"+
			"Self interpretation: %s\n"+
			"Lucidity score: %s\n"+
			"REM minutes: %s\n"+
			"Deep sleep minutes: %s\n"+
			"Total sleep minutes: %s",
		entry.Title,
		strings.Join(entry.DreamTypes, ", "),
		entry.Narrative,
		entry.Mood,
		entry.Symbols,
		entry.SelfInterpretation,
		optionalInt(entry.LucidityScore),
		optionalInt(entry.RemMinutes),
		optionalInt(entry.DeepSleepMinutes),
		optionalInt(entry.TotalSleepMinutes),
	)
	return g.chat(ctx, interpretSystemPrompt, user)
}

// ProtocolPlan returns a 7-day plan built from the snapshot and the
// titles of the most recent entries.
func (g *OpenAI) ProtocolPlan(ctx context.Context, snap stats.Snapshot, recent []domain.Entry) (string, error) {
	titles := make([]string, 0, 7)
	for _, e := range recent {
		if len(titles) == 7 {
			break
		}
		title := e.Title
		if title == "" {
			title = "Untitled"
		}
		titles = append(titles, title)
	}

	statsJSON, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("encode stats: %w", err)
	}

	user := fmt.Sprintf(
		"Stats: %s\n"+
			"Recent dream titles: %s\n"+
			"Goal: maximize lucid dreaming rate without harming sleep quality.",
		statsJSON,
		strings.Join(titles, ", "),
	)
	return g.chat(ctx, protocolSystemPrompt, user)
}

func optionalInt(n *int) string {
	if n == nil {
		return ""
	}
	return fmt.Sprintf("%d", *n)
}
