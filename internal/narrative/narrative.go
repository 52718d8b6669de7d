// Package narrative generates best-effort coaching text (dream
// interpretation, 7-day protocol plans) from structured journal data.
// Generation is strictly decoupled from entry persistence: callers
// degrade to FallbackMessage on any error.
package narrative

import (
	"context"

	"github.com/ashureev/dreamdiary/internal/domain"
	"github.com/ashureev/dreamdiary/internal/stats"
)

// Generator produces coaching text from structured journal data.
type Generator interface {
	// InterpretEntry returns an interpretation of one recalled entry.
	InterpretEntry(ctx context.Context, entry *domain.Entry) (string, error)

	// ProtocolPlan returns a 7-day lucid-dreaming plan built from the
	// stats snapshot and a recent-entry window.
	ProtocolPlan(ctx context.Context, snap stats.Snapshot, recent []domain.Entry) (string, error)
}

// DisabledNotice is returned by the disabled generator.
const DisabledNotice = "AI coaching is disabled. Set OPENAI_API_KEY to enable interpretation and protocol planning."

// FallbackMessage is what adapters surface when generation fails.
const FallbackMessage = "AI coaching is unavailable right now. Your journal is saved; try again later."

// Disabled is the no-op generator used when no API key is configured.
type Disabled struct{}

// InterpretEntry returns the disabled placeholder.
func (Disabled) InterpretEntry(ctx context.Context, entry *domain.Entry) (string, error) {
	return DisabledNotice, nil
}

// ProtocolPlan returns the disabled placeholder.
func (Disabled) ProtocolPlan(ctx context.Context, snap stats.Snapshot, recent []domain.Entry) (string, error) {
	return DisabledNotice, nil
}
