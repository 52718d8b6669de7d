// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/ashureev/dreamdiary/internal/domain"
)

// Repository defines the persistence gateway for users, entries, and
// seeded exercises. All calls are atomic at the single-row level; no
// multi-row transaction is required by callers.
type Repository interface {
	// GetUser retrieves a user by ID. Returns (nil, nil) when absent.
	GetUser(ctx context.Context, userID string) (*domain.User, error)

	// EnsureUser creates the user row if absent and refreshes the
	// username and updated_at timestamp.
	EnsureUser(ctx context.Context, userID, username string) error

	// UpdateStreak writes a recomputed streak value for the user.
	UpdateStreak(ctx context.Context, userID string, streak int) error

	// BindChat stores an opaque delivery-channel handle for the user.
	BindChat(ctx context.Context, userID, binding string) error

	// SaveEntry persists a completed entry and returns its ID.
	SaveEntry(ctx context.Context, entry *domain.Entry) (string, error)

	// GetRecentEntries returns up to limit entries for the user,
	// ordered newest first.
	GetRecentEntries(ctx context.Context, userID string, limit int) ([]domain.Entry, error)

	// GetLastEntry returns the most recent entry for the user, or
	// (nil, nil) when the user has no entries.
	GetLastEntry(ctx context.Context, userID string) (*domain.Entry, error)

	// GetEntryDays returns the distinct UTC calendar days (YYYY-MM-DD)
	// on which the user saved at least one entry since the given time,
	// ordered newest first.
	GetEntryDays(ctx context.Context, userID string, since time.Time) ([]string, error)

	// SeedExercises inserts exercises that are not yet stored.
	SeedExercises(ctx context.Context, exercises []domain.Exercise) error

	// GetRandomExercise returns a random seeded exercise, or (nil, nil)
	// when none are stored.
	GetRandomExercise(ctx context.Context) (*domain.Exercise, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
