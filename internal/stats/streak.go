package stats

import (
	"context"
	"fmt"
	"time"
)

const dayLayout = "2006-01-02"

// streakWindowDays bounds the scan used by the streak recompute. A
// streak longer than this cannot be represented, which is acceptable
// for a 60-day rolling view.
const streakWindowDays = 60

// ConsecutiveDays counts back from today through the set of calendar
// days, stopping at the first gap. Returns 0 when today is absent.
func ConsecutiveDays(days map[string]struct{}, today time.Time) int {
	streak := 0
	cursor := today.UTC()
	for {
		if _, ok := days[cursor.Format(dayLayout)]; !ok {
			return streak
		}
		streak++
		cursor = cursor.AddDate(0, 0, -1)
	}
}

// RefreshStreak recomputes the user's streak from the distinct entry
// days of the last 60 calendar days and writes it back. This is a full
// recomputation rather than an increment, so it self-corrects after
// gaps or out-of-order saves.
func RefreshStreak(ctx context.Context, repo StreakStore, userID string, now time.Time) (int, error) {
	since := now.UTC().AddDate(0, 0, -streakWindowDays)
	days, err := repo.GetEntryDays(ctx, userID, since)
	if err != nil {
		return 0, fmt.Errorf("fetch entry days: %w", err)
	}

	set := make(map[string]struct{}, len(days))
	for _, day := range days {
		set[day] = struct{}{}
	}

	streak := ConsecutiveDays(set, now)
	if err := repo.UpdateStreak(ctx, userID, streak); err != nil {
		return 0, fmt.Errorf("write streak: %w", err)
	}
	return streak, nil
}

// StreakStore is the subset of the repository the streak recompute needs.
type StreakStore interface {
	GetEntryDays(ctx context.Context, userID string, since time.Time) ([]string, error)
	UpdateStreak(ctx context.Context, userID string, streak int) error
}
