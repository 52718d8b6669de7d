package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ashureev/dreamdiary/internal/domain"
)

func intPtr(n int) *int { return &n }

func TestTopSymbols(t *testing.T) {
	entries := []domain.Entry{
		{Symbols: "Fire, water"},
		{Symbols: "fire"},
		{Symbols: "Door"},
	}

	got := TopSymbols(entries, 5)
	want := []SymbolCount{
		{Symbol: "fire", Count: 2},
		{Symbol: "water", Count: 1},
		{Symbol: "door", Count: 1},
	}

	if len(got) != len(want) {
		t.Fatalf("Expected %d symbols, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Position %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestTopSymbols_TieBreakKeepsFirstSeen(t *testing.T) {
	entries := []domain.Entry{
		{Symbols: "mirror, ocean"},
		{Symbols: "ocean, mirror"},
		{Symbols: "stairs"},
	}

	got := TopSymbols(entries, 2)
	if len(got) != 2 {
		t.Fatalf("Expected 2 symbols, got %d", len(got))
	}
	if got[0].Symbol != "mirror" || got[1].Symbol != "ocean" {
		t.Errorf("Expected first-seen tie order [mirror ocean], got %v", got)
	}
}

func TestTopSymbols_SkipsBlanks(t *testing.T) {
	entries := []domain.Entry{
		{Symbols: " , ,key, "},
		{Symbols: ""},
	}

	got := TopSymbols(entries, 5)
	if len(got) != 1 || got[0].Symbol != "key" {
		t.Errorf("Expected only [key], got %v", got)
	}
}

func TestBuild_LucidRatioOverRecalledOnly(t *testing.T) {
	entries := []domain.Entry{
		{DreamTypes: []string{"Lucid", "Vivid"}},
		{DreamTypes: []string{"Mundane"}},
		{DreamTypes: []string{"Nightmare"}},
		{DreamTypes: []string{"Recurring"}},
		{NoDreamRecall: true},
		{NoDreamRecall: true},
	}

	snap := Build(entries, 30, 0)
	if snap.Recalled != 4 || snap.NoRecall != 2 {
		t.Errorf("Expected 4 recalled / 2 no-recall, got %d / %d", snap.Recalled, snap.NoRecall)
	}
	if snap.LucidCount != 1 {
		t.Errorf("Expected 1 lucid entry, got %d", snap.LucidCount)
	}
	if snap.LucidRatio != 25.0 {
		t.Errorf("Expected lucid ratio 25.0, got %v", snap.LucidRatio)
	}
}

func TestBuild_LucidRatioRounding(t *testing.T) {
	entries := []domain.Entry{
		{DreamTypes: []string{"Lucid"}},
		{DreamTypes: []string{"Mundane"}},
		{DreamTypes: []string{"Mundane"}},
	}

	snap := Build(entries, 30, 0)
	if snap.LucidRatio != 33.3 {
		t.Errorf("Expected lucid ratio 33.3, got %v", snap.LucidRatio)
	}
}

func TestBuild_EmptyWindow(t *testing.T) {
	snap := Build(nil, 30, 0)

	if snap.Entries != 0 || snap.LucidRatio != 0 {
		t.Errorf("Expected zeroed snapshot, got entries=%d ratio=%v", snap.Entries, snap.LucidRatio)
	}
	if snap.AvgSleepRecalled != nil || snap.AvgSleepNoRecall != nil {
		t.Error("Expected nil averages on empty window")
	}
	if snap.TopSymbols == nil || len(snap.TopSymbols) != 0 {
		t.Errorf("Expected empty (not nil) symbol list, got %v", snap.TopSymbols)
	}
}

func TestBuild_OnlyNoRecallEntries(t *testing.T) {
	entries := []domain.Entry{
		{NoDreamRecall: true, TotalSleepMinutes: intPtr(400)},
		{NoDreamRecall: true, TotalSleepMinutes: intPtr(421)},
	}

	snap := Build(entries, 30, 0)
	if snap.LucidRatio != 0 {
		t.Errorf("Expected lucid ratio 0 with no recalled entries, got %v", snap.LucidRatio)
	}
	if snap.AvgSleepRecalled != nil {
		t.Error("Expected nil recalled average")
	}
	if snap.AvgSleepNoRecall == nil || *snap.AvgSleepNoRecall != 410.5 {
		t.Errorf("Expected no-recall average 410.5, got %v", snap.AvgSleepNoRecall)
	}
}

func TestBuild_SymbolsFromRecalledOnly(t *testing.T) {
	entries := []domain.Entry{
		{Symbols: "river"},
		{NoDreamRecall: true, Symbols: "ghost"},
	}

	snap := Build(entries, 30, 0)
	if len(snap.TopSymbols) != 1 || snap.TopSymbols[0].Symbol != "river" {
		t.Errorf("Expected symbols only from recalled entries, got %v", snap.TopSymbols)
	}
}

func TestBuild_AverageSkipsMissingSleep(t *testing.T) {
	entries := []domain.Entry{
		{TotalSleepMinutes: intPtr(420)},
		{}, // no sleep data recorded
		{TotalSleepMinutes: intPtr(480)},
	}

	snap := Build(entries, 30, 0)
	if snap.AvgSleepRecalled == nil || *snap.AvgSleepRecalled != 450.0 {
		t.Errorf("Expected recalled average 450.0, got %v", snap.AvgSleepRecalled)
	}
}

func TestConsecutiveDays(t *testing.T) {
	today := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		days []string
		want int
	}{
		{"empty", nil, 0},
		{"today only", []string{"2025-06-15"}, 1},
		{"run of three with gap", []string{"2025-06-15", "2025-06-14", "2025-06-13", "2025-06-11"}, 3},
		{"today missing", []string{"2025-06-14", "2025-06-13"}, 0},
		{"month boundary", []string{"2025-06-15", "2025-06-14", "2025-06-13", "2025-06-12", "2025-06-11", "2025-06-10", "2025-06-09", "2025-06-08", "2025-06-07", "2025-06-06", "2025-06-05", "2025-06-04", "2025-06-03", "2025-06-02", "2025-06-01", "2025-05-31", "2025-05-30"}, 17},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := make(map[string]struct{}, len(tt.days))
			for _, d := range tt.days {
				set[d] = struct{}{}
			}
			if got := ConsecutiveDays(set, today); got != tt.want {
				t.Errorf("Expected streak %d, got %d", tt.want, got)
			}
		})
	}
}

type fakeStreakStore struct {
	days    []string
	daysErr error
	written int
}

func (f *fakeStreakStore) GetEntryDays(ctx context.Context, userID string, since time.Time) ([]string, error) {
	return f.days, f.daysErr
}

func (f *fakeStreakStore) UpdateStreak(ctx context.Context, userID string, streak int) error {
	f.written = streak
	return nil
}

func TestRefreshStreak(t *testing.T) {
	store := &fakeStreakStore{days: []string{"2025-06-15", "2025-06-14", "2025-06-12"}}
	now := time.Date(2025, 6, 15, 23, 30, 0, 0, time.UTC)

	got, err := RefreshStreak(context.Background(), store, "user-1", now)
	if err != nil {
		t.Fatalf("RefreshStreak failed: %v", err)
	}
	if got != 2 {
		t.Errorf("Expected streak 2, got %d", got)
	}
	if store.written != 2 {
		t.Errorf("Expected streak 2 persisted, got %d", store.written)
	}
}

func TestRefreshStreak_FetchError(t *testing.T) {
	store := &fakeStreakStore{daysErr: errors.New("db gone")}

	_, err := RefreshStreak(context.Background(), store, "user-1", time.Now())
	if err == nil {
		t.Fatal("Expected error when day fetch fails")
	}
	if store.written != 0 {
		t.Errorf("Expected no streak write on fetch error, got %d", store.written)
	}
}
