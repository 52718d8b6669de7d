// Package stats derives point-in-time analytics from a bounded window
// of journal entries: recall split, lucid ratio, symbol frequency,
// sleep averages, and the daily streak.
package stats

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ashureev/dreamdiary/internal/content"
	"github.com/ashureev/dreamdiary/internal/domain"
	"github.com/ashureev/dreamdiary/internal/store"
)

// SymbolCount is one recurring-symbol tally.
type SymbolCount struct {
	Symbol string `json:"symbol"`
	Count  int    `json:"count"`
}

// Snapshot is a point-in-time statistics summary over the most recent
// WindowSize entries. Ratios and averages have defined degenerate
// values on empty data; averages are nil when the subgroup is empty.
type Snapshot struct {
	WindowSize       int           `json:"window_size"`
	Entries          int           `json:"entries"`
	Recalled         int           `json:"recalled"`
	NoRecall         int           `json:"no_recall"`
	LucidCount       int           `json:"lucid_count"`
	LucidRatio       float64       `json:"lucid_ratio"`
	AvgSleepRecalled *float64      `json:"avg_sleep_recalled"`
	AvgSleepNoRecall *float64      `json:"avg_sleep_no_recall"`
	Streak           int           `json:"streak"`
	TopSymbols       []SymbolCount `json:"top_symbols"`
}

// Build computes a snapshot from an already-fetched window of entries
// (newest first) and the user's persisted streak value.
func Build(entries []domain.Entry, windowSize, streak int) Snapshot {
	snap := Snapshot{
		WindowSize: windowSize,
		Entries:    len(entries),
		Streak:     streak,
		TopSymbols: []SymbolCount{},
	}

	var recalled, noRecall []domain.Entry
	for _, e := range entries {
		if e.Recalled() {
			recalled = append(recalled, e)
		} else {
			noRecall = append(noRecall, e)
		}
	}
	snap.Recalled = len(recalled)
	snap.NoRecall = len(noRecall)

	for _, e := range recalled {
		if e.HasDreamType(content.LucidLabel) {
			snap.LucidCount++
		}
	}
	if len(recalled) > 0 {
		snap.LucidRatio = round1(float64(snap.LucidCount) / float64(len(recalled)) * 100)
	}

	snap.AvgSleepRecalled = avgSleepMinutes(recalled)
	snap.AvgSleepNoRecall = avgSleepMinutes(noRecall)
	snap.TopSymbols = TopSymbols(recalled, 5)

	return snap
}

// BuildSnapshot fetches the most recent window entries for the user
// and computes the snapshot. The window size is caller-specified.
func BuildSnapshot(ctx context.Context, repo store.Repository, userID string, window int) (Snapshot, error) {
	entries, err := repo.GetRecentEntries(ctx, userID, window)
	if err != nil {
		return Snapshot{}, fmt.Errorf("fetch entry window: %w", err)
	}

	streak := 0
	user, err := repo.GetUser(ctx, userID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("fetch user: %w", err)
	}
	if user != nil {
		streak = user.Streak
	}

	return Build(entries, window, streak), nil
}

// TopSymbols tallies comma-separated symbols across the given entries,
// case-insensitively, and returns the top n by descending count. Ties
// keep first-seen order, so the sort must be stable.
func TopSymbols(entries []domain.Entry, n int) []SymbolCount {
	counts := make(map[string]int)
	var order []string

	for _, e := range entries {
		for _, raw := range strings.Split(e.Symbols, ",") {
			symbol := strings.ToLower(strings.TrimSpace(raw))
			if symbol == "" {
				continue
			}
			if _, seen := counts[symbol]; !seen {
				order = append(order, symbol)
			}
			counts[symbol]++
		}
	}

	result := make([]SymbolCount, 0, len(order))
	for _, symbol := range order {
		result = append(result, SymbolCount{Symbol: symbol, Count: counts[symbol]})
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Count > result[j].Count
	})

	if len(result) > n {
		result = result[:n]
	}
	return result
}

func avgSleepMinutes(entries []domain.Entry) *float64 {
	var sum, count int
	for _, e := range entries {
		if e.TotalSleepMinutes != nil {
			sum += *e.TotalSleepMinutes
			count++
		}
	}
	if count == 0 {
		return nil
	}
	avg := round1(float64(sum) / float64(count))
	return &avg
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
