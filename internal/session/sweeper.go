package session

import (
	"context"
	"log/slog"
	"time"
)

const sweepInterval = 5 * time.Minute

// StartIdleSweeper runs a background goroutine that periodically drops
// sessions with no activity for longer than ttl. An expired session is
// equivalent to a cancel: nothing is persisted.
func (e *Engine) StartIdleSweeper(ctx context.Context, ttl time.Duration) {
	ticker := time.NewTicker(sweepInterval)
	go func() {
		defer ticker.Stop()
		slog.Info("Session idle sweeper started", "interval", sweepInterval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				e.sweepIdle(ttl)
			case <-ctx.Done():
				slog.Info("Session idle sweeper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func (e *Engine) sweepIdle(ttl time.Duration) {
	cutoff := e.now().Add(-ttl)

	e.mu.Lock()
	slots := make(map[string]*slot, len(e.slots))
	for userID, s := range e.slots {
		slots[userID] = s
	}
	e.mu.Unlock()

	expired := 0
	for userID, s := range slots {
		s.mu.Lock()
		if s.session != nil && s.session.LastActivity.Before(cutoff) {
			s.session = nil
			expired++
			slog.Info("Expired idle session", "user_id", userID)
		}
		idle := s.session == nil
		s.mu.Unlock()
		if !idle {
			continue
		}

		// Empty slots are removed so the slot table stays bounded by
		// the set of users with live sessions. TryLock keeps the lock
		// order consistent with lockSlot; a contended slot is simply
		// left for the next sweep.
		e.mu.Lock()
		if cur, ok := e.slots[userID]; ok && cur == s && cur.mu.TryLock() {
			if cur.session == nil {
				delete(e.slots, userID)
			}
			cur.mu.Unlock()
		}
		e.mu.Unlock()
	}

	if expired > 0 {
		slog.Info("Session idle sweep completed", "expired", expired)
	}
}
