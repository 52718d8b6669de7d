// Package domain contains core domain types for the dream diary.
package domain

import (
	"time"
)

// User represents a journaling user and their derived streak state.
// Streak is recomputed on every entry save, never incremented.
type User struct {
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	ChatBinding string    `json:"chat_binding,omitempty"`
	Streak      int       `json:"streak"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HasChatBinding returns true if a delivery channel is bound to the user.
func (u *User) HasChatBinding() bool {
	return u.ChatBinding != ""
}
