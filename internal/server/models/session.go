package models

import "time"

// MemberRef is the snapshot of a member stored with a session.
type MemberRef struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Session binds an opaque id to a member snapshot.
type Session struct {
	ID        string    `json:"id"`
	Member    MemberRef `json:"member"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether s is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
