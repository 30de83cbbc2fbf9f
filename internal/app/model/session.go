package model

import "time"

// SessionTTL is the fixed lifetime of an admin session, measured from login.
const SessionTTL = 24 * time.Hour

// Session is the server-held authentication state behind one opaque cookie
// token. Its existence in the store implies the holder is authenticated.
type Session struct {
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session has outlived its lifetime. The backing
// store evicts expired entries on its own; this is the authoritative check for
// stores whose eviction is lazy.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
