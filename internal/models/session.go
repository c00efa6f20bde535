package models

import "time"

// Session is the verified claim set of a bearer token. It is never persisted.
type Session struct {
	TokenID   string
	Username  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
