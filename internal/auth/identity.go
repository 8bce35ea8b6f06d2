package auth

import "time"

// Identity is the authenticated caller attached to a request.
type Identity struct {
	UserID    uint
	Username  string
	Email     string
	TokenID   string
	ExpiresAt time.Time
}
