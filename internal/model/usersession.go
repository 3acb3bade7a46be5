package model

import (
	"time"
)

// UserSession is a browser login session for the service's own UI/API,
// stored as an HMAC of the cookie token.
type UserSession struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"userId"`
	TokenHash string    `db:"token_hash" json:"-"`
	ExpiresAt time.Time `db:"expires_at" json:"expiresAt"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type CreateUserSessionParams struct {
	UserID    string
	TokenHash string
	ExpiresAt time.Time
}
