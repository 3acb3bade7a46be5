package model

import (
	"time"
)

// FacebookSession is a stored cookie bundle permitting automated action
// on behalf of an external Facebook account. Cookies are encrypted at rest.
type FacebookSession struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"-"`
	FBID       string    `db:"fb_id" json:"-"`
	FBName     string    `db:"fb_name" json:"fbName"`
	Cookies    string    `db:"cookies" json:"-"`
	UserAgent  string    `db:"user_agent" json:"userAgent"`
	IsActive   bool      `db:"is_active" json:"isActive"`
	LastUsedAt time.Time `db:"last_used_at" json:"lastUsed"`
	ExpiresAt  time.Time `db:"expires_at" json:"expiresAt"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// Eligible reports whether the session may be used for a dispatch.
// This is the single definition of eligibility; repository queries
// mirror it exactly.
func (s *FacebookSession) Eligible(now time.Time) bool {
	return s.IsActive && s.ExpiresAt.After(now)
}

type CreateFacebookSessionParams struct {
	UserID    string
	FBID      string
	FBName    string
	Cookies   string
	UserAgent string
	ExpiresAt time.Time
}
