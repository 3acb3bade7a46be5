package model

import (
	"time"
)

type User struct {
	ID                string     `db:"id" json:"id"`
	UserID            string     `db:"user_id" json:"userId"`
	Email             *string    `db:"email" json:"email,omitempty"`
	PasswordHash      *string    `db:"password_hash" json:"-"`
	Role              UserRole   `db:"role" json:"role"`
	IsActive          bool       `db:"is_active" json:"isActive"`
	AutoCleanup       bool       `db:"auto_cleanup" json:"autoCleanup"`
	MaxSessions       int        `db:"max_sessions" json:"maxSessions"`
	NotificationEmail *string    `db:"notification_email" json:"notificationEmail,omitempty"`
	TotalActions      int64      `db:"total_actions" json:"totalActions"`
	SuccessfulActions int64      `db:"successful_actions" json:"successfulActions"`
	FailedActions     int64      `db:"failed_actions" json:"failedActions"`
	LoginCount        int        `db:"login_count" json:"loginCount"`
	LastLoginAt       *time.Time `db:"last_login_at" json:"lastLoginAt,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updatedAt"`
}

type CreateUserParams struct {
	UserID       string
	Email        *string
	PasswordHash *string
}

type UpdateSettingsParams struct {
	AutoCleanup       *bool   `json:"autoCleanup"`
	MaxSessions       *int    `json:"maxSessions"`
	NotificationEmail *string `json:"notificationEmail"`
}
