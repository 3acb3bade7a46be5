package model

import (
	"time"
)

// ActionAttempt records one action execution against one target through
// one session. The raw fb id never leaves the database; external views
// carry only the masked form.
type ActionAttempt struct {
	ID            string        `db:"id" json:"actionId"`
	Seq           int64         `db:"seq" json:"-"`
	UserID        string        `db:"user_id" json:"-"`
	SessionID     string        `db:"session_id" json:"-"`
	FBID          string        `db:"fb_id" json:"-"`
	MaskedFBID    string        `db:"masked_fb_id" json:"maskedFbId"`
	ActionKind    ActionKind    `db:"action_kind" json:"actionType"`
	TargetURL     string        `db:"target_url" json:"targetUrl"`
	TargetID      string        `db:"target_id" json:"targetId"`
	Comment       *string       `db:"comment" json:"comment,omitempty"`
	Status        AttemptStatus `db:"status" json:"status"`
	ResultMessage *string       `db:"result_message" json:"resultMessage,omitempty"`
	ErrorMessage  *string       `db:"error_message" json:"errorMessage,omitempty"`
	ExecutionMs   *int64        `db:"execution_ms" json:"executionTime,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"timestamp"`
}

type CreateAttemptParams struct {
	UserID     string
	SessionID  string
	FBID       string
	MaskedFBID string
	ActionKind ActionKind
	TargetURL  string
	TargetID   string
	Comment    *string
}

// AttemptFilter narrows history queries. Zero-valued fields are ignored.
type AttemptFilter struct {
	UserID string
	Kind   ActionKind
	Status AttemptStatus
}

// WindowStats are attempt counts over a time window.
type WindowStats struct {
	Total      int `db:"total" json:"total"`
	Successful int `db:"successful" json:"successful"`
	Failed     int `db:"failed" json:"failed"`
}

// KindCount is the per-action-kind aggregate used by stats endpoints.
type KindCount struct {
	Kind       ActionKind `db:"action_kind" json:"actionType"`
	Total      int        `db:"total" json:"total"`
	Successful int        `db:"successful" json:"successful"`
	Failed     int        `db:"failed" json:"failed"`
}

// DayCount is one day of the analytics timeline.
type DayCount struct {
	Day        string `db:"day" json:"day"`
	Total      int    `db:"total" json:"total"`
	Successful int    `db:"successful" json:"successful"`
	Failed     int    `db:"failed" json:"failed"`
}

// SessionPerformance ranks sessions by successful attempts over a window.
type SessionPerformance struct {
	MaskedFBID string `db:"masked_fb_id" json:"fbId"`
	Total      int    `db:"total" json:"total"`
	Successful int    `db:"successful" json:"successful"`
	Failed     int    `db:"failed" json:"failed"`
}
