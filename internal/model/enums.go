package model

// ActionKind is the category of UI action replayed against a target.
type ActionKind string

const (
	ActionLike     ActionKind = "like"
	ActionLove     ActionKind = "love"
	ActionHaha     ActionKind = "haha"
	ActionSad      ActionKind = "sad"
	ActionAngry    ActionKind = "angry"
	ActionWow      ActionKind = "wow"
	ActionFollow   ActionKind = "follow"
	ActionComment  ActionKind = "comment"
	ActionUnfollow ActionKind = "unfollow"
	ActionUnlike   ActionKind = "unlike"
)

var actionKinds = map[ActionKind]bool{
	ActionLike:     true,
	ActionLove:     true,
	ActionHaha:     true,
	ActionSad:      true,
	ActionAngry:    true,
	ActionWow:      true,
	ActionFollow:   true,
	ActionComment:  true,
	ActionUnfollow: true,
	ActionUnlike:   true,
}

func (k ActionKind) Valid() bool {
	return actionKinds[k]
}

// AttemptStatus is the lifecycle state of a single action attempt.
// pending -> success | failed; cancel-pending moves orphaned pending
// records to cancelled.
type AttemptStatus string

const (
	AttemptPending   AttemptStatus = "pending"
	AttemptSuccess   AttemptStatus = "success"
	AttemptFailed    AttemptStatus = "failed"
	AttemptCancelled AttemptStatus = "cancelled"
)

var attemptStatuses = map[AttemptStatus]bool{
	AttemptPending:   true,
	AttemptSuccess:   true,
	AttemptFailed:    true,
	AttemptCancelled: true,
}

func (s AttemptStatus) Valid() bool {
	return attemptStatuses[s]
}

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)
