package models

import "time"

// Moderation log actions written by the service.
const (
	ActionPermanentBan = "Permanent ban"
	ActionUnban        = "Unban"
	ActionLockThread   = "Lock thread"
	ActionUnlockThread = "Unlock thread"
)

// ModerationLogEntry is one row of the append-only moderation audit trail.
type ModerationLogEntry struct {
	ID          string
	ModeratorID string
	Action      string
	TargetType  ContentType
	TargetID    string
	Notes       string
	CreatedAt   time.Time
}

// Thread carries the moderation-relevant columns of a discussion thread.
type Thread struct {
	ID       string
	Title    string
	IsLocked bool
}
