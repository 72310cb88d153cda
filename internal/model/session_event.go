package model

import "time"

const (
	SessionEventCreated    = "created"
	SessionEventUpdated    = "updated"
	SessionEventDraftSaved = "draft_saved"
	SessionEventPublished  = "published"
	SessionEventDeleted    = "deleted"
)

// SessionEvent is emitted after every successful session mutation.
type SessionEvent struct {
	Type       string    `json:"type"`
	SessionID  string    `json:"session_id"`
	UserID     string    `json:"user_id"`
	Status     string    `json:"status,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
