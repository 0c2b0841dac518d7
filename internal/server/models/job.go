package models

import "time"

// JobState is the lifecycle state of a queued task.
type JobState string

const (
	JobPending JobState = "pending"
	JobRunning JobState = "running"
	JobDone    JobState = "done"
	JobDead    JobState = "dead"
)

// Task kinds.
const (
	JobKindThumbnail = "thumbnail"
	JobKindWelcome   = "welcome"
)

// Job is a unit of asynchronous work. Attempt counts claims so far,
// including the one in progress.
type Job struct {
	ID          int64
	Kind        string
	Payload     []byte
	State       JobState
	Attempt     int
	MaxAttempts int
	RunAt       time.Time
	LockedUntil time.Time
	LastError   string
}

// ThumbnailPayload is the payload of a JobKindThumbnail task.
type ThumbnailPayload struct {
	FileID ID `json:"fileId"`
	UserID ID `json:"userId"`
}

// WelcomePayload is the payload of a JobKindWelcome task.
type WelcomePayload struct {
	UserID ID `json:"userId"`
}
