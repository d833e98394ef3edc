package models

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Video status values as persisted in the videos table.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// VideoState is the lifecycle state derived from a row's status and
// external task id. A pending row without an OpenAI task id never reached
// the generation API, which is a different situation than a submitted job
// we are still waiting on.
type VideoState int

const (
	StateNeedsSubmission VideoState = iota
	StateAwaitingResult
	StateCompleted
	StateFailed
)

type Video struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	Prompt         string
	EnhancedPrompt sql.NullString
	Model          string
	Duration       int
	Size           string
	Category       string
	Style          sql.NullString
	Status         string
	OpenAITaskID   sql.NullString
	StoragePath    sql.NullString
	ThumbnailPath  sql.NullString
	Cost           float64
	ErrorMessage   sql.NullString
	Metadata       json.RawMessage
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (v *Video) State() VideoState {
	switch v.Status {
	case StatusCompleted:
		return StateCompleted
	case StatusFailed:
		return StateFailed
	default:
		if !v.OpenAITaskID.Valid {
			return StateNeedsSubmission
		}
		return StateAwaitingResult
	}
}

// Outstanding reports whether the poller still has work to do for this row.
func (v *Video) Outstanding() bool {
	return v.Status == StatusPending || v.Status == StatusProcessing
}
