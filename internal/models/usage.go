package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Usage log actions.
const (
	ActionGenerate = "generate"
	ActionUpgrade  = "upgrade"
)

// UsageLog is an append-only spend record created alongside a generation
// or upgrade. Metadata holds a snapshot of the originating request.
type UsageLog struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	VideoID   uuid.UUID
	Action    string
	Cost      float64
	Duration  int
	Metadata  json.RawMessage
	CreatedAt time.Time
}
