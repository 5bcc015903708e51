package models

import (
	"time"

	"github.com/google/uuid"
)

// Sync job types carried on the Redis queues.
const (
	JobProgressSync   = "progress-sync"
	JobReflectionSave = "reflection-save"
)

// SyncJob is the envelope pushed onto a sync queue. Progress jobs carry the
// final merged document; the worker mirrors it into Postgres verbatim.
type SyncJob struct {
	ID         uuid.UUID `json:"id"`
	Type       string    `json:"type"`
	SessionID  string    `json:"session_id"`
	Progress   *Progress `json:"progress,omitempty"`
	ActivityID string    `json:"activity_id,omitempty"`
	Reflection string    `json:"reflection,omitempty"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// WebSocket message types
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// SyncEvent is published after a progress job lands in Postgres so the
// client can show a "saved" indicator.
type SyncEvent struct {
	SessionID  string    `json:"session_id"`
	TotalScore int       `json:"total_score"`
	SyncedAt   time.Time `json:"synced_at"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
