package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ActivitySession is the telemetry record for one run of an interactive
// activity: when it started, what the learner did, and how it ended.
type ActivitySession struct {
	ID               uuid.UUID       `json:"id"`
	SessionID        string          `json:"session_id"`
	ActivityID       string          `json:"activity_id"`
	StartedAt        time.Time       `json:"started_at"`
	EndedAt          *time.Time      `json:"ended_at"`
	InteractionsJSON json.RawMessage `json:"interactions"`
	FinalScore       *int            `json:"final_score"`
	Completed        bool            `json:"completed"`
	TimeSpentSeconds *int            `json:"time_spent_seconds"`
}

type Interaction struct {
	Type      string          `json:"type"` // "answer" | "choice" | "input" | "complete"
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

type StartActivityRequest struct {
	ActivityID string `json:"activity_id" validate:"required"`
}

type InteractionRequest struct {
	Type string          `json:"type" validate:"required"`
	Data json.RawMessage `json:"data"`
}

type CompleteActivityRequest struct {
	FinalScore *int `json:"final_score"`
}
