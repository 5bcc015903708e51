package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GradeLevels are the twelve levels a learner can register with.
var GradeLevels = []string{
	"Grade 1", "Grade 2", "Grade 3", "Grade 4",
	"Grade 5", "Grade 6", "Grade 7", "Grade 8",
	"Grade 9", "Grade 10", "Grade 11", "Grade 12",
}

// User is a learner record. It is written once at registration and never
// updated; the session id doubles as the document key in both storage tiers.
type User struct {
	SessionID string    `json:"session_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Grade     string    `json:"grade"`
	School    string    `json:"school"`
	CreatedAt time.Time `json:"created_at"`
}

type RegisterRequest struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name"  validate:"required,max=100"`
	Grade     string `json:"grade"      validate:"required,grade_level"`
	School    string `json:"school"     validate:"required,max=200"`
}

type LoginRequest struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name"  validate:"required"`
}

type SessionResponse struct {
	User        *User  `json:"user"`
	SessionID   string `json:"session_id"`
	AccessToken string `json:"access_token"`
}

// NewSessionID generates a collision-resistant session token in the
// session_<unixms>_<suffix> form the frontend already stores.
func NewSessionID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("session_%d_%s", time.Now().UnixMilli(), suffix)
}

func IsGradeLevel(s string) bool {
	for _, g := range GradeLevels {
		if s == g {
			return true
		}
	}
	return false
}
