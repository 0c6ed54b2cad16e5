package models

import (
	"time"

	"gorm.io/gorm"
)

// SessionSnapshot is the durable copy of an in-memory conversation session.
// The live session map is authoritative while a session is alive; snapshots
// are written through best-effort so a restarted process can restore
// role/community context after the in-memory copy is gone.
type SessionSnapshot struct {
	gorm.Model
	Phone          string    `json:"phone" gorm:"uniqueIndex"`
	CurrentFlow    string    `json:"current_flow"`
	Role           string    `json:"role"`
	Community      string    `json:"community"`
	Scratch        string    `json:"scratch"` // JSON string with in-progress flow data
	LastActivityAt time.Time `json:"last_activity_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}
