package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ChatMessage is one turn of the persistent conversation transcript.
type ChatMessage struct {
	ID        int64
	Role      string // "user" or "assistant"
	Content   string
	CreatedAt time.Time
}

// Interaction records one full utterance cycle for later inspection.
type Interaction struct {
	ID         string
	CreatedAt  time.Time
	Utterance  string
	Directives string // JSON array stored as text
	Category   string
	Response   string
	Status     string
}

type Job struct {
	ID          string
	Type        string
	PayloadJSON string
	Status      string // "pending", "running", "completed", "failed"
	Attempts    int
	MaxAttempts int
	RunAfter    time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastError   string
}
