package session

import (
	"database/sql"
	"errors"
	"sync"
)

// store handles database operations for training-session lifecycle.
type store struct {
	db     *sql.DB
	tenant string
	mu     sync.RWMutex
}

var (
	ErrNoActiveSession = errors.New("no active training session")
	ErrSnapshotFailed  = errors.New("failed to snapshot session statistics")
	ErrSnapshotMissing = errors.New("snapshot not found")
)

// Status is the lifecycle state of a training session. Transitions are
// monotonic: scheduled, active, ended.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusActive    Status = "active"
	StatusEnded     Status = "ended"
)

// TrainingSession is one club training evening.
type TrainingSession struct {
	ID        string `json:"id"`
	Date      int64  `json:"date"`
	Status    Status `json:"status"`
	CreatedAt int64  `json:"created_at"`
}

// snapshotVersion is the current snapshot document format. Readers
// dispatch on it, so bump it whenever the embedded shapes change.
const snapshotVersion = 1

// SnapshotMatch is the frozen copy of one match inside a snapshot.
type SnapshotMatch struct {
	ID        string `json:"id"`
	CourtID   string `json:"court_id"`
	CourtIdx  int    `json:"court_idx"`
	Round     int    `json:"round"`
	StartedAt int64  `json:"started_at"`
	EndedAt   *int64 `json:"ended_at,omitempty"`
}

// SnapshotSlot is the frozen copy of one slot assignment.
type SnapshotSlot struct {
	MatchID    string `json:"match_id"`
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Slot       int    `json:"slot"`
}

// SnapshotCheckIn is the frozen copy of one check-in.
type SnapshotCheckIn struct {
	PlayerID   string  `json:"player_id"`
	PlayerName string  `json:"player_name"`
	MaxRounds  *int    `json:"max_rounds,omitempty"`
	Note       *string `json:"note,omitempty"`
	CreatedAt  int64   `json:"created_at"`
}

// Snapshot is the immutable capture of a finished session. It is a deep
// value copy: later edits to players, courts or matches never change it.
type Snapshot struct {
	ID          string            `json:"id"`
	SessionID   string            `json:"session_id"`
	SessionDate int64             `json:"session_date"`
	Season      string            `json:"season"`
	Version     int               `json:"version"`
	Matches     []SnapshotMatch   `json:"matches"`
	Slots       []SnapshotSlot    `json:"match_players"`
	CheckIns    []SnapshotCheckIn `json:"check_ins"`
	CreatedAt   int64             `json:"created_at"`
}
