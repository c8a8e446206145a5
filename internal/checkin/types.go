package checkin

import (
	"database/sql"
	"errors"
	"sync"

	"github.com/mauv0809/crispy-shuttle/internal/club"
)

// store handles database operations for the check-in ledger.
type store struct {
	db     *sql.DB
	club   club.ClubStore
	tenant string
	mu     sync.RWMutex
}

var (
	ErrInactivePlayer = errors.New("player is inactive")
	ErrNotCheckedIn   = errors.New("player is not checked in")
)

// CheckIn records that a player is attending a training session.
// MaxRounds caps how many rounds the player wants to play; nil means no cap.
type CheckIn struct {
	ID        string  `json:"id"`
	SessionID string  `json:"session_id"`
	PlayerID  string  `json:"player_id"`
	MaxRounds *int    `json:"max_rounds,omitempty"`
	Note      *string `json:"note,omitempty"`
	CreatedAt int64   `json:"created_at"`
}

// AdmitOptions carries the optional fields of a new check-in.
type AdmitOptions struct {
	MaxRounds *int    `json:"max_rounds,omitempty"`
	Note      *string `json:"note,omitempty"`
}

// Patch carries partial updates for an existing check-in. Nil fields are
// left untouched.
type Patch struct {
	MaxRounds *int    `json:"max_rounds,omitempty"`
	Note      *string `json:"note,omitempty"`
}
