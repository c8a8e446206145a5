package matchmaking

import (
	"database/sql"
	"errors"
	"sync"

	"github.com/mauv0809/crispy-shuttle/internal/checkin"
	"github.com/mauv0809/crispy-shuttle/internal/club"
)

// store handles database operations for matches and slot assignments.
type store struct {
	db     *sql.DB
	club   club.ClubStore
	ledger checkin.Ledger
	tenant string
	mu     sync.RWMutex
}

var (
	ErrCourtNotFound = errors.New("court not found")
	ErrInvalidSlot   = errors.New("slot index out of range")
	ErrSlotOccupied  = errors.New("slot is occupied by another player")
	ErrCourtFull     = errors.New("court already has four players")
	ErrMatchNotFound = errors.New("match not found")
	ErrInvalidScore  = errors.New("invalid badminton score")
)

// Match is one court booking within a round, including its slot
// assignments. Doubles fill slots 0-3, singles fill slots 1 and 2.
type Match struct {
	ID        string           `json:"id"`
	SessionID string           `json:"session_id"`
	CourtID   string           `json:"court_id"`
	CourtIdx  int              `json:"court_idx"`
	Round     int              `json:"round"`
	StartedAt int64            `json:"started_at"`
	EndedAt   *int64           `json:"ended_at,omitempty"`
	Slots     []SlotAssignment `json:"slots"`
}

// SlotAssignment places one player on one slot of a match.
type SlotAssignment struct {
	ID       string `json:"id"`
	MatchID  string `json:"match_id"`
	PlayerID string `json:"player_id"`
	Slot     int    `json:"slot"`
}

// ArrangeResult is the outcome of planning one round.
type ArrangeResult struct {
	Round   int      `json:"round"`
	Matches []Match  `json:"matches"`
	Benched []string `json:"benched"`
}
