package planner

import "github.com/mauv0809/crispy-shuttle/internal/club"

// Entrant is one checked-in player as the planner sees them. Levels are
// pre-resolved effective ratings; HasLevel false means the player carries
// no usable rating and balance scoring must not weigh against them.
type Entrant struct {
	ID              string
	Category        club.Category
	Level           float64
	HasLevel        bool
	SinglesLevel    float64
	HasSinglesLevel bool
	Played          int
}

// Seat is one slot assignment inside a planned match. Doubles use slots
// 0,1 (team one) and 2,3 (team two); singles use slots 1 and 2.
type Seat struct {
	Slot   int
	Player string
}

// PlannedMatch is a single court assignment produced by the planner.
type PlannedMatch struct {
	CourtIdx int
	Type     club.MatchType
	Seats    []Seat
}

// Plan is the full output for one round.
type Plan struct {
	Round   int
	Matches []PlannedMatch
	Benched []string
}

const (
	partnerRepeatPenalty  = 1000.0
	opponentRepeatPenalty = 500.0
)
