package club

import (
	"database/sql"
	"errors"
	"sync"
)

// store handles all database operations for the club roster.
type store struct {
	db     *sql.DB
	tenant string
	mu     sync.RWMutex
}

var (
	ErrUnknownPlayer = errors.New("unknown player")
	ErrUnknownCourt  = errors.New("unknown court")
)

// Category restricts which match types a player may be placed in.
type Category string

const (
	CategorySinglesOnly Category = "singles_only"
	CategoryDoublesOnly Category = "doubles_only"
	CategoryEither      Category = "either"
)

// MatchType identifies the discipline a match is played as.
type MatchType string

const (
	MatchTypeSingles MatchType = "singles"
	MatchTypeDoubles MatchType = "doubles"
	MatchTypeMixed   MatchType = "mixed"
)

// PlayerInfo represents a club member. The three level fields are
// sport-specific ratings; a nil rating means the player has never been
// rated for that discipline, which is not the same as a rating of 0.
type PlayerInfo struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Alias            *string   `json:"alias,omitempty"`
	LevelSingle      *float64  `json:"level_single,omitempty"`
	LevelDouble      *float64  `json:"level_double,omitempty"`
	LevelMix         *float64  `json:"level_mix,omitempty"`
	Gender           *string   `json:"gender,omitempty"`
	Category         Category  `json:"category"`
	Active           bool      `json:"active"`
	TrainingGroups   []string  `json:"training_groups,omitempty"`
	PreferredDoubles []string  `json:"preferred_doubles,omitempty"`
	PreferredMixed   []string  `json:"preferred_mixed,omitempty"`
	CreatedAt        int64     `json:"created_at"`
}

// PlayerPatch carries partial updates for a player. Nil fields are left
// untouched.
type PlayerPatch struct {
	Name             *string   `json:"name,omitempty"`
	Alias            *string   `json:"alias,omitempty"`
	LevelSingle      *float64  `json:"level_single,omitempty"`
	LevelDouble      *float64  `json:"level_double,omitempty"`
	LevelMix         *float64  `json:"level_mix,omitempty"`
	Gender           *string   `json:"gender,omitempty"`
	Category         *Category `json:"category,omitempty"`
	Active           *bool     `json:"active,omitempty"`
	TrainingGroups   []string  `json:"training_groups,omitempty"`
	PreferredDoubles []string  `json:"preferred_doubles,omitempty"`
	PreferredMixed   []string  `json:"preferred_mixed,omitempty"`
}

// PlayerFilter narrows ListPlayers output.
type PlayerFilter struct {
	ActiveOnly    bool
	TrainingGroup string
	Category      Category
}

// Court is a physical court, numbered densely from 1 within a tenant.
type Court struct {
	ID  string `json:"id"`
	Idx int    `json:"idx"`
}
