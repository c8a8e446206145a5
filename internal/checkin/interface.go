package checkin

import "context"

// Ledger is the check-in bookkeeping for a training session. The session
// is always an explicit argument; the ledger never resolves "the active
// session" on its own.
type Ledger interface {
	// Admit checks a player in. Admitting an already-present player is a
	// benign no-op that returns the existing row: a concurrent admit won
	// the race and the caller's intent is satisfied either way.
	Admit(ctx context.Context, sessionID, playerID string, opts AdmitOptions) (CheckIn, error)
	// Update mutates MaxRounds and/or Note of an existing check-in.
	Update(ctx context.Context, sessionID, playerID string, patch Patch) (CheckIn, error)
	// Remove deletes a check-in. Removing an absent player is a success.
	// The player is also released from any match of the session that has
	// not finished yet; completed rounds keep their slot assignments.
	Remove(ctx context.Context, sessionID, playerID string) error
	// ListActive returns the ledger ordered by arrival time, ties by id.
	ListActive(ctx context.Context, sessionID string) ([]CheckIn, error)
}
