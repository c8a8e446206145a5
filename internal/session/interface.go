package session

import "context"

// Orchestrator owns the training-session lifecycle and the statistics
// snapshot taken when a session ends.
type Orchestrator interface {
	// StartOrGet returns the active session, creating one dated now when
	// none exists. A concurrent start that loses the uniqueness race
	// returns the winner's session.
	StartOrGet(ctx context.Context) (TrainingSession, error)
	// GetActive returns the single active session, or ErrNoActiveSession.
	GetActive(ctx context.Context) (TrainingSession, error)
	// End closes all open matches, freezes the session statistics into a
	// snapshot and marks the session ended, all atomically. If the
	// snapshot cannot be written the whole transition is rolled back.
	End(ctx context.Context) (Snapshot, error)

	// GetSnapshot reads the frozen statistics of an ended session.
	GetSnapshot(ctx context.Context, sessionID string) (Snapshot, error)
	// ListSnapshots returns snapshots, optionally filtered by season,
	// newest first.
	ListSnapshots(ctx context.Context, season string) ([]Snapshot, error)
}
