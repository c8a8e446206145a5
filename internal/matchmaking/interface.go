package matchmaking

import "context"

// MatchmakingService owns match arrangement within a training session:
// the automatic round planner and the manual drag-and-place adjustments
// layered on top of it. Every operation is scoped to an explicit session.
type MatchmakingService interface {
	// ListMatches returns the session's matches, oldest round first.
	// round 0 means all rounds.
	ListMatches(ctx context.Context, sessionID string, round int) ([]Match, error)
	// AutoArrange replaces round's matches with a freshly planned
	// assignment and reports who stays benched.
	AutoArrange(ctx context.Context, sessionID string, round int) (ArrangeResult, error)
	// ResetRound removes all matches of the round.
	ResetRound(ctx context.Context, sessionID string, round int) error

	// Place puts a player on a court slot, moving them from wherever they
	// were in the same round. The target match is created on demand.
	Place(ctx context.Context, sessionID string, round int, playerID string, courtIdx, slot int) error
	// BenchPlayer removes a player from their match in the round.
	BenchPlayer(ctx context.Context, sessionID string, round int, playerID string) error
	// Swap exchanges the positions of two players within the round.
	Swap(ctx context.Context, sessionID string, round int, playerA, playerB string) error

	// RecordResult validates and stores a badminton score for a match.
	RecordResult(ctx context.Context, matchID string, score Score) error
	// GetResult reads a previously recorded score.
	GetResult(ctx context.Context, matchID string) (Score, error)
}
