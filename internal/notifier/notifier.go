package notifier

import (
	"github.com/mauv0809/crispy-shuttle/internal/matchmaking"
	"github.com/mauv0809/crispy-shuttle/internal/session"
)

// Notifier defines a high-level interface for sending notifications about business events.
// This decouples the rest of the application from the specific notification provider (e.g., Slack).
type Notifier interface {
	// For freshly arranged rounds. names maps player IDs to display names.
	SendRoundLineup(result *matchmaking.ArrangeResult, names map[string]string, dryRun bool) error
	// For ended sessions.
	SendSessionSummary(snap *session.Snapshot, dryRun bool) error

	// For formatting responses for slash commands
	FormatLineupResponse(result *matchmaking.ArrangeResult, names map[string]string) (any, error)
}
