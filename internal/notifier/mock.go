package notifier

import (
	"sync"

	"github.com/mauv0809/crispy-shuttle/internal/matchmaking"
	"github.com/mauv0809/crispy-shuttle/internal/session"
	"github.com/slack-go/slack"
)

// Mock is a mock implementation of the Notifier interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	// Call records
	SendRoundLineupCalls []struct {
		Result *matchmaking.ArrangeResult
		Names  map[string]string
		DryRun bool
	}
	SendSessionSummaryCalls []struct {
		Snapshot *session.Snapshot
		DryRun   bool
	}

	// Spies for format functions
	FormatLineupResponseFunc func(result *matchmaking.ArrangeResult, names map[string]string) (any, error)

	LastLineupResult   *matchmaking.ArrangeResult
	LastLineupResponse any
}

var _ Notifier = (*Mock)(nil)

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

// Reset clears all call records.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendRoundLineupCalls = nil
	m.SendSessionSummaryCalls = nil
	m.LastLineupResult = nil
	m.LastLineupResponse = nil
}

func (m *Mock) SendRoundLineup(result *matchmaking.ArrangeResult, names map[string]string, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendRoundLineupCalls = append(m.SendRoundLineupCalls, struct {
		Result *matchmaking.ArrangeResult
		Names  map[string]string
		DryRun bool
	}{result, names, dryRun})
	return nil
}

func (m *Mock) SendSessionSummary(snap *session.Snapshot, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendSessionSummaryCalls = append(m.SendSessionSummaryCalls, struct {
		Snapshot *session.Snapshot
		DryRun   bool
	}{snap, dryRun})
	return nil
}

// FormatLineupResponse defaults to an empty Block Kit message so the
// slash-command handler, which expects a slack.Message, keeps working
// under the mock.
func (m *Mock) FormatLineupResponse(result *matchmaking.ArrangeResult, names map[string]string) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FormatLineupResponseFunc != nil {
		resp, err := m.FormatLineupResponseFunc(result, names)
		m.LastLineupResponse = resp
		return resp, err
	}
	m.LastLineupResult = result
	msg := slack.NewBlockMessage()
	m.LastLineupResponse = msg
	return msg, nil
}
