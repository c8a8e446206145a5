package metrics

import "sync"

// Mock is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu               sync.Mutex
	arrangeRuns      int
	matchesPlanned   int
	playersBenched   int
	checkIns         int
	sessionsEnded    int
	snapshotFailures int
	slackNotifSent   int
	slackNotifFailed int
	arrangeDurations []float64
	startupTime      float64
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{
		arrangeDurations: make([]float64, 0),
	}
}

func (m *Mock) IncArrangeRuns() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.arrangeRuns++
}

func (m *Mock) IncMatchesPlanned(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchesPlanned += count
}

func (m *Mock) IncPlayersBenched(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playersBenched += count
}

func (m *Mock) IncCheckIns() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkIns++
}

func (m *Mock) IncSessionsEnded() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessionsEnded++
}

func (m *Mock) IncSnapshotFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshotFailures++
}

func (m *Mock) IncSlackNotifSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slackNotifSent++
}

func (m *Mock) IncSlackNotifFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slackNotifFailed++
}

func (m *Mock) ObserveArrangeDuration(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.arrangeDurations = append(m.arrangeDurations, duration)
}

func (m *Mock) SetStartupTime(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startupTime = duration
}

// ArrangeRuns returns the number of times IncArrangeRuns was called.
func (m *Mock) ArrangeRuns() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.arrangeRuns
}

// MatchesPlanned returns the accumulated planned-match count.
func (m *Mock) MatchesPlanned() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matchesPlanned
}

// SessionsEnded returns the number of times IncSessionsEnded was called.
func (m *Mock) SessionsEnded() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionsEnded
}

// CheckIns returns the number of times IncCheckIns was called.
func (m *Mock) CheckIns() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checkIns
}

// SlackNotifSent returns the number of times IncSlackNotifSent was called.
func (m *Mock) SlackNotifSent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slackNotifSent
}

// SlackNotifFailed returns the number of times IncSlackNotifFailed was called.
func (m *Mock) SlackNotifFailed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slackNotifFailed
}
