package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/crispy-shuttle/internal/matchmaking"
	"github.com/mauv0809/crispy-shuttle/internal/metrics"
	"github.com/mauv0809/crispy-shuttle/internal/notifier"
	"github.com/mauv0809/crispy-shuttle/internal/session"
	"github.com/slack-go/slack"
)

// slackClient is an interface that contains the methods from the slack.Client that we use.
// This allows for easy mocking in tests.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

var _ notifier.Notifier = &Notifier{}

// Notifier handles sending notifications to Slack.
type Notifier struct {
	api       slackClient
	channelID string
	metrics   metrics.Metrics
}

// NewNotifier creates a new Notifier.
func NewNotifier(token, channelID string, metrics metrics.Metrics) *Notifier {
	api := slack.New(token)
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metrics,
	}
}

// NewNotifierWithAPI creates a new Notifier with a specific slack.Client instance.
// Useful for tests that need to intercept API calls.
func NewNotifierWithAPI(api slackClient, channelID string, metrics metrics.Metrics) *Notifier {
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metrics,
	}
}

func (s *Notifier) sendMessage(message slack.Message, dryRun bool) (string, string, error) {
	if dryRun {
		jsonMsg, _ := json.MarshalIndent(message, "", "  ")
		log.Info("[Dry Run] Would send Slack message", "channel", s.channelID, "message", string(jsonMsg))
		return "dry-run-ts", "dry-run-thread-ts", nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	channelID, timestamp, err := s.api.PostMessageContext(
		ctx,
		s.channelID,
		slack.MsgOptionBlocks(message.Blocks.BlockSet...),
		slack.MsgOptionAsUser(true),
	)

	if err != nil {
		s.metrics.IncSlackNotifFailed()
		log.Error("Failed to send Slack message", "error", err, "channel", s.channelID)
		return "", "", fmt.Errorf("failed to post message: %w", err)
	}

	s.metrics.IncSlackNotifSent()
	log.Info("Successfully sent Slack message", "channel", channelID, "timestamp", timestamp)
	return channelID, timestamp, nil
}

// Implement the Notifier interface
func (s *Notifier) SendRoundLineup(result *matchmaking.ArrangeResult, names map[string]string, dryRun bool) error {
	msg := s.formatRoundLineup(result, names)
	_, _, err := s.sendMessage(msg, dryRun)
	return err
}

func (s *Notifier) SendSessionSummary(snap *session.Snapshot, dryRun bool) error {
	msg := s.formatSessionSummary(snap)
	_, _, err := s.sendMessage(msg, dryRun)
	return err
}

// FormatLineupResponse formats a line-up message for a slash command response.
func (s *Notifier) FormatLineupResponse(result *matchmaking.ArrangeResult, names map[string]string) (any, error) {
	return s.formatRoundLineup(result, names), nil
}

// formatRoundLineup creates the Slack message for a freshly arranged round using Block Kit.
func (s *Notifier) formatRoundLineup(result *matchmaking.ArrangeResult, names map[string]string) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", fmt.Sprintf("🏸 Round %d line-up 🏸", result.Round), true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	matches := make([]matchmaking.Match, len(result.Matches))
	copy(matches, result.Matches)
	sort.Slice(matches, func(i, j int) bool { return matches[i].CourtIdx < matches[j].CourtIdx })

	var courtLines []string
	for _, m := range matches {
		courtLines = append(courtLines, formatCourtLine(m, names))
	}
	if len(courtLines) > 0 {
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", strings.Join(courtLines, "\n"), true, false), nil, nil))
	}

	if len(result.Benched) > 0 {
		var benched []string
		for _, id := range result.Benched {
			benched = append(benched, displayName(id, names))
		}
		benchText := slack.NewTextBlockObject("plain_text", fmt.Sprintf("Sitting out: %s", strings.Join(benched, ", ")), true, false)
		blocks = append(blocks, slack.NewContextBlock("", benchText))
	}

	return slack.NewBlockMessage(blocks...)
}

// formatCourtLine renders one match as "Court N: A & B vs C & D" for
// doubles or "Court N: A vs B" for singles.
func formatCourtLine(m matchmaking.Match, names map[string]string) string {
	bySlot := make(map[int]string, len(m.Slots))
	for _, sa := range m.Slots {
		bySlot[sa.Slot] = displayName(sa.PlayerID, names)
	}

	if len(m.Slots) == 2 {
		return fmt.Sprintf("Court %d: %s vs %s", m.CourtIdx, bySlot[1], bySlot[2])
	}
	return fmt.Sprintf("Court %d: %s & %s vs %s & %s", m.CourtIdx, bySlot[0], bySlot[1], bySlot[2], bySlot[3])
}

func displayName(playerID string, names map[string]string) string {
	if name, ok := names[playerID]; ok && name != "" {
		return name
	}
	return playerID
}

// formatSessionSummary creates the Slack message for an ended training session using Block Kit.
func (s *Notifier) formatSessionSummary(snap *session.Snapshot) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", "🏸 Training session finished! 🏸", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	loc, err := time.LoadLocation("Europe/Copenhagen")
	var dateStr string
	if err == nil {
		dateStr = time.Unix(snap.SessionDate, 0).In(loc).Format("Monday 02 Jan")
	} else {
		dateStr = time.Unix(snap.SessionDate, 0).Format("Monday 02 Jan")
	}

	rounds := 0
	for _, m := range snap.Matches {
		if m.Round > rounds {
			rounds = m.Round
		}
	}

	detailsText := fmt.Sprintf("Date: %s\nSeason: %s\nRounds played: %d\nMatches: %d\nPlayers checked in: %d",
		dateStr, snap.Season, rounds, len(snap.Matches), len(snap.CheckIns))
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", detailsText, true, false), nil, nil))

	return slack.NewBlockMessage(blocks...)
}
