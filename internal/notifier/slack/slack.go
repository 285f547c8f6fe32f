package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/chicken-dinner/internal/metrics"
	"github.com/mauv0809/chicken-dinner/internal/notifier"
	"github.com/mauv0809/chicken-dinner/internal/tournament"
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
		log.Error("Failed to send Slack message", "error", err, "channel", channelID)
		return "", "", fmt.Errorf("failed to post message: %w", err)
	}

	s.metrics.IncSlackNotifSent()
	log.Info("Successfully sent Slack message", "channel", channelID, "timestamp", timestamp)
	return channelID, timestamp, nil
}

// Implement the Notifier interface
func (s *Notifier) SendResultNotification(team *tournament.Team, record *tournament.MatchRecord, dryRun bool) error {
	msg := s.formatResultNotification(team, record)
	_, _, err := s.sendMessage(msg, dryRun)
	return err
}

func (s *Notifier) SendReviewAlert(record *tournament.MatchRecord, dryRun bool) error {
	msg := s.formatReviewAlert(record)
	_, _, err := s.sendMessage(msg, dryRun)
	return err
}

func (s *Notifier) SendLeaderboard(standings []tournament.Team, dryRun bool) error {
	msg := s.formatLeaderboard(standings)
	_, _, err := s.sendMessage(msg, dryRun)
	return err
}

// FormatLeaderboardResponse formats a leaderboard message for a slash command response.
func (s *Notifier) FormatLeaderboardResponse(standings []tournament.Team) (any, error) {
	return s.formatLeaderboard(standings), nil
}

// formatResultNotification creates the Slack message for a scored match record using Block Kit.
func (s *Notifier) formatResultNotification(team *tournament.Team, record *tournament.MatchRecord) slack.Message {
	blocks := make([]slack.Block, 0)

	placement, kills, points := 0, 0, 0
	if record.Placement != nil {
		placement = *record.Placement
	}
	if record.Kills != nil {
		kills = *record.Kills
	}
	if record.Points != nil {
		points = *record.Points
	}

	// Header - a first place gets the full celebration.
	headerStr := "🎯 Match result is in!"
	if placement == 1 {
		headerStr = "🍗 WINNER WINNER CHICKEN DINNER! 🍗"
	}
	headerText := slack.NewTextBlockObject("plain_text", headerStr, true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	// Details
	detailsText := fmt.Sprintf("Team: %s", team.Name)
	if record.MatchNumber != nil {
		detailsText = fmt.Sprintf("Team: %s\nMatch #%d", team.Name, *record.MatchNumber)
	}
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", detailsText, true, false), nil, nil))

	// Result fields
	resultFields := []*slack.TextBlockObject{
		slack.NewTextBlockObject("plain_text", fmt.Sprintf("Placement\n#%d", placement), true, false),
		slack.NewTextBlockObject("plain_text", fmt.Sprintf("Kills\n%d", kills), true, false),
		slack.NewTextBlockObject("plain_text", fmt.Sprintf("Points\n%d", points), true, false),
	}
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", "Result:", true, false), resultFields, nil))

	// Context - the running season totals.
	seasonText := fmt.Sprintf("Season: %d pts | %d kills | %d matches",
		team.Totals.TotalPoints,
		team.Totals.TotalKills,
		team.Totals.MatchesPlayed,
	)
	blocks = append(blocks, slack.NewContextBlock("", slack.NewTextBlockObject("plain_text", seasonText, true, false)))

	return slack.NewBlockMessage(blocks...)
}

// formatReviewAlert creates the Slack message for a record that needs a human look.
func (s *Notifier) formatReviewAlert(record *tournament.MatchRecord) slack.Message {
	blocks := make([]slack.Block, 0)

	// Header
	headerText := slack.NewTextBlockObject("plain_text", "⚠️ Screenshot needs review", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	// Details
	reason := "unknown"
	if record.ReviewReason != nil {
		reason = *record.ReviewReason
	}
	detailsText := fmt.Sprintf("Record %s for team %s could not be scored.\nReason: %s", record.ID, record.TeamID, reason)
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", detailsText, true, false), nil, nil))

	// Context
	var contextElements []slack.MixedElement
	if record.ScreenshotURL != nil {
		contextElements = append(contextElements, slack.NewTextBlockObject("plain_text", fmt.Sprintf("Screenshot: %s", *record.ScreenshotURL), true, false))
	}
	contextElements = append(contextElements, slack.NewTextBlockObject("plain_text", "Submit a manual correction to put it on the board.", true, false))
	blocks = append(blocks, slack.NewContextBlock("", contextElements...))

	return slack.NewBlockMessage(blocks...)
}

// formatLeaderboard creates a Slack message to display the team leaderboard.
func (s *Notifier) formatLeaderboard(standings []tournament.Team) slack.Message {
	blocks := make([]slack.Block, 0)

	// Header
	headerText := slack.NewTextBlockObject("plain_text", "🏆 Team Leaderboard 🏆", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	if len(standings) == 0 {
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", "No teams on the board yet. Go grab a chicken dinner!", true, false), nil, nil))
		return slack.NewBlockMessage(blocks...)
	}

	// Team Ranks
	for i, team := range standings {
		rank := i + 1
		var medal string
		switch rank {
		case 1:
			medal = "🥇"
		case 2:
			medal = "🥈"
		case 3:
			medal = "🥉"
		}

		teamText := fmt.Sprintf("%d. %s %s\n> Points: %d | Kills: %d | Wins: %d | Matches: %d",
			rank,
			medal,
			team.Name,
			team.Totals.TotalPoints,
			team.Totals.TotalKills,
			team.Totals.FirstPlaceWins,
			team.Totals.MatchesPlayed,
		)
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", teamText, true, false), nil, nil))
	}

	return slack.NewBlockMessage(blocks...)
}
