package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/slack-go/slack"

	"vaccine-availability-notifier/internal/models"
)

// Notifier delivers a composed message to a channel
type Notifier interface {
	Send(ctx context.Context, channel string, segments []models.MessageSegment) models.NotificationResult
}

// SlackNotifier posts Block Kit messages with a bot token
type SlackNotifier struct {
	client *slack.Client
}

// SlackConfig holds settings for SlackNotifier
type SlackConfig struct {
	Token   string
	APIURL  string // optional, must end in "/"
	Timeout time.Duration
}

// NewSlackNotifier creates a notifier. The token is fixed at construction.
func NewSlackNotifier(cfg SlackConfig) *SlackNotifier {
	opts := []slack.Option{
		slack.OptionHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	}
	if cfg.APIURL != "" {
		apiURL := cfg.APIURL
		if !strings.HasSuffix(apiURL, "/") {
			apiURL += "/"
		}
		opts = append(opts, slack.OptionAPIURL(apiURL))
	}
	return &SlackNotifier{client: slack.New(cfg.Token, opts...)}
}

// Send posts the message once. Platform rejections come back as a failed
// result carrying the platform's error code, never as a Go error.
func (n *SlackNotifier) Send(ctx context.Context, channel string, segments []models.MessageSegment) models.NotificationResult {
	blocks := RenderBlocks(segments)

	respChannel, ts, err := n.client.PostMessageContext(ctx, channel,
		slack.MsgOptionBlocks(blocks...),
		slack.MsgOptionText(fallbackText(segments), false),
	)
	if err != nil {
		return models.NotificationResult{Success: false, ErrorDetail: slackErrorDetail(err), Channel: channel}
	}
	return models.NotificationResult{Success: true, Channel: respChannel, Timestamp: ts}
}

func slackErrorDetail(err error) string {
	var apiErr slack.SlackErrorResponse
	if errors.As(err, &apiErr) && apiErr.Err != "" {
		return apiErr.Err
	}
	var rateErr *slack.RateLimitedError
	if errors.As(err, &rateErr) {
		return fmt.Sprintf("ratelimited: retry after %s", rateErr.RetryAfter)
	}
	return err.Error()
}

// RenderBlocks maps segments onto Block Kit blocks, one block per segment
func RenderBlocks(segments []models.MessageSegment) []slack.Block {
	blocks := make([]slack.Block, 0, len(segments))
	for _, seg := range segments {
		switch s := seg.(type) {
		case models.TitleSegment:
			blocks = append(blocks, markdownSection(s.Text))
		case models.LocationSegment:
			blocks = append(blocks, markdownSection(FormatLocation(s.Location)))
		case models.DividerSegment:
			blocks = append(blocks, slack.NewDividerBlock())
		case models.ActionSegment:
			button := slack.NewButtonBlockElement("", "", slack.NewTextBlockObject(slack.PlainTextType, s.Label, true, false))
			button.URL = s.URL
			button.Style = slack.StylePrimary
			blocks = append(blocks, slack.NewActionBlock("", button))
		case models.TimestampSegment:
			blocks = append(blocks, markdownSection(FormatTimestamp(s.At)))
		}
	}
	return blocks
}

// FormatLocation renders "*name*\nstreet\ncity, state zip"
func FormatLocation(loc models.Location) string {
	cityLine := models.JoinNonEmpty(" ", models.JoinNonEmpty(", ", loc.City, loc.State), loc.PostalCode)
	return fmt.Sprintf("*%s*\n%s\n%s",
		EscapeMrkdwn(loc.DisplayName),
		EscapeMrkdwn(loc.StreetAddress()),
		EscapeMrkdwn(cityLine))
}

// FormatTimestamp renders the footer in the time's own zone, with its abbreviation
func FormatTimestamp(at time.Time) string {
	return fmt.Sprintf("_Posted %s_", at.Format("02 Jan 2006 03:04:05 PM MST"))
}

var mrkdwnEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// EscapeMrkdwn escapes the three characters Slack treats as control sequences
func EscapeMrkdwn(s string) string {
	return mrkdwnEscaper.Replace(s)
}

func markdownSection(text string) *slack.SectionBlock {
	return slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, nil)
}

// fallbackText is shown in push notifications and clients without Block Kit
func fallbackText(segments []models.MessageSegment) string {
	locations := 0
	for _, seg := range segments {
		if _, ok := seg.(models.LocationSegment); ok {
			locations++
		}
	}
	if locations == 1 {
		return "Vaccines available at 1 location"
	}
	return fmt.Sprintf("Vaccines available at %d locations", locations)
}
