package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"vaccine-availability-notifier/internal/logging"
	"vaccine-availability-notifier/internal/models"
)

// RunRecorder persists run history
type RunRecorder interface {
	RecordRun(ctx context.Context, record *models.RunRecord) error
}

// ReportUploader archives full reports for runs that found openings
type ReportUploader interface {
	UploadReport(ctx context.Context, report *models.RunReport) (*S3UploadResult, error)
}

// Poller runs one provider's pipeline: fetch, filter, compose, send
type Poller struct {
	provider LocationProvider
	notifier Notifier
	recorder RunRecorder
	archive  ReportUploader
	timeZone *time.Location
	now      func() time.Time
}

// PollerOption configures optional Poller collaborators
type PollerOption func(*Poller)

// WithRunRecorder enables run history
func WithRunRecorder(r RunRecorder) PollerOption {
	return func(p *Poller) { p.recorder = r }
}

// WithReportArchive enables report uploads
func WithReportArchive(a ReportUploader) PollerOption {
	return func(p *Poller) { p.archive = a }
}

// WithTimeZone sets the zone used for the message footer
func WithTimeZone(tz *time.Location) PollerOption {
	return func(p *Poller) { p.timeZone = tz }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) PollerOption {
	return func(p *Poller) { p.now = now }
}

// NewPoller creates a poller for provider
func NewPoller(provider LocationProvider, notifier Notifier, opts ...PollerOption) *Poller {
	p := &Poller{
		provider: provider,
		notifier: notifier,
		timeZone: time.UTC,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RunSummary is what a single poll produced
type RunSummary struct {
	RunID        string
	Provider     string
	Outcome      models.RunOutcome
	Candidates   int
	Openings     []models.Location
	Notification *models.NotificationResult // nil when nothing was sent
	Error        string
}

// Run executes one poll. Fetch and send failures end the run with the
// matching outcome; they are logged and never returned as errors.
func (p *Poller) Run(ctx context.Context, req models.SearchRequest) RunSummary {
	runID := models.NewRunID()
	logger := logging.ForRun(ctx, runID, p.provider.Name())
	startedAt := p.now()

	record := models.NewRunRecord(runID, p.provider.Name(), req, startedAt)
	summary := RunSummary{RunID: runID, Provider: p.provider.Name()}

	logger.Info().
		Float64("latitude", req.Latitude).
		Float64("longitude", req.Longitude).
		Float64("radius", req.Radius).
		Str("region", req.Region).
		Bool("test", req.TestMode).
		Msg("Polling for openings")

	locations, err := p.provider.Fetch(ctx, req)
	if err != nil {
		logger.Error().Err(err).Msg("Fetch failed, no notification sent")
		summary.Outcome = models.OutcomeFetchFailed
		summary.Error = err.Error()
		p.finish(ctx, logger, &record, summary)
		return summary
	}

	filtered := FilterOpenings(locations, req, p.provider.Policy())
	summary.Candidates = len(filtered.Candidates)
	summary.Openings = filtered.Openings

	logger.Debug().Int("fetched", len(locations)).Int("candidates", summary.Candidates).Msg("Filtered locations")

	if len(filtered.Openings) == 0 {
		logger.Info().Int("candidates", summary.Candidates).Msg("No openings available")
		summary.Outcome = models.OutcomeNoOpenings
		p.finish(ctx, logger, &record, summary)
		return summary
	}

	logger.Info().
		Int("openings", len(filtered.Openings)).
		Interface("locations", filtered.Openings).
		Msg("Openings available")

	segments := ComposeMessage(filtered.Openings, p.provider.Style(), p.now(), p.timeZone)
	result := p.notifier.Send(ctx, req.Channel, segments)
	summary.Notification = &result

	if result.Success {
		logger.Info().Str("channel", result.Channel).Str("ts", result.Timestamp).Msg("Slack message posted")
		summary.Outcome = models.OutcomeNotified
	} else {
		logger.Error().Str("channel", req.Channel).Str("slack_error", result.ErrorDetail).Msg("Slack message error")
		summary.Outcome = models.OutcomeSendFailed
		summary.Error = result.ErrorDetail
	}

	p.uploadReport(ctx, logger, req, summary)
	p.finish(ctx, logger, &record, summary)
	return summary
}

func (p *Poller) uploadReport(ctx context.Context, logger zerolog.Logger, req models.SearchRequest, summary RunSummary) {
	if p.archive == nil {
		return
	}

	report := &models.RunReport{
		RunID:        summary.RunID,
		Provider:     summary.Provider,
		GeneratedAt:  p.now(),
		Request:      req,
		Openings:     summary.Openings,
		Notification: *summary.Notification,
	}

	uploaded, err := p.archive.UploadReport(ctx, report)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to archive run report")
		return
	}
	logger.Debug().Str("key", uploaded.Key).Int64("bytes", uploaded.Size).Msg("Archived run report")
}

func (p *Poller) finish(ctx context.Context, logger zerolog.Logger, record *models.RunRecord, summary RunSummary) {
	record.CompletedAt = p.now()
	record.Candidates = summary.Candidates
	record.Openings = len(summary.Openings)
	record.Outcome = summary.Outcome
	record.Error = summary.Error

	if p.recorder == nil {
		return
	}
	if err := p.recorder.RecordRun(ctx, record); err != nil {
		logger.Warn().Err(err).Msg("Failed to record run history")
	}
}
