package handler

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"vaccine-availability-notifier/internal/config"
	"vaccine-availability-notifier/internal/logging"
	"vaccine-availability-notifier/internal/models"
	"vaccine-availability-notifier/internal/services"
)

// Event is the scheduled trigger payload
type Event struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Radius    *float64 `json:"radius"`
	Channel   string   `json:"channel"`
	Test      bool     `json:"test,omitempty"`
	State     string   `json:"state,omitempty"`
}

// Response is returned to the invoker
type Response struct {
	RunID      string            `json:"run_id"`
	Provider   string            `json:"provider"`
	Outcome    models.RunOutcome `json:"outcome"`
	Candidates int               `json:"candidates"`
	Openings   int               `json:"openings"`
	Notified   bool              `json:"notified"`
	Error      string            `json:"error,omitempty"`
}

// ToSearchRequest validates the event and converts it
func (e Event) ToSearchRequest() (models.SearchRequest, error) {
	if e.Latitude == nil || e.Longitude == nil || e.Radius == nil {
		return models.SearchRequest{}, fmt.Errorf("latitude, longitude and radius are required")
	}

	req := models.SearchRequest{
		Latitude:  *e.Latitude,
		Longitude: *e.Longitude,
		Radius:    *e.Radius,
		Region:    models.NormalizeRegion(e.State),
		Channel:   e.Channel,
		TestMode:  e.Test,
	}
	if err := req.Validate(); err != nil {
		return models.SearchRequest{}, err
	}
	return req, nil
}

// Poll runs one pipeline invocation
type Poll interface {
	Run(ctx context.Context, req models.SearchRequest) services.RunSummary
}

// Handler adapts a poller to the Lambda runtime
type Handler struct {
	poller Poll
}

// NewHandler wraps an already-built poller
func NewHandler(poller Poll) *Handler {
	return &Handler{poller: poller}
}

// Handle is the Lambda entry point. Only an invalid event is reported as an
// error; fetch and send failures are carried in the response outcome.
func (h *Handler) Handle(ctx context.Context, event Event) (Response, error) {
	req, err := event.ToSearchRequest()
	if err != nil {
		logging.Get().Error().Err(err).Msg("Rejected invalid event")
		return Response{}, fmt.Errorf("invalid event: %w", err)
	}

	summary := h.poller.Run(ctx, req)

	return Response{
		RunID:      summary.RunID,
		Provider:   summary.Provider,
		Outcome:    summary.Outcome,
		Candidates: summary.Candidates,
		Openings:   len(summary.Openings),
		Notified:   summary.Outcome == models.OutcomeNotified,
		Error:      summary.Error,
	}, nil
}

// NewProvider builds the named provider from configuration
func NewProvider(cfg *config.Config, name string) (services.LocationProvider, error) {
	switch name {
	case services.HyVeeProviderName:
		return services.NewHyVeeProvider(services.HyVeeConfig{
			Endpoint:        cfg.HyVeeGraphQLURL,
			RegistrationURL: cfg.HyVeeRegistrationURL,
			Timeout:         cfg.HTTPTimeout,
		}), nil
	case services.SpotterProviderName:
		return services.NewSpotterProvider(services.SpotterConfig{
			BaseURL:           cfg.SpotterBaseURL,
			DefaultState:      cfg.DefaultState,
			ExcludedProviders: cfg.ExcludedProviders,
			Timeout:           cfg.HTTPTimeout,
		}), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}

// New wires a handler for the named provider. AWS clients are only created
// when run history or report archiving is configured.
func New(ctx context.Context, cfg *config.Config, providerName string) (*Handler, error) {
	provider, err := NewProvider(cfg, providerName)
	if err != nil {
		return nil, err
	}

	if cfg.SlackToken == "" {
		logging.Get().Warn().Msg("SLACK_BOT_TOKEN is not set; notifications will fail to authenticate")
	}

	notifier := services.NewSlackNotifier(services.SlackConfig{
		Token:   cfg.SlackToken,
		APIURL:  cfg.SlackAPIURL,
		Timeout: cfg.HTTPTimeout,
	})

	opts := []services.PollerOption{services.WithTimeZone(cfg.TimeZone)}

	if cfg.RunsTable != "" || cfg.ReportBucket != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		if cfg.RunsTable != "" {
			opts = append(opts, services.WithRunRecorder(services.NewRunLedger(dynamodb.NewFromConfig(awsCfg), cfg.RunsTable)))
		}
		if cfg.ReportBucket != "" {
			opts = append(opts, services.WithReportArchive(services.NewReportArchive(s3.NewFromConfig(awsCfg), cfg.ReportBucket)))
		}
	}

	logging.Get().Info().
		Str("provider", providerName).
		Bool("run_history", cfg.RunsTable != "").
		Bool("report_archive", cfg.ReportBucket != "").
		Msg("Poller initialized")

	return NewHandler(services.NewPoller(provider, notifier, opts...)), nil
}
