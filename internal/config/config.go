package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	DefaultHyVeeGraphQLURL      = "https://www.hy-vee.com/my-pharmacy/api/graphql"
	DefaultHyVeeRegistrationURL = "https://www.hy-vee.com/my-pharmacy/covid-vaccine-consent"
	DefaultSpotterBaseURL       = "https://www.vaccinespotter.org/api/v0"
	DefaultState                = "NE"
	DefaultTimeZone             = "America/Chicago"
	DefaultHTTPTimeout          = 30 * time.Second
)

// Config holds everything a poller needs, read once per cold start
type Config struct {
	SlackToken  string
	SlackAPIURL string // empty uses the slack-go default

	HyVeeGraphQLURL      string
	HyVeeRegistrationURL string
	SpotterBaseURL       string
	DefaultState         string
	ExcludedProviders    []string

	HTTPTimeout time.Duration
	TimeZone    *time.Location

	RunsTable    string // DynamoDB run history, disabled when empty
	ReportBucket string // S3 run reports, disabled when empty

	LogLevel string
}

// Load reads configuration from the process environment.
//
// Environment variables supported:
// - SLACK_BOT_TOKEN (an empty token fails at send time)
// - SLACK_API_URL
// - HYVEE_GRAPHQL_URL, HYVEE_REGISTRATION_URL
// - SPOTTER_BASE_URL, DEFAULT_STATE, EXCLUDED_PROVIDERS (comma list)
// - HTTP_TIMEOUT (duration, e.g. "30s")
// - NOTIFY_TIMEZONE (IANA name)
// - RUNS_TABLE, REPORT_BUCKET
// - LOG_LEVEL (debug|info|warn|error)
func Load() (*Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom reads configuration through getenv so tests can supply values
func LoadFrom(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		SlackToken:           strings.TrimSpace(getenv("SLACK_BOT_TOKEN")),
		SlackAPIURL:          getenv("SLACK_API_URL"),
		HyVeeGraphQLURL:      envOr(getenv, "HYVEE_GRAPHQL_URL", DefaultHyVeeGraphQLURL),
		HyVeeRegistrationURL: envOr(getenv, "HYVEE_REGISTRATION_URL", DefaultHyVeeRegistrationURL),
		SpotterBaseURL:       strings.TrimRight(envOr(getenv, "SPOTTER_BASE_URL", DefaultSpotterBaseURL), "/"),
		DefaultState:         strings.ToUpper(envOr(getenv, "DEFAULT_STATE", DefaultState)),
		ExcludedProviders:    splitList(envOr(getenv, "EXCLUDED_PROVIDERS", "hyvee")),
		HTTPTimeout:          DefaultHTTPTimeout,
		RunsTable:            getenv("RUNS_TABLE"),
		ReportBucket:         getenv("REPORT_BUCKET"),
		LogLevel:             envOr(getenv, "LOG_LEVEL", "info"),
	}

	if v := getenv("HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("invalid HTTP_TIMEOUT: must be positive, got %s", v)
		}
		cfg.HTTPTimeout = d
	}

	loc, err := time.LoadLocation(envOr(getenv, "NOTIFY_TIMEZONE", DefaultTimeZone))
	if err != nil {
		return nil, fmt.Errorf("invalid NOTIFY_TIMEZONE: %w", err)
	}
	cfg.TimeZone = loc

	return cfg, nil
}

func envOr(getenv func(string) string, key, fallback string) string {
	if v := strings.TrimSpace(getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}
