package logging

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/rs/zerolog"
)

// Log is the package-global logger configured by Init
var Log = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Init configures the global logger. level can be "debug", "info", "warn" or
// "error"; anything else falls back to info. A nil writer means stdout, which
// Lambda forwards to CloudWatch.
func Init(w io.Writer, level string) {
	l := zerolog.InfoLevel
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		l = zerolog.DebugLevel
	case "warn":
		l = zerolog.WarnLevel
	case "error":
		l = zerolog.ErrorLevel
	}
	zerolog.SetGlobalLevel(l)

	if w == nil {
		w = os.Stdout
	}
	Log = zerolog.New(w).With().Timestamp().Logger()
}

// Get returns a pointer to the package-global logger
func Get() *zerolog.Logger {
	return &Log
}

// ForRun returns a child logger tagged with the run, the provider and, inside
// Lambda, the request ID.
func ForRun(ctx context.Context, runID, provider string) zerolog.Logger {
	c := Log.With().Str("run_id", runID).Str("provider", provider)
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		c = c.Str("request_id", lc.AwsRequestID)
	}
	return c.Logger()
}
