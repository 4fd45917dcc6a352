package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"

	"vaccine-availability-notifier/internal/config"
	"vaccine-availability-notifier/internal/handler"
	"vaccine-availability-notifier/internal/logging"
	"vaccine-availability-notifier/internal/services"
)

// main is the entry point for the aggregator poller
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Get().Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(nil, cfg.LogLevel)

	h, err := handler.New(context.Background(), cfg, services.SpotterProviderName)
	if err != nil {
		logging.Get().Fatal().Err(err).Msg("Failed to initialize handler")
	}

	lambda.Start(h.Handle)
}
