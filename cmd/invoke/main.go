package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"

	"vaccine-availability-notifier/internal/handler"
	"vaccine-availability-notifier/internal/logging"
	"vaccine-availability-notifier/internal/models"
	"vaccine-availability-notifier/internal/services"
)

// LambdaInvokeAPI is the part of the Lambda client used for smoke tests
type LambdaInvokeAPI interface {
	Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

// RunHistory lists recent runs for a provider
type RunHistory interface {
	RecentRuns(ctx context.Context, provider string, limit int32) ([]models.RunRecord, error)
}

type options struct {
	function  string
	channel   string
	latitude  float64
	longitude float64
	radius    float64
	state     string
	live      bool

	history  bool
	provider string
	table    string
	limit    int
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("invoke", flag.ContinueOnError)
	fs.StringVar(&opts.function, "function", "", "name or ARN of the deployed poller")
	fs.StringVar(&opts.channel, "channel", "", "channel to post the test message to")
	fs.Float64Var(&opts.latitude, "lat", 0, "search latitude")
	fs.Float64Var(&opts.longitude, "lon", 0, "search longitude")
	fs.Float64Var(&opts.radius, "radius", 10, "search radius in miles")
	fs.StringVar(&opts.state, "state", "", "two-letter state code (aggregator only)")
	fs.BoolVar(&opts.live, "live", false, "send a real poll instead of test mode")
	fs.BoolVar(&opts.history, "history", false, "print recent runs instead of invoking")
	fs.StringVar(&opts.provider, "provider", services.SpotterProviderName, "provider for -history")
	fs.StringVar(&opts.table, "table", os.Getenv("RUNS_TABLE"), "run history table for -history")
	fs.IntVar(&opts.limit, "limit", 10, "number of runs for -history")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	if opts.history {
		if opts.table == "" {
			return opts, fmt.Errorf("-table or RUNS_TABLE is required with -history")
		}
		return opts, nil
	}
	if opts.function == "" || opts.channel == "" {
		return opts, fmt.Errorf("-function and -channel are required")
	}
	return opts, nil
}

// invokePoller sends a synchronous invocation and prints the decoded response
func invokePoller(ctx context.Context, client LambdaInvokeAPI, opts options, out io.Writer) error {
	event := handler.Event{
		Latitude:  aws.Float64(opts.latitude),
		Longitude: aws.Float64(opts.longitude),
		Radius:    aws.Float64(opts.radius),
		Channel:   opts.channel,
		Test:      !opts.live,
		State:     opts.state,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	result, err := client.Invoke(ctx, &lambda.InvokeInput{
		FunctionName:   aws.String(opts.function),
		InvocationType: types.InvocationTypeRequestResponse,
		Payload:        payload,
	})
	if err != nil {
		return fmt.Errorf("failed to invoke %s: %w", opts.function, err)
	}
	if result.FunctionError != nil {
		return fmt.Errorf("%s returned %s: %s", opts.function, *result.FunctionError, string(result.Payload))
	}

	var resp handler.Response
	if err := json.Unmarshal(result.Payload, &resp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	fmt.Fprintf(out, "run:        %s\n", resp.RunID)
	fmt.Fprintf(out, "provider:   %s\n", resp.Provider)
	fmt.Fprintf(out, "outcome:    %s\n", resp.Outcome)
	fmt.Fprintf(out, "candidates: %d\n", resp.Candidates)
	fmt.Fprintf(out, "openings:   %d\n", resp.Openings)
	if resp.Error != "" {
		fmt.Fprintf(out, "error:      %s\n", resp.Error)
	}

	if resp.Outcome == models.OutcomeFetchFailed || resp.Outcome == models.OutcomeSendFailed {
		return fmt.Errorf("poll ended with %s", resp.Outcome)
	}
	return nil
}

// printHistory writes the most recent runs as a table
func printHistory(ctx context.Context, history RunHistory, opts options, out io.Writer) error {
	runs, err := history.RecentRuns(ctx, opts.provider, int32(opts.limit))
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintf(out, "no runs recorded for %s\n", opts.provider)
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tRUN\tOUTCOME\tCANDIDATES\tOPENINGS\tDURATION\tERROR")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			r.StartedAt.UTC().Format(time.RFC3339), r.RunID, r.Outcome,
			r.Candidates, r.Openings, r.Duration().Round(time.Millisecond), r.Error)
	}
	return w.Flush()
}

func main() {
	logging.Init(os.Stderr, os.Getenv("LOG_LEVEL"))

	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		logging.Get().Fatal().Err(err).Msg("Failed to load AWS config")
	}

	if opts.history {
		err = printHistory(ctx, services.NewRunLedger(dynamodb.NewFromConfig(cfg), opts.table), opts, os.Stdout)
	} else {
		err = invokePoller(ctx, lambda.NewFromConfig(cfg), opts, os.Stdout)
	}
	if err != nil {
		logging.Get().Error().Err(err).Msg("invoke failed")
		os.Exit(1)
	}
}
