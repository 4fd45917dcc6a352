package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vaccine-availability-notifier/internal/handler"
	"vaccine-availability-notifier/internal/models"
)

type fakeLambda struct {
	input  *lambda.InvokeInput
	output *lambda.InvokeOutput
	err    error
}

func (f *fakeLambda) Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error) {
	f.input = params
	return f.output, f.err
}

type fakeHistory struct {
	runs     []models.RunRecord
	provider string
	limit    int32
}

func (f *fakeHistory) RecentRuns(ctx context.Context, provider string, limit int32) ([]models.RunRecord, error) {
	f.provider = provider
	f.limit = limit
	return f.runs, nil
}

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"-function", "spotter-poller", "-channel", "C1", "-lat", "41.25", "-lon", "-95.93", "-state", "NE"})
	require.NoError(t, err)
	assert.Equal(t, "spotter-poller", opts.function)
	assert.Equal(t, 41.25, opts.latitude)
	assert.Equal(t, -95.93, opts.longitude)
	assert.Equal(t, 10.0, opts.radius)
	assert.False(t, opts.live)

	_, err = parseFlags([]string{"-channel", "C1"})
	require.Error(t, err)

	_, err = parseFlags([]string{"-history", "-table", ""})
	require.Error(t, err)

	opts, err = parseFlags([]string{"-history", "-table", "runs", "-provider", "hyvee", "-limit", "3"})
	require.NoError(t, err)
	assert.True(t, opts.history)
	assert.Equal(t, "hyvee", opts.provider)
	assert.Equal(t, 3, opts.limit)
}

func TestInvokePoller(t *testing.T) {
	payload, _ := json.Marshal(handler.Response{RunID: "run_abc", Provider: "spotter", Outcome: models.OutcomeNotified, Candidates: 3, Openings: 1, Notified: true})
	client := &fakeLambda{output: &lambda.InvokeOutput{StatusCode: 200, Payload: payload}}

	var out bytes.Buffer
	opts := options{function: "spotter-poller", channel: "C1", latitude: 41.25, longitude: -95.93, radius: 10, state: "NE"}
	require.NoError(t, invokePoller(context.Background(), client, opts, &out))

	assert.Equal(t, "spotter-poller", *client.input.FunctionName)
	var sent handler.Event
	require.NoError(t, json.Unmarshal(client.input.Payload, &sent))
	assert.True(t, sent.Test)
	assert.Equal(t, "NE", sent.State)
	assert.Equal(t, 41.25, *sent.Latitude)

	assert.Contains(t, out.String(), "run_abc")
	assert.Contains(t, out.String(), "notified")
}

func TestInvokePoller_Failures(t *testing.T) {
	opts := options{function: "hyvee-poller", channel: "C1", radius: 10}

	t.Run("invoke error", func(t *testing.T) {
		err := invokePoller(context.Background(), &fakeLambda{err: errors.New("AccessDeniedException")}, opts, &bytes.Buffer{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "AccessDeniedException")
	})

	t.Run("function error", func(t *testing.T) {
		client := &fakeLambda{output: &lambda.InvokeOutput{FunctionError: aws.String("Unhandled"), Payload: []byte(`{"errorMessage":"invalid event"}`)}}
		err := invokePoller(context.Background(), client, opts, &bytes.Buffer{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid event")
	})

	t.Run("fetch failed outcome", func(t *testing.T) {
		payload, _ := json.Marshal(handler.Response{RunID: "run_x", Outcome: models.OutcomeFetchFailed, Error: "status 503"})
		client := &fakeLambda{output: &lambda.InvokeOutput{Payload: payload}}
		var out bytes.Buffer
		err := invokePoller(context.Background(), client, opts, &out)
		require.Error(t, err)
		assert.Contains(t, out.String(), "status 503")
	})
}

func TestPrintHistory(t *testing.T) {
	started := time.Date(2021, 3, 15, 19, 30, 0, 0, time.UTC)
	history := &fakeHistory{runs: []models.RunRecord{
		{RunID: "run_new", StartedAt: started, CompletedAt: started.Add(1200 * time.Millisecond), Outcome: models.OutcomeNotified, Candidates: 3, Openings: 1},
		{RunID: "run_old", StartedAt: started.Add(-time.Hour), CompletedAt: started.Add(-time.Hour), Outcome: models.OutcomeFetchFailed, Error: "status 503"},
	}}

	var out bytes.Buffer
	require.NoError(t, printHistory(context.Background(), history, options{provider: "spotter", limit: 5}, &out))

	assert.Equal(t, "spotter", history.provider)
	assert.Equal(t, int32(5), history.limit)
	assert.Contains(t, out.String(), "2021-03-15T19:30:00Z")
	assert.Contains(t, out.String(), "run_new")
	assert.Contains(t, out.String(), "1.2s")
	assert.Contains(t, out.String(), "status 503")

	out.Reset()
	require.NoError(t, printHistory(context.Background(), &fakeHistory{}, options{provider: "hyvee"}, &out))
	assert.Equal(t, "no runs recorded for hyvee\n", out.String())
}
