package services

import (
	"context"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"vaccine-availability-notifier/internal/models"
)

type fakeProvider struct {
	name      string
	locations []models.Location
	err       error
	policy    FilterPolicy
	style     MessageStyle
	calls     int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Fetch(ctx context.Context, req models.SearchRequest) ([]models.Location, error) {
	f.calls++
	return f.locations, f.err
}

func (f *fakeProvider) Policy() FilterPolicy { return f.policy }
func (f *fakeProvider) Style() MessageStyle  { return f.style }

type sentMessage struct {
	channel  string
	segments []models.MessageSegment
}

type fakeNotifier struct {
	result models.NotificationResult
	sent   []sentMessage
}

func (f *fakeNotifier) Send(ctx context.Context, channel string, segments []models.MessageSegment) models.NotificationResult {
	f.sent = append(f.sent, sentMessage{channel: channel, segments: segments})
	return f.result
}

type fakeRecorder struct {
	records []models.RunRecord
	err     error
}

func (f *fakeRecorder) RecordRun(ctx context.Context, record *models.RunRecord) error {
	f.records = append(f.records, *record)
	return f.err
}

type fakeUploader struct {
	reports []models.RunReport
	err     error
}

func (f *fakeUploader) UploadReport(ctx context.Context, report *models.RunReport) (*S3UploadResult, error) {
	f.reports = append(f.reports, *report)
	if f.err != nil {
		return nil, f.err
	}
	return &S3UploadResult{Key: ReportKey(report.Provider, report.GeneratedAt, report.RunID)}, nil
}

type fakeS3 struct {
	mu     sync.Mutex
	inputs []*s3.PutObjectInput
	bodies [][]byte
	err    error
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var buf []byte
	if params.Body != nil {
		b, err := io.ReadAll(params.Body)
		if err != nil {
			return nil, err
		}
		buf = b
	}
	f.inputs = append(f.inputs, params)
	f.bodies = append(f.bodies, buf)
	etag := `"abc123"`
	return &s3.PutObjectOutput{ETag: &etag}, nil
}

type fakeDynamo struct {
	puts    []*dynamodb.PutItemInput
	queries []*dynamodb.QueryInput
	output  *dynamodb.QueryOutput
	err     error
}

func (f *fakeDynamo) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.puts = append(f.puts, params)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.queries = append(f.queries, params)
	if f.output == nil {
		return &dynamodb.QueryOutput{}, nil
	}
	return f.output, nil
}
