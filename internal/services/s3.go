package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"vaccine-availability-notifier/internal/models"
)

// S3PutAPI is the part of the S3 client the report archive uses
type S3PutAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ReportArchive stores a JSON report for every run that found openings
type ReportArchive struct {
	client     S3PutAPI
	bucketName string
}

// S3UploadResult represents the result of an S3 upload operation
type S3UploadResult struct {
	Key        string    `json:"key"`
	ETag       string    `json:"etag"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// NewReportArchive creates an archive writing to bucketName
func NewReportArchive(client S3PutAPI, bucketName string) *ReportArchive {
	return &ReportArchive{client: client, bucketName: bucketName}
}

// ReportKey is reports/<provider>/<yyyy-mm-dd>/<run id>.json, dated in UTC
func ReportKey(provider string, generatedAt time.Time, runID string) string {
	return fmt.Sprintf("reports/%s/%s/%s.json",
		strings.ToLower(provider), generatedAt.UTC().Format("2006-01-02"), runID)
}

// UploadReport uploads one run report
func (a *ReportArchive) UploadReport(ctx context.Context, report *models.RunReport) (*S3UploadResult, error) {
	jsonData, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal run report to JSON: %w", err)
	}

	key := ReportKey(report.Provider, report.GeneratedAt, report.RunID)
	return a.uploadJSON(ctx, jsonData, key)
}

// uploadJSON is a helper method to upload JSON data to S3
func (a *ReportArchive) uploadJSON(ctx context.Context, data []byte, key string) (*S3UploadResult, error) {
	key = strings.TrimPrefix(key, "/")

	uploadInput := &s3.PutObjectInput{
		Bucket:      aws.String(a.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
		Metadata: map[string]string{
			"uploaded-by": "vaccine-availability-notifier",
			"upload-time": time.Now().UTC().Format(time.RFC3339),
		},
	}

	result, err := a.client.PutObject(ctx, uploadInput)
	if err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	etag := ""
	if result.ETag != nil {
		etag = strings.Trim(*result.ETag, `"`)
	}

	return &S3UploadResult{
		Key:        key,
		ETag:       etag,
		Size:       int64(len(data)),
		UploadedAt: time.Now(),
	}, nil
}
