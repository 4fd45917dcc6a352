package services

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"vaccine-availability-notifier/internal/models"
)

// DynamoDBAPI is the part of the DynamoDB client the run ledger uses
type DynamoDBAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// RunLedger keeps one history item per poll
type RunLedger struct {
	client    DynamoDBAPI
	tableName string
	retention time.Duration
}

const defaultRunRetention = 30 * 24 * time.Hour

// NewRunLedger creates a ledger over tableName. Items expire after 30 days
// through the table's TTL attribute expires_at.
func NewRunLedger(client DynamoDBAPI, tableName string) *RunLedger {
	return &RunLedger{client: client, tableName: tableName, retention: defaultRunRetention}
}

// RecordRun stores a run record
func (l *RunLedger) RecordRun(ctx context.Context, record *models.RunRecord) error {
	if record.PK == "" || record.SK == "" {
		record.PK = models.RunPartitionKey(record.Provider)
		record.SK = models.RunSortKey(record.StartedAt, record.RunID)
	}
	if record.ExpiresAt == 0 && l.retention > 0 {
		record.ExpiresAt = record.StartedAt.Add(l.retention).Unix()
	}

	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("failed to marshal run record: %w", err)
	}

	_, err = l.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(l.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	return nil
}

// RecentRuns returns up to limit runs for provider, newest first
func (l *RunLedger) RecentRuns(ctx context.Context, provider string, limit int32) ([]models.RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	result, err := l.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(l.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: models.RunPartitionKey(provider)},
			":prefix": &types.AttributeValueMemberS{Value: "RUN#"},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}

	var records []models.RunRecord
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal runs: %w", err)
	}

	return records, nil
}
