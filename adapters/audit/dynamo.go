// Package audit persists published results for later review.
package audit

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"

	"github.com/sitewatch/sitewatch/domain/entities"
)

// DynamoAPI is the slice of the DynamoDB client the store uses.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// record is the persisted shape. The partition key scopes rows per device,
// matching the isolation boundary used everywhere else.
type record struct {
	DeviceKey     string `dynamodbav:"device_key"`
	Timestamp     string `dynamodbav:"timestamp"`
	CompanyID     string `dynamodbav:"company_id"`
	DeviceID      string `dynamodbav:"device_id"`
	Priority      int    `dynamodbav:"priority"`
	Summary       string `dynamodbav:"summary"`
	Description   string `dynamodbav:"description"`
	OSHAReference string `dynamodbav:"osha_reference"`
	InputTokens   int    `dynamodbav:"input_tokens"`
	OutputTokens  int    `dynamodbav:"output_tokens"`
	TotalTokens   int    `dynamodbav:"total_tokens"`
	PromptVersion string `dynamodbav:"prompt_version,omitempty"`
}

// DynamoStore writes one audit row per published result.
type DynamoStore struct {
	client DynamoAPI
	table  string
	logger *zap.Logger
}

// NewDynamoStore creates an audit store bound to one table.
func NewDynamoStore(client DynamoAPI, table string, logger *zap.Logger) *DynamoStore {
	return &DynamoStore{client: client, table: table, logger: logger}
}

// Record persists the result. Failures are returned for logging but never
// block publishing.
func (s *DynamoStore) Record(ctx context.Context, msg *entities.ResultMessage) error {
	item, err := attributevalue.MarshalMap(record{
		DeviceKey:     msg.Requester.CompanyID + "/" + msg.Requester.DeviceID,
		Timestamp:     msg.Requester.Timestamp,
		CompanyID:     msg.Requester.CompanyID,
		DeviceID:      msg.Requester.DeviceID,
		Priority:      msg.Analysis.Priority,
		Summary:       msg.Analysis.Summary,
		Description:   msg.Analysis.Description,
		OSHAReference: msg.Analysis.OSHAReference,
		InputTokens:   msg.TokenUsage.InputTokens,
		OutputTokens:  msg.TokenUsage.OutputTokens,
		TotalTokens:   msg.TokenUsage.TotalTokens,
		PromptVersion: msg.PromptVersion,
	})
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put audit record: %w", err)
	}

	s.logger.Info("audit record written",
		zap.String("table", s.table),
		zap.String("companyId", msg.Requester.CompanyID),
		zap.String("deviceId", msg.Requester.DeviceID))
	return nil
}
