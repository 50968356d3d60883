// Package counter provides the DynamoDB-backed open-event counter.
package counter

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/mailbox-notifier/mailbox-state-lambda/internal/dynamo"
)

// DynamoDBAPI abstracts the DynamoDB operations used by the repository.
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// Repository persists the mailbox open-event counter.
type Repository struct {
	client    DynamoDBAPI
	tableName string
}

// NewRepository creates a new Repository.
func NewRepository(client DynamoDBAPI, tableName string) *Repository {
	return &Repository{
		client:    client,
		tableName: tableName,
	}
}

// Get retrieves the current counter value.
// Returns 0 if no counter item exists yet.
func (r *Repository) Get(ctx context.Context) (int64, error) {
	output, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			dynamo.AttrID: &types.AttributeValueMemberS{Value: dynamo.CounterKey},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get counter: %w", err)
	}

	if output.Item == nil {
		return 0, nil
	}

	if v, ok := output.Item[dynamo.AttrValue].(*types.AttributeValueMemberN); ok {
		count, err := strconv.ParseInt(v.Value, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("failed to parse counter: %w", err)
		}
		return count, nil
	}

	return 0, nil
}

// Increment atomically adds one to the counter, creating the item at zero
// first if it does not exist. The increment is a single conditional update
// so concurrent invocations cannot lose events.
func (r *Repository) Increment(ctx context.Context) error {
	now := time.Now().UTC()

	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			dynamo.AttrID: &types.AttributeValueMemberS{Value: dynamo.CounterKey},
		},
		UpdateExpression: aws.String("SET #val = if_not_exists(#val, :zero) + :one, #ts = :now"),
		ExpressionAttributeNames: map[string]string{
			"#val": dynamo.AttrValue,
			"#ts":  dynamo.AttrTimestamp,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":zero": &types.AttributeValueMemberN{Value: "0"},
			":one":  &types.AttributeValueMemberN{Value: "1"},
			":now":  &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to increment counter: %w", err)
	}

	return nil
}

// Reset atomically sets the counter back to zero.
func (r *Repository) Reset(ctx context.Context) error {
	now := time.Now().UTC()

	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			dynamo.AttrID: &types.AttributeValueMemberS{Value: dynamo.CounterKey},
		},
		UpdateExpression: aws.String("SET #val = :zero, #ts = :now"),
		ExpressionAttributeNames: map[string]string{
			"#val": dynamo.AttrValue,
			"#ts":  dynamo.AttrTimestamp,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":zero": &types.AttributeValueMemberN{Value: "0"},
			":now":  &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to reset counter: %w", err)
	}

	return nil
}
