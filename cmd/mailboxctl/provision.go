package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/spf13/cobra"

	"github.com/mailbox-notifier/mailbox-state-lambda/internal/dynamo"
)

const tableWaitTimeout = 5 * time.Minute

// ProvisionAPI abstracts the DynamoDB operations used by provisioning.
// DescribeTable is required by the table-exists waiter.
type ProvisionAPI interface {
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Create the mailbox counter table and seed the counter item",
	RunE: func(cmd *cobra.Command, args []string) error {
		if tableName == "" {
			return errors.New("--table or MAILBOX_TABLE_NAME is required")
		}

		ctx := cmd.Context()
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return fmt.Errorf("failed to load AWS config: %w", err)
		}

		return provisionTable(ctx, dynamodb.NewFromConfig(cfg), tableName, cmd.OutOrStdout())
	},
}

// provisionTable creates the counter table if needed, waits for it to
// become active, and seeds the counter item at zero.
func provisionTable(ctx context.Context, client ProvisionAPI, tableName string, out io.Writer) error {
	_, err := client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(tableName),
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(dynamo.AttrID), KeyType: types.KeyTypeHash},
		},
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(dynamo.AttrID), AttributeType: types.ScalarAttributeTypeS},
		},
		ProvisionedThroughput: &types.ProvisionedThroughput{
			ReadCapacityUnits:  aws.Int64(1),
			WriteCapacityUnits: aws.Int64(1),
		},
	})
	if err != nil {
		var inUse *types.ResourceInUseException
		if !errors.As(err, &inUse) {
			return fmt.Errorf("failed to create table: %w", err)
		}
		fmt.Fprintf(out, "Table %s already exists\n", tableName)
	} else {
		fmt.Fprintf(out, "Table %s creation initiated\n", tableName)
	}

	waiter := dynamodb.NewTableExistsWaiter(client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(tableName),
	}, tableWaitTimeout); err != nil {
		return fmt.Errorf("failed waiting for table to become active: %w", err)
	}

	_, err = client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(tableName),
		Item: map[string]types.AttributeValue{
			dynamo.AttrID:        &types.AttributeValueMemberS{Value: dynamo.CounterKey},
			dynamo.AttrValue:     &types.AttributeValueMemberN{Value: "0"},
			dynamo.AttrTimestamp: &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to seed counter item: %w", err)
	}

	fmt.Fprintf(out, "Counter item %q seeded at 0\n", dynamo.CounterKey)
	return nil
}
