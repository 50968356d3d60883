// Package main implements the SQS-triggered mailbox sensor Lambda handler.
// This Lambda consumes raw door-sensor messages published to a queue.
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-lambda-go/otellambda"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-lambda-go/otellambda/xrayconfig"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"
	"go.opentelemetry.io/otel"

	"github.com/mailbox-notifier/mailbox-state-lambda/internal/counter"
	"github.com/mailbox-notifier/mailbox-state-lambda/internal/mailbox"
	"github.com/mailbox-notifier/mailbox-state-lambda/internal/notify"
)

var logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
	Level: slog.LevelInfo,
}))

// SensorMessage represents a door-sensor reading from the queue.
type SensorMessage struct {
	Door string `json:"door"`
}

// handler implements the mailbox SQS consumer logic.
type handler struct {
	store     mailbox.CounterStore
	publisher notify.Publisher
}

// newHandler creates a new handler.
func newHandler(store mailbox.CounterStore, publisher notify.Publisher) *handler {
	return &handler{
		store:     store,
		publisher: publisher,
	}
}

// handle processes an SQS event containing door-sensor messages.
func (h *handler) handle(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	tracer := otel.Tracer("mailbox-event")
	ctx, span := tracer.Start(ctx, "MailboxEventHandler")
	defer span.End()

	var failures []events.SQSBatchItemFailure

	for _, record := range event.Records {
		var msg SensorMessage
		if err := json.Unmarshal([]byte(record.Body), &msg); err != nil {
			logger.ErrorContext(ctx, "Failed to parse SQS message",
				slog.String("message_id", record.MessageId),
				slog.String("error", err.Error()),
			)
			failures = append(failures, events.SQSBatchItemFailure{
				ItemIdentifier: record.MessageId,
			})
			continue
		}

		if msg.Door == "" {
			logger.ErrorContext(ctx, "Ignoring sensor message without door field",
				slog.String("message_id", record.MessageId),
			)
			failures = append(failures, events.SQSBatchItemFailure{
				ItemIdentifier: record.MessageId,
			})
			continue
		}

		m := mailbox.NewMachine(ctx, h.store, h.publisher, logger)
		m.HandleEvent(ctx, msg.Door)

		logger.InfoContext(ctx, "Mailbox event handled",
			slog.String("event", msg.Door),
			slog.String("state", string(m.State())),
		)
	}

	logger.InfoContext(ctx, "Sensor batch completed",
		slog.Int("total", len(event.Records)),
		slog.Int("failures", len(failures)),
	)

	return events.SQSEventResponse{
		BatchItemFailures: failures,
	}, nil
}

func main() {
	ctx := context.Background()

	tp, err := xrayconfig.NewTracerProvider(ctx)
	if err != nil {
		logger.Error("FATAL: Failed to initialize tracer provider", slog.String("error", err.Error()))
		panic(err)
	}
	otel.SetTracerProvider(tp)

	topicARN := os.Getenv("MAILBOX_SNS_TOPIC_ARN")
	tableName := os.Getenv("MAILBOX_TABLE_NAME")
	if topicARN == "" || tableName == "" {
		logger.Error("FATAL: MAILBOX_SNS_TOPIC_ARN and MAILBOX_TABLE_NAME environment variables are required")
		panic("missing required configuration")
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		logger.Error("FATAL: Failed to load AWS config", slog.String("error", err.Error()))
		panic(err)
	}

	// Instrument AWS SDK clients with OTel tracing
	otelaws.AppendMiddlewares(&cfg.APIOptions)

	store := counter.NewRepository(dynamodb.NewFromConfig(cfg), tableName)
	publisher := notify.NewSNSPublisher(sns.NewFromConfig(cfg), topicARN)

	h := newHandler(store, publisher)
	lambda.Start(otellambda.InstrumentHandler(h.handle, xrayconfig.WithRecommendedOptions(tp)...))
}
