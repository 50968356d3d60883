// Package main implements the HTTP-triggered mailbox sensor Lambda handler.
// API Gateway routes door-sensor requests here with "open" or "closed" in
// the request path.
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"strings"

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

const (
	msgSuccess       = "Success"
	msgInvalidStatus = "Invalid mailbox status."
	msgMissingConfig = "MAILBOX_SNS_TOPIC_ARN and MAILBOX_TABLE_NAME environment variables are required."
)

// handler implements the mailbox HTTP logic.
type handler struct {
	store      mailbox.CounterStore
	publisher  notify.Publisher
	configured bool
}

// newHandler creates a new handler. configured reports whether the topic
// and table settings were both present at startup.
func newHandler(store mailbox.CounterStore, publisher notify.Publisher, configured bool) *handler {
	return &handler{
		store:      store,
		publisher:  publisher,
		configured: configured,
	}
}

// handle processes a door-sensor HTTP request.
func (h *handler) handle(ctx context.Context, request events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	tracer := otel.Tracer("mailbox-http")
	ctx, span := tracer.Start(ctx, "MailboxHTTPHandler")
	defer span.End()

	var event string
	switch {
	case strings.Contains(request.RawPath, "open"):
		event = mailbox.EventOpen
	case strings.Contains(request.RawPath, "closed"):
		event = mailbox.EventClosed
	default:
		logger.ErrorContext(ctx, "Invalid mailbox status",
			slog.String("raw_path", request.RawPath),
		)
		return httpResponse(http.StatusBadRequest, msgInvalidStatus), nil
	}

	if !h.configured {
		logger.ErrorContext(ctx, "Missing required configuration")
		return httpResponse(http.StatusInternalServerError, msgMissingConfig), nil
	}

	m := mailbox.NewMachine(ctx, h.store, h.publisher, logger)
	m.HandleEvent(ctx, event)

	logger.InfoContext(ctx, "Mailbox event handled",
		slog.String("event", event),
		slog.String("state", string(m.State())),
	)

	return httpResponse(http.StatusOK, msgSuccess), nil
}

// httpResponse builds a CORS-permissive response with a JSON string body.
func httpResponse(code int, msg string) events.APIGatewayV2HTTPResponse {
	body, _ := json.Marshal(msg)
	return events.APIGatewayV2HTTPResponse{
		StatusCode: code,
		Headers: map[string]string{
			"Access-Control-Allow-Origin":  "*",
			"Access-Control-Allow-Headers": "*",
			"Access-Control-Allow-Methods": "POST, OPTIONS",
		},
		Body: string(body),
	}
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

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		logger.Error("FATAL: Failed to load AWS config", slog.String("error", err.Error()))
		panic(err)
	}

	// Instrument AWS SDK clients with OTel tracing
	otelaws.AppendMiddlewares(&cfg.APIOptions)

	store := counter.NewRepository(dynamodb.NewFromConfig(cfg), tableName)
	publisher := notify.NewSNSPublisher(sns.NewFromConfig(cfg), topicARN)

	h := newHandler(store, publisher, topicARN != "" && tableName != "")
	lambda.Start(otellambda.InstrumentHandler(h.handle, xrayconfig.WithRecommendedOptions(tp)...))
}
