package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/spf13/cobra"

	"github.com/mailbox-notifier/mailbox-state-lambda/internal/counter"
	"github.com/mailbox-notifier/mailbox-state-lambda/internal/mailbox"
	"github.com/mailbox-notifier/mailbox-state-lambda/internal/notify"
)

var replayDelay time.Duration

// defaultReplayEvents exercises every transition: open/closed, the ajar
// transition, and the power-of-two ajar re-notification at 4.
var defaultReplayEvents = []string{
	"open", "closed",
	"open", "open", "closed",
	"open", "open", "open", "closed",
	"open", "open", "open", "open", "closed",
}

var replayCmd = &cobra.Command{
	Use:   "replay [event ...]",
	Short: "Drive a sequence of door events through the live state machine",
	Long: `Replay feeds door events ("open"/"closed") through the state machine
against the live table and topic, one fresh machine per event, the way
one Lambda invocation handles one event. The counter is reset at the
end. With no arguments a built-in sequence covering every transition
is used.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if tableName == "" {
			return errors.New("--table or MAILBOX_TABLE_NAME is required")
		}
		if topicARN == "" {
			return errors.New("--topic-arn or MAILBOX_SNS_TOPIC_ARN is required")
		}

		ctx := cmd.Context()
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return fmt.Errorf("failed to load AWS config: %w", err)
		}

		store := counter.NewRepository(dynamodb.NewFromConfig(cfg), tableName)
		publisher := notify.NewSNSPublisher(sns.NewFromConfig(cfg), topicARN)

		eventSeq := args
		if len(eventSeq) == 0 {
			eventSeq = defaultReplayEvents
		}

		return runReplay(ctx, store, publisher, eventSeq, replayDelay, cmd.OutOrStdout())
	},
}

func init() {
	replayCmd.Flags().StringVar(&topicARN, "topic-arn",
		os.Getenv("MAILBOX_SNS_TOPIC_ARN"), "SNS topic for notifications")
	replayCmd.Flags().DurationVar(&replayDelay, "delay", 0, "pause between events")
}

// runReplay feeds each event through a fresh machine, printing the state
// and counter after every step, and resets the counter at the end.
func runReplay(ctx context.Context, store mailbox.CounterStore, publisher notify.Publisher, eventSeq []string, delay time.Duration, out io.Writer) error {
	logger := slog.New(slog.NewTextHandler(out, nil))

	for i, ev := range eventSeq {
		if i > 0 && delay > 0 {
			time.Sleep(delay)
		}

		m := mailbox.NewMachine(ctx, store, publisher, logger)
		m.HandleEvent(ctx, ev)

		count, err := store.Get(ctx)
		if err != nil {
			return fmt.Errorf("failed to read counter: %w", err)
		}
		fmt.Fprintf(out, "event=%s state=%s counter=%d\n", ev, m.State(), count)
	}

	if err := store.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset counter: %w", err)
	}
	return nil
}
