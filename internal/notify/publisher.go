// Package notify publishes mailbox notifications to an SNS topic.
package notify

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// Publisher publishes mailbox state notifications.
type Publisher interface {
	Publish(ctx context.Context, message string) error
}

// SNSAPI abstracts SNS publish operations for dependency inversion.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSPublisher publishes notifications to an SNS topic.
type SNSPublisher struct {
	client   SNSAPI
	topicARN string
}

// NewSNSPublisher creates a new SNSPublisher.
func NewSNSPublisher(client SNSAPI, topicARN string) *SNSPublisher {
	return &SNSPublisher{
		client:   client,
		topicARN: topicARN,
	}
}

// Publish sends a notification message to the configured topic.
// Delivery is best-effort; the caller decides whether to log or ignore
// a failure.
func (p *SNSPublisher) Publish(ctx context.Context, message string) error {
	_, err := p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(message),
	})
	return err
}
