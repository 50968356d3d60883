package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// mockSNSClient implements the SNSAPI interface for testing.
type mockSNSClient struct {
	publishFunc func(ctx context.Context, input *sns.PublishInput, opts ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func (m *mockSNSClient) Publish(ctx context.Context, input *sns.PublishInput, opts ...func(*sns.Options)) (*sns.PublishOutput, error) {
	if m.publishFunc != nil {
		return m.publishFunc(ctx, input, opts...)
	}
	return &sns.PublishOutput{}, nil
}

func TestSNSPublisher_Publish(t *testing.T) {
	var capturedInput *sns.PublishInput
	mockClient := &mockSNSClient{
		publishFunc: func(ctx context.Context, input *sns.PublishInput, opts ...func(*sns.Options)) (*sns.PublishOutput, error) {
			capturedInput = input
			return &sns.PublishOutput{}, nil
		},
	}

	publisher := NewSNSPublisher(mockClient, "arn:aws:sns:us-east-1:123456789012:mailbox")
	if err := publisher.Publish(context.Background(), "Mailbox OPEN"); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	if capturedInput == nil {
		t.Fatal("Publish was not called")
	}
	if *capturedInput.TopicArn != "arn:aws:sns:us-east-1:123456789012:mailbox" {
		t.Errorf("TopicArn = %q, want configured topic", *capturedInput.TopicArn)
	}
	if *capturedInput.Message != "Mailbox OPEN" {
		t.Errorf("Message = %q, want %q", *capturedInput.Message, "Mailbox OPEN")
	}
}

func TestSNSPublisher_Publish_SNSError(t *testing.T) {
	mockClient := &mockSNSClient{
		publishFunc: func(ctx context.Context, input *sns.PublishInput, opts ...func(*sns.Options)) (*sns.PublishOutput, error) {
			return nil, errors.New("sns error")
		},
	}

	publisher := NewSNSPublisher(mockClient, "arn:aws:sns:us-east-1:123456789012:mailbox")
	if err := publisher.Publish(context.Background(), "Mailbox OPEN"); err == nil {
		t.Fatal("Expected error, got nil")
	}
}
