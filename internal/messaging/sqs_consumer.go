package messaging

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type sqsReceiver interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// ErrMalformedMessage is wrapped by handlers for bodies that no retry can fix. Such
// messages are deleted instead of being redelivered.
var ErrMalformedMessage = errors.New("malformed message")

// MessageHandler processes one message body. A nil error acknowledges the message.
type MessageHandler interface {
	HandlePaymentNotification(ctx context.Context, body string) error
}

type SQSConsumer struct {
	client     sqsReceiver
	queueURL   string
	handler    MessageHandler
	retryDelay time.Duration
}

func NewSQSConsumer(client sqsReceiver, queueURL string, handler MessageHandler) *SQSConsumer {
	return &SQSConsumer{
		client:     client,
		queueURL:   queueURL,
		handler:    handler,
		retryDelay: 5 * time.Second,
	}
}

// Start long-polls the queue until ctx is cancelled. Messages that fail processing are
// left in the queue and come back after the visibility timeout, unless the failure is
// ErrMalformedMessage.
func (c *SQSConsumer) Start(ctx context.Context) {
	slog.Info("sqs consumer listening", "queue", c.queueURL)
	for {
		select {
		case <-ctx.Done():
			slog.Info("sqs consumer stopping")
			return
		default:
		}

		result, err := c.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            &c.queueURL,
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     20,
			VisibilityTimeout:   60,
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Error("sqs receive failed", "error", err)
			select {
			case <-time.After(c.retryDelay):
			case <-ctx.Done():
				return
			}
			continue
		}

		for _, message := range result.Messages {
			if message.Body == nil {
				c.deleteMessage(ctx, message.ReceiptHandle)
				continue
			}
			if err := c.handler.HandlePaymentNotification(ctx, *message.Body); err != nil {
				var id string
				if message.MessageId != nil {
					id = *message.MessageId
				}
				if errors.Is(err, ErrMalformedMessage) {
					slog.Warn("dropping malformed message", "message_id", id, "error", err)
					c.deleteMessage(ctx, message.ReceiptHandle)
					continue
				}
				slog.Error("payment notification failed, leaving for redelivery", "message_id", id, "error", err)
				continue
			}
			c.deleteMessage(ctx, message.ReceiptHandle)
		}
	}
}

func (c *SQSConsumer) deleteMessage(ctx context.Context, receiptHandle *string) {
	if receiptHandle == nil {
		slog.Warn("sqs message without receipt handle, cannot delete")
		return
	}
	_, err := c.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      &c.queueURL,
		ReceiptHandle: receiptHandle,
	})
	if err != nil {
		slog.Error("sqs delete failed", "error", err)
	}
}
