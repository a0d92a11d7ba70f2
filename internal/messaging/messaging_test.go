package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shreyakodukula/parking/internal/domain"
)

type fakeSQS struct {
	mu      sync.Mutex
	sent    []*sqs.SendMessageInput
	batches [][]types.Message
	deleted []string
	onDrain func()
	sendErr error
}

func (f *fakeSQS) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sent = append(f.sent, in)
	return &sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil
}

func (f *fakeSQS) ReceiveMessage(ctx context.Context, _ *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.batches) == 0 {
		if f.onDrain != nil {
			f.onDrain()
		}
		return &sqs.ReceiveMessageOutput{}, nil
	}
	batch := f.batches[0]
	f.batches = f.batches[1:]
	return &sqs.ReceiveMessageOutput{Messages: batch}, nil
}

func (f *fakeSQS) DeleteMessage(_ context.Context, in *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, *in.ReceiptHandle)
	return &sqs.DeleteMessageOutput{}, nil
}

type recordingHandler struct {
	seen []string
}

func (h *recordingHandler) HandlePaymentNotification(_ context.Context, body string) error {
	h.seen = append(h.seen, body)
	switch body {
	case "bad":
		return errors.New("boom")
	case "garbage":
		return fmt.Errorf("decode: %w", ErrMalformedMessage)
	}
	return nil
}

func TestSQSConsumerDeletesOnlyHandledMessages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := &fakeSQS{
		batches: [][]types.Message{{
			{MessageId: aws.String("1"), Body: aws.String("good"), ReceiptHandle: aws.String("r-good")},
			{MessageId: aws.String("2"), Body: aws.String("bad"), ReceiptHandle: aws.String("r-bad")},
			{MessageId: aws.String("3"), ReceiptHandle: aws.String("r-empty")},
			{MessageId: aws.String("4"), Body: aws.String("garbage"), ReceiptHandle: aws.String("r-garbage")},
		}},
		onDrain: cancel,
	}
	handler := &recordingHandler{}

	NewSQSConsumer(client, "https://sqs.local/q", handler).Start(ctx)

	assert.Equal(t, []string{"good", "bad", "garbage"}, handler.seen)
	assert.ElementsMatch(t, []string{"r-good", "r-empty", "r-garbage"}, client.deleted)
}

func TestSQSPublisherSendsEventJSON(t *testing.T) {
	client := &fakeSQS{}
	pub := NewSQSPublisher(client, "https://sqs.local/events")

	event := NewBookingEvent(domain.EventBookingCreated, domain.Booking{ID: 7, SlotID: 3})
	require.NoError(t, pub.Publish(context.Background(), event))

	require.Len(t, client.sent, 1)
	var decoded domain.BookingEvent
	require.NoError(t, json.Unmarshal([]byte(*client.sent[0].MessageBody), &decoded))
	assert.Equal(t, event.ID, decoded.ID)
	assert.Equal(t, 7, decoded.Booking.ID)
	assert.Equal(t, "booking.created", *client.sent[0].MessageAttributes["event_type"].StringValue)
}

func TestSQSPublisherWrapsErrors(t *testing.T) {
	client := &fakeSQS{sendErr: errors.New("throttled")}
	err := NewSQSPublisher(client, "q").Publish(context.Background(), NewBookingEvent(domain.EventBookingCancelled, domain.Booking{}))
	assert.ErrorContains(t, err, "throttled")
}

type fakeChannel struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return nil
}

func TestRabbitMQPublisherRoutesByEventType(t *testing.T) {
	ch := &fakeChannel{}
	event := NewBookingEvent(domain.EventBookingCompleted, domain.Booking{ID: 1})

	require.NoError(t, NewRabbitMQPublisher(ch).Publish(context.Background(), event))

	assert.Equal(t, BookingExchangeName, ch.exchange)
	assert.Equal(t, "booking.completed", ch.key)
	assert.Equal(t, "application/json", ch.msg.ContentType)
	assert.Equal(t, event.ID, ch.msg.MessageId)
}
