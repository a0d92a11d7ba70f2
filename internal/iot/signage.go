// Package iot drives the per-slot indicator signs over the AWS IoT data plane.
package iot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iotdataplane"

	"github.com/shreyakodukula/parking/internal/domain"
)

const slotTopicFormat = "parking/slots/%s/status"

type dataPlanePublisher interface {
	Publish(ctx context.Context, params *iotdataplane.PublishInput, optFns ...func(*iotdataplane.Options)) (*iotdataplane.PublishOutput, error)
}

type SignagePublisher struct {
	client dataPlanePublisher
}

func NewSignagePublisher(client dataPlanePublisher) *SignagePublisher {
	return &SignagePublisher{client: client}
}

func SlotTopic(slotNumber string) string {
	return fmt.Sprintf(slotTopicFormat, slotNumber)
}

// PublishSlotStatus sends the slot's status with QoS 1 so the sign catches up after a reconnect.
func (p *SignagePublisher) PublishSlotStatus(ctx context.Context, slotNumber string, status domain.SlotStatus) error {
	payload, err := json.Marshal(domain.SignagePayload{
		SlotNumber: slotNumber,
		Status:     status,
		UpdatedAt:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal signage payload: %w", err)
	}

	topic := SlotTopic(slotNumber)
	_, err = p.client.Publish(ctx, &iotdataplane.PublishInput{
		Topic:   aws.String(topic),
		Qos:     1,
		Payload: payload,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	slog.Debug("slot signage updated", "topic", topic, "status", status)
	return nil
}
