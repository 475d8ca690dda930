package replica

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	pkgerrors "github.com/RobLun72/HouseProject-sub002/pkg/errors"
	"github.com/RobLun72/HouseProject-sub002/pkg/logger"
	"github.com/RobLun72/HouseProject-sub002/pkg/outbox"
	"github.com/RobLun72/HouseProject-sub002/pkg/outbox/idempotency"
	"github.com/RobLun72/HouseProject-sub002/pkg/outbox/payloads"
)

const (
	telemetryConsumerName = "temperature-replica"

	// EventTemperatureRecorded is the attribute value telemetry publishers set.
	EventTemperatureRecorded = "temperature_recorded"
)

// TelemetryConsumer appends temperature readings from the telemetry
// subscription to the replica store. Readings for rooms that are not
// replicated yet are skipped the same way room events gate on their house.
type TelemetryConsumer struct {
	service      *Service
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewTelemetryConsumer builds the telemetry consumer.
func NewTelemetryConsumer(service *Service, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*TelemetryConsumer, error) {
	if service == nil {
		return nil, fmt.Errorf("replica service required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("telemetry subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &TelemetryConsumer{
		service:      service,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *TelemetryConsumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

func (c *TelemetryConsumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := msg.Attributes["event_type"]
	fields := map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	}
	logCtx := c.logg.WithFields(ctx, fields)

	if eventType != EventTemperatureRecorded {
		c.logg.Info(logCtx, "skipping non-telemetry event")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}
	logCtx = c.logg.WithEventID(logCtx, envelope.EventID)

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, telemetryConsumerName, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "reading already processed")
		return processResult{ack: true}
	}

	var payload payloads.TemperatureRecordedEvent
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		return processResult{ack: true}
	}

	applied, err := c.service.RecordTemperature(ctx, payload)
	if err != nil {
		_ = c.idempotency.Delete(ctx, telemetryConsumerName, eventID)
		if pkgerrors.IsRetryable(err) {
			c.logg.Error(logCtx, "temperature apply failed, redelivering", err)
			return processResult{nack: true}
		}
		c.logg.Error(logCtx, "temperature reading dropped", err)
		return processResult{ack: true}
	}
	if !applied {
		_ = c.idempotency.Delete(ctx, telemetryConsumerName, eventID)
		return processResult{ack: true}
	}

	c.logg.Info(logCtx, "temperature recorded in replica")
	return processResult{ack: true}
}
