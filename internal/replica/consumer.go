package replica

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/RobLun72/HouseProject-sub002/pkg/enums"
	pkgerrors "github.com/RobLun72/HouseProject-sub002/pkg/errors"
	"github.com/RobLun72/HouseProject-sub002/pkg/logger"
	"github.com/RobLun72/HouseProject-sub002/pkg/outbox"
	"github.com/RobLun72/HouseProject-sub002/pkg/outbox/idempotency"
	"github.com/RobLun72/HouseProject-sub002/pkg/outbox/payloads"
)

const domainConsumerName = "house-replica"

// Consumer applies house and room events from the domain subscription to the
// replica store.
type Consumer struct {
	service      *Service
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewConsumer builds the domain event consumer.
func NewConsumer(service *Service, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if service == nil {
		return nil, fmt.Errorf("replica service required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		service:      service,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	rawType := msg.Attributes["event_type"]
	fields := map[string]any{
		"message_id": msg.ID,
		"event_type": rawType,
	}
	logCtx := c.logg.WithFields(ctx, fields)

	eventType, err := enums.ParseOutboxEventType(rawType)
	if err != nil {
		c.logg.Warn(logCtx, "skipping unknown event type")
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

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, domainConsumerName, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	applied, err := c.dispatch(ctx, eventType, envelope.Data)
	if err != nil {
		_ = c.idempotency.Delete(ctx, domainConsumerName, eventID)
		if pkgerrors.IsRetryable(err) {
			c.logg.Error(logCtx, "event apply failed, redelivering", err)
			return processResult{nack: true}
		}
		// Redelivery would not change the outcome.
		c.logg.Error(logCtx, "event dropped", err)
		return processResult{ack: true}
	}
	if !applied {
		// Business no-op. Release the claim so a redelivery can still apply
		// once the precondition (usually the parent) exists.
		_ = c.idempotency.Delete(ctx, domainConsumerName, eventID)
		return processResult{ack: true}
	}

	c.logg.Info(logCtx, "event applied to replica")
	return processResult{ack: true}
}

func (c *Consumer) dispatch(ctx context.Context, eventType enums.OutboxEventType, data json.RawMessage) (bool, error) {
	switch eventType {
	case enums.EventHouseCreated:
		var payload payloads.HouseSnapshotEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return false, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode house snapshot")
		}
		return c.service.ApplyHouseCreated(ctx, payload)
	case enums.EventHouseUpdated:
		var payload payloads.HouseSnapshotEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return false, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode house snapshot")
		}
		return c.service.ApplyHouseUpdated(ctx, payload)
	case enums.EventHouseDeleted:
		var payload payloads.HouseDeletedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return false, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode house delete")
		}
		return c.service.ApplyHouseDeleted(ctx, payload)
	case enums.EventRoomCreated:
		var payload payloads.RoomSnapshotEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return false, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode room snapshot")
		}
		return c.service.ApplyRoomCreated(ctx, payload)
	case enums.EventRoomUpdated:
		var payload payloads.RoomSnapshotEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return false, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode room snapshot")
		}
		return c.service.ApplyRoomUpdated(ctx, payload)
	case enums.EventRoomDeleted:
		var payload payloads.RoomDeletedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return false, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode room delete")
		}
		return c.service.ApplyRoomDeleted(ctx, payload)
	default:
		return false, pkgerrors.New(pkgerrors.CodeValidation, "unhandled event type")
	}
}
