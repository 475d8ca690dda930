package registry

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/RobLun72/HouseProject-sub002/pkg/config"
	"github.com/RobLun72/HouseProject-sub002/pkg/db/models"
	"github.com/RobLun72/HouseProject-sub002/pkg/enums"
	"github.com/RobLun72/HouseProject-sub002/pkg/outbox"
	"github.com/RobLun72/HouseProject-sub002/pkg/outbox/payloads"
)

// EventDescriptor links an event type to its aggregate/topic/payload schema.
type EventDescriptor struct {
	EventType      enums.OutboxEventType
	AggregateType  enums.OutboxAggregateType
	Topic          string
	PayloadFactory func() interface{}
}

// ResolvedEvent is the result of decoding an outbox row.
type ResolvedEvent struct {
	Descriptor  EventDescriptor
	Envelope    outbox.PayloadEnvelope
	Payload     interface{}
	OrderingKey string
}

// EventRegistry maps each supported event type to its descriptor. The event
// set is closed; an unknown tag is a non-retryable defect, not a transient
// failure.
type EventRegistry struct {
	entries map[enums.OutboxEventType]EventDescriptor
}

// NonRetryableError signals the relay should stop retrying a row.
type NonRetryableError struct {
	Err error
}

// Error implements error.
func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

// Unwrap exposes the wrapped error.
func (e NonRetryableError) Unwrap() error {
	return e.Err
}

// NewNonRetryableError wraps an error to signal no retries.
func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}

// NewEventRegistry builds the registry with the configured topic names.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	if cfg.DomainTopic == "" {
		return nil, fmt.Errorf("domain topic is required")
	}

	reg := &EventRegistry{entries: make(map[enums.OutboxEventType]EventDescriptor)}
	domainTopic := cfg.DomainTopic

	for _, desc := range []EventDescriptor{
		{
			EventType:      enums.EventHouseCreated,
			AggregateType:  enums.AggregateHouse,
			Topic:          domainTopic,
			PayloadFactory: func() interface{} { return &payloads.HouseSnapshotEvent{} },
		},
		{
			EventType:      enums.EventHouseUpdated,
			AggregateType:  enums.AggregateHouse,
			Topic:          domainTopic,
			PayloadFactory: func() interface{} { return &payloads.HouseSnapshotEvent{} },
		},
		{
			EventType:      enums.EventHouseDeleted,
			AggregateType:  enums.AggregateHouse,
			Topic:          domainTopic,
			PayloadFactory: func() interface{} { return &payloads.HouseDeletedEvent{} },
		},
		{
			EventType:      enums.EventRoomCreated,
			AggregateType:  enums.AggregateRoom,
			Topic:          domainTopic,
			PayloadFactory: func() interface{} { return &payloads.RoomSnapshotEvent{} },
		},
		{
			EventType:      enums.EventRoomUpdated,
			AggregateType:  enums.AggregateRoom,
			Topic:          domainTopic,
			PayloadFactory: func() interface{} { return &payloads.RoomSnapshotEvent{} },
		},
		{
			EventType:      enums.EventRoomDeleted,
			AggregateType:  enums.AggregateRoom,
			Topic:          domainTopic,
			PayloadFactory: func() interface{} { return &payloads.RoomDeletedEvent{} },
		},
	} {
		reg.register(desc)
	}

	return reg, nil
}

func (r *EventRegistry) register(desc EventDescriptor) {
	if desc.PayloadFactory == nil {
		return
	}
	r.entries[desc.EventType] = desc
}

// Resolve validates the row and decodes its typed payload.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.entries[event.EventType]
	if !ok {
		return nil, NewNonRetryableError(fmt.Errorf("unsupported event type %s", event.EventType))
	}
	if desc.AggregateType != event.AggregateType {
		return nil, NewNonRetryableError(fmt.Errorf("aggregate mismatch: expected %s got %s", desc.AggregateType, event.AggregateType))
	}
	if event.AggregateID == 0 {
		return nil, NewNonRetryableError(fmt.Errorf("missing aggregate_id"))
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(event.EventData, &envelope); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode envelope: %w", err))
	}

	trimmed := bytes.TrimSpace(envelope.Data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, NewNonRetryableError(fmt.Errorf("payload missing for %s", event.EventType))
	}

	payload := desc.PayloadFactory()
	if payload == nil {
		return nil, NewNonRetryableError(fmt.Errorf("payload factory not configured for %s", event.EventType))
	}
	if err := json.Unmarshal(envelope.Data, payload); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode %s payload: %w", event.EventType, err))
	}

	return &ResolvedEvent{
		Descriptor:  desc,
		Envelope:    envelope,
		Payload:     payload,
		OrderingKey: OrderingKey(event.AggregateType, event.AggregateID),
	}, nil
}

// OrderingKey is the per-entity stream key the transport orders on.
func OrderingKey(aggregateType enums.OutboxAggregateType, aggregateID int64) string {
	return fmt.Sprintf("%s/%d", aggregateType, aggregateID)
}
