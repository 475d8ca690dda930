package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateHouse OutboxAggregateType = "house"
	AggregateRoom  OutboxAggregateType = "room"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateHouse,
	AggregateRoom,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres. The set is closed:
// the relay and every consumer dispatch on the tag, so a new type means a new
// payload struct, registry entry and handler, never a new interface.
type OutboxEventType string

const (
	EventHouseCreated OutboxEventType = "house_created"
	EventHouseUpdated OutboxEventType = "house_updated"
	EventHouseDeleted OutboxEventType = "house_deleted"
	EventRoomCreated  OutboxEventType = "room_created"
	EventRoomUpdated  OutboxEventType = "room_updated"
	EventRoomDeleted  OutboxEventType = "room_deleted"
)

var validOutboxEventTypes = []OutboxEventType{
	EventHouseCreated,
	EventHouseUpdated,
	EventHouseDeleted,
	EventRoomCreated,
	EventRoomUpdated,
	EventRoomDeleted,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
