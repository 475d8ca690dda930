package payloads

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/RobLun72/HouseProject-sub002/pkg/enums"
)

// Wire payloads, one shape per event type. Every payload is self-contained:
// consumers never call back to the owning service to resolve an event.

// HouseSnapshotEvent carries the full post-mutation snapshot. Used by both
// house_created and house_updated.
type HouseSnapshotEvent struct {
	HouseID   int64     `json:"houseId"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Area      float64   `json:"area"`
	EventTime time.Time `json:"eventTime"`
}

// HouseDeletedEvent carries identifying keys only.
type HouseDeletedEvent struct {
	HouseID   int64     `json:"houseId"`
	EventTime time.Time `json:"eventTime"`
}

// RoomSnapshotEvent carries the full post-mutation snapshot. Used by both
// room_created and room_updated.
type RoomSnapshotEvent struct {
	RoomID    int64          `json:"roomId"`
	HouseID   int64          `json:"houseId"`
	Name      string         `json:"name"`
	Type      enums.RoomType `json:"type"`
	Area      float64        `json:"area"`
	Placement string         `json:"placement"`
	EventTime time.Time      `json:"eventTime"`
}

// RoomDeletedEvent carries identifying keys only.
type RoomDeletedEvent struct {
	RoomID    int64     `json:"roomId"`
	HouseID   int64     `json:"houseId"`
	EventTime time.Time `json:"eventTime"`
}

// TemperatureRecordedEvent arrives on the telemetry topic, not through the
// outbox; it shares the replica consumer pipeline.
type TemperatureRecordedEvent struct {
	RoomID     int64           `json:"roomId"`
	Value      decimal.Decimal `json:"value"`
	RecordedAt time.Time       `json:"recordedAt"`
}
