package models

import (
	"encoding/json"
	"time"

	"github.com/RobLun72/HouseProject-sub002/pkg/enums"
)

// OutboxEvent is an append-only event emitted via the outbox pattern. A row
// exists iff the mutation it describes committed. Payload is immutable after
// insert; only the publish state and retry bookkeeping ever change.
type OutboxEvent struct {
	ID            int64                 `gorm:"column:id;primaryKey;autoIncrement"`
	EventType     enums.OutboxEventType `gorm:"column:event_type;type:event_type_enum;not null"`
	AggregateType enums.OutboxAggregateType `gorm:"column:aggregate_type;type:aggregate_type_enum;not null"`
	AggregateID   int64                 `gorm:"column:aggregate_id;not null"`
	EventData     json.RawMessage       `gorm:"column:event_data;type:jsonb;not null"`
	CreatedAt     time.Time             `gorm:"column:created_at;autoCreateTime"`
	IsPublished   bool                  `gorm:"column:is_published;not null;default:false"`
	PublishedAt   *time.Time            `gorm:"column:published_at"`
	RetryCount    int                   `gorm:"column:retry_count;not null;default:0"`
	LastError     *string               `gorm:"column:last_error"`
	NextAttemptAt time.Time             `gorm:"column:next_attempt_at;not null;autoCreateTime"`
}
