package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/RobLun72/HouseProject-sub002/pkg/db/models"
	"github.com/RobLun72/HouseProject-sub002/pkg/enums"
	"github.com/RobLun72/HouseProject-sub002/pkg/outbox/payloads"
)

func newOutboxTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.OutboxEvent{}, &models.OutboxDLQ{}))
	return conn
}

func seedEvent(t *testing.T, db *gorm.DB, eventType enums.OutboxEventType, aggregateID int64, createdAt time.Time) models.OutboxEvent {
	t.Helper()
	row := models.OutboxEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateHouse,
		AggregateID:   aggregateID,
		EventData:     json.RawMessage(`{"version":1,"eventId":"x","data":{}}`),
		CreatedAt:     createdAt,
		NextAttemptAt: createdAt,
	}
	require.NoError(t, db.Create(&row).Error)
	return row
}

func TestEmitAppendsEnvelopeInsideTransaction(t *testing.T) {
	db := newOutboxTestDB(t)
	repo := NewRepository(db)
	svc := NewService(repo, nil)

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventHouseCreated,
			AggregateType: enums.AggregateHouse,
			AggregateID:   1,
			Data: payloads.HouseSnapshotEvent{
				HouseID: 1,
				Name:    "A",
				Address: "Elm Street 1",
				Area:    120,
			},
		})
	})
	require.NoError(t, err)

	var row models.OutboxEvent
	require.NoError(t, db.First(&row).Error)
	assert.Equal(t, enums.EventHouseCreated, row.EventType)
	assert.False(t, row.IsPublished)
	assert.Nil(t, row.PublishedAt)
	assert.Zero(t, row.RetryCount)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal(row.EventData, &envelope))
	assert.Equal(t, 1, envelope.Version)
	assert.NotEmpty(t, envelope.EventID)

	var payload payloads.HouseSnapshotEvent
	require.NoError(t, json.Unmarshal(envelope.Data, &payload))
	assert.Equal(t, "A", payload.Name)
}

func TestEmitRefusesNilTransaction(t *testing.T) {
	db := newOutboxTestDB(t)
	svc := NewService(NewRepository(db), nil)

	err := svc.Emit(context.Background(), nil, DomainEvent{
		EventType:     enums.EventHouseCreated,
		AggregateType: enums.AggregateHouse,
		AggregateID:   1,
	})
	require.Error(t, err)
}

func TestFetchDueSkipsBackingOffAndExhaustedRows(t *testing.T) {
	db := newOutboxTestDB(t)
	repo := NewRepository(db)
	now := time.Now().UTC()

	due := seedEvent(t, db, enums.EventHouseCreated, 1, now.Add(-3*time.Second))
	seedEvent(t, db, enums.EventHouseUpdated, 2, now.Add(-2*time.Second))

	backingOff := seedEvent(t, db, enums.EventHouseUpdated, 3, now.Add(-time.Second))
	require.NoError(t, db.Model(&models.OutboxEvent{}).
		Where("id = ?", backingOff.ID).
		Update("next_attempt_at", now.Add(time.Minute)).Error)

	exhausted := seedEvent(t, db, enums.EventHouseDeleted, 4, now.Add(-time.Second))
	require.NoError(t, db.Model(&models.OutboxEvent{}).
		Where("id = ?", exhausted.ID).
		Update("retry_count", 5).Error)

	published := seedEvent(t, db, enums.EventHouseDeleted, 5, now.Add(-time.Second))
	require.NoError(t, repo.MarkPublishedTx(db, published.ID))

	rows, err := repo.FetchDueTx(db, 10, 5, now)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, due.ID, rows[0].ID, "oldest row must come first")
}

func TestMarkPublishedIsIdempotent(t *testing.T) {
	db := newOutboxTestDB(t)
	repo := NewRepository(db)
	row := seedEvent(t, db, enums.EventHouseCreated, 1, time.Now().UTC())

	require.NoError(t, repo.MarkPublishedTx(db, row.ID))
	require.NoError(t, repo.MarkPublishedTx(db, row.ID))

	var stored models.OutboxEvent
	require.NoError(t, db.First(&stored, row.ID).Error)
	assert.True(t, stored.IsPublished)
	require.NotNil(t, stored.PublishedAt)
}

func TestMarkFailedBumpsRetryAndSchedulesNextAttempt(t *testing.T) {
	db := newOutboxTestDB(t)
	repo := NewRepository(db)
	row := seedEvent(t, db, enums.EventHouseCreated, 1, time.Now().UTC())

	next := time.Now().UTC().Add(2 * time.Second)
	require.NoError(t, repo.MarkFailedTx(db, row.ID, errors.New("broker unreachable"), next))

	var stored models.OutboxEvent
	require.NoError(t, db.First(&stored, row.ID).Error)
	assert.Equal(t, 1, stored.RetryCount)
	require.NotNil(t, stored.LastError)
	assert.Contains(t, *stored.LastError, "broker unreachable")
	assert.False(t, stored.IsPublished)
	assert.WithinDuration(t, next, stored.NextAttemptAt, time.Second)
}

func TestMarkTerminalExhaustsRow(t *testing.T) {
	db := newOutboxTestDB(t)
	repo := NewRepository(db)
	row := seedEvent(t, db, enums.EventHouseCreated, 1, time.Now().UTC())

	require.NoError(t, repo.MarkTerminalTx(db, row.ID, errors.New("max publish attempts reached"), 5))

	rows, err := repo.FetchDueTx(db, 10, 5, time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, rows, "terminal rows must never be selected again")
}

func TestDLQInsertTruncatesLongErrors(t *testing.T) {
	db := newOutboxTestDB(t)
	dlq := NewDLQRepository(db)

	long := strings.Repeat("x", 4096)
	entry := models.OutboxDLQ{
		EventID:       7,
		EventType:     enums.EventHouseCreated,
		AggregateType: enums.AggregateHouse,
		AggregateID:   1,
		EventData:     json.RawMessage(`{}`),
		ErrorReason:   enums.OutboxDLQReasonMaxAttempts,
		ErrorMessage:  &long,
	}
	require.NoError(t, dlq.InsertTx(db, entry))

	stored, err := dlq.FindByEventID(context.Background(), 7)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.NotNil(t, stored.ErrorMessage)
	assert.Len(t, *stored.ErrorMessage, maxDLQErrorLen)
}

func TestCountPending(t *testing.T) {
	db := newOutboxTestDB(t)
	repo := NewRepository(db)
	now := time.Now().UTC()

	seedEvent(t, db, enums.EventHouseCreated, 1, now)
	published := seedEvent(t, db, enums.EventHouseUpdated, 2, now)
	require.NoError(t, repo.MarkPublishedTx(db, published.ID))

	count, err := repo.CountPending()
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}
