package houses

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/RobLun72/HouseProject-sub002/pkg/db"
	"github.com/RobLun72/HouseProject-sub002/pkg/db/models"
	"github.com/RobLun72/HouseProject-sub002/pkg/enums"
	pkgerrors "github.com/RobLun72/HouseProject-sub002/pkg/errors"
	"github.com/RobLun72/HouseProject-sub002/pkg/outbox"
	"github.com/RobLun72/HouseProject-sub002/pkg/outbox/payloads"
)

type failingOutbox struct{}

func (failingOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	return errors.New("outbox unavailable")
}

func newServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.House{}, &models.OutboxEvent{}))
	return conn
}

func newHouseService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()
	runner, err := db.NewTxRunner(conn, true, nil)
	require.NoError(t, err)
	svc, err := NewService(NewRepository(conn), runner, outbox.NewService(outbox.NewRepository(conn), nil))
	require.NoError(t, err)
	return svc
}

func outboxRows(t *testing.T, conn *gorm.DB) []models.OutboxEvent {
	t.Helper()
	var rows []models.OutboxEvent
	require.NoError(t, conn.Order("id ASC").Find(&rows).Error)
	return rows
}

func TestCreateHousePairsRowWithOutboxEvent(t *testing.T) {
	conn := newServiceTestDB(t)
	svc := newHouseService(t, conn)

	house, err := svc.Create(context.Background(), CreateHouseInput{
		Name:    "Villa Rosa",
		Address: "Hillside 12",
		Area:    210,
	})
	require.NoError(t, err)
	require.NotZero(t, house.ID)

	rows := outboxRows(t, conn)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.EventHouseCreated, rows[0].EventType)
	assert.Equal(t, house.ID, rows[0].AggregateID)
	assert.False(t, rows[0].IsPublished)

	var envelope outbox.PayloadEnvelope
	require.NoError(t, json.Unmarshal(rows[0].EventData, &envelope))
	var payload payloads.HouseSnapshotEvent
	require.NoError(t, json.Unmarshal(envelope.Data, &payload))
	assert.Equal(t, "Villa Rosa", payload.Name)
	assert.Equal(t, house.ID, payload.HouseID)
}

func TestCreateHouseValidation(t *testing.T) {
	conn := newServiceTestDB(t)
	svc := newHouseService(t, conn)

	_, err := svc.Create(context.Background(), CreateHouseInput{Address: "x", Area: 10})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.Create(context.Background(), CreateHouseInput{Name: "A", Address: "x", Area: 0})
	require.Error(t, err)

	assert.Empty(t, outboxRows(t, conn))
}

func TestCreateHouseRollsBackWhenEmitFails(t *testing.T) {
	conn := newServiceTestDB(t)
	runner, err := db.NewTxRunner(conn, true, nil)
	require.NoError(t, err)
	svc, err := NewService(NewRepository(conn), runner, failingOutbox{})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateHouseInput{
		Name:    "Ghost House",
		Address: "Nowhere 1",
		Area:    80,
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, conn.Model(&models.House{}).Count(&count).Error)
	assert.Zero(t, count, "house row must not survive a failed emit")
}

func TestUpdateHouseEmitsFullSnapshot(t *testing.T) {
	conn := newServiceTestDB(t)
	svc := newHouseService(t, conn)

	house, err := svc.Create(context.Background(), CreateHouseInput{
		Name:    "Old Name",
		Address: "Main 1",
		Area:    100,
	})
	require.NoError(t, err)

	newName := "New Name"
	updated, err := svc.Update(context.Background(), house.ID, UpdateHouseInput{Name: &newName})
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)

	rows := outboxRows(t, conn)
	require.Len(t, rows, 2)
	assert.Equal(t, enums.EventHouseUpdated, rows[1].EventType)

	var envelope outbox.PayloadEnvelope
	require.NoError(t, json.Unmarshal(rows[1].EventData, &envelope))
	var payload payloads.HouseSnapshotEvent
	require.NoError(t, json.Unmarshal(envelope.Data, &payload))
	assert.Equal(t, "New Name", payload.Name)
	assert.Equal(t, "Main 1", payload.Address, "unchanged fields ride along in the snapshot")
}

func TestUpdateHouseNotFound(t *testing.T) {
	conn := newServiceTestDB(t)
	svc := newHouseService(t, conn)

	name := "anything"
	_, err := svc.Update(context.Background(), 999, UpdateHouseInput{Name: &name})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestDeleteHouseEmitsKeysOnlyEvent(t *testing.T) {
	conn := newServiceTestDB(t)
	svc := newHouseService(t, conn)

	house, err := svc.Create(context.Background(), CreateHouseInput{
		Name:    "To Remove",
		Address: "Gone 3",
		Area:    55,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), house.ID))

	_, err = svc.Get(context.Background(), house.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	rows := outboxRows(t, conn)
	require.Len(t, rows, 2)
	assert.Equal(t, enums.EventHouseDeleted, rows[1].EventType)

	var envelope outbox.PayloadEnvelope
	require.NoError(t, json.Unmarshal(rows[1].EventData, &envelope))
	var payload payloads.HouseDeletedEvent
	require.NoError(t, json.Unmarshal(envelope.Data, &payload))
	assert.Equal(t, house.ID, payload.HouseID)
}

func TestDeleteHouseNotFound(t *testing.T) {
	conn := newServiceTestDB(t)
	svc := newHouseService(t, conn)

	err := svc.Delete(context.Background(), 42)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
	assert.Empty(t, outboxRows(t, conn))
}
