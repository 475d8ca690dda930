package replica

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/RobLun72/HouseProject-sub002/pkg/db/models"
	pkgerrors "github.com/RobLun72/HouseProject-sub002/pkg/errors"
	"github.com/RobLun72/HouseProject-sub002/pkg/logger"
	"github.com/RobLun72/HouseProject-sub002/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service applies domain events to the replica store. Every method is
// idempotent: applying the same event twice converges on the same state.
//
// The applied return value distinguishes a real write from a business no-op
// (missing parent, update of an absent row). Callers use it to release the
// idempotency claim so a later redelivery can still land once the
// precondition holds.
type Service struct {
	repo Repository
	tx   txRunner
	logg *logger.Logger
}

// NewService builds a replica applier with the required dependencies.
func NewService(repo Repository, tx txRunner, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("replica repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{repo: repo, tx: tx, logg: logg}, nil
}

// ApplyHouseCreated inserts the house snapshot. A duplicate create is a
// logged no-op: the existing row may already carry a later update, so the
// stale create snapshot must never overwrite it.
func (s *Service) ApplyHouseCreated(ctx context.Context, payload payloads.HouseSnapshotEvent) (bool, error) {
	if payload.HouseID == 0 {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "house id missing in payload")
	}
	existing, err := s.repo.FindHouse(ctx, payload.HouseID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load replica house")
	}
	if existing != nil {
		s.logg.Warn(s.logg.WithHouseID(ctx, payload.HouseID), "duplicate house create skipped")
		return false, nil
	}
	house := &models.ReplicaHouse{
		ID:      payload.HouseID,
		Name:    payload.Name,
		Address: payload.Address,
		Area:    payload.Area,
	}
	if err := s.repo.UpsertHouse(ctx, house); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert replica house")
	}
	return true, nil
}

// ApplyHouseUpdated overwrites the snapshot when the house exists; an absent
// house means it was already deleted, so the update is skipped, never
// recreated.
func (s *Service) ApplyHouseUpdated(ctx context.Context, payload payloads.HouseSnapshotEvent) (bool, error) {
	if payload.HouseID == 0 {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "house id missing in payload")
	}
	existing, err := s.repo.FindHouse(ctx, payload.HouseID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load replica house")
	}
	if existing == nil {
		s.logg.Warn(s.logg.WithHouseID(ctx, payload.HouseID), "update for absent house skipped")
		return false, nil
	}
	house := &models.ReplicaHouse{
		ID:      payload.HouseID,
		Name:    payload.Name,
		Address: payload.Address,
		Area:    payload.Area,
	}
	if err := s.repo.UpsertHouse(ctx, house); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update replica house")
	}
	return true, nil
}

// ApplyHouseDeleted cascades: rooms of the house and their temperatures go
// first, then the house row. Deleting an absent house is a no-op.
func (s *Service) ApplyHouseDeleted(ctx context.Context, payload payloads.HouseDeletedEvent) (bool, error) {
	if payload.HouseID == 0 {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "house id missing in payload")
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).DeleteHouseCascade(ctx, payload.HouseID)
	})
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cascade delete replica house")
	}
	return true, nil
}

// ApplyRoomCreated gates on the parent house: a room for a house not yet in
// the replica is skipped, not stored. A duplicate create is a logged no-op so
// a stale snapshot cannot roll back a later update.
func (s *Service) ApplyRoomCreated(ctx context.Context, payload payloads.RoomSnapshotEvent) (bool, error) {
	if payload.RoomID == 0 || payload.HouseID == 0 {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "room or house id missing in payload")
	}
	existing, err := s.repo.FindRoom(ctx, payload.RoomID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load replica room")
	}
	if existing != nil {
		s.logg.Warn(s.logg.WithRoomID(ctx, payload.RoomID), "duplicate room create skipped")
		return false, nil
	}
	parent, err := s.repo.FindHouse(ctx, payload.HouseID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load parent house")
	}
	if parent == nil {
		logCtx := s.logg.WithHouseID(s.logg.WithRoomID(ctx, payload.RoomID), payload.HouseID)
		s.logg.Warn(logCtx, "room create skipped: parent house not replicated")
		return false, nil
	}
	room := &models.ReplicaRoom{
		ID:        payload.RoomID,
		HouseID:   payload.HouseID,
		Name:      payload.Name,
		Type:      payload.Type,
		Area:      payload.Area,
		Placement: payload.Placement,
	}
	if err := s.repo.UpsertRoom(ctx, room); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert replica room")
	}
	return true, nil
}

// ApplyRoomUpdated overwrites the snapshot when both the room and its parent
// exist; otherwise the event is absorbed.
func (s *Service) ApplyRoomUpdated(ctx context.Context, payload payloads.RoomSnapshotEvent) (bool, error) {
	if payload.RoomID == 0 || payload.HouseID == 0 {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "room or house id missing in payload")
	}
	existing, err := s.repo.FindRoom(ctx, payload.RoomID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load replica room")
	}
	if existing == nil {
		s.logg.Warn(s.logg.WithRoomID(ctx, payload.RoomID), "update for absent room skipped")
		return false, nil
	}
	parent, err := s.repo.FindHouse(ctx, payload.HouseID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load parent house")
	}
	if parent == nil {
		s.logg.Warn(s.logg.WithHouseID(ctx, payload.HouseID), "room update skipped: parent house not replicated")
		return false, nil
	}
	room := &models.ReplicaRoom{
		ID:        payload.RoomID,
		HouseID:   payload.HouseID,
		Name:      payload.Name,
		Type:      payload.Type,
		Area:      payload.Area,
		Placement: payload.Placement,
	}
	if err := s.repo.UpsertRoom(ctx, room); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update replica room")
	}
	return true, nil
}

// ApplyRoomDeleted removes the room and its temperatures. Absent room is a
// no-op.
func (s *Service) ApplyRoomDeleted(ctx context.Context, payload payloads.RoomDeletedEvent) (bool, error) {
	if payload.RoomID == 0 {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "room id missing in payload")
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).DeleteRoomCascade(ctx, payload.RoomID)
	})
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cascade delete replica room")
	}
	return true, nil
}

// RecordTemperature appends a reading, gated on the room being replicated.
func (s *Service) RecordTemperature(ctx context.Context, payload payloads.TemperatureRecordedEvent) (bool, error) {
	if payload.RoomID == 0 {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "room id missing in payload")
	}
	room, err := s.repo.FindRoom(ctx, payload.RoomID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load replica room")
	}
	if room == nil {
		s.logg.Warn(s.logg.WithRoomID(ctx, payload.RoomID), "temperature skipped: room not replicated")
		return false, nil
	}
	temperature := &models.ReplicaTemperature{
		RoomID:     payload.RoomID,
		Value:      payload.Value,
		RecordedAt: payload.RecordedAt,
	}
	if err := s.repo.InsertTemperature(ctx, temperature); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert replica temperature")
	}
	return true, nil
}
