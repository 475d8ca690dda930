package rooms

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/RobLun72/HouseProject-sub002/internal/houses"
	"github.com/RobLun72/HouseProject-sub002/pkg/db/models"
	"github.com/RobLun72/HouseProject-sub002/pkg/enums"
	pkgerrors "github.com/RobLun72/HouseProject-sub002/pkg/errors"
	"github.com/RobLun72/HouseProject-sub002/pkg/outbox"
	"github.com/RobLun72/HouseProject-sub002/pkg/outbox/payloads"
	"github.com/RobLun72/HouseProject-sub002/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines room-level operations. A room mutation always validates the
// parent house inside the same transaction that emits the event.
type Service interface {
	Create(ctx context.Context, input CreateRoomInput) (*models.Room, error)
	Update(ctx context.Context, id int64, input UpdateRoomInput) (*models.Room, error)
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*models.Room, error)
	ListByHouse(ctx context.Context, houseID int64, params pagination.Params) (*RoomList, error)
}

type service struct {
	repo      Repository
	houseRepo houses.Repository
	tx        txRunner
	outbox    outboxPublisher
}

// NewService builds a room service with the required dependencies.
func NewService(repo Repository, houseRepo houses.Repository, tx txRunner, outbox outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("rooms repository required")
	}
	if houseRepo == nil {
		return nil, fmt.Errorf("houses repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, houseRepo: houseRepo, tx: tx, outbox: outbox}, nil
}

func (s *service) Create(ctx context.Context, input CreateRoomInput) (*models.Room, error) {
	if input.HouseID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "house id required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "room name required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid room type")
	}
	if input.Area <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "room area must be positive")
	}

	room := &models.Room{
		HouseID:   input.HouseID,
		Name:      input.Name,
		Type:      input.Type,
		Area:      input.Area,
		Placement: input.Placement,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.houseRepo.WithTx(tx).FindByID(ctx, input.HouseID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "house not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load house")
		}
		created, err := s.repo.WithTx(tx).Create(ctx, room)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create room")
		}
		room = created
		return s.outbox.Emit(ctx, tx, snapshotEvent(enums.EventRoomCreated, room))
	})
	if err != nil {
		return nil, err
	}
	return room, nil
}

func (s *service) Update(ctx context.Context, id int64, input UpdateRoomInput) (*models.Room, error) {
	if id == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "room id required")
	}

	updates := map[string]any{}
	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "room name cannot be empty")
		}
		updates["name"] = *input.Name
	}
	if input.Type != nil {
		if !input.Type.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid room type")
		}
		updates["type"] = *input.Type
	}
	if input.Area != nil {
		if *input.Area <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "room area must be positive")
		}
		updates["area"] = *input.Area
	}
	if input.Placement != nil {
		updates["placement"] = *input.Placement
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	var room *models.Room
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindByID(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "room not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load room")
		}
		if err := repo.Update(ctx, id, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update room")
		}
		reloaded, err := repo.FindByID(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload room")
		}
		room = reloaded
		return s.outbox.Emit(ctx, tx, snapshotEvent(enums.EventRoomUpdated, room))
	})
	if err != nil {
		return nil, err
	}
	return room, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	if id == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "room id required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		room, err := repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "room not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load room")
		}
		if err := repo.Delete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete room")
		}
		return s.outbox.Emit(ctx, tx, deletedEvent(room))
	})
}

func (s *service) Get(ctx context.Context, id int64) (*models.Room, error) {
	if id == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "room id required")
	}
	room, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "room not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load room")
	}
	return room, nil
}

func (s *service) ListByHouse(ctx context.Context, houseID int64, params pagination.Params) (*RoomList, error) {
	if houseID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "house id required")
	}
	list, err := s.repo.ListByHouse(ctx, houseID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list rooms")
	}
	return list, nil
}

func snapshotEvent(eventType enums.OutboxEventType, room *models.Room) outbox.DomainEvent {
	now := time.Now().UTC()
	return outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateRoom,
		AggregateID:   room.ID,
		Version:       1,
		OccurredAt:    now,
		Data: payloads.RoomSnapshotEvent{
			RoomID:    room.ID,
			HouseID:   room.HouseID,
			Name:      room.Name,
			Type:      room.Type,
			Area:      room.Area,
			Placement: room.Placement,
			EventTime: now,
		},
	}
}

func deletedEvent(room *models.Room) outbox.DomainEvent {
	now := time.Now().UTC()
	return outbox.DomainEvent{
		EventType:     enums.EventRoomDeleted,
		AggregateType: enums.AggregateRoom,
		AggregateID:   room.ID,
		Version:       1,
		OccurredAt:    now,
		Data: payloads.RoomDeletedEvent{
			RoomID:    room.ID,
			HouseID:   room.HouseID,
			EventTime: now,
		},
	}
}
