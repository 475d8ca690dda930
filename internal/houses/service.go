package houses

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

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

// Service defines house-level operations. Every mutation pairs the row change
// with its outbox event inside one transaction.
type Service interface {
	Create(ctx context.Context, input CreateHouseInput) (*models.House, error)
	Update(ctx context.Context, id int64, input UpdateHouseInput) (*models.House, error)
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*models.House, error)
	List(ctx context.Context, params pagination.Params) (*HouseList, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
}

// NewService builds a house service with the required dependencies.
func NewService(repo Repository, tx txRunner, outbox outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("houses repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: outbox}, nil
}

func (s *service) Create(ctx context.Context, input CreateHouseInput) (*models.House, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "house name required")
	}
	if strings.TrimSpace(input.Address) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "house address required")
	}
	if input.Area <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "house area must be positive")
	}

	house := &models.House{
		Name:    input.Name,
		Address: input.Address,
		Area:    input.Area,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		created, err := repo.Create(ctx, house)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create house")
		}
		house = created
		return s.outbox.Emit(ctx, tx, snapshotEvent(enums.EventHouseCreated, house))
	})
	if err != nil {
		return nil, err
	}
	return house, nil
}

func (s *service) Update(ctx context.Context, id int64, input UpdateHouseInput) (*models.House, error) {
	if id == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "house id required")
	}

	updates := map[string]any{}
	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "house name cannot be empty")
		}
		updates["name"] = *input.Name
	}
	if input.Address != nil {
		if strings.TrimSpace(*input.Address) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "house address cannot be empty")
		}
		updates["address"] = *input.Address
	}
	if input.Area != nil {
		if *input.Area <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "house area must be positive")
		}
		updates["area"] = *input.Area
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	var house *models.House
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindByID(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "house not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load house")
		}
		if err := repo.Update(ctx, id, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update house")
		}
		reloaded, err := repo.FindByID(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload house")
		}
		house = reloaded
		return s.outbox.Emit(ctx, tx, snapshotEvent(enums.EventHouseUpdated, house))
	})
	if err != nil {
		return nil, err
	}
	return house, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	if id == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "house id required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindByID(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "house not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load house")
		}
		// Rooms go with the house via FK cascade; downstream replicas cascade
		// on the house_deleted event alone.
		if err := repo.Delete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete house")
		}
		return s.outbox.Emit(ctx, tx, deletedEvent(id))
	})
}

func (s *service) Get(ctx context.Context, id int64) (*models.House, error) {
	if id == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "house id required")
	}
	house, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "house not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load house")
	}
	return house, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (*HouseList, error) {
	list, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list houses")
	}
	return list, nil
}

func snapshotEvent(eventType enums.OutboxEventType, house *models.House) outbox.DomainEvent {
	now := time.Now().UTC()
	return outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateHouse,
		AggregateID:   house.ID,
		Version:       1,
		OccurredAt:    now,
		Data: payloads.HouseSnapshotEvent{
			HouseID:   house.ID,
			Name:      house.Name,
			Address:   house.Address,
			Area:      house.Area,
			EventTime: now,
		},
	}
}

func deletedEvent(id int64) outbox.DomainEvent {
	now := time.Now().UTC()
	return outbox.DomainEvent{
		EventType:     enums.EventHouseDeleted,
		AggregateType: enums.AggregateHouse,
		AggregateID:   id,
		Version:       1,
		OccurredAt:    now,
		Data: payloads.HouseDeletedEvent{
			HouseID:   id,
			EventTime: now,
		},
	}
}
