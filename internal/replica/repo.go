package replica

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/RobLun72/HouseProject-sub002/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a replica repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) UpsertHouse(ctx context.Context, house *models.ReplicaHouse) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(house).Error
}

func (r *repository) FindHouse(ctx context.Context, id int64) (*models.ReplicaHouse, error) {
	var house models.ReplicaHouse
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&house).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &house, nil
}

// DeleteHouseCascade removes the house and everything under it. The replica
// store cannot lean on the owner's cascade semantics, so children go first.
func (r *repository) DeleteHouseCascade(ctx context.Context, id int64) error {
	var roomIDs []int64
	err := r.db.WithContext(ctx).
		Model(&models.ReplicaRoom{}).
		Where("house_id = ?", id).
		Pluck("id", &roomIDs).Error
	if err != nil {
		return err
	}

	if len(roomIDs) > 0 {
		if err := r.db.WithContext(ctx).
			Where("room_id IN ?", roomIDs).
			Delete(&models.ReplicaTemperature{}).Error; err != nil {
			return err
		}
		if err := r.db.WithContext(ctx).
			Where("id IN ?", roomIDs).
			Delete(&models.ReplicaRoom{}).Error; err != nil {
			return err
		}
	}

	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.ReplicaHouse{}).Error
}

func (r *repository) UpsertRoom(ctx context.Context, room *models.ReplicaRoom) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(room).Error
}

func (r *repository) FindRoom(ctx context.Context, id int64) (*models.ReplicaRoom, error) {
	var room models.ReplicaRoom
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&room).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &room, nil
}

func (r *repository) DeleteRoomCascade(ctx context.Context, id int64) error {
	if err := r.db.WithContext(ctx).
		Where("room_id = ?", id).
		Delete(&models.ReplicaTemperature{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.ReplicaRoom{}).Error
}

func (r *repository) InsertTemperature(ctx context.Context, temperature *models.ReplicaTemperature) error {
	return r.db.WithContext(ctx).Create(temperature).Error
}
