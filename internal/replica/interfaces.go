package replica

import (
	"context"

	"gorm.io/gorm"

	"github.com/RobLun72/HouseProject-sub002/pkg/db/models"
)

// Repository defines persistence operations for the replica tables. Replica
// rows carry upstream ids; nothing here generates identity.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	UpsertHouse(ctx context.Context, house *models.ReplicaHouse) error
	FindHouse(ctx context.Context, id int64) (*models.ReplicaHouse, error)
	DeleteHouseCascade(ctx context.Context, id int64) error
	UpsertRoom(ctx context.Context, room *models.ReplicaRoom) error
	FindRoom(ctx context.Context, id int64) (*models.ReplicaRoom, error)
	DeleteRoomCascade(ctx context.Context, id int64) error
	InsertTemperature(ctx context.Context, temperature *models.ReplicaTemperature) error
}
