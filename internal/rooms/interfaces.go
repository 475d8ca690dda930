package rooms

import (
	"context"

	"gorm.io/gorm"

	"github.com/RobLun72/HouseProject-sub002/pkg/db/models"
	"github.com/RobLun72/HouseProject-sub002/pkg/pagination"
)

// Repository defines persistence operations for the rooms table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, room *models.Room) (*models.Room, error)
	Update(ctx context.Context, id int64, updates map[string]any) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*models.Room, error)
	ListByHouse(ctx context.Context, houseID int64, params pagination.Params) (*RoomList, error)
}
