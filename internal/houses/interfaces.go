package houses

import (
	"context"

	"gorm.io/gorm"

	"github.com/RobLun72/HouseProject-sub002/pkg/db/models"
	"github.com/RobLun72/HouseProject-sub002/pkg/pagination"
)

// Repository defines persistence operations for the houses table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, house *models.House) (*models.House, error)
	Update(ctx context.Context, id int64, updates map[string]any) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*models.House, error)
	List(ctx context.Context, params pagination.Params) (*HouseList, error)
}
