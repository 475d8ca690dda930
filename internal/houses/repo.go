package houses

import (
	"context"

	"gorm.io/gorm"

	"github.com/RobLun72/HouseProject-sub002/pkg/db/models"
	"github.com/RobLun72/HouseProject-sub002/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a houses repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, house *models.House) (*models.House, error) {
	if err := r.db.WithContext(ctx).Create(house).Error; err != nil {
		return nil, err
	}
	return house, nil
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.House{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.House{}).Error
}

func (r *repository) FindByID(ctx context.Context, id int64) (*models.House, error) {
	var house models.House
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&house).Error
	if err != nil {
		return nil, err
	}
	return &house, nil
}

func (r *repository) List(ctx context.Context, params pagination.Params) (*HouseList, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Model(&models.House{}).
		Order("created_at ASC, id ASC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) > (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.House
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	list := &HouseList{Houses: rows}
	if len(rows) > limit {
		list.Houses = rows[:limit]
		last := list.Houses[limit-1]
		next := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		list.NextCursor = &next
	}
	return list, nil
}
