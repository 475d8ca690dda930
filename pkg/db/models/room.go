package models

import (
	"time"

	"github.com/RobLun72/HouseProject-sub002/pkg/enums"
)

// Room belongs to a house; deleting the house cascades at the store level.
type Room struct {
	ID        int64          `gorm:"column:id;primaryKey;autoIncrement"`
	HouseID   int64          `gorm:"column:house_id;not null;index"`
	Name      string         `gorm:"column:name;not null"`
	Type      enums.RoomType `gorm:"column:type;not null"`
	Area      float64        `gorm:"column:area;not null"`
	Placement string         `gorm:"column:placement"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
