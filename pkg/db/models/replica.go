package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/RobLun72/HouseProject-sub002/pkg/enums"
)

// Replica rows mirror the owning service's entities and are written only by
// consumers. IDs are the upstream ids, never generated locally.

type ReplicaHouse struct {
	ID       int64     `gorm:"column:id;primaryKey"`
	Name     string    `gorm:"column:name;not null"`
	Address  string    `gorm:"column:address;not null"`
	Area     float64   `gorm:"column:area;not null"`
	SyncedAt time.Time `gorm:"column:synced_at;autoUpdateTime"`
}

func (ReplicaHouse) TableName() string { return "replica_houses" }

type ReplicaRoom struct {
	ID        int64          `gorm:"column:id;primaryKey"`
	HouseID   int64          `gorm:"column:house_id;not null;index"`
	Name      string         `gorm:"column:name;not null"`
	Type      enums.RoomType `gorm:"column:type;not null"`
	Area      float64        `gorm:"column:area;not null"`
	Placement string         `gorm:"column:placement"`
	SyncedAt  time.Time      `gorm:"column:synced_at;autoUpdateTime"`
}

func (ReplicaRoom) TableName() string { return "replica_rooms" }

type ReplicaTemperature struct {
	ID         int64           `gorm:"column:id;primaryKey;autoIncrement"`
	RoomID     int64           `gorm:"column:room_id;not null;index"`
	Value      decimal.Decimal `gorm:"column:value;type:numeric(5,2);not null"`
	RecordedAt time.Time       `gorm:"column:recorded_at;not null"`
}

func (ReplicaTemperature) TableName() string { return "replica_temperatures" }
