package rooms

import (
	"github.com/RobLun72/HouseProject-sub002/pkg/db/models"
	"github.com/RobLun72/HouseProject-sub002/pkg/enums"
)

// CreateRoomInput captures the fields required to add a room to a house.
type CreateRoomInput struct {
	HouseID   int64
	Name      string
	Type      enums.RoomType
	Area      float64
	Placement string
}

// UpdateRoomInput carries partial updates; nil fields are left untouched.
type UpdateRoomInput struct {
	Name      *string
	Type      *enums.RoomType
	Area      *float64
	Placement *string
}

// RoomList is one page of rooms plus the cursor for the next page.
type RoomList struct {
	Rooms      []models.Room
	NextCursor *string
}
