package houses

import "github.com/RobLun72/HouseProject-sub002/pkg/db/models"

// CreateHouseInput captures the fields required to register a house.
type CreateHouseInput struct {
	Name    string
	Address string
	Area    float64
}

// UpdateHouseInput carries partial updates; nil fields are left untouched.
type UpdateHouseInput struct {
	Name    *string
	Address *string
	Area    *float64
}

// HouseList is one page of houses plus the cursor for the next page.
type HouseList struct {
	Houses     []models.House
	NextCursor *string
}
