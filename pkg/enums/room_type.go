package enums

import "fmt"

// RoomType classifies rooms in a house.
type RoomType string

const (
	RoomTypeLiving   RoomType = "living"
	RoomTypeKitchen  RoomType = "kitchen"
	RoomTypeBedroom  RoomType = "bedroom"
	RoomTypeBathroom RoomType = "bathroom"
	RoomTypeOffice   RoomType = "office"
	RoomTypeStorage  RoomType = "storage"
)

var validRoomTypes = []RoomType{
	RoomTypeLiving,
	RoomTypeKitchen,
	RoomTypeBedroom,
	RoomTypeBathroom,
	RoomTypeOffice,
	RoomTypeStorage,
}

func (r RoomType) IsValid() bool {
	for _, candidate := range validRoomTypes {
		if candidate == r {
			return true
		}
	}
	return false
}

func ParseRoomType(value string) (RoomType, error) {
	for _, candidate := range validRoomTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid room type %q", value)
}
