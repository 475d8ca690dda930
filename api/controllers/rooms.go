package controllers

import (
	"net/http"
	"time"

	"github.com/RobLun72/HouseProject-sub002/api/responses"
	"github.com/RobLun72/HouseProject-sub002/api/validators"
	"github.com/RobLun72/HouseProject-sub002/internal/rooms"
	"github.com/RobLun72/HouseProject-sub002/pkg/db/models"
	"github.com/RobLun72/HouseProject-sub002/pkg/enums"
	pkgerrors "github.com/RobLun72/HouseProject-sub002/pkg/errors"
	"github.com/RobLun72/HouseProject-sub002/pkg/logger"
)

type createRoomRequest struct {
	Name      string  `json:"name" validate:"required,min=1"`
	Type      string  `json:"type" validate:"required"`
	Area      float64 `json:"area" validate:"required,gt=0"`
	Placement string  `json:"placement,omitempty"`
}

type updateRoomRequest struct {
	Name      *string  `json:"name,omitempty" validate:"omitempty,min=1"`
	Type      *string  `json:"type,omitempty" validate:"omitempty,min=1"`
	Area      *float64 `json:"area,omitempty" validate:"omitempty,gt=0"`
	Placement *string  `json:"placement,omitempty"`
}

type roomResponse struct {
	ID        int64     `json:"id"`
	HouseID   int64     `json:"house_id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Area      float64   `json:"area"`
	Placement string    `json:"placement,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type roomListResponse struct {
	Rooms      []roomResponse `json:"rooms"`
	NextCursor *string        `json:"next_cursor,omitempty"`
}

func toRoomResponse(room *models.Room) roomResponse {
	return roomResponse{
		ID:        room.ID,
		HouseID:   room.HouseID,
		Name:      room.Name,
		Type:      string(room.Type),
		Area:      room.Area,
		Placement: room.Placement,
		CreatedAt: room.CreatedAt,
		UpdatedAt: room.UpdatedAt,
	}
}

// CreateRoom adds a room to the house in the path; the parent is validated
// inside the same transaction that emits the event.
func CreateRoom(svc rooms.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "room service unavailable"))
			return
		}

		houseID, err := pathID(r, "houseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createRoomRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		roomType, err := enums.ParseRoomType(payload.Type)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid room type"))
			return
		}

		room, err := svc.Create(r.Context(), rooms.CreateRoomInput{
			HouseID:   houseID,
			Name:      payload.Name,
			Type:      roomType,
			Area:      payload.Area,
			Placement: payload.Placement,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, toRoomResponse(room))
	}
}

func ListHouseRooms(svc rooms.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "room service unavailable"))
			return
		}

		houseID, err := pathID(r, "houseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListByHouse(r.Context(), houseID, listParams(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payload := roomListResponse{
			Rooms:      make([]roomResponse, 0, len(list.Rooms)),
			NextCursor: list.NextCursor,
		}
		for i := range list.Rooms {
			payload.Rooms = append(payload.Rooms, toRoomResponse(&list.Rooms[i]))
		}

		responses.WriteSuccess(w, payload)
	}
}

func GetRoom(svc rooms.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "room service unavailable"))
			return
		}

		id, err := pathID(r, "roomId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		room, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, toRoomResponse(room))
	}
}

func UpdateRoom(svc rooms.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "room service unavailable"))
			return
		}

		id, err := pathID(r, "roomId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateRoomRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := rooms.UpdateRoomInput{
			Name:      payload.Name,
			Area:      payload.Area,
			Placement: payload.Placement,
		}
		if payload.Type != nil {
			roomType, err := enums.ParseRoomType(*payload.Type)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid room type"))
				return
			}
			input.Type = &roomType
		}

		room, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, toRoomResponse(room))
	}
}

func DeleteRoom(svc rooms.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "room service unavailable"))
			return
		}

		id, err := pathID(r, "roomId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}
