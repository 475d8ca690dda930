package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/RobLun72/HouseProject-sub002/api/responses"
	"github.com/RobLun72/HouseProject-sub002/api/validators"
	"github.com/RobLun72/HouseProject-sub002/internal/houses"
	"github.com/RobLun72/HouseProject-sub002/pkg/db/models"
	pkgerrors "github.com/RobLun72/HouseProject-sub002/pkg/errors"
	"github.com/RobLun72/HouseProject-sub002/pkg/logger"
	"github.com/RobLun72/HouseProject-sub002/pkg/pagination"
)

type createHouseRequest struct {
	Name    string  `json:"name" validate:"required,min=1"`
	Address string  `json:"address" validate:"required,min=1"`
	Area    float64 `json:"area" validate:"required,gt=0"`
}

type updateHouseRequest struct {
	Name    *string  `json:"name,omitempty" validate:"omitempty,min=1"`
	Address *string  `json:"address,omitempty" validate:"omitempty,min=1"`
	Area    *float64 `json:"area,omitempty" validate:"omitempty,gt=0"`
}

type houseResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Area      float64   `json:"area"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type houseListResponse struct {
	Houses     []houseResponse `json:"houses"`
	NextCursor *string         `json:"next_cursor,omitempty"`
}

func toHouseResponse(house *models.House) houseResponse {
	return houseResponse{
		ID:        house.ID,
		Name:      house.Name,
		Address:   house.Address,
		Area:      house.Area,
		CreatedAt: house.CreatedAt,
		UpdatedAt: house.UpdatedAt,
	}
}

// CreateHouse registers a house; the row and its outbox event commit together.
func CreateHouse(svc houses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "house service unavailable"))
			return
		}

		var payload createHouseRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		house, err := svc.Create(r.Context(), houses.CreateHouseInput{
			Name:    payload.Name,
			Address: payload.Address,
			Area:    payload.Area,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, toHouseResponse(house))
	}
}

func GetHouse(svc houses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "house service unavailable"))
			return
		}

		id, err := pathID(r, "houseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		house, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, toHouseResponse(house))
	}
}

func ListHouses(svc houses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "house service unavailable"))
			return
		}

		list, err := svc.List(r.Context(), listParams(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payload := houseListResponse{
			Houses:     make([]houseResponse, 0, len(list.Houses)),
			NextCursor: list.NextCursor,
		}
		for i := range list.Houses {
			payload.Houses = append(payload.Houses, toHouseResponse(&list.Houses[i]))
		}

		responses.WriteSuccess(w, payload)
	}
}

func UpdateHouse(svc houses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "house service unavailable"))
			return
		}

		id, err := pathID(r, "houseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateHouseRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		house, err := svc.Update(r.Context(), id, houses.UpdateHouseInput{
			Name:    payload.Name,
			Address: payload.Address,
			Area:    payload.Area,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, toHouseResponse(house))
	}
}

func DeleteHouse(svc houses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "house service unavailable"))
			return
		}

		id, err := pathID(r, "houseId")
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

func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid "+name)
	}
	return id, nil
}

func listParams(r *http.Request) pagination.Params {
	params := pagination.Params{Cursor: r.URL.Query().Get("cursor")}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			params.Limit = limit
		}
	}
	return params
}
