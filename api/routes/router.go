package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/RobLun72/HouseProject-sub002/api/controllers"
	"github.com/RobLun72/HouseProject-sub002/api/middleware"
	"github.com/RobLun72/HouseProject-sub002/internal/houses"
	"github.com/RobLun72/HouseProject-sub002/internal/rooms"
	"github.com/RobLun72/HouseProject-sub002/pkg/config"
	"github.com/RobLun72/HouseProject-sub002/pkg/db"
	"github.com/RobLun72/HouseProject-sub002/pkg/logger"
)

// NewRouter wires the house/room CRUD surface. There is no auth layer; the
// API fronts an internal collaborator service.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	houseService houses.Service,
	roomService rooms.Service,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Get("/healthz", controllers.HealthReady(cfg, logg, dbP))
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP))
	})

	r.Route("/houses", func(r chi.Router) {
		r.Post("/", controllers.CreateHouse(houseService, logg))
		r.Get("/", controllers.ListHouses(houseService, logg))
		r.Route("/{houseId}", func(r chi.Router) {
			r.Get("/", controllers.GetHouse(houseService, logg))
			r.Put("/", controllers.UpdateHouse(houseService, logg))
			r.Delete("/", controllers.DeleteHouse(houseService, logg))
			r.Route("/rooms", func(r chi.Router) {
				r.Post("/", controllers.CreateRoom(roomService, logg))
				r.Get("/", controllers.ListHouseRooms(roomService, logg))
			})
		})
	})

	r.Route("/rooms/{roomId}", func(r chi.Router) {
		r.Get("/", controllers.GetRoom(roomService, logg))
		r.Put("/", controllers.UpdateRoom(roomService, logg))
		r.Delete("/", controllers.DeleteRoom(roomService, logg))
	})

	return r
}
