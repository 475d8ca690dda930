package controllers

import (
	"context"
	"net/http"

	"github.com/RobLun72/HouseProject-sub002/api/responses"
	"github.com/RobLun72/HouseProject-sub002/pkg/config"
	"github.com/RobLun72/HouseProject-sub002/pkg/db"
	pkgerrors "github.com/RobLun72/HouseProject-sub002/pkg/errors"
	"github.com/RobLun72/HouseProject-sub002/pkg/logger"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-HouseSync-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when the database answers a ping.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-HouseSync-Env", cfg.App.Env)

		if dbP == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "database not wired"))
			return
		}
		if err := pingDependency(r.Context(), "database", dbP.Ping); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}

func pingDependency(ctx context.Context, name string, fn func(context.Context) error) error {
	if err := fn(ctx); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable").WithDetails(map[string]any{"dependency": name})
	}
	return nil
}
