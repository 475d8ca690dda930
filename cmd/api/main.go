package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/RobLun72/HouseProject-sub002/api/routes"
	"github.com/RobLun72/HouseProject-sub002/internal/houses"
	"github.com/RobLun72/HouseProject-sub002/internal/rooms"
	"github.com/RobLun72/HouseProject-sub002/pkg/config"
	"github.com/RobLun72/HouseProject-sub002/pkg/db"
	"github.com/RobLun72/HouseProject-sub002/pkg/logger"
	"github.com/RobLun72/HouseProject-sub002/pkg/migrate"
	"github.com/RobLun72/HouseProject-sub002/pkg/outbox"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	txRunner, err := db.NewTxRunner(dbClient.DB(), true, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create transaction runner", err)
		os.Exit(1)
	}

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	houseRepo := houses.NewRepository(dbClient.DB())
	houseService, err := houses.NewService(houseRepo, txRunner, outboxService)
	if err != nil {
		logg.Error(context.Background(), "failed to create house service", err)
		os.Exit(1)
	}

	roomService, err := rooms.NewService(rooms.NewRepository(dbClient.DB()), houseRepo, txRunner, outboxService)
	if err != nil {
		logg.Error(context.Background(), "failed to create room service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, houseService, roomService),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
