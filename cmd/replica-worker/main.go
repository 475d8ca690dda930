package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/RobLun72/HouseProject-sub002/internal/replica"
	"github.com/RobLun72/HouseProject-sub002/pkg/config"
	"github.com/RobLun72/HouseProject-sub002/pkg/db"
	"github.com/RobLun72/HouseProject-sub002/pkg/instance"
	"github.com/RobLun72/HouseProject-sub002/pkg/logger"
	"github.com/RobLun72/HouseProject-sub002/pkg/migrate"
	"github.com/RobLun72/HouseProject-sub002/pkg/outbox/idempotency"
	"github.com/RobLun72/HouseProject-sub002/pkg/pubsub"
	"github.com/RobLun72/HouseProject-sub002/pkg/redis"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "replica-worker"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	cfg.Service.Kind = "replica-worker"

	logg = logger.New(logger.Options{
		ServiceName: "replica-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "failed to close database", err)
		}
	}()

	requireResource(ctx, logg, "migrations", migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient))

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "failed to close redis client", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(ctx, "failed to close pubsub client", err)
		}
	}()

	domainSubscription := pubsubClient.DomainSubscription()
	if domainSubscription == nil {
		requireResource(ctx, logg, "domain subscription", errors.New("subscription not configured"))
	}
	telemetrySubscription := pubsubClient.TelemetrySubscription()
	if telemetrySubscription == nil {
		requireResource(ctx, logg, "telemetry subscription", errors.New("subscription not configured"))
	}

	manager, err := idempotency.NewManager(redisClient, cfg.Eventing.OutboxIdempotencyTTL)
	requireResource(ctx, logg, "idempotency manager", err)

	txRunner, err := db.NewTxRunner(dbClient.DB(), true, logg)
	requireResource(ctx, logg, "transaction runner", err)

	repo := replica.NewRepository(dbClient.DB())
	service, err := replica.NewService(repo, txRunner, logg)
	requireResource(ctx, logg, "replica service", err)

	domainConsumer, err := replica.NewConsumer(service, domainSubscription, manager, logg)
	requireResource(ctx, logg, "domain consumer", err)

	telemetryConsumer, err := replica.NewTelemetryConsumer(service, telemetrySubscription, manager, logg)
	requireResource(ctx, logg, "telemetry consumer", err)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.GetID(),
	})
	logg.Info(runCtx, "replica worker ready")

	group, groupCtx := errgroup.WithContext(runCtx)
	group.Go(func() error {
		return domainConsumer.Run(groupCtx)
	})
	group.Go(func() error {
		return telemetryConsumer.Run(groupCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "replica worker failed", err)
		os.Exit(1)
	}

	logg.Info(runCtx, "replica worker shutting down gracefully")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
