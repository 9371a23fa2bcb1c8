package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mansoorceksport/ironlog/internal/config"
	"github.com/mansoorceksport/ironlog/internal/domain"
	"github.com/mansoorceksport/ironlog/internal/repository"
	"github.com/mansoorceksport/ironlog/internal/repository/memstore"
	"github.com/mansoorceksport/ironlog/internal/server"
	"github.com/mansoorceksport/ironlog/internal/telemetry"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
	"go.opentelemetry.io/otel"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Log.Level})))
	slog.Info("starting ironlog api", "version", cfg.Telemetry.ServiceVersion, "store", cfg.Store.Driver)

	ctx := context.Background()

	otelProvider, err := telemetry.Initialize(ctx, telemetry.Config{
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: cfg.Telemetry.ServiceVersion,
		Environment:    cfg.Telemetry.Environment,
		InstanceID:     cfg.Telemetry.InstanceID,
		OTLPEndpoint:   cfg.Telemetry.Endpoint,
		OTLPHeaders:    cfg.Telemetry.OTLPHeaders(),
		Enabled:        cfg.Telemetry.Enabled,
	})
	if err != nil {
		slog.Warn("failed to initialize opentelemetry, continuing without export", "error", err)
		otelProvider, err = telemetry.NewProvider(otel.GetTracerProvider(), otel.GetMeterProvider())
		if err != nil {
			slog.Warn("failed to register metrics", "error", err)
		}
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelProvider.Shutdown(shutdownCtx); err != nil {
			slog.Warn("opentelemetry shutdown failed", "error", err)
		}
	}()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.Error("failed to connect to redis", "addr", cfg.Redis.Addr, "error", err)
		os.Exit(1)
	}
	slog.Info("redis connected", "addr", cfg.Redis.Addr)

	app := server.NewApp(server.AppDependencies{
		Config:      cfg,
		Store:       store,
		RedisClient: redisClient,
		Telemetry:   otelProvider,
	})

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		slog.Info("shutting down gracefully")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			slog.Error("shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "port", cfg.Server.Port)
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		slog.Error("failed to start server", "error", err)
	}
}

// openStore returns the record store selected by STORE_DRIVER and a func that
// releases it.
func openStore(ctx context.Context, cfg *config.Config) (*domain.Store, func(), error) {
	if cfg.Store.Driver == config.StoreDriverMemory {
		slog.Warn("using in-memory store, data is lost on restart")
		return memstore.New().Domain(), func() {}, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	mongoOpts := options.Client().ApplyURI(cfg.MongoDB.URI)
	if cfg.Telemetry.Enabled {
		mongoOpts.SetMonitor(otelmongo.NewMonitor())
	}

	client, err := mongo.Connect(connectCtx, mongoOpts)
	if err != nil {
		return nil, nil, err
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}
	slog.Info("mongodb connected", "database", cfg.MongoDB.Database)

	closeFn := func() {
		if err := client.Disconnect(context.Background()); err != nil {
			slog.Error("error disconnecting from mongodb", "error", err)
		}
	}
	return repository.NewMongoStore(client, client.Database(cfg.MongoDB.Database)), closeFn, nil
}
