// Package main is the entry point for the user service.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "github.com/GunarsK-portfolio/user-service/docs"
	"github.com/GunarsK-portfolio/user-service/internal/config"
	"github.com/GunarsK-portfolio/user-service/internal/database"
	"github.com/GunarsK-portfolio/user-service/internal/handlers"
	"github.com/GunarsK-portfolio/user-service/internal/metrics"
	"github.com/GunarsK-portfolio/user-service/internal/registry"
	"github.com/GunarsK-portfolio/user-service/internal/repository"
	"github.com/GunarsK-portfolio/user-service/internal/routes"
	"github.com/GunarsK-portfolio/user-service/internal/service"
	"github.com/GunarsK-portfolio/user-service/pkg/logger"
	"github.com/GunarsK-portfolio/user-service/pkg/redis"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// @title User Service API
// @version 1.0
// @description User accounts, credentials and notification preferences
// @host localhost:8084
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Development: cfg.LogDev})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	if err := run(cfg, log); err != nil {
		log.Fatal("user service stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Initialize storage
	userRepo, sqlDB, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	if sqlDB != nil {
		defer func() { _ = sqlDB.Close() }()
		if err := m.RegisterDBStats(sqlDB, cfg.DBName); err != nil {
			return fmt.Errorf("failed to register database metrics: %w", err)
		}
	}

	fullChecks := []handlers.HealthCheck{
		{Name: "database", Probe: userRepo.Ping},
		handlers.MemoryHeapCheck(cfg.HealthMaxHeapMB << 20),
		handlers.MemoryRSSCheck(cfg.HealthMaxRSSMB << 20),
		handlers.DiskStorageCheck(cfg.HealthDiskPath, cfg.HealthDiskThreshold),
	}
	readyChecks := []handlers.HealthCheck{{Name: "database", Probe: userRepo.Ping}}

	// Initialize Redis and the service registry
	var reg *registry.Registry
	if cfg.RegistryEnabled {
		redisClient, err := redis.NewClient(ctx, redis.Options{
			Addr:     cfg.RedisAddr(),
			Password: cfg.RedisPassword,
			TLS:      cfg.RedisPassword != "",
		})
		if err != nil {
			return err
		}
		defer func() { _ = redisClient.Close() }()

		reg = registry.New(redisClient, cfg.RegistryTTL, log.Named("registry"))
		fullChecks = append(fullChecks, handlers.HealthCheck{
			Name:  "redis",
			Probe: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
	}

	// Initialize services
	hasher, err := service.NewBcryptHasher(cfg.BcryptCost)
	if err != nil {
		return err
	}
	jwtService, err := service.NewJWTService(cfg.JWTSecret, cfg.JWTExpiry)
	if err != nil {
		return err
	}
	authService, err := service.NewAuthService(userRepo, hasher, jwtService, cfg.EmailCaseSensitive)
	if err != nil {
		return err
	}
	userService := service.NewUserService(userRepo, cfg.EmailCaseSensitive)

	// Setup router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	routes.Setup(router, routes.Handlers{
		Auth:   handlers.NewAuthHandler(authService, m),
		Users:  handlers.NewUserHandler(userService),
		Health: handlers.NewHealthHandler(fullChecks, readyChecks, 3*time.Second),
	}, authService, cfg, m, log)

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           router,
		ReadTimeout:       cfg.HTTPReadTimeout,
		ReadHeaderTimeout: cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting user service", zap.String("addr", srv.Addr), zap.String("environment", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var lease *registry.Lease
	if reg != nil {
		port, err := strconv.Atoi(cfg.Port)
		if err != nil {
			return fmt.Errorf("invalid port %q: %w", cfg.Port, err)
		}
		inst := &registry.Instance{Name: cfg.ServiceName, ID: cfg.ServiceID, Address: cfg.ServiceHost, Port: port}
		if lease, err = reg.Acquire(ctx, inst); err != nil {
			return err
		}
	}

	var runErr error
	select {
	case err := <-serveErr:
		if err != nil {
			runErr = fmt.Errorf("http server failed: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if lease != nil {
		if err := lease.Release(shutdownCtx); err != nil {
			log.Warn("failed to deregister", zap.Error(err))
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	log.Info("user service stopped")
	return runErr
}

// openStore returns the repository selected by STORAGE_DRIVER, migrating
// the schema first when it is Postgres. The returned *sql.DB is nil for the
// in-memory store.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (repository.UserRepository, *sql.DB, error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		log.Warn("using in-memory storage, data is lost on restart")
		return repository.NewMemoryUserRepository(), nil, nil
	}

	db, err := database.Connect(database.PostgresConfig{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
		TimeZone: "UTC",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	if err := database.Migrate(ctx, db); err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("database ready", zap.String("host", cfg.DBHost), zap.String("database", cfg.DBName))

	return repository.NewUserRepository(db), sqlDB, nil
}
