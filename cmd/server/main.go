package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"meetsync/infrastructure/httpapi"
	"meetsync/infrastructure/ws"
	"meetsync/internal"
	"meetsync/observability"
	"meetsync/repositories"
	"meetsync/runtime"
	"meetsync/services"
)

// Exit codes to provide meaningful status to the operating system or
// service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function acts as a thin wrapper: it calls run() and
	// handles the OS exit code so all defers execute before exit.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()

	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	logger := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Storage: badger by default, redis when the deployment keeps
	// its documents there.
	var userRepository repositories.IUserRepository
	var meetingRepository repositories.IMeetingRepository

	switch config.StorageDriver {
	case internal.DriverRedis:
		client, err := repositories.NewRedisClient(config.RedisURL)
		if err != nil {
			return exitRuntime, fmt.Errorf("redis opening failed: %w", err)
		}
		defer func() {
			logger.Info("Closing redis...")
			_ = client.Close()
		}()
		userRepository = repositories.NewRedisUserRepository(client, config.AuthTokenDuration)
		meetingRepository = repositories.NewRedisMeetingRepository(client)

	default:
		options := badger.DefaultOptions(config.BadgerFilepath).
			WithLoggingLevel(badger.WARNING)
		db, err := badger.Open(options)
		if err != nil {
			return exitRuntime, fmt.Errorf("database opening failed: %w", err)
		}
		defer func() {
			// Ensures the database lock is released and buffers are
			// flushed before the process exits.
			logger.Info("Closing BadgerDB...")
			_ = db.Close()
		}()

		if logger.Enabled(ctx, slog.LevelDebug) {
			endpoint := "/inspect"
			logger.Info("Debug badger inspector available",
				"url", fmt.Sprintf("http://localhost:%d%s", config.DebugPort, endpoint))
			internal.StartDebugServer(db, config.DebugPort, endpoint, nil)
		}

		userRepository = repositories.NewUserRepository(db, config.AuthTokenDuration)
		meetingRepository = repositories.NewMeetingRepository(db)
	}

	// 3. Relay wiring
	monitor := observability.NewMonitor(logger, config.MetricInterval)
	go monitor.Run(ctx)

	registry := runtime.NewRegistry(logger)
	syncService := services.NewSyncService(logger, userRepository, meetingRepository, registry, monitor)
	accountService := services.NewAccountService(userRepository)
	meetingService := services.NewMeetingService(meetingRepository)

	syncHandler := ws.NewHandler(logger, syncService, monitor,
		config.ConnectionBufferSize, config.DeliveryTimeout)
	api := httpapi.NewServer(logger, accountService, meetingService, userRepository)

	// 4. HTTP server & graceful shutdown
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{
		Addr:    address,
		Handler: api.Routes(syncHandler),
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Relay listening", "address", address, "driver", config.StorageDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case err := <-errChan:
		return exitRuntime, err
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return exitRuntime, fmt.Errorf("shutdown error: %w", err)
	}
	return exitOK, nil
}
