package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/quickdl-go/api"
	"github.com/yourusername/quickdl-go/api/handlers"
	"github.com/yourusername/quickdl-go/internal/app"
	"github.com/yourusername/quickdl-go/internal/infrastructure"
	"github.com/yourusername/quickdl-go/pkg/logger"
	"go.uber.org/zap"
)

var configPath = flag.String("config", "", "Path to config file")

func main() {
	flag.Parse()

	config, err := app.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Category logs: workflow and error
	var multiLog *logger.MultiLogger
	if config.Logging.LogsDir != "" {
		multiLog, err = logger.NewMultiLogger(log, logger.MultiLoggerConfig{
			Level:   config.Logging.Level,
			LogsDir: config.Logging.LogsDir,
		})
		if err != nil {
			log.Warn("Category logs disabled", zap.Error(err))
		} else {
			defer multiLog.Close()
		}
	}

	log.Info("Starting quickdl gateway",
		zap.String("version", handlers.Version),
		zap.String("host", config.Server.Host),
		zap.Int("port", config.Server.Port),
		zap.String("service", config.Service.BaseURL))

	client := infrastructure.NewServiceClient(config.Service, config.Ratings.AverageScale, log)

	deps := app.ModuleDeps{
		Service:     client,
		Ratings:     client,
		AutoDismiss: config.Notification.AutoDismiss,
		Logger:      log,
	}

	if config.Download.KeepHistory {
		store, err := infrastructure.NewSQLiteStore(config.Identity.DatabasePath)
		if err != nil {
			log.Fatal("Failed to open history store", zap.Error(err))
		}
		defer store.Close()
		deps.History = store
	}

	registry := app.NewRegistry(config, deps, app.RegistryConfig{
		IdleTimeout:   config.Server.SessionIdle,
		SweepInterval: config.Server.SweepInterval,
	}, multiLog)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := registry.Start(ctx); err != nil {
		log.Fatal("Failed to start session registry", zap.Error(err))
	}

	if config.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.SetupRouter(config, registry, client, log)

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := registry.Stop(); err != nil {
		log.Error("Error stopping session registry", zap.Error(err))
	}

	log.Info("Server exited")
}
