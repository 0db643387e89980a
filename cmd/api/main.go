package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"asset-inventory-api/internal/app"
	"asset-inventory-api/internal/audit"
	"asset-inventory-api/internal/config"
	"asset-inventory-api/internal/database"
	"asset-inventory-api/internal/handler"
	"asset-inventory-api/internal/idalloc"
	"asset-inventory-api/internal/middleware"
	"asset-inventory-api/internal/model"
	"asset-inventory-api/internal/repository"
	"asset-inventory-api/internal/router"
	"asset-inventory-api/internal/service"
	"asset-inventory-api/internal/telemetry"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger := app.NewLogger(cfg.LogLevel)

	shutdownTracing := telemetry.Setup(telemetry.Config{
		ServiceName: cfg.Telemetry.ServiceName,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Insecure:    cfg.Telemetry.OTLPInsecure,
	}, logger)

	// Initialize database
	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(context.Background(), db, logger); err != nil {
			logger.Fatalf("Failed to run migrations: %v", err)
		}
	}

	// Audit trail: synchronous by default, or through a buffered worker
	historyRepo := repository.NewHistoryRepository(db)
	var writer audit.Writer = audit.NewStoreWriter(historyRepo)

	workerCtx, stopWorker := context.WithCancel(context.Background())
	workerDone := make(chan struct{})
	if cfg.Audit.Async {
		worker := audit.NewWorker(writer, logger, cfg.Audit.QueueSize)
		writer = worker
		go func() {
			defer close(workerDone)
			worker.Run(workerCtx)
		}()
		logger.WithField("queue_size", cfg.Audit.QueueSize).Info("audit trail written asynchronously")
	} else {
		close(workerDone)
	}
	recorder := audit.NewRecorder(writer, logger)

	// Services
	notifier := app.NewNotifier(cfg.NotificationService, logger)
	notifications := app.NewNotificationService(cfg.NotificationService, db, notifier, logger)

	inventory := service.NewInventoryService(service.InventoryRepositories{
		Computers:       repository.NewComputerRepository(db),
		Printers:        repository.NewPrinterRepository(db),
		Monitors:        repository.NewPeripheralRepository(db, model.AssetTypeMonitor),
		DockingStations: repository.NewPeripheralRepository(db, model.AssetTypeDockingStation),
		History:         historyRepo,
		Reports:         repository.NewReportRepository(db),
	}, idalloc.New(repository.NewAssetIDRepository(db)), recorder, logger)

	assignments := service.NewAssignmentService(
		repository.NewAssignmentRepository(db),
		inventory,
		recorder,
		notifications,
		cfg.NotificationService.AssignmentNotifyWait,
		logger,
	)

	// Handlers
	inventoryHandler := handler.NewInventoryHandler(inventory, logger)
	inventoryHandler.Checks["database"] = db.PingContext
	if cfg.NotificationService.URL != "" {
		inventoryHandler.Checks["notifier"] = func(ctx context.Context) error {
			if !notifier.IsHealthy(ctx) {
				return errors.New("mail relay unreachable")
			}
			return nil
		}
	}
	assignmentHandler := handler.NewAssignmentHandler(assignments, logger)
	settingsHandler := handler.NewSettingsHandler(notifications, logger)

	// Setup router with security configuration
	r := router.NewRouter(inventoryHandler, assignmentHandler, settingsHandler, cfg, logger)

	loggingMW := middleware.NewLoggingMiddleware(logger)
	finalHandler := otelhttp.NewHandler(loggingMW.LogRequests(r), cfg.Telemetry.ServiceName)

	server := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Port),
		Handler:        finalHandler,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	var metricsServer *http.Server
	if cfg.Server.EnableMetrics {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Server.MetricsPort),
			Handler: mux,
		}
		go func() {
			logger.WithField("port", cfg.Server.MetricsPort).Info("metrics server listening")
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.WithError(err).Error("metrics server failed")
			}
		}()
	}

	// Channel to listen for interrupt signal to gracefully shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.WithFields(logrus.Fields{
			"port":             cfg.Port,
			"rate_limit_rps":   cfg.Security.RateLimitRPS,
			"rate_limit_burst": cfg.Security.RateLimitBurst,
			"cors":             cfg.Security.EnableCORS,
			"request_timeout":  cfg.Security.RequestTimeout.String(),
			"auth":             cfg.Auth.JWTSecret != "",
		}).Info("Starting server")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-done
	logger.Info("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Security.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	} else {
		logger.Info("Server exited gracefully")
	}
	if metricsServer != nil {
		metricsServer.Shutdown(ctx)
	}

	// Flush queued history entries once no handler can add more.
	stopWorker()
	select {
	case <-workerDone:
	case <-ctx.Done():
		logger.Warn("audit queue not drained before shutdown deadline")
	}

	if err := shutdownTracing(ctx); err != nil {
		logger.WithError(err).Warn("failed to flush traces")
	}
}
