package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"docportal/docs"
	"docportal/internal/config"
	"docportal/internal/database"
	"docportal/internal/database/migration"
	"docportal/internal/engine"
	handlers "docportal/internal/http/handler"
	"docportal/internal/http/middleware"
	"docportal/internal/logging"
	"docportal/internal/otel"
	"docportal/internal/repository/postgres"
	"docportal/internal/service"
	"docportal/internal/signing"
	"docportal/internal/storage"
	"docportal/internal/worker"
)

const shutdownTimeout = 10 * time.Second

// @title						Document Portal API
// @version					1.0
// @BasePath					/
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
func main() {
	cfg := config.Load()

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		loc = time.UTC
	}
	logger := logging.New(os.Stdout, loc).With(map[string]any{"service": "docportal"})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, logger)
	stop()
	if err != nil {
		logger.Error("server_failed", err, nil)
		os.Exit(1)
	}
}

// run wires the application and serves until ctx is cancelled. Cleanup runs on every return path.
func run(ctx context.Context, cfg *config.AppConfig, logger *logging.Logger) error {
	shutdownTracing, err := otel.Init(ctx, logger)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(cleanupCtx); err != nil {
			logger.Error("tracing_shutdown_failed", err, nil)
		}
	}()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, logger, cfg.Database.Host); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	eng, err := engine.New(cfg.DocumentEngine)
	if err != nil {
		return fmt.Errorf("init document engine client: %w", err)
	}
	signer, err := signing.New(cfg.Signing)
	if err != nil {
		return fmt.Errorf("init signing client: %w", err)
	}

	// Object storage only backs custom signature images; the service runs without it.
	var images storage.Storage
	if storage.Enabled(cfg.MinIO) {
		images, err = storage.NewMinIO(ctx, cfg.MinIO)
		if err != nil {
			return fmt.Errorf("init object storage: %w", err)
		}
	} else {
		logger.Warn("object_storage_disabled", map[string]any{"component": "storage"})
	}

	docRepo := postgres.NewDocumentPostgres(db)
	sessions := postgres.NewSessionPostgres(db)

	docSvc := service.NewDocumentService(eng, docRepo, logger,
		service.WithRetryPolicy(engine.RetryPolicyFromConfig(cfg.DocumentEngine)),
		service.WithMaxUploadBytes(cfg.Upload.MaxBytes),
	)
	signSvc := service.NewSignService(eng, signer, docRepo, logger, service.SignOptions{
		Images:          images,
		DefaultImageKey: cfg.Signing.DefaultImageKey,
		MaxImageBytes:   cfg.Upload.MaxImageBytes,
	})
	authSvc := service.NewAuthService(postgres.NewUserPostgres(db), sessions, logger,
		time.Duration(cfg.Auth.SessionTTLHours)*time.Hour)
	imageSvc := service.NewSignatureImageService(images, logger, cfg.Upload.MaxImageBytes)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if err := database.RegisterMetrics(reg, db, cfg.Database.Name); err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	maxUpload := cfg.Upload.MaxBytes
	if maxUpload <= 0 {
		maxUpload = service.DefaultMaxUploadBytes
	}
	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(maxUpload),
		// Multipart framing needs headroom above the file limit; the service enforces the exact size.
		BodyLimit:             int(maxUpload) + 1<<20,
		DisableStartupMessage: true,
	})

	app.Use(middleware.RequestID())
	app.Use(otelfiber.Middleware())
	app.Use(promMiddleware.Handler())
	app.Use(middleware.Logger(logger))

	handlers.RegisterRoutes(app, db, handlers.Services{
		Documents: docSvc,
		Sign:      signSvc,
		Auth:      authSvc,
		Images:    imageSvc,
	}, handlers.RouteOptions{
		SessionCookie: cfg.Auth.SessionCookie,
		Metrics:       reg,
	})

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	if cfg.Auth.SweepEnabled {
		sweeper, err := worker.NewSessionSweeper(sessions, logger, cfg.Auth.SweepSchedule)
		if err != nil {
			return fmt.Errorf("init session sweeper: %w", err)
		}
		sweeper.Start()
		defer func() {
			cleanupCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := sweeper.Stop(cleanupCtx); err != nil {
				logger.Error("session_sweeper_stop_failed", err, nil)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutdown_started", nil)
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			logger.Error("http_shutdown_failed", err, nil)
		}
	}()

	addr := ":" + cfg.Port
	logger.Info("server_started", map[string]any{"addr": addr, "app_host": cfg.AppHost})
	if err := app.Listen(addr); err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return nil
}
