package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"remitgate/internal/adapters/http/middleware"
	"remitgate/internal/adapters/http/routes"
	"remitgate/internal/adapters/messaging"
	"remitgate/internal/adapters/persistence/models"
	"remitgate/internal/adapters/persistence/repositories"
	"remitgate/internal/config"
	"remitgate/internal/core/services"
	"remitgate/internal/pkg/logs"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// bootstrap loads configuration, configures logging and opens the database
func bootstrap() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logs.Init(logs.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})

	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}

	// Auto migrate (creates tables if not exist)
	if err := models.AutoMigrate(db); err != nil {
		config.CloseDatabase()
		return nil, nil, fmt.Errorf("failed to auto migrate: %w", err)
	}
	logs.Logger.Info("✅ Database migration completed")
	return cfg, db, nil
}

func runServe(ctx context.Context) error {
	cfg, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer config.CloseDatabase()
	log := logs.WithComponent("server")

	// Audit pipeline
	sinks, closeSinks, err := buildAuditSinks(cfg, db)
	if err != nil {
		return err
	}
	defer closeSinks()
	auditService := services.NewAuditService(logs.WithComponent("audit"), cfg.Audit.Buffer, sinks...)
	auditService.Start()
	defer auditService.Stop()

	// Start lock sweeper
	cronService := services.NewCronService(
		repositories.NewEmployeeRepository(db),
		cfg.Lockout.SweepSpec,
		logs.WithComponent("cron"),
	)
	if err := cronService.Start(); err != nil {
		return err
	}
	defer cronService.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "remitgate API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes
	routes.Setup(app, db, cfg, auditService)

	// Graceful shutdown
	go gracefulShutdown(ctx, app)

	log.Infof("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	log.Info("✅ Server stopped gracefully")
	return nil
}

// buildAuditSinks creates the configured audit sinks and a func releasing them
func buildAuditSinks(cfg *config.Config, db *gorm.DB) ([]services.AuditSink, func(), error) {
	var (
		sinks   []services.AuditSink
		closers []func() error
	)
	closeAll := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logs.WithComponent("audit").WithError(err).Warn("Failed to close audit sink")
			}
		}
	}

	for _, name := range cfg.Audit.Sinks {
		switch name {
		case "log":
			sinks = append(sinks, services.NewLogAuditSink(logs.WithComponent("audit")))
		case "db":
			sinks = append(sinks, services.NewDBAuditSink(repositories.NewAuditRepository(db)))
		case "rabbitmq":
			sink, err := messaging.NewRabbitMQAuditSink(messaging.RabbitMQConfig{
				URL:   cfg.Audit.RabbitMQURL,
				Queue: cfg.Audit.Queue,
			})
			if err != nil {
				closeAll()
				return nil, nil, err
			}
			sinks = append(sinks, sink)
			closers = append(closers, sink.Close)
		}
	}
	return sinks, closeAll, nil
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(ctx context.Context, app *fiber.App) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logs.Logger.Info("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		logs.Logger.WithError(err).Error("❌ Error during shutdown")
	}
}
