// Command main is the entry point for the threads API server.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"threads/internal/bootstrap"
	"threads/internal/config"
	"threads/internal/middleware"
	"threads/internal/notifications"
	"threads/internal/observability"
	"threads/internal/reconcile"
	"threads/internal/server"
)

// @title Threads API
// @version 1.0
// @description Threaded discussions with users and communities
// @termsOfService http://swagger.io/terms/

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8375
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "threads-api",
		ServiceVersion: "1.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSampleRatio,
	})
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	store, rdb, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{Eager: true})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}

	srv := server.NewServer(cfg, store, rdb)
	app := srv.NewApp()

	scheduler, err := reconcile.NewScheduler(
		reconcile.New(store, srv.ThreadService(), cfg.ReconcileBatchSize),
		cfg.ReconcileSchedule,
	)
	if err != nil {
		log.Fatalf("Invalid RECONCILE_SCHEDULE %q: %v", cfg.ReconcileSchedule, err)
	}
	scheduler.Start()

	if err := srv.Notifier().StartRevalidationSubscriber(ctx, func(e notifications.RevalidationEvent) {
		middleware.Logger.Debug("revalidation event", "path", e.Path, "keys", e.Keys)
	}); err != nil {
		middleware.Logger.Warn("revalidation subscriber unavailable", "error", err)
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
		scheduler.Stop()
		stop()

		// Shutdown server resources
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server resource shutdown error: %v", err)
		}
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Printf("Tracing shutdown error: %v", err)
		}
	}()

	// Start server
	log.Printf("Server starting on port %s...", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
