package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/orochaa/access-logger/cache"
	"github.com/orochaa/access-logger/config"
	"github.com/orochaa/access-logger/digest"
	"github.com/orochaa/access-logger/email"
	"github.com/orochaa/access-logger/gif"
	"github.com/orochaa/access-logger/handler"
	appLogger "github.com/orochaa/access-logger/logger"
	"github.com/orochaa/access-logger/middleware"
	redisClient "github.com/orochaa/access-logger/redis"
	"github.com/orochaa/access-logger/report"
	"github.com/orochaa/access-logger/store"
)

// application bundles the wired service dependencies shared by the serve
// and report commands.
type application struct {
	cfg          config.Config
	orchestrator *digest.Orchestrator
	handler      *handler.AccessHandler
	close        func()
}

func buildApplication() (*application, error) {
	cfg := config.MustLoadConfig()
	log.Info().Msg("Configuration loaded successfully")

	rdb := redisClient.NewClient(cfg.Redis)

	var cacheClient *cache.Cache
	if cfg.Cache.Enabled {
		var err error
		cacheClient, err = cache.New(cfg.Cache)
		if err != nil {
			return nil, fmt.Errorf("initialize cache: %w", err)
		}
	} else {
		log.Info().Msg("Cache disabled in configuration")
	}

	renderer, err := report.NewRenderer(cfg.Report.DisplayTimezone)
	if err != nil {
		return nil, err
	}

	accessStore := store.NewAccessStore(rdb)
	mailer := email.NewEmailService(cfg.Email)
	gifClient := gif.NewClient(cfg.Giphy, cacheClient)
	orchestrator := digest.NewOrchestrator(accessStore, mailer, gifClient, renderer)
	accessHandler := handler.NewAccessHandler(rdb, accessStore, cacheClient, mailer, orchestrator, cfg)

	return &application{
		cfg:          cfg,
		orchestrator: orchestrator,
		handler:      accessHandler,
		close: func() {
			if cacheClient != nil {
				cacheClient.Close()
			}
			if err := rdb.Close(); err != nil {
				log.Error().Err(err).Msg("Failed to close Redis connection")
			}
		},
	}, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	app, err := buildApplication()
	if err != nil {
		return err
	}
	defer app.close()

	r := mux.NewRouter()

	rateLimiter := middleware.NewRateLimiter(app.cfg.RateLimit.RequestsPerSecond, app.cfg.RateLimit.Burst)
	r.Use(middleware.CORS)
	r.Use(middleware.RequestLogger)
	r.Use(rateLimiter.Limit)

	r.HandleFunc("/health", app.handler.HealthCheck).Methods("GET")
	r.HandleFunc("/cache/metrics", app.handler.CacheMetrics).Methods("GET")
	r.HandleFunc("/access", app.handler.LogAccess).Methods("POST")
	r.HandleFunc("/report/daily", app.handler.DailyReport).Methods("POST")
	r.HandleFunc("/report/monthly", app.handler.MonthlyReport).Methods("POST")
	r.HandleFunc("/contact", app.handler.Contact).Methods("POST")

	serverAddress := fmt.Sprintf("%s:%s", app.cfg.WebServer.IP, app.cfg.WebServer.Port)
	server := &http.Server{
		Addr:         serverAddress,
		Handler:      r,
		ReadTimeout:  time.Duration(app.cfg.WebServer.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(app.cfg.WebServer.WriteTimeout) * time.Second,
	}

	go func() {
		log.Info().Str("address", serverAddress).Msg("Starting server")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(app.cfg.WebServer.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("Server stopped gracefully")
	return nil
}

func runReport(cmd *cobra.Command, args []string) error {
	app, err := buildApplication()
	if err != nil {
		return err
	}
	defer app.close()

	switch args[0] {
	case "daily":
		return app.orchestrator.RunDaily(cmd.Context())
	case "monthly":
		return app.orchestrator.RunMonthly(cmd.Context())
	default:
		return fmt.Errorf("unknown report period %q (want daily or monthly)", args[0])
	}
}

func main() {
	appLogger.Initialize()

	rootCmd := &cobra.Command{
		Use:           "access-logger",
		Short:         "Access event ingestion and email digest reports",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "report [daily|monthly]",
		Short: "Run one digest report and exit",
		Args:  cobra.ExactArgs(1),
		RunE:  runReport,
	})

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
