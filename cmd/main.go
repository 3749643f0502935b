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

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/padelpoint/tournament-engine/brackets"
	"github.com/padelpoint/tournament-engine/config"
	"github.com/padelpoint/tournament-engine/db"
	"github.com/padelpoint/tournament-engine/handlers"
	"github.com/padelpoint/tournament-engine/repositories"
	api "github.com/padelpoint/tournament-engine/routes"
	"github.com/padelpoint/tournament-engine/services"
	"github.com/padelpoint/tournament-engine/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	if err := db.Migrate(dbConn, cfg.MigrationsPath); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("migrations applied")

	// The results archive is optional; without R2 credentials completed
	// tournaments simply keep their results in the database.
	var archiver services.ResultsArchiver
	if cfg.ArchiveEnabled() {
		uploader, err := storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		archiver = storage.NewResultsArchive(uploader)
		logger.Info("Cloudflare R2 results archive initialized")
	} else {
		logger.Info("results archive disabled, R2 credentials not configured")
	}

	// One cancel context stops the hub and the background jobs on shutdown.
	jobCtx, stopJobs := context.WithCancel(context.Background())
	defer stopJobs()

	wsHub := brackets.NewHub(logger)
	go wsHub.Run(jobCtx)
	logger.Info("WebSocket hub started")

	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	categoryRepo := repositories.NewPostgresCategoryRepository(dbConn)
	teamRepo := repositories.NewPostgresTournamentTeamRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	courtRepo := repositories.NewPostgresCourtRepository(dbConn)
	bookingRepo := repositories.NewPostgresBookingRepository(dbConn)
	reservationRepo := repositories.NewPostgresReservationRepository(dbConn)
	recurringRepo := repositories.NewPostgresRecurringRepository(dbConn)
	stateRepo := repositories.NewPostgresStateRepository(dbConn)
	logger.Info("repositories initialized")

	notifier := services.MultiNotifier{
		services.NewLogNotifier(logger),
		services.NewHubNotifier(wsHub),
	}
	ratingUpdater := services.NewLogRatingUpdater(logger)

	tournamentService := services.NewTournamentService(dbConn, tournamentRepo, categoryRepo, teamRepo, matchRepo)
	registrationService := services.NewRegistrationService(dbConn, tournamentRepo, categoryRepo, teamRepo)
	bracketService := services.NewBracketService(dbConn, tournamentRepo, categoryRepo, teamRepo, matchRepo, logger)
	scheduleService := services.NewScheduleService(dbConn, tournamentRepo, matchRepo, courtRepo, bookingRepo, reservationRepo, notifier, logger)
	matchService := services.NewMatchService(dbConn, tournamentRepo, matchRepo, reservationRepo, ratingUpdater, notifier, logger)
	lifecycleService := services.NewLifecycleService(
		dbConn, tournamentRepo, matchRepo, reservationRepo, stateRepo,
		bracketService, scheduleService, archiver, notifier, logger,
	)
	recurringService := services.NewRecurringService(dbConn, recurringRepo, tournamentRepo, categoryRepo, stateRepo, logger)
	logger.Info("services initialized")

	go runPeriodic(jobCtx, logger, "lifecycle sweep", cfg.SweepInterval, func(ctx context.Context) error {
		_, err := lifecycleService.RunSweep(ctx)
		return err
	})
	go runPeriodic(jobCtx, logger, "recurring generation", cfg.GenerateInterval, func(ctx context.Context) error {
		_, err := recurringService.GenerateDue(ctx)
		return err
	})

	authHandler := handlers.NewAuthHandler(cfg.AdminPasswordHash, cfg.JWTSecretKey, logger)
	tournamentHandler := handlers.NewTournamentHandler(tournamentService, registrationService, bracketService, scheduleService, logger)
	matchHandler := handlers.NewMatchHandler(matchService, logger)
	recurringHandler := handlers.NewRecurringHandler(recurringService, logger)
	adminHandler := handlers.NewAdminHandler(lifecycleService, recurringService, logger)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, logger)
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		cfg.JWTSecretKey,
		authHandler,
		tournamentHandler,
		matchHandler,
		recurringHandler,
		adminHandler,
		webSocketHandler,
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		stopJobs()

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}

// runPeriodic runs fn once at startup and then on every tick until the
// context is cancelled.
func runPeriodic(ctx context.Context, logger *slog.Logger, name string, interval time.Duration, fn func(context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	logger.Info("background job started", slog.String("job", name), slog.Duration("interval", interval))

	if err := fn(ctx); err != nil {
		logger.Error("background job initial run failed", slog.String("job", name), slog.Any("error", err))
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("background job stopped", slog.String("job", name))
			return
		case <-ticker.C:
			if err := fn(ctx); err != nil {
				logger.Error("background job run failed", slog.String("job", name), slog.Any("error", err))
			}
		}
	}
}
