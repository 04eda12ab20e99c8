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

	"github.com/Dosada05/swiss-rounds/config"
	"github.com/Dosada05/swiss-rounds/db"
	"github.com/Dosada05/swiss-rounds/events"
	"github.com/Dosada05/swiss-rounds/games"
	"github.com/Dosada05/swiss-rounds/handlers"
	"github.com/Dosada05/swiss-rounds/models"
	"github.com/Dosada05/swiss-rounds/pairing"
	"github.com/Dosada05/swiss-rounds/repositories"
	"github.com/Dosada05/swiss-rounds/routes"
	"github.com/Dosada05/swiss-rounds/services"
	"github.com/Dosada05/swiss-rounds/storage"
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

	if err := db.Migrate(context.Background(), dbConn); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("schema migrations applied")

	// Opening tables: R2 bucket when configured, built-in catalog otherwise.
	var catalogs games.CatalogProvider = games.DefaultCatalog()
	if cfg.R2Configured() {
		catalogs, err = storage.NewCloudflareR2Catalog(storage.CloudflareR2CatalogConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
		}, games.DefaultCatalog(), logger)
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 catalog", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 opening catalog initialized")
	}

	wsHub := events.NewHub(logger)
	go wsHub.Run()
	logger.Info("WebSocket Hub started")

	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	playerRepo := repositories.NewPostgresPlayerRepository(dbConn)
	pairingRepo := repositories.NewPostgresPairingRepository(dbConn)
	gameRepo := repositories.NewPostgresGameRepository(dbConn)
	logger.Info("Repositories initialized")

	oracle := pairing.NewSwissEngine(cfg.MaxRounds)
	roundService := services.NewRoundService(
		dbConn,
		tournamentRepo,
		playerRepo,
		pairingRepo,
		gameRepo,
		oracle,
		services.NewUUIDIDReserver(),
		wsHub,
		catalogs,
		games.GlobalRand(),
		logger,
	)
	sequencer := services.NewTournamentSequencer()
	logger.Info("Services initialized",
		slog.String("pairing_oracle", oracle.GetName()),
		slog.Int("max_rounds", cfg.MaxRounds))

	// Background scheduler: advance every tournament whose next round is due.
	schedulerCtx, stopScheduler := context.WithCancel(context.Background())
	defer stopScheduler()
	go runScheduler(schedulerCtx, cfg.SchedulerInterval, dbConn, tournamentRepo, roundService, sequencer, logger)

	roundHandler := handlers.NewRoundHandler(dbConn, tournamentRepo, roundService, sequencer, logger)
	wsHandler := handlers.NewWebSocketHandler(wsHub, logger)

	router := chi.NewRouter()
	routes.SetupRoutes(router, roundHandler, wsHandler, cfg.JWTSecretKey)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.String("addr", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	case sig := <-shutdown:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		stopScheduler()

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if err := server.Close(); err != nil {
				logger.Error("forced shutdown failed", slog.Any("error", err))
			}
		}
		logger.Info("server stopped")
	}
}

// runScheduler polls for tournaments whose next_round_at marker has passed
// and advances each through the per-tournament sequencer. Tournaments whose
// pairing engine declines a new round are marked finished.
func runScheduler(
	ctx context.Context,
	interval time.Duration,
	exec repositories.SQLExecutor,
	tournamentRepo repositories.TournamentRepository,
	roundService services.RoundService,
	sequencer *services.TournamentSequencer,
	logger *slog.Logger,
) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	logger.Info("round scheduler started", slog.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			logger.Info("round scheduler stopped")
			return
		case now := <-ticker.C:
			due, err := tournamentRepo.ListRoundDue(ctx, now)
			if err != nil {
				logger.Error("scheduler: failed to list due tournaments", slog.Any("error", err))
				continue
			}

			for _, tournament := range due {
				tournament := tournament
				go func() {
					sequencer.Do(tournament.ID, func() {
						// Reload inside the lock; a manual trigger may have
						// advanced the tournament since the listing.
						fresh, err := tournamentRepo.GetByID(ctx, tournament.ID)
						if err != nil {
							logger.Error("scheduler: failed to reload tournament",
								slog.Int("tournament_id", tournament.ID), slog.Any("error", err))
							return
						}
						if fresh.IsFinished() {
							return
						}

						_, status, err := roundService.StartRound(ctx, fresh)
						if err != nil {
							logger.Error("scheduler: round advance failed",
								slog.Int("tournament_id", fresh.ID), slog.Any("error", err))
							return
						}
						if status == services.RoundNotAdvanced {
							if err := tournamentRepo.SetStatus(ctx, exec, fresh.ID, models.StatusFinished); err != nil {
								logger.Error("scheduler: failed to finish tournament",
									slog.Int("tournament_id", fresh.ID), slog.Any("error", err))
							} else {
								logger.Info("tournament finished", slog.Int("tournament_id", fresh.ID))
							}
						}
					})
				}()
			}
		}
	}
}
