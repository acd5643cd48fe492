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

	"github.com/crichub/cricket-auction/config"
	"github.com/crichub/cricket-auction/db"
	"github.com/crichub/cricket-auction/events"
	"github.com/crichub/cricket-auction/handlers"
	"github.com/crichub/cricket-auction/live"
	"github.com/crichub/cricket-auction/middleware"
	"github.com/crichub/cricket-auction/repositories"
	api "github.com/crichub/cricket-auction/routes"
	"github.com/crichub/cricket-auction/services"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

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

	// Live auction stream
	hub := live.NewHub(logger)
	go hub.Run()
	logger.Info("websocket hub started")

	// Committed domain events fan out to the websocket hub and the mailer.
	dispatcher := events.NewDispatcher(logger)
	dispatcher.Register(hub)
	if cfg.SMTPHost != "" {
		dispatcher.Register(services.NewEmailService(cfg))
		logger.Info("email notifications enabled", slog.String("smtp_host", cfg.SMTPHost))
	} else {
		logger.Warn("SMTP_HOST not set, email notifications disabled")
	}

	// Repositories
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	teamOwnerRepo := repositories.NewPostgresTeamOwnerRepository(dbConn)
	auctionPlayerRepo := repositories.NewPostgresAuctionPlayerRepository(dbConn)
	auctionRoundRepo := repositories.NewPostgresAuctionRoundRepository(dbConn)
	auctionBidRepo := repositories.NewPostgresAuctionBidRepository(dbConn)
	playerRepo := repositories.NewPostgresPlayerRepository(dbConn)
	logger.Info("repositories initialized")

	// Services
	authService := services.NewAuthService(userRepo, cfg.JWTSecretKey)
	tournamentService := services.NewTournamentService(tournamentRepo)
	teamOwnerService := services.NewTeamOwnerService(teamOwnerRepo, tournamentRepo, userRepo, dispatcher, logger)
	playerService := services.NewPlayerService(auctionPlayerRepo, playerRepo, tournamentRepo)
	ledger := services.NewBudgetLedger(teamOwnerRepo)
	roundService := services.NewRoundService(dbConn, auctionRoundRepo, auctionPlayerRepo, auctionBidRepo, dispatcher, logger)
	bidService := services.NewBidService(dbConn, tournamentRepo, auctionRoundRepo, auctionPlayerRepo, teamOwnerRepo, auctionBidRepo, dispatcher, logger)
	resolutionService := services.NewResolutionService(
		dbConn,
		auctionRoundRepo,
		auctionPlayerRepo,
		teamOwnerRepo,
		auctionBidRepo,
		userRepo,
		ledger,
		roundService,
		dispatcher,
		logger,
	)
	migrationService := services.NewMigrationService(auctionPlayerRepo, playerRepo, tournamentRepo, logger)
	logger.Info("services initialized")

	// HTTP handlers
	authHandler := handlers.NewAuthHandler(authService)
	tournamentHandler := handlers.NewTournamentHandler(tournamentService)
	teamOwnerHandler := handlers.NewTeamOwnerHandler(teamOwnerService)
	playerHandler := handlers.NewPlayerHandler(playerService)
	roundHandler := handlers.NewRoundHandler(roundService)
	auctionHandler := handlers.NewAuctionHandler(bidService, resolutionService, migrationService)
	webSocketHandler := handlers.NewWebSocketHandler(hub, logger)
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		middleware.NewAuthenticator(cfg.JWTSecretKey),
		authHandler,
		tournamentHandler,
		teamOwnerHandler,
		playerHandler,
		roundHandler,
		auctionHandler,
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

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

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
