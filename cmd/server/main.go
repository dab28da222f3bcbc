package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/nekogravitycat/trip-orchestrator/internal/app"
	"github.com/nekogravitycat/trip-orchestrator/internal/booking"
	"github.com/nekogravitycat/trip-orchestrator/internal/config"
	"github.com/nekogravitycat/trip-orchestrator/internal/db"
	"github.com/nekogravitycat/trip-orchestrator/internal/itinerary"
	"github.com/nekogravitycat/trip-orchestrator/internal/pkg/logger"
	"github.com/nekogravitycat/trip-orchestrator/internal/session"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// For receiving Ctrl+C / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(cfg.LogLevel, cfg.IsProduction)
	slog.SetDefault(log)

	// Connect DB (optional)
	var pool *pgxpool.Pool
	if cfg.DBDSN != "" {
		pool, err = db.NewPool(ctx, cfg.DBDSN, int32(cfg.DBMaxConns))
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := db.Migrate(ctx, pool); err != nil {
			return err
		}
		log.Info("using postgres catalog and booking ledger")
	} else {
		log.Warn("DB_DSN not set, using the fixture catalog and an in-memory ledger")
	}

	// Connect Redis (optional)
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb, err = db.NewRedis(ctx, cfg.RedisAddr)
		if err != nil {
			return err
		}
		defer rdb.Close()
	}

	container, err := app.NewContainer(ctx, app.Config{
		IsProduction:  cfg.IsProduction,
		ProdOrigins:   cfg.ProdOrigins,
		Logger:        log,
		DBPool:        pool,
		Redis:         rdb,
		ItineraryTTL:  cfg.ItineraryTTL,
		JWTSecret:     cfg.JWTSecret,
		JWTTTL:        cfg.JWTAccessTokenTTL,
		GeminiAPIKey:  cfg.GeminiAPIKey,
		GeminiModel:   cfg.GeminiModel,
		ProviderRPS:   cfg.ProviderRPS,
		ProviderBurst: cfg.ProviderBurst,
		Session: session.Config{
			ProviderTimeout: cfg.ProviderTimeout,
			Assembler: itinerary.Options{
				MaxPerDay: cfg.MaxActivitiesPerDay,
			},
			Booking: booking.Options{
				Timeout:     cfg.BookingTimeout,
				Concurrency: cfg.BookingConcurrency,
			},
		},
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := container.Close(); err != nil {
			log.Error("failed to close session", "error", err)
		}
	}()

	// Use http.Server for graceful shutdown
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           container.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Run server in separate goroutine
	errCh := make(chan error, 1)
	go func() {
		log.Info("server running", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for Ctrl+C or a listener failure
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	// Create a shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("server forced to shutdown", "error", err)
	}

	log.Info("server exited gracefully")
	return nil
}
