package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"

	"github.com/fightflight/backend/internal/auth"
	"github.com/fightflight/backend/internal/booking"
	"github.com/fightflight/backend/internal/catalog"
	"github.com/fightflight/backend/internal/config"
	"github.com/fightflight/backend/internal/dashboard"
	"github.com/fightflight/backend/internal/db"
	"github.com/fightflight/backend/internal/expiry"
	"github.com/fightflight/backend/internal/ledger"
	"github.com/fightflight/backend/internal/middleware"
	"github.com/fightflight/backend/internal/repository"
	"github.com/fightflight/backend/internal/router"
	"github.com/fightflight/backend/internal/services"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := setupTracing(ctx, cfg.OTLPEndpoint)
	if err != nil {
		slog.Error("Failed to set up tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(flushCtx)
	}()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Cannot reach PostgreSQL. Ensure Postgres is running, e.g. docker-compose up -d", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	slog.Info("Connected to PostgreSQL database successfully!")

	if err := db.Migrate(ctx, pool, logger); err != nil {
		slog.Error("Schema migration failed", "error", err)
		os.Exit(1)
	}

	// River migrations
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		slog.Error("Failed to create River migrator", "error", err)
		os.Exit(1)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		slog.Error("River migrate up failed", "error", err)
		os.Exit(1)
	}
	slog.Info("River migrations applied")

	memberRepo := repository.NewMemberRepo(pool)
	classRepo := repository.NewClassRepo(pool)
	bookingRepo := repository.NewBookingRepo(pool)
	creditRepo := repository.NewCreditRepo(pool)

	ledgerSvc := ledger.NewService(pool, memberRepo, creditRepo, cfg.Location, logger)

	// Expiry: insert func is set after the River client is created (breaks init cycle)
	var insertMu sync.Mutex
	var insertFn expiry.InsertResumeTxFunc
	insertResume := func(ctx context.Context, tx pgx.Tx, args expiry.ResumeArgs) error {
		insertMu.Lock()
		fn := insertFn
		insertMu.Unlock()
		if fn == nil {
			return errors.New("river insert not wired")
		}
		return fn(ctx, tx, args)
	}
	expirySvc := expiry.NewService(pool, memberRepo, insertResume, cfg.Location, logger)

	workers := river.NewWorkers()
	river.AddWorker(workers, expiry.NewResumeWorker(expirySvc))

	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 5},
		},
		Workers: workers,
		Logger:  logger,
	})
	if err != nil {
		slog.Error("Failed to create River client", "error", err)
		os.Exit(1)
	}

	insertMu.Lock()
	insertFn = func(ctx context.Context, tx pgx.Tx, args expiry.ResumeArgs) error {
		_, err := riverClient.InsertTx(ctx, tx, args, &river.InsertOpts{ScheduledAt: args.PausedUntil})
		return err
	}
	insertMu.Unlock()

	bookingSvc := booking.NewService(pool, classRepo, memberRepo, bookingRepo, ledgerSvc, booking.Options{
		RefundOnCancel: cfg.CancelRefunds,
		Location:       cfg.Location,
	}, logger)
	catalogSvc := catalog.NewService(classRepo, cfg.Location, logger)

	validator := services.MustNewValidator()

	authSvc := auth.NewService(memberRepo, cfg.JWTSecret)
	authHandler := auth.NewHandler(authSvc, validator, logger)
	dashHandler := dashboard.NewHandler(memberRepo, bookingRepo, cfg.Location, logger)

	rt := router.New(authHandler, dashHandler, authSvc, middleware.NewRateLimiter(cfg.LoginRatePerMinute))
	RegisterRoutes(rt, Deps{
		Bookings:  bookingSvc,
		Ledger:    ledgerSvc,
		Expiry:    expirySvc,
		Catalog:   catalogSvc,
		Members:   memberRepo,
		Validator: validator,
		Location:  cfg.Location,
		Logger:    logger,
	})

	// Start River client (processes jobs)
	if err := riverClient.Start(ctx); err != nil {
		slog.Error("Failed to start River client", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort("0.0.0.0", cfg.Port),
		Handler:           rt.Handler(cfg.CORSAllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP shutdown failed", "error", err)
		}
		if err := riverClient.Stop(shutdownCtx); err != nil {
			slog.Error("River client stop failed", "error", err)
		}
	}()

	slog.Info("Starting HTTP server", "addr", srv.Addr, "timezone", cfg.Location.String(), "cancel_refunds", cfg.CancelRefunds)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("HTTP server failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped")
}
