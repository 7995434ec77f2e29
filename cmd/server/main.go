package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Freeeeeet/delivery_slots/internal/app"
	"github.com/Freeeeeet/delivery_slots/internal/auth"
	"github.com/Freeeeeet/delivery_slots/internal/config"
	"github.com/Freeeeeet/delivery_slots/internal/notify"
	"github.com/Freeeeeet/delivery_slots/internal/repository"
	"github.com/Freeeeeet/delivery_slots/internal/server"
	"github.com/Freeeeeet/delivery_slots/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return err
	}

	migrator, err := app.NewMigrator(pool, cfg.MigrationsDir, logger)
	if err != nil {
		return err
	}
	if err := migrator.Run(ctx); err != nil {
		return err
	}
	migrator.Close()

	accountRepo := repository.NewAccountRepository(pool)
	partnerRepo := repository.NewPartnerRepository(pool)
	slotRepo := repository.NewSlotRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)

	var sender notify.Sender
	if cfg.SMTPAddr != "" {
		sender = notify.NewSMTPSender(cfg.SMTPAddr, cfg.SMTPFrom)
	} else {
		sender = notify.NewLogSender(logger)
	}

	resetTokens := auth.NewResetTokens(cfg.ResetSecret, cfg.ResetTokenTTL)

	identityService := service.NewIdentityService(
		accountRepo, partnerRepo, bookingRepo,
		sender, resetTokens, cfg.ResetURLBase, logger,
	)
	catalogService := service.NewCatalogService(partnerRepo, slotRepo, bookingRepo, logger)
	bookingService := service.NewBookingService(
		partnerRepo, slotRepo, bookingRepo,
		cfg.CountCancelled, cfg.BookingRetries, logger,
	)

	if err := identityService.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		return err
	}

	srv := server.New(identityService, catalogService, bookingService, logger)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: srv.Router(cfg),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("environment", cfg.Environment),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
