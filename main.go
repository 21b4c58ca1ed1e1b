package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tour-booking/cmd"
	"tour-booking/internal/data/entity"
	"tour-booking/internal/data/memory"
	"tour-booking/internal/data/repository"
	"tour-booking/internal/wire"
	"tour-booking/internal/worker"
	"tour-booking/pkg/clock"
	"tour-booking/pkg/database"
	"tour-booking/pkg/payment"
	"tour-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := utils.InitLogger(config.App.Name, config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
		zap.String("store", config.App.StoreDriver),
		zap.String("payment_provider", config.Payment.Provider),
		zap.Duration("hold_duration", config.Booking.HoldDuration),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, closeStore := openStore(ctx, config, logger)
	defer closeStore()

	var provider payment.Provider
	switch config.Payment.Provider {
	case utils.PaymentProviderStripe:
		provider = payment.NewStripeProvider(config.Payment.StripeSecretKey, config.Payment.StripeWebhookSecret, logger)
	default:
		provider = payment.NewMockProvider(config.Payment.MockWebhookSecret, logger)
		logger.Warn("Using mock payment provider; do not run this in production")
	}

	clk := clock.Real()
	app := wire.Wiring(repos, provider, clk, config, logger)
	sweeper := worker.NewSweeper(app.Service.Sweep, clk, config.Booking.SweepInterval, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return cmd.APIServer(gctx, app.Router, config.App.Port, config.App.ShutdownTimeout, logger)
	})
	g.Go(func() error {
		return sweeper.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("Application stopped with error", zap.Error(err))
	}
	logger.Info("Application stopped")
}

func openStore(ctx context.Context, config *utils.Config, logger *zap.Logger) (*repository.Repository, func()) {
	if config.App.StoreDriver == utils.StoreDriverMemory {
		repos, store := memory.NewRepository(logger)
		seedDevSession(store, config.App.DevSessionToken, logger)
		logger.Warn("Using in-memory store; data is lost on restart")
		return repos, func() {}
	}

	db, err := database.InitDB(ctx, config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	logger.Info("Database connected successfully")

	if err := database.EnsureSchema(ctx, db); err != nil {
		logger.Fatal("Failed to apply schema", zap.Error(err))
	}

	return repository.NewRepository(db, logger), db.Close
}

// seedDevSession registers a long-lived session so protected routes can be
// exercised against the memory store, which has no auth provider behind it.
func seedDevSession(store *memory.Store, token string, logger *zap.Logger) {
	if token == "" {
		return
	}
	parsed, err := uuid.Parse(token)
	if err != nil {
		logger.Fatal("DEV_SESSION_TOKEN must be a UUID", zap.Error(err))
	}

	now := time.Now().UTC()
	userID := uuid.NewSHA1(uuid.NameSpaceOID, parsed[:])
	store.AddSession(&entity.Session{
		ID:        uuid.New(),
		UserID:    userID,
		Token:     parsed,
		ExpiresAt: now.Add(30 * 24 * time.Hour),
		CreatedAt: now,
	})
	logger.Info("Seeded development session", zap.String("user_id", userID.String()))
}
