package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/meghshyam-labs/vyapar-backend/api/routes"
	"github.com/meghshyam-labs/vyapar-backend/internal/address"
	"github.com/meghshyam-labs/vyapar-backend/internal/checkout"
	"github.com/meghshyam-labs/vyapar-backend/internal/identity"
	"github.com/meghshyam-labs/vyapar-backend/internal/notifications"
	"github.com/meghshyam-labs/vyapar-backend/internal/orders"
	"github.com/meghshyam-labs/vyapar-backend/internal/payments"
	"github.com/meghshyam-labs/vyapar-backend/internal/shipping"
	"github.com/meghshyam-labs/vyapar-backend/pkg/config"
	"github.com/meghshyam-labs/vyapar-backend/pkg/db"
	"github.com/meghshyam-labs/vyapar-backend/pkg/enums"
	"github.com/meghshyam-labs/vyapar-backend/pkg/logger"
	"github.com/meghshyam-labs/vyapar-backend/pkg/mailer"
	"github.com/meghshyam-labs/vyapar-backend/pkg/metrics"
	"github.com/meghshyam-labs/vyapar-backend/pkg/migrate"
	"github.com/meghshyam-labs/vyapar-backend/pkg/razorpay"
	"github.com/meghshyam-labs/vyapar-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gateway, err := razorpay.NewClient(context.Background(), cfg.Razorpay, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap razorpay", err)
		os.Exit(1)
	}

	reg := metrics.New()

	sender, err := mailer.NewSMTPSender(cfg.SMTP)
	if err != nil {
		logg.Error(context.Background(), "failed to create smtp sender", err)
		os.Exit(1)
	}
	dispatcher, err := notifications.NewService(sender, logg, reg)
	if err != nil {
		logg.Error(context.Background(), "failed to create notification dispatcher", err)
		os.Exit(1)
	}

	identityRepo := identity.NewRepository(dbClient.DB())
	identityService, err := identity.NewService(identityRepo, cfg.Password, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create identity service", err)
		os.Exit(1)
	}

	addressService, err := address.NewService(address.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create address service", err)
		os.Exit(1)
	}

	baseCurrency, err := enums.ParseCurrency(cfg.App.BaseCurrency)
	if err != nil {
		baseCurrency = enums.CurrencyINR
	}
	calculator := shipping.NewCalculator(cfg.Shipping, baseCurrency)

	ordersRepo := orders.NewRepository(dbClient.DB())
	ordersService, err := orders.NewService(dbClient, ordersRepo, identityRepo, dispatcher, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(
		dbClient,
		identityService,
		addressService,
		ordersRepo,
		calculator,
		dispatcher,
		reg,
		logg,
		baseCurrency,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	guard, err := payments.NewIdempotencyGuard(redisClient, cfg.Razorpay.IdempotencyTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create idempotency guard", err)
		os.Exit(1)
	}

	paymentsService, err := payments.NewService(
		ordersService,
		ordersRepo,
		identityRepo,
		gateway,
		guard,
		dispatcher,
		reg,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			reg,
			checkoutService,
			ordersService,
			paymentsService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
