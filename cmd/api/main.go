package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gemlane/storefront-bff/api/routes"
	"github.com/gemlane/storefront-bff/internal/address"
	"github.com/gemlane/storefront-bff/internal/cart"
	"github.com/gemlane/storefront-bff/internal/checkout"
	"github.com/gemlane/storefront-bff/pkg/commerce"
	"github.com/gemlane/storefront-bff/pkg/config"
	"github.com/gemlane/storefront-bff/pkg/geo"
	"github.com/gemlane/storefront-bff/pkg/logger"
	"github.com/gemlane/storefront-bff/pkg/metrics"
	"github.com/gemlane/storefront-bff/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront-bff"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront-bff",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

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

	commerceClient, err := commerce.NewClient(cfg.Commerce.BaseURL, commerce.WithTimeout(cfg.Commerce.Timeout))
	if err != nil {
		logg.Error(context.Background(), "failed to create commerce client", err)
		os.Exit(1)
	}

	geoClient, err := geo.NewClient(geo.WithBaseURL(cfg.Geo.BaseURL), geo.WithTimeout(cfg.Geo.Timeout))
	if err != nil {
		logg.Error(context.Background(), "failed to create geo client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	storefrontMetrics := metrics.NewStorefrontMetrics(registry)

	resolver, err := address.NewResolver(geoClient, logg, storefrontMetrics,
		address.WithDebounce(cfg.Geo.DebounceWindow),
		address.WithMinLength(cfg.Geo.MinPostalLength),
		address.WithLookupTimeout(cfg.Geo.Timeout),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create address resolver", err)
		os.Exit(1)
	}

	guestRepo, err := cart.NewGuestRepository(redisClient, cfg.GuestCart.TTL, logg, storefrontMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create guest cart repository", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cart.ServiceParams{
		Gateway: commerceClient,
		Guests:  guestRepo,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	checkoutManager, err := checkout.NewManager(commerceClient, redisClient, logg, storefrontMetrics, cfg.Checkout.LockTTL, cfg.Checkout.SessionTimeout)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout manager", err)
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
	logg.Info(ctx, "starting storefront bff")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, redisClient, commerceClient, resolver, cartService, checkoutManager, registry),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "storefront bff stopped unexpectedly", err)
		os.Exit(1)
	}
}
