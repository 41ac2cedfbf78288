package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/jcmexdev/storefront/internal/badge"
	cartapp "github.com/jcmexdev/storefront/internal/cart/app"
	"github.com/jcmexdev/storefront/internal/cart/infra"
	"github.com/jcmexdev/storefront/internal/catalog"
	"github.com/jcmexdev/storefront/internal/gateway/httpx"
	"github.com/jcmexdev/storefront/internal/pkg/cache"
	"github.com/jcmexdev/storefront/internal/pkg/config"
	"github.com/jcmexdev/storefront/internal/pkg/telemetry"
	"github.com/jcmexdev/storefront/internal/session"
	"github.com/jcmexdev/storefront/internal/storage/sqlite"
)

func main() {
	cfg := config.Load()
	logger := telemetry.InitLogger("storefront", cfg.LogLevel)

	ctx := context.Background()
	shutdown, err := telemetry.SetupTracer(ctx, "storefront")
	if err != nil {
		log.Fatalf("tracer setup failed: %v", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		log.Fatalf("could not create data dir: %v", err)
	}
	kv, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("could not open local store: %v", err)
	}
	defer kv.Close()

	client := catalog.NewClient(cfg.CatalogBaseURL, nil)

	// The cached client is a drop-in for both the handler and the price
	// source; an empty REDIS_ADDR runs the client uncached.
	var catalogAPI httpx.CatalogAPI = client
	var prices cartapp.PriceSource = client
	if cfg.RedisAddr != "" {
		cached := catalog.NewCachedClient(client,
			cache.NewRedisCache(cfg.RedisAddr, "storefront"), cfg.CacheTTL, logger)
		catalogAPI = cached
		prices = cached
	}

	countSignal := badge.NewSignal()

	opts := []cartapp.Option{cartapp.WithLogger(logger)}
	if cfg.SeedCartID > 0 {
		opts = append(opts, cartapp.WithRemoteSeed(client, cfg.SeedCartID))
	}
	cartSvc := cartapp.NewService(infra.NewStore(kv, logger), prices, countSignal, opts...)
	defer cartSvc.Close()
	cartSvc.Initialize(ctx)

	sessions := session.NewStore(kv)

	handler := httpx.NewHandler(catalogAPI, cartSvc, sessions, countSignal)
	router := httpx.NewRouter(handler)

	logger.Info("storefront running", "addr", cfg.HTTPAddr, "db", cfg.DBPath)
	if err := http.ListenAndServe(cfg.HTTPAddr, router); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}
