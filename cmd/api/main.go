package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/cartsync-backend/api"
	"github.com/angelmondragon/cartsync-backend/api/routes"
	"github.com/angelmondragon/cartsync-backend/internal/auth"
	"github.com/angelmondragon/cartsync-backend/internal/cart"
	"github.com/angelmondragon/cartsync-backend/internal/orders"
	"github.com/angelmondragon/cartsync-backend/internal/products"
	"github.com/angelmondragon/cartsync-backend/internal/users"
	"github.com/angelmondragon/cartsync-backend/internal/wishlist"
	"github.com/angelmondragon/cartsync-backend/pkg/auth/session"
	"github.com/angelmondragon/cartsync-backend/pkg/catalog"
	"github.com/angelmondragon/cartsync-backend/pkg/config"
	"github.com/angelmondragon/cartsync-backend/pkg/db"
	"github.com/angelmondragon/cartsync-backend/pkg/logger"
	"github.com/angelmondragon/cartsync-backend/pkg/metrics"
	"github.com/angelmondragon/cartsync-backend/pkg/migrate"
	"github.com/angelmondragon/cartsync-backend/pkg/outbox"
	"github.com/angelmondragon/cartsync-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := metrics.NewHTTPMetrics(reg)
	shopMetrics := metrics.NewShopMetrics(reg)
	catalogMetrics := metrics.NewCatalogMetrics(reg)

	var productCatalog catalog.Catalog = catalog.NewClient(cfg.Catalog, catalog.WithMetrics(catalogMetrics))
	if !cfg.Catalog.DisableCache {
		productCatalog = catalog.NewCachedCatalog(productCatalog, redisClient, cfg.Catalog.CacheTTL, logg, catalogMetrics)
	}

	usersRepo := users.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		return err
	}

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return err
	}

	userService, err := users.NewService(dbClient)
	if err != nil {
		return err
	}

	productService, err := products.NewService(productCatalog)
	if err != nil {
		return err
	}

	cartService, err := cart.NewService(cart.ServiceParams{
		Lines:           cart.NewRepository(dbClient.DB()),
		Users:           usersRepo,
		Catalog:         productCatalog,
		Metrics:         shopMetrics,
		Logger:          logg,
		EnrichmentLimit: cfg.Catalog.EnrichmentLimit,
	})
	if err != nil {
		return err
	}

	wishlistService, err := wishlist.NewService(wishlist.ServiceParams{
		Lines:   wishlist.NewRepository(dbClient.DB()),
		Users:   usersRepo,
		Catalog: productCatalog,
		Metrics: shopMetrics,
	})
	if err != nil {
		return err
	}

	ordersService, err := orders.NewService(orders.ServiceParams{
		Tx:      dbClient,
		Repo:    orders.NewRepository(dbClient.DB()),
		Outbox:  outbox.NewService(outbox.NewRepository(dbClient.DB()), logg),
		Cart:    cartService,
		Users:   usersRepo,
		Metrics: shopMetrics,
		Logger:  logg,
	})
	if err != nil {
		return err
	}

	router := routes.NewRouter(cfg, logg, dbClient, redisClient, sessionManager, httpMetrics, routes.Services{
		Auth:     authService,
		Register: registerService,
		Users:    userService,
		Products: productService,
		Cart:     cartService,
		Wishlist: wishlistService,
		Orders:   ordersService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	server := api.NewServer(cfg, addr, api.NewHandler(router, reg))

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(logCtx, "starting api server")

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
