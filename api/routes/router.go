package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/cartsync-backend/api/controllers"
	"github.com/angelmondragon/cartsync-backend/api/middleware"
	"github.com/angelmondragon/cartsync-backend/internal/auth"
	"github.com/angelmondragon/cartsync-backend/internal/cart"
	"github.com/angelmondragon/cartsync-backend/internal/orders"
	"github.com/angelmondragon/cartsync-backend/internal/products"
	"github.com/angelmondragon/cartsync-backend/internal/users"
	"github.com/angelmondragon/cartsync-backend/internal/wishlist"
	"github.com/angelmondragon/cartsync-backend/pkg/auth/session"
	"github.com/angelmondragon/cartsync-backend/pkg/config"
	"github.com/angelmondragon/cartsync-backend/pkg/logger"
	"github.com/angelmondragon/cartsync-backend/pkg/metrics"
	"github.com/angelmondragon/cartsync-backend/pkg/redis"
)

type sessionManager interface {
	session.Checker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

// Services groups the domain services mounted by the router.
type Services struct {
	Auth     auth.Service
	Register auth.RegisterService
	Users    users.Service
	Products products.Service
	Cart     cart.Service
	Wishlist wishlist.Service
	Orders   orders.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisClient *redis.Client,
	sessionManager sessionManager,
	httpMetrics *metrics.HTTPMetrics,
	svc Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(cfg.HTTP.CORSOrigins),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	checks := []controllers.ReadyCheck{{Name: "database", Pinger: dbP}}
	if redisClient != nil {
		checks = append(checks, controllers.ReadyCheck{Name: "redis", Pinger: redisClient})
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, checks...))
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.With(rateLimited(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(svc.Auth, logg))
		r.With(rateLimited(registerPolicy, redisClient, logg)).Post("/register", controllers.AuthRegister(svc.Register, logg))
		r.Post("/logout", controllers.AuthLogout(sessionManager, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(sessionManager, cfg.JWT, logg))
	})

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", controllers.ProductsList(svc.Products, logg))
		r.Get("/categories", controllers.ProductsCategories(svc.Products, logg))
		r.Get("/{productId}", controllers.ProductsGet(svc.Products, logg))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionManager, logg))

		r.Route("/api/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(svc.Cart, logg))
			r.Post("/", controllers.CartAddItem(svc.Cart, logg))
			r.Delete("/", controllers.CartClear(svc.Cart, logg))
			r.Post("/update", controllers.CartUpdateItem(svc.Cart, logg))
			r.Delete("/remove", controllers.CartRemoveItem(svc.Cart, logg))
		})

		r.Route("/api/wishlist", func(r chi.Router) {
			r.Get("/", controllers.WishlistList(svc.Wishlist, logg))
			r.Post("/", controllers.WishlistAdd(svc.Wishlist, logg))
			r.Delete("/remove", controllers.WishlistRemove(svc.Wishlist, logg))
		})

		r.Route("/api/orders", func(r chi.Router) {
			if redisClient != nil {
				r.Use(middleware.Idempotency(redisClient, cfg.Idempotency.OrderTTL, logg))
			}
			r.Post("/", controllers.OrdersPlace(svc.Orders, logg))
			r.Get("/", controllers.OrdersList(svc.Orders, logg))
			r.Get("/{orderId}", controllers.OrdersGet(svc.Orders, logg))
		})

		r.Route("/api/user", func(r chi.Router) {
			r.Get("/profile", controllers.UserProfile(svc.Users, logg))
			r.Put("/profile", controllers.UserUpdateProfile(svc.Users, logg))
			r.Get("/addresses", controllers.UserAddresses(svc.Users, logg))
			r.Post("/addresses", controllers.UserAddAddress(svc.Users, logg))
		})
	})

	return r
}

func rateLimited(policy middleware.AuthRateLimitPolicy, redisClient *redis.Client, logg *logger.Logger) func(http.Handler) http.Handler {
	if redisClient == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return middleware.AuthRateLimit(policy, redisClient, logg)
}
