package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roperito/roperito-backend/api/controllers"
	"github.com/roperito/roperito-backend/api/middleware"
	"github.com/roperito/roperito-backend/internal/auth"
	"github.com/roperito/roperito-backend/internal/favorites"
	"github.com/roperito/roperito-backend/internal/inquiries"
	"github.com/roperito/roperito-backend/internal/notifications"
	"github.com/roperito/roperito-backend/internal/orders"
	productsvc "github.com/roperito/roperito-backend/internal/products"
	"github.com/roperito/roperito-backend/internal/ratings"
	"github.com/roperito/roperito-backend/internal/users"
	"github.com/roperito/roperito-backend/pkg/auth/session"
	"github.com/roperito/roperito-backend/pkg/config"
	"github.com/roperito/roperito-backend/pkg/logger"
	"github.com/roperito/roperito-backend/pkg/metrics"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, uuid.UUID, error)
	Revoke(ctx context.Context, accessID string) error
}

// redisStore is the slice of the redis client the HTTP layer needs for
// idempotency replays and auth throttling.
type redisStore interface {
	Get(ctx context.Context, key string) (string, error)
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	IdempotencyKey(scope, id string) string
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Deps is everything NewRouter wires. A nil Redis disables idempotency
// replays and auth throttling.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	Gatherer prometheus.Gatherer
	Metrics  *metrics.HTTPMetrics
	Ready    map[string]controllers.Pinger

	Sessions sessionManager
	Redis    redisStore

	Auth      auth.Service
	Users     users.Service
	Products  productsvc.Service
	Catalog   productsvc.Catalog
	Favorites favorites.Service
	Orders    orders.Service
	Inquiries inquiries.Service
	Ratings   ratings.Service
	Realtime  *notifications.Registry
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(d.Metrics),
		middleware.CORS(cfg.Realtime.AllowedOrigins),
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

	idempotent := middleware.Idempotency(d.Redis, middleware.DefaultIdempotencyTTL, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.Ready))
	})
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, d.Redis, logg)).Post("/login", controllers.AuthLogin(d.Auth, logg))
			r.With(middleware.AuthRateLimit(registerPolicy, d.Redis, logg)).Post("/register", controllers.AuthRegister(d.Auth, logg))
			r.Post("/logout", controllers.AuthLogout(d.Sessions, cfg.JWT, logg))
			r.Post("/refresh", controllers.AuthRefresh(d.Sessions, cfg.JWT, logg))
		})

		r.Get("/realtime", controllers.Realtime(cfg, d.Sessions, d.Realtime, logg))

		// Public catalog.
		r.Get("/products", controllers.ListProducts(d.Products, false, logg))
		r.Get("/products/categories/{categoryId}", controllers.ListProducts(d.Products, true, logg))
		r.Get("/products/{productId}", controllers.GetProduct(d.Products, logg))
		r.Route("/metadata", func(r chi.Router) {
			r.Get("/categories", controllers.MetadataCategories(d.Catalog, logg))
			r.Get("/sizes", controllers.MetadataSizes(d.Catalog, logg))
			r.Get("/filters", controllers.MetadataFilters(d.Catalog, logg))
		})
		r.Get("/favorites/most-favorited", controllers.MostFavorited(d.Favorites, logg))
		r.Get("/ratings/user/{userId}", controllers.SellerRatingSummary(d.Ratings, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, d.Sessions, logg))

			r.Route("/users", func(r chi.Router) {
				r.Get("/me", controllers.UserMe(d.Users, logg))
				r.Put("/me", controllers.UserUpdateMe(d.Users, logg))
				r.Get("/products", controllers.UserProducts(d.Products, logg))
				r.Get("/favorites", controllers.ListFavorites(d.Favorites, logg))
				r.Get("/orders/buying", controllers.UserOrders(d.Orders, orders.RoleBuyer, logg))
				r.Get("/orders/selling", controllers.UserOrders(d.Orders, orders.RoleSeller, logg))
				r.Get("/ratings/received", controllers.UserRatings(d.Ratings, ratings.Received, logg))
				r.Get("/ratings/given", controllers.UserRatings(d.Ratings, ratings.Given, logg))
			})

			// Products, favorites and ratings share prefixes with public
			// routes, so they stay flat instead of mounting sub-routers.
			r.Post("/products", controllers.CreateProduct(d.Products, logg))
			r.Put("/products/{productId}", controllers.UpdateProduct(d.Products, logg))
			r.Put("/products/{productId}/images", controllers.ReplaceProductImages(d.Products, logg))
			r.Delete("/products/{productId}", controllers.DeleteProduct(d.Products, logg))

			r.Get("/favorites", controllers.ListFavorites(d.Favorites, logg))
			r.Get("/favorites/{productId}/check", controllers.CheckFavorite(d.Favorites, logg))
			r.With(idempotent).Post("/favorites/{productId}", controllers.AddFavorite(d.Favorites, logg))
			r.With(idempotent).Delete("/favorites/{productId}", controllers.RemoveFavorite(d.Favorites, logg))

			r.Route("/orders", func(r chi.Router) {
				r.With(idempotent).Post("/", controllers.CreateOrder(d.Orders, logg))

				r.Get("/message", controllers.ListInquiries(d.Inquiries, logg))
				r.With(idempotent).Post("/message", controllers.SendInquiry(d.Inquiries, logg))
				r.With(idempotent).Put("/message", controllers.ReplyInquiry(d.Inquiries, logg))
				r.Get("/messagesent", controllers.InquirySent(d.Inquiries, logg))
				r.Get("/potential-buyers/{productId}", controllers.PotentialBuyers(d.Inquiries, logg))

				r.Get("/{id}", controllers.GetOrder(d.Orders, logg))
				r.With(idempotent).Patch("/{id}/status", controllers.UpdateOrderStatus(d.Orders, logg))
				r.With(idempotent).Post("/{id}/confirm-delivery", controllers.ConfirmDelivery(d.Orders, logg))
				r.With(idempotent).Post("/{id}/cancel", controllers.CancelOrder(d.Orders, logg))
				r.With(idempotent).Delete("/{productId}", controllers.DeleteOrderByProduct(d.Orders, logg))
			})

			r.With(idempotent).Post("/ratings", controllers.CreateRating(d.Ratings, logg))
			r.Get("/ratings/ifrating", controllers.PendingRating(d.Ratings, logg))
			r.With(idempotent).Put("/ratings/{id}", controllers.UpdateRating(d.Ratings, logg))
			r.With(idempotent).Delete("/ratings/{id}", controllers.DeleteRating(d.Ratings, logg))
			r.With(idempotent).Post("/ratings/{id}/report", controllers.ReportRating(d.Ratings, logg))
		})
	})

	return r
}
