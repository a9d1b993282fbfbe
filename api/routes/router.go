package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flashmarket/storefront/api/controllers"
	"github.com/flashmarket/storefront/api/middleware"
	"github.com/flashmarket/storefront/api/responses"
	"github.com/flashmarket/storefront/internal/cart"
	"github.com/flashmarket/storefront/internal/checkout"
	"github.com/flashmarket/storefront/internal/countdown"
	"github.com/flashmarket/storefront/internal/orders"
	"github.com/flashmarket/storefront/internal/session"
	"github.com/flashmarket/storefront/internal/storefront"
	"github.com/flashmarket/storefront/internal/wishlist"
	"github.com/flashmarket/storefront/pkg/config"
	pkgerrors "github.com/flashmarket/storefront/pkg/errors"
	"github.com/flashmarket/storefront/pkg/logger"
	"github.com/flashmarket/storefront/pkg/metrics"
	"github.com/flashmarket/storefront/pkg/redis"
)

// Services are the domain services behind the HTTP surface.
type Services struct {
	Storefront storefront.Service
	Carts      cart.Service
	Sessions   session.Service
	Checkout   checkout.Service
	Orders     orders.Service
	Wishlist   wishlist.Service
}

// Observability carries the metric sinks and the readiness dependencies.
type Observability struct {
	Metrics  *metrics.Storefront
	Gatherer prometheus.Gatherer
	Pingers  map[string]controllers.Pinger
	// Countdown options let tests drive the stream clock.
	Countdown []countdown.Option
	Now       func() time.Time
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redisClient *redis.Client,
	svcs Services,
	obs Observability,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(logg),
		middleware.Recoverer(logg, obs.Metrics),
		middleware.Logging(logg, obs.Metrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "route not found"))
	})

	loginPolicy := middleware.LoginRateLimitPolicy(cfg.AuthRateLimit)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, obs.Pingers))
	})
	if obs.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(obs.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Session(middleware.SessionCookie{
			Name:   cfg.Session.CookieName,
			TTL:    cfg.Session.TTL,
			Secure: cfg.Session.Secure,
		}, svcs.Sessions, logg))

		r.Get("/home", controllers.Home(svcs.Storefront, logg))
		r.Get("/products", controllers.ListProducts(svcs.Storefront, logg))
		r.Get("/products/{productId}", controllers.GetProduct(svcs.Storefront, logg))
		r.Get("/categories", controllers.ListCategories(svcs.Storefront, logg))

		r.Route("/flash-sale", func(r chi.Router) {
			r.Get("/", controllers.FlashSale(svcs.Storefront, logg))
			r.Get("/countdown", controllers.CountdownSnapshot(obs.Now, logg))
			r.Get("/countdown/stream", controllers.CountdownStream(obs.Metrics, logg, obs.Countdown...))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartView(svcs.Carts, logg))
			r.Delete("/", controllers.CartClear(svcs.Carts, logg))
			r.Post("/items", controllers.CartAddItem(svcs.Carts, logg))
			r.Patch("/items/{productId}", controllers.CartUpdateItem(svcs.Carts, logg))
			r.Delete("/items/{productId}", controllers.CartRemoveItem(svcs.Carts, logg))
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", controllers.AuthSignup(svcs.Sessions, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(svcs.Sessions, logg))
			r.Post("/logout", controllers.AuthLogout(svcs.Sessions, logg))
			r.Get("/me", controllers.AuthMe(svcs.Sessions, logg))
			r.Post("/email/send", controllers.AuthSendVerificationEmail(svcs.Sessions, logg))
			r.Post("/email/verify", controllers.AuthVerifyEmail(svcs.Sessions, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(logg))
			r.Use(middleware.Idempotency(redisClient, cfg.Checkout.IdempotencyTTL, logg))

			r.Get("/checkout", controllers.CheckoutDraft(svcs.Checkout, logg))
			r.Post("/checkout", controllers.CheckoutSubmit(svcs.Checkout, logg))
			r.Post("/payments", controllers.Pay(svcs.Checkout, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.ListOrders(svcs.Orders, logg))
				r.Get("/receipts/{receiptId}", controllers.GetReceipt(svcs.Orders, logg))
				r.Post("/{orderId}/cancel", controllers.CancelOrder(svcs.Orders, logg))
				r.Post("/{orderId}/return", controllers.ReturnOrder(svcs.Orders, logg))
			})

			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", controllers.ListWishlist(svcs.Wishlist, logg))
				r.Post("/", controllers.AddWishlistItem(svcs.Wishlist, logg))
				r.Put("/{itemId}", controllers.UpdateWishlistItem(svcs.Wishlist, logg))
				r.Delete("/{itemId}", controllers.RemoveWishlistItem(svcs.Wishlist, logg))
			})
		})
	})

	return r
}
