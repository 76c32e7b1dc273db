package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gemlane/storefront-bff/api/controllers"
	"github.com/gemlane/storefront-bff/api/middleware"
	"github.com/gemlane/storefront-bff/internal/address"
	"github.com/gemlane/storefront-bff/internal/cart"
	"github.com/gemlane/storefront-bff/internal/checkout"
	"github.com/gemlane/storefront-bff/pkg/commerce"
	"github.com/gemlane/storefront-bff/pkg/config"
	"github.com/gemlane/storefront-bff/pkg/logger"
	"github.com/gemlane/storefront-bff/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redisClient *redis.Client,
	commerceClient *commerce.Client,
	resolver *address.Resolver,
	cartService cart.Service,
	checkoutManager *checkout.Manager,
	registry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, redisClient, commerceClient))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Cart and pricing work for guests and signed-in shoppers alike.
		r.Group(func(r chi.Router) {
			r.Use(
				middleware.OptionalAuth(cfg.JWT, logg),
				middleware.GuestCart(cfg.GuestCart, logg),
			)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(cartService, logg))
				r.Delete("/", controllers.CartClear(cartService, logg))
				r.Post("/items", controllers.CartAdd(cartService, logg))
				r.Put("/items/{productId}", controllers.CartSetQuantity(cartService, logg))
				r.Delete("/items/{productId}", controllers.CartRemove(cartService, logg))
				r.Post("/quote", controllers.CartQuote(cartService, logg))
			})

			r.Get("/shipping-options", controllers.ShippingOptions())
			r.Get("/address/resolve", controllers.AddressResolve(resolver, logg))
		})

		// Placing an order needs a signed-in shopper.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Route("/checkout", func(r chi.Router) {
				r.Post("/", controllers.Checkout(cartService, checkoutManager, resolver, logg))
				r.Get("/", controllers.CheckoutStatus(checkoutManager, logg))
				r.Post("/complete", controllers.CheckoutComplete(cartService, checkoutManager, logg))
				r.Post("/fail", controllers.CheckoutFail(checkoutManager, logg))
			})
		})
	})

	return r
}
