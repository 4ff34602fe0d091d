package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/inventory-tracker/api/controllers"
	"github.com/angelmondragon/inventory-tracker/api/middleware"
	"github.com/angelmondragon/inventory-tracker/internal/products"
	"github.com/angelmondragon/inventory-tracker/internal/sales"
	"github.com/angelmondragon/inventory-tracker/pkg/config"
	"github.com/angelmondragon/inventory-tracker/pkg/db"
	"github.com/angelmondragon/inventory-tracker/pkg/logger"
	"github.com/angelmondragon/inventory-tracker/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	idempotencyStore redis.IdempotencyStore,
	metricsHandler http.Handler,
	productService products.Service,
	saleProcessor controllers.SaleProcessor,
	saleService sales.Service,
	revenueService controllers.RevenueReporter,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.Tracing("inventory-api"),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if cfg.Metrics.Enabled && metricsHandler != nil {
		r.Method(http.MethodGet, cfg.Metrics.Path, metricsHandler)
	}

	idempotent := middleware.Idempotency(idempotencyStore, cfg.FeatureFlags.IdempotencyTTL, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(productService, logg))
			r.Post("/", controllers.ProductCreate(productService, logg))
			r.Get("/low-stock", controllers.ProductLowStock(productService, logg))
			r.Get("/search", controllers.ProductSearch(productService, logg))
			r.Get("/{productId}", controllers.ProductGet(productService, logg))
			r.Put("/{productId}", controllers.ProductUpdate(productService, logg))
			r.Delete("/{productId}", controllers.ProductDelete(productService, logg))
			r.Patch("/{productId}/quantity", controllers.ProductSetQuantity(productService, logg))
		})

		r.Route("/sales", func(r chi.Router) {
			r.Get("/", controllers.SaleList(saleService, logg))
			r.With(idempotent).Post("/", controllers.SaleCreate(saleProcessor, logg))
			r.Get("/{saleId}", controllers.SaleGet(saleService, logg))
			r.Delete("/{saleId}", controllers.SaleVoid(saleService, logg))
		})

		r.Route("/revenue", func(r chi.Router) {
			r.Get("/monthly", controllers.RevenueMonthly(revenueService, logg))
			r.Get("/yearly", controllers.RevenueYearly(revenueService, logg))
		})
	})

	return r
}
