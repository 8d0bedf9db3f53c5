package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/stockline/stockline/internal/auth"
	"github.com/stockline/stockline/internal/cart"
	"github.com/stockline/stockline/internal/catalog/categories"
	"github.com/stockline/stockline/internal/catalog/products"
	"github.com/stockline/stockline/internal/inventory"
	"github.com/stockline/stockline/internal/observability"
	"github.com/stockline/stockline/internal/returns"
	"github.com/stockline/stockline/internal/sales/checkout"
	"github.com/stockline/stockline/internal/sales/customers"
	"github.com/stockline/stockline/internal/sales/transactions"
	"github.com/stockline/stockline/internal/shared"
	"github.com/stockline/stockline/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger       *slog.Logger
	Config       *Config
	TokenManager *shared.TokenManager

	AuthHandler         *auth.Handler
	UsersHandler        *users.Handler
	CategoriesHandler   *categories.Handler
	ProductsHandler     *products.Handler
	InventoryHandler    *inventory.Handler
	CartHandler         *cart.Handler
	CheckoutHandler     *checkout.Handler
	TransactionsHandler *transactions.Handler
	CustomersHandler    *customers.Handler
	ReturnsHandler      *returns.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router with Stockline defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:       params.Logger,
		Config:       params.Config,
		TokenManager: params.TokenManager,
		Metrics:      params.Metrics,
	}) {
		r.Use(mw)
	}

	if params.Config == nil || !params.Config.IsProduction() {
		r.Use(chimw.Logger)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())

	params.AuthHandler.MountRoutes(r)

	r.Route("/api/v1", func(r chi.Router) {
		params.UsersHandler.MountRoutes(r)
		params.CategoriesHandler.MountRoutes(r)
		params.ProductsHandler.MountRoutes(r)
		params.InventoryHandler.MountRoutes(r)
		params.CartHandler.MountRoutes(r)
		params.CheckoutHandler.MountRoutes(r)
		params.TransactionsHandler.MountRoutes(r)
		params.CustomersHandler.MountRoutes(r)
		params.ReturnsHandler.MountRoutes(r)
	})

	return r
}
