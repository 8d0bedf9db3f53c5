package checkout

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/stockline/stockline/internal/inventory"
	"github.com/stockline/stockline/internal/platform/httpx"
	"github.com/stockline/stockline/internal/rbac"
)

// Handler wires the checkout endpoint.
type Handler struct {
	logger *slog.Logger
	engine *Engine
	rbac   rbac.Middleware
}

// NewHandler constructs the checkout handler.
func NewHandler(logger *slog.Logger, engine *Engine, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, engine: engine, rbac: rbac}
}

// MountRoutes registers the checkout route.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAuthenticated)
		r.Post("/cart/{customerID}/checkout", h.handleCheckout)
	})
}

func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	customerID, err := strconv.ParseInt(chi.URLParam(r, "customerID"), 10, 64)
	if err != nil || customerID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Path", "customer id must be a positive integer")
		return
	}

	result, err := h.engine.Checkout(r.Context(), customerID)
	if err != nil {
		if errors.Is(err, inventory.ErrInsufficientStock) {
			httpx.Problem(w, http.StatusBadRequest, "Insufficient Stock", err.Error())
			return
		}
		h.logger.Error("checkout failed", slog.Int64("customer_id", customerID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
}
