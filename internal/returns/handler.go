package returns

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/stockline/stockline/internal/inventory"
	"github.com/stockline/stockline/internal/platform/httpx"
	"github.com/stockline/stockline/internal/rbac"
	"github.com/stockline/stockline/internal/shared"
)

// Handler wires return endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	rbac      rbac.Middleware
}

// NewHandler constructs the returns handler.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New(), rbac: rbac}
}

// MountRoutes registers return routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.PermInventoryView))
		r.Get("/returns", h.handleList)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(rbac.PermInventoryEdit))
		r.Post("/returns", h.handleRecord)
	})
}

type recordRequest struct {
	ProductID  int64  `json:"product_id" validate:"required,gt=0"`
	CustomerID int64  `json:"customer_id" validate:"gte=0"`
	Quantity   int64  `json:"quantity" validate:"required,gt=0"`
	Reason     string `json:"reason" validate:"max=255"`
}

func (h *Handler) handleRecord(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	ret, err := h.service.Record(r.Context(), Input{
		ProductID:  req.ProductID,
		CustomerID: req.CustomerID,
		Quantity:   req.Quantity,
		Reason:     req.Reason,
		ActorID:    shared.ActorID(r.Context()),
	})
	if err != nil {
		if !errors.Is(err, inventory.ErrStockNotFound) {
			h.logger.Error("record return", slog.Int64("product_id", req.ProductID), slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, ret)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var productID int64
	if productStr := q.Get("product_id"); productStr != "" {
		parsed, err := strconv.ParseInt(productStr, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Query", "product_id must be an integer")
			return
		}
		productID = parsed
	}
	limit, _ := strconv.Atoi(q.Get("limit"))

	returns, err := h.service.List(r.Context(), productID, limit)
	if err != nil {
		h.logger.Error("list returns", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": returns})
}
