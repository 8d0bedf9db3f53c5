package inventory

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/stockline/stockline/internal/platform/httpx"
	"github.com/stockline/stockline/internal/rbac"
	"github.com/stockline/stockline/internal/shared"
)

// Handler wires HTTP endpoints for the stock ledger.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	rbac      rbac.Middleware
}

// NewHandler constructs the inventory handler.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New(), rbac: rbac}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.PermInventoryView))
		r.Get("/stocks", h.handleList)
		r.Get("/stocks/low", h.handleListLow)
		r.Get("/stocks/{productID}", h.handleGet)
		r.Get("/stocks/{productID}/movements", h.handleMovements)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(rbac.PermInventoryEdit))
		r.Post("/stocks", h.handleCreate)
		r.Put("/stocks/{productID}", h.handleAdjust)
		r.Post("/stocks/{productID}/movements", h.handlePostMovement)
	})
}

type createStockRequest struct {
	ProductID  int64 `json:"product_id" validate:"required,gt=0"`
	CategoryID int64 `json:"category_id" validate:"gte=0"`
	Quantity   int64 `json:"quantity" validate:"gte=0"`
}

type adjustStockRequest struct {
	Quantity int64 `json:"quantity" validate:"gte=0"`
}

type postMovementRequest struct {
	Delta          int64  `json:"quantity_change" validate:"required"`
	Type           string `json:"type" validate:"required"`
	IdempotencyKey string `json:"idempotency_key"`
}

type stockListResponse struct {
	Data       []Stock           `json:"data"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("count"))

	filter := StockFilter{Page: page, PerPage: perPage}
	if productStr := q.Get("product_id"); productStr != "" {
		productID, err := strconv.ParseInt(productStr, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Query", "product_id must be an integer")
			return
		}
		filter.ProductID = productID
	}

	stocks, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list stocks", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stockListResponse{
		Data:       stocks,
		Pagination: shared.NewPagination(page, perPage, total),
	})
}

func (h *Handler) handleListLow(w http.ResponseWriter, r *http.Request) {
	var threshold int64
	if thresholdStr := r.URL.Query().Get("threshold"); thresholdStr != "" {
		parsed, err := strconv.ParseInt(thresholdStr, 10, 64)
		if err != nil || parsed <= 0 {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Query", "threshold must be a positive integer")
			return
		}
		threshold = parsed
	}

	stocks, err := h.service.ListLowStock(r.Context(), threshold)
	if err != nil {
		h.logger.Error("list low stock", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": stocks})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.productID(w, r)
	if !ok {
		return
	}
	stock, err := h.service.Get(r.Context(), productID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stock)
}

func (h *Handler) handleMovements(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.productID(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	movements, err := h.service.ListMovements(r.Context(), productID, limit)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": movements})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createStockRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	stock, err := h.service.CreateStock(r.Context(), CreateStockInput{
		ProductID:  req.ProductID,
		CategoryID: req.CategoryID,
		Quantity:   req.Quantity,
		ActorID:    shared.ActorID(r.Context()),
	})
	if err != nil {
		h.logger.Error("create stock", slog.Int64("product_id", req.ProductID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, stock)
}

func (h *Handler) handleAdjust(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.productID(w, r)
	if !ok {
		return
	}
	var req adjustStockRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	stock, err := h.service.AdjustTo(r.Context(), productID, req.Quantity, shared.ActorID(r.Context()))
	if err != nil {
		h.logger.Error("adjust stock", slog.Int64("product_id", productID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stock)
}

func (h *Handler) handlePostMovement(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.productID(w, r)
	if !ok {
		return
	}
	var req postMovementRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	stock, err := h.service.ApplyMovement(r.Context(), MovementInput{
		ProductID: productID,
		Delta:     req.Delta,
		Type:      MovementType(req.Type),
		ActorID:   shared.ActorID(r.Context()),
		Key:       req.IdempotencyKey,
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientStock) {
			httpx.Problem(w, http.StatusBadRequest, "Insufficient Stock", err.Error())
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, stock)
}

func (h *Handler) productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil || productID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Path", "product id must be a positive integer")
		return 0, false
	}
	return productID, true
}
