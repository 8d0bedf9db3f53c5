package transactions

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stockline/stockline/internal/platform/httpx"
	"github.com/stockline/stockline/internal/rbac"
	"github.com/stockline/stockline/internal/sales"
	"github.com/stockline/stockline/internal/shared"
)

// Handler wires the sales history endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler constructs the transactions handler.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers sales history routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.PermInventoryView))
		r.Get("/sales", h.handleList)
		r.Get("/sales/{transactionID}", h.handleGet)
	})
}

type listResponse struct {
	Data       []sales.Transaction `json:"data"`
	Pagination shared.Pagination   `json:"pagination"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("count"))

	filter := sales.TransactionFilter{Page: page, PerPage: perPage, Status: q.Get("status")}
	if filter.Status != "" && !sales.ValidStatus(filter.Status) {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Query", "status must be pending, completed or cancelled")
		return
	}
	if customerStr := q.Get("customer_id"); customerStr != "" {
		customerID, err := strconv.ParseInt(customerStr, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Query", "customer_id must be an integer")
			return
		}
		filter.CustomerID = customerID
	}
	if fromStr := q.Get("from"); fromStr != "" {
		from, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Query", "from must be YYYY-MM-DD")
			return
		}
		filter.From = from
	}
	if toStr := q.Get("to"); toStr != "" {
		to, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Query", "to must be YYYY-MM-DD")
			return
		}
		filter.To = to.AddDate(0, 0, 1)
	}

	result, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list transactions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if result == nil {
		result = []sales.Transaction{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{
		Data:       result,
		Pagination: shared.NewPagination(page, perPage, total),
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "transactionID"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Path", "transaction id must be a positive integer")
		return
	}
	detail, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, detail)
}
