package inventory

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bizdesk/bizdesk/internal/platform/httpx"
	"github.com/bizdesk/bizdesk/internal/shared"
)

// Handler wires the read-only stock endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers stock routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/stock/balances", h.balances)
	r.Get("/stock/card", h.card)
}

func (h *Handler) balances(w http.ResponseWriter, r *http.Request) {
	var filter BalanceFilter
	var err error
	if filter.WarehouseID, err = httpx.QueryInt64(r, "warehouse_id"); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if filter.ProductID, err = httpx.QueryInt64(r, "product_id"); err != nil {
		httpx.RespondError(w, err)
		return
	}
	filter.NonZero, _ = strconv.ParseBool(r.URL.Query().Get("non_zero"))

	page, err := h.service.Balances(r.Context(), shared.CompanyFromContext(r.Context()), shared.ParsePageRequest(r.URL.Query()), filter)
	if err != nil {
		h.logger.Error("list stock balances failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) card(w http.ResponseWriter, r *http.Request) {
	var filter StockCardFilter
	warehouseID, err := httpx.QueryInt64(r, "warehouse_id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	productID, err := httpx.QueryInt64(r, "product_id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if warehouseID != nil {
		filter.WarehouseID = *warehouseID
	}
	if productID != nil {
		filter.ProductID = *productID
	}
	if filter.From, err = httpx.QueryDate(r, "from"); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if filter.To, err = httpx.QueryDate(r, "to"); err != nil {
		httpx.RespondError(w, err)
		return
	}
	filter.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := h.service.Card(r.Context(), shared.CompanyFromContext(r.Context()), filter)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": entries})
}
