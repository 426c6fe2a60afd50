package attendance

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bizdesk/bizdesk/internal/platform/httpx"
	"github.com/bizdesk/bizdesk/internal/shared"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/attendance", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/bulk", h.bulk)
		r.Get("/summary", h.summary)
		r.Delete("/{id}", h.delete)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var (
		filters ListFilters
		err     error
	)
	if filters.EmployeeID, err = httpx.QueryInt64(r, "employee_id"); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if filters.From, err = httpx.QueryDate(r, "from"); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if filters.To, err = httpx.QueryDate(r, "to"); err != nil {
		httpx.RespondError(w, err)
		return
	}
	filters.Status = Status(r.URL.Query().Get("status"))

	page, err := h.service.List(r.Context(), shared.CompanyFromContext(r.Context()), shared.ParsePageRequest(r.URL.Query()), filters)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) bulk(w http.ResponseWriter, r *http.Request) {
	var req BulkRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	n, err := h.service.MarkBulk(r.Context(), shared.CompanyFromContext(r.Context()), req)
	if err != nil {
		h.logger.Warn("mark attendance failed", slog.String("date", req.Date), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"date": req.Date, "saved": n})
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.MonthlySummary(r.Context(), shared.CompanyFromContext(r.Context()), r.URL.Query().Get("month"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), shared.CompanyFromContext(r.Context()), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}
