package companies

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

// MountRoutes registers /companies and /companies/{companyID}. Each scoped
// mount runs under /companies/{companyID} with the company resolved into the
// request context.
func (h *Handler) MountRoutes(r chi.Router, scoped ...func(chi.Router)) {
	r.Route("/companies", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Route("/{companyID}", func(r chi.Router) {
			r.Use(h.companyContext)
			r.Get("/", h.get)
			r.Patch("/", h.update)
			r.Delete("/", h.delete)
			for _, mount := range scoped {
				mount(r)
			}
		})
	})
}

// companyContext rejects unknown companies and stores the id for handlers
// below it.
func (h *Handler) companyContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := httpx.PathID(r, "companyID")
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		ok, err := h.service.Exists(r.Context(), id)
		if err != nil {
			h.logger.Error("resolve company failed", slog.Int64("company_id", id), slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		if !ok {
			httpx.RespondError(w, ErrNotFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithCompany(r.Context(), id)))
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.List(r.Context(), shared.ParsePageRequest(r.URL.Query()))
	if err != nil {
		h.logger.Error("list companies failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.Get(r.Context(), shared.CompanyFromContext(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.logger.Warn("create company failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.Update(r.Context(), shared.CompanyFromContext(r.Context()), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), shared.CompanyFromContext(r.Context())); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}
