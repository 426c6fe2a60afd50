package app

import (
	"log/slog"
	"net/http"
	"reflect"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/bizdesk/bizdesk/internal/delivery/challans"
	"github.com/bizdesk/bizdesk/internal/inventory"
	"github.com/bizdesk/bizdesk/internal/inventory/journals"
	"github.com/bizdesk/bizdesk/internal/masterdata/companies"
	"github.com/bizdesk/bizdesk/internal/masterdata/groups"
	"github.com/bizdesk/bizdesk/internal/masterdata/parties"
	"github.com/bizdesk/bizdesk/internal/masterdata/products"
	"github.com/bizdesk/bizdesk/internal/masterdata/warehouses"
	"github.com/bizdesk/bizdesk/internal/observability"
	"github.com/bizdesk/bizdesk/internal/payroll/attendance"
	"github.com/bizdesk/bizdesk/internal/payroll/designations"
	"github.com/bizdesk/bizdesk/internal/payroll/employees"
	"github.com/bizdesk/bizdesk/internal/procurement/orders"
	"github.com/bizdesk/bizdesk/internal/procurement/returns"
	"github.com/bizdesk/bizdesk/internal/platform/httpx"
	"github.com/bizdesk/bizdesk/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger     *slog.Logger
	Config     *Config
	Metrics    *observability.Metrics
	Calculator observability.Calculator

	Companies  *companies.Handler
	Customers  *parties.Handler
	Vendors    *parties.Handler
	Brands     *groups.Handler
	Categories *groups.Handler
	Products   *products.Handler
	Warehouses *warehouses.Handler

	Challans       *challans.Handler
	PurchaseOrders *orders.Handler
	Returns        *returns.Handler
	Stock          *inventory.Handler
	Journals       *journals.Handler

	Designations *designations.Handler
	Employees    *employees.Handler
	Attendance   *attendance.Handler

	Jobs *jobs.Handler
}

// mounter is implemented by every company scoped handler.
type mounter interface {
	MountRoutes(r chi.Router)
}

// NewRouter constructs the chi.Router with bizdesk defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}
	r.Use(chimw.Logger)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "no route for "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusMethodNotAllowed, "Method Not Allowed", "")
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.Jobs != nil {
		r.Route("/jobs", params.Jobs.MountRoutes)
	}

	r.Route("/api/v1", func(r chi.Router) {
		if params.Calculator != nil {
			r.Post("/totals", totalsHandler(params.Calculator, params.Logger))
		}
		if params.Companies == nil {
			return
		}
		params.Companies.MountRoutes(r, func(r chi.Router) {
			mountAll(r,
				params.Customers, params.Vendors,
				params.Brands, params.Categories,
				params.Products, params.Warehouses,
				params.Challans, params.PurchaseOrders, params.Returns,
				params.Stock, params.Journals,
			)
			r.Route("/payroll", func(r chi.Router) {
				mountAll(r, params.Designations, params.Employees, params.Attendance)
			})
		})
	})

	return r
}

// mountAll mounts each handler, skipping nil ones.
func mountAll(r chi.Router, handlers ...mounter) {
	for _, h := range handlers {
		if isNil(h) {
			continue
		}
		h.MountRoutes(r)
	}
}

func isNil(h mounter) bool {
	if h == nil {
		return true
	}
	v := reflect.ValueOf(h)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
