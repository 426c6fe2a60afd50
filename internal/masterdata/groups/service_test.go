package groups

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizdesk/bizdesk/internal/platform/cache"
	"github.com/bizdesk/bizdesk/internal/shared"
)

type memRepo struct {
	rows   map[int64]Group
	nextID int64
}

func newMemRepo() *memRepo { return &memRepo{rows: map[int64]Group{}} }

func (m *memRepo) List(_ context.Context, companyID int64, _ shared.PageRequest) ([]Group, int, error) {
	var out []Group
	for _, g := range m.rows {
		if g.CompanyID == companyID {
			out = append(out, g)
		}
	}
	return out, len(out), nil
}

func (m *memRepo) Get(_ context.Context, companyID, id int64) (Group, error) {
	g, ok := m.rows[id]
	if !ok || g.CompanyID != companyID {
		return Group{}, ErrNotFound
	}
	return g, nil
}

func (m *memRepo) Create(_ context.Context, g Group) (Group, error) {
	for _, existing := range m.rows {
		if existing.CompanyID == g.CompanyID && strings.EqualFold(existing.Name, g.Name) {
			return Group{}, ErrDuplicateName
		}
	}
	m.nextID++
	g.ID = m.nextID
	m.rows[g.ID] = g
	return g, nil
}

func (m *memRepo) Update(_ context.Context, companyID, id int64, updates map[string]any) error {
	g, ok := m.rows[id]
	if !ok || g.CompanyID != companyID {
		return ErrNotFound
	}
	if v, ok := updates["name"].(string); ok {
		g.Name = v
	}
	if v, ok := updates["is_active"].(bool); ok {
		g.IsActive = v
	}
	m.rows[id] = g
	return nil
}

func (m *memRepo) Delete(_ context.Context, companyID, id int64) error {
	g, ok := m.rows[id]
	if !ok || g.CompanyID != companyID {
		return ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func TestCreateTrimsAndRejectsDuplicates(t *testing.T) {
	svc := NewService(newMemRepo(), KindBrand, nil)
	ctx := context.Background()

	g, err := svc.Create(ctx, 1, CreateRequest{Name: "  Tata "})
	require.NoError(t, err)
	assert.Equal(t, "Tata", g.Name)
	assert.True(t, g.IsActive)

	_, err = svc.Create(ctx, 1, CreateRequest{Name: "tata"})
	assert.ErrorIs(t, err, shared.ErrDuplicate)

	_, err = svc.Create(ctx, 2, CreateRequest{Name: "Tata"})
	assert.NoError(t, err)
}

func TestCreateBlankName(t *testing.T) {
	svc := NewService(newMemRepo(), KindCategory, nil)
	_, err := svc.Create(context.Background(), 1, CreateRequest{Name: "   "})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestUpdateBumpsProductCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	versions := cache.NewVersioned(client, "bizdesk", time.Minute)

	ctx := context.Background()
	svc := NewService(newMemRepo(), KindCategory, versions)
	g, err := svc.Create(ctx, 7, CreateRequest{Name: "Fasteners"})
	require.NoError(t, err)

	before, err := versions.Version(ctx, shared.ProductCacheScope(7))
	require.NoError(t, err)

	off := false
	updated, err := svc.Update(ctx, 7, g.ID, UpdateRequest{IsActive: &off})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	after, err := versions.Version(ctx, shared.ProductCacheScope(7))
	require.NoError(t, err)
	assert.Equal(t, before+1, after)
}

func TestHandlerRoutesByKind(t *testing.T) {
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), NewService(newMemRepo(), KindBrand, nil))
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(shared.ContextWithCompany(req.Context(), 1)))
		})
	})
	h.MountRoutes(r)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/brands", strings.NewReader(`{"name":"Bosch"}`)))
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/brands", strings.NewReader(`{"name":"Bosch"}`)))
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPatch, "/brands/abc", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/brands/1", nil))
	assert.Equal(t, http.StatusNoContent, rr.Code)
}
