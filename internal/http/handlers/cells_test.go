package handlers_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tracker000/gridtrack/internal/cache"
	"github.com/tracker000/gridtrack/internal/domain/grid"
	"github.com/tracker000/gridtrack/internal/http/handlers"
	"github.com/tracker000/gridtrack/internal/observability"
)

type fakeCells struct {
	upsertFn func(ctx context.Context, managerID string, row, col int, value string) (grid.Cell, error)
	listFn   func(ctx context.Context, managerID string) ([]grid.Cell, error)
}

func (f *fakeCells) Upsert(ctx context.Context, managerID string, row, col int, value string) (grid.Cell, error) {
	if f.upsertFn != nil {
		return f.upsertFn(ctx, managerID, row, col, value)
	}

	return grid.Cell{}, nil
}

func (f *fakeCells) List(ctx context.Context, managerID string) ([]grid.Cell, error) {
	if f.listFn != nil {
		return f.listFn(ctx, managerID)
	}

	return []grid.Cell{}, nil
}

func newCellsHandler(cells *fakeCells, c cache.Store) *handlers.CellsHandler {
	if c == nil {
		c = cache.NewMemory(time.Minute)
	}

	return handlers.NewCellsHandler(cells, c, observability.NewProm(prometheus.NewRegistry()))
}

func TestSaveCellHandler(t *testing.T) {
	managerID := uuid.NewString()

	tests := []struct {
		name           string
		body           string
		setup          func(*fakeCells)
		wantStatusCode int
	}{
		{
			name: "success",
			body: `{"managerId":"` + managerID + `","row":3,"col":4,"content":"Q3 target"}`,
			setup: func(f *fakeCells) {
				f.upsertFn = func(ctx context.Context, gotID string, row, col int, value string) (grid.Cell, error) {
					if gotID != managerID || row != 3 || col != 4 || value != "Q3 target" {
						t.Errorf("upsert got (%s,%d,%d,%q)", gotID, row, col, value)
					}
					return grid.Cell{ManagerID: gotID, Row: row, Col: col, Value: value}, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "row_zero_is_valid",
			body:           `{"managerId":"` + managerID + `","row":0,"col":0,"content":""}`,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "negative_row",
			body:           `{"managerId":"` + managerID + `","row":-1,"col":0,"content":"x"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "missing_row",
			body:           `{"managerId":"` + managerID + `","col":0,"content":"x"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "manager_id_not_uuid",
			body:           `{"managerId":"north","row":0,"col":0,"content":"x"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "content_too_long",
			body:           `{"managerId":"` + managerID + `","row":0,"col":0,"content":"` + strings.Repeat("a", 256) + `"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "unknown_manager",
			body: `{"managerId":"` + managerID + `","row":0,"col":0,"content":"x"}`,
			setup: func(f *fakeCells) {
				f.upsertFn = func(ctx context.Context, managerID string, row, col int, value string) (grid.Cell, error) {
					return grid.Cell{}, grid.ErrManagerNotFound
				}
			},
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			cells := &fakeCells{}

			if tt.setup != nil {
				tt.setup(cells)
			}

			h := newCellsHandler(cells, nil)

			r := setupRouter(http.MethodPost, "/api/save-cell", h.SaveCell)

			w := doJSON(t, r, http.MethodPost, "/api/save-cell", tt.body)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantStatusCode == http.StatusOK && !bytes.Contains(w.Body.Bytes(), []byte(`"status":"saved"`)) {
				t.Fatalf("success body missing saved status: %s", w.Body.String())
			}
		})
	}
}

func TestListCellsUsesCache(t *testing.T) {
	listCalls := 0

	cells := &fakeCells{
		listFn: func(ctx context.Context, managerID string) ([]grid.Cell, error) {
			listCalls++
			return []grid.Cell{{ManagerID: managerID, Row: 0, Col: 0, Value: "v"}}, nil
		},
	}

	h := newCellsHandler(cells, cache.NewMemory(time.Minute))

	r := setupRouter(http.MethodGet, "/api/cells", h.ListCells)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/cells", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("request %d: got status %d, want 200", i, w.Code)
		}
	}

	if listCalls != 1 {
		t.Fatalf("store hit %d times, want 1 (cache should absorb the rest)", listCalls)
	}
}

func TestListCellsETagRevalidation(t *testing.T) {
	h := newCellsHandler(&fakeCells{}, nil)

	r := setupRouter(http.MethodGet, "/api/cells", h.ListCells)

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/cells", nil))

	etag := first.Header().Get("ETag")

	if etag == "" {
		t.Fatal("listing carried no ETag")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/cells", nil)
	req.Header.Set("If-None-Match", etag)

	second := httptest.NewRecorder()
	r.ServeHTTP(second, req)

	if second.Code != http.StatusNotModified {
		t.Fatalf("got status %d, want 304", second.Code)
	}
}

func TestSaveCellInvalidatesCache(t *testing.T) {
	managerID := uuid.NewString()
	listCalls := 0

	cells := &fakeCells{
		listFn: func(ctx context.Context, gotID string) ([]grid.Cell, error) {
			listCalls++
			return []grid.Cell{}, nil
		},
	}

	c := cache.NewMemory(time.Minute)
	h := newCellsHandler(cells, c)

	r := gin.New()
	r.GET("/api/cells", h.ListCells)
	r.POST("/api/save-cell", h.SaveCell)

	// prime the cache
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/cells", nil))

	// write through the handler, which must drop the cached listing
	doJSON(t, r, http.MethodPost, "/api/save-cell", `{"managerId":"`+managerID+`","row":0,"col":0,"content":"x"}`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/cells", nil))

	if listCalls != 2 {
		t.Fatalf("store hit %d times, want 2 (cache must be invalidated by the write)", listCalls)
	}
}
