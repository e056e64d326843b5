package middlewares_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/tracker000/gridtrack/internal/domain/account"
	"github.com/tracker000/gridtrack/internal/http/middlewares"
	"github.com/tracker000/gridtrack/internal/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeResolver struct {
	resolveFn func(ctx context.Context, token string) (account.Account, error)
}

func (f *fakeResolver) Resolve(ctx context.Context, token string) (account.Account, error) {
	if f.resolveFn != nil {
		return f.resolveFn(ctx, token)
	}

	return account.Account{}, session.ErrUnauthenticated
}

func okHandler(c *gin.Context) {
	acct, _ := middlewares.AccountFromContext(c)

	c.JSON(http.StatusOK, gin.H{"id": acct.ID, "role": acct.Role})
}

func get(r *gin.Engine, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)

	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func TestRequireAuth(t *testing.T) {
	resolver := &fakeResolver{
		resolveFn: func(ctx context.Context, token string) (account.Account, error) {
			switch token {
			case "live-token":
				return account.Account{ID: "id-1", Role: account.RoleUser}, nil
			case "boom":
				return account.Account{}, errors.New("store down")
			default:
				return account.Account{}, session.ErrUnauthenticated
			}
		},
	}

	mw := middlewares.NewAuthMiddleware(resolver)

	r := gin.New()
	r.GET("/protected", mw.RequireAuth(), okHandler)

	tests := []struct {
		name           string
		authorization  string
		wantStatusCode int
	}{
		{name: "valid_token", authorization: "Bearer live-token", wantStatusCode: http.StatusOK},
		{name: "missing_header", authorization: "", wantStatusCode: http.StatusUnauthorized},
		{name: "not_bearer", authorization: "Basic abc", wantStatusCode: http.StatusUnauthorized},
		{name: "revoked_or_unknown", authorization: "Bearer dead-token", wantStatusCode: http.StatusUnauthorized},
		{name: "store_failure", authorization: "Bearer boom", wantStatusCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			w := get(r, tt.authorization)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestRequireRoleExactMatch(t *testing.T) {
	tests := []struct {
		name           string
		role           string
		required       string
		wantStatusCode int
	}{
		{name: "admin_passes_admin_gate", role: account.RoleAdmin, required: account.RoleAdmin, wantStatusCode: http.StatusOK},
		{name: "user_blocked_from_admin_gate", role: account.RoleUser, required: account.RoleAdmin, wantStatusCode: http.StatusForbidden},
		// no hierarchy: admin does not pass a user-only gate either
		{name: "admin_blocked_from_user_gate", role: account.RoleAdmin, required: account.RoleUser, wantStatusCode: http.StatusForbidden},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			resolver := &fakeResolver{
				resolveFn: func(ctx context.Context, token string) (account.Account, error) {
					return account.Account{ID: "id-1", Role: tt.role}, nil
				},
			}

			mw := middlewares.NewAuthMiddleware(resolver)

			r := gin.New()
			r.GET("/protected", mw.RequireAuth(), mw.RequireRole(tt.required), okHandler)

			w := get(r, "Bearer any")

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

// The caller cannot smuggle a role in via headers; only the resolved session
// decides.
func TestRoleHeaderIsIgnored(t *testing.T) {
	resolver := &fakeResolver{
		resolveFn: func(ctx context.Context, token string) (account.Account, error) {
			return account.Account{ID: "id-1", Role: account.RoleUser}, nil
		},
	}

	mw := middlewares.NewAuthMiddleware(resolver)

	r := gin.New()
	r.GET("/protected", mw.RequireAuth(), mw.RequireRole(account.RoleAdmin), okHandler)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer any")
	req.Header.Set("X-Role", "admin")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("got status %d, want 403 despite X-Role header", w.Code)
	}
}
