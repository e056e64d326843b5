package handlers_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/tracker000/gridtrack/internal/domain/account"
	"github.com/tracker000/gridtrack/internal/http/handlers"
	"github.com/tracker000/gridtrack/internal/http/middlewares"
	"github.com/tracker000/gridtrack/internal/session"
)

type fakeProfiles struct {
	getByIDFn       func(ctx context.Context, id string) (account.Account, error)
	updateProfileFn func(ctx context.Context, id string, upd account.ProfileUpdate) (account.Account, error)
}

func (f *fakeProfiles) GetByID(ctx context.Context, id string) (account.Account, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}

	return account.Account{}, account.ErrNotFound
}

func (f *fakeProfiles) UpdateProfile(ctx context.Context, id string, upd account.ProfileUpdate) (account.Account, error) {
	if f.updateProfileFn != nil {
		return f.updateProfileFn(ctx, id, upd)
	}

	return account.Account{}, nil
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

func authedRouter(acct account.Account, method, path string, h gin.HandlerFunc) *gin.Engine {
	resolver := &fakeResolver{
		resolveFn: func(ctx context.Context, token string) (account.Account, error) {
			if token == "good-token" {
				return acct, nil
			}
			return account.Account{}, session.ErrUnauthenticated
		},
	}

	mw := middlewares.NewAuthMiddleware(resolver)

	r := gin.New()
	r.Handle(method, path, mw.RequireAuth(), h)

	return r
}

func TestMeReturnsResolvedAccount(t *testing.T) {
	acct := account.Account{ID: "id-1", Email: "a@example.com", Username: "alice", Role: "user"}

	h := handlers.NewProfileHandler(&fakeProfiles{})

	r := authedRouter(acct, http.MethodGet, "/api/me", h.Me)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer good-token")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200, body=%s", w.Code, w.Body.String())
	}

	if !bytes.Contains(w.Body.Bytes(), []byte(`"username":"alice"`)) {
		t.Fatalf("body missing username: %s", w.Body.String())
	}

	// the bcrypt hash must never appear in a response
	if bytes.Contains(w.Body.Bytes(), []byte("passwordHash")) {
		t.Fatalf("response leaked the password hash: %s", w.Body.String())
	}
}

func TestMeWithoutTokenIsRejected(t *testing.T) {
	h := handlers.NewProfileHandler(&fakeProfiles{})

	r := authedRouter(account.Account{}, http.MethodGet, "/api/me", h.Me)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/me", nil))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("got status %d, want 401", w.Code)
	}
}

func TestUpdateProfilePartial(t *testing.T) {
	acct := account.Account{ID: "id-1", Username: "alice"}

	tests := []struct {
		name      string
		body      string
		checkUpd  func(t *testing.T, upd account.ProfileUpdate)
		wantCode  int
		wantInRes string
	}{
		{
			name: "only_phone",
			body: `{"phone":"555-0100"}`,
			checkUpd: func(t *testing.T, upd account.ProfileUpdate) {
				if upd.Username != nil || upd.ProfilePic != nil {
					t.Error("absent fields should stay nil")
				}
				if upd.Phone == nil || *upd.Phone != "555-0100" {
					t.Errorf("phone pointer = %v", upd.Phone)
				}
			},
			wantCode: http.StatusOK,
		},
		{
			name: "name_and_pic",
			body: `{"name":"alice b","profilePic":"ZGF0YQ=="}`,
			checkUpd: func(t *testing.T, upd account.ProfileUpdate) {
				if upd.Username == nil || *upd.Username != "alice b" {
					t.Errorf("username pointer = %v", upd.Username)
				}
				if upd.ProfilePic == nil || *upd.ProfilePic != "ZGF0YQ==" {
					t.Errorf("profilePic pointer = %v", upd.ProfilePic)
				}
			},
			wantCode:  http.StatusOK,
			wantInRes: `"profilePic"`,
		},
		{
			name: "empty_body_is_a_noop_update",
			body: `{}`,
			checkUpd: func(t *testing.T, upd account.ProfileUpdate) {
				if upd.Username != nil || upd.Phone != nil || upd.ProfilePic != nil {
					t.Errorf("all fields should be nil, got %+v", upd)
				}
			},
			wantCode: http.StatusOK,
		},
		{
			name:     "empty_name_rejected",
			body:     `{"name":""}`,
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			var gotUpd account.ProfileUpdate
			called := false

			profiles := &fakeProfiles{
				updateProfileFn: func(ctx context.Context, id string, upd account.ProfileUpdate) (account.Account, error) {
					called = true
					gotUpd = upd

					out := acct
					if upd.ProfilePic != nil {
						out.ProfilePic = *upd.ProfilePic
					}
					return out, nil
				},
			}

			h := handlers.NewProfileHandler(profiles)

			r := authedRouter(acct, http.MethodPost, "/api/update-profile", h.UpdateProfile)

			req := httptest.NewRequest(http.MethodPost, "/api/update-profile", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer good-token")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantCode, w.Body.String())
			}

			if tt.checkUpd != nil {
				if !called {
					t.Fatal("store was never called")
				}
				tt.checkUpd(t, gotUpd)
			}

			if tt.wantInRes != "" && !bytes.Contains(w.Body.Bytes(), []byte(tt.wantInRes)) {
				t.Fatalf("body missing %q: %s", tt.wantInRes, w.Body.String())
			}
		})
	}
}
