package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tributolabs/fiscalis/internal/auth"
	"github.com/tributolabs/fiscalis/internal/types"
)

func TestExtractBearerToken(t *testing.T) {
	cases := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc123", "abc123"},
		{"Bearer   abc123  ", "abc123"},
		{"bearer abc123", ""},
		{"Basic abc123", ""},
		{"Bearer", ""},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		if got := extractBearerToken(req); got != tc.want {
			t.Errorf("extractBearerToken(%q) = %q, want %q", tc.header, got, tc.want)
		}
	}
}

func TestAuthenticator_AttachesClaims(t *testing.T) {
	tokens := auth.NewTokenManager(testSecret, time.Hour)
	token, _, err := tokens.Issue(types.User{
		ID:    "user-1",
		Email: "analyst@fiscal.local",
		Role:  types.RoleAnalyst,
	})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	var gotClaims *auth.Claims
	handler := Authenticator(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims = MustClaimsFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if gotClaims == nil || gotClaims.Subject != "user-1" || gotClaims.Role != types.RoleAnalyst {
		t.Errorf("claims = %+v", gotClaims)
	}
}

func TestAuthenticator_RejectsExpiredToken(t *testing.T) {
	expired := auth.NewTokenManager(testSecret, -time.Minute)
	token, _, err := expired.Issue(types.User{ID: "user-1", Role: types.RoleViewer})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	handler := Authenticator(auth.NewTokenManager(testSecret, time.Hour))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler reached with expired token")
		}),
	)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RequireRole(types.RoleAdmin, types.RoleAnalyst)(next)

	cases := []struct {
		role types.Role
		want int
	}{
		{types.RoleAdmin, http.StatusOK},
		{types.RoleAnalyst, http.StatusOK},
		{types.RoleViewer, http.StatusForbidden},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithClaims(req.Context(), &auth.Claims{Role: tc.role}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Errorf("role %s: status = %d, want %d", tc.role, rec.Code, tc.want)
		}
	}
}

func TestClaimsFromContext_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := ClaimsFromContext(req.Context()); err != ErrNoClaimsInContext {
		t.Errorf("err = %v, want ErrNoClaimsInContext", err)
	}
}

func TestMetricsMiddleware_CountsServerErrors(t *testing.T) {
	m := NewMetrics()

	boom := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	ok := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	for i := 0; i < 3; i++ {
		boom.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}
	ok.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	snapshot := m.Snapshot()
	if snapshot.TotalRequests != 4 {
		t.Errorf("TotalRequests = %d, want 4", snapshot.TotalRequests)
	}
	// 4xx responses are the client's problem, not an error of ours.
	if snapshot.TotalErrors != 3 {
		t.Errorf("TotalErrors = %d, want 3", snapshot.TotalErrors)
	}
}
