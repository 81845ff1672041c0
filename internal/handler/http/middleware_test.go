package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/require"

	"github.com/siriwatk/bookstore-backend/internal/auth"
)

func newTestTokenManager() *auth.TokenManager {
	return auth.NewTokenManager("test-secret", time.Minute, time.Hour)
}

func TestRequireAuth_ValidCookieAttachesPrincipal(t *testing.T) {
	tokens := newTestTokenManager()
	u := &auth.User{ID: uuid.Must(uuid.NewV4()), Email: "somchai@example.com", Role: auth.RoleCustomer}

	accessToken, err := tokens.IssueAccessToken(u)
	require.NoError(t, err)

	var got Principal
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromContext(r.Context())
		require.True(t, ok)
		got = p
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/user/auth", nil)
	req.AddCookie(&http.Cookie{Name: accessTokenCookie, Value: accessToken})
	rr := httptest.NewRecorder()
	RequireAuth(tokens)(next).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, u.ID, got.UserID)
	require.Equal(t, u.Email, got.Email)
	require.Equal(t, auth.RoleCustomer, got.Role)
}

func TestRequireAuth_MissingCookie(t *testing.T) {
	tokens := newTestTokenManager()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/user/auth", nil)
	rr := httptest.NewRecorder()
	RequireAuth(tokens)(next).ServeHTTP(rr, req)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	expired := auth.NewTokenManager("test-secret", -time.Minute, time.Hour)
	u := &auth.User{ID: uuid.Must(uuid.NewV4()), Email: "somchai@example.com", Role: auth.RoleCustomer}

	accessToken, err := expired.IssueAccessToken(u)
	require.NoError(t, err)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/user/auth", nil)
	req.AddCookie(&http.Cookie{Name: accessTokenCookie, Value: accessToken})
	rr := httptest.NewRecorder()
	RequireAuth(newTestTokenManager())(next).ServeHTTP(rr, req)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequireAdmin_CustomerForbidden(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil)
	req = req.WithContext(WithPrincipal(req.Context(), Principal{UserID: uuid.Must(uuid.NewV4()), Role: auth.RoleCustomer}))
	rr := httptest.NewRecorder()
	RequireAdmin(next).ServeHTTP(rr, req)

	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRequireAdmin_AdminAllowed(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil)
	req = req.WithContext(WithPrincipal(req.Context(), Principal{UserID: uuid.Must(uuid.NewV4()), Role: auth.RoleAdmin}))
	rr := httptest.NewRecorder()
	RequireAdmin(next).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
}
