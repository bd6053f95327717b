package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"github.com/shinyyama/bookswap-backend/internal/reqctx"
	"github.com/stretchr/testify/require"
)

type stubVerifier struct{}

func (stubVerifier) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	if idToken != "good" {
		return nil, errors.New("bad token")
	}
	return &auth.Token{UID: "user-1"}, nil
}

func serve(t *testing.T, m *AuthMiddleware, header, value string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	e := echo.New()
	var seen string
	e.GET("/", func(c echo.Context) error {
		seen = reqctx.Actor(c.Request().Context())
		return c.NoContent(http.StatusNoContent)
	}, m.RequireAuth)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(header, value)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec, seen
}

func TestRequireAuthWithToken(t *testing.T) {
	m := &AuthMiddleware{verifier: stubVerifier{}}

	rec, uid := serve(t, m, "Authorization", "Bearer good")
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "user-1", uid)

	rec, _ = serve(t, m, "Authorization", "Bearer bad")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "invalid_token")

	rec, _ = serve(t, m, DevUserHeader, "user-2")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthDevHeader(t *testing.T) {
	m := NewDevAuthMiddleware()

	rec, uid := serve(t, m, DevUserHeader, "user-2")
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "user-2", uid)

	rec, _ = serve(t, m, "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
