package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"github.com/shinyyama/bookswap-backend/internal/reqctx"
)

// DevUserHeader carries the caller identity when token verification is disabled.
const DevUserHeader = "X-Debug-User"

type tokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

type AuthMiddleware struct {
	verifier tokenVerifier
	client   *auth.Client
}

func NewAuthMiddleware(ctx context.Context, projectID string) (*AuthMiddleware, error) {
	if projectID == "" {
		return nil, errors.New("FIREBASE_PROJECT_ID is not set")
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID})
	if err != nil {
		return nil, err
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, err
	}
	return &AuthMiddleware{verifier: client, client: client}, nil
}

// NewDevAuthMiddleware trusts the DevUserHeader. Only for local development.
func NewDevAuthMiddleware() *AuthMiddleware {
	return &AuthMiddleware{}
}

func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		uid, code := m.identify(c)
		if uid == "" {
			return c.JSON(http.StatusUnauthorized, unauthorized(code))
		}
		c.Set("uid", uid)
		req := c.Request()
		c.SetRequest(req.WithContext(reqctx.WithActor(req.Context(), uid)))
		return next(c)
	}
}

func (m *AuthMiddleware) identify(c echo.Context) (string, string) {
	if m.verifier == nil {
		return strings.TrimSpace(c.Request().Header.Get(DevUserHeader)), "unauthorized"
	}
	authz := c.Request().Header.Get("Authorization")
	if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
		return "", "unauthorized"
	}
	tokenStr := strings.TrimPrefix(authz, "Bearer ")
	token, err := m.verifier.VerifyIDToken(c.Request().Context(), tokenStr)
	if err != nil {
		return "", "invalid_token"
	}
	return token.UID, ""
}

// Client is nil when token verification is disabled.
func (m *AuthMiddleware) Client() *auth.Client {
	return m.client
}

func unauthorized(code string) map[string]map[string]string {
	return map[string]map[string]string{
		"error": {"code": code, "message": "authentication required"},
	}
}
