package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/config"
	"storefront/internal/middleware"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const testSecret = "test-secret"

type mwErrorResponse struct {
	Error string `json:"error"`
}

type mwOKResponse struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
}

func newAdminEcho() *echo.Echo {
	e := echo.New()
	g := e.Group("/admin")
	g.Use(middleware.AuthJWT(config.Config{JWTSecret: testSecret}))
	g.Use(middleware.AdminRoleGuard())
	g.GET("/me", func(c echo.Context) error {
		return c.JSON(http.StatusOK, mwOKResponse{
			UserID: c.Get(middleware.CtxUserIDKey).(int64),
			Role:   c.Get(middleware.CtxUserRoleKey).(string),
		})
	})
	return e
}

func runRequest(t *testing.T, e *echo.Echo, authHeader string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/admin/me", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func mustSign(t *testing.T, secret string, sub int64, role string) string {
	t.Helper()
	tok, err := middleware.SignToken(secret, sub, role, time.Hour, time.Now())
	require.NoError(t, err)
	return tok
}

func TestAuthJWT_MissingHeader(t *testing.T) {
	rec := runRequest(t, newAdminEcho(), "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var r mwErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&r))
	assert.Equal(t, "unauthorized", r.Error)
}

func TestAuthJWT_NotBearer(t *testing.T) {
	rec := runRequest(t, newAdminEcho(), "Basic abc")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthJWT_WrongSecret(t *testing.T) {
	tok := mustSign(t, "other-secret", 1, middleware.RoleAdmin)

	rec := runRequest(t, newAdminEcho(), "Bearer "+tok)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthJWT_RejectsOtherSigningMethod(t *testing.T) {
	claims := jwt.MapClaims{"sub": "1", "role": middleware.RoleAdmin, "exp": time.Now().Add(time.Hour).Unix()}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	rec := runRequest(t, newAdminEcho(), "Bearer "+tok)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthJWT_Expired(t *testing.T) {
	tok, err := middleware.SignToken(testSecret, 1, middleware.RoleAdmin, time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	rec := runRequest(t, newAdminEcho(), "Bearer "+tok)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminRoleGuard_ForbidsNonAdmin(t *testing.T) {
	tok := mustSign(t, testSecret, 5, "USER")

	rec := runRequest(t, newAdminEcho(), "Bearer "+tok)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	var r mwErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&r))
	assert.Equal(t, "admin only", r.Error)
}

func TestAdminRoleGuard_AllowsAdmin(t *testing.T) {
	tok := mustSign(t, testSecret, 42, middleware.RoleAdmin)

	rec := runRequest(t, newAdminEcho(), "Bearer "+tok)
	require.Equal(t, http.StatusOK, rec.Code)

	var r mwOKResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&r))
	assert.Equal(t, int64(42), r.UserID)
	assert.Equal(t, middleware.RoleAdmin, r.Role)
}

func TestRequestLogger_WritesRequestID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	e := echo.New()
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(zap.New(core)))
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })

	req := httptest.NewRequest(http.MethodGet, "/ping?x=1", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	rid := rec.Header().Get(echo.HeaderXRequestID)
	assert.Len(t, rid, 36)

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/ping?x=1", fields["uri"])
	assert.Equal(t, int64(http.StatusOK), fields["status"])
	assert.Equal(t, rid, fields["request_id"])
}
