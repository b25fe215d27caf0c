package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labella/pkg/logger"
)

func newTestApp(t *testing.T) *App {
	t.Helper()

	cfg := Config{
		AppPort:        ":0",
		DatabaseDriver: "sqlite",
		DatabaseDSN:    "file::memory:?cache=shared",
		JWTSecret:      "test_jwt_secret",
		UploadDir:      t.TempDir(),
		SeedData:       true,
	}

	app, err := NewApp(cfg, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(app.Close)

	return app
}

func TestHealthCheck(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := app.Fiber.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPublicRoutesAreOpen(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	resp, err := app.Fiber.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSeededAdminCanLogIn(t *testing.T) {
	app := newTestApp(t)

	body := strings.NewReader(`{"username":"admin","password":"password"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", body)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Fiber.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var loginResp map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&loginResp))
	require.NotEmpty(t, loginResp["token"])

	adminReq := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil)
	adminReq.Header.Set("Authorization", "Bearer "+loginResp["token"])
	adminResp, err := app.Fiber.Test(adminReq)
	require.NoError(t, err)
	defer adminResp.Body.Close()
	assert.Equal(t, http.StatusOK, adminResp.StatusCode)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil)
	resp, err := app.Fiber.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
