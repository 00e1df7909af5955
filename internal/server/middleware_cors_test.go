package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"bulletin/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const boardOrigin = "http://localhost:5000"

func preflight(t *testing.T, app *fiber.App, path, origin, method string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodOptions, path, nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", method)
	req.Header.Set("Access-Control-Request-Headers", "content-type")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestCORS_PreflightForPostRoutesAllowsCredentials(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	tests := []struct {
		path   string
		method string
	}{
		{"/api/posts/1", http.MethodDelete},
		{"/api/posts", http.MethodPost},
		{"/api/posts/1/like", http.MethodPost},
		{"/api/posts/1/comments", http.MethodPost},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			resp := preflight(t, env.app, tt.path, boardOrigin, tt.method)

			// Preflights are answered before the session gate, so no login is needed.
			assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
			assert.Equal(t, boardOrigin, resp.Header.Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"),
				"the session cookie must be sent cross-origin")
			assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), tt.method)
		})
	}
}

func TestCORS_ForeignOriginGetsNoGrant(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	resp := preflight(t, env.app, "/api/posts/1", "https://evil.example", http.MethodDelete)
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Credentials"))

	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.Header.Set("Origin", "https://evil.example")
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestCORS_UnauthenticatedDeleteStillCarriesGrant(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/posts/1", nil)
	req.Header.Set("Origin", boardOrigin)
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	// The 401 envelope must stay readable by the board's frontend.
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, boardOrigin, resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
}

func TestCORS_RateLimitedLikeKeepsGrantAndPreflightPasses(t *testing.T) {
	srv := &Server{config: &config.Config{AllowedOrigins: boardOrigin, SessionSecret: "cors-test-secret"}}
	app := fiber.New()
	srv.SetupMiddleware(app)
	app.Post("/api/posts/:id/like", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	like := func() *http.Response {
		req := httptest.NewRequest(http.MethodPost, "/api/posts/1/like", nil)
		req.Header.Set("Origin", boardOrigin)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		_ = resp.Body.Close()
		return resp
	}

	for i := 0; i < 100; i++ {
		require.Equal(t, fiber.StatusOK, like().StatusCode)
	}
	limited := like()
	assert.Equal(t, fiber.StatusTooManyRequests, limited.StatusCode)
	assert.Equal(t, boardOrigin, limited.Header.Get("Access-Control-Allow-Origin"))

	resp := preflight(t, app, "/api/posts/1/like", boardOrigin, http.MethodPost)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode, "preflights are never rate limited")
}
