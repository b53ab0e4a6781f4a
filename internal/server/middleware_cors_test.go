package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goodabcdef/instagram-project/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const webOrigin = "https://web.instagram.test"

func newMiddlewareApp(origins string) *fiber.App {
	srv := &Server{config: &config.Config{AllowedOrigins: origins}}
	app := fiber.New()
	srv.SetupMiddleware(app)
	app.Get("/posts", func(c *fiber.Ctx) error { return c.JSON([]string{}) })
	app.Post("/posts/:id/like", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusCreated) })
	return app
}

func sendFrom(t *testing.T, app *fiber.App, method, path, origin string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	if method == http.MethodOptions {
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "authorization,content-type")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestSetupMiddleware_CommonHeaders(t *testing.T) {
	app := newMiddlewareApp(webOrigin)

	resp := sendFrom(t, app, http.MethodGet, "/posts", webOrigin)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, webOrigin, resp.Header.Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))

	foreign := sendFrom(t, app, http.MethodGet, "/posts", "https://evil.example")
	assert.Empty(t, foreign.Header.Get("Access-Control-Allow-Origin"))
}

func TestSetupMiddleware_DefaultOriginsAllowViteDevServer(t *testing.T) {
	app := newMiddlewareApp("")
	resp := sendFrom(t, app, http.MethodGet, "/posts", "http://localhost:5173")
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
}

func TestSetupMiddleware_GlobalLimiter(t *testing.T) {
	app := newMiddlewareApp(webOrigin)

	for i := 0; i < 100; i++ {
		resp := sendFrom(t, app, http.MethodPost, "/posts/1/like", webOrigin)
		require.Equal(t, fiber.StatusCreated, resp.StatusCode, "request %d", i)
	}

	t.Run("throttled response keeps CORS headers", func(t *testing.T) {
		resp := sendFrom(t, app, http.MethodPost, "/posts/1/like", webOrigin)
		assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
		assert.Equal(t, webOrigin, resp.Header.Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight is never throttled", func(t *testing.T) {
		resp := sendFrom(t, app, http.MethodOptions, "/posts/1/like", webOrigin)
		assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
		assert.Equal(t, webOrigin, resp.Header.Get("Access-Control-Allow-Origin"))
		assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), http.MethodPost)
	})
}
