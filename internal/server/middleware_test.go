package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"mutualaid/internal/authz"
	"mutualaid/internal/config"
	"mutualaid/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupMiddleware_RateLimitedResponseIncludesCORSHeaders(t *testing.T) {
	srv := &Server{
		config: &config.Config{
			AllowedOrigins: "http://localhost:5173",
		},
	}

	app := fiber.New()
	srv.SetupMiddleware(app)
	app.Get("/limited", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	// Exhaust the limiter and assert the final response still carries CORS headers.
	for i := 0; i < 100; i++ {
		req := httptest.NewRequest(http.MethodGet, "/limited", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		_ = resp.Body.Close()
	}

	req := httptest.NewRequest(http.MethodGet, "/limited", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestSetupMiddleware_PreflightBypassesLimiter(t *testing.T) {
	srv := &Server{config: &config.Config{AllowedOrigins: "http://localhost:5173"}}

	app := fiber.New()
	srv.SetupMiddleware(app)
	app.Post("/limited", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	for i := 0; i < 101; i++ {
		req := httptest.NewRequest(http.MethodPost, "/limited", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		_ = resp.Body.Close()
	}

	preflightReq := httptest.NewRequest(http.MethodOptions, "/limited", nil)
	preflightReq.Header.Set("Origin", "http://localhost:5173")
	preflightReq.Header.Set("Access-Control-Request-Method", http.MethodPost)
	preflightReq.Header.Set("Access-Control-Request-Headers", "authorization,content-type")
	preflightResp, err := app.Test(preflightReq, -1)
	require.NoError(t, err)
	defer func() { _ = preflightResp.Body.Close() }()

	assert.Equal(t, fiber.StatusNoContent, preflightResp.StatusCode)
	assert.Equal(t, "http://localhost:5173", preflightResp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, preflightResp.Header.Get("Access-Control-Allow-Methods"), http.MethodPost)
}

func TestSetupMiddleware_SecurityHeaders(t *testing.T) {
	srv := &Server{config: &config.Config{}}
	app := fiber.New()
	srv.SetupMiddleware(app)
	app.Get("/test", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/test", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Content-Type-Options"))
	assert.NotEmpty(t, resp.Header.Get("X-Frame-Options"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

// stubResolver maps fixed tokens to callers.
type stubResolver map[string]authz.Caller

func (r stubResolver) Identify(_ context.Context, token string) authz.Caller {
	if token == "" {
		return authz.Anonymous()
	}
	if c, ok := r[token]; ok {
		return c
	}
	return authz.InvalidCredential()
}

func TestIdentify_AttachesCaller(t *testing.T) {
	resolver := stubResolver{"member": authz.Authenticated(7, false)}
	app := fiber.New()
	app.Use(middleware.Identify(resolver))
	handler := func(c *fiber.Ctx) error {
		caller := middleware.CallerFrom(c)
		uid, _ := c.Locals("userID").(uint)
		return c.JSON(fiber.Map{
			"credential": caller.Credential.String(),
			"userId":     uid,
		})
	}
	app.Get("/whoami", handler)
	app.Get("/api/ws", handler)

	tests := []struct {
		name       string
		path       string
		header     string
		credential string
		userID     float64
	}{
		{"no token", "/whoami", "", authz.CredentialNone.String(), 0},
		{"bearer token", "/whoami", "Bearer member", authz.CredentialValid.String(), 7},
		{"unknown token", "/whoami", "Bearer forged", authz.CredentialInvalid.String(), 0},
		{"malformed header", "/whoami", "member", authz.CredentialInvalid.String(), 0},
		{"query token ignored off websocket", "/whoami?token=member", "", authz.CredentialNone.String(), 0},
		{"query token on websocket", "/api/ws?token=member", "", authz.CredentialValid.String(), 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.credential, body["credential"])
			assert.Equal(t, tt.userID, body["userId"])
		})
	}
}
