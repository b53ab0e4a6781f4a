package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goodabcdef/instagram-project/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type resolverFunc func(ctx context.Context, token string) (*models.User, error)

func (f resolverFunc) Resolve(ctx context.Context, token string) (*models.User, error) {
	return f(ctx, token)
}

func TestAuthenticate(t *testing.T) {
	resolver := resolverFunc(func(_ context.Context, token string) (*models.User, error) {
		switch token {
		case "good":
			return &models.User{ID: 123, Email: "a@x.com"}, nil
		case "deleted":
			return nil, nil
		default:
			return nil, errors.New("invalid token")
		}
	})

	app := fiber.New()
	handlerRan := false
	app.Get("/test", Authenticate(resolver), func(c *fiber.Ctx) error {
		handlerRan = true
		user, ok := CurrentUser(c)
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.JSON(fiber.Map{"userID": c.Locals(LocalsUserID), "email": user.Email})
	})

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
		expectedUserID float64
	}{
		{"Happy Path", "Bearer good", http.StatusOK, 123},
		{"Lower-case scheme", "bearer good", http.StatusOK, 123},
		{"Missing Header", "", http.StatusUnauthorized, 0},
		{"Invalid Format", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, 0},
		{"Invalid Token", "Bearer bad", http.StatusUnauthorized, 0},
		{"User Deleted", "Bearer deleted", http.StatusUnauthorized, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlerRan = false
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusOK {
				var body map[string]any
				assert.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, tt.expectedUserID, body["userID"])
				assert.True(t, handlerRan)
			} else {
				assert.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))
				assert.False(t, handlerRan, "handler must not run on auth failure")
			}
		})
	}
}
