// Package middleware provides authentication, logging, metrics and rate limiting middleware.
package middleware

import (
	"context"
	"strings"

	"github.com/goodabcdef/instagram-project/internal/models"

	"github.com/gofiber/fiber/v2"
)

const (
	// LocalsUser holds the resolved *models.User.
	LocalsUser = "user"
	// LocalsUserID holds the resolved user's ID as uint.
	LocalsUserID = "userID"
)

// IdentityResolver turns a bearer token into the user it was issued to.
// Any failure must be reported as an error; the middleware answers 401
// without distinguishing causes.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (*models.User, error)
}

// BearerToken extracts the token from an "Authorization: Bearer <t>" header.
func BearerToken(c *fiber.Ctx) string {
	authHeader := c.Get(fiber.HeaderAuthorization)
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// Unauthorized writes a 401 with a bearer challenge header.
func Unauthorized(c *fiber.Ctx, message string) error {
	c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
	return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthorizedError(message))
}

// SetUser stores the authenticated user in locals and in the request
// context so the logger picks up the user id.
func SetUser(c *fiber.Ctx, user *models.User) {
	c.Locals(LocalsUser, user)
	c.Locals(LocalsUserID, user.ID)
	ctx := context.WithValue(c.UserContext(), UserIDKey, user.ID)
	c.SetUserContext(ctx)
}

// CurrentUser returns the user placed in locals by Authenticate.
func CurrentUser(c *fiber.Ctx) (*models.User, bool) {
	user, ok := c.Locals(LocalsUser).(*models.User)
	return user, ok && user != nil
}

// Authenticate rejects requests without a valid bearer token before the
// handler runs.
func Authenticate(resolver IdentityResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := BearerToken(c)
		if token == "" {
			return Unauthorized(c, "Not authenticated")
		}

		user, err := resolver.Resolve(c.UserContext(), token)
		if err != nil || user == nil {
			return Unauthorized(c, "Could not validate credentials")
		}

		SetUser(c, user)
		return c.Next()
	}
}
