package server

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/goodabcdef/instagram-project/internal/cache"
	"github.com/goodabcdef/instagram-project/internal/middleware"
	"github.com/goodabcdef/instagram-project/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// AuthRequired resolves the caller from a bearer token. On /ws a
// single-use ticket in ?ticket= is accepted instead, since browsers cannot
// set headers on a websocket handshake.
func (s *Server) AuthRequired() fiber.Handler {
	bearer := middleware.Authenticate(s.authService)
	return func(c *fiber.Ctx) error {
		ticket := c.Query("ticket")
		if ticket == "" || c.Path() != "/ws" {
			return bearer(c)
		}

		user, err := s.consumeWSTicket(c, ticket)
		if err != nil {
			middleware.Logger.WarnContext(c.UserContext(), "websocket ticket rejected", slog.String("error", err.Error()))
			return middleware.Unauthorized(c, "Invalid or expired WebSocket ticket")
		}
		middleware.SetUser(c, user)
		return c.Next()
	}
}

// consumeWSTicket atomically reads and deletes a ticket, then loads its user.
func (s *Server) consumeWSTicket(c *fiber.Ctx, ticket string) (*models.User, error) {
	if s.redis == nil {
		return nil, errors.New("redis unavailable")
	}
	raw, err := s.redis.GetDel(c.UserContext(), cache.WSTicketKey(ticket)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, errors.New("unknown ticket")
	}
	if err != nil {
		return nil, err
	}
	userID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || userID == 0 {
		return nil, errors.New("malformed ticket")
	}
	return s.userRepo.GetByID(c.UserContext(), uint(userID))
}

// AdminRequired returns middleware that rejects non-admin users with 403.
// Must be placed after AuthRequired so that userID is available in locals.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := currentUserID(c)
		if userID == 0 {
			return middleware.Unauthorized(c, "Not authenticated")
		}

		admin, err := s.isAdmin(c, userID)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		}
		if !admin {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}

		return c.Next()
	}
}
