package server

import (
	"github.com/goodabcdef/instagram-project/internal/models"

	"github.com/gofiber/fiber/v2"
)

// AdminListUsers handles GET /admin/users
// @Summary List all users
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.User
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/users [get]
func (s *Server) AdminListUsers(c *fiber.Ctx) error {
	page := parsePagination(c, 100)
	users, err := s.adminService.ListUsers(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(users)
}

// AdminBanUser handles DELETE /admin/users/:id
// @Summary Ban (delete) a user
// @Tags admin
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 204
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/users/{id} [delete]
func (s *Server) AdminBanUser(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.adminService.BanUser(c.UserContext(), currentUserID(c), id); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type setAdminRequest struct {
	IsAdmin *bool `json:"is_admin"`
}

// AdminSetAdmin handles PUT /admin/users/:id/admin
// @Summary Promote or demote a user
// @Tags admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body setAdminRequest true "Admin flag"
// @Success 200 {object} models.User
// @Router /admin/users/{id}/admin [put]
func (s *Server) AdminSetAdmin(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req setAdminRequest
	if err := c.BodyParser(&req); err != nil || req.IsAdmin == nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("is_admin is required"))
	}

	user, err := s.adminService.SetAdmin(c.UserContext(), currentUserID(c), id, *req.IsAdmin)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

// AdminDeletePost handles DELETE /admin/posts/:id
// @Summary Remove any post
// @Tags admin
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/posts/{id} [delete]
func (s *Server) AdminDeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.adminService.DeletePost(c.UserContext(), currentUserID(c), id); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetFeatureFlags handles GET /admin/feature-flags
// @Summary Configured and evaluated feature flags
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Success 200 {object} object{raw=object,evaluated=object}
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/feature-flags [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	userID := currentUserID(c)

	if s.featureFlags == nil {
		return c.JSON(fiber.Map{
			"raw":       map[string]string{},
			"evaluated": map[string]bool{},
		})
	}

	return c.JSON(fiber.Map{
		"raw":       s.featureFlags.Raw(),
		"evaluated": s.featureFlags.Snapshot(userID),
	})
}
