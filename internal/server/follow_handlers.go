package server

import (
	"github.com/gofiber/fiber/v2"
)

// Follow handles POST /follows/:targetId
// @Summary Follow a user
// @Tags follows
// @Security BearerAuth
// @Param targetId path int true "User to follow"
// @Success 201 {object} object{following_id=int}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /follows/{targetId} [post]
func (s *Server) Follow(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "targetId")
	if err != nil {
		return nil
	}
	if err := s.followService.Follow(c.UserContext(), currentUserID(c), targetID); err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"following_id": targetID})
}

// Unfollow handles DELETE /follows/:targetId
// @Summary Unfollow a user
// @Tags follows
// @Security BearerAuth
// @Param targetId path int true "User to unfollow"
// @Success 204
// @Failure 400 {object} models.ErrorResponse
// @Router /follows/{targetId} [delete]
func (s *Server) Unfollow(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "targetId")
	if err != nil {
		return nil
	}
	if err := s.followService.Unfollow(c.UserContext(), currentUserID(c), targetID); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetFollowers handles GET /follows/followers
// @Summary Users following the current user
// @Tags follows
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.User
// @Router /follows/followers [get]
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	page := parsePagination(c, 50)
	users, err := s.followService.Followers(c.UserContext(), currentUserID(c), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(users)
}

// GetFollowings handles GET /follows/followings
// @Summary Users the current user follows
// @Tags follows
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.User
// @Router /follows/followings [get]
func (s *Server) GetFollowings(c *fiber.Ctx) error {
	page := parsePagination(c, 50)
	users, err := s.followService.Followings(c.UserContext(), currentUserID(c), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(users)
}
