package server

import (
	"github.com/goodabcdef/instagram-project/internal/models"
	"github.com/goodabcdef/instagram-project/internal/service"

	"github.com/gofiber/fiber/v2"
)

type reactionRequest struct {
	PostID uint `json:"post_id"`
}

func (s *Server) addReaction(c *fiber.Ctx, svc *service.ReactionService) error {
	var req reactionRequest
	if err := c.BodyParser(&req); err != nil || req.PostID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("post_id is required"))
	}
	if err := svc.Add(c.UserContext(), currentUserID(c), req.PostID); err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"post_id": req.PostID})
}

func (s *Server) removeReaction(c *fiber.Ctx, svc *service.ReactionService) error {
	postID, err := s.parseID(c, "postId")
	if err != nil {
		return nil
	}
	if err := svc.Remove(c.UserContext(), currentUserID(c), postID); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) listReactions(c *fiber.Ctx, svc *service.ReactionService) error {
	page := parsePagination(c, 20)
	posts, err := svc.ListMine(c.UserContext(), currentUserID(c), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(posts)
}

// LikePost handles POST /likes
// @Summary Like a post
// @Tags likes
// @Security BearerAuth
// @Accept json
// @Param request body reactionRequest true "Post"
// @Success 201 {object} object{post_id=int}
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /likes [post]
func (s *Server) LikePost(c *fiber.Ctx) error {
	return s.addReaction(c, s.likeService)
}

// UnlikePost handles DELETE /likes/:postId
// @Summary Remove a like
// @Tags likes
// @Security BearerAuth
// @Param postId path int true "Post ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /likes/{postId} [delete]
func (s *Server) UnlikePost(c *fiber.Ctx) error {
	return s.removeReaction(c, s.likeService)
}

// GetMyLikes handles GET /likes/me
// @Summary Posts the current user liked
// @Tags likes
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.Post
// @Router /likes/me [get]
func (s *Server) GetMyLikes(c *fiber.Ctx) error {
	return s.listReactions(c, s.likeService)
}

// BookmarkPost handles POST /bookmarks
// @Summary Bookmark a post
// @Tags bookmarks
// @Security BearerAuth
// @Accept json
// @Param request body reactionRequest true "Post"
// @Success 201 {object} object{post_id=int}
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /bookmarks [post]
func (s *Server) BookmarkPost(c *fiber.Ctx) error {
	return s.addReaction(c, s.bookmarkService)
}

// RemoveBookmark handles DELETE /bookmarks/:postId
// @Summary Remove a bookmark
// @Tags bookmarks
// @Security BearerAuth
// @Param postId path int true "Post ID"
// @Success 204
// @Router /bookmarks/{postId} [delete]
func (s *Server) RemoveBookmark(c *fiber.Ctx) error {
	return s.removeReaction(c, s.bookmarkService)
}

// GetMyBookmarks handles GET /bookmarks/me
// @Summary Posts the current user bookmarked
// @Tags bookmarks
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.Post
// @Router /bookmarks/me [get]
func (s *Server) GetMyBookmarks(c *fiber.Ctx) error {
	return s.listReactions(c, s.bookmarkService)
}
