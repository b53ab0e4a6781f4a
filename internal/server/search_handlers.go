package server

import (
	"github.com/gofiber/fiber/v2"
)

// SearchUsersByNickname handles GET /search/users?keyword=
// @Summary Search users by nickname
// @Tags search
// @Produce json
// @Param keyword query string true "Keyword"
// @Success 200 {array} models.User
// @Failure 400 {object} models.ErrorResponse
// @Router /search/users [get]
func (s *Server) SearchUsersByNickname(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	users, err := s.searchService.UsersByNickname(c.UserContext(), c.Query("keyword"), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(users)
}

// SearchUsersByEmail handles GET /search/users/id?keyword=
// @Summary Search users by email
// @Tags search
// @Produce json
// @Param keyword query string true "Keyword"
// @Success 200 {array} models.User
// @Failure 400 {object} models.ErrorResponse
// @Router /search/users/id [get]
func (s *Server) SearchUsersByEmail(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	users, err := s.searchService.UsersByEmail(c.UserContext(), c.Query("keyword"), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(users)
}

// SearchPosts handles GET /search/posts?keyword=
// @Summary Search post captions
// @Tags search
// @Produce json
// @Param keyword query string true "Keyword"
// @Success 200 {array} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Router /search/posts [get]
func (s *Server) SearchPosts(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	posts, err := s.searchService.Posts(c.UserContext(), c.Query("keyword"), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(posts)
}

// SearchHashtag handles GET /search/hashtags/:name
// @Summary Posts tagged with a hashtag
// @Tags search
// @Produce json
// @Param name path string true "Hashtag, with or without #"
// @Success 200 {array} models.Post
// @Router /search/hashtags/{name} [get]
func (s *Server) SearchHashtag(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	posts, err := s.searchService.PostsByHashtag(c.UserContext(), c.Params("name"), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(posts)
}
