package server

import (
	"github.com/goodabcdef/instagram-project/internal/models"
	"github.com/goodabcdef/instagram-project/internal/service"

	"github.com/gofiber/fiber/v2"
)

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
}

// Signup handles POST /signup
// @Summary User signup
// @Description Register a local email/password account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body signupRequest true "Signup request"
// @Success 201 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /signup [post]
func (s *Server) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.authService.Signup(c.UserContext(), service.SignupInput{
		Email:    req.Email,
		Password: req.Password,
		Nickname: req.Nickname,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(user)
}

// Login handles POST /login
// @Summary User login
// @Description OAuth2 password form: the email goes in the username field
// @Tags auth
// @Accept x-www-form-urlencoded
// @Produce json
// @Param username formData string true "Email"
// @Param password formData string true "Password"
// @Success 200 {object} service.TokenPair
// @Failure 401 {object} models.ErrorResponse
// @Router /login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	username := c.FormValue("username")
	password := c.FormValue("password")
	if username == "" || password == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("username and password are required"))
	}

	pair, err := s.authService.Login(c.UserContext(), username, password)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(pair)
}

// KakaoAuthURL handles GET /auth/kakao
// @Summary Kakao authorization URL
// @Tags auth
// @Produce json
// @Success 200 {object} object{url=string}
// @Failure 404 {object} models.ErrorResponse
// @Router /auth/kakao [get]
func (s *Server) KakaoAuthURL(c *fiber.Ctx) error {
	url, err := s.authService.KakaoAuthURL()
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"url": url})
}

// KakaoCallback handles GET /auth/kakao/callback
// @Summary Kakao login callback
// @Tags auth
// @Produce json
// @Param code query string true "Authorization code"
// @Success 200 {object} service.TokenPair
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /auth/kakao/callback [get]
func (s *Server) KakaoCallback(c *fiber.Ctx) error {
	if errParam := c.Query("error"); errParam != "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewInvalidGrantError("Kakao authorization was denied", nil))
	}
	pair, err := s.authService.KakaoLogin(c.UserContext(), c.Query("code"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(pair)
}

type firebaseLoginRequest struct {
	IDToken string `json:"id_token"`
}

// FirebaseLogin handles POST /auth/firebase
// @Summary Firebase login
// @Tags auth
// @Accept json
// @Produce json
// @Param request body firebaseLoginRequest true "Firebase ID token"
// @Success 200 {object} service.TokenPair
// @Failure 401 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /auth/firebase [post]
func (s *Server) FirebaseLogin(c *fiber.Ctx) error {
	var req firebaseLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	pair, err := s.authService.FirebaseLogin(c.UserContext(), req.IDToken)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(pair)
}
