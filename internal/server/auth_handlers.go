package server

import (
	"log/slog"
	"time"

	"bizzy/internal/middleware"
	"bizzy/internal/models"
	"bizzy/internal/validation"

	"github.com/gofiber/fiber/v2"
)

func (s *Server) setSessionCookie(c *fiber.Ctx, token string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// Signup handles POST /api/auth/signup
// @Summary User signup
// @Description Register a new account with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body validation.SignupRequest true "Signup request"
// @Success 201 {object} service.AuthResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /auth/signup [post]
func (s *Server) Signup(c *fiber.Ctx) error {
	var req validation.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	res, err := s.authService.Signup(c.UserContext(), req, clientInfo(c))
	if err != nil {
		return s.mapServiceError(c, err, "Failed to create account", "SIGNUP_ERROR")
	}
	s.setSessionCookie(c, res.Token, res.Session.ExpiresAt)
	return c.Status(fiber.StatusCreated).JSON(res)
}

// Login handles POST /api/auth/login
// @Summary User login
// @Description Authenticate with email or username plus password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body validation.LoginRequest true "Login request"
// @Success 200 {object} service.AuthResult
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req validation.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	res, err := s.authService.Login(c.UserContext(), req, clientInfo(c))
	if err != nil {
		return s.mapServiceError(c, err, "Failed to log in", "LOGIN_ERROR")
	}
	s.setSessionCookie(c, res.Token, res.Session.ExpiresAt)
	return c.JSON(res)
}

// Logout handles POST /api/auth/logout
// @Summary Logout
// @Tags auth
// @Produce json
// @Success 200 {object} object{success=bool}
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	if err := s.authService.Logout(c.UserContext(), middleware.SessionToken(c)); err != nil {
		middleware.Logger.WarnContext(c.UserContext(), "logout failed to delete session",
			slog.String("error", err.Error()),
		)
	}
	s.clearSessionCookie(c)
	return c.JSON(fiber.Map{"success": true})
}

// GetSession handles GET /api/auth/session
// @Summary Current session
// @Tags auth
// @Produce json
// @Success 200 {object} object{user=models.User,session=models.Session}
// @Router /auth/session [get]
func (s *Server) GetSession(c *fiber.Ctx) error {
	res, err := s.authService.Current(c.UserContext(), middleware.SessionToken(c))
	if err != nil || res == nil {
		if err != nil {
			middleware.Logger.ErrorContext(c.UserContext(), "session lookup failed",
				slog.String("error", err.Error()),
			)
		}
		return c.JSON(fiber.Map{"user": nil, "session": nil})
	}
	return c.JSON(fiber.Map{"user": res.User, "session": res.Session})
}

// GoogleLogin handles GET /api/auth/google
// @Summary Start Google sign-in
// @Tags auth
// @Success 302
// @Failure 500 {object} models.ErrorResponse
// @Router /auth/google [get]
func (s *Server) GoogleLogin(c *fiber.Ctx) error {
	if !s.googleOAuth.Configured() {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{Error: "Google OAuth not configured"})
	}
	target, err := s.googleOAuth.AuthURL(c.UserContext())
	if err != nil {
		return s.respondInternal(c, err, "Failed to start Google sign-in", "GOOGLE_AUTH_ERROR")
	}
	return c.Redirect(target, fiber.StatusFound)
}

// GoogleCallback handles GET /api/auth/google/callback
// @Summary Finish Google sign-in
// @Tags auth
// @Param code query string true "Authorization code"
// @Param state query string true "State"
// @Success 302
// @Failure 400 {object} models.ErrorResponse
// @Router /auth/google/callback [get]
func (s *Server) GoogleCallback(c *fiber.Ctx) error {
	if !s.googleOAuth.Configured() {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{Error: "Google OAuth not configured"})
	}
	res, err := s.googleOAuth.Callback(c.UserContext(), c.Query("code"), c.Query("state"), clientInfo(c))
	if err != nil {
		return s.mapServiceError(c, err, "Google sign-in failed", "GOOGLE_CALLBACK_ERROR")
	}
	s.setSessionCookie(c, res.Token, res.Session.ExpiresAt)

	target := s.config.FrontendURL
	if target == "" {
		target = "/"
	}
	return c.Redirect(target, fiber.StatusFound)
}
