package server

import (
	"bizzy/internal/interests"
	"bizzy/internal/models"
	"bizzy/internal/service"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
)

type updateNameRequest struct {
	Name string `json:"name"`
}

type updateUsernameRequest struct {
	Username string `json:"username"`
}

type updateAvatarRequest struct {
	Image any `json:"image"`
}

type onboardingRequest struct {
	Interests json.RawMessage `json:"interests"`
}

// GetProfile handles GET /api/profile/:userId
// @Summary User profile
// @Tags profile
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {object} service.Profile
// @Failure 404 {object} models.ErrorResponse
// @Router /profile/{userId} [get]
func (s *Server) GetProfile(c *fiber.Ctx) error {
	profile, err := s.profileService.Get(c.UserContext(), callerID(c), pathParam(c, "userId"))
	if err != nil {
		return s.mapServiceError(c, err, "Failed to fetch profile", "FETCH_PROFILE_ERROR")
	}
	return c.JSON(profile)
}

// CheckUsername handles GET /api/profile/check-username
// @Summary Username availability
// @Tags profile
// @Produce json
// @Param username query string true "Candidate username"
// @Success 200 {object} object{available=bool}
// @Failure 400 {object} object{error=string,available=bool}
// @Router /profile/check-username [get]
func (s *Server) CheckUsername(c *fiber.Ctx) error {
	raw := c.Query("username")
	if raw == "" {
		return badRequest(c, "Username parameter required")
	}

	available, err := s.profileService.CheckUsername(c.UserContext(), raw)
	if err != nil {
		if models.ErrorCode(err) == models.CodeValidation {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":     err.Error(),
				"available": false,
			})
		}
		return s.respondInternal(c, err, "Failed to check username", "CHECK_USERNAME_ERROR")
	}
	return c.JSON(fiber.Map{"available": available})
}

// UpdateName handles POST /api/profile/update-name
// @Summary Change display name
// @Tags profile
// @Accept json
// @Produce json
// @Param request body updateNameRequest true "New name"
// @Success 200 {object} object{success=bool,name=string}
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /profile/update-name [post]
func (s *Server) UpdateName(c *fiber.Ctx) error {
	var req updateNameRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	name, err := s.profileService.UpdateName(c.UserContext(), callerID(c), req.Name)
	if err != nil {
		return s.mapServiceError(c, err, "Failed to update name", "UPDATE_NAME_ERROR")
	}
	return c.JSON(fiber.Map{"success": true, "name": name})
}

// UpdateUsername handles POST /api/profile/update-username
// @Summary Change username
// @Tags profile
// @Accept json
// @Produce json
// @Param request body updateUsernameRequest true "New username"
// @Success 200 {object} object{success=bool,username=string}
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /profile/update-username [post]
func (s *Server) UpdateUsername(c *fiber.Ctx) error {
	var req updateUsernameRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	username, err := s.profileService.UpdateUsername(c.UserContext(), callerID(c), req.Username)
	if err != nil {
		return s.mapServiceError(c, err, "Failed to update username", "UPDATE_USERNAME_ERROR")
	}
	return c.JSON(fiber.Map{"success": true, "username": username})
}

// UpdateAvatar handles POST /api/profile/update-avatar
// @Summary Upload avatar
// @Description JPEG or PNG data URL up to 5MB, downscaled to 512px
// @Tags profile
// @Accept json
// @Produce json
// @Param request body updateAvatarRequest true "Data URL"
// @Success 200 {object} object{success=bool,image=string}
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /profile/update-avatar [post]
func (s *Server) UpdateAvatar(c *fiber.Ctx) error {
	var req updateAvatarRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	dataURL, ok := req.Image.(string)
	if !ok {
		return models.RespondWithError(c, fiber.StatusBadRequest, service.ErrAvatarData)
	}

	image, err := s.profileService.UpdateAvatar(c.UserContext(), callerID(c), dataURL)
	if err != nil {
		return s.mapServiceError(c, err, "Failed to update avatar", "UPDATE_AVATAR_ERROR")
	}
	return c.JSON(fiber.Map{"success": true, "image": image})
}

// CompleteOnboarding handles POST /api/onboarding
// @Summary Finish onboarding
// @Tags onboarding
// @Accept json
// @Produce json
// @Param request body onboardingRequest true "Selected interests"
// @Success 200 {object} object{success=bool}
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /onboarding [post]
func (s *Server) CompleteOnboarding(c *fiber.Ctx) error {
	var req onboardingRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, service.ErrInvalidInterests)
	}

	if err := s.profileService.CompleteOnboarding(c.UserContext(), callerID(c), req.Interests); err != nil {
		return s.mapServiceError(c, err, "Failed to save onboarding data", "ONBOARDING_ERROR")
	}
	return c.JSON(fiber.Map{"success": true})
}

// GetInterestCatalog handles GET /api/onboarding/interests
// @Summary Interest catalog
// @Tags onboarding
// @Produce json
// @Success 200 {object} object{interests=[]interests.Interest}
// @Router /onboarding/interests [get]
func (s *Server) GetInterestCatalog(c *fiber.Ctx) error {
	all, err := interests.All()
	if err != nil {
		return s.respondInternal(c, err, "Failed to load interests", "INTEREST_CATALOG_ERROR")
	}
	return c.JSON(fiber.Map{"interests": all})
}
