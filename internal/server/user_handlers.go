package server

import (
	"bizzy/internal/models"

	"github.com/gofiber/fiber/v2"
)

// SearchUsers handles GET /api/users/search
// @Summary Search users
// @Description Case-insensitive match on name or email, excluding the caller
// @Tags users
// @Produce json
// @Param q query string true "Query (at least 2 characters)"
// @Success 200 {object} object{users=[]service.UserSearchResult}
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/search [get]
func (s *Server) SearchUsers(c *fiber.Ctx) error {
	users, err := s.userService.Search(c.UserContext(), callerID(c), c.Query("q"))
	if err != nil {
		return s.respondInternal(c, err, "Failed to search users", "SEARCH_USERS_ERROR")
	}
	return c.JSON(fiber.Map{"users": users})
}

// GetSuggestions handles GET /api/users/suggestions
// @Summary Suggested users
// @Description Every other user ranked by shared interests
// @Tags users
// @Produce json
// @Param interests query string false "JSON array of interest IDs"
// @Success 200 {object} object{users=[]service.Suggestion}
// @Security BearerAuth
// @Router /users/suggestions [get]
func (s *Server) GetSuggestions(c *fiber.Ctx) error {
	interests := models.ParseInterests(c.Query("interests"))
	users, err := s.userService.Suggestions(c.UserContext(), callerID(c), interests)
	if err != nil {
		return s.respondInternal(c, err, "Failed to fetch user suggestions", "FETCH_SUGGESTIONS_ERROR")
	}
	return c.JSON(fiber.Map{"users": users})
}

// GetUserByUsername handles GET /api/users/by-username/:username
// @Summary Look up a user by username
// @Tags users
// @Produce json
// @Param username path string true "Username, optionally prefixed with @"
// @Success 200 {object} object{user=service.PublicUser}
// @Failure 404 {object} models.ErrorResponse
// @Router /users/by-username/{username} [get]
func (s *Server) GetUserByUsername(c *fiber.Ctx) error {
	user, err := s.userService.ByUsername(c.UserContext(), pathParam(c, "username"))
	if err != nil {
		return s.mapServiceError(c, err, "Failed to fetch user", "FETCH_USER_ERROR")
	}
	return c.JSON(fiber.Map{"user": user})
}
