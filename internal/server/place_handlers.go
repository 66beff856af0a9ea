package server

import (
	"errors"

	"bizzy/internal/models"
	"bizzy/internal/places"
	"bizzy/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SavePlace handles POST /api/places
// @Summary Save a place
// @Tags places
// @Accept json
// @Produce json
// @Param request body service.SavePlaceInput true "Place"
// @Success 201 {object} object{success=bool,place=models.SavedPlace}
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} object{error=string,place=models.SavedPlace}
// @Security BearerAuth
// @Router /places [post]
func (s *Server) SavePlace(c *fiber.Ctx) error {
	var in service.SavePlaceInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid request body")
	}

	place, err := s.placeService.Save(c.UserContext(), callerID(c), in)
	if err != nil {
		var dup *service.PlaceAlreadySavedError
		if errors.As(err, &dup) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": dup.Error(),
				"place": dup.Place,
			})
		}
		return s.mapServiceError(c, err, "Failed to save place", "SAVE_PLACE_ERROR")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "place": place})
}

// CheckSavedPlace handles GET /api/places/check
// @Summary Whether the caller saved a place
// @Tags places
// @Produce json
// @Param placeId query string true "Google place ID"
// @Success 200 {object} object{isSaved=bool,place=models.SavedPlace}
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /places/check [get]
func (s *Server) CheckSavedPlace(c *fiber.Ctx) error {
	place, err := s.placeService.Check(c.UserContext(), callerID(c), c.Query("placeId"))
	if err != nil {
		return s.mapServiceError(c, err, "Failed to check saved place", "CHECK_PLACE_ERROR")
	}
	return c.JSON(fiber.Map{"isSaved": place != nil, "place": place})
}

// DeleteSavedPlace handles DELETE /api/places/:id
// @Summary Remove a saved place
// @Tags places
// @Produce json
// @Param id path string true "Saved place ID"
// @Success 200 {object} object{success=bool}
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /places/{id} [delete]
func (s *Server) DeleteSavedPlace(c *fiber.Ctx) error {
	if err := s.placeService.Remove(c.UserContext(), callerID(c), pathParam(c, "id")); err != nil {
		return s.mapServiceError(c, err, "Failed to delete place", "DELETE_PLACE_ERROR")
	}
	return c.JSON(fiber.Map{"success": true})
}

// GetProfilePlaces handles GET /api/profile/:userId/places
// @Summary A user's saved places
// @Tags places
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {object} object{places=[]models.SavedPlace}
// @Router /profile/{userId}/places [get]
func (s *Server) GetProfilePlaces(c *fiber.Ctx) error {
	list, err := s.placeService.ListForUser(c.UserContext(), pathParam(c, "userId"))
	if err != nil {
		return s.respondInternal(c, err, "Failed to fetch places", "FETCH_USER_PLACES_ERROR")
	}
	return c.JSON(fiber.Map{"places": list})
}

// NearbyPlaces handles GET /api/places. The Google body is passed through.
// @Summary Nearby places
// @Tags places
// @Produce json
// @Param location query string false "lat,lng"
// @Param radius query string false "Radius in meters"
// @Param type query string false "Place type"
// @Success 200 {object} object
// @Failure 500 {object} models.ErrorResponse
// @Router /places [get]
func (s *Server) NearbyPlaces(c *fiber.Ctx) error {
	if !s.places.Configured() {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{Error: "Google Maps API key not configured"})
	}

	body, err := s.places.NearbySearch(c.UserContext(), places.NearbyParams{
		Location: c.Query("location"),
		Radius:   c.Query("radius"),
		Type:     c.Query("type"),
	})
	if err != nil {
		return s.respondInternal(c, err, "Failed to fetch places", "FETCH_PLACES_ERROR")
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(body)
}

// PlaceDetails handles GET /api/place-details
// @Summary Place details
// @Tags places
// @Produce json
// @Param placeId query string true "Google place ID"
// @Success 200 {object} object
// @Failure 400 {object} object{error=string,status=string}
// @Failure 500 {object} object{error=string,details=string}
// @Router /place-details [get]
func (s *Server) PlaceDetails(c *fiber.Ctx) error {
	placeID := c.Query("placeId")
	if placeID == "" {
		return badRequest(c, "placeId parameter is required")
	}

	body, err := s.places.Details(c.UserContext(), placeID)
	if err != nil {
		var statusErr *places.StatusError
		if errors.As(err, &statusErr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":  statusErr.Error(),
				"status": statusErr.Status,
			})
		}
		s.logUpstreamFailure(c, err, "FETCH_PLACE_DETAILS_ERROR")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to fetch place details",
			"details": err.Error(),
		})
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(body)
}

// PlacePhoto handles GET /api/place-photo
// @Summary Place photo
// @Tags places
// @Produce image/jpeg
// @Param photoReference query string true "Photo reference"
// @Param maxWidth query string false "Max width (default 400)"
// @Success 200 {file} binary
// @Failure 400 {object} models.ErrorResponse
// @Router /place-photo [get]
func (s *Server) PlacePhoto(c *fiber.Ctx) error {
	reference := c.Query("photoReference")
	if reference == "" {
		return badRequest(c, "photoReference is required")
	}
	if !s.places.Configured() {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{Error: "API key not configured"})
	}

	photo, err := s.places.Photo(c.UserContext(), reference, c.Query("maxWidth"))
	if err != nil {
		return s.respondInternal(c, err, "Failed to fetch photo", "FETCH_PHOTO_ERROR")
	}
	c.Set(fiber.HeaderContentType, photo.ContentType)
	c.Set(fiber.HeaderCacheControl, "public, max-age=86400")
	return c.Send(photo.Data)
}

// GetRecommendations handles GET /api/places/recommendations
// @Summary Recommended places
// @Description Google nearby results for the caller's interests merged with places saved by like-minded users
// @Tags places
// @Produce json
// @Param interests query string false "JSON array of interest IDs"
// @Param page query int false "Page (1-based)"
// @Success 200 {object} service.RecommendationPage
// @Security BearerAuth
// @Router /places/recommendations [get]
func (s *Server) GetRecommendations(c *fiber.Ctx) error {
	var interests []string
	if raw := c.Query("interests"); raw != "" {
		interests = models.ParseInterests(raw)
	}

	res, err := s.recommendationService.Recommend(c.UserContext(), callerID(c), interests, pageParam(c))
	if err != nil {
		return s.mapServiceError(c, err, "Failed to fetch recommendations", "FETCH_RECOMMENDATIONS_ERROR")
	}
	return c.JSON(res)
}
