package server

import (
	"github.com/gofiber/fiber/v2"
)

type saveReviewRequest struct {
	Rating any `json:"rating"`
	Review any `json:"review"`
}

// GetMyReview handles GET /api/places/:placeId/review
// @Summary The caller's review of a place
// @Tags reviews
// @Produce json
// @Param placeId path string true "Google place ID"
// @Success 200 {object} service.MyReview "or null"
// @Security BearerAuth
// @Router /places/{placeId}/review [get]
func (s *Server) GetMyReview(c *fiber.Ctx) error {
	review, err := s.reviewService.MyReview(c.UserContext(), callerID(c), pathParam(c, "placeId"))
	if err != nil {
		return s.respondInternal(c, err, "Failed to load review", "FETCH_MY_REVIEW_ERROR")
	}
	if review == nil {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.SendString("null")
	}
	return c.JSON(review)
}

// SaveReview handles POST /api/places/:placeId/review
// @Summary Create or update the caller's review
// @Tags reviews
// @Accept json
// @Produce json
// @Param placeId path string true "Google place ID"
// @Param request body saveReviewRequest true "Rating and text"
// @Success 200 {object} service.SavedReview
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /places/{placeId}/review [post]
func (s *Server) SaveReview(c *fiber.Ctx) error {
	var req saveReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	saved, err := s.reviewService.Save(c.UserContext(), callerID(c), pathParam(c, "placeId"), req.Rating, req.Review)
	if err != nil {
		return s.mapServiceError(c, err, "Failed to save review", "SAVE_REVIEW_ERROR")
	}
	return c.JSON(saved)
}

// DeleteReview handles DELETE /api/places/:placeId/review
// @Summary Delete the caller's review
// @Tags reviews
// @Produce json
// @Param placeId path string true "Google place ID"
// @Success 200 {object} object{success=bool}
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /places/{placeId}/review [delete]
func (s *Server) DeleteReview(c *fiber.Ctx) error {
	if err := s.reviewService.Delete(c.UserContext(), callerID(c), pathParam(c, "placeId")); err != nil {
		return s.mapServiceError(c, err, "Failed to delete review", "DELETE_REVIEW_ERROR")
	}
	return c.JSON(fiber.Map{"success": true})
}

// GetPlaceReviews handles GET /api/places/:placeId/reviews
// @Summary Reviews of a place
// @Tags reviews
// @Produce json
// @Param placeId path string true "Google place ID"
// @Success 200 {object} object{reviews=[]models.ReviewView}
// @Router /places/{placeId}/reviews [get]
func (s *Server) GetPlaceReviews(c *fiber.Ctx) error {
	reviews, err := s.reviewService.ListForPlace(c.UserContext(), callerID(c), pathParam(c, "placeId"))
	if err != nil {
		return s.respondInternal(c, err, "Failed to load reviews", "FETCH_PLACE_REVIEWS_ERROR")
	}
	return c.JSON(fiber.Map{"reviews": reviews})
}

// GetReview handles GET /api/reviews/:reviewId
// @Summary One review
// @Tags reviews
// @Produce json
// @Param reviewId path string true "Review ID"
// @Success 200 {object} models.ReviewView
// @Failure 404 {object} models.ErrorResponse
// @Router /reviews/{reviewId} [get]
func (s *Server) GetReview(c *fiber.Ctx) error {
	review, err := s.reviewService.Get(c.UserContext(), callerID(c), pathParam(c, "reviewId"))
	if err != nil {
		return s.mapServiceError(c, err, "Failed to fetch review", "FETCH_REVIEW_ERROR")
	}
	return c.JSON(review)
}

// GetMyReviews handles GET /api/reviews/user
// @Summary The caller's reviews
// @Tags reviews
// @Produce json
// @Success 200 {object} object{reviews=[]models.ReviewView}
// @Security BearerAuth
// @Router /reviews/user [get]
func (s *Server) GetMyReviews(c *fiber.Ctx) error {
	reviews, err := s.reviewService.ListForUser(c.UserContext(), callerID(c))
	if err != nil {
		return s.respondInternal(c, err, "Failed to fetch reviews", "FETCH_USER_REVIEWS_ERROR")
	}
	return c.JSON(fiber.Map{"reviews": reviews})
}

// GetReviewLike handles GET /api/reviews/:reviewId/like
// @Summary Whether the caller liked a review
// @Tags reviews
// @Produce json
// @Param reviewId path string true "Review ID"
// @Success 200 {object} object{isLiked=bool}
// @Security BearerAuth
// @Router /reviews/{reviewId}/like [get]
func (s *Server) GetReviewLike(c *fiber.Ctx) error {
	liked, err := s.reviewService.IsLiked(c.UserContext(), callerID(c), pathParam(c, "reviewId"))
	if err != nil {
		return s.respondInternal(c, err, "Failed to check like status", "FETCH_LIKE_ERROR")
	}
	return c.JSON(fiber.Map{"isLiked": liked})
}

// LikeReview handles POST /api/reviews/:reviewId/like
// @Summary Like a review
// @Tags reviews
// @Produce json
// @Param reviewId path string true "Review ID"
// @Success 200 {object} object{success=bool}
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /reviews/{reviewId}/like [post]
func (s *Server) LikeReview(c *fiber.Ctx) error {
	if err := s.reviewService.Like(c.UserContext(), callerID(c), pathParam(c, "reviewId")); err != nil {
		return s.mapServiceError(c, err, "Failed to like review", "LIKE_REVIEW_ERROR")
	}
	return c.JSON(fiber.Map{"success": true})
}

// UnlikeReview handles DELETE /api/reviews/:reviewId/like
// @Summary Remove a like
// @Tags reviews
// @Produce json
// @Param reviewId path string true "Review ID"
// @Success 200 {object} object{success=bool}
// @Security BearerAuth
// @Router /reviews/{reviewId}/like [delete]
func (s *Server) UnlikeReview(c *fiber.Ctx) error {
	if err := s.reviewService.Unlike(c.UserContext(), callerID(c), pathParam(c, "reviewId")); err != nil {
		return s.respondInternal(c, err, "Failed to unlike review", "UNLIKE_REVIEW_ERROR")
	}
	return c.JSON(fiber.Map{"success": true})
}
