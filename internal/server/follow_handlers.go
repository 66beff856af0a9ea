package server

import (
	"github.com/gofiber/fiber/v2"
)

// FollowUser handles POST /api/users/:userId/follow
// @Summary Follow a user
// @Tags follows
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {object} service.FollowState
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/{userId}/follow [post]
func (s *Server) FollowUser(c *fiber.Ctx) error {
	state, err := s.followService.Follow(c.UserContext(), callerID(c), pathParam(c, "userId"))
	if err != nil {
		return s.mapServiceError(c, err, "Failed to follow user", "FOLLOW_USER_ERROR")
	}
	return c.JSON(state)
}

// UnfollowUser handles DELETE /api/users/:userId/follow
// @Summary Unfollow a user
// @Tags follows
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {object} service.FollowState
// @Security BearerAuth
// @Router /users/{userId}/follow [delete]
func (s *Server) UnfollowUser(c *fiber.Ctx) error {
	state, err := s.followService.Unfollow(c.UserContext(), callerID(c), pathParam(c, "userId"))
	if err != nil {
		return s.mapServiceError(c, err, "Failed to unfollow user", "UNFOLLOW_USER_ERROR")
	}
	return c.JSON(state)
}

// GetFollowStatus handles GET /api/users/:userId/follow-status
// @Summary Whether the caller follows a user
// @Tags follows
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {object} object{isFollowing=bool}
// @Security BearerAuth
// @Router /users/{userId}/follow-status [get]
func (s *Server) GetFollowStatus(c *fiber.Ctx) error {
	following, err := s.followService.IsFollowing(c.UserContext(), callerID(c), pathParam(c, "userId"))
	if err != nil {
		return s.respondInternal(c, err, "Failed to fetch follow status", "FOLLOW_STATUS_ERROR")
	}
	return c.JSON(fiber.Map{"isFollowing": following})
}

// GetFollowers handles GET /api/users/:userId/followers
// @Summary List followers
// @Tags follows
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {object} object{followers=[]models.FollowListEntry}
// @Security BearerAuth
// @Router /users/{userId}/followers [get]
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	followers, err := s.followService.Followers(c.UserContext(), pathParam(c, "userId"))
	if err != nil {
		return s.respondInternal(c, err, "Failed to fetch followers", "FETCH_FOLLOWERS_ERROR")
	}
	return c.JSON(fiber.Map{"followers": followers})
}

// GetFollowing handles GET /api/users/:userId/following
// @Summary List followed users
// @Tags follows
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {object} object{following=[]models.FollowListEntry}
// @Security BearerAuth
// @Router /users/{userId}/following [get]
func (s *Server) GetFollowing(c *fiber.Ctx) error {
	following, err := s.followService.Following(c.UserContext(), pathParam(c, "userId"))
	if err != nil {
		return s.respondInternal(c, err, "Failed to fetch following", "FETCH_FOLLOWING_ERROR")
	}
	return c.JSON(fiber.Map{"following": following})
}

// ProfileFollow handles POST /api/profile/:userId/follow. Following twice
// is not an error.
// @Summary Follow a user (idempotent)
// @Tags follows
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {object} object{message=string}
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /profile/{userId}/follow [post]
func (s *Server) ProfileFollow(c *fiber.Ctx) error {
	created, err := s.followService.EnsureFollowing(c.UserContext(), callerID(c), pathParam(c, "userId"))
	if err != nil {
		return s.mapServiceError(c, err, "Failed to follow user", "FOLLOW_USER_ERROR")
	}
	if !created {
		return c.JSON(fiber.Map{"message": "Already following"})
	}
	return c.JSON(fiber.Map{"message": "Successfully followed"})
}

// ProfileUnfollow handles DELETE /api/profile/:userId/follow
// @Summary Unfollow a user (idempotent)
// @Tags follows
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {object} object{message=string}
// @Security BearerAuth
// @Router /profile/{userId}/follow [delete]
func (s *Server) ProfileUnfollow(c *fiber.Ctx) error {
	if _, err := s.followService.Unfollow(c.UserContext(), callerID(c), pathParam(c, "userId")); err != nil {
		return s.respondInternal(c, err, "Failed to unfollow user", "UNFOLLOW_USER_ERROR")
	}
	return c.JSON(fiber.Map{"message": "Successfully unfollowed"})
}
